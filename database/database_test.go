package database

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/wilde-art/framecart/config"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := Open(config.DB{Path: filepath.Join(t.TempDir(), "test.sqlite3")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))

	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM frameMaterials"))
	require.Equal(t, 3, n)
}

func TestLoadCatalog(t *testing.T) {
	db := openTestDB(t)

	c, err := LoadCatalog(context.Background(), db)
	require.NoError(t, err)

	require.True(t, c.Has("animals"))
	require.True(t, c.Has("orderLines"))
	require.False(t, c.Has("schema_migrations"))
	require.False(t, c.Has("orderTotals"), "views are not addressable")
	require.False(t, c.Has("animals; DROP TABLE users"))

	require.True(t, c.HasColumn("frameMaterials", "priceMultiplier"))
	require.False(t, c.HasColumn("frameMaterials", "price"))
	require.Equal(t, []string{"id", "frameSpecId", "basePrice"}, c.Columns("framePricing"))
	require.Contains(t, c.Tables(), "users")
}
