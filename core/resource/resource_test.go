package resource

import (
	"context"
	"io"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/wilde-art/framecart/config"
	"github.com/wilde-art/framecart/core/acl"
	"github.com/wilde-art/framecart/core/claims"
	"github.com/wilde-art/framecart/core/search"
	"github.com/wilde-art/framecart/database"
)

func newResources(t *testing.T) (*Resources, *database.Executor) {
	t.Helper()

	db, err := database.Open(config.DB{Path: filepath.Join(t.TempDir(), "test.sqlite3")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	catalog, err := database.LoadCatalog(context.Background(), db)
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)
	exec := database.NewExecutor(db, log, []string{"password"}, false)

	filter := &acl.Filter{
		OwnerField:     "userId",
		TableOwners:    map[string]string{"users": "id"},
		AdminRole:      claims.RoleAdmin,
		PasswordFields: []string{"password"},
	}

	rs := New(exec, catalog, DefaultRegistry, search.Simple{}, filter, Config{UserTable: "users", RoleField: "userRole"})
	return rs, exec
}

var anonymous = claims.Claims{SessionID: "s-1"}

func TestMultilingualRoundTrip(t *testing.T) {
	rs, _ := newResources(t)
	ctx := context.Background()

	res := rs.Create(ctx, "animals", "en", map[string]any{
		"id":   float64(99),
		"name": map[string]any{"en": "Fox", "no": "Rev"},
		"slug": "arctic-fox",
	})
	require.False(t, res.Failed(), "%v", res.Err)
	require.NotEqual(t, int64(99), res.Write.LastInsertRowID, "client ids are ignored")
	id := res.Write.LastInsertRowID

	tests := map[string]string{
		"no": "Rev",
		"en": "Fox",
		"sv": "Fox",
		"":   "Fox",
		"'x": "Fox",
	}
	for lang, want := range tests {
		res := rs.Get(ctx, anonymous, "animals", lang, id)
		require.False(t, res.Failed(), "%v", res.Err)
		require.Equal(t, want, res.First()["name"], "lang %q", lang)
	}
}

func TestBareStringIsFiledUnderRequestLanguage(t *testing.T) {
	rs, _ := newResources(t)
	ctx := context.Background()

	res := rs.Create(ctx, "products", "no", map[string]any{"name": "Plakat", "slug": "plakat"})
	require.False(t, res.Failed(), "%v", res.Err)

	res = rs.Get(ctx, anonymous, "products", "no", res.Write.LastInsertRowID)
	require.False(t, res.Failed(), "%v", res.Err)
	require.Equal(t, "Plakat", res.First()["name"])
}

func TestSeedFallsBackToEnglish(t *testing.T) {
	rs, _ := newResources(t)

	res := rs.Get(context.Background(), anonymous, "animals", "sv", "3")
	require.False(t, res.Failed(), "%v", res.Err)

	row := res.First()
	require.Equal(t, "Lynx", row["name"])
	require.Equal(t, "Däggdjur", row["category"])
	require.Equal(t, "lynx", row["slug"])
}

func TestRejectsUnknownIdentifiers(t *testing.T) {
	rs, _ := newResources(t)
	ctx := context.Background()

	res := rs.Create(ctx, "animals; DROP TABLE users", "en", map[string]any{"slug": "x"})
	require.EqualError(t, res.Err, "no such table: animals; DROP TABLE users")

	res = rs.List(ctx, anonymous, "orderTotals", "en", nil)
	require.EqualError(t, res.Err, "no such table: orderTotals")

	res = rs.Create(ctx, "animals", "en", map[string]any{"slug": "x", "colour": "red"})
	require.EqualError(t, res.Err, "no such column: colour")

	res = rs.Update(ctx, "animals", "en", "1", map[string]any{"slug = 'x' --": "y"})
	require.EqualError(t, res.Err, "no such column: slug = 'x' --")
}

func TestCreateStripsRole(t *testing.T) {
	rs, exec := newResources(t)
	ctx := context.Background()

	res := rs.Create(ctx, "users", "en", map[string]any{
		"email":    "ada@example.com",
		"userRole": "admin",
		"password": "secret",
	})
	require.False(t, res.Failed(), "%v", res.Err)

	res = exec.Execute(ctx, "SELECT userRole, password FROM users WHERE id = :id", map[string]any{"id": res.Write.LastInsertRowID})
	require.False(t, res.Failed(), "%v", res.Err)
	require.Equal(t, "user", res.First()["userRole"])
	require.NotEqual(t, "secret", res.First()["password"])
}

func TestUpdate(t *testing.T) {
	rs, exec := newResources(t)
	ctx := context.Background()

	res := rs.Update(ctx, "animals", "en", "1", map[string]any{"id": float64(5), "wikiUrl": "https://example.com/fox"})
	require.False(t, res.Failed(), "%v", res.Err)
	require.Equal(t, int64(1), res.Write.Changes)

	res = exec.Execute(ctx, "SELECT id, wikiUrl FROM animals WHERE slug = :slug", map[string]any{"slug": "red-fox"})
	require.False(t, res.Failed(), "%v", res.Err)
	require.Equal(t, int64(1), res.First()["id"])
	require.Equal(t, "https://example.com/fox", res.First()["wikiUrl"])

	res = rs.Update(ctx, "users", "en", "1", map[string]any{"id": float64(2), "userRole": "admin"})
	require.ErrorIs(t, res.Err, ErrNothingToUpdate)
}

func TestCreateWithEmptyBody(t *testing.T) {
	rs, _ := newResources(t)

	res := rs.Create(context.Background(), "orders", "en", map[string]any{})
	require.False(t, res.Failed(), "%v", res.Err)
	require.Equal(t, int64(1), res.Write.Changes)
}

func TestDelete(t *testing.T) {
	rs, _ := newResources(t)
	ctx := context.Background()

	res := rs.Create(ctx, "products", "en", map[string]any{"name": map[string]any{"en": "Poster"}, "slug": "poster"})
	require.False(t, res.Failed(), "%v", res.Err)
	id := res.Write.LastInsertRowID

	res = rs.Delete(ctx, "products", id)
	require.False(t, res.Failed(), "%v", res.Err)
	require.Equal(t, int64(1), res.Write.Changes)

	res = rs.Get(ctx, anonymous, "products", "en", id)
	require.False(t, res.Failed(), "%v", res.Err)
	require.Nil(t, res.First())
}

func TestListSearch(t *testing.T) {
	rs, _ := newResources(t)
	ctx := context.Background()

	res := rs.List(ctx, anonymous, "animals", "no", url.Values{"slug": {"lynx"}})
	require.False(t, res.Failed(), "%v", res.Err)
	require.Len(t, res.Rows, 1)
	require.Equal(t, "Gaupe", res.First()["name"])

	res = rs.List(ctx, anonymous, "frameMaterials", "en", url.Values{"orderby": {"-priceMultiplier"}, "limit": {"2"}})
	require.False(t, res.Failed(), "%v", res.Err)
	require.Len(t, res.Rows, 2)
	require.Equal(t, "gilded", res.Rows[0]["slug"])
	require.Equal(t, "black-aluminium", res.Rows[1]["slug"])

	res = rs.List(ctx, anonymous, "animals", "en", url.Values{"colour": {"red"}})
	require.Error(t, res.Err)
}

func TestListAppliesAccessFilter(t *testing.T) {
	rs, exec := newResources(t)
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com"} {
		res := rs.Create(ctx, "users", "en", map[string]any{"email": email, "password": "pw"})
		require.False(t, res.Failed(), "%v", res.Err)

		res = exec.Execute(ctx, "INSERT INTO orders (userId) VALUES (:userId)", map[string]any{"userId": res.Write.LastInsertRowID})
		require.False(t, res.Failed(), "%v", res.Err)
	}

	alice := claims.Claims{SessionID: "s-a", UserID: 1, Role: claims.RoleUser}
	admin := claims.Claims{SessionID: "s-x", UserID: 2, Role: claims.RoleAdmin}

	res := rs.List(ctx, anonymous, "orders", "en", nil)
	require.False(t, res.Failed(), "%v", res.Err)
	require.Empty(t, res.Rows)

	res = rs.List(ctx, alice, "orders", "en", nil)
	require.Len(t, res.Rows, 1)
	require.Equal(t, int64(1), res.First()["userId"])

	res = rs.List(ctx, admin, "orders", "en", nil)
	require.Len(t, res.Rows, 2)

	res = rs.List(ctx, alice, "users", "en", nil)
	require.Len(t, res.Rows, 1)
	require.Equal(t, "a@example.com", res.First()["email"])
	require.NotContains(t, res.First(), "password")

	res = rs.Get(ctx, alice, "users", "en", "2")
	require.False(t, res.Failed(), "%v", res.Err)
	require.Nil(t, res.First())
}
