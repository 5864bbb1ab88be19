package database

import (
	"context"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
)

// Catalog is the allow-list of tables and columns that may appear as identifiers
// in generated SQL. It is read once from the live schema at startup.
type Catalog struct {
	tables map[string][]string
}

func LoadCatalog(ctx context.Context, db *sqlx.DB) (*Catalog, error) {
	var names []string
	q := `
	SELECT name FROM sqlite_master
	WHERE type = 'table'
		AND name NOT LIKE 'sqlite_%'
		AND name != 'schema_migrations'`
	if err := db.SelectContext(ctx, &names, q); err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}

	c := &Catalog{tables: make(map[string][]string, len(names))}
	for _, name := range names {
		var cols []string
		if err := db.SelectContext(ctx, &cols, "SELECT name FROM pragma_table_info(?) ORDER BY cid", name); err != nil {
			return nil, fmt.Errorf("listing columns of %s: %w", name, err)
		}
		c.tables[name] = cols
	}

	return c, nil
}

func (c *Catalog) Has(table string) bool {
	_, ok := c.tables[table]
	return ok
}

func (c *Catalog) Columns(table string) []string {
	return c.tables[table]
}

func (c *Catalog) HasColumn(table, column string) bool {
	return lo.Contains(c.tables[table], column)
}

func (c *Catalog) Tables() []string {
	names := lo.Keys(c.tables)
	sort.Strings(names)
	return names
}
