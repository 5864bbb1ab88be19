// Package resource maps /{table} routes onto INSERT, SELECT, UPDATE and DELETE
// statements for any table present in the schema catalog.
package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"
	"github.com/wilde-art/framecart/core/acl"
	"github.com/wilde-art/framecart/core/claims"
	"github.com/wilde-art/framecart/core/search"
	"github.com/wilde-art/framecart/database"
)

var ErrNothingToUpdate = errors.New("nothing to update")

// Config names the table whose role column clients may never write.
type Config struct {
	UserTable string
	RoleField string
}

type Resources struct {
	exec     *database.Executor
	catalog  *database.Catalog
	registry Registry
	parser   search.Parser
	filter   *acl.Filter
	cfg      Config
}

func New(exec *database.Executor, catalog *database.Catalog, registry Registry, parser search.Parser, filter *acl.Filter, cfg Config) *Resources {
	return &Resources{
		exec:     exec,
		catalog:  catalog,
		registry: registry,
		parser:   parser,
		filter:   filter,
		cfg:      cfg,
	}
}

func (rs *Resources) checkTable(table string) error {
	if !rs.catalog.Has(table) {
		return fmt.Errorf("no such table: %s", table)
	}
	return nil
}

// columns strips fields clients may not set and encodes multilingual values so
// that JSON_EXTRACT can read them back.
func (rs *Resources) columns(table, lang string, body map[string]any) (map[string]any, error) {
	values := make(map[string]any, len(body))
	for col, v := range body {
		if col == "id" || (table == rs.cfg.UserTable && col == rs.cfg.RoleField) {
			continue
		}
		if !rs.catalog.HasColumn(table, col) {
			return nil, fmt.Errorf("no such column: %s", col)
		}

		if rs.registry.IsMultilingual(table, col) {
			enc, err := multilingual(v, lang)
			if err != nil {
				return nil, fmt.Errorf("encoding %s: %w", col, err)
			}
			v = enc
		}
		values[col] = v
	}
	return values, nil
}

// multilingual stores language-keyed objects as JSON text. A bare string is
// filed under the request language.
func multilingual(v any, lang string) (any, error) {
	switch x := v.(type) {
	case map[string]any:
		b, err := json.Marshal(x)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case string:
		if gjson.Valid(x) && gjson.Parse(x).IsObject() {
			return x, nil
		}
		b, err := json.Marshal(map[string]string{Lang(lang): x})
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
	return v, nil
}

func (rs *Resources) run(ctx context.Context, st Statement) database.Result {
	return rs.exec.Execute(ctx, st.SQL, st.Params)
}

func (rs *Resources) Create(ctx context.Context, table, lang string, body map[string]any) database.Result {
	if err := rs.checkTable(table); err != nil {
		return database.Result{Err: err}
	}

	values, err := rs.columns(table, lang, body)
	if err != nil {
		return database.Result{Err: err}
	}

	return rs.run(ctx, Insert(table, values))
}

func (rs *Resources) Update(ctx context.Context, table, lang string, id any, body map[string]any) database.Result {
	if err := rs.checkTable(table); err != nil {
		return database.Result{Err: err}
	}

	values, err := rs.columns(table, lang, body)
	if err != nil {
		return database.Result{Err: err}
	}
	if len(values) == 0 {
		return database.Result{Err: ErrNothingToUpdate}
	}

	return rs.run(ctx, Update(table, id, values))
}

func (rs *Resources) Delete(ctx context.Context, table string, id any) database.Result {
	if err := rs.checkTable(table); err != nil {
		return database.Result{Err: err}
	}

	return rs.run(ctx, Delete(table, id))
}

// List returns the rows of table matching query, projected into lang and
// filtered down to what c may see.
func (rs *Resources) List(ctx context.Context, c claims.Claims, table, lang string, query url.Values) database.Result {
	if err := rs.checkTable(table); err != nil {
		return database.Result{Err: err}
	}

	where, err := rs.parser.Parse(table, query, rs.catalog.Columns(table))
	if err != nil {
		return database.Result{Err: err}
	}

	res := rs.run(ctx, List(rs.registry.SelectFrom(table, lang), where))
	if res.Failed() {
		return res
	}

	res.Rows = rs.filter.Apply(c, table, res.Rows)
	return res
}

// Get returns a single-row result, or no rows when the id is unknown or the row
// belongs to someone else.
func (rs *Resources) Get(ctx context.Context, c claims.Claims, table, lang string, id any) database.Result {
	if err := rs.checkTable(table); err != nil {
		return database.Result{Err: err}
	}

	res := rs.run(ctx, Get(rs.registry.SelectFrom(table, lang), id))
	if res.Failed() {
		return res
	}

	res.Rows = rs.filter.Apply(c, table, res.Rows)
	return res
}
