// Package acl filters read results down to what the caller may see.
package acl

import (
	"strconv"

	"github.com/wilde-art/framecart/core/claims"
	"github.com/wilde-art/framecart/database"
)

// Filter drops rows owned by somebody else and strips password columns.
// A row is owned when it carries the owner column; rows without it are public.
type Filter struct {
	OwnerField     string
	TableOwners    map[string]string
	AdminRole      string
	PasswordFields []string
}

func (f *Filter) ownerField(table string) string {
	if field, ok := f.TableOwners[table]; ok {
		return field
	}
	return f.OwnerField
}

// Apply never returns nil, so an empty result still encodes as [].
func (f *Filter) Apply(c claims.Claims, table string, rows []database.Row) []database.Row {
	field := f.ownerField(table)
	admin := c.Authenticated() && f.AdminRole != "" && c.Role == f.AdminRole

	out := make([]database.Row, 0, len(rows))
	for _, row := range rows {
		if owner, ok := row[field]; ok && !admin && !owns(c, owner) {
			continue
		}

		for _, pf := range f.PasswordFields {
			delete(row, pf)
		}
		out = append(out, row)
	}
	return out
}

func owns(c claims.Claims, owner any) bool {
	if !c.Authenticated() {
		return false
	}

	switch v := owner.(type) {
	case int64:
		return v == c.UserID
	case float64:
		return v == float64(c.UserID)
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		return err == nil && id == c.UserID
	}
	return false
}
