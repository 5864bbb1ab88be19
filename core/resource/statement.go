package resource

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/wilde-art/framecart/core/search"
)

// Statement is SQL text plus its named parameters.
type Statement struct {
	SQL    string
	Params map[string]any
}

func sortedKeys(m map[string]any) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}

func Insert(table string, values map[string]any) Statement {
	if len(values) == 0 {
		return Statement{SQL: fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", table), Params: map[string]any{}}
	}

	cols := sortedKeys(values)
	binds := lo.Map(cols, func(c string, _ int) string { return ":" + c })

	return Statement{
		SQL: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			table, strings.Join(cols, ", "), strings.Join(binds, ", ")),
		Params: values,
	}
}

func Update(table string, id any, values map[string]any) Statement {
	cols := sortedKeys(values)
	sets := lo.Map(cols, func(c string, _ int) string { return c + " = :" + c })

	params := make(map[string]any, len(values)+1)
	for k, v := range values {
		params[k] = v
	}
	params["id"] = id

	return Statement{
		SQL:    fmt.Sprintf("UPDATE %s SET %s WHERE id = :id", table, strings.Join(sets, ", ")),
		Params: params,
	}
}

func Delete(table string, id any) Statement {
	return Statement{
		SQL:    fmt.Sprintf("DELETE FROM %s WHERE id = :id", table),
		Params: map[string]any{"id": id},
	}
}

func List(selectFrom string, where search.Where) Statement {
	sql := selectFrom
	if where.SQL != "" {
		sql += " " + where.SQL
	}

	params := where.Params
	if params == nil {
		params = map[string]any{}
	}
	return Statement{SQL: sql, Params: params}
}

func Get(selectFrom string, id any) Statement {
	return Statement{
		SQL:    selectFrom + " WHERE id = :id",
		Params: map[string]any{"id": id},
	}
}
