// Package search turns query-string filters into a WHERE clause with named
// parameters. The generic REST layer only depends on the Parser contract.
package search

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Where is a SQL fragment (possibly empty) plus the parameters it references.
type Where struct {
	SQL    string
	Params map[string]any
}

type Parser interface {
	Parse(table string, query url.Values, columns []string) (Where, error)
}

const (
	keyOrderBy = "orderby"
	keyLimit   = "limit"
	keyOffset  = "offset"
	likePrefix = "like_"
)

// Simple understands:
//
//	?col=v            col = v (repeated keys become IN)
//	?like_col=%v%     col LIKE v
//	?orderby=a,-b     ORDER BY a, b DESC
//	?limit=n&offset=m
type Simple struct{}

func (Simple) Parse(table string, query url.Values, columns []string) (Where, error) {
	w := Where{Params: map[string]any{}}

	keys := lo.Keys(query)
	sort.Strings(keys)

	var conds []string
	for _, key := range keys {
		vals := query[key]
		if key == keyOrderBy || key == keyLimit || key == keyOffset || len(vals) == 0 {
			continue
		}

		if col := strings.TrimPrefix(key, likePrefix); col != key {
			if !lo.Contains(columns, col) {
				return Where{}, fmt.Errorf("unknown search column %q in %s", col, table)
			}
			name := "like_" + col
			conds = append(conds, fmt.Sprintf("%s LIKE :%s", col, name))
			w.Params[name] = vals[0]
			continue
		}

		if !lo.Contains(columns, key) {
			return Where{}, fmt.Errorf("unknown search column %q in %s", key, table)
		}

		if len(vals) == 1 {
			name := "w_" + key
			conds = append(conds, fmt.Sprintf("%s = :%s", key, name))
			w.Params[name] = vals[0]
			continue
		}

		names := make([]string, len(vals))
		for i, v := range vals {
			names[i] = fmt.Sprintf(":w_%s_%d", key, i)
			w.Params[names[i][1:]] = v
		}
		conds = append(conds, fmt.Sprintf("%s IN (%s)", key, strings.Join(names, ", ")))
	}

	var parts []string
	if len(conds) > 0 {
		parts = append(parts, "WHERE "+strings.Join(conds, " AND "))
	}

	if ob := query.Get(keyOrderBy); ob != "" {
		order, err := orderBy(ob, columns)
		if err != nil {
			return Where{}, err
		}
		parts = append(parts, order)
	}

	limit, offset := query.Get(keyLimit), query.Get(keyOffset)
	if limit != "" || offset != "" {
		page, err := paging(limit, offset)
		if err != nil {
			return Where{}, err
		}
		parts = append(parts, page)
	}

	w.SQL = strings.Join(parts, " ")
	return w, nil
}

func orderBy(spec string, columns []string) (string, error) {
	var terms []string
	for _, raw := range strings.Split(spec, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		col, dir := raw, ""
		if strings.HasPrefix(raw, "-") {
			col, dir = raw[1:], " DESC"
		}
		if !lo.Contains(columns, col) {
			return "", fmt.Errorf("unknown orderby column %q", col)
		}
		terms = append(terms, col+dir)
	}

	if len(terms) == 0 {
		return "", nil
	}
	return "ORDER BY " + strings.Join(terms, ", "), nil
}

func paging(limit, offset string) (string, error) {
	n := -1
	if limit != "" {
		v, err := strconv.Atoi(limit)
		if err != nil || v < 0 {
			return "", fmt.Errorf("limit must be a non-negative integer")
		}
		n = v
	}

	s := fmt.Sprintf("LIMIT %d", n)
	if offset != "" {
		v, err := strconv.Atoi(offset)
		if err != nil || v < 0 {
			return "", fmt.Errorf("offset must be a non-negative integer")
		}
		s += fmt.Sprintf(" OFFSET %d", v)
	}
	return s, nil
}
