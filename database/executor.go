package database

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/crypto/bcrypt"
)

// JSONPrefix marks a text column holding an encoded JSON value.
const JSONPrefix = "JSON:"

type Row map[string]any

type WriteResult struct {
	Changes         int64 `json:"changes"`
	LastInsertRowID int64 `json:"lastInsertRowid"`
}

// Result is what every statement yields. Exactly one of Rows (SELECT), Write
// (anything else) or Err is meaningful; callers check Failed first.
type Result struct {
	Rows  []Row
	Write *WriteResult
	Err   error
}

func (r Result) Failed() bool { return r.Err != nil }

// First returns the first row, or nil when there is none.
func (r Result) First() Row {
	if len(r.Rows) == 0 {
		return nil
	}
	return r.Rows[0]
}

func (r Result) MarshalJSON() ([]byte, error) {
	switch {
	case r.Err != nil:
		return json.Marshal(struct {
			Error string `json:"error"`
		}{r.Err.Error()})
	case r.Write != nil:
		return json.Marshal(r.Write)
	}

	rows := r.Rows
	if rows == nil {
		rows = []Row{}
	}
	return json.Marshal(rows)
}

type Executor struct {
	db             *sqlx.DB
	log            logrus.FieldLogger
	passwordFields map[string]struct{}
	debug          bool
}

func NewExecutor(db *sqlx.DB, log logrus.FieldLogger, passwordFields []string, debug bool) *Executor {
	pf := make(map[string]struct{}, len(passwordFields))
	for _, f := range passwordFields {
		pf[f] = struct{}{}
	}

	return &Executor{
		db:             db,
		log:            log,
		passwordFields: pf,
		debug:          debug,
	}
}

// Execute runs query with named parameters (":name"). It never returns a Go error:
// statement failures come back in Result.Err.
func (e *Executor) Execute(ctx context.Context, query string, params map[string]any) Result {
	query = Normalize(query)

	var res Result
	args, err := e.prepare(params)
	switch {
	case err != nil:
		res = Result{Err: err}
	case IsSelect(query):
		res = e.read(ctx, query, args)
	default:
		res = e.write(ctx, query, args)
	}

	if e.debug {
		e.trace(ctx, query, args, res)
	}
	return res
}

func (e *Executor) read(ctx context.Context, query string, args map[string]any) Result {
	rows, err := e.db.NamedQueryContext(ctx, query, args)
	if err != nil {
		return Result{Err: err}
	}
	defer rows.Close()

	out := []Row{}
	for rows.Next() {
		r := make(map[string]interface{})
		if err := rows.MapScan(r); err != nil {
			return Result{Err: err}
		}
		out = append(out, decodeRow(r))
	}
	if err := rows.Err(); err != nil {
		return Result{Err: err}
	}

	return Result{Rows: out}
}

func (e *Executor) write(ctx context.Context, query string, args map[string]any) Result {
	res, err := e.db.NamedExecContext(ctx, query, args)
	if err != nil {
		return Result{Err: err}
	}

	changes, err := res.RowsAffected()
	if err != nil {
		return Result{Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Result{Err: err}
	}

	return Result{Write: &WriteResult{Changes: changes, LastInsertRowID: id}}
}

// prepare works on a copy so callers can reuse their parameter maps.
func (e *Executor) prepare(params map[string]any) (map[string]any, error) {
	args := make(map[string]any, len(params))
	for k, v := range params {
		v = coerce(v)

		if _, ok := e.passwordFields[k]; ok && v != nil {
			hash, err := bcrypt.GenerateFromPassword([]byte(fmt.Sprint(v)), bcrypt.DefaultCost)
			if err != nil {
				return nil, fmt.Errorf("hashing %s: %w", k, err)
			}
			v = string(hash)
		}

		args[k] = v
	}
	return args, nil
}

func (e *Executor) trace(ctx context.Context, query string, args map[string]any, res Result) {
	fields := logrus.Fields{
		"sql":    query,
		"params": args,
	}
	if o, ok := ctx.Value(originKey).(origin); ok {
		fields["method"] = o.method
		fields["route"] = o.route
	}

	switch {
	case res.Err != nil:
		fields["error"] = res.Err.Error()
	case res.Write != nil:
		fields["changes"] = res.Write.Changes
		fields["last_insert_id"] = res.Write.LastInsertRowID
	default:
		fields["rows"] = len(res.Rows)
	}

	e.log.WithFields(fields).Info("db query")
}

type originKeyCtx int

const originKey originKeyCtx = 1

type origin struct {
	method string
	route  string
}

// WithOrigin records the request a statement belongs to, for the query log only.
func WithOrigin(ctx context.Context, method, route string) context.Context {
	return context.WithValue(ctx, originKey, origin{method: method, route: route})
}

// Normalize collapses runs of whitespace. It is cosmetic, not a sanitiser.
func Normalize(query string) string {
	return strings.Join(strings.Fields(query), " ")
}

func IsSelect(query string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "SELECT")
}

var numeric = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

func coerce(v any) any {
	switch x := v.(type) {
	case string:
		if !numeric.MatchString(x) {
			return x
		}
		if i, err := strconv.ParseInt(x, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(x, 64); err == nil {
			return f
		}
		return x
	case float64:
		if x == float64(int64(x)) {
			return int64(x)
		}
		return x
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return v
		}
		return JSONPrefix + string(b)
	}
	return v
}

func decodeRow(r map[string]interface{}) Row {
	row := make(Row, len(r))
	for k, v := range r {
		if b, ok := v.([]byte); ok {
			v = string(b)
		}

		if s, ok := v.(string); ok && strings.HasPrefix(s, JSONPrefix) {
			if raw := s[len(JSONPrefix):]; gjson.Valid(raw) {
				v = gjson.Parse(raw).Value()
			}
		}

		row[k] = v
	}
	return row
}
