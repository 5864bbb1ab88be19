package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/sirupsen/logrus"
	"github.com/wilde-art/framecart/api"
	"github.com/wilde-art/framecart/config"
	"github.com/wilde-art/framecart/core/auth"
	"github.com/wilde-art/framecart/database"
	"github.com/wilde-art/framecart/rate"
)

const prefix = "/api"

const upstreamRates = `{
	"date": "2026-10-16",
	"usd": {"eur": 0.92, "nok": 10.61, "sek": 10.44}
}`

type TestEnv struct {
	*httptest.Server
	Session *scs.SessionManager
}

type Option func(*api.APIConfig)

func WithLimiter(burst int, interval time.Duration) Option {
	return func(cfg *api.APIConfig) {
		cfg.Limiter = rate.NewLimiter(burst, time.Minute, rate.Every(interval))
	}
}

func NewTestEnv(t *testing.T, name string, opts ...Option) (*TestEnv, error) {
	t.Helper()

	db, err := database.Open(config.DB{Path: filepath.Join(t.TempDir(), name+".sqlite3")})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	catalog, err := database.LoadCatalog(context.Background(), db)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	rates := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, upstreamRates)
	}))
	t.Cleanup(rates.Close)

	sm := scs.New()

	cfg := api.APIConfig{
		Prefix:      prefix,
		DefaultLang: "en",
		Log:         log,
		DB:          db,
		Catalog:     catalog,
		Session:     sm,
		Auth: config.Auth{
			UserTable:      "users",
			RoleField:      "userRole",
			AdminRole:      "admin",
			OwnerField:     "userId",
			PasswordFields: []string{"password"},
		},
		Rates: config.Rates{
			URL:        rates.URL,
			Currencies: []string{"nok", "sek"},
			Timeout:    time.Second,
		},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Limiter != nil {
		t.Cleanup(cfg.Limiter.Close)
	}

	// Login flows are not part of the service; tests sign in through this hook.
	signin := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := auth.SignIn(r.Context(), sm, id, r.URL.Query().Get("role")); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux := http.NewServeMux()
	mux.Handle("/test/signin", sm.LoadAndSave(signin))
	mux.Handle("/", api.APIMux(cfg))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	srv.Client().Jar = jar

	return &TestEnv{Server: srv, Session: sm}, nil
}

// NewClient returns a client with its own cookie jar, i.e. a separate visitor.
func (env *TestEnv) NewClient(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Client{Jar: jar}
}

func (env *TestEnv) SignIn(t *testing.T, c *http.Client, userID int64, role string) {
	t.Helper()

	url := fmt.Sprintf("%s/test/signin?id=%d&role=%s", env.URL, userID, role)
	w, err := c.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusNoContent {
		t.Fatalf("can't sign in: status code %s", w.Status)
	}
}

// Do sends body as JSON to the API and decodes the JSON answer into any.
func (env *TestEnv) Do(t *testing.T, c *http.Client, method, path string, body any) (int, any) {
	t.Helper()

	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(raw)
	}

	r, err := http.NewRequest(method, env.URL+prefix+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	if rd != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	w, err := c.Do(r)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	raw, err := io.ReadAll(w.Body)
	if err != nil {
		t.Fatal(err)
	}

	var out any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("%s %s: cannot unmarshal %q: %v", method, path, raw, err)
		}
	}
	return w.StatusCode, out
}

// Expect is Do plus a status check.
func (env *TestEnv) Expect(t *testing.T, c *http.Client, method, path string, body any, status int) any {
	t.Helper()

	code, out := env.Do(t, c, method, path, body)
	if code != status {
		t.Fatalf("%s %s: status code %d, want %d (body %v)", method, path, code, status, out)
	}
	return out
}

func errorBody(msg string) map[string]any {
	return map[string]any{"error": msg}
}
