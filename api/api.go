package api

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/wilde-art/framecart/api/middleware"
	"github.com/wilde-art/framecart/api/web"
	"github.com/wilde-art/framecart/config"
	"github.com/wilde-art/framecart/core/acl"
	"github.com/wilde-art/framecart/core/auth"
	"github.com/wilde-art/framecart/core/cart"
	"github.com/wilde-art/framecart/core/rates"
	"github.com/wilde-art/framecart/core/resource"
	"github.com/wilde-art/framecart/core/search"
	"github.com/wilde-art/framecart/database"
	"github.com/wilde-art/framecart/rate"
)

type APIConfig struct {
	Prefix      string
	CorsOrigin  string
	DefaultLang string
	LogQueries  bool
	Log         logrus.FieldLogger
	DB          *sqlx.DB
	Catalog     *database.Catalog
	Session     *scs.SessionManager
	Auth        config.Auth
	Rates       config.Rates
	Limiter     *rate.Limiter
}

type api struct {
	*mux.Router
	prefix string
	mw     []web.Middleware
	log    logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		prefix: cfg.Prefix,
		log:    cfg.Log,
	}

	a.mw = append(a.mw, auth.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	a.mw = append(a.mw, auth.Identify(cfg.Session))

	var limit web.Middleware
	if cfg.Limiter != nil {
		limit = middleware.RateLimit(cfg.Limiter)
	}

	exec := database.NewExecutor(cfg.DB, cfg.Log, cfg.Auth.PasswordFields, cfg.LogQueries)

	filter := &acl.Filter{
		OwnerField:     cfg.Auth.OwnerField,
		TableOwners:    map[string]string{cfg.Auth.UserTable: "id"},
		AdminRole:      cfg.Auth.AdminRole,
		PasswordFields: cfg.Auth.PasswordFields,
	}
	rs := resource.New(exec, cfg.Catalog, resource.DefaultRegistry, search.Simple{}, filter, resource.Config{
		UserTable: cfg.Auth.UserTable,
		RoleField: cfg.Auth.RoleField,
	})

	engine := cart.NewEngine(exec)

	a.Handle(http.MethodPost, "/add-frame-to-cart", cart.HandleAdd(engine), limit)
	a.Handle(http.MethodGet, "/frame-cart", cart.HandleShow(engine))
	a.Handle(http.MethodPut, "/update-frame-in-cart", cart.HandleUpdate(engine), limit)
	a.Handle(http.MethodDelete, "/remove-frame-from-cart/{orderLineId}", cart.HandleRemove(engine), limit)
	a.Handle(http.MethodDelete, "/frame-cart", cart.HandleClear(engine), limit)

	a.Handle(http.MethodGet, "/exchange-rates", rates.HandleShow(rates.New(cfg.Rates)))

	a.Handle(http.MethodPost, "/{table}", resource.HandleCreate(rs))
	a.Handle(http.MethodGet, "/{table}", resource.HandleList(rs))
	a.Handle(http.MethodGet, "/{table}/{id}", resource.HandleShow(rs))
	a.Handle(http.MethodPut, "/{table}/{id}", resource.HandleUpdate(rs))
	a.Handle(http.MethodDelete, "/{table}/{id}", resource.HandleDelete(rs))

	return middleware.Language(cfg.Prefix, cfg.DefaultLang, a.Router)
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	route := a.prefix + path

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := database.WithOrigin(r.Context(), method, route)

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(route, h).Methods(method)
}
