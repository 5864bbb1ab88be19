package resource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/wilde-art/framecart/api/web"
	"github.com/wilde-art/framecart/api/weberr"
	"github.com/wilde-art/framecart/core/claims"
	"github.com/wilde-art/framecart/database"
)

// respond maps executor failures to a 400 carrying the driver message.
func respond(ctx context.Context, w http.ResponseWriter, res database.Result, data any) error {
	if res.Failed() {
		return weberr.Rejected(res.Err)
	}
	return web.Respond(ctx, w, data, http.StatusOK)
}

// decodeBody accepts an empty body as an empty column map.
func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	body := map[string]any{}
	if err := web.Decode(w, r, &body); err != nil && !errors.Is(err, io.EOF) {
		return nil, weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
	}
	return body, nil
}

func HandleCreate(rs *Resources) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		body, err := decodeBody(w, r)
		if err != nil {
			return err
		}

		res := rs.Create(ctx, web.Param(r, "table"), web.Lang(ctx), body)
		return respond(ctx, w, res, res)
	}
}

func HandleList(rs *Resources) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, _ := claims.Get(ctx)

		res := rs.List(ctx, clm, web.Param(r, "table"), web.Lang(ctx), r.URL.Query())
		return respond(ctx, w, res, res)
	}
}

func HandleShow(rs *Resources) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, _ := claims.Get(ctx)

		res := rs.Get(ctx, clm, web.Param(r, "table"), web.Lang(ctx), web.Param(r, "id"))
		if row := res.First(); row != nil {
			return respond(ctx, w, res, row)
		}
		return respond(ctx, w, res, nil)
	}
}

func HandleUpdate(rs *Resources) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		body, err := decodeBody(w, r)
		if err != nil {
			return err
		}

		res := rs.Update(ctx, web.Param(r, "table"), web.Lang(ctx), web.Param(r, "id"), body)
		return respond(ctx, w, res, res)
	}
}

func HandleDelete(rs *Resources) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		res := rs.Delete(ctx, web.Param(r, "table"), web.Param(r, "id"))
		return respond(ctx, w, res, res)
	}
}
