package cart

import (
	"context"
	"fmt"
	"net/http"

	"github.com/wilde-art/framecart/api/web"
	"github.com/wilde-art/framecart/api/weberr"
	"github.com/wilde-art/framecart/core/claims"
)

func owner(ctx context.Context) (Owner, error) {
	clm, err := claims.Get(ctx)
	if err != nil {
		return Owner{}, fmt.Errorf("resolving cart owner: %w", err)
	}
	return OwnerOf(clm), nil
}

func respondView(ctx context.Context, w http.ResponseWriter, e *Engine, o Owner) error {
	v, err := e.View(ctx, o, web.Lang(ctx))
	if err != nil {
		return weberr.Rejected(err)
	}
	return web.Respond(ctx, w, v, http.StatusOK)
}

func HandleAdd(e *Engine) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		o, err := owner(ctx)
		if err != nil {
			return err
		}

		var item AddItem
		if err := web.Decode(w, r, &item); err != nil {
			return weberr.Rejected(ErrMissingConfiguration, weberr.WithFields(map[string]interface{}{
				"decode": err.Error(),
			}))
		}

		if err := e.Add(ctx, o, item); err != nil {
			return weberr.Rejected(err)
		}

		return respondView(ctx, w, e, o)
	}
}

func HandleShow(e *Engine) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		o, err := owner(ctx)
		if err != nil {
			return err
		}

		return respondView(ctx, w, e, o)
	}
}

func HandleUpdate(e *Engine) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		o, err := owner(ctx)
		if err != nil {
			return err
		}

		var up UpdateItem
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.Rejected(ErrMissingUpdate, weberr.WithFields(map[string]interface{}{
				"decode": err.Error(),
			}))
		}

		orderID, err := e.UpdateQuantity(ctx, o, up)
		if err != nil {
			return weberr.Rejected(err)
		}

		v, err := e.ViewOrder(ctx, orderID, web.Lang(ctx))
		if err != nil {
			return weberr.Rejected(err)
		}
		return web.Respond(ctx, w, v, http.StatusOK)
	}
}

func HandleRemove(e *Engine) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		o, err := owner(ctx)
		if err != nil {
			return err
		}

		if err := e.Remove(ctx, o, web.Param(r, "orderLineId")); err != nil {
			return weberr.Rejected(err)
		}

		return web.Respond(ctx, w, Status{Status: StatusRemoved}, http.StatusOK)
	}
}

func HandleClear(e *Engine) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		o, err := owner(ctx)
		if err != nil {
			return err
		}

		if err := e.Clear(ctx, o); err != nil {
			return weberr.Rejected(err)
		}

		return web.Respond(ctx, w, Status{Status: StatusEmpty}, http.StatusOK)
	}
}
