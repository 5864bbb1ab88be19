package middleware

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/wilde-art/framecart/api/web"
	"github.com/wilde-art/framecart/api/weberr"
)

// Panics converts a panic into an error so Errors can report it. It must sit
// inside Errors in the chain.
func Panics() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					err = weberr.InternalError(
						fmt.Errorf("panic: %v", rec),
						weberr.WithFields(map[string]interface{}{"trace": string(debug.Stack())}),
					)
				}
			}()

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
