package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/wilde-art/framecart/api/web"
)

const (
	RequestIDHeader = "X-Request-Id"

	DefaultRequestIDLengthLimit = 128
)

type reqIDKeyCtx int

const reqIDKey reqIDKeyCtx = 1

// RequestID reuses an incoming X-Request-Id (truncated) or mints a new one, and
// echoes it back in the response.
func RequestID() web.Middleware {
	lengthLimit := DefaultRequestIDLengthLimit
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.NewString()
			} else if len(id) > lengthLimit {
				id = id[:lengthLimit]
			}
			w.Header().Set(RequestIDHeader, id)

			return handler(context.WithValue(ctx, reqIDKey, id), w, r)
		}
		return h
	}
	return m
}

func ContextRequestID(ctx context.Context) (reqID string) {
	id := ctx.Value(reqIDKey)
	if id != nil {
		reqID = id.(string)
	}
	return
}
