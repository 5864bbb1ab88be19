package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/wilde-art/framecart/api/web"
	"github.com/wilde-art/framecart/api/weberr"
	"github.com/wilde-art/framecart/core/claims"
	"github.com/wilde-art/framecart/rate"
)

// RateLimit throttles each client, identified by its cart session when the
// session middleware ran before it and by remote address otherwise.
func RateLimit(lim *rate.Limiter) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if !lim.Check(clientKey(ctx, r)) {
				return weberr.TooManyRequests(errors.New("client exceeded its request budget"))
			}
			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

func clientKey(ctx context.Context, r *http.Request) string {
	if c, err := claims.Get(ctx); err == nil && c.SessionID != "" {
		return "session:" + c.SessionID
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "addr:" + host
}
