// Package auth bridges the session store and the request claims. Login and
// registration flows live elsewhere; they only call SignIn and SignOut.
package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/wilde-art/framecart/api/web"
	"github.com/wilde-art/framecart/core/claims"
)

const (
	sessionIDKey = "cartSessionId"
	userIDKey    = "userId"
	roleKey      = "userRole"
)

// LoadAndSave adapts the scs middleware to web.Handler.
func LoadAndSave(sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			var err error
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				err = handler(r.Context(), w, r)
			})

			sm.LoadAndSave(next).ServeHTTP(w, r.WithContext(ctx))
			return err
		}
		return h
	}
	return m
}

// Identify loads the caller's claims from the session. Visitors get a cart
// session id on their first request; it survives SignIn so anonymous carts can
// be bound to the account afterwards.
func Identify(sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			sid := sm.GetString(ctx, sessionIDKey)
			if sid == "" {
				sid = uuid.NewString()
				sm.Put(ctx, sessionIDKey, sid)
			}

			c := claims.Claims{
				SessionID: sid,
				UserID:    sm.GetInt64(ctx, userIDKey),
				Role:      sm.GetString(ctx, roleKey),
			}

			return handler(claims.Set(ctx, c), w, r)
		}
		return h
	}
	return m
}

func SignIn(ctx context.Context, sm *scs.SessionManager, userID int64, role string) error {
	if err := sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}

	sm.Put(ctx, userIDKey, userID)
	sm.Put(ctx, roleKey, role)
	return nil
}

// SignOut forgets the user but keeps the cart session id.
func SignOut(ctx context.Context, sm *scs.SessionManager) error {
	sm.Remove(ctx, userIDKey)
	sm.Remove(ctx, roleKey)

	if err := sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}
	return nil
}
