package claims

import (
	"context"
	"errors"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Claims identify the caller of a request. SessionID is always set once the
// session middleware ran; UserID is zero for anonymous visitors.
type Claims struct {
	SessionID string
	UserID    int64
	Role      string
}

func (c Claims) Authenticated() bool {
	return c.UserID != 0
}

// UserParam is the user id as a SQL parameter: NULL when anonymous.
func (c Claims) UserParam() any {
	if c.UserID == 0 {
		return nil
	}
	return c.UserID
}

// SessionParam is the session id as a SQL parameter: NULL when unknown.
func (c Claims) SessionParam() any {
	if c.SessionID == "" {
		return nil
	}
	return c.SessionID
}

type ctxKey int

const claimsKey ctxKey = 1

func Set(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func Get(ctx context.Context) (Claims, error) {
	v, ok := ctx.Value(claimsKey).(Claims)
	if !ok {
		return Claims{}, errors.New("claim value missing from context")
	}
	return v, nil
}

func HasRole(ctx context.Context, role string) bool {
	c, err := Get(ctx)
	if err != nil {
		return false
	}

	return c.Authenticated() && c.Role == role
}

func IsUser(ctx context.Context, id int64) bool {
	c, err := Get(ctx)
	if err != nil {
		return false
	}

	return c.Authenticated() && c.UserID == id
}
