// Package auth carries the authenticated user through request contexts.
//
// Authentication happens upstream; betledger trusts an identity header set
// by the proxy in front of it and only needs to know which user a request
// acts for.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// DefaultHeader is the request header holding the user id.
const DefaultHeader = "X-User-ID"

const maxUserIDLength = 128

// ErrUnauthenticated is returned when an operation needs a user and none is set.
var ErrUnauthenticated = errors.New("you must be signed in to perform this action")

// Session identifies the acting user.
type Session struct {
	UserID string
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session stored in ctx, if any.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	if !ok || s.UserID == "" {
		return Session{}, false
	}
	return s, true
}

// Require returns the session or ErrUnauthenticated.
func Require(ctx context.Context) (Session, error) {
	s, ok := FromContext(ctx)
	if !ok {
		return Session{}, ErrUnauthenticated
	}
	return s, nil
}

// Middleware resolves the session from header. Requests without the header
// continue anonymously; handlers decide whether that is acceptable.
func Middleware(header string) func(http.Handler) http.Handler {
	if header == "" {
		header = DefaultHeader
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(header))
			if id != "" && len(id) <= maxUserIDLength {
				r = r.WithContext(WithSession(r.Context(), Session{UserID: id}))
			}
			next.ServeHTTP(w, r)
		})
	}
}
