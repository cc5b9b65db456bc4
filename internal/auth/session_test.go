package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequire(t *testing.T) {
	if _, err := Require(context.Background()); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, err := Require(WithSession(context.Background(), Session{})); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("empty user id should not authenticate, got %v", err)
	}
	s, err := Require(WithSession(context.Background(), Session{UserID: "u1"}))
	if err != nil || s.UserID != "u1" {
		t.Fatalf("unexpected session %+v err=%v", s, err)
	}
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		header string
		value  string
		want   string
	}{
		{"default header", "", "alice", "alice"},
		{"custom header", "X-Forwarded-User", "bob", "bob"},
		{"missing", "", "", ""},
		{"too long", "", strings.Repeat("x", 200), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := Middleware(tt.header)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if s, ok := FromContext(r.Context()); ok {
					got = s.UserID
				}
			}))
			req := httptest.NewRequest("GET", "/", nil)
			name := tt.header
			if name == "" {
				name = DefaultHeader
			}
			if tt.value != "" {
				req.Header.Set(name, tt.value)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Fatalf("user=%q want %q", got, tt.want)
			}
		})
	}
}
