// Package auth carries the authenticated-user capability through request
// context. Sessions are owned by the frontend; it forwards the resolved
// identity in trusted headers and the core never re-derives it.
package auth

import (
	"context"
	"encoding/json"
	"net/http"
)

const (
	userHeader = "X-User-Id"
	roleHeader = "X-User-Role"

	roleAdmin = "ADMIN"
)

type Identity struct {
	UserID string
	Admin  bool
}

type contextKey struct{}

func FromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(contextKey{}).(Identity)
	return identity, ok
}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, identity)
}

// Middleware resolves the identity headers into the request context. A
// request without a user id passes through anonymous; the Require wrappers
// below gate the routes that need more.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(userHeader)
		if userID == "" {
			next.ServeHTTP(w, r)
			return
		}

		identity := Identity{
			UserID: userID,
			Admin:  r.Header.Get(roleHeader) == roleAdmin,
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// RequireUser rejects anonymous requests.
func RequireUser(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		h(w, r)
	}
}

// RequireAdmin rejects anonymous and non-admin requests.
func RequireAdmin(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !identity.Admin {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		h(w, r)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
