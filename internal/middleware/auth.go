// Package middleware holds the HTTP middleware chain: authorization
// gate, role gate, rate limiting, logging, recovery and CORS.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"hospital-management-api/internal/auth"
	"hospital-management-api/internal/model"
	"hospital-management-api/internal/store"
)

type ctxKey string

const (
	userKey    ctxKey = "user"
	logUserKey ctxKey = "logUser"
)

// logUser carries the resolved caller back out to the request logger,
// which wraps the chain from outside the auth-gated groups and so
// never sees the derived context Auth hands to its handler.
type logUser struct {
	u *model.User
}

// UserFromContext returns the caller resolved by the Auth middleware.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok
}

// ContextWithUser is used by tests to bypass the token step.
func ContextWithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}

// tokenFromRequest reads the bearer header first, then the session
// cookie.
func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie("token"); err == nil {
		return c.Value
	}
	return ""
}

// Auth verifies the session token, resolves the caller and attaches it
// to the request context. Stateless per request.
func Auth(secret string, users store.UserStore) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := tokenFromRequest(r)
			if raw == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized: no token provided")
				return
			}

			claims, err := auth.ParseToken(raw, secret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized: invalid or expired token")
				return
			}

			u, err := users.UserByID(r.Context(), claims.UserID)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized: invalid or expired token")
				return
			}

			if lu, ok := r.Context().Value(logUserKey).(*logUser); ok {
				lu.u = u
			}
			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), u)))
		})
	}
}

// RequireRole is the second-stage guard: the resolved role must be in
// the allowed set.
func RequireRole(roles ...model.Role) func(next http.Handler) http.Handler {
	allowed := make(map[model.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized: no token provided")
				return
			}
			if !allowed[u.Role] {
				writeError(w, http.StatusForbidden, "forbidden: insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
