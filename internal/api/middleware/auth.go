package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/motomarket/motorag/internal/api"
	"github.com/motomarket/motorag/internal/domain"
)

type contextKey string

// AdminToken guards admin routes with a static bearer token. An empty token
// disables the routes entirely.
func AdminToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				api.Error(w, http.StatusForbidden, "admin endpoints are disabled")
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				api.Error(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				api.Error(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			given := strings.TrimPrefix(authHeader, "Bearer ")
			if subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
				api.HandleError(w, domain.ErrInvalidAdminToken)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
