package middleware

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/mikey/scamguard/internal/adapters/identity"
	"github.com/mikey/scamguard/internal/core"
)

// Authenticator verifies bearer tokens
type Authenticator interface {
	Enabled() bool
	Authenticate(token string) (*core.User, error)
}

// Authenticate attaches the bearer token's user to the request context.
// Requests without a token continue anonymously; a token that fails
// verification is rejected with 401.
func Authenticate(auth Authenticator, logger *zap.Logger) func(next http.Handler) http.Handler {
	logger = logger.Named("auth")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !auth.Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := identity.BearerToken(header)
			if !ok {
				writeError(w, http.StatusUnauthorized, "Invalid authorization header")
				return
			}

			user, err := auth.Authenticate(token)
			if err != nil {
				logger.Debug("Rejected bearer token", zap.Error(err))
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(identity.WithUser(r.Context(), user)))
		})
	}
}

// RequireUser rejects anonymous requests
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := identity.UserFromContext(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests from users without the admin role
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := identity.UserFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if !user.IsAdmin() {
			writeError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
