package middleware

import (
	"log"
	"net/http"

	"github.com/casbin/casbin/v2"

	"github.com/wallacemaster800-spec/acameria-academy/internal/auth"
)

// RequireAuth rejects anonymous requests.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.PrincipalFromContext(r.Context()); !ok {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Require guards a route class with the casbin policy. Anonymous requests
// get 401, authenticated-but-unauthorized get 403.
func Require(enforcer casbin.IEnforcer, object, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}
			allowed, err := auth.Authorize(enforcer, principal, object, action)
			if err != nil {
				log.Printf("authorize %s %s/%s: %v", principal.UserID, object, action, err)
				http.Error(w, "authorization error", http.StatusInternalServerError)
				return
			}
			if !allowed {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
