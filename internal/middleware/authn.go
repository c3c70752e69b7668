// Package middleware carries the HTTP middleware chain: bearer/cookie
// authentication and casbin-backed authorization.
package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/wallacemaster800-spec/acameria-academy/internal/auth"
	"github.com/wallacemaster800-spec/acameria-academy/internal/services/iam"
)

// NewAuthn authenticates requests carrying a bearer token, via the
// Authorization header or the session cookie. Requests without
// credentials pass through anonymous; route guards decide what that
// means. Requests with bad credentials are rejected here.
func NewAuthn(svc *iam.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			user, session, err := svc.AuthenticateToken(ctx, token)
			if err != nil {
				http.Error(w, "invalid or expired session", http.StatusUnauthorized)
				return
			}

			// Bookkeeping only; an error here must not fail the request.
			if err := svc.TouchSession(ctx, session.ID); err != nil {
				log.Printf("touch session %s: %v", session.ID, err)
			}

			principal := auth.Principal{
				UserID:    user.ID,
				Email:     user.Email,
				FullName:  user.FullName,
				SessionID: session.ID,
				Roles:     svc.ResolveRoles(user.ID),
			}
			next.ServeHTTP(w, r.WithContext(auth.SetPrincipal(ctx, principal)))
		})
	}
}

func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return token
		}
		return ""
	}
	if cookie, err := r.Cookie(auth.SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
