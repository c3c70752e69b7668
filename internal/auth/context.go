package auth

import "context"

// Principal captures identity metadata propagated through the request context.
type Principal struct {
	// UserID references the backing users row.
	UserID string
	// Email of the authenticated account.
	Email string
	// FullName is the optional display name.
	FullName string
	// SessionID references the active session row.
	SessionID string
	// Roles lists effective role names resolved during authentication.
	Roles []string
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	for _, role := range p.Roles {
		if role == "admin" {
			return true
		}
	}
	return false
}

type principalContextKey struct{}

// SetPrincipal stores the authenticated principal on the context.
func SetPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// PrincipalFromContext retrieves the authenticated principal from the context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	principal, ok := ctx.Value(principalContextKey{}).(Principal)
	return principal, ok
}
