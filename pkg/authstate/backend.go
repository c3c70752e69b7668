package authstate

import "context"

// Backend is the authentication provider: it owns the session and emits a
// session-change event whenever it changes (sign-in, refresh, sign-out).
// The initial state must be delivered through the same stream, so a Manager
// subscribes exactly once and never polls.
type Backend interface {
	// Subscribe registers fn for session changes and returns an
	// unsubscribe function. Implementations must deliver the current
	// session (possibly nil) as the first event.
	Subscribe(fn func(*Session)) (unsubscribe func())

	// SignOut terminates the session with the provider. A nil-session
	// event follows on the subscription.
	SignOut(ctx context.Context) error
}

// ProfileStore resolves the profile row and admin membership for a user.
// The two reads are independent and a Manager issues them concurrently.
type ProfileStore interface {
	// GetProfile returns the profile row, or (nil, nil) when no row
	// exists for the user.
	GetProfile(ctx context.Context, userID string) (*Profile, error)

	// IsAdmin reports whether the user holds the admin role.
	IsAdmin(ctx context.Context, userID string) (bool, error)
}
