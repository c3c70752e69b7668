// Package authstate owns the client-side view of "who is signed in, what is
// their role, and are they entitled". A Manager keeps exactly one live
// Snapshot in sync with the backend's session stream, de-duplicates and
// caches profile/role lookups, and Decide turns a Snapshot plus a route's
// requirements into a single access decision.
package authstate

import "time"

// Identity is the opaque handle for an authenticated account.
type Identity struct {
	ID    string
	Email string
}

// Session carries the bearer token for an authenticated account. The core
// never inspects the token beyond its presence and expiry.
type Session struct {
	User      Identity
	Token     string
	ExpiresAt time.Time
}

// Profile is the account's profile row. AccessExpiresAt is the platform
// entitlement date; nil means no expiry is set.
type Profile struct {
	Email           string
	FullName        string
	AccessExpiresAt *time.Time
}

// Snapshot is an immutable view of the authentication state, replaced
// wholesale on every resolution. Consumers must treat it as read-only.
//
// Profile carries a tri-state: ProfileResolved=false means "not yet
// resolved" (Profile is nil); ProfileResolved=true with a nil Profile means
// "resolved, no row". The two must never be conflated: deciding access on
// an unresolved profile silently waves unexpired-looking users through
// before their real expiry date is known.
type Snapshot struct {
	// User is nil when unauthenticated.
	User *Identity
	// Session is non-nil exactly when User is non-nil.
	Session *Session
	// Profile is the resolved profile row, nil until resolved or when the
	// row is absent.
	Profile *Profile
	// ProfileResolved distinguishes "nil because unresolved" from "nil
	// because absent".
	ProfileResolved bool
	// IsAdmin is false until the role lookup resolves.
	IsAdmin bool
	// Loading is true while a resolution is in flight for the current
	// user. While Loading, consumers must wait, not guess.
	Loading bool
}

// Authenticated reports whether a user is present.
func (s Snapshot) Authenticated() bool { return s.User != nil }
