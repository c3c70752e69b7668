package authstate

import "time"

// Decision is the outcome of evaluating a route against a Snapshot.
type Decision int

const (
	// DecisionPending means the state needed to decide is still loading.
	// Render nothing; never redirect on a pending decision.
	DecisionPending Decision = iota
	// DecisionAllow grants access to the route.
	DecisionAllow
	// DecisionRedirectLogin sends an unauthenticated user to sign-in.
	DecisionRedirectLogin
	// DecisionRedirectHome sends a non-admin away from an admin route.
	DecisionRedirectHome
	// DecisionRedirectUpgrade sends a user whose platform access has
	// expired to the renewal flow.
	DecisionRedirectUpgrade
)

func (d Decision) String() string {
	switch d {
	case DecisionPending:
		return "pending"
	case DecisionAllow:
		return "allow"
	case DecisionRedirectLogin:
		return "redirect-login"
	case DecisionRedirectHome:
		return "redirect-home"
	case DecisionRedirectUpgrade:
		return "redirect-upgrade"
	default:
		return "unknown"
	}
}

// Route declares what a route demands of the caller. RequiresAdmin implies
// RequiresAuth.
type Route struct {
	RequiresAuth  bool
	RequiresAdmin bool
}

// Decide evaluates route access for a snapshot at the given instant. It is
// a pure function of its arguments; identical inputs always produce the
// identical decision.
//
// The steps run in a fixed order, and the order is part of the contract:
//
//  1. A route demanding nothing is allowed outright.
//  2. While the snapshot is loading, the decision is pending. Deciding
//     early would redirect users who are about to be authenticated.
//  3. No user: redirect to login.
//  4. Admin routes: a settled non-admin goes home. Admins skip the expiry
//     check entirely, so an expired admin retains access.
//  5. A non-admin whose profile is unresolved stays pending. An absent or
//     unresolved expiry date must not read as "not expired".
//  6. A non-admin with AccessExpiresAt strictly in the past is redirected
//     to upgrade. A nil expiry never expires.
//  7. Otherwise, allow.
func Decide(snap Snapshot, route Route, now time.Time) Decision {
	if !route.RequiresAuth && !route.RequiresAdmin {
		return DecisionAllow
	}
	if snap.Loading {
		return DecisionPending
	}
	if snap.User == nil {
		return DecisionRedirectLogin
	}
	if route.RequiresAdmin {
		if !snap.IsAdmin {
			return DecisionRedirectHome
		}
		return DecisionAllow
	}
	if !snap.IsAdmin {
		if !snap.ProfileResolved {
			return DecisionPending
		}
		if snap.Profile != nil && snap.Profile.AccessExpiresAt != nil &&
			snap.Profile.AccessExpiresAt.Before(now) {
			return DecisionRedirectUpgrade
		}
	}
	return DecisionAllow
}
