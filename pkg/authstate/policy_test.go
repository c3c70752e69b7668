package authstate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	user := &Identity{ID: "u1", Email: "u1@example.com"}
	session := &Session{User: *user, Token: "t", ExpiresAt: future}

	settled := func(profile *Profile, isAdmin bool) Snapshot {
		return Snapshot{
			User:            user,
			Session:         session,
			Profile:         profile,
			ProfileResolved: true,
			IsAdmin:         isAdmin,
		}
	}

	tests := []struct {
		name  string
		snap  Snapshot
		route Route
		want  Decision
	}{
		{
			"public route ignores state",
			Snapshot{Loading: true},
			Route{},
			DecisionAllow,
		},
		{
			"loading defers protected route",
			Snapshot{Loading: true},
			Route{RequiresAuth: true},
			DecisionPending,
		},
		{
			"loading defers admin route",
			Snapshot{Loading: true},
			Route{RequiresAuth: true, RequiresAdmin: true},
			DecisionPending,
		},
		{
			"anonymous goes to login",
			Snapshot{},
			Route{RequiresAuth: true},
			DecisionRedirectLogin,
		},
		{
			"anonymous goes to login on admin route",
			Snapshot{},
			Route{RequiresAuth: true, RequiresAdmin: true},
			DecisionRedirectLogin,
		},
		{
			"non-admin goes home from admin route",
			settled(&Profile{}, false),
			Route{RequiresAuth: true, RequiresAdmin: true},
			DecisionRedirectHome,
		},
		{
			"admin allowed on admin route",
			settled(&Profile{}, true),
			Route{RequiresAuth: true, RequiresAdmin: true},
			DecisionAllow,
		},
		{
			"expired admin keeps admin route",
			settled(&Profile{AccessExpiresAt: &past}, true),
			Route{RequiresAuth: true, RequiresAdmin: true},
			DecisionAllow,
		},
		{
			"expired admin keeps student route",
			settled(&Profile{AccessExpiresAt: &past}, true),
			Route{RequiresAuth: true},
			DecisionAllow,
		},
		{
			"unresolved profile defers expiry check",
			Snapshot{User: user, Session: session},
			Route{RequiresAuth: true},
			DecisionPending,
		},
		{
			"expired access goes to upgrade",
			settled(&Profile{AccessExpiresAt: &past}, false),
			Route{RequiresAuth: true},
			DecisionRedirectUpgrade,
		},
		{
			"future expiry allowed",
			settled(&Profile{AccessExpiresAt: &future}, false),
			Route{RequiresAuth: true},
			DecisionAllow,
		},
		{
			"nil expiry never expires",
			settled(&Profile{}, false),
			Route{RequiresAuth: true},
			DecisionAllow,
		},
		{
			"absent profile row allowed",
			settled(nil, false),
			Route{RequiresAuth: true},
			DecisionAllow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.snap, tt.route, now))
		})
	}
}

func TestDecideExpiryBoundary(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	user := &Identity{ID: "u1"}
	snap := Snapshot{
		User:            user,
		Session:         &Session{User: *user},
		Profile:         &Profile{AccessExpiresAt: &now},
		ProfileResolved: true,
	}

	// Expiry is strict: access at the exact instant is still valid.
	assert.Equal(t, DecisionAllow, Decide(snap, Route{RequiresAuth: true}, now))
	assert.Equal(t, DecisionRedirectUpgrade,
		Decide(snap, Route{RequiresAuth: true}, now.Add(time.Nanosecond)))
}

func TestDecideIsPure(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	user := &Identity{ID: "u1"}
	snap := Snapshot{
		User:            user,
		Session:         &Session{User: *user},
		Profile:         &Profile{AccessExpiresAt: &past},
		ProfileResolved: true,
	}
	route := Route{RequiresAuth: true}

	first := Decide(snap, route, now)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Decide(snap, route, now))
	}
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "pending", DecisionPending.String())
	assert.Equal(t, "allow", DecisionAllow.String())
	assert.Equal(t, "redirect-login", DecisionRedirectLogin.String())
	assert.Equal(t, "redirect-home", DecisionRedirectHome.String())
	assert.Equal(t, "redirect-upgrade", DecisionRedirectUpgrade.String())
}
