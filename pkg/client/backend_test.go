package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallacemaster800-spec/acameria-academy/pkg/authstate"
)

func newBackendFixture(t *testing.T) (*Backend, *FileStore, *atomic.Int64) {
	t.Helper()

	var whoamiCalls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			json.NewEncoder(w).Encode(map[string]any{
				"token": "tok-abc",
				"user":  map[string]any{"id": "u-1", "email": "jane@example.com", "full_name": "Jane Doe"},
			})
		case "/api/auth/logout":
			w.WriteHeader(http.StatusNoContent)
		case "/api/auth/whoami":
			whoamiCalls.Add(1)
			json.NewEncoder(w).Encode(map[string]any{
				"id":        "u-1",
				"email":     "jane@example.com",
				"full_name": "Jane Doe",
				"is_admin":  true,
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	store := NewFileStoreAt(filepath.Join(t.TempDir(), "credentials.json"))
	return NewBackend(NewClient(srv.URL), store), store, &whoamiCalls
}

func TestBackendStartsSignedOut(t *testing.T) {
	backend, _, _ := newBackendFixture(t)

	var got *authstate.Session
	delivered := false
	unsubscribe := backend.Subscribe(func(s *authstate.Session) {
		got = s
		delivered = true
	})
	defer unsubscribe()

	assert.True(t, delivered)
	assert.Nil(t, got)
}

func TestBackendSignInPersistsAndEmits(t *testing.T) {
	backend, store, _ := newBackendFixture(t)

	var events []*authstate.Session
	unsubscribe := backend.Subscribe(func(s *authstate.Session) {
		events = append(events, s)
	})
	defer unsubscribe()

	user, err := backend.SignIn(context.Background(), "jane@example.com", "s3cret-enough")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)

	require.Len(t, events, 2)
	assert.Nil(t, events[0])
	require.NotNil(t, events[1])
	assert.Equal(t, "u-1", events[1].User.ID)
	assert.Equal(t, "tok-abc", events[1].Token)

	creds, err := store.LoadCredentials()
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", creds.Token)
	assert.Equal(t, "u-1", creds.UserID)
}

func TestBackendResumesFromStoredCredentials(t *testing.T) {
	backend, store, _ := newBackendFixture(t)

	_, err := backend.SignIn(context.Background(), "jane@example.com", "s3cret-enough")
	require.NoError(t, err)

	// A second Backend over the same store picks the session back up.
	resumed := NewBackend(NewClient("http://unused.invalid"), store)
	var got *authstate.Session
	unsubscribe := resumed.Subscribe(func(s *authstate.Session) { got = s })
	defer unsubscribe()

	require.NotNil(t, got)
	assert.Equal(t, "u-1", got.User.ID)
	assert.Equal(t, "tok-abc", got.Token)
}

func TestBackendSignOutClearsEverything(t *testing.T) {
	backend, store, _ := newBackendFixture(t)

	_, err := backend.SignIn(context.Background(), "jane@example.com", "s3cret-enough")
	require.NoError(t, err)

	var got *authstate.Session
	unsubscribe := backend.Subscribe(func(s *authstate.Session) { got = s })
	defer unsubscribe()
	require.NotNil(t, got)

	require.NoError(t, backend.SignOut(context.Background()))
	assert.Nil(t, got)

	_, err = store.LoadCredentials()
	require.EqualError(t, err, "not logged in")
}

func TestBackendProfileAndAdminShareOneRequest(t *testing.T) {
	backend, _, whoamiCalls := newBackendFixture(t)

	_, err := backend.SignIn(context.Background(), "jane@example.com", "s3cret-enough")
	require.NoError(t, err)

	profile, err := backend.GetProfile(context.Background(), "u-1")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "Jane Doe", profile.FullName)

	isAdmin, err := backend.IsAdmin(context.Background(), "u-1")
	require.NoError(t, err)
	assert.True(t, isAdmin)

	// Sequential calls still hit the server; only concurrent ones collapse.
	assert.LessOrEqual(t, whoamiCalls.Load(), int64(2))

	// A mismatched user ID resolves to no profile and no privilege.
	profile, err = backend.GetProfile(context.Background(), "someone-else")
	require.NoError(t, err)
	assert.Nil(t, profile)
	isAdmin, err = backend.IsAdmin(context.Background(), "someone-else")
	require.NoError(t, err)
	assert.False(t, isAdmin)
}
