package client

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/wallacemaster800-spec/acameria-academy/pkg/authstate"
)

// Backend adapts the API client and a credential store to the session
// event stream and profile reads the state manager consumes. A stored
// credential is replayed as the initial session, so a restarted CLI
// resumes where it left off.
type Backend struct {
	client *Client
	store  CredentialStore

	mu      sync.Mutex
	current *authstate.Session
	subs    map[int]func(*authstate.Session)
	nextSub int

	flight singleflight.Group
}

var (
	_ authstate.Backend      = (*Backend)(nil)
	_ authstate.ProfileStore = (*Backend)(nil)
)

// NewBackend builds a Backend over the API client and credential store.
// A load failure is treated as signed out.
func NewBackend(apiClient *Client, store CredentialStore) *Backend {
	b := &Backend{
		client: apiClient,
		store:  store,
		subs:   make(map[int]func(*authstate.Session)),
	}
	if creds, err := store.LoadCredentials(); err == nil {
		apiClient.SetToken(creds.Token)
		b.current = &authstate.Session{
			User:  authstate.Identity{ID: creds.UserID, Email: creds.Email},
			Token: creds.Token,
		}
	}
	return b
}

// Subscribe registers fn for session changes. The current session is
// delivered immediately.
func (b *Backend) Subscribe(fn func(*authstate.Session)) func() {
	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn
	current := b.current
	b.mu.Unlock()

	fn(current)

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// SignIn authenticates, persists the credentials, and emits the new
// session to subscribers.
func (b *Backend) SignIn(ctx context.Context, email, password string) (*User, error) {
	token, user, err := b.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if err := b.store.SaveCredentials(&Credentials{
		Token:  token,
		UserID: user.ID,
		Email:  user.Email,
	}); err != nil {
		return nil, err
	}

	b.emit(&authstate.Session{
		User:  authstate.Identity{ID: user.ID, Email: user.Email},
		Token: token,
	})
	return user, nil
}

// SignOut revokes the server session, deletes the stored credentials,
// and emits a signed-out event. The revocation error is returned but
// local state is cleared either way.
func (b *Backend) SignOut(ctx context.Context) error {
	err := b.client.Logout(ctx)
	if derr := b.store.DeleteCredentials(); derr != nil && err == nil {
		err = derr
	}
	b.emit(nil)
	return err
}

func (b *Backend) emit(session *authstate.Session) {
	b.mu.Lock()
	b.current = session
	fns := make([]func(*authstate.Session), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(session)
	}
}

// whoami fetches the calling account, collapsing the concurrent profile
// and admin reads into one request.
func (b *Backend) whoami(ctx context.Context) (*User, error) {
	v, err, _ := b.flight.Do("whoami", func() (any, error) {
		return b.client.WhoAmI(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*User), nil
}

// GetProfile returns the profile for the signed-in user.
func (b *Backend) GetProfile(ctx context.Context, userID string) (*authstate.Profile, error) {
	user, err := b.whoami(ctx)
	if err != nil {
		return nil, err
	}
	if user.ID != userID {
		return nil, nil
	}
	return &authstate.Profile{
		Email:           user.Email,
		FullName:        user.FullName,
		AccessExpiresAt: user.AccessExpiresAt,
	}, nil
}

// IsAdmin reports whether the signed-in user holds the admin role.
func (b *Backend) IsAdmin(ctx context.Context, userID string) (bool, error) {
	user, err := b.whoami(ctx)
	if err != nil {
		return false, err
	}
	return user.ID == userID && user.IsAdmin, nil
}
