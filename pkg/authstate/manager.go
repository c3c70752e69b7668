package authstate

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	// defaultCacheTTL bounds how long a resolved profile/role pair is
	// served without a fresh read.
	defaultCacheTTL = 5 * time.Minute

	defaultCacheSize = 128
)

// resolution is a completed profile/role read pair. Only successful pairs
// are cached; failures degrade the snapshot but are retried on the next
// session event.
type resolution struct {
	profile *Profile
	isAdmin bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithCacheTTL overrides the profile cache freshness window.
func WithCacheTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.ttl = ttl }
}

// WithCacheSize overrides the profile cache capacity.
func WithCacheSize(size int) Option {
	return func(m *Manager) { m.cacheSize = size }
}

// Manager tracks the authentication state for one client. It subscribes to
// the backend's session stream exactly once, resolves profile and role for
// each authenticated session, and publishes immutable Snapshots.
//
// Session events are serialized through a single consumer goroutine, so
// subscribers observe state transitions in event order even when the
// backend fires rapidly. Resolutions run off that goroutine and carry the
// generation they were started under; a resolution whose generation is no
// longer current (a newer event or a sign-out happened meanwhile) is
// discarded rather than applied to the wrong user.
type Manager struct {
	backend Backend
	store   ProfileStore

	ttl       time.Duration
	cacheSize int

	mu       sync.Mutex
	snapshot Snapshot
	gen      uint64
	subs     map[int]func(Snapshot)
	nextSub  int
	started  bool

	cache  *expirable.LRU[string, resolution]
	flight singleflight.Group
}

// NewManager creates a Manager for the given backend and profile store.
// Call Start to begin consuming session events.
func NewManager(backend Backend, store ProfileStore, opts ...Option) *Manager {
	m := &Manager{
		backend:   backend,
		store:     store,
		ttl:       defaultCacheTTL,
		cacheSize: defaultCacheSize,
		subs:      make(map[int]func(Snapshot)),
		snapshot:  Snapshot{Loading: true},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.cache = expirable.NewLRU[string, resolution](m.cacheSize, nil, m.ttl)
	return m
}

// Start subscribes to the backend session stream and consumes it until ctx
// is cancelled. The initial session arrives through the same stream, so
// Start performs no separate session fetch. Start must be called once.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.started = true
	m.mu.Unlock()

	events := make(chan *Session, 16)
	unsubscribe := m.backend.Subscribe(func(sess *Session) {
		select {
		case events <- sess:
		case <-ctx.Done():
		}
	})

	go func() {
		defer unsubscribe()
		for {
			select {
			case sess := <-events:
				m.handleSession(ctx, sess)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// handleSession applies one session event. Runs on the consumer goroutine.
func (m *Manager) handleSession(ctx context.Context, sess *Session) {
	m.mu.Lock()
	m.gen++
	gen := m.gen

	if sess == nil {
		m.snapshot = Snapshot{}
		m.notifyLocked()
		m.mu.Unlock()
		return
	}

	user := sess.User
	if res, ok := m.cache.Get(user.ID); ok {
		// Fresh cache entry: settle synchronously, no loading window.
		m.snapshot = Snapshot{
			User:            &user,
			Session:         sess,
			Profile:         res.profile,
			ProfileResolved: true,
			IsAdmin:         res.isAdmin,
		}
		m.notifyLocked()
		m.mu.Unlock()
		return
	}

	m.snapshot = Snapshot{
		User:    &user,
		Session: sess,
		Loading: true,
	}
	m.notifyLocked()
	m.mu.Unlock()

	go func() {
		res := m.resolve(ctx, user.ID, gen)

		m.mu.Lock()
		defer m.mu.Unlock()
		if m.gen != gen {
			// A newer event or a sign-out superseded this resolution.
			return
		}
		m.snapshot = Snapshot{
			User:            &user,
			Session:         sess,
			Profile:         res.profile,
			ProfileResolved: true,
			IsAdmin:         res.isAdmin,
		}
		m.notifyLocked()
	}()
}

// resolve fetches the profile row and admin membership for userID. A fresh
// cache entry short-circuits the reads; otherwise concurrent callers for
// the same user share one read pair. On failure the result degrades to no
// profile and no admin bit, and is not cached, so privilege can never be
// granted on a failed read.
//
// gen is the generation the caller started under. The result is only
// written to the cache while that generation is still current, so a read
// that was in flight when SignOut purged the cache cannot repopulate it.
func (m *Manager) resolve(ctx context.Context, userID string, gen uint64) resolution {
	if res, ok := m.cache.Get(userID); ok {
		return res
	}

	v, _, _ := m.flight.Do(userID, func() (any, error) {
		var (
			profile *Profile
			isAdmin bool
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			p, err := m.store.GetProfile(gctx, userID)
			profile = p
			return err
		})
		g.Go(func() error {
			a, err := m.store.IsAdmin(gctx, userID)
			isAdmin = a
			return err
		})
		if err := g.Wait(); err != nil {
			log.Printf("authstate: resolving user %s failed: %v", userID, err)
			return resolution{}, nil
		}

		res := resolution{profile: profile, isAdmin: isAdmin}
		m.mu.Lock()
		if m.gen == gen {
			m.cache.Add(userID, res)
		}
		m.mu.Unlock()
		return res, nil
	})
	return v.(resolution)
}

// SignOut terminates the session with the backend and unconditionally
// clears local state: the snapshot reverts to unauthenticated and the
// profile cache is purged, so a later sign-in on the same client can never
// observe another account's cached entries.
func (m *Manager) SignOut(ctx context.Context) error {
	err := m.backend.SignOut(ctx)

	m.mu.Lock()
	m.gen++
	m.cache.Purge()
	m.snapshot = Snapshot{}
	m.notifyLocked()
	m.mu.Unlock()

	return err
}

// Snapshot returns the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}

// SubscribeSnapshot registers fn for state changes and returns an
// unsubscribe function. fn is invoked with the current snapshot
// immediately, then once per transition.
func (m *Manager) SubscribeSnapshot(fn func(Snapshot)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	fn(m.snapshot)
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// notifyLocked fans the current snapshot out to subscribers, in order.
// Callers hold m.mu; callbacks run under the lock and must return quickly
// and not call back into the Manager.
func (m *Manager) notifyLocked() {
	snap := m.snapshot
	for _, fn := range m.subs {
		fn(snap)
	}
}
