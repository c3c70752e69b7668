package iam

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/wallacemaster800-spec/acameria-academy/internal/repository"
)

// RoleSnapshot is an immutable view of user→role assignments. Snapshots are
// never mutated after creation; Refresh builds a new one and swaps it in.
type RoleSnapshot struct {
	Roles     map[string][]string
	Version   int
	CreatedAt time.Time
}

// RoleCache serves role lookups on the request path without touching the
// database. Reads are lock-free via atomic.Value; Refresh runs out-of-band
// (startup, periodic, and after every role mutation) and atomically swaps
// in a fresh snapshot, so readers see either the old or the new mapping,
// never a partial one.
type RoleCache struct {
	snapshot atomic.Value // *RoleSnapshot
	roles    repository.UserRoleRepository
}

// NewRoleCache creates the cache and performs the initial load. The load
// must succeed; serving requests without role data would deny every admin.
func NewRoleCache(roles repository.UserRoleRepository) (*RoleCache, error) {
	c := &RoleCache{roles: roles}
	if err := c.Refresh(context.Background()); err != nil {
		return nil, fmt.Errorf("initial role cache load: %w", err)
	}
	return c, nil
}

// Get returns the current snapshot. Never blocks.
func (c *RoleCache) Get() *RoleSnapshot {
	val := c.snapshot.Load()
	if val == nil {
		return nil
	}
	return val.(*RoleSnapshot)
}

// RolesFor returns the roles assigned to userID, without hitting the
// database. The returned slice must be treated as read-only.
func (c *RoleCache) RolesFor(userID string) []string {
	snap := c.Get()
	if snap == nil {
		return nil
	}
	return snap.Roles[userID]
}

// Refresh rebuilds the snapshot from the database and swaps it in. Safe to
// call concurrently with readers.
func (c *RoleCache) Refresh(ctx context.Context) error {
	assignments, err := c.roles.List(ctx)
	if err != nil {
		return fmt.Errorf("list user roles: %w", err)
	}

	mapping := make(map[string][]string)
	for _, a := range assignments {
		mapping[a.UserID] = append(mapping[a.UserID], a.Role)
	}

	version := 1
	if prev := c.Get(); prev != nil {
		version = prev.Version + 1
	}

	c.snapshot.Store(&RoleSnapshot{
		Roles:     mapping,
		Version:   version,
		CreatedAt: time.Now(),
	})
	return nil
}
