// Package iam centralizes identity and access management: account
// lifecycle, password authentication, bearer sessions, and role
// assignment with a lock-free role cache for the request path.
package iam

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wallacemaster800-spec/acameria-academy/internal/auth"
	"github.com/wallacemaster800-spec/acameria-academy/internal/db/models"
	"github.com/wallacemaster800-spec/acameria-academy/internal/repository"
)

var (
	// ErrInvalidCredentials covers unknown email and wrong password alike,
	// so login responses cannot be used to probe for accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDisabled is returned when a disabled account signs in.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrEmailTaken is returned when registering an existing email.
	ErrEmailTaken = errors.New("email already registered")
)

// Deps collects the service's repository dependencies.
type Deps struct {
	Users    repository.UserRepository
	Roles    repository.UserRoleRepository
	Sessions repository.SessionRepository
}

// Service provides identity and access management operations.
type Service struct {
	users    repository.UserRepository
	roles    repository.UserRoleRepository
	sessions repository.SessionRepository

	roleCache  *RoleCache
	sessionTTL time.Duration
}

// NewService creates the IAM service. The role cache is loaded eagerly;
// construction fails if the initial load does.
func NewService(deps Deps, sessionTTL time.Duration) (*Service, error) {
	cache, err := NewRoleCache(deps.Roles)
	if err != nil {
		return nil, err
	}
	return &Service{
		users:      deps.Users,
		roles:      deps.Roles,
		sessions:   deps.Sessions,
		roleCache:  cache,
		sessionTTL: sessionTTL,
	}, nil
}

// CreateUser registers an account with a bcrypt-hashed password.
func (s *Service) CreateUser(ctx context.Context, email, fullName, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Authenticate verifies the password and issues a bearer session. The
// returned token is shown once; only its hash is stored.
func (s *Service) Authenticate(ctx context.Context, email, password string, userAgent, ipAddress *string) (*models.User, *models.Session, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, "", ErrInvalidCredentials
		}
		return nil, nil, "", fmt.Errorf("lookup user: %w", err)
	}
	if err := auth.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, nil, "", ErrInvalidCredentials
	}
	if user.Disabled() {
		return nil, nil, "", ErrAccountDisabled
	}

	token, tokenHash, err := auth.GenerateBearerToken()
	if err != nil {
		return nil, nil, "", fmt.Errorf("generate session token: %w", err)
	}

	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: tokenHash,
		ExpiresAt: time.Now().Add(s.sessionTTL),
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, nil, "", fmt.Errorf("create session: %w", err)
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		// Best-effort bookkeeping; the login itself succeeded.
		return user, session, token, nil
	}
	return user, session, token, nil
}

// AuthenticateToken resolves a bearer token to its user and session.
func (s *Service) AuthenticateToken(ctx context.Context, token string) (*models.User, *models.Session, error) {
	session, err := s.sessions.GetByTokenHash(ctx, auth.HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("lookup session: %w", err)
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("lookup session user: %w", err)
	}

	if err := auth.ValidateSession(session.ExpiresAt, session.Revoked, user.Disabled()); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	return user, session, nil
}

// TouchSession records session use. Best-effort; callers ignore the error.
func (s *Service) TouchSession(ctx context.Context, sessionID string) error {
	return s.sessions.UpdateLastUsed(ctx, sessionID)
}

// RevokeSession invalidates one session.
func (s *Service) RevokeSession(ctx context.Context, sessionID string) error {
	return s.sessions.Revoke(ctx, sessionID)
}

// RevokeUserSessions invalidates every session of a user, used on password
// reset and account disable.
func (s *Service) RevokeUserSessions(ctx context.Context, userID string) error {
	return s.sessions.RevokeByUserID(ctx, userID)
}

// CleanupExpiredSessions deletes sessions past their expiry.
func (s *Service) CleanupExpiredSessions(ctx context.Context) error {
	return s.sessions.DeleteExpired(ctx)
}

// ResolveRoles returns the user's roles from the lock-free cache. Request
// path: no database access.
func (s *Service) ResolveRoles(userID string) []string {
	return s.roleCache.RolesFor(userID)
}

// IsAdmin reports admin membership from the role cache.
func (s *Service) IsAdmin(userID string) bool {
	for _, role := range s.ResolveRoles(userID) {
		if role == models.RoleAdmin {
			return true
		}
	}
	return false
}

// AssignRole grants a role and refreshes the role cache so the change is
// visible to in-flight traffic immediately.
func (s *Service) AssignRole(ctx context.Context, userID, role, assignedBy string) error {
	assignment := &models.UserRole{
		ID:         uuid.NewString(),
		UserID:     userID,
		Role:       role,
		AssignedBy: assignedBy,
	}
	if err := s.roles.Assign(ctx, assignment); err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	return s.roleCache.Refresh(ctx)
}

// RemoveRole revokes a role and refreshes the role cache.
func (s *Service) RemoveRole(ctx context.Context, userID, role string) error {
	if err := s.roles.Remove(ctx, userID, role); err != nil {
		return fmt.Errorf("remove role: %w", err)
	}
	return s.roleCache.Refresh(ctx)
}

// RefreshRoles reloads the role cache from the database.
func (s *Service) RefreshRoles(ctx context.Context) error {
	return s.roleCache.Refresh(ctx)
}

// ResetPassword replaces the password and revokes all sessions, so a
// leaked token dies with the old password.
func (s *Service) ResetPassword(ctx context.Context, userID, newPassword string) error {
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.SetPassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return s.RevokeUserSessions(ctx, userID)
}

// DisableUser disables the account and revokes its sessions.
func (s *Service) DisableUser(ctx context.Context, userID string) error {
	if err := s.users.Disable(ctx, userID); err != nil {
		return fmt.Errorf("disable user: %w", err)
	}
	return s.RevokeUserSessions(ctx, userID)
}

// SetAccessExpiry sets or clears the platform-wide entitlement date.
func (s *Service) SetAccessExpiry(ctx context.Context, userID string, expiresAt *time.Time) error {
	return s.users.SetAccessExpiry(ctx, userID, expiresAt)
}
