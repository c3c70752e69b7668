package iam

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"github.com/wallacemaster800-spec/acameria-academy/internal/db/bunx"
	"github.com/wallacemaster800-spec/acameria-academy/internal/db/migrations"
	"github.com/wallacemaster800-spec/acameria-academy/internal/db/models"
	"github.com/wallacemaster800-spec/acameria-academy/internal/repository"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := bunx.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = bunx.Close(db) })

	ctx := context.Background()
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	require.NoError(t, migrator.Init(ctx))
	_, err = migrator.Migrate(ctx)
	require.NoError(t, err)

	return db
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	db := setupTestDB(t)
	svc, err := NewService(Deps{
		Users:    repository.NewBunUserRepository(db),
		Roles:    repository.NewBunUserRoleRepository(db),
		Sessions: repository.NewBunSessionRepository(db),
	}, time.Hour)
	require.NoError(t, err)
	return svc
}

func TestCreateUserAndAuthenticate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "  Ana@Example.COM ", "Ana", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)

	_, err = svc.CreateUser(ctx, "ana@example.com", "Ana", "other-password")
	assert.ErrorIs(t, err, ErrEmailTaken)

	got, session, token, err := svc.Authenticate(ctx, "ana@example.com", "hunter2hunter2", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, session.UserID)

	_, _, _, err = svc.Authenticate(ctx, "ana@example.com", "wrong", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, _, err = svc.Authenticate(ctx, "nobody@example.com", "hunter2hunter2", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateToken(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "bob@example.com", "Bob", "hunter2hunter2")
	require.NoError(t, err)
	_, session, token, err := svc.Authenticate(ctx, "bob@example.com", "hunter2hunter2", nil, nil)
	require.NoError(t, err)

	gotUser, gotSession, err := svc.AuthenticateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, gotUser.ID)
	assert.Equal(t, session.ID, gotSession.ID)

	_, _, err = svc.AuthenticateToken(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.RevokeSession(ctx, session.ID))
	_, _, err = svc.AuthenticateToken(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDisabledAccountCannotSignIn(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "eve@example.com", "Eve", "hunter2hunter2")
	require.NoError(t, err)
	_, _, token, err := svc.Authenticate(ctx, "eve@example.com", "hunter2hunter2", nil, nil)
	require.NoError(t, err)

	require.NoError(t, svc.DisableUser(ctx, user.ID))

	_, _, _, err = svc.Authenticate(ctx, "eve@example.com", "hunter2hunter2", nil, nil)
	assert.ErrorIs(t, err, ErrAccountDisabled)
	_, _, err = svc.AuthenticateToken(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRoleCacheFollowsAssignments(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "root@example.com", "Root", "hunter2hunter2")
	require.NoError(t, err)
	assert.False(t, svc.IsAdmin(user.ID))

	require.NoError(t, svc.AssignRole(ctx, user.ID, models.RoleAdmin, user.ID))
	assert.True(t, svc.IsAdmin(user.ID))
	assert.Equal(t, []string{models.RoleAdmin}, svc.ResolveRoles(user.ID))

	require.NoError(t, svc.RemoveRole(ctx, user.ID, models.RoleAdmin))
	assert.False(t, svc.IsAdmin(user.ID))
}

func TestResetPasswordRevokesSessions(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "carol@example.com", "Carol", "hunter2hunter2")
	require.NoError(t, err)
	_, _, token, err := svc.Authenticate(ctx, "carol@example.com", "hunter2hunter2", nil, nil)
	require.NoError(t, err)

	require.NoError(t, svc.ResetPassword(ctx, user.ID, "correct-horse-battery"))

	_, _, err = svc.AuthenticateToken(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, _, err = svc.Authenticate(ctx, "carol@example.com", "correct-horse-battery", nil, nil)
	assert.NoError(t, err)
}

func TestSetAccessExpiry(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "dan@example.com", "Dan", "hunter2hunter2")
	require.NoError(t, err)

	expiry := time.Now().Add(30 * 24 * time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, svc.SetAccessExpiry(ctx, user.ID, &expiry))

	got, _, _, err := svc.Authenticate(ctx, "dan@example.com", "hunter2hunter2", nil, nil)
	require.NoError(t, err)
	require.NotNil(t, got.AccessExpiresAt)
	assert.WithinDuration(t, expiry, *got.AccessExpiresAt, time.Second)
}
