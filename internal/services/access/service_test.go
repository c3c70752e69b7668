package access

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"github.com/wallacemaster800-spec/acameria-academy/internal/db/bunx"
	"github.com/wallacemaster800-spec/acameria-academy/internal/db/migrations"
	"github.com/wallacemaster800-spec/acameria-academy/internal/db/models"
	"github.com/wallacemaster800-spec/acameria-academy/internal/mail"
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

type fixture struct {
	svc    *Service
	mailer *mail.ConsoleMailer
	user   *models.User
	admin  *models.User
	course *models.Course
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)
	ctx := context.Background()

	users := repository.NewBunUserRepository(db)
	courses := repository.NewBunCourseRepository(db)

	user := &models.User{ID: uuid.NewString(), Email: "student@example.com", FullName: "Student", PasswordHash: "x"}
	require.NoError(t, users.Create(ctx, user))
	admin := &models.User{ID: uuid.NewString(), Email: "admin@example.com", FullName: "Admin", PasswordHash: "x"}
	require.NoError(t, users.Create(ctx, admin))
	course := &models.Course{ID: uuid.NewString(), Slug: "go-basics", Title: "Go Basics", IsPublished: true}
	require.NoError(t, courses.Create(ctx, course))

	mailer := mail.NewConsoleMailer("Academy", "noreply@example.com")
	mailer.Quiet = true

	svc := NewService(Deps{
		Enrollments: repository.NewBunEnrollmentRepository(db),
		Requests:    repository.NewBunAccessRequestRepository(db),
		Users:       users,
		Courses:     courses,
		Mailer:      mailer,
	})
	return &fixture{svc: svc, mailer: mailer, user: user, admin: admin, course: course}
}

func TestGrantDefaultsToThirtyDays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	enrollment, err := f.svc.Grant(ctx, f.user.ID, f.course.ID, f.admin.ID, nil)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(DefaultGrantDuration), enrollment.ExpiresAt, time.Minute)

	ok, err := f.svc.HasActiveAccess(ctx, f.user.ID, f.course.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGrantExplicitExpiryAndRenew(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	until := time.Now().Add(48 * time.Hour).UTC()
	enrollment, err := f.svc.Grant(ctx, f.user.ID, f.course.ID, f.admin.ID, &until)
	require.NoError(t, err)
	assert.WithinDuration(t, until, enrollment.ExpiresAt, time.Second)

	renewed := time.Now().Add(90 * 24 * time.Hour).UTC()
	require.NoError(t, f.svc.Renew(ctx, f.user.ID, f.course.ID, renewed))

	grants, err := f.svc.ListForUser(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.WithinDuration(t, renewed, grants[0].ExpiresAt, time.Second)
}

func TestExpiredGrantIsInactive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	_, err := f.svc.Grant(ctx, f.user.ID, f.course.ID, f.admin.ID, &past)
	require.NoError(t, err)

	ok, err := f.svc.HasActiveAccess(ctx, f.user.ID, f.course.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRevoke(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Grant(ctx, f.user.ID, f.course.ID, f.admin.ID, nil)
	require.NoError(t, err)
	require.NoError(t, f.svc.Revoke(ctx, f.user.ID, f.course.ID))

	ok, err := f.svc.HasActiveAccess(ctx, f.user.ID, f.course.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRequestAccessIsIdempotentWhilePending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.RequestAccess(ctx, f.user.ID, f.course.ID)
	require.NoError(t, err)
	second, err := f.svc.RequestAccess(ctx, f.user.ID, f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestApproveGrantsAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	request, err := f.svc.RequestAccess(ctx, f.user.ID, f.course.ID)
	require.NoError(t, err)

	enrollment, err := f.svc.Approve(ctx, request.ID, f.admin.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(DefaultGrantDuration), enrollment.ExpiresAt, time.Minute)

	ok, err := f.svc.HasActiveAccess(ctx, f.user.ID, f.course.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	// A second approval of the same request must fail.
	_, err = f.svc.Approve(ctx, request.ID, f.admin.ID)
	assert.ErrorIs(t, err, ErrAlreadyDecided)

	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "student@example.com", sent[0].To.Address)
	assert.Contains(t, sent[0].Subject, "approved")

	// Approval clears the pending state; a new request can be filed.
	again, err := f.svc.RequestAccess(ctx, f.user.ID, f.course.ID)
	require.NoError(t, err)
	assert.NotEqual(t, request.ID, again.ID)
}

func TestDenyNotifiesWithoutGranting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	request, err := f.svc.RequestAccess(ctx, f.user.ID, f.course.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Deny(ctx, request.ID, f.admin.ID))

	ok, err := f.svc.HasActiveAccess(ctx, f.user.ID, f.course.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].TextBody, "not approved")

	assert.ErrorIs(t, f.svc.Deny(ctx, request.ID, f.admin.ID), ErrAlreadyDecided)
}
