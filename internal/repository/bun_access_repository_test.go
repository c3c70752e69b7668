package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallacemaster800-spec/acameria-academy/internal/db/models"
)

func TestBunEnrollmentRepository_UpsertReplacesExpiry(t *testing.T) {
	db := setupTestDB(t)
	users := NewBunUserRepository(db)
	courses := NewBunCourseRepository(db)
	enrollments := NewBunEnrollmentRepository(db)
	ctx := context.Background()

	user := newTestUser("enrolled@example.com")
	require.NoError(t, users.Create(ctx, user))
	course := seedCourse(t, courses, "enroll")

	first := time.Now().Add(24 * time.Hour)
	require.NoError(t, enrollments.Upsert(ctx, &models.Enrollment{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CourseID:  course.ID,
		ExpiresAt: first,
		GrantedAt: time.Now(),
	}))

	second := time.Now().Add(60 * 24 * time.Hour)
	require.NoError(t, enrollments.Upsert(ctx, &models.Enrollment{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CourseID:  course.ID,
		ExpiresAt: second,
		GrantedAt: time.Now(),
	}))

	got, err := enrollments.Get(ctx, user.ID, course.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, second, got.ExpiresAt, time.Second)

	// Still a single row.
	all, err := enrollments.ListByCourse(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.NotNil(t, all[0].User)
	assert.Equal(t, "enrolled@example.com", all[0].User.Email)
}

func TestBunEnrollmentRepository_UpdateExpiryMissing(t *testing.T) {
	db := setupTestDB(t)
	enrollments := NewBunEnrollmentRepository(db)

	err := enrollments.UpdateExpiry(context.Background(), uuid.NewString(), uuid.NewString(), time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestBunAccessRequestRepository_DecideSweepsPending(t *testing.T) {
	db := setupTestDB(t)
	users := NewBunUserRepository(db)
	courses := NewBunCourseRepository(db)
	requests := NewBunAccessRequestRepository(db)
	ctx := context.Background()

	admin := newTestUser("admin@example.com")
	student := newTestUser("student@example.com")
	require.NoError(t, users.Create(ctx, admin))
	require.NoError(t, users.Create(ctx, student))
	course := seedCourse(t, courses, "requests")

	require.NoError(t, requests.Create(ctx, &models.AccessRequest{
		ID:        uuid.NewString(),
		UserID:    student.ID,
		CourseID:  course.ID,
		Status:    models.RequestPending,
		CreatedAt: time.Now(),
	}))

	pending, err := requests.GetPending(ctx, student.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, pending.Status)

	require.NoError(t, requests.Decide(ctx, student.ID, course.ID, models.RequestApproved, admin.ID))

	_, err = requests.GetPending(ctx, student.ID, course.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	approved, err := requests.ListByCourse(ctx, course.ID, models.RequestApproved)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	require.NotNil(t, approved[0].DecidedBy)
	assert.Equal(t, admin.ID, *approved[0].DecidedBy)
}

func TestBunProgressRepository_Upsert(t *testing.T) {
	db := setupTestDB(t)
	users := NewBunUserRepository(db)
	courses := NewBunCourseRepository(db)
	progress := NewBunProgressRepository(db)
	ctx := context.Background()

	user := newTestUser("watcher@example.com")
	require.NoError(t, users.Create(ctx, user))
	course := seedCourse(t, courses, "watching")
	lessonID := course.Modules[0].Lessons[0].ID

	require.NoError(t, progress.Upsert(ctx, &models.LessonProgress{
		ID:                  uuid.NewString(),
		UserID:              user.ID,
		LessonID:            lessonID,
		LastWatchedPosition: 42,
	}))
	require.NoError(t, progress.Upsert(ctx, &models.LessonProgress{
		ID:                  uuid.NewString(),
		UserID:              user.ID,
		LessonID:            lessonID,
		LastWatchedPosition: 0,
		IsCompleted:         true,
	}))

	rows, err := progress.ListByUserAndLessons(ctx, user.ID, []string{lessonID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsCompleted)
	assert.Equal(t, 0, rows[0].LastWatchedPosition)
}
