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

// seedCourse creates a course with two modules of two lessons each and
// returns it with content loaded.
func seedCourse(t *testing.T, repo *BunCourseRepository, slug string) *models.Course {
	t.Helper()
	ctx := context.Background()

	course := &models.Course{
		ID:          uuid.NewString(),
		Slug:        slug,
		Title:       "Test Course",
		IsPublished: true,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, repo.Create(ctx, course))

	for m := 0; m < 2; m++ {
		module := &models.CourseModule{
			ID:         uuid.NewString(),
			CourseID:   course.ID,
			Title:      "Module",
			OrderIndex: m,
		}
		require.NoError(t, repo.CreateModule(ctx, module))
		for l := 0; l < 2; l++ {
			lesson := &models.Lesson{
				ID:          uuid.NewString(),
				ModuleID:    module.ID,
				Title:       "Lesson",
				VideoURLHLS: "videos/master.m3u8",
				OrderIndex:  l,
			}
			require.NoError(t, repo.CreateLesson(ctx, lesson))
		}
	}

	full, err := repo.GetContent(ctx, course.ID)
	require.NoError(t, err)
	return full
}

func TestBunCourseRepository_GetContentOrdering(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunCourseRepository(db)
	ctx := context.Background()

	course := &models.Course{
		ID:        uuid.NewString(),
		Slug:      "go-basics",
		Title:     "Go Basics",
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.Create(ctx, course))

	// Insert modules out of order; GetContent must sort by order_index.
	for _, idx := range []int{2, 0, 1} {
		require.NoError(t, repo.CreateModule(ctx, &models.CourseModule{
			ID:         uuid.NewString(),
			CourseID:   course.ID,
			Title:      "Module",
			OrderIndex: idx,
		}))
	}

	full, err := repo.GetContent(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, full.Modules, 3)
	for i, module := range full.Modules {
		assert.Equal(t, i, module.OrderIndex)
	}
}

func TestBunCourseRepository_ListPublishedOnly(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunCourseRepository(db)
	ctx := context.Background()

	published := &models.Course{ID: uuid.NewString(), Slug: "pub", Title: "Published", IsPublished: true, CreatedAt: time.Now()}
	draft := &models.Course{ID: uuid.NewString(), Slug: "draft", Title: "Draft", CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, published))
	require.NoError(t, repo.Create(ctx, draft))

	all, err := repo.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	visible, err := repo.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "pub", visible[0].Slug)
}

func TestBunCourseRepository_CourseIDForLesson(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunCourseRepository(db)
	ctx := context.Background()

	course := seedCourse(t, repo, "lookup")
	lessonID := course.Modules[0].Lessons[0].ID

	courseID, err := repo.CourseIDForLesson(ctx, lessonID)
	require.NoError(t, err)
	assert.Equal(t, course.ID, courseID)

	_, err = repo.CourseIDForLesson(ctx, uuid.NewString())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestBunCourseRepository_LessonIDsByCourse(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunCourseRepository(db)
	ctx := context.Background()

	a := seedCourse(t, repo, "course-a")
	b := seedCourse(t, repo, "course-b")

	byCourse, err := repo.LessonIDsByCourse(ctx)
	require.NoError(t, err)
	assert.Len(t, byCourse[a.ID], 4)
	assert.Len(t, byCourse[b.ID], 4)
}

func TestBunCourseRepository_DeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunCourseRepository(db)
	ctx := context.Background()

	course := seedCourse(t, repo, "cascade")
	require.NoError(t, repo.Delete(ctx, course.ID))

	_, err := repo.GetLesson(ctx, course.Modules[0].Lessons[0].ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}
