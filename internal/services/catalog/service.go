// Package catalog serves the course catalog: listing, course content with
// per-lesson progress, watch-progress recording, and manifest import.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/wallacemaster800-spec/acameria-academy/internal/db/models"
	"github.com/wallacemaster800-spec/acameria-academy/internal/repository"
)

// ErrLessonNotFound is returned when progress targets an unknown lesson.
var ErrLessonNotFound = errors.New("lesson not found")

// Summary is a per-course progress rollup for the dashboard.
type Summary struct {
	CourseID         string
	TotalLessons     int
	CompletedLessons int
	// PercentComplete is rounded down; 100 only when every lesson is done.
	PercentComplete int
}

// Service provides catalog reads and progress writes.
type Service struct {
	courses  repository.CourseRepository
	progress repository.ProgressRepository
}

func NewService(courses repository.CourseRepository, progress repository.ProgressRepository) *Service {
	return &Service{courses: courses, progress: progress}
}

// ListPublished returns the published catalog.
func (s *Service) ListPublished(ctx context.Context) ([]models.Course, error) {
	return s.courses.List(ctx, true)
}

// ListAll returns every course, including drafts. Admin surface.
func (s *Service) ListAll(ctx context.Context) ([]models.Course, error) {
	return s.courses.List(ctx, false)
}

// GetContent returns a course by slug with its modules and lessons in
// order, plus the caller's progress keyed by lesson id.
func (s *Service) GetContent(ctx context.Context, slug, userID string) (*models.Course, map[string]models.LessonProgress, error) {
	course, err := s.courses.GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	course, err = s.courses.GetContent(ctx, course.ID)
	if err != nil {
		return nil, nil, err
	}

	var lessonIDs []string
	for _, module := range course.Modules {
		for _, lesson := range module.Lessons {
			lessonIDs = append(lessonIDs, lesson.ID)
		}
	}

	byLesson := make(map[string]models.LessonProgress)
	if userID != "" && len(lessonIDs) > 0 {
		rows, err := s.progress.ListByUserAndLessons(ctx, userID, lessonIDs)
		if err != nil {
			return nil, nil, fmt.Errorf("load progress: %w", err)
		}
		for _, row := range rows {
			byLesson[row.LessonID] = row
		}
	}
	return course, byLesson, nil
}

// RecordProgress upserts the caller's resume position for a lesson. A
// completed lesson stays completed even if the player later reports an
// earlier position.
func (s *Service) RecordProgress(ctx context.Context, userID, lessonID string, position int, completed bool) error {
	if _, err := s.courses.GetLesson(ctx, lessonID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrLessonNotFound
		}
		return fmt.Errorf("lookup lesson: %w", err)
	}
	if position < 0 {
		position = 0
	}
	return s.progress.Upsert(ctx, &models.LessonProgress{
		ID:                  uuid.NewString(),
		UserID:              userID,
		LessonID:            lessonID,
		LastWatchedPosition: position,
		IsCompleted:         completed,
	})
}

// Summaries computes per-course progress for the user's dashboard in two
// queries, regardless of catalog size.
func (s *Service) Summaries(ctx context.Context, userID string) (map[string]Summary, error) {
	lessonsByCourse, err := s.courses.LessonIDsByCourse(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog lessons: %w", err)
	}
	rows, err := s.progress.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}

	completed := make(map[string]bool, len(rows))
	for _, row := range rows {
		if row.IsCompleted {
			completed[row.LessonID] = true
		}
	}

	summaries := make(map[string]Summary, len(lessonsByCourse))
	for courseID, lessonIDs := range lessonsByCourse {
		summary := Summary{CourseID: courseID, TotalLessons: len(lessonIDs)}
		for _, lessonID := range lessonIDs {
			if completed[lessonID] {
				summary.CompletedLessons++
			}
		}
		if summary.TotalLessons > 0 {
			summary.PercentComplete = summary.CompletedLessons * 100 / summary.TotalLessons
		}
		summaries[courseID] = summary
	}
	return summaries, nil
}
