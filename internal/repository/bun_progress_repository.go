package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/wallacemaster800-spec/acameria-academy/internal/db/models"
)

// BunProgressRepository implements ProgressRepository using Bun ORM
type BunProgressRepository struct {
	db *bun.DB
}

// NewBunProgressRepository creates a new Bun-based progress repository
func NewBunProgressRepository(db *bun.DB) *BunProgressRepository {
	return &BunProgressRepository{db: db}
}

// Upsert inserts or updates the (user, lesson) progress row. The player
// reports position roughly every ten seconds, so this is the hottest write
// path in the system. Completion is sticky: once a row is completed, later
// writes can move the position but never clear the flag.
func (r *BunProgressRepository) Upsert(ctx context.Context, progress *models.LessonProgress) error {
	progress.UpdatedAt = time.Now()
	_, err := r.db.NewInsert().
		Model(progress).
		On("CONFLICT (user_id, lesson_id) DO UPDATE").
		Set("last_watched_position = EXCLUDED.last_watched_position").
		Set("is_completed = is_completed OR EXCLUDED.is_completed").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

// ListByUser retrieves all progress rows for a user
func (r *BunProgressRepository) ListByUser(ctx context.Context, userID string) ([]models.LessonProgress, error) {
	var rows []models.LessonProgress
	err := r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	return rows, nil
}

// ListByUserAndLessons retrieves progress for a user restricted to the given
// lessons (one course's worth, typically).
func (r *BunProgressRepository) ListByUserAndLessons(ctx context.Context, userID string, lessonIDs []string) ([]models.LessonProgress, error) {
	if len(lessonIDs) == 0 {
		return nil, nil
	}
	var rows []models.LessonProgress
	err := r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Where("lesson_id IN (?)", bun.In(lessonIDs)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list progress by lessons: %w", err)
	}
	return rows, nil
}
