package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/wallacemaster800-spec/acameria-academy/internal/db/models"
)

// BunEnrollmentRepository implements EnrollmentRepository using Bun ORM
type BunEnrollmentRepository struct {
	db *bun.DB
}

// NewBunEnrollmentRepository creates a new Bun-based enrollment repository
func NewBunEnrollmentRepository(db *bun.DB) *BunEnrollmentRepository {
	return &BunEnrollmentRepository{db: db}
}

// Upsert inserts or refreshes the (user, course) grant. Granting access to
// an already-enrolled student replaces the expiry window.
func (r *BunEnrollmentRepository) Upsert(ctx context.Context, enrollment *models.Enrollment) error {
	_, err := r.db.NewInsert().
		Model(enrollment).
		On("CONFLICT (user_id, course_id) DO UPDATE").
		Set("expires_at = EXCLUDED.expires_at").
		Set("granted_at = EXCLUDED.granted_at").
		Set("granted_by = EXCLUDED.granted_by").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert enrollment: %w", err)
	}
	return nil
}

// Get retrieves the grant for a (user, course) pair
func (r *BunEnrollmentRepository) Get(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	enrollment := new(models.Enrollment)
	err := r.db.NewSelect().
		Model(enrollment).
		Where("user_id = ?", userID).
		Where("course_id = ?", courseID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("enrollment: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("get enrollment: %w", err)
	}
	return enrollment, nil
}

// UpdateExpiry moves the expiry date of an existing grant (renewal)
func (r *BunEnrollmentRepository) UpdateExpiry(ctx context.Context, userID, courseID string, expiresAt time.Time) error {
	res, err := r.db.NewUpdate().
		Model((*models.Enrollment)(nil)).
		Set("expires_at = ?", expiresAt).
		Where("user_id = ?", userID).
		Where("course_id = ?", courseID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update enrollment expiry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("enrollment: %w", ErrNotFound)
	}
	return nil
}

// Delete revokes a grant entirely
func (r *BunEnrollmentRepository) Delete(ctx context.Context, userID, courseID string) error {
	_, err := r.db.NewDelete().
		Model((*models.Enrollment)(nil)).
		Where("user_id = ?", userID).
		Where("course_id = ?", courseID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	return nil
}

// ListByCourse retrieves every grant for a course with student profiles
// joined, for the admin roster view.
func (r *BunEnrollmentRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	err := r.db.NewSelect().
		Model(&enrollments).
		Relation("User").
		Where("course_id = ?", courseID).
		Order("expires_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list course enrollments: %w", err)
	}
	return enrollments, nil
}

// ListByUser retrieves every grant held by a user
func (r *BunEnrollmentRepository) ListByUser(ctx context.Context, userID string) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	err := r.db.NewSelect().
		Model(&enrollments).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list user enrollments: %w", err)
	}
	return enrollments, nil
}
