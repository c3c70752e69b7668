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

// BunAccessRequestRepository implements AccessRequestRepository using Bun ORM
type BunAccessRequestRepository struct {
	db *bun.DB
}

// NewBunAccessRequestRepository creates a new Bun-based access request repository
func NewBunAccessRequestRepository(db *bun.DB) *BunAccessRequestRepository {
	return &BunAccessRequestRepository{db: db}
}

// Create inserts a new access request
func (r *BunAccessRequestRepository) Create(ctx context.Context, request *models.AccessRequest) error {
	_, err := r.db.NewInsert().
		Model(request).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create access request: %w", err)
	}
	return nil
}

// GetByID retrieves a request by id
func (r *BunAccessRequestRepository) GetByID(ctx context.Context, id string) (*models.AccessRequest, error) {
	request := new(models.AccessRequest)
	err := r.db.NewSelect().
		Model(request).
		Where("ar.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("access request %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get access request: %w", err)
	}
	return request, nil
}

// GetPending retrieves the pending request for a (user, course) pair, if
// any. Used to keep request submission idempotent while undecided.
func (r *BunAccessRequestRepository) GetPending(ctx context.Context, userID, courseID string) (*models.AccessRequest, error) {
	request := new(models.AccessRequest)
	err := r.db.NewSelect().
		Model(request).
		Where("user_id = ?", userID).
		Where("course_id = ?", courseID).
		Where("status = ?", models.RequestPending).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("access request: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("get pending request: %w", err)
	}
	return request, nil
}

// ListByCourse retrieves requests for a course filtered by status, with
// student profiles joined for the admin view.
func (r *BunAccessRequestRepository) ListByCourse(ctx context.Context, courseID string, status models.RequestStatus) ([]models.AccessRequest, error) {
	var requests []models.AccessRequest
	err := r.db.NewSelect().
		Model(&requests).
		Relation("User").
		Where("course_id = ?", courseID).
		Where("status = ?", status).
		Order("ar.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list course requests: %w", err)
	}
	return requests, nil
}

// Decide flips every pending request for the (user, course) pair to the
// given status. The original admin flow updated by user+course, not by
// request id, so approvals sweep duplicates too.
func (r *BunAccessRequestRepository) Decide(ctx context.Context, userID, courseID string, status models.RequestStatus, decidedBy string) error {
	_, err := r.db.NewUpdate().
		Model((*models.AccessRequest)(nil)).
		Set("status = ?", status).
		Set("decided_at = ?", time.Now()).
		Set("decided_by = ?", decidedBy).
		Where("user_id = ?", userID).
		Where("course_id = ?", courseID).
		Where("status = ?", models.RequestPending).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("decide access request: %w", err)
	}
	return nil
}
