package repository

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/wallacemaster800-spec/acameria-academy/internal/db/models"
)

// BunUserRoleRepository implements UserRoleRepository using Bun ORM
type BunUserRoleRepository struct {
	db *bun.DB
}

// NewBunUserRoleRepository creates a new Bun-based user role repository
func NewBunUserRoleRepository(db *bun.DB) *BunUserRoleRepository {
	return &BunUserRoleRepository{db: db}
}

// Assign grants a role to a user. Assigning an already-held role is a no-op.
func (r *BunUserRoleRepository) Assign(ctx context.Context, role *models.UserRole) error {
	_, err := r.db.NewInsert().
		Model(role).
		On("CONFLICT (user_id, role) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

// Remove revokes a role from a user
func (r *BunUserRoleRepository) Remove(ctx context.Context, userID, role string) error {
	_, err := r.db.NewDelete().
		Model((*models.UserRole)(nil)).
		Where("user_id = ?", userID).
		Where("role = ?", role).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("remove role: %w", err)
	}
	return nil
}

// RolesForUser returns the role names held by a user
func (r *BunUserRoleRepository) RolesForUser(ctx context.Context, userID string) ([]string, error) {
	var roles []string
	err := r.db.NewSelect().
		Model((*models.UserRole)(nil)).
		Column("role").
		Where("user_id = ?", userID).
		Scan(ctx, &roles)
	if err != nil {
		return nil, fmt.Errorf("roles for user: %w", err)
	}
	return roles, nil
}

// HasRole reports whether the user holds the given role. This mirrors the
// has_role lookup the web client issued per session resolution.
func (r *BunUserRoleRepository) HasRole(ctx context.Context, userID, role string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*models.UserRole)(nil)).
		Where("user_id = ?", userID).
		Where("role = ?", role).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("has role: %w", err)
	}
	return exists, nil
}

// List retrieves all role assignments
func (r *BunUserRoleRepository) List(ctx context.Context) ([]models.UserRole, error) {
	var assignments []models.UserRole
	err := r.db.NewSelect().
		Model(&assignments).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return assignments, nil
}
