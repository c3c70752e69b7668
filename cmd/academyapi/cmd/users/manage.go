package users

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"github.com/wallacemaster800-spec/acameria-academy/internal/config"
	"github.com/wallacemaster800-spec/acameria-academy/internal/db/bunx"
	"github.com/wallacemaster800-spec/acameria-academy/internal/db/models"
	"github.com/wallacemaster800-spec/acameria-academy/internal/repository"
	"github.com/wallacemaster800-spec/acameria-academy/internal/services/iam"
)

// withUser opens the database, resolves the account by email, and runs fn.
func withUser(email string, fn func(ctx context.Context, svc *iam.Service, user *models.User) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := bunx.NewDB(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer bunx.Close(db)

	svc, err := newIAMService(db, cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	user, err := lookupUser(ctx, db, email)
	if err != nil {
		return err
	}
	return fn(ctx, svc, user)
}

func lookupUser(ctx context.Context, db *bun.DB, email string) (*models.User, error) {
	user, err := repository.NewBunUserRepository(db).GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user %q: %w", email, err)
	}
	return user, nil
}

var promoteCmd = &cobra.Command{
	Use:   "promote <email>",
	Short: "Grant the admin role to an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(args[0], func(ctx context.Context, svc *iam.Service, user *models.User) error {
			if err := svc.AssignRole(ctx, user.ID, models.RoleAdmin, user.ID); err != nil {
				return fmt.Errorf("failed to assign admin role: %w", err)
			}
			fmt.Printf("Promoted %s to admin\n", user.Email)
			return nil
		})
	},
}

var demoteCmd = &cobra.Command{
	Use:   "demote <email>",
	Short: "Remove the admin role from an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(args[0], func(ctx context.Context, svc *iam.Service, user *models.User) error {
			if err := svc.RemoveRole(ctx, user.ID, models.RoleAdmin); err != nil {
				return fmt.Errorf("failed to remove admin role: %w", err)
			}
			fmt.Printf("Demoted %s\n", user.Email)
			return nil
		})
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable <email>",
	Short: "Disable an account and revoke its sessions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(args[0], func(ctx context.Context, svc *iam.Service, user *models.User) error {
			if err := svc.DisableUser(ctx, user.ID); err != nil {
				return fmt.Errorf("failed to disable user: %w", err)
			}
			fmt.Printf("Disabled %s\n", user.Email)
			return nil
		})
	},
}
