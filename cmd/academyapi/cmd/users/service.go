package users

import (
	"fmt"

	"github.com/uptrace/bun"

	"github.com/wallacemaster800-spec/acameria-academy/internal/config"
	"github.com/wallacemaster800-spec/acameria-academy/internal/repository"
	"github.com/wallacemaster800-spec/acameria-academy/internal/services/iam"
)

func newIAMService(db *bun.DB, cfg *config.Config) (*iam.Service, error) {
	svc, err := iam.NewService(iam.Deps{
		Users:    repository.NewBunUserRepository(db),
		Roles:    repository.NewBunUserRoleRepository(db),
		Sessions: repository.NewBunSessionRepository(db),
	}, cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize IAM service: %w", err)
	}
	return svc, nil
}
