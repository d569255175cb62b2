package seed

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/edu-platform/edu-mgmt-api/internal/models"
)

type adminUpserter interface {
	Upsert(ctx context.Context, admin *models.Admin) (bool, error)
}

// Admins seeds the fixed operator accounts. Existing usernames are left alone,
// so the seed is safe to run on every startup.
func Admins(ctx context.Context, repo adminUpserter, logger *zap.Logger) error {
	accounts := []struct {
		username string
		password string
	}{
		{"admin1", "password1"},
		{"admin2", "password2"},
		{"admin3", "password3"},
	}

	for _, account := range accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(account.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash seed password: %w", err)
		}
		created, err := repo.Upsert(ctx, &models.Admin{Username: account.username, PasswordHash: string(hash)})
		if err != nil {
			return fmt.Errorf("seed admin %s: %w", account.username, err)
		}
		if created {
			logger.Info("admin account seeded", zap.String("username", account.username))
		}
	}
	return nil
}
