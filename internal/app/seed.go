package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ctam-data/internal/domain"
	"ctam-data/internal/service"
)

// SeedAdmin ensures a central_admin login exists so a fresh deployment can
// provision the remaining accounts. Existing credentials are left alone.
func SeedAdmin(ctx context.Context, repos *Repositories, email, password string, logger *zap.Logger) error {
	if _, err := repos.Credentials.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("failed to check admin credential: %w", err)
	}

	p, err := repos.Profiles.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		p = &domain.Profile{Email: email, FullName: "Central Administrator", Role: domain.RoleCentralAdmin, IsActive: true}
		err = repos.Profiles.Create(ctx, p)
	}
	if err != nil {
		return fmt.Errorf("failed to seed admin profile: %w", err)
	}

	hash, err := service.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	if err := repos.Credentials.Create(ctx, &domain.Credential{
		ProfileID: p.ID, Email: email, PasswordHash: hash, CreatedAt: time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("failed to seed admin credential: %w", err)
	}
	logger.Info("Seeded central admin login", zap.String("email", email), zap.String("profile_id", p.ID))
	return nil
}
