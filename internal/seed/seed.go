// Package seed bootstraps the database with the permission catalog and the
// first platform admin. Every step is idempotent so it runs on each start.
package seed

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/workdeck/backend/config"
	"github.com/workdeck/backend/internal/permissions"
	"github.com/workdeck/backend/pkg/utils"
)

// Run seeds the permission catalog and, when configured, the bootstrap
// platform admin.
func Run(ctx context.Context, pool *pgxpool.Pool, cfg config.SeedConfig, logger *zap.Logger) error {
	if err := seedCatalog(ctx, pool, logger); err != nil {
		return err
	}
	return seedPlatformAdmin(ctx, pool, cfg, logger)
}

// seedCatalog upserts the base permission catalog. Descriptions follow the
// catalog; scope never changes for an existing key.
func seedCatalog(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	for _, entry := range permissions.BaseCatalog {
		_, err := pool.Exec(ctx, `
			INSERT INTO permissions (key, description, scope)
			VALUES ($1, $2, $3)
			ON CONFLICT (key) DO UPDATE SET description = EXCLUDED.description`,
			entry.Key, entry.Description, entry.Scope)
		if err != nil {
			return err
		}
	}
	logger.Info("permission catalog seeded", zap.Int("entries", len(permissions.BaseCatalog)))
	return nil
}

// seedPlatformAdmin creates the bootstrap admin user and its platform_admins
// row. Skipped when SEED_ADMIN_EMAIL is not set; an existing user is promoted
// but never has its password overwritten.
func seedPlatformAdmin(ctx context.Context, pool *pgxpool.Pool, cfg config.SeedConfig, logger *zap.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		logger.Info("platform admin seed skipped, credentials not configured")
		return nil
	}

	hash, err := utils.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO users (email, password_hash, full_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO NOTHING`,
		cfg.AdminEmail, hash, cfg.AdminFullName); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO platform_admins (user_id)
		SELECT id FROM users WHERE email = $1
		ON CONFLICT (user_id) DO NOTHING`,
		cfg.AdminEmail); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	logger.Info("platform admin seeded", zap.String("email", cfg.AdminEmail))
	return nil
}
