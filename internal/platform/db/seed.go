package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"timekeep/internal/domain/auth"
	"timekeep/internal/platform/config"
)

// Seed makes sure an administrator exists when seed credentials are configured.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	email := strings.ToLower(strings.TrimSpace(cfg.SeedAdminEmail))
	if email == "" || cfg.SeedAdminPassword == "" {
		return nil
	}

	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE lower(email) = $1", email).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(cfg.SeedAdminPassword)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
    INSERT INTO users (name, email, password_hash, role)
    VALUES ($1,$2,$3,$4)
    ON CONFLICT DO NOTHING
  `, cfg.SeedAdminName, email, hash, string(auth.RoleAdmin))
	return err
}
