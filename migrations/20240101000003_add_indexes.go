package main

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(addIndexesUp, addIndexesDown)
}

// Migration: 20240101000003_add_indexes
// Uniqueness applies to live rows only; soft-deleted rows keep their values.
func addIndexesUp(ctx context.Context, db *bun.DB) error {
	queries := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_users_email ON users(email) WHERE deleted_at IS NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_users_phone ON users(phone_code, phone_number) WHERE deleted_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_users_email_verified_at ON users(email_verified_at)`,
		`CREATE INDEX IF NOT EXISTS idx_otp_email ON otp(email)`,
		`CREATE INDEX IF NOT EXISTS idx_otp_expires_at ON otp(expires_at)`,
	}

	for _, query := range queries {
		_, err := db.ExecContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

func addIndexesDown(ctx context.Context, db *bun.DB) error {
	queries := []string{
		`DROP INDEX IF EXISTS uq_users_email`,
		`DROP INDEX IF EXISTS uq_users_phone`,
		`DROP INDEX IF EXISTS idx_users_created_at`,
		`DROP INDEX IF EXISTS idx_users_email_verified_at`,
		`DROP INDEX IF EXISTS idx_otp_email`,
		`DROP INDEX IF EXISTS idx_otp_expires_at`,
	}

	for _, query := range queries {
		_, err := db.ExecContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to drop index: %w", err)
		}
	}

	return nil
}
