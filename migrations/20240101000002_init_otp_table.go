package main

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(initOtpTableUp, initOtpTableDown)
}

// Migration: 20240101000002_init_otp_table
func initOtpTableUp(ctx context.Context, db *bun.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS otp (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			email TEXT NOT NULL,
			code TEXT NOT NULL,
			used_at TIMESTAMPTZ,
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			deleted_at TIMESTAMPTZ
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create otp table: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		CREATE TRIGGER update_otp_updated_at
		BEFORE UPDATE ON otp
		FOR EACH ROW EXECUTE FUNCTION update_updated_at_column()
	`)
	if err != nil {
		return fmt.Errorf("failed to create otp updated_at trigger: %w", err)
	}

	return nil
}

func initOtpTableDown(ctx context.Context, db *bun.DB) error {
	_, err := db.ExecContext(ctx, `DROP TRIGGER IF EXISTS update_otp_updated_at ON otp`)
	if err != nil {
		return fmt.Errorf("failed to drop otp updated_at trigger: %w", err)
	}

	_, err = db.ExecContext(ctx, `DROP TABLE IF EXISTS otp`)
	if err != nil {
		return fmt.Errorf("failed to drop otp table: %w", err)
	}

	return nil
}
