package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/kilobyteno/LANMS/internal/app/model/db"
	"github.com/kilobyteno/LANMS/internal/app/model/domain"
)

type OtpRepository interface {
	Create(ctx context.Context, otp *domain.Otp) error
	GetActiveByEmail(ctx context.Context, email string) (*domain.Otp, error)
	GetActiveByEmailAndCode(ctx context.Context, email, code string) (*domain.Otp, error)
	UsedExistsForEmail(ctx context.Context, email string) (bool, error)
	MarkUsed(ctx context.Context, otp *domain.Otp) error
	SoftDelete(ctx context.Context, otp *domain.Otp) error
}

type otpRepository struct {
	db *bun.DB
}

func NewOtpRepository(db *bun.DB) OtpRepository {
	return &otpRepository{db: db}
}

func (r *otpRepository) Create(ctx context.Context, otp *domain.Otp) error {
	dbOtp := &db.Otp{
		ID:        otp.ID,
		Email:     otp.Email,
		Code:      otp.Code,
		ExpiresAt: otp.ExpiresAt,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	_, err := r.db.NewInsert().Model(dbOtp).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create OTP: %w", err)
	}

	otp.CreatedAt = dbOtp.CreatedAt

	return nil
}

// GetActiveByEmail returns the unused, unexpired OTP for the email, if any.
// At most one active OTP per email exists at a time.
func (r *otpRepository) GetActiveByEmail(ctx context.Context, email string) (*domain.Otp, error) {
	dbOtp := &db.Otp{}
	err := r.db.NewSelect().
		Model(dbOtp).
		Where("email = ?", email).
		Where("used_at IS NULL").
		Where("expires_at > ?", time.Now()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active OTP: %w", err)
	}

	return r.toDomainOtp(dbOtp), nil
}

func (r *otpRepository) GetActiveByEmailAndCode(ctx context.Context, email, code string) (*domain.Otp, error) {
	dbOtp := &db.Otp{}
	err := r.db.NewSelect().
		Model(dbOtp).
		Where("email = ?", email).
		Where("code = ?", code).
		Where("used_at IS NULL").
		Where("expires_at > ?", time.Now()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get OTP by email and code: %w", err)
	}

	return r.toDomainOtp(dbOtp), nil
}

// UsedExistsForEmail reports whether any consumed OTP row exists for the
// email. A consumed row is the server-side proof that the address was
// verified during signup.
func (r *otpRepository) UsedExistsForEmail(ctx context.Context, email string) (bool, error) {
	count, err := r.db.NewSelect().
		Model((*db.Otp)(nil)).
		Where("email = ?", email).
		Where("used_at IS NOT NULL").
		Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check used OTP existence: %w", err)
	}

	return count > 0, nil
}

func (r *otpRepository) MarkUsed(ctx context.Context, otp *domain.Otp) error {
	now := time.Now()
	_, err := r.db.NewUpdate().
		Model((*db.Otp)(nil)).
		Set("used_at = ?, updated_at = ?", now, now).
		Where("id = ?", otp.ID).
		Where("used_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark OTP as used: %w", err)
	}

	otp.UsedAt = &now

	return nil
}

func (r *otpRepository) SoftDelete(ctx context.Context, otp *domain.Otp) error {
	_, err := r.db.NewDelete().
		Model((*db.Otp)(nil)).
		Where("id = ?", otp.ID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to invalidate OTP: %w", err)
	}

	return nil
}

func (r *otpRepository) toDomainOtp(dbOtp *db.Otp) *domain.Otp {
	return &domain.Otp{
		ID:        dbOtp.ID,
		Email:     dbOtp.Email,
		Code:      dbOtp.Code,
		UsedAt:    dbOtp.UsedAt,
		ExpiresAt: dbOtp.ExpiresAt,
		CreatedAt: dbOtp.CreatedAt,
	}
}
