package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/kilobyteno/LANMS/internal/app/model/db"
	"github.com/kilobyteno/LANMS/internal/app/model/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetVerifiedByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByEmailOrPhone(ctx context.Context, email string, phoneNumber *string) (*domain.User, error)
	Patch(ctx context.Context, userID uuid.UUID, patch *domain.UserPatch) error
}

type userRepository struct {
	db *bun.DB
}

func NewUserRepository(db *bun.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	dbUser := &db.User{
		ID:                       user.ID,
		Name:                     user.Name,
		Email:                    user.Email,
		Password:                 user.Password,
		PhoneCode:                user.PhoneCode,
		PhoneNumber:              user.PhoneNumber,
		Referrer:                 user.Referrer,
		PhotoURL:                 user.PhotoURL,
		RefreshToken:             user.RefreshToken,
		EmailVerifiedAt:          user.EmailVerifiedAt,
		PrivacyPolicyAcceptedAt:  user.PrivacyPolicyAcceptedAt,
		TermsOfServiceAcceptedAt: user.TermsOfServiceAcceptedAt,
		CreatedAt:                time.Now(),
		UpdatedAt:                time.Now(),
	}

	_, err := r.db.NewInsert().Model(dbUser).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.CreatedAt = dbUser.CreatedAt
	user.UpdatedAt = dbUser.UpdatedAt

	return nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	dbUser := &db.User{}
	err := r.db.NewSelect().Model(dbUser).Where("email = ?", email).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return r.toDomainUser(dbUser), nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	dbUser := &db.User{}
	err := r.db.NewSelect().Model(dbUser).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return r.toDomainUser(dbUser), nil
}

func (r *userRepository) GetVerifiedByEmail(ctx context.Context, email string) (*domain.User, error) {
	dbUser := &db.User{}
	err := r.db.NewSelect().
		Model(dbUser).
		Where("email = ?", email).
		Where("email_verified_at IS NOT NULL").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get verified user by email: %w", err)
	}

	return r.toDomainUser(dbUser), nil
}

// GetByEmailOrPhone finds a live user matching the email or, when a phone
// number is supplied, the phone number.
func (r *userRepository) GetByEmailOrPhone(ctx context.Context, email string, phoneNumber *string) (*domain.User, error) {
	dbUser := &db.User{}
	query := r.db.NewSelect().Model(dbUser)

	if phoneNumber != nil && *phoneNumber != "" {
		query = query.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("email = ?", email).WhereOr("phone_number = ?", *phoneNumber)
		})
	} else {
		query = query.Where("email = ?", email)
	}

	err := query.Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email or phone: %w", err)
	}

	return r.toDomainUser(dbUser), nil
}

// Patch applies a partial update field-by-field; nil fields are not touched.
func (r *userRepository) Patch(ctx context.Context, userID uuid.UUID, patch *domain.UserPatch) error {
	query := r.db.NewUpdate().
		Model((*db.User)(nil)).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", userID)

	if patch.Password != nil {
		query = query.Set("password = ?", *patch.Password)
	}
	if patch.ClearRefreshToken {
		query = query.Set("refresh_token = NULL")
	} else if patch.RefreshToken != nil {
		query = query.Set("refresh_token = ?", *patch.RefreshToken)
	}
	if patch.EmailVerifiedAt != nil {
		query = query.Set("email_verified_at = ?", *patch.EmailVerifiedAt)
	}

	_, err := query.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to patch user: %w", err)
	}

	return nil
}

func (r *userRepository) toDomainUser(dbUser *db.User) *domain.User {
	return &domain.User{
		ID:                       dbUser.ID,
		Name:                     dbUser.Name,
		Email:                    dbUser.Email,
		Password:                 dbUser.Password,
		PhoneCode:                dbUser.PhoneCode,
		PhoneNumber:              dbUser.PhoneNumber,
		Referrer:                 dbUser.Referrer,
		PhotoURL:                 dbUser.PhotoURL,
		RefreshToken:             dbUser.RefreshToken,
		EmailVerifiedAt:          dbUser.EmailVerifiedAt,
		PrivacyPolicyAcceptedAt:  dbUser.PrivacyPolicyAcceptedAt,
		TermsOfServiceAcceptedAt: dbUser.TermsOfServiceAcceptedAt,
		CreatedAt:                dbUser.CreatedAt,
		UpdatedAt:                dbUser.UpdatedAt,
	}
}
