package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	Name         string    `bun:"name,notnull" json:"name"`
	Email        string    `bun:"email,notnull" json:"email"`
	Password     string    `bun:"password,notnull" json:"-"`
	PhoneCode    *string   `bun:"phone_code" json:"phone_code,omitempty"`
	PhoneNumber  *string   `bun:"phone_number" json:"phone_number,omitempty"`
	Referrer     *string   `bun:"referrer" json:"referrer,omitempty"`
	PhotoURL     *string   `bun:"photo_url" json:"photo_url,omitempty"`
	RefreshToken *string   `bun:"refresh_token" json:"-"`

	EmailVerifiedAt          *time.Time `bun:"email_verified_at" json:"email_verified_at,omitempty"`
	PrivacyPolicyAcceptedAt  *time.Time `bun:"privacy_policy_accepted_at" json:"privacy_policy_accepted_at,omitempty"`
	TermsOfServiceAcceptedAt *time.Time `bun:"terms_of_service_accepted_at" json:"terms_of_service_accepted_at,omitempty"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
	// Soft-deleted rows are excluded from every query by bun's soft delete
	// support; uniqueness only holds among live rows.
	DeletedAt time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}
