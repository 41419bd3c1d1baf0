package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Otp struct {
	bun.BaseModel `bun:"table:otp,alias:o"`

	ID        uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	Email     string     `bun:"email,notnull" json:"email"`
	Code      string     `bun:"code,notnull" json:"-"`
	UsedAt    *time.Time `bun:"used_at" json:"used_at,omitempty"`
	ExpiresAt time.Time  `bun:"expires_at,notnull" json:"expires_at"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
	DeletedAt time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}
