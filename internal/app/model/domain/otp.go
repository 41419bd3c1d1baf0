package domain

import (
	"time"

	"github.com/google/uuid"
)

type Otp struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	Code      string     `json:"-"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	ExpiresAt time.Time  `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// Used reports whether the code has been consumed.
func (o *Otp) Used() bool {
	return o.UsedAt != nil
}
