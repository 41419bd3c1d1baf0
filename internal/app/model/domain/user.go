package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Password     string    `json:"-"`
	PhoneCode    *string   `json:"phone_code,omitempty"`
	PhoneNumber  *string   `json:"phone_number,omitempty"`
	Referrer     *string   `json:"referrer,omitempty"`
	PhotoURL     *string   `json:"photo_url,omitempty"`
	RefreshToken *string   `json:"-"`

	EmailVerifiedAt          *time.Time `json:"email_verified_at,omitempty"`
	PrivacyPolicyAcceptedAt  *time.Time `json:"privacy_policy_accepted_at,omitempty"`
	TermsOfServiceAcceptedAt *time.Time `json:"terms_of_service_accepted_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Phone returns the phone number with its country code prefix.
func (u *User) Phone() string {
	if u.PhoneCode == nil || u.PhoneNumber == nil {
		return ""
	}
	return *u.PhoneCode + *u.PhoneNumber
}

// UserPatch is a partial update applied field-by-field. Nil fields are left
// untouched; ClearRefreshToken distinguishes "set NULL" from "leave as is".
type UserPatch struct {
	Password          *string
	RefreshToken      *string
	ClearRefreshToken bool
	EmailVerifiedAt   *time.Time
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}
