package api

import (
	"time"

	"github.com/google/uuid"
)

// Request Types

// GenerateOTPRequest starts signup by requesting an OTP
// @Description Start signup request
type GenerateOTPRequest struct {
	Email string `json:"email" validate:"required,email" example:"user@example.com"`
}

// ResendOTPRequest requests a fresh OTP, invalidating any active one
// @Description Resend OTP request
type ResendOTPRequest struct {
	Email string `json:"email" validate:"required,email" example:"user@example.com"`
}

// VerifyOTPRequest verifies a signup OTP
// @Description Verify OTP request
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email" example:"user@example.com"`
	Code  string `json:"code" validate:"required" example:"123456"`
}

// SignupDetailsRequest completes signup with the user's profile
// @Description Complete signup request
type SignupDetailsRequest struct {
	Name        string  `json:"name" validate:"required,max=256" example:"John Doe"`
	PhoneCode   string  `json:"phone_code" validate:"required,startswith=+,max=12" example:"+47"`
	PhoneNumber string  `json:"phone_number" validate:"required,numeric,max=32" example:"99887766"`
	Email       string  `json:"email" validate:"required,email" example:"user@example.com"`
	Password    string  `json:"password" validate:"required" example:"correct-horse-battery"`
	Referrer    *string `json:"referrer,omitempty" example:"friend"`
}

// LoginRequest authenticates with email and password
// @Description User login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"user@example.com"`
	Password string `json:"password" validate:"required" example:"correct-horse-battery"`
}

// RefreshTokenRequest exchanges a refresh token for a new access token
// @Description Refresh access token request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required" example:"eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// ChangePasswordRequest changes the current user's password
// @Description Change password request
type ChangePasswordRequest struct {
	OldPassword          string `json:"old_password" validate:"required"`
	Password             string `json:"password" validate:"required"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required"`
}

// ForgotPasswordRequest sends a password reset link
// @Description Forgot password request
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email" example:"user@example.com"`
}

// ResetPasswordRequest resets a password with a reset token
// @Description Reset password request
type ResetPasswordRequest struct {
	ResetToken           string `json:"reset_token" validate:"required"`
	Password             string `json:"password" validate:"required"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required"`
}

// Response Types

// TokenPairResponse carries a freshly minted token pair
// @Description JWT token pair response
type TokenPairResponse struct {
	AccessToken  string `json:"access_token" example:"eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9..."`
	RefreshToken string `json:"refresh_token" example:"eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9..."`
	TokenType    string `json:"token_type" example:"bearer"`
}

// AccessTokenResponse carries a single access token
// @Description JWT access token response
type AccessTokenResponse struct {
	AccessToken string `json:"access_token" example:"eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9..."`
	TokenType   string `json:"token_type" example:"bearer"`
}

// UserResponse represents the user profile
// @Description User information response
type UserResponse struct {
	ID                       uuid.UUID  `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name                     string     `json:"name" example:"John Doe"`
	Email                    string     `json:"email" example:"user@example.com"`
	PhoneCode                *string    `json:"phone_code,omitempty" example:"+47"`
	PhoneNumber              *string    `json:"phone_number,omitempty" example:"99887766"`
	Referrer                 *string    `json:"referrer,omitempty"`
	PhotoURL                 *string    `json:"photo_url,omitempty"`
	EmailVerifiedAt          *time.Time `json:"email_verified_at,omitempty"`
	PrivacyPolicyAcceptedAt  *time.Time `json:"privacy_policy_accepted_at,omitempty"`
	TermsOfServiceAcceptedAt *time.Time `json:"terms_of_service_accepted_at,omitempty"`
}

// SuccessResponse represents a generic success response
// @Description Generic success response
type SuccessResponse struct {
	Message string `json:"message" example:"Operation completed successfully"`
	Success bool   `json:"success" example:"true"`
}

// ErrorResponse represents an error response
// @Description Error response
type ErrorResponse struct {
	Error   string `json:"error" example:"validation_error"`
	Message string `json:"message" example:"Invalid input data"`
	Success bool   `json:"success" example:"false"`
}

// HealthResponse represents the health check response
// @Description Health check response
type HealthResponse struct {
	Status  string `json:"status" example:"healthy"`
	Service string `json:"service" example:"lanms-backend"`
	Version string `json:"version" example:"3.0.0"`
}
