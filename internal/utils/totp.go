package utils

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// TOTPManager generates time-based one-time codes from the service-wide
// secret. Codes are keyed by secret and 30-second time step only, so the same
// step yields the same code for every recipient; the (email, code) pair
// persisted alongside is what binds a code to its recipient.
type TOTPManager struct {
	secret string
	digits int
	issuer string
}

func NewTOTPManager(secret string, digits int, issuer string) *TOTPManager {
	return &TOTPManager{
		secret: secret,
		digits: digits,
		issuer: issuer,
	}
}

// GenerateCode returns the zero-padded numeric code for the current time step.
func (t *TOTPManager) GenerateCode() (string, error) {
	return t.GenerateCodeAt(time.Now())
}

func (t *TOTPManager) GenerateCodeAt(at time.Time) (string, error) {
	return totp.GenerateCodeCustom(t.secret, at, totp.ValidateOpts{
		Period:    30,
		Digits:    otp.Digits(t.digits),
		Algorithm: otp.AlgorithmSHA1,
	})
}

func (t *TOTPManager) Digits() int {
	return t.digits
}
