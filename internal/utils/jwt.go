package utils

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTypeReset marks single-purpose password reset tokens.
const TokenTypeReset = "reset"

// JWTClaims is the claim bundle carried by every token: the subject (user ID),
// an opaque data bag, and an optional type discriminator.
type JWTClaims struct {
	Data map[string]any `json:"data,omitempty"`
	Type string         `json:"type,omitempty"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	privateKey      *rsa.PrivateKey
	publicKey       *rsa.PublicKey
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

func NewJWTManager(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, accessTokenTTLMinutes, refreshTokenTTLMinutes int) *JWTManager {
	return &JWTManager{
		privateKey:      privateKey,
		publicKey:       publicKey,
		accessTokenTTL:  time.Duration(accessTokenTTLMinutes) * time.Minute,
		refreshTokenTTL: time.Duration(refreshTokenTTLMinutes) * time.Minute,
	}
}

// Sign encodes the subject and data bag with an absolute expiry of now+ttl.
func (j *JWTManager) Sign(subject string, data map[string]any, tokenType string, ttl time.Duration) (string, error) {
	claims := &JWTClaims{
		Data: data,
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(j.privateKey)
}

func (j *JWTManager) GenerateAccessToken(subject string, data map[string]any) (string, error) {
	return j.Sign(subject, data, "", j.accessTokenTTL)
}

func (j *JWTManager) GenerateRefreshToken(subject string, data map[string]any) (string, error) {
	return j.Sign(subject, data, "", j.refreshTokenTTL)
}

// GenerateResetToken mints a password reset token. Its lifetime matches the
// access token window; validity is purely signature+expiry based.
func (j *JWTManager) GenerateResetToken(subject string) (string, error) {
	return j.Sign(subject, nil, TokenTypeReset, j.accessTokenTTL)
}

// Verify checks the signature and expiry. Any failure (malformed token, bad
// signature, expired) comes back as an error; the payload is never trusted
// unless verification succeeded.
func (j *JWTManager) Verify(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.publicKey, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// ExpireToken re-signs the given token with its expiry forced into the past.
// Callers must only pass tokens that already passed verification; the claims
// are decoded without a signature check.
func (j *JWTManager) ExpireToken(tokenString string) (string, error) {
	claims := &JWTClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(tokenString, claims)
	if err != nil {
		return "", fmt.Errorf("failed to decode token: %w", err)
	}

	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-60 * time.Second))

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(j.privateKey)
}

func (j *JWTManager) GetAccessTokenTTL() time.Duration {
	return j.accessTokenTTL
}

func (j *JWTManager) GetRefreshTokenTTL() time.Duration {
	return j.refreshTokenTTL
}
