package utils

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Password hashing functions
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// NormalizeEmail lowercases and trims an email address. Applied on every
// lookup and write so uniqueness is case and whitespace insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GetAvatarURL builds the generated avatar URL for a display name.
func GetAvatarURL(name string) string {
	return fmt.Sprintf("https://ui-avatars.com/api/?name=%s?background=random", url.QueryEscape(name))
}

// GetPortalURL appends a path to the configured frontend portal URL.
func GetPortalURL(portalURL, path string) string {
	return portalURL + path
}
