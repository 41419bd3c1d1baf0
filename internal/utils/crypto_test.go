package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse-battery")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "correct-horse-battery", hash)

	// Per-call salt means two hashes of the same password differ
	other, err := HashPassword("correct-horse-battery")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other)
}

func TestCheckPasswordHash(t *testing.T) {
	hash, err := HashPassword("correct-horse-battery")
	require.NoError(t, err)

	assert.True(t, CheckPasswordHash("correct-horse-battery", hash))
	assert.False(t, CheckPasswordHash("wrong-password", hash))
	assert.False(t, CheckPasswordHash("correct-horse-battery", "not-a-hash"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", NormalizeEmail("  User@Example.COM "))
	assert.Equal(t, "user@example.com", NormalizeEmail("user@example.com"))
}

func TestGetAvatarURL(t *testing.T) {
	url := GetAvatarURL("John Doe")
	assert.Contains(t, url, "ui-avatars.com")
	assert.Contains(t, url, "John+Doe")
}

func TestGetPortalURL(t *testing.T) {
	url := GetPortalURL("https://portal.example.com", "/auth/reset-password?reset_token=abc")
	assert.Equal(t, "https://portal.example.com/auth/reset-password?reset_token=abc", url)
}
