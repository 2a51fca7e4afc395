package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestVerifyPassword_Plain(t *testing.T) {
	assert.True(t, VerifyPassword("1234", "1234"))
	assert.False(t, VerifyPassword("1234", "12345"))
	assert.False(t, VerifyPassword("1234", ""))
}

func TestVerifyPassword_Bcrypt(t *testing.T) {
	hash, err := HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, VerifyPassword(hash, "s3cret"))
	assert.False(t, VerifyPassword(hash, "wrong"))
	assert.False(t, VerifyPassword(hash, hash), "a bcrypt secret is never compared literally")
}

func TestIsHashed(t *testing.T) {
	hash, err := HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, IsHashed(hash))
	assert.False(t, IsHashed("s3cret"))
	assert.False(t, IsHashed("$2a$short"))
}
