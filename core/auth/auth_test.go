package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.True(t, CheckPasswordHash("s3cret", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestTokenRoundTrip(t *testing.T) {
	InitJWT("test-secret")

	token, err := GenerateToken(42, "ali", "ali@example.com")
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "ali", claims.Username)
	assert.Equal(t, "ali@example.com", claims.Email)
}

func TestParseRejectsTampering(t *testing.T) {
	InitJWT("test-secret")

	token, err := GenerateToken(42, "ali", "ali@example.com")
	require.NoError(t, err)

	_, err = ParseToken(token + "x")
	assert.Error(t, err)

	_, err = ParseToken("not-a-token")
	assert.Error(t, err)
}
