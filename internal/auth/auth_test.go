package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pw")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pw", hash)

	assert.True(t, CheckPassword(hash, "s3cret-pw"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestTokens_MintVerifyRoundtrip(t *testing.T) {
	tokens := NewTokens("test-secret")

	raw, err := tokens.Mint("user-42")
	require.NoError(t, err)

	id, err := tokens.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-42", id)
}

func TestTokens_RejectsWrongSecret(t *testing.T) {
	raw, err := NewTokens("secret-a").Mint("user-42")
	require.NoError(t, err)

	_, err = NewTokens("secret-b").Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_RejectsExpired(t *testing.T) {
	expired := &Tokens{secret: []byte("test-secret"), ttl: -time.Minute}
	raw, err := expired.Mint("user-42")
	require.NoError(t, err)

	_, err = NewTokens("test-secret").Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_RejectsGarbage(t *testing.T) {
	_, err := NewTokens("test-secret").Verify("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
