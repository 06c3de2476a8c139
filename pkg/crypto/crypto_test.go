package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse battery staple", hash)

	require.True(t, VerifyPassword(hash, "correct horse battery staple"))
	require.False(t, VerifyPassword(hash, "wrong password"))
}

func TestGenerateTokenLengthAndUniqueness(t *testing.T) {
	a, err := GenerateToken(32)
	require.NoError(t, err)
	b, err := GenerateToken(32)
	require.NoError(t, err)

	require.NotEmpty(t, a)
	require.NotEqual(t, a, b)
}
