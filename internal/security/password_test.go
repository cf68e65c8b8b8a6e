package security

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("longenough1")
	require.NoError(t, err)
	require.NotEqual(t, "longenough1", hash)

	require.True(t, VerifyPassword("longenough1", hash))
	require.False(t, VerifyPassword("longenough2", hash))
}

func TestHashPasswordSalted(t *testing.T) {
	first, err := HashPassword("same password")
	require.NoError(t, err)
	second, err := HashPassword("same password")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.True(t, VerifyPassword("same password", first))
	require.True(t, VerifyPassword("same password", second))
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	require.False(t, VerifyPassword("whatever", ""))
	require.False(t, VerifyPassword("whatever", "not-a-bcrypt-hash"))
}
