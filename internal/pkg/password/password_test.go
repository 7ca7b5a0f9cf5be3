package password

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("s3cret-pass")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-pass", hash)

	require.True(t, Verify("s3cret-pass", hash))
	require.False(t, Verify("wrong-pass", hash))
	require.False(t, Verify("s3cret-pass", "not-a-bcrypt-hash"))
}

func TestHashToken(t *testing.T) {
	h1 := HashToken("refresh-token-value")
	h2 := HashToken("refresh-token-value")
	h3 := HashToken("another-token")

	require.Equal(t, h1, h2)
	require.NotEqual(t, h1, h3)
	require.Len(t, h1, 64) // hex-encoded sha256
}

func TestValidatePassword(t *testing.T) {
	require.True(t, ValidatePassword("12345678"))
	require.False(t, ValidatePassword("1234567"))
	require.False(t, ValidatePassword(""))
}
