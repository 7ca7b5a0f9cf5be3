package jwt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testSecret        = "access-secret"
	testRefreshSecret = "refresh-secret"
)

func TestAccessToken_RoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(42, 7, "broker1", "BROKER", testSecret, 15)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateAccessToken(token, testSecret)
	require.NoError(t, err)
	require.Equal(t, uint(42), claims.UserID)
	require.Equal(t, uint(7), claims.PartyID)
	require.Equal(t, "broker1", claims.Username)
	require.Equal(t, "BROKER", claims.Role)
	require.Equal(t, "coverhub", claims.Issuer)
}

func TestAccessToken_WrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(42, 7, "broker1", "BROKER", testSecret, 15)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, "some-other-secret")
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAccessToken_Expired(t *testing.T) {
	token, err := GenerateAccessToken(42, 7, "broker1", "BROKER", testSecret, -1)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, testSecret)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestAccessToken_Garbage(t *testing.T) {
	_, err := ValidateAccessToken("not.a.token", testSecret)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRefreshToken_RoundTrip(t *testing.T) {
	token, err := GenerateRefreshToken(42, "token-id-1", testRefreshSecret, 7)
	require.NoError(t, err)

	claims, err := ValidateRefreshToken(token, testRefreshSecret)
	require.NoError(t, err)
	require.Equal(t, uint(42), claims.UserID)
	require.Equal(t, "token-id-1", claims.TokenID)
}

func TestRefreshToken_WrongSecret(t *testing.T) {
	token, err := GenerateRefreshToken(42, "token-id-1", testRefreshSecret, 7)
	require.NoError(t, err)

	_, err = ValidateRefreshToken(token, testSecret)
	require.ErrorIs(t, err, ErrTokenInvalid)
}
