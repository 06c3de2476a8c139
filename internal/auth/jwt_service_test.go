package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, clock func() time.Time) *JWTService {
	t.Helper()

	svc, err := NewJWTService(JWTConfig{
		Secret: "test-secret",
		Issuer: "lexdraft-test",
		Clock:  clock,
	})
	require.NoError(t, err)
	return svc
}

func TestJWTServiceRoundTrip(t *testing.T) {
	svc := newTestService(t, nil)

	token, err := svc.GenerateAccessToken(TokenInput{
		UserID: "user-1",
		Email:  "ada@firm.test",
		Name:   "Ada Marsh",
		Role:   "attorney",
	})
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "ada@firm.test", claims.Email)
	require.Equal(t, "Ada Marsh", claims.Name)
	require.Equal(t, "attorney", claims.Role)
}

func TestJWTServiceRejectsWrongTokenType(t *testing.T) {
	svc := newTestService(t, nil)

	refresh, err := svc.GenerateRefreshToken(TokenInput{UserID: "user-1"})
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(refresh)
	require.Error(t, err)

	claims, err := svc.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
}

func TestJWTServiceRejectsExpiredToken(t *testing.T) {
	current := time.Now()
	svc := newTestService(t, func() time.Time { return current })

	token, err := svc.GenerateAccessToken(TokenInput{UserID: "user-1"})
	require.NoError(t, err)

	current = current.Add(DefaultAccessTokenTTL + time.Minute)
	_, err = svc.ValidateAccessToken(token)
	require.Error(t, err)
}

func TestJWTServiceRejectsWrongIssuer(t *testing.T) {
	svc := newTestService(t, nil)

	other, err := NewJWTService(JWTConfig{Secret: "test-secret", Issuer: "someone-else"})
	require.NoError(t, err)

	token, err := other.GenerateAccessToken(TokenInput{UserID: "user-1"})
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	require.Error(t, err)
}

func TestNewJWTServiceRequiresSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	require.Error(t, err)
}
