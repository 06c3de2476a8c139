package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lcraddock/lexdraft/internal/auth"
	"github.com/lcraddock/lexdraft/internal/database/testutil"
	"github.com/lcraddock/lexdraft/internal/models"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	jwtService, err := auth.NewJWTService(auth.JWTConfig{Secret: "test-secret", Issuer: "lexdraft-test"})
	require.NoError(t, err)

	svc, err := NewAuthService(db, jwtService, nil)
	require.NoError(t, err)
	return svc
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	svc := newTestAuthService(t)

	user, err := svc.Register(context.Background(), RegisterInput{
		Email:     "Alice@Example.com",
		Password:  "correct-horse",
		FirstName: "Alice",
		LastName:  "Attorney",
		Role:      models.RoleAttorney,
	})
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", user.Email)
	require.NotEqual(t, "correct-horse", user.Password)

	// Duplicate registration conflicts.
	_, err = svc.Register(context.Background(), RegisterInput{
		Email:    "alice@example.com",
		Password: "another-pass",
	})
	requireStatusCode(t, err, http.StatusConflict)

	loggedIn, pair, err := svc.Login(context.Background(), "alice@example.com", "correct-horse")
	require.NoError(t, err)
	require.Equal(t, user.ID, loggedIn.ID)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	_, _, err = svc.Login(context.Background(), "alice@example.com", "wrong-pass")
	requireStatusCode(t, err, http.StatusUnauthorized)

	_, _, err = svc.Login(context.Background(), "nobody@example.com", "whatever")
	requireStatusCode(t, err, http.StatusUnauthorized)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.Register(context.Background(), RegisterInput{Email: "", Password: "long-enough"})
	requireStatusCode(t, err, http.StatusBadRequest)

	_, err = svc.Register(context.Background(), RegisterInput{Email: "bob@example.com", Password: "short"})
	requireStatusCode(t, err, http.StatusBadRequest)
}

func TestAuthService_Refresh(t *testing.T) {
	svc := newTestAuthService(t)

	user, err := svc.Register(context.Background(), RegisterInput{
		Email:    "bob@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	_, pair, err := svc.Login(context.Background(), user.Email, "correct-horse")
	require.NoError(t, err)

	refreshed, next, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, refreshed.ID)
	require.NotEmpty(t, next.AccessToken)

	// Access tokens are not accepted for refresh.
	_, _, err = svc.Refresh(context.Background(), pair.AccessToken)
	requireStatusCode(t, err, http.StatusUnauthorized)

	_, _, err = svc.Refresh(context.Background(), "garbage")
	requireStatusCode(t, err, http.StatusUnauthorized)
}
