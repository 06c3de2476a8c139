package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	iauth "github.com/lcraddock/lexdraft/internal/auth"
	"github.com/lcraddock/lexdraft/internal/realtime"
)

func TestRealtimeHandlerUnauthorizedWithoutToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	hub := realtime.NewHub(nil)
	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "test-secret"})
	require.NoError(t, err)

	handler := NewRealtimeHandler(hub, jwtSvc)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/ws", nil)

	handler.Stream(c)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRealtimeHandlerRejectsInvalidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	hub := realtime.NewHub(nil)
	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "test-secret"})
	require.NoError(t, err)

	handler := NewRealtimeHandler(hub, jwtSvc)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/ws?token=not-a-token", nil)

	handler.Stream(c)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
