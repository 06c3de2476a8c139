package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/lcraddock/lexdraft/internal/auth"
	"github.com/lcraddock/lexdraft/internal/realtime"
	"github.com/lcraddock/lexdraft/pkg/errors"
	"github.com/lcraddock/lexdraft/pkg/response"
)

// RealtimeHandler upgrades HTTP connections into authenticated presence sessions.
type RealtimeHandler struct {
	hub *realtime.Hub
	jwt *iauth.JWTService
}

func NewRealtimeHandler(hub *realtime.Hub, jwt *iauth.JWTService) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, jwt: jwt}
}

// Stream validates the caller and hands the connection to the presence hub.
// Browsers cannot set headers on WebSocket upgrades, so the token is accepted
// from the query string as well.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	if h.jwt == nil || h.hub == nil {
		response.Error(c, errors.ErrNotFound)
		return
	}

	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		token = strings.TrimSpace(c.Query("access_token"))
	}
	if token == "" {
		authz := c.GetHeader("Authorization")
		if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			token = strings.TrimSpace(authz[7:])
		}
	}

	if token == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	claims, err := h.jwt.ValidateAccessToken(token)
	if err != nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	userID := strings.TrimSpace(claims.UserID)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	name := strings.TrimSpace(claims.Name)
	if name == "" {
		name = claims.Email
	}

	h.hub.Serve(realtime.Identity{UserID: userID, UserName: name}, c.Writer, c.Request)
}
