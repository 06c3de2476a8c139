package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/lcraddock/lexdraft/internal/models"
	"github.com/lcraddock/lexdraft/internal/services"
	"github.com/lcraddock/lexdraft/pkg/errors"
	"github.com/lcraddock/lexdraft/pkg/response"
)

// RequireDocumentAccess guards document-scoped routes. The route must carry
// the document ID in the :id parameter and run after Auth. Owners pass every
// gate; collaborators pass when their accepted grant meets the minimum.
func RequireDocumentAccess(collaborators *services.CollaboratorService, minimum models.DocumentPermission) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(CtxUserIDKey)
		if userID == "" {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		documentID := c.Param("id")
		if err := collaborators.RequireAccess(c.Request.Context(), documentID, userID, minimum); err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Next()
	}
}
