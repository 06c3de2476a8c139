package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lcraddock/lexdraft/internal/middleware"
	"github.com/lcraddock/lexdraft/internal/services"
	"github.com/lcraddock/lexdraft/pkg/response"
)

// DraftHandler triggers letter generation from approved facts.
type DraftHandler struct {
	drafts *services.DraftService
}

func NewDraftHandler(drafts *services.DraftService) *DraftHandler {
	return &DraftHandler{drafts: drafts}
}

// POST /api/documents/:id/draft
func (h *DraftHandler) Generate(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)

	doc, err := h.drafts.Generate(requestContext(c), c.Param("id"), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"document": doc})
}
