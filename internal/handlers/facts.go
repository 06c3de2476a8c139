package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lcraddock/lexdraft/internal/middleware"
	"github.com/lcraddock/lexdraft/internal/models"
	"github.com/lcraddock/lexdraft/internal/services"
	"github.com/lcraddock/lexdraft/pkg/response"
)

// FactHandler runs the extract-then-review workflow.
type FactHandler struct {
	facts *services.FactService
}

func NewFactHandler(facts *services.FactService) *FactHandler {
	return &FactHandler{facts: facts}
}

type extractFactsRequest struct {
	PDFID string `json:"pdf_id" validate:"required,uuid4"`
}

type reviewFactRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject edit"`
	Text   string `json:"text" validate:"omitempty,max=8192"`
}

// POST /api/documents/:id/facts/extract
func (h *FactHandler) Extract(c *gin.Context) {
	var req extractFactsRequest
	if !bindAndValidate(c, &req) {
		return
	}

	userID := c.GetString(middleware.CtxUserIDKey)
	facts, err := h.facts.Extract(requestContext(c), c.Param("id"), userID, req.PDFID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"facts": facts})
}

// GET /api/documents/:id/facts
func (h *FactHandler) List(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	status := models.FactStatus(strings.TrimSpace(c.Query("status")))

	facts, err := h.facts.List(requestContext(c), c.Param("id"), userID, status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"facts": facts})
}

// POST /api/facts/:id/review
func (h *FactHandler) Review(c *gin.Context) {
	var req reviewFactRequest
	if !bindAndValidate(c, &req) {
		return
	}

	userID := c.GetString(middleware.CtxUserIDKey)
	fact, err := h.facts.Review(requestContext(c), c.Param("id"), userID, services.ReviewFactInput{
		Action: services.FactReviewAction(req.Action),
		Text:   req.Text,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"fact": fact})
}

// DELETE /api/facts/:id
func (h *FactHandler) Delete(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)

	if err := h.facts.Delete(requestContext(c), c.Param("id"), userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
