package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/lcraddock/lexdraft/internal/middleware"
	"github.com/lcraddock/lexdraft/internal/models"
	"github.com/lcraddock/lexdraft/internal/services"
	"github.com/lcraddock/lexdraft/pkg/response"
)

// DocumentHandler exposes the demand-letter CRUD surface.
type DocumentHandler struct {
	documents *services.DocumentService
}

func NewDocumentHandler(documents *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

type createDocumentRequest struct {
	Title      string          `json:"title" validate:"required,max=512"`
	Content    json.RawMessage `json:"content"`
	TemplateID *string         `json:"template_id" validate:"omitempty,uuid4"`
}

type updateDocumentRequest struct {
	Title   *string         `json:"title" validate:"omitempty,max=512"`
	Status  *string         `json:"status" validate:"omitempty,oneof=draft in_review final"`
	Content json.RawMessage `json:"content"`
}

// POST /api/documents
func (h *DocumentHandler) Create(c *gin.Context) {
	var req createDocumentRequest
	if !bindAndValidate(c, &req) {
		return
	}

	userID := c.GetString(middleware.CtxUserIDKey)
	doc, err := h.documents.Create(requestContext(c), userID, services.CreateDocumentInput{
		Title:      req.Title,
		Content:    datatypes.JSON(req.Content),
		TemplateID: req.TemplateID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"document": doc})
}

// GET /api/documents
func (h *DocumentHandler) List(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)

	opts := services.ListDocumentsOptions{
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "page_size", 20),
		Status:   models.DocumentStatus(strings.TrimSpace(c.Query("status"))),
	}

	docs, total, err := h.documents.List(requestContext(c), userID, opts)
	if err != nil {
		response.Error(c, err)
		return
	}

	meta := &response.Meta{
		Page:       opts.Page,
		PerPage:    opts.PageSize,
		Total:      int(total),
		TotalPages: totalPages(int(total), opts.PageSize),
	}
	response.SuccessWithMeta(c, http.StatusOK, gin.H{"documents": docs}, meta)
}

// GET /api/documents/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)

	doc, err := h.documents.Get(requestContext(c), c.Param("id"), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"document": doc})
}

// PATCH /api/documents/:id
func (h *DocumentHandler) Update(c *gin.Context) {
	var req updateDocumentRequest
	if !bindAndValidate(c, &req) {
		return
	}

	input := services.UpdateDocumentInput{
		Title:   req.Title,
		Content: datatypes.JSON(req.Content),
	}
	if req.Status != nil {
		status := models.DocumentStatus(*req.Status)
		input.Status = &status
	}

	userID := c.GetString(middleware.CtxUserIDKey)
	doc, err := h.documents.Update(requestContext(c), c.Param("id"), userID, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"document": doc})
}

// DELETE /api/documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)

	if err := h.documents.Delete(requestContext(c), c.Param("id"), userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func totalPages(total, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	pages := total / pageSize
	if total%pageSize != 0 {
		pages++
	}
	return pages
}
