package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/lcraddock/lexdraft/internal/middleware"
	"github.com/lcraddock/lexdraft/internal/services"
	"github.com/lcraddock/lexdraft/pkg/response"
)

// TemplateHandler manages the firm's shared letter templates.
type TemplateHandler struct {
	templates *services.TemplateService
}

func NewTemplateHandler(templates *services.TemplateService) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

type templateRequest struct {
	Name        string          `json:"name" validate:"required,max=256"`
	Description string          `json:"description" validate:"omitempty,max=1024"`
	Structure   json.RawMessage `json:"structure"`
}

// POST /api/templates
func (h *TemplateHandler) Create(c *gin.Context) {
	var req templateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	userID := c.GetString(middleware.CtxUserIDKey)
	template, err := h.templates.Create(requestContext(c), userID, services.TemplateInput{
		Name:        req.Name,
		Description: req.Description,
		Structure:   datatypes.JSON(req.Structure),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"template": template})
}

// GET /api/templates
func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.templates.List(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"templates": templates})
}

// GET /api/templates/:id
func (h *TemplateHandler) Get(c *gin.Context) {
	template, err := h.templates.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"template": template})
}

// PUT /api/templates/:id
func (h *TemplateHandler) Update(c *gin.Context) {
	var req templateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	template, err := h.templates.Update(requestContext(c), c.Param("id"), services.TemplateInput{
		Name:        req.Name,
		Description: req.Description,
		Structure:   datatypes.JSON(req.Structure),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"template": template})
}

// DELETE /api/templates/:id
func (h *TemplateHandler) Delete(c *gin.Context) {
	if err := h.templates.Delete(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
