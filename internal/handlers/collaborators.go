package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lcraddock/lexdraft/internal/middleware"
	"github.com/lcraddock/lexdraft/internal/models"
	"github.com/lcraddock/lexdraft/internal/services"
	"github.com/lcraddock/lexdraft/pkg/response"
)

// CollaboratorHandler exposes invitations and document sharing.
type CollaboratorHandler struct {
	collaborators *services.CollaboratorService
}

func NewCollaboratorHandler(collaborators *services.CollaboratorService) *CollaboratorHandler {
	return &CollaboratorHandler{collaborators: collaborators}
}

type inviteRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Permission string `json:"permission" validate:"required,oneof=owner editor viewer"`
}

type respondRequest struct {
	Accept *bool `json:"accept" validate:"required"`
}

type updatePermissionRequest struct {
	Permission string `json:"permission" validate:"required,oneof=owner editor viewer"`
}

// POST /api/documents/:id/collaborators
func (h *CollaboratorHandler) Invite(c *gin.Context) {
	var req inviteRequest
	if !bindAndValidate(c, &req) {
		return
	}

	userID := c.GetString(middleware.CtxUserIDKey)
	record, err := h.collaborators.Invite(requestContext(c), c.Param("id"), userID, services.InviteInput{
		Email:      req.Email,
		Permission: models.DocumentPermission(req.Permission),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"collaborator": record})
}

// GET /api/documents/:id/collaborators
func (h *CollaboratorHandler) List(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)

	records, err := h.collaborators.ListCollaborators(requestContext(c), c.Param("id"), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"collaborators": records})
}

// GET /api/invitations
func (h *CollaboratorHandler) Pending(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)

	records, err := h.collaborators.PendingInvitations(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"invitations": records})
}

// POST /api/invitations/:id/respond
func (h *CollaboratorHandler) Respond(c *gin.Context) {
	var req respondRequest
	if !bindAndValidate(c, &req) {
		return
	}

	userID := c.GetString(middleware.CtxUserIDKey)
	record, err := h.collaborators.Respond(requestContext(c), c.Param("id"), userID, *req.Accept)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"collaborator": record})
}

// PATCH /api/collaborators/:id
func (h *CollaboratorHandler) UpdatePermission(c *gin.Context) {
	var req updatePermissionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	userID := c.GetString(middleware.CtxUserIDKey)
	record, err := h.collaborators.UpdatePermission(requestContext(c), c.Param("id"), userID, models.DocumentPermission(req.Permission))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"collaborator": record})
}

// DELETE /api/collaborators/:id
func (h *CollaboratorHandler) Remove(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)

	if err := h.collaborators.Remove(requestContext(c), c.Param("id"), userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"removed": true})
}
