package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lcraddock/lexdraft/internal/middleware"
	"github.com/lcraddock/lexdraft/internal/services"
	"github.com/lcraddock/lexdraft/pkg/response"
)

// VersionHandler exposes document snapshots and restore.
type VersionHandler struct {
	versions *services.VersionService
}

func NewVersionHandler(versions *services.VersionService) *VersionHandler {
	return &VersionHandler{versions: versions}
}

type snapshotRequest struct {
	Note string `json:"note" validate:"omitempty,max=512"`
}

// POST /api/documents/:id/versions
func (h *VersionHandler) Snapshot(c *gin.Context) {
	var req snapshotRequest
	if !bindAndValidate(c, &req) {
		return
	}

	userID := c.GetString(middleware.CtxUserIDKey)
	version, err := h.versions.Snapshot(requestContext(c), c.Param("id"), userID, req.Note)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"version": version})
}

// GET /api/documents/:id/versions
func (h *VersionHandler) List(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)

	versions, err := h.versions.List(requestContext(c), c.Param("id"), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"versions": versions})
}

// GET /api/documents/:id/versions/:versionID
func (h *VersionHandler) Get(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)

	version, err := h.versions.Get(requestContext(c), c.Param("id"), c.Param("versionID"), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"version": version})
}

// DELETE /api/documents/:id/versions/:versionID
func (h *VersionHandler) Delete(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)

	if err := h.versions.Delete(requestContext(c), c.Param("id"), c.Param("versionID"), userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// POST /api/documents/:id/versions/:versionID/restore
func (h *VersionHandler) Restore(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)

	doc, err := h.versions.Restore(requestContext(c), c.Param("id"), c.Param("versionID"), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"document": doc})
}
