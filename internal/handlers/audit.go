package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lcraddock/lexdraft/internal/services"
	"github.com/lcraddock/lexdraft/pkg/response"
)

// AuditHandler exposes the firm's activity trail.
type AuditHandler struct {
	audit *services.AuditService
}

func NewAuditHandler(audit *services.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// GET /api/audit
func (h *AuditHandler) List(c *gin.Context) {
	opts := services.AuditListOptions{
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "page_size", 50),
		Filters: services.AuditFilters{
			UserID: strings.TrimSpace(c.Query("user_id")),
			Action: strings.TrimSpace(c.Query("action")),
			Result: strings.TrimSpace(c.Query("result")),
		},
	}
	if since := parseTimeQuery(c, "since"); since != nil {
		opts.Filters.Since = since
	}
	if until := parseTimeQuery(c, "until"); until != nil {
		opts.Filters.Until = until
	}

	entries, total, err := h.audit.List(requestContext(c), opts)
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
	response.SuccessWithMeta(c, http.StatusOK, gin.H{"entries": entries}, meta)
}

// GET /api/documents/:id/audit
func (h *AuditHandler) ListForDocument(c *gin.Context) {
	opts := services.AuditListOptions{
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "page_size", 50),
	}

	entries, total, err := h.audit.ListForDocument(requestContext(c), c.Param("id"), opts)
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
	response.SuccessWithMeta(c, http.StatusOK, gin.H{"entries": entries}, meta)
}

func parseTimeQuery(c *gin.Context, key string) *time.Time {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &parsed
}
