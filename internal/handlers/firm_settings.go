package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lcraddock/lexdraft/internal/middleware"
	"github.com/lcraddock/lexdraft/internal/services"
	"github.com/lcraddock/lexdraft/pkg/response"
)

// FirmSettingsHandler reads and updates the firm profile used in letterheads.
type FirmSettingsHandler struct {
	settings *services.FirmSettingsService
}

func NewFirmSettingsHandler(settings *services.FirmSettingsService) *FirmSettingsHandler {
	return &FirmSettingsHandler{settings: settings}
}

type updateFirmSettingsRequest struct {
	FirmName *string `json:"firm_name" validate:"omitempty,max=256"`
	Address  *string `json:"address" validate:"omitempty,max=512"`
	City     *string `json:"city" validate:"omitempty,max=128"`
	State    *string `json:"state" validate:"omitempty,max=64"`
	ZipCode  *string `json:"zip_code" validate:"omitempty,max=16"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
	Email    *string `json:"email" validate:"omitempty,email"`
}

// GET /api/settings
func (h *FirmSettingsHandler) Get(c *gin.Context) {
	settings, err := h.settings.Get(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"settings": settings})
}

// PATCH /api/settings
func (h *FirmSettingsHandler) Update(c *gin.Context) {
	var req updateFirmSettingsRequest
	if !bindAndValidate(c, &req) {
		return
	}

	userID := c.GetString(middleware.CtxUserIDKey)
	settings, err := h.settings.Update(requestContext(c), userID, services.FirmSettingsInput{
		FirmName: req.FirmName,
		Address:  req.Address,
		City:     req.City,
		State:    req.State,
		ZipCode:  req.ZipCode,
		Phone:    req.Phone,
		Email:    req.Email,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"settings": settings})
}
