package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/lcraddock/lexdraft/internal/models"
	apperrors "github.com/lcraddock/lexdraft/pkg/errors"
)

// FirmSettingsInput enumerates the mutable letterhead fields. Nil fields are
// left untouched.
type FirmSettingsInput struct {
	FirmName *string
	Address  *string
	City     *string
	State    *string
	ZipCode  *string
	Phone    *string
	Email    *string
}

// FirmSettingsService reads and updates the firm's singleton settings row.
type FirmSettingsService struct {
	db    *gorm.DB
	audit *AuditService
}

// NewFirmSettingsService constructs a FirmSettingsService instance.
func NewFirmSettingsService(db *gorm.DB, audit *AuditService) (*FirmSettingsService, error) {
	if db == nil {
		return nil, errors.New("firm settings service: db is required")
	}
	return &FirmSettingsService{db: db, audit: audit}, nil
}

// Get returns the firm settings row seeded at migration time.
func (s *FirmSettingsService) Get(ctx context.Context) (*models.FirmSettings, error) {
	ctx = ensureContext(ctx)

	var settings models.FirmSettings
	if err := s.db.WithContext(ctx).First(&settings, "id = ?", models.FirmSettingsID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("Firm settings have not been initialised")
		}
		return nil, fmt.Errorf("firm settings service: load settings: %w", err)
	}
	return &settings, nil
}

// Update applies partial changes to the letterhead.
func (s *FirmSettingsService) Update(ctx context.Context, requesterID string, input FirmSettingsInput) (*models.FirmSettings, error) {
	ctx = ensureContext(ctx)

	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	if input.FirmName != nil {
		name := strings.TrimSpace(*input.FirmName)
		if name == "" {
			return nil, apperrors.NewBadRequest("firm name cannot be empty")
		}
		settings.FirmName = name
	}
	assign := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	assign(&settings.Address, input.Address)
	assign(&settings.City, input.City)
	assign(&settings.State, input.State)
	assign(&settings.ZipCode, input.ZipCode)
	assign(&settings.Phone, input.Phone)
	assign(&settings.Email, input.Email)

	if err := s.db.WithContext(ctx).Save(settings).Error; err != nil {
		return nil, fmt.Errorf("firm settings service: save settings: %w", err)
	}

	requester := normaliseID(requesterID)
	recordAudit(s.audit, ctx, AuditEntry{
		UserID: &requester,
		Action: AuditActionUpdatedSettings,
		Result: AuditResultSuccess,
	})

	return settings, nil
}
