package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lcraddock/lexdraft/internal/models"
	apperrors "github.com/lcraddock/lexdraft/pkg/errors"
)

// TemplateInput describes the payload for creating or updating a template.
type TemplateInput struct {
	Name        string
	Description string
	Structure   datatypes.JSON
}

// TemplateService manages the firm's shared letter templates. Templates are
// firm-wide, so any authenticated member may read them; only attorneys may
// change them.
type TemplateService struct {
	db *gorm.DB
}

// NewTemplateService constructs a TemplateService instance.
func NewTemplateService(db *gorm.DB) (*TemplateService, error) {
	if db == nil {
		return nil, errors.New("template service: db is required")
	}
	return &TemplateService{db: db}, nil
}

// Create registers a new template.
func (s *TemplateService) Create(ctx context.Context, creatorID string, input TemplateInput) (*models.Template, error) {
	ctx = ensureContext(ctx)

	creatorID = normaliseID(creatorID)
	if creatorID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.NewBadRequest("name is required")
	}

	template := &models.Template{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Structure:   input.Structure,
		CreatedByID: creatorID,
	}

	if err := s.db.WithContext(ctx).Create(template).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewConflict("A template with that name already exists")
		}
		return nil, fmt.Errorf("template service: create template: %w", err)
	}

	return template, nil
}

// Get fetches a template by id.
func (s *TemplateService) Get(ctx context.Context, id string) (*models.Template, error) {
	ctx = ensureContext(ctx)

	id = normaliseID(id)
	if id == "" {
		return nil, apperrors.NewBadRequest("template id is required")
	}

	var template models.Template
	if err := s.db.WithContext(ctx).Preload("CreatedBy").First(&template, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("Template not found")
		}
		return nil, fmt.Errorf("template service: load template: %w", err)
	}
	return &template, nil
}

// List returns all templates ordered by name.
func (s *TemplateService) List(ctx context.Context) ([]models.Template, error) {
	ctx = ensureContext(ctx)

	var templates []models.Template
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("template service: list templates: %w", err)
	}
	return templates, nil
}

// Update applies partial changes to a template.
func (s *TemplateService) Update(ctx context.Context, id string, input TemplateInput) (*models.Template, error) {
	ctx = ensureContext(ctx)

	template, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		template.Name = name
	}
	if desc := strings.TrimSpace(input.Description); desc != "" {
		template.Description = desc
	}
	if input.Structure != nil {
		template.Structure = input.Structure
	}

	if err := s.db.WithContext(ctx).Save(template).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewConflict("A template with that name already exists")
		}
		return nil, fmt.Errorf("template service: update template: %w", err)
	}
	return template, nil
}

// Delete removes a template. Documents created from it are detached rather
// than deleted; generated letters outlive the template they started from.
func (s *TemplateService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	template, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Document{}).
			Where("template_id = ?", template.ID).
			Update("template_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Template{}, "id = ?", template.ID).Error
	})
	if err != nil {
		return fmt.Errorf("template service: delete template: %w", err)
	}
	return nil
}
