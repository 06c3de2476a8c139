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

// CreateDocumentInput describes the payload for creating a document.
type CreateDocumentInput struct {
	Title      string
	Content    datatypes.JSON
	TemplateID *string
}

// UpdateDocumentInput enumerates mutable document attributes. Nil fields are
// left untouched.
type UpdateDocumentInput struct {
	Title   *string
	Status  *models.DocumentStatus
	Content datatypes.JSON
}

// ListDocumentsOptions controls pagination for document listing.
type ListDocumentsOptions struct {
	Page     int
	PageSize int
	Status   models.DocumentStatus
}

// DocumentService manages the demand-letter lifecycle. Access control is
// delegated to the collaborator service on every read and mutation.
type DocumentService struct {
	db            *gorm.DB
	collaborators *CollaboratorService
	audit         *AuditService
}

// NewDocumentService constructs a DocumentService instance.
func NewDocumentService(db *gorm.DB, collaborators *CollaboratorService, audit *AuditService) (*DocumentService, error) {
	if db == nil {
		return nil, errors.New("document service: db is required")
	}
	if collaborators == nil {
		return nil, errors.New("document service: collaborator service is required")
	}
	return &DocumentService{db: db, collaborators: collaborators, audit: audit}, nil
}

// Create persists a new document owned by creatorID.
func (s *DocumentService) Create(ctx context.Context, creatorID string, input CreateDocumentInput) (*models.Document, error) {
	ctx = ensureContext(ctx)

	creatorID = normaliseID(creatorID)
	if creatorID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}

	if input.TemplateID != nil {
		templateID := normaliseID(*input.TemplateID)
		if templateID == "" {
			input.TemplateID = nil
		} else {
			var template models.Template
			if err := s.db.WithContext(ctx).First(&template, "id = ?", templateID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, apperrors.ErrNotFound.WithMessage("Template not found")
				}
				return nil, fmt.Errorf("document service: load template: %w", err)
			}
			input.TemplateID = &templateID
		}
	}

	doc := &models.Document{
		Title:       strings.TrimSpace(input.Title),
		Status:      models.DocumentStatusDraft,
		Content:     input.Content,
		CreatedByID: creatorID,
		TemplateID:  input.TemplateID,
	}

	if err := s.db.WithContext(ctx).Create(doc).Error; err != nil {
		return nil, fmt.Errorf("document service: create document: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		UserID:     &creatorID,
		DocumentID: &doc.ID,
		Action:     AuditActionCreatedDocument,
		Result:     AuditResultSuccess,
		Metadata:   map[string]any{"title": doc.Title},
	})

	return doc, nil
}

// Get returns a document the requester has access to, preloading its creator.
func (s *DocumentService) Get(ctx context.Context, documentID, requesterID string) (*models.Document, error) {
	ctx = ensureContext(ctx)

	if err := s.collaborators.RequireAccess(ctx, documentID, requesterID, models.PermissionNone); err != nil {
		return nil, err
	}

	var doc models.Document
	if err := s.db.WithContext(ctx).
		Preload("CreatedBy").
		Preload("Template").
		First(&doc, "id = ?", normaliseID(documentID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("Document not found")
		}
		return nil, fmt.Errorf("document service: load document: %w", err)
	}

	return &doc, nil
}

// List returns the documents the user owns or collaborates on, newest first.
func (s *DocumentService) List(ctx context.Context, userID string, opts ListDocumentsOptions) ([]models.Document, int64, error) {
	ctx = ensureContext(ctx)

	userID = normaliseID(userID)
	if userID == "" {
		return nil, 0, apperrors.ErrUnauthorized
	}

	page := opts.Page
	if page <= 0 {
		page = 1
	}
	perPage := opts.PageSize
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}

	memberDocs := s.db.
		Model(&models.DocumentCollaborator{}).
		Select("document_id").
		Where("user_id = ? AND status = ?", userID, models.InvitationAccepted)

	query := s.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("created_by_id = ? OR id IN (?)", userID, memberDocs)
	if opts.Status != "" {
		query = query.Where("status = ?", opts.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("document service: count documents: %w", err)
	}

	var docs []models.Document
	if err := query.
		Preload("CreatedBy").
		Order("updated_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&docs).Error; err != nil {
		return nil, 0, fmt.Errorf("document service: list documents: %w", err)
	}

	return docs, total, nil
}

// Update applies partial changes. Requires editor access; the permission
// check runs before any field validation so callers learn about access
// problems first.
func (s *DocumentService) Update(ctx context.Context, documentID, requesterID string, input UpdateDocumentInput) (*models.Document, error) {
	ctx = ensureContext(ctx)

	if err := s.collaborators.RequireAccess(ctx, documentID, requesterID, models.PermissionEditor); err != nil {
		return nil, err
	}

	var doc models.Document
	if err := s.db.WithContext(ctx).First(&doc, "id = ?", normaliseID(documentID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("Document not found")
		}
		return nil, fmt.Errorf("document service: load document: %w", err)
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewBadRequest("title cannot be empty")
		}
		doc.Title = title
	}
	if input.Status != nil {
		doc.Status = *input.Status
	}
	if input.Content != nil {
		doc.Content = input.Content
	}

	if err := s.db.WithContext(ctx).Save(&doc).Error; err != nil {
		return nil, fmt.Errorf("document service: update document: %w", err)
	}

	requester := normaliseID(requesterID)
	recordAudit(s.audit, ctx, AuditEntry{
		UserID:     &requester,
		DocumentID: &doc.ID,
		Action:     AuditActionUpdatedDocument,
		Result:     AuditResultSuccess,
	})

	return &doc, nil
}

// Delete removes a document and its dependent records. Owner only.
func (s *DocumentService) Delete(ctx context.Context, documentID, requesterID string) error {
	ctx = ensureContext(ctx)

	if err := s.collaborators.RequireAccess(ctx, documentID, requesterID, models.PermissionOwner); err != nil {
		return err
	}

	documentID = normaliseID(documentID)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, dependent := range []any{
			&models.DocumentCollaborator{},
			&models.PDF{},
			&models.Fact{},
			&models.DocumentVersion{},
		} {
			if err := tx.Where("document_id = ?", documentID).Delete(dependent).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Document{}, "id = ?", documentID).Error
	})
	if err != nil {
		return fmt.Errorf("document service: delete document: %w", err)
	}

	requester := normaliseID(requesterID)
	recordAudit(s.audit, ctx, AuditEntry{
		UserID:     &requester,
		DocumentID: &documentID,
		Action:     AuditActionDeletedDocument,
		Result:     AuditResultSuccess,
	})

	return nil
}
