package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lcraddock/lexdraft/internal/ai"
	"github.com/lcraddock/lexdraft/internal/models"
	apperrors "github.com/lcraddock/lexdraft/pkg/errors"
)

// DraftGenerator is the slice of the AI client used for letter generation.
type DraftGenerator interface {
	GenerateDraft(ctx context.Context, req ai.DraftRequest) (*ai.DraftResponse, error)
}

// DraftService composes demand letters from approved facts via the AI
// collaborator and writes the result back onto the document.
type DraftService struct {
	db            *gorm.DB
	collaborators *CollaboratorService
	audit         *AuditService
	generator     DraftGenerator
}

// NewDraftService constructs a DraftService instance.
func NewDraftService(db *gorm.DB, collaborators *CollaboratorService, audit *AuditService, generator DraftGenerator) (*DraftService, error) {
	if db == nil {
		return nil, errors.New("draft service: db is required")
	}
	if collaborators == nil {
		return nil, errors.New("draft service: collaborator service is required")
	}
	if generator == nil {
		return nil, errors.New("draft service: generator is required")
	}
	return &DraftService{db: db, collaborators: collaborators, audit: audit, generator: generator}, nil
}

// Generate builds a draft from the document's usable facts and stores it as
// the document content. Requires editor access.
func (s *DraftService) Generate(ctx context.Context, documentID, requesterID string) (*models.Document, error) {
	ctx = ensureContext(ctx)

	if err := s.collaborators.RequireAccess(ctx, documentID, requesterID, models.PermissionEditor); err != nil {
		return nil, err
	}

	documentID = normaliseID(documentID)

	var doc models.Document
	if err := s.db.WithContext(ctx).Preload("Template").First(&doc, "id = ?", documentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("Document not found")
		}
		return nil, fmt.Errorf("draft service: load document: %w", err)
	}

	var facts []models.Fact
	if err := s.db.WithContext(ctx).
		Where("document_id = ? AND status IN ?", documentID, []models.FactStatus{models.FactApproved, models.FactEdited}).
		Order("created_at ASC").
		Find(&facts).Error; err != nil {
		return nil, fmt.Errorf("draft service: load facts: %w", err)
	}
	if len(facts) == 0 {
		return nil, apperrors.NewBadRequest("document has no approved facts to draft from")
	}

	req := ai.DraftRequest{
		Title: doc.Title,
		Facts: make([]string, 0, len(facts)),
	}
	for _, fact := range facts {
		req.Facts = append(req.Facts, fact.FactText)
	}
	if doc.Template != nil && len(doc.Template.Structure) > 0 {
		req.Template = json.RawMessage(doc.Template.Structure)
	}

	draft, err := s.generator.GenerateDraft(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("draft service: generate: %w", err)
	}

	doc.Content = datatypes.JSON(draft.Content)
	if doc.Status == models.DocumentStatusDraft {
		doc.Status = models.DocumentStatusInReview
	}

	if err := s.db.WithContext(ctx).Save(&doc).Error; err != nil {
		return nil, fmt.Errorf("draft service: save document: %w", err)
	}

	requester := normaliseID(requesterID)
	recordAudit(s.audit, ctx, AuditEntry{
		UserID:     &requester,
		DocumentID: &doc.ID,
		Action:     AuditActionGeneratedDraft,
		Result:     AuditResultSuccess,
		Metadata:   map[string]any{"fact_count": len(facts)},
	})

	return &doc, nil
}
