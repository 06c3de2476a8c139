package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/lcraddock/lexdraft/internal/ai"
	"github.com/lcraddock/lexdraft/internal/models"
	apperrors "github.com/lcraddock/lexdraft/pkg/errors"
)

// FactExtractor is the slice of the AI client used for fact extraction.
type FactExtractor interface {
	ExtractFacts(ctx context.Context, text string) ([]ai.ExtractedFact, error)
}

// FactReviewAction is the decision an attorney takes on a candidate fact.
type FactReviewAction string

const (
	FactActionApprove FactReviewAction = "approve"
	FactActionReject  FactReviewAction = "reject"
	FactActionEdit    FactReviewAction = "edit"
)

// ReviewFactInput describes a review decision. Text is only consulted for
// the edit action.
type ReviewFactInput struct {
	Action FactReviewAction
	Text   string
}

// FactService runs the extract-then-review workflow on uploaded PDFs.
type FactService struct {
	db            *gorm.DB
	collaborators *CollaboratorService
	audit         *AuditService
	extractor     FactExtractor
}

// NewFactService constructs a FactService instance.
func NewFactService(db *gorm.DB, collaborators *CollaboratorService, audit *AuditService, extractor FactExtractor) (*FactService, error) {
	if db == nil {
		return nil, errors.New("fact service: db is required")
	}
	if collaborators == nil {
		return nil, errors.New("fact service: collaborator service is required")
	}
	if extractor == nil {
		return nil, errors.New("fact service: extractor is required")
	}
	return &FactService{db: db, collaborators: collaborators, audit: audit, extractor: extractor}, nil
}

// Extract sends a PDF's text layer to the AI collaborator and stores the
// returned candidates as pending facts. Requires editor access.
func (s *FactService) Extract(ctx context.Context, documentID, requesterID, pdfID string) ([]models.Fact, error) {
	ctx = ensureContext(ctx)

	if err := s.collaborators.RequireAccess(ctx, documentID, requesterID, models.PermissionEditor); err != nil {
		return nil, err
	}

	documentID = normaliseID(documentID)
	pdfID = normaliseID(pdfID)

	var record models.PDF
	if err := s.db.WithContext(ctx).First(&record, "id = ?", pdfID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("PDF not found")
		}
		return nil, fmt.Errorf("fact service: load pdf: %w", err)
	}
	if record.DocumentID != documentID {
		return nil, apperrors.ErrNotFound.WithMessage("PDF not found")
	}
	if strings.TrimSpace(record.ExtractedText) == "" {
		return nil, apperrors.NewBadRequest("PDF has no text layer to extract facts from")
	}

	candidates, err := s.extractor.ExtractFacts(ctx, record.ExtractedText)
	if err != nil {
		return nil, fmt.Errorf("fact service: extract facts: %w", err)
	}

	facts := make([]models.Fact, 0, len(candidates))
	for _, candidate := range candidates {
		text := strings.TrimSpace(candidate.Text)
		if text == "" {
			continue
		}
		facts = append(facts, models.Fact{
			DocumentID: documentID,
			PDFID:      &record.ID,
			FactText:   text,
			Citation:   strings.TrimSpace(candidate.Citation),
			Status:     models.FactPending,
		})
	}

	if len(facts) > 0 {
		if err := s.db.WithContext(ctx).Create(&facts).Error; err != nil {
			return nil, fmt.Errorf("fact service: store facts: %w", err)
		}
	}

	requester := normaliseID(requesterID)
	recordAudit(s.audit, ctx, AuditEntry{
		UserID:     &requester,
		DocumentID: &documentID,
		Action:     AuditActionExtractedFacts,
		Result:     AuditResultSuccess,
		Metadata:   map[string]any{"pdf_id": record.ID, "fact_count": len(facts)},
	})

	return facts, nil
}

// List returns a document's facts, optionally filtered by status. Requires
// membership.
func (s *FactService) List(ctx context.Context, documentID, requesterID string, status models.FactStatus) ([]models.Fact, error) {
	ctx = ensureContext(ctx)

	if err := s.collaborators.RequireAccess(ctx, documentID, requesterID, models.PermissionNone); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).
		Where("document_id = ?", normaliseID(documentID)).
		Preload("ReviewedBy").
		Order("created_at ASC")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var facts []models.Fact
	if err := query.Find(&facts).Error; err != nil {
		return nil, fmt.Errorf("fact service: list facts: %w", err)
	}
	return facts, nil
}

// Review applies an attorney's decision to a fact. Requires editor access on
// the fact's document. Edits preserve the original AI wording once.
func (s *FactService) Review(ctx context.Context, factID, reviewerID string, input ReviewFactInput) (*models.Fact, error) {
	ctx = ensureContext(ctx)

	factID = normaliseID(factID)
	if factID == "" {
		return nil, apperrors.NewBadRequest("fact id is required")
	}

	var fact models.Fact
	if err := s.db.WithContext(ctx).First(&fact, "id = ?", factID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("Fact not found")
		}
		return nil, fmt.Errorf("fact service: load fact: %w", err)
	}

	if err := s.collaborators.RequireAccess(ctx, fact.DocumentID, reviewerID, models.PermissionEditor); err != nil {
		return nil, err
	}

	reviewer := normaliseID(reviewerID)
	now := time.Now().UTC()

	switch input.Action {
	case FactActionApprove:
		fact.Status = models.FactApproved
	case FactActionReject:
		fact.Status = models.FactRejected
	case FactActionEdit:
		text := strings.TrimSpace(input.Text)
		if text == "" {
			return nil, apperrors.NewBadRequest("edited fact text cannot be empty")
		}
		if fact.OriginalText == "" {
			fact.OriginalText = fact.FactText
		}
		fact.FactText = text
		fact.Status = models.FactEdited
	default:
		return nil, apperrors.NewBadRequest("action must be approve, reject or edit")
	}

	fact.ReviewedByID = &reviewer
	fact.ReviewedAt = &now

	if err := s.db.WithContext(ctx).Save(&fact).Error; err != nil {
		return nil, fmt.Errorf("fact service: save review: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		UserID:     &reviewer,
		DocumentID: &fact.DocumentID,
		Action:     AuditActionReviewedFact,
		Result:     AuditResultSuccess,
		Metadata:   map[string]any{"fact_id": fact.ID, "action": string(input.Action)},
	})

	return &fact, nil
}

// Delete removes a fact from its document. Requires editor access.
func (s *FactService) Delete(ctx context.Context, factID, requesterID string) error {
	ctx = ensureContext(ctx)

	factID = normaliseID(factID)
	if factID == "" {
		return apperrors.NewBadRequest("fact id is required")
	}

	var fact models.Fact
	if err := s.db.WithContext(ctx).First(&fact, "id = ?", factID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound.WithMessage("Fact not found")
		}
		return fmt.Errorf("fact service: load fact: %w", err)
	}

	if err := s.collaborators.RequireAccess(ctx, fact.DocumentID, requesterID, models.PermissionEditor); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.Fact{}, "id = ?", factID).Error; err != nil {
		return fmt.Errorf("fact service: delete fact: %w", err)
	}

	requester := normaliseID(requesterID)
	recordAudit(s.audit, ctx, AuditEntry{
		UserID:     &requester,
		DocumentID: &fact.DocumentID,
		Action:     AuditActionDeletedFact,
		Result:     AuditResultSuccess,
		Metadata:   map[string]any{"fact_id": fact.ID},
	})

	return nil
}
