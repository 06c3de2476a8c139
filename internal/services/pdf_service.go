package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"gorm.io/gorm"

	"github.com/lcraddock/lexdraft/internal/models"
	"github.com/lcraddock/lexdraft/internal/storage"
	apperrors "github.com/lcraddock/lexdraft/pkg/errors"
)

// maxPDFSize bounds uploads at 50 MiB.
const maxPDFSize = 50 << 20

// PDFService manages uploaded case files: blob persistence, metadata rows
// and the extracted text layer consumed by fact extraction.
type PDFService struct {
	db            *gorm.DB
	collaborators *CollaboratorService
	audit         *AuditService
	store         storage.BlobStore
}

// NewPDFService constructs a PDFService instance.
func NewPDFService(db *gorm.DB, collaborators *CollaboratorService, audit *AuditService, store storage.BlobStore) (*PDFService, error) {
	if db == nil {
		return nil, errors.New("pdf service: db is required")
	}
	if collaborators == nil {
		return nil, errors.New("pdf service: collaborator service is required")
	}
	if store == nil {
		return nil, errors.New("pdf service: blob store is required")
	}
	return &PDFService{db: db, collaborators: collaborators, audit: audit, store: store}, nil
}

// Upload stores a case PDF and records its metadata. Requires editor access.
// The text layer is pulled out eagerly; scanned PDFs without one simply get
// an empty ExtractedText.
func (s *PDFService) Upload(ctx context.Context, documentID, uploaderID, fileName string, r io.Reader) (*models.PDF, error) {
	ctx = ensureContext(ctx)

	if err := s.collaborators.RequireAccess(ctx, documentID, uploaderID, models.PermissionEditor); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(r, maxPDFSize+1))
	if err != nil {
		return nil, fmt.Errorf("pdf service: read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, apperrors.NewBadRequest("uploaded file is empty")
	}
	if len(data) > maxPDFSize {
		return nil, apperrors.NewBadRequest("uploaded file exceeds the 50 MiB limit")
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, apperrors.NewBadRequest("uploaded file is not a PDF")
	}

	documentID = normaliseID(documentID)
	key, size, mimeType, err := s.store.Save(ctx, documentID, fileName, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("pdf service: store upload: %w", err)
	}

	pageCount, text := extractTextLayer(data)

	record := &models.PDF{
		DocumentID:    documentID,
		Filename:      strings.TrimSpace(fileName),
		StorageKey:    key,
		SizeBytes:     size,
		MimeType:      mimeType,
		PageCount:     pageCount,
		ExtractedText: text,
		UploadedByID:  normaliseID(uploaderID),
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		_ = s.store.Delete(ctx, key)
		return nil, fmt.Errorf("pdf service: create record: %w", err)
	}

	uploader := normaliseID(uploaderID)
	recordAudit(s.audit, ctx, AuditEntry{
		UserID:     &uploader,
		DocumentID: &documentID,
		Action:     AuditActionUploadedPDF,
		Result:     AuditResultSuccess,
		Metadata: map[string]any{
			"pdf_id":     record.ID,
			"filename":   record.Filename,
			"size_bytes": record.SizeBytes,
		},
	})

	return record, nil
}

// List returns the uploaded PDFs of a document. Requires membership.
func (s *PDFService) List(ctx context.Context, documentID, requesterID string) ([]models.PDF, error) {
	ctx = ensureContext(ctx)

	if err := s.collaborators.RequireAccess(ctx, documentID, requesterID, models.PermissionNone); err != nil {
		return nil, err
	}

	var pdfs []models.PDF
	if err := s.db.WithContext(ctx).
		Where("document_id = ?", normaliseID(documentID)).
		Preload("UploadedBy").
		Order("created_at ASC").
		Find(&pdfs).Error; err != nil {
		return nil, fmt.Errorf("pdf service: list pdfs: %w", err)
	}

	return pdfs, nil
}

// Get returns a single PDF record. Requires membership on its document.
func (s *PDFService) Get(ctx context.Context, pdfID, requesterID string) (*models.PDF, error) {
	ctx = ensureContext(ctx)

	record, err := s.loadPDF(ctx, pdfID)
	if err != nil {
		return nil, err
	}

	if err := s.collaborators.RequireAccess(ctx, record.DocumentID, requesterID, models.PermissionNone); err != nil {
		return nil, err
	}

	return record, nil
}

// Download opens the stored binary for streaming back to the client.
func (s *PDFService) Download(ctx context.Context, pdfID, requesterID string) (*models.PDF, io.ReadCloser, error) {
	ctx = ensureContext(ctx)

	record, err := s.Get(ctx, pdfID, requesterID)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.store.Open(ctx, record.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("pdf service: open blob: %w", err)
	}
	return record, rc, nil
}

// Delete removes the metadata row and the stored binary. Requires editor
// access on the document.
func (s *PDFService) Delete(ctx context.Context, pdfID, requesterID string) error {
	ctx = ensureContext(ctx)

	record, err := s.loadPDF(ctx, pdfID)
	if err != nil {
		return err
	}

	if err := s.collaborators.RequireAccess(ctx, record.DocumentID, requesterID, models.PermissionEditor); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.PDF{}, "id = ?", record.ID).Error; err != nil {
		return fmt.Errorf("pdf service: delete record: %w", err)
	}
	if err := s.store.Delete(ctx, record.StorageKey); err != nil {
		return fmt.Errorf("pdf service: delete blob: %w", err)
	}

	requester := normaliseID(requesterID)
	recordAudit(s.audit, ctx, AuditEntry{
		UserID:     &requester,
		DocumentID: &record.DocumentID,
		Action:     AuditActionDeletedPDF,
		Result:     AuditResultSuccess,
		Metadata:   map[string]any{"pdf_id": record.ID, "filename": record.Filename},
	})

	return nil
}

func (s *PDFService) loadPDF(ctx context.Context, pdfID string) (*models.PDF, error) {
	pdfID = normaliseID(pdfID)
	if pdfID == "" {
		return nil, apperrors.NewBadRequest("pdf id is required")
	}

	var record models.PDF
	if err := s.db.WithContext(ctx).First(&record, "id = ?", pdfID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("PDF not found")
		}
		return nil, fmt.Errorf("pdf service: load pdf: %w", err)
	}
	return &record, nil
}

// extractTextLayer reads the page count and plain text out of a PDF. Both
// are best effort; a malformed or image-only file yields zero values.
func extractTextLayer(data []byte) (int, string) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, ""
	}

	pageCount := reader.NumPage()

	plain, err := reader.GetPlainText()
	if err != nil {
		return pageCount, ""
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return pageCount, ""
	}
	return pageCount, strings.TrimSpace(buf.String())
}
