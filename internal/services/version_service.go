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

// VersionService snapshots and restores document content. Version numbers
// are allocated inside a transaction so concurrent snapshots of the same
// document cannot collide; the unique index is the authoritative guard.
type VersionService struct {
	db            *gorm.DB
	collaborators *CollaboratorService
	audit         *AuditService
}

// NewVersionService constructs a VersionService instance.
func NewVersionService(db *gorm.DB, collaborators *CollaboratorService, audit *AuditService) (*VersionService, error) {
	if db == nil {
		return nil, errors.New("version service: db is required")
	}
	if collaborators == nil {
		return nil, errors.New("version service: collaborator service is required")
	}
	return &VersionService{db: db, collaborators: collaborators, audit: audit}, nil
}

// Snapshot records the document's current content as the next version.
// Requires editor access.
func (s *VersionService) Snapshot(ctx context.Context, documentID, requesterID, note string) (*models.DocumentVersion, error) {
	ctx = ensureContext(ctx)

	if err := s.collaborators.RequireAccess(ctx, documentID, requesterID, models.PermissionEditor); err != nil {
		return nil, err
	}

	documentID = normaliseID(documentID)
	requester := normaliseID(requesterID)

	var version models.DocumentVersion
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc models.Document
		if err := tx.First(&doc, "id = ?", documentID).Error; err != nil {
			return err
		}

		var latest int
		if err := tx.Model(&models.DocumentVersion{}).
			Where("document_id = ?", documentID).
			Select("COALESCE(MAX(version_number), 0)").
			Scan(&latest).Error; err != nil {
			return err
		}

		version = models.DocumentVersion{
			DocumentID:    documentID,
			VersionNumber: latest + 1,
			Content:       doc.Content,
			Note:          strings.TrimSpace(note),
			CreatedByID:   requester,
		}
		return tx.Create(&version).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("Document not found")
		}
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewConflict("A concurrent snapshot won; retry")
		}
		return nil, fmt.Errorf("version service: snapshot: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		UserID:     &requester,
		DocumentID: &documentID,
		Action:     AuditActionCreatedVersion,
		Result:     AuditResultSuccess,
		Metadata:   map[string]any{"version": version.VersionNumber},
	})

	return &version, nil
}

// List returns a document's versions, newest first. Requires membership.
func (s *VersionService) List(ctx context.Context, documentID, requesterID string) ([]models.DocumentVersion, error) {
	ctx = ensureContext(ctx)

	if err := s.collaborators.RequireAccess(ctx, documentID, requesterID, models.PermissionNone); err != nil {
		return nil, err
	}

	var versions []models.DocumentVersion
	if err := s.db.WithContext(ctx).
		Where("document_id = ?", normaliseID(documentID)).
		Preload("CreatedBy").
		Order("version_number DESC").
		Find(&versions).Error; err != nil {
		return nil, fmt.Errorf("version service: list versions: %w", err)
	}

	return versions, nil
}

// Get returns a single version of a document. Requires membership.
func (s *VersionService) Get(ctx context.Context, documentID, versionID, requesterID string) (*models.DocumentVersion, error) {
	ctx = ensureContext(ctx)

	if err := s.collaborators.RequireAccess(ctx, documentID, requesterID, models.PermissionNone); err != nil {
		return nil, err
	}

	documentID = normaliseID(documentID)

	var version models.DocumentVersion
	if err := s.db.WithContext(ctx).Preload("CreatedBy").First(&version, "id = ?", normaliseID(versionID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("Version not found")
		}
		return nil, fmt.Errorf("version service: load version: %w", err)
	}
	if version.DocumentID != documentID {
		return nil, apperrors.ErrNotFound.WithMessage("Version not found")
	}

	return &version, nil
}

// Delete removes a version. The last remaining version of a document cannot
// be deleted. Requires editor access.
func (s *VersionService) Delete(ctx context.Context, documentID, versionID, requesterID string) error {
	ctx = ensureContext(ctx)

	if err := s.collaborators.RequireAccess(ctx, documentID, requesterID, models.PermissionEditor); err != nil {
		return err
	}

	documentID = normaliseID(documentID)
	versionID = normaliseID(versionID)
	requester := normaliseID(requesterID)

	var deleted models.DocumentVersion
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&deleted, "id = ?", versionID).Error; err != nil {
			return err
		}
		if deleted.DocumentID != documentID {
			return gorm.ErrRecordNotFound
		}

		var count int64
		if err := tx.Model(&models.DocumentVersion{}).
			Where("document_id = ?", documentID).
			Count(&count).Error; err != nil {
			return err
		}
		if count <= 1 {
			return apperrors.ErrBadRequest.WithMessage("Cannot delete the only version of a document")
		}

		return tx.Delete(&models.DocumentVersion{}, "id = ?", versionID).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound.WithMessage("Version not found")
		}
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return fmt.Errorf("version service: delete version: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		UserID:     &requester,
		DocumentID: &documentID,
		Action:     AuditActionDeletedVersion,
		Result:     AuditResultSuccess,
		Metadata:   map[string]any{"version": deleted.VersionNumber},
	})

	return nil
}

// Restore copies a version's content back onto the document. The current
// content is snapshotted first so the restore itself is reversible.
// Requires editor access.
func (s *VersionService) Restore(ctx context.Context, documentID, versionID, requesterID string) (*models.Document, error) {
	ctx = ensureContext(ctx)

	if err := s.collaborators.RequireAccess(ctx, documentID, requesterID, models.PermissionEditor); err != nil {
		return nil, err
	}

	documentID = normaliseID(documentID)
	versionID = normaliseID(versionID)
	requester := normaliseID(requesterID)

	var version models.DocumentVersion
	if err := s.db.WithContext(ctx).First(&version, "id = ?", versionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("Version not found")
		}
		return nil, fmt.Errorf("version service: load version: %w", err)
	}
	if version.DocumentID != documentID {
		return nil, apperrors.ErrNotFound.WithMessage("Version not found")
	}

	if _, err := s.Snapshot(ctx, documentID, requesterID, fmt.Sprintf("before restoring version %d", version.VersionNumber)); err != nil {
		return nil, err
	}

	var doc models.Document
	if err := s.db.WithContext(ctx).First(&doc, "id = ?", documentID).Error; err != nil {
		return nil, fmt.Errorf("version service: load document: %w", err)
	}

	doc.Content = version.Content
	if err := s.db.WithContext(ctx).Save(&doc).Error; err != nil {
		return nil, fmt.Errorf("version service: restore content: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		UserID:     &requester,
		DocumentID: &documentID,
		Action:     AuditActionRestoredVersion,
		Result:     AuditResultSuccess,
		Metadata:   map[string]any{"version": version.VersionNumber},
	})

	return &doc, nil
}
