package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/lcraddock/lexdraft/internal/models"
	apperrors "github.com/lcraddock/lexdraft/pkg/errors"
	"github.com/lcraddock/lexdraft/pkg/mail"
	"github.com/lcraddock/lexdraft/pkg/metrics"
)

// CollaboratorService resolves document access levels and manages the
// collaborator invitation lifecycle. Ownership is structural: the document
// creator always resolves to owner and never appears in the collaborator
// table, so the generic update/remove path cannot revoke it.
type CollaboratorService struct {
	db     *gorm.DB
	audit  *AuditService
	mailer mail.Mailer
}

// NewCollaboratorService constructs a CollaboratorService. The mailer is
// optional; without one invitation emails are skipped.
func NewCollaboratorService(db *gorm.DB, audit *AuditService, mailer mail.Mailer) (*CollaboratorService, error) {
	if db == nil {
		return nil, errors.New("collaborator service: db is required")
	}
	return &CollaboratorService{db: db, audit: audit, mailer: mailer}, nil
}

// ResolvePermission computes the effective access level of userID on the
// document. The owner check short-circuits before any collaborator lookup;
// only accepted collaborator rows grant access.
func (s *CollaboratorService) ResolvePermission(ctx context.Context, documentID, userID string) (models.DocumentPermission, error) {
	ctx = ensureContext(ctx)

	documentID = normaliseID(documentID)
	userID = normaliseID(userID)
	if documentID == "" || userID == "" {
		return models.PermissionNone, apperrors.NewBadRequest("document id and user id are required")
	}

	doc, err := s.loadDocument(ctx, documentID)
	if err != nil {
		return models.PermissionNone, err
	}

	return s.resolveForDocument(ctx, doc, userID)
}

// RequireAccess enforces a minimum access level for userID on the document.
// Pass models.PermissionNone as minimum to require membership only.
func (s *CollaboratorService) RequireAccess(ctx context.Context, documentID, userID string, minimum models.DocumentPermission) error {
	level, err := s.ResolvePermission(ctx, documentID, userID)
	if err != nil {
		recordAccessCheck(minimum, "error")
		return err
	}

	if level == models.PermissionNone {
		recordAccessCheck(minimum, "unauthorized")
		return apperrors.ErrUnauthorized.WithMessage("You do not have access to this document")
	}

	if minimum != models.PermissionNone && !level.AtLeast(minimum) {
		recordAccessCheck(minimum, "forbidden")
		return apperrors.ErrForbidden.WithMessage(fmt.Sprintf("This action requires %s access", minimum))
	}

	recordAccessCheck(minimum, "granted")
	return nil
}

// InviteInput describes an invitation request.
type InviteInput struct {
	Email      string
	Permission models.DocumentPermission
}

// Invite creates or revives a pending collaborator record for the user
// registered under input.Email. A previously rejected invitation is reset to
// pending; pending and accepted records conflict.
func (s *CollaboratorService) Invite(ctx context.Context, documentID, inviterID string, input InviteInput) (*models.DocumentCollaborator, error) {
	ctx = ensureContext(ctx)

	documentID = normaliseID(documentID)
	inviterID = normaliseID(inviterID)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}
	if !input.Permission.Grantable() {
		return nil, apperrors.NewBadRequest("permission must be owner, editor or viewer")
	}

	doc, err := s.loadDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	inviterLevel, err := s.resolveForDocument(ctx, doc, inviterID)
	if err != nil {
		return nil, err
	}
	if !inviterLevel.AtLeast(models.PermissionEditor) {
		return nil, apperrors.ErrForbidden.WithMessage("Only owners and editors can invite collaborators")
	}

	var invitee models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&invitee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("No user is registered with that email")
		}
		return nil, fmt.Errorf("collaborator service: lookup invitee: %w", err)
	}

	if invitee.ID == doc.CreatedByID {
		return nil, apperrors.NewConflict("User already owns this document")
	}

	now := time.Now().UTC()

	var record models.DocumentCollaborator
	err = s.db.WithContext(ctx).
		Where("document_id = ? AND user_id = ?", doc.ID, invitee.ID).
		First(&record).Error
	switch {
	case err == nil:
		if record.Status != models.InvitationRejected {
			return nil, apperrors.NewConflict("User has already been invited to this document")
		}

		record.Permission = input.Permission
		record.Status = models.InvitationPending
		record.InvitedByID = inviterID
		record.InvitedAt = now
		record.RespondedAt = nil
		if err := s.db.WithContext(ctx).
			Model(&record).
			Select("permission", "status", "invited_by_id", "invited_at", "responded_at").
			Updates(map[string]any{
				"permission":    record.Permission,
				"status":        record.Status,
				"invited_by_id": record.InvitedByID,
				"invited_at":    record.InvitedAt,
				"responded_at":  nil,
			}).Error; err != nil {
			return nil, fmt.Errorf("collaborator service: reset invitation: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		record = models.DocumentCollaborator{
			DocumentID:  doc.ID,
			UserID:      invitee.ID,
			Permission:  input.Permission,
			Status:      models.InvitationPending,
			InvitedByID: inviterID,
			InvitedAt:   now,
		}
		if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
			if isUniqueConstraintError(err) {
				return nil, apperrors.NewConflict("User has already been invited to this document")
			}
			return nil, fmt.Errorf("collaborator service: create invitation: %w", err)
		}
	default:
		return nil, fmt.Errorf("collaborator service: lookup invitation: %w", err)
	}

	record.User = &invitee

	recordAudit(s.audit, ctx, AuditEntry{
		UserID:     &inviterID,
		DocumentID: &doc.ID,
		Action:     AuditActionInvitedCollaborator,
		Result:     AuditResultSuccess,
		Metadata: map[string]any{
			"invitee_id": invitee.ID,
			"permission": string(record.Permission),
		},
	})

	if s.mailer != nil {
		message := mail.Message{
			To:      []string{invitee.Email},
			Subject: fmt.Sprintf("You have been invited to collaborate on %q", doc.Title),
			Body:    s.inviteBody(doc.Title, string(record.Permission)),
		}
		if mailErr := s.mailer.Send(ctx, message); mailErr != nil && !errors.Is(mailErr, mail.ErrSMTPDisabled) {
			return nil, fmt.Errorf("collaborator service: send email: %w", mailErr)
		}
	}

	return &record, nil
}

// Respond records the invited user's answer. An invitation can be answered
// exactly once; later calls conflict.
func (s *CollaboratorService) Respond(ctx context.Context, collaboratorID, userID string, accept bool) (*models.DocumentCollaborator, error) {
	ctx = ensureContext(ctx)

	record, err := s.loadCollaborator(ctx, collaboratorID)
	if err != nil {
		return nil, err
	}

	if record.UserID != normaliseID(userID) {
		return nil, apperrors.ErrForbidden.WithMessage("Only the invited user can respond to this invitation")
	}
	if record.Status != models.InvitationPending {
		return nil, apperrors.NewConflict("Invitation has already been answered")
	}

	now := time.Now().UTC()
	record.RespondedAt = &now
	record.Status = models.InvitationRejected
	action := AuditActionRejectedCollaboration
	if accept {
		record.Status = models.InvitationAccepted
		action = AuditActionAcceptedCollaboration
	}

	if err := s.db.WithContext(ctx).
		Model(record).
		Select("status", "responded_at").
		Updates(map[string]any{
			"status":       record.Status,
			"responded_at": record.RespondedAt,
		}).Error; err != nil {
		return nil, fmt.Errorf("collaborator service: record response: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		UserID:     &record.UserID,
		DocumentID: &record.DocumentID,
		Action:     action,
		Result:     AuditResultSuccess,
	})

	return record, nil
}

// UpdatePermission changes the granted level on an existing collaborator
// record. Only the document owner (structural or via an accepted owner grant)
// may change permissions.
func (s *CollaboratorService) UpdatePermission(ctx context.Context, collaboratorID, requesterID string, permission models.DocumentPermission) (*models.DocumentCollaborator, error) {
	ctx = ensureContext(ctx)

	if !permission.Grantable() {
		return nil, apperrors.NewBadRequest("permission must be owner, editor or viewer")
	}

	record, err := s.loadCollaborator(ctx, collaboratorID)
	if err != nil {
		return nil, err
	}

	if err := s.requireOwner(ctx, record.DocumentID, requesterID); err != nil {
		return nil, err
	}

	record.Permission = permission
	if err := s.db.WithContext(ctx).
		Model(record).
		Select("permission").
		Updates(map[string]any{"permission": permission}).Error; err != nil {
		return nil, fmt.Errorf("collaborator service: update permission: %w", err)
	}

	requester := normaliseID(requesterID)
	recordAudit(s.audit, ctx, AuditEntry{
		UserID:     &requester,
		DocumentID: &record.DocumentID,
		Action:     AuditActionUpdatedPermission,
		Result:     AuditResultSuccess,
		Metadata: map[string]any{
			"collaborator_id": record.ID,
			"permission":      string(permission),
		},
	})

	return record, nil
}

// Remove deletes a collaborator record. Allowed for the document owner and
// for the collaborator removing themselves.
func (s *CollaboratorService) Remove(ctx context.Context, collaboratorID, requesterID string) error {
	ctx = ensureContext(ctx)

	record, err := s.loadCollaborator(ctx, collaboratorID)
	if err != nil {
		return err
	}

	requester := normaliseID(requesterID)
	if record.UserID != requester {
		if err := s.requireOwner(ctx, record.DocumentID, requester); err != nil {
			return err
		}
	}

	if err := s.db.WithContext(ctx).Delete(&models.DocumentCollaborator{}, "id = ?", record.ID).Error; err != nil {
		return fmt.Errorf("collaborator service: remove collaborator: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		UserID:     &requester,
		DocumentID: &record.DocumentID,
		Action:     AuditActionRemovedCollaborator,
		Result:     AuditResultSuccess,
		Metadata:   map[string]any{"collaborator_id": record.ID},
	})

	return nil
}

// ListCollaborators returns every collaborator record on the document.
// Requires membership on the document.
func (s *CollaboratorService) ListCollaborators(ctx context.Context, documentID, requesterID string) ([]models.DocumentCollaborator, error) {
	ctx = ensureContext(ctx)

	if err := s.RequireAccess(ctx, documentID, requesterID, models.PermissionNone); err != nil {
		return nil, err
	}

	var records []models.DocumentCollaborator
	if err := s.db.WithContext(ctx).
		Where("document_id = ?", normaliseID(documentID)).
		Preload("User").
		Preload("InvitedBy").
		Order("invited_at ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("collaborator service: list collaborators: %w", err)
	}

	return records, nil
}

// PendingInvitations lists the open invitations addressed to userID.
func (s *CollaboratorService) PendingInvitations(ctx context.Context, userID string) ([]models.DocumentCollaborator, error) {
	ctx = ensureContext(ctx)

	userID = normaliseID(userID)
	if userID == "" {
		return nil, apperrors.NewBadRequest("user id is required")
	}

	var records []models.DocumentCollaborator
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.InvitationPending).
		Preload("Document").
		Preload("InvitedBy").
		Order("invited_at DESC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("collaborator service: list pending invitations: %w", err)
	}

	return records, nil
}

func (s *CollaboratorService) loadDocument(ctx context.Context, documentID string) (*models.Document, error) {
	var doc models.Document
	if err := s.db.WithContext(ctx).First(&doc, "id = ?", documentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("Document not found")
		}
		return nil, fmt.Errorf("collaborator service: load document: %w", err)
	}
	return &doc, nil
}

func (s *CollaboratorService) loadCollaborator(ctx context.Context, collaboratorID string) (*models.DocumentCollaborator, error) {
	collaboratorID = normaliseID(collaboratorID)
	if collaboratorID == "" {
		return nil, apperrors.NewBadRequest("collaborator id is required")
	}

	var record models.DocumentCollaborator
	if err := s.db.WithContext(ctx).First(&record, "id = ?", collaboratorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("Collaborator record not found")
		}
		return nil, fmt.Errorf("collaborator service: load collaborator: %w", err)
	}
	return &record, nil
}

func (s *CollaboratorService) resolveForDocument(ctx context.Context, doc *models.Document, userID string) (models.DocumentPermission, error) {
	userID = normaliseID(userID)
	if userID == "" {
		return models.PermissionNone, nil
	}

	if doc.CreatedByID == userID {
		return models.PermissionOwner, nil
	}

	var record models.DocumentCollaborator
	err := s.db.WithContext(ctx).
		Where("document_id = ? AND user_id = ? AND status = ?", doc.ID, userID, models.InvitationAccepted).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.PermissionNone, nil
		}
		return models.PermissionNone, fmt.Errorf("collaborator service: lookup collaborator: %w", err)
	}

	return record.Permission, nil
}

func (s *CollaboratorService) requireOwner(ctx context.Context, documentID, requesterID string) error {
	doc, err := s.loadDocument(ctx, documentID)
	if err != nil {
		return err
	}

	level, err := s.resolveForDocument(ctx, doc, requesterID)
	if err != nil {
		return err
	}
	if level != models.PermissionOwner {
		return apperrors.ErrForbidden.WithMessage("Only the document owner can manage collaborators")
	}
	return nil
}

func (s *CollaboratorService) inviteBody(title, permission string) string {
	return fmt.Sprintf("Hello,\n\nYou have been invited as %s on the document %q. Sign in to accept or decline the invitation.\n\nIf you did not expect this email, you can ignore it.\n", permission, title)
}

func recordAccessCheck(minimum models.DocumentPermission, result string) {
	label := string(minimum)
	if minimum == models.PermissionNone {
		label = "any"
	}
	metrics.AccessChecks.WithLabelValues(label, result).Inc()
}
