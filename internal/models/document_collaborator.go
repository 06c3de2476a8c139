package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// DocumentPermission is a per-document access level. Levels form a total
// order (owner > editor > viewer > none) so minimum-access checks are a
// plain integer comparison rather than a lookup table.
type DocumentPermission string

const (
	PermissionNone   DocumentPermission = "none"
	PermissionViewer DocumentPermission = "viewer"
	PermissionEditor DocumentPermission = "editor"
	PermissionOwner  DocumentPermission = "owner"
)

// Level maps a permission onto the lattice. Unknown values rank as none.
func (p DocumentPermission) Level() int {
	switch p {
	case PermissionOwner:
		return 3
	case PermissionEditor:
		return 2
	case PermissionViewer:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether p grants minimum or better.
func (p DocumentPermission) AtLeast(minimum DocumentPermission) bool {
	return p.Level() >= minimum.Level()
}

// Grantable reports whether the permission may be assigned to a collaborator.
// none is only ever a resolver result, never a stored value.
func (p DocumentPermission) Grantable() bool {
	switch p {
	case PermissionOwner, PermissionEditor, PermissionViewer:
		return true
	default:
		return false
	}
}

// InvitationStatus is the lifecycle state of a collaborator record.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRejected InvitationStatus = "rejected"
)

var validInvitationStatuses = map[InvitationStatus]struct{}{
	InvitationPending:  {},
	InvitationAccepted: {},
	InvitationRejected: {},
}

// DocumentCollaborator joins a user to a document with a granted permission.
// At most one record exists per (document, user) pair; re-inviting a
// previously rejected user resets the existing row instead of duplicating it.
type DocumentCollaborator struct {
	BaseModel

	DocumentID string    `gorm:"type:uuid;not null;uniqueIndex:idx_document_collaborator,priority:1;index" json:"document_id"`
	Document   *Document `gorm:"foreignKey:DocumentID" json:"document,omitempty"`
	UserID     string    `gorm:"type:uuid;not null;uniqueIndex:idx_document_collaborator,priority:2" json:"user_id"`
	User       *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Permission DocumentPermission `gorm:"type:text;not null" json:"permission"`
	Status     InvitationStatus   `gorm:"type:text;not null;default:pending" json:"status"`

	InvitedByID string     `gorm:"type:uuid;not null" json:"invited_by_id"`
	InvitedBy   *User      `gorm:"foreignKey:InvitedByID" json:"invited_by,omitempty"`
	InvitedAt   time.Time  `json:"invited_at"`
	RespondedAt *time.Time `json:"responded_at"`
}

// BeforeSave validates the permission and lifecycle state.
func (c *DocumentCollaborator) BeforeSave(tx *gorm.DB) error {
	c.DocumentID = strings.TrimSpace(c.DocumentID)
	if c.DocumentID == "" {
		return fmt.Errorf("document_collaborator: document_id is required")
	}

	c.UserID = strings.TrimSpace(c.UserID)
	if c.UserID == "" {
		return fmt.Errorf("document_collaborator: user_id is required")
	}

	perm := DocumentPermission(strings.TrimSpace(string(c.Permission)))
	if !perm.Grantable() {
		return fmt.Errorf("document_collaborator: invalid permission %q", c.Permission)
	}
	c.Permission = perm

	status := InvitationStatus(strings.TrimSpace(string(c.Status)))
	if status == "" {
		status = InvitationPending
	}
	if _, ok := validInvitationStatuses[status]; !ok {
		return fmt.Errorf("document_collaborator: invalid status %q", c.Status)
	}
	c.Status = status

	c.InvitedByID = strings.TrimSpace(c.InvitedByID)
	if c.InvitedByID == "" {
		return fmt.Errorf("document_collaborator: invited_by_id is required")
	}

	if c.InvitedAt.IsZero() {
		c.InvitedAt = time.Now().UTC()
	}

	return nil
}
