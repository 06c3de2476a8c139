package models

import (
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DocumentStatus tracks where a demand letter sits in the drafting workflow.
type DocumentStatus string

const (
	DocumentStatusDraft    DocumentStatus = "draft"
	DocumentStatusInReview DocumentStatus = "in_review"
	DocumentStatusFinal    DocumentStatus = "final"
)

var validDocumentStatuses = map[DocumentStatus]struct{}{
	DocumentStatusDraft:    {},
	DocumentStatusInReview: {},
	DocumentStatusFinal:    {},
}

// Document is a demand-letter case file. The creator is the permanent owner;
// ownership is structural and never recorded in the collaborator table.
type Document struct {
	BaseModel

	Title       string         `gorm:"not null" json:"title"`
	Status      DocumentStatus `gorm:"type:text;not null;default:draft" json:"status"`
	Content     datatypes.JSON `json:"content"`
	CreatedByID string         `gorm:"type:uuid;not null;index" json:"created_by_id"`
	CreatedBy   *User          `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	TemplateID  *string        `gorm:"type:uuid" json:"template_id"`
	Template    *Template      `gorm:"foreignKey:TemplateID" json:"template,omitempty"`

	Collaborators []DocumentCollaborator `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" json:"collaborators,omitempty"`
	PDFs          []PDF                  `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" json:"pdfs,omitempty"`
	Facts         []Fact                 `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" json:"facts,omitempty"`
	Versions      []DocumentVersion      `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" json:"versions,omitempty"`
}

// BeforeSave validates the workflow status and required fields.
func (d *Document) BeforeSave(tx *gorm.DB) error {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return fmt.Errorf("document: title is required")
	}

	status := DocumentStatus(strings.TrimSpace(string(d.Status)))
	if status == "" {
		status = DocumentStatusDraft
	}
	if _, ok := validDocumentStatuses[status]; !ok {
		return fmt.Errorf("document: invalid status %q", d.Status)
	}
	d.Status = status

	if strings.TrimSpace(d.CreatedByID) == "" {
		return fmt.Errorf("document: created_by_id is required")
	}

	return nil
}
