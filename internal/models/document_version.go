package models

import (
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DocumentVersion is a numbered snapshot of a document's content. Version
// numbers are monotonically increasing per document, starting at 1.
type DocumentVersion struct {
	BaseModel

	DocumentID    string         `gorm:"type:uuid;not null;uniqueIndex:idx_document_version,priority:1" json:"document_id"`
	Document      *Document      `gorm:"foreignKey:DocumentID" json:"document,omitempty"`
	VersionNumber int            `gorm:"not null;uniqueIndex:idx_document_version,priority:2" json:"version_number"`
	Content       datatypes.JSON `json:"content"`
	Note          string         `json:"note"`

	CreatedByID string `gorm:"type:uuid;not null" json:"created_by_id"`
	CreatedBy   *User  `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
}

// BeforeSave validates snapshot invariants.
func (v *DocumentVersion) BeforeSave(tx *gorm.DB) error {
	v.DocumentID = strings.TrimSpace(v.DocumentID)
	if v.DocumentID == "" {
		return fmt.Errorf("document_version: document_id is required")
	}

	if v.VersionNumber < 1 {
		return fmt.Errorf("document_version: version number must be positive, got %d", v.VersionNumber)
	}

	v.CreatedByID = strings.TrimSpace(v.CreatedByID)
	if v.CreatedByID == "" {
		return fmt.Errorf("document_version: created_by_id is required")
	}

	return nil
}
