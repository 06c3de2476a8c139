package models

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// PDF records an uploaded case file. The binary itself lives in the blob
// store under StorageKey; only metadata is persisted here.
type PDF struct {
	BaseModel

	DocumentID string    `gorm:"type:uuid;not null;index" json:"document_id"`
	Document   *Document `gorm:"foreignKey:DocumentID" json:"document,omitempty"`

	Filename   string `gorm:"not null" json:"filename"`
	StorageKey string `gorm:"not null;uniqueIndex" json:"-"`
	SizeBytes  int64  `json:"size_bytes"`
	MimeType   string `json:"mime_type"`
	PageCount  int    `json:"page_count"`

	// ExtractedText holds the PDF text layer pulled out at upload time;
	// empty for scanned documents without one.
	ExtractedText string `json:"-"`

	UploadedByID string `gorm:"type:uuid;not null" json:"uploaded_by_id"`
	UploadedBy   *User  `gorm:"foreignKey:UploadedByID" json:"uploaded_by,omitempty"`
}

// BeforeSave validates required upload metadata.
func (p *PDF) BeforeSave(tx *gorm.DB) error {
	p.DocumentID = strings.TrimSpace(p.DocumentID)
	if p.DocumentID == "" {
		return fmt.Errorf("pdf: document_id is required")
	}

	p.Filename = strings.TrimSpace(p.Filename)
	if p.Filename == "" {
		return fmt.Errorf("pdf: filename is required")
	}

	p.StorageKey = strings.TrimSpace(p.StorageKey)
	if p.StorageKey == "" {
		return fmt.Errorf("pdf: storage key is required")
	}

	p.UploadedByID = strings.TrimSpace(p.UploadedByID)
	if p.UploadedByID == "" {
		return fmt.Errorf("pdf: uploaded_by_id is required")
	}

	return nil
}
