package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// FactStatus is the human-in-the-loop review state of an extracted fact.
// Only approved and edited facts feed draft generation.
type FactStatus string

const (
	FactPending  FactStatus = "pending"
	FactApproved FactStatus = "approved"
	FactRejected FactStatus = "rejected"
	FactEdited   FactStatus = "edited"
)

var validFactStatuses = map[FactStatus]struct{}{
	FactPending:  {},
	FactApproved: {},
	FactRejected: {},
	FactEdited:   {},
}

// Fact is a candidate statement extracted from an uploaded PDF by the AI
// collaborator, awaiting attorney review.
type Fact struct {
	BaseModel

	DocumentID string    `gorm:"type:uuid;not null;index" json:"document_id"`
	Document   *Document `gorm:"foreignKey:DocumentID" json:"document,omitempty"`
	PDFID      *string   `gorm:"type:uuid;index" json:"pdf_id"`
	PDF        *PDF      `gorm:"foreignKey:PDFID" json:"pdf,omitempty"`

	FactText string `gorm:"not null" json:"fact_text"`
	// OriginalText keeps the AI-extracted wording once an attorney edits
	// the fact, so reviewers can compare against the source.
	OriginalText string `json:"original_text,omitempty"`
	Citation     string `json:"citation"`

	Status       FactStatus `gorm:"type:text;not null;default:pending" json:"status"`
	ReviewedByID *string    `gorm:"type:uuid" json:"reviewed_by_id"`
	ReviewedBy   *User      `gorm:"foreignKey:ReviewedByID" json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time `json:"reviewed_at"`
}

// BeforeSave validates the review state.
func (f *Fact) BeforeSave(tx *gorm.DB) error {
	f.DocumentID = strings.TrimSpace(f.DocumentID)
	if f.DocumentID == "" {
		return fmt.Errorf("fact: document_id is required")
	}

	f.FactText = strings.TrimSpace(f.FactText)
	if f.FactText == "" {
		return fmt.Errorf("fact: fact_text is required")
	}

	status := FactStatus(strings.TrimSpace(string(f.Status)))
	if status == "" {
		status = FactPending
	}
	if _, ok := validFactStatuses[status]; !ok {
		return fmt.Errorf("fact: invalid status %q", f.Status)
	}
	f.Status = status

	return nil
}

// Usable reports whether the fact may be included in a generated draft.
func (f *Fact) Usable() bool {
	return f.Status == FactApproved || f.Status == FactEdited
}
