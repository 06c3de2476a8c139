package models

import (
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Template describes the section structure of a demand letter. Structure is
// an opaque JSON document consumed by the AI drafting collaborator.
type Template struct {
	BaseModel

	Name        string         `gorm:"not null;uniqueIndex" json:"name"`
	Description string         `json:"description"`
	Structure   datatypes.JSON `json:"structure"`

	CreatedByID string `gorm:"type:uuid;not null" json:"created_by_id"`
	CreatedBy   *User  `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
}

// BeforeSave validates required fields.
func (t *Template) BeforeSave(tx *gorm.DB) error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return fmt.Errorf("template: name is required")
	}

	t.CreatedByID = strings.TrimSpace(t.CreatedByID)
	if t.CreatedByID == "" {
		return fmt.Errorf("template: created_by_id is required")
	}

	return nil
}
