package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/lcraddock/lexdraft/internal/models"
)

// AutoMigrate applies the schema for every persistent model. Ordering
// matters only for readability; gorm resolves foreign keys itself.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	return db.AutoMigrate(
		&models.User{},
		&models.Template{},
		&models.Document{},
		&models.DocumentCollaborator{},
		&models.PDF{},
		&models.Fact{},
		&models.DocumentVersion{},
		&models.FirmSettings{},
		&models.AuditLog{},
	)
}

// SeedData inserts the singleton firm-settings row when absent so the
// letterhead endpoints always have something to return.
func SeedData(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	var count int64
	if err := db.Model(&models.FirmSettings{}).
		Where("id = ?", models.FirmSettingsID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("count firm settings: %w", err)
	}
	if count > 0 {
		return nil
	}

	settings := models.FirmSettings{
		ID:       models.FirmSettingsID,
		FirmName: "Your Law Firm Name",
		Address:  "123 Legal Street, Suite 100",
		City:     "San Francisco",
		State:    "CA",
		ZipCode:  "94102",
		Phone:    "(555) 123-4567",
		Email:    "contact@lawfirm.com",
	}
	if err := db.Create(&settings).Error; err != nil {
		return fmt.Errorf("seed firm settings: %w", err)
	}

	return nil
}
