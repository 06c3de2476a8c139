package models

import "time"

// FirmSettingsID pins the singleton row; the deployment serves one firm.
const FirmSettingsID = 1

// FirmSettings holds the letterhead details stamped onto generated drafts.
type FirmSettings struct {
	ID       int    `gorm:"primaryKey" json:"id"`
	FirmName string `gorm:"not null" json:"firm_name"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zip_code"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
