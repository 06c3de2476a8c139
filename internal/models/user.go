package models

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// UserRole enumerates organizational roles. These are distinct from
// per-document permissions: an attorney may still be only a viewer on a
// document they did not create.
type UserRole string

const (
	RoleAttorney  UserRole = "attorney"
	RoleParalegal UserRole = "paralegal"
	RoleViewer    UserRole = "viewer"
)

var validUserRoles = map[UserRole]struct{}{
	RoleAttorney:  {},
	RoleParalegal: {},
	RoleViewer:    {},
}

// User describes a registered firm member.
type User struct {
	BaseModel

	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Role      UserRole `gorm:"type:text;not null;default:attorney" json:"role"`

	IsActive bool `gorm:"default:true" json:"is_active"`
}

// BeforeSave normalises and validates identity fields.
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Email == "" {
		return fmt.Errorf("user: email is required")
	}

	role := UserRole(strings.TrimSpace(string(u.Role)))
	if role == "" {
		role = RoleAttorney
	}
	if _, ok := validUserRoles[role]; !ok {
		return fmt.Errorf("user: invalid role %q", u.Role)
	}
	u.Role = role

	return nil
}

// DisplayName renders the users full name, falling back to the email address.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" {
		return u.Email
	}
	return name
}
