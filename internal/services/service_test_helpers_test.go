package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lcraddock/lexdraft/internal/models"
	"github.com/lcraddock/lexdraft/pkg/mail"
)

type recordingMailer struct {
	mu       sync.Mutex
	messages []mail.Message
	err      error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *recordingMailer) sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mail.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

func createTestUser(t *testing.T, db *gorm.DB, id, email string) models.User {
	t.Helper()

	user := models.User{
		BaseModel: models.BaseModel{ID: id},
		Email:     email,
		Password:  "hashed-secret",
		FirstName: "Test",
		LastName:  "User",
		Role:      models.RoleAttorney,
		IsActive:  true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createTestDocument(t *testing.T, db *gorm.DB, id, title, ownerID string) models.Document {
	t.Helper()

	doc := models.Document{
		BaseModel:   models.BaseModel{ID: id},
		Title:       title,
		Status:      models.DocumentStatusDraft,
		CreatedByID: ownerID,
	}
	require.NoError(t, db.Create(&doc).Error)
	return doc
}
