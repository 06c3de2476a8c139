package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/lcraddock/lexdraft/internal/database/testutil"
	"github.com/lcraddock/lexdraft/internal/models"
)

func TestTemplateService_CRUD(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	svc, err := NewTemplateService(db)
	require.NoError(t, err)

	creator := createTestUser(t, db, "user-creator", "creator@example.com")

	created, err := svc.Create(context.Background(), creator.ID, TemplateInput{
		Name:        "  Standard Demand  ",
		Description: "Default structure",
		Structure:   datatypes.JSON([]byte(`{"sections":["intro"]}`)),
	})
	require.NoError(t, err)
	require.Equal(t, "Standard Demand", created.Name)

	// Names are unique.
	_, err = svc.Create(context.Background(), creator.ID, TemplateInput{Name: "Standard Demand"})
	requireStatusCode(t, err, http.StatusConflict)

	fetched, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, fetched.ID)

	updated, err := svc.Update(context.Background(), created.ID, TemplateInput{
		Description: "Amended structure",
		Structure:   datatypes.JSON([]byte(`{"sections":["intro","facts"]}`)),
	})
	require.NoError(t, err)
	require.Equal(t, "Standard Demand", updated.Name)
	require.Equal(t, "Amended structure", updated.Description)

	listed, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 1)

	require.NoError(t, svc.Delete(context.Background(), created.ID))

	_, err = svc.Get(context.Background(), created.ID)
	requireStatusCode(t, err, http.StatusNotFound)
}

func TestTemplateService_DeleteDetachesDocuments(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	svc, err := NewTemplateService(db)
	require.NoError(t, err)

	creator := createTestUser(t, db, "user-creator", "creator@example.com")
	template, err := svc.Create(context.Background(), creator.ID, TemplateInput{Name: "Standard Demand"})
	require.NoError(t, err)

	doc := models.Document{
		BaseModel:   models.BaseModel{ID: "doc-1"},
		Title:       "Letter",
		CreatedByID: creator.ID,
		TemplateID:  &template.ID,
	}
	require.NoError(t, db.Create(&doc).Error)

	require.NoError(t, svc.Delete(context.Background(), template.ID))

	var reloaded models.Document
	require.NoError(t, db.First(&reloaded, "id = ?", doc.ID).Error)
	require.Nil(t, reloaded.TemplateID)
}
