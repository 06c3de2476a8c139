package services

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lcraddock/lexdraft/internal/ai"
	"github.com/lcraddock/lexdraft/internal/database/testutil"
	"github.com/lcraddock/lexdraft/internal/models"
)

type stubGenerator struct {
	lastRequest ai.DraftRequest
	content     string
	err         error
}

func (s *stubGenerator) GenerateDraft(_ context.Context, req ai.DraftRequest) (*ai.DraftResponse, error) {
	s.lastRequest = req
	if s.err != nil {
		return nil, s.err
	}
	return &ai.DraftResponse{Content: json.RawMessage(s.content)}, nil
}

func newTestDraftService(t *testing.T, db *gorm.DB, generator DraftGenerator) *DraftService {
	t.Helper()

	collaborators, err := NewCollaboratorService(db, nil, nil)
	require.NoError(t, err)

	svc, err := NewDraftService(db, collaborators, nil, generator)
	require.NoError(t, err)
	return svc
}

func TestDraftService_Generate(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	generator := &stubGenerator{content: `{"body":"Dear Sir or Madam"}`}
	svc := newTestDraftService(t, db, generator)

	owner := createTestUser(t, db, "user-owner", "owner@example.com")
	doc := createTestDocument(t, db, "doc-1", "Smith v. Jones", owner.ID)

	for _, fact := range []models.Fact{
		{DocumentID: doc.ID, FactText: "approved fact", Status: models.FactApproved},
		{DocumentID: doc.ID, FactText: "edited fact", Status: models.FactEdited},
		{DocumentID: doc.ID, FactText: "rejected fact", Status: models.FactRejected},
		{DocumentID: doc.ID, FactText: "pending fact", Status: models.FactPending},
	} {
		fact := fact
		require.NoError(t, db.Create(&fact).Error)
	}

	updated, err := svc.Generate(context.Background(), doc.ID, owner.ID)
	require.NoError(t, err)
	require.JSONEq(t, `{"body":"Dear Sir or Madam"}`, string(updated.Content))
	require.Equal(t, models.DocumentStatusInReview, updated.Status)

	// Only usable facts reach the generator.
	require.ElementsMatch(t, []string{"approved fact", "edited fact"}, generator.lastRequest.Facts)
	require.Equal(t, doc.Title, generator.lastRequest.Title)
}

func TestDraftService_GenerateIncludesTemplate(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	generator := &stubGenerator{content: `{"body":"letter"}`}
	svc := newTestDraftService(t, db, generator)

	owner := createTestUser(t, db, "user-owner", "owner@example.com")

	template := models.Template{
		BaseModel:   models.BaseModel{ID: "tmpl-1"},
		Name:        "Standard Demand",
		Structure:   datatypes.JSON([]byte(`{"sections":["intro","facts"]}`)),
		CreatedByID: owner.ID,
	}
	require.NoError(t, db.Create(&template).Error)

	doc := models.Document{
		BaseModel:   models.BaseModel{ID: "doc-1"},
		Title:       "Templated",
		CreatedByID: owner.ID,
		TemplateID:  &template.ID,
	}
	require.NoError(t, db.Create(&doc).Error)

	fact := models.Fact{DocumentID: doc.ID, FactText: "a fact", Status: models.FactApproved}
	require.NoError(t, db.Create(&fact).Error)

	_, err := svc.Generate(context.Background(), doc.ID, owner.ID)
	require.NoError(t, err)
	require.JSONEq(t, `{"sections":["intro","facts"]}`, string(generator.lastRequest.Template))
}

func TestDraftService_GenerateRequiresUsableFacts(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := newTestDraftService(t, db, &stubGenerator{content: `{}`})

	owner := createTestUser(t, db, "user-owner", "owner@example.com")
	viewer := createTestUser(t, db, "user-viewer", "viewer@example.com")
	doc := createTestDocument(t, db, "doc-1", "Smith v. Jones", owner.ID)

	fact := models.Fact{DocumentID: doc.ID, FactText: "pending only", Status: models.FactPending}
	require.NoError(t, db.Create(&fact).Error)

	_, err := svc.Generate(context.Background(), doc.ID, owner.ID)
	requireStatusCode(t, err, http.StatusBadRequest)

	_, err = svc.Generate(context.Background(), doc.ID, viewer.ID)
	requireStatusCode(t, err, http.StatusUnauthorized)
}
