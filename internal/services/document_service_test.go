package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lcraddock/lexdraft/internal/database/testutil"
	"github.com/lcraddock/lexdraft/internal/models"
)

func newTestDocumentService(t *testing.T, db *gorm.DB) (*DocumentService, *CollaboratorService) {
	t.Helper()

	collaborators, err := NewCollaboratorService(db, nil, nil)
	require.NoError(t, err)

	docs, err := NewDocumentService(db, collaborators, nil)
	require.NoError(t, err)
	return docs, collaborators
}

func TestDocumentService_CreateAndGet(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, _ := newTestDocumentService(t, db)

	owner := createTestUser(t, db, "user-owner", "owner@example.com")
	stranger := createTestUser(t, db, "user-stranger", "stranger@example.com")

	created, err := svc.Create(context.Background(), owner.ID, CreateDocumentInput{
		Title:   "  Smith v. Jones  ",
		Content: datatypes.JSON([]byte(`{"body":"draft"}`)),
	})
	require.NoError(t, err)
	require.Equal(t, "Smith v. Jones", created.Title)
	require.Equal(t, models.DocumentStatusDraft, created.Status)
	require.Equal(t, owner.ID, created.CreatedByID)

	fetched, err := svc.Get(context.Background(), created.ID, owner.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, fetched.ID)
	require.NotNil(t, fetched.CreatedBy)

	_, err = svc.Get(context.Background(), created.ID, stranger.ID)
	requireStatusCode(t, err, http.StatusUnauthorized)

	_, err = svc.Get(context.Background(), "missing", owner.ID)
	requireStatusCode(t, err, http.StatusNotFound)

	_, err = svc.Create(context.Background(), owner.ID, CreateDocumentInput{Title: "   "})
	requireStatusCode(t, err, http.StatusBadRequest)
}

func TestDocumentService_CreateWithTemplate(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, _ := newTestDocumentService(t, db)

	owner := createTestUser(t, db, "user-owner", "owner@example.com")

	template := models.Template{
		BaseModel:   models.BaseModel{ID: "tmpl-1"},
		Name:        "Standard Demand",
		Structure:   datatypes.JSON([]byte(`{"sections":["intro","facts","demand"]}`)),
		CreatedByID: owner.ID,
	}
	require.NoError(t, db.Create(&template).Error)

	created, err := svc.Create(context.Background(), owner.ID, CreateDocumentInput{
		Title:      "Templated Letter",
		TemplateID: &template.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, created.TemplateID)
	require.Equal(t, template.ID, *created.TemplateID)

	missing := "tmpl-missing"
	_, err = svc.Create(context.Background(), owner.ID, CreateDocumentInput{
		Title:      "Broken",
		TemplateID: &missing,
	})
	requireStatusCode(t, err, http.StatusNotFound)
}

func TestDocumentService_ListScopedToMembership(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, collaborators := newTestDocumentService(t, db)

	alice := createTestUser(t, db, "user-alice", "alice@example.com")
	bob := createTestUser(t, db, "user-bob", "bob@example.com")

	mine, err := svc.Create(context.Background(), alice.ID, CreateDocumentInput{Title: "Alice Letter"})
	require.NoError(t, err)
	shared, err := svc.Create(context.Background(), bob.ID, CreateDocumentInput{Title: "Bob Letter"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), bob.ID, CreateDocumentInput{Title: "Private Letter"})
	require.NoError(t, err)

	invite, err := collaborators.Invite(context.Background(), shared.ID, bob.ID, InviteInput{
		Email:      alice.Email,
		Permission: models.PermissionViewer,
	})
	require.NoError(t, err)

	// A pending invitation does not surface the document yet.
	docs, total, err := svc.List(context.Background(), alice.ID, ListDocumentsOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, mine.ID, docs[0].ID)

	_, err = collaborators.Respond(context.Background(), invite.ID, alice.ID, true)
	require.NoError(t, err)

	docs, total, err = svc.List(context.Background(), alice.ID, ListDocumentsOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	ids := []string{docs[0].ID, docs[1].ID}
	require.Contains(t, ids, mine.ID)
	require.Contains(t, ids, shared.ID)
}

func TestDocumentService_UpdateRequiresEditor(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, collaborators := newTestDocumentService(t, db)

	owner := createTestUser(t, db, "user-owner", "owner@example.com")
	viewer := createTestUser(t, db, "user-viewer", "viewer@example.com")

	doc, err := svc.Create(context.Background(), owner.ID, CreateDocumentInput{Title: "Smith v. Jones"})
	require.NoError(t, err)

	invite, err := collaborators.Invite(context.Background(), doc.ID, owner.ID, InviteInput{
		Email:      viewer.Email,
		Permission: models.PermissionViewer,
	})
	require.NoError(t, err)
	_, err = collaborators.Respond(context.Background(), invite.ID, viewer.ID, true)
	require.NoError(t, err)

	newTitle := "Smith v. Jones (amended)"
	_, err = svc.Update(context.Background(), doc.ID, viewer.ID, UpdateDocumentInput{Title: &newTitle})
	requireStatusCode(t, err, http.StatusForbidden)

	status := models.DocumentStatusInReview
	updated, err := svc.Update(context.Background(), doc.ID, owner.ID, UpdateDocumentInput{
		Title:   &newTitle,
		Status:  &status,
		Content: datatypes.JSON([]byte(`{"body":"amended"}`)),
	})
	require.NoError(t, err)
	require.Equal(t, newTitle, updated.Title)
	require.Equal(t, models.DocumentStatusInReview, updated.Status)
}

func TestDocumentService_DeleteOwnerOnly(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, collaborators := newTestDocumentService(t, db)

	owner := createTestUser(t, db, "user-owner", "owner@example.com")
	editor := createTestUser(t, db, "user-editor", "editor@example.com")

	doc, err := svc.Create(context.Background(), owner.ID, CreateDocumentInput{Title: "Smith v. Jones"})
	require.NoError(t, err)

	invite, err := collaborators.Invite(context.Background(), doc.ID, owner.ID, InviteInput{
		Email:      editor.Email,
		Permission: models.PermissionEditor,
	})
	require.NoError(t, err)
	_, err = collaborators.Respond(context.Background(), invite.ID, editor.ID, true)
	require.NoError(t, err)

	// Editor-gated endpoints succeed but owner-gated delete is forbidden.
	title := "Edited"
	_, err = svc.Update(context.Background(), doc.ID, editor.ID, UpdateDocumentInput{Title: &title})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), doc.ID, editor.ID)
	requireStatusCode(t, err, http.StatusForbidden)

	require.NoError(t, svc.Delete(context.Background(), doc.ID, owner.ID))

	_, err = svc.Get(context.Background(), doc.ID, owner.ID)
	requireStatusCode(t, err, http.StatusNotFound)

	// Dependent collaborator rows are gone too.
	var count int64
	require.NoError(t, db.Model(&models.DocumentCollaborator{}).Where("document_id = ?", doc.ID).Count(&count).Error)
	require.Zero(t, count)
}
