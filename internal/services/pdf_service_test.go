package services

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lcraddock/lexdraft/internal/database/testutil"
	"github.com/lcraddock/lexdraft/internal/models"
	"github.com/lcraddock/lexdraft/internal/storage"
)

const fakePDFBody = "%PDF-1.4 not a real pdf but close enough"

func newTestPDFService(t *testing.T, db *gorm.DB) (*PDFService, *CollaboratorService) {
	t.Helper()

	collaborators, err := NewCollaboratorService(db, nil, nil)
	require.NoError(t, err)

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	svc, err := NewPDFService(db, collaborators, nil, store)
	require.NoError(t, err)
	return svc, collaborators
}

func TestPDFService_UploadAndDownload(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, _ := newTestPDFService(t, db)

	owner := createTestUser(t, db, "user-owner", "owner@example.com")
	doc := createTestDocument(t, db, "doc-1", "Smith v. Jones", owner.ID)

	uploaded, err := svc.Upload(context.Background(), doc.ID, owner.ID, "police report.pdf", strings.NewReader(fakePDFBody))
	require.NoError(t, err)
	require.Equal(t, "police report.pdf", uploaded.Filename)
	require.EqualValues(t, len(fakePDFBody), uploaded.SizeBytes)
	require.NotEmpty(t, uploaded.StorageKey)
	require.Equal(t, owner.ID, uploaded.UploadedByID)

	record, rc, err := svc.Download(context.Background(), uploaded.ID, owner.ID)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, fakePDFBody, string(body))
	require.Equal(t, uploaded.ID, record.ID)

	listed, err := svc.List(context.Background(), doc.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestPDFService_UploadValidation(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, collaborators := newTestPDFService(t, db)

	owner := createTestUser(t, db, "user-owner", "owner@example.com")
	viewer := createTestUser(t, db, "user-viewer", "viewer@example.com")
	doc := createTestDocument(t, db, "doc-1", "Smith v. Jones", owner.ID)

	invite, err := collaborators.Invite(context.Background(), doc.ID, owner.ID, InviteInput{
		Email:      viewer.Email,
		Permission: models.PermissionViewer,
	})
	require.NoError(t, err)
	_, err = collaborators.Respond(context.Background(), invite.ID, viewer.ID, true)
	require.NoError(t, err)

	// Viewers cannot upload.
	_, err = svc.Upload(context.Background(), doc.ID, viewer.ID, "scan.pdf", strings.NewReader(fakePDFBody))
	requireStatusCode(t, err, http.StatusForbidden)

	// Non-PDF payloads are rejected.
	_, err = svc.Upload(context.Background(), doc.ID, owner.ID, "notes.txt", strings.NewReader("plain text"))
	requireStatusCode(t, err, http.StatusBadRequest)

	_, err = svc.Upload(context.Background(), doc.ID, owner.ID, "empty.pdf", strings.NewReader(""))
	requireStatusCode(t, err, http.StatusBadRequest)
}

func TestPDFService_Delete(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, _ := newTestPDFService(t, db)

	owner := createTestUser(t, db, "user-owner", "owner@example.com")
	doc := createTestDocument(t, db, "doc-1", "Smith v. Jones", owner.ID)

	uploaded, err := svc.Upload(context.Background(), doc.ID, owner.ID, "scan.pdf", strings.NewReader(fakePDFBody))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), uploaded.ID, owner.ID))

	_, err = svc.Get(context.Background(), uploaded.ID, owner.ID)
	requireStatusCode(t, err, http.StatusNotFound)

	err = svc.Delete(context.Background(), uploaded.ID, owner.ID)
	requireStatusCode(t, err, http.StatusNotFound)
}
