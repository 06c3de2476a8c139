package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lcraddock/lexdraft/internal/database/testutil"
	"github.com/lcraddock/lexdraft/internal/models"
)

func TestAuditService_LogAndList(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	svc, err := NewAuditService(db)
	require.NoError(t, err)

	user := createTestUser(t, db, "user-1", "user@example.com")
	doc := createTestDocument(t, db, "doc-1", "Smith v. Jones", user.ID)

	require.NoError(t, svc.Log(context.Background(), AuditEntry{
		UserID:     &user.ID,
		DocumentID: &doc.ID,
		Action:     AuditActionUploadedPDF,
		Result:     AuditResultSuccess,
		Metadata:   map[string]any{"filename": "scan.pdf"},
	}))
	require.NoError(t, svc.Log(context.Background(), AuditEntry{
		UserID: &user.ID,
		Action: AuditActionUpdatedSettings,
		Result: AuditResultSuccess,
	}))

	// Missing action or result is rejected.
	require.Error(t, svc.Log(context.Background(), AuditEntry{Result: AuditResultSuccess}))
	require.Error(t, svc.Log(context.Background(), AuditEntry{Action: AuditActionUploadedPDF}))

	logs, total, err := svc.List(context.Background(), AuditListOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, logs, 2)

	scoped, total, err := svc.ListForDocument(context.Background(), doc.ID, AuditListOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, AuditActionUploadedPDF, scoped[0].Action)
	require.Contains(t, scoped[0].Metadata, "scan.pdf")

	filtered, total, err := svc.List(context.Background(), AuditListOptions{
		Filters: AuditFilters{Action: AuditActionUpdatedSettings},
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, AuditActionUpdatedSettings, filtered[0].Action)
}

func TestAuditService_CleanupOlderThan(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	svc, err := NewAuditService(db)
	require.NoError(t, err)

	old := models.AuditLog{
		Action:    AuditActionCreatedDocument,
		Result:    AuditResultSuccess,
		CreatedAt: time.Now().AddDate(0, 0, -400),
	}
	require.NoError(t, db.Create(&old).Error)

	fresh := models.AuditLog{
		Action: AuditActionCreatedDocument,
		Result: AuditResultSuccess,
	}
	require.NoError(t, db.Create(&fresh).Error)

	removed, err := svc.CleanupOlderThan(context.Background(), 365)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	_, total, err := svc.List(context.Background(), AuditListOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)

	_, err = svc.CleanupOlderThan(context.Background(), 0)
	require.Error(t, err)
}
