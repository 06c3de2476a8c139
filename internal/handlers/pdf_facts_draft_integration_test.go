package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lcraddock/lexdraft/internal/handlers/testutil"
	"github.com/lcraddock/lexdraft/internal/models"
)

// A PDF header is enough to pass upload validation; the text layer extraction
// is best-effort and simply yields nothing for this stub.
var stubPDF = []byte("%PDF-1.4 stub body for uploads")

func TestPDFUploadDownloadDelete(t *testing.T) {
	env := testutil.NewEnv(t)

	owner := env.CreateUser("owner@example.com", "correct horse battery")
	token := env.TokenFor(owner)

	w := env.DoJSON(http.MethodPost, "/api/documents", token, map[string]any{"title": "Letter"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created documentPayload
	env.DecodeData(w, &created)
	docID := created.Document.ID

	// Non-PDF payloads are rejected.
	w = env.UploadFile("/api/documents/"+docID+"/pdfs", token, "notes.txt", []byte("plain text"))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.UploadFile("/api/documents/"+docID+"/pdfs", token, "police-report.pdf", stubPDF)
	require.Equal(t, http.StatusCreated, w.Code)

	var uploaded struct {
		PDF models.PDF `json:"pdf"`
	}
	env.DecodeData(w, &uploaded)
	require.Equal(t, "police-report.pdf", uploaded.PDF.Filename)
	require.Equal(t, int64(len(stubPDF)), uploaded.PDF.SizeBytes)

	w = env.DoJSON(http.MethodGet, "/api/pdfs/"+uploaded.PDF.ID+"/download", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, stubPDF, w.Body.Bytes())

	w = env.DoJSON(http.MethodDelete, "/api/pdfs/"+uploaded.PDF.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.DoJSON(http.MethodGet, "/api/pdfs/"+uploaded.PDF.ID, token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestFactExtractionReviewAndDraft(t *testing.T) {
	env := testutil.NewEnv(t)

	owner := env.CreateUser("owner@example.com", "correct horse battery")
	token := env.TokenFor(owner)

	w := env.DoJSON(http.MethodPost, "/api/documents", token, map[string]any{"title": "Letter"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created documentPayload
	env.DecodeData(w, &created)
	docID := created.Document.ID

	w = env.UploadFile("/api/documents/"+docID+"/pdfs", token, "records.pdf", stubPDF)
	require.Equal(t, http.StatusCreated, w.Code)
	var uploaded struct {
		PDF models.PDF `json:"pdf"`
	}
	env.DecodeData(w, &uploaded)

	// The stub upload has no text layer, so extraction is rejected.
	w = env.DoJSON(http.MethodPost, "/api/documents/"+docID+"/facts/extract", token, map[string]any{
		"pdf_id": uploaded.PDF.ID,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Backfill a text layer as a real PDF upload would have produced.
	require.NoError(t, env.DB.Model(&models.PDF{}).
		Where("id = ?", uploaded.PDF.ID).
		Update("extracted_text", "The claimant was rear-ended at a stop light.").Error)

	w = env.DoJSON(http.MethodPost, "/api/documents/"+docID+"/facts/extract", token, map[string]any{
		"pdf_id": uploaded.PDF.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var extracted struct {
		Facts []models.Fact `json:"facts"`
	}
	env.DecodeData(w, &extracted)
	require.Len(t, extracted.Facts, 1)
	require.Equal(t, models.FactPending, extracted.Facts[0].Status)

	// Drafting with no approved facts is rejected.
	w = env.DoJSON(http.MethodPost, "/api/documents/"+docID+"/draft", token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.DoJSON(http.MethodPost, "/api/facts/"+extracted.Facts[0].ID+"/review", token, map[string]any{
		"action": "approve",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var reviewed struct {
		Fact models.Fact `json:"fact"`
	}
	env.DecodeData(w, &reviewed)
	require.Equal(t, models.FactApproved, reviewed.Fact.Status)

	w = env.DoJSON(http.MethodPost, "/api/documents/"+docID+"/draft", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var drafted documentPayload
	env.DecodeData(w, &drafted)
	require.JSONEq(t, `{"body":"Dear Sir or Madam"}`, string(drafted.Document.Content))
	require.Equal(t, models.DocumentStatusInReview, drafted.Document.Status)
}
