package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lcraddock/lexdraft/internal/ai"
	"github.com/lcraddock/lexdraft/internal/api"
	"github.com/lcraddock/lexdraft/internal/app"
	iauth "github.com/lcraddock/lexdraft/internal/auth"
	sharedtestutil "github.com/lcraddock/lexdraft/internal/database/testutil"
	"github.com/lcraddock/lexdraft/internal/models"
	"github.com/lcraddock/lexdraft/internal/services"
	"github.com/lcraddock/lexdraft/internal/storage"
	"github.com/lcraddock/lexdraft/pkg/crypto"
	"github.com/lcraddock/lexdraft/pkg/response"
)

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T      *testing.T
	DB     *gorm.DB
	Router *gin.Engine
	JWT    *iauth.JWTService
}

// StubExtractor returns a fixed set of fact candidates regardless of input.
type StubExtractor struct {
	Facts []ai.ExtractedFact
}

func (s StubExtractor) ExtractFacts(context.Context, string) ([]ai.ExtractedFact, error) {
	return s.Facts, nil
}

// StubGenerator echoes a canned letter body.
type StubGenerator struct {
	Content json.RawMessage
}

func (s StubGenerator) GenerateDraft(context.Context, ai.DraftRequest) (*ai.DraftResponse, error) {
	content := s.Content
	if content == nil {
		content = json.RawMessage(`{"body":"Dear Sir or Madam"}`)
	}
	return &ai.DraftResponse{Content: content}, nil
}

// NewEnv provisions a fresh handler test environment with migrations and seed data applied.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithSeedData())

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         "test-suite-super-secret-key-32-bytes!!",
		Issuer:         "test-suite",
		AccessTokenTTL: time.Hour,
	})
	require.NoError(t, err)

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	cfg := &app.Config{}

	router, err := api.NewRouter(db, jwtSvc, cfg, api.Dependencies{
		Store: store,
		Extractor: StubExtractor{Facts: []ai.ExtractedFact{
			{Text: "On 2025-03-14 the claimant was rear-ended at a stop light.", Citation: "page 2"},
		}},
		Generator: StubGenerator{},
	})
	require.NoError(t, err)

	return &Env{
		T:      t,
		DB:     db,
		Router: router,
		JWT:    jwtSvc,
	}
}

// CreateUser inserts an active attorney and returns the record.
func (e *Env) CreateUser(email, password string) *models.User {
	e.T.Helper()

	hashed, err := crypto.HashPassword(password)
	require.NoError(e.T, err)

	user := &models.User{
		Email:    email,
		Password: hashed,
		Role:     models.RoleAttorney,
		IsActive: true,
	}
	require.NoError(e.T, e.DB.Create(user).Error)
	return user
}

// TokenFor issues an access token for direct handler calls.
func (e *Env) TokenFor(user *models.User) string {
	e.T.Helper()

	token, err := e.JWT.GenerateAccessToken(iauth.TokenInput{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.DisplayName(),
		Role:   string(user.Role),
	})
	require.NoError(e.T, err)
	return token
}

// DoJSON performs an authenticated JSON request against the router.
func (e *Env) DoJSON(method, path, token string, body any) *httptest.ResponseRecorder {
	e.T.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(e.T, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	e.Router.ServeHTTP(recorder, req)
	return recorder
}

// UploadFile performs an authenticated multipart upload against the router.
func (e *Env) UploadFile(path, token, fileName string, contents []byte) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(e.T, err)
	_, err = part.Write(contents)
	require.NoError(e.T, err)
	require.NoError(e.T, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	e.Router.ServeHTTP(recorder, req)
	return recorder
}

// DecodeData unmarshals the data envelope of a successful response into dest.
func (e *Env) DecodeData(recorder *httptest.ResponseRecorder, dest any) {
	e.T.Helper()

	var payload response.Response
	require.NoError(e.T, json.Unmarshal(recorder.Body.Bytes(), &payload))
	require.True(e.T, payload.Success, "expected a success envelope, got: %s", recorder.Body.String())

	dataBytes, err := json.Marshal(payload.Data)
	require.NoError(e.T, err)
	require.NoError(e.T, json.Unmarshal(dataBytes, dest))
}

var _ services.FactExtractor = StubExtractor{}
var _ services.DraftGenerator = StubGenerator{}
