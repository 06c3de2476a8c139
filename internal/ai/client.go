package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 120 * time.Second

// Operations supported by the extraction/drafting service.
const (
	OperationExtractFacts  = "extract_facts"
	OperationGenerateDraft = "generate_draft"
)

// ExtractedFact is a single candidate fact returned by the service.
type ExtractedFact struct {
	Text     string `json:"text"`
	Citation string `json:"citation,omitempty"`
}

// DraftRequest carries everything the service needs to compose a letter.
type DraftRequest struct {
	Title    string          `json:"title"`
	Facts    []string        `json:"facts"`
	Template json.RawMessage `json:"template,omitempty"`
}

// DraftResponse is the generated letter content.
type DraftResponse struct {
	Content json.RawMessage `json:"content"`
}

// Client invokes the external extraction/drafting service. Requests are
// wrapped as {operation, payload}; responses arrive as {body} where body is a
// JSON-encoded string.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("ai: base url is required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// ExtractFacts submits extracted PDF text and returns candidate facts.
func (c *Client) ExtractFacts(ctx context.Context, text string) ([]ExtractedFact, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("ai: text is required")
	}

	body, err := c.invoke(ctx, OperationExtractFacts, map[string]any{"text": text})
	if err != nil {
		return nil, err
	}

	var facts []ExtractedFact
	if err := json.Unmarshal(body, &facts); err != nil {
		return nil, fmt.Errorf("ai: decode facts: %w", err)
	}
	return facts, nil
}

// GenerateDraft asks the service to compose a demand letter from approved facts.
func (c *Client) GenerateDraft(ctx context.Context, req DraftRequest) (*DraftResponse, error) {
	if len(req.Facts) == 0 {
		return nil, errors.New("ai: at least one fact is required")
	}

	body, err := c.invoke(ctx, OperationGenerateDraft, req)
	if err != nil {
		return nil, err
	}

	var draft DraftResponse
	if err := json.Unmarshal(body, &draft); err != nil {
		return nil, fmt.Errorf("ai: decode draft: %w", err)
	}
	if len(draft.Content) == 0 {
		return nil, errors.New("ai: empty draft content")
	}
	return &draft, nil
}

type serviceRequest struct {
	Operation string `json:"operation"`
	Payload   any    `json:"payload"`
}

type serviceResponse struct {
	Body  string `json:"body"`
	Error string `json:"error,omitempty"`
}

// invoke posts an operation envelope and unwraps the JSON-string body.
func (c *Client) invoke(ctx context.Context, operation string, payload any) (json.RawMessage, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	encoded, err := json.Marshal(serviceRequest{Operation: operation, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("ai: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/invoke", bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("ai: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ai: %s: %w", operation, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("ai: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ai: %s: unexpected status %d: %s", operation, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var envelope serviceResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("ai: decode envelope: %w", err)
	}
	if envelope.Error != "" {
		return nil, fmt.Errorf("ai: %s: service error: %s", operation, envelope.Error)
	}
	if strings.TrimSpace(envelope.Body) == "" {
		return nil, fmt.Errorf("ai: %s: empty response body", operation)
	}

	return json.RawMessage(envelope.Body), nil
}
