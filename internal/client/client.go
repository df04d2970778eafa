// Package client provides a REST client for the Vapi knowledge store and assistant API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultBaseURL is the hosted Vapi API.
const DefaultBaseURL = "https://api.vapi.ai"

// Model defaults applied when the assistant has no model configured.
const (
	DefaultModelProvider = "openai"
	DefaultModelName     = "gpt-4o"
	DefaultTemperature   = 0.65
	DefaultMaxTokens     = 400
)

// KnowledgeBaseProvider is the file search provider attached to assistants.
const KnowledgeBaseProvider = "google"

var (
	// ErrUnauthorized is returned when the API key is missing or rejected.
	ErrUnauthorized = errors.New("vapi: unauthorized")
	// ErrNotFound is returned when the referenced assistant does not exist.
	ErrNotFound = errors.New("vapi: not found")
)

// StatusError is returned for unexpected HTTP status codes.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.Status, e.Body)
}

// Client talks to the Vapi REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries uint64
}

// New creates a new Vapi client.
// If baseURL is empty, uses VAPI_BASE_URL env var or defaults to the hosted API.
// Timeout can be configured via CIVICKB_CLIENT_TIMEOUT env var (default 2m).
func New(baseURL, apiKey string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("VAPI_BASE_URL")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	if httpClient == nil {
		timeout := 2 * time.Minute
		if t := os.Getenv("CIVICKB_CLIENT_TIMEOUT"); t != "" {
			if d, err := time.ParseDuration(t); err == nil {
				timeout = d
			}
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
		maxRetries: 3,
	}
}

// WithMaxRetries sets how many times transient failures are retried.
func (c *Client) WithMaxRetries(n uint64) *Client {
	c.maxRetries = n
	return c
}

// KnowledgeBase is the knowledge base block of an assistant model.
type KnowledgeBase struct {
	Provider string   `json:"provider"`
	FileIDs  []string `json:"fileIds"`
}

// Model is the assistant model configuration. Unknown fields are preserved.
type Model struct {
	Provider      string         `json:"provider"`
	Model         string         `json:"model"`
	Temperature   float64        `json:"temperature"`
	MaxTokens     int            `json:"maxTokens"`
	KnowledgeBase *KnowledgeBase `json:"knowledgeBase,omitempty"`

	extra map[string]json.RawMessage
}

var modelKnownFields = []string{"provider", "model", "temperature", "maxTokens", "knowledgeBase"}

// UnmarshalJSON decodes known fields and keeps the rest.
func (m *Model) UnmarshalJSON(data []byte) error {
	type plain Model
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range modelKnownFields {
		delete(raw, k)
	}
	*m = Model(p)
	if len(raw) > 0 {
		m.extra = raw
	}
	return nil
}

// MarshalJSON encodes known fields merged over the preserved ones.
func (m Model) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.extra)+5)
	for k, v := range m.extra {
		out[k] = v
	}
	out["provider"] = m.Provider
	out["model"] = m.Model
	out["temperature"] = m.Temperature
	out["maxTokens"] = m.MaxTokens
	if m.KnowledgeBase != nil {
		out["knowledgeBase"] = m.KnowledgeBase
	}
	return json.Marshal(out)
}

// Assistant is the subset of the assistant resource this tool reads.
type Assistant struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Model *Model `json:"model,omitempty"`
}

// UploadedFile is the response of a file upload.
type UploadedFile struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// UploadFile uploads a document to the knowledge store and returns its file ID.
func (c *Client) UploadFile(ctx context.Context, name string, content []byte) (string, error) {
	var result UploadedFile
	err := c.retry(ctx, func() error {
		body := &bytes.Buffer{}
		w := multipart.NewWriter(body)
		part, err := w.CreateFormFile("file", name)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create form file: %w", err))
		}
		if _, err := part.Write(content); err != nil {
			return backoff.Permanent(fmt.Errorf("write form file: %w", err))
		}
		if err := w.Close(); err != nil {
			return backoff.Permanent(fmt.Errorf("close multipart: %w", err))
		}
		return c.do(ctx, "upload "+name, http.MethodPost, "/file", w.FormDataContentType(), body, http.StatusCreated, &result)
	})
	if err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", fmt.Errorf("upload %s: response has no file id", name)
	}
	return result.ID, nil
}

// GetAssistant fetches an assistant by ID.
func (c *Client) GetAssistant(ctx context.Context, id string) (*Assistant, error) {
	var a Assistant
	path := "/assistant/" + url.PathEscape(id)
	err := c.retry(ctx, func() error {
		return c.do(ctx, "get assistant", http.MethodGet, path, "", nil, http.StatusOK, &a)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateKnowledgeBase attaches fileIDs to the assistant's model, preserving
// the rest of its model configuration.
func (c *Client) UpdateKnowledgeBase(ctx context.Context, assistantID string, fileIDs []string) (*Assistant, error) {
	current, err := c.GetAssistant(ctx, assistantID)
	if err != nil {
		return nil, err
	}

	model := LinkedModel(current.Model, fileIDs)
	payload, err := json.Marshal(map[string]any{"model": model})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var updated Assistant
	path := "/assistant/" + url.PathEscape(assistantID)
	err = c.retry(ctx, func() error {
		return c.do(ctx, "update assistant", http.MethodPatch, path, "application/json", bytes.NewReader(payload), http.StatusOK, &updated)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// LinkedModel returns a copy of current with the knowledge base set to fileIDs.
// Missing model fields are filled with defaults.
func LinkedModel(current *Model, fileIDs []string) Model {
	var m Model
	if current != nil {
		m = *current
	}
	if m.Provider == "" {
		m.Provider = DefaultModelProvider
	}
	if m.Model == "" {
		m.Model = DefaultModelName
	}
	if m.Temperature == 0 {
		m.Temperature = DefaultTemperature
	}
	if m.MaxTokens == 0 {
		m.MaxTokens = DefaultMaxTokens
	}
	ids := append([]string{}, fileIDs...)
	m.KnowledgeBase = &KnowledgeBase{Provider: KnowledgeBaseProvider, FileIDs: ids}
	return m
}

func (c *Client) retry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 30 * time.Second
	policy := backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx)
	return backoff.Retry(op, policy)
}

// do sends one request and decodes the response into result.
// Errors that a retry cannot fix are marked permanent.
func (c *Client) do(ctx context.Context, op, method, path, contentType string, body io.Reader, want int, result any) error {
	if c.apiKey == "" {
		return backoff.Permanent(fmt.Errorf("%s: %w: VAPI_API_KEY not set", op, ErrUnauthorized))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(fmt.Errorf("%s: %w", op, err))
		}
		return fmt.Errorf("%s: send request: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}

	switch {
	case resp.StatusCode == want:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return backoff.Permanent(fmt.Errorf("%s: %w (HTTP %d)", op, ErrUnauthorized, resp.StatusCode))
	case resp.StatusCode == http.StatusNotFound:
		return backoff.Permanent(fmt.Errorf("%s: %w", op, ErrNotFound))
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return &StatusError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	default:
		return backoff.Permanent(&StatusError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))})
	}

	if result == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return backoff.Permanent(fmt.Errorf("%s: unmarshal response: %w", op, err))
	}
	return nil
}
