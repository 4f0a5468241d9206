package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/run-bigpig/safety-shield/pkg/llm"
	"github.com/run-bigpig/safety-shield/pkg/logging"
)

// Gemini model constants
const (
	ModelGemini20FlashLite = "gemini-2.0-flash-lite"
	ModelGemini20Flash     = "gemini-2.0-flash"
	ModelGemini15Pro       = "gemini-1.5-pro"
)

const (
	// DefaultModel is the model the demo was built against
	DefaultModel = ModelGemini20FlashLite

	// DefaultBaseURL is the public Generative Language API
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultTimeout bounds a single generateContent call
	DefaultTimeout = 30 * time.Second

	// maxErrorBody caps how much of a failed response is kept
	maxErrorBody = 4096
)

// Client calls the generateContent REST endpoint
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
	logger     logging.Logger
}

// ClientOption is a function that configures the Client
type ClientOption func(*Client)

// WithModel sets the model for the client
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// WithBaseURL overrides the API base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTimeout sets the HTTP client timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger for the client
func WithLogger(logger logging.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new client. An empty apiKey is accepted here and
// reported by Generate, before any request is sent.
func NewClient(apiKey string, options ...ClientOption) *Client {
	client := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    DefaultBaseURL,
		model:      DefaultModel,
		apiKey:     apiKey,
		logger:     logging.NewNop(),
	}

	for _, opt := range options {
		opt(client)
	}

	return client
}

// Name returns the client name
func (c *Client) Name() string {
	return fmt.Sprintf("gemini:%s", c.model)
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate sends prompt as a single user turn and returns the text of the
// first part of the first candidate
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", llm.ErrUnauthenticated
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	c.logger.Debug(ctx, "Sending generateContent request", map[string]interface{}{
		"model":         c.model,
		"prompt_length": len(prompt),
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &llm.TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &llm.TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(respBody) > maxErrorBody {
			respBody = respBody[:maxErrorBody]
		}
		return "", &llm.TransportError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return extractText(respBody)
}

func extractText(body []byte) (string, error) {
	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &llm.MalformedResponseError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	if len(parsed.Candidates) == 0 {
		return "", &llm.MalformedResponseError{Reason: "no candidates in response"}
	}
	candidate := parsed.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", &llm.MalformedResponseError{Reason: "no content parts in first candidate"}
	}
	if candidate.Content.Parts[0].Text == nil {
		return "", &llm.MalformedResponseError{Reason: "first part has no text"}
	}

	return *candidate.Content.Parts[0].Text, nil
}
