package vertex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/run-bigpig/safety-shield/pkg/llm"
	"github.com/run-bigpig/safety-shield/pkg/logging"
)

// VertexAI model constants
const (
	ModelGemini15Pro       = "gemini-1.5-pro"
	ModelGemini15Flash     = "gemini-1.5-flash"
	ModelGemini20Flash     = "gemini-2.0-flash"
	ModelGemini20FlashLite = "gemini-2.0-flash-lite"
)

// DefaultModel is the default Vertex AI model
const DefaultModel = ModelGemini20FlashLite

// Client represents a Vertex AI client
type Client struct {
	client          *genai.Client
	model           string
	projectID       string
	location        string
	temperature     float32
	logger          logging.Logger
	credentialsFile string
}

// ClientOption is a function that configures the Client
type ClientOption func(*Client)

// WithModel sets the model for the client
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// WithLocation sets the location for the client
func WithLocation(location string) ClientOption {
	return func(c *Client) {
		c.location = location
	}
}

// WithTemperature sets the sampling temperature. Zero keeps the model default.
func WithTemperature(temperature float32) ClientOption {
	return func(c *Client) {
		c.temperature = temperature
	}
}

// WithLogger sets the logger for the client
func WithLogger(logger logging.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithCredentialsFile sets the path to the service account credentials file
func WithCredentialsFile(credentialsFile string) ClientOption {
	return func(c *Client) {
		c.credentialsFile = credentialsFile
	}
}

func newClient(projectID string, options ...ClientOption) *Client {
	client := &Client{
		model:     DefaultModel,
		projectID: projectID,
		location:  "us-central1",
		logger:    logging.NewNop(),
	}

	for _, opt := range options {
		opt(client)
	}

	return client
}

// NewClient creates a new Vertex AI client. Without a project ID no SDK
// client is created and every Generate call fails with
// llm.ErrUnauthenticated.
func NewClient(ctx context.Context, projectID string, options ...ClientOption) (*Client, error) {
	client := newClient(projectID, options...)
	if projectID == "" {
		return client, nil
	}

	var clientOptions []option.ClientOption
	if client.credentialsFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(client.credentialsFile))
	}

	vertexClient, err := genai.NewClient(ctx, projectID, client.location, clientOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}

	client.client = vertexClient
	return client, nil
}

// Name returns the client name
func (c *Client) Name() string {
	return fmt.Sprintf("vertex:%s", c.model)
}

// Generate implements interfaces.LLM.Generate. The call is made once;
// failures are returned as llm.TransportError.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.client == nil {
		return "", llm.ErrUnauthenticated
	}

	model := c.client.GenerativeModel(c.model)
	if c.temperature > 0 {
		temp := c.temperature
		model.Temperature = &temp
	}

	c.logger.Debug(ctx, "Sending Vertex AI request", map[string]interface{}{
		"model":    c.model,
		"location": c.location,
	})

	response, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		c.logger.Error(ctx, "Error from Vertex AI API", map[string]interface{}{
			"error": err.Error(),
			"model": c.model,
		})
		return "", toTransportError(err)
	}

	return extractText(response)
}

// grpcToHTTP follows the canonical google.rpc.Code to HTTP mapping
var grpcToHTTP = map[codes.Code]int{
	codes.Canceled:           499,
	codes.Unknown:            http.StatusInternalServerError,
	codes.InvalidArgument:    http.StatusBadRequest,
	codes.DeadlineExceeded:   http.StatusGatewayTimeout,
	codes.NotFound:           http.StatusNotFound,
	codes.AlreadyExists:      http.StatusConflict,
	codes.PermissionDenied:   http.StatusForbidden,
	codes.ResourceExhausted:  http.StatusTooManyRequests,
	codes.FailedPrecondition: http.StatusBadRequest,
	codes.Aborted:            http.StatusConflict,
	codes.OutOfRange:         http.StatusBadRequest,
	codes.Unimplemented:      http.StatusNotImplemented,
	codes.Internal:           http.StatusInternalServerError,
	codes.Unavailable:        http.StatusServiceUnavailable,
	codes.DataLoss:           http.StatusInternalServerError,
	codes.Unauthenticated:    http.StatusUnauthorized,
}

// toTransportError keeps the HTTP status of REST failures and translates
// gRPC status codes. Errors without a status keep StatusCode 0.
func toTransportError(err error) *llm.TransportError {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &llm.TransportError{StatusCode: apiErr.Code, Body: apiErr.Message, Err: err}
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.OK {
		return &llm.TransportError{StatusCode: grpcToHTTP[st.Code()], Body: st.Message(), Err: err}
	}

	return &llm.TransportError{Body: err.Error(), Err: err}
}

func extractText(response *genai.GenerateContentResponse) (string, error) {
	if response == nil || len(response.Candidates) == 0 {
		return "", &llm.MalformedResponseError{Reason: "no candidates in response"}
	}

	candidate := response.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", &llm.MalformedResponseError{Reason: "no content in response"}
	}

	var result strings.Builder
	found := false
	for _, part := range candidate.Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			result.WriteString(string(textPart))
			found = true
		}
	}
	if !found {
		return "", &llm.MalformedResponseError{Reason: "no text parts in response"}
	}

	return result.String(), nil
}

// Close closes the Vertex AI client
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
