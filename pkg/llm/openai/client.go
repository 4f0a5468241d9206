package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/run-bigpig/safety-shield/pkg/llm"
	"github.com/run-bigpig/safety-shield/pkg/logging"
)

// OpenAIClient implements the LLM interface for OpenAI compatible APIs
type OpenAIClient struct {
	Client        *openai.Client
	Model         string
	apiKey        string
	baseURL       string
	systemMessage string
	logger        logging.Logger
}

// Option represents an option for configuring the OpenAI client
type Option func(*OpenAIClient)

// WithModel sets the model for the OpenAI client
func WithModel(model string) Option {
	return func(c *OpenAIClient) {
		c.Model = model
	}
}

// WithBaseURL points the client at an OpenAI compatible endpoint
func WithBaseURL(baseURL string) Option {
	return func(c *OpenAIClient) {
		c.baseURL = baseURL
	}
}

// WithSystemMessage prepends a system message to every request
func WithSystemMessage(message string) Option {
	return func(c *OpenAIClient) {
		c.systemMessage = message
	}
}

// WithLogger sets the logger for the OpenAI client
func WithLogger(logger logging.Logger) Option {
	return func(c *OpenAIClient) {
		c.logger = logger
	}
}

// NewClient creates a new OpenAI client
func NewClient(apiKey string, options ...Option) *OpenAIClient {
	client := &OpenAIClient{
		Model:  openai.GPT4oMini,
		apiKey: apiKey,
		logger: logging.NewNop(),
	}

	for _, option := range options {
		option(client)
	}

	config := openai.DefaultConfig(apiKey)
	if client.baseURL != "" {
		config.BaseURL = client.baseURL
	}
	client.Client = openai.NewClientWithConfig(config)

	return client
}

// Name returns the name of the provider
func (c *OpenAIClient) Name() string {
	return fmt.Sprintf("openai:%s", c.Model)
}

// Generate generates text from a prompt with a single chat completion call
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", llm.ErrUnauthenticated
	}

	messages := []openai.ChatCompletionMessage{}
	if c.systemMessage != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: c.systemMessage,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	c.logger.Debug(ctx, "Executing OpenAI API request", map[string]interface{}{
		"model":    c.Model,
		"messages": len(messages),
	})

	resp, err := c.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.Model,
		Messages: messages,
	})
	if err != nil {
		c.logger.Error(ctx, "Error from OpenAI API", map[string]interface{}{
			"error": err.Error(),
			"model": c.Model,
		})
		return "", toTransportError(err)
	}

	if len(resp.Choices) == 0 {
		return "", &llm.MalformedResponseError{Reason: "no choices in response"}
	}

	return resp.Choices[0].Message.Content, nil
}

func toTransportError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &llm.TransportError{StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message, Err: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &llm.TransportError{StatusCode: reqErr.HTTPStatusCode, Body: reqErr.Error(), Err: err}
	}

	return &llm.TransportError{Err: err}
}
