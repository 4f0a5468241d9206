// Package shield wires configuration, logging, tracing and a model backend
// into a ready to use pipeline.
package shield

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/run-bigpig/safety-shield/pkg/config"
	"github.com/run-bigpig/safety-shield/pkg/interfaces"
	"github.com/run-bigpig/safety-shield/pkg/llm/gemini"
	"github.com/run-bigpig/safety-shield/pkg/llm/openai"
	"github.com/run-bigpig/safety-shield/pkg/llm/stub"
	"github.com/run-bigpig/safety-shield/pkg/llm/vertex"
	"github.com/run-bigpig/safety-shield/pkg/logging"
	"github.com/run-bigpig/safety-shield/pkg/pipeline"
	"github.com/run-bigpig/safety-shield/pkg/tracing"
)

// Shield owns the long lived components built from a Config
type Shield struct {
	Config       *config.Config
	Logger       logging.Logger
	Tracer       *tracing.OTelTracer
	Orchestrator *pipeline.Orchestrator

	closers []io.Closer
}

// Option configures Build
type Option func(*buildOptions)

type buildOptions struct {
	logOutput io.Writer
	backend   interfaces.LLM
}

// WithLogOutput sends structured logs to w instead of stdout
func WithLogOutput(w io.Writer) Option {
	return func(o *buildOptions) {
		o.logOutput = w
	}
}

// WithBackend bypasses the configured provider
func WithBackend(backend interfaces.LLM) Option {
	return func(o *buildOptions) {
		o.backend = backend
	}
}

// Build creates every component described by cfg
func Build(ctx context.Context, cfg *config.Config, options ...Option) (*Shield, error) {
	opts := &buildOptions{logOutput: os.Stdout}
	for _, opt := range options {
		opt(opts)
	}

	logger := NewLogger(cfg.Logging, opts.logOutput)

	policy, err := cfg.BuildPolicy()
	if err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}

	tracer, err := tracing.NewOTelTracer(ctx, cfg.Tracing)
	if err != nil {
		return nil, err
	}

	s := &Shield{Config: cfg, Logger: logger, Tracer: tracer}

	backend := opts.backend
	if backend == nil {
		backend, err = s.newBackend(ctx, cfg.Backend)
		if err != nil {
			_ = tracer.Shutdown(ctx)
			return nil, err
		}
	}

	orchestrator, err := pipeline.New(policy, tracing.NewLLMOTelMiddleware(backend, tracer),
		pipeline.WithLogger(logger),
		pipeline.WithTracer(tracer),
		pipeline.WithBackendTimeout(cfg.Backend.Timeout),
	)
	if err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	s.Orchestrator = orchestrator

	logger.Info(ctx, "Safety shield ready", map[string]interface{}{
		"backend":   orchestrator.Backend(),
		"auth_mode": string(policy.AuthMode()),
	})

	return s, nil
}

// NewLogger builds the zerolog backed logger described by cfg
func NewLogger(cfg config.LoggingConfig, w io.Writer) *logging.ZeroLogger {
	output := logging.WithConsoleOutput(w)
	if cfg.Format == "json" {
		output = logging.WithJSONOutput(w)
	}
	return logging.New(output, logging.WithLevel(cfg.Level))
}

func (s *Shield) newBackend(ctx context.Context, cfg config.BackendConfig) (interfaces.LLM, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		options := []gemini.ClientOption{gemini.WithLogger(s.Logger)}
		if cfg.Model != "" {
			options = append(options, gemini.WithModel(cfg.Model))
		}
		if cfg.BaseURL != "" {
			options = append(options, gemini.WithBaseURL(cfg.BaseURL))
		}
		if cfg.Timeout > 0 {
			options = append(options, gemini.WithTimeout(cfg.Timeout))
		}
		return gemini.NewClient(cfg.APIKey, options...), nil

	case config.ProviderVertex:
		options := []vertex.ClientOption{vertex.WithLogger(s.Logger)}
		if cfg.Model != "" {
			options = append(options, vertex.WithModel(cfg.Model))
		}
		if cfg.Location != "" {
			options = append(options, vertex.WithLocation(cfg.Location))
		}
		if cfg.CredentialsFile != "" {
			options = append(options, vertex.WithCredentialsFile(cfg.CredentialsFile))
		}
		client, err := vertex.NewClient(ctx, cfg.ProjectID, options...)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, client)
		return client, nil

	case config.ProviderOpenAI:
		options := []openai.Option{openai.WithLogger(s.Logger)}
		if cfg.Model != "" {
			options = append(options, openai.WithModel(cfg.Model))
		}
		if cfg.BaseURL != "" {
			options = append(options, openai.WithBaseURL(cfg.BaseURL))
		}
		if cfg.SystemMessage != "" {
			options = append(options, openai.WithSystemMessage(cfg.SystemMessage))
		}
		return openai.NewClient(cfg.APIKey, options...), nil

	case config.ProviderStub:
		if len(cfg.StubRules) == 0 && cfg.StubFallback == "" {
			return stub.Default(), nil
		}
		return stub.New(stub.WithRules(cfg.StubRules...), stub.WithFallback(cfg.StubFallback)), nil

	default:
		return nil, fmt.Errorf("unknown backend provider %q", cfg.Provider)
	}
}

// Close releases backend clients and flushes traces
func (s *Shield) Close(ctx context.Context) error {
	var firstErr error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := s.Tracer.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
