package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/run-bigpig/safety-shield/pkg/guardrails"
	"github.com/run-bigpig/safety-shield/pkg/llm/stub"
	"github.com/run-bigpig/safety-shield/pkg/tracing"
)

// Backend providers
const (
	ProviderGemini = "gemini"
	ProviderVertex = "vertex"
	ProviderOpenAI = "openai"
	ProviderStub   = "stub"
)

// Environment variables read by LoadFromEnv
const (
	EnvAuthPhrase      = "SHIELD_AUTH_PHRASE"
	EnvAuthMode        = "SHIELD_AUTH_MODE"
	EnvBackend         = "SHIELD_BACKEND"
	EnvLogLevel        = "SHIELD_LOG_LEVEL"
	EnvGeminiAPIKey    = "GEMINI_API_KEY"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvGoogleProject   = "GOOGLE_CLOUD_PROJECT"
	EnvGoogleCredsFile = "GOOGLE_APPLICATION_CREDENTIALS"
)

// Config is the process configuration, loaded once at startup
type Config struct {
	Policy  PolicyConfig       `yaml:"policy"`
	Backend BackendConfig      `yaml:"backend"`
	Logging LoggingConfig      `yaml:"logging"`
	Tracing tracing.OTelConfig `yaml:"tracing"`
	Server  ServerConfig       `yaml:"server"`
}

// PolicyConfig holds the policy tables. Omitted deny-lists fall back to the
// built-in tables; an explicit empty list disables the filter.
type PolicyConfig struct {
	AuthPhrase     string   `yaml:"auth_phrase"`
	AuthMode       string   `yaml:"auth_mode"`
	InputDenyList  []string `yaml:"input_deny_list"`
	OutputDenyList []string `yaml:"output_deny_list"`
}

// BackendConfig selects and configures the model backend. Credentials are
// only read from the environment.
type BackendConfig struct {
	Provider      string        `yaml:"provider"`
	Model         string        `yaml:"model"`
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	Location      string        `yaml:"location"`
	SystemMessage string        `yaml:"system_message"`
	StubRules     []stub.Rule   `yaml:"stub_rules"`
	StubFallback  string        `yaml:"stub_fallback"`

	APIKey          string `yaml:"-"`
	ProjectID       string `yaml:"-"`
	CredentialsFile string `yaml:"-"`
}

// LoggingConfig configures the structured logger
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ServerConfig configures the HTTP surface
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Policy: PolicyConfig{
			AuthPhrase: guardrails.DefaultAuthPhrase,
			AuthMode:   string(guardrails.AuthModeExact),
		},
		Backend: BackendConfig{
			Provider: ProviderStub,
			Timeout:  30 * time.Second,
			Location: "us-central1",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Tracing: tracing.OTelConfig{
			ServiceName:       "safety-shield",
			CollectorEndpoint: "localhost:4317",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load reads the YAML file at path on top of the defaults and then applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if !isValidFilePath(path) {
			return nil, fmt.Errorf("invalid config file path: %s", path)
		}

		data, err := os.ReadFile(path) // #nosec G304 - Path is validated with isValidFilePath() before use
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAuthPhrase); ok && v != "" {
		c.Policy.AuthPhrase = v
	}
	if v, ok := lookup(EnvAuthMode); ok && v != "" {
		c.Policy.AuthMode = v
	}
	if v, ok := lookup(EnvBackend); ok && v != "" {
		c.Backend.Provider = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}

	switch c.Backend.Provider {
	case ProviderGemini:
		c.Backend.APIKey, _ = lookup(EnvGeminiAPIKey)
	case ProviderOpenAI:
		c.Backend.APIKey, _ = lookup(EnvOpenAIAPIKey)
	case ProviderVertex:
		c.Backend.ProjectID, _ = lookup(EnvGoogleProject)
		c.Backend.CredentialsFile, _ = lookup(EnvGoogleCredsFile)
	}
}

// Validate checks the configuration without contacting any backend.
// Missing credentials are not an error here; they surface per request.
func (c *Config) Validate() error {
	if _, err := c.BuildPolicy(); err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}

	switch c.Backend.Provider {
	case ProviderGemini, ProviderVertex, ProviderOpenAI, ProviderStub:
	default:
		return fmt.Errorf("unknown backend provider %q", c.Backend.Provider)
	}

	if c.Backend.Timeout < 0 {
		return fmt.Errorf("backend timeout must not be negative")
	}

	for i, rule := range c.Backend.StubRules {
		if strings.TrimSpace(rule.Match) == "" {
			return fmt.Errorf("stub rule %d has an empty match", i)
		}
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q (want debug, info, warn or error)", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}

	return nil
}

// BuildPolicy returns the immutable policy described by the configuration
func (c *Config) BuildPolicy() (guardrails.Policy, error) {
	mode, err := guardrails.ParseAuthMode(c.Policy.AuthMode)
	if err != nil {
		return guardrails.Policy{}, err
	}

	input := c.Policy.InputDenyList
	if input == nil {
		input = guardrails.DefaultInputDenyList()
	}
	output := c.Policy.OutputDenyList
	if output == nil {
		output = guardrails.DefaultOutputDenyList()
	}

	return guardrails.NewPolicy(c.Policy.AuthPhrase, mode, input, output)
}

// isValidFilePath checks if a file path is valid and safe
func isValidFilePath(filePath string) bool {
	if filePath == "" {
		return false
	}

	cleanPath := filepath.Clean(filePath)

	// Check for path traversal attempts
	if strings.Contains(cleanPath, "..") {
		return false
	}

	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return false
	}

	if strings.HasPrefix(absPath, "/proc") ||
		strings.HasPrefix(absPath, "/sys") ||
		strings.HasPrefix(absPath, "/dev") {
		return false
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return false
	}

	// Ensure it's a regular file, not a directory or symlink
	return fileInfo.Mode().IsRegular()
}
