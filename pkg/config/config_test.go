package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/run-bigpig/safety-shield/pkg/guardrails"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvAuthPhrase, EnvAuthMode, EnvBackend, EnvLogLevel,
		EnvGeminiAPIKey, EnvOpenAIAPIKey, EnvGoogleProject, EnvGoogleCredsFile,
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shield.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ProviderStub, cfg.Backend.Provider)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout)

	policy, err := cfg.BuildPolicy()
	require.NoError(t, err)
	assert.Equal(t, guardrails.DefaultAuthPhrase, policy.AuthPhrase())
	assert.Equal(t, guardrails.AuthModeExact, policy.AuthMode())
	assert.Equal(t, guardrails.DefaultInputDenyList(), policy.InputDenyList())
	assert.Equal(t, guardrails.DefaultOutputDenyList(), policy.OutputDenyList())
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvGeminiAPIKey, "secret-key")

	path := writeConfig(t, `
policy:
  auth_phrase: "open sesame"
  auth_mode: substring
  input_deny_list: ["drop table", "exfiltrate"]
  output_deny_list: []
backend:
  provider: gemini
  model: gemini-2.0-flash
  timeout: 5s
logging:
  level: debug
  format: json
server:
  addr: "127.0.0.1:9090"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderGemini, cfg.Backend.Provider)
	assert.Equal(t, "gemini-2.0-flash", cfg.Backend.Model)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "secret-key", cfg.Backend.APIKey)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr)

	policy, err := cfg.BuildPolicy()
	require.NoError(t, err)
	assert.Equal(t, "open sesame", policy.AuthPhrase())
	assert.Equal(t, guardrails.AuthModeSubstring, policy.AuthMode())
	assert.Equal(t, []string{"drop table", "exfiltrate"}, policy.InputDenyList())
	assert.Empty(t, policy.OutputDenyList())
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAuthPhrase, "from env")
	t.Setenv(EnvBackend, ProviderVertex)
	t.Setenv(EnvGoogleProject, "my-project")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "from env", cfg.Policy.AuthPhrase)
	assert.Equal(t, ProviderVertex, cfg.Backend.Provider)
	assert.Equal(t, "my-project", cfg.Backend.ProjectID)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadStubRules(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
backend:
  provider: stub
  stub_rules:
    - match: firewall
      response: "allow 443"
  stub_fallback: "nothing to say"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Backend.StubRules, 1)
	assert.Equal(t, "firewall", cfg.Backend.StubRules[0].Match)
	assert.Equal(t, "nothing to say", cfg.Backend.StubFallback)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown provider", "backend:\n  provider: carrier-pigeon\n", "unknown backend provider"},
		{"unknown auth mode", "policy:\n  auth_mode: regex\n", "invalid policy"},
		{"blank deny entry", "policy:\n  input_deny_list: [\"ok\", \"\"]\n", "invalid policy"},
		{"empty phrase", "policy:\n  auth_phrase: \"\"\n", "invalid policy"},
		{"bad log format", "logging:\n  format: xml\n", "unknown log format"},
		{"upper case log level", "logging:\n  level: WARN\n", "unknown log level"},
		{"unknown log level", "logging:\n  level: verbose\n", "unknown log level"},
		{"empty stub match", "backend:\n  stub_rules:\n    - match: \"\"\n      response: always\n", "stub rule 0 has an empty match"},
		{"negative timeout", "backend:\n  timeout: -1s\n", "timeout"},
		{"bad yaml", "policy: [", "failed to unmarshal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadInvalidPath(t *testing.T) {
	clearEnv(t)

	_, err := Load("../shield.yaml")
	assert.Error(t, err)

	_, err = Load(t.TempDir())
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
