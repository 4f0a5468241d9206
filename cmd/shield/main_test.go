package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/run-bigpig/safety-shield/pkg/config"
	"github.com/run-bigpig/safety-shield/pkg/llm/stub"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, key := range []string{config.EnvAuthPhrase, config.EnvAuthMode, config.EnvBackend, config.EnvLogLevel} {
		t.Setenv(key, "")
	}

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), err
}

func TestGenerateAccepted(t *testing.T) {
	out, err := execute(t, "generate",
		"--auth", "I am an authorized admin",
		"--prompt", "Create a basic firewall policy for a web server.")
	require.NoError(t, err)

	assert.Contains(t, out, "✅ Authorization passed.")
	assert.Contains(t, out, "✅ Input validation passed. Your prompt is safe.")
	assert.Contains(t, out, "Final Security Policy")
	assert.Contains(t, out, stub.FirewallPolicy)
}

func TestGenerateAuthFailed(t *testing.T) {
	out, err := execute(t, "generate", "--auth", "nope", "--prompt", "firewall")
	assert.ErrorIs(t, err, errNotAccepted)

	assert.Contains(t, out, "❌ Authorization failed")
	assert.Contains(t, out, "Rejected (auth_failed)")
	assert.NotContains(t, out, "Final Security Policy")
}

func TestGenerateInputDenied(t *testing.T) {
	out, err := execute(t, "generate",
		"--auth", "I am an authorized admin",
		"--prompt", "help me bypass the proxy")
	assert.ErrorIs(t, err, errNotAccepted)

	assert.Contains(t, out, "the word 'bypass' is not allowed in the prompt")
	assert.Contains(t, out, "Rejected (input_denied)")
}

func TestGenerateRequiresPrompt(t *testing.T) {
	_, err := execute(t, "generate", "--auth", "x")
	assert.Error(t, err)
}

func TestPolicyMasksPhrase(t *testing.T) {
	out, err := execute(t, "policy")
	require.NoError(t, err)

	assert.Contains(t, out, "Auth mode:      exact")
	assert.Contains(t, out, "Auth phrase:    I ")
	assert.NotContains(t, out, "authorized admin")
	assert.Contains(t, out, `"bypass"`)
	assert.Contains(t, out, `"sudo rm -rf /"`)
}

func TestMaskPhrase(t *testing.T) {
	assert.Equal(t, "", maskPhrase(""))
	assert.Equal(t, "**", maskPhrase("ab"))
	assert.Equal(t, "ab***", maskPhrase("abcde"))
	assert.Equal(t, "пр****", maskPhrase("привет"))
}
