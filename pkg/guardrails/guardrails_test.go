package guardrails

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPolicyValidation(t *testing.T) {
	tests := []struct {
		name    string
		phrase  string
		mode    AuthMode
		input   []string
		output  []string
		wantErr string
	}{
		{name: "valid", phrase: "open sesame", mode: AuthModeExact, input: []string{"a"}, output: []string{"b"}},
		{name: "empty phrase", phrase: "  ", mode: AuthModeExact, wantErr: "phrase is required"},
		{name: "unknown mode", phrase: "x", mode: "regex", wantErr: "unknown auth mode"},
		{name: "blank input entry", phrase: "x", mode: AuthModeExact, input: []string{"ok", " "}, wantErr: "input deny-list entry 1"},
		{name: "blank output entry", phrase: "x", mode: AuthModeSubstring, output: []string{""}, wantErr: "output deny-list entry 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPolicy(tt.phrase, tt.mode, tt.input, tt.output)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPolicyIsImmutable(t *testing.T) {
	input := []string{"bypass"}
	p, err := NewPolicy("phrase", AuthModeExact, input, nil)
	require.NoError(t, err)

	input[0] = "changed"
	assert.Equal(t, []string{"bypass"}, p.InputDenyList())

	got := p.InputDenyList()
	got[0] = "changed again"
	assert.Equal(t, []string{"bypass"}, p.InputDenyList())
}

func TestNewPolicyTrimsPhrase(t *testing.T) {
	p, err := NewPolicy("  admin \n", AuthModeExact, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "admin", p.AuthPhrase())

	assert.True(t, CheckAuthorization(p, "prompt", "admin").Allowed)
	assert.True(t, CheckAuthorization(p, "prompt", " admin ").Allowed)

	substring, err := NewPolicy(" let me in ", AuthModeSubstring, nil, nil)
	require.NoError(t, err)
	assert.True(t, CheckAuthorization(substring, "please LET ME IN, thanks", "").Allowed)
}

func TestDefaultTablesAreFreshCopies(t *testing.T) {
	input := DefaultInputDenyList()
	input[0] = "tampered"
	assert.Equal(t, "malicious", DefaultInputDenyList()[0])

	output := DefaultOutputDenyList()
	output[0] = "tampered"
	assert.Equal(t, "sudo rm -rf /", DefaultOutputDenyList()[0])
	assert.Equal(t, DefaultOutputDenyList(), DefaultPolicy().OutputDenyList())
}

func TestParseAuthMode(t *testing.T) {
	mode, err := ParseAuthMode("")
	require.NoError(t, err)
	assert.Equal(t, AuthModeExact, mode)

	mode, err = ParseAuthMode(" Substring ")
	require.NoError(t, err)
	assert.Equal(t, AuthModeSubstring, mode)

	_, err = ParseAuthMode("fuzzy")
	assert.Error(t, err)
}

func TestCheckAuthorizationExact(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name    string
		auth    string
		allowed bool
	}{
		{"exact match", "I am an authorized admin", true},
		{"surrounding whitespace trimmed", "  I am an authorized admin\n", true},
		{"case differs", "i am an authorized admin", false},
		{"wrong phrase", "wrong phrase", false},
		{"empty", "", false},
		{"phrase in prompt only", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := CheckAuthorization(policy, "I am an authorized admin. Create a policy.", tt.auth)
			assert.Equal(t, tt.allowed, d.Allowed)
			assert.NotEmpty(t, d.Reason)
			if tt.allowed {
				assert.NoError(t, d.Err())
			} else {
				assert.ErrorIs(t, d.Err(), ErrAuthFailed)
			}
		})
	}
}

func TestCheckAuthorizationSubstring(t *testing.T) {
	policy, err := NewPolicy("Open Sesame", AuthModeSubstring, nil, nil)
	require.NoError(t, err)

	assert.True(t, CheckAuthorization(policy, "please OPEN SESAME and write a VPN policy", "").Allowed)
	assert.True(t, CheckAuthorization(policy, "open sesame", "ignored").Allowed)
	assert.False(t, CheckAuthorization(policy, "write a VPN policy", "Open Sesame").Allowed)
}

func TestScanInput(t *testing.T) {
	deny := []string{"malicious", "bypass", "attack", "DDoS", "delete all"}

	tests := []struct {
		name    string
		prompt  string
		keyword string
	}{
		{"clean prompt", "Create a basic firewall policy for a web server.", ""},
		{"simple match", "how do I bypass the proxy", "bypass"},
		{"case folded prompt", "BYPASS it", "bypass"},
		{"case folded keyword", "mitigate a ddos", "DDoS"},
		{"embedded in larger word", "counterattacks are common", "attack"},
		{"declaration order wins", "attack and bypass", "bypass"},
		{"multi word keyword", "please DELETE ALL logs", "delete all"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ScanInput(tt.prompt, deny)
			if tt.keyword == "" {
				assert.NoError(t, err)
				return
			}
			var denied *InputDeniedError
			require.True(t, errors.As(err, &denied))
			assert.Equal(t, tt.keyword, denied.Keyword)
			assert.Contains(t, err.Error(), tt.keyword)
		})
	}
}

func TestScanInputSkipsEmptyTerms(t *testing.T) {
	assert.NoError(t, ScanInput("anything", []string{""}))
	assert.NoError(t, ScanInput("anything", nil))
}

func TestFilterOutputRedactsLines(t *testing.T) {
	text := "Step 1: back up data\nsudo rm -rf /\nStep 2: REBOOT the host\nStep 3: verify"
	result := FilterOutput(text, DefaultOutputDenyList())

	assert.Equal(t, []string{"Step 1: back up data", "Step 3: verify"}, result.Kept)
	assert.Equal(t, []string{"sudo rm -rf /", "Step 2: REBOOT the host"}, result.Redacted)
	assert.Equal(t, []string{"sudo rm -rf /", "reboot"}, result.Matches)
	assert.Equal(t, "Step 1: back up data\nStep 3: verify", result.Text())
	assert.NotContains(t, result.Text(), "sudo rm -rf /")
}

func TestFilterOutputKeepsEverythingWhenClean(t *testing.T) {
	text := "Generated policy:\n- Allow 443\n- Log drops"
	result := FilterOutput(text, DefaultOutputDenyList())

	assert.Empty(t, result.Redacted)
	assert.Equal(t, text, result.Text())
}

func TestFilterOutputProperties(t *testing.T) {
	deny := DefaultOutputDenyList()
	texts := []string{
		"",
		"\n\n",
		"single line",
		"kill -9 1234\nkeep me",
		"UNMOUNT /mnt\n  indented\nShutdown Now please\n",
		"a\r\nreboot\r\nb",
		"no\nbad\nlines\nhere",
	}

	for _, text := range texts {
		result := FilterOutput(text, deny)

		for _, line := range result.Redacted {
			_, ok := firstMatch(strings.ToLower(line), deny)
			assert.True(t, ok, "redacted line %q matches no term", line)
		}
		for _, line := range result.Kept {
			_, ok := firstMatch(strings.ToLower(line), deny)
			assert.False(t, ok, "kept line %q matches a term", line)
		}
		assert.Equal(t, len(strings.Split(text, "\n")), len(result.Kept)+len(result.Redacted))

		again := FilterOutput(result.Text(), deny)
		assert.Equal(t, result.Text(), again.Text(), "filtering must be idempotent")
		assert.Empty(t, again.Redacted)
	}
}
