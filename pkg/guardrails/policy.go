package guardrails

import (
	"errors"
	"fmt"
	"strings"
)

// GuardrailType identifies one of the checks applied around a generation
type GuardrailType string

const (
	AuthorizationGuardrail GuardrailType = "authorization"
	InputFilterGuardrail   GuardrailType = "input_filter"
	OutputFilterGuardrail  GuardrailType = "output_filter"
)

// AuthMode selects how the authorization phrase is matched
type AuthMode string

const (
	// AuthModeExact compares a separate authorization field to the phrase
	// after trimming surrounding whitespace. Case-sensitive.
	AuthModeExact AuthMode = "exact"

	// AuthModeSubstring looks for the phrase anywhere inside the prompt,
	// ignoring case.
	AuthModeSubstring AuthMode = "substring"
)

// ParseAuthMode parses a configured mode name. Empty selects AuthModeExact.
func ParseAuthMode(s string) (AuthMode, error) {
	switch AuthMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", AuthModeExact:
		return AuthModeExact, nil
	case AuthModeSubstring:
		return AuthModeSubstring, nil
	default:
		return "", fmt.Errorf("unknown auth mode %q", s)
	}
}

// Policy holds the authorization phrase and deny-lists. It is immutable
// once built; accessors hand out copies.
type Policy struct {
	authPhrase     string
	authMode       AuthMode
	inputDenyList  []string
	outputDenyList []string
}

// DefaultAuthPhrase is used when configuration does not provide a phrase
const DefaultAuthPhrase = "I am an authorized admin"

// DefaultInputDenyList returns a fresh copy of the built-in input deny-list
func DefaultInputDenyList() []string {
	return []string{
		"malicious", "exploit", "unauthorized", "bypass", "attack",
		"shutdown", "delete all", "wipe", "DDoS", "phishing",
	}
}

// DefaultOutputDenyList returns a fresh copy of the built-in output deny-list
func DefaultOutputDenyList() []string {
	return []string{
		"sudo rm -rf /", "reboot", "shutdown now", "unmount", "kill -9",
	}
}

// NewPolicy validates the inputs and returns an immutable Policy. The
// phrase is stored trimmed, matching how the authorization field is compared.
func NewPolicy(authPhrase string, mode AuthMode, inputDenyList, outputDenyList []string) (Policy, error) {
	authPhrase = strings.TrimSpace(authPhrase)
	if authPhrase == "" {
		return Policy{}, errors.New("authorization phrase is required")
	}

	switch mode {
	case AuthModeExact, AuthModeSubstring:
	default:
		return Policy{}, fmt.Errorf("unknown auth mode %q", mode)
	}

	if err := validateDenyList("input", inputDenyList); err != nil {
		return Policy{}, err
	}
	if err := validateDenyList("output", outputDenyList); err != nil {
		return Policy{}, err
	}

	return Policy{
		authPhrase:     authPhrase,
		authMode:       mode,
		inputDenyList:  cloneStrings(inputDenyList),
		outputDenyList: cloneStrings(outputDenyList),
	}, nil
}

// DefaultPolicy returns the built-in policy tables in exact mode
func DefaultPolicy() Policy {
	p, err := NewPolicy(DefaultAuthPhrase, AuthModeExact, DefaultInputDenyList(), DefaultOutputDenyList())
	if err != nil {
		panic(err)
	}
	return p
}

// AuthPhrase returns the required authorization phrase
func (p Policy) AuthPhrase() string { return p.authPhrase }

// AuthMode returns the configured matching mode
func (p Policy) AuthMode() AuthMode { return p.authMode }

// InputDenyList returns a copy of the input deny-list in declaration order
func (p Policy) InputDenyList() []string { return cloneStrings(p.inputDenyList) }

// OutputDenyList returns a copy of the output deny-list in declaration order
func (p Policy) OutputDenyList() []string { return cloneStrings(p.outputDenyList) }

func validateDenyList(name string, list []string) error {
	for i, term := range list {
		if strings.TrimSpace(term) == "" {
			return fmt.Errorf("%s deny-list entry %d is empty", name, i)
		}
	}
	return nil
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
