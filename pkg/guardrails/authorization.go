package guardrails

import (
	"errors"
	"strings"
)

// ErrAuthFailed is returned when the authorization phrase is absent or wrong
var ErrAuthFailed = errors.New("authorization failed")

// AuthDecision is the outcome of an authorization check
type AuthDecision struct {
	Allowed bool
	Reason  string
}

// Err returns ErrAuthFailed for a denied decision
func (d AuthDecision) Err() error {
	if d.Allowed {
		return nil
	}
	return ErrAuthFailed
}

// CheckAuthorization applies the policy's matching mode. In exact mode the
// authorization field must equal the phrase after trimming; in substring
// mode the prompt must contain the phrase, ignoring case, and the
// authorization field is not consulted.
func CheckAuthorization(policy Policy, prompt, authorization string) AuthDecision {
	switch policy.authMode {
	case AuthModeSubstring:
		if strings.Contains(strings.ToLower(prompt), strings.ToLower(policy.authPhrase)) {
			return AuthDecision{Allowed: true, Reason: "authorization phrase found in prompt"}
		}
		return AuthDecision{Reason: "authorization phrase not found in prompt"}
	default:
		trimmed := strings.TrimSpace(authorization)
		if trimmed == "" {
			return AuthDecision{Reason: "authorization phrase is missing"}
		}
		if trimmed != policy.authPhrase {
			return AuthDecision{Reason: "authorization phrase does not match"}
		}
		return AuthDecision{Allowed: true, Reason: "authorization phrase matched"}
	}
}
