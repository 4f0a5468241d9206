package pipeline

import (
	"github.com/run-bigpig/safety-shield/pkg/guardrails"
	"github.com/run-bigpig/safety-shield/pkg/llm"
)

// Request is a single user submission
type Request struct {
	Prompt        string `json:"prompt"`
	Authorization string `json:"authorization"`
}

// Outcome tags the variant held by a Result
type Outcome string

const (
	OutcomeAccepted     Outcome = "accepted"
	OutcomeRejected     Outcome = "rejected"
	OutcomeBackendError Outcome = "backend_error"
)

// RejectReason says which check rejected the request
type RejectReason string

const (
	ReasonAuthFailed  RejectReason = "auth_failed"
	ReasonInputDenied RejectReason = "input_denied"
)

// Level is the severity of a log entry
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// LogEntry is a human readable line for the display surface
type LogEntry struct {
	State     State                    `json:"state"`
	Level     Level                    `json:"level"`
	Message   string                   `json:"message"`
	Guardrail guardrails.GuardrailType `json:"guardrail,omitempty"`
}

// Result is produced exactly once per request.
//
// Rejected results set Reason and Detail (the offending keyword for
// ReasonInputDenied). BackendError results set Failure and Detail.
// Accepted results set Text, Kept and Redacted.
// Guardrail names the check that rejected the request or redacted output.
type Result struct {
	RequestID string                   `json:"request_id"`
	Outcome   Outcome                  `json:"outcome"`
	State     State                    `json:"state"`
	Reason    RejectReason             `json:"reason,omitempty"`
	Guardrail guardrails.GuardrailType `json:"guardrail,omitempty"`
	Failure   llm.FailureKind          `json:"failure,omitempty"`
	Detail    string                   `json:"detail,omitempty"`
	Text      string                   `json:"text,omitempty"`
	Kept      []string                 `json:"kept,omitempty"`
	Redacted  []string                 `json:"redacted,omitempty"`
	Log       []LogEntry               `json:"log"`
	err       error
}

// Accepted reports whether the request produced text
func (r *Result) Accepted() bool {
	return r.Outcome == OutcomeAccepted
}

// Err returns the error behind a rejection or backend failure:
// guardrails.ErrAuthFailed, *guardrails.InputDeniedError or the backend
// error. It is nil for accepted results.
func (r *Result) Err() error {
	return r.err
}
