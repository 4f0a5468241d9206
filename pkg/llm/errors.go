package llm

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned before any network call when the backend
// has no credential configured
var ErrUnauthenticated = errors.New("backend credential is missing")

// TransportError is a network or HTTP level failure. StatusCode is zero
// when no response was received.
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("backend request failed: %v", e.Err)
	default:
		return "backend request failed"
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError means the backend answered successfully but the
// payload did not have the expected shape
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return "malformed backend response: " + e.Reason
}

// FailureKind classifies backend errors for reporting
type FailureKind string

const (
	FailureUnauthenticated   FailureKind = "unauthenticated"
	FailureTransport         FailureKind = "transport"
	FailureMalformedResponse FailureKind = "malformed_response"
)

// Classify maps err onto the backend failure taxonomy. Errors that are not
// part of the taxonomy, such as a cancelled context, count as transport
// failures.
func Classify(err error) FailureKind {
	var malformed *MalformedResponseError
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return FailureUnauthenticated
	case errors.As(err, &malformed):
		return FailureMalformedResponse
	default:
		return FailureTransport
	}
}
