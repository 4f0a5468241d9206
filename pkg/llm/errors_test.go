package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"unauthenticated", ErrUnauthenticated, FailureUnauthenticated},
		{"wrapped unauthenticated", fmt.Errorf("gemini: %w", ErrUnauthenticated), FailureUnauthenticated},
		{"http status", &TransportError{StatusCode: 500, Body: "boom"}, FailureTransport},
		{"malformed", &MalformedResponseError{Reason: "no candidates"}, FailureMalformedResponse},
		{"wrapped malformed", fmt.Errorf("x: %w", &MalformedResponseError{Reason: "y"}), FailureMalformedResponse},
		{"deadline", context.DeadlineExceeded, FailureTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestTransportErrorMessage(t *testing.T) {
	withStatus := &TransportError{StatusCode: 403, Body: `{"error":"denied"}`}
	assert.Equal(t, `backend returned status 403: {"error":"denied"}`, withStatus.Error())

	cause := errors.New("connection refused")
	network := &TransportError{Err: cause}
	assert.Contains(t, network.Error(), "connection refused")
	assert.ErrorIs(t, network, cause)
}
