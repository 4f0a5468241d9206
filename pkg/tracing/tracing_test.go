package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/run-bigpig/safety-shield/pkg/llm"
	"github.com/run-bigpig/safety-shield/pkg/llm/stub"
	"github.com/run-bigpig/safety-shield/pkg/logging"
)

func TestDisabledTracerPassesThrough(t *testing.T) {
	tracer, err := NewOTelTracer(context.Background(), OTelConfig{Enabled: false})
	require.NoError(t, err)

	backend := stub.Default()
	wrapped := NewLLMOTelMiddleware(backend, tracer)

	resp, err := wrapped.Generate(context.Background(), "firewall")
	require.NoError(t, err)
	assert.Equal(t, stub.FirewallPolicy, resp)
	assert.Equal(t, "stub", wrapped.Name())
	assert.Equal(t, 1, backend.Calls())
	assert.NoError(t, tracer.Shutdown(context.Background()))
}

func TestMiddlewareRecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := newTracer(tp, "shield-test")

	ctx := logging.WithRequestID(context.Background(), "req-1")

	ok := NewLLMOTelMiddleware(stub.Default(), tracer)
	_, err := ok.Generate(ctx, "vpn")
	require.NoError(t, err)

	failing := NewLLMOTelMiddleware(stub.New(stub.WithError(llm.ErrUnauthenticated)), tracer)
	_, err = failing.Generate(ctx, "vpn")
	require.ErrorIs(t, err, llm.ErrUnauthenticated)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	first := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		first[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "llm.generate", spans[0].Name())
	assert.Equal(t, "req-1", first["request_id"])
	assert.Equal(t, "stub", first["model"])
	assert.Equal(t, "3", first["prompt.length"])

	second := map[string]string{}
	for _, kv := range spans[1].Attributes() {
		second[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "unauthenticated", second["failure"])
	assert.NotEmpty(t, spans[1].Events(), "error should be recorded")

	assert.NoError(t, tracer.Shutdown(context.Background()))
}
