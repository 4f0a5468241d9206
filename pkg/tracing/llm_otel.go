package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/run-bigpig/safety-shield/pkg/interfaces"
	"github.com/run-bigpig/safety-shield/pkg/llm"
)

// LLMOTelMiddleware wraps an LLM with OpenTelemetry tracing
type LLMOTelMiddleware struct {
	llm    interfaces.LLM
	tracer *OTelTracer
}

// NewLLMOTelMiddleware creates a new LLMOTelMiddleware
func NewLLMOTelMiddleware(llm interfaces.LLM, tracer *OTelTracer) *LLMOTelMiddleware {
	return &LLMOTelMiddleware{
		llm:    llm,
		tracer: tracer,
	}
}

// Generate implements interfaces.LLM.Generate
func (m *LLMOTelMiddleware) Generate(ctx context.Context, prompt string) (string, error) {
	attributes := map[string]string{
		"prompt.length": fmt.Sprintf("%d", len(prompt)),
		"model":         m.llm.Name(),
	}

	ctx, span := m.tracer.StartSpan(ctx, "llm.generate", attributes)

	response, err := m.llm.Generate(ctx, prompt)
	if err == nil {
		span.SetAttributes(attribute.Int("response.length", len(response)))
	} else {
		span.SetAttributes(attribute.String("failure", string(llm.Classify(err))))
	}

	m.tracer.EndSpan(span, err)
	return response, err
}

// Name implements interfaces.LLM.Name
func (m *LLMOTelMiddleware) Name() string {
	return m.llm.Name()
}
