package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/run-bigpig/safety-shield/pkg/guardrails"
	"github.com/run-bigpig/safety-shield/pkg/interfaces"
	"github.com/run-bigpig/safety-shield/pkg/llm"
	"github.com/run-bigpig/safety-shield/pkg/logging"
	"github.com/run-bigpig/safety-shield/pkg/tracing"
)

// Orchestrator runs the guarded generation pipeline. It holds only
// immutable state and is safe for concurrent use.
type Orchestrator struct {
	policy         guardrails.Policy
	backend        interfaces.LLM
	logger         logging.Logger
	tracer         *tracing.OTelTracer
	backendTimeout time.Duration
	newRequestID   func() string
}

// Option represents an option for configuring an Orchestrator
type Option func(*Orchestrator)

// WithLogger sets the structured logger
func WithLogger(logger logging.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithTracer sets the tracer used for the pipeline.run span
func WithTracer(tracer *tracing.OTelTracer) Option {
	return func(o *Orchestrator) {
		o.tracer = tracer
	}
}

// WithBackendTimeout bounds each backend call. Zero disables the bound.
func WithBackendTimeout(timeout time.Duration) Option {
	return func(o *Orchestrator) {
		o.backendTimeout = timeout
	}
}

// WithRequestIDGenerator replaces the UUID request ID generator
func WithRequestIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) {
		o.newRequestID = fn
	}
}

// New creates an orchestrator for policy and backend
func New(policy guardrails.Policy, backend interfaces.LLM, options ...Option) (*Orchestrator, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	if policy.AuthPhrase() == "" {
		return nil, errors.New("policy is not initialised, use guardrails.NewPolicy")
	}

	o := &Orchestrator{
		policy:       policy,
		backend:      backend,
		logger:       logging.NewNop(),
		tracer:       tracing.NewNoopTracer(),
		newRequestID: uuid.NewString,
	}

	for _, opt := range options {
		opt(o)
	}

	return o, nil
}

// Policy returns the policy the orchestrator enforces
func (o *Orchestrator) Policy() guardrails.Policy {
	return o.policy
}

// Backend returns the name of the backend
func (o *Orchestrator) Backend() string {
	return o.backend.Name()
}

// Run executes the pipeline for req to completion. reporter may be nil.
func (o *Orchestrator) Run(ctx context.Context, req Request, reporter Reporter) *Result {
	requestID := o.newRequestID()
	ctx = logging.WithRequestID(ctx, requestID)

	ctx, span := o.tracer.StartSpan(ctx, "pipeline.run", map[string]string{
		"backend": o.backend.Name(),
	})

	r := &run{
		o:        o,
		ctx:      ctx,
		req:      req,
		reporter: reporter,
		result: &Result{
			RequestID: requestID,
			State:     StateStart,
			Log:       []LogEntry{},
		},
	}

	r.transition(StateAuthorizing, LevelInfo, "Request received.")

	steps := []func(*run) bool{
		(*run).authorize,
		(*run).filterInput,
		(*run).generate,
		(*run).filterOutput,
	}
	for _, step := range steps {
		if !step(r) {
			break
		}
	}

	span.SetAttributes(
		attribute.String("outcome", string(r.result.Outcome)),
		attribute.String("state", string(r.result.State)),
		attribute.Int("redacted.count", len(r.result.Redacted)),
	)
	if r.result.Guardrail != "" {
		span.SetAttributes(attribute.String("guardrail", string(r.result.Guardrail)))
	}
	o.tracer.EndSpan(span, r.result.err)

	return r.result
}

// run is the mutable state of a single pipeline execution
type run struct {
	o        *Orchestrator
	ctx      context.Context
	req      Request
	reporter Reporter
	result   *Result
	raw      string

	// guardrail is attached to log entries emitted after a check triggers
	guardrail guardrails.GuardrailType
}

// authorize moves Authorizing to InputFiltering or Rejected
func (r *run) authorize() bool {
	decision := guardrails.CheckAuthorization(r.o.policy, r.req.Prompt, r.req.Authorization)
	if !decision.Allowed {
		r.reject(guardrails.AuthorizationGuardrail, ReasonAuthFailed, decision.Reason, decision.Err(),
			"Authorization failed: please enter the correct authorization phrase ("+decision.Reason+").")
		return false
	}

	r.transition(StateInputFiltering, LevelSuccess, "Authorization passed.")
	return true
}

// filterInput moves InputFiltering to Generating or Rejected
func (r *run) filterInput() bool {
	err := guardrails.ScanInput(r.req.Prompt, r.o.policy.InputDenyList())
	if err != nil {
		var denied *guardrails.InputDeniedError
		keyword := ""
		if errors.As(err, &denied) {
			keyword = denied.Keyword
		}
		r.reject(guardrails.InputFilterGuardrail, ReasonInputDenied, keyword, err,
			"Prompt guardrail triggered: "+err.Error()+". Please modify your request to proceed.")
		return false
	}

	r.transition(StateGenerating, LevelSuccess, "Input validation passed. Your prompt is safe.")
	return true
}

// generate moves Generating to OutputFiltering or Failed
func (r *run) generate() bool {
	r.emit(LevelInfo, fmt.Sprintf("Connecting to model: %s...", r.o.backend.Name()))

	ctx := r.ctx
	if r.o.backendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.o.backendTimeout)
		defer cancel()
	}

	text, err := r.o.backend.Generate(ctx, r.req.Prompt)
	if err != nil {
		r.result.Outcome = OutcomeBackendError
		r.result.Failure = llm.Classify(err)
		r.result.Detail = err.Error()
		r.result.err = err
		r.transition(StateFailed, LevelError, "An error occurred during generation: "+err.Error())
		return false
	}

	r.raw = text
	r.transition(StateOutputFiltering, LevelInfo, "Text generated. Applying output filters...")
	return true
}

// filterOutput moves OutputFiltering to Done
func (r *run) filterOutput() bool {
	filtered := guardrails.FilterOutput(r.raw, r.o.policy.OutputDenyList())
	if len(filtered.Redacted) > 0 {
		r.guardrail = guardrails.OutputFilterGuardrail
		r.result.Guardrail = guardrails.OutputFilterGuardrail
	}

	for i, line := range filtered.Redacted {
		r.emit(LevelWarning, fmt.Sprintf(
			"Output filter triggered: a potentially dangerous command (%q) was detected and will be removed. Line removed: `%s`",
			filtered.Matches[i], strings.TrimSpace(line)))
	}

	r.result.Outcome = OutcomeAccepted
	r.result.Text = filtered.Text()
	r.result.Kept = filtered.Kept
	r.result.Redacted = filtered.Redacted

	if len(filtered.Redacted) == 0 {
		r.transition(StateDone, LevelSuccess, "Output filters passed.")
	} else {
		r.transition(StateDone, LevelWarning,
			fmt.Sprintf("Output filtered: %d line(s) removed.", len(filtered.Redacted)))
	}
	return true
}

func (r *run) reject(guardrail guardrails.GuardrailType, reason RejectReason, detail string, err error, message string) {
	r.guardrail = guardrail
	r.result.Guardrail = guardrail
	r.result.Outcome = OutcomeRejected
	r.result.Reason = reason
	r.result.Detail = detail
	r.result.err = err
	r.transition(StateRejected, LevelError, message)
}

// transition moves the run to next and records the log entry
func (r *run) transition(next State, level Level, message string) {
	if !r.result.State.CanTransition(next) {
		panic(fmt.Sprintf("pipeline: illegal transition %s -> %s", r.result.State, next))
	}
	r.result.State = next
	r.emit(level, message)
}

// emit records a log entry for the current state
func (r *run) emit(level Level, message string) {
	entry := LogEntry{State: r.result.State, Level: level, Message: message, Guardrail: r.guardrail}
	r.result.Log = append(r.result.Log, entry)

	if r.reporter != nil {
		r.reporter.Report(entry)
	}

	fields := map[string]interface{}{"state": string(entry.State)}
	if entry.Guardrail != "" {
		fields["guardrail"] = string(entry.Guardrail)
	}
	switch level {
	case LevelError:
		r.o.logger.Error(r.ctx, message, fields)
	case LevelWarning:
		r.o.logger.Warn(r.ctx, message, fields)
	default:
		r.o.logger.Info(r.ctx, message, fields)
	}
}
