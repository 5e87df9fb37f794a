// Package observability defines the contract the core emits telemetry
// through — metrics, structured logs, and trace spans — without ever
// importing a concrete backend itself, plus the adapters that wire
// those interfaces to Prometheus, zap, and OpenTelemetry for
// cmd/server to compose.
package observability

import (
	"context"

	"github.com/google/uuid"
)

// MetricsSink is the core's only view of metrics. Names and label sets
// are fixed so every adapter exports the same series regardless of
// backend.
type MetricsSink interface {
	// ObserveSolveTime records one solve's wall-clock duration, labeled
	// by its final status (optimal/feasible/infeasible/timeout/...).
	// scheduler_solver_solve_time_seconds{status}
	ObserveSolveTime(status string, seconds float64)

	// SetCircuitBreakerState publishes a breaker's current state as
	// 0 (closed), 0.5 (half-open), or 1 (open).
	// scheduler_circuit_breaker_state{service}
	SetCircuitBreakerState(service string, state float64)

	// IncOptimizationFailure counts one solve failure by reason and
	// whether a fallback subsequently ran.
	// scheduler_optimization_failures_total{reason,fallback_used}
	IncOptimizationFailure(reason string, fallbackUsed bool)

	// IncFallbackActivation counts one fallback strategy invocation.
	// scheduler_fallback_activations_total{strategy,reason}
	IncFallbackActivation(strategy, reason string)

	// SetSolverMemoryUsage publishes one solve execution's peak
	// resident memory in MB.
	// scheduler_solver_memory_usage_mb{execution_id}
	SetSolverMemoryUsage(executionID string, mb float64)
}

// LogRecord is a structured log entry: a level, the operation that
// produced it, a correlation id, and free-form fields. It carries no
// timestamp field.
type LogRecord struct {
	Level         string
	Operation     string
	CorrelationID string
	Fields        map[string]any
}

// LogSink receives structured log records from the core. The core
// never formats or writes logs itself.
type LogSink interface {
	Log(record LogRecord)
}

// Span is one traced unit of work.
type Span interface {
	SetAttribute(key string, value any)
	RecordError(err error)
	End()
}

// Tracer starts trace spans for scheduling operations.
type Tracer interface {
	StartSpan(ctx context.Context, operation string) (context.Context, Span)
}

type correlationIDKey struct{}

// NewCorrelationID generates a fresh correlation id for one scheduling
// request.
func NewCorrelationID() string {
	return uuid.NewString()
}

// WithCorrelationID attaches id to ctx so every downstream log record
// and span in the same request can pick it up.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationIDFromContext retrieves the correlation id WithCorrelationID
// attached, if any.
func CorrelationIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(correlationIDKey{}).(string)
	return id, ok
}

// noopSink implements MetricsSink, LogSink, and Tracer with no-ops, for
// callers (tests, a dry-run CLI invocation) that don't want to wire a
// real backend.
type noopSink struct{}

// Noop returns a MetricsSink that discards every observation.
func Noop() MetricsSink { return noopSink{} }

// NoopLogSink returns a LogSink that discards every record.
func NoopLogSink() LogSink { return noopSink{} }

// NoopTracer returns a Tracer whose spans record nothing.
func NoopTracer() Tracer { return noopSink{} }

func (noopSink) ObserveSolveTime(string, float64)       {}
func (noopSink) SetCircuitBreakerState(string, float64) {}
func (noopSink) IncOptimizationFailure(string, bool)    {}
func (noopSink) IncFallbackActivation(string, string)   {}
func (noopSink) SetSolverMemoryUsage(string, float64)   {}

func (noopSink) Log(LogRecord) {}

func (noopSink) StartSpan(ctx context.Context, operation string) (context.Context, Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) SetAttribute(string, any) {}
func (noopSpan) RecordError(error)        {}
func (noopSpan) End()                     {}
