package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestCorrelationIDRoundTripsThroughContext(t *testing.T) {
	id := NewCorrelationID()
	assert.NotEmpty(t, id)

	ctx := WithCorrelationID(context.Background(), id)
	got, ok := CorrelationIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = CorrelationIDFromContext(context.Background())
	assert.False(t, ok)
}

func TestNoopSinkDoesNotPanic(t *testing.T) {
	sink := Noop()
	sink.ObserveSolveTime("optimal", 1.0)
	sink.SetCircuitBreakerState("solver", 0.5)
	sink.IncOptimizationFailure("SOLVER_TIMEOUT", true)
	sink.IncFallbackActivation("GREEDY", "NO_FEASIBLE_SOLUTION")
	sink.SetSolverMemoryUsage("exec-1", 128)
}

func TestPrometheusMetricsRegistersAndRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPrometheusMetrics(reg)
	require.NoError(t, err)

	m.ObserveSolveTime("optimal", 1.25)
	m.SetCircuitBreakerState("solver", 1.0)
	m.IncOptimizationFailure("MEMORY_EXHAUSTION", true)
	m.IncFallbackActivation("PRIORITY_BASED", "MEMORY_EXHAUSTION")
	m.SetSolverMemoryUsage("exec-42", 512)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		names[f.GetName()] = f
	}

	require.Contains(t, names, "scheduler_solver_solve_time_seconds")
	require.Contains(t, names, "scheduler_circuit_breaker_state")
	require.Contains(t, names, "scheduler_optimization_failures_total")
	require.Contains(t, names, "scheduler_fallback_activations_total")
	require.Contains(t, names, "scheduler_solver_memory_usage_mb")

	gauge := names["scheduler_circuit_breaker_state"]
	require.Len(t, gauge.Metric, 1)
	assert.Equal(t, 1.0, gauge.Metric[0].GetGauge().GetValue())
}

type capturingLogSink struct {
	records []LogRecord
}

func (c *capturingLogSink) Log(r LogRecord) { c.records = append(c.records, r) }

func TestCapturingLogSinkRecordsLogs(t *testing.T) {
	sink := &capturingLogSink{}
	sink.Log(LogRecord{Level: "info", Operation: "solve", CorrelationID: "abc", Fields: map[string]any{"jobs": 3}})
	require.Len(t, sink.records, 1)
	assert.Equal(t, "solve", sink.records[0].Operation)
}

func TestOtelTracerStartsAndEndsSpanWithoutPanicking(t *testing.T) {
	tracer := NewOtelTracer(noop.NewTracerProvider().Tracer("scheduler-test"))

	_, span := tracer.StartSpan(context.Background(), "solve")
	span.SetAttribute("jobs", 3)
	span.SetAttribute("status", "optimal")
	span.RecordError(errors.New("boom"))
	span.End()
}
