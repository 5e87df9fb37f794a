package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements MetricsSink over prometheus/client_golang
// CounterVec/HistogramVec/GaugeVec collectors, registered against a
// caller-supplied registerer so cmd/server controls which registry (the
// default or a scoped one, as in tests) the series land in.
type PrometheusMetrics struct {
	solveTime            *prometheus.HistogramVec
	circuitBreakerState  *prometheus.GaugeVec
	optimizationFailures *prometheus.CounterVec
	fallbackActivations  *prometheus.CounterVec
	solverMemoryUsage    *prometheus.GaugeVec
}

// NewPrometheusMetrics constructs and registers the scheduler's fixed
// metric set against reg.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	m := &PrometheusMetrics{
		solveTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scheduler_solver_solve_time_seconds",
			Help:    "Wall-clock duration of a solve attempt, by final status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		circuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scheduler_circuit_breaker_state",
			Help: "Circuit breaker state per service: 0 closed, 0.5 half-open, 1 open.",
		}, []string{"service"}),
		optimizationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_optimization_failures_total",
			Help: "Count of solve failures by reason and whether a fallback ran.",
		}, []string{"reason", "fallback_used"}),
		fallbackActivations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_fallback_activations_total",
			Help: "Count of fallback strategy invocations by strategy and reason.",
		}, []string{"strategy", "reason"}),
		solverMemoryUsage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scheduler_solver_memory_usage_mb",
			Help: "Peak resident memory observed during one solve execution, in MB.",
		}, []string{"execution_id"}),
	}

	collectors := []prometheus.Collector{
		m.solveTime, m.circuitBreakerState, m.optimizationFailures,
		m.fallbackActivations, m.solverMemoryUsage,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *PrometheusMetrics) ObserveSolveTime(status string, seconds float64) {
	m.solveTime.WithLabelValues(status).Observe(seconds)
}

func (m *PrometheusMetrics) SetCircuitBreakerState(service string, state float64) {
	m.circuitBreakerState.WithLabelValues(service).Set(state)
}

func (m *PrometheusMetrics) IncOptimizationFailure(reason string, fallbackUsed bool) {
	m.optimizationFailures.WithLabelValues(reason, strconv.FormatBool(fallbackUsed)).Inc()
}

func (m *PrometheusMetrics) IncFallbackActivation(strategy, reason string) {
	m.fallbackActivations.WithLabelValues(strategy, reason).Inc()
}

func (m *PrometheusMetrics) SetSolverMemoryUsage(executionID string, mb float64) {
	m.solverMemoryUsage.WithLabelValues(executionID).Set(mb)
}
