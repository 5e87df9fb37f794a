// Package resilience wraps external calls (repository access, the
// solver, any future outbound integration) with circuit breakers and
// retry policies so a failing dependency degrades instead of cascading.
package resilience

import (
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/vulcanmes/scheduler/internal/event"
)

// BreakerConfig parameterizes one named circuit breaker.
type BreakerConfig struct {
	Name              string
	FailureThreshold  uint32
	RecoveryTimeout   time.Duration
	HalfOpenMaxCalls  uint32
}

// Predefined breaker configurations, one per protected service.
var (
	DatabaseBreaker             = BreakerConfig{Name: "database", FailureThreshold: 3, RecoveryTimeout: 30 * time.Second, HalfOpenMaxCalls: 1}
	ExternalAPIBreaker          = BreakerConfig{Name: "external_api", FailureThreshold: 5, RecoveryTimeout: 60 * time.Second, HalfOpenMaxCalls: 1}
	SolverBreaker               = BreakerConfig{Name: "solver", FailureThreshold: 2, RecoveryTimeout: 120 * time.Second, HalfOpenMaxCalls: 1}
	SolverOptimizationBreaker   = BreakerConfig{Name: "solver_optimization", FailureThreshold: 2, RecoveryTimeout: 300 * time.Second, HalfOpenMaxCalls: 1}
	SolverMemoryBreaker         = BreakerConfig{Name: "solver_memory", FailureThreshold: 1, RecoveryTimeout: 600 * time.Second, HalfOpenMaxCalls: 1}
	SolverModelCreationBreaker  = BreakerConfig{Name: "solver_model_creation", FailureThreshold: 3, RecoveryTimeout: 60 * time.Second, HalfOpenMaxCalls: 1}
)

// Breaker guards one named dependency, translating gobreaker's state
// machine into the state names the rest of the system expects
// (closed/open/half-open) and publishing every transition as a
// CircuitBreakerStateChanged event.
type Breaker struct {
	name string
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker constructs a Breaker from cfg. dispatcher may be nil, in
// which case state transitions are simply not published.
func NewBreaker(cfg BreakerConfig, dispatcher *event.Dispatcher) *Breaker {
	b := &Breaker{name: cfg.Name}
	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenMaxCalls,
		Timeout:     cfg.RecoveryTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if dispatcher != nil {
				dispatcher.Dispatch(event.NewCircuitBreakerStateChanged(name, from.String(), to.String()))
			}
		},
	})
	return b
}

// Name returns the breaker's service name.
func (b *Breaker) Name() string { return b.name }

// State returns the breaker's current gobreaker state as a lowercase
// string ("closed", "half-open", "open").
func (b *Breaker) State() string { return b.cb.State().String() }

// StateGauge returns the breaker's state as the metric value the
// observability contract publishes: 0 closed, 0.5 half-open, 1 open.
func (b *Breaker) StateGauge() float64 {
	switch b.cb.State() {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 0.5
	default:
		return 0
	}
}

// ErrCircuitBreakerOpen is returned by Execute when the breaker is open
// and fast-fails the call. It is a distinguishable sentinel so callers
// (notably the retry engine) can treat it as non-retryable.
var ErrCircuitBreakerOpen = gobreaker.ErrOpenState

// Execute runs fn through the breaker. Any error fn returns (including
// ErrCircuitBreakerOpen, substituted by gobreaker itself when the
// breaker is open) is returned unwrapped.
func Execute[T any](b *Breaker, fn func() (T, error)) (T, error) {
	v, err := b.cb.Execute(func() (interface{}, error) { return fn() })
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Registry holds one Breaker per named service. It replaces a global
// mutable circuit-breaker table with an explicitly constructed,
// mutex-guarded instance that callers pass around.
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*Breaker
	dispatch *event.Dispatcher
}

// NewRegistry constructs an empty Registry. dispatcher may be nil.
func NewRegistry(dispatcher *event.Dispatcher) *Registry {
	return &Registry{breakers: make(map[string]*Breaker), dispatch: dispatcher}
}

// Get returns the Breaker for cfg.Name, constructing it on first use.
func (r *Registry) Get(cfg BreakerConfig) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[cfg.Name]; ok {
		return b
	}
	b := NewBreaker(cfg, r.dispatch)
	r.breakers[cfg.Name] = b
	return b
}

// All returns every breaker registered so far, for metrics export.
func (r *Registry) All() []*Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Breaker, 0, len(r.breakers))
	for _, b := range r.breakers {
		out = append(out, b)
	}
	return out
}
