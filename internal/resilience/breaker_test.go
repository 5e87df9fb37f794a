package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulcanmes/scheduler/internal/event"
)

func TestBreakerTripsAfterConsecutiveFailures(t *testing.T) {
	cfg := BreakerConfig{Name: "test-trip", FailureThreshold: 2, RecoveryTimeout: 50 * time.Millisecond, HalfOpenMaxCalls: 1}
	b := NewBreaker(cfg, nil)

	boom := errors.New("boom")
	failing := func() (int, error) { return 0, boom }

	_, err := Execute(b, failing)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, "closed", b.State())

	_, err = Execute(b, failing)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, "open", b.State())

	_, err = Execute(b, failing)
	assert.ErrorIs(t, err, ErrCircuitBreakerOpen)
}

func TestBreakerHalfOpenSuccessCloses(t *testing.T) {
	cfg := BreakerConfig{Name: "test-half-open-close", FailureThreshold: 1, RecoveryTimeout: 20 * time.Millisecond, HalfOpenMaxCalls: 1}
	b := NewBreaker(cfg, nil)

	boom := errors.New("boom")
	_, err := Execute(b, func() (int, error) { return 0, boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, "open", b.State())

	time.Sleep(30 * time.Millisecond)

	v, err := Execute(b, func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, "closed", b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	cfg := BreakerConfig{Name: "test-half-open-reopen", FailureThreshold: 1, RecoveryTimeout: 20 * time.Millisecond, HalfOpenMaxCalls: 1}
	b := NewBreaker(cfg, nil)

	boom := errors.New("boom")
	_, _ = Execute(b, func() (int, error) { return 0, boom })
	assert.Equal(t, "open", b.State())

	time.Sleep(30 * time.Millisecond)

	_, err := Execute(b, func() (int, error) { return 0, boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, "open", b.State())
}

func TestBreakerStateGaugeMatchesSpecValues(t *testing.T) {
	cfg := BreakerConfig{Name: "test-gauge", FailureThreshold: 1, RecoveryTimeout: 20 * time.Millisecond, HalfOpenMaxCalls: 1}
	b := NewBreaker(cfg, nil)
	assert.Equal(t, 0.0, b.StateGauge())

	_, _ = Execute(b, func() (int, error) { return 0, errors.New("boom") })
	assert.Equal(t, 1.0, b.StateGauge())
}

func TestBreakerPublishesStateChangeEvents(t *testing.T) {
	cfg := BreakerConfig{Name: "test-events", FailureThreshold: 1, RecoveryTimeout: 20 * time.Millisecond, HalfOpenMaxCalls: 1}
	dispatcher := event.NewDispatcher()
	var seen []event.CircuitBreakerStateChanged
	dispatcher.Subscribe("CircuitBreakerStateChanged", func(e event.Event) {
		seen = append(seen, e.(event.CircuitBreakerStateChanged))
	})

	b := NewBreaker(cfg, dispatcher)
	_, _ = Execute(b, func() (int, error) { return 0, errors.New("boom") })

	require.Len(t, seen, 1)
	assert.Equal(t, "open", seen[0].New)
	assert.Equal(t, "test-events", seen[0].Service)
}

func TestRegistryReturnsSameBreakerPerName(t *testing.T) {
	reg := NewRegistry(nil)
	a := reg.Get(DatabaseBreaker)
	b := reg.Get(DatabaseBreaker)
	assert.Same(t, a, b)
	assert.Len(t, reg.All(), 1)
}
