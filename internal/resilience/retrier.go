package resilience

import (
	"errors"
	"math"
	"time"

	"github.com/avast/retry-go"

	"github.com/vulcanmes/scheduler/internal/resource"
)

// BackoffStrategy names one of the delay shapes the retry engine
// supports.
type BackoffStrategy string

const (
	FixedDelay        BackoffStrategy = "FIXED_DELAY"
	ExponentialBackoff BackoffStrategy = "EXPONENTIAL_BACKOFF"
	LinearBackoff     BackoffStrategy = "LINEAR_BACKOFF"
	FibonacciBackoff  BackoffStrategy = "FIBONACCI_BACKOFF"
)

// RetryPolicy configures one Retrier.Do call.
type RetryPolicy struct {
	Strategy       BackoffStrategy
	MaxAttempts    uint
	BaseDelay      time.Duration
	ExpBase        float64
	MaxDelay       time.Duration
	JitterMax      time.Duration
}

func (p RetryPolicy) maxAttempts() uint {
	if p.MaxAttempts == 0 {
		return 3
	}
	return p.MaxAttempts
}

func (p RetryPolicy) expBase() float64 {
	if p.ExpBase <= 1 {
		return 2
	}
	return p.ExpBase
}

// Attempt records one try within a retry session.
type Attempt struct {
	N        uint
	Duration time.Duration
	Err      error
}

// Session logs every attempt made during one Retrier.Do call and
// exposes the statistics the observability contract wants (success
// rate, average attempts).
type Session struct {
	Attempts []Attempt
}

// Succeeded reports whether the session's final attempt had no error.
func (s Session) Succeeded() bool {
	if len(s.Attempts) == 0 {
		return false
	}
	return s.Attempts[len(s.Attempts)-1].Err == nil
}

// AttemptCount is how many tries the session recorded.
func (s Session) AttemptCount() int { return len(s.Attempts) }

// Retrier runs operations under a RetryPolicy, translating the four
// backoff strategies into retry-go delay functions and marking
// non-retryable errors (memory exhaustion, circuit-breaker-open) so
// retry-go gives up immediately instead of burning the full attempt
// budget on a failure mode retrying cannot fix.
type Retrier struct {
	Policy RetryPolicy
}

// NewRetrier constructs a Retrier with the given policy.
func NewRetrier(policy RetryPolicy) *Retrier {
	return &Retrier{Policy: policy}
}

// nonRetryable reports whether err belongs to the stop-list: callers
// should wrap such errors with retry.Unrecoverable before returning
// them from the retried function, but Retrier also recognizes the
// sentinel itself so the stop-list is enforced even if a caller
// forgets to wrap it.
func nonRetryable(err error) bool {
	return errors.Is(err, ErrCircuitBreakerOpen) || errors.Is(err, resource.ErrMemoryExceeded)
}

func (r *Retrier) delayType() retry.DelayTypeFunc {
	p := r.Policy
	base := func(n uint, err error, cfg *retry.Config) time.Duration {
		switch p.Strategy {
		case FixedDelay:
			return p.BaseDelay
		case LinearBackoff:
			return p.BaseDelay * time.Duration(n+1)
		case FibonacciBackoff:
			return p.BaseDelay * time.Duration(fibonacci(n+1))
		case ExponentialBackoff:
			fallthrough
		default:
			return time.Duration(float64(p.BaseDelay) * math.Pow(p.expBase(), float64(n)))
		}
	}
	if p.JitterMax <= 0 {
		return capDelay(base, p.MaxDelay)
	}
	jittered := retry.CombineDelay(base, retry.RandomDelay)
	return capDelay(jittered, p.MaxDelay)
}

func capDelay(fn retry.DelayTypeFunc, max time.Duration) retry.DelayTypeFunc {
	if max <= 0 {
		return fn
	}
	return func(n uint, err error, cfg *retry.Config) time.Duration {
		d := fn(n, err, cfg)
		if d > max {
			return max
		}
		return d
	}
}

func fibonacci(n uint) uint {
	if n <= 1 {
		return n
	}
	a, b := uint(0), uint(1)
	for i := uint(2); i <= n; i++ {
		a, b = b, a+b
	}
	return b
}

// Do runs fn, retrying per the configured policy, and returns the
// session log alongside fn's final error.
func (r *Retrier) Do(fn func() error) (Session, error) {
	session := Session{}

	wrapped := func() error {
		start := time.Now()
		err := fn()
		session.Attempts = append(session.Attempts, Attempt{
			N: uint(len(session.Attempts)) + 1, Duration: time.Since(start), Err: err,
		})
		if nonRetryable(err) {
			return retry.Unrecoverable(err)
		}
		return err
	}

	opts := []retry.Option{
		retry.Attempts(r.Policy.maxAttempts()),
		retry.DelayType(r.delayType()),
		retry.LastErrorOnly(true),
	}
	if r.Policy.JitterMax > 0 {
		opts = append(opts, retry.MaxJitter(r.Policy.JitterMax))
	}

	retryErr := retry.Do(wrapped, opts...)
	if retryErr == nil {
		return session, nil
	}
	// The session log keeps the original, unwrapped error from fn itself;
	// return that rather than whatever internal type retry.Do used to
	// carry the Unrecoverable marker, so callers can compare it directly
	// against sentinels like ErrCircuitBreakerOpen.
	return session, session.Attempts[len(session.Attempts)-1].Err
}
