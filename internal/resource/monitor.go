// Package resource wraps one solve attempt with the operational limits
// a CP solve needs: a hard wall-clock deadline with a grace period, a
// resident-memory watchdog that cancels the attempt if it runs away,
// and a scoped temp directory that's removed on every exit path.
package resource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/vulcanmes/scheduler/internal/solver"
)

// DefaultMaxTimeSeconds is the solve deadline used when Limits doesn't
// specify one.
const DefaultMaxTimeSeconds = 300

// GraceSeconds is added to MaxTimeSeconds before the monitor
// force-cancels a solve that ignores its own deadline.
const GraceSeconds = 10

const memoryPollInterval = time.Second

// Limits bounds one solve attempt.
type Limits struct {
	MaxTimeSeconds   int
	NumSearchWorkers int
	MaxMemoryMB      int64
}

func (l Limits) maxTimeSeconds() int {
	if l.MaxTimeSeconds <= 0 {
		return DefaultMaxTimeSeconds
	}
	return l.MaxTimeSeconds
}

// ErrMemoryExceeded is returned when a solve attempt's resident memory
// crossed Limits.MaxMemoryMB before it finished.
var ErrMemoryExceeded = errors.New("resource: solve exceeded max_memory_mb")

type tempDirKey struct{}

// TempDirFromContext returns the scoped temp directory Monitor.Run
// created for the running solve, if any.
func TempDirFromContext(ctx context.Context) (string, bool) {
	dir, ok := ctx.Value(tempDirKey{}).(string)
	return dir, ok
}

// Monitor enforces Limits around a solve attempt.
type Monitor struct {
	limits     Limits
	residentMB func() (float64, error)
}

// NewMonitor builds a Monitor that reads this process's own resident
// memory via gopsutil.
func NewMonitor(limits Limits) (*Monitor, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("resource: monitor init: %w", err)
	}
	return &Monitor{
		limits: limits,
		residentMB: func() (float64, error) {
			info, err := proc.MemoryInfo()
			if err != nil {
				return 0, err
			}
			return float64(info.RSS) / (1024 * 1024), nil
		},
	}, nil
}

// Run executes fn under a deadline of MaxTimeSeconds+GraceSeconds and,
// when MaxMemoryMB is set, a memory watchdog sampling every second. fn
// receives a context carrying a scoped temp directory (retrievable via
// TempDirFromContext) that is removed when Run returns, regardless of
// outcome.
//
// Run returns ErrMemoryExceeded if the watchdog fired, the deadline
// context's error if the grace period elapsed, or fn's own result
// otherwise.
func (m *Monitor) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	deadline := time.Duration(m.limits.maxTimeSeconds()+GraceSeconds) * time.Second
	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	tmpDir, err := os.MkdirTemp("", "scheduler-solve-*")
	if err != nil {
		return fmt.Errorf("resource: scoped temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)
	runCtx = context.WithValue(runCtx, tempDirKey{}, tmpDir)

	done := make(chan error, 1)
	go func() { done <- fn(runCtx) }()

	if m.limits.MaxMemoryMB <= 0 || m.residentMB == nil {
		select {
		case err := <-done:
			return err
		case <-runCtx.Done():
			return runCtx.Err()
		}
	}

	ticker := time.NewTicker(memoryPollInterval)
	defer ticker.Stop()
	for {
		select {
		case err := <-done:
			return err
		case <-runCtx.Done():
			return runCtx.Err()
		case <-ticker.C:
			mb, err := m.residentMB()
			if err == nil && mb > float64(m.limits.MaxMemoryMB) {
				cancel()
				<-done
				return ErrMemoryExceeded
			}
		}
	}
}

// SolveWithLimits runs s.Solve under Run's deadline and memory
// enforcement, translating a watchdog trip or an expired grace
// deadline into the solver's own status vocabulary so callers don't
// need to know which layer detected the failure.
//
// NumSearchWorkers is accepted for parity with a production CP-SAT
// binding's search-parallelism knob; GreedyCPAdapter is a
// single-threaded deterministic search and does not use it.
func (m *Monitor) SolveWithLimits(ctx context.Context, s solver.Solver, model solver.Model) (solver.Solution, solver.SolverMetrics, error) {
	var sol solver.Solution
	var metrics solver.SolverMetrics

	err := m.Run(ctx, func(runCtx context.Context) error {
		var solveErr error
		sol, metrics, solveErr = s.Solve(runCtx, model)
		return solveErr
	})

	switch {
	case errors.Is(err, ErrMemoryExceeded):
		metrics.Status = solver.StatusMemoryExceeded
	case errors.Is(err, context.DeadlineExceeded):
		metrics.Status = solver.StatusTimeout
	}
	return sol, metrics, err
}
