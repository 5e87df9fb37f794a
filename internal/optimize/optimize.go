// Package optimize implements the hierarchical two-phase optimization
// orchestrator: solve for the primary objective (tardiness, then
// makespan), then re-solve for operator cost without giving back more
// than a configured tolerance of the primary objective.
package optimize

import (
	"context"

	"github.com/vulcanmes/scheduler/internal/solver"
)

// DefaultTolerance is how much of the Phase 1 primary objective Phase 2
// may give back in exchange for a lower operator cost.
const DefaultTolerance = 0.10

// CostAwareSolver is a Solver that can be told to favor cheaper
// operator candidates. GreedyCPAdapter implements it; a production
// CP-SAT binding would instead encode the Phase 2 bound and objective
// swap directly into the model, but the orchestration shape here is
// the same either way.
type CostAwareSolver interface {
	solver.Solver
	PreferLowestCost(prefer bool)
}

// Config tunes the orchestrator.
type Config struct {
	// Tolerance is how much worse Phase 2's primary objective may be
	// than Phase 1's, as a fraction (0.10 = 10%). Zero means
	// DefaultTolerance.
	Tolerance float64
	// SinglePhase minimizes w_primary*primary + operator_cost directly
	// in one solve instead of running the two-phase hierarchy.
	SinglePhase bool
}

func (c Config) tolerance() float64 {
	if c.Tolerance == 0 {
		return DefaultTolerance
	}
	return c.Tolerance
}

// Result is what the orchestrator returns: the chosen solution and
// metrics, the Phase 1 primary objective value for reference, and
// whether Phase 2 replaced Phase 1's solution.
type Result struct {
	Solution      solver.Solution
	Metrics       solver.SolverMetrics
	Phase1Primary float64
	Phase2Used    bool
}

// Orchestrator drives one Solver through the hierarchical solve.
type Orchestrator struct {
	Solver solver.Solver
	Config Config
}

// NewOrchestrator constructs an Orchestrator over s with cfg.
func NewOrchestrator(s solver.Solver, cfg Config) *Orchestrator {
	return &Orchestrator{Solver: s, Config: cfg}
}

// Schedule runs the hierarchical (or single-phase) solve against model
// and returns the winning result.
func (o *Orchestrator) Schedule(ctx context.Context, model solver.Model) (Result, error) {
	costAware, isCostAware := o.Solver.(CostAwareSolver)

	if o.Config.SinglePhase {
		if isCostAware {
			costAware.PreferLowestCost(true)
			defer costAware.PreferLowestCost(false)
		}
		sol, metrics, err := o.Solver.Solve(ctx, model)
		return Result{
			Solution:      sol,
			Metrics:       metrics,
			Phase1Primary: sol.Primary(model.PrimaryWeight),
		}, err
	}

	if isCostAware {
		costAware.PreferLowestCost(false)
	}
	phase1Sol, phase1Metrics, err := o.Solver.Solve(ctx, model)
	if err != nil {
		return Result{Solution: phase1Sol, Metrics: phase1Metrics}, err
	}

	result := Result{
		Solution:      phase1Sol,
		Metrics:       phase1Metrics,
		Phase1Primary: phase1Sol.Primary(model.PrimaryWeight),
	}

	if !isCostAware || !phase1Sol.Feasible {
		return result, nil
	}

	costAware.PreferLowestCost(true)
	defer costAware.PreferLowestCost(false)

	phase2Sol, phase2Metrics, err := o.Solver.Solve(ctx, model)
	if err != nil || !phase2Sol.Feasible || phase2Metrics.Status == solver.StatusTimeout {
		return result, nil
	}

	bound := result.Phase1Primary * (1 + o.Config.tolerance())
	if phase2Sol.Primary(model.PrimaryWeight) > bound {
		return result, nil
	}

	result.Solution = phase2Sol
	result.Metrics = phase2Metrics
	result.Phase2Used = true
	return result, nil
}
