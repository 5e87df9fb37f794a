package solver

import "context"

// Solver solves one planning Model and reports the resulting Solution
// and metrics. The underlying CP engine is an external collaborator:
// Solver is the seam a real CP-SAT or OR-Tools binding would satisfy in
// production; GreedyCPAdapter is the reference implementation used
// here and by the hosted test suite.
type Solver interface {
	Solve(ctx context.Context, model Model) (Solution, SolverMetrics, error)
}
