// Package solver defines the constraint-programming model the
// scheduler must solve and the Solver interface that any concrete
// engine (a hosted test-suite adapter or a production CP-SAT binding)
// must satisfy, plus a deterministic reference adapter.
package solver

import (
	"time"

	"github.com/vulcanmes/scheduler/internal/entity"
	"github.com/vulcanmes/scheduler/internal/valueobject"
)

// DefaultPrimaryWeight is the default weight applied to total tardiness
// in the primary objective: primary = w·Σtardiness + makespan.
const DefaultPrimaryWeight = 2.0

// Model is everything the solver needs to build and solve one planning
// instance: the jobs to schedule, the resource pool, the zones and
// critical sequences that gate WIP and contiguity, the business
// calendar, and the planning horizon.
type Model struct {
	Jobs              []*entity.Job
	Machines          map[entity.MachineID]*entity.Machine
	Operators         []*entity.Operator
	Zones             map[entity.ZoneID]*entity.ProductionZone
	CriticalSequences []entity.CriticalSequence
	Calendar          valueobject.BusinessCalendar

	HorizonStart time.Time
	HorizonDays  int

	// PrimaryWeight is w_primary in the primary objective. Zero means
	// DefaultPrimaryWeight.
	PrimaryWeight float64
}

// HorizonMinutes returns the horizon length in minutes: horizon_days *
// 24 * 60.
func (m Model) HorizonMinutes() int {
	return m.HorizonDays * 24 * 60
}

func (m Model) primaryWeight() float64 {
	if m.PrimaryWeight == 0 {
		return DefaultPrimaryWeight
	}
	return m.PrimaryWeight
}

// TaskAssignment is one task's placement in a Solution: the chosen
// machine and routing option, the operators filling its role
// requirements, and the resulting time window.
type TaskAssignment struct {
	TaskID      entity.TaskID
	JobID       entity.JobID
	MachineID   entity.MachineID
	Option      valueobject.MachineOption
	OperatorIDs []entity.OperatorID
	Start       time.Time
	End         time.Time
}

// Solution is a complete (or partial, if infeasible) placement of every
// task in the model, along with the objective values it produces.
type Solution struct {
	Assignments    []TaskAssignment
	JobCompletions map[entity.JobID]time.Time
	Makespan       valueobject.Duration
	TotalTardiness valueobject.Duration
	OperatorCost   valueobject.Money
	Feasible       bool
	UnplacedTasks  []entity.TaskID
}

// Primary returns w_primary·Σtardiness + makespan, the primary
// objective Phase 1 of the hierarchical solve minimizes.
func (s Solution) Primary(weight float64) float64 {
	if weight == 0 {
		weight = DefaultPrimaryWeight
	}
	return weight*s.TotalTardiness.Minutes() + s.Makespan.Minutes()
}

// Status is the terminal state a solve attempt reports.
type Status string

const (
	StatusOptimal        Status = "OPTIMAL"
	StatusFeasible       Status = "FEASIBLE"
	StatusInfeasible     Status = "INFEASIBLE"
	StatusTimeout        Status = "TIMEOUT"
	StatusMemoryExceeded Status = "MEMORY_EXCEEDED"
)

// SolverMetrics reports how a solve attempt went.
type SolverMetrics struct {
	SolveTime time.Duration
	Status    Status
	// TasksPlaced counts scheduled tasks; TasksTotal is every task in
	// the model, so callers can tell a partial solve from a complete one
	// without re-walking Solution.
	TasksPlaced int
	TasksTotal  int
}
