// Package service orchestrates one end-to-end solve: build the CP
// model, run it under resource limits and circuit-breaker protection,
// degrade through the fallback heuristics if it fails, validate the
// result, and persist the resulting Schedule. It is the seam job.Handlers
// and internal/api both call into.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/vulcanmes/scheduler/internal/apperr"
	"github.com/vulcanmes/scheduler/internal/degradation"
	"github.com/vulcanmes/scheduler/internal/entity"
	"github.com/vulcanmes/scheduler/internal/event"
	"github.com/vulcanmes/scheduler/internal/fallback"
	"github.com/vulcanmes/scheduler/internal/observability"
	"github.com/vulcanmes/scheduler/internal/optimize"
	"github.com/vulcanmes/scheduler/internal/repository"
	"github.com/vulcanmes/scheduler/internal/resilience"
	"github.com/vulcanmes/scheduler/internal/resource"
	"github.com/vulcanmes/scheduler/internal/solver"
	"github.com/vulcanmes/scheduler/internal/validation"
	"github.com/vulcanmes/scheduler/internal/valueobject"
)

// Deps bundles every collaborator Service needs. Schedules and
// Dispatcher may be nil, in which case persistence and event
// publication are skipped (useful for the hosted test suite's
// solve-only scenarios).
type Deps struct {
	Monitor     *resource.Monitor
	Breakers    *resilience.Registry
	Degradation *degradation.Manager
	Validator   *validation.ConstraintValidator
	Metrics     observability.MetricsSink
	Logs        observability.LogSink
	Tracer      observability.Tracer
	Dispatcher  *event.Dispatcher
	Schedules   repository.ScheduleRepository
}

func (d Deps) metrics() observability.MetricsSink {
	if d.Metrics != nil {
		return d.Metrics
	}
	return observability.Noop()
}

// Request is one planning instance to solve and persist.
type Request struct {
	Name              string
	Jobs              []*entity.Job
	Machines          map[entity.MachineID]*entity.Machine
	Operators         []*entity.Operator
	Zones             map[entity.ZoneID]*entity.ProductionZone
	CriticalSequences []entity.CriticalSequence
	Calendar          valueobject.BusinessCalendar

	HorizonStart  time.Time
	HorizonDays   int
	PrimaryWeight float64

	OptimizeConfig optimize.Config

	// ReferenceMakespanMinutes, when set, is used by the degradation
	// assessor to score a fallback's makespan relative to a known-good
	// baseline.
	ReferenceMakespanMinutes *float64
}

// Outcome is everything one Solve call produced.
type Outcome struct {
	Schedule   *entity.Schedule
	Solution   solver.Solution
	Metrics    solver.SolverMetrics
	Validation *validation.Result

	// Degraded is true when the CP solve itself failed and a fallback
	// heuristic produced Solution instead.
	Degraded bool
	Quality  *degradation.QualityAssessment
}

// Service drives one Orchestrator through Solve, wrapping it with the
// resilience and degradation layers.
type Service struct {
	orchestrator *optimize.Orchestrator
	deps         Deps
}

// NewService builds a Service around orchestrator.
func NewService(orchestrator *optimize.Orchestrator, deps Deps) *Service {
	return &Service{orchestrator: orchestrator, deps: deps}
}

type solveOutcome struct {
	sol     solver.Solution
	metrics solver.SolverMetrics
}

// orchestratorAdapter lets resource.Monitor.SolveWithLimits drive the
// full two-phase optimize.Orchestrator the same way it would a bare
// solver.Solver, so the wall-clock deadline and memory watchdog wrap
// both phases.
type orchestratorAdapter struct {
	orchestrator *optimize.Orchestrator
}

func (a orchestratorAdapter) Solve(ctx context.Context, model solver.Model) (solver.Solution, solver.SolverMetrics, error) {
	result, err := a.orchestrator.Schedule(ctx, model)
	return result.Solution, result.Metrics, err
}

// Solve builds a Model from req, solves it under resource limits and
// circuit-breaker protection, degrades through a fallback heuristic if
// the solve failed, validates the resulting schedule, and (if a
// ScheduleRepository was supplied) persists it and dispatches its
// domain events.
func (s *Service) Solve(ctx context.Context, req Request) (*Outcome, error) {
	ctx, span := s.deps.Tracer.StartSpan(ctx, "solve")
	defer span.End()

	zones := req.Zones
	if len(zones) == 0 {
		zones = defaultZoneMap()
	}
	criticalSequences := req.CriticalSequences
	if len(criticalSequences) == 0 {
		criticalSequences = entity.DefaultCriticalSequences()
	}

	model := solver.Model{
		Jobs:              req.Jobs,
		Machines:          req.Machines,
		Operators:         req.Operators,
		Zones:             zones,
		CriticalSequences: criticalSequences,
		Calendar:          req.Calendar,
		HorizonStart:      req.HorizonStart,
		HorizonDays:       req.HorizonDays,
		PrimaryWeight:     req.PrimaryWeight,
	}

	start := time.Now()
	sol, metrics, err := s.runProtected(ctx, model)
	elapsed := time.Since(start)

	s.deps.metrics().ObserveSolveTime(string(metrics.Status), elapsed.Seconds())

	outcome := &Outcome{Solution: sol, Metrics: metrics}

	if err != nil || !sol.Feasible {
		reason := reasonFor(err, metrics)
		strategy := fallback.StrategyFor(reason)
		span.SetAttribute("fallback_reason", string(reason))
		span.SetAttribute("fallback_strategy", string(strategy))

		s.deps.metrics().IncOptimizationFailure(string(reason), true)

		var partial *solver.Solution
		if len(sol.Assignments) > 0 {
			partial = &sol
		}

		degradedSol, quality := s.deps.Degradation.HandleFailure(
			ctx, reason, req.Jobs, req.Machines, req.Operators, req.HorizonStart, partial, req.ReferenceMakespanMinutes,
		)
		s.deps.metrics().IncFallbackActivation(string(strategy), string(reason))

		if degradedSol == nil {
			span.RecordError(fmt.Errorf("fallback %s produced no schedule", strategy))
			return outcome, apperr.New(apperr.Optimization, string(reason),
				fmt.Errorf("no schedule could be produced for reason %s", reason))
		}

		outcome.Solution = *degradedSol
		outcome.Degraded = true
		outcome.Quality = &quality
	}

	schedule, err := s.buildSchedule(req, outcome.Solution)
	if err != nil {
		span.RecordError(err)
		return outcome, apperr.New(apperr.Optimization, "SCHEDULE_BUILD_FAILED", err)
	}
	outcome.Schedule = schedule

	if s.deps.Validator != nil {
		result := s.deps.Validator.Validate(schedule, validation.ScheduleContext{
			Jobs:              jobsByID(req.Jobs),
			Machines:          req.Machines,
			Operators:         operatorsByID(req.Operators),
			Zones:             zones,
			CriticalSequences: criticalSequences,
		})
		schedule.SetViolations(violationTexts(result))
		outcome.Validation = result
	}

	if s.deps.Schedules != nil {
		if err := s.deps.Schedules.Create(ctx, schedule); err != nil {
			return outcome, apperr.New(apperr.ResourceConflict, "SCHEDULE_PERSIST_FAILED", err)
		}
	}
	if s.deps.Dispatcher != nil {
		s.deps.Dispatcher.DispatchAll(schedule.PullEvents())
	}

	return outcome, nil
}

// runProtected runs the orchestrator under the resource monitor's
// deadline/memory watchdog, itself guarded by the solver_optimization
// circuit breaker so a run of consecutive solve failures trips the
// breaker and fails fast instead of repeatedly burning solve time.
func (s *Service) runProtected(ctx context.Context, model solver.Model) (solver.Solution, solver.SolverMetrics, error) {
	breaker := s.deps.Breakers.Get(resilience.SolverOptimizationBreaker)
	adapter := orchestratorAdapter{orchestrator: s.orchestrator}

	out, err := resilience.Execute(breaker, func() (solveOutcome, error) {
		sol, metrics, err := s.deps.Monitor.SolveWithLimits(ctx, adapter, model)
		return solveOutcome{sol: sol, metrics: metrics}, err
	})
	return out.sol, out.metrics, err
}

func reasonFor(err error, metrics solver.SolverMetrics) fallback.Reason {
	switch {
	case errors.Is(err, resilience.ErrCircuitBreakerOpen):
		return fallback.ReasonCircuitBreakerOpen
	case errors.Is(err, resource.ErrMemoryExceeded) || metrics.Status == solver.StatusMemoryExceeded:
		return fallback.ReasonMemoryExhaustion
	case errors.Is(err, context.DeadlineExceeded) || metrics.Status == solver.StatusTimeout:
		return fallback.ReasonSolverTimeout
	default:
		return fallback.ReasonNoFeasibleSolution
	}
}

func (s *Service) buildSchedule(req Request, sol solver.Solution) (*entity.Schedule, error) {
	horizonEnd := req.HorizonStart.AddDate(0, 0, req.HorizonDays)
	window, err := valueobject.NewTimeWindow(req.HorizonStart, horizonEnd)
	if err != nil {
		return nil, err
	}

	name := req.Name
	if name == "" {
		name = fmt.Sprintf("solve-%s", req.HorizonStart.Format("2006-01-02"))
	}

	schedule, err := entity.NewSchedule(name, window)
	if err != nil {
		return nil, err
	}

	jobByTask := make(map[entity.TaskID]entity.JobID, len(sol.Assignments))
	for _, j := range req.Jobs {
		for _, t := range j.Tasks() {
			jobByTask[t.ID()] = j.ID()
		}
	}

	for _, a := range sol.Assignments {
		jobID, ok := jobByTask[a.TaskID]
		if !ok {
			continue
		}
		err := schedule.SetAssignment(entity.ScheduleAssignment{
			TaskID:      a.TaskID,
			MachineID:   a.MachineID,
			OperatorIDs: a.OperatorIDs,
			Start:       a.Start,
			End:         a.End,
		}, jobID)
		if err != nil {
			return nil, err
		}
	}

	schedule.SetMetrics(entity.ScheduleMetrics{
		Makespan:       sol.Makespan,
		TotalTardiness: sol.TotalTardiness,
		OperatorCost:   sol.OperatorCost,
		ViolationCount: 0,
	})

	return schedule, nil
}

// defaultZoneMap builds the standard WIP zone set for callers that
// don't load their own from the ProductionZoneRepository.
func defaultZoneMap() map[entity.ZoneID]*entity.ProductionZone {
	out := make(map[entity.ZoneID]*entity.ProductionZone)
	for _, z := range entity.DefaultProductionZones() {
		out[z.ID()] = z
	}
	return out
}

func jobsByID(jobs []*entity.Job) map[entity.JobID]*entity.Job {
	out := make(map[entity.JobID]*entity.Job, len(jobs))
	for _, j := range jobs {
		out[j.ID()] = j
	}
	return out
}

func operatorsByID(operators []*entity.Operator) map[entity.OperatorID]*entity.Operator {
	out := make(map[entity.OperatorID]*entity.Operator, len(operators))
	for _, o := range operators {
		out[o.ID()] = o
	}
	return out
}

func violationTexts(r *validation.Result) []string {
	errs := r.MessagesBySeverity(validation.SeverityError)
	sort.Slice(errs, func(i, j int) bool { return errs[i].Code < errs[j].Code })
	out := make([]string, 0, len(errs))
	for _, m := range errs {
		out = append(out, fmt.Sprintf("%s: %s", m.Code, m.Text))
	}
	return out
}
