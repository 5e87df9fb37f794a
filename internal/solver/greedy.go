package solver

import (
	"context"
	"time"

	"github.com/vulcanmes/scheduler/internal/allocation"
	"github.com/vulcanmes/scheduler/internal/entity"
	"github.com/vulcanmes/scheduler/internal/skillmatch"
	"github.com/vulcanmes/scheduler/internal/valueobject"
)

// GreedyCPAdapter implements Solver as a deterministic constructive
// search: it resolves jobs one at a time, in priority order (critical
// task count, then priority, then due date, via the skill matcher's
// prioritization), placing each task on the best-scoring machine and
// operators the allocation service would pick, at the earliest instant
// its resources, the business calendar, a task's WIP zone, and its
// critical sequence range all allow.
//
// It is a reference/fallback-grade implementation suitable for the
// hosted test suite and small-to-medium instances, not a production
// CP-SAT binding.
type GreedyCPAdapter struct {
	MachineParams  allocation.MachineScoreParams
	OperatorParams allocation.OperatorScoreParams
}

type zoneSpan struct {
	jobID      entity.JobID
	start, end time.Time
}

// PreferLowestCost toggles whether operator selection favors cheaper
// candidates over skill and load-balance scoring alone. The
// hierarchical optimizer (internal/optimize) flips this on for its
// second phase.
func (g *GreedyCPAdapter) PreferLowestCost(prefer bool) {
	g.OperatorParams.PreferLowestCost = prefer
}

// Solve implements Solver.
func (g *GreedyCPAdapter) Solve(ctx context.Context, model Model) (Solution, SolverMetrics, error) {
	started := time.Now()
	sol := Solution{JobCompletions: make(map[entity.JobID]time.Time)}

	jobs := skillmatch.PrioritizeJobSequence(model.Jobs)

	machineNextFree := make(map[entity.MachineID]time.Time)
	operatorNextFree := make(map[entity.OperatorID]time.Time)
	zoneOccupants := make(map[entity.ZoneID][]zoneSpan)
	criticalOccupants := make(map[int][]zoneSpan)

	opParams := g.OperatorParams
	if opParams.MaxCostPerMinute == 0 {
		opParams.MaxCostPerMinute = maxCostPerMinute(model.Operators)
	}

	for _, job := range jobs {
		select {
		case <-ctx.Done():
			metrics := SolverMetrics{
				SolveTime: time.Since(started), Status: StatusTimeout,
				TasksPlaced: len(sol.Assignments), TasksTotal: totalTasks(model.Jobs),
			}
			return sol, metrics, ctx.Err()
		default:
		}

		jobStart := model.HorizonStart
		if rd := job.ReleaseDate(); rd != nil && rd.After(jobStart) {
			jobStart = *rd
		}

		completion := jobStart
		for _, task := range job.Tasks() {
			if task.Status() == entity.TaskCancelled {
				continue
			}

			earliest := jobStart
			for _, predID := range task.Predecessors() {
				if pred, pok := job.TaskByID(predID); pok {
					if pa, aok := sol.assignmentFor(pred.ID()); aok && pa.End.After(earliest) {
						earliest = pa.End
					}
				}
			}

			assignment, ok := g.placeTask(model, task, job.ID(), earliest, machineNextFree, operatorNextFree, zoneOccupants, criticalOccupants, opParams)
			if !ok {
				sol.UnplacedTasks = append(sol.UnplacedTasks, task.ID())
				continue
			}
			sol.Assignments = append(sol.Assignments, assignment)
			if assignment.End.After(completion) {
				completion = assignment.End
			}
		}
		sol.JobCompletions[job.ID()] = completion

		if completion.After(job.DueDate()) {
			tardy := valueobject.MustDuration(completion.Sub(job.DueDate()).Minutes())
			sol.TotalTardiness = sol.TotalTardiness.Add(tardy)
		}
		if span := completion.Sub(model.HorizonStart).Minutes(); span > sol.Makespan.Minutes() {
			sol.Makespan = valueobject.MustDuration(span)
		}
	}

	sol.OperatorCost = accumulateOperatorCost(model, sol.Assignments)
	sol.Feasible = len(sol.UnplacedTasks) == 0

	status := StatusOptimal
	if !sol.Feasible {
		status = StatusFeasible
		if len(sol.Assignments) == 0 {
			status = StatusInfeasible
		}
	}
	metrics := SolverMetrics{
		SolveTime: time.Since(started), Status: status,
		TasksPlaced: len(sol.Assignments), TasksTotal: totalTasks(model.Jobs),
	}
	return sol, metrics, nil
}

func (g *GreedyCPAdapter) placeTask(model Model, task *entity.Task, jobID entity.JobID, earliest time.Time,
	machineNextFree map[entity.MachineID]time.Time, operatorNextFree map[entity.OperatorID]time.Time,
	zoneOccupants map[entity.ZoneID][]zoneSpan, criticalOccupants map[int][]zoneSpan, opParams allocation.OperatorScoreParams) (TaskAssignment, bool) {

	candidates := allocation.RankMachineCandidates(task, model.Machines, earliest, g.MachineParams)
	for _, mc := range candidates {
		if assignment, ok := g.tryPlace(model, task, jobID, mc.Machine, mc.Option, earliest, machineNextFree, operatorNextFree, zoneOccupants, criticalOccupants, opParams); ok {
			return assignment, true
		}
	}
	return TaskAssignment{}, false
}

// matchingZones returns the zones whose sequence range contains the
// task's sequence number, keyed by zone ID.
func matchingZones(model Model, task *entity.Task) []entity.ZoneID {
	var ids []entity.ZoneID
	for id, zone := range model.Zones {
		if zone.Contains(task.Sequence()) {
			ids = append(ids, id)
		}
	}
	return ids
}

// matchingCriticalSequences returns the indexes into
// model.CriticalSequences whose range contains the task's sequence
// number.
func matchingCriticalSequences(model Model, task *entity.Task) []int {
	var idx []int
	for i, cs := range model.CriticalSequences {
		if cs.Contains(task.Sequence()) {
			idx = append(idx, i)
		}
	}
	return idx
}

// tryPlace finds a converged start time for task on machine using
// option, honoring machine/operator availability, business hours for
// attended tasks, any WIP zone the task's sequence number falls in,
// and any critical sequence range it falls in. It iterates to a fixed
// point (bounded) since satisfying one constraint can push the
// candidate start past another.
func (g *GreedyCPAdapter) tryPlace(model Model, task *entity.Task, jobID entity.JobID, machine *entity.Machine, option valueobject.MachineOption, earliest time.Time,
	machineNextFree map[entity.MachineID]time.Time, operatorNextFree map[entity.OperatorID]time.Time,
	zoneOccupants map[entity.ZoneID][]zoneSpan, criticalOccupants map[int][]zoneSpan, opParams allocation.OperatorScoreParams) (TaskAssignment, bool) {

	duration, err := machine.EffectiveDuration(option.TotalDuration())
	if err != nil {
		return TaskAssignment{}, false
	}
	isAttended := len(task.RoleRequirements()) > 0
	zoneIDs := matchingZones(model, task)
	criticalIdx := matchingCriticalSequences(model, task)

	start := earliest
	if free, ok := machineNextFree[machine.ID()]; ok && free.After(start) {
		start = free
	}

	var operatorIDs []entity.OperatorID
	for iter := 0; iter < 32; iter++ {
		moved := false

		if mf, ok := machineNextFree[machine.ID()]; ok && mf.After(start) {
			start = mf
			moved = true
		}

		if isAttended {
			if adjusted := clampToBusinessHours(model.Calendar, start, duration); adjusted.After(start) {
				start = adjusted
				moved = true
			}
		}

		ids, readyAt, ok := selectOperators(task, start, model.Operators, operatorNextFree, opParams)
		if !ok {
			return TaskAssignment{}, false
		}
		operatorIDs = ids
		if readyAt.After(start) {
			start = readyAt
			moved = true
		}

		end := start.Add(durationToTimeDuration(duration))
		for _, zoneID := range zoneIDs {
			zone := model.Zones[zoneID]
			if delayed := occupancyDelay(zoneOccupants[zoneID], jobID, start, end, zone.WipLimit()); delayed.After(start) {
				start = delayed
				end = start.Add(durationToTimeDuration(duration))
				moved = true
			}
		}
		for _, idx := range criticalIdx {
			if delayed := occupancyDelay(criticalOccupants[idx], jobID, start, end, 1); delayed.After(start) {
				start = delayed
				end = start.Add(durationToTimeDuration(duration))
				moved = true
			}
		}

		if !moved {
			break
		}
	}

	end := start.Add(durationToTimeDuration(duration))
	if isAttended && (!model.Calendar.IsWorkingTime(start) || !model.Calendar.IsWorkingTime(end.Add(-time.Minute))) {
		return TaskAssignment{}, false
	}

	machineNextFree[machine.ID()] = end
	for _, id := range operatorIDs {
		operatorNextFree[id] = end
	}
	for _, zoneID := range zoneIDs {
		zoneOccupants[zoneID] = append(zoneOccupants[zoneID], zoneSpan{jobID: jobID, start: start, end: end})
	}
	for _, idx := range criticalIdx {
		criticalOccupants[idx] = append(criticalOccupants[idx], zoneSpan{jobID: jobID, start: start, end: end})
	}

	return TaskAssignment{
		TaskID: task.ID(), JobID: jobID, MachineID: machine.ID(), Option: option,
		OperatorIDs: operatorIDs, Start: start, End: end,
	}, true
}

// selectOperators picks, per role requirement, the top-scoring
// available operators excluding those already claimed by an earlier
// role on the same task, and reports the latest instant any of them
// becomes free.
func selectOperators(task *entity.Task, at time.Time, operators []*entity.Operator, operatorNextFree map[entity.OperatorID]time.Time, opParams allocation.OperatorScoreParams) ([]entity.OperatorID, time.Time, bool) {
	var ids []entity.OperatorID
	excluded := make(map[entity.OperatorID]bool)
	readyAt := at

	for _, role := range task.RoleRequirements() {
		candidates := allocation.RankOperatorCandidates(operators, role, task.Department(), at, excluded, opParams)
		if len(candidates) < role.Count {
			return nil, time.Time{}, false
		}
		for i := 0; i < role.Count; i++ {
			op := candidates[i].Operator
			excluded[op.ID()] = true
			ids = append(ids, op.ID())
			if free, ok := operatorNextFree[op.ID()]; ok && free.After(readyAt) {
				readyAt = free
			}
		}
	}
	return ids, readyAt, true
}

// clampToBusinessHours returns the earliest instant at or after start
// such that the task's full duration fits within a single working
// window, checked the same way the constraint validator checks a
// finished assignment: start and end-1-minute must both fall in working
// time.
func clampToBusinessHours(cal valueobject.BusinessCalendar, start time.Time, duration valueobject.Duration) time.Time {
	candidate := cal.NextWorkingTime(start)
	for i := 0; i < 30; i++ {
		end := candidate.Add(durationToTimeDuration(duration))
		if cal.IsWorkingTime(candidate) && cal.IsWorkingTime(end.Add(-time.Minute)) {
			return candidate
		}
		candidate = cal.NextWorkingTime(end)
	}
	return candidate
}

// occupancyDelay reports the earliest instant a new job may occupy a
// sequence range (a WIP zone or a critical sequence) without exceeding
// limit concurrent occupying jobs, given the spans already claiming it.
// A job already counted among the spans doesn't count twice.
func occupancyDelay(spans []zoneSpan, jobID entity.JobID, start, end time.Time, limit int) time.Time {
	occupantEnd := make(map[entity.JobID]time.Time)
	for _, sp := range spans {
		if sp.jobID == jobID {
			continue
		}
		if sp.start.Before(end) && start.Before(sp.end) {
			if e, ok := occupantEnd[sp.jobID]; !ok || sp.end.After(e) {
				occupantEnd[sp.jobID] = sp.end
			}
		}
	}
	if len(occupantEnd)+1 <= limit {
		return start
	}
	var earliest time.Time
	for _, e := range occupantEnd {
		if earliest.IsZero() || e.Before(earliest) {
			earliest = e
		}
	}
	return earliest
}

func durationToTimeDuration(d valueobject.Duration) time.Duration {
	return time.Duration(d.Minutes() * float64(time.Minute))
}

func accumulateOperatorCost(model Model, assignments []TaskAssignment) valueobject.Money {
	byID := make(map[entity.OperatorID]*entity.Operator, len(model.Operators))
	for _, op := range model.Operators {
		byID[op.ID()] = op
	}
	total := valueobject.ZeroMoney
	for _, a := range assignments {
		minutes := a.End.Sub(a.Start).Minutes()
		for _, opID := range a.OperatorIDs {
			op, ok := byID[opID]
			if !ok {
				continue
			}
			cost, err := valueobject.NewMoney(op.CostPerMinute() * minutes)
			if err != nil {
				continue
			}
			total = total.Add(cost)
		}
	}
	return total
}

func maxCostPerMinute(ops []*entity.Operator) float64 {
	var max float64
	for _, op := range ops {
		if op.CostPerMinute() > max {
			max = op.CostPerMinute()
		}
	}
	return max
}

func totalTasks(jobs []*entity.Job) int {
	n := 0
	for _, j := range jobs {
		for _, t := range j.Tasks() {
			if t.Status() != entity.TaskCancelled {
				n++
			}
		}
	}
	return n
}

func (s Solution) assignmentFor(taskID entity.TaskID) (TaskAssignment, bool) {
	for _, a := range s.Assignments {
		if a.TaskID == taskID {
			return a, true
		}
	}
	return TaskAssignment{}, false
}
