// Package fallback implements the heuristic schedulers used when the
// CP solver fails, times out, or is circuit-broken: simple,
// deliberately non-optimal placement strategies that trade solution
// quality for the guarantee that they always terminate quickly and
// never touch the solver machinery that just failed.
package fallback

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/vulcanmes/scheduler/internal/entity"
	"github.com/vulcanmes/scheduler/internal/solver"
	"github.com/vulcanmes/scheduler/internal/valueobject"
)

// Strategy names one of the fallback heuristics.
type Strategy string

const (
	StrategyGreedy                 Strategy = "GREEDY"
	StrategyPriorityBased          Strategy = "PRIORITY_BASED"
	StrategyEarliestDueDate        Strategy = "EARLIEST_DUE_DATE"
	StrategyShortestProcessingTime Strategy = "SHORTEST_PROCESSING_TIME"
	StrategyPartialSolution        Strategy = "PARTIAL_SOLUTION"
)

// Reason names why the orchestrator reached for a fallback.
type Reason string

const (
	ReasonSolverTimeout      Reason = "SOLVER_TIMEOUT"
	ReasonNoFeasibleSolution Reason = "NO_FEASIBLE_SOLUTION"
	ReasonMemoryExhaustion   Reason = "MEMORY_EXHAUSTION"
	ReasonCircuitBreakerOpen Reason = "CIRCUIT_BREAKER_OPEN"
)

// StrategyFor maps a failure reason to the strategy the orchestrator
// should try first.
func StrategyFor(reason Reason) Strategy {
	switch reason {
	case ReasonSolverTimeout:
		return StrategyPartialSolution
	case ReasonNoFeasibleSolution:
		return StrategyGreedy
	case ReasonMemoryExhaustion:
		return StrategyPriorityBased
	case ReasonCircuitBreakerOpen:
		return StrategyEarliestDueDate
	default:
		return StrategyGreedy
	}
}

// defaultTaskDuration is the fixed duration fallback strategies assume
// per task, in lieu of solving for real routing/efficiency durations.
var defaultTaskDuration = valueobject.MustDuration(60)

// Result is a fallback attempt's outcome, mirroring the shape every
// strategy shares.
type Result struct {
	Solution       solver.Solution
	Strategy       Strategy
	Reason         Reason
	ExecutionTime  time.Duration
	QualityScore   float64
	JobsScheduled  int
	TasksScheduled int
	Warnings       []string
}

// Run executes one fallback strategy. partial is the solver's own
// partial-solution snapshot, required only by StrategyPartialSolution
// (nil falls back to GREEDY with a warning). referenceMakespanMinutes,
// if non-nil, is a previously known good makespan used to scale the
// quality score.
func Run(strategy Strategy, reason Reason, jobs []*entity.Job, machines map[entity.MachineID]*entity.Machine, operators []*entity.Operator, horizonStart time.Time, partial *solver.Solution, referenceMakespanMinutes *float64) Result {
	started := time.Now()
	var warnings []string
	var sol solver.Solution

	switch strategy {
	case StrategyGreedy:
		sol = greedySolution(jobs, machines, operators, horizonStart)
	case StrategyPriorityBased:
		sol = priorityBasedSolution(jobs, machines, operators, horizonStart)
	case StrategyEarliestDueDate:
		sol = earliestDueDateSolution(jobs, machines, operators, horizonStart)
	case StrategyShortestProcessingTime:
		sol = shortestProcessingTimeSolution(jobs, machines, operators, horizonStart)
	case StrategyPartialSolution:
		if partial == nil {
			warnings = append(warnings, "no partial solution snapshot available, using GREEDY instead")
			strategy = StrategyGreedy
			sol = greedySolution(jobs, machines, operators, horizonStart)
		} else {
			sol = partialSolutionCompletion(*partial, jobs, machines, operators, horizonStart)
		}
	default:
		warnings = append(warnings, fmt.Sprintf("unknown strategy %q, using GREEDY instead", strategy))
		strategy = StrategyGreedy
		sol = greedySolution(jobs, machines, operators, horizonStart)
	}

	finalizeMetrics(&sol, jobs, horizonStart)

	quality := qualityScore(sol, countTasks(jobs), referenceMakespanMinutes)
	if strategy == StrategyPartialSolution {
		quality = math.Min(1.0, quality*1.1)
	}

	return Result{
		Solution:       sol,
		Strategy:       strategy,
		Reason:         reason,
		ExecutionTime:  time.Since(started),
		QualityScore:   quality,
		JobsScheduled:  len(sol.JobCompletions),
		TasksScheduled: len(sol.Assignments),
		Warnings:       warnings,
	}
}

// EmergencyFallback returns the degenerate last-resort result used
// when the selected strategy itself errors out.
func EmergencyFallback(reason Reason) Result {
	return Result{
		Strategy:     StrategyGreedy,
		Reason:       reason,
		QualityScore: 0.1,
		Warnings:     []string{"emergency fallback"},
	}
}

func jobPriorityRank() map[entity.Priority]int {
	return map[entity.Priority]int{
		entity.PriorityCritical: 3, entity.PriorityHigh: 2, entity.PriorityNormal: 1, entity.PriorityLow: 0,
	}
}

func countTasks(jobs []*entity.Job) int {
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

func taskExpectedDuration(t *entity.Task) valueobject.Duration {
	min, first := valueobject.Zero, true
	for _, opt := range t.MachineOptions() {
		d := opt.TotalDuration()
		if first || d.LessThan(min) {
			min, first = d, false
		}
	}
	if first {
		return defaultTaskDuration
	}
	return min
}

func durationToTimeDuration(d valueobject.Duration) time.Duration {
	return time.Duration(d.Minutes() * float64(time.Minute))
}

// taskRef pairs a task with the job that owns it.
type taskRef struct {
	job  *entity.Job
	task *entity.Task
}

func flattenTasks(jobs []*entity.Job) []taskRef {
	var refs []taskRef
	for _, j := range jobs {
		for _, t := range j.Tasks() {
			if t.Status() == entity.TaskCancelled {
				continue
			}
			refs = append(refs, taskRef{job: j, task: t})
		}
	}
	return refs
}

func sortJobsByPriority(jobs []*entity.Job) []*entity.Job {
	out := append([]*entity.Job(nil), jobs...)
	rank := jobPriorityRank()
	sort.SliceStable(out, func(i, j int) bool { return rank[out[i].Priority()] > rank[out[j].Priority()] })
	return out
}

func sortJobsByDueDate(jobs []*entity.Job) []*entity.Job {
	out := append([]*entity.Job(nil), jobs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate().Before(out[j].DueDate()) })
	return out
}

// resourcePicker chooses a machine and, for every role requirement, its
// operators for one task at instant at, given the running next-free
// tables. It returns ok=false if no viable assignment exists.
type resourcePicker func(ref taskRef, machines map[entity.MachineID]*entity.Machine, operators []*entity.Operator, machineNextFree map[entity.MachineID]time.Time, operatorNextFree map[entity.OperatorID]time.Time, at time.Time) (*entity.Machine, []entity.OperatorID, bool)

// earliestAvailablePicker implements GREEDY/SHORTEST_PROCESSING_TIME's
// "earliest-available resource" rule: among capable machines (and,
// per role, qualified operators), pick whichever becomes free soonest.
func earliestAvailablePicker(ref taskRef, machines map[entity.MachineID]*entity.Machine, operators []*entity.Operator, machineNextFree map[entity.MachineID]time.Time, operatorNextFree map[entity.OperatorID]time.Time, at time.Time) (*entity.Machine, []entity.OperatorID, bool) {
	var best *entity.Machine
	var bestFree time.Time
	for _, opt := range ref.task.MachineOptions() {
		m, ok := machines[opt.MachineID]
		if !ok || !m.CanPerform(ref.task.Department()) || m.IsUnderMaintenance(at) {
			continue
		}
		free := machineNextFree[m.ID()]
		if free.Before(at) {
			free = at
		}
		if best == nil || free.Before(bestFree) {
			best, bestFree = m, free
		}
	}
	if best == nil {
		return nil, nil, false
	}

	var opIDs []entity.OperatorID
	excluded := make(map[entity.OperatorID]bool)
	for _, role := range ref.task.RoleRequirements() {
		picked := pickEarliestOperators(operators, role, ref.task.Department(), at, role.Count, excluded, operatorNextFree)
		if len(picked) < role.Count {
			return nil, nil, false
		}
		for _, id := range picked {
			excluded[id] = true
			opIDs = append(opIDs, id)
		}
	}
	return best, opIDs, true
}

func pickEarliestOperators(operators []*entity.Operator, role valueobject.RoleRequirement, department string, at time.Time, count int, excluded map[entity.OperatorID]bool, operatorNextFree map[entity.OperatorID]time.Time) []entity.OperatorID {
	type candidate struct {
		id   entity.OperatorID
		free time.Time
	}
	var candidates []candidate
	for _, op := range operators {
		if excluded[op.ID()] {
			continue
		}
		if department != "" && op.Department() != department {
			continue
		}
		if !op.HasSkill(role.SkillType, role.MinimumLevel, at) || !op.IsAvailableOn(at) {
			continue
		}
		free := operatorNextFree[op.ID()]
		if free.Before(at) {
			free = at
		}
		candidates = append(candidates, candidate{id: op.ID(), free: free})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].free.Before(candidates[j].free) })
	if count > len(candidates) {
		count = len(candidates)
	}
	ids := make([]entity.OperatorID, count)
	for i := 0; i < count; i++ {
		ids[i] = candidates[i].id
	}
	return ids
}

// fixedFirstPicker implements PRIORITY_BASED/EARLIEST_DUE_DATE's "first
// operator and first machine" rule: the first capable machine and the
// first qualified operators, in list order, with no ranking.
func fixedFirstPicker(ref taskRef, machines map[entity.MachineID]*entity.Machine, operators []*entity.Operator, machineNextFree map[entity.MachineID]time.Time, operatorNextFree map[entity.OperatorID]time.Time, at time.Time) (*entity.Machine, []entity.OperatorID, bool) {
	var chosen *entity.Machine
	for _, opt := range ref.task.MachineOptions() {
		m, ok := machines[opt.MachineID]
		if ok && m.CanPerform(ref.task.Department()) && !m.IsUnderMaintenance(at) {
			chosen = m
			break
		}
	}
	if chosen == nil {
		return nil, nil, false
	}

	var opIDs []entity.OperatorID
	excluded := make(map[entity.OperatorID]bool)
	for _, role := range ref.task.RoleRequirements() {
		count := 0
		for _, op := range operators {
			if excluded[op.ID()] || !op.HasSkill(role.SkillType, role.MinimumLevel, at) || !op.IsAvailableOn(at) {
				continue
			}
			opIDs = append(opIDs, op.ID())
			excluded[op.ID()] = true
			count++
			if count == role.Count {
				break
			}
		}
		if count < role.Count {
			return nil, nil, false
		}
	}
	return chosen, opIDs, true
}

// placeTasksInOrder assigns refs, in the order given, honoring
// precedence within each job: a task whose predecessor (among refs)
// hasn't been placed yet is requeued to a later pass. The caller's
// seed maps let a partial-solution completion continue from
// previously-placed resource occupancy.
func placeTasksInOrder(refs []taskRef, machines map[entity.MachineID]*entity.Machine, operators []*entity.Operator, horizonStart time.Time, pick resourcePicker, machineNextFree map[entity.MachineID]time.Time, operatorNextFree map[entity.OperatorID]time.Time, placedEnd map[entity.TaskID]time.Time) solver.Solution {
	sol := solver.Solution{JobCompletions: make(map[entity.JobID]time.Time)}

	existing := make(map[entity.TaskID]bool, len(refs))
	for _, r := range refs {
		existing[r.task.ID()] = true
	}

	remaining := refs
	for pass := 0; len(remaining) > 0 && pass <= len(refs)+1; pass++ {
		var next []taskRef
		progressed := false
		for _, ref := range remaining {
			earliest := horizonStart
			if rd := ref.job.ReleaseDate(); rd != nil && rd.After(earliest) {
				earliest = *rd
			}
			ready := true
			for _, predID := range ref.task.Predecessors() {
				if end, ok := placedEnd[predID]; ok {
					if end.After(earliest) {
						earliest = end
					}
					continue
				}
				if existing[predID] {
					ready = false
					break
				}
			}
			if !ready {
				next = append(next, ref)
				continue
			}
			progressed = true

			machine, opIDs, ok := pick(ref, machines, operators, machineNextFree, operatorNextFree, earliest)
			if !ok {
				sol.UnplacedTasks = append(sol.UnplacedTasks, ref.task.ID())
				continue
			}

			start := earliest
			if mf, ok2 := machineNextFree[machine.ID()]; ok2 && mf.After(start) {
				start = mf
			}
			for _, id := range opIDs {
				if of, ok2 := operatorNextFree[id]; ok2 && of.After(start) {
					start = of
				}
			}
			end := start.Add(durationToTimeDuration(defaultTaskDuration))
			machineNextFree[machine.ID()] = end
			for _, id := range opIDs {
				operatorNextFree[id] = end
			}
			placedEnd[ref.task.ID()] = end

			sol.Assignments = append(sol.Assignments, solver.TaskAssignment{
				TaskID: ref.task.ID(), JobID: ref.job.ID(), MachineID: machine.ID(),
				OperatorIDs: opIDs, Start: start, End: end,
			})
			if c, ok2 := sol.JobCompletions[ref.job.ID()]; !ok2 || end.After(c) {
				sol.JobCompletions[ref.job.ID()] = end
			}
		}
		remaining = next
		if !progressed {
			break
		}
	}
	for _, ref := range remaining {
		sol.UnplacedTasks = append(sol.UnplacedTasks, ref.task.ID())
	}

	sol.Feasible = len(sol.UnplacedTasks) == 0
	return sol
}

func emptySeeds() (map[entity.MachineID]time.Time, map[entity.OperatorID]time.Time, map[entity.TaskID]time.Time) {
	return make(map[entity.MachineID]time.Time), make(map[entity.OperatorID]time.Time), make(map[entity.TaskID]time.Time)
}

func greedySolution(jobs []*entity.Job, machines map[entity.MachineID]*entity.Machine, operators []*entity.Operator, horizonStart time.Time) solver.Solution {
	refs := flattenTasks(jobs)
	rank := jobPriorityRank()
	sort.SliceStable(refs, func(i, j int) bool {
		pi, pj := rank[refs[i].job.Priority()], rank[refs[j].job.Priority()]
		if pi != pj {
			return pi > pj
		}
		return refs[i].task.Sequence() < refs[j].task.Sequence()
	})
	mf, of, pe := emptySeeds()
	return placeTasksInOrder(refs, machines, operators, horizonStart, earliestAvailablePicker, mf, of, pe)
}

func priorityBasedSolution(jobs []*entity.Job, machines map[entity.MachineID]*entity.Machine, operators []*entity.Operator, horizonStart time.Time) solver.Solution {
	refs := flattenTasks(sortJobsByPriority(jobs))
	mf, of, pe := emptySeeds()
	return placeTasksInOrder(refs, machines, operators, horizonStart, fixedFirstPicker, mf, of, pe)
}

func earliestDueDateSolution(jobs []*entity.Job, machines map[entity.MachineID]*entity.Machine, operators []*entity.Operator, horizonStart time.Time) solver.Solution {
	refs := flattenTasks(sortJobsByDueDate(jobs))
	mf, of, pe := emptySeeds()
	return placeTasksInOrder(refs, machines, operators, horizonStart, fixedFirstPicker, mf, of, pe)
}

func shortestProcessingTimeSolution(jobs []*entity.Job, machines map[entity.MachineID]*entity.Machine, operators []*entity.Operator, horizonStart time.Time) solver.Solution {
	refs := flattenTasks(jobs)
	sort.SliceStable(refs, func(i, j int) bool {
		return taskExpectedDuration(refs[i].task).Minutes() < taskExpectedDuration(refs[j].task).Minutes()
	})
	mf, of, pe := emptySeeds()
	return placeTasksInOrder(refs, machines, operators, horizonStart, earliestAvailablePicker, mf, of, pe)
}

// partialSolutionCompletion keeps every assignment already present in
// partial and completes the remaining tasks with the GREEDY rule,
// seeding resource occupancy from what's already placed so the
// completion never overlaps it.
func partialSolutionCompletion(partial solver.Solution, jobs []*entity.Job, machines map[entity.MachineID]*entity.Machine, operators []*entity.Operator, horizonStart time.Time) solver.Solution {
	placed := make(map[entity.TaskID]bool, len(partial.Assignments))
	machineNextFree := make(map[entity.MachineID]time.Time)
	operatorNextFree := make(map[entity.OperatorID]time.Time)
	placedEnd := make(map[entity.TaskID]time.Time)

	for _, a := range partial.Assignments {
		placed[a.TaskID] = true
		placedEnd[a.TaskID] = a.End
		if a.End.After(machineNextFree[a.MachineID]) {
			machineNextFree[a.MachineID] = a.End
		}
		for _, id := range a.OperatorIDs {
			if a.End.After(operatorNextFree[id]) {
				operatorNextFree[id] = a.End
			}
		}
	}

	refs := flattenTasks(jobs)
	var remainder []taskRef
	for _, r := range refs {
		if !placed[r.task.ID()] {
			remainder = append(remainder, r)
		}
	}
	rank := jobPriorityRank()
	sort.SliceStable(remainder, func(i, j int) bool {
		pi, pj := rank[remainder[i].job.Priority()], rank[remainder[j].job.Priority()]
		if pi != pj {
			return pi > pj
		}
		return remainder[i].task.Sequence() < remainder[j].task.Sequence()
	})

	completion := placeTasksInOrder(remainder, machines, operators, horizonStart, earliestAvailablePicker, machineNextFree, operatorNextFree, placedEnd)

	merged := solver.Solution{JobCompletions: make(map[entity.JobID]time.Time)}
	merged.Assignments = append(append([]solver.TaskAssignment(nil), partial.Assignments...), completion.Assignments...)
	merged.UnplacedTasks = completion.UnplacedTasks
	for id, end := range partial.JobCompletions {
		merged.JobCompletions[id] = end
	}
	for id, end := range completion.JobCompletions {
		if c, ok := merged.JobCompletions[id]; !ok || end.After(c) {
			merged.JobCompletions[id] = end
		}
	}
	merged.Feasible = len(merged.UnplacedTasks) == 0
	return merged
}

// finalizeMetrics fills in Makespan and TotalTardiness from the
// completed solution's per-job completion instants.
func finalizeMetrics(sol *solver.Solution, jobs []*entity.Job, horizonStart time.Time) {
	byID := make(map[entity.JobID]*entity.Job, len(jobs))
	for _, j := range jobs {
		byID[j.ID()] = j
	}
	for jobID, completion := range sol.JobCompletions {
		job, ok := byID[jobID]
		if !ok {
			continue
		}
		if completion.After(job.DueDate()) {
			tardy := valueobject.MustDuration(completion.Sub(job.DueDate()).Minutes())
			sol.TotalTardiness = sol.TotalTardiness.Add(tardy)
		}
		if span := completion.Sub(horizonStart).Minutes(); span > sol.Makespan.Minutes() {
			sol.Makespan = valueobject.MustDuration(span)
		}
	}
}

const oneWeekMinutes = 7 * 24 * 60

// qualityScore implements `completion_ratio * (1 - min(tardiness /
// (7*24*60), 1) * 0.3)`, scaled by an optional makespan ratio when a
// reference makespan is known.
func qualityScore(sol solver.Solution, totalTasks int, referenceMakespanMinutes *float64) float64 {
	if totalTasks == 0 {
		return 1.0
	}
	completionRatio := float64(len(sol.Assignments)) / float64(totalTasks)
	tardinessFactor := math.Min(sol.TotalTardiness.Minutes()/oneWeekMinutes, 1.0)
	score := completionRatio * (1 - tardinessFactor*0.3)

	if referenceMakespanMinutes != nil && *referenceMakespanMinutes > 0 && sol.Makespan.Minutes() > 0 {
		score *= 0.7 + 0.3*(*referenceMakespanMinutes/sol.Makespan.Minutes())
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}
