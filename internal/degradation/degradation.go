// Package degradation assesses the quality of a schedule (real or
// fallback) and picks the operational tier the scheduler is willing to
// report, so a caller never has to guess how much to trust a result
// produced under failure.
package degradation

import (
	"context"
	"time"

	"github.com/vulcanmes/scheduler/internal/entity"
	"github.com/vulcanmes/scheduler/internal/fallback"
	"github.com/vulcanmes/scheduler/internal/solver"
)

// Level names an operational quality tier.
type Level string

const (
	FullService Level = "FULL_SERVICE"
	High        Level = "HIGH"
	Medium      Level = "MEDIUM"
	Low         Level = "LOW"
	Minimal     Level = "MINIMAL"
	Emergency   Level = "EMERGENCY"
	Unavailable Level = "UNAVAILABLE"
)

// levelThresholds is checked top-down: the first threshold the overall
// score meets or exceeds wins.
var levelThresholds = []struct {
	level     Level
	threshold float64
}{
	{FullService, 0.95},
	{High, 0.80},
	{Medium, 0.60},
	{Low, 0.40},
	{Minimal, 0.20},
}

// LevelFor maps an overall quality score onto its degradation level.
func LevelFor(overall float64) Level {
	for _, l := range levelThresholds {
		if overall >= l.threshold {
			return l.level
		}
	}
	if overall > 0 {
		return Emergency
	}
	return Unavailable
}

// Weights for the quality assessor's weighted sum. They total 1.0.
const (
	weightCompletion = 0.30
	weightMakespan   = 0.20
	weightTardiness  = 0.20
	weightUtilization = 0.15
	weightViolation  = 0.10
	weightResponse   = 0.05
)

const oneWeekMinutes = 7 * 24 * 60

// QualityAssessment is the scored breakdown behind a degradation
// Level, kept alongside the overall number so callers (and logs) can
// see which dimension actually dragged a result down.
type QualityAssessment struct {
	CompletionScore  float64
	MakespanScore    float64
	TardinessScore   float64
	UtilizationScore float64
	ViolationScore   float64
	ResponseScore    float64
	Overall          float64
	Level            Level
}

// Limits bounds the operations a degradation level is permitted to run.
type Limits struct {
	MaxExecutionTime  time.Duration
	MemoryMB          int64
	CPUPercent        float64
	AllowedViolations []string
	AllowedFallbacks  []fallback.Strategy
}

// limitsByLevel defines the operational envelope each degradation
// level is permitted, progressively relaxing violation tolerance and
// fallback choice as quality drops so a worse tier still does
// something useful instead of refusing outright.
var limitsByLevel = map[Level]Limits{
	FullService: {MaxExecutionTime: 300 * time.Second, MemoryMB: 2048, CPUPercent: 80, AllowedViolations: nil, AllowedFallbacks: nil},
	High:        {MaxExecutionTime: 180 * time.Second, MemoryMB: 1536, CPUPercent: 70, AllowedViolations: []string{"soft_preference"}, AllowedFallbacks: []fallback.Strategy{fallback.StrategyPartialSolution}},
	Medium:      {MaxExecutionTime: 120 * time.Second, MemoryMB: 1024, CPUPercent: 60, AllowedViolations: []string{"soft_preference", "minor_tardiness"}, AllowedFallbacks: []fallback.Strategy{fallback.StrategyPartialSolution, fallback.StrategyShortestProcessingTime}},
	Low:         {MaxExecutionTime: 60 * time.Second, MemoryMB: 768, CPUPercent: 50, AllowedViolations: []string{"soft_preference", "minor_tardiness", "suboptimal_routing"}, AllowedFallbacks: []fallback.Strategy{fallback.StrategyGreedy, fallback.StrategyPriorityBased, fallback.StrategyEarliestDueDate, fallback.StrategyShortestProcessingTime}},
	Minimal:     {MaxExecutionTime: 30 * time.Second, MemoryMB: 512, CPUPercent: 40, AllowedViolations: []string{"soft_preference", "minor_tardiness", "suboptimal_routing", "unplaced_tasks"}, AllowedFallbacks: []fallback.Strategy{fallback.StrategyGreedy}},
	Emergency:   {MaxExecutionTime: 10 * time.Second, MemoryMB: 256, CPUPercent: 25, AllowedViolations: []string{"soft_preference", "minor_tardiness", "suboptimal_routing", "unplaced_tasks", "emergency_fallback"}, AllowedFallbacks: []fallback.Strategy{fallback.StrategyGreedy}},
}

// LimitsFor returns the operational envelope for level. Unavailable
// has no envelope: the zero value signals "do not attempt".
func LimitsFor(level Level) Limits {
	return limitsByLevel[level]
}

// Assess scores a solution against the weighted dimensions the quality
// assessor defines, and picks its degradation level. referenceMakespan,
// when non-nil, is a previously known good makespan in minutes used to
// score the solution's makespan relative to it; totalTasks is the task
// count the solution was attempting to place.
func Assess(sol solver.Solution, totalTasks int, referenceMakespanMinutes *float64, executionTime time.Duration) QualityAssessment {
	qa := QualityAssessment{}

	if totalTasks > 0 {
		qa.CompletionScore = clamp01(float64(len(sol.Assignments)) / float64(totalTasks))
	} else {
		qa.CompletionScore = 1.0
	}

	qa.MakespanScore = 1.0
	if referenceMakespanMinutes != nil && *referenceMakespanMinutes > 0 && sol.Makespan.Minutes() > 0 {
		qa.MakespanScore = clamp01(*referenceMakespanMinutes / sol.Makespan.Minutes())
	}

	tardinessFactor := clamp01(sol.TotalTardiness.Minutes() / oneWeekMinutes)
	qa.TardinessScore = 1 - tardinessFactor

	qa.UtilizationScore = utilizationScore(sol)

	if totalTasks > 0 {
		qa.ViolationScore = clamp01(1 - float64(len(sol.UnplacedTasks))/float64(totalTasks))
	} else {
		qa.ViolationScore = 1.0
	}

	qa.ResponseScore = responseTimeScore(executionTime)

	qa.Overall = weightCompletion*qa.CompletionScore +
		weightMakespan*qa.MakespanScore +
		weightTardiness*qa.TardinessScore +
		weightUtilization*qa.UtilizationScore +
		weightViolation*qa.ViolationScore +
		weightResponse*qa.ResponseScore
	qa.Overall = clamp01(qa.Overall)
	qa.Level = LevelFor(qa.Overall)
	return qa
}

// utilizationScore approximates machine utilization as the fraction of
// the solution's makespan window that assigned machines spent busy,
// averaged across every machine that received at least one assignment.
func utilizationScore(sol solver.Solution) float64 {
	if len(sol.Assignments) == 0 || sol.Makespan.Minutes() <= 0 {
		return 0
	}
	busy := make(map[entity.MachineID]float64)
	for _, a := range sol.Assignments {
		busy[a.MachineID] += a.End.Sub(a.Start).Minutes()
	}
	var total float64
	for _, minutes := range busy {
		total += clamp01(minutes / sol.Makespan.Minutes())
	}
	return clamp01(total / float64(len(busy)))
}

// responseTimeScore is 1.0 at or below 30s, linearly decaying to 0.0 at
// 300s, and 0.0 beyond.
func responseTimeScore(executionTime time.Duration) float64 {
	seconds := executionTime.Seconds()
	const floor, ceil = 30.0, 300.0
	if seconds <= floor {
		return 1.0
	}
	if seconds >= ceil {
		return 0.0
	}
	return 1 - (seconds-floor)/(ceil-floor)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Manager orchestrates the on-failure flow: attempt partial-solution
// extraction, invoke a fallback strategy, assess the result, and
// report both the schedule and its quality.
type Manager struct{}

// NewManager constructs a degradation Manager.
func NewManager() *Manager { return &Manager{} }

// HandleFailure runs the on-failure flow for a solve that produced
// reason. partial is the solver's own partial-solution snapshot, if
// any, extracted before the failure (step 1); it is handed to the
// fallback orchestrator so PARTIAL_SOLUTION-eligible reasons can
// complete it rather than restart from scratch (step 2). The result is
// scored (step 3) and returned alongside the schedule (step 4).
func (m *Manager) HandleFailure(ctx context.Context, reason fallback.Reason, jobs []*entity.Job, machines map[entity.MachineID]*entity.Machine, operators []*entity.Operator, horizonStart time.Time, partial *solver.Solution, referenceMakespanMinutes *float64) (*solver.Solution, QualityAssessment) {
	strategy := fallback.StrategyFor(reason)

	result := m.runStrategy(strategy, reason, jobs, machines, operators, horizonStart, partial, referenceMakespanMinutes)

	qa := Assess(result.Solution, totalTasks(jobs), referenceMakespanMinutes, result.ExecutionTime)
	if len(result.Solution.Assignments) == 0 {
		qa.Level = Unavailable
		qa.Overall = 0
		return nil, qa
	}
	return &result.Solution, qa
}

func (m *Manager) runStrategy(strategy fallback.Strategy, reason fallback.Reason, jobs []*entity.Job, machines map[entity.MachineID]*entity.Machine, operators []*entity.Operator, horizonStart time.Time, partial *solver.Solution, referenceMakespanMinutes *float64) (result fallback.Result) {
	defer func() {
		if r := recover(); r != nil {
			result = fallback.EmergencyFallback(reason)
		}
	}()
	return fallback.Run(strategy, reason, jobs, machines, operators, horizonStart, partial, referenceMakespanMinutes)
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
