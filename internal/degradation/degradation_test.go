package degradation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulcanmes/scheduler/internal/entity"
	"github.com/vulcanmes/scheduler/internal/fallback"
	"github.com/vulcanmes/scheduler/internal/solver"
	"github.com/vulcanmes/scheduler/internal/valueobject"
)

func TestLevelForMatchesSpecThresholds(t *testing.T) {
	assert.Equal(t, FullService, LevelFor(0.95))
	assert.Equal(t, FullService, LevelFor(1.0))
	assert.Equal(t, High, LevelFor(0.80))
	assert.Equal(t, High, LevelFor(0.94))
	assert.Equal(t, Medium, LevelFor(0.60))
	assert.Equal(t, Low, LevelFor(0.40))
	assert.Equal(t, Minimal, LevelFor(0.20))
	assert.Equal(t, Emergency, LevelFor(0.01))
	assert.Equal(t, Unavailable, LevelFor(0.0))
}

func TestResponseTimeScoreDecaysLinearly(t *testing.T) {
	assert.Equal(t, 1.0, responseTimeScore(10*time.Second))
	assert.Equal(t, 1.0, responseTimeScore(30*time.Second))
	assert.InDelta(t, 0.5, responseTimeScore(165*time.Second), 0.001)
	assert.Equal(t, 0.0, responseTimeScore(300*time.Second))
	assert.Equal(t, 0.0, responseTimeScore(10*time.Minute))
}

func TestAssessFullyCompletedSolutionScoresHigh(t *testing.T) {
	m1 := entity.NewID()
	sol := solver.Solution{
		Assignments: []solver.TaskAssignment{
			{MachineID: m1, Start: time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC), End: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)},
		},
		Makespan:       valueobject.MustDuration(60),
		TotalTardiness: valueobject.Zero,
	}
	qa := Assess(sol, 1, nil, 5*time.Second)
	assert.Equal(t, 1.0, qa.CompletionScore)
	assert.Equal(t, 1.0, qa.TardinessScore)
	assert.Equal(t, FullService, qa.Level)
}

func TestAssessPartialCompletionDragsScoreDown(t *testing.T) {
	sol := solver.Solution{
		Assignments:    nil,
		UnplacedTasks:  []entity.TaskID{entity.NewID(), entity.NewID()},
		Makespan:       valueobject.Zero,
		TotalTardiness: valueobject.Zero,
	}
	qa := Assess(sol, 2, nil, 5*time.Second)
	assert.Equal(t, 0.0, qa.CompletionScore)
	assert.Less(t, qa.Overall, 0.60)
}

func TestAssessHighTardinessLowersScore(t *testing.T) {
	m1 := entity.NewID()
	sol := solver.Solution{
		Assignments:    []solver.TaskAssignment{{MachineID: m1, Start: time.Now(), End: time.Now().Add(time.Hour)}},
		Makespan:       valueobject.MustDuration(60),
		TotalTardiness: valueobject.MustDuration(oneWeekMinutes),
	}
	qa := Assess(sol, 1, nil, 5*time.Second)
	assert.Equal(t, 0.0, qa.TardinessScore)
	assert.Less(t, qa.Overall, 1.0)
}

func TestLimitsForNarrowsAsLevelDrops(t *testing.T) {
	full := LimitsFor(FullService)
	minimal := LimitsFor(Minimal)
	assert.Greater(t, full.MaxExecutionTime, minimal.MaxExecutionTime)
	assert.Greater(t, full.MemoryMB, minimal.MemoryMB)
	assert.Contains(t, minimal.AllowedFallbacks, fallback.StrategyGreedy)
}

func mustMachine(t *testing.T, code string, zoneID entity.ZoneID) *entity.Machine {
	t.Helper()
	m, err := entity.NewMachine(code, code, zoneID, entity.AutomationUnattended, 1.0)
	require.NoError(t, err)
	require.NoError(t, m.AddCapability(entity.Capability{Operation: "MILLING"}))
	return m
}

func TestManagerHandleFailureReturnsScheduleAndAssessment(t *testing.T) {
	zone := entity.NewID()
	m1 := mustMachine(t, "M1", zone)
	horizon := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

	job, err := entity.NewJob("JOB-1", "Acme", "PN-J1", 1, entity.PriorityNormal, time.Now().Add(72*time.Hour))
	require.NoError(t, err)
	opts := []valueobject.MachineOption{{MachineID: m1.ID(), SetupDuration: valueobject.Zero, ProcessingDuration: valueobject.MustDuration(60)}}
	task, err := entity.NewTask(job.ID(), 1, "op", "MILLING", opts, nil, nil)
	require.NoError(t, err)
	require.NoError(t, job.AddTask(task))

	machines := map[entity.MachineID]*entity.Machine{m1.ID(): m1}
	mgr := NewManager()

	sched, qa := mgr.HandleFailure(context.Background(), fallback.ReasonNoFeasibleSolution, []*entity.Job{job}, machines, nil, horizon, nil, nil)
	require.NotNil(t, sched)
	assert.Len(t, sched.Assignments, 1)
	assert.NotEqual(t, Unavailable, qa.Level)
}

func TestManagerHandleFailureReturnsUnavailableWhenNothingCouldBePlaced(t *testing.T) {
	zone := entity.NewID()
	m1 := mustMachine(t, "M1", zone)
	horizon := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

	job, err := entity.NewJob("JOB-1", "Acme", "PN-J1", 1, entity.PriorityNormal, time.Now().Add(72*time.Hour))
	require.NoError(t, err)
	opts := []valueobject.MachineOption{{MachineID: m1.ID(), SetupDuration: valueobject.Zero, ProcessingDuration: valueobject.MustDuration(60)}}
	roles := []valueobject.RoleRequirement{{SkillType: valueobject.SkillType("MILLING"), MinimumLevel: valueobject.SkillLevelExpert, Count: 1}}
	task, err := entity.NewTask(job.ID(), 1, "op", "MILLING", opts, roles, nil)
	require.NoError(t, err)
	require.NoError(t, job.AddTask(task))

	machines := map[entity.MachineID]*entity.Machine{m1.ID(): m1}
	mgr := NewManager()

	sched, qa := mgr.HandleFailure(context.Background(), fallback.ReasonNoFeasibleSolution, []*entity.Job{job}, machines, nil, horizon, nil, nil)
	assert.Nil(t, sched)
	assert.Equal(t, Unavailable, qa.Level)
}
