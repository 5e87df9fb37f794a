package skillmatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulcanmes/scheduler/internal/entity"
	"github.com/vulcanmes/scheduler/internal/valueobject"
)

func newSkilledOperator(t *testing.T, employeeID string, skill valueobject.SkillType, level valueobject.SkillLevel) *entity.Operator {
	t.Helper()
	op, err := entity.NewOperator(employeeID, "Jane", "Doe", "MILLING", time.Now().Add(-365*24*time.Hour), valueobject.DayHours{})
	require.NoError(t, err)
	require.NoError(t, op.AddSkill(entity.SkillRecord{SkillType: skill, Level: level, CertifiedDate: time.Now().Add(-30 * 24 * time.Hour)}))
	return op
}

func TestFindQualifiedOperatorsFiltersByLevel(t *testing.T) {
	now := time.Now()
	junior := newSkilledOperator(t, "EMP-1", "CNC_MILL", valueobject.SkillLevelBasic)
	senior := newSkilledOperator(t, "EMP-2", "CNC_MILL", valueobject.SkillLevelExpert)

	qualified := FindQualifiedOperators(nil, []valueobject.SkillType{"CNC_MILL"}, valueobject.SkillLevelJourneyman, []*entity.Operator{junior, senior}, now)
	require.Len(t, qualified, 1)
	assert.Equal(t, "EMP-2", qualified[0].EmployeeID())
}

func TestFindBestOperatorPrefersHigherLevel(t *testing.T) {
	now := time.Now()
	basic := newSkilledOperator(t, "EMP-1", "WELDING", valueobject.SkillLevelBasic)
	expert := newSkilledOperator(t, "EMP-2", "WELDING", valueobject.SkillLevelExpert)

	best := FindBestOperator([]*entity.Operator{basic, expert}, []valueobject.SkillType{"WELDING"}, now)
	require.NotNil(t, best)
	assert.Equal(t, "EMP-2", best.EmployeeID())
}

func TestGetSkillGapAnalysisReportsMissingAndUnderLevel(t *testing.T) {
	now := time.Now()
	op := newSkilledOperator(t, "EMP-1", "WELDING", valueobject.SkillLevelBasic)
	roles := []valueobject.RoleRequirement{
		{SkillType: "WELDING", MinimumLevel: valueobject.SkillLevelExpert, Count: 1},
		{SkillType: "CNC_MILL", MinimumLevel: valueobject.SkillLevelBasic, Count: 1},
	}

	gaps := GetSkillGapAnalysis(op, roles, now)
	require.Len(t, gaps, 2)

	weldingGap := gaps[0]
	assert.Equal(t, valueobject.SkillType("WELDING"), weldingGap.SkillType)
	require.NotNil(t, weldingGap.CurrentLevel)
	assert.Equal(t, valueobject.SkillLevelBasic, *weldingGap.CurrentLevel)

	millGap := gaps[1]
	assert.Nil(t, millGap.CurrentLevel)
}

func newCriticalTask(t *testing.T, jobID entity.JobID, seq int, critical bool, minutes float64) *entity.Task {
	t.Helper()
	opts := []valueobject.MachineOption{{MachineID: entity.NewID(), SetupDuration: valueobject.Zero, ProcessingDuration: valueobject.MustDuration(minutes)}}
	task, err := entity.NewTask(jobID, seq, "step", "MILLING", opts, nil, nil)
	require.NoError(t, err)
	task.SetCriticalPath(critical)
	return task
}

func TestIdentifyCriticalSequencesRequiresRunsOfTwo(t *testing.T) {
	job, err := entity.NewJob("JOB-3001", "Acme", "PN-1", 1, entity.PriorityNormal, time.Now().Add(72*time.Hour))
	require.NoError(t, err)

	require.NoError(t, job.AddTask(newCriticalTask(t, job.ID(), 1, true, 30)))
	require.NoError(t, job.AddTask(newCriticalTask(t, job.ID(), 2, true, 45)))
	require.NoError(t, job.AddTask(newCriticalTask(t, job.ID(), 3, false, 10)))
	require.NoError(t, job.AddTask(newCriticalTask(t, job.ID(), 4, true, 20)))

	seqs := IdentifyCriticalSequences(job)
	require.Len(t, seqs, 1)
	assert.Equal(t, 1, seqs[0].StartSeq)
	assert.Equal(t, 2, seqs[0].EndSeq)

	total := CalculateSequenceDuration(job, seqs[0])
	assert.InDelta(t, 75.0, total.Minutes(), 0.001)
}

func TestPrioritizeJobSequenceOrdersByCriticalCountThenPriorityThenDueDate(t *testing.T) {
	now := time.Now()
	urgent, err := entity.NewJob("JOB-4001", "Acme", "PN-1", 1, entity.PriorityCritical, now.Add(24*time.Hour))
	require.NoError(t, err)
	normal, err := entity.NewJob("JOB-4002", "Acme", "PN-2", 1, entity.PriorityNormal, now.Add(48*time.Hour))
	require.NoError(t, err)

	ordered := PrioritizeJobSequence([]*entity.Job{normal, urgent})
	require.Len(t, ordered, 2)
	assert.Equal(t, "JOB-4001", ordered[0].JobNumber())
}
