package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulcanmes/scheduler/internal/entity"
	"github.com/vulcanmes/scheduler/internal/valueobject"
)

func buildJobWithTasks(t *testing.T, n int, department string) (*entity.Job, []*entity.Task) {
	t.Helper()
	job, err := entity.NewJob("JOB-2001", "Acme", "PN-1", 1, entity.PriorityNormal, entity.Now().Add(72*time.Hour))
	require.NoError(t, err)

	tasks := make([]*entity.Task, n)
	var prev entity.TaskID
	for i := 0; i < n; i++ {
		opts := []valueobject.MachineOption{{MachineID: entity.NewID(), SetupDuration: valueobject.MustDuration(5), ProcessingDuration: valueobject.MustDuration(25)}}
		var preds []entity.TaskID
		if i > 0 {
			preds = []entity.TaskID{prev}
		}
		task, err := entity.NewTask(job.ID(), i+1, "step", department, opts, nil, preds)
		require.NoError(t, err)
		require.NoError(t, job.AddTask(task))
		tasks[i] = task
		prev = task.ID()
	}
	return job, tasks
}

func TestValidatorDetectsResourceOverlap(t *testing.T) {
	job, tasks := buildJobWithTasks(t, 2, "")
	machine := entity.NewID()

	horizon, err := valueobject.NewTimeWindow(entity.Now(), entity.Now().Add(24*time.Hour))
	require.NoError(t, err)
	sched, err := entity.NewSchedule("test", horizon)
	require.NoError(t, err)

	start := entity.Now()
	require.NoError(t, sched.SetAssignment(entity.ScheduleAssignment{
		TaskID: tasks[0].ID(), MachineID: machine, Start: start, End: start.Add(time.Hour),
	}, job.ID()))
	require.NoError(t, sched.SetAssignment(entity.ScheduleAssignment{
		TaskID: tasks[1].ID(), MachineID: machine, Start: start.Add(30 * time.Minute), End: start.Add(90 * time.Minute),
	}, job.ID()))

	v := NewConstraintValidator(valueobject.AroundTheClockCalendar())
	result := v.Validate(sched, ScheduleContext{Jobs: map[entity.JobID]*entity.Job{job.ID(): job}})

	assert.True(t, result.HasErrors())
	assert.Len(t, result.MessagesByCode(CodeResourceOverlap), 1)
}

func TestValidatorDetectsPrecedenceViolation(t *testing.T) {
	job, tasks := buildJobWithTasks(t, 2, "")

	horizon, err := valueobject.NewTimeWindow(entity.Now(), entity.Now().Add(24*time.Hour))
	require.NoError(t, err)
	sched, err := entity.NewSchedule("test", horizon)
	require.NoError(t, err)

	start := entity.Now()
	require.NoError(t, sched.SetAssignment(entity.ScheduleAssignment{
		TaskID: tasks[0].ID(), MachineID: entity.NewID(), Start: start.Add(time.Hour), End: start.Add(2 * time.Hour),
	}, job.ID()))
	// second task starts before the first (its predecessor) finishes
	require.NoError(t, sched.SetAssignment(entity.ScheduleAssignment{
		TaskID: tasks[1].ID(), MachineID: entity.NewID(), Start: start, End: start.Add(30 * time.Minute),
	}, job.ID()))

	v := NewConstraintValidator(valueobject.AroundTheClockCalendar())
	result := v.Validate(sched, ScheduleContext{Jobs: map[entity.JobID]*entity.Job{job.ID(): job}})

	assert.Len(t, result.MessagesByCode(CodePrecedenceViolated), 1)
}

// TestValidatorDetectsWipLimitExceeded matches the canonical scenario:
// a zone (0,30,1) with two jobs whose first tasks (sequence 1, inside
// the zone) run concurrently on different machines produces exactly
// one WIP_LIMIT_EXCEEDED violation.
func TestValidatorDetectsWipLimitExceeded(t *testing.T) {
	zone, err := entity.NewProductionZone("ZONE-A", "Fab", 0, 30, 1)
	require.NoError(t, err)

	m1, err := entity.NewMachine("MILL1", "Mill 1", entity.NewID(), entity.AutomationUnattended, 1.0)
	require.NoError(t, err)
	m2, err := entity.NewMachine("MILL2", "Mill 2", entity.NewID(), entity.AutomationUnattended, 1.0)
	require.NoError(t, err)

	job1, t1 := buildJobWithTasks(t, 1, "")
	job2, t2 := buildJobWithTasks(t, 1, "")

	horizon, err := valueobject.NewTimeWindow(entity.Now(), entity.Now().Add(24*time.Hour))
	require.NoError(t, err)
	sched, err := entity.NewSchedule("test", horizon)
	require.NoError(t, err)

	start := entity.Now()
	require.NoError(t, sched.SetAssignment(entity.ScheduleAssignment{
		TaskID: t1[0].ID(), MachineID: m1.ID(), Start: start, End: start.Add(time.Hour),
	}, job1.ID()))
	require.NoError(t, sched.SetAssignment(entity.ScheduleAssignment{
		TaskID: t2[0].ID(), MachineID: m2.ID(), Start: start.Add(15 * time.Minute), End: start.Add(45 * time.Minute),
	}, job2.ID()))

	v := NewConstraintValidator(valueobject.AroundTheClockCalendar())
	result := v.Validate(sched, ScheduleContext{
		Jobs:     map[entity.JobID]*entity.Job{job1.ID(): job1, job2.ID(): job2},
		Machines: map[entity.MachineID]*entity.Machine{m1.ID(): m1, m2.ID(): m2},
		Zones:    map[entity.ZoneID]*entity.ProductionZone{zone.ID(): zone},
	})

	assert.Len(t, result.MessagesByCode(CodeWipLimitExceeded), 1)
}

// TestValidatorAllowsWipZoneWhenJobsDoNotOverlap checks that the same
// zone raises nothing once the two jobs' spans are sequential instead
// of concurrent.
func TestValidatorAllowsWipZoneWhenJobsDoNotOverlap(t *testing.T) {
	zone, err := entity.NewProductionZone("ZONE-A", "Fab", 0, 30, 1)
	require.NoError(t, err)

	job1, t1 := buildJobWithTasks(t, 1, "")
	job2, t2 := buildJobWithTasks(t, 1, "")

	horizon, err := valueobject.NewTimeWindow(entity.Now(), entity.Now().Add(24*time.Hour))
	require.NoError(t, err)
	sched, err := entity.NewSchedule("test", horizon)
	require.NoError(t, err)

	start := entity.Now()
	require.NoError(t, sched.SetAssignment(entity.ScheduleAssignment{
		TaskID: t1[0].ID(), MachineID: entity.NewID(), Start: start, End: start.Add(time.Hour),
	}, job1.ID()))
	require.NoError(t, sched.SetAssignment(entity.ScheduleAssignment{
		TaskID: t2[0].ID(), MachineID: entity.NewID(), Start: start.Add(time.Hour), End: start.Add(2 * time.Hour),
	}, job2.ID()))

	v := NewConstraintValidator(valueobject.AroundTheClockCalendar())
	result := v.Validate(sched, ScheduleContext{
		Jobs:  map[entity.JobID]*entity.Job{job1.ID(): job1, job2.ID(): job2},
		Zones: map[entity.ZoneID]*entity.ProductionZone{zone.ID(): zone},
	})

	assert.Empty(t, result.MessagesByCode(CodeWipLimitExceeded))
}

// TestValidatorDetectsCriticalSequenceOverlap checks the cross-job
// ordering semantics: two jobs whose tasks both fall inside one
// configured critical sequence range, running concurrently, produce a
// violation even though they run on different machines.
func TestValidatorDetectsCriticalSequenceOverlap(t *testing.T) {
	cs, err := entity.NewCriticalSequence(20, 28, "Critical Welding")
	require.NoError(t, err)

	job1, err := entity.NewJob("JOB-3001", "Acme", "PN-1", 1, entity.PriorityNormal, entity.Now().Add(72*time.Hour))
	require.NoError(t, err)
	job2, err := entity.NewJob("JOB-3002", "Acme", "PN-2", 1, entity.PriorityNormal, entity.Now().Add(72*time.Hour))
	require.NoError(t, err)

	opts := []valueobject.MachineOption{{MachineID: entity.NewID(), SetupDuration: valueobject.MustDuration(5), ProcessingDuration: valueobject.MustDuration(25)}}
	task1, err := entity.NewTask(job1.ID(), 22, "weld", "", opts, nil, nil)
	require.NoError(t, err)
	require.NoError(t, job1.AddTask(task1))
	task2, err := entity.NewTask(job2.ID(), 24, "weld", "", opts, nil, nil)
	require.NoError(t, err)
	require.NoError(t, job2.AddTask(task2))

	horizon, err := valueobject.NewTimeWindow(entity.Now(), entity.Now().Add(24*time.Hour))
	require.NoError(t, err)
	sched, err := entity.NewSchedule("test", horizon)
	require.NoError(t, err)

	start := entity.Now()
	require.NoError(t, sched.SetAssignment(entity.ScheduleAssignment{
		TaskID: task1.ID(), MachineID: entity.NewID(), Start: start, End: start.Add(time.Hour),
	}, job1.ID()))
	require.NoError(t, sched.SetAssignment(entity.ScheduleAssignment{
		TaskID: task2.ID(), MachineID: entity.NewID(), Start: start.Add(30 * time.Minute), End: start.Add(90 * time.Minute),
	}, job2.ID()))

	v := NewConstraintValidator(valueobject.AroundTheClockCalendar())
	result := v.Validate(sched, ScheduleContext{
		Jobs:              map[entity.JobID]*entity.Job{job1.ID(): job1, job2.ID(): job2},
		CriticalSequences: []entity.CriticalSequence{cs},
	})

	assert.Len(t, result.MessagesByCode(CodeCriticalSequence), 1)
}

func TestValidatorDetectsMachineIncapable(t *testing.T) {
	job, tasks := buildJobWithTasks(t, 1, "WELDING")
	m, err := entity.NewMachine("MILL1", "Mill 1", entity.NewID(), entity.AutomationUnattended, 1.0)
	require.NoError(t, err)
	require.NoError(t, m.AddCapability(entity.Capability{Operation: "CNC_MILL"}))

	horizon, err := valueobject.NewTimeWindow(entity.Now(), entity.Now().Add(24*time.Hour))
	require.NoError(t, err)
	sched, err := entity.NewSchedule("test", horizon)
	require.NoError(t, err)

	start := entity.Now()
	require.NoError(t, sched.SetAssignment(entity.ScheduleAssignment{
		TaskID: tasks[0].ID(), MachineID: m.ID(), Start: start, End: start.Add(time.Hour),
	}, job.ID()))

	v := NewConstraintValidator(valueobject.AroundTheClockCalendar())
	result := v.Validate(sched, ScheduleContext{
		Jobs:     map[entity.JobID]*entity.Job{job.ID(): job},
		Machines: map[entity.MachineID]*entity.Machine{m.ID(): m},
	})

	assert.Len(t, result.MessagesByCode(CodeMachineIncapable), 1)
}

func TestValidatorCleanScheduleHasNoViolations(t *testing.T) {
	job, tasks := buildJobWithTasks(t, 1, "")
	horizon, err := valueobject.NewTimeWindow(entity.Now(), entity.Now().Add(24*time.Hour))
	require.NoError(t, err)
	sched, err := entity.NewSchedule("test", horizon)
	require.NoError(t, err)

	start := entity.Now()
	require.NoError(t, sched.SetAssignment(entity.ScheduleAssignment{
		TaskID: tasks[0].ID(), MachineID: entity.NewID(), Start: start, End: start.Add(time.Hour),
	}, job.ID()))

	v := NewConstraintValidator(valueobject.AroundTheClockCalendar())
	result := v.Validate(sched, ScheduleContext{Jobs: map[entity.JobID]*entity.Job{job.ID(): job}})

	assert.True(t, result.IsValid())
}
