package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulcanmes/scheduler/internal/entity"
	"github.com/vulcanmes/scheduler/internal/event"
	"github.com/vulcanmes/scheduler/internal/valueobject"
)

func newWorkflowMachine(t *testing.T) *entity.Machine {
	t.Helper()
	m, err := entity.NewMachine("MILL1", "Mill 1", entity.NewID(), entity.AutomationAttended, 1.0)
	require.NoError(t, err)
	require.NoError(t, m.AddCapability(entity.Capability{Operation: "MILLING"}))
	return m
}

func newWorkflowOperator(t *testing.T, skill valueobject.SkillType) *entity.Operator {
	t.Helper()
	op, err := entity.NewOperator("EMP-1", "Jane", "Doe", "MILLING", time.Now().Add(-365*24*time.Hour), valueobject.DayHours{})
	require.NoError(t, err)
	require.NoError(t, op.AddSkill(entity.SkillRecord{SkillType: skill, Level: valueobject.SkillLevelExpert, CertifiedDate: time.Now().Add(-30 * 24 * time.Hour)}))
	return op
}

func newWorkflowJob(t *testing.T, machineID entity.MachineID, roles []valueobject.RoleRequirement) *entity.Job {
	t.Helper()
	job, err := entity.NewJob("JOB-5001", "Acme", "PN-1", 1, entity.PriorityNormal, time.Now().Add(72*time.Hour))
	require.NoError(t, err)

	opts := []valueobject.MachineOption{{MachineID: machineID, SetupDuration: valueobject.Zero, ProcessingDuration: valueobject.MustDuration(30)}}
	first, err := entity.NewTask(job.ID(), 1, "mill", "MILLING", opts, roles, nil)
	require.NoError(t, err)
	require.NoError(t, job.AddTask(first))

	second, err := entity.NewTask(job.ID(), 2, "inspect", "MILLING", opts, nil, []entity.TaskID{first.ID()})
	require.NoError(t, err)
	require.NoError(t, job.AddTask(second))
	return job
}

func TestStartTaskAllocatesFromReady(t *testing.T) {
	machine := newWorkflowMachine(t)
	op := newWorkflowOperator(t, "CNC_MILL")
	roles := []valueobject.RoleRequirement{{SkillType: "CNC_MILL", MinimumLevel: valueobject.SkillLevelBasic, Count: 1, Attendance: valueobject.AttendanceFullDuration}}
	job := newWorkflowJob(t, machine.ID(), roles)

	task, ok := job.TaskBySequence(1)
	require.True(t, ok)
	require.NoError(t, task.MarkReady())

	svc := NewService([]*entity.Machine{machine}, []*entity.Operator{op}, event.NewDispatcher(), Options{})
	now := time.Now()
	require.NoError(t, svc.StartTask(job, task.ID(), nil, now))
	assert.Equal(t, entity.TaskInProgress, task.Status())

	history := svc.History()
	require.NotEmpty(t, history)
	assert.Equal(t, task.ID(), history[len(history)-1].TaskID)
}

func TestStartTaskFailsWhenPredecessorsIncomplete(t *testing.T) {
	machine := newWorkflowMachine(t)
	job := newWorkflowJob(t, machine.ID(), nil)

	second, ok := job.TaskBySequence(2)
	require.True(t, ok)
	require.NoError(t, second.MarkReady())

	svc := NewService([]*entity.Machine{machine}, nil, event.NewDispatcher(), Options{})
	err := svc.StartTask(job, second.ID(), nil, time.Now())
	assert.ErrorIs(t, err, ErrPredecessorsIncomplete)
}

func TestCompleteTaskFailsOnQualityRejectionAndAutoStartsNext(t *testing.T) {
	machine := newWorkflowMachine(t)
	job := newWorkflowJob(t, machine.ID(), nil)

	first, ok := job.TaskBySequence(1)
	require.True(t, ok)
	require.NoError(t, first.MarkReady())

	svc := NewService([]*entity.Machine{machine}, nil, event.NewDispatcher(), Options{AutoStartNextTask: true})
	now := time.Now()
	require.NoError(t, svc.StartTask(job, first.ID(), nil, now))

	err := svc.CompleteTask(job, first.ID(), nil, now.Add(30*time.Minute), false)
	assert.ErrorIs(t, err, ErrQualityCheckFailed)
	assert.Equal(t, entity.TaskFailed, first.Status())

	require.NoError(t, first.Rework("reworked"))
	require.NoError(t, svc.StartTask(job, first.ID(), nil, now.Add(time.Hour)))
	require.NoError(t, svc.CompleteTask(job, first.ID(), nil, now.Add(90*time.Minute), true))

	second, ok := job.TaskBySequence(2)
	require.True(t, ok)
	assert.Equal(t, entity.TaskInProgress, second.Status())
}

func TestCompleteTaskCompletesJobWhenAllTasksDone(t *testing.T) {
	machine := newWorkflowMachine(t)
	job, err := entity.NewJob("JOB-5002", "Acme", "PN-2", 1, entity.PriorityNormal, time.Now().Add(72*time.Hour))
	require.NoError(t, err)
	opts := []valueobject.MachineOption{{MachineID: machine.ID(), SetupDuration: valueobject.Zero, ProcessingDuration: valueobject.MustDuration(15)}}
	only, err := entity.NewTask(job.ID(), 1, "mill", "MILLING", opts, nil, nil)
	require.NoError(t, err)
	require.NoError(t, job.AddTask(only))
	require.NoError(t, job.Release(time.Now(), time.Now(), time.Now().Add(time.Hour)))
	require.NoError(t, only.MarkReady())
	require.NoError(t, job.Start(time.Now()))

	svc := NewService([]*entity.Machine{machine}, nil, event.NewDispatcher(), Options{})
	now := time.Now()
	require.NoError(t, svc.StartTask(job, only.ID(), nil, now))
	require.NoError(t, svc.CompleteTask(job, only.ID(), nil, now.Add(15*time.Minute), true))

	assert.Equal(t, entity.JobCompleted, job.Status())
}

func TestCancelAndRestartTask(t *testing.T) {
	machine := newWorkflowMachine(t)
	job := newWorkflowJob(t, machine.ID(), nil)
	first, ok := job.TaskBySequence(1)
	require.True(t, ok)

	svc := NewService([]*entity.Machine{machine}, nil, event.NewDispatcher(), Options{})
	now := time.Now()
	require.NoError(t, svc.CancelTask(job, first.ID(), "no longer needed", now))
	assert.Equal(t, entity.TaskCancelled, first.Status())

	require.NoError(t, svc.RestartTask(job, first.ID(), "reinstated", now))
	assert.Equal(t, entity.TaskPending, first.Status())
}

func TestAdvanceJobWorkflowStartsReadyTasks(t *testing.T) {
	machine := newWorkflowMachine(t)
	job := newWorkflowJob(t, machine.ID(), nil)

	svc := NewService([]*entity.Machine{machine}, nil, event.NewDispatcher(), Options{})
	errs := svc.AdvanceJobWorkflow(job, time.Now())
	assert.Empty(t, errs)

	first, ok := job.TaskBySequence(1)
	require.True(t, ok)
	assert.Equal(t, entity.TaskInProgress, first.Status())

	second, ok := job.TaskBySequence(2)
	require.True(t, ok)
	assert.Equal(t, entity.TaskPending, second.Status())
}

func TestGetJobProgress(t *testing.T) {
	machine := newWorkflowMachine(t)
	job := newWorkflowJob(t, machine.ID(), nil)

	first, ok := job.TaskBySequence(1)
	require.True(t, ok)
	require.NoError(t, first.MarkReady())

	svc := NewService([]*entity.Machine{machine}, nil, event.NewDispatcher(), Options{})
	now := time.Now()
	require.NoError(t, svc.StartTask(job, first.ID(), nil, now))
	require.NoError(t, svc.CompleteTask(job, first.ID(), nil, now.Add(30*time.Minute), true))

	progress := GetJobProgress(job)
	assert.Equal(t, 2, progress.TotalTasks)
	assert.Equal(t, 1, progress.CompletedTasks)
	assert.InDelta(t, 50.0, progress.PercentComplete, 0.001)
}
