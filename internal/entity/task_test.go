package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulcanmes/scheduler/internal/valueobject"
)

func testOptions() []valueobject.MachineOption {
	return []valueobject.MachineOption{
		{MachineID: NewID(), SetupDuration: valueobject.MustDuration(10), ProcessingDuration: valueobject.MustDuration(50)},
	}
}

func TestNewTaskValidation(t *testing.T) {
	jobID := NewID()

	_, err := NewTask(jobID, 0, "Mill", "MILLING", testOptions(), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidSequence)

	_, err = NewTask(jobID, 101, "Mill", "MILLING", testOptions(), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidSequence)

	_, err = NewTask(jobID, 1, "Mill", "MILLING", nil, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NewTask(jobID, 1, "Mill", "lowercase", testOptions(), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidDepartment)

	task, err := NewTask(jobID, 1, "Mill", "MILLING", testOptions(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, TaskPending, task.Status())
}

func TestTaskLifecycle(t *testing.T) {
	jobID := NewID()
	task, err := NewTask(jobID, 1, "Mill", "MILLING", testOptions(), nil, nil)
	require.NoError(t, err)

	require.NoError(t, task.MarkReady())
	assert.Equal(t, TaskReady, task.Status())

	opt := task.MachineOptions()[0]
	now := Now()
	start := now
	end := now.Add(time.Hour)
	require.NoError(t, task.Schedule(opt.MachineID, opt, nil, start, end))
	assert.Equal(t, TaskScheduled, task.Status())

	require.NoError(t, task.Start(start, nil))
	assert.Equal(t, TaskInProgress, task.Status())
	assert.False(t, task.Status().IsTerminal())

	require.NoError(t, task.Complete(end.Add(30 * time.Minute)))
	assert.Equal(t, TaskCompleted, task.Status())
	assert.InDelta(t, 30, task.DelayMinutes(), 0.001)

	evts := task.PullEvents()
	assert.NotEmpty(t, evts)
	// pulling again drains to empty
	assert.Empty(t, task.PullEvents())
}

func TestTaskInvalidTransitionRejected(t *testing.T) {
	jobID := NewID()
	task, err := NewTask(jobID, 1, "Mill", "MILLING", testOptions(), nil, nil)
	require.NoError(t, err)

	// PENDING -> IN_PROGRESS is not a valid direct transition
	assert.ErrorIs(t, task.Start(Now(), nil), ErrInvalidStateTransition)
}

func TestTaskRestartFromTerminal(t *testing.T) {
	jobID := NewID()
	task, err := NewTask(jobID, 1, "Mill", "MILLING", testOptions(), nil, nil)
	require.NoError(t, err)
	require.NoError(t, task.Cancel("operator error"))
	assert.Equal(t, TaskCancelled, task.Status())

	require.NoError(t, task.Restart("re-queued"))
	assert.Equal(t, TaskPending, task.Status())
	assert.Nil(t, task.AssignedMachineID())
}

func TestTaskReworkIncrementsCount(t *testing.T) {
	jobID := NewID()
	task, err := NewTask(jobID, 1, "Mill", "MILLING", testOptions(), nil, nil)
	require.NoError(t, err)
	require.NoError(t, task.MarkReady())
	opt := task.MachineOptions()[0]
	require.NoError(t, task.Schedule(opt.MachineID, opt, nil, Now(), Now().Add(time.Hour)))
	require.NoError(t, task.Start(Now(), nil))
	require.NoError(t, task.Fail("tool broke"))
	assert.Equal(t, TaskFailed, task.Status())

	require.NoError(t, task.Rework("re-tooled"))
	assert.Equal(t, TaskReady, task.Status())
	assert.Equal(t, 1, task.ReworkCount())
}

func TestMachineOptionOperatorRequiredDuration(t *testing.T) {
	opt := valueobject.MachineOption{
		SetupDuration:      valueobject.MustDuration(10),
		ProcessingDuration: valueobject.MustDuration(50),
	}
	full := opt.OperatorRequiredDuration(valueobject.AttendanceFullDuration)
	assert.InDelta(t, 60, full.Minutes(), 0.001)

	setupOnly := opt.OperatorRequiredDuration(valueobject.AttendanceSetupOnly)
	assert.InDelta(t, 10, setupOnly.Minutes(), 0.001)

	opt.RequiresOperatorFullDur = true
	unionWins := opt.OperatorRequiredDuration(valueobject.AttendanceSetupOnly)
	assert.InDelta(t, 60, unionWins.Minutes(), 0.001)
}
