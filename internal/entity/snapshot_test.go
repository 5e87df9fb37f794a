package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulcanmes/scheduler/internal/valueobject"
)

func TestJobSnapshotRoundTrip(t *testing.T) {
	j := newTestJob(t)
	opts := []valueobject.MachineOption{{MachineID: NewID(), SetupDuration: valueobject.MustDuration(10), ProcessingDuration: valueobject.MustDuration(20)}}
	task, err := NewTask(j.ID(), 1, "Mill", "MILLING", opts, nil, nil)
	require.NoError(t, err)
	require.NoError(t, j.AddTask(task))

	snap := j.Snapshot()
	restored := RestoreJob(snap)

	assert.Equal(t, j.ID(), restored.ID())
	assert.Equal(t, j.JobNumber(), restored.JobNumber())
	assert.Equal(t, j.Status(), restored.Status())
	assert.Len(t, restored.Tasks(), 1)
	assert.Equal(t, task.ID(), restored.Tasks()[0].ID())
	assert.Equal(t, task.MachineOptions()[0].SetupDuration.Minutes(), restored.Tasks()[0].MachineOptions()[0].SetupDuration.Minutes())
}

func TestMachineSnapshotRoundTrip(t *testing.T) {
	m, err := NewMachine("MILL1", "Mill 1", NewID(), AutomationAttended, 1.3)
	require.NoError(t, err)
	require.NoError(t, m.AddCapability(Capability{Operation: "CNC_MILL"}))

	w, err := valueobject.NewTimeWindow(Now(), Now().Add(2*time.Hour))
	require.NoError(t, err)
	require.NoError(t, m.ScheduleMaintenance(w, "PM"))

	restored := RestoreMachine(m.Snapshot())
	assert.Equal(t, m.Code(), restored.Code())
	assert.True(t, restored.CanPerform("CNC_MILL"))
	assert.True(t, restored.IsUnderMaintenance(Now().Add(time.Hour)))
	assert.InDelta(t, m.EfficiencyFactor(), restored.EfficiencyFactor(), 0.0001)
}

func TestScheduleSnapshotRoundTrip(t *testing.T) {
	now := Now()
	horizon, err := valueobject.NewTimeWindow(now, now.Add(24*time.Hour))
	require.NoError(t, err)
	s, err := NewSchedule("W31", horizon)
	require.NoError(t, err)

	taskID, machineID, jobID := NewID(), NewID(), NewID()
	require.NoError(t, s.SetAssignment(ScheduleAssignment{TaskID: taskID, MachineID: machineID, Start: now, End: now.Add(time.Hour)}, jobID))

	restored := RestoreSchedule(s.Snapshot())
	a, ok := restored.AssignmentFor(taskID)
	require.True(t, ok)
	assert.Equal(t, machineID, a.MachineID)
	assert.Contains(t, restored.JobIDs(), jobID)
}
