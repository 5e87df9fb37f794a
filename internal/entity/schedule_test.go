package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulcanmes/scheduler/internal/valueobject"
)

func newTestSchedule(t *testing.T) *Schedule {
	t.Helper()
	now := Now()
	horizon, err := valueobject.NewTimeWindow(now, now.Add(7*24*time.Hour))
	require.NoError(t, err)
	s, err := NewSchedule("Week 31", horizon)
	require.NoError(t, err)
	return s
}

func TestSchedulePublishRequiresNoViolations(t *testing.T) {
	s := newTestSchedule(t)
	s.SetViolations([]string{"task X overlaps task Y on MILL1"})

	assert.ErrorIs(t, s.Publish(), ErrPublishWithViolations)

	s.SetViolations(nil)
	require.NoError(t, s.Publish())
	assert.Equal(t, SchedulePublished, s.Status())

	evts := s.PullEvents()
	require.Len(t, evts, 1)
	assert.Equal(t, "SchedulePublished", evts[0].Name())
}

func TestScheduleAssignmentOnlyWhileDraft(t *testing.T) {
	s := newTestSchedule(t)
	require.NoError(t, s.Publish())

	a := ScheduleAssignment{TaskID: NewID(), MachineID: NewID(), Start: Now(), End: Now().Add(time.Hour)}
	assert.ErrorIs(t, s.SetAssignment(a, NewID()), ErrScheduleNotDraft)
}

func TestScheduleLifecycle(t *testing.T) {
	s := newTestSchedule(t)
	require.NoError(t, s.Publish())
	require.NoError(t, s.Activate())
	require.NoError(t, s.Complete())
	assert.Equal(t, ScheduleCompleted, s.Status())
	assert.ErrorIs(t, s.Activate(), ErrInvalidStateTransition)
}
