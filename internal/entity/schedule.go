package entity

import (
	"time"

	"github.com/vulcanmes/scheduler/internal/event"
	"github.com/vulcanmes/scheduler/internal/valueobject"
)

// ScheduleAssignment pins one task to a machine, operator set, and time
// window within a Schedule.
type ScheduleAssignment struct {
	TaskID      TaskID
	MachineID   MachineID
	OperatorIDs []OperatorID
	Start       time.Time
	End         time.Time
}

// ScheduleMetrics are the cached, solver-produced quality figures for a
// Schedule, replaced through SetMetrics; SetAssignment leaves them
// unchanged.
type ScheduleMetrics struct {
	Makespan        valueobject.Duration
	TotalTardiness  valueobject.Duration
	OperatorCost    valueobject.Money
	ViolationCount  int
}

// Schedule is the aggregate produced by the solver: a DRAFT set of task
// assignments that, once free of violations, can be published and
// activated on the shop floor.
type Schedule struct {
	id       ScheduleID
	name     string
	horizon  valueobject.TimeWindow
	status   ScheduleStatus

	jobIDs      map[JobID]struct{}
	assignments map[TaskID]ScheduleAssignment
	violations  []string
	metrics     ScheduleMetrics

	createdAt time.Time
	updatedAt time.Time

	events []event.Event
}

// NewSchedule constructs an empty DRAFT Schedule over the given planning
// horizon.
func NewSchedule(name string, horizon valueobject.TimeWindow) (*Schedule, error) {
	now := Now()
	return &Schedule{
		id:          NewID(),
		name:        name,
		horizon:     horizon,
		status:      ScheduleDraft,
		jobIDs:      make(map[JobID]struct{}),
		assignments: make(map[TaskID]ScheduleAssignment),
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

func (s *Schedule) ID() ScheduleID                  { return s.id }
func (s *Schedule) Name() string                    { return s.name }
func (s *Schedule) Horizon() valueobject.TimeWindow { return s.horizon }
func (s *Schedule) Status() ScheduleStatus          { return s.status }
func (s *Schedule) Metrics() ScheduleMetrics        { return s.metrics }
func (s *Schedule) Violations() []string            { return append([]string(nil), s.violations...) }

// Assignments returns every task assignment in the schedule.
func (s *Schedule) Assignments() []ScheduleAssignment {
	out := make([]ScheduleAssignment, 0, len(s.assignments))
	for _, a := range s.assignments {
		out = append(out, a)
	}
	return out
}

// AssignmentFor looks up the assignment for a single task.
func (s *Schedule) AssignmentFor(taskID TaskID) (ScheduleAssignment, bool) {
	a, ok := s.assignments[taskID]
	return a, ok
}

// PullEvents drains and returns the schedule's accumulated domain events.
func (s *Schedule) PullEvents() []event.Event {
	evts := s.events
	s.events = nil
	return evts
}

func (s *Schedule) record(e event.Event) {
	s.events = append(s.events, e)
}

// SetAssignment records (or overwrites) a task's placement. It is only
// permitted while the schedule is DRAFT, matching the invariant that a
// published schedule's assignments are immutable snapshots.
func (s *Schedule) SetAssignment(a ScheduleAssignment, jobID JobID) error {
	if s.status != ScheduleDraft {
		return ErrScheduleNotDraft
	}
	s.assignments[a.TaskID] = a
	s.jobIDs[jobID] = struct{}{}
	s.updatedAt = Now()
	return nil
}

// SetViolations replaces the schedule's outstanding constraint
// violations, as reported by the validation layer.
func (s *Schedule) SetViolations(violations []string) {
	s.violations = append([]string(nil), violations...)
	s.updatedAt = Now()
}

// SetMetrics replaces the schedule's cached solver metrics.
func (s *Schedule) SetMetrics(m ScheduleMetrics) {
	s.metrics = m
	s.updatedAt = Now()
}

// JobIDs returns the distinct jobs represented in the schedule.
func (s *Schedule) JobIDs() []JobID {
	out := make([]JobID, 0, len(s.jobIDs))
	for id := range s.jobIDs {
		out = append(out, id)
	}
	return out
}

// Publish transitions DRAFT -> PUBLISHED. It is rejected if any
// constraint violation remains outstanding.
func (s *Schedule) Publish() error {
	if s.status != ScheduleDraft {
		return ErrScheduleNotDraft
	}
	if len(s.violations) > 0 {
		return ErrPublishWithViolations
	}
	return s.transition(SchedulePublished, "published")
}

// Activate transitions PUBLISHED -> ACTIVE, meaning the shop floor is
// now executing against this schedule.
func (s *Schedule) Activate() error {
	return s.transition(ScheduleActive, "activated")
}

// Revert transitions PUBLISHED back to DRAFT for rework.
func (s *Schedule) Revert(reason string) error {
	return s.transition(ScheduleDraft, reason)
}

// Complete transitions ACTIVE -> COMPLETED. It checks neither the
// planning horizon nor the status of the assigned tasks.
func (s *Schedule) Complete() error {
	return s.transition(ScheduleCompleted, "horizon complete")
}

// Cancel transitions the schedule to CANCELLED from any non-terminal
// state.
func (s *Schedule) Cancel(reason string) error {
	return s.transition(ScheduleCancelled, reason)
}

func (s *Schedule) transition(to ScheduleStatus, reason string) error {
	if !s.status.CanTransition(to) {
		return ErrInvalidStateTransition
	}
	if s.status == to {
		return nil
	}
	old := s.status
	s.status = to
	if to == SchedulePublished {
		s.record(event.NewSchedulePublished(s.id))
	} else {
		s.record(event.NewScheduleStatusChanged(s.id, string(old), string(to)))
	}
	s.updatedAt = Now()
	return nil
}
