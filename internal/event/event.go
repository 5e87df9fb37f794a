// Package event defines the domain events emitted by aggregate state
// transitions and an in-process dispatcher that fans them out to
// registered handlers. Events carry only ids and scalar metadata, never
// live object references, so they can cross aggregate and package
// boundaries freely.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is implemented by every domain event.
type Event interface {
	// AggregateID identifies the aggregate that produced the event.
	AggregateID() uuid.UUID
	// Name is the event's stable type name, e.g. "TaskStatusChanged".
	Name() string
	// OccurredAt is when the underlying state transition happened.
	OccurredAt() time.Time
}

// base is embedded by concrete event types to satisfy Event.
type base struct {
	AggregateIDValue uuid.UUID
	OccurredAtValue  time.Time
}

func (b base) AggregateID() uuid.UUID { return b.AggregateIDValue }
func (b base) OccurredAt() time.Time  { return b.OccurredAtValue }

func newBase(id uuid.UUID) base {
	return base{AggregateIDValue: id, OccurredAtValue: time.Now().UTC()}
}

// JobStatusChanged is emitted whenever a Job transitions status.
type JobStatusChanged struct {
	base
	JobID  uuid.UUID
	Old    string
	New    string
	Reason string
}

func (JobStatusChanged) Name() string { return "JobStatusChanged" }

// NewJobStatusChanged constructs a JobStatusChanged event.
func NewJobStatusChanged(jobID uuid.UUID, old, new, reason string) JobStatusChanged {
	return JobStatusChanged{base: newBase(jobID), JobID: jobID, Old: old, New: new, Reason: reason}
}

// TaskStatusChanged is emitted whenever a Task transitions status.
type TaskStatusChanged struct {
	base
	TaskID        uuid.UUID
	JobID         uuid.UUID
	Old           string
	New           string
	Reason        string
	DelayMinutes  float64
}

func (TaskStatusChanged) Name() string { return "TaskStatusChanged" }

// NewTaskStatusChanged constructs a TaskStatusChanged event.
func NewTaskStatusChanged(taskID, jobID uuid.UUID, old, new, reason string, delayMinutes float64) TaskStatusChanged {
	return TaskStatusChanged{
		base: newBase(taskID), TaskID: taskID, JobID: jobID,
		Old: old, New: new, Reason: reason, DelayMinutes: delayMinutes,
	}
}

// TaskStarted is emitted when the workflow service starts a task.
type TaskStarted struct {
	base
	TaskID     uuid.UUID
	JobID      uuid.UUID
	OperatorID *uuid.UUID
	StartedAt  time.Time
}

func (TaskStarted) Name() string { return "TaskStarted" }

// NewTaskStarted constructs a TaskStarted event.
func NewTaskStarted(taskID, jobID uuid.UUID, operatorID *uuid.UUID, startedAt time.Time) TaskStarted {
	return TaskStarted{base: newBase(taskID), TaskID: taskID, JobID: jobID, OperatorID: operatorID, StartedAt: startedAt}
}

// TaskScheduled is emitted when the optimizer or allocator assigns a
// task to a machine and operator set.
type TaskScheduled struct {
	base
	TaskID       uuid.UUID
	JobID        uuid.UUID
	MachineID    uuid.UUID
	OperatorIDs  []uuid.UUID
	PlannedStart time.Time
	PlannedEnd   time.Time
}

func (TaskScheduled) Name() string { return "TaskScheduled" }

// NewTaskScheduled constructs a TaskScheduled event.
func NewTaskScheduled(taskID, jobID, machineID uuid.UUID, operatorIDs []uuid.UUID, start, end time.Time) TaskScheduled {
	return TaskScheduled{
		base: newBase(taskID), TaskID: taskID, JobID: jobID, MachineID: machineID,
		OperatorIDs: operatorIDs, PlannedStart: start, PlannedEnd: end,
	}
}

// SchedulePublished is emitted when a Schedule moves DRAFT -> PUBLISHED.
type SchedulePublished struct {
	base
	ScheduleID uuid.UUID
}

func (SchedulePublished) Name() string { return "SchedulePublished" }

// NewSchedulePublished constructs a SchedulePublished event.
func NewSchedulePublished(scheduleID uuid.UUID) SchedulePublished {
	return SchedulePublished{base: newBase(scheduleID), ScheduleID: scheduleID}
}

// ScheduleStatusChanged is emitted for any other Schedule transition.
type ScheduleStatusChanged struct {
	base
	ScheduleID uuid.UUID
	Old        string
	New        string
}

func (ScheduleStatusChanged) Name() string { return "ScheduleStatusChanged" }

// NewScheduleStatusChanged constructs a ScheduleStatusChanged event.
func NewScheduleStatusChanged(scheduleID uuid.UUID, old, new string) ScheduleStatusChanged {
	return ScheduleStatusChanged{base: newBase(scheduleID), ScheduleID: scheduleID, Old: old, New: new}
}

// CircuitBreakerStateChanged is emitted by the resilience layer (C13)
// when a breaker transitions state.
type CircuitBreakerStateChanged struct {
	base
	Service string
	Old     string
	New     string
}

func (CircuitBreakerStateChanged) Name() string { return "CircuitBreakerStateChanged" }

// NewCircuitBreakerStateChanged constructs a CircuitBreakerStateChanged
// event. The breaker has no aggregate id of its own, so the service name
// is hashed into a deterministic uuid for the AggregateID slot.
func NewCircuitBreakerStateChanged(service, old, new string) CircuitBreakerStateChanged {
	return CircuitBreakerStateChanged{
		base:    newBase(uuid.NewSHA1(uuid.Nil, []byte(service))),
		Service: service, Old: old, New: new,
	}
}
