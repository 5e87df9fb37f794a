package entity

import (
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/vulcanmes/scheduler/internal/event"
	"github.com/vulcanmes/scheduler/internal/valueobject"
)

var departmentPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_ ]{1,49}$`)

// OperatorAssignment records one operator's involvement in a task.
type OperatorAssignment struct {
	OperatorID OperatorID
	SkillType  valueobject.SkillType
	Attendance valueobject.Attendance
}

// Task is one step of a Job's routing, to be performed on one of a set
// of candidate machines by one or more skilled operators.
type Task struct {
	id           TaskID
	jobID        JobID
	sequence     int
	name         string
	department   string
	status       TaskStatus
	machineOpts  []valueobject.MachineOption
	roles        []valueobject.RoleRequirement
	predecessors []TaskID

	assignedMachineID *MachineID
	assignedOption    *valueobject.MachineOption
	operatorAssigns   []OperatorAssignment

	plannedStart *time.Time
	plannedEnd   *time.Time
	actualStart  *time.Time
	actualEnd    *time.Time

	isCriticalPath bool
	delayMinutes   float64
	reworkCount    int

	createdAt time.Time
	updatedAt time.Time

	events []event.Event
}

// NewTask constructs a Task belonging to jobID at the given sequence
// within [1,100], validating its routing options and role requirements.
func NewTask(jobID JobID, sequence int, name, department string, machineOpts []valueobject.MachineOption, roles []valueobject.RoleRequirement, predecessors []TaskID) (*Task, error) {
	if sequence < 1 || sequence > 100 {
		return nil, ErrInvalidSequence
	}
	if len(machineOpts) == 0 {
		return nil, ErrInvalidQuantity
	}
	if department != "" && !departmentPattern.MatchString(department) {
		return nil, ErrInvalidDepartment
	}

	preds := append([]TaskID(nil), predecessors...)
	opts := append([]valueobject.MachineOption(nil), machineOpts...)
	reqs := append([]valueobject.RoleRequirement(nil), roles...)

	now := Now()
	t := &Task{
		id:           NewID(),
		jobID:        jobID,
		sequence:     sequence,
		name:         name,
		department:   department,
		status:       TaskPending,
		machineOpts:  opts,
		roles:        reqs,
		predecessors: preds,
		createdAt:    now,
		updatedAt:    now,
	}
	return t, nil
}

func (t *Task) ID() TaskID                    { return t.id }
func (t *Task) JobID() JobID                  { return t.jobID }
func (t *Task) Sequence() int                 { return t.sequence }
func (t *Task) Name() string                  { return t.name }
func (t *Task) Department() string            { return t.department }
func (t *Task) Status() TaskStatus            { return t.status }
func (t *Task) MachineOptions() []valueobject.MachineOption {
	return append([]valueobject.MachineOption(nil), t.machineOpts...)
}
func (t *Task) RoleRequirements() []valueobject.RoleRequirement {
	return append([]valueobject.RoleRequirement(nil), t.roles...)
}
func (t *Task) Predecessors() []TaskID { return append([]TaskID(nil), t.predecessors...) }
func (t *Task) AssignedMachineID() *MachineID {
	if t.assignedMachineID == nil {
		return nil
	}
	id := *t.assignedMachineID
	return &id
}
func (t *Task) AssignedOption() *valueobject.MachineOption { return t.assignedOption }
func (t *Task) OperatorAssignments() []OperatorAssignment {
	return append([]OperatorAssignment(nil), t.operatorAssigns...)
}
func (t *Task) PlannedStart() *time.Time    { return t.plannedStart }
func (t *Task) PlannedEnd() *time.Time      { return t.plannedEnd }
func (t *Task) ActualStart() *time.Time     { return t.actualStart }
func (t *Task) ActualEnd() *time.Time       { return t.actualEnd }
func (t *Task) IsCriticalPath() bool        { return t.isCriticalPath }
func (t *Task) DelayMinutes() float64       { return t.delayMinutes }
func (t *Task) ReworkCount() int            { return t.reworkCount }
func (t *Task) SetCriticalPath(v bool)      { t.isCriticalPath = v }

// PullEvents drains and returns the task's accumulated domain events.
func (t *Task) PullEvents() []event.Event {
	evts := t.events
	t.events = nil
	return evts
}

func (t *Task) record(e event.Event) {
	t.events = append(t.events, e)
}

// MarkReady transitions PENDING -> READY once all predecessors are
// complete (verified by the caller, typically the workflow service,
// which has access to sibling task state).
func (t *Task) MarkReady() error {
	return t.transition(TaskReady, "predecessors complete")
}

// Schedule assigns a machine option and operator set and transitions the
// task to SCHEDULED. When the task has role requirements, every
// assignment's skill type must match one of them (ErrOperatorMismatch
// otherwise). An assignment's attendance is not checked against the
// chosen option.
func (t *Task) Schedule(machineID MachineID, option valueobject.MachineOption, operators []OperatorAssignment, start, end time.Time) error {
	if end.Before(start) {
		return ErrActualEndBeforeStart
	}
	for _, oa := range operators {
		found := false
		for _, r := range t.roles {
			if r.SkillType == oa.SkillType {
				found = true
				break
			}
		}
		if !found && len(t.roles) > 0 {
			return ErrOperatorMismatch
		}
	}
	if err := t.transition(TaskScheduled, "assigned to machine and operators"); err != nil {
		return err
	}
	t.assignedMachineID = &machineID
	opt := option
	t.assignedOption = &opt
	t.operatorAssigns = append([]OperatorAssignment(nil), operators...)
	t.plannedStart = &start
	t.plannedEnd = &end
	t.updatedAt = Now()
	t.record(event.NewTaskScheduled(t.id, t.jobID, machineID, assignmentOperatorIDs(operators), start, end))
	return nil
}

func assignmentOperatorIDs(oas []OperatorAssignment) []uuid.UUID {
	ids := make([]uuid.UUID, len(oas))
	for i, oa := range oas {
		ids[i] = oa.OperatorID
	}
	return ids
}

// Start transitions SCHEDULED -> IN_PROGRESS, recording the actual start
// time and the operator primarily driving execution (for the event
// payload only; all assigned operators remain in OperatorAssignments).
func (t *Task) Start(at time.Time, primaryOperator *OperatorID) error {
	if err := t.transition(TaskInProgress, "started"); err != nil {
		return err
	}
	t.actualStart = &at
	t.updatedAt = Now()
	t.record(event.NewTaskStarted(t.id, t.jobID, primaryOperator, at))
	return nil
}

// Complete transitions IN_PROGRESS -> COMPLETED, recording the actual end
// time and computing delay against the planned end (if any).
func (t *Task) Complete(at time.Time) error {
	if t.actualStart != nil && at.Before(*t.actualStart) {
		return ErrActualEndBeforeStart
	}
	if err := t.transition(TaskCompleted, "completed"); err != nil {
		return err
	}
	t.actualEnd = &at
	if t.plannedEnd != nil && at.After(*t.plannedEnd) {
		t.delayMinutes = at.Sub(*t.plannedEnd).Minutes()
	}
	t.updatedAt = Now()
	return nil
}

// Fail transitions IN_PROGRESS -> FAILED.
func (t *Task) Fail(reason string) error {
	return t.transition(TaskFailed, reason)
}

// Cancel transitions the task to CANCELLED from any non-terminal state.
func (t *Task) Cancel(reason string) error {
	return t.transition(TaskCancelled, reason)
}

// Rework moves a FAILED task back to READY through the transition
// table's FAILED -> READY entry, incrementing its rework count. A task
// in any other state is rejected with ErrInvalidStateTransition.
func (t *Task) Rework(reason string) error {
	if t.status != TaskFailed {
		return ErrInvalidStateTransition
	}
	if err := t.transition(TaskReady, reason); err != nil {
		return err
	}
	t.reworkCount++
	return nil
}

// Restart resets a CANCELLED or COMPLETED task back to PENDING. It
// deliberately bypasses the exhaustive transition table, which treats
// both as terminal, because a restart is an operator-initiated
// administrative override rather than a normal lifecycle step.
func (t *Task) Restart(reason string) error {
	if t.status != TaskCancelled && t.status != TaskCompleted {
		return ErrInvalidStateTransition
	}
	old := t.status
	t.status = TaskPending
	t.assignedMachineID = nil
	t.assignedOption = nil
	t.operatorAssigns = nil
	t.plannedStart = nil
	t.plannedEnd = nil
	t.actualStart = nil
	t.actualEnd = nil
	t.delayMinutes = 0
	t.updatedAt = Now()
	t.record(event.NewTaskStatusChanged(t.id, t.jobID, string(old), string(TaskPending), reason, 0))
	return nil
}

func (t *Task) transition(to TaskStatus, reason string) error {
	if !t.status.CanTransition(to) {
		return ErrInvalidStateTransition
	}
	if t.status == to {
		return nil
	}
	old := t.status
	t.status = to
	t.record(event.NewTaskStatusChanged(t.id, t.jobID, string(old), string(to), reason, t.delayMinutes))
	return nil
}
