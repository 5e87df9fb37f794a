package entity

import (
	"regexp"
	"sort"
	"time"

	"github.com/vulcanmes/scheduler/internal/event"
	"github.com/vulcanmes/scheduler/internal/valueobject"
)

var jobNumberPattern = regexp.MustCompile(`^[A-Z0-9_-]{3,50}$`)

// Priority is a job's scheduling priority class.
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityNormal   Priority = "NORMAL"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Job is the aggregate root for a unit of manufacturing work: a routing
// of Tasks that must complete, in sequence order subject to their
// declared predecessors, by a due date.
type Job struct {
	id          JobID
	jobNumber   string
	customer    string
	partNumber  string
	quantity    int
	priority    Priority
	status      JobStatus
	dueDate     time.Time

	releaseDate *time.Time
	plannedStart *time.Time
	plannedEnd   *time.Time
	actualStart  *time.Time
	actualEnd    *time.Time

	currentOperationSequence int

	tasks    map[int]*Task
	taskByID map[TaskID]int

	createdAt time.Time
	updatedAt time.Time

	events []event.Event
}

// NewJob constructs a Job with no tasks. Tasks are added afterward with
// AddTask so each can be validated against the job's current state.
func NewJob(jobNumber, customer, partNumber string, quantity int, priority Priority, dueDate time.Time) (*Job, error) {
	if !jobNumberPattern.MatchString(jobNumber) {
		return nil, ErrInvalidJobNumber
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if !priority.Valid() {
		priority = PriorityNormal
	}
	now := Now()
	if !dueDate.After(now) {
		return nil, ErrDueDateNotFuture
	}

	j := &Job{
		id:         NewID(),
		jobNumber:  jobNumber,
		customer:   customer,
		partNumber: partNumber,
		quantity:   quantity,
		priority:   priority,
		status:     JobPlanned,
		dueDate:    dueDate,
		tasks:      make(map[int]*Task),
		taskByID:   make(map[TaskID]int),
		createdAt:  now,
		updatedAt:  now,
	}
	return j, nil
}

func (j *Job) ID() JobID                 { return j.id }
func (j *Job) JobNumber() string         { return j.jobNumber }
func (j *Job) Customer() string          { return j.customer }
func (j *Job) PartNumber() string        { return j.partNumber }
func (j *Job) Quantity() int             { return j.quantity }
func (j *Job) Priority() Priority        { return j.priority }
func (j *Job) Status() JobStatus         { return j.status }
func (j *Job) DueDate() time.Time        { return j.dueDate }
func (j *Job) ReleaseDate() *time.Time   { return j.releaseDate }
func (j *Job) PlannedStart() *time.Time  { return j.plannedStart }
func (j *Job) PlannedEnd() *time.Time    { return j.plannedEnd }
func (j *Job) ActualStart() *time.Time   { return j.actualStart }
func (j *Job) ActualEnd() *time.Time     { return j.actualEnd }
func (j *Job) CurrentOperationSequence() int { return j.currentOperationSequence }

// PullEvents drains and returns the job's accumulated domain events.
func (j *Job) PullEvents() []event.Event {
	evts := j.events
	j.events = nil
	return evts
}

func (j *Job) record(e event.Event) {
	j.events = append(j.events, e)
}

// Tasks returns the job's tasks ordered by ascending sequence.
func (j *Job) Tasks() []*Task {
	seqs := make([]int, 0, len(j.tasks))
	for s := range j.tasks {
		seqs = append(seqs, s)
	}
	sort.Ints(seqs)
	out := make([]*Task, len(seqs))
	for i, s := range seqs {
		out[i] = j.tasks[s]
	}
	return out
}

// TaskBySequence looks up a task by its routing sequence number.
func (j *Job) TaskBySequence(sequence int) (*Task, bool) {
	t, ok := j.tasks[sequence]
	return t, ok
}

// TaskByID looks up a task by id.
func (j *Job) TaskByID(id TaskID) (*Task, bool) {
	seq, ok := j.taskByID[id]
	if !ok {
		return nil, false
	}
	return j.tasks[seq], true
}

// AddTask attaches a task to the job, rejecting duplicate sequence
// numbers and additions to a completed job.
func (j *Job) AddTask(t *Task) error {
	if j.status == JobCompleted {
		return ErrJobCompleted
	}
	if t.JobID() != j.id {
		return ErrInvalidStateTransition
	}
	if _, exists := j.tasks[t.Sequence()]; exists {
		return ErrDuplicateSequence
	}
	j.tasks[t.Sequence()] = t
	j.taskByID[t.ID()] = t.Sequence()
	j.updatedAt = Now()
	return nil
}

// AllTasksComplete reports whether every task attached to the job is in
// a terminal completed state.
func (j *Job) AllTasksComplete() bool {
	for _, t := range j.tasks {
		if t.Status() != TaskCompleted {
			return false
		}
	}
	return true
}

// PredecessorsComplete reports whether every predecessor declared by
// task t has reached COMPLETED.
func (j *Job) PredecessorsComplete(t *Task) bool {
	for _, predID := range t.Predecessors() {
		pred, ok := j.TaskByID(predID)
		if !ok || pred.Status() != TaskCompleted {
			return false
		}
	}
	return true
}

// Release transitions PLANNED -> RELEASED, recording the release date
// and initial planned start/end window for the job.
func (j *Job) Release(at time.Time, plannedStart, plannedEnd time.Time) error {
	if err := j.transition(JobReleased, "released to the floor"); err != nil {
		return err
	}
	j.releaseDate = &at
	j.plannedStart = &plannedStart
	j.plannedEnd = &plannedEnd
	j.updatedAt = Now()
	return nil
}

// Start transitions RELEASED -> IN_PROGRESS when its first task begins.
func (j *Job) Start(at time.Time) error {
	if err := j.transition(JobInProgress, "first task started"); err != nil {
		return err
	}
	j.actualStart = &at
	j.updatedAt = Now()
	return nil
}

// Hold transitions a RELEASED or IN_PROGRESS job to ON_HOLD.
func (j *Job) Hold(reason string) error {
	return j.transition(JobOnHold, reason)
}

// Resume transitions an ON_HOLD job back to RELEASED.
func (j *Job) Resume(reason string) error {
	return j.transition(JobReleased, reason)
}

// Complete transitions IN_PROGRESS -> COMPLETED once all tasks are done.
func (j *Job) Complete(at time.Time) error {
	if !j.AllTasksComplete() {
		return ErrPredecessorsIncomplete
	}
	if err := j.transition(JobCompleted, "all tasks completed"); err != nil {
		return err
	}
	j.actualEnd = &at
	j.updatedAt = Now()
	return nil
}

// Cancel transitions the job to CANCELLED from any non-terminal state.
func (j *Job) Cancel(reason string) error {
	return j.transition(JobCancelled, reason)
}

// AdvanceOperationSequence records the routing sequence currently being
// worked, rejecting values outside [0,100] with ErrInvalidSequence.
func (j *Job) AdvanceOperationSequence(sequence int) error {
	if sequence < 0 || sequence > 100 {
		return ErrInvalidSequence
	}
	j.currentOperationSequence = sequence
	j.updatedAt = Now()
	return nil
}

// IsLate reports whether the job's planned (or actual, if completed) end
// falls after its due date.
func (j *Job) IsLate(asOf time.Time) bool {
	if j.actualEnd != nil {
		return j.actualEnd.After(j.dueDate)
	}
	if j.plannedEnd != nil {
		return j.plannedEnd.After(j.dueDate)
	}
	return asOf.After(j.dueDate)
}

// Tardiness returns how far past the due date the job's projected
// completion falls, or zero if it is on time.
func (j *Job) Tardiness(asOf time.Time) valueobject.Duration {
	end := asOf
	if j.actualEnd != nil {
		end = *j.actualEnd
	} else if j.plannedEnd != nil {
		end = *j.plannedEnd
	}
	if !end.After(j.dueDate) {
		return valueobject.Zero
	}
	return valueobject.MustDuration(end.Sub(j.dueDate).Minutes())
}

func (j *Job) transition(to JobStatus, reason string) error {
	if !j.status.CanTransition(to) {
		return ErrInvalidStateTransition
	}
	if j.status == to {
		return nil
	}
	old := j.status
	j.status = to
	j.record(event.NewJobStatusChanged(j.id, string(old), string(to), reason))
	return nil
}
