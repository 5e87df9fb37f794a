package entity

// JobStatus is the lifecycle state of a Job.
type JobStatus string

const (
	JobPlanned    JobStatus = "PLANNED"
	JobReleased   JobStatus = "RELEASED"
	JobInProgress JobStatus = "IN_PROGRESS"
	JobOnHold     JobStatus = "ON_HOLD"
	JobCompleted  JobStatus = "COMPLETED"
	JobCancelled  JobStatus = "CANCELLED"
)

var jobTransitions = map[JobStatus]map[JobStatus]bool{
	JobPlanned:    {JobReleased: true, JobCancelled: true},
	JobReleased:   {JobInProgress: true, JobOnHold: true, JobCancelled: true},
	JobInProgress: {JobCompleted: true, JobOnHold: true, JobCancelled: true},
	JobOnHold:     {JobReleased: true, JobCancelled: true},
	JobCompleted:  {},
	JobCancelled:  {},
}

// CanTransition reports whether a Job may move from 'from' to 'to'.
// Transitioning to the same state is always allowed as a no-op, terminal
// states included; terminal states (COMPLETED, CANCELLED) reject every
// transition to a different state.
func (s JobStatus) CanTransition(to JobStatus) bool {
	if s == to {
		return true
	}
	return jobTransitions[s][to]
}

func (s JobStatus) IsTerminal() bool {
	return s == JobCompleted || s == JobCancelled
}

// TaskStatus is the lifecycle state of a Task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskReady      TaskStatus = "READY"
	TaskScheduled  TaskStatus = "SCHEDULED"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskCompleted  TaskStatus = "COMPLETED"
	TaskFailed     TaskStatus = "FAILED"
	TaskCancelled  TaskStatus = "CANCELLED"
)

var taskTransitions = map[TaskStatus]map[TaskStatus]bool{
	TaskPending:    {TaskReady: true, TaskCancelled: true},
	TaskReady:      {TaskScheduled: true, TaskCancelled: true},
	TaskScheduled:  {TaskInProgress: true, TaskCancelled: true},
	TaskInProgress: {TaskCompleted: true, TaskFailed: true, TaskCancelled: true},
	TaskFailed:     {TaskReady: true, TaskCancelled: true},
	TaskCompleted:  {},
	TaskCancelled:  {},
}

func (s TaskStatus) CanTransition(to TaskStatus) bool {
	if s == to {
		return true
	}
	return taskTransitions[s][to]
}

func (s TaskStatus) IsTerminal() bool {
	return s == TaskCompleted || s == TaskCancelled
}

// ScheduleStatus is the lifecycle state of a Schedule.
type ScheduleStatus string

const (
	ScheduleDraft     ScheduleStatus = "DRAFT"
	SchedulePublished ScheduleStatus = "PUBLISHED"
	ScheduleActive    ScheduleStatus = "ACTIVE"
	ScheduleCompleted ScheduleStatus = "COMPLETED"
	ScheduleCancelled ScheduleStatus = "CANCELLED"
)

var scheduleTransitions = map[ScheduleStatus]map[ScheduleStatus]bool{
	ScheduleDraft:     {SchedulePublished: true, ScheduleCancelled: true},
	SchedulePublished: {ScheduleActive: true, ScheduleDraft: true, ScheduleCancelled: true},
	ScheduleActive:    {ScheduleCompleted: true, ScheduleCancelled: true},
	ScheduleCompleted: {},
	ScheduleCancelled: {},
}

func (s ScheduleStatus) CanTransition(to ScheduleStatus) bool {
	if s == to {
		return true
	}
	return scheduleTransitions[s][to]
}

func (s ScheduleStatus) IsTerminal() bool {
	return s == ScheduleCompleted || s == ScheduleCancelled
}
