// Package workflow manages post-publication task progression: starting,
// completing, cancelling, and restarting tasks, and advancing a job's
// routing as predecessors clear. Every transition is recorded in an
// in-memory history.
package workflow

import (
	"sort"
	"sync"
	"time"

	"github.com/vulcanmes/scheduler/internal/allocation"
	"github.com/vulcanmes/scheduler/internal/entity"
	"github.com/vulcanmes/scheduler/internal/event"
)

// TransitionRecord is one entry in a task's transition history.
type TransitionRecord struct {
	TaskID     entity.TaskID
	JobID      entity.JobID
	From       entity.TaskStatus
	To         entity.TaskStatus
	At         time.Time
	OperatorID *entity.OperatorID
	Note       string
}

// Options configures a Service's behavior.
type Options struct {
	// AutoStartNextTask starts the next sequence's task as soon as its
	// predecessors clear after a completion.
	AutoStartNextTask bool
	MachineParams     allocation.MachineScoreParams
	OperatorParams    allocation.OperatorScoreParams
}

// Service implements the workflow operations over a pool of machines and
// operators shared across jobs, dispatching domain events as task and
// job aggregates emit them and recording every transition it drives.
type Service struct {
	machines   map[entity.MachineID]*entity.Machine
	operators  []*entity.Operator
	dispatcher *event.Dispatcher
	opts       Options

	mu      sync.Mutex
	history []TransitionRecord
}

// NewService constructs a Service over the given resource pool.
func NewService(machines []*entity.Machine, operators []*entity.Operator, dispatcher *event.Dispatcher, opts Options) *Service {
	byID := make(map[entity.MachineID]*entity.Machine, len(machines))
	for _, m := range machines {
		byID[m.ID()] = m
	}
	return &Service{
		machines:   byID,
		operators:  append([]*entity.Operator(nil), operators...),
		dispatcher: dispatcher,
		opts:       opts,
	}
}

// History returns a copy of every transition recorded so far.
func (s *Service) History() []TransitionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]TransitionRecord(nil), s.history...)
}

func (s *Service) recordAndDispatch(job *entity.Job, task *entity.Task, from entity.TaskStatus, operatorID *entity.OperatorID, note string, at time.Time) {
	s.mu.Lock()
	s.history = append(s.history, TransitionRecord{
		TaskID: task.ID(), JobID: job.ID(), From: from, To: task.Status(),
		At: at, OperatorID: operatorID, Note: note,
	})
	s.mu.Unlock()

	if s.dispatcher == nil {
		return
	}
	s.dispatcher.DispatchAll(task.PullEvents())
	s.dispatcher.DispatchAll(job.PullEvents())
}

// StartTask starts a READY or SCHEDULED task whose predecessors are all
// complete. A READY task with no prior machine/operator assignment is
// allocated one via the allocation package before it is started.
func (s *Service) StartTask(job *entity.Job, taskID entity.TaskID, operatorID *entity.OperatorID, at time.Time) error {
	task, ok := job.TaskByID(taskID)
	if !ok {
		return ErrTaskNotFound
	}
	if task.Status() != entity.TaskReady && task.Status() != entity.TaskScheduled {
		return ErrTaskNotStartable
	}
	if !job.PredecessorsComplete(task) {
		return ErrPredecessorsIncomplete
	}

	from := task.Status()
	if task.Status() == entity.TaskReady {
		if err := s.scheduleTask(task, at); err != nil {
			return err
		}
	}
	if err := task.Start(at, operatorID); err != nil {
		return err
	}
	s.recordAndDispatch(job, task, from, operatorID, "started", at)
	return nil
}

func (s *Service) scheduleTask(task *entity.Task, at time.Time) error {
	chosen, roleAssignments, ok := allocation.AllocateTask(task, s.machines, s.operators, at, s.opts.MachineParams, s.opts.OperatorParams)
	if !ok {
		return ErrNoViableAllocation
	}

	var assignments []entity.OperatorAssignment
	for _, role := range task.RoleRequirements() {
		for _, op := range roleAssignments[role.SkillType] {
			assignments = append(assignments, entity.OperatorAssignment{
				OperatorID: op.ID(), SkillType: role.SkillType, Attendance: role.Attendance,
			})
		}
	}

	duration := chosen.Option.TotalDuration()
	end := at.Add(time.Duration(duration.Minutes() * float64(time.Minute)))
	return task.Schedule(chosen.Machine.ID(), chosen.Option, assignments, at, end)
}

// CompleteTask completes an IN_PROGRESS task. qualityPassed=false is a
// business-rule failure: the task transitions to FAILED instead and
// ErrQualityCheckFailed is returned. On a successful completion, the
// next sequenced task is auto-started if its predecessors clear and
// AutoStartNextTask is set; once every task in the job is complete, the
// job itself is completed.
func (s *Service) CompleteTask(job *entity.Job, taskID entity.TaskID, operatorID *entity.OperatorID, at time.Time, qualityPassed bool) error {
	task, ok := job.TaskByID(taskID)
	if !ok {
		return ErrTaskNotFound
	}
	if task.Status() != entity.TaskInProgress {
		return ErrTaskNotInProgress
	}
	from := task.Status()

	if !qualityPassed {
		if err := task.Fail("quality check failed"); err != nil {
			return err
		}
		s.recordAndDispatch(job, task, from, operatorID, "quality check failed", at)
		return ErrQualityCheckFailed
	}

	if err := task.Complete(at); err != nil {
		return err
	}
	s.recordAndDispatch(job, task, from, operatorID, "completed", at)

	if s.opts.AutoStartNextTask {
		if next, ok := job.TaskBySequence(task.Sequence() + 1); ok && next.Status() == entity.TaskPending && job.PredecessorsComplete(next) {
			if err := next.MarkReady(); err == nil {
				s.recordAndDispatch(job, next, entity.TaskPending, nil, "predecessors complete", at)
				_ = s.StartTask(job, next.ID(), nil, at)
			}
		}
	}

	if job.AllTasksComplete() {
		if err := job.Complete(at); err == nil {
			s.dispatchJob(job)
		}
	}
	return nil
}

func (s *Service) dispatchJob(job *entity.Job) {
	if s.dispatcher == nil {
		job.PullEvents()
		return
	}
	s.dispatcher.DispatchAll(job.PullEvents())
}

// CancelTask cancels a task from any non-terminal state.
func (s *Service) CancelTask(job *entity.Job, taskID entity.TaskID, reason string, at time.Time) error {
	task, ok := job.TaskByID(taskID)
	if !ok {
		return ErrTaskNotFound
	}
	from := task.Status()
	if err := task.Cancel(reason); err != nil {
		return err
	}
	s.recordAndDispatch(job, task, from, nil, reason, at)
	return nil
}

// RestartTask resets a CANCELLED or COMPLETED task back to PENDING.
func (s *Service) RestartTask(job *entity.Job, taskID entity.TaskID, reason string, at time.Time) error {
	task, ok := job.TaskByID(taskID)
	if !ok {
		return ErrTaskNotFound
	}
	from := task.Status()
	if err := task.Restart(reason); err != nil {
		return err
	}
	s.recordAndDispatch(job, task, from, nil, reason, at)
	return nil
}

// AdvanceJobWorkflow marks every currently-startable PENDING task READY
// and starts it, in sequence order.
func (s *Service) AdvanceJobWorkflow(job *entity.Job, at time.Time) []error {
	tasks := append([]*entity.Task(nil), job.Tasks()...)
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Sequence() < tasks[j].Sequence() })

	var errs []error
	for _, t := range tasks {
		if t.Status() != entity.TaskPending || !job.PredecessorsComplete(t) {
			continue
		}
		from := t.Status()
		if err := t.MarkReady(); err != nil {
			errs = append(errs, err)
			continue
		}
		s.recordAndDispatch(job, t, from, nil, "predecessors complete", at)
		if err := s.StartTask(job, t.ID(), nil, at); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// JobProgress summarizes a job's task completion.
type JobProgress struct {
	TotalTasks     int
	CompletedTasks int
	InProgress     int
	Failed         int
	Cancelled      int
	PercentComplete float64
}

// GetJobProgress reports totals and percentages across a job's tasks.
func GetJobProgress(job *entity.Job) JobProgress {
	p := JobProgress{}
	for _, t := range job.Tasks() {
		p.TotalTasks++
		switch t.Status() {
		case entity.TaskCompleted:
			p.CompletedTasks++
		case entity.TaskInProgress:
			p.InProgress++
		case entity.TaskFailed:
			p.Failed++
		case entity.TaskCancelled:
			p.Cancelled++
		}
	}
	if p.TotalTasks > 0 {
		p.PercentComplete = 100 * float64(p.CompletedTasks) / float64(p.TotalTasks)
	}
	return p
}
