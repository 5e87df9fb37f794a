package workflow

import "errors"

// Sentinel errors returned by Service operations. Callers should
// compare with errors.Is.
var (
	ErrTaskNotFound           = errors.New("workflow: task not found in job")
	ErrTaskNotStartable       = errors.New("workflow: task is not READY or SCHEDULED")
	ErrTaskNotInProgress      = errors.New("workflow: task is not IN_PROGRESS")
	ErrPredecessorsIncomplete = errors.New("workflow: not all predecessor tasks are complete")
	ErrQualityCheckFailed     = errors.New("workflow: quality check failed")
	ErrNoViableAllocation     = errors.New("workflow: no viable machine/operator allocation for task")
)
