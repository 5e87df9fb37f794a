package entity

import "errors"

// Domain-specific sentinel errors returned by aggregate factories and
// mutating operations. Callers should compare with errors.Is.
var (
	ErrInvalidJobNumber       = errors.New("entity: job_number must be 3-50 chars of [A-Z0-9_-]")
	ErrDueDateNotFuture       = errors.New("entity: due_date must be in the future at creation")
	ErrInvalidQuantity        = errors.New("entity: quantity must be >= 1")
	ErrInvalidSequence        = errors.New("entity: sequence must be in [1,100]")
	ErrDuplicateSequence      = errors.New("entity: duplicate task sequence within job")
	ErrJobCompleted           = errors.New("entity: cannot add tasks to a completed job")
	ErrInvalidStateTransition = errors.New("entity: invalid state transition")
	ErrPredecessorsIncomplete = errors.New("entity: not all predecessor tasks are complete")
	ErrActualEndBeforeStart   = errors.New("entity: actual_end must be after actual_start")
	ErrOperatorMismatch       = errors.New("entity: operator assignment does not match chosen machine option attendance")
	ErrMachineCodeInvalid     = errors.New("entity: machine code must be uppercase alphanumeric")
	ErrEfficiencyOutOfRange   = errors.New("entity: efficiency_factor must be in [0.1, 2.0]")
	ErrDuplicateCapability    = errors.New("entity: capability already registered for operation")
	ErrOverlappingMaintenance = errors.New("entity: maintenance windows overlap")
	ErrSkillExpiryBeforeCert  = errors.New("entity: skill expiry must be after certification date")
	ErrScheduleNotDraft       = errors.New("entity: schedule is not in DRAFT status")
	ErrPublishWithViolations  = errors.New("entity: cannot publish a schedule with outstanding violations")
	ErrWipLimitExceeded       = errors.New("entity: wip limit exceeded")
	ErrUnknownSkillLevel      = errors.New("entity: skill level must be 1, 2, or 3")
	ErrInvalidDepartment      = errors.New("entity: department must start with a letter and contain only [A-Z0-9_ ]")
	ErrInvalidSequenceRange   = errors.New("entity: start_seq must be >= 0 and <= end_seq")
)
