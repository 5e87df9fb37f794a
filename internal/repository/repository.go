// Package repository defines the data-access contracts for the
// scheduling domain's aggregates, independent of any storage backend.
// Concrete implementations live in repository/memory and
// repository/postgres.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vulcanmes/scheduler/internal/entity"
)

// Database provides access to all repositories and transaction control.
type Database interface {
	BeginTx(ctx context.Context) (Transaction, error)

	JobRepository() JobRepository
	MachineRepository() MachineRepository
	OperatorRepository() OperatorRepository
	ScheduleRepository() ScheduleRepository
	ProductionZoneRepository() ProductionZoneRepository

	Close() error
	Health(ctx context.Context) error
}

// Transaction represents a database transaction scoped to one unit of
// work; repositories obtained from it participate in the same
// transaction until Commit or Rollback.
type Transaction interface {
	Commit() error
	Rollback() error

	JobRepository() JobRepository
	MachineRepository() MachineRepository
	OperatorRepository() OperatorRepository
	ScheduleRepository() ScheduleRepository
	ProductionZoneRepository() ProductionZoneRepository
}

// JobRepository defines data access operations for jobs. Tasks are
// persisted as part of their owning job, not as a separate aggregate.
type JobRepository interface {
	Create(ctx context.Context, job *entity.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error)
	GetByJobNumber(ctx context.Context, jobNumber string) (*entity.Job, error)
	GetByStatus(ctx context.Context, status entity.JobStatus) ([]*entity.Job, error)
	GetDueBefore(ctx context.Context, cutoff time.Time) ([]*entity.Job, error)
	Update(ctx context.Context, job *entity.Job) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

// MachineRepository defines data access operations for machines.
type MachineRepository interface {
	Create(ctx context.Context, machine *entity.Machine) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Machine, error)
	GetByCode(ctx context.Context, code string) (*entity.Machine, error)
	GetByZone(ctx context.Context, zoneID uuid.UUID) ([]*entity.Machine, error)
	GetByStatus(ctx context.Context, status entity.MachineStatus) ([]*entity.Machine, error)
	Update(ctx context.Context, machine *entity.Machine) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

// OperatorRepository defines data access operations for operators.
type OperatorRepository interface {
	Create(ctx context.Context, operator *entity.Operator) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Operator, error)
	GetByEmployeeID(ctx context.Context, employeeID string) (*entity.Operator, error)
	GetByDepartment(ctx context.Context, department string) ([]*entity.Operator, error)
	GetActive(ctx context.Context) ([]*entity.Operator, error)
	Update(ctx context.Context, operator *entity.Operator) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

// ScheduleRepository defines data access operations for schedules.
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *entity.Schedule) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Schedule, error)
	GetByStatus(ctx context.Context, status entity.ScheduleStatus) ([]*entity.Schedule, error)
	GetActiveForHorizon(ctx context.Context, asOf time.Time) (*entity.Schedule, error)
	Update(ctx context.Context, schedule *entity.Schedule) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

// ProductionZoneRepository defines data access operations for
// production zones.
type ProductionZoneRepository interface {
	Create(ctx context.Context, zone *entity.ProductionZone) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.ProductionZone, error)
	GetByCode(ctx context.Context, zoneCode string) (*entity.ProductionZone, error)
	GetAll(ctx context.Context) ([]*entity.ProductionZone, error)
	Update(ctx context.Context, zone *entity.ProductionZone) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

// NotFoundError represents a record not found error.
type NotFoundError struct {
	ResourceType string
	ResourceID   string
}

func (e *NotFoundError) Error() string {
	return "not found: " + e.ResourceType + " " + e.ResourceID
}

// IsNotFound checks if an error is a NotFoundError.
func IsNotFound(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// ValidationError represents a validation error raised by a repository
// before it reaches the storage layer (e.g. a uniqueness check).
type ValidationError struct {
	Message string
	Field   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}
