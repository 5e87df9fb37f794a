package postgres

import (
	"context"
	"database/sql"

	"github.com/vulcanmes/scheduler/internal/repository"
)

// querier is satisfied by both *sql.DB and *sql.Tx so repository
// implementations can be constructed over either a plain connection or
// an in-flight transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store implements repository.Database over a PostgreSQL connection
// pool.
type Store struct {
	db *DB
}

// NewStore wraps an established *DB as a repository.Database.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

func (s *Store) JobRepository() repository.JobRepository           { return &jobRepository{q: s.db.DB} }
func (s *Store) MachineRepository() repository.MachineRepository   { return &machineRepository{q: s.db.DB} }
func (s *Store) OperatorRepository() repository.OperatorRepository { return &operatorRepository{q: s.db.DB} }
func (s *Store) ScheduleRepository() repository.ScheduleRepository { return &scheduleRepository{q: s.db.DB} }
func (s *Store) ProductionZoneRepository() repository.ProductionZoneRepository {
	return &zoneRepository{q: s.db.DB}
}

func (s *Store) Close() error                     { return s.db.Close() }
func (s *Store) Health(ctx context.Context) error { return s.db.Health(ctx) }

func (s *Store) BeginTx(ctx context.Context) (repository.Transaction, error) {
	sqlTx, err := s.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &tx{sqlTx: sqlTx}, nil
}

type tx struct {
	sqlTx *sql.Tx
}

func (t *tx) Commit() error   { return t.sqlTx.Commit() }
func (t *tx) Rollback() error { return t.sqlTx.Rollback() }

func (t *tx) JobRepository() repository.JobRepository           { return &jobRepository{q: t.sqlTx} }
func (t *tx) MachineRepository() repository.MachineRepository   { return &machineRepository{q: t.sqlTx} }
func (t *tx) OperatorRepository() repository.OperatorRepository { return &operatorRepository{q: t.sqlTx} }
func (t *tx) ScheduleRepository() repository.ScheduleRepository { return &scheduleRepository{q: t.sqlTx} }
func (t *tx) ProductionZoneRepository() repository.ProductionZoneRepository {
	return &zoneRepository{q: t.sqlTx}
}

// Schema is the DDL for the scheduler's PostgreSQL-backed repositories.
// Each aggregate is stored as a handful of indexed scalar columns for
// the query paths the repository contracts expose, plus a `snapshot`
// JSONB column holding the aggregate's full persisted state (including,
// for jobs, their owned tasks).
const Schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id UUID PRIMARY KEY,
	job_number TEXT NOT NULL UNIQUE,
	status TEXT NOT NULL,
	due_date TIMESTAMPTZ NOT NULL,
	snapshot JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_due_date ON jobs(due_date);

CREATE TABLE IF NOT EXISTS machines (
	id UUID PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	zone_id UUID NOT NULL,
	status TEXT NOT NULL,
	snapshot JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_machines_zone ON machines(zone_id);
CREATE INDEX IF NOT EXISTS idx_machines_status ON machines(status);

CREATE TABLE IF NOT EXISTS operators (
	id UUID PRIMARY KEY,
	employee_id TEXT NOT NULL UNIQUE,
	department TEXT NOT NULL,
	is_active BOOLEAN NOT NULL,
	snapshot JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_operators_department ON operators(department);

CREATE TABLE IF NOT EXISTS schedules (
	id UUID PRIMARY KEY,
	status TEXT NOT NULL,
	horizon_start TIMESTAMPTZ NOT NULL,
	horizon_end TIMESTAMPTZ NOT NULL,
	snapshot JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_schedules_status ON schedules(status);

CREATE TABLE IF NOT EXISTS production_zones (
	id UUID PRIMARY KEY,
	zone_code TEXT NOT NULL UNIQUE,
	snapshot JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`
