// Package memory implements the repository contracts with in-process,
// mutex-guarded maps. It has no external dependencies, so it backs unit
// tests and a single-node dev/demo deployment of the scheduler.
package memory

import (
	"context"
	"sync"

	"github.com/vulcanmes/scheduler/internal/repository"
)

// DB is an in-memory Database. All repositories it returns share the
// same underlying maps, so writes through one accessor are visible to
// another within the same DB.
type DB struct {
	jobs      *jobRepo
	machines  *machineRepo
	operators *operatorRepo
	schedules *scheduleRepo
	zones     *productionZoneRepo
}

// New constructs an empty in-memory Database.
func New() *DB {
	return &DB{
		jobs:      newJobRepo(),
		machines:  newMachineRepo(),
		operators: newOperatorRepo(),
		schedules: newScheduleRepo(),
		zones:     newProductionZoneRepo(),
	}
}

func (db *DB) JobRepository() repository.JobRepository                       { return db.jobs }
func (db *DB) MachineRepository() repository.MachineRepository               { return db.machines }
func (db *DB) OperatorRepository() repository.OperatorRepository             { return db.operators }
func (db *DB) ScheduleRepository() repository.ScheduleRepository             { return db.schedules }
func (db *DB) ProductionZoneRepository() repository.ProductionZoneRepository { return db.zones }

func (db *DB) Close() error                      { return nil }
func (db *DB) Health(ctx context.Context) error   { return nil }

// BeginTx returns a transaction that operates directly on the same maps
// as db; the in-memory backend has no isolation to offer beyond the
// per-repository mutexes, so Commit and Rollback are no-ops.
func (db *DB) BeginTx(ctx context.Context) (repository.Transaction, error) {
	return &tx{db: db}, nil
}

type tx struct {
	db *DB
	mu sync.Mutex
}

func (t *tx) Commit() error   { return nil }
func (t *tx) Rollback() error { return nil }

func (t *tx) JobRepository() repository.JobRepository                       { return t.db.jobs }
func (t *tx) MachineRepository() repository.MachineRepository               { return t.db.machines }
func (t *tx) OperatorRepository() repository.OperatorRepository             { return t.db.operators }
func (t *tx) ScheduleRepository() repository.ScheduleRepository             { return t.db.schedules }
func (t *tx) ProductionZoneRepository() repository.ProductionZoneRepository { return t.db.zones }
