// Package postgres provides PostgreSQL repository implementations with integration tests.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/vulcanmes/scheduler/internal/entity"
	"github.com/vulcanmes/scheduler/internal/valueobject"
)

// postgresTestHelper provisions a disposable PostgreSQL container for
// integration tests against the repository implementations.
type postgresTestHelper struct {
	db        *sql.DB
	container testcontainers.Container
	ctx       context.Context
}

func newPostgresTestHelper(ctx context.Context, t *testing.T) *postgresTestHelper {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "scheduler_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("postgres://test:test@%s:%s/scheduler_test?sslmode=disable", host, port.Port())
	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err)
	require.NoError(t, db.PingContext(ctx))
	_, err = db.ExecContext(ctx, Schema)
	require.NoError(t, err)

	return &postgresTestHelper{db: db, container: container, ctx: ctx}
}

func (h *postgresTestHelper) Close(t *testing.T) {
	if err := h.db.Close(); err != nil {
		t.Logf("warning: failed to close database: %v", err)
	}
	if err := h.container.Terminate(h.ctx); err != nil {
		t.Logf("warning: failed to terminate container: %v", err)
	}
}

func TestJobRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	helper := newPostgresTestHelper(ctx, t)
	defer helper.Close(t)

	repo := &jobRepository{q: helper.db}

	job, err := entity.NewJob("JOB-1001", "Acme Corp", "PN-42", 10, entity.PriorityHigh, time.Now().Add(72*time.Hour))
	require.NoError(t, err)

	require.NoError(t, repo.Create(ctx, job))

	retrieved, err := repo.GetByID(ctx, job.ID())
	require.NoError(t, err)
	require.Equal(t, job.JobNumber(), retrieved.JobNumber())

	byNumber, err := repo.GetByJobNumber(ctx, "JOB-1001")
	require.NoError(t, err)
	require.Equal(t, job.ID(), byNumber.ID())

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	require.NoError(t, repo.Delete(ctx, job.ID()))
	_, err = repo.GetByID(ctx, job.ID())
	require.Error(t, err)
}

func TestJobRepository_RejectsDuplicateJobNumber(t *testing.T) {
	ctx := context.Background()
	helper := newPostgresTestHelper(ctx, t)
	defer helper.Close(t)

	repo := &jobRepository{q: helper.db}

	job1, err := entity.NewJob("JOB-2001", "Acme Corp", "PN-1", 5, entity.PriorityNormal, time.Now().Add(48*time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, job1))

	job2, err := entity.NewJob("JOB-2001", "Other Corp", "PN-2", 3, entity.PriorityLow, time.Now().Add(48*time.Hour))
	require.NoError(t, err)
	err = repo.Create(ctx, job2)
	require.Error(t, err)
}

func TestMachineRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	helper := newPostgresTestHelper(ctx, t)
	defer helper.Close(t)

	repo := &machineRepository{q: helper.db}

	m, err := entity.NewMachine("MILL01", "Mill 1", entity.NewID(), entity.AutomationAttended, 1.0)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, m))

	byCode, err := repo.GetByCode(ctx, "MILL01")
	require.NoError(t, err)
	require.Equal(t, m.ID(), byCode.ID())

	byZone, err := repo.GetByZone(ctx, m.ZoneID())
	require.NoError(t, err)
	require.Len(t, byZone, 1)

	m.SetStatus(entity.MachineMaintenance)
	require.NoError(t, repo.Update(ctx, m))

	byStatus, err := repo.GetByStatus(ctx, entity.MachineMaintenance)
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
}

func TestOperatorRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	helper := newPostgresTestHelper(ctx, t)
	defer helper.Close(t)

	repo := &operatorRepository{q: helper.db}

	op, err := entity.NewOperator("EMP-001", "Jane", "Doe", "MILLING", time.Now().Add(-365*24*time.Hour), valueobject.DayHours{})
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, op))

	byEmployee, err := repo.GetByEmployeeID(ctx, "EMP-001")
	require.NoError(t, err)
	require.Equal(t, op.ID(), byEmployee.ID())

	byDept, err := repo.GetByDepartment(ctx, "MILLING")
	require.NoError(t, err)
	require.Len(t, byDept, 1)

	active, err := repo.GetActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
}

func TestScheduleRepository_GetActiveForHorizon(t *testing.T) {
	ctx := context.Background()
	helper := newPostgresTestHelper(ctx, t)
	defer helper.Close(t)

	repo := &scheduleRepository{q: helper.db}

	now := time.Now().UTC().Truncate(time.Minute)
	horizon, err := valueobject.NewTimeWindow(now, now.Add(24*time.Hour))
	require.NoError(t, err)
	s, err := entity.NewSchedule("week-1", horizon)
	require.NoError(t, err)
	require.NoError(t, s.Publish())
	require.NoError(t, s.Activate())

	require.NoError(t, repo.Create(ctx, s))

	active, err := repo.GetActiveForHorizon(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, s.ID(), active.ID())
}

func TestProductionZoneRepository_UniqueCode(t *testing.T) {
	ctx := context.Background()
	helper := newPostgresTestHelper(ctx, t)
	defer helper.Close(t)

	repo := &zoneRepository{q: helper.db}

	z1, err := entity.NewProductionZone("ZONE-A", "Milling Bay", 0, 30, 3)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, z1))

	z2, err := entity.NewProductionZone("ZONE-A", "Another Bay", 0, 30, 5)
	require.NoError(t, err)
	err = repo.Create(ctx, z2)
	require.Error(t, err)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}
