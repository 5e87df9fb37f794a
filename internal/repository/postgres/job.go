package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vulcanmes/scheduler/internal/entity"
	"github.com/vulcanmes/scheduler/internal/repository"
)

// jobRepository implements repository.JobRepository for PostgreSQL. Each
// job (with its tasks) is stored as one row: a handful of indexed
// scalar columns for the lookups the interface exposes, plus a
// snapshot JSONB column holding the full aggregate state.
type jobRepository struct {
	q querier
}

func (r *jobRepository) Create(ctx context.Context, job *entity.Job) error {
	snap, err := json.Marshal(job.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal job snapshot: %w", err)
	}

	query := `
		INSERT INTO jobs (id, job_number, status, due_date, snapshot, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.q.ExecContext(ctx, query,
		job.ID(), job.JobNumber(), string(job.Status()), job.DueDate(), snap, time.Now().UTC(), time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &repository.ValidationError{Field: "job_number", Message: "job number already exists"}
		}
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (r *jobRepository) scanJob(row *sql.Row) (*entity.Job, error) {
	var id uuid.UUID
	var jobNumber, status string
	var dueDate time.Time
	var snap []byte

	if err := row.Scan(&id, &jobNumber, &status, &dueDate, &snap); err != nil {
		return nil, err
	}
	var s entity.JobSnapshot
	if err := json.Unmarshal(snap, &s); err != nil {
		return nil, fmt.Errorf("unmarshal job snapshot: %w", err)
	}
	return entity.RestoreJob(s), nil
}

func (r *jobRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	query := `SELECT id, job_number, status, due_date, snapshot FROM jobs WHERE id = $1`
	job, err := r.scanJob(r.q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "Job", ResourceID: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

func (r *jobRepository) GetByJobNumber(ctx context.Context, jobNumber string) (*entity.Job, error) {
	query := `SELECT id, job_number, status, due_date, snapshot FROM jobs WHERE job_number = $1`
	job, err := r.scanJob(r.q.QueryRowContext(ctx, query, jobNumber))
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "Job", ResourceID: jobNumber}
	}
	if err != nil {
		return nil, fmt.Errorf("get job by number: %w", err)
	}
	return job, nil
}

func (r *jobRepository) queryJobs(ctx context.Context, query string, args ...interface{}) ([]*entity.Job, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*entity.Job
	for rows.Next() {
		var id uuid.UUID
		var jobNumber, status string
		var dueDate time.Time
		var snap []byte
		if err := rows.Scan(&id, &jobNumber, &status, &dueDate, &snap); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		var s entity.JobSnapshot
		if err := json.Unmarshal(snap, &s); err != nil {
			return nil, fmt.Errorf("unmarshal job snapshot: %w", err)
		}
		jobs = append(jobs, entity.RestoreJob(s))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

func (r *jobRepository) GetByStatus(ctx context.Context, status entity.JobStatus) ([]*entity.Job, error) {
	query := `SELECT id, job_number, status, due_date, snapshot FROM jobs WHERE status = $1 ORDER BY due_date ASC`
	return r.queryJobs(ctx, query, string(status))
}

func (r *jobRepository) GetDueBefore(ctx context.Context, cutoff time.Time) ([]*entity.Job, error) {
	query := `SELECT id, job_number, status, due_date, snapshot FROM jobs WHERE due_date < $1 ORDER BY due_date ASC`
	return r.queryJobs(ctx, query, cutoff)
}

func (r *jobRepository) Update(ctx context.Context, job *entity.Job) error {
	snap, err := json.Marshal(job.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal job snapshot: %w", err)
	}

	query := `
		UPDATE jobs SET job_number = $2, status = $3, due_date = $4, snapshot = $5, updated_at = $6
		WHERE id = $1
	`
	result, err := r.q.ExecContext(ctx, query,
		job.ID(), job.JobNumber(), string(job.Status()), job.DueDate(), snap, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return requireRowsAffected(result, "Job", job.ID().String())
}

func (r *jobRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return requireRowsAffected(result, "Job", id.String())
}

func (r *jobRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return count, nil
}
