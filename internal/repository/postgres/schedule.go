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

type scheduleRepository struct {
	q querier
}

func (r *scheduleRepository) Create(ctx context.Context, s *entity.Schedule) error {
	snap, err := json.Marshal(s.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal schedule snapshot: %w", err)
	}
	query := `
		INSERT INTO schedules (id, status, horizon_start, horizon_end, snapshot, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.q.ExecContext(ctx, query,
		s.ID(), string(s.Status()), s.Horizon().Start, s.Horizon().End, snap, time.Now().UTC(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

func (r *scheduleRepository) scan(row *sql.Row) (*entity.Schedule, error) {
	var id uuid.UUID
	var status string
	var start, end time.Time
	var snap []byte
	if err := row.Scan(&id, &status, &start, &end, &snap); err != nil {
		return nil, err
	}
	var s entity.ScheduleSnapshot
	if err := json.Unmarshal(snap, &s); err != nil {
		return nil, fmt.Errorf("unmarshal schedule snapshot: %w", err)
	}
	return entity.RestoreSchedule(s), nil
}

func (r *scheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Schedule, error) {
	query := `SELECT id, status, horizon_start, horizon_end, snapshot FROM schedules WHERE id = $1`
	s, err := r.scan(r.q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "Schedule", ResourceID: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return s, nil
}

func (r *scheduleRepository) GetByStatus(ctx context.Context, status entity.ScheduleStatus) ([]*entity.Schedule, error) {
	query := `SELECT id, status, horizon_start, horizon_end, snapshot FROM schedules WHERE status = $1 ORDER BY horizon_start ASC`
	rows, err := r.q.QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("query schedules: %w", err)
	}
	defer rows.Close()

	var schedules []*entity.Schedule
	for rows.Next() {
		var id uuid.UUID
		var st string
		var start, end time.Time
		var snap []byte
		if err := rows.Scan(&id, &st, &start, &end, &snap); err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		var s entity.ScheduleSnapshot
		if err := json.Unmarshal(snap, &s); err != nil {
			return nil, fmt.Errorf("unmarshal schedule snapshot: %w", err)
		}
		schedules = append(schedules, entity.RestoreSchedule(s))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedules: %w", err)
	}
	return schedules, nil
}

func (r *scheduleRepository) GetActiveForHorizon(ctx context.Context, asOf time.Time) (*entity.Schedule, error) {
	query := `
		SELECT id, status, horizon_start, horizon_end, snapshot FROM schedules
		WHERE status = 'ACTIVE' AND horizon_start <= $1 AND horizon_end > $1
		ORDER BY horizon_start DESC LIMIT 1
	`
	s, err := r.scan(r.q.QueryRowContext(ctx, query, asOf))
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "Schedule", ResourceID: asOf.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("get active schedule: %w", err)
	}
	return s, nil
}

func (r *scheduleRepository) Update(ctx context.Context, s *entity.Schedule) error {
	snap, err := json.Marshal(s.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal schedule snapshot: %w", err)
	}
	query := `
		UPDATE schedules SET status = $2, horizon_start = $3, horizon_end = $4, snapshot = $5, updated_at = $6
		WHERE id = $1
	`
	result, err := r.q.ExecContext(ctx, query, s.ID(), string(s.Status()), s.Horizon().Start, s.Horizon().End, snap, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	return requireRowsAffected(result, "Schedule", s.ID().String())
}

func (r *scheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return requireRowsAffected(result, "Schedule", id.String())
}

func (r *scheduleRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM schedules`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count schedules: %w", err)
	}
	return count, nil
}
