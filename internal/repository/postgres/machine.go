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

type machineRepository struct {
	q querier
}

func (r *machineRepository) Create(ctx context.Context, m *entity.Machine) error {
	snap, err := json.Marshal(m.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal machine snapshot: %w", err)
	}
	query := `
		INSERT INTO machines (id, code, zone_id, status, snapshot, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.q.ExecContext(ctx, query, m.ID(), m.Code(), m.ZoneID(), string(m.Status()), snap, time.Now().UTC(), time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return &repository.ValidationError{Field: "code", Message: "machine code already exists"}
		}
		return fmt.Errorf("create machine: %w", err)
	}
	return nil
}

func (r *machineRepository) scan(row *sql.Row) (*entity.Machine, error) {
	var id, zoneID uuid.UUID
	var code, status string
	var snap []byte
	if err := row.Scan(&id, &code, &zoneID, &status, &snap); err != nil {
		return nil, err
	}
	var s entity.MachineSnapshot
	if err := json.Unmarshal(snap, &s); err != nil {
		return nil, fmt.Errorf("unmarshal machine snapshot: %w", err)
	}
	return entity.RestoreMachine(s), nil
}

func (r *machineRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Machine, error) {
	query := `SELECT id, code, zone_id, status, snapshot FROM machines WHERE id = $1`
	m, err := r.scan(r.q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "Machine", ResourceID: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("get machine: %w", err)
	}
	return m, nil
}

func (r *machineRepository) GetByCode(ctx context.Context, code string) (*entity.Machine, error) {
	query := `SELECT id, code, zone_id, status, snapshot FROM machines WHERE code = $1`
	m, err := r.scan(r.q.QueryRowContext(ctx, query, code))
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "Machine", ResourceID: code}
	}
	if err != nil {
		return nil, fmt.Errorf("get machine by code: %w", err)
	}
	return m, nil
}

func (r *machineRepository) query(ctx context.Context, query string, args ...interface{}) ([]*entity.Machine, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query machines: %w", err)
	}
	defer rows.Close()

	var machines []*entity.Machine
	for rows.Next() {
		var id, zoneID uuid.UUID
		var code, status string
		var snap []byte
		if err := rows.Scan(&id, &code, &zoneID, &status, &snap); err != nil {
			return nil, fmt.Errorf("scan machine: %w", err)
		}
		var s entity.MachineSnapshot
		if err := json.Unmarshal(snap, &s); err != nil {
			return nil, fmt.Errorf("unmarshal machine snapshot: %w", err)
		}
		machines = append(machines, entity.RestoreMachine(s))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate machines: %w", err)
	}
	return machines, nil
}

func (r *machineRepository) GetByZone(ctx context.Context, zoneID uuid.UUID) ([]*entity.Machine, error) {
	query := `SELECT id, code, zone_id, status, snapshot FROM machines WHERE zone_id = $1 ORDER BY code ASC`
	return r.query(ctx, query, zoneID)
}

func (r *machineRepository) GetByStatus(ctx context.Context, status entity.MachineStatus) ([]*entity.Machine, error) {
	query := `SELECT id, code, zone_id, status, snapshot FROM machines WHERE status = $1 ORDER BY code ASC`
	return r.query(ctx, query, string(status))
}

func (r *machineRepository) Update(ctx context.Context, m *entity.Machine) error {
	snap, err := json.Marshal(m.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal machine snapshot: %w", err)
	}
	query := `
		UPDATE machines SET code = $2, zone_id = $3, status = $4, snapshot = $5, updated_at = $6
		WHERE id = $1
	`
	result, err := r.q.ExecContext(ctx, query, m.ID(), m.Code(), m.ZoneID(), string(m.Status()), snap, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update machine: %w", err)
	}
	return requireRowsAffected(result, "Machine", m.ID().String())
}

func (r *machineRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM machines WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete machine: %w", err)
	}
	return requireRowsAffected(result, "Machine", id.String())
}

func (r *machineRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM machines`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count machines: %w", err)
	}
	return count, nil
}
