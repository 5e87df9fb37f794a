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

type zoneRepository struct {
	q querier
}

func (r *zoneRepository) Create(ctx context.Context, z *entity.ProductionZone) error {
	snap, err := json.Marshal(z.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal zone snapshot: %w", err)
	}
	query := `
		INSERT INTO production_zones (id, zone_code, snapshot, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = r.q.ExecContext(ctx, query, z.ID(), z.ZoneCode(), snap, time.Now().UTC(), time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return &repository.ValidationError{Field: "zone_code", Message: "zone code already exists"}
		}
		return fmt.Errorf("create zone: %w", err)
	}
	return nil
}

func (r *zoneRepository) scan(row *sql.Row) (*entity.ProductionZone, error) {
	var id uuid.UUID
	var zoneCode string
	var snap []byte
	if err := row.Scan(&id, &zoneCode, &snap); err != nil {
		return nil, err
	}
	var s entity.ProductionZoneSnapshot
	if err := json.Unmarshal(snap, &s); err != nil {
		return nil, fmt.Errorf("unmarshal zone snapshot: %w", err)
	}
	return entity.RestoreProductionZone(s), nil
}

func (r *zoneRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.ProductionZone, error) {
	query := `SELECT id, zone_code, snapshot FROM production_zones WHERE id = $1`
	z, err := r.scan(r.q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "ProductionZone", ResourceID: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("get zone: %w", err)
	}
	return z, nil
}

func (r *zoneRepository) GetByCode(ctx context.Context, zoneCode string) (*entity.ProductionZone, error) {
	query := `SELECT id, zone_code, snapshot FROM production_zones WHERE zone_code = $1`
	z, err := r.scan(r.q.QueryRowContext(ctx, query, zoneCode))
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "ProductionZone", ResourceID: zoneCode}
	}
	if err != nil {
		return nil, fmt.Errorf("get zone by code: %w", err)
	}
	return z, nil
}

func (r *zoneRepository) GetAll(ctx context.Context) ([]*entity.ProductionZone, error) {
	query := `SELECT id, zone_code, snapshot FROM production_zones ORDER BY zone_code ASC`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query zones: %w", err)
	}
	defer rows.Close()

	var zones []*entity.ProductionZone
	for rows.Next() {
		var id uuid.UUID
		var zoneCode string
		var snap []byte
		if err := rows.Scan(&id, &zoneCode, &snap); err != nil {
			return nil, fmt.Errorf("scan zone: %w", err)
		}
		var s entity.ProductionZoneSnapshot
		if err := json.Unmarshal(snap, &s); err != nil {
			return nil, fmt.Errorf("unmarshal zone snapshot: %w", err)
		}
		zones = append(zones, entity.RestoreProductionZone(s))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate zones: %w", err)
	}
	return zones, nil
}

func (r *zoneRepository) Update(ctx context.Context, z *entity.ProductionZone) error {
	snap, err := json.Marshal(z.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal zone snapshot: %w", err)
	}
	query := `UPDATE production_zones SET zone_code = $2, snapshot = $3, updated_at = $4 WHERE id = $1`
	result, err := r.q.ExecContext(ctx, query, z.ID(), z.ZoneCode(), snap, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update zone: %w", err)
	}
	return requireRowsAffected(result, "ProductionZone", z.ID().String())
}

func (r *zoneRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM production_zones WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete zone: %w", err)
	}
	return requireRowsAffected(result, "ProductionZone", id.String())
}

func (r *zoneRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM production_zones`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count zones: %w", err)
	}
	return count, nil
}
