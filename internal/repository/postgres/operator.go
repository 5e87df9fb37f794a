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

type operatorRepository struct {
	q querier
}

func (r *operatorRepository) Create(ctx context.Context, o *entity.Operator) error {
	snap, err := json.Marshal(o.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal operator snapshot: %w", err)
	}
	query := `
		INSERT INTO operators (id, employee_id, department, is_active, snapshot, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.q.ExecContext(ctx, query, o.ID(), o.EmployeeID(), o.Department(), o.IsActive(), snap, time.Now().UTC(), time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return &repository.ValidationError{Field: "employee_id", Message: "employee id already exists"}
		}
		return fmt.Errorf("create operator: %w", err)
	}
	return nil
}

func (r *operatorRepository) scan(row *sql.Row) (*entity.Operator, error) {
	var id uuid.UUID
	var employeeID, department string
	var isActive bool
	var snap []byte
	if err := row.Scan(&id, &employeeID, &department, &isActive, &snap); err != nil {
		return nil, err
	}
	var s entity.OperatorSnapshot
	if err := json.Unmarshal(snap, &s); err != nil {
		return nil, fmt.Errorf("unmarshal operator snapshot: %w", err)
	}
	return entity.RestoreOperator(s), nil
}

func (r *operatorRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Operator, error) {
	query := `SELECT id, employee_id, department, is_active, snapshot FROM operators WHERE id = $1`
	o, err := r.scan(r.q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "Operator", ResourceID: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("get operator: %w", err)
	}
	return o, nil
}

func (r *operatorRepository) GetByEmployeeID(ctx context.Context, employeeID string) (*entity.Operator, error) {
	query := `SELECT id, employee_id, department, is_active, snapshot FROM operators WHERE employee_id = $1`
	o, err := r.scan(r.q.QueryRowContext(ctx, query, employeeID))
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "Operator", ResourceID: employeeID}
	}
	if err != nil {
		return nil, fmt.Errorf("get operator by employee id: %w", err)
	}
	return o, nil
}

func (r *operatorRepository) query(ctx context.Context, query string, args ...interface{}) ([]*entity.Operator, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query operators: %w", err)
	}
	defer rows.Close()

	var operators []*entity.Operator
	for rows.Next() {
		var id uuid.UUID
		var employeeID, department string
		var isActive bool
		var snap []byte
		if err := rows.Scan(&id, &employeeID, &department, &isActive, &snap); err != nil {
			return nil, fmt.Errorf("scan operator: %w", err)
		}
		var s entity.OperatorSnapshot
		if err := json.Unmarshal(snap, &s); err != nil {
			return nil, fmt.Errorf("unmarshal operator snapshot: %w", err)
		}
		operators = append(operators, entity.RestoreOperator(s))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operators: %w", err)
	}
	return operators, nil
}

func (r *operatorRepository) GetByDepartment(ctx context.Context, department string) ([]*entity.Operator, error) {
	query := `SELECT id, employee_id, department, is_active, snapshot FROM operators WHERE department = $1 ORDER BY employee_id ASC`
	return r.query(ctx, query, department)
}

func (r *operatorRepository) GetActive(ctx context.Context) ([]*entity.Operator, error) {
	query := `SELECT id, employee_id, department, is_active, snapshot FROM operators WHERE is_active = true ORDER BY employee_id ASC`
	return r.query(ctx, query)
}

func (r *operatorRepository) Update(ctx context.Context, o *entity.Operator) error {
	snap, err := json.Marshal(o.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal operator snapshot: %w", err)
	}
	query := `
		UPDATE operators SET employee_id = $2, department = $3, is_active = $4, snapshot = $5, updated_at = $6
		WHERE id = $1
	`
	result, err := r.q.ExecContext(ctx, query, o.ID(), o.EmployeeID(), o.Department(), o.IsActive(), snap, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update operator: %w", err)
	}
	return requireRowsAffected(result, "Operator", o.ID().String())
}

func (r *operatorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM operators WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete operator: %w", err)
	}
	return requireRowsAffected(result, "Operator", id.String())
}

func (r *operatorRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM operators`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count operators: %w", err)
	}
	return count, nil
}
