package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/vulcanmes/scheduler/internal/entity"
	"github.com/vulcanmes/scheduler/internal/repository"
)

type operatorRepo struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*entity.Operator
}

func newOperatorRepo() *operatorRepo {
	return &operatorRepo{byID: make(map[uuid.UUID]*entity.Operator)}
}

func (r *operatorRepo) Create(ctx context.Context, o *entity.Operator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.EmployeeID() == o.EmployeeID() {
			return &repository.ValidationError{Field: "employee_id", Message: "employee_id already in use"}
		}
	}
	r.byID[o.ID()] = o
	return nil
}

func (r *operatorRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Operator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.byID[id]
	if !ok {
		return nil, &repository.NotFoundError{ResourceType: "Operator", ResourceID: id.String()}
	}
	return o, nil
}

func (r *operatorRepo) GetByEmployeeID(ctx context.Context, employeeID string) (*entity.Operator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.byID {
		if o.EmployeeID() == employeeID {
			return o, nil
		}
	}
	return nil, &repository.NotFoundError{ResourceType: "Operator", ResourceID: employeeID}
}

func (r *operatorRepo) GetByDepartment(ctx context.Context, department string) ([]*entity.Operator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.Operator
	for _, o := range r.byID {
		if o.Department() == department {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *operatorRepo) GetActive(ctx context.Context) ([]*entity.Operator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.Operator
	for _, o := range r.byID {
		if o.IsActive() {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *operatorRepo) Update(ctx context.Context, o *entity.Operator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[o.ID()]; !ok {
		return &repository.NotFoundError{ResourceType: "Operator", ResourceID: o.ID().String()}
	}
	r.byID[o.ID()] = o
	return nil
}

func (r *operatorRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return &repository.NotFoundError{ResourceType: "Operator", ResourceID: id.String()}
	}
	delete(r.byID, id)
	return nil
}

func (r *operatorRepo) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byID)), nil
}
