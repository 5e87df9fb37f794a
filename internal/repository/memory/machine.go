package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/vulcanmes/scheduler/internal/entity"
	"github.com/vulcanmes/scheduler/internal/repository"
)

type machineRepo struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*entity.Machine
}

func newMachineRepo() *machineRepo {
	return &machineRepo{byID: make(map[uuid.UUID]*entity.Machine)}
}

func (r *machineRepo) Create(ctx context.Context, m *entity.Machine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Code() == m.Code() {
			return &repository.ValidationError{Field: "code", Message: "machine code already in use"}
		}
	}
	r.byID[m.ID()] = m
	return nil
}

func (r *machineRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Machine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[id]
	if !ok {
		return nil, &repository.NotFoundError{ResourceType: "Machine", ResourceID: id.String()}
	}
	return m, nil
}

func (r *machineRepo) GetByCode(ctx context.Context, code string) (*entity.Machine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.byID {
		if m.Code() == code {
			return m, nil
		}
	}
	return nil, &repository.NotFoundError{ResourceType: "Machine", ResourceID: code}
}

func (r *machineRepo) GetByZone(ctx context.Context, zoneID uuid.UUID) ([]*entity.Machine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.Machine
	for _, m := range r.byID {
		if m.ZoneID() == zoneID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *machineRepo) GetByStatus(ctx context.Context, status entity.MachineStatus) ([]*entity.Machine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.Machine
	for _, m := range r.byID {
		if m.Status() == status {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *machineRepo) Update(ctx context.Context, m *entity.Machine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[m.ID()]; !ok {
		return &repository.NotFoundError{ResourceType: "Machine", ResourceID: m.ID().String()}
	}
	r.byID[m.ID()] = m
	return nil
}

func (r *machineRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return &repository.NotFoundError{ResourceType: "Machine", ResourceID: id.String()}
	}
	delete(r.byID, id)
	return nil
}

func (r *machineRepo) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byID)), nil
}
