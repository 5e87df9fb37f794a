package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vulcanmes/scheduler/internal/entity"
	"github.com/vulcanmes/scheduler/internal/repository"
)

type scheduleRepo struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*entity.Schedule
}

func newScheduleRepo() *scheduleRepo {
	return &scheduleRepo{byID: make(map[uuid.UUID]*entity.Schedule)}
}

func (r *scheduleRepo) Create(ctx context.Context, s *entity.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[s.ID()] = s
	return nil
}

func (r *scheduleRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, &repository.NotFoundError{ResourceType: "Schedule", ResourceID: id.String()}
	}
	return s, nil
}

func (r *scheduleRepo) GetByStatus(ctx context.Context, status entity.ScheduleStatus) ([]*entity.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.Schedule
	for _, s := range r.byID {
		if s.Status() == status {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *scheduleRepo) GetActiveForHorizon(ctx context.Context, asOf time.Time) (*entity.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.byID {
		if s.Status() != entity.ScheduleActive {
			continue
		}
		if s.Horizon().Contains(asOf) {
			return s, nil
		}
	}
	return nil, &repository.NotFoundError{ResourceType: "Schedule", ResourceID: "active-for-" + asOf.Format(time.RFC3339)}
}

func (r *scheduleRepo) Update(ctx context.Context, s *entity.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[s.ID()]; !ok {
		return &repository.NotFoundError{ResourceType: "Schedule", ResourceID: s.ID().String()}
	}
	r.byID[s.ID()] = s
	return nil
}

func (r *scheduleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return &repository.NotFoundError{ResourceType: "Schedule", ResourceID: id.String()}
	}
	delete(r.byID, id)
	return nil
}

func (r *scheduleRepo) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byID)), nil
}
