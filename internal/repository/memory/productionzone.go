package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/vulcanmes/scheduler/internal/entity"
	"github.com/vulcanmes/scheduler/internal/repository"
)

type productionZoneRepo struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*entity.ProductionZone
}

func newProductionZoneRepo() *productionZoneRepo {
	return &productionZoneRepo{byID: make(map[uuid.UUID]*entity.ProductionZone)}
}

func (r *productionZoneRepo) Create(ctx context.Context, z *entity.ProductionZone) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.ZoneCode() == z.ZoneCode() {
			return &repository.ValidationError{Field: "zone_code", Message: "zone_code already in use"}
		}
	}
	r.byID[z.ID()] = z
	return nil
}

func (r *productionZoneRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.ProductionZone, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	z, ok := r.byID[id]
	if !ok {
		return nil, &repository.NotFoundError{ResourceType: "ProductionZone", ResourceID: id.String()}
	}
	return z, nil
}

func (r *productionZoneRepo) GetByCode(ctx context.Context, zoneCode string) (*entity.ProductionZone, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, z := range r.byID {
		if z.ZoneCode() == zoneCode {
			return z, nil
		}
	}
	return nil, &repository.NotFoundError{ResourceType: "ProductionZone", ResourceID: zoneCode}
}

func (r *productionZoneRepo) GetAll(ctx context.Context) ([]*entity.ProductionZone, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.ProductionZone, 0, len(r.byID))
	for _, z := range r.byID {
		out = append(out, z)
	}
	return out, nil
}

func (r *productionZoneRepo) Update(ctx context.Context, z *entity.ProductionZone) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[z.ID()]; !ok {
		return &repository.NotFoundError{ResourceType: "ProductionZone", ResourceID: z.ID().String()}
	}
	r.byID[z.ID()] = z
	return nil
}

func (r *productionZoneRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return &repository.NotFoundError{ResourceType: "ProductionZone", ResourceID: id.String()}
	}
	delete(r.byID, id)
	return nil
}

func (r *productionZoneRepo) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byID)), nil
}
