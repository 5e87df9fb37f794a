package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vulcanmes/scheduler/internal/entity"
	"github.com/vulcanmes/scheduler/internal/repository"
)

type jobRepo struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*entity.Job
}

func newJobRepo() *jobRepo {
	return &jobRepo{byID: make(map[uuid.UUID]*entity.Job)}
}

func (r *jobRepo) Create(ctx context.Context, job *entity.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[job.ID()]; exists {
		return &repository.ValidationError{Field: "id", Message: "job already exists"}
	}
	for _, existing := range r.byID {
		if existing.JobNumber() == job.JobNumber() {
			return &repository.ValidationError{Field: "job_number", Message: "job_number already in use"}
		}
	}
	r.byID[job.ID()] = job
	return nil
}

func (r *jobRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.byID[id]
	if !ok {
		return nil, &repository.NotFoundError{ResourceType: "Job", ResourceID: id.String()}
	}
	return job, nil
}

func (r *jobRepo) GetByJobNumber(ctx context.Context, jobNumber string) (*entity.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, job := range r.byID {
		if job.JobNumber() == jobNumber {
			return job, nil
		}
	}
	return nil, &repository.NotFoundError{ResourceType: "Job", ResourceID: jobNumber}
}

func (r *jobRepo) GetByStatus(ctx context.Context, status entity.JobStatus) ([]*entity.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.Job
	for _, job := range r.byID {
		if job.Status() == status {
			out = append(out, job)
		}
	}
	return out, nil
}

func (r *jobRepo) GetDueBefore(ctx context.Context, cutoff time.Time) ([]*entity.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.Job
	for _, job := range r.byID {
		if job.DueDate().Before(cutoff) {
			out = append(out, job)
		}
	}
	return out, nil
}

func (r *jobRepo) Update(ctx context.Context, job *entity.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[job.ID()]; !ok {
		return &repository.NotFoundError{ResourceType: "Job", ResourceID: job.ID().String()}
	}
	r.byID[job.ID()] = job
	return nil
}

func (r *jobRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return &repository.NotFoundError{ResourceType: "Job", ResourceID: id.String()}
	}
	delete(r.byID, id)
	return nil
}

func (r *jobRepo) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byID)), nil
}
