package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/vulcanmes/scheduler/internal/apperr"
	"github.com/vulcanmes/scheduler/internal/entity"
	"github.com/vulcanmes/scheduler/internal/observability"
	"github.com/vulcanmes/scheduler/internal/optimize"
	"github.com/vulcanmes/scheduler/internal/repository"
	"github.com/vulcanmes/scheduler/internal/service"
	"github.com/vulcanmes/scheduler/internal/valueobject"
)

// Handlers executes solve:schedule tasks popped off the queue, loading
// the planning instance from the repositories and driving it through a
// service.Service.
type Handlers struct {
	db       repository.Database
	solver   *service.Service
	calendar valueobject.BusinessCalendar
	logs     observability.LogSink
}

// NewHandlers builds the worker-side handlers for the solve queue.
func NewHandlers(db repository.Database, solver *service.Service, calendar valueobject.BusinessCalendar, logs observability.LogSink) *Handlers {
	if logs == nil {
		logs = observability.NoopLogSink()
	}
	return &Handlers{db: db, solver: solver, calendar: calendar, logs: logs}
}

// RegisterHandlers wires every task type this package handles onto mux.
func (h *Handlers) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeSolve, h.HandleSolve)
}

// HandleSolve loads the jobs named in the payload plus the full
// available/busy machine pool, active operators, and production zones,
// then runs them through Solve.
func (h *Handlers) HandleSolve(ctx context.Context, t *asynq.Task) error {
	var payload SolvePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("job: unmarshal solve payload: %w", asynq.SkipRetry)
	}

	jobs := make([]*entity.Job, 0, len(payload.JobIDs))
	for _, id := range payload.JobIDs {
		j, err := h.db.JobRepository().GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("job: load job %s: %w", id, err)
		}
		jobs = append(jobs, j)
	}

	machines, err := h.loadMachinePool(ctx)
	if err != nil {
		return err
	}

	operators, err := h.db.OperatorRepository().GetActive(ctx)
	if err != nil {
		return fmt.Errorf("job: load operators: %w", err)
	}

	zones, err := h.db.ProductionZoneRepository().GetAll(ctx)
	if err != nil {
		return fmt.Errorf("job: load production zones: %w", err)
	}
	zoneByID := make(map[entity.ZoneID]*entity.ProductionZone, len(zones))
	for _, z := range zones {
		zoneByID[z.ID()] = z
	}

	outcome, err := h.solver.Solve(ctx, service.Request{
		Jobs:          jobs,
		Machines:      machines,
		Operators:     operators,
		Zones:         zoneByID,
		Calendar:      h.calendar,
		HorizonStart:  payload.HorizonStart,
		HorizonDays:   payload.HorizonDays,
		PrimaryWeight: payload.PrimaryWeight,
		OptimizeConfig: optimize.Config{
			SinglePhase: payload.SinglePhase,
		},
	})
	if err != nil {
		if apperr.Is(err, apperr.Optimization) {
			// The degradation manager already exhausted every fallback
			// strategy; retrying the same instance would reach the same
			// dead end.
			return fmt.Errorf("job: solve exhausted all fallbacks: %w: %w", err, asynq.SkipRetry)
		}
		return fmt.Errorf("job: solve failed: %w", err)
	}

	h.logs.Log(observability.LogRecord{
		Level:     "info",
		Operation: "schedule:solve",
		Fields: map[string]any{
			"schedule_id":     outcome.Schedule.ID(),
			"degraded":        outcome.Degraded,
			"tasks_scheduled": len(outcome.Schedule.Assignments()),
		},
	})

	return nil
}

func (h *Handlers) loadMachinePool(ctx context.Context) (map[entity.MachineID]*entity.Machine, error) {
	available, err := h.db.MachineRepository().GetByStatus(ctx, entity.MachineAvailable)
	if err != nil {
		return nil, fmt.Errorf("job: load available machines: %w", err)
	}
	busy, err := h.db.MachineRepository().GetByStatus(ctx, entity.MachineBusy)
	if err != nil {
		return nil, fmt.Errorf("job: load busy machines: %w", err)
	}

	machines := make(map[entity.MachineID]*entity.Machine, len(available)+len(busy))
	for _, m := range available {
		machines[m.ID()] = m
	}
	for _, m := range busy {
		machines[m.ID()] = m
	}
	return machines, nil
}
