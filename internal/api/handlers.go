package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vulcanmes/scheduler/internal/entity"
	"github.com/vulcanmes/scheduler/internal/job"
	"github.com/vulcanmes/scheduler/internal/optimize"
	"github.com/vulcanmes/scheduler/internal/repository"
	"github.com/vulcanmes/scheduler/internal/service"
	"github.com/vulcanmes/scheduler/internal/solver"
	"github.com/vulcanmes/scheduler/internal/valueobject"
)

// Handlers serves the HTTP surface over a Service, a SolveQueue, and the
// repositories backing them.
type Handlers struct {
	db       repository.Database
	solver   *service.Service
	queue    *job.SolveQueue
	calendar valueobject.BusinessCalendar
}

// NewHandlers builds the HTTP-facing handlers. queue may be nil, in
// which case the async solve endpoint is disabled.
func NewHandlers(db repository.Database, solver *service.Service, queue *job.SolveQueue, calendar valueobject.BusinessCalendar) *Handlers {
	return &Handlers{db: db, solver: solver, queue: queue, calendar: calendar}
}

// Health reports liveness plus downstream dependency health.
func (h *Handlers) Health(c echo.Context) error {
	status := "UP"
	if err := h.db.Health(c.Request().Context()); err != nil {
		status = "DEGRADED"
	}
	return c.JSON(http.StatusOK, SuccessResponse(map[string]any{
		"status":   status,
		"database": h.db.Health(c.Request().Context()) == nil,
	}))
}

// solveRequest is the shared body for the synchronous and asynchronous
// solve endpoints: enough to reload the planning instance from the
// repositories.
type solveRequest struct {
	JobIDs        []string `json:"job_ids" validate:"required"`
	HorizonStart  string   `json:"horizon_start" validate:"required"`
	HorizonDays   int      `json:"horizon_days" validate:"required,min=1"`
	PrimaryWeight float64  `json:"primary_weight"`
	SinglePhase   bool     `json:"single_phase"`
}

func (r solveRequest) parse() ([]uuid.UUID, time.Time, error) {
	ids := make([]uuid.UUID, 0, len(r.JobIDs))
	for _, s := range r.JobIDs {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, time.Time{}, err
		}
		ids = append(ids, id)
	}
	horizonStart, err := time.Parse(time.RFC3339, r.HorizonStart)
	if err != nil {
		return nil, time.Time{}, err
	}
	return ids, horizonStart, nil
}

// SolveSync runs a solve inline and returns the produced schedule,
// intended for small instances and demos rather than production
// workloads — use SolveAsync for anything that might run long.
func (h *Handlers) SolveSync(c echo.Context) error {
	var req solveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponseWithCode("INVALID_REQUEST", "invalid request body: "+err.Error()))
	}
	jobIDs, horizonStart, err := req.parse()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponseWithCode("INVALID_REQUEST", err.Error()))
	}

	ctx := c.Request().Context()
	instance, err := h.loadPlanningInstance(ctx, jobIDs)
	if err != nil {
		return c.JSON(http.StatusNotFound, ErrorResponseWithCode("NOT_FOUND", err.Error()))
	}

	primaryWeight := req.PrimaryWeight
	if primaryWeight == 0 {
		primaryWeight = solver.DefaultPrimaryWeight
	}

	outcome, err := h.solver.Solve(ctx, service.Request{
		Jobs:          instance.jobs,
		Machines:      instance.machines,
		Operators:     instance.operators,
		Zones:         instance.zones,
		Calendar:      h.calendar,
		HorizonStart:  horizonStart,
		HorizonDays:   req.HorizonDays,
		PrimaryWeight: primaryWeight,
		OptimizeConfig: optimize.Config{
			SinglePhase: req.SinglePhase,
		},
	})
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponseWithCode("SOLVE_FAILED", err.Error()))
	}

	return c.JSON(http.StatusOK, SuccessResponse(map[string]any{
		"schedule": newScheduleDTO(outcome.Schedule),
		"degraded": outcome.Degraded,
	}))
}

// SolveAsync enqueues a solve onto the worker pool and returns
// immediately with a task identifier a caller can poll.
func (h *Handlers) SolveAsync(c echo.Context) error {
	if h.queue == nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponseWithCode("QUEUE_UNAVAILABLE", "solve queue is not configured"))
	}

	var req solveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponseWithCode("INVALID_REQUEST", "invalid request body: "+err.Error()))
	}
	jobIDs, horizonStart, err := req.parse()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponseWithCode("INVALID_REQUEST", err.Error()))
	}

	primaryWeight := req.PrimaryWeight
	if primaryWeight == 0 {
		primaryWeight = solver.DefaultPrimaryWeight
	}

	info, err := h.queue.EnqueueSolve(c.Request().Context(), job.SolvePayload{
		JobIDs:        jobIDs,
		HorizonStart:  horizonStart,
		HorizonDays:   req.HorizonDays,
		PrimaryWeight: primaryWeight,
		SinglePhase:   req.SinglePhase,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponseWithCode("ENQUEUE_FAILED", err.Error()))
	}

	return c.JSON(http.StatusAccepted, SuccessResponse(map[string]any{
		"task_id": info.ID,
		"status":  "queued",
	}))
}

// GetSchedule retrieves a persisted schedule by ID.
func (h *Handlers) GetSchedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponseWithCode("INVALID_ID", "invalid schedule id"))
	}

	schedule, err := h.db.ScheduleRepository().GetByID(c.Request().Context(), id)
	if err != nil {
		if repository.IsNotFound(err) {
			return c.JSON(http.StatusNotFound, ErrorResponseWithCode("NOT_FOUND", "schedule not found"))
		}
		return c.JSON(http.StatusInternalServerError, ErrorResponseWithCode("RETRIEVAL_FAILED", err.Error()))
	}

	return c.JSON(http.StatusOK, SuccessResponse(newScheduleDTO(schedule)))
}

// planningInstance is the subset of repository state a solve needs.
type planningInstance struct {
	jobs      []*entity.Job
	machines  map[entity.MachineID]*entity.Machine
	operators []*entity.Operator
	zones     map[entity.ZoneID]*entity.ProductionZone
}

func (h *Handlers) loadPlanningInstance(ctx context.Context, jobIDs []uuid.UUID) (planningInstance, error) {
	jobs := make([]*entity.Job, 0, len(jobIDs))
	for _, id := range jobIDs {
		j, err := h.db.JobRepository().GetByID(ctx, id)
		if err != nil {
			return planningInstance{}, err
		}
		jobs = append(jobs, j)
	}

	available, err := h.db.MachineRepository().GetByStatus(ctx, entity.MachineAvailable)
	if err != nil {
		return planningInstance{}, err
	}
	busy, err := h.db.MachineRepository().GetByStatus(ctx, entity.MachineBusy)
	if err != nil {
		return planningInstance{}, err
	}
	machines := make(map[entity.MachineID]*entity.Machine, len(available)+len(busy))
	for _, m := range available {
		machines[m.ID()] = m
	}
	for _, m := range busy {
		machines[m.ID()] = m
	}

	operators, err := h.db.OperatorRepository().GetActive(ctx)
	if err != nil {
		return planningInstance{}, err
	}

	zones, err := h.db.ProductionZoneRepository().GetAll(ctx)
	if err != nil {
		return planningInstance{}, err
	}
	zoneByID := make(map[entity.ZoneID]*entity.ProductionZone, len(zones))
	for _, z := range zones {
		zoneByID[z.ID()] = z
	}

	return planningInstance{jobs: jobs, machines: machines, operators: operators, zones: zoneByID}, nil
}
