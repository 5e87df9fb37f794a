package api

import (
	"time"

	"github.com/vulcanmes/scheduler/internal/entity"
)

// ScheduleDTO is the wire representation of a Schedule, since the
// aggregate itself carries no JSON tags.
type ScheduleDTO struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Status         string           `json:"status"`
	HorizonStart   time.Time        `json:"horizon_start"`
	HorizonEnd     time.Time        `json:"horizon_end"`
	MakespanMin    float64          `json:"makespan_minutes"`
	TardinessMin   float64          `json:"tardiness_minutes"`
	OperatorCost   float64          `json:"operator_cost"`
	ViolationCount int             `json:"violation_count"`
	Violations     []string        `json:"violations,omitempty"`
	Assignments    []AssignmentDTO `json:"assignments"`
}

// AssignmentDTO is the wire representation of one ScheduleAssignment.
type AssignmentDTO struct {
	TaskID      string    `json:"task_id"`
	MachineID   string    `json:"machine_id"`
	OperatorIDs []string  `json:"operator_ids"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

func newScheduleDTO(s *entity.Schedule) ScheduleDTO {
	horizon := s.Horizon()
	metrics := s.Metrics()

	assignments := make([]AssignmentDTO, 0, len(s.Assignments()))
	for _, a := range s.Assignments() {
		operatorIDs := make([]string, 0, len(a.OperatorIDs))
		for _, id := range a.OperatorIDs {
			operatorIDs = append(operatorIDs, id.String())
		}
		assignments = append(assignments, AssignmentDTO{
			TaskID:      a.TaskID.String(),
			MachineID:   a.MachineID.String(),
			OperatorIDs: operatorIDs,
			Start:       a.Start,
			End:         a.End,
		})
	}

	return ScheduleDTO{
		ID:             s.ID().String(),
		Name:           s.Name(),
		Status:         string(s.Status()),
		HorizonStart:   horizon.Start,
		HorizonEnd:     horizon.End,
		MakespanMin:    metrics.Makespan.Minutes(),
		TardinessMin:   metrics.TotalTardiness.Minutes(),
		OperatorCost:   metrics.OperatorCost.Amount(),
		ViolationCount: metrics.ViolationCount,
		Violations:     s.Violations(),
		Assignments:    assignments,
	}
}
