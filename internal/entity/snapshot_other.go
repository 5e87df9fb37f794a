package entity

import (
	"time"

	"github.com/vulcanmes/scheduler/internal/valueobject"
)

// MachineSnapshot is the persisted form of a Machine.
type MachineSnapshot struct {
	ID               MachineID
	Code             string
	Name             string
	ZoneID           ZoneID
	AutomationLevel  AutomationLevel
	Status           MachineStatus
	EfficiencyFactor float64
	IsBottleneck     bool
	Capabilities     []Capability
	Maintenance      []rawMaintenanceWindow
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type rawMaintenanceWindow struct {
	StartAt time.Time
	EndAt   time.Time
	Reason  string
}

func (m *Machine) Snapshot() MachineSnapshot {
	windows := make([]rawMaintenanceWindow, len(m.maintenance))
	for i, w := range m.maintenance {
		windows[i] = rawMaintenanceWindow{StartAt: w.Window.Start, EndAt: w.Window.End, Reason: w.Reason}
	}
	return MachineSnapshot{
		ID: m.id, Code: m.code, Name: m.name, ZoneID: m.zoneID, AutomationLevel: m.automationLevel,
		Status: m.status, EfficiencyFactor: m.efficiencyFactor, IsBottleneck: m.isBottleneck,
		Capabilities: m.Capabilities(), Maintenance: windows, CreatedAt: m.createdAt, UpdatedAt: m.updatedAt,
	}
}

// RestoreMachine reconstructs a Machine from its persisted snapshot.
func RestoreMachine(s MachineSnapshot) *Machine {
	windows := make([]MaintenanceWindow, len(s.Maintenance))
	for i, w := range s.Maintenance {
		tw, _ := valueobject.NewTimeWindow(w.StartAt, w.EndAt)
		windows[i] = MaintenanceWindow{Window: tw, Reason: w.Reason}
	}
	return &Machine{
		id: s.ID, code: s.Code, name: s.Name, zoneID: s.ZoneID, automationLevel: s.AutomationLevel,
		status: s.Status, efficiencyFactor: s.EfficiencyFactor, isBottleneck: s.IsBottleneck,
		capabilities: append([]Capability(nil), s.Capabilities...), maintenance: windows,
		createdAt: s.CreatedAt, updatedAt: s.UpdatedAt,
	}
}

// OperatorSnapshot is the persisted form of an Operator.
type OperatorSnapshot struct {
	ID           OperatorID
	EmployeeID   string
	FirstName    string
	LastName     string
	Department   string
	Status       OperatorStatus
	IsActive     bool
	HireDate      time.Time
	DefaultHours  valueobject.DayHours
	CostPerMinute float64
	Skills        []SkillRecord
	Overrides    []AvailabilityOverride
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (o *Operator) Snapshot() OperatorSnapshot {
	overrides := make([]AvailabilityOverride, 0, len(o.overrides))
	for _, ov := range o.overrides {
		overrides = append(overrides, ov)
	}
	return OperatorSnapshot{
		ID: o.id, EmployeeID: o.employeeID, FirstName: o.firstName, LastName: o.lastName,
		Department: o.department, Status: o.status, IsActive: o.isActive, HireDate: o.hireDate,
		DefaultHours: o.defaultHours, CostPerMinute: o.costPerMinute, Skills: o.Skills(), Overrides: overrides,
		CreatedAt: o.createdAt, UpdatedAt: o.updatedAt,
	}
}

// RestoreOperator reconstructs an Operator from its persisted snapshot.
func RestoreOperator(s OperatorSnapshot) *Operator {
	o := &Operator{
		id: s.ID, employeeID: s.EmployeeID, firstName: s.FirstName, lastName: s.LastName,
		department: s.Department, status: s.Status, isActive: s.IsActive, hireDate: s.HireDate,
		defaultHours: s.DefaultHours, costPerMinute: s.CostPerMinute, skills: make(map[valueobject.SkillType]SkillRecord),
		overrides: make(map[string]AvailabilityOverride), createdAt: s.CreatedAt, updatedAt: s.UpdatedAt,
	}
	for _, rec := range s.Skills {
		o.skills[rec.SkillType] = rec
	}
	for _, ov := range s.Overrides {
		o.overrides[ov.Date.Format("2006-01-02")] = ov
	}
	return o
}

// ScheduleSnapshot is the persisted form of a Schedule.
type ScheduleSnapshot struct {
	ID          ScheduleID
	Name        string
	Horizon     valueobject.TimeWindow
	Status      ScheduleStatus
	JobIDs      []JobID
	Assignments []ScheduleAssignment
	Violations  []string
	Metrics     ScheduleMetrics
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (s *Schedule) Snapshot() ScheduleSnapshot {
	return ScheduleSnapshot{
		ID: s.id, Name: s.name, Horizon: s.horizon, Status: s.status, JobIDs: s.JobIDs(),
		Assignments: s.Assignments(), Violations: s.Violations(), Metrics: s.metrics,
		CreatedAt: s.createdAt, UpdatedAt: s.updatedAt,
	}
}

// RestoreSchedule reconstructs a Schedule from its persisted snapshot.
func RestoreSchedule(snap ScheduleSnapshot) *Schedule {
	s := &Schedule{
		id: snap.ID, name: snap.Name, horizon: snap.Horizon, status: snap.Status,
		jobIDs: make(map[JobID]struct{}), assignments: make(map[TaskID]ScheduleAssignment),
		violations: append([]string(nil), snap.Violations...), metrics: snap.Metrics,
		createdAt: snap.CreatedAt, updatedAt: snap.UpdatedAt,
	}
	for _, id := range snap.JobIDs {
		s.jobIDs[id] = struct{}{}
	}
	for _, a := range snap.Assignments {
		s.assignments[a.TaskID] = a
	}
	return s
}

// ProductionZoneSnapshot is the persisted form of a ProductionZone.
type ProductionZoneSnapshot struct {
	ID         ZoneID
	ZoneCode   string
	Name       string
	StartSeq   int
	EndSeq     int
	WipLimit   int
	JobsInZone []JobID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (z *ProductionZone) Snapshot() ProductionZoneSnapshot {
	jobs := make([]JobID, 0, len(z.jobsInZone))
	for id := range z.jobsInZone {
		jobs = append(jobs, id)
	}
	return ProductionZoneSnapshot{
		ID: z.id, ZoneCode: z.zoneCode, Name: z.name,
		StartSeq: z.startSeq, EndSeq: z.endSeq, WipLimit: z.wipLimit, JobsInZone: jobs,
		CreatedAt: z.createdAt, UpdatedAt: z.updatedAt,
	}
}

// RestoreProductionZone reconstructs a ProductionZone from its persisted
// snapshot.
func RestoreProductionZone(s ProductionZoneSnapshot) *ProductionZone {
	z := &ProductionZone{
		id: s.ID, zoneCode: s.ZoneCode, name: s.Name,
		startSeq: s.StartSeq, endSeq: s.EndSeq, wipLimit: s.WipLimit,
		jobsInZone: make(map[JobID]struct{}), createdAt: s.CreatedAt, updatedAt: s.UpdatedAt,
	}
	for _, id := range s.JobsInZone {
		z.jobsInZone[id] = struct{}{}
	}
	return z
}
