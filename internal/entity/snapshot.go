package entity

import "time"

// Snapshots are plain, fully-exported mementos of an aggregate's state,
// used only at persistence boundaries (the postgres repository layer)
// so storage code never needs reflection or exported mutable fields on
// the aggregates themselves.

// TaskSnapshot is the persisted form of a Task.
type TaskSnapshot struct {
	ID                TaskID
	JobID             JobID
	Sequence          int
	Name              string
	Department        string
	Status            TaskStatus
	MachineOptions    []rawMachineOption
	Roles             []rawRoleRequirement
	Predecessors      []TaskID
	AssignedMachineID *MachineID
	AssignedOption    *rawMachineOption
	OperatorAssigns   []OperatorAssignment
	PlannedStart      *time.Time
	PlannedEnd        *time.Time
	ActualStart       *time.Time
	ActualEnd         *time.Time
	IsCriticalPath    bool
	DelayMinutes      float64
	ReworkCount       int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// rawMachineOption mirrors valueobject.MachineOption with exported
// float64 minute fields so it round-trips through JSON without needing
// the valueobject package to export its internal Duration representation.
type rawMachineOption struct {
	MachineID                 MachineID
	SetupMinutes               float64
	ProcessingMinutes          float64
	RequiresOperatorFullDur    bool
}

type rawRoleRequirement struct {
	SkillType    string
	MinimumLevel int
	Count        int
	Attendance   string
}

// Snapshot captures t's full state for persistence.
func (t *Task) Snapshot() TaskSnapshot {
	opts := make([]rawMachineOption, len(t.machineOpts))
	for i, o := range t.machineOpts {
		opts[i] = rawMachineOption{
			MachineID: o.MachineID, SetupMinutes: o.SetupDuration.Minutes(),
			ProcessingMinutes: o.ProcessingDuration.Minutes(), RequiresOperatorFullDur: o.RequiresOperatorFullDur,
		}
	}
	roles := make([]rawRoleRequirement, len(t.roles))
	for i, rq := range t.roles {
		roles[i] = rawRoleRequirement{
			SkillType: string(rq.SkillType), MinimumLevel: int(rq.MinimumLevel),
			Count: rq.Count, Attendance: string(rq.Attendance),
		}
	}
	var assignedOpt *rawMachineOption
	if t.assignedOption != nil {
		assignedOpt = &rawMachineOption{
			MachineID: t.assignedOption.MachineID, SetupMinutes: t.assignedOption.SetupDuration.Minutes(),
			ProcessingMinutes: t.assignedOption.ProcessingDuration.Minutes(),
			RequiresOperatorFullDur: t.assignedOption.RequiresOperatorFullDur,
		}
	}
	return TaskSnapshot{
		ID: t.id, JobID: t.jobID, Sequence: t.sequence, Name: t.name, Department: t.department,
		Status: t.status, MachineOptions: opts, Roles: roles, Predecessors: t.Predecessors(),
		AssignedMachineID: t.AssignedMachineID(), AssignedOption: assignedOpt,
		OperatorAssigns: t.OperatorAssignments(), PlannedStart: t.plannedStart, PlannedEnd: t.plannedEnd,
		ActualStart: t.actualStart, ActualEnd: t.actualEnd, IsCriticalPath: t.isCriticalPath,
		DelayMinutes: t.delayMinutes, ReworkCount: t.reworkCount, CreatedAt: t.createdAt, UpdatedAt: t.updatedAt,
	}
}

// JobSnapshot is the persisted form of a Job, including its tasks.
type JobSnapshot struct {
	ID                       JobID
	JobNumber                string
	Customer                 string
	PartNumber               string
	Quantity                 int
	Priority                 Priority
	Status                   JobStatus
	DueDate                  time.Time
	ReleaseDate              *time.Time
	PlannedStart             *time.Time
	PlannedEnd               *time.Time
	ActualStart              *time.Time
	ActualEnd                *time.Time
	CurrentOperationSequence int
	Tasks                    []TaskSnapshot
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// Snapshot captures j's full state, including every attached task, for
// persistence.
func (j *Job) Snapshot() JobSnapshot {
	tasks := j.Tasks()
	snaps := make([]TaskSnapshot, len(tasks))
	for i, t := range tasks {
		snaps[i] = t.Snapshot()
	}
	return JobSnapshot{
		ID: j.id, JobNumber: j.jobNumber, Customer: j.customer, PartNumber: j.partNumber,
		Quantity: j.quantity, Priority: j.priority, Status: j.status, DueDate: j.dueDate,
		ReleaseDate: j.releaseDate, PlannedStart: j.plannedStart, PlannedEnd: j.plannedEnd,
		ActualStart: j.actualStart, ActualEnd: j.actualEnd,
		CurrentOperationSequence: j.currentOperationSequence, Tasks: snaps,
		CreatedAt: j.createdAt, UpdatedAt: j.updatedAt,
	}
}
