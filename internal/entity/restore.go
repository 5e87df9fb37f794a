package entity

import "github.com/vulcanmes/scheduler/internal/valueobject"

func (o rawMachineOption) toValueObject() valueobject.MachineOption {
	return valueobject.MachineOption{
		MachineID:               o.MachineID,
		SetupDuration:           valueobject.MustDuration(o.SetupMinutes),
		ProcessingDuration:      valueobject.MustDuration(o.ProcessingMinutes),
		RequiresOperatorFullDur: o.RequiresOperatorFullDur,
	}
}

func (rq rawRoleRequirement) toValueObject() valueobject.RoleRequirement {
	return valueobject.RoleRequirement{
		SkillType:    valueobject.SkillType(rq.SkillType),
		MinimumLevel: valueobject.SkillLevel(rq.MinimumLevel),
		Count:        rq.Count,
		Attendance:   valueobject.Attendance(rq.Attendance),
	}
}

// RestoreTask reconstructs a Task from its persisted snapshot, bypassing
// factory validation since the data was already validated when first
// created.
func RestoreTask(s TaskSnapshot) *Task {
	opts := make([]valueobject.MachineOption, len(s.MachineOptions))
	for i, o := range s.MachineOptions {
		opts[i] = o.toValueObject()
	}
	roles := make([]valueobject.RoleRequirement, len(s.Roles))
	for i, rq := range s.Roles {
		roles[i] = rq.toValueObject()
	}
	t := &Task{
		id: s.ID, jobID: s.JobID, sequence: s.Sequence, name: s.Name, department: s.Department,
		status: s.Status, machineOpts: opts, roles: roles, predecessors: append([]TaskID(nil), s.Predecessors...),
		assignedMachineID: s.AssignedMachineID, operatorAssigns: append([]OperatorAssignment(nil), s.OperatorAssigns...),
		plannedStart: s.PlannedStart, plannedEnd: s.PlannedEnd, actualStart: s.ActualStart, actualEnd: s.ActualEnd,
		isCriticalPath: s.IsCriticalPath, delayMinutes: s.DelayMinutes, reworkCount: s.ReworkCount,
		createdAt: s.CreatedAt, updatedAt: s.UpdatedAt,
	}
	if s.AssignedOption != nil {
		opt := s.AssignedOption.toValueObject()
		t.assignedOption = &opt
	}
	return t
}

// RestoreJob reconstructs a Job and its tasks from a persisted snapshot.
func RestoreJob(s JobSnapshot) *Job {
	j := &Job{
		id: s.ID, jobNumber: s.JobNumber, customer: s.Customer, partNumber: s.PartNumber,
		quantity: s.Quantity, priority: s.Priority, status: s.Status, dueDate: s.DueDate,
		releaseDate: s.ReleaseDate, plannedStart: s.PlannedStart, plannedEnd: s.PlannedEnd,
		actualStart: s.ActualStart, actualEnd: s.ActualEnd,
		currentOperationSequence: s.CurrentOperationSequence,
		tasks:                    make(map[int]*Task),
		taskByID:                 make(map[TaskID]int),
		createdAt:                s.CreatedAt, updatedAt: s.UpdatedAt,
	}
	for _, ts := range s.Tasks {
		task := RestoreTask(ts)
		j.tasks[task.Sequence()] = task
		j.taskByID[task.ID()] = task.Sequence()
	}
	return j
}
