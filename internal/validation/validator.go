package validation

import (
	"fmt"
	"sort"
	"time"

	"github.com/vulcanmes/scheduler/internal/entity"
	"github.com/vulcanmes/scheduler/internal/valueobject"
)

// ScheduleContext bundles the aggregates a validation pass needs beyond
// the schedule itself: the jobs (and their tasks) the schedule covers,
// the machines and operators it assigns, the WIP zones gating those
// jobs' task sequence ranges, and the critical sequence ranges within
// which only one job may be in flight at a time.
type ScheduleContext struct {
	Jobs              map[entity.JobID]*entity.Job
	Machines          map[entity.MachineID]*entity.Machine
	Operators         map[entity.OperatorID]*entity.Operator
	Zones             map[entity.ZoneID]*entity.ProductionZone
	CriticalSequences []entity.CriticalSequence
}

func (ctx ScheduleContext) findTask(id entity.TaskID) (*entity.Task, *entity.Job, bool) {
	for _, j := range ctx.Jobs {
		if t, ok := j.TaskByID(id); ok {
			return t, j, true
		}
	}
	return nil, nil, false
}

// jobSpan is one job's occupancy interval within a sequence range: the
// start of its first in-range, assigned task to the end of its last.
type jobSpan struct {
	jobID      entity.JobID
	start, end time.Time
}

// jobSpansInRange computes, per job with at least one assigned task
// whose sequence falls in [startSeq, endSeq], the span from its first
// in-range task's start to its last in-range task's end. It is the
// basis for both the WIP zone and critical sequence checks, which
// differ only in how they interpret overlap between those spans.
func jobSpansInRange(assignments []entity.ScheduleAssignment, ctx ScheduleContext, startSeq, endSeq int) []jobSpan {
	type accum struct {
		start, end time.Time
		set        bool
	}
	byJob := map[entity.JobID]*accum{}
	for _, a := range assignments {
		task, job, ok := ctx.findTask(a.TaskID)
		if !ok {
			continue
		}
		seq := task.Sequence()
		if seq < startSeq || seq > endSeq {
			continue
		}
		acc, ok := byJob[job.ID()]
		if !ok {
			acc = &accum{}
			byJob[job.ID()] = acc
		}
		if !acc.set || a.Start.Before(acc.start) {
			acc.start = a.Start
		}
		if !acc.set || a.End.After(acc.end) {
			acc.end = a.End
		}
		acc.set = true
	}
	spans := make([]jobSpan, 0, len(byJob))
	for jobID, acc := range byJob {
		spans = append(spans, jobSpan{jobID: jobID, start: acc.start, end: acc.end})
	}
	return spans
}

// ConstraintValidator checks a Schedule's assignments against the eight
// hard-constraint classes the solver must satisfy before a schedule can
// be published: resource non-overlap, precedence, WIP zone limits,
// critical sequence contiguity, business hours, machine capability,
// operator skills, and operator count.
type ConstraintValidator struct {
	Calendar valueobject.BusinessCalendar
}

// NewConstraintValidator builds a validator against the given calendar.
func NewConstraintValidator(cal valueobject.BusinessCalendar) *ConstraintValidator {
	return &ConstraintValidator{Calendar: cal}
}

// Validate runs every constraint class against the schedule's current
// assignments and returns the accumulated Result. It never stops at the
// first violation; every class is checked so the caller sees the full
// picture.
func (v *ConstraintValidator) Validate(s *entity.Schedule, ctx ScheduleContext) *Result {
	r := NewResult()
	assignments := s.Assignments()
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].Start.Before(assignments[j].Start) })

	v.checkResourceOverlap(r, assignments)
	v.checkPrecedence(r, assignments, ctx)
	v.checkWipZones(r, assignments, ctx)
	v.checkCriticalSequences(r, assignments, ctx)
	v.checkBusinessHours(r, assignments, ctx)
	v.checkMachineCapability(r, assignments, ctx)
	v.checkOperatorSkills(r, assignments, ctx)
	v.checkOperatorCount(r, assignments, ctx)
	return r
}

func (v *ConstraintValidator) checkResourceOverlap(r *Result, assignments []entity.ScheduleAssignment) {
	byMachine := map[entity.MachineID][]entity.ScheduleAssignment{}
	for _, a := range assignments {
		byMachine[a.MachineID] = append(byMachine[a.MachineID], a)
	}
	for machineID, group := range byMachine {
		sort.Slice(group, func(i, j int) bool { return group[i].Start.Before(group[j].Start) })
		for i := 1; i < len(group); i++ {
			if group[i].Start.Before(group[i-1].End) {
				r.AddErrorWithContext(CodeResourceOverlap,
					fmt.Sprintf("tasks %s and %s overlap on machine %s", group[i-1].TaskID, group[i].TaskID, machineID),
					map[string]interface{}{"machine_id": machineID.String()})
			}
		}
	}

	byOperator := map[entity.OperatorID][]entity.ScheduleAssignment{}
	for _, a := range assignments {
		for _, opID := range a.OperatorIDs {
			byOperator[opID] = append(byOperator[opID], a)
		}
	}
	for opID, group := range byOperator {
		sort.Slice(group, func(i, j int) bool { return group[i].Start.Before(group[j].Start) })
		for i := 1; i < len(group); i++ {
			if group[i].Start.Before(group[i-1].End) {
				r.AddErrorWithContext(CodeResourceOverlap,
					fmt.Sprintf("tasks %s and %s overlap for operator %s", group[i-1].TaskID, group[i].TaskID, opID),
					map[string]interface{}{"operator_id": opID.String()})
			}
		}
	}
}

func (v *ConstraintValidator) checkPrecedence(r *Result, assignments []entity.ScheduleAssignment, ctx ScheduleContext) {
	byTask := map[entity.TaskID]entity.ScheduleAssignment{}
	for _, a := range assignments {
		byTask[a.TaskID] = a
	}
	for _, a := range assignments {
		task, _, ok := ctx.findTask(a.TaskID)
		if !ok {
			continue
		}
		for _, predID := range task.Predecessors() {
			pred, ok := byTask[predID]
			if !ok {
				continue
			}
			if a.Start.Before(pred.End) {
				r.AddErrorWithContext(CodePrecedenceViolated,
					fmt.Sprintf("task %s starts before predecessor %s finishes", a.TaskID, predID),
					map[string]interface{}{"task_id": a.TaskID.String(), "predecessor_id": predID.String()})
			}
		}
	}
}

// checkWipZones flags a zone whenever more distinct jobs occupy it
// concurrently than its WIP limit allows. A job occupies a zone for the
// span from its first in-range task's start to its last in-range
// task's end, independent of which machine either task runs on.
func (v *ConstraintValidator) checkWipZones(r *Result, assignments []entity.ScheduleAssignment, ctx ScheduleContext) {
	for _, zone := range ctx.Zones {
		spans := jobSpansInRange(assignments, ctx, zone.StartSeq(), zone.EndSeq())
		sort.Slice(spans, func(i, j int) bool { return spans[i].start.Before(spans[j].start) })
		for i, sp := range spans {
			active := map[entity.JobID]struct{}{sp.jobID: {}}
			for j, other := range spans {
				if j == i {
					continue
				}
				if other.start.Before(sp.end) && sp.start.Before(other.end) {
					active[other.jobID] = struct{}{}
				}
			}
			if len(active) > zone.WipLimit() {
				r.AddErrorWithContext(CodeWipLimitExceeded,
					fmt.Sprintf("zone %s has %d concurrent jobs, exceeding its limit of %d", zone.ZoneCode(), len(active), zone.WipLimit()),
					map[string]interface{}{"zone_id": zone.ID().String()})
				break
			}
		}
	}
}

// checkCriticalSequences flags a critical sequence range whenever one
// job enters it before the previous occupant has fully exited: for
// each range, every job's in-range occupancy span is sorted by start
// time, and any span that starts before its predecessor ends is a
// violation. Unlike a WIP zone, the limit here is always one occupant
// at a time, and it has nothing to do with machine identity.
func (v *ConstraintValidator) checkCriticalSequences(r *Result, assignments []entity.ScheduleAssignment, ctx ScheduleContext) {
	for _, cs := range ctx.CriticalSequences {
		spans := jobSpansInRange(assignments, ctx, cs.StartSeq(), cs.EndSeq())
		if len(spans) < 2 {
			continue
		}
		sort.Slice(spans, func(i, j int) bool { return spans[i].start.Before(spans[j].start) })
		for i := 0; i+1 < len(spans); i++ {
			current, next := spans[i], spans[i+1]
			if next.start.Before(current.end) {
				r.AddErrorWithContext(CodeCriticalSequence,
					fmt.Sprintf("critical sequence %s violation: job %s enters before job %s exits", cs.Name(), next.jobID, current.jobID),
					map[string]interface{}{"sequence": cs.Name()})
			}
		}
	}
}

func (v *ConstraintValidator) checkBusinessHours(r *Result, assignments []entity.ScheduleAssignment, ctx ScheduleContext) {
	for _, a := range assignments {
		m, ok := ctx.Machines[a.MachineID]
		if !ok || m.AutomationLevel() != entity.AutomationAttended {
			continue
		}
		if !v.Calendar.IsWorkingTime(a.Start) || !v.Calendar.IsWorkingTime(a.End.Add(-time.Minute)) {
			r.AddErrorWithContext(CodeOutsideBusinessHours,
				fmt.Sprintf("task %s is scheduled outside business hours on attended machine %s", a.TaskID, a.MachineID),
				map[string]interface{}{"task_id": a.TaskID.String()})
		}
	}
}

func (v *ConstraintValidator) checkMachineCapability(r *Result, assignments []entity.ScheduleAssignment, ctx ScheduleContext) {
	for _, a := range assignments {
		m, ok := ctx.Machines[a.MachineID]
		if !ok {
			continue
		}
		task, _, ok := ctx.findTask(a.TaskID)
		if !ok || task.Department() == "" {
			continue
		}
		if !m.CanPerform(task.Department()) {
			r.AddErrorWithContext(CodeMachineIncapable,
				fmt.Sprintf("machine %s cannot perform %s required by task %s", m.Code(), task.Department(), a.TaskID),
				map[string]interface{}{"machine_id": a.MachineID.String(), "task_id": a.TaskID.String()})
		}
	}
}

func (v *ConstraintValidator) checkOperatorSkills(r *Result, assignments []entity.ScheduleAssignment, ctx ScheduleContext) {
	for _, a := range assignments {
		task, _, ok := ctx.findTask(a.TaskID)
		if !ok {
			continue
		}
		for _, role := range task.RoleRequirements() {
			satisfied := false
			for _, opID := range a.OperatorIDs {
				op, ok := ctx.Operators[opID]
				if !ok {
					continue
				}
				if op.HasSkill(role.SkillType, role.MinimumLevel, a.Start) {
					satisfied = true
					break
				}
			}
			if !satisfied {
				r.AddErrorWithContext(CodeOperatorUnskilled,
					fmt.Sprintf("task %s needs %s at level %d, no assigned operator qualifies", a.TaskID, role.SkillType, role.MinimumLevel),
					map[string]interface{}{"task_id": a.TaskID.String(), "skill": string(role.SkillType)})
			}
		}
	}
}

func (v *ConstraintValidator) checkOperatorCount(r *Result, assignments []entity.ScheduleAssignment, ctx ScheduleContext) {
	for _, a := range assignments {
		task, _, ok := ctx.findTask(a.TaskID)
		if !ok {
			continue
		}
		required := 0
		for _, role := range task.RoleRequirements() {
			required += role.Count
		}
		if required > 0 && len(a.OperatorIDs) < required {
			r.AddErrorWithContext(CodeOperatorCount,
				fmt.Sprintf("task %s requires %d operators, only %d assigned", a.TaskID, required, len(a.OperatorIDs)),
				map[string]interface{}{"task_id": a.TaskID.String()})
		}
	}
}
