// Package allocation implements the heuristic resource allocation
// service: a non-optimal stand-in for the CP solver used by fallback
// strategies and by direct "allocate resources for this job" requests.
package allocation

import (
	"sort"
	"time"

	"github.com/vulcanmes/scheduler/internal/entity"
	"github.com/vulcanmes/scheduler/internal/valueobject"
)

// MachineScoreParams tunes machine candidate scoring.
type MachineScoreParams struct {
	LoadBalancing bool
	// Utilization maps a machine id to its current load fraction in
	// [0,1]; missing entries are treated as zero load.
	Utilization map[entity.MachineID]float64
}

// MachineCandidate is a scored (machine, routing option) pair.
type MachineCandidate struct {
	Machine *entity.Machine
	Option  valueobject.MachineOption
	Score   float64
}

// ScoreMachine scores one machine's suitability for a task, assuming
// the machine is already known to be capable of the task's operation.
// Base score is 10; +2x the machine's efficiency factor when it's a
// speed-up (>1.0); +5 when the machine's attendance requirement
// matches the task's; +3x(1-utilization) when load balancing is on.
func ScoreMachine(m *entity.Machine, opt valueobject.MachineOption, taskIsAttended bool, params MachineScoreParams) float64 {
	score := 10.0
	if m.EfficiencyFactor() > 1.0 {
		score += 2 * m.EfficiencyFactor()
	}
	machineRequiresOperator := m.AutomationLevel() == entity.AutomationAttended
	if machineRequiresOperator == taskIsAttended {
		score += 5
	}
	if params.LoadBalancing {
		util := params.Utilization[m.ID()]
		score += 3 * (1 - util)
	}
	return score
}

// RankMachineCandidates filters the task's routing options to those
// whose machine is capable and not under maintenance at start, scores
// each, and returns them sorted by score descending.
func RankMachineCandidates(task *entity.Task, machines map[entity.MachineID]*entity.Machine, start time.Time, params MachineScoreParams) []MachineCandidate {
	taskIsAttended := len(task.RoleRequirements()) > 0
	var candidates []MachineCandidate
	for _, opt := range task.MachineOptions() {
		m, ok := machines[opt.MachineID]
		if !ok || !m.CanPerform(task.Department()) || m.IsUnderMaintenance(start) {
			continue
		}
		candidates = append(candidates, MachineCandidate{
			Machine: m, Option: opt, Score: ScoreMachine(m, opt, taskIsAttended, params),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	return candidates
}

// OperatorScoreParams tunes operator candidate scoring.
type OperatorScoreParams struct {
	PreferLowestCost bool
	MaxCostPerMinute float64
	// ConcurrentAssignments maps an operator id to how many tasks it is
	// currently assigned to, for the load-balancing bonus.
	ConcurrentAssignments map[entity.OperatorID]int
}

const loadBalancingBonus = 2.0

// ScoreOperator scores an operator's fit for a role requirement. It
// returns ok=false if the operator doesn't hold the required skill at
// the required level as of at.
func ScoreOperator(op *entity.Operator, role valueobject.RoleRequirement, at time.Time, params OperatorScoreParams) (score float64, ok bool) {
	if !op.HasSkill(role.SkillType, role.MinimumLevel, at) {
		return 0, false
	}
	var level valueobject.SkillLevel
	for _, rec := range op.Skills() {
		if rec.SkillType == role.SkillType && rec.ActiveAt(at) {
			level = rec.Level
			break
		}
	}
	score = 3*float64(level) + 2*float64(level-role.MinimumLevel)

	if params.PreferLowestCost && params.MaxCostPerMinute > 0 {
		score += 5 * ((params.MaxCostPerMinute - op.CostPerMinute()) / params.MaxCostPerMinute)
	}
	score += float64(op.HighestSkillLevel(at))

	if params.ConcurrentAssignments[op.ID()] <= 1 {
		score += loadBalancingBonus
	}
	return score, true
}

// OperatorCandidate is a scored operator for a particular role.
type OperatorCandidate struct {
	Operator *entity.Operator
	Score    float64
}

// RankOperatorCandidates filters ops to those in the role's department
// who are available on the given date and meet the skill requirement,
// scores them, and returns them sorted by score descending.
func RankOperatorCandidates(ops []*entity.Operator, role valueobject.RoleRequirement, department string, at time.Time, excluded map[entity.OperatorID]bool, params OperatorScoreParams) []OperatorCandidate {
	var candidates []OperatorCandidate
	for _, op := range ops {
		if excluded[op.ID()] {
			continue
		}
		if department != "" && op.Department() != department {
			continue
		}
		if !op.IsAvailableOn(at) {
			continue
		}
		score, ok := ScoreOperator(op, role, at, params)
		if !ok {
			continue
		}
		candidates = append(candidates, OperatorCandidate{Operator: op, Score: score})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	return candidates
}

// SelectOperatorsForRole picks the top role.Count candidates for a
// single role requirement.
func SelectOperatorsForRole(ops []*entity.Operator, role valueobject.RoleRequirement, department string, at time.Time, excluded map[entity.OperatorID]bool, params OperatorScoreParams) []*entity.Operator {
	candidates := RankOperatorCandidates(ops, role, department, at, excluded, params)
	n := role.Count
	if n > len(candidates) {
		n = len(candidates)
	}
	selected := make([]*entity.Operator, n)
	for i := 0; i < n; i++ {
		selected[i] = candidates[i].Operator
	}
	return selected
}

// AllocateTask selects the best machine option and, for every role
// requirement, the best operators, for one task at the given start
// time. It returns false if no viable machine candidate exists or any
// role cannot be filled.
func AllocateTask(task *entity.Task, machines map[entity.MachineID]*entity.Machine, ops []*entity.Operator, start time.Time, machineParams MachineScoreParams, opParams OperatorScoreParams) (MachineCandidate, map[valueobject.SkillType][]*entity.Operator, bool) {
	machineCandidates := RankMachineCandidates(task, machines, start, machineParams)
	if len(machineCandidates) == 0 {
		return MachineCandidate{}, nil, false
	}
	chosen := machineCandidates[0]

	assignments := make(map[valueobject.SkillType][]*entity.Operator)
	excluded := make(map[entity.OperatorID]bool)
	for _, role := range task.RoleRequirements() {
		selected := SelectOperatorsForRole(ops, role, task.Department(), start, excluded, opParams)
		if len(selected) < role.Count {
			return MachineCandidate{}, nil, false
		}
		for _, op := range selected {
			excluded[op.ID()] = true
		}
		assignments[role.SkillType] = selected
	}
	return chosen, assignments, true
}

// ValidateResourceAvailability reports, for a machine and a set of
// operators, whether each is free across the given window: the machine
// must not be under maintenance, and every operator must be available
// on the window's date and not in the excluded set.
func ValidateResourceAvailability(machine *entity.Machine, ops []*entity.Operator, window valueobject.TimeWindow, excludedMachines, excludedOperators map[entity.MachineID]bool) map[string]bool {
	result := make(map[string]bool, 1+len(ops))
	machineOK := !excludedMachines[machine.ID()] && !machine.IsUnderMaintenance(window.Start) && !machine.IsUnderMaintenance(window.End)
	result["machine:"+machine.ID().String()] = machineOK
	for _, op := range ops {
		ok := !excludedOperators[op.ID()] && op.IsAvailableOn(window.Start)
		result["operator:"+op.ID().String()] = ok
	}
	return result
}
