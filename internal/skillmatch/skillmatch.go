// Package skillmatch finds qualified operators for a machine or task and
// reports skill gaps, and identifies critical-sequence runs of tasks
// within a job.
package skillmatch

import (
	"sort"
	"time"

	"github.com/vulcanmes/scheduler/internal/entity"
	"github.com/vulcanmes/scheduler/internal/valueobject"
)

// FindQualifiedOperators filters ops to those holding a non-expired
// certification at or above the required level for every skill the
// machine demands, as of date.
func FindQualifiedOperators(machine *entity.Machine, requiredSkills []valueobject.SkillType, minLevel valueobject.SkillLevel, ops []*entity.Operator, date time.Time) []*entity.Operator {
	var qualified []*entity.Operator
	for _, op := range ops {
		meetsAll := true
		for _, skill := range requiredSkills {
			if !op.HasSkill(skill, minLevel, date) {
				meetsAll = false
				break
			}
		}
		if meetsAll {
			qualified = append(qualified, op)
		}
	}
	return qualified
}

// FindBestOperator ranks qualified operators by (is available, highest
// skill level among the required skills) descending and returns the
// top candidate. When none is available it returns the top-ranked
// unavailable operator; it returns nil only when qualified is empty.
func FindBestOperator(qualified []*entity.Operator, requiredSkills []valueobject.SkillType, at time.Time) *entity.Operator {
	candidates := append([]*entity.Operator(nil), qualified...)
	sort.SliceStable(candidates, func(i, j int) bool {
		availI, availJ := candidates[i].IsAvailableOn(at), candidates[j].IsAvailableOn(at)
		if availI != availJ {
			return availI
		}
		return maxLevelAmong(candidates[i], requiredSkills) > maxLevelAmong(candidates[j], requiredSkills)
	})
	for _, c := range candidates {
		if c.IsAvailableOn(at) {
			return c
		}
	}
	if len(candidates) > 0 {
		return candidates[0]
	}
	return nil
}

func maxLevelAmong(op *entity.Operator, skills []valueobject.SkillType) valueobject.SkillLevel {
	var max valueobject.SkillLevel
	for _, rec := range op.Skills() {
		for _, skill := range skills {
			if rec.SkillType == skill && rec.Level > max {
				max = rec.Level
			}
		}
	}
	return max
}

// SkillGap describes one unmet role requirement: the skill and minimum
// level demanded, and the operator's current level for that skill (nil
// if they hold no certification in it at all).
type SkillGap struct {
	SkillType    valueobject.SkillType
	RequiredLevel valueobject.SkillLevel
	CurrentLevel *valueobject.SkillLevel
}

// GetSkillGapAnalysis reports, for each of an operator's required
// roles, the gap between what they hold and what's required. A role
// the operator already satisfies is omitted.
func GetSkillGapAnalysis(op *entity.Operator, roles []valueobject.RoleRequirement, at time.Time) []SkillGap {
	var gaps []SkillGap
	for _, role := range roles {
		if op.HasSkill(role.SkillType, role.MinimumLevel, at) {
			continue
		}
		var current *valueobject.SkillLevel
		for _, rec := range op.Skills() {
			if rec.SkillType == role.SkillType && rec.ActiveAt(at) {
				lvl := rec.Level
				current = &lvl
				break
			}
		}
		gaps = append(gaps, SkillGap{SkillType: role.SkillType, RequiredLevel: role.MinimumLevel, CurrentLevel: current})
	}
	return gaps
}

// CriticalSequence is a contiguous run of critical-path tasks within a
// job's sequence ordering.
type CriticalSequence struct {
	JobID     entity.JobID
	StartSeq  int
	EndSeq    int
	TaskIDs   []entity.TaskID
}

// IdentifyCriticalSequences walks a job's tasks in sequence order and
// returns each maximal run of two or more consecutive is-critical-path
// tasks.
func IdentifyCriticalSequences(job *entity.Job) []CriticalSequence {
	tasks := job.Tasks()
	var sequences []CriticalSequence
	var run []*entity.Task

	flush := func() {
		if len(run) >= 2 {
			ids := make([]entity.TaskID, len(run))
			for i, t := range run {
				ids[i] = t.ID()
			}
			sequences = append(sequences, CriticalSequence{
				JobID: job.ID(), StartSeq: run[0].Sequence(), EndSeq: run[len(run)-1].Sequence(), TaskIDs: ids,
			})
		}
		run = nil
	}

	for _, t := range tasks {
		if t.IsCriticalPath() {
			run = append(run, t)
		} else {
			flush()
		}
	}
	flush()
	return sequences
}

// CalculateSequenceDuration sums, for each task in the sequence, the
// minimum TotalDuration across its routing options.
func CalculateSequenceDuration(job *entity.Job, seq CriticalSequence) valueobject.Duration {
	total := valueobject.Zero
	byID := make(map[entity.TaskID]*entity.Task)
	for _, t := range job.Tasks() {
		byID[t.ID()] = t
	}
	for _, id := range seq.TaskIDs {
		t, ok := byID[id]
		if !ok {
			continue
		}
		min, first := valueobject.Zero, true
		for _, opt := range t.MachineOptions() {
			d := opt.TotalDuration()
			if first || d.LessThan(min) {
				min = d
				first = false
			}
		}
		total = total.Add(min)
	}
	return total
}

// PrioritizeJobSequence orders jobs by (most critical tasks first,
// highest priority first, earliest due date first).
func PrioritizeJobSequence(jobs []*entity.Job) []*entity.Job {
	out := append([]*entity.Job(nil), jobs...)
	criticalCount := func(j *entity.Job) int {
		count := 0
		for _, t := range j.Tasks() {
			if t.IsCriticalPath() {
				count++
			}
		}
		return count
	}
	priorityRank := map[entity.Priority]int{
		entity.PriorityCritical: 3, entity.PriorityHigh: 2, entity.PriorityNormal: 1, entity.PriorityLow: 0,
	}
	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := criticalCount(out[i]), criticalCount(out[j])
		if ci != cj {
			return ci > cj
		}
		pi, pj := priorityRank[out[i].Priority()], priorityRank[out[j].Priority()]
		if pi != pj {
			return pi > pj
		}
		return out[i].DueDate().Before(out[j].DueDate())
	})
	return out
}
