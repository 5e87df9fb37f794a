package valueobject

import "github.com/google/uuid"

// SkillType names a proficiency area (e.g. "CNC_MILLING", "WELDING").
type SkillType string

// SkillLevel is a proficiency rating. Valid values are 1 (basic) through
// 3 (expert).
type SkillLevel int

const (
	SkillLevelBasic      SkillLevel = 1
	SkillLevelJourneyman SkillLevel = 2
	SkillLevelExpert     SkillLevel = 3
)

// Valid reports whether the level is one of the three defined grades.
func (l SkillLevel) Valid() bool {
	return l >= SkillLevelBasic && l <= SkillLevelExpert
}

// Attendance describes whether an operator must be present for the full
// duration of a task or only during setup.
type Attendance string

const (
	AttendanceSetupOnly    Attendance = "SETUP_ONLY"
	AttendanceFullDuration Attendance = "FULL_DURATION"
)

// RoleRequirement is a skilled-operator slot on a task.
type RoleRequirement struct {
	SkillType    SkillType
	MinimumLevel SkillLevel
	Count        int
	Attendance   Attendance
}

// MachineOption is one valid (machine, setup, processing) routing choice
// for a task.
type MachineOption struct {
	MachineID                 uuid.UUID
	SetupDuration             Duration
	ProcessingDuration        Duration
	RequiresOperatorFullDur   bool
}

// TotalDuration is setup plus processing time, before any machine
// efficiency scaling.
func (o MachineOption) TotalDuration() Duration {
	return o.SetupDuration.Add(o.ProcessingDuration)
}

// OperatorRequiredDuration returns how long an operator must be present
// for this option given a role's attendance mode. The union-wins rule
// applies: if either the option demands full-duration presence or the
// role's attendance is FULL_DURATION, the operator is needed for the
// full (setup+processing) span; otherwise only for setup.
func (o MachineOption) OperatorRequiredDuration(attendance Attendance) Duration {
	if o.RequiresOperatorFullDur || attendance == AttendanceFullDuration {
		return o.TotalDuration()
	}
	return o.SetupDuration
}
