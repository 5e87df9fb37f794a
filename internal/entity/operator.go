package entity

import (
	"time"

	"github.com/vulcanmes/scheduler/internal/valueobject"
)

// OperatorStatus is the real-time availability state of an Operator.
type OperatorStatus string

const (
	OperatorAvailable OperatorStatus = "AVAILABLE"
	OperatorAssigned  OperatorStatus = "ASSIGNED"
	OperatorOnBreak   OperatorStatus = "ON_BREAK"
	OperatorOffShift  OperatorStatus = "OFF_SHIFT"
	OperatorAbsent    OperatorStatus = "ABSENT"
)

// SkillRecord is one certified proficiency held by an operator.
type SkillRecord struct {
	SkillType       valueobject.SkillType
	Level           valueobject.SkillLevel
	CertifiedDate   time.Time
	ExpiryDate      *time.Time
}

// ActiveAt reports whether the skill is certified (not expired) at t.
func (s SkillRecord) ActiveAt(t time.Time) bool {
	if t.Before(s.CertifiedDate) {
		return false
	}
	if s.ExpiryDate != nil && !t.Before(*s.ExpiryDate) {
		return false
	}
	return true
}

// AvailabilityOverride marks an operator unavailable (or re-available)
// for a specific calendar date, overriding their default working hours.
type AvailabilityOverride struct {
	Date      time.Time
	Available bool
	Reason    string
}

// Operator is a skilled worker who can be assigned to tasks.
type Operator struct {
	id         OperatorID
	employeeID string
	firstName  string
	lastName   string
	department string
	status     OperatorStatus
	isActive   bool
	hireDate   time.Time

	defaultHours  valueobject.DayHours
	costPerMinute float64
	skills        map[valueobject.SkillType]SkillRecord
	overrides     map[string]AvailabilityOverride

	createdAt time.Time
	updatedAt time.Time
}

// NewOperator constructs an active Operator with no skills yet
// registered.
func NewOperator(employeeID, firstName, lastName, department string, hireDate time.Time, defaultHours valueobject.DayHours) (*Operator, error) {
	now := Now()
	return &Operator{
		id:           NewID(),
		employeeID:   employeeID,
		firstName:    firstName,
		lastName:     lastName,
		department:   department,
		status:       OperatorAvailable,
		isActive:     true,
		hireDate:     hireDate,
		defaultHours: defaultHours,
		skills:       make(map[valueobject.SkillType]SkillRecord),
		overrides:    make(map[string]AvailabilityOverride),
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

func (o *Operator) ID() OperatorID       { return o.id }
func (o *Operator) EmployeeID() string   { return o.employeeID }
func (o *Operator) FullName() string     { return o.firstName + " " + o.lastName }
func (o *Operator) Department() string   { return o.department }
func (o *Operator) Status() OperatorStatus { return o.status }
func (o *Operator) IsActive() bool       { return o.isActive }
func (o *Operator) HireDate() time.Time  { return o.hireDate }

// Skills returns the operator's registered skill records.
func (o *Operator) Skills() []SkillRecord {
	out := make([]SkillRecord, 0, len(o.skills))
	for _, s := range o.skills {
		out = append(out, s)
	}
	return out
}

// AddSkill registers or replaces a skill record, validating that any
// expiry date falls after the certification date.
func (o *Operator) AddSkill(rec SkillRecord) error {
	if rec.ExpiryDate != nil && !rec.ExpiryDate.After(rec.CertifiedDate) {
		return ErrSkillExpiryBeforeCert
	}
	if !rec.Level.Valid() {
		return ErrUnknownSkillLevel
	}
	o.skills[rec.SkillType] = rec
	o.updatedAt = Now()
	return nil
}

// HasSkill reports whether the operator holds an active certification
// at or above minLevel for skillType as of t.
func (o *Operator) HasSkill(skillType valueobject.SkillType, minLevel valueobject.SkillLevel, t time.Time) bool {
	rec, ok := o.skills[skillType]
	if !ok {
		return false
	}
	return rec.Level >= minLevel && rec.ActiveAt(t)
}

// SetAvailabilityOverride records an availability exception for a
// specific calendar date.
func (o *Operator) SetAvailabilityOverride(date time.Time, available bool, reason string) {
	key := date.Format("2006-01-02")
	o.overrides[key] = AvailabilityOverride{Date: date, Available: available, Reason: reason}
	o.updatedAt = Now()
}

// IsAvailableOn reports whether the operator is available on the given
// calendar date, honoring any override and falling back to IsActive.
func (o *Operator) IsAvailableOn(date time.Time) bool {
	if !o.isActive {
		return false
	}
	key := date.Format("2006-01-02")
	if ov, ok := o.overrides[key]; ok {
		return ov.Available
	}
	return o.status != OperatorAbsent && o.status != OperatorOffShift
}

// SetStatus transitions the operator's real-time availability status.
func (o *Operator) SetStatus(s OperatorStatus) {
	o.status = s
	o.updatedAt = Now()
}

// Deactivate marks the operator permanently inactive (e.g. termination).
func (o *Operator) Deactivate() {
	o.isActive = false
	o.status = OperatorOffShift
	o.updatedAt = Now()
}

// DefaultHours returns the operator's default daily working hours.
func (o *Operator) DefaultHours() valueobject.DayHours { return o.defaultHours }

// CostPerMinute returns the operator's labor cost rate, used by the
// allocation service's cost-preference scoring and the solver's
// operator_cost objective.
func (o *Operator) CostPerMinute() float64 { return o.costPerMinute }

// SetCostPerMinute sets the operator's labor cost rate.
func (o *Operator) SetCostPerMinute(rate float64) {
	o.costPerMinute = rate
	o.updatedAt = Now()
}

// HighestSkillLevel returns the highest level among all of the
// operator's currently active skills as of t, or 0 if none are active.
func (o *Operator) HighestSkillLevel(t time.Time) valueobject.SkillLevel {
	var highest valueobject.SkillLevel
	for _, rec := range o.skills {
		if rec.ActiveAt(t) && rec.Level > highest {
			highest = rec.Level
		}
	}
	return highest
}
