package entity

import (
	"regexp"
	"time"

	"github.com/vulcanmes/scheduler/internal/valueobject"
)

var machineCodePattern = regexp.MustCompile(`^[A-Z0-9]{2,20}$`)

// AutomationLevel describes whether a machine needs an operator present
// for its full duration or only to set it up.
type AutomationLevel string

const (
	AutomationAttended   AutomationLevel = "ATTENDED"
	AutomationUnattended AutomationLevel = "UNATTENDED"
)

// MachineStatus is the operational state of a Machine.
type MachineStatus string

const (
	MachineAvailable  MachineStatus = "AVAILABLE"
	MachineBusy       MachineStatus = "BUSY"
	MachineMaintenance MachineStatus = "MAINTENANCE"
	MachineOffline    MachineStatus = "OFFLINE"
)

// MaintenanceWindow is a scheduled out-of-service period for a machine.
type MaintenanceWindow struct {
	Window valueobject.TimeWindow
	Reason string
}

// Capability names one operation a machine can perform, e.g. "CNC_MILL".
type Capability struct {
	Operation      string
	RequiredSkills []valueobject.SkillType
}

// Machine is a piece of production equipment belonging to a production
// zone, capable of performing one or more operations.
type Machine struct {
	id              MachineID
	code            string
	name            string
	zoneID          ZoneID
	automationLevel AutomationLevel
	status          MachineStatus
	efficiencyFactor float64
	isBottleneck    bool
	capabilities    []Capability
	maintenance     []MaintenanceWindow

	createdAt time.Time
	updatedAt time.Time
}

// NewMachine constructs a Machine, validating its code and efficiency
// factor.
func NewMachine(code, name string, zoneID ZoneID, automation AutomationLevel, efficiencyFactor float64) (*Machine, error) {
	if !machineCodePattern.MatchString(code) {
		return nil, ErrMachineCodeInvalid
	}
	if efficiencyFactor < 0.1 || efficiencyFactor > 2.0 {
		return nil, ErrEfficiencyOutOfRange
	}
	if automation != AutomationAttended && automation != AutomationUnattended {
		automation = AutomationAttended
	}
	now := Now()
	return &Machine{
		id:               NewID(),
		code:             code,
		name:             name,
		zoneID:           zoneID,
		automationLevel:  automation,
		status:           MachineAvailable,
		efficiencyFactor: efficiencyFactor,
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

func (m *Machine) ID() MachineID                    { return m.id }
func (m *Machine) Code() string                     { return m.code }
func (m *Machine) Name() string                     { return m.name }
func (m *Machine) ZoneID() ZoneID                    { return m.zoneID }
func (m *Machine) AutomationLevel() AutomationLevel { return m.automationLevel }
func (m *Machine) Status() MachineStatus            { return m.status }
func (m *Machine) EfficiencyFactor() float64        { return m.efficiencyFactor }
func (m *Machine) IsBottleneck() bool               { return m.isBottleneck }
func (m *Machine) SetBottleneck(v bool)             { m.isBottleneck = v }
func (m *Machine) Capabilities() []Capability {
	return append([]Capability(nil), m.capabilities...)
}
func (m *Machine) MaintenanceWindows() []MaintenanceWindow {
	return append([]MaintenanceWindow(nil), m.maintenance...)
}

// AddCapability registers a new operation the machine can perform,
// rejecting duplicates.
func (m *Machine) AddCapability(c Capability) error {
	for _, existing := range m.capabilities {
		if existing.Operation == c.Operation {
			return ErrDuplicateCapability
		}
	}
	m.capabilities = append(m.capabilities, c)
	m.updatedAt = Now()
	return nil
}

// CanPerform reports whether the machine has a registered capability
// for the named operation.
func (m *Machine) CanPerform(operation string) bool {
	for _, c := range m.capabilities {
		if c.Operation == operation {
			return true
		}
	}
	return false
}

// ScheduleMaintenance adds a maintenance window, rejecting overlap with
// any existing window.
func (m *Machine) ScheduleMaintenance(w valueobject.TimeWindow, reason string) error {
	for _, existing := range m.maintenance {
		if existing.Window.Overlaps(w) {
			return ErrOverlappingMaintenance
		}
	}
	m.maintenance = append(m.maintenance, MaintenanceWindow{Window: w, Reason: reason})
	m.updatedAt = Now()
	return nil
}

// IsUnderMaintenance reports whether t falls within any scheduled
// maintenance window.
func (m *Machine) IsUnderMaintenance(t time.Time) bool {
	for _, w := range m.maintenance {
		if w.Window.Contains(t) {
			return true
		}
	}
	return false
}

// SetStatus transitions the machine's operational status directly;
// machine status is a simple flag rather than an exhaustively-gated
// state machine since any authorized change (floor supervisor marking a
// machine down, maintenance ending) is valid from any state.
func (m *Machine) SetStatus(s MachineStatus) {
	m.status = s
	m.updatedAt = Now()
}

// EffectiveDuration scales a nominal duration by the machine's
// efficiency factor: a factor below 1.0 makes the machine slower than
// standard, above 1.0 faster.
func (m *Machine) EffectiveDuration(nominal valueobject.Duration) (valueobject.Duration, error) {
	return nominal.DivFloat(m.efficiencyFactor)
}
