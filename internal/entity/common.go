// Package entity holds the scheduling domain's aggregates: Job, Task,
// Machine, Operator, Schedule, and ProductionZone. Aggregates reference
// each other only by id (never by pointer) so that, per the
// re-architecture notes, no cyclic object graph can form between Job and
// Task; back-queries go through repositories or services.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Type aliases for aggregate identifiers. All aggregates use opaque,
// randomly generated 128-bit identifiers.
type (
	JobID         = uuid.UUID
	TaskID        = uuid.UUID
	MachineID     = uuid.UUID
	OperatorID    = uuid.UUID
	ScheduleID    = uuid.UUID
	ZoneID        = uuid.UUID
)

// NewID generates a fresh random aggregate identifier.
func NewID() uuid.UUID { return uuid.New() }

// Now returns the current UTC instant, truncated to minute resolution to
// match the domain's internal time granularity.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Minute)
}
