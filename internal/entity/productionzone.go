package entity

import "time"

// ProductionZone is a contiguous range of task sequence numbers subject
// to a work-in-progress limit: no more than WipLimit jobs may occupy
// the zone at once, where a job occupies the zone for the span from
// its first in-range task's start to its last in-range task's end,
// regardless of which machine either task runs on.
type ProductionZone struct {
	id         ZoneID
	zoneCode   string
	name       string
	startSeq   int
	endSeq     int
	wipLimit   int
	jobsInZone map[JobID]struct{}

	createdAt time.Time
	updatedAt time.Time
}

// NewProductionZone constructs a zone covering [startSeq, endSeq] with
// the given WIP limit.
func NewProductionZone(zoneCode, name string, startSeq, endSeq, wipLimit int) (*ProductionZone, error) {
	if startSeq < 0 || endSeq < startSeq {
		return nil, ErrInvalidSequenceRange
	}
	if wipLimit < 1 {
		return nil, ErrInvalidQuantity
	}
	now := Now()
	return &ProductionZone{
		id:         NewID(),
		zoneCode:   zoneCode,
		name:       name,
		startSeq:   startSeq,
		endSeq:     endSeq,
		wipLimit:   wipLimit,
		jobsInZone: make(map[JobID]struct{}),
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// DefaultProductionZones seeds the three standard WIP zones: initial
// processing, the bottleneck zone, and final processing.
func DefaultProductionZones() []*ProductionZone {
	z1, _ := NewProductionZone("ZONE-INITIAL", "Initial Processing", 0, 30, 3)
	z2, _ := NewProductionZone("ZONE-BOTTLENECK", "Bottleneck Zone", 31, 60, 2)
	z3, _ := NewProductionZone("ZONE-FINAL", "Final Processing", 61, 99, 3)
	return []*ProductionZone{z1, z2, z3}
}

func (z *ProductionZone) ID() ZoneID       { return z.id }
func (z *ProductionZone) ZoneCode() string { return z.zoneCode }
func (z *ProductionZone) Name() string     { return z.name }
func (z *ProductionZone) StartSeq() int    { return z.startSeq }
func (z *ProductionZone) EndSeq() int      { return z.endSeq }
func (z *ProductionZone) WipLimit() int    { return z.wipLimit }
func (z *ProductionZone) CurrentWip() int  { return len(z.jobsInZone) }

// Contains reports whether a task's sequence number falls within this
// zone's range.
func (z *ProductionZone) Contains(sequence int) bool {
	return sequence >= z.startSeq && sequence <= z.endSeq
}

// CanAdmit reports whether another job can enter the zone without
// breaching its WIP limit.
func (z *ProductionZone) CanAdmit(jobID JobID) bool {
	if _, already := z.jobsInZone[jobID]; already {
		return true
	}
	return len(z.jobsInZone) < z.wipLimit
}

// Admit adds a job to the zone's active set, rejecting the admission if
// it would exceed the WIP limit.
func (z *ProductionZone) Admit(jobID JobID) error {
	if !z.CanAdmit(jobID) {
		return ErrWipLimitExceeded
	}
	z.jobsInZone[jobID] = struct{}{}
	z.updatedAt = Now()
	return nil
}

// Release removes a job from the zone's active set.
func (z *ProductionZone) Release(jobID JobID) {
	delete(z.jobsInZone, jobID)
	z.updatedAt = Now()
}
