package valueobject

import (
	"fmt"
	"time"
)

// TimeWindow is a half-open wall-clock interval [Start, End).
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// NewTimeWindow builds a TimeWindow, rejecting an end before the start.
func NewTimeWindow(start, end time.Time) (TimeWindow, error) {
	if end.Before(start) {
		return TimeWindow{}, fmt.Errorf("valueobject: time window end %s before start %s", end, start)
	}
	return TimeWindow{Start: start, End: end}, nil
}

// Duration returns the window's span.
func (w TimeWindow) Duration() Duration {
	return MustDuration(w.End.Sub(w.Start).Minutes())
}

// Overlaps reports whether two half-open windows share any instant.
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

// Contains reports whether t falls within [Start, End).
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// IsAdjacentTo reports whether the two windows touch with no gap and no
// overlap, in either order.
func (w TimeWindow) IsAdjacentTo(other TimeWindow) bool {
	return w.End.Equal(other.Start) || other.End.Equal(w.Start)
}
