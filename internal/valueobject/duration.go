// Package valueobject holds the immutable primitives of the scheduling
// domain: durations, time windows, calendars, skills, routing options,
// and money. None of these carry an identity; equality is structural.
package valueobject

import (
	"errors"
	"fmt"
	"math"
)

// ErrNegativeDuration is returned by any arithmetic that would produce a
// negative Duration.
var ErrNegativeDuration = errors.New("valueobject: duration cannot be negative")

// durationEpsilon is the equality tolerance, in minutes, matching the
// 1e-9 minute tolerance specified for Duration comparisons.
const durationEpsilon = 1e-9

// Duration is a non-negative span of time stored as minutes with
// sub-minute precision. It is immutable: every operation returns a new
// value.
type Duration struct {
	minutes float64
}

// Zero is the zero duration.
var Zero = Duration{}

// NewDuration builds a Duration from a minute count, rejecting negative
// values.
func NewDuration(minutes float64) (Duration, error) {
	if minutes < -durationEpsilon {
		return Duration{}, fmt.Errorf("%w: %v minutes", ErrNegativeDuration, minutes)
	}
	if minutes < 0 {
		minutes = 0
	}
	return Duration{minutes: minutes}, nil
}

// MustDuration panics on a negative duration; for use with compile-time
// constants only.
func MustDuration(minutes float64) Duration {
	d, err := NewDuration(minutes)
	if err != nil {
		panic(err)
	}
	return d
}

// FromMinutes builds a Duration from an integer minute count.
func FromMinutes(minutes int) (Duration, error) {
	return NewDuration(float64(minutes))
}

// FromHours builds a Duration from an hour count.
func FromHours(hours float64) (Duration, error) {
	return NewDuration(hours * 60)
}

// FromDays builds a Duration from a day count.
func FromDays(days float64) (Duration, error) {
	return NewDuration(days * 24 * 60)
}

// Minutes returns the duration in minutes.
func (d Duration) Minutes() float64 { return d.minutes }

// Hours returns the duration in hours.
func (d Duration) Hours() float64 { return d.minutes / 60 }

// Days returns the duration in days.
func (d Duration) Days() float64 { return d.minutes / (24 * 60) }

// Add returns d+other.
func (d Duration) Add(other Duration) Duration {
	return Duration{minutes: d.minutes + other.minutes}
}

// Sub returns d-other; negative results are rejected, matching the rule
// that Duration arithmetic never produces a negative value.
func (d Duration) Sub(other Duration) (Duration, error) {
	return NewDuration(d.minutes - other.minutes)
}

// MulFloat scales the duration by a non-negative factor.
func (d Duration) MulFloat(factor float64) (Duration, error) {
	return NewDuration(d.minutes * factor)
}

// DivFloat divides the duration by a positive factor.
func (d Duration) DivFloat(factor float64) (Duration, error) {
	if factor == 0 {
		return Duration{}, errors.New("valueobject: division by zero duration factor")
	}
	return NewDuration(d.minutes / factor)
}

// Cmp returns -1, 0, or 1 as d is less than, equal to, or greater than
// other, using the 1e-9 minute equality tolerance.
func (d Duration) Cmp(other Duration) int {
	diff := d.minutes - other.minutes
	if math.Abs(diff) < durationEpsilon {
		return 0
	}
	if diff < 0 {
		return -1
	}
	return 1
}

// Equal reports structural equality within the tolerance.
func (d Duration) Equal(other Duration) bool { return d.Cmp(other) == 0 }

// LessThan reports d < other.
func (d Duration) LessThan(other Duration) bool { return d.Cmp(other) < 0 }

// GreaterThan reports d > other.
func (d Duration) GreaterThan(other Duration) bool { return d.Cmp(other) > 0 }

// IsZero reports whether the duration is (within tolerance) zero.
func (d Duration) IsZero() bool { return math.Abs(d.minutes) < durationEpsilon }

// RoundToMinutes converts the duration to an integer minute count for
// the solver, rounding half-to-even (banker's rounding) as specified.
func (d Duration) RoundToMinutes() int {
	return int(math.RoundToEven(d.minutes))
}

// Max returns the larger of two durations.
func Max(a, b Duration) Duration {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Min returns the smaller of two durations.
func Min(a, b Duration) Duration {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Sum adds a slice of durations.
func Sum(ds ...Duration) Duration {
	total := Zero
	for _, d := range ds {
		total = total.Add(d)
	}
	return total
}

// String formats the duration using the coarsest unit that keeps one
// decimal of precision, e.g. "90.0m", "1.5h", "2.0d".
func (d Duration) String() string {
	switch {
	case d.minutes < 60:
		return fmt.Sprintf("%.1fm", d.minutes)
	case d.minutes < 24*60:
		return fmt.Sprintf("%.1fh", d.Hours())
	default:
		return fmt.Sprintf("%.1fd", d.Days())
	}
}
