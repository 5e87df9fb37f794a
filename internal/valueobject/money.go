package valueobject

import (
	"errors"
	"fmt"
)

// ErrNegativeMoney is returned by arithmetic that would produce a
// negative monetary value.
var ErrNegativeMoney = errors.New("valueobject: money cannot be negative")

// Money stores a non-negative monetary amount in integer minor units
// (cents) to avoid floating-point drift when summing operator costs
// across a schedule.
type Money struct {
	cents int64
}

// ZeroMoney is the zero monetary amount.
var ZeroMoney = Money{}

// NewMoney builds Money from a decimal amount in major units (dollars).
func NewMoney(amount float64) (Money, error) {
	cents := int64(amount*100 + 0.5)
	if cents < 0 {
		return Money{}, fmt.Errorf("%w: %v", ErrNegativeMoney, amount)
	}
	return Money{cents: cents}, nil
}

// MoneyFromCents builds Money from an integer minor-unit amount.
func MoneyFromCents(cents int64) (Money, error) {
	if cents < 0 {
		return Money{}, fmt.Errorf("%w: %d cents", ErrNegativeMoney, cents)
	}
	return Money{cents: cents}, nil
}

// Cents returns the amount in minor units.
func (m Money) Cents() int64 { return m.cents }

// Amount returns the amount in major units.
func (m Money) Amount() float64 { return float64(m.cents) / 100 }

// Add returns m+other.
func (m Money) Add(other Money) Money {
	return Money{cents: m.cents + other.cents}
}

// MulDuration multiplies a per-minute cost by a duration, rounding to
// the nearest cent.
func (m Money) MulDuration(perMinute Money, minutes float64) Money {
	return Money{cents: int64(float64(perMinute.cents)*minutes + 0.5)}
}

func (m Money) String() string {
	return fmt.Sprintf("$%.2f", m.Amount())
}
