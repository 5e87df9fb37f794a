package valueobject

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func mustParse(t *testing.T, layout, value string) time.Time {
	t.Helper()
	tm, err := time.Parse(layout, value)
	assert.NoError(t, err)
	return tm
}

func TestDefaultCalendarWorkingHours(t *testing.T) {
	cal := DefaultBusinessCalendar()

	// Monday 2024-01-01 09:00 is a working instant.
	assert.True(t, cal.IsWorkingTime(mustParse(t, "2006-01-02 15:04", "2024-01-01 09:00")))
	// Before opening.
	assert.False(t, cal.IsWorkingTime(mustParse(t, "2006-01-02 15:04", "2024-01-01 06:00")))
	// Inside lunch.
	assert.False(t, cal.IsWorkingTime(mustParse(t, "2006-01-02 15:04", "2024-01-01 12:15")))
	// Saturday.
	assert.False(t, cal.IsWorkingTime(mustParse(t, "2006-01-02 15:04", "2024-01-06 09:00")))
}

func TestCalendarHoliday(t *testing.T) {
	cal := DefaultBusinessCalendar()
	holiday := mustParse(t, "2006-01-02 15:04", "2024-01-01 09:00")
	cal = cal.AddHoliday(holiday)
	assert.False(t, cal.IsWorkingTime(holiday))
}

func TestNextWorkingTimeIdempotent(t *testing.T) {
	cal := DefaultBusinessCalendar()
	t0 := mustParse(t, "2006-01-02 15:04", "2024-01-06 09:00") // Saturday
	next := cal.NextWorkingTime(t0)
	assert.True(t, cal.IsWorkingTime(next))

	againNext := cal.NextWorkingTime(next)
	assert.Equal(t, next, againNext)
}

func TestNextWorkingTimeDuringLunch(t *testing.T) {
	cal := DefaultBusinessCalendar()
	t0 := mustParse(t, "2006-01-02 15:04", "2024-01-01 12:10")
	next := cal.NextWorkingTime(t0)
	assert.True(t, cal.IsWorkingTime(next))
	assert.True(t, next.After(t0) || next.Equal(t0))
}

func TestWorkingMinutesInDay(t *testing.T) {
	cal := DefaultBusinessCalendar()
	monday := mustParse(t, "2006-01-02", "2024-01-01")
	// 07:00-16:00 = 540m, minus 45m lunch = 495m.
	assert.Equal(t, 495, cal.WorkingMinutesInDay(monday))

	saturday := mustParse(t, "2006-01-02", "2024-01-06")
	assert.Equal(t, 0, cal.WorkingMinutesInDay(saturday))
}

func TestAroundTheClockCalendar(t *testing.T) {
	cal := AroundTheClockCalendar()
	assert.True(t, cal.IsWorkingTime(mustParse(t, "2006-01-02 15:04", "2024-01-06 03:00")))
}
