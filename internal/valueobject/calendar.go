package valueobject

import "time"

// DayHours is a single weekday's working window, expressed as
// minute-of-day offsets so it compares cheaply against a clock time.
type DayHours struct {
	StartMinute int // minutes since midnight
	EndMinute   int
}

func newDayHours(startHour, startMin, endHour, endMin int) DayHours {
	return DayHours{StartMinute: startHour*60 + startMin, EndMinute: endHour*60 + endMin}
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// within reports whether a minute-of-day offset falls in [start, end].
func (h DayHours) within(minuteOfDay int) bool {
	return minuteOfDay >= h.StartMinute && minuteOfDay <= h.EndMinute
}

func (h DayHours) durationMinutes() int {
	if h.EndMinute <= h.StartMinute {
		return 0
	}
	return h.EndMinute - h.StartMinute
}

// BusinessCalendar describes the working hours, holidays, and lunch
// break that gate attended-task scheduling. Weekdays are keyed 0=Sunday
// through 6=Saturday, matching time.Weekday.
type BusinessCalendar struct {
	WeekdayHours map[time.Weekday]DayHours
	Holidays     map[string]struct{} // "YYYY-MM-DD" keys
	Lunch        *DayHours
}

func dateKey(t time.Time) string { return t.Format("2006-01-02") }

// DefaultBusinessCalendar returns the Mon-Fri 07:00-16:00 calendar with a
// 12:00-12:45 lunch break and no holidays, matching the spec's default.
func DefaultBusinessCalendar() BusinessCalendar {
	hours := newDayHours(7, 0, 16, 0)
	lunch := newDayHours(12, 0, 12, 45)
	return BusinessCalendar{
		WeekdayHours: map[time.Weekday]DayHours{
			time.Monday:    hours,
			time.Tuesday:   hours,
			time.Wednesday: hours,
			time.Thursday:  hours,
			time.Friday:    hours,
		},
		Holidays: map[string]struct{}{},
		Lunch:    &lunch,
	}
}

// AroundTheClockCalendar returns a 24/7 calendar with no lunch break and
// no holidays, used for unattended-machine-only scheduling.
func AroundTheClockCalendar() BusinessCalendar {
	hours := DayHours{StartMinute: 0, EndMinute: 24*60 - 1}
	wh := make(map[time.Weekday]DayHours, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		wh[d] = hours
	}
	return BusinessCalendar{WeekdayHours: wh, Holidays: map[string]struct{}{}}
}

// AddHoliday returns a copy of the calendar with an additional holiday.
func (c BusinessCalendar) AddHoliday(day time.Time) BusinessCalendar {
	holidays := make(map[string]struct{}, len(c.Holidays)+1)
	for k := range c.Holidays {
		holidays[k] = struct{}{}
	}
	holidays[dateKey(day)] = struct{}{}
	c.Holidays = holidays
	return c
}

// IsHoliday reports whether the date (ignoring time-of-day) is a holiday.
func (c BusinessCalendar) IsHoliday(t time.Time) bool {
	_, ok := c.Holidays[dateKey(t)]
	return ok
}

// IsWorkingTime reports whether t falls inside a working day, inside
// that day's hours, and outside the lunch break, and is not a holiday.
func (c BusinessCalendar) IsWorkingTime(t time.Time) bool {
	if c.IsHoliday(t) {
		return false
	}
	hours, ok := c.WeekdayHours[t.Weekday()]
	if !ok {
		return false
	}
	m := minuteOfDay(t)
	if !hours.within(m) {
		return false
	}
	if c.Lunch != nil && c.Lunch.within(m) {
		return false
	}
	return true
}

// NextWorkingTime advances from t to the next instant that satisfies
// IsWorkingTime, probing forward in 15-minute increments for up to two
// weeks before falling back to a day-start search, matching the
// original implementation's bound.
func (c BusinessCalendar) NextWorkingTime(t time.Time) time.Time {
	const probe = 15 * time.Minute
	const maxProbes = 14 * 24 * 60 / 15 // two weeks of 15-minute probes

	current := t
	for i := 0; i < maxProbes; i++ {
		if c.IsWorkingTime(current) {
			return current
		}
		current = current.Add(probe)
	}

	// Fallback: walk day-by-day from t's midnight, return the start of
	// the first working day found within two weeks.
	dayCursor := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	for i := 0; i < 14; i++ {
		dayCursor = dayCursor.AddDate(0, 0, 1)
		hours, ok := c.WeekdayHours[dayCursor.Weekday()]
		if !ok || c.IsHoliday(dayCursor) {
			continue
		}
		return time.Date(dayCursor.Year(), dayCursor.Month(), dayCursor.Day(),
			hours.StartMinute/60, hours.StartMinute%60, 0, 0, dayCursor.Location())
	}
	return current
}

// WorkingMinutesInDay returns the number of working minutes on the given
// date, net of the lunch break.
func (c BusinessCalendar) WorkingMinutesInDay(day time.Time) int {
	if c.IsHoliday(day) {
		return 0
	}
	hours, ok := c.WeekdayHours[day.Weekday()]
	if !ok {
		return 0
	}
	total := hours.durationMinutes()
	if c.Lunch != nil {
		total -= c.Lunch.durationMinutes()
	}
	if total < 0 {
		total = 0
	}
	return total
}
