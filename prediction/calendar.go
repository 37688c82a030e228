package prediction

import "time"

// The academic calendar is year-independent: every (month, day) range is
// re-checked against the same table each year. Finals ranges overlap the
// tail of their quarter and are checked first.

type monthDay struct {
	Month time.Month
	Day   int
}

// dateRange is a closed interval over (month, day) pairs; both endpoints
// are included.
type dateRange struct {
	Start monthDay
	End   monthDay
}

func (r dateRange) contains(m time.Month, d int) bool {
	if r.Start.Month <= r.End.Month {
		if m < r.Start.Month || m > r.End.Month {
			return false
		}
		if m == r.Start.Month && d < r.Start.Day {
			return false
		}
		if m == r.End.Month && d > r.End.Day {
			return false
		}
		return true
	}

	// Range wraps the calendar-year boundary (e.g. December into January).
	if m >= r.Start.Month || m <= r.End.Month {
		if m == r.Start.Month && d < r.Start.Day {
			return false
		}
		if m == r.End.Month && d > r.End.Day {
			return false
		}
		return true
	}
	return false
}

// AcademicCalendar holds the quarter and finals-week date ranges used by
// the calendar factor. Immutable after construction.
type AcademicCalendar struct {
	quarters []dateRange
	finals   []dateRange
}

// DefaultAcademicCalendar approximates the UC Davis 2024-2025 academic year.
var DefaultAcademicCalendar = AcademicCalendar{
	quarters: []dateRange{
		{Start: monthDay{time.September, 25}, End: monthDay{time.December, 13}}, // fall
		{Start: monthDay{time.January, 6}, End: monthDay{time.March, 21}},       // winter
		{Start: monthDay{time.March, 31}, End: monthDay{time.June, 13}},         // spring
	},
	finals: []dateRange{
		{Start: monthDay{time.December, 7}, End: monthDay{time.December, 13}},
		{Start: monthDay{time.March, 15}, End: monthDay{time.March, 21}},
		{Start: monthDay{time.June, 7}, End: monthDay{time.June, 13}},
	},
}

// Factor scores the date against the calendar: finals weeks are peak
// enforcement (0.95), active quarters elevated (0.75), breaks and summer
// reduced (0.35). First matching range wins.
func (c AcademicCalendar) Factor(t time.Time) float64 {
	u := t.UTC()
	m, d := u.Month(), u.Day()

	for _, r := range c.finals {
		if r.contains(m, d) {
			return 0.95
		}
	}
	for _, r := range c.quarters {
		if r.contains(m, d) {
			return 0.75
		}
	}
	return 0.35
}
