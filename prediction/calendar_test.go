package prediction

import (
	"testing"
	"time"
)

func onDate(month time.Month, day int) time.Time {
	return time.Date(2024, month, day, 12, 0, 0, 0, time.UTC)
}

func TestAcademicCalendarFactor(t *testing.T) {
	cases := []struct {
		name  string
		month time.Month
		day   int
		want  float64
	}{
		{"fall finals", time.December, 10, 0.95},
		{"fall quarter", time.October, 15, 0.75},
		{"summer", time.July, 15, 0.35},
		{"winter quarter", time.February, 1, 0.75},
		{"winter finals", time.March, 18, 0.95},
		{"spring quarter", time.April, 20, 0.75},
		{"spring finals", time.June, 10, 0.95},
		{"spring break gap", time.March, 25, 0.35},
		{"winter break", time.December, 20, 0.35},
		{"before winter quarter", time.January, 5, 0.35},
	}

	for _, tc := range cases {
		got := DefaultAcademicCalendar.Factor(onDate(tc.month, tc.day))
		if !almostEqual(got, tc.want) {
			t.Errorf("%s (%s %d): Factor = %v, want %v", tc.name, tc.month, tc.day, got, tc.want)
		}
	}
}

func TestAcademicCalendarBoundaryDatesIncluded(t *testing.T) {
	// Range endpoints are closed intervals on both sides.
	cases := []struct {
		name  string
		month time.Month
		day   int
		want  float64
	}{
		{"fall start", time.September, 25, 0.75},
		{"day before fall start", time.September, 24, 0.35},
		{"fall finals start", time.December, 7, 0.95},
		{"fall finals end (also fall end)", time.December, 13, 0.95},
		{"day after fall end", time.December, 14, 0.35},
		{"winter start", time.January, 6, 0.75},
		{"winter finals end", time.March, 21, 0.95},
		{"day after winter end", time.March, 22, 0.35},
		{"spring start", time.March, 31, 0.75},
		{"spring finals end", time.June, 13, 0.95},
		{"day after spring end", time.June, 14, 0.35},
	}

	for _, tc := range cases {
		got := DefaultAcademicCalendar.Factor(onDate(tc.month, tc.day))
		if !almostEqual(got, tc.want) {
			t.Errorf("%s (%s %d): Factor = %v, want %v", tc.name, tc.month, tc.day, got, tc.want)
		}
	}
}

func TestDateRangeYearBoundaryWrap(t *testing.T) {
	// No shipped range wraps the year, but the containment logic must still
	// classify wrapping ranges correctly.
	r := dateRange{Start: monthDay{time.December, 15}, End: monthDay{time.January, 5}}

	contained := []struct {
		month time.Month
		day   int
	}{
		{time.December, 15},
		{time.December, 20},
		{time.December, 31},
		{time.January, 1},
		{time.January, 5},
	}
	for _, c := range contained {
		if !r.contains(c.month, c.day) {
			t.Errorf("wrap range should contain %s %d", c.month, c.day)
		}
	}

	excluded := []struct {
		month time.Month
		day   int
	}{
		{time.December, 14},
		{time.January, 6},
		{time.February, 1},
		{time.July, 4},
	}
	for _, c := range excluded {
		if r.contains(c.month, c.day) {
			t.Errorf("wrap range should not contain %s %d", c.month, c.day)
		}
	}
}
