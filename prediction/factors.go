package prediction

import (
	"math"
	"time"
)

// Each factor maps a signal onto [0, 1]. The weighted combination of the
// five factors is the TAPS presence probability; changing any curve or
// weight changes prediction semantics and is a model-version change.

// Weights for combining the factors. They sum to 1.0 and are fixed for the
// lifetime of the process.
type Weights struct {
	TimeOfDay        float64
	DayOfWeek        float64
	Historical       float64
	RecentSightings  float64
	AcademicCalendar float64
}

var DefaultWeights = Weights{
	TimeOfDay:        0.25,
	DayOfWeek:        0.20,
	Historical:       0.20,
	RecentSightings:  0.20,
	AcademicCalendar: 0.15,
}

// TimeOfDayFactor scores the hour of day in UTC. Enforcement runs business
// hours: quiet overnight, a morning ramp, a flat peak with a lunch dip, and
// an evening wind-down. Minutes and seconds are ignored.
func TimeOfDayFactor(t time.Time) float64 {
	hour := t.UTC().Hour()

	if hour < 6 || hour >= 22 {
		return 0.05
	}

	// Morning ramp-up (6-8)
	if hour < 8 {
		return 0.2 + float64(hour-6)*0.15
	}

	// Peak enforcement (8-17), with a lunch dip
	if hour < 17 {
		if hour == 12 {
			return 0.7
		}
		return 0.85
	}

	// Evening wind-down (17-22)
	return 0.6 - float64(hour-17)*0.11
}

var dayOfWeekFactors = map[time.Weekday]float64{
	time.Monday:    0.85,
	time.Tuesday:   0.90,
	time.Wednesday: 0.85,
	time.Thursday:  0.80,
	time.Friday:    0.70,
	time.Saturday:  0.15,
	time.Sunday:    0.10,
}

// DayOfWeekFactor scores the weekday. Enforcement is a Monday-Friday
// operation with Tuesday the busiest; weekends are near zero.
func DayOfWeekFactor(t time.Time) float64 {
	if f, ok := dayOfWeekFactors[t.UTC().Weekday()]; ok {
		return f
	}
	return 0.5
}

// HistoricalFactor scores the count of same-weekday sightings over the
// trailing 90 days. Zero history yields the 0.3 baseline; the curve
// saturates at 0.95 from ten sightings up.
func HistoricalFactor(count int64) float64 {
	if count == 0 {
		return 0.3
	}
	return math.Min(0.3+float64(count)*0.065, 0.95)
}

// RecentSightingsFactor scores recent activity in two tiers. Any sighting in
// the last two hours means enforcement is assumed still on site (0.95); the
// two-hour tier must be checked before the day tier. Otherwise the trailing
// 24-hour count drives the score, capped at 0.85.
func RecentSightingsFactor(twoHourCount, dayCount int64) float64 {
	if twoHourCount > 0 {
		return 0.95
	}
	if dayCount == 0 {
		return 0.4
	}
	return math.Min(0.5+float64(dayCount)*0.1, 0.85)
}

// Confidence estimates how much data backs a prediction, independent of the
// probability itself. historicalCount is the unfiltered trailing-90-day
// sighting count, recentCount the trailing-24-hour count. Bounded to
// [0.4, 0.95].
func Confidence(historicalCount, recentCount int64) float64 {
	base := 0.4
	historicalContrib := math.Min(float64(historicalCount)*0.02, 0.3)
	recentContrib := math.Min(float64(recentCount)*0.05, 0.2)
	return math.Min(base+historicalContrib+recentContrib, 0.95)
}
