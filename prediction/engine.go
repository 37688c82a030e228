package prediction

import (
	"context"
	"errors"
	"math"
	"time"
)

// ErrLotNotFound is returned by Predict when the lot identifier does not
// resolve. No partial result is produced.
var ErrLotNotFound = errors.New("parking lot not found")

// Lot is the display metadata the engine needs about a parking lot.
type Lot struct {
	ID   uint
	Name string
	Code string
}

// LotFinder resolves a lot identifier to its metadata, or ErrLotNotFound.
type LotFinder interface {
	FindLot(ctx context.Context, lotID uint) (*Lot, error)
}

// SightingCounter counts sightings at a lot since a point in time.
// A nil until means "up to now"; a non-nil weekday restricts the count to
// sightings reported on that day of the week.
type SightingCounter interface {
	CountSightings(ctx context.Context, lotID uint, since time.Time, until *time.Time, weekday *time.Weekday) (int64, error)
}

// Store is the read-only collaborator the engine evaluates against.
type Store interface {
	LotFinder
	SightingCounter
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// RiskLevelFor buckets a probability. Boundaries are half-open: 0.3 and 0.6
// belong to the tier above.
func RiskLevelFor(probability float64) RiskLevel {
	switch {
	case probability < 0.3:
		return RiskLow
	case probability < 0.6:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// Factors carries the individual signal scores, rounded for output.
// Weather is reserved; no weather source is integrated, so it is always null.
type Factors struct {
	TimeOfDay        float64  `json:"time_of_day_factor"`
	DayOfWeek        float64  `json:"day_of_week_factor"`
	Historical       float64  `json:"historical_factor"`
	RecentSightings  float64  `json:"recent_sightings_factor"`
	AcademicCalendar float64  `json:"academic_calendar_factor"`
	Weather          *float64 `json:"weather_factor"`
}

// Result is the output of a single prediction. It is a pure value: built
// fresh on every call, never persisted, never mutated.
type Result struct {
	ParkingLotID   uint      `json:"parking_lot_id"`
	ParkingLotName string    `json:"parking_lot_name"`
	ParkingLotCode string    `json:"parking_lot_code"`
	Probability    float64   `json:"probability"`
	RiskLevel      RiskLevel `json:"risk_level"`
	PredictedFor   time.Time `json:"predicted_for"`
	Factors        Factors   `json:"factors"`
	Confidence     float64   `json:"confidence"`
}

// Engine combines the five factor signals into a probability. It holds no
// mutable state beyond the constant weights and calendar, so a single Engine
// is safe for concurrent use.
type Engine struct {
	store    Store
	weights  Weights
	calendar AcademicCalendar
}

func NewEngine(store Store) *Engine {
	return &Engine{
		store:    store,
		weights:  DefaultWeights,
		calendar: DefaultAcademicCalendar,
	}
}

// Predict evaluates the probability of enforcement presence at a lot.
// A zero timestamp means "now". Errors from the store propagate as-is;
// there is no fallback probability.
func (e *Engine) Predict(ctx context.Context, lotID uint, at time.Time) (*Result, error) {
	lot, err := e.store.FindLot(ctx, lotID)
	if err != nil {
		return nil, err
	}

	if at.IsZero() {
		at = time.Now().UTC()
	} else {
		at = at.UTC()
	}

	timeFactor := TimeOfDayFactor(at)
	dayFactor := DayOfWeekFactor(at)
	calendarFactor := e.calendar.Factor(at)

	// Same-weekday sightings over the trailing 90 days.
	weekday := at.Weekday()
	sameWeekdayCount, err := e.store.CountSightings(ctx, lotID, at.AddDate(0, 0, -90), nil, &weekday)
	if err != nil {
		return nil, err
	}
	historicalFactor := HistoricalFactor(sameWeekdayCount)

	// Two-hour tier first: if enforcement was just seen, the day tier is moot.
	twoHourCount, err := e.store.CountSightings(ctx, lotID, at.Add(-2*time.Hour), nil, nil)
	if err != nil {
		return nil, err
	}
	dayCount, err := e.store.CountSightings(ctx, lotID, at.Add(-24*time.Hour), nil, nil)
	if err != nil {
		return nil, err
	}
	recentFactor := RecentSightingsFactor(twoHourCount, dayCount)

	probability := timeFactor*e.weights.TimeOfDay +
		dayFactor*e.weights.DayOfWeek +
		historicalFactor*e.weights.Historical +
		recentFactor*e.weights.RecentSightings +
		calendarFactor*e.weights.AcademicCalendar

	// Weights sum to 1.0, so the clamp is a safety net only.
	probability = math.Max(0.0, math.Min(1.0, probability))

	// Confidence uses the unfiltered 90-day count, which is a different
	// number from the weekday-filtered count feeding the historical factor.
	historicalCount, err := e.store.CountSightings(ctx, lotID, at.AddDate(0, 0, -90), nil, nil)
	if err != nil {
		return nil, err
	}
	confidence := Confidence(historicalCount, dayCount)

	return &Result{
		ParkingLotID:   lot.ID,
		ParkingLotName: lot.Name,
		ParkingLotCode: lot.Code,
		Probability:    round3(probability),
		RiskLevel:      RiskLevelFor(probability),
		PredictedFor:   at,
		Factors: Factors{
			TimeOfDay:        round3(timeFactor),
			DayOfWeek:        round3(dayFactor),
			Historical:       round3(historicalFactor),
			RecentSightings:  round3(recentFactor),
			AcademicCalendar: round3(calendarFactor),
			Weather:          nil,
		},
		Confidence: round3(confidence),
	}, nil
}

// round3 is presentation-only: factors are combined at full precision and
// rounded on the way out.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
