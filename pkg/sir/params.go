package sir

import (
	"fmt"
	"math"
	"time"
)

// Gamma is the recovery rate: one removal per ten infected-days.
const Gamma = 1.0 / 10

// NumAnchors is the number of monthly control points (Jan 1 through Sep 1).
const NumAnchors = 9

// Accepted input domain.
const (
	MinInitialCases = 0
	MaxInitialCases = 1_000_000
	MinPopulation   = 10_000
	MaxPopulation   = 1_000_000_000
	MinR0           = 0.0
	MaxR0           = 5.0
	MinYear         = 1900
	MaxYear         = 2200

	// DefaultYear is the simulation year used when none is given.
	DefaultYear = 2020
)

// Parameters holds every input of one simulation run
type Parameters struct {
	Year         int
	StartDate    time.Time
	InitialCases int
	R0           float64
	Population   int
	// Multipliers[k] is the transmission multiplier on the 1st of month k+1.
	Multipliers [NumAnchors]float64
}

// DefaultParameters returns the baseline scenario: ten cases on 2020-01-21,
// R0 = 2.5, a population of 24 million and no mitigation.
func DefaultParameters() Parameters {
	p := Parameters{
		Year:         DefaultYear,
		StartDate:    Date(DefaultYear, time.January, 21),
		InitialCases: 10,
		R0:           2.5,
		Population:   24_000_000,
	}
	for i := range p.Multipliers {
		p.Multipliers[i] = 1.0
	}
	return p
}

// Date returns midnight UTC of the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, invalid("start_date", s, "expected YYYY-MM-DD")
	}
	return t, nil
}

// truncateDay drops the clock and zone, keeping the calendar day.
func truncateDay(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// daysBetween returns the whole calendar days from a to b.
func daysBetween(a, b time.Time) int {
	return int(truncateDay(b).Sub(truncateDay(a)).Hours() / 24)
}

// EarliestStart is Dec 31 of the year before the simulation year.
func (p Parameters) EarliestStart() time.Time {
	return Date(p.Year-1, time.December, 31)
}

// LatestStart is May 31 of the simulation year.
func (p Parameters) LatestStart() time.Time {
	return Date(p.Year, time.May, 31)
}

// EndDate is the last simulated day, Dec 31 of the simulation year.
func (p Parameters) EndDate() time.Time {
	return Date(p.Year, time.December, 31)
}

// Horizon returns the number of simulated days, start and end date inclusive.
func (p Parameters) Horizon() int {
	return daysBetween(p.StartDate, p.EndDate()) + 1
}

// Validate rejects parameters outside the accepted domain. Values are never clamped.
func (p Parameters) Validate() error {
	if p.Year < MinYear || p.Year > MaxYear {
		return invalid("year", p.Year, fmt.Sprintf("must be in [%d, %d]", MinYear, MaxYear))
	}
	if p.StartDate.IsZero() {
		return invalid("start_date", p.StartDate, "must be set")
	}
	start := truncateDay(p.StartDate)
	if start.Before(p.EarliestStart()) || start.After(p.LatestStart()) {
		return invalid("start_date", start.Format(time.DateOnly),
			fmt.Sprintf("must be in [%s, %s]", p.EarliestStart().Format(time.DateOnly), p.LatestStart().Format(time.DateOnly)))
	}
	if p.Population < MinPopulation || p.Population > MaxPopulation {
		return invalid("population", p.Population, fmt.Sprintf("must be in [%d, %d]", MinPopulation, MaxPopulation))
	}
	if p.InitialCases < MinInitialCases || p.InitialCases > MaxInitialCases {
		return invalid("initial_cases", p.InitialCases, fmt.Sprintf("must be in [%d, %d]", MinInitialCases, MaxInitialCases))
	}
	if p.InitialCases > p.Population {
		return invalid("initial_cases", p.InitialCases, "must not exceed population")
	}
	if math.IsNaN(p.R0) || p.R0 < MinR0 || p.R0 > MaxR0 {
		return invalid("r0", p.R0, fmt.Sprintf("must be in [%g, %g]", MinR0, MaxR0))
	}
	return validateMultipliers(p.Multipliers[:])
}

func validateMultipliers(m []float64) error {
	if len(m) != NumAnchors {
		return invalid("multipliers", len(m), fmt.Sprintf("exactly %d control points required", NumAnchors))
	}
	for i, v := range m {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return invalid(fmt.Sprintf("multipliers[%d]", i), v, "must be in [0, 1]")
		}
	}
	return nil
}
