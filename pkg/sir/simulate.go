package sir

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Result holds the date-indexed output of one run. All series share the
// same length and Dates[i] is the calendar day of index i.
type Result struct {
	Parameters  Parameters
	Dates       []time.Time
	Susceptible []float64
	Infected    []float64
	Removed     []float64
	// Reff is S/N * rate * R0.
	Reff []float64
	Rate []float64
}

// Simulate runs the model with the default solver options.
func Simulate(p Parameters) (*Result, error) {
	return SimulateWithOptions(p, DefaultSolverOptions())
}

// SimulateWithOptions validates p, integrates from the start date through
// Dec 31 of p.Year and derives the effective reproduction number.
func SimulateWithOptions(p Parameters, opts SolverOptions) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	integ, err := NewIntegrator(opts)
	if err != nil {
		return nil, err
	}

	start := truncateDay(p.StartDate)
	p.StartDate = start

	curve, err := NewRateCurve(p.Year, p.Multipliers)
	if err != nil {
		return nil, err
	}

	// One horizon sizes the rate series, the time grid and the dates.
	days := p.Horizon()
	rate := curve.Series(start, p.EndDate())
	if rate.Len() != days {
		return nil, fmt.Errorf("rate series has %d days, horizon has %d", rate.Len(), days)
	}

	n := float64(p.Population)
	dyn := Dynamics{R0: p.R0, Gamma: Gamma, N: n, Rate: rate}

	ts := make([]float64, days)
	for i := range ts {
		ts[i] = float64(i)
	}
	y0 := State{S: n - float64(p.InitialCases), I: float64(p.InitialCases)}

	states, err := integ.Solve(dyn.Derivative, y0, ts)
	if err != nil {
		return nil, fmt.Errorf("integrating SIR system: %w", err)
	}

	res := &Result{
		Parameters:  p,
		Dates:       make([]time.Time, days),
		Susceptible: make([]float64, days),
		Infected:    make([]float64, days),
		Removed:     make([]float64, days),
		Reff:        make([]float64, days),
		Rate:        rate.Values,
	}
	for i, st := range states {
		res.Dates[i] = rate.Date(i)
		res.Susceptible[i] = st.S
		res.Infected[i] = st.I
		res.Removed[i] = st.R
		res.Reff[i] = st.S / n * rate.Values[i] * p.R0
	}
	return res, nil
}

// Len returns the number of simulated days.
func (r *Result) Len() int {
	return len(r.Dates)
}

// State returns the compartments on day i.
func (r *Result) State(i int) State {
	return State{S: r.Susceptible[i], I: r.Infected[i], R: r.Removed[i]}
}

// Counts returns S, I and R truncated to whole people for display.
func (r *Result) Counts() (s, i, rem []int64) {
	s = make([]int64, r.Len())
	i = make([]int64, r.Len())
	rem = make([]int64, r.Len())
	for k := range r.Dates {
		s[k] = int64(r.Susceptible[k])
		i[k] = int64(r.Infected[k])
		rem[k] = int64(r.Removed[k])
	}
	return s, i, rem
}

// Summary condenses a run into a few headline numbers.
type Summary struct {
	Days              int       `json:"days"`
	PeakInfected      float64   `json:"peak_infected"`
	PeakDate          time.Time `json:"peak_date"`
	FinalRemoved      float64   `json:"final_removed"`
	AttackRate        float64   `json:"attack_rate"`
	FinalReff         float64   `json:"final_reff"`
	MeanReff          float64   `json:"mean_reff"`
	ConservationError float64   `json:"conservation_error"`
}

// Summary computes the headline numbers of the run.
func (r *Result) Summary() Summary {
	if r.Len() == 0 {
		return Summary{}
	}
	n := float64(r.Parameters.Population)
	last := r.Len() - 1
	peak := floats.MaxIdx(r.Infected)

	total := make([]float64, r.Len())
	floats.AddTo(total, r.Susceptible, r.Infected)
	floats.Add(total, r.Removed)
	floats.AddConst(-n, total)
	maxErr := max(floats.Max(total), -floats.Min(total))

	return Summary{
		Days:              r.Len(),
		PeakInfected:      r.Infected[peak],
		PeakDate:          r.Dates[peak],
		FinalRemoved:      r.Removed[last],
		AttackRate:        r.Removed[last] / n,
		FinalReff:         r.Reff[last],
		MeanReff:          stat.Mean(r.Reff, nil),
		ConservationError: maxErr,
	}
}
