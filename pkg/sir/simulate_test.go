package sir

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"
)

func scenario(mult float64) Parameters {
	p := DefaultParameters()
	for i := range p.Multipliers {
		p.Multipliers[i] = mult
	}
	return p
}

func checkLengths(t *testing.T, res *Result, expected int) {
	t.Helper()
	lengths := map[string]int{
		"Dates":       len(res.Dates),
		"Susceptible": len(res.Susceptible),
		"Infected":    len(res.Infected),
		"Removed":     len(res.Removed),
		"Reff":        len(res.Reff),
		"Rate":        len(res.Rate),
	}
	for name, n := range lengths {
		if n != expected {
			t.Errorf("len(%s) = %d, expected %d", name, n, expected)
		}
	}
}

func checkConservation(t *testing.T, res *Result) {
	t.Helper()
	n := float64(res.Parameters.Population)
	for i := range res.Dates {
		total := res.Susceptible[i] + res.Infected[i] + res.Removed[i]
		if math.Abs(total-n) > 1e-6*n {
			t.Fatalf("day %d: S+I+R = %.3f, expected %.0f", i, total, n)
		}
	}
}

func checkMonotone(t *testing.T, res *Result) {
	t.Helper()
	slack := 1e-9 * float64(res.Parameters.Population)
	for i := 1; i < res.Len(); i++ {
		if res.Susceptible[i] > res.Susceptible[i-1]+slack {
			t.Fatalf("S increased on day %d: %.6f -> %.6f", i, res.Susceptible[i-1], res.Susceptible[i])
		}
		if res.Removed[i] < res.Removed[i-1]-slack {
			t.Fatalf("R decreased on day %d: %.6f -> %.6f", i, res.Removed[i-1], res.Removed[i])
		}
	}
}

func TestSimulateSingleWave(t *testing.T) {
	p := scenario(1.0)

	res, err := Simulate(p)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	checkLengths(t, res, 346)
	checkConservation(t, res)
	checkMonotone(t, res)

	if !res.Dates[0].Equal(Date(2020, time.January, 21)) {
		t.Errorf("first date = %s, expected 2020-01-21", res.Dates[0])
	}
	if !res.Dates[res.Len()-1].Equal(Date(2020, time.December, 31)) {
		t.Errorf("last date = %s, expected 2020-12-31", res.Dates[res.Len()-1])
	}

	sum := res.Summary()
	peak := 0
	for i, v := range res.Infected {
		if v > res.Infected[peak] {
			peak = i
		}
	}
	if peak == 0 || peak == res.Len()-1 {
		t.Fatalf("infected peak at index %d, expected an interior peak", peak)
	}
	if res.Infected[peak] <= res.Infected[0] || res.Infected[res.Len()-1] >= res.Infected[peak] {
		t.Errorf("expected I to rise then fall: I0=%.1f peak=%.1f end=%.1f",
			res.Infected[0], res.Infected[peak], res.Infected[res.Len()-1])
	}
	if !sum.PeakDate.Equal(res.Dates[peak]) {
		t.Errorf("Summary.PeakDate = %s, expected %s", sum.PeakDate, res.Dates[peak])
	}

	last := res.Len() - 1
	if res.Susceptible[last] >= float64(p.Population) {
		t.Errorf("S(end) = %.1f, expected below N", res.Susceptible[last])
	}
	if res.Removed[last] <= 0 {
		t.Errorf("R(end) = %.1f, expected > 0", res.Removed[last])
	}

	// Final size relation for R0 = 2.5 puts the attack rate near 89%.
	if sum.AttackRate < 0.8 || sum.AttackRate > 0.95 {
		t.Errorf("attack rate = %.3f, expected in [0.80, 0.95]", sum.AttackRate)
	}
	if sum.ConservationError > 1e-6*float64(p.Population) {
		t.Errorf("conservation error = %g", sum.ConservationError)
	}
}

func TestSimulateNoTransmission(t *testing.T) {
	p := scenario(0.0)

	res, err := Simulate(p)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	checkConservation(t, res)
	s0 := float64(p.Population - p.InitialCases)
	for i := range res.Dates {
		if math.Abs(res.Susceptible[i]-s0) > 1e-9*s0 {
			t.Fatalf("S(%d) = %.6f, expected constant %.0f", i, res.Susceptible[i], s0)
		}
		if i > 0 && res.Infected[i] >= res.Infected[i-1] {
			t.Fatalf("I did not decay on day %d: %.9f -> %.9f", i, res.Infected[i-1], res.Infected[i])
		}
		if res.Reff[i] != 0 {
			t.Fatalf("Reff(%d) = %f, expected 0", i, res.Reff[i])
		}
	}

	// Pure removal: I(t) = I0 * exp(-gamma t)
	expected := float64(p.InitialCases) * math.Exp(-Gamma*30)
	if math.Abs(res.Infected[30]-expected) > 1e-6*float64(p.InitialCases) {
		t.Errorf("I(30) = %.9f, expected %.9f", res.Infected[30], expected)
	}
}

func TestSimulateZeroR0(t *testing.T) {
	p := DefaultParameters()
	p.R0 = 0
	p.Multipliers = testMultipliers

	res, err := Simulate(p)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	s0 := res.Susceptible[0]
	for i := 1; i < res.Len(); i++ {
		if res.Infected[i] > res.Infected[i-1] {
			t.Fatalf("I increased on day %d with R0 = 0", i)
		}
		if math.Abs(res.Susceptible[i]-s0) > 1e-9*s0 {
			t.Fatalf("S(%d) = %.6f drifted from %.6f", i, res.Susceptible[i], s0)
		}
	}
}

func TestSimulateEffectiveReproduction(t *testing.T) {
	p := DefaultParameters()
	p.Multipliers = testMultipliers
	p.StartDate = Date(2020, time.March, 15)

	res, err := Simulate(p)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	curve, err := NewRateCurve(p.Year, p.Multipliers)
	if err != nil {
		t.Fatalf("NewRateCurve: %v", err)
	}
	n := float64(p.Population)
	expected := p.R0 * curve.At(p.StartDate) * (n - float64(p.InitialCases)) / n
	if math.Abs(res.Reff[0]-expected) > 1e-12 {
		t.Errorf("Reff(0) = %.9f, expected %.9f", res.Reff[0], expected)
	}

	for i := range res.Dates {
		want := res.Susceptible[i] / n * res.Rate[i] * p.R0
		if math.Abs(res.Reff[i]-want) > 1e-12 {
			t.Fatalf("Reff(%d) = %.9f, expected %.9f", i, res.Reff[i], want)
		}
		if res.Rate[i] != curve.At(res.Dates[i]) {
			t.Fatalf("Rate(%d) = %f, expected %f", i, res.Rate[i], curve.At(res.Dates[i]))
		}
	}
	checkMonotone(t, res)
}

func TestSimulateHorizon(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		expected int
	}{
		{"prior year", Date(2019, time.December, 31), 367},
		{"jan 1", Date(2020, time.January, 1), 366},
		{"latest", Date(2020, time.May, 31), 215},
		{"clock ignored", time.Date(2020, time.February, 10, 18, 30, 0, 0, time.UTC), 326},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := scenario(0.6)
			p.StartDate = tt.start

			res, err := Simulate(p)
			if err != nil {
				t.Fatalf("Simulate: %v", err)
			}
			checkLengths(t, res, tt.expected)
			checkConservation(t, res)
		})
	}
}

func TestSimulateRejectsInvalidParameters(t *testing.T) {
	tests := []struct {
		name   string
		field  string
		modify func(*Parameters)
	}{
		{"start too early", "start_date", func(p *Parameters) { p.StartDate = Date(2019, time.December, 30) }},
		{"start too late", "start_date", func(p *Parameters) { p.StartDate = Date(2020, time.June, 1) }},
		{"start unset", "start_date", func(p *Parameters) { p.StartDate = time.Time{} }},
		{"population too small", "population", func(p *Parameters) { p.Population = 9_999 }},
		{"population too large", "population", func(p *Parameters) { p.Population = 1_000_000_001 }},
		{"negative cases", "initial_cases", func(p *Parameters) { p.InitialCases = -1 }},
		{"too many cases", "initial_cases", func(p *Parameters) { p.InitialCases = 1_000_001 }},
		{"cases above population", "initial_cases", func(p *Parameters) { p.Population = 10_000; p.InitialCases = 10_001 }},
		{"R0 too large", "r0", func(p *Parameters) { p.R0 = 5.01 }},
		{"R0 negative", "r0", func(p *Parameters) { p.R0 = -0.1 }},
		{"R0 NaN", "r0", func(p *Parameters) { p.R0 = math.NaN() }},
		{"multiplier out of range", "multipliers[4]", func(p *Parameters) { p.Multipliers[4] = 1.5 }},
		{"year out of range", "year", func(p *Parameters) { p.Year = 1066 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParameters()
			tt.modify(&p)

			res, err := Simulate(p)
			if res != nil {
				t.Error("expected no result")
			}
			if !errors.Is(err, ErrInvalidParameter) {
				t.Fatalf("expected ErrInvalidParameter, got %v", err)
			}
			var pe *ParameterError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParameterError, got %T", err)
			}
			if pe.Field != tt.field {
				t.Errorf("Field = %q, expected %q", pe.Field, tt.field)
			}
		})
	}
}

func TestSimulateAcceptsDomainEdges(t *testing.T) {
	p := DefaultParameters()
	p.StartDate = Date(2019, time.December, 31)
	p.Population = MinPopulation
	p.InitialCases = 0
	p.R0 = MaxR0

	res, err := Simulate(p)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	// With no one infected nothing ever happens.
	for i := range res.Dates {
		if res.Infected[i] != 0 || res.Removed[i] != 0 {
			t.Fatalf("day %d: I=%g R=%g, expected 0", i, res.Infected[i], res.Removed[i])
		}
	}
}

func TestSimulateSolverFailure(t *testing.T) {
	opts := DefaultSolverOptions()
	opts.MaxSteps = 1

	_, err := SimulateWithOptions(DefaultParameters(), opts)
	if !errors.Is(err, ErrNumericalInstability) {
		t.Fatalf("expected ErrNumericalInstability, got %v", err)
	}
	if errors.Is(err, ErrInvalidParameter) {
		t.Error("solver failure must not look like a parameter error")
	}
}

func TestSimulateConcurrent(t *testing.T) {
	params := make([]Parameters, 6)
	for i := range params {
		params[i] = DefaultParameters()
		params[i].R0 = 0.5 + 0.7*float64(i)
		params[i].Multipliers = testMultipliers
	}

	expected := make([]*Result, len(params))
	for i, p := range params {
		res, err := Simulate(p)
		if err != nil {
			t.Fatalf("Simulate: %v", err)
		}
		expected[i] = res
	}

	var wg sync.WaitGroup
	got := make([]*Result, len(params))
	errs := make([]error, len(params))
	for i, p := range params {
		i, p := i, p
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i], errs[i] = Simulate(p)
		}()
	}
	wg.Wait()

	for i := range params {
		if errs[i] != nil {
			t.Fatalf("run %d: %v", i, errs[i])
		}
		for k := range expected[i].Infected {
			if got[i].Infected[k] != expected[i].Infected[k] {
				t.Fatalf("run %d day %d: concurrent I=%g, sequential I=%g", i, k, got[i].Infected[k], expected[i].Infected[k])
			}
		}
	}
}

func TestResultCounts(t *testing.T) {
	res, err := Simulate(DefaultParameters())
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	s, i, r := res.Counts()
	if len(s) != res.Len() || len(i) != res.Len() || len(r) != res.Len() {
		t.Fatalf("Counts lengths %d/%d/%d, expected %d", len(s), len(i), len(r), res.Len())
	}
	if s[0] != 23_999_990 || i[0] != 10 || r[0] != 0 {
		t.Errorf("day 0 counts = %d/%d/%d, expected 23999990/10/0", s[0], i[0], r[0])
	}
}
