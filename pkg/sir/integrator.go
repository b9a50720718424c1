package sir

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// RHS evaluates dy/dt at (t, y) into dy.
type RHS func(t float64, y, dy []float64)

// SolverOptions tunes the adaptive step control.
type SolverOptions struct {
	RelTol      float64
	AbsTol      float64
	InitialStep float64
	MinStep     float64
	MaxStep     float64
	// MaxSteps bounds the accepted plus rejected steps spent on one output interval.
	MaxSteps int
}

// DefaultSolverOptions returns tolerances tight enough that S+I+R stays
// within 1e-6 of N relative to N over a one-year horizon.
func DefaultSolverOptions() SolverOptions {
	return SolverOptions{
		RelTol:      1e-8,
		AbsTol:      1e-6,
		InitialStep: 0.1,
		MinStep:     1e-10,
		MaxStep:     1.0,
		MaxSteps:    10_000,
	}
}

func (o SolverOptions) validate() error {
	switch {
	case !(o.RelTol > 0) || !(o.AbsTol > 0):
		return fmt.Errorf("solver tolerances must be positive (rtol=%g atol=%g)", o.RelTol, o.AbsTol)
	case !(o.MinStep > 0) || !(o.MaxStep >= o.MinStep):
		return fmt.Errorf("solver step bounds invalid (min=%g max=%g)", o.MinStep, o.MaxStep)
	case !(o.InitialStep > 0):
		return fmt.Errorf("solver initial step must be positive (%g)", o.InitialStep)
	case o.MaxSteps <= 0:
		return fmt.Errorf("solver step budget must be positive (%d)", o.MaxSteps)
	}
	return nil
}

// Dormand-Prince 5(4) tableau.
var (
	dpC = [7]float64{0, 1.0 / 5, 3.0 / 10, 4.0 / 5, 8.0 / 9, 1, 1}
	dpA = [7][6]float64{
		{},
		{1.0 / 5},
		{3.0 / 40, 9.0 / 40},
		{44.0 / 45, -56.0 / 15, 32.0 / 9},
		{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
		{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
		{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
	}
	// Difference between the 5th and embedded 4th order weights.
	dpE = [7]float64{
		71.0 / 57600, 0, -71.0 / 16695, 71.0 / 1920, -17253.0 / 339200, 22.0 / 525, -1.0 / 40,
	}
)

// Integrator solves an ODE with an adaptive Dormand-Prince 5(4) scheme.
type Integrator struct {
	opts SolverOptions
}

// NewIntegrator creates an integrator with the given options.
func NewIntegrator(opts SolverOptions) (*Integrator, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Integrator{opts: opts}, nil
}

// Solve integrates f from y0 at ts[0] and returns the state at every instant
// in ts, which must be increasing. Each interval [ts[k-1], ts[k]) is solved on
// its own and every stage time is kept strictly inside it, so a right-hand
// side that switches regime at grid points sees exactly one regime per
// interval and the switch never lands inside a step.
func (in *Integrator) Solve(f RHS, y0 State, ts []float64) ([]State, error) {
	out := make([]State, len(ts))
	if len(ts) == 0 {
		return out, nil
	}

	y := y0.vector()
	if !allFinite(y) {
		return nil, &SolverError{Time: ts[0], State: y0, Wrapped: fmt.Errorf("non-finite initial state")}
	}
	out[0] = y0

	h := in.opts.InitialStep
	for k := 1; k < len(ts); k++ {
		if !(ts[k] > ts[k-1]) {
			return nil, fmt.Errorf("evaluation instants must increase: ts[%d]=%g, ts[%d]=%g", k-1, ts[k-1], k, ts[k])
		}
		var err error
		h, err = in.interval(f, y, ts[k-1], ts[k], h)
		if err != nil {
			return nil, err
		}
		out[k] = stateOf(y)
	}
	return out, nil
}

// interval advances y in place from a to b and returns the step size to try next.
func (in *Integrator) interval(f RHS, y []float64, a, b, h float64) (float64, error) {
	n := len(y)
	var k [7][]float64
	for i := range k {
		k[i] = make([]float64, n)
	}
	tmp := make([]float64, n)
	ynew := make([]float64, n)
	errv := make([]float64, n)

	inside := math.Nextafter(b, a)
	eval := func(t float64, y, dy []float64) {
		f(math.Min(t, inside), y, dy)
	}

	t := a
	eval(t, y, k[0])
	for steps := 0; t < b; steps++ {
		if steps >= in.opts.MaxSteps {
			return h, &SolverError{Step: steps, Time: t, State: stateOf(y), Wrapped: ErrMaxSteps}
		}

		h = math.Min(h, in.opts.MaxStep)
		proposed := h
		last := false
		if t+h >= b {
			h = b - t
			last = true
		}

		for s := 1; s < 7; s++ {
			copy(tmp, y)
			for j := 0; j < s; j++ {
				if dpA[s][j] != 0 {
					floats.AddScaled(tmp, h*dpA[s][j], k[j])
				}
			}
			eval(t+dpC[s]*h, tmp, k[s])
		}
		// Stage 7 is evaluated at the 5th order solution (FSAL).
		copy(ynew, tmp)

		for i := range errv {
			errv[i] = 0
		}
		for s := 0; s < 7; s++ {
			if dpE[s] != 0 {
				floats.AddScaled(errv, h*dpE[s], k[s])
			}
		}

		if !allFinite(ynew) || !allFinite(errv) {
			return h, &SolverError{Step: steps, Time: t, State: stateOf(y), Wrapped: fmt.Errorf("non-finite state after step h=%g", h)}
		}

		e := in.errorNorm(errv, y, ynew)
		if e <= 1 {
			if last {
				t = b
			} else {
				t += h
			}
			copy(y, ynew)
			k[0], k[6] = k[6], k[0]
		}

		factor := 5.0
		if e > 0 {
			factor = math.Min(5, math.Max(0.2, 0.9*math.Pow(e, -0.2)))
		}
		if e <= 1 && last {
			// The final step was clipped to land on b; carry the unclipped size forward.
			return math.Max(proposed, h*factor), nil
		}
		h *= factor
		if h < in.opts.MinStep {
			return h, &SolverError{Step: steps, Time: t, State: stateOf(y), Wrapped: ErrStepTooSmall}
		}
	}
	return h, nil
}

// errorNorm is the RMS of the local error scaled by the mixed tolerance.
func (in *Integrator) errorNorm(errv, y, ynew []float64) float64 {
	sum := 0.0
	for i := range errv {
		sc := in.opts.AbsTol + in.opts.RelTol*math.Max(math.Abs(y[i]), math.Abs(ynew[i]))
		r := errv[i] / sc
		sum += r * r
	}
	return math.Sqrt(sum / float64(len(errv)))
}

func allFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
