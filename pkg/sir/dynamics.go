package sir

// State is one point of the trajectory.
type State struct {
	S float64 // susceptible
	I float64 // infected
	R float64 // removed
}

// Total returns S+I+R.
func (s State) Total() float64 {
	return s.S + s.I + s.R
}

func (s State) vector() []float64 {
	return []float64{s.S, s.I, s.R}
}

func stateOf(y []float64) State {
	return State{S: y[0], I: y[1], R: y[2]}
}

// Dynamics is the right-hand side of the SIR system with a time-varying
// transmission multiplier.
type Dynamics struct {
	R0    float64
	Gamma float64
	N     float64
	Rate  RateSeries
}

// Beta returns the transmission coefficient at day offset t: rate(t) * R0 * gamma.
func (d Dynamics) Beta(t float64) float64 {
	return d.Rate.AtTime(t) * d.R0 * d.Gamma
}

// Derivative writes (dS/dt, dI/dt, dR/dt) for state y at time t into dy.
func (d Dynamics) Derivative(t float64, y, dy []float64) {
	s, i := y[0], y[1]
	infection := d.Beta(t) * i * s / d.N
	recovery := d.Gamma * i

	dy[0] = -infection
	dy[1] = infection - recovery
	dy[2] = recovery
}
