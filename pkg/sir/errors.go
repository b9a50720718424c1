package sir

import (
	"errors"
	"fmt"
)

// Domain errors for simulation runs.
var (
	// ErrInvalidParameter indicates an input outside the documented domain.
	ErrInvalidParameter = errors.New("sir: invalid parameter")

	// ErrNumericalInstability indicates the solver diverged or produced non-finite values.
	ErrNumericalInstability = errors.New("sir: numerical instability")

	// ErrStepTooSmall indicates the adaptive step size collapsed below the minimum.
	ErrStepTooSmall = errors.New("sir: adaptive step below minimum")

	// ErrMaxSteps indicates the solver exhausted its step budget for one interval.
	ErrMaxSteps = errors.New("sir: step budget exhausted")
)

// ParameterError describes a rejected input field.
type ParameterError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("%v: %s=%v: %s", ErrInvalidParameter, e.Field, e.Value, e.Reason)
}

func (e *ParameterError) Unwrap() error {
	return ErrInvalidParameter
}

// SolverError wraps an integration failure with the solver position.
type SolverError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SolverError) Error() string {
	return fmt.Sprintf("%v at t=%.4f (step %d, S=%g I=%g R=%g): %v",
		ErrNumericalInstability, e.Time, e.Step, e.State.S, e.State.I, e.State.R, e.Wrapped)
}

// Unwrap exposes both the instability sentinel and the specific cause.
func (e *SolverError) Unwrap() []error {
	if e.Wrapped == nil || errors.Is(e.Wrapped, ErrNumericalInstability) {
		return []error{ErrNumericalInstability}
	}
	return []error{ErrNumericalInstability, e.Wrapped}
}

func invalid(field string, value any, reason string) error {
	return &ParameterError{Field: field, Value: value, Reason: reason}
}
