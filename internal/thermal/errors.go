package thermal

import (
	"errors"
	"fmt"
)

// Domain errors for heat-transfer simulation.
var (
	// ErrConfig indicates an invalid material, parameter or geometry.
	ErrConfig = errors.New("thermal: invalid configuration")

	// ErrStability indicates a step size violates a Fourier or Courant bound.
	ErrStability = errors.New("thermal: stability bound violated")

	// ErrIntegrity indicates a non-finite temperature.
	ErrIntegrity = errors.New("thermal: non-finite temperature (NaN or Inf detected)")

	// ErrOutOfRange indicates a temperature outside the physical range of its domain.
	ErrOutOfRange = errors.New("thermal: temperature outside physical range")

	// ErrRunaway indicates a per-step temperature change above the sanity bound.
	ErrRunaway = errors.New("thermal: runaway temperature change")

	// ErrOutOfDomain indicates an interpolation query outside the plate footprint.
	ErrOutOfDomain = errors.New("thermal: point outside plate domain")

	// ErrDimensionMismatch indicates fields and grids of different shapes.
	ErrDimensionMismatch = errors.New("thermal: dimension mismatch between field and grid")

	// ErrCanceled indicates the simulation was interrupted between steps.
	ErrCanceled = errors.New("thermal: simulation canceled by context")
)

// StabilityError reports which stability number failed for a domain.
type StabilityError struct {
	Domain Domain
	Name   string
	Value  float64
	Limit  float64
}

func (e *StabilityError) Error() string {
	return fmt.Sprintf("%s: %s = %.4g must be < %.4g", e.Domain, e.Name, e.Value, e.Limit)
}

func (e *StabilityError) Unwrap() error {
	return ErrStability
}

// IntegrityError locates the first offending node of a field.
type IntegrityError struct {
	Domain  Domain
	Index   int
	Value   float64
	Range   Range
	Wrapped error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: node %d = %g K (allowed %s): %v", e.Domain, e.Index, e.Value, e.Range, e.Wrapped)
}

func (e *IntegrityError) Unwrap() error {
	return e.Wrapped
}

// SimulationError wraps a solver failure with time-stepping context.
type SimulationError struct {
	Step    int
	Time    float64
	Domain  Domain
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s: %v", e.Step, e.Time, e.Domain, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

// ConfigError builds an ErrConfig-wrapping error with a formatted reason.
func ConfigError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}
