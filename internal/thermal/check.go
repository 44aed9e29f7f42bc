package thermal

import (
	"fmt"
	"math"
)

var inf = math.Inf(1)

// Domain names the spatial domain a field belongs to.
type Domain string

const (
	DomainFluid Domain = "fluid"
	DomainPlate Domain = "plate"
	DomainFin   Domain = "fin"
)

// FinDomain names fin k.
func FinDomain(k int) Domain {
	return Domain(fmt.Sprintf("fin %d", k))
}

// Range is the physically plausible temperature interval of a domain [K].
type Range struct {
	Min, Max  float64
	Inclusive bool
}

var (
	// FluidRange and PlateRange are open intervals.
	FluidRange = Range{Min: 200, Max: 400}
	PlateRange = Range{Min: 200, Max: 400}
	FinRange   = Range{Min: 200, Max: 500, Inclusive: true}
)

func (r Range) Contains(v float64) bool {
	if r.Inclusive {
		return v >= r.Min && v <= r.Max
	}
	return v > r.Min && v < r.Max
}

func (r Range) String() string {
	if r.Inclusive {
		return fmt.Sprintf("[%g, %g]", r.Min, r.Max)
	}
	return fmt.Sprintf("(%g, %g)", r.Min, r.Max)
}

// Check validates every value of a field against its domain range. It returns
// an *IntegrityError for the first offending node.
func Check(domain Domain, values []float64, r Range) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &IntegrityError{Domain: domain, Index: i, Value: v, Range: r, Wrapped: ErrIntegrity}
		}
		if !r.Contains(v) {
			return &IntegrityError{Domain: domain, Index: i, Value: v, Range: r, Wrapped: ErrOutOfRange}
		}
	}
	return nil
}
