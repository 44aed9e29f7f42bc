package physics

import (
	"fmt"

	"github.com/san-kum/heatsim/internal/grid"
	"github.com/san-kum/heatsim/internal/thermal"
)

// CourantLimit bounds u·Δt/Δx for the upwind scheme.
const CourantLimit = 1.0

type FluidParams struct {
	Velocity     float64 // m/s, positive along x
	CouplingRate float64 // γ = h/(ρ·cp·e) [1/s]
	InletTemp    float64 // K
}

// Fluid advances the coolant temperature with a first-order upwind scheme and
// a Newton cooling term against the plate surface temperature.
type Fluid struct {
	grid         grid.Line
	params       FluidParams
	dt, cfl, gdt float64
}

func NewFluid(g grid.Line, p FluidParams, dt float64) (*Fluid, error) {
	if !(dt > 0) {
		return nil, thermal.ConfigError("fluid dt must be positive, got %g", dt)
	}
	f := &Fluid{grid: g, params: p, dt: dt}
	f.cfl, f.gdt = p.Velocity*dt/g.X.Spacing, p.CouplingRate*dt
	if err := f.Stable(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Fluid) CFL() float64     { return f.cfl }
func (f *Fluid) GammaDt() float64 { return f.gdt }
func (f *Fluid) Dt() float64      { return f.dt }

// Stable reports whether the Courant number is below its limit.
func (f *Fluid) Stable() error {
	if f.cfl >= CourantLimit || f.cfl < 0 {
		return &thermal.StabilityError{Domain: thermal.DomainFluid, Name: "CFL", Value: f.cfl, Limit: CourantLimit}
	}
	return nil
}

// Step writes the next fluid field into next. surface holds the plate's wetted
// face temperature sampled on the fluid grid.
func (f *Fluid) Step(old, surface, next *thermal.Field1D) error {
	n := f.grid.X.N
	if old.Len() != n || surface.Len() != n || next.Len() != n {
		return fmt.Errorf("%w: fluid grid has %d nodes", thermal.ErrDimensionMismatch, n)
	}
	if err := f.Stable(); err != nil {
		return err
	}

	T, ts, out := old.Values(), surface.Values(), next.Values()
	cfl, gdt := f.cfl, f.gdt

	out[0] = f.params.InletTemp
	for i := 1; i < n; i++ {
		out[i] = T[i] - cfl*(T[i]-T[i-1]) - gdt*(T[i]-ts[i])
	}
	out[n-1] = out[n-2]

	return thermal.Check(thermal.DomainFluid, out, thermal.FluidRange)
}

func (f *Fluid) GetParams() map[string]float64 {
	return map[string]float64{"dt": f.dt, "cfl": f.cfl, "gamma_dt": f.gdt, "dx": f.grid.X.Spacing}
}
