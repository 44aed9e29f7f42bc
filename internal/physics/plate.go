package physics

import (
	"fmt"

	"github.com/san-kum/heatsim/internal/grid"
	"github.com/san-kum/heatsim/internal/thermal"
)

// FourierLimit bounds the summed Fourier numbers of 2-D explicit diffusion.
const FourierLimit = 0.5

type PlateParams struct {
	Diffusivity  float64 // m²/s
	Conductivity float64 // W/mK
	HWater       float64 // W/m²K on y=0
	HAir         float64 // W/m²K on y=Ly
	AmbientTemp  float64 // K
}

// Plate advances the base plate with FTCS diffusion. The y=0 face exchanges
// heat with the coolant, the y=Ly face with ambient air, and both x ends are
// insulated.
type Plate struct {
	grid       grid.Cartesian
	params     PlateParams
	dt         float64
	fox, foy   float64
	biW, biAir float64
}

func NewPlate(g grid.Cartesian, p PlateParams, dt float64) (*Plate, error) {
	if !(dt > 0) {
		return nil, thermal.ConfigError("plate dt must be positive, got %g", dt)
	}
	if !(p.Conductivity > 0) {
		return nil, thermal.ConfigError("plate conductivity must be positive, got %g", p.Conductivity)
	}
	dx, dy := g.X.Spacing, g.Y.Spacing
	pl := &Plate{
		grid:   g,
		params: p,
		dt:     dt,
		fox:    p.Diffusivity * dt / (dx * dx),
		foy:    p.Diffusivity * dt / (dy * dy),
		biW:    p.HWater * dy / p.Conductivity,
		biAir:  p.HAir * dy / p.Conductivity,
	}
	if err := pl.Stable(); err != nil {
		return nil, err
	}
	return pl, nil
}

func (p *Plate) Fourier() (float64, float64) { return p.fox, p.foy }
func (p *Plate) Dt() float64                 { return p.dt }

func (p *Plate) Stable() error {
	if s := p.fox + p.foy; s >= FourierLimit {
		return &thermal.StabilityError{Domain: thermal.DomainPlate, Name: "Fo_x+Fo_y", Value: s, Limit: FourierLimit}
	}
	return nil
}

// Step writes the next plate field into next. fluid holds the coolant
// temperature sampled at the plate's x nodes.
//
// Both convective faces eliminate a ghost node from -k·∂T/∂n = h·(T - T_ref):
//
//	T' = T + Fo_x·δxx + 2·Fo_y·[(T_in - T) - Bi·(T - T_ref)],  Bi = h·Δy/k
func (p *Plate) Step(old *thermal.Field2D, fluid []float64, next *thermal.Field2D) error {
	nx, ny := p.grid.X.N, p.grid.Y.N
	if ox, oy := old.Dims(); ox != nx || oy != ny || !next.SameShape(old) || len(fluid) != nx {
		return fmt.Errorf("%w: plate grid is %dx%d", thermal.ErrDimensionMismatch, nx, ny)
	}
	if err := p.Stable(); err != nil {
		return err
	}

	T, out := old.Values(), next.Values()
	fox, foy, tinf := p.fox, p.foy, p.params.AmbientTemp

	for i := 1; i < nx-1; i++ {
		row, up, dn := i*ny, (i+1)*ny, (i-1)*ny
		for j := 0; j < ny; j++ {
			c := T[row+j]
			dxx := T[up+j] - 2*c + T[dn+j]
			switch j {
			case 0:
				out[row] = c + fox*dxx + 2*foy*((T[row+1]-c)-p.biW*(c-fluid[i]))
			case ny - 1:
				out[row+j] = c + fox*dxx + 2*foy*((T[row+j-1]-c)-p.biAir*(c-tinf))
			default:
				out[row+j] = c + fox*dxx + foy*(T[row+j+1]-2*c+T[row+j-1])
			}
		}
	}

	last := (nx - 1) * ny
	copy(out[:ny], out[ny:2*ny])
	copy(out[last:last+ny], out[last-ny:last])

	return thermal.Check(thermal.DomainPlate, out, thermal.PlateRange)
}

func (p *Plate) GetParams() map[string]float64 {
	return map[string]float64{"dt": p.dt, "fo_x": p.fox, "fo_y": p.foy, "bi_water": p.biW, "bi_air": p.biAir}
}
