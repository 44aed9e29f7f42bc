package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/heatsim/internal/grid"
	"github.com/san-kum/heatsim/internal/thermal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MaxStepChange is the largest nodal change accepted from one fin step [K].
const MaxStepChange = 50.0

// EdgeMode selects how the flat θ=0 and θ=π edges of a fin are treated.
type EdgeMode int

const (
	// EdgeInsulated copies the adjacent angular row (zero gradient). Used when
	// a fin is simulated on its own.
	EdgeInsulated EdgeMode = iota
	// EdgeDirichlet keeps the edge values already present in the old field,
	// which the coupler fills from the plate before every sub-step.
	EdgeDirichlet
)

func (m EdgeMode) String() string {
	switch m {
	case EdgeInsulated:
		return "insulated"
	case EdgeDirichlet:
		return "dirichlet"
	default:
		return fmt.Sprintf("EdgeMode(%d)", int(m))
	}
}

type FinParams struct {
	Diffusivity  float64
	Conductivity float64
	HAir         float64
	AmbientTemp  float64
}

// Fin advances one semicircular fin on a polar grid. The field is indexed
// [r][θ]: row j=0 is the centre, row Nr-1 the convective rim.
type Fin struct {
	grid      grid.Polar
	params    FinParams
	mode      EdgeMode
	dt        float64
	fo        float64
	bi        float64
	angular   []float64 // α·Δt/(r_j·Δθ)² per radial row
	curvature []float64 // Δr/(2·r_j) per radial row
}

func NewFin(g grid.Polar, p FinParams, dt float64, mode EdgeMode) (*Fin, error) {
	if !(dt > 0) {
		return nil, thermal.ConfigError("fin dt must be positive, got %g", dt)
	}
	if !(p.Conductivity > 0) {
		return nil, thermal.ConfigError("fin conductivity must be positive, got %g", p.Conductivity)
	}
	if mode != EdgeInsulated && mode != EdgeDirichlet {
		return nil, thermal.ConfigError("unknown fin edge mode %v", mode)
	}

	nr, dr, dth := g.R.N, g.R.Spacing, g.Theta.Spacing
	f := &Fin{
		grid:      g,
		params:    p,
		mode:      mode,
		dt:        dt,
		fo:        p.Diffusivity * dt / (dr * dr),
		bi:        p.HAir * dr / p.Conductivity,
		angular:   make([]float64, nr),
		curvature: make([]float64, nr),
	}
	for j := 1; j < nr; j++ {
		r := g.R.Coord(j)
		f.angular[j] = p.Diffusivity * dt / ((r * dth) * (r * dth))
		f.curvature[j] = dr / (2 * r)
	}
	if err := f.Stable(); err != nil {
		return nil, err
	}
	return f, nil
}

// WorstFourier is Fo_r + α·Δt/(r_min·Δθ)² with r_min = Δr.
func (f *Fin) WorstFourier() float64 {
	return f.fo + f.angular[1]
}

func (f *Fin) Dt() float64    { return f.dt }
func (f *Fin) Mode() EdgeMode { return f.mode }

func (f *Fin) Stable() error {
	if s := f.WorstFourier(); s >= FourierLimit {
		return &thermal.StabilityError{Domain: thermal.DomainFin, Name: "Fo_r+Fo_theta(r_min)", Value: s, Limit: FourierLimit}
	}
	return nil
}

// Step writes the next fin field into next.
//
// Interior rows use the cylindrical Laplacian with central differences. The
// rim eliminates the ghost node of -k·∂T/∂r = h·(T - T_inf), which also feeds
// the 1/r first-derivative term:
//
//	T' = T + 2·Fo_r·[(T_{R-1} - T) - (1 + Δr/2R)·Bi·(T - T_inf)] + Fo_θ(R)·δθθ
//
// Edges are applied after the interior and rim. The centre row is then set to
// the mean of the updated first ring, the discrete limit of the Laplacian at r=0.
func (f *Fin) Step(old, next *thermal.Field2D) error {
	nr, nth := f.grid.R.N, f.grid.Theta.N
	if gr, gt := old.Dims(); gr != nr || gt != nth || !next.SameShape(old) {
		return fmt.Errorf("%w: fin grid is %dx%d", thermal.ErrDimensionMismatch, nr, nth)
	}
	if err := f.Stable(); err != nil {
		return err
	}

	T, out := old.Values(), next.Values()
	fo, tinf := f.fo, f.params.AmbientTemp
	rim := nr - 1
	rimBi := (1 + f.curvature[rim]) * f.bi

	for j := 1; j < nr; j++ {
		row, ang, curv := j*nth, f.angular[j], f.curvature[j]
		for m := 1; m < nth-1; m++ {
			c := T[row+m]
			dtt := T[row+m+1] - 2*c + T[row+m-1]
			in := T[row-nth+m]
			if j < rim {
				up := T[row+nth+m]
				out[row+m] = c + fo*((up-2*c+in)+curv*(up-in)) + ang*dtt
			} else {
				out[row+m] = c + 2*fo*((in-c)-rimBi*(c-tinf)) + ang*dtt
			}
		}
		switch f.mode {
		case EdgeInsulated:
			out[row] = out[row+1]
			out[row+nth-1] = out[row+nth-2]
		case EdgeDirichlet:
			out[row] = T[row]
			out[row+nth-1] = T[row+nth-1]
		}
	}

	centre := stat.Mean(out[nth:2*nth], nil)
	for m := 0; m < nth; m++ {
		out[m] = centre
	}

	if err := thermal.Check(thermal.DomainFin, out, thermal.FinRange); err != nil {
		return err
	}
	if d := floats.Distance(out, T, math.Inf(1)); d >= MaxStepChange {
		return fmt.Errorf("%w: max |dT| = %.3g K in one fin step", thermal.ErrRunaway, d)
	}
	return nil
}

func (f *Fin) GetParams() map[string]float64 {
	return map[string]float64{
		"dt":            f.dt,
		"fo_r":          f.fo,
		"fo_theta_rmin": f.angular[1],
		"fo_worst":      f.WorstFourier(),
		"bi_air":        f.bi,
	}
}
