package metrics

import (
	"math"

	"github.com/san-kum/heatsim/internal/config"
	"github.com/san-kum/heatsim/internal/grid"
	"github.com/san-kum/heatsim/internal/thermal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// EnergyBalance is one global energy-balance sample [W].
type EnergyBalance struct {
	Time     float64 `json:"time"`
	QIn      float64 `json:"q_in"`
	QOut     float64 `json:"q_out"`
	DEdt     float64 `json:"de_dt"`
	Residual float64 `json:"residual"`
	Flagged  bool    `json:"flagged"`
}

// Balancer compares the enthalpy the coolant gives up with the convective loss
// to air and the rate of change of stored energy.
type Balancer struct {
	cfg       *config.Config
	threshold float64
	fluidCap  []float64   // J/K per fluid node
	plateCap  []float64   // J/K per plate node, laid out like the field
	finCap    [][]float64 // J/K per fin node, laid out like the field
}

// NewBalancer assigns every node the heat capacity of its control volume.
// Nodes on a domain boundary own half a cell in each bounding direction, so
// the capacities of a domain add up to its geometric volume.
func NewBalancer(cfg *config.Config, grids grid.Set) *Balancer {
	w := cfg.Geometry.Width
	rhoCp := cfg.Solid.Density * cfg.Solid.SpecificHeat

	fx := grids.Fluid.X
	fluidCap := halfEnds(fx.N)
	floats.Scale(cfg.Water.Density*cfg.Water.SpecificHeat*fx.Spacing*w*cfg.Geometry.WaterThickness, fluidCap)

	px, py := grids.Plate.X, grids.Plate.Y
	wx, wy := halfEnds(px.N), halfEnds(py.N)
	cell := rhoCp * px.Spacing * py.Spacing * w
	plateCap := make([]float64, px.N*py.N)
	for i := range wx {
		for j := range wy {
			plateCap[i*py.N+j] = cell * wx[i] * wy[j]
		}
	}

	finCap := make([][]float64, len(grids.Fins))
	for k, fin := range grids.Fins {
		finCap[k] = finCapacity(fin, rhoCp*w)
	}

	return &Balancer{
		cfg:       cfg,
		threshold: config.ResidualThreshold,
		fluidCap:  fluidCap,
		plateCap:  plateCap,
		finCap:    finCap,
	}
}

// halfEnds is n unit weights with both end nodes halved.
func halfEnds(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	w[0], w[n-1] = 0.5, 0.5
	return w
}

// finCapacity splits the half-disc into the half-disc of radius Δr/2 shared
// by the centre row, full annular sectors for the inner rings and a
// half-width sector at the rim. Nodes on the flat edges own half a sector.
func finCapacity(fin grid.Polar, perArea float64) []float64 {
	nr, nth := fin.R.N, fin.Theta.N
	dr, dth := fin.R.Spacing, fin.Theta.Spacing
	wth := halfEnds(nth)

	c := make([]float64, nr*nth)
	centre := perArea * math.Pi * dr * dr / 8 / float64(nth)
	for m := 0; m < nth; m++ {
		c[m] = centre
	}
	for j := 1; j < nr; j++ {
		r, width := fin.R.Coord(j), dr
		if j == nr-1 {
			r, width = r-dr/4, dr/2
		}
		for m := 0; m < nth; m++ {
			c[j*nth+m] = perArea * r * width * dth * wth[m]
		}
	}
	return c
}

// Compute evaluates the balance between two consecutive states dt apart.
func (b *Balancer) Compute(prev, cur *thermal.Fields, dt, t float64) EnergyBalance {
	op := b.cfg.Operation
	tout := cur.Fluid.At(cur.Fluid.Len() - 1)
	qin := b.cfg.MassFlow() * b.cfg.Water.SpecificHeat * (op.InletTemp - tout)

	// Exposed faces are averaged with the same half weights at their ends.
	nx, ny := cur.Plate.Dims()
	qout := op.HAir * b.cfg.PlateAirArea() * (stat.Mean(cur.Plate.Column(ny-1), halfEnds(nx)) - op.AmbientTemp)
	for _, fin := range cur.Fins {
		nr, nth := fin.Dims()
		qout += op.HAir * b.cfg.FinAirArea() * (stat.Mean(fin.Row(nr-1), halfEnds(nth)) - op.AmbientTemp)
	}

	de := weightedDiff(b.fluidCap, cur.Fluid.Values(), prev.Fluid.Values())
	de += weightedDiff(b.plateCap, cur.Plate.Values(), prev.Plate.Values())
	for k, fin := range cur.Fins {
		de += weightedDiff(b.finCap[k], fin.Values(), prev.Fins[k].Values())
	}
	dedt := de / dt

	eb := EnergyBalance{Time: t, QIn: qin, QOut: qout, DEdt: dedt}
	if math.Abs(qin) > 1e-6 {
		eb.Residual = math.Abs(qin-qout-dedt) / math.Abs(qin)
	}
	eb.Flagged = eb.Residual > b.threshold
	return eb
}

// weightedDiff is Σ w_i·(a_i - b_i).
func weightedDiff(w, a, b []float64) float64 {
	s := 0.0
	for i := range w {
		s += w[i] * (a[i] - b[i])
	}
	return s
}
