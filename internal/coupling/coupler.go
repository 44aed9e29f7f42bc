// Package coupling transfers temperatures across domain interfaces: the
// plate's wetted face to the coolant, the coolant back to the plate, and the
// plate's air face into the flat edges of every fin.
package coupling

import (
	"fmt"
	"math"

	"github.com/san-kum/heatsim/internal/grid"
	"github.com/san-kum/heatsim/internal/thermal"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat"
)

// Coupler holds the interface geometry. Fin edge lookups are resolved once at
// construction, so an out-of-footprint fin fails before any step is taken.
type Coupler struct {
	plate    grid.Cartesian
	fluid    grid.Line
	fins     []grid.Polar
	plateX   []float64
	fluidX   []float64
	sameGrid bool
	edges    [][]stencil // [fin][e*Nr+j], e=0 at θ=0 and e=1 at θ=π
}

func New(plate grid.Cartesian, fluid grid.Line, fins []grid.Polar) (*Coupler, error) {
	c := &Coupler{
		plate:    plate,
		fluid:    fluid,
		fins:     fins,
		plateX:   plate.X.Coords(),
		fluidX:   fluid.X.Coords(),
		sameGrid: plate.X == fluid.X,
		edges:    make([][]stencil, len(fins)),
	}
	for k, fin := range fins {
		nr := fin.R.N
		c.edges[k] = make([]stencil, 2*nr)
		for e := 0; e < 2; e++ {
			for j := 0; j < nr; j++ {
				x, y := fin.EdgePoint(j, e == 1)
				s, err := locate(plate, x, y)
				if err != nil {
					return nil, fmt.Errorf("fin %d: %w", k, err)
				}
				c.edges[k][e*nr+j] = s
			}
		}
	}
	return c, nil
}

// resample linearly interpolates ys sampled at xs onto dst sampled at at,
// holding the end values outside [xs[0], xs[n-1]].
func resample(xs, ys, at, dst []float64) error {
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return err
	}
	for i, x := range at {
		dst[i] = pl.Predict(x)
	}
	return nil
}

// SurfaceToFluid writes the plate's wetted-face temperature (row y=0) onto the
// fluid grid.
func (c *Coupler) SurfaceToFluid(plate *thermal.Field2D, dst *thermal.Field1D) error {
	if nx, _ := plate.Dims(); nx != c.plate.X.N || dst.Len() != c.fluid.X.N {
		return fmt.Errorf("%w: surface extraction", thermal.ErrDimensionMismatch)
	}
	surface := plate.Column(0)
	if c.sameGrid {
		copy(dst.Values(), surface)
		return nil
	}
	return resample(c.plateX, surface, c.fluidX, dst.Values())
}

// FluidToPlate writes the coolant temperature onto the plate's x nodes.
func (c *Coupler) FluidToPlate(fluid *thermal.Field1D, dst []float64) error {
	if fluid.Len() != c.fluid.X.N || len(dst) != c.plate.X.N {
		return fmt.Errorf("%w: fluid resampling", thermal.ErrDimensionMismatch)
	}
	if c.sameGrid {
		copy(dst, fluid.Values())
		return nil
	}
	return resample(c.fluidX, fluid.Values(), c.plateX, dst)
}

// PlateToFins writes bilinearly interpolated plate temperatures into the θ=0
// and θ=π rows of every fin, for every radial node including the centre.
func (c *Coupler) PlateToFins(plate *thermal.Field2D, fins []*thermal.Field2D) error {
	if len(fins) != len(c.fins) {
		return fmt.Errorf("%w: %d fin fields for %d fins", thermal.ErrDimensionMismatch, len(fins), len(c.fins))
	}
	for k, fin := range fins {
		nr, nth := c.fins[k].R.N, c.fins[k].Theta.N
		if fr, ft := fin.Dims(); fr != nr || ft != nth {
			return fmt.Errorf("%w: fin %d field", thermal.ErrDimensionMismatch, k)
		}
		edges := c.edges[k]
		for j := 0; j < nr; j++ {
			fin.Set(j, 0, edges[j].eval(plate))
			fin.Set(j, nth-1, edges[nr+j].eval(plate))
		}
	}
	return nil
}

// Sample bilinearly interpolates the plate field at (x, y).
func (c *Coupler) Sample(plate *thermal.Field2D, x, y float64) (float64, error) {
	s, err := locate(c.plate, x, y)
	if err != nil {
		return math.NaN(), err
	}
	return s.eval(plate), nil
}

// Mismatch compares fin k's flat edges with the plate at the matching points
// and returns the maximum and mean absolute difference [K].
func (c *Coupler) Mismatch(plate, fin *thermal.Field2D, k int) (float64, float64) {
	nr, nth := c.fins[k].R.N, c.fins[k].Theta.N
	diffs := make([]float64, 0, 2*nr)
	for j := 0; j < nr; j++ {
		diffs = append(diffs,
			math.Abs(fin.At(j, 0)-c.edges[k][j].eval(plate)),
			math.Abs(fin.At(j, nth-1)-c.edges[k][nr+j].eval(plate)))
	}
	maxDiff := 0.0
	for _, d := range diffs {
		maxDiff = math.Max(maxDiff, d)
	}
	return maxDiff, stat.Mean(diffs, nil)
}

