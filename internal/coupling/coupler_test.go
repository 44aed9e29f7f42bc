package coupling

import (
	"testing"

	"github.com/san-kum/heatsim/internal/grid"
	"github.com/san-kum/heatsim/internal/thermal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultGrids(t *testing.T, fluidNodes int, fluidLength float64) (grid.Cartesian, grid.Line, []grid.Polar) {
	t.Helper()
	plate, err := grid.NewCartesian(60, 20, 0.03, 0.01)
	require.NoError(t, err)
	fluid, err := grid.NewLine(fluidNodes, fluidLength)
	require.NoError(t, err)
	fins := make([]grid.Polar, 3)
	for k, xc := range []float64{0.005, 0.015, 0.025} {
		fins[k], err = grid.NewPolar(10, 20, 0.004, xc, 0.01)
		require.NoError(t, err)
	}
	return plate, fluid, fins
}

// linearPlate fills T = 300 + 1000·x + 500·y, which bilinear interpolation
// reproduces exactly.
func linearPlate(g grid.Cartesian) *thermal.Field2D {
	f := thermal.NewField2D(g.X.N, g.Y.N)
	for i := 0; i < g.X.N; i++ {
		for j := 0; j < g.Y.N; j++ {
			f.Set(i, j, 300+1000*g.X.Coord(i)+500*g.Y.Coord(j))
		}
	}
	return f
}

func TestSurfaceToFluidSameGrid(t *testing.T) {
	plate, fluid, fins := defaultGrids(t, 60, 0.03)
	c, err := New(plate, fluid, fins)
	require.NoError(t, err)

	field := linearPlate(plate)
	dst := thermal.NewField1D(fluid.X.N)
	require.NoError(t, c.SurfaceToFluid(field, dst))

	for i := 0; i < fluid.X.N; i++ {
		assert.Equal(t, field.At(i, 0), dst.At(i))
	}
}

func TestSurfaceToFluidInterpolatesAndHoldsEnds(t *testing.T) {
	plate, fluid, fins := defaultGrids(t, 41, 0.04)
	c, err := New(plate, fluid, fins)
	require.NoError(t, err)

	field := linearPlate(plate)
	dst := thermal.NewField1D(fluid.X.N)
	require.NoError(t, c.SurfaceToFluid(field, dst))

	for i := 0; i < fluid.X.N; i++ {
		x := fluid.X.Coord(i)
		if x <= 0.03 {
			assert.InDelta(t, 300+1000*x, dst.At(i), 1e-9, "x=%g", x)
		} else {
			assert.Equal(t, field.At(plate.X.N-1, 0), dst.At(i), "x=%g", x)
		}
	}
}

func TestFluidToPlateRoundTripOnSameGrid(t *testing.T) {
	plate, fluid, fins := defaultGrids(t, 60, 0.03)
	c, err := New(plate, fluid, fins)
	require.NoError(t, err)

	src := thermal.NewField1D(fluid.X.N)
	for i := 0; i < fluid.X.N; i++ {
		src.Set(i, 353.15-0.1*float64(i))
	}
	dst := make([]float64, plate.X.N)
	require.NoError(t, c.FluidToPlate(src, dst))
	assert.Equal(t, src.Values(), dst)

	err = c.FluidToPlate(src, make([]float64, 3))
	assert.ErrorIs(t, err, thermal.ErrDimensionMismatch)
}

func TestPlateToFinsBoundaryFidelity(t *testing.T) {
	plate, fluid, fins := defaultGrids(t, 60, 0.03)
	c, err := New(plate, fluid, fins)
	require.NoError(t, err)

	field := linearPlate(plate)
	finFields := make([]*thermal.Field2D, len(fins))
	for k := range finFields {
		finFields[k] = thermal.NewField2D(10, 20)
		finFields[k].Fill(296.15)
	}

	require.NoError(t, c.PlateToFins(field, finFields))

	for k, g := range fins {
		for j := 0; j < g.R.N; j++ {
			for _, atPi := range []bool{false, true} {
				x, y := g.EdgePoint(j, atPi)
				m := 0
				if atPi {
					m = g.Theta.N - 1
				}
				want, err := c.Sample(field, x, y)
				require.NoError(t, err)
				assert.Equal(t, want, finFields[k].At(j, m))
				assert.InDelta(t, 300+1000*x+500*y, finFields[k].At(j, m), 1e-9)
			}
		}
		// interior angular rows are untouched
		assert.Equal(t, 296.15, finFields[k].At(5, 10))

		maxDiff, meanDiff := c.Mismatch(field, finFields[k], k)
		assert.Zero(t, maxDiff)
		assert.Zero(t, meanDiff)
	}
}

func TestMismatchReportsDeviation(t *testing.T) {
	plate, fluid, fins := defaultGrids(t, 60, 0.03)
	c, err := New(plate, fluid, fins)
	require.NoError(t, err)

	field := thermal.NewField2D(plate.X.N, plate.Y.N)
	field.Fill(320)
	fin := thermal.NewField2D(10, 20)
	fin.Fill(320)
	fin.Set(3, 0, 322)

	maxDiff, meanDiff := c.Mismatch(field, fin, 1)
	assert.InDelta(t, 2.0, maxDiff, 1e-12)
	assert.InDelta(t, 2.0/20, meanDiff, 1e-12)
}

func TestFinOutsidePlateIsConfigError(t *testing.T) {
	plate, fluid, _ := defaultGrids(t, 60, 0.03)
	outside, err := grid.NewPolar(10, 20, 0.004, 0.028, 0.01)
	require.NoError(t, err)

	_, err = New(plate, fluid, []grid.Polar{outside})
	assert.ErrorIs(t, err, thermal.ErrConfig)
	assert.ErrorIs(t, err, thermal.ErrOutOfDomain)

	c, err := New(plate, fluid, nil)
	require.NoError(t, err)
	_, err = c.Sample(thermal.NewField2D(plate.X.N, plate.Y.N), 0.015, 0.02)
	assert.ErrorIs(t, err, thermal.ErrOutOfDomain)
}
