package physics

import (
	"math/rand"
	"testing"

	"github.com/san-kum/heatsim/internal/grid"
	"github.com/san-kum/heatsim/internal/thermal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

var aluminumFin = FinParams{
	Diffusivity:  6.87e-5,
	Conductivity: 167,
	HAir:         10,
	AmbientTemp:  ambient,
}

func finDt(g grid.Polar, alpha float64) float64 {
	dr, dth := g.R.Spacing, g.Theta.Spacing
	return 0.8 * 0.5 / (alpha * (1/(dr*dr) + 1/((dr*dth)*(dr*dth))))
}

func defaultFin(t *testing.T, mode EdgeMode) (*Fin, grid.Polar) {
	t.Helper()
	g, err := grid.NewPolar(10, 20, 0.004, 0.015, 0.01)
	require.NoError(t, err)
	f, err := NewFin(g, aluminumFin, finDt(g, aluminumFin.Diffusivity), mode)
	require.NoError(t, err)
	return f, g
}

func randomFin(g grid.Polar, rng *rand.Rand) *thermal.Field2D {
	f := thermal.NewField2D(g.R.N, g.Theta.N)
	for i := range f.Values() {
		f.Values()[i] = 296 + 20*rng.Float64()
	}
	return f
}

func TestFinStabilityBound(t *testing.T) {
	g, err := grid.NewPolar(10, 20, 0.004, 0.015, 0.01)
	require.NoError(t, err)

	dt := finDt(g, aluminumFin.Diffusivity)
	f, err := NewFin(g, aluminumFin, dt, EdgeDirichlet)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, f.WorstFourier(), 1e-12)

	_, err = NewFin(g, aluminumFin, 1.5*dt, EdgeDirichlet)
	require.ErrorIs(t, err, thermal.ErrStability)

	_, err = NewFin(g, aluminumFin, dt, EdgeMode(7))
	require.ErrorIs(t, err, thermal.ErrConfig)
}

func TestFinCentreEqualsFirstRingMean(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for _, mode := range []EdgeMode{EdgeInsulated, EdgeDirichlet} {
		f, g := defaultFin(t, mode)
		for trial := 0; trial < 25; trial++ {
			old := randomFin(g, rng)
			next := thermal.NewField2D(g.R.N, g.Theta.N)
			require.NoError(t, f.Step(old, next))

			ring := stat.Mean(next.Row(1), nil)
			for m := 0; m < g.Theta.N; m++ {
				require.Equal(t, ring, next.At(0, m), "mode %s trial %d theta %d", mode, trial, m)
			}
		}
	}
}

func TestFinDirichletEdgesKeepCoupledValues(t *testing.T) {
	f, g := defaultFin(t, EdgeDirichlet)
	rng := rand.New(rand.NewSource(7))

	old := randomFin(g, rng)
	next := thermal.NewField2D(g.R.N, g.Theta.N)
	require.NoError(t, f.Step(old, next))

	last := g.Theta.N - 1
	for j := 1; j < g.R.N; j++ {
		assert.Equal(t, old.At(j, 0), next.At(j, 0))
		assert.Equal(t, old.At(j, last), next.At(j, last))
	}
}

func TestFinInsulatedEdgesCopyNeighbours(t *testing.T) {
	f, g := defaultFin(t, EdgeInsulated)
	rng := rand.New(rand.NewSource(11))

	old := randomFin(g, rng)
	next := thermal.NewField2D(g.R.N, g.Theta.N)
	require.NoError(t, f.Step(old, next))

	last := g.Theta.N - 1
	for j := 1; j < g.R.N; j++ {
		assert.Equal(t, next.At(j, 1), next.At(j, 0))
		assert.Equal(t, next.At(j, last-1), next.At(j, last))
	}
}

func TestFinAmbientEquilibrium(t *testing.T) {
	f, g := defaultFin(t, EdgeInsulated)

	cur := thermal.NewField2D(g.R.N, g.Theta.N)
	cur.Fill(ambient)
	next := thermal.NewField2D(g.R.N, g.Theta.N)

	for step := 0; step < 100; step++ {
		require.NoError(t, f.Step(cur, next))
		cur, next = next, cur
	}
	for _, v := range cur.Values() {
		assert.InDelta(t, ambient, v, 1e-9)
	}
}

func TestFinRimLosesHeatToColderAir(t *testing.T) {
	f, g := defaultFin(t, EdgeInsulated)

	old := thermal.NewField2D(g.R.N, g.Theta.N)
	old.Fill(340)
	next := thermal.NewField2D(g.R.N, g.Theta.N)
	require.NoError(t, f.Step(old, next))

	rim := g.R.N - 1
	for m := 0; m < g.Theta.N; m++ {
		assert.Less(t, next.At(rim, m), 340.0)
		assert.Equal(t, 340.0, next.At(rim-1, m))
	}
}

func TestFinRunawayDetected(t *testing.T) {
	f, g := defaultFin(t, EdgeInsulated)

	old := thermal.NewField2D(g.R.N, g.Theta.N)
	old.Fill(300)
	old.Set(1, 10, 490)

	err := f.Step(old, thermal.NewField2D(g.R.N, g.Theta.N))
	assert.ErrorIs(t, err, thermal.ErrRunaway)
}
