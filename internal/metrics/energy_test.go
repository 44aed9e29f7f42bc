package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/heatsim/internal/config"
	"github.com/san-kum/heatsim/internal/grid"
	"github.com/san-kum/heatsim/internal/thermal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformFields(t *testing.T, set grid.Set, v float64) *thermal.Fields {
	t.Helper()
	f := &thermal.Fields{
		Fluid: thermal.NewField1D(set.Fluid.X.N),
		Plate: thermal.NewField2D(set.Plate.X.N, set.Plate.Y.N),
		Fins:  make([]*thermal.Field2D, len(set.Fins)),
	}
	f.Fluid.Fill(v)
	f.Plate.Fill(v)
	for k, g := range set.Fins {
		f.Fins[k] = thermal.NewField2D(g.R.N, g.Theta.N)
		f.Fins[k].Fill(v)
	}
	return f
}

func TestBalanceAtAmbientEquilibrium(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Operation.InletTemp = cfg.Operation.AmbientTemp
	set, err := grid.FromConfig(cfg)
	require.NoError(t, err)

	f := uniformFields(t, set, cfg.Operation.AmbientTemp)
	eb := NewBalancer(cfg, set).Compute(f, f.Clone(), 1e-3, 0.5)

	assert.Zero(t, eb.QIn)
	assert.InDelta(t, 0, eb.QOut, 1e-9)
	assert.Zero(t, eb.DEdt)
	assert.Zero(t, eb.Residual)
	assert.False(t, eb.Flagged)
	assert.Equal(t, 0.5, eb.Time)
}

func TestBalanceTerms(t *testing.T) {
	cfg := config.DefaultConfig()
	set, err := grid.FromConfig(cfg)
	require.NoError(t, err)

	prev := uniformFields(t, set, 300)
	cur := uniformFields(t, set, 301)
	dt := 0.01
	eb := NewBalancer(cfg, set).Compute(prev, cur, dt, 1)

	wantIn := cfg.MassFlow() * cfg.Water.SpecificHeat * (cfg.Operation.InletTemp - 301)
	assert.InDelta(t, wantIn, eb.QIn, 1e-9)

	dT := 301 - cfg.Operation.AmbientTemp
	wantOut := cfg.Operation.HAir * dT * (cfg.PlateAirArea() + 3*cfg.FinAirArea())
	assert.InDelta(t, wantOut, eb.QOut, 1e-9)

	// A uniform 1 K rise stores exactly ρ·cp·V for every domain's geometric volume.
	g, w := cfg.Geometry, cfg.Geometry.Width
	fluidE := cfg.Water.Density * cfg.Water.SpecificHeat * g.Length * w * g.WaterThickness
	plateE := cfg.Solid.Density * cfg.Solid.SpecificHeat * g.Length * g.BaseThickness * w
	finE := 3 * cfg.Solid.Density * cfg.Solid.SpecificHeat * math.Pi * g.FinRadius * g.FinRadius / 2 * w
	assert.InEpsilon(t, (fluidE+plateE+finE)/dt, eb.DEdt, 1e-9)

	want := math.Abs(eb.QIn-eb.QOut-eb.DEdt) / math.Abs(eb.QIn)
	assert.InDelta(t, want, eb.Residual, 1e-12)
	assert.Equal(t, want > config.ResidualThreshold, eb.Flagged)
}

func TestBalanceHalfCellBoundaries(t *testing.T) {
	cfg := config.DefaultConfig()
	set, err := grid.FromConfig(cfg)
	require.NoError(t, err)
	b := NewBalancer(cfg, set)

	ny := set.Plate.Y.N
	inner := b.plateCap[1*ny+1]
	assert.InDelta(t, inner/2, b.plateCap[1*ny], 1e-12*inner, "wetted face")
	assert.InDelta(t, inner/2, b.plateCap[1*ny+ny-1], 1e-12*inner, "air face")
	assert.InDelta(t, inner/2, b.plateCap[1], 1e-12*inner, "inlet end")
	assert.InDelta(t, inner/4, b.plateCap[0], 1e-12*inner, "corner")

	assert.Equal(t, b.fluidCap[1]/2, b.fluidCap[0])
	assert.Equal(t, b.fluidCap[1]/2, b.fluidCap[len(b.fluidCap)-1])

	fin := set.Fins[0]
	nth := fin.Theta.N
	c := b.finCap[0]
	assert.InDelta(t, c[2*nth+1]/2, c[2*nth], 1e-12*c[2*nth+1], "flat edge")
	for m := 1; m < nth; m++ {
		assert.Equal(t, c[0], c[m], "centre row shares one control volume")
	}
}

// Heating only the boundary nodes must not be counted as if they owned full
// cells: the stored energy follows the half-cell volumes.
func TestBalanceBoundaryHeating(t *testing.T) {
	cfg := config.DefaultConfig()
	set, err := grid.FromConfig(cfg)
	require.NoError(t, err)

	prev := uniformFields(t, set, 300)
	cur := prev.Clone()
	nx, ny := cur.Plate.Dims()
	for i := 0; i < nx; i++ {
		cur.Plate.Set(i, 0, 301)
		cur.Plate.Set(i, ny-1, 301)
	}
	eb := NewBalancer(cfg, set).Compute(prev, cur, 1, 0)

	// Two faces of half-thickness cells, trapezoidal along x: 2 · (L·Δy/2) · W.
	g := cfg.Geometry
	want := cfg.Solid.Density * cfg.Solid.SpecificHeat * 2 * g.Length * set.Plate.Y.Spacing / 2 * g.Width
	assert.InEpsilon(t, want, eb.DEdt, 1e-9)
}

func TestTemperatureMetrics(t *testing.T) {
	cfg := config.DefaultConfig()
	set, err := grid.FromConfig(cfg)
	require.NoError(t, err)

	f := uniformFields(t, set, 300)
	f.Fluid.Set(set.Fluid.X.N-1, 320)
	f.Fins[2].Set(4, 4, 340)

	outlet, peakT, fins, stab := NewOutletTemperature(), NewPeakTemperature(), NewFinTemperature(), NewStability(330)
	assert.True(t, math.IsNaN(outlet.Value()))

	for _, m := range []interface {
		Observe(*thermal.Fields, float64)
	}{outlet, peakT, fins, stab} {
		m.Observe(f, 0)
	}

	assert.Equal(t, 320.0, outlet.Value())
	assert.Equal(t, 340.0, peakT.Value())
	assert.InDelta(t, f.FinMean(), fins.Value(), 1e-12)
	assert.Equal(t, 0.0, stab.Value())

	stab.Reset()
	assert.Equal(t, 1.0, stab.Value())
	peakT.Reset()
	assert.True(t, math.IsNaN(peakT.Value()))
}
