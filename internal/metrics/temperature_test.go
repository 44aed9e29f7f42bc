package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/heatsim/internal/thermal"
	"github.com/stretchr/testify/assert"
)

func smallFields(fluid, plate, fin float64) *thermal.Fields {
	f := &thermal.Fields{
		Fluid: thermal.NewField1D(4),
		Plate: thermal.NewField2D(4, 3),
		Fins:  []*thermal.Field2D{thermal.NewField2D(3, 4), thermal.NewField2D(3, 4)},
	}
	f.Fluid.Fill(fluid)
	f.Plate.Fill(plate)
	for _, g := range f.Fins {
		g.Fill(fin)
	}
	return f
}

func TestTemperatureMetricsEmpty(t *testing.T) {
	assert.True(t, math.IsNaN(NewOutletTemperature().Value()))
	assert.True(t, math.IsNaN(NewPeakTemperature().Value()))
	assert.Zero(t, NewFinTemperature().Value())
	assert.Equal(t, 1.0, NewStability(400).Value())
}

func TestOutletTemperature(t *testing.T) {
	m := NewOutletTemperature()
	f := smallFields(350, 300, 300)
	f.Fluid.Set(3, 340)
	m.Observe(f, 0.1)
	f.Fluid.Set(3, 338)
	m.Observe(f, 0.2)

	assert.Equal(t, "outlet_temp", m.Name())
	assert.Equal(t, 338.0, m.Value())

	m.Reset()
	assert.True(t, math.IsNaN(m.Value()))
}

func TestPeakTemperature(t *testing.T) {
	m := NewPeakTemperature()
	f := smallFields(320, 310, 300)
	f.Fins[1].Set(2, 1, 360)
	m.Observe(f, 0)
	m.Observe(smallFields(330, 300, 300), 1)

	assert.Equal(t, 360.0, m.Value())
}

func TestFinTemperatureAverage(t *testing.T) {
	m := NewFinTemperature()
	m.Observe(smallFields(350, 300, 300), 0)
	m.Observe(smallFields(350, 300, 310), 1)

	assert.InDelta(t, 305, m.Value(), 1e-12)
	m.Reset()
	assert.Zero(t, m.Value())
}

func TestStability(t *testing.T) {
	m := NewStability(340)
	m.Observe(smallFields(330, 300, 300), 0)
	m.Observe(smallFields(350, 300, 300), 1)
	m.Observe(smallFields(335, 300, 300), 2)
	m.Observe(smallFields(320, 300, 300), 3)

	assert.Equal(t, "stability", m.Name())
	assert.InDelta(t, 0.75, m.Value(), 1e-12)
}
