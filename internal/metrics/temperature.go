package metrics

import (
	"math"

	"github.com/san-kum/heatsim/internal/thermal"
)

// OutletTemperature reports the last observed coolant outlet temperature [K].
type OutletTemperature struct {
	last    float64
	samples int
}

func NewOutletTemperature() *OutletTemperature { return &OutletTemperature{} }

func (o *OutletTemperature) Name() string { return "outlet_temp" }

func (o *OutletTemperature) Observe(f *thermal.Fields, t float64) {
	o.last = f.Fluid.At(f.Fluid.Len() - 1)
	o.samples++
}

func (o *OutletTemperature) Value() float64 {
	if o.samples == 0 {
		return math.NaN()
	}
	return o.last
}

func (o *OutletTemperature) Reset() { *o = OutletTemperature{} }

// PeakTemperature tracks the hottest node seen in any domain [K].
type PeakTemperature struct {
	peak    float64
	samples int
}

func NewPeakTemperature() *PeakTemperature { return &PeakTemperature{} }

func (p *PeakTemperature) Name() string { return "peak_temp" }

func (p *PeakTemperature) Observe(f *thermal.Fields, t float64) {
	v := peak(f)
	if p.samples == 0 || v > p.peak {
		p.peak = v
	}
	p.samples++
}

func (p *PeakTemperature) Value() float64 {
	if p.samples == 0 {
		return math.NaN()
	}
	return p.peak
}

func (p *PeakTemperature) Reset() { *p = PeakTemperature{} }

// FinTemperature is the time-average of the mean fin temperature [K].
type FinTemperature struct {
	total   float64
	samples int
}

func NewFinTemperature() *FinTemperature { return &FinTemperature{} }

func (m *FinTemperature) Name() string { return "fin_mean_temp" }

func (m *FinTemperature) Observe(f *thermal.Fields, t float64) {
	m.total += f.FinMean()
	m.samples++
}

func (m *FinTemperature) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

func (m *FinTemperature) Reset() {
	m.total = 0
	m.samples = 0
}
