package metrics

import (
	"github.com/san-kum/heatsim/internal/thermal"
)

// Stability is the fraction of observed steps whose hottest node stayed below
// threshold [K].
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(f *thermal.Fields, t float64) {
	s.samples++
	if peak(f) > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

func peak(f *thermal.Fields) float64 {
	m := f.Fluid.Max()
	if v := f.Plate.Max(); v > m {
		m = v
	}
	for _, fin := range f.Fins {
		if v := fin.Max(); v > m {
			m = v
		}
	}
	return m
}
