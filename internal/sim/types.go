package sim

import (
	"fmt"

	"github.com/san-kum/heatsim/internal/metrics"
	"github.com/san-kum/heatsim/internal/thermal"
)

// Status is the orchestrator's state.
type Status int

const (
	Initializing Status = iota
	Stepping
	Converged
	TimedOut
)

func (s Status) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Stepping:
		return "stepping"
	case Converged:
		return "converged"
	case TimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	for _, c := range []Status{Initializing, Stepping, Converged, TimedOut} {
		if c.String() == string(b) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", b)
}

// Terminal reports whether no further steps will be taken.
func (s Status) Terminal() bool {
	return s == Converged || s == TimedOut
}

// Metric is observed once per outer step.
type Metric interface {
	Name() string
	Observe(f *thermal.Fields, t float64)
	Value() float64
	Reset()
}

// Observer receives progress at the snapshot cadence and on termination. It
// is called synchronously from the simulation goroutine.
type Observer interface {
	OnProgress(p Progress)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Progress)

func (f ObserverFunc) OnProgress(p Progress) { f(p) }

// Progress is a periodic summary of a running simulation. Temperatures are
// domain means in K.
type Progress struct {
	Step      int     `json:"step"`
	Time      float64 `json:"time"`
	MaxRate   float64 `json:"max_rate"`
	FluidMean float64 `json:"fluid_mean"`
	PlateMean float64 `json:"plate_mean"`
	FinMean   float64 `json:"fin_mean"`
	Percent   float64 `json:"percent"`
	Status    Status  `json:"status"`
}

const kelvin = 273.15

// Line formats p as t|max_rate|T_fluid|T_plate|T_fins|percent with
// temperatures in °C.
func (p Progress) Line() string {
	return fmt.Sprintf("%.2f|%.2e|%.1f|%.1f|%.1f|%.1f",
		p.Time, p.MaxRate, p.FluidMean-kelvin, p.PlateMean-kelvin, p.FinMean-kelvin, p.Percent)
}

// ConvergenceRecord is the global max |dT/dt| after one outer step [K/s].
type ConvergenceRecord struct {
	Step    int     `json:"step"`
	Time    float64 `json:"time"`
	MaxRate float64 `json:"max_rate"`
}

// Diagnostic records a non-fatal anomaly.
type Diagnostic struct {
	Kind    string  `json:"kind"`
	Step    int     `json:"step"`
	Time    float64 `json:"time"`
	Value   float64 `json:"value"`
	Message string  `json:"message"`
}

const (
	DiagEnergyResidual   = "energy_residual"
	DiagCouplingMismatch = "coupling_mismatch"
)

// Layout describes the shape of every field in a snapshot.
type Layout struct {
	FluidNodes int `json:"fluid_nodes"`
	PlateNx    int `json:"plate_nx"`
	PlateNy    int `json:"plate_ny"`
	FinNr      int `json:"fin_nr"`
	FinNtheta  int `json:"fin_ntheta"`
	Fins       int `json:"fins"`
}

// Snapshot is a copy of every field at one instant. Plate and fin values are
// laid out [i*Ny+j] and [j*Ntheta+m].
type Snapshot struct {
	Step  int         `json:"step"`
	Time  float64     `json:"time"`
	Fluid []float64   `json:"fluid"`
	Plate []float64   `json:"plate"`
	Fins  [][]float64 `json:"fins"`
}

func takeSnapshot(f *thermal.Fields, step int, t float64) Snapshot {
	s := Snapshot{
		Step:  step,
		Time:  t,
		Fluid: append([]float64(nil), f.Fluid.Values()...),
		Plate: append([]float64(nil), f.Plate.Values()...),
		Fins:  make([][]float64, len(f.Fins)),
	}
	for k, fin := range f.Fins {
		s.Fins[k] = append([]float64(nil), fin.Values()...)
	}
	return s
}

// Fields rebuilds the temperature fields of s.
func (s Snapshot) Fields(l Layout) (*thermal.Fields, error) {
	if len(s.Fluid) != l.FluidNodes || len(s.Fins) != l.Fins {
		return nil, fmt.Errorf("%w: snapshot at step %d", thermal.ErrDimensionMismatch, s.Step)
	}
	plate, err := thermal.Field2DFrom(l.PlateNx, l.PlateNy, s.Plate)
	if err != nil {
		return nil, err
	}
	f := &thermal.Fields{Fluid: thermal.Field1DFrom(s.Fluid), Plate: plate, Fins: make([]*thermal.Field2D, l.Fins)}
	for k, v := range s.Fins {
		if f.Fins[k], err = thermal.Field2DFrom(l.FinNr, l.FinNtheta, v); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Result is the bundle produced by a run.
type Result struct {
	Plan        Plan                    `json:"plan"`
	Layout      Layout                  `json:"layout"`
	Status      Status                  `json:"status"`
	Converged   bool                    `json:"converged"`
	ConvergedAt float64                 `json:"converged_at,omitempty"`
	StepsTaken  int                     `json:"steps_taken"`
	Snapshots   []Snapshot              `json:"snapshots"`
	Convergence []ConvergenceRecord     `json:"convergence"`
	Energy      []metrics.EnergyBalance `json:"energy"`
	Diagnostics []Diagnostic            `json:"diagnostics"`
	Metrics     map[string]float64      `json:"metrics"`
}

// Final returns the last snapshot.
func (r *Result) Final() (Snapshot, bool) {
	if len(r.Snapshots) == 0 {
		return Snapshot{}, false
	}
	return r.Snapshots[len(r.Snapshots)-1], true
}
