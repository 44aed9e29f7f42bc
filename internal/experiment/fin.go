package experiment

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/heatsim/internal/config"
	"github.com/san-kum/heatsim/internal/grid"
	"github.com/san-kum/heatsim/internal/physics"
	"github.com/san-kum/heatsim/internal/sim"
	"github.com/san-kum/heatsim/internal/thermal"
	"gonum.org/v1/gonum/stat"
)

// FinSample summarises a standalone fin field at one instant [K].
type FinSample struct {
	Step    int     `json:"step"`
	Time    float64 `json:"time"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Centre  float64 `json:"centre"`
	Surface float64 `json:"surface"`
}

// FinResult is the outcome of a standalone fin run.
type FinResult struct {
	Index   int              `json:"index"`
	Dt      float64          `json:"dt"`
	Steps   int              `json:"steps"`
	Samples []FinSample      `json:"samples"`
	Final   *thermal.Field2D `json:"-"`
}

// FinRun marches one fin alone, detached from the plate, with insulated flat
// edges. It exercises the polar solver without the rest of the system.
type FinRun struct {
	Index    int
	Initial  float64 // K
	Duration float64 // s
}

func sampleSteps(n int) map[int]bool {
	steps := map[int]bool{0: true, n - 1: true}
	for i := 1; i < 10; i++ {
		steps[int(float64(n)*math.Pow(10, float64(i-10)))] = true
	}
	return steps
}

func summarise(f *thermal.Field2D, step int, t float64) FinSample {
	nr, _ := f.Dims()
	return FinSample{
		Step:    step,
		Time:    t,
		Min:     f.Min(),
		Max:     f.Max(),
		Centre:  f.At(0, 0),
		Surface: stat.Mean(f.Row(nr-1), nil),
	}
}

// Run steps the fin at the largest stable fin step scaled by the usual safety
// factor. Samples are taken on a logarithmic schedule.
func (r FinRun) Run(ctx context.Context, cfg *config.Config) (*FinResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if r.Index < 0 || r.Index >= len(cfg.Geometry.FinCenters) {
		return nil, thermal.ConfigError("fin index %d out of range [0, %d)", r.Index, len(cfg.Geometry.FinCenters))
	}
	if !(r.Duration > 0) {
		return nil, thermal.ConfigError("duration must be positive, got %g", r.Duration)
	}
	grids, err := grid.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	plan, err := sim.NewPlan(cfg, grids, r.Duration, 0)
	if err != nil {
		return nil, err
	}
	g := grids.Fins[r.Index]
	fin, err := physics.NewFin(g, physics.FinParams{
		Diffusivity:  cfg.Solid.Diffusivity,
		Conductivity: cfg.Solid.Conductivity,
		HAir:         cfg.Operation.HAir,
		AmbientTemp:  cfg.Operation.AmbientTemp,
	}, plan.FinDtMax, physics.EdgeInsulated)
	if err != nil {
		return nil, err
	}

	dt := plan.FinDtMax
	n := int(r.Duration / dt)
	if n < 1 {
		n = 1
	}
	cur := thermal.NewField2D(g.R.N, g.Theta.N)
	cur.Fill(r.Initial)
	next := cur.Clone()

	res := &FinResult{Index: r.Index, Dt: dt, Steps: n}
	at := sampleSteps(n)
	for step := 0; step < n; step++ {
		if step%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return res, fmt.Errorf("%w: %w", thermal.ErrCanceled, err)
			}
		}
		if err := fin.Step(cur, next); err != nil {
			return res, &thermal.SimulationError{Step: step + 1, Time: float64(step+1) * dt, Domain: thermal.FinDomain(r.Index), Wrapped: err}
		}
		cur, next = next, cur
		if at[step] {
			res.Samples = append(res.Samples, summarise(cur, step+1, float64(step+1)*dt))
		}
	}
	res.Final = cur
	return res, nil
}
