package sim

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/san-kum/heatsim/internal/config"
	"github.com/san-kum/heatsim/internal/coupling"
	"github.com/san-kum/heatsim/internal/grid"
	"github.com/san-kum/heatsim/internal/metrics"
	"github.com/san-kum/heatsim/internal/physics"
	"github.com/san-kum/heatsim/internal/thermal"
	"github.com/sirupsen/logrus"
)

// Simulator marches the fluid, plate and fins of one heat sink in time.
// A Simulator is not safe for concurrent use; run independent configurations
// through an Ensemble.
type Simulator struct {
	cfg       *config.Config
	grids     grid.Set
	coupler   *coupling.Coupler
	log       logrus.FieldLogger
	metrics   []Metric
	observers []Observer
}

// New validates cfg and builds the grids and the coupler. Geometry errors,
// such as a fin outside the plate, are reported here.
func New(cfg *config.Config, log logrus.FieldLogger) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	grids, err := grid.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	cpl, err := coupling.New(grids.Plate, grids.Fluid, grids.Fins)
	if err != nil {
		return nil, err
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Simulator{
		cfg:       cfg,
		grids:     grids,
		coupler:   cpl,
		log:       log,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}, nil
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Grids() grid.Set            { return s.grids }
func (s *Simulator) Config() *config.Config     { return s.cfg }
func (s *Simulator) Coupler() *coupling.Coupler { return s.coupler }

func (s *Simulator) layout() Layout {
	l := Layout{
		FluidNodes: s.grids.Fluid.X.N,
		PlateNx:    s.grids.Plate.X.N,
		PlateNy:    s.grids.Plate.Y.N,
		Fins:       len(s.grids.Fins),
	}
	if len(s.grids.Fins) > 0 {
		l.FinNr, l.FinNtheta = s.grids.Fins[0].R.N, s.grids.Fins[0].Theta.N
	}
	return l
}

// InitialFields returns every field at the initial temperature with the fluid
// inlet node at the supply temperature.
func (s *Simulator) InitialFields() *thermal.Fields {
	t0 := s.cfg.Operation.InitialTemp
	f := &thermal.Fields{
		Fluid: thermal.NewField1D(s.grids.Fluid.X.N),
		Plate: thermal.NewField2D(s.grids.Plate.X.N, s.grids.Plate.Y.N),
		Fins:  make([]*thermal.Field2D, len(s.grids.Fins)),
	}
	f.Fluid.Fill(t0)
	f.Fluid.Set(0, s.cfg.Operation.InletTemp)
	f.Plate.Fill(t0)
	for k, g := range s.grids.Fins {
		f.Fins[k] = thermal.NewField2D(g.R.N, g.Theta.N)
		f.Fins[k].Fill(t0)
	}
	return f
}

type solvers struct {
	fluid *physics.Fluid
	plate *physics.Plate
	fins  []*physics.Fin
}

func (s *Simulator) buildSolvers(plan Plan) (*solvers, error) {
	cfg := s.cfg
	op, solid := cfg.Operation, cfg.Solid

	fluid, err := physics.NewFluid(s.grids.Fluid, physics.FluidParams{
		Velocity:     op.Velocity,
		CouplingRate: cfg.CouplingRate(),
		InletTemp:    op.InletTemp,
	}, plan.PlateDt)
	if err != nil {
		return nil, err
	}
	plate, err := physics.NewPlate(s.grids.Plate, physics.PlateParams{
		Diffusivity:  solid.Diffusivity,
		Conductivity: solid.Conductivity,
		HWater:       op.HWater,
		HAir:         op.HAir,
		AmbientTemp:  op.AmbientTemp,
	}, plan.PlateDt)
	if err != nil {
		return nil, err
	}
	sv := &solvers{fluid: fluid, plate: plate, fins: make([]*physics.Fin, len(s.grids.Fins))}
	for k, g := range s.grids.Fins {
		sv.fins[k], err = physics.NewFin(g, physics.FinParams{
			Diffusivity:  solid.Diffusivity,
			Conductivity: solid.Conductivity,
			HAir:         op.HAir,
			AmbientTemp:  op.AmbientTemp,
		}, plan.FinDt, physics.EdgeDirichlet)
		if err != nil {
			return nil, fmt.Errorf("fin %d: %w", k, err)
		}
	}
	return sv, nil
}

func validateRun(rc config.RunConfig) error {
	if !(rc.MaxTime > 0) {
		return thermal.ConfigError("max time must be positive, got %g", rc.MaxTime)
	}
	if !(rc.Epsilon > 0) {
		return thermal.ConfigError("epsilon must be positive, got %g", rc.Epsilon)
	}
	if rc.SaveEvery < 1 {
		return thermal.ConfigError("save cadence must be >= 1, got %d", rc.SaveEvery)
	}
	if rc.CheckCoupling && !(rc.MismatchTolerance > 0) {
		return thermal.ConfigError("mismatch tolerance must be positive, got %g", rc.MismatchTolerance)
	}
	return nil
}

// logParams reports the dimensionless numbers each solver was built with.
// Every fin shares one grid, so the first stands for all.
func (sv *solvers) logParams(log logrus.FieldLogger) {
	log.WithFields(paramFields(sv.fluid.GetParams())).Debug("fluid solver")
	log.WithFields(paramFields(sv.plate.GetParams())).Debug("plate solver")
	if len(sv.fins) > 0 {
		log.WithFields(paramFields(sv.fins[0].GetParams())).Debug("fin solver")
	}
}

func paramFields(params map[string]float64) logrus.Fields {
	f := make(logrus.Fields, len(params))
	for k, v := range params {
		f[k] = v
	}
	return f
}

// Run marches until the global max |dT/dt| drops below rc.Epsilon or the
// simulated time reaches rc.MaxTime. The context is checked between outer
// steps. On a fatal error the partial result is returned with the error; its
// Status is left at Stepping.
func (s *Simulator) Run(ctx context.Context, rc config.RunConfig) (*Result, error) {
	if err := validateRun(rc); err != nil {
		return nil, err
	}
	plan, err := NewPlan(s.cfg, s.grids, rc.MaxTime, rc.PlateDt)
	if err != nil {
		return nil, err
	}
	sv, err := s.buildSolvers(plan)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Plan:        plan,
		Layout:      s.layout(),
		Status:      Initializing,
		Snapshots:   make([]Snapshot, 0, plan.Steps/rc.SaveEvery+2),
		Convergence: make([]ConvergenceRecord, 0, plan.Steps),
		Energy:      make([]metrics.EnergyBalance, 0),
		Diagnostics: make([]Diagnostic, 0),
		Metrics:     make(map[string]float64),
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	var balancer *metrics.Balancer
	if rc.EnergyBalance {
		balancer = metrics.NewBalancer(s.cfg, s.grids)
	}

	cur := s.InitialFields()
	next := cur.Clone()
	prev := cur.Clone()
	surface := thermal.NewField1D(s.grids.Fluid.X.N)
	fluidOnPlate := make([]float64, s.grids.Plate.X.N)

	result.Snapshots = append(result.Snapshots, takeSnapshot(cur, 0, 0))

	s.log.WithFields(logrus.Fields{
		"material":  s.cfg.Solid.Name,
		"dt_plate":  plan.PlateDt,
		"dt_fin":    plan.FinDt,
		"sub_steps": plan.SubSteps,
		"steps":     plan.Steps,
		"nodes":     s.grids.NodeCount(),
	}).Info("time-step plan")
	sv.logParams(s.log)

	result.Status = Stepping
	dt := plan.PlateDt
	t := 0.0

	for step := 1; ; step++ {
		select {
		case <-ctx.Done():
			return result, fmt.Errorf("%w at t=%.4f: %w", thermal.ErrCanceled, t, ctx.Err())
		default:
		}

		if err := prev.CopyFrom(cur); err != nil {
			return result, err
		}
		t = float64(step) * dt

		fail := func(d thermal.Domain, err error) (*Result, error) {
			return result, &thermal.SimulationError{Step: step, Time: t, Domain: d, Wrapped: err}
		}

		if err := s.coupler.SurfaceToFluid(cur.Plate, surface); err != nil {
			return fail(thermal.DomainFluid, err)
		}
		if err := sv.fluid.Step(cur.Fluid, surface, next.Fluid); err != nil {
			return fail(thermal.DomainFluid, err)
		}
		cur.Fluid, next.Fluid = next.Fluid, cur.Fluid

		if err := s.coupler.FluidToPlate(cur.Fluid, fluidOnPlate); err != nil {
			return fail(thermal.DomainPlate, err)
		}
		if err := sv.plate.Step(cur.Plate, fluidOnPlate, next.Plate); err != nil {
			return fail(thermal.DomainPlate, err)
		}
		cur.Plate, next.Plate = next.Plate, cur.Plate

		for n := 0; n < plan.SubSteps; n++ {
			if err := s.coupler.PlateToFins(cur.Plate, cur.Fins); err != nil {
				return fail(thermal.DomainFin, err)
			}
			for k, fin := range sv.fins {
				if err := fin.Step(cur.Fins[k], next.Fins[k]); err != nil {
					return fail(thermal.FinDomain(k), err)
				}
				cur.Fins[k], next.Fins[k] = next.Fins[k], cur.Fins[k]
			}
		}

		maxRate := cur.MaxAbsDiff(prev) / dt
		result.Convergence = append(result.Convergence, ConvergenceRecord{Step: step, Time: t, MaxRate: maxRate})
		result.StepsTaken = step

		switch {
		case maxRate < rc.Epsilon:
			result.Status = Converged
		case step >= plan.Steps:
			result.Status = TimedOut
		}

		for _, m := range s.metrics {
			m.Observe(cur, t)
		}

		terminal := result.Status.Terminal()
		if step%rc.SaveEvery != 0 && !terminal {
			continue
		}

		result.Snapshots = append(result.Snapshots, takeSnapshot(cur, step, t))
		if balancer != nil {
			eb := balancer.Compute(prev, cur, dt, t)
			result.Energy = append(result.Energy, eb)
			if eb.Flagged {
				s.diagnose(result, Diagnostic{
					Kind: DiagEnergyResidual, Step: step, Time: t, Value: eb.Residual,
					Message: fmt.Sprintf("energy residual %.1f%% (Q_in=%.2f W, Q_out=%.2f W, dE/dt=%.2f W)", eb.Residual*100, eb.QIn, eb.QOut, eb.DEdt),
				})
			}
		}
		if rc.CheckCoupling {
			s.checkCoupling(result, cur, step, t, rc.MismatchTolerance)
		}
		s.notify(result, cur, step, t, maxRate)

		if terminal {
			break
		}
	}

	if result.Status == Converged {
		result.Converged = true
		result.ConvergedAt = t
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.log.WithFields(logrus.Fields{
		"status":      result.Status,
		"t":           t,
		"steps":       result.StepsTaken,
		"diagnostics": len(result.Diagnostics),
	}).Info("simulation finished")

	return result, nil
}

func (s *Simulator) checkCoupling(result *Result, cur *thermal.Fields, step int, t, tol float64) {
	for k, fin := range cur.Fins {
		maxDiff, meanDiff := s.coupler.Mismatch(cur.Plate, fin, k)
		if maxDiff > tol {
			s.diagnose(result, Diagnostic{
				Kind: DiagCouplingMismatch, Step: step, Time: t, Value: maxDiff,
				Message: fmt.Sprintf("fin %d edge mismatch max=%.3f K mean=%.3f K", k, maxDiff, meanDiff),
			})
		}
	}
}

func (s *Simulator) diagnose(result *Result, d Diagnostic) {
	result.Diagnostics = append(result.Diagnostics, d)
	s.log.WithFields(logrus.Fields{"kind": d.Kind, "step": d.Step, "t": d.Time, "value": d.Value}).Warn(d.Message)
}

func (s *Simulator) notify(result *Result, cur *thermal.Fields, step int, t, maxRate float64) {
	p := Progress{
		Step:      step,
		Time:      t,
		MaxRate:   maxRate,
		FluidMean: cur.Fluid.Mean(),
		PlateMean: cur.Plate.Mean(),
		FinMean:   cur.FinMean(),
		Percent:   math.Min(100, 100*float64(step)/float64(result.Plan.Steps)),
		Status:    result.Status,
	}
	s.log.WithFields(logrus.Fields{
		"t":        p.Time,
		"max_rate": p.MaxRate,
		"fluid":    p.FluidMean,
		"plate":    p.PlateMean,
		"fins":     p.FinMean,
	}).Debug("progress")
	for _, o := range s.observers {
		o.OnProgress(p)
	}
}
