package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/heatsim/internal/config"
	"github.com/san-kum/heatsim/internal/sim"
	"github.com/san-kum/heatsim/internal/thermal"
	"github.com/sirupsen/logrus"
)

// Experiment is one configured heat-sink run.
type Experiment struct {
	cfg       *config.Config
	run       config.RunConfig
	log       logrus.FieldLogger
	simulator *sim.Simulator
}

func New(cfg *config.Config, run config.RunConfig, log logrus.FieldLogger) *Experiment {
	return &Experiment{cfg: cfg, run: run, log: log}
}

// FromPresets builds an experiment from a material and a run preset name.
func FromPresets(material, preset string, log logrus.FieldLogger) (*Experiment, error) {
	cfg, err := config.DefaultConfig().WithMaterial(material)
	if err != nil {
		return nil, err
	}
	rc, ok := config.GetRunPreset(preset)
	if !ok {
		return nil, thermal.ConfigError("unknown run preset %q (available: %v)", preset, config.ListRunPresets())
	}
	cfg.Run = rc
	return New(cfg, rc, log), nil
}

func (e *Experiment) Setup(metrics []sim.Metric, observers ...sim.Observer) error {
	s, err := sim.New(e.cfg, e.log)
	if err != nil {
		return err
	}
	for _, m := range metrics {
		s.AddMetric(m)
	}
	for _, o := range observers {
		s.AddObserver(o)
	}
	e.simulator = s
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.run)
}

func (e *Experiment) Config() *config.Config     { return e.cfg }
func (e *Experiment) RunConfig() config.RunConfig { return e.run }

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}
