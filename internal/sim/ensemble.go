package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/heatsim/internal/config"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Ensemble runs independent configurations concurrently. Every member gets its
// own Simulator; nothing is shared between them except the logger.
type Ensemble struct {
	configs    []*config.Config
	log        logrus.FieldLogger
	newMetrics func() []Metric
	limit      int
}

func NewEnsemble(log logrus.FieldLogger, configs ...*config.Config) *Ensemble {
	return &Ensemble{configs: configs, log: log, limit: -1}
}

// WithMetrics sets a factory called once per member. Metrics hold state, so
// each member needs fresh instances.
func (e *Ensemble) WithMetrics(f func() []Metric) *Ensemble {
	e.newMetrics = f
	return e
}

// WithLimit caps the number of members running at once. n <= 0 removes the
// cap.
func (e *Ensemble) WithLimit(n int) *Ensemble {
	if n <= 0 {
		n = -1
	}
	e.limit = n
	return e
}

func (e *Ensemble) Size() int { return len(e.configs) }

// Run returns one result per configuration, in order. The first failure
// cancels the remaining members.
func (e *Ensemble) Run(ctx context.Context, rc config.RunConfig) ([]*Result, error) {
	results := make([]*Result, len(e.configs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)
	for i, cfg := range e.configs {
		g.Go(func() error {
			var log logrus.FieldLogger
			if e.log != nil {
				log = e.log.WithFields(logrus.Fields{"member": i, "material": cfg.Solid.Name})
			}
			s, err := New(cfg, log)
			if err != nil {
				return fmt.Errorf("member %d: %w", i, err)
			}
			if e.newMetrics != nil {
				for _, m := range e.newMetrics() {
					s.AddMetric(m)
				}
			}
			res, err := s.Run(ctx, rc)
			if err != nil {
				return fmt.Errorf("member %d (%s): %w", i, cfg.Solid.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
