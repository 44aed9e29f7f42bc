package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/heatsim/internal/metrics"
	"github.com/san-kum/heatsim/internal/sim"
)

// StabilityThreshold is the peak temperature [K] above which the stability
// metric reports a run as unstable.
const StabilityThreshold = 500.0

type Registry struct {
	metrics map[string]func() sim.Metric
}

func NewRegistry() *Registry {
	r := &Registry{metrics: make(map[string]func() sim.Metric)}

	r.metrics["outlet_temp"] = func() sim.Metric { return metrics.NewOutletTemperature() }
	r.metrics["peak_temp"] = func() sim.Metric { return metrics.NewPeakTemperature() }
	r.metrics["fin_mean_temp"] = func() sim.Metric { return metrics.NewFinTemperature() }
	r.metrics["stability"] = func() sim.Metric { return metrics.NewStability(StabilityThreshold) }

	return r
}

func (r *Registry) GetMetric(name string) (sim.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns fresh instances of every registered metric.
func (r *Registry) DefaultMetrics() []sim.Metric {
	out := make([]sim.Metric, 0, len(r.metrics))
	for _, name := range r.ListMetrics() {
		out = append(out, r.metrics[name]())
	}
	return out
}
