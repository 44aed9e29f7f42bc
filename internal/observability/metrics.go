// Package observability exposes simulation progress as Prometheus gauges.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/san-kum/heatsim/internal/sim"
)

// Collector bundles the run gauges. It implements sim.Observer so a simulator
// can drive it directly.
type Collector struct {
	gatherer prometheus.Gatherer

	SimTime    prometheus.Gauge
	Step       prometheus.Gauge
	MaxRate    prometheus.Gauge
	Progress   prometheus.Gauge
	MeanTemp   *prometheus.GaugeVec
	Reports    prometheus.Counter
	Terminated *prometheus.CounterVec
}

// NewCollector registers the gauges against reg, defaulting to the global
// Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	gauge := func(name, help string) (prometheus.Gauge, error) {
		return register(reg, prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help}), name)
	}

	c := &Collector{gatherer: gatherer}
	var err error
	if c.SimTime, err = gauge("heatsim_time_seconds", "Simulated time of the current run."); err != nil {
		return nil, err
	}
	if c.Step, err = gauge("heatsim_step", "Outer step of the current run."); err != nil {
		return nil, err
	}
	if c.MaxRate, err = gauge("heatsim_max_rate_kelvin_per_second", "Global max |dT/dt| after the last step."); err != nil {
		return nil, err
	}
	if c.Progress, err = gauge("heatsim_progress_percent", "Fraction of the time budget consumed."); err != nil {
		return nil, err
	}
	if c.MeanTemp, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "heatsim_mean_temperature_kelvin",
		Help: "Mean temperature per domain.",
	}, []string{"domain"}), "heatsim_mean_temperature_kelvin"); err != nil {
		return nil, err
	}
	if c.Reports, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "heatsim_progress_reports_total",
		Help: "Progress reports received.",
	}), "heatsim_progress_reports_total"); err != nil {
		return nil, err
	}
	if c.Terminated, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "heatsim_runs_total",
		Help: "Finished runs by terminal status.",
	}, []string{"status"}), "heatsim_runs_total"); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Collector) OnProgress(p sim.Progress) {
	if c == nil {
		return
	}
	c.SimTime.Set(p.Time)
	c.Step.Set(float64(p.Step))
	c.MaxRate.Set(p.MaxRate)
	c.Progress.Set(p.Percent)
	c.MeanTemp.WithLabelValues("fluid").Set(p.FluidMean)
	c.MeanTemp.WithLabelValues("plate").Set(p.PlateMean)
	c.MeanTemp.WithLabelValues("fins").Set(p.FinMean)
	c.Reports.Inc()
	if p.Status.Terminal() {
		c.Terminated.WithLabelValues(p.Status.String()).Inc()
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func register[T prometheus.Collector](reg prometheus.Registerer, col T, name string) (T, error) {
	if err := reg.Register(col); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return col, nil
}
