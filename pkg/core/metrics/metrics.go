// Package metrics exposes command pipeline metrics in the prometheus
// format.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	mdwerror "github.com/msto63/netplane/foundation/core/error"
	"github.com/msto63/netplane/foundation/rcl/executor"
)

const namespace = "netplane"

// Metrics holds the command pipeline collectors
type Metrics struct {
	registry *prometheus.Registry

	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry
// together with the go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		CommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "commands",
				Name:      "total",
				Help:      "Commands executed by the control plane",
			},
			[]string{"action", "type", "result"},
		),

		CommandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "commands",
				Name:      "duration_seconds",
				Help:      "Time from submission to completion",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"action"},
		),
	}

	m.registry.MustRegister(
		m.CommandsTotal,
		m.CommandDuration,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the prometheus registry backing m
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// GaugeFunc registers a gauge whose value is read on every scrape
func (m *Metrics) GaugeFunc(subsystem, name, help string, fn func() float64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, fn))
}

// CommandExecuted records one finished command
func (m *Metrics) CommandExecuted(o executor.Outcome) {
	result := "ok"
	if o.Err != nil {
		result = string(mdwerror.GetCode(o.Err))
		if result == "" {
			result = "error"
		}
	}

	action := o.Action.String()
	m.CommandsTotal.WithLabelValues(action, o.Type.String(), result).Inc()
	m.CommandDuration.WithLabelValues(action).Observe(o.Duration.Seconds())
}

var _ executor.Observer = (*Metrics)(nil)
