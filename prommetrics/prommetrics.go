// Package prommetrics exports assignment metrics to Prometheus.
package prommetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/nearest"
	"github.com/hupe1980/nearest/resource"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "nearest"

// Collector implements nearest.MetricsCollector on Prometheus metrics.
type Collector struct {
	reg prometheus.Registerer
	ns  string

	opLatency *prometheus.HistogramVec
	ops       *prometheus.CounterVec
	sources   prometheus.Counter
	pairs     prometheus.Counter
}

var _ nearest.MetricsCollector = (*Collector)(nil)

// Option configures a Collector.
type Option func(*Collector)

// WithNamespace overrides DefaultNamespace.
func WithNamespace(ns string) Option {
	return func(c *Collector) { c.ns = ns }
}

// New creates a Collector and registers its metrics with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer, optFns ...Option) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{reg: reg, ns: DefaultNamespace}
	for _, fn := range optFns {
		fn(c)
	}

	c.opLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: c.ns,
		Name:      "operation_duration_seconds",
		Help:      "Latency of assignment operations",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"op", "status"})
	c.ops = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.ns,
		Name:      "operations_total",
		Help:      "Total assignment operations",
	}, []string{"op", "status"})
	c.sources = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: c.ns,
		Name:      "sources_assigned_total",
		Help:      "Total sources assigned a target",
	})
	c.pairs = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: c.ns,
		Name:      "distance_evaluations_total",
		Help:      "Total source-target distance evaluations",
	})

	for _, m := range []prometheus.Collector{c.opLatency, c.ops, c.sources, c.pairs} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// RecordAssign implements nearest.MetricsCollector.
func (c *Collector) RecordAssign(sources, targets int, d time.Duration, err error) {
	status := statusOf(err)
	c.opLatency.WithLabelValues("assign", status).Observe(d.Seconds())
	c.ops.WithLabelValues("assign", status).Inc()
	if err != nil {
		return
	}
	c.sources.Add(float64(sources))
	c.pairs.Add(float64(sources) * float64(targets))
}

// RecordMutual implements nearest.MetricsCollector.
func (c *Collector) RecordMutual(d time.Duration, err error) {
	status := statusOf(err)
	c.opLatency.WithLabelValues("mutual", status).Observe(d.Seconds())
	c.ops.WithLabelValues("mutual", status).Inc()
}

// WatchResources exports the controller's memory and worker usage as gauges.
func (c *Collector) WatchResources(rc *resource.Controller) error {
	gauges := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: c.ns,
			Name:      "memory_reserved_bytes",
			Help:      "Working-set memory currently reserved",
		}, func() float64 { return float64(rc.MemoryUsage()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: c.ns,
			Name:      "active_workers",
			Help:      "Worker slots currently held",
		}, func() float64 { return float64(rc.ActiveWorkers()) }),
	}
	for _, g := range gauges {
		if err := c.reg.Register(g); err != nil {
			return err
		}
	}
	return nil
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
