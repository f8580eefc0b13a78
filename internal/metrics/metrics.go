// Package metrics exposes a Limiter's behavior as Prometheus series: a
// counter per event kind, and gauges sampled from (*tbucket.Limiter).Metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LabelValues is an immutable, ordered set of alternating label/value
// pairs, built up one With call at a time so a metric wrapper can be
// handed down through several layers of a program without mutating a
// shared slice underneath a concurrent caller.
type LabelValues []string

// With returns a new LabelValues with the given pairs appended.
func (lvs LabelValues) With(labelValues ...string) LabelValues {
	if len(labelValues)%2 != 0 {
		labelValues = append(labelValues, "unknown")
	}
	next := make(LabelValues, 0, len(lvs)+len(labelValues))
	next = append(next, lvs...)
	next = append(next, labelValues...)
	return next
}

func (lvs LabelValues) toLabels() prometheus.Labels {
	labels := prometheus.Labels{}
	for i := 0; i < len(lvs); i += 2 {
		labels[lvs[i]] = lvs[i+1]
	}
	return labels
}

// Counter is a monotonically increasing metric, e.g. permits granted.
type Counter interface {
	With(labelValues ...string) Counter
	Add(delta float64)
}

// Gauge is a metric that can move in either direction, e.g. the current
// permit balance.
type Gauge interface {
	With(labelValues ...string) Gauge
	Set(value float64)
	Add(delta float64)
}

// counter implements Counter via a Prometheus CounterVec.
type counter struct {
	cv  *prometheus.CounterVec
	lvs LabelValues
}

// NewCounter registers a new CounterVec and wraps it as a Counter.
func NewCounter(opts prometheus.CounterOpts, labelNames []string) Counter {
	return &counter{cv: promauto.NewCounterVec(opts, labelNames)}
}

func (c *counter) With(labelValues ...string) Counter {
	return &counter{cv: c.cv, lvs: c.lvs.With(labelValues...)}
}

func (c *counter) Add(delta float64) {
	c.cv.With(c.lvs.toLabels()).Add(delta)
}

// gauge implements Gauge via a Prometheus GaugeVec.
type gauge struct {
	gv  *prometheus.GaugeVec
	lvs LabelValues
}

// NewGauge registers a new GaugeVec and wraps it as a Gauge.
func NewGauge(opts prometheus.GaugeOpts, labelNames []string) Gauge {
	return &gauge{gv: promauto.NewGaugeVec(opts, labelNames)}
}

func (g *gauge) With(labelValues ...string) Gauge {
	return &gauge{gv: g.gv, lvs: g.lvs.With(labelValues...)}
}

func (g *gauge) Set(value float64) { g.gv.With(g.lvs.toLabels()).Set(value) }
func (g *gauge) Add(delta float64) { g.gv.With(g.lvs.toLabels()).Add(delta) }
