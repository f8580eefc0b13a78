package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/relaygate/tbucket"
)

// Reporter polls a limiter's metrics on an interval and republishes them
// as Prometheus gauges, labeled by limiter name.
type Reporter struct {
	available Gauge
	waiting   Gauge
}

// NewReporter registers the gauge vectors a Reporter needs.
func NewReporter() *Reporter {
	return &Reporter{
		available: NewGauge(prometheus.GaugeOpts{
			Namespace: "tbucket",
			Name:      "available_permissions",
			Help:      "Current permit balance for the active cycle.",
		}, []string{"limiter"}),
		waiting: NewGauge(prometheus.GaugeOpts{
			Namespace: "tbucket",
			Name:      "waiting_threads",
			Help:      "Goroutines currently parked waiting for a reservation to mature.",
		}, []string{"limiter"}),
	}
}

// Sample records one observation for l.
func (r *Reporter) Sample(l *tbucket.Limiter) {
	m := l.Metrics()
	r.available.With("limiter", l.Name()).Set(float64(m.AvailablePermissions))
	r.waiting.With("limiter", l.Name()).Set(float64(m.WaitingThreads))
}

// Run polls l every interval until ctx is cancelled.
func (r *Reporter) Run(ctx context.Context, interval time.Duration, l *tbucket.Limiter) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.Sample(l)
		case <-ctx.Done():
			return
		}
	}
}

// EventCounters are the three counters a PrometheusSink bumps; kept
// separate from Reporter since they update on every event rather than
// on a timer.
type EventCounters struct {
	Success Counter
	Failure Counter
	Drained Counter
}

// NewEventCounters registers the counter vector used by PrometheusSink.
func NewEventCounters() *EventCounters {
	base := NewCounter(prometheus.CounterOpts{
		Namespace: "tbucket",
		Name:      "events_total",
		Help:      "Count of limiter events by outcome.",
	}, []string{"limiter", "outcome"})

	return &EventCounters{
		Success: base.With("outcome", "success"),
		Failure: base.With("outcome", "failure"),
		Drained: base.With("outcome", "drained"),
	}
}

// PrometheusSink implements tbucket.EventSink by bumping EventCounters.
type PrometheusSink struct {
	counters *EventCounters
}

// NewPrometheusSink wraps counters as an EventSink.
func NewPrometheusSink(counters *EventCounters) *PrometheusSink {
	return &PrometheusSink{counters: counters}
}

func (s *PrometheusSink) Publish(ev tbucket.Event) {
	switch e := ev.(type) {
	case tbucket.SuccessEvent:
		s.counters.Success.With("limiter", e.LimiterName).Add(1)
	case tbucket.FailureEvent:
		s.counters.Failure.With("limiter", e.LimiterName).Add(1)
	case tbucket.DrainedEvent:
		s.counters.Drained.With("limiter", e.LimiterName).Add(1)
	}
}
