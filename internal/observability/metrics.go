// Package observability bundles the Prometheus metrics exposed on /metrics.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the broadcast engine's metrics. All recording methods are
// nil-safe so components can run without metrics wired (unit tests drive the
// store and scheduler directly).
type Collector struct {
	gatherer prometheus.Gatherer

	SessionsCreated   prometheus.Counter
	SessionsActive    prometheus.Gauge
	SchedulerTicks    prometheus.Counter
	SchedulerFailures prometheus.Counter
	StreamSubscribers prometheus.Gauge
}

// NewCollector registers the engine metrics against reg, defaulting to the
// global Prometheus registry when nil. Tests pass a fresh registry for
// isolation.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}
	factory := promauto.With(reg)

	return &Collector{
		gatherer: gatherer,
		SessionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "tacscope_sessions_created_total",
			Help: "Total number of sessions allocated.",
		}),
		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tacscope_sessions_active",
			Help: "Current number of live sessions.",
		}),
		SchedulerTicks: factory.NewCounter(prometheus.CounterOpts{
			Name: "tacscope_scheduler_ticks_total",
			Help: "Total completed snapshot scheduler ticks across all sessions.",
		}),
		SchedulerFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "tacscope_scheduler_failures_total",
			Help: "Scheduler ticks aborted by a failure; each one stops its scheduler.",
		}),
		StreamSubscribers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tacscope_stream_subscribers",
			Help: "Currently connected stream subscribers across all sessions.",
		}),
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SessionCreated records a session allocation.
func (c *Collector) SessionCreated() {
	if c == nil {
		return
	}
	c.SessionsCreated.Inc()
	c.SessionsActive.Inc()
}

// SessionDestroyed records a session teardown.
func (c *Collector) SessionDestroyed() {
	if c == nil {
		return
	}
	c.SessionsActive.Dec()
}

// TickCompleted records one successful scheduler tick.
func (c *Collector) TickCompleted() {
	if c == nil {
		return
	}
	c.SchedulerTicks.Inc()
}

// TickFailed records a tick failure.
func (c *Collector) TickFailed() {
	if c == nil {
		return
	}
	c.SchedulerFailures.Inc()
}

// SubscriberConnected records a new stream subscriber.
func (c *Collector) SubscriberConnected() {
	if c == nil {
		return
	}
	c.StreamSubscribers.Inc()
}

// SubscriberDisconnected records a stream subscriber going away.
func (c *Collector) SubscriberDisconnected() {
	if c == nil {
		return
	}
	c.StreamSubscribers.Dec()
}
