// Package metrics collects Prometheus metrics for the patient event pipeline.
package metrics

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics interface used by the orchestrator and the
// aggregator. A no-op implementation is available via Nop.
type Recorder interface {
	EventPublished(kind string)
	EventPublishFailed(kind string)
	EventConsumed(kind string)
	EventMalformed()
	CompensationRun(operation string)
}

// Collector implements Recorder on top of a Prometheus registry.
type Collector struct {
	published    *prometheus.CounterVec
	publishFail  *prometheus.CounterVec
	consumed     *prometheus.CounterVec
	malformed    prometheus.Counter
	compensation *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "patient_events_published_total",
			Help: "Lifecycle events handed off to the event bus, by kind.",
		}, []string{"kind"}),
		publishFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "patient_events_publish_failures_total",
			Help: "Lifecycle event publishes that failed (swallowed), by kind.",
		}, []string{"kind"}),
		consumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "patient_events_consumed_total",
			Help: "Lifecycle events folded into analytics buckets, by kind.",
		}, []string{"kind"}),
		malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "patient_events_malformed_total",
			Help: "Event payloads dropped because they could not be decoded.",
		}),
		compensation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "patient_saga_compensations_total",
			Help: "Compensating actions attempted, by operation.",
		}, []string{"operation"}),
	}

	reg.MustRegister(
		c.published,
		c.publishFail,
		c.consumed,
		c.malformed,
		c.compensation,
	)

	return c
}

func (c *Collector) EventPublished(kind string) {
	c.published.WithLabelValues(kind).Inc()
}

func (c *Collector) EventPublishFailed(kind string) {
	c.publishFail.WithLabelValues(kind).Inc()
}

func (c *Collector) EventConsumed(kind string) {
	c.consumed.WithLabelValues(kind).Inc()
}

func (c *Collector) EventMalformed() {
	c.malformed.Inc()
}

func (c *Collector) CompensationRun(operation string) {
	c.compensation.WithLabelValues(operation).Inc()
}

// Handler returns an echo handler serving the Prometheus text exposition for
// the given registry.
func Handler(reg *prometheus.Registry) echo.HandlerFunc {
	h := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return func(c echo.Context) error {
		h.ServeHTTP(c.Response(), c.Request())
		return nil
	}
}

// Nop is a Recorder that discards every observation. Used in tests and as a
// default when a caller passes nil.
type Nop struct{}

func (Nop) EventPublished(string)     {}
func (Nop) EventPublishFailed(string) {}
func (Nop) EventConsumed(string)      {}
func (Nop) EventMalformed()           {}
func (Nop) CompensationRun(string)    {}
