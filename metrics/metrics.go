package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sneakerscope"

// Invocation outcomes used as the "outcome" label.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the pipeline collectors on a dedicated registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	invocations    *prometheus.CounterVec
	itemsExtracted *prometheus.CounterVec
	itemsDropped   *prometheus.CounterVec
	sessionsActive prometheus.Gauge
	scrapeDuration *prometheus.HistogramVec
}

// New registers all collectors, plus the Go runtime collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invocations_total",
			Help:      "Scrape invocations by site and outcome.",
		}, []string{"site", "outcome"}),
		itemsExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_extracted_total",
			Help:      "Result candidates that produced a valid item.",
		}, []string{"site"}),
		itemsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_dropped_total",
			Help:      "Result candidates dropped during extraction, by reason.",
		}, []string{"site", "reason"}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Browser sessions currently open.",
		}),
		scrapeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scrape_duration_seconds",
			Help:      "Wall time of one scrape invocation.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 15, 20, 30, 60},
		}, []string{"site"}),
	}

	m.registry.MustRegister(
		m.invocations,
		m.itemsExtracted,
		m.itemsDropped,
		m.sessionsActive,
		m.scrapeDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveInvocation records one completed invocation.
func (m *Metrics) ObserveInvocation(site, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.invocations.WithLabelValues(site, outcome).Inc()
	m.scrapeDuration.WithLabelValues(site).Observe(seconds)
}

// ItemExtracted counts one valid item.
func (m *Metrics) ItemExtracted(site string) {
	if m == nil {
		return
	}
	m.itemsExtracted.WithLabelValues(site).Inc()
}

// ItemDropped counts one dropped candidate.
func (m *Metrics) ItemDropped(site, reason string) {
	if m == nil {
		return
	}
	m.itemsDropped.WithLabelValues(site, reason).Inc()
}

// SessionOpened increments the open-session gauge.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.sessionsActive.Inc()
}

// SessionClosed decrements the open-session gauge.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.sessionsActive.Dec()
}
