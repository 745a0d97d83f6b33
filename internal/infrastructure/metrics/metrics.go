package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Frame outcomes
const (
	OutcomeMalformed     = "malformed"
	OutcomeInvalid       = "invalid"
	OutcomePublished     = "published"
	OutcomePublishFailed = "publish_failed"
	OutcomeUnsupported   = "unsupported"
)

// Metrics defines the Prometheus collectors of the endpoint
type Metrics struct {
	registry        *prometheus.Registry
	framesTotal     *prometheus.CounterVec
	publishDuration *prometheus.HistogramVec
	activeSessions  prometheus.Gauge
	sessionsTotal   prometheus.Counter
	rateLimited     prometheus.Counter
}

func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		framesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "itinerary_frames_total",
			Help:      "Inbound itinerary frames by outcome.",
		}, []string{"outcome"}),
		publishDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "itinerary_publish_duration_seconds",
			Help:      "Duration of broker publish attempts, connection setup included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_active_sessions",
			Help:      "Currently open itinerary sessions.",
		}),
		sessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "websocket_sessions_total",
			Help:      "Itinerary sessions accepted since start.",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.framesTotal,
		m.publishDuration,
		m.activeSessions,
		m.sessionsTotal,
		m.rateLimited,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveFrame(outcome string) {
	m.framesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObservePublish(d time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.publishDuration.WithLabelValues(result).Observe(d.Seconds())
}

func (m *Metrics) SessionOpened() {
	m.sessionsTotal.Inc()
	m.activeSessions.Inc()
}

func (m *Metrics) SessionClosed() {
	m.activeSessions.Dec()
}

func (m *Metrics) RateLimited() {
	m.rateLimited.Inc()
}
