package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the Prometheus instruments of one rotation run. Each
// instance owns its registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	Announcements prometheus.Counter
	Resets        prometheus.Counter
	Commands      *prometheus.CounterVec
	Receives      *prometheus.CounterVec
	StoreErrors   *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		Announcements: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "announcements_total",
			Help:      "Members picked and notified.",
		}),
		Resets: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resets_total",
			Help:      "Rounds restarted because every member had served.",
		}),
		Commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Applied chat commands by type.",
		}, []string{"command"}),
		Receives: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receive_total",
			Help:      "Receive calls by outcome.",
		}, []string{"status"}),
		StoreErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Rotation log store failures by operation.",
		}, []string{"op"}),
	}
}

// Nil-safe recorders; a nil *Metrics disables instrumentation.

func (m *Metrics) ObserveAnnouncement(reset bool) {
	if m == nil {
		return
	}
	m.Announcements.Inc()
	if reset {
		m.Resets.Inc()
	}
}

func (m *Metrics) ObserveCommand(command string) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(command).Inc()
}

func (m *Metrics) ObserveReceive(status string) {
	if m == nil {
		return
	}
	m.Receives.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveStoreError(op string) {
	if m == nil {
		return
	}
	m.StoreErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
