package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	SessionInits       *prometheus.CounterVec
	ChatTurns          *prometheus.CounterVec
	ProfileExtractions *prometheus.CounterVec
	ProfileResolutions *prometheus.CounterVec
	CompletionLatency  prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		SessionInits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_inits_total",
			Help:      "Session initializations by status.",
		}, []string{"status"}),
		ChatTurns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_turns_total",
			Help:      "Chat turns by status.",
		}, []string{"status"}),
		ProfileExtractions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profile_extractions_total",
			Help:      "Profile extractions by mode and outcome.",
		}, []string{"mode", "outcome"}),
		ProfileResolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profile_resolutions_total",
			Help:      "Latest-profile lookups by the source that answered.",
		}, []string{"source"}),
		CompletionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_latency_ms",
			Help:      "Completion call latency in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 4000, 8000, 16000, 32000},
		}),
	}
}

func (m *Metrics) IncSessionInit(status string) {
	if m == nil {
		return
	}
	m.SessionInits.WithLabelValues(status).Inc()
}

func (m *Metrics) IncChatTurn(status string) {
	if m == nil {
		return
	}
	m.ChatTurns.WithLabelValues(status).Inc()
}

func (m *Metrics) IncExtraction(mode, outcome string) {
	if m == nil {
		return
	}
	m.ProfileExtractions.WithLabelValues(mode, outcome).Inc()
}

func (m *Metrics) IncResolution(source string) {
	if m == nil {
		return
	}
	m.ProfileResolutions.WithLabelValues(source).Inc()
}

func (m *Metrics) ObserveCompletionLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.CompletionLatency.Observe(float64(d.Milliseconds()))
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
