// Package metrics собирает счётчики сервиса для Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics хранит коллекторы и собственный реестр.
type Metrics struct {
	registry *prometheus.Registry

	AllocationWarnings *prometheus.CounterVec // по месту вызова: authoring|delivery
	AllocationOverride prometheus.Counter
	QuoteActions       *prometheus.CounterVec // по типу действия
	QuotesPublished    prometheus.Counter
	EmailFailures      prometheus.Counter
	RequestDuration    *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		AllocationWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "proposal_allocation_warnings_total",
			Help: "Hour commitments rejected with an over-allocation warning.",
		}, []string{"site"}),
		AllocationOverride: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "proposal_allocation_overrides_total",
			Help: "Time entries written over budget after confirmation.",
		}),
		QuoteActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "proposal_quote_actions_total",
			Help: "Client actions recorded on published quotes.",
		}, []string{"action"}),
		QuotesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "proposal_quotes_published_total",
			Help: "Access codes issued for quotes.",
		}),
		EmailFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "proposal_email_failures_total",
			Help: "Outbound emails that failed to send.",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "proposal_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.AllocationWarnings,
		m.AllocationOverride,
		m.QuoteActions,
		m.QuotesPublished,
		m.EmailFailures,
		m.RequestDuration,
	)
	return m
}

// Handler отдаёт метрики в формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest записывает длительность обработанного запроса.
func (m *Metrics) ObserveRequest(method string, status int, elapsed time.Duration) {
	m.RequestDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
