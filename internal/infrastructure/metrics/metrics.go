// Package metrics exposes Prometheus instruments for quota decisions,
// rate limiting, provider calls and daily usage.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docsphere"

// Metrics owns a private registry. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	quotaDecisions   *prometheus.CounterVec
	rateLimitDenials prometheus.Counter
	duplicates       prometheus.Counter
	providerLatency  *prometheus.HistogramVec
	dailyUsage       *prometheus.GaugeVec
	dailyTenants     prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		quotaDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_decisions_total",
			Help:      "Quota gate evaluations by gate and outcome.",
		}, []string{"gate", "outcome"}),
		rateLimitDenials: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_denials_total",
			Help:      "Requests rejected by the per-tenant rate limiter.",
		}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_requests_total",
			Help:      "Requests rejected by the idempotency guard.",
		}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Retrieval provider call latency.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"operation", "result"}),
		dailyUsage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "usage_previous_day",
			Help:      "Usage totals across all tenants for the previous business day.",
		}, []string{"counter"}),
		dailyTenants: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "usage_previous_day_active_tenants",
			Help:      "Tenants with any usage on the previous business day.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.quotaDecisions,
		m.rateLimitDenials,
		m.duplicates,
		m.providerLatency,
		m.dailyUsage,
		m.dailyTenants,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveQuotaDecision(gate, outcome string) {
	if m == nil {
		return
	}
	m.quotaDecisions.WithLabelValues(gate, outcome).Inc()
}

func (m *Metrics) IncRateLimitDenied() {
	if m == nil {
		return
	}
	m.rateLimitDenials.Inc()
}

func (m *Metrics) IncDuplicateRequest() {
	if m == nil {
		return
	}
	m.duplicates.Inc()
}

func (m *Metrics) ObserveProvider(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.providerLatency.WithLabelValues(operation, result).Observe(time.Since(started).Seconds())
}

// DailyUsage is the input to SetDailyUsage.
type DailyUsage struct {
	Tenants       int
	Messages      int64
	TokensIn      int64
	TokensOut     int64
	CharsUploaded int64
}

func (m *Metrics) SetDailyUsage(u DailyUsage) {
	if m == nil {
		return
	}
	m.dailyTenants.Set(float64(u.Tenants))
	m.dailyUsage.WithLabelValues("messages").Set(float64(u.Messages))
	m.dailyUsage.WithLabelValues("tokens_in").Set(float64(u.TokensIn))
	m.dailyUsage.WithLabelValues("tokens_out").Set(float64(u.TokensOut))
	m.dailyUsage.WithLabelValues("chars_uploaded").Set(float64(u.CharsUploaded))
}
