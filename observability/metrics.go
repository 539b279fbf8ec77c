/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L2
Logic:       Prometheus instrumentation for the admission controller
             and ingress handler: admission outcomes by reason,
             request latency, and store-backend error counts.
Root Cause:  Sprint task — /metrics endpoint.
Context:     Enables dashboards/alerting on rejection rate and
             store health without touching the hot path beyond a
             handful of counter/histogram increments.
Suitability: L2 — standard client_golang instrumentation pattern.
──────────────────────────────────────────────────────────────
*/

package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the Prometheus instrumentation surface for the gateway.
type Metrics struct {
	AdmissionTotal  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	StoreErrors     prometheus.Counter
}

// NewMetrics registers and returns the gateway's metric collectors
// against the default Prometheus registry.
func NewMetrics() *Metrics {
	return &Metrics{
		AdmissionTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sentry_gateway_admissions_total",
			Help: "Admission decisions by outcome reason.",
		}, []string{"reason"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sentry_gateway_request_duration_seconds",
			Help:    "Ingress handler latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
		StoreErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sentry_gateway_store_errors_total",
			Help: "Counter store failures observed by the admission controller.",
		}),
	}
}

// Handler returns the /metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}
