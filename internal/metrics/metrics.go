package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ClientMetrics instruments the danshi API client and the optimistic
// mutator. One instance is shared by everything wired into a command.
type ClientMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RollbacksTotal  prometheus.Counter
}

// NewClientMetrics creates the collectors and registers them with the given
// registerer. Passing prometheus.DefaultRegisterer is the usual choice.
func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	m := &ClientMetrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "danshi",
				Subsystem: "client",
				Name:      "requests_total",
				Help:      "API requests issued, by endpoint and status class.",
			},
			[]string{"endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "danshi",
				Subsystem: "client",
				Name:      "request_duration_seconds",
				Help:      "API request latency, by endpoint.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		RollbacksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "danshi",
				Subsystem: "client",
				Name:      "optimistic_rollbacks_total",
				Help:      "Optimistic updates rolled back after a failed request.",
			},
		),
	}

	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.RollbacksTotal)
	return m
}

// ObserveRequest records one finished API request.
func (m *ClientMetrics) ObserveRequest(endpoint, status string, seconds float64) {
	m.RequestsTotal.WithLabelValues(endpoint, status).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(seconds)
}
