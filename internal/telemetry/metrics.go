package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for carrier traffic.
type Metrics struct {
	CarrierRequests *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	CarrierErrors   *prometheus.CounterVec
}

// NewMetrics creates and registers the carrier metrics on reg. A nil
// registerer uses the default one.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		CarrierRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "carrierbridge_requests_total",
				Help: "Carrier HTTP requests by sub-API, method, and status code",
			},
			[]string{"api", "method", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "carrierbridge_request_duration_seconds",
				Help:    "Carrier HTTP request duration in seconds by sub-API and method",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"api", "method"},
		),
		CarrierErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "carrierbridge_errors_total",
				Help: "Carrier integration errors by sub-API and error type",
			},
			[]string{"api", "error_type"},
		),
	}
}

// RecordRequest records one carrier round trip.
func (m *Metrics) RecordRequest(api, method, status string, seconds float64) {
	m.CarrierRequests.WithLabelValues(api, method, status).Inc()
	m.RequestDuration.WithLabelValues(api, method).Observe(seconds)
}

// RecordError records a carrier error by type.
func (m *Metrics) RecordError(api, errorType string) {
	m.CarrierErrors.WithLabelValues(api, errorType).Inc()
}
