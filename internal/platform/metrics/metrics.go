package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Verification outcomes used as the "outcome" label.
const (
	OutcomeVerified     = "verified"
	OutcomeNoop         = "noop"
	OutcomeUnauthorized = "unauthorized"
	OutcomeNoSuchOwner  = "no_such_owner"
)

// Metrics holds the registry's Prometheus collectors.
type Metrics struct {
	OwnersRegistered prometheus.Counter
	PropertiesAdded  prometheus.Counter
	Verifications    *prometheus.CounterVec
	OperationLatency *prometheus.HistogramVec
	HTTPLatency      *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction never collides.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OwnersRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "proptoken_owners_registered_total",
			Help: "Total number of owners registered in the property registry",
		}),
		PropertiesAdded: factory.NewCounter(prometheus.CounterOpts{
			Name: "proptoken_properties_added_total",
			Help: "Total number of property records appended",
		}),
		Verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "proptoken_verifications_total",
			Help: "Verification attempts by outcome",
		}, []string{"outcome"}),
		OperationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "proptoken_operation_duration_seconds",
			Help:    "Duration of registry service operations",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}, []string{"operation"}),
		HTTPLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "proptoken_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) IncrementOwnersRegistered() {
	m.OwnersRegistered.Inc()
}

func (m *Metrics) IncrementPropertiesAdded() {
	m.PropertiesAdded.Inc()
}

// RecordVerification counts one verification attempt.
func (m *Metrics) RecordVerification(outcome string) {
	m.Verifications.WithLabelValues(outcome).Inc()
}

// ObserveOperation records how long operation took.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.OperationLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveHTTP(method, route, status string, d time.Duration) {
	m.HTTPLatency.WithLabelValues(method, route, status).Observe(d.Seconds())
}
