package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for engine invocations.
type Metrics struct {
	// Invocations by operation and outcome (ok or an error code)
	Invocations *prometheus.CounterVec

	// Invocation latency by operation
	Duration *prometheus.HistogramVec

	// Audit events that could not be emitted after a committed write
	AuditFailures *prometheus.CounterVec
}

// New registers the engine metrics with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Invocations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "datagate_engine_invocations_total",
			Help: "Total engine invocations by operation and outcome",
		}, []string{"operation", "outcome"}),

		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "datagate_engine_invocation_duration_seconds",
			Help:    "Duration of engine invocations by operation",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),

		AuditFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "datagate_engine_audit_failures_total",
			Help: "Audit events dropped after a committed operation",
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementInvocation(operation, outcome string) {
	if m != nil {
		m.Invocations.WithLabelValues(operation, outcome).Inc()
	}
}

func (m *Metrics) ObserveDuration(operation string, d time.Duration) {
	if m != nil {
		m.Duration.WithLabelValues(operation).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementAuditFailure(operation string) {
	if m != nil {
		m.AuditFailures.WithLabelValues(operation).Inc()
	}
}
