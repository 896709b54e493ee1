package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementInvocation("set_user", "ok")
	m.IncrementInvocation("set_user", "ok")
	m.IncrementInvocation("set_user", "forbidden")
	m.IncrementAuditFailure("set_application")
	m.ObserveDuration("get_application", 3*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Invocations.WithLabelValues("set_user", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Invocations.WithLabelValues("set_user", "forbidden")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditFailures.WithLabelValues("set_application")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Duration))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.IncrementInvocation("set_user", "ok")
	m.ObserveDuration("set_user", time.Second)
	m.IncrementAuditFailure("set_user")
}
