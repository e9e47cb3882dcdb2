package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterAndObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("cgbot")
	if err := Register(reg, m); err != nil {
		t.Fatalf("Register: %v", err)
	}
	m.Fetches.Observe(1, "ok")
	m.Fetches.Observe(1, "ok")
	m.Fetches.Observe(1, "private_profile")
	m.PartialBatches.Observe(1)

	vec := m.Fetches.(*PrometheusMetric).Collector.(*prometheus.CounterVec)
	if got := testutil.ToFloat64(vec.WithLabelValues("ok")); got != 2 {
		t.Fatalf("ok fetches = %v", got)
	}
	if got := testutil.ToFloat64(m.PartialBatches); got != 1 {
		t.Fatalf("partial batches = %v", got)
	}
	if err := Register(reg, m); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}
