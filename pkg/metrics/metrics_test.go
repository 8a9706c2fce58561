package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveStore(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry(), "records", "test")

	m.ObserveStore("patient_get", time.Now(), nil)
	m.ObserveStore("patient_get", time.Now(), errors.New("boom"))
	m.ObserveStore("patient_get", time.Now(), nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues("patient_get", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues("patient_get", "error")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveStore("x", time.Now(), nil)
		m.ObserveEvent("patient.created", nil)
		m.SetBreakerState("redis", 2)
	})
}
