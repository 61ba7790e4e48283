package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.SettlementServed("computed")
	m.SettlementServed("computed")
	m.SettlementServed("cache")
	m.PaymentRecorded()
	m.LockWaited(10 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.settlements.WithLabelValues("computed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.settlements.WithLabelValues("cache")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.payments))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.SettlementServed("computed")
		m.PaymentRecorded()
		m.LockWaited(time.Second)
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.PaymentRecorded()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "tripsplit_payments_recorded_total 1")
}
