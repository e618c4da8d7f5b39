package services

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg)

	m.IncrementCounter(MetricTransactionRecorded, map[string]string{"type": "deposit", "operation": "create"})
	m.IncrementCounter(MetricTransactionRecorded, map[string]string{"type": "deposit", "operation": "create"})
	m.IncrementCounter(MetricAuthAttempt, map[string]string{"result": "success"})
	m.IncrementCounter(MetricCacheRequest, map[string]string{"cache": "balance", "result": "hit"})
	m.IncrementCounter(MetricAPIError, map[string]string{"code": "ACCOUNT_001", "endpoint": "/api/v1/accounts/:id", "status": "404"})
	m.IncrementCounter("unknown.metric", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transactionsTotal.WithLabelValues("deposit", "create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authAttemptsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheRequests.WithLabelValues("balance", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.apiErrorsTotal.WithLabelValues("ACCOUNT_001", "/api/v1/accounts/:id", "404")))
}

func TestPrometheusMetrics_Duration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg)

	m.RecordProcessingTime("transaction.create", 15*time.Millisecond)

	assert.Equal(t, 1, testutil.CollectAndCount(m.operationDuration))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "ledger_operation_duration_seconds")
}

// Nothing derived from a user's balance may reach the public /metrics page.
func TestPrometheusMetrics_ExportsNoBalances(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg)

	m.IncrementCounter(MetricCacheRequest, map[string]string{"cache": "balance", "result": "miss"})
	m.RecordProcessingTime("transaction.create", time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		assert.NotEqual(t, "GAUGE", f.GetType().String(), f.GetName())
		assert.NotContains(t, f.GetName(), "balance_read")
	}
}

func TestPrometheusMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewPrometheusMetrics(prometheus.NewRegistry())
		NewPrometheusMetrics(prometheus.NewRegistry())
	})
}
