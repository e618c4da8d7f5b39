package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric names accepted by PrometheusMetrics.
const (
	MetricTransactionRecorded = "ledger.transaction"
	MetricOperationDuration   = "ledger.operation"
	MetricAuthAttempt         = "auth.attempt"
	MetricCacheRequest        = "cache.request"
	MetricAPIError            = "api.error"
)

type PrometheusMetrics struct {
	transactionsTotal *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	authAttemptsTotal *prometheus.CounterVec
	cacheRequests     *prometheus.CounterVec
	apiErrorsTotal    *prometheus.CounterVec
}

// NewPrometheusMetrics registers the ledger collectors on reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		transactionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_transactions_total",
				Help: "Total number of ledger writes by transaction type and operation",
			},
			[]string{"type", "operation"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_operation_duration_seconds",
				Help:    "Ledger operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		authAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_attempts_total",
				Help: "Total number of authentication attempts by result",
			},
			[]string{"result"},
		),
		cacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_requests_total",
				Help: "Total number of cache lookups by cache and result",
			},
			[]string{"cache", "result"},
		),
		apiErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "api_errors_total",
				Help: "Total number of API error responses",
			},
			[]string{"code", "endpoint", "status"},
		),
	}
}

func (m *PrometheusMetrics) IncrementCounter(name string, tags map[string]string) {
	switch name {
	case MetricTransactionRecorded:
		m.transactionsTotal.WithLabelValues(tags["type"], tags["operation"]).Inc()
	case MetricAuthAttempt:
		m.authAttemptsTotal.WithLabelValues(tags["result"]).Inc()
	case MetricCacheRequest:
		m.cacheRequests.WithLabelValues(tags["cache"], tags["result"]).Inc()
	case MetricAPIError:
		m.apiErrorsTotal.WithLabelValues(tags["code"], tags["endpoint"], tags["status"]).Inc()
	}
}

// RecordProcessingTime observes duration under the operation name.
func (m *PrometheusMetrics) RecordProcessingTime(name string, duration time.Duration) {
	m.operationDuration.WithLabelValues(name).Observe(duration.Seconds())
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) IncrementCounter(string, map[string]string) {}
func (NoopMetrics) RecordProcessingTime(string, time.Duration) {}
