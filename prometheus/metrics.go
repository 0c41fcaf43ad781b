package prometheus

import (
	"net/http"
	"time"

	"opportunity-service/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Tenant context metrics
	InvalidTenantCounter prometheus.Counter

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Opportunity ledger metrics
	OpportunityOperationsCounter prometheus.CounterVec

	// Due actions classified by urgency tier, observed on each list call
	DueActionsByUrgencyCounter prometheus.CounterVec

	// Demo data reset metrics
	DemoResetCounter prometheus.Counter
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	// Use metric prefix from configuration
	prefix := config.Metrics.Prefix

	// HTTP request metrics
	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request duration
	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Tenant context metrics
	InvalidTenantCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_invalid_tenant_total",
			Help: "Total number of requests with a missing or malformed tenant identifier",
		},
	)

	// Database operation metrics
	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	// Opportunity ledger metrics
	OpportunityOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_operations_total",
			Help: "Total number of opportunity ledger operations",
		},
		[]string{"operation"},
	)

	// Urgency tiers of listed due actions
	DueActionsByUrgencyCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_due_actions_by_urgency_total",
			Help: "Due actions returned by the dashboard, by urgency tier",
		},
		[]string{"urgency"},
	)

	// Demo data resets
	DemoResetCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_demo_resets_total",
			Help: "Total number of demo data resets",
		},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordOpportunityOperation increments the counter for ledger operations
func RecordOpportunityOperation(operation string) {
	OpportunityOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordDueActionUrgency increments the counter for a listed due action's urgency tier
func RecordDueActionUrgency(urgency string) {
	DueActionsByUrgencyCounter.WithLabelValues(urgency).Inc()
}

// GetHandler returns an HTTP handler for exposing Prometheus metrics
func GetHandler() http.Handler {
	return promhttp.Handler()
}
