package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// KeyOperations tracks lifecycle operations by outcome (ok, not_found, error)
	KeyOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cloudkeys_key_operations_total",
		Help: "Total number of key lifecycle operations processed",
	}, []string{"operation", "result"})

	// OperationDuration tracks lifecycle operation latency including storage
	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cloudkeys_operation_duration_seconds",
		Help:    "Histogram of key lifecycle operation duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// IdentityFailures tracks requests rejected before reaching the lifecycle manager
	IdentityFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cloudkeys_identity_failures_total",
		Help: "Total number of requests without a verified tenant identity",
	})

	// HTTPRequests tracks management API responses by route and status code
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cloudkeys_http_requests_total",
		Help: "Total number of management API requests",
	}, []string{"method", "route", "status"})
)
