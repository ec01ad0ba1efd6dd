// Package observability provides domain metrics and tracing.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// RequestsSubmitted counts design requests created by owners.
	RequestsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "atelier_requests_submitted_total",
		Help: "Total number of design requests submitted",
	})

	// RequestTransitions counts committed status transitions.
	RequestTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_request_transitions_total",
		Help: "Total number of design request status transitions",
	}, []string{"from", "to"})

	// RequestsDeleted counts removed design requests by cause.
	RequestsDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_requests_deleted_total",
		Help: "Total number of deleted design requests",
	}, []string{"cause"})

	// BlobOperations counts blob store calls by driver, operation and result.
	BlobOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_blob_operations_total",
		Help: "Total number of blob store operations",
	}, []string{"driver", "op", "result"})

	// EventsPublished counts lifecycle events handed to the broker.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_events_published_total",
		Help: "Total number of lifecycle events published",
	}, []string{"type", "result"})
)

// RecordBlobOp increments BlobOperations for one call.
func RecordBlobOp(driver, op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	BlobOperations.WithLabelValues(driver, op, result).Inc()
}
