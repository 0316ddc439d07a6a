// Package metrics registers the forwarder's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Forward results used as the "result" label.
const (
	ResultDelivered    = "delivered"
	ResultRejected     = "rejected"
	ResultStorageError = "storage_error"
	ResultNetworkError = "network_error"
	ResultError        = "error"
)

// Forwarding metrics
var (
	ForwardRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forward_requests_total",
			Help: "Total number of forward attempts by result",
		},
		[]string{"result"},
	)

	ForwardDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forward_duration_seconds",
			Help:    "Duration of a fetch-and-POST forward operation",
			Buckets: prometheus.DefBuckets,
		},
	)

	ForwardPayloadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forward_payload_bytes",
			Help:    "Size of forwarded email payloads",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8), // 1 KB .. 16 MB
		},
	)
)

// Queue metrics
var (
	QueueMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_messages_total",
			Help: "Total number of SQS messages handled by result",
		},
		[]string{"result"}, // processed, failed, malformed
	)
)
