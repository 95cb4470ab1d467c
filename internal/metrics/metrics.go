// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts handled requests by route, method and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Name:      "http_requests_total",
		Help:      "Handled HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	// HTTPDuration observes request latency by route and method.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "exercise_tracker",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	// StorageReady is 1 once the MongoDB connection is established.
	StorageReady = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "exercise_tracker",
		Name:      "storage_ready",
		Help:      "1 when the MongoDB connection is established, 0 otherwise.",
	})

	// StorageUnavailable counts requests rejected before the storage connection was ready.
	StorageUnavailable = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Name:      "storage_unavailable_total",
		Help:      "Requests rejected because the database was not connected yet.",
	})
)
