// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP request handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)

	ListingValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_validation_failures_total",
			Help: "Listing requests rejected by query parameter validation",
		},
		[]string{"entity"},
	)

	ListingRowsReturned = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "listing_rows_returned",
			Help:    "Number of records returned per listing page",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		},
		[]string{"entity"},
	)
)
