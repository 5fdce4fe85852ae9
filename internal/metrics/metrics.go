package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lernecken",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status code.",
		},
		[]string{"endpoint", "code"},
	)

	bookingOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lernecken",
			Name:      "booking_operations_total",
			Help:      "Reserve and cancel attempts by facility and outcome.",
		},
		[]string{"operation", "facility", "outcome"},
	)

	retentionRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lernecken",
			Name:      "retention_runs_total",
			Help:      "Retention runs by result.",
		},
		[]string{"result"},
	)

	retentionRemoved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lernecken",
			Name:      "retention_bookings_removed_total",
			Help:      "Bookings moved into statistics and removed.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingOutcomes, retentionRuns, retentionRemoved)
	})
}

// IncHTTP counts one request for an endpoint label and status code.
func IncHTTP(endpoint, code string) {
	httpRequests.WithLabelValues(endpoint, code).Inc()
}

// IncBooking counts a reserve or cancel attempt.
func IncBooking(operation, facility, outcome string) {
	bookingOutcomes.WithLabelValues(operation, facility, outcome).Inc()
}

// ObserveRetention records the result of one retention run.
func ObserveRetention(removed int, err error) {
	if err != nil {
		retentionRuns.WithLabelValues("error").Inc()
		return
	}
	retentionRuns.WithLabelValues("ok").Inc()
	retentionRemoved.Add(float64(removed))
}
