package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bnbillains_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bnbillains_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	bookingOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bnbillains_booking_operations_total",
		Help: "Booking engine operations by operation and result",
	}, []string{"operation", "result"})

	bookingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bnbillains_booking_duration_seconds",
		Help:    "Duration of booking engine transactions",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	invoiceSyncSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bnbillains_invoice_sync_skipped_total",
		Help: "Reschedules whose reservation had no invoice to update",
	})

	occupancyCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bnbillains_occupancy_cache_lookups_total",
		Help: "Occupied-dates cache lookups by result (hit, miss, error)",
	}, []string{"result"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// ObserveBooking counts one book/reschedule/cancel attempt.
func ObserveBooking(operation, result string, duration time.Duration) {
	bookingOperations.WithLabelValues(operation, result).Inc()
	bookingDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func IncInvoiceSyncSkipped() {
	invoiceSyncSkipped.Inc()
}

func ObserveOccupancyCache(result string) {
	occupancyCacheLookups.WithLabelValues(result).Inc()
}
