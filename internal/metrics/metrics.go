// Package metrics exposes Prometheus collectors for the HTTP layer and the points workflow.
package metrics

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversions
	"time"     // Time handling

	"github.com/gin-gonic/gin"                                // Gin web framework
	"github.com/prometheus/client_golang/prometheus"          // Prometheus collectors
	"github.com/prometheus/client_golang/prometheus/promhttp" // Prometheus HTTP handler
)

// Registry holds the application-specific Prometheus collectors.
var Registry = prometheus.NewRegistry()

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loyalty",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "loyalty",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	// TransactionsSubmitted counts customer submissions by transaction type.
	TransactionsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loyalty",
			Subsystem: "points",
			Name:      "transactions_submitted_total",
			Help:      "Pending transactions created by customers.",
		},
		[]string{"type"},
	)

	// TransactionsReviewed counts admin decisions by transaction type and outcome.
	TransactionsReviewed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loyalty",
			Subsystem: "points",
			Name:      "transactions_reviewed_total",
			Help:      "Pending transactions resolved by admins.",
		},
		[]string{"type", "status"},
	)

	// RejectedRequests counts domain rejections such as insufficient balance or duplicate folio.
	RejectedRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loyalty",
			Subsystem: "points",
			Name:      "requests_rejected_total",
			Help:      "Customer or admin requests refused by a domain rule.",
		},
		[]string{"reason"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		TransactionsSubmitted,
		TransactionsReviewed,
		RejectedRequests,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latencies labelled by route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		if route == "/metrics" {
			return
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
