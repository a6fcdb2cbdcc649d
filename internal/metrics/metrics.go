// Package metrics holds the prometheus collectors of the service and the
// echo middleware that feeds the HTTP ones.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// AuditFailures counts audit records that could not be persisted.
	AuditFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "suite_exchange_audit_failures_total",
		Help: "Audit events that failed to persist.",
	})

	// Operations counts engine operations by name and outcome kind
	// ("ok" on success, otherwise the error kind).
	Operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suite_exchange_operations_total",
			Help: "Engine operations by outcome.",
		},
		[]string{"operation", "outcome"},
	)

	// NotificationFailures counts notifications the dispatcher dropped.
	NotificationFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "suite_exchange_notification_failures_total",
		Help: "Notifications that could not be published.",
	})

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Register adds every collector to reg.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		AuditFailures, Operations, NotificationFailures,
		httpInFlight, httpRequestsTotal, httpRequestDuration,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument records latency, totals and in-flight requests.  The route
// template is used as the path label to keep cardinality bounded.
func Instrument() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			httpInFlight.Inc()
			defer httpInFlight.Dec()
			start := time.Now()

			err := next(c)

			code := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					code = he.Code
				}
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			status := strconv.Itoa(code)
			method := c.Request().Method
			httpRequestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(method, path, status).Inc()
			return err
		}
	}
}
