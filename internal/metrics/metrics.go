package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the request instrumentation for the service
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New creates the service metrics on a private registry
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "verivoice",
		Name:      "http_requests_total",
		Help:      "Number of HTTP requests by path, method and status code",
	}, []string{"path", "method", "status"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "verivoice",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by path and method",
		Buckets:   prometheus.DefBuckets,
	}, []string{"path", "method"})

	registry.MustRegister(requests, duration)

	return &Metrics{
		registry: registry,
		requests: requests,
		duration: duration,
	}
}

// Middleware records request counts and latencies
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Path() == "/metrics" {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			path := c.Path()
			method := c.Request().Method
			status := c.Response().Status
			if err != nil {
				if httpErr, ok := err.(*echo.HTTPError); ok {
					status = httpErr.Code
				}
			}

			m.requests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
			m.duration.WithLabelValues(path, method).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// Handler exposes the prometheus scrape endpoint
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
