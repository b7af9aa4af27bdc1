package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// APIMetricsCollector handles all API request metrics. It satisfies the
// client's Instrumentation interface, so wiring it in is a one-liner.
type APIMetricsCollector struct {
	apiRequestsTotal *prometheus.CounterVec
	apiRetries       *prometheus.CounterVec
	apiRateLimitWait prometheus.Histogram
}

// NewAPIMetricsCollector creates a new API metrics collector
func NewAPIMetricsCollector() *APIMetricsCollector {
	return &APIMetricsCollector{
		// Total API requests by method, operation, and status code.
		// Operation is the request name (get_agent, navigate_ship), not
		// the raw path: raw paths embed ship symbols and would blow up
		// label cardinality.
		apiRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests by method, operation, and status code",
			},
			[]string{"method", "operation", "status"},
		),

		// Retry attempts counter
		apiRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_retries_total",
				Help:      "Total number of API retry attempts by reason",
			},
			[]string{"reason"},
		),

		// Rate limit wait time histogram
		apiRateLimitWait: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_rate_limit_wait_seconds",
				Help:      "Time spent waiting out rate limit responses",
				Buckets:   []float64{0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
			},
		),
	}
}

// Register registers all API metrics with the Prometheus registry
func (c *APIMetricsCollector) Register() error {
	if Registry == nil {
		return nil // Metrics not enabled
	}

	metrics := []prometheus.Collector{
		c.apiRequestsTotal,
		c.apiRetries,
		c.apiRateLimitWait,
	}

	for _, metric := range metrics {
		if err := Registry.Register(metric); err != nil {
			return err
		}
	}

	return nil
}

// RecordRequest records an API request completion
func (c *APIMetricsCollector) RecordRequest(method, op string, status int) {
	c.apiRequestsTotal.WithLabelValues(method, op, strconv.Itoa(status)).Inc()
}

// RecordRetry records an API retry attempt
func (c *APIMetricsCollector) RecordRetry(reason string) {
	c.apiRetries.WithLabelValues(reason).Inc()
}

// RecordRateLimitWait records time spent waiting out a 429
func (c *APIMetricsCollector) RecordRateLimitWait(d time.Duration) {
	c.apiRateLimitWait.Observe(d.Seconds())
}
