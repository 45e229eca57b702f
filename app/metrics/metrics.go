// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "folio_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "folio_http_active_requests",
			Help: "Current number of in-flight HTTP requests",
		},
	)

	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"route"},
	)

	// Analytics
	PageViewsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_page_views_recorded_total",
			Help: "Total number of page views stored",
		},
	)

	PageViewsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_page_views_rejected_total",
			Help: "Page views not stored, by reason",
		},
		[]string{"reason"}, // bot, missing_url, untracked, disabled, error
	)

	ViewCounterIncrements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_view_counter_increments_total",
			Help: "Key-value view counter calls, by outcome",
		},
		[]string{"result"}, // counted, duplicate
	)

	StatsQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "folio_stats_query_duration_seconds",
			Help:    "Duration of page view aggregation queries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	CommentsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_comments_created_total",
			Help: "Total number of comments stored",
		},
	)

	// Outbound integrations
	ExternalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_external_requests_total",
			Help: "Calls to third-party services, by result",
		},
		[]string{"service", "result"}, // result: success, failure, rejected
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "folio_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	SearchPagesIndexed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_search_pages_indexed_total",
			Help: "Pages pushed to the search index, by result",
		},
		[]string{"result"},
	)
)

// RecordHTTPRequest records a finished request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		HTTPActiveRequests.Inc()
	} else {
		HTTPActiveRequests.Dec()
	}
}

func RecordExternalRequest(service string, err error, rejected bool) {
	switch {
	case rejected:
		ExternalRequests.WithLabelValues(service, "rejected").Inc()
	case err != nil:
		ExternalRequests.WithLabelValues(service, "failure").Inc()
	default:
		ExternalRequests.WithLabelValues(service, "success").Inc()
	}
}
