package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "civicmatch_search_duration_seconds",
			Help:    "Time spent loading, filtering, sorting and paginating a search",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"sort_by"},
	)

	SearchResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "civicmatch_search_results",
			Help:    "Number of projects matching a search before pagination",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	// outcome: ok, failed, throttled
	TelemetryEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civicmatch_telemetry_events_total",
			Help: "Search telemetry writes by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	DashboardRefreshDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "civicmatch_dashboard_refresh_duration_seconds",
			Help:    "Time spent building an organization dashboard snapshot",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "civicmatch_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "route", "status"},
	)

	StreamClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "civicmatch_dashboard_stream_clients",
			Help: "Open dashboard WebSocket connections",
		},
	)
)

// ObserveSearch records one search pipeline run.
func ObserveSearch(sortBy string, totalCount int, duration time.Duration) {
	SearchDuration.WithLabelValues(sortBy).Observe(duration.Seconds())
	SearchResults.Observe(float64(totalCount))
}

// RecordTelemetry counts a telemetry write attempt.
func RecordTelemetry(kind, outcome string) {
	TelemetryEvents.WithLabelValues(kind, outcome).Inc()
}

// ObserveDashboardRefresh records a dashboard snapshot build.
func ObserveDashboardRefresh(err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	DashboardRefreshDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// ObserveHTTPRequest records an HTTP request.
func ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
