package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts handled requests by route template and status.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_http_requests_total",
			Help: "Total number of HTTP requests handled by the forecast service",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPDuration observes request latency by route template.
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forecast_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// ForecastRuns counts forecast runs by outcome.
	ForecastRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_runs_total",
			Help: "Total number of forecast runs by outcome",
		},
		[]string{"outcome"},
	)

	// ClassifierDuration observes the external classification call.
	ClassifierDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forecast_classifier_duration_seconds",
			Help:    "Duration of forecast classification calls in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"provider", "outcome"},
	)

	// PersistResults counts per-product persistence results.
	PersistResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_persist_results_total",
			Help: "Per-product forecast persistence results",
		},
		[]string{"result"},
	)
)

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
