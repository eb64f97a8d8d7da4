// Package metrics exposes Prometheus collectors for the recommendation service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	recommendRequestsTotal     *prometheus.CounterVec
	discoveryCallsTotal        *prometheus.CounterVec
	discoveryKeyRotationsTotal prometheus.Counter
	profilesIngestedTotal      *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		recommendRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_recommend_requests_total",
				Help: "Total recommendation requests, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		discoveryCallsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_discovery_calls_total",
				Help: "Total live discovery calls, labeled by mode and outcome.",
			},
			[]string{"mode", "outcome"},
		)

		discoveryKeyRotationsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scout_discovery_key_rotations_total",
				Help: "Total credential rotations triggered by quota exhaustion.",
			},
		)

		profilesIngestedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_profiles_ingested_total",
				Help: "Total newly inserted creator profiles, labeled by source.",
			},
			[]string{"source"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRecommend increments the recommendation counter for the given outcome.
func ObserveRecommend(outcome string) {
	if recommendRequestsTotal == nil {
		return
	}
	recommendRequestsTotal.WithLabelValues(outcome).Inc()
}

// ObserveDiscovery increments the discovery counter for a mode and outcome.
func ObserveDiscovery(mode, outcome string) {
	if discoveryCallsTotal == nil {
		return
	}
	discoveryCallsTotal.WithLabelValues(mode, outcome).Inc()
}

// ObserveKeyRotation counts one quota-triggered credential rotation.
func ObserveKeyRotation() {
	if discoveryKeyRotationsTotal == nil {
		return
	}
	discoveryKeyRotationsTotal.Inc()
}

// ObserveProfileIngested counts one newly inserted profile per source.
func ObserveProfileIngested(source string) {
	if profilesIngestedTotal == nil {
		return
	}
	profilesIngestedTotal.WithLabelValues(source).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
