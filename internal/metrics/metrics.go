// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics exposes the broadcast daemon's Prometheus instrumentation:
// HTTP API request counters/histograms, encoder/decoder lifecycle counters,
// director queue depth, and external-dependency health gauges.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequestsTotal counts HTTP requests served by the now-playing API.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wvoid_api_requests_total",
			Help: "Total number of now-playing API requests.",
		},
		[]string{"method", "path", "status_code"},
	)

	// APIRequestDuration tracks request latency.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wvoid_api_request_duration_seconds",
			Help:    "Now-playing API request duration in seconds.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "path"},
	)

	// APIActiveRequests is a gauge of in-flight requests.
	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wvoid_api_active_requests",
			Help: "Current number of in-flight now-playing API requests.",
		},
	)

	// APIRateLimitHits counts 429 rejections from the message endpoint.
	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wvoid_api_rate_limit_hits_total",
			Help: "Total number of rate-limited POST /message requests.",
		},
		[]string{"path"},
	)

	// TracksPlayedTotal counts asset transitions the Streaming Engine
	// committed to (first PCM chunk written).
	TracksPlayedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wvoid_tracks_played_total",
			Help: "Total number of assets whose first PCM chunk reached the encoder, by kind.",
		},
		[]string{"kind"},
	)

	// EncoderRestartsTotal counts encoder respawns after death.
	EncoderRestartsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wvoid_encoder_restarts_total",
			Help: "Total number of encoder process respawns.",
		},
	)

	// AssetFailuresTotal counts abandoned assets (decoder spawn failure,
	// missing file, zero bytes).
	AssetFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wvoid_asset_failures_total",
			Help: "Total number of assets abandoned before producing audio.",
		},
		[]string{"reason"},
	)

	// QueueDepth is the Director's current playback queue length.
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wvoid_director_queue_depth",
			Help: "Current number of items in the Director's playback queue.",
		},
	)

	// CurrentListeners mirrors the State Publisher's cached Icecast
	// listener count.
	CurrentListeners = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wvoid_current_listeners",
			Help: "Most recently observed Icecast listener count.",
		},
	)

	// ComponentUp reports liveness per supervised component (1=up, 0=down).
	ComponentUp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wvoid_component_up",
			Help: "Liveness of a supervised component as observed by the Supervisor.",
		},
		[]string{"component"},
	)

	// SupervisorRestartsTotal counts restart attempts per component.
	SupervisorRestartsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wvoid_supervisor_restarts_total",
			Help: "Total number of restart attempts issued by the Supervisor, by component.",
		},
		[]string{"component"},
	)

	// HistoryWriteErrorsTotal counts best-effort history writes that failed.
	HistoryWriteErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wvoid_history_write_errors_total",
			Help: "Total number of Play History Store write failures (non-fatal).",
		},
	)
)

// RecordAPIRequest records the outcome of one HTTP API request.
func RecordAPIRequest(method, path, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight request gauge.
func TrackActiveRequest(active bool) {
	if active {
		APIActiveRequests.Inc()
		return
	}
	APIActiveRequests.Dec()
}
