package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Channel metrics
var (
	MessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytmp_channel_messages_received_total",
			Help: "Total number of command messages received from the UI",
		},
		[]string{"kind"},
	)

	MessagesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytmp_channel_messages_rejected_total",
			Help: "Total number of inbound messages dropped before dispatch",
		},
		[]string{"reason"}, // "malformed", "unknown_kind", "handler_error"
	)

	EventsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytmp_channel_events_emitted_total",
			Help: "Total number of events sent to the UI",
		},
		[]string{"kind"},
	)

	EventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ytmp_channel_events_dropped_total",
			Help: "Total number of events dropped because the outbound queue was full",
		},
	)
)

// Playback metrics
var (
	TracksLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytmp_playback_tracks_loaded_total",
			Help: "Total number of track loads by result",
		},
		[]string{"result"}, // "ok", "not_found", "error"
	)

	AutoAdvances = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ytmp_playback_auto_advances_total",
			Help: "Total number of end-of-track advances made by the monitor",
		},
	)

	PlaybackState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ytmp_playback_state",
			Help: "Current playback state (0 idle, 1 loading, 2 playing, 3 paused)",
		},
	)
)

// Download metrics
var (
	DownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytmp_downloads_total",
			Help: "Total number of downloads by result",
		},
		[]string{"result"}, // "completed", "cached", "format_unavailable", "failed"
	)

	DownloadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ytmp_download_duration_seconds",
			Help:    "Download duration in seconds, including artwork",
			Buckets: []float64{1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	DownloadsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ytmp_downloads_in_flight",
			Help: "Number of downloads currently running",
		},
	)
)

// Store metrics
var (
	PlaylistSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytmp_playlist_saves_total",
			Help: "Total number of playlist document saves by result",
		},
		[]string{"result"}, // "ok", "error"
	)
)

// Status endpoint metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytmp_http_requests_total",
			Help: "Total number of status endpoint requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ytmp_http_request_duration_seconds",
			Help:    "Status endpoint request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Application info
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ytmp_app_info",
			Help: "Application information",
		},
		[]string{"version", "go_version"},
	)
)

// SetAppInfo sets the application info metric.
func SetAppInfo(version, goVersion string) {
	AppInfo.WithLabelValues(version, goVersion).Set(1)
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
