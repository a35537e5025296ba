package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallthumb_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wallthumb_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wallthumb_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Refresh coordinator metrics
var (
	RefreshRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallthumb_refresh_requests_total",
			Help: "Refresh requests by how they were served",
		},
		[]string{"mode"}, // "owner", "coalesced"
	)

	RefreshRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallthumb_refresh_runs_total",
			Help: "Completed refresh runs by outcome",
		},
		[]string{"outcome"}, // "generated", "skipped", "list_error", "persist_error", "panic"
	)

	RefreshRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wallthumb_refresh_running",
			Help: "Whether a refresh run is currently in progress (1 = running)",
		},
	)

	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wallthumb_refresh_duration_seconds",
			Help:    "Duration of refresh runs, generation and materialization included",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	RefreshLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wallthumb_refresh_last_run_timestamp_seconds",
			Help: "Unix timestamp of the last completed refresh run",
		},
	)
)

// Generation metrics
var (
	GenerationProgressTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wallthumb_generation_progress_total",
			Help: "Number of videos in the generation run in progress (0 when idle)",
		},
	)

	GenerationProgressCompleted = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wallthumb_generation_progress_completed",
			Help: "Number of generation attempts finished in the current or last run",
		},
	)

	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallthumb_thumbnail_generations_total",
			Help: "Thumbnail generation attempts by status",
		},
		[]string{"status"}, // "success", "cached", "error"
	)

	ThumbnailGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wallthumb_thumbnail_generation_duration_seconds",
			Help:    "Time spent generating a single thumbnail",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	ThumbnailFFmpegDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wallthumb_thumbnail_ffmpeg_duration_seconds",
			Help:    "Time spent in ffmpeg frame extraction",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	VideoListErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wallthumb_video_list_errors_total",
			Help: "Failures to enumerate the wallpapers directory",
		},
	)

	CachePersistErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wallthumb_cache_persist_errors_total",
			Help: "Failures to write the thumbnail map to the config document",
		},
	)
)

// Cache and materialization metrics
var (
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wallthumb_cache_entries",
			Help: "Number of entries in the current thumbnail map",
		},
	)

	DisplayHandles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wallthumb_display_handles",
			Help: "Number of published display handles",
		},
	)

	DisplayHandleBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wallthumb_display_handle_bytes",
			Help: "Total bytes held in memory by published display handles",
		},
	)

	MaterializeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallthumb_materialize_errors_total",
			Help: "Thumbnails skipped during materialization by reason",
		},
		[]string{"reason"}, // "read", "decode"
	)

	ThumbnailDirBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wallthumb_thumbnail_dir_bytes",
			Help: "Size of the thumbnail directory on disk",
		},
	)
)

// Config store metrics
var (
	ConfigWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallthumb_config_writes_total",
			Help: "Config document writes by status",
		},
		[]string{"status"},
	)
)

// Watcher metrics
var (
	WatcherPollsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wallthumb_watcher_polls_total",
			Help: "Number of wallpaper directory change checks",
		},
	)

	WatcherChangesDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wallthumb_watcher_changes_detected_total",
			Help: "Number of wallpaper directory changes detected",
		},
	)

	WatcherPollDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wallthumb_watcher_poll_duration_seconds",
			Help:    "Duration of a wallpaper directory change check",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallthumb_filesystem_retry_attempts_total",
			Help: "Retries performed after stale file handle errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallthumb_filesystem_retry_success_total",
			Help: "Operations that succeeded after at least one retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallthumb_filesystem_retry_failures_total",
			Help: "Operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallthumb_filesystem_stale_errors_total",
			Help: "Stale file handle errors observed",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wallthumb_filesystem_retry_duration_seconds",
			Help:    "Total time spent in retried filesystem operations",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)
)
