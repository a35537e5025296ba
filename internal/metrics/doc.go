// Package metrics provides Prometheus instrumentation for wallthumb.
//
// All metrics are prefixed with "wallthumb_" and registered with the default
// registry through promauto, so importing the package is enough to export
// them on the /metrics endpoint.
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: Counter of requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Refresh Metrics
//
// The refresh coordinator runs at most one generation pipeline at a time.
// Callers arriving while a run is in flight are counted as "coalesced":
//   - RefreshRequestsTotal: Counter by mode (owner/coalesced)
//   - RefreshRunsTotal: Counter of finished runs by outcome
//   - RefreshRunning: Gauge, 1 while a run is in flight
//   - RefreshDuration, RefreshLastRunTimestamp
//
// ## Generation Metrics
//
//   - GenerationProgressTotal / GenerationProgressCompleted mirror the
//     progress counters exposed on the API
//   - ThumbnailGenerationsTotal: Counter by status (success/cached/error)
//   - ThumbnailGenerationDuration, ThumbnailFFmpegDuration
//   - VideoListErrors, CachePersistErrors
//
// ## Cache Metrics
//
//   - CacheEntries, DisplayHandles, DisplayHandleBytes, ThumbnailDirBytes
//     (refreshed by the Collector)
//   - MaterializeErrors: Counter by reason (read/decode)
//
// ## Filesystem and Watcher Metrics
//
//   - FilesystemRetry*: stale file handle retries per operation and volume
//   - Watcher*: wallpaper directory change polling
//   - ConfigWritesTotal: config document writes by status
//
// # Usage
//
//	metrics.InitializeMetrics()
//	collector := metrics.NewCollector(cache, time.Minute)
//	collector.Start()
//	defer collector.Stop()
package metrics
