package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, mode := range []string{"owner", "coalesced"} {
		RefreshRequestsTotal.WithLabelValues(mode)
	}

	for _, outcome := range []string{"generated", "skipped", "list_error", "persist_error", "config_error", "panic", "cleared"} {
		RefreshRunsTotal.WithLabelValues(outcome)
	}

	for _, status := range []string{"success", "cached", "error"} {
		ThumbnailGenerationsTotal.WithLabelValues(status)
	}

	for _, reason := range []string{"read", "decode"} {
		MaterializeErrors.WithLabelValues(reason)
	}

	for _, status := range []string{"success", "error"} {
		ConfigWritesTotal.WithLabelValues(status)
	}

	volumes := []string{"videos", "thumbnails", "config", "unknown"}
	for _, op := range []string{"stat", "open", "read"} {
		for _, vol := range volumes {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}
}
