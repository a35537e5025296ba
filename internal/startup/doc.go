// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All process configuration is loaded from environment variables via [LoadConfig]:
//
//   - WALLTHUMB_CONFIG_DIR: Directory holding config.json (default: <user config dir>/WallpaperPickerUI)
//   - WALLTHUMB_DATA_DIR: Directory for generated data; thumbnails go in <dir>/thumbnails
//     (default: <user config dir>/wallthumb)
//   - HOST: Listen address for the API and metrics servers (default: 127.0.0.1)
//   - PORT: HTTP API port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - ITEM_DELAY: Pause between two thumbnail generations (default: 50ms)
//   - WATCH_INTERVAL: Wallpaper directory polling interval, 0 disables (default: 30s)
//   - REFRESH_ON_START: Run a refresh when the server starts (default: true)
//   - CLEAR_DIRTY_ON_SUCCESS: Reset newWallpapers after a persisted regeneration (default: false)
//   - SKIP_HIDDEN: Ignore dot-files and dot-directories when listing videos (default: false)
//   - COLLATION_LOCALE: BCP 47 tag ordering the persisted thumbnail map (default: en)
//   - THUMBNAIL_WIDTH, THUMBNAIL_HEIGHT: Artifact size (default: 222x124)
//   - THUMBNAIL_SEEK: Offset of the captured frame (default: 00:00:01.000)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_STATIC_FILES: Log thumbnail byte requests (default: false)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// Invalid values are logged and replaced by their default.
//
// # Directory Setup
//
// The config and thumbnail directories are created when missing and must be
// writable.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// # Example Usage
//
//	config, err := startup.LoadConfig()
//	if err != nil {
//	    startup.LogFatal("Configuration error: %v", err)
//	}
//
//	startup.LogCacheInit(config)
//	startup.LogWatcherInit(config.WatchInterval)
//
//	startup.LogServerStarted(startup.ServerConfig{
//	    Host:            config.Host,
//	    Port:            config.Port,
//	    MetricsPort:     config.MetricsPort,
//	    MetricsEnabled:  config.MetricsEnabled,
//	    StartupDuration: time.Since(startTime),
//	})
package startup
