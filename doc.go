// Package main provides the entry point for the wallthumb daemon.
//
// wallthumb keeps the thumbnail cache of a video wallpaper folder in sync
// with the folder's contents. It generates one PNG thumbnail per video with
// FFmpeg, records the thumbnail-to-video map in the wallpaper picker's
// config.json, and serves the thumbnails to the picker over a loopback HTTP API.
//
// # Application Lifecycle
//
//  1. Configuration Loading: Reads environment variables and validates directories
//  2. Config Document: Creates config.json with defaults if it does not exist
//  3. Component Initialization:
//     - Thumbnail Cache: single-flight refresh coordinator, generator and materializer
//     - Watcher: polls the wallpaper folder and marks it dirty on change
//     - Metrics Collector: exports cache size gauges
//  4. Startup Refresh: publishes cached thumbnails, regenerating them if the folder is dirty
//  5. HTTP Server Setup: Configures routes and middleware and starts the servers
//  6. Graceful Shutdown: Handles SIGINT/SIGTERM and stops all components
//
// # HTTP Server
//
//  1. Main Server (default 127.0.0.1:8080):
//     - /api/thumbnails: list, refresh, progress and clear
//     - /thumbs/{handle}: thumbnail bytes with ETag support
//     - /api/config: user configuration and wallpaper folder selection
//     - /api/launch: run the wallpaper command for a thumbnail
//     - /health, /livez, /readyz, /version
//
//  2. Metrics Server (default port 9090, optional):
//     - Prometheus metrics endpoint (/metrics)
//
// # Environment Variables
//
//   - WALLTHUMB_CONFIG_DIR: Directory holding config.json
//   - WALLTHUMB_DATA_DIR: Directory holding the thumbnails directory
//   - HOST, PORT, METRICS_PORT, METRICS_ENABLED: Listener settings
//   - ITEM_DELAY: Pause between thumbnails during a regeneration (default: 50ms)
//   - WATCH_INTERVAL: Folder poll interval, 0 disables (default: 30s)
//   - REFRESH_ON_START: Refresh before reporting ready (default: true)
//   - CLEAR_DIRTY_ON_SUCCESS: Reset newWallpapers after a saved regeneration (default: false)
//   - SKIP_HIDDEN: Ignore dot-files and dot-directories in the wallpapers folder (default: false)
//   - COLLATION_LOCALE: Locale used to order thumbnails (default: en)
//   - THUMBNAIL_WIDTH, THUMBNAIL_HEIGHT, THUMBNAIL_SEEK: Artifact rendering
//   - LOG_LEVEL, DEBUG: Logging level
//
// The thumbctl command in cmd/thumbctl clears thumbnails or the config
// document and reports cache status.
package main
