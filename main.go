package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wallthumb/internal/config"
	"wallthumb/internal/filesystem"
	"wallthumb/internal/handlers"
	"wallthumb/internal/launcher"
	"wallthumb/internal/logging"
	"wallthumb/internal/metrics"
	"wallthumb/internal/middleware"
	"wallthumb/internal/startup"
	"wallthumb/internal/thumbcache"
	"wallthumb/internal/thumbnail"
	"wallthumb/internal/videos"
	"wallthumb/internal/watcher"

	"github.com/gorilla/mux"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout   = 30 * time.Second
	metricsInterval   = 30 * time.Second
	readHeaderTimeout = 10 * time.Second
	serverIdleTimeout = 60 * time.Second
)

func main() {
	startTime := time.Now()

	// Load configuration
	cfg, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Durable user configuration
	store := config.NewOsStore(cfg.ConfigDir)
	if err := store.Ensure(); err != nil {
		startup.LogFatal("Failed to initialize config document: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	doc, err := store.Get(ctx)
	if err != nil {
		// The cache reports config errors per run; keep starting.
		logging.Warn("Could not read %s: %v", store.Path(), err)
	}
	logging.SetDebugMode(doc.DebugMode)

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"videos":     doc.WallpapersPath,
		"thumbnails": cfg.ThumbnailDir,
		"config":     cfg.ConfigDir,
	}))
	metrics.InitializeMetrics()

	// Thumbnail cache
	startup.LogCacheInit(cfg)
	fs := afero.NewOsFs()
	lister := videos.NewDirLister(fs)
	lister.SetSkipHidden(cfg.SkipHidden)
	cache := thumbcache.New(
		store,
		lister,
		thumbnail.NewFFmpegGenerator(fs, thumbnail.Options{
			Width:  cfg.ThumbnailWidth,
			Height: cfg.ThumbnailHeight,
			Seek:   cfg.ThumbnailSeek,
		}),
		thumbnail.NewDiskLoader(fs, cfg.ThumbnailDir),
		thumbcache.Options{
			OutputDir:           cfg.ThumbnailDir,
			ItemDelay:           cfg.ItemDelay,
			Locale:              cfg.Locale,
			ClearDirtyOnSuccess: cfg.ClearDirtyOnSuccess,
			Fs:                  fs,
		},
	)

	h := handlers.New(cache, store, launcher.New())

	router := setupRouter(h)
	startup.LogHTTPRoutes(router, cfg.LogStaticFiles, cfg.LogHealthChecks)

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:           buildHandler(router, cfg),
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       serverIdleTimeout,
	}

	var metricsSrv *http.Server
	if cfg.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", h.MetricsHandler())
		metricsSrv = &http.Server{
			Addr:              net.JoinHostPort(cfg.Host, cfg.MetricsPort),
			Handler:           metricsMux,
			ReadHeaderTimeout: readHeaderTimeout,
		}
	}

	collector := metrics.NewCollector(cache, metricsInterval)
	collector.Start()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(serve("API", srv))
	if metricsSrv != nil {
		g.Go(serve("metrics", metricsSrv))
	}

	startup.LogWatcherInit(cfg.WatchInterval)
	if cfg.WatchInterval > 0 {
		w := watcher.New(fs, store, cache, cfg.WatchInterval)
		w.SetSkipHidden(cfg.SkipHidden)
		g.Go(func() error {
			return w.Run(gctx)
		})
	}

	g.Go(func() error {
		initialRefresh(gctx, cache, h, cfg.RefreshOnStart)
		return nil
	})

	g.Go(func() error {
		waitForShutdown(gctx, cancel)

		startup.LogShutdownStep("Stopping metrics collector")
		collector.Stop()
		startup.LogShutdownStepComplete("Metrics collector stopped")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if metricsSrv != nil {
			startup.LogShutdownStep("Shutting down metrics server")
			if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
				logging.Warn("Metrics server shutdown error: %v", err)
			} else {
				startup.LogShutdownStepComplete("Metrics server stopped")
			}
		}

		startup.LogShutdownStep("Shutting down HTTP server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Warn("Server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("HTTP server stopped")
		}
		return nil
	})

	startup.LogServerStarted(startup.ServerConfig{
		Host:            cfg.Host,
		Port:            cfg.Port,
		MetricsPort:     cfg.MetricsPort,
		MetricsEnabled:  cfg.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	if err := g.Wait(); err != nil {
		startup.LogFatal("Server error: %v", err)
	}
	startup.LogShutdownComplete()
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Thumbnail bytes
	r.HandleFunc("/thumbs/{handle}", h.ServeThumbnail).Methods("GET", "HEAD")

	api := r.PathPrefix("/api").Subrouter()

	// Thumbnail cache
	api.HandleFunc("/thumbnails", h.ListThumbnails).Methods("GET")
	api.HandleFunc("/thumbnails", h.ClearThumbnails).Methods("DELETE")
	api.HandleFunc("/thumbnails/refresh", h.RefreshThumbnails).Methods("POST")
	api.HandleFunc("/thumbnails/progress", h.GetProgress).Methods("GET")

	// User configuration
	api.HandleFunc("/config", h.GetConfig).Methods("GET")
	api.HandleFunc("/config", h.UpdateConfig).Methods("PATCH")
	api.HandleFunc("/config/wallpapers", h.SetWallpapersPath).Methods("PUT")

	// Wallpaper command
	api.HandleFunc("/launch", h.Launch).Methods("POST")

	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	return r
}

// buildHandler wraps the router with logging and compression.
func buildHandler(router http.Handler, cfg *startup.Config) http.Handler {
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = cfg.LogStaticFiles
	loggingConfig.LogHealthChecks = cfg.LogHealthChecks
	logged := middleware.Logger(loggingConfig)(router)

	return middleware.Compression(middleware.DefaultCompressionConfig())(logged)
}

func serve(name string, srv *http.Server) func() error {
	return func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s server on %s: %w", name, srv.Addr, err)
		}
		return nil
	}
}

// initialRefresh publishes the cached thumbnails, regenerating them when the
// folder is marked dirty, and then marks the service ready.
func initialRefresh(ctx context.Context, cache *thumbcache.Cache, h *handlers.Handlers, enabled bool) {
	defer h.SetReady(true)

	if !enabled {
		logging.Info("Startup refresh disabled")
		return
	}

	res, err := cache.Refresh(ctx, false)
	if err != nil {
		logging.Warn("Startup refresh interrupted: %v", err)
		return
	}

	log := logging.With(logging.Fields{
		"op":       "startup_refresh",
		"outcome":  res.Outcome,
		"handles":  res.Handles,
		"duration": res.Duration,
	})
	if res.Err != nil {
		log.WithError(res.Err).Warn("Startup refresh finished with errors")
		return
	}
	log.Info("Startup refresh complete")
}

// waitForShutdown blocks until SIGINT/SIGTERM or until ctx ends, then cancels.
func waitForShutdown(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		startup.LogShutdownInitiated(sig.String())
	case <-ctx.Done():
		startup.LogShutdownInitiated("internal error")
	}
	cancel()
}
