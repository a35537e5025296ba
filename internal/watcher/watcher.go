package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"wallthumb/internal/config"
	"wallthumb/internal/filesystem"
	"wallthumb/internal/logging"
	"wallthumb/internal/metrics"
	"wallthumb/internal/thumbcache"

	"github.com/spf13/afero"
)

// Default polling interval for change detection
const defaultPollInterval = 30 * time.Second

// ConfigStore is the part of the configuration store the watcher uses.
type ConfigStore interface {
	Get(ctx context.Context) (config.Document, error)
	Update(ctx context.Context, p config.Partial) error
}

// Refresher runs a thumbnail refresh.
type Refresher interface {
	Refresh(ctx context.Context, force bool) (thumbcache.Result, error)
}

// Watcher polls the wallpapers directory for changes.
type Watcher struct {
	fs           afero.Fs
	store        ConfigStore
	refresher    Refresher
	pollInterval time.Duration
	retry        filesystem.RetryConfig
	skipHidden   bool

	// Last known state for lightweight change detection
	stateMu            sync.RWMutex
	lastPath           string
	lastRootModTime    time.Time
	lastTopLevelCount  int
	lastSubdirModTimes map[string]time.Time
}

// New creates a Watcher. A non-positive interval selects the default.
func New(fs afero.Fs, store ConfigStore, refresher Refresher, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Watcher{
		fs:                 fs,
		store:              store,
		refresher:          refresher,
		pollInterval:       interval,
		retry:              filesystem.DefaultRetryConfig(),
		lastSubdirModTimes: make(map[string]time.Time),
	}
}

// SetSkipHidden makes dot-entries invisible to change detection. Use the same
// setting as the video lister.
func (w *Watcher) SetSkipHidden(skip bool) {
	w.skipHidden = skip
}

// Run polls until ctx is cancelled. The state at start is the baseline, so
// changes made while the process was down are left to the startup refresh.
func (w *Watcher) Run(ctx context.Context) error {
	if doc, err := w.store.Get(ctx); err == nil {
		w.updateLastKnownState(doc.WallpapersPath)
	} else {
		logging.Warn("Watcher could not read configuration: %v", err)
	}

	logging.Info("Starting change detection polling (interval: %v)", w.pollInterval)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.Poll(ctx); err != nil {
				logging.Error("Error detecting changes: %v", err)
			}
		case <-ctx.Done():
			logging.Info("Change detection polling stopped")
			return nil
		}
	}
}

// Poll runs one detection cycle and reports whether a change triggered a refresh.
func (w *Watcher) Poll(ctx context.Context) (bool, error) {
	doc, err := w.store.Get(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read configuration: %w", err)
	}
	if doc.WallpapersPath == "" {
		return false, nil
	}

	changed, err := w.detectChanges(doc.WallpapersPath)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}

	logging.Info("Wallpaper changes detected in %s, refreshing thumbnails", doc.WallpapersPath)

	if err := w.store.Update(ctx, config.Partial{NewWallpapers: config.Bool(true)}); err != nil {
		return false, fmt.Errorf("failed to flag new wallpapers: %w", err)
	}

	res, err := w.refresher.Refresh(ctx, false)
	if err != nil {
		return false, err
	}
	if res.Err != nil {
		logging.Warn("Refresh after change detection finished with error: %v", res.Err)
	}

	w.updateLastKnownState(doc.WallpapersPath)
	return true, nil
}

// detectChanges performs a lightweight check to detect if wallpapers changed.
// It only checks the root directory's modification time, the count of
// top-level entries and top-level subdirectories, avoiding recursive walks.
func (w *Watcher) detectChanges(dir string) (bool, error) {
	start := time.Now()
	defer func() {
		metrics.WatcherPollDuration.Observe(time.Since(start).Seconds())
		metrics.WatcherPollsTotal.Inc()
	}()

	w.stateMu.RLock()
	lastPath := w.lastPath
	lastRootModTime := w.lastRootModTime
	lastTopLevelCount := w.lastTopLevelCount
	w.stateMu.RUnlock()

	if dir != lastPath {
		logging.Debug("Wallpapers path changed: %q -> %q", lastPath, dir)
		metrics.WatcherChangesDetected.Inc()
		return true, nil
	}

	rootInfo, err := filesystem.StatWithRetry(w.fs, dir, w.retry)
	if err != nil {
		return false, fmt.Errorf("failed to stat wallpapers directory: %w", err)
	}

	if rootInfo.ModTime().After(lastRootModTime) {
		logging.Debug("Root directory modified: %v > %v", rootInfo.ModTime(), lastRootModTime)
		metrics.WatcherChangesDetected.Inc()
		return true, nil
	}

	entries, err := w.readDir(dir)
	if err != nil {
		return false, fmt.Errorf("failed to read wallpapers directory: %w", err)
	}

	if count := w.visibleCount(entries); count != lastTopLevelCount {
		logging.Debug("Top-level count changed: %d -> %d", lastTopLevelCount, count)
		metrics.WatcherChangesDetected.Inc()
		return true, nil
	}

	if w.checkSubdirectories(dir, entries) {
		metrics.WatcherChangesDetected.Inc()
		return true, nil
	}

	return false, nil
}

// checkSubdirectories compares top-level subdirectory modification times.
func (w *Watcher) checkSubdirectories(dir string, entries []os.FileInfo) bool {
	w.stateMu.RLock()
	lastSubdirModTimes := w.lastSubdirModTimes
	w.stateMu.RUnlock()

	for _, entry := range entries {
		if !entry.IsDir() || w.hidden(entry) {
			continue
		}

		info, err := w.fs.Stat(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}

		lastMod, exists := lastSubdirModTimes[entry.Name()]
		if !exists {
			logging.Debug("New subdirectory detected: %s", entry.Name())
			return true
		}
		if info.ModTime().After(lastMod) {
			logging.Debug("Subdirectory %s modified: %v > %v", entry.Name(), info.ModTime(), lastMod)
			return true
		}
	}

	return false
}

// updateLastKnownState records the directory state after a refresh.
func (w *Watcher) updateLastKnownState(dir string) {
	w.stateMu.Lock()
	w.lastPath = dir
	w.stateMu.Unlock()

	if dir == "" {
		return
	}

	rootInfo, err := w.fs.Stat(dir)
	if err != nil {
		logging.Warn("Failed to stat wallpapers directory for state update: %v", err)
		return
	}

	entries, err := w.readDir(dir)
	if err != nil {
		logging.Warn("Failed to read wallpapers directory for state update: %v", err)
		return
	}

	subdirModTimes := make(map[string]time.Time)
	for _, entry := range entries {
		if !entry.IsDir() || w.hidden(entry) {
			continue
		}
		if info, err := w.fs.Stat(filepath.Join(dir, entry.Name())); err == nil {
			subdirModTimes[entry.Name()] = info.ModTime()
		}
	}

	w.stateMu.Lock()
	w.lastRootModTime = rootInfo.ModTime()
	w.lastTopLevelCount = w.visibleCount(entries)
	w.lastSubdirModTimes = subdirModTimes
	w.stateMu.Unlock()

	logging.Debug("Updated last known state: rootMod=%v, topLevel=%d, subdirs=%d",
		rootInfo.ModTime(), w.visibleCount(entries), len(subdirModTimes))
}

// readDir lists the top level of dir, retrying the open on stale handles.
func (w *Watcher) readDir(dir string) ([]os.FileInfo, error) {
	f, err := filesystem.OpenWithRetry(w.fs, dir, w.retry)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Readdir(-1)
}

func (w *Watcher) hidden(entry os.FileInfo) bool {
	return w.skipHidden && strings.HasPrefix(entry.Name(), ".")
}

func (w *Watcher) visibleCount(entries []os.FileInfo) int {
	n := 0
	for _, entry := range entries {
		if !w.hidden(entry) {
			n++
		}
	}
	return n
}
