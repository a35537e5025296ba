package thumbcache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"wallthumb/internal/config"
	"wallthumb/internal/logging"
	"wallthumb/internal/metrics"
	"wallthumb/internal/thumbmap"
	"wallthumb/internal/workers"

	"github.com/spf13/afero"
	"golang.org/x/text/language"
)

// maxLoadWorkers caps the default LoadWorkers.
const maxLoadWorkers = 8

// ErrRunPanicked is reported in Result.Err when a run panicked.
var ErrRunPanicked = errors.New("thumbnail refresh panicked")

// ConfigStore is the durable configuration document.
type ConfigStore interface {
	Get(ctx context.Context) (config.Document, error)
	Update(ctx context.Context, p config.Partial) error
}

// VideoLister enumerates the videos in a directory.
type VideoLister interface {
	List(ctx context.Context, dir string) ([]string, error)
}

// Generator renders the artifact for one video and returns its path.
type Generator interface {
	Generate(ctx context.Context, videoPath, outDir string) (string, error)
}

// ArtifactLoader reads an artifact's bytes by identifier.
type ArtifactLoader interface {
	Load(ctx context.Context, id string) ([]byte, error)
}

// Options tunes a Cache.
type Options struct {
	// OutputDir is where artifacts are generated.
	OutputDir string
	// ItemDelay is the pause between two generation attempts.
	ItemDelay time.Duration
	// Locale selects the collation used to order the persisted map.
	Locale language.Tag
	// ClearDirtyOnSuccess resets newWallpapers after a persisted regeneration.
	ClearDirtyOnSuccess bool
	// Fs holds OutputDir. Defaults to the host filesystem.
	Fs afero.Fs
	// LoadWorkers bounds concurrent artifact reads while materializing.
	// Zero picks a count from the available CPUs.
	LoadWorkers int
}

// flight is one run of the pipeline. result is written before done is closed.
type flight struct {
	done   chan struct{}
	result Result
}

// Cache coordinates thumbnail regeneration and materialization.
type Cache struct {
	store  ConfigStore
	lister VideoLister
	gen    Generator
	loader ArtifactLoader
	opts   Options

	mu      sync.Mutex
	running bool
	flight  *flight
	last    Result

	progress progressTracker
	current  atomic.Pointer[thumbmap.Map]
	handles  atomic.Pointer[HandleMap]
}

// New creates a Cache. Nothing runs until Refresh is called.
func New(store ConfigStore, lister VideoLister, gen Generator, loader ArtifactLoader, opts Options) *Cache {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Locale == language.Und {
		opts.Locale = language.English
	}
	if opts.ItemDelay < 0 {
		opts.ItemDelay = 0
	}
	if opts.LoadWorkers <= 0 {
		opts.LoadWorkers = workers.ForIO(maxLoadWorkers)
	}

	c := &Cache{
		store:  store,
		lister: lister,
		gen:    gen,
		loader: loader,
		opts:   opts,
	}
	c.current.Store(&thumbmap.Map{})
	c.handles.Store(emptyHandleMap())
	return c
}

// Refresh runs the pipeline, or joins the run already in progress, and
// returns its Result. force regenerates even when the dirty flag is unset.
// The returned error is non-nil only when ctx ends before the run does;
// failures inside the run are reported in Result.Err.
func (c *Cache) Refresh(ctx context.Context, force bool) (Result, error) {
	f, _ := c.join(ctx, force)

	select {
	case <-f.done:
		return f.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Trigger starts a refresh in the background unless one is already running.
// It reports whether a new run was started.
func (c *Cache) Trigger(force bool) bool {
	_, started := c.join(context.Background(), force)
	return started
}

// join returns the running flight, starting a new one when idle.
func (c *Cache) join(ctx context.Context, force bool) (*flight, bool) {
	c.mu.Lock()
	if c.running {
		f := c.flight
		c.mu.Unlock()
		metrics.RefreshRequestsTotal.WithLabelValues("coalesced").Inc()
		logging.Debug("Thumbnail refresh already in progress, waiting for it")
		return f, false
	}

	f := &flight{done: make(chan struct{})}
	c.running = true
	c.flight = f
	c.mu.Unlock()

	metrics.RefreshRequestsTotal.WithLabelValues("owner").Inc()
	metrics.RefreshRunning.Set(1)

	runCtx := context.WithoutCancel(ctx)
	go func() {
		defer c.finish(f)
		f.result = c.safeRun(func() Result {
			return c.run(runCtx, force)
		})
	}()

	return f, true
}

// finish returns the coordinator to idle and releases every waiter.
func (c *Cache) finish(f *flight) {
	c.mu.Lock()
	c.running = false
	c.flight = nil
	c.last = f.result
	c.mu.Unlock()

	metrics.RefreshRunning.Set(0)
	metrics.RefreshRunsTotal.WithLabelValues(string(f.result.Outcome)).Inc()
	metrics.RefreshDuration.Observe(f.result.Duration.Seconds())
	metrics.RefreshLastRunTimestamp.SetToCurrentTime()

	close(f.done)
}

// safeRun converts a panic in fn into an ErrRunPanicked result.
func (c *Cache) safeRun(fn func() Result) (res Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logging.With(logging.Fields{"op": "refresh"}).Error("Thumbnail refresh panicked: %v", r)
			res = Result{
				Outcome:   OutcomePanic,
				StartedAt: start,
				Duration:  time.Since(start),
				Err:       fmt.Errorf("%w: %v", ErrRunPanicked, r),
			}
		}
	}()
	return fn()
}

// run is one pass of the pipeline. It owns the cache until it returns.
func (c *Cache) run(ctx context.Context, force bool) Result {
	res := Result{Forced: force, StartedAt: time.Now()}
	log := logging.With(logging.Fields{"op": "refresh", "force": force})

	doc, err := c.store.Get(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to read configuration, using the in-memory thumbnail map")
		res.Outcome = OutcomeConfigError
		res.Err = fmt.Errorf("read config: %w", err)
		c.publish(ctx, c.Current(), &res)
		return res
	}

	logging.SetDebugMode(doc.DebugMode)

	durable := c.canonical(doc.ThumbnailsHashMap)
	c.current.Store(&durable)

	if !doc.NewWallpapers && !force {
		log.Debug("No new wallpapers, skipping thumbnail generation")
		res.Outcome = OutcomeSkipped
		c.publish(ctx, durable, &res)
		return res
	}

	log.Info("Generating thumbnails for %s", doc.WallpapersPath)

	regenerated, err := c.regenerate(ctx, doc.WallpapersPath, &res)
	if err != nil {
		log.WithError(err).Error("Failed to list videos, keeping the previous thumbnail map")
		res.Outcome = OutcomeListError
		res.Err = err
		c.publish(ctx, durable, &res)
		return res
	}

	if err := c.persist(ctx, regenerated); err != nil {
		log.WithError(err).Error("Failed to persist thumbnail map, keeping the previous one")
		metrics.CachePersistErrors.Inc()
		res.Outcome = OutcomePersistError
		res.Err = err
		c.publish(ctx, durable, &res)
		return res
	}

	c.current.Store(&regenerated)
	res.Outcome = OutcomeGenerated
	res.Generated = true
	c.publish(ctx, regenerated, &res)

	log.Info("Thumbnail refresh complete: %d videos, %d generated, %d failed in %v",
		res.Videos, res.Succeeded, res.Failed, res.Duration)
	return res
}

// publish materializes m and completes res.
func (c *Cache) publish(ctx context.Context, m thumbmap.Map, res *Result) {
	hm := c.materialize(ctx, m)
	res.Entries = m.Len()
	res.Handles = hm.Len()
	res.Duration = time.Since(res.StartedAt)
}

// persist writes m as the document's thumbnail map.
func (c *Cache) persist(ctx context.Context, m thumbmap.Map) error {
	p := config.Partial{ThumbnailsHashMap: config.ThumbnailMap(m)}
	if c.opts.ClearDirtyOnSuccess {
		p.NewWallpapers = config.Bool(false)
	}
	if err := c.store.Update(ctx, p); err != nil {
		return fmt.Errorf("persist thumbnail map: %w", err)
	}
	return nil
}

// canonical returns m in collation order, reordering only when needed.
func (c *Cache) canonical(m thumbmap.Map) thumbmap.Map {
	if thumbmap.IsCanonical(m, c.opts.Locale) {
		return m
	}
	return thumbmap.Canonicalize(m.ToMap(), c.opts.Locale)
}

// Clear deletes every artifact, persists an empty map and publishes no
// handles. It waits for a running refresh and holds off new ones until done.
func (c *Cache) Clear(ctx context.Context) error {
	f, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer c.finish(f)

	f.result = c.safeRun(func() Result {
		return c.clear(context.WithoutCancel(ctx))
	})
	return f.result.Err
}

// acquire claims the coordinator for an exclusive operation.
func (c *Cache) acquire(ctx context.Context) (*flight, error) {
	for {
		c.mu.Lock()
		if !c.running {
			f := &flight{done: make(chan struct{})}
			c.running = true
			c.flight = f
			c.mu.Unlock()
			metrics.RefreshRunning.Set(1)
			return f, nil
		}
		busy := c.flight
		c.mu.Unlock()

		select {
		case <-busy.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (c *Cache) clear(ctx context.Context) Result {
	res := Result{Outcome: OutcomeCleared, StartedAt: time.Now()}
	log := logging.With(logging.Fields{"op": "clear_thumbnails", "dir": c.opts.OutputDir})

	if c.opts.OutputDir != "" {
		if err := c.opts.Fs.RemoveAll(c.opts.OutputDir); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.WithError(err).Error("Failed to delete thumbnails")
			res.Err = fmt.Errorf("delete thumbnails: %w", err)
			res.Duration = time.Since(res.StartedAt)
			return res
		}
	}

	empty := thumbmap.Map{}
	if err := c.store.Update(ctx, config.Partial{ThumbnailsHashMap: config.ThumbnailMap(empty)}); err != nil {
		log.WithError(err).Error("Failed to reset thumbnail map")
		metrics.CachePersistErrors.Inc()
		res.Err = fmt.Errorf("persist empty thumbnail map: %w", err)
	}

	c.current.Store(&empty)
	c.handles.Store(emptyHandleMap())
	res.Duration = time.Since(res.StartedAt)

	if res.Err == nil {
		log.Info("All thumbnails deleted")
	}
	return res
}

// Running reports whether a refresh or clear is in progress.
func (c *Cache) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// LastResult returns the result of the most recently completed operation.
func (c *Cache) LastResult() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Current returns the thumbnail map the published handles were built from.
func (c *Cache) Current() thumbmap.Map {
	return *c.current.Load()
}

// Handles returns the published display handles.
func (c *Cache) Handles() *HandleMap {
	return c.handles.Load()
}

// Progress returns the generation counters.
func (c *Cache) Progress() ProgressSnapshot {
	snap := c.progress.snapshot()
	snap.Running = c.Running()
	return snap
}

// GetStats implements metrics.StatsProvider.
func (c *Cache) GetStats() metrics.Stats {
	hm := c.Handles()
	return metrics.Stats{
		CacheEntries:     c.Current().Len(),
		DisplayHandles:   hm.Len(),
		HandleBytes:      hm.Bytes(),
		ThumbnailDirSize: c.dirSize(),
	}
}

func (c *Cache) dirSize() int64 {
	if c.opts.OutputDir == "" {
		return 0
	}
	var size int64
	err := afero.Walk(c.opts.Fs, c.opts.OutputDir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.Mode().IsRegular() {
			size += info.Size()
		}
		return nil
	})
	if err != nil {
		logging.Debug("Failed to size thumbnails directory: %v", err)
	}
	return size
}
