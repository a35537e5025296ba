package handlers

import (
	"context"
	"sync/atomic"
	"time"

	"wallthumb/internal/config"
	"wallthumb/internal/thumbcache"
)

// Cache is the thumbnail cache the handlers drive.
type Cache interface {
	Refresh(ctx context.Context, force bool) (thumbcache.Result, error)
	Trigger(force bool) bool
	Clear(ctx context.Context) error
	Progress() thumbcache.ProgressSnapshot
	Handles() *thumbcache.HandleMap
	Running() bool
	LastResult() thumbcache.Result
}

// ConfigStore reads and updates the user configuration.
type ConfigStore interface {
	Get(ctx context.Context) (config.Document, error)
	Update(ctx context.Context, p config.Partial) error
}

// Launcher runs the configured wallpaper command.
type Launcher interface {
	Launch(ctx context.Context, template, videoPath string) error
}

type Handlers struct {
	cache     Cache
	store     ConfigStore
	launcher  Launcher
	startTime time.Time
	ready     atomic.Bool
}

func New(cache Cache, store ConfigStore, launcher Launcher) *Handlers {
	return &Handlers{
		cache:     cache,
		store:     store,
		launcher:  launcher,
		startTime: time.Now(),
	}
}

// SetReady marks the service ready once the startup refresh has finished.
func (h *Handlers) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the startup refresh has finished.
func (h *Handlers) IsReady() bool {
	return h.ready.Load()
}
