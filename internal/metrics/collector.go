package metrics

import (
	"time"

	"wallthumb/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current statistics
type Stats struct {
	CacheEntries     int
	DisplayHandles   int
	HandleBytes      int64
	ThumbnailDirSize int64
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	CacheEntries.Set(float64(stats.CacheEntries))
	DisplayHandles.Set(float64(stats.DisplayHandles))
	DisplayHandleBytes.Set(float64(stats.HandleBytes))
	ThumbnailDirBytes.Set(float64(stats.ThumbnailDirSize))

	logging.Debug("Metrics collected: entries=%d, handles=%d, handleBytes=%d, dirBytes=%d",
		stats.CacheEntries, stats.DisplayHandles, stats.HandleBytes, stats.ThumbnailDirSize)
}
