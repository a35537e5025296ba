package thumbcache

import (
	"sync/atomic"

	"wallthumb/internal/metrics"
)

// ProgressSnapshot is a point-in-time copy of the generation counters.
type ProgressSnapshot struct {
	Total     uint64 `json:"total"`
	Completed uint64 `json:"completed"`
	Running   bool   `json:"running"`
}

// progressTracker is written only by the generation loop.
type progressTracker struct {
	total     atomic.Uint64
	completed atomic.Uint64
}

func (p *progressTracker) reset() {
	p.total.Store(0)
	p.completed.Store(0)
	p.export()
}

func (p *progressTracker) begin(total int) {
	p.completed.Store(0)
	p.total.Store(uint64(total))
	p.export()
}

func (p *progressTracker) advance() {
	p.completed.Add(1)
	p.export()
}

// end marks the loop finished. completed keeps its final value.
func (p *progressTracker) end() {
	p.total.Store(0)
	p.export()
}

func (p *progressTracker) snapshot() ProgressSnapshot {
	return ProgressSnapshot{
		Total:     p.total.Load(),
		Completed: p.completed.Load(),
	}
}

func (p *progressTracker) export() {
	metrics.GenerationProgressTotal.Set(float64(p.total.Load()))
	metrics.GenerationProgressCompleted.Set(float64(p.completed.Load()))
}
