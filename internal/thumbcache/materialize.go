package thumbcache

import (
	"context"
	"fmt"

	"wallthumb/internal/logging"
	"wallthumb/internal/metrics"
	"wallthumb/internal/thumbmap"
	"wallthumb/internal/thumbnail"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// materialize loads every artifact of m and publishes the resulting handles,
// replacing the previous HandleMap. Entries that cannot be loaded are skipped.
// Loads run concurrently; handle order always follows m.
func (c *Cache) materialize(ctx context.Context, m thumbmap.Map) *HandleMap {
	entries := m.Entries()
	slots := make([]*Handle, len(entries))

	var g errgroup.Group
	g.SetLimit(c.opts.LoadWorkers)

	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			slots[i] = c.load(ctx, e)
			return nil
		})
	}
	_ = g.Wait() // load never returns an error

	handles := make([]Handle, 0, len(entries))
	for _, h := range slots {
		if h != nil {
			handles = append(handles, *h)
		}
	}

	hm := newHandleMap(handles)
	c.handles.Store(hm)

	metrics.DisplayHandles.Set(float64(hm.Len()))
	metrics.DisplayHandleBytes.Set(float64(hm.Bytes()))
	logging.Debug("Materialized %d of %d thumbnails", hm.Len(), len(entries))

	return hm
}

// load reads and validates one artifact. It returns nil when the entry is skipped.
func (c *Cache) load(ctx context.Context, e thumbmap.Entry) *Handle {
	log := logging.With(logging.Fields{"op": "materialize", "thumbnail": e.ThumbnailID, "video": e.VideoPath})

	data, err := c.loader.Load(ctx, e.ThumbnailID)
	if err != nil {
		metrics.MaterializeErrors.WithLabelValues("read").Inc()
		log.WithError(err).Warn("Failed to load thumbnail, skipping")
		return nil
	}

	contentType, err := thumbnail.Sniff(data)
	if err != nil {
		metrics.MaterializeErrors.WithLabelValues("decode").Inc()
		log.WithError(err).Warn("Thumbnail is not a valid image, skipping")
		return nil
	}

	return &Handle{
		ID:          uuid.NewString(),
		ThumbnailID: e.ThumbnailID,
		VideoPath:   e.VideoPath,
		ContentType: contentType,
		ETag:        fmt.Sprintf(`"%016x"`, xxhash.Sum64(data)),
		Data:        data,
	}
}
