package thumbcache

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"wallthumb/internal/logging"
	"wallthumb/internal/thumbmap"
	"wallthumb/internal/thumbnail"
)

// regenerate lists the videos in dir and generates one artifact per video.
// Only a listing failure is returned; per-video failures are counted in res.
func (c *Cache) regenerate(ctx context.Context, dir string, res *Result) (thumbmap.Map, error) {
	c.progress.reset()

	videos, err := c.lister.List(ctx, dir)
	if err != nil {
		return thumbmap.Map{}, fmt.Errorf("list videos in %q: %w", dir, err)
	}

	generated := c.generateAll(ctx, videos, res)
	return thumbmap.Canonicalize(generated, c.opts.Locale), nil
}

// generateAll runs the generator over videos one at a time.
func (c *Cache) generateAll(ctx context.Context, videos []string, res *Result) map[string]string {
	c.progress.begin(len(videos))
	defer c.progress.end()

	res.Videos = len(videos)
	out := make(map[string]string, len(videos))

	for i, video := range videos {
		if i > 0 && c.opts.ItemDelay > 0 {
			time.Sleep(c.opts.ItemDelay)
		}

		id, err := c.generateOne(ctx, video)
		c.progress.advance()

		if err != nil {
			res.Failed++
			logging.With(logging.Fields{"op": "generate_thumbnail", "video": video}).
				WithError(err).Warn("Thumbnail generation failed, skipping video")
			continue
		}

		if prev, dup := out[id]; dup {
			res.Duplicates++
			logging.With(logging.Fields{"op": "generate_thumbnail", "video": video, "thumbnail": id}).
				Warn("Thumbnail name already used by %s, skipping video", prev)
			continue
		}

		out[id] = video
		res.Succeeded++
	}

	return out
}

// generateOne returns the identifier of the artifact generated for video.
func (c *Cache) generateOne(ctx context.Context, video string) (string, error) {
	path, err := c.gen.Generate(ctx, video, c.opts.OutputDir)
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", errors.New("generator returned no artifact")
	}

	id := filepath.Base(path)
	if err := thumbnail.ValidateID(id); err != nil {
		return "", err
	}
	return id, nil
}
