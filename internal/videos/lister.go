package videos

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"wallthumb/internal/filesystem"
	"wallthumb/internal/logging"
	"wallthumb/internal/mediatypes"
	"wallthumb/internal/metrics"

	"github.com/spf13/afero"
)

// ErrEmptyPath is returned when no wallpapers directory has been configured.
var ErrEmptyPath = errors.New("wallpapers path is empty")

// DirLister lists video files below a directory.
type DirLister struct {
	fs         afero.Fs
	retry      filesystem.RetryConfig
	skipHidden bool
}

// NewDirLister creates a lister over fs.
func NewDirLister(fs afero.Fs) *DirLister {
	return &DirLister{
		fs:    fs,
		retry: filesystem.DefaultRetryConfig(),
	}
}

// NewOsDirLister creates a lister over the real filesystem.
func NewOsDirLister() *DirLister {
	return NewDirLister(afero.NewOsFs())
}

// SetSkipHidden excludes dot-files and dot-directories from listings.
// Hidden entries are listed by default.
func (l *DirLister) SetSkipHidden(skip bool) {
	l.skipHidden = skip
}

// List returns the absolute paths of all videos below dir, sorted lexically.
func (l *DirLister) List(ctx context.Context, dir string) ([]string, error) {
	if dir == "" {
		metrics.VideoListErrors.Inc()
		return nil, ErrEmptyPath
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		root = filepath.Clean(dir)
	}

	info, err := filesystem.StatWithRetry(l.fs, root, l.retry)
	if err != nil {
		metrics.VideoListErrors.Inc()
		return nil, fmt.Errorf("failed to stat wallpapers directory: %w", err)
	}
	if !info.IsDir() {
		metrics.VideoListErrors.Inc()
		return nil, fmt.Errorf("wallpapers path %s is not a directory", root)
	}

	start := time.Now()
	var paths []string

	err = afero.Walk(l.fs, root, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			logging.Warn("Error accessing path %s: %v", path, err)
			if info != nil && info.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		if l.skipHidden && path != root && strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() || !info.Mode().IsRegular() {
			return nil
		}

		if mediatypes.IsVideo(filepath.Ext(info.Name())) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		metrics.VideoListErrors.Inc()
		return nil, fmt.Errorf("walk error: %w", err)
	}

	sort.Strings(paths)

	logging.Debug("Listed %d videos in %s (%v)", len(paths), root, time.Since(start))
	return paths, nil
}
