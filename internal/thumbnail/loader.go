package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"wallthumb/internal/filesystem"
	"wallthumb/internal/mediatypes"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/spf13/afero"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// DiskLoader reads artifacts from the thumbnails directory.
type DiskLoader struct {
	fs    afero.Fs
	dir   string
	retry filesystem.RetryConfig
}

// NewDiskLoader creates a loader for artifacts stored in dir.
func NewDiskLoader(fs afero.Fs, dir string) *DiskLoader {
	return &DiskLoader{
		fs:    fs,
		dir:   dir,
		retry: filesystem.DefaultRetryConfig(),
	}
}

// Dir returns the artifact directory.
func (l *DiskLoader) Dir() string {
	return l.dir
}

// ValidateID rejects identifiers that are not a single file name. Dots inside
// a name are allowed: "my..clip.png" is a valid artifact.
func ValidateID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidThumbnailID, id)
	}
	return nil
}

// Load returns the bytes of the artifact named id.
func (l *DiskLoader) Load(ctx context.Context, id string) ([]byte, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	if !mediatypes.IsImage(filepath.Ext(id)) {
		return nil, fmt.Errorf("%w: %q is not an image artifact", ErrInvalidThumbnailID, id)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := filesystem.ReadFileWithRetry(l.fs, filepath.Join(l.dir, id), l.retry)
	if err != nil {
		return nil, fmt.Errorf("failed to read thumbnail %s: %w", id, err)
	}
	return data, nil
}

// Sniff returns the Content-Type of an encoded image, or an error when data
// is not an image any registered decoder understands.
func Sniff(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("not a decodable image: %w", err)
	}
	return mediatypes.GetMimeType("." + format), nil
}
