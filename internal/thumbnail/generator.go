package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"wallthumb/internal/logging"
	"wallthumb/internal/metrics"

	"github.com/disintegration/imaging"
	"github.com/spf13/afero"
)

// Extension is the file extension of every generated artifact.
const Extension = ".png"

var (
	// ErrFFmpegNotFound is returned when the ffmpeg binary is not on PATH.
	ErrFFmpegNotFound = errors.New("ffmpeg not found")
	// ErrInvalidThumbnailID is returned for identifiers that are not plain file names.
	ErrInvalidThumbnailID = errors.New("invalid thumbnail id")
)

// FrameExtractor decodes one frame of a video. seek is an ffmpeg time
// specification; an empty seek means the first frame.
type FrameExtractor func(ctx context.Context, videoPath, seek string) (image.Image, error)

// Options configures artifact rendering.
type Options struct {
	Width  int
	Height int
	// Seek is the offset of the captured frame, e.g. "00:00:01.000".
	Seek string
}

// DefaultOptions returns the picker's standard 222x124 thumbnail taken one second in.
func DefaultOptions() Options {
	return Options{
		Width:  222,
		Height: 124,
		Seek:   "00:00:01.000",
	}
}

// FFmpegGenerator renders thumbnail artifacts with ffmpeg.
type FFmpegGenerator struct {
	fs      afero.Fs
	opts    Options
	extract FrameExtractor
}

// NewFFmpegGenerator creates a generator writing artifacts through fs.
func NewFFmpegGenerator(fs afero.Fs, opts Options) *FFmpegGenerator {
	defaults := DefaultOptions()
	if opts.Width <= 0 {
		opts.Width = defaults.Width
	}
	if opts.Height <= 0 {
		opts.Height = defaults.Height
	}
	return &FFmpegGenerator{
		fs:      fs,
		opts:    opts,
		extract: ExtractFrame,
	}
}

// SetFrameExtractor replaces the ffmpeg frame source.
func (g *FFmpegGenerator) SetFrameExtractor(fn FrameExtractor) {
	if fn != nil {
		g.extract = fn
	}
}

// Name returns the artifact identifier for a video path.
func Name(videoPath string) (string, error) {
	base := filepath.Base(videoPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		return "", fmt.Errorf("%w: no file name in %q", ErrInvalidThumbnailID, videoPath)
	}
	return stem + Extension, nil
}

// Generate produces the artifact for videoPath inside outDir and returns its path.
func (g *FFmpegGenerator) Generate(ctx context.Context, videoPath, outDir string) (string, error) {
	start := time.Now()

	name, err := Name(videoPath)
	if err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		return "", err
	}

	if err := g.fs.MkdirAll(outDir, 0o755); err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("failed to create thumbnails directory: %w", err)
	}

	outPath := filepath.Join(outDir, name)
	if _, err := g.fs.Stat(outPath); err == nil {
		logging.Debug("Thumbnail exists, reusing: %s", outPath)
		metrics.ThumbnailGenerationsTotal.WithLabelValues("cached").Inc()
		return outPath, nil
	}

	img, err := g.extract(ctx, videoPath, g.opts.Seek)
	if err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("failed to generate thumbnail for %s: %w", videoPath, err)
	}

	thumb := imaging.Fill(img, g.opts.Width, g.opts.Height, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := png.Encode(&buf, thumb); err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	if err := g.writeAtomic(outDir, outPath, buf.Bytes()); err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		return "", err
	}

	metrics.ThumbnailGenerationsTotal.WithLabelValues("success").Inc()
	metrics.ThumbnailGenerationDuration.Observe(time.Since(start).Seconds())
	logging.Debug("Thumbnail generated: %s (%d bytes, %v)", outPath, buf.Len(), time.Since(start))

	return outPath, nil
}

func (g *FFmpegGenerator) writeAtomic(dir, path string, data []byte) error {
	tmp, err := afero.TempFile(g.fs, dir, ".thumb-*"+Extension)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = g.fs.Remove(tmpName)
		return fmt.Errorf("failed to write thumbnail: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = g.fs.Remove(tmpName)
		return fmt.Errorf("failed to close thumbnail: %w", err)
	}
	if err := g.fs.Rename(tmpName, path); err != nil {
		_ = g.fs.Remove(tmpName)
		return fmt.Errorf("failed to move thumbnail into place: %w", err)
	}
	return nil
}

// ExtractFrame runs ffmpeg and decodes the PNG frame it writes to stdout.
// If seeking fails (e.g. the clip is shorter than seek) the first frame is used.
func ExtractFrame(ctx context.Context, videoPath, seek string) (image.Image, error) {
	logging.Debug("Extracting video frame: %s", videoPath)

	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFFmpegNotFound, err)
	}

	start := time.Now()
	defer func() {
		metrics.ThumbnailFFmpegDuration.Observe(time.Since(start).Seconds())
	}()

	var stdout, stderr bytes.Buffer
	run := func(args []string) error {
		stdout.Reset()
		stderr.Reset()
		cmd := exec.CommandContext(ctx, ffmpegPath, args...)
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			return err
		}
		if stdout.Len() == 0 {
			return fmt.Errorf("ffmpeg produced no output for %s", videoPath)
		}
		return nil
	}

	err = errors.New("no seek")
	if seek != "" {
		err = run(frameArgs(videoPath, seek))
		if err != nil {
			logging.Debug("FFmpeg seek attempt failed for %s: %v, stderr: %s", videoPath, err, stderr.String())
		}
	}
	if err != nil {
		if err := run(frameArgs(videoPath, "")); err != nil {
			return nil, fmt.Errorf("ffmpeg failed: %v, stderr: %s", err, stderr.String())
		}
	}

	img, _, err := image.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ffmpeg output: %w", err)
	}
	return img, nil
}

func frameArgs(videoPath, seek string) []string {
	args := []string{"-hide_banner", "-loglevel", "error"}
	if seek != "" {
		args = append(args, "-ss", seek)
	}
	return append(args,
		"-i", videoPath,
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)
}

// CheckFFmpeg reports the resolved ffmpeg path, or ErrFFmpegNotFound.
func CheckFFmpeg() (string, error) {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFFmpegNotFound, err)
	}
	return path, nil
}
