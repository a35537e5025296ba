package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"wallthumb/internal/logging"
	"wallthumb/internal/metrics"
	"wallthumb/internal/thumbmap"

	"github.com/spf13/afero"
)

// FileName is the name of the configuration document inside the config directory.
const FileName = "config.json"

// ErrInvalidDocument is returned when the config file exists but cannot be parsed.
var ErrInvalidDocument = errors.New("invalid config document")

// Document is the persisted configuration.
type Document struct {
	Command           string       `json:"command"`
	WallpapersPath    string       `json:"wallpapersPath"`
	DebugMode         bool         `json:"debugMode"`
	NewWallpapers     bool         `json:"newWallpapers"`
	DarkMode          bool         `json:"darkMode"`
	Language          string       `json:"language"`
	ThumbnailsHashMap thumbmap.Map `json:"thumbnailsHashMap"`
}

// Default returns the document written on first start.
func Default() Document {
	return Document{
		NewWallpapers: true,
		DarkMode:      true,
		Language:      "eng",
	}
}

// Partial is an update to a Document. Nil fields are left untouched.
type Partial struct {
	Command           *string
	WallpapersPath    *string
	DebugMode         *bool
	NewWallpapers     *bool
	DarkMode          *bool
	Language          *string
	ThumbnailsHashMap *thumbmap.Map
}

// String returns a pointer to s, for building a Partial.
func String(s string) *string { return &s }

// Bool returns a pointer to b, for building a Partial.
func Bool(b bool) *bool { return &b }

// ThumbnailMap returns a pointer to m, for building a Partial.
func ThumbnailMap(m thumbmap.Map) *thumbmap.Map { return &m }

// Apply returns doc with every non-nil field of p written over it.
func (p Partial) Apply(doc Document) Document {
	if p.Command != nil {
		doc.Command = *p.Command
	}
	if p.WallpapersPath != nil {
		doc.WallpapersPath = *p.WallpapersPath
	}
	if p.DebugMode != nil {
		doc.DebugMode = *p.DebugMode
	}
	if p.NewWallpapers != nil {
		doc.NewWallpapers = *p.NewWallpapers
	}
	if p.DarkMode != nil {
		doc.DarkMode = *p.DarkMode
	}
	if p.Language != nil {
		doc.Language = *p.Language
	}
	if p.ThumbnailsHashMap != nil {
		doc.ThumbnailsHashMap = *p.ThumbnailsHashMap
	}
	return doc
}

// Store reads and writes the configuration document on a filesystem.
// Updates are serialized, so concurrent writers inside the process never
// lose each other's fields.
type Store struct {
	fs   afero.Fs
	dir  string
	path string
	mu   sync.Mutex
}

// NewStore returns a store for dir/config.json on fs.
func NewStore(fs afero.Fs, dir string) *Store {
	return &Store{
		fs:   fs,
		dir:  dir,
		path: filepath.Join(dir, FileName),
	}
}

// NewOsStore returns a store backed by the host filesystem.
func NewOsStore(dir string) *Store {
	return NewStore(afero.NewOsFs(), dir)
}

// Path returns the location of the configuration document.
func (s *Store) Path() string {
	return s.path
}

// Ensure creates the config directory and writes the default document if
// none exists yet.
func (s *Store) Ensure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLocked()
}

func (s *Store) ensureLocked() error {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	exists, err := afero.Exists(s.fs, s.path)
	if err != nil {
		return fmt.Errorf("failed to check config file: %w", err)
	}
	if exists {
		return nil
	}

	logging.Info("Writing default configuration to %s", s.path)
	return s.writeLocked(Default())
}

// Get returns the current document, creating the default one if needed.
func (s *Store) Get(ctx context.Context) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLocked(); err != nil {
		return Document{}, err
	}
	return s.readLocked()
}

// Update merges p into the stored document and writes it back.
// If the stored document cannot be parsed it is replaced by the defaults
// merged with p.
func (s *Store) Update(ctx context.Context, p Partial) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLocked(); err != nil {
		metrics.ConfigWritesTotal.WithLabelValues("error").Inc()
		return err
	}

	current, err := s.readLocked()
	if err != nil {
		if !errors.Is(err, ErrInvalidDocument) {
			metrics.ConfigWritesTotal.WithLabelValues("error").Inc()
			return err
		}
		logging.With(logging.Fields{"op": "config_update", "path": s.path}).
			WithError(err).Warn("Replacing unreadable configuration with defaults")
		current = Default()
	}

	if err := s.writeLocked(p.Apply(current)); err != nil {
		metrics.ConfigWritesTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.ConfigWritesTotal.WithLabelValues("success").Inc()
	logging.Debug("Configuration updated: %s", s.path)
	return nil
}

// Clear removes the configuration document. A missing file is not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fs.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete config file: %w", err)
	}
	logging.Info("Configuration file deleted: %s", s.path)
	return nil
}

func (s *Store) readLocked() (Document, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read config file: %w", err)
	}

	doc := Default()
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %s: %v", ErrInvalidDocument, s.path, err)
	}
	return doc, nil
}

// writeLocked writes doc to a temp file next to the target and renames it
// into place, so readers never observe a partially written document.
func (s *Store) writeLocked(doc Document) error {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	tmp := fmt.Sprintf("%s.%d.tmp", s.path, time.Now().UnixNano())
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		if rmErr := s.fs.Remove(tmp); rmErr != nil {
			logging.Warn("failed to remove temp config %s: %v", tmp, rmErr)
		}
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	return nil
}
