package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"wallthumb/internal/config"
	"wallthumb/internal/startup"
	"wallthumb/internal/thumbcache"
	"wallthumb/internal/thumbnail"
	"wallthumb/internal/videos"
)

// Default timeout for filesystem operations
const defaultTimeout = 30 * time.Second

// errAborted is returned when the user declines a confirmation prompt.
var errAborted = errors.New("aborted")

// app carries the collaborators the commands use, so tests can swap them.
type app struct {
	fs         afero.Fs
	in         io.Reader
	isTerminal func() bool

	configDir string
	dataDir   string
	yes       bool
	jsonOut   bool
}

func newApp() *app {
	return &app{
		fs: afero.NewOsFs(),
		in: os.Stdin,
		isTerminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
	}
}

func (a *app) thumbnailDir() string {
	return filepath.Join(a.dataDir, "thumbnails")
}

func (a *app) store() *config.Store {
	return config.NewStore(a.fs, a.configDir)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "thumbctl",
		Short: "Manage the wallthumb thumbnail cache",
		Long: `thumbctl inspects and resets the wallthumb thumbnail cache on disk.

Use it while the daemon is stopped. With the daemon running, prefer
DELETE /api/thumbnails so the served thumbnails are cleared as well.

Examples:
  thumbctl status
  thumbctl status --json
  thumbctl clear-thumbnails --yes
  thumbctl clear-config`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", envOr("WALLTHUMB_CONFIG_DIR", startup.DefaultConfigDir()), "Directory holding config.json")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", envOr("WALLTHUMB_DATA_DIR", startup.DefaultDataDir()), "Directory holding the thumbnails directory")

	clearThumbs := &cobra.Command{
		Use:   "clear-thumbnails",
		Short: "Delete every thumbnail and empty the stored thumbnail map",
		Args:  cobra.NoArgs,
		RunE:  a.runClearThumbnails,
	}
	clearThumbs.Flags().BoolVarP(&a.yes, "yes", "y", false, "Do not ask for confirmation")

	clearConfig := &cobra.Command{
		Use:   "clear-config",
		Short: "Delete config.json; defaults are written on next start",
		Args:  cobra.NoArgs,
		RunE:  a.runClearConfig,
	}
	clearConfig.Flags().BoolVarP(&a.yes, "yes", "y", false, "Do not ask for confirmation")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the configuration and thumbnail cache state",
		Args:  cobra.NoArgs,
		RunE:  a.runStatus,
	}
	status.Flags().BoolVar(&a.jsonOut, "json", false, "Print status as JSON")

	root.AddCommand(clearThumbs, clearConfig, status)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(newApp()).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// confirm asks a yes/no question unless --yes was given. Without a terminal
// there is nobody to ask, so --yes is required.
func (a *app) confirm(cmd *cobra.Command, question string) error {
	if a.yes {
		return nil
	}
	if !a.isTerminal() {
		return errors.New("refusing to continue without a terminal; pass --yes to confirm")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", question)
	answer, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	default:
		return errAborted
	}
}

func (a *app) runClearThumbnails(cmd *cobra.Command, _ []string) error {
	dir := a.thumbnailDir()
	if err := a.confirm(cmd, fmt.Sprintf("Delete all thumbnails in %s?", dir)); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), defaultTimeout)
	defer cancel()

	// Clearing goes through the cache so the directory and the stored map
	// are reset the same way the daemon does it.
	cache := thumbcache.New(
		a.store(),
		videos.NewDirLister(a.fs),
		thumbnail.NewFFmpegGenerator(a.fs, thumbnail.DefaultOptions()),
		thumbnail.NewDiskLoader(a.fs, dir),
		thumbcache.Options{OutputDir: dir, Fs: a.fs},
	)
	if err := cache.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear thumbnails: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "All thumbnails deleted.")
	return nil
}

func (a *app) runClearConfig(cmd *cobra.Command, _ []string) error {
	store := a.store()
	if err := a.confirm(cmd, fmt.Sprintf("Delete %s?", store.Path())); err != nil {
		return err
	}

	if err := store.Clear(); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Configuration deleted. Defaults will be written on next start.")
	return nil
}

// Status is the output of the status command.
type Status struct {
	ConfigFile     string `json:"configFile"`
	ConfigExists   bool   `json:"configExists"`
	ConfigError    string `json:"configError,omitempty"`
	WallpapersPath string `json:"wallpapersPath"`
	NewWallpapers  bool   `json:"newWallpapers"`
	Command        string `json:"command"`
	MapEntries     int    `json:"mapEntries"`
	ThumbnailDir   string `json:"thumbnailDir"`
	ThumbnailFiles int    `json:"thumbnailFiles"`
	ThumbnailBytes int64  `json:"thumbnailBytes"`
	MissingFiles   int    `json:"missingFiles"`
}

func (a *app) collectStatus(ctx context.Context) Status {
	store := a.store()
	st := Status{
		ConfigFile:   store.Path(),
		ThumbnailDir: a.thumbnailDir(),
	}

	// Reading through the store would create a default document.
	exists, err := afero.Exists(a.fs, st.ConfigFile)
	st.ConfigExists = err == nil && exists
	if st.ConfigExists {
		doc, err := store.Get(ctx)
		if err != nil {
			st.ConfigError = err.Error()
		} else {
			st.WallpapersPath = doc.WallpapersPath
			st.NewWallpapers = doc.NewWallpapers
			st.Command = doc.Command
			st.MapEntries = doc.ThumbnailsHashMap.Len()
			for _, id := range doc.ThumbnailsHashMap.Keys() {
				if ok, _ := afero.Exists(a.fs, filepath.Join(st.ThumbnailDir, id)); !ok {
					st.MissingFiles++
				}
			}
		}
	}

	_ = afero.Walk(a.fs, st.ThumbnailDir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() && strings.EqualFold(filepath.Ext(info.Name()), thumbnail.Extension) {
			st.ThumbnailFiles++
			st.ThumbnailBytes += info.Size()
		}
		return nil
	})

	return st
}

func (a *app) runStatus(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), defaultTimeout)
	defer cancel()

	st := a.collectStatus(ctx)
	out := cmd.OutOrStdout()

	if a.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	fmt.Fprintf(out, "Config file:      %s\n", st.ConfigFile)
	switch {
	case !st.ConfigExists:
		fmt.Fprintln(out, "Status:           No configuration (defaults on next start)")
	case st.ConfigError != "":
		fmt.Fprintf(out, "Status:           Unreadable configuration: %s\n", st.ConfigError)
	default:
		fmt.Fprintf(out, "Wallpapers:       %s\n", orNone(st.WallpapersPath))
		fmt.Fprintf(out, "Marked dirty:     %v\n", st.NewWallpapers)
		fmt.Fprintf(out, "Command:          %s\n", orNone(st.Command))
		fmt.Fprintf(out, "Map entries:      %d\n", st.MapEntries)
		if st.MissingFiles > 0 {
			fmt.Fprintf(out, "Missing files:    %d\n", st.MissingFiles)
		}
	}
	fmt.Fprintf(out, "Thumbnail dir:    %s\n", st.ThumbnailDir)
	fmt.Fprintf(out, "Thumbnail files:  %d (%d bytes)\n", st.ThumbnailFiles, st.ThumbnailBytes)
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func orNone(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
