// Package launcher runs the user's wallpaper command against a video.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"wallthumb/internal/logging"
)

// Placeholder is replaced by the quoted video path in command templates.
const Placeholder = "$VP"

// ErrNoCommand is returned when no command template is configured.
var ErrNoCommand = errors.New("no wallpaper command configured")

// Launcher starts commands in the background through a shell.
type Launcher struct {
	shell string
	wg    sync.WaitGroup
}

// New returns a Launcher using /bin/sh.
func New() *Launcher {
	return &Launcher{shell: "sh"}
}

// Expand substitutes every Placeholder in template with the double-quoted path.
func Expand(template, videoPath string) string {
	return strings.ReplaceAll(template, Placeholder, quote(videoPath))
}

// quote wraps s in double quotes, escaping the characters the shell still
// interprets inside them.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '\\', '$', '`':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

// Launch expands template for videoPath and starts it without waiting for it
// to exit. The command outlives ctx.
func (l *Launcher) Launch(ctx context.Context, template, videoPath string) error {
	if strings.TrimSpace(template) == "" {
		return ErrNoCommand
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	full := Expand(template, videoPath)
	cmd := exec.Command(l.shell, "-c", full) //nolint:gosec // G204 - running the user's own configured command is the purpose of this package

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start command: %w", err)
	}

	log := logging.With(logging.Fields{"op": "launch", "video": videoPath, "pid": cmd.Process.Pid})
	log.Info("Wallpaper command started")

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if err := cmd.Wait(); err != nil {
			log.WithError(err).Warn("Wallpaper command exited with error")
			return
		}
		log.Debug("Wallpaper command exited")
	}()

	return nil
}

// Wait blocks until every launched command has exited.
func (l *Launcher) Wait() {
	l.wg.Wait()
}
