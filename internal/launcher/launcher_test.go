package launcher

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestExpand(t *testing.T) {
	tests := []struct {
		name     string
		template string
		path     string
		want     string
	}{
		{
			name:     "Simple path",
			template: "mpvpaper -o loop ALL $VP",
			path:     "/walls/ocean.mp4",
			want:     `mpvpaper -o loop ALL "/walls/ocean.mp4"`,
		},
		{
			name:     "Path with spaces",
			template: "player $VP",
			path:     "/walls/my clip.mp4",
			want:     `player "/walls/my clip.mp4"`,
		},
		{
			name:     "Shell metacharacters escaped",
			template: "player $VP",
			path:     "/walls/$(rm -rf)`x`\"q\\.mp4",
			want:     `player "/walls/\$(rm -rf)\` + "`x\\`" + `\"q\\.mp4"`,
		},
		{
			name:     "Multiple placeholders",
			template: "a $VP b $VP",
			path:     "/x.mp4",
			want:     `a "/x.mp4" b "/x.mp4"`,
		},
		{
			name:     "No placeholder",
			template: "pkill mpvpaper",
			path:     "/x.mp4",
			want:     "pkill mpvpaper",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Expand(tt.template, tt.path); got != tt.want {
				t.Errorf("Expand() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestLaunch_NoCommand(t *testing.T) {
	l := New()
	for _, template := range []string{"", "   "} {
		if err := l.Launch(context.Background(), template, "/x.mp4"); !errors.Is(err, ErrNoCommand) {
			t.Errorf("Launch(%q) error = %v, want ErrNoCommand", template, err)
		}
	}
}

func TestLaunch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := New().Launch(ctx, "true", "/x.mp4"); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestLaunch_RunsCommand(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	out := filepath.Join(t.TempDir(), "out.txt")
	video := "/walls/it's a $clip.mp4"

	l := New()
	if err := l.Launch(context.Background(), "printf '%s' $VP > "+out, video); err != nil {
		t.Fatalf("Launch() error = %v", err)
	}
	l.Wait()

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("command did not run: %v", err)
	}
	if string(got) != video {
		t.Errorf("command saw %q, want %q", got, video)
	}
}
