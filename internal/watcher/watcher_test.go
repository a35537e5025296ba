package watcher

import (
	"context"
	"sync"
	"testing"
	"time"

	"wallthumb/internal/config"
	"wallthumb/internal/thumbcache"

	"github.com/spf13/afero"
)

type fakeRefresher struct {
	mu     sync.Mutex
	calls  int
	forced []bool
}

func (r *fakeRefresher) Refresh(_ context.Context, force bool) (thumbcache.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.forced = append(r.forced, force)
	return thumbcache.Result{Outcome: thumbcache.OutcomeGenerated}, nil
}

func (r *fakeRefresher) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type fixture struct {
	fs        afero.Fs
	store     *config.Store
	refresher *fakeRefresher
	watcher   *Watcher
	past      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, f := range []string{"/walls/a.mp4", "/walls/nature/forest.mp4"} {
		if err := afero.WriteFile(fs, f, []byte("v"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-time.Hour)
	for _, d := range []string{"/walls", "/walls/nature"} {
		if err := fs.Chtimes(d, past, past); err != nil {
			t.Fatal(err)
		}
	}

	store := config.NewStore(fs, "/config")
	err := store.Update(context.Background(), config.Partial{
		WallpapersPath: config.String("/walls"),
		NewWallpapers:  config.Bool(false),
	})
	if err != nil {
		t.Fatal(err)
	}

	f := &fixture{fs: fs, store: store, refresher: &fakeRefresher{}, past: past}
	f.watcher = New(fs, store, f.refresher, time.Hour)
	f.watcher.updateLastKnownState("/walls")
	return f
}

func (f *fixture) dirty(t *testing.T) bool {
	t.Helper()
	doc, err := f.store.Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return doc.NewWallpapers
}

func TestNew_DefaultInterval(t *testing.T) {
	w := New(afero.NewMemMapFs(), nil, nil, 0)
	if w.pollInterval != defaultPollInterval {
		t.Errorf("pollInterval = %v, want %v", w.pollInterval, defaultPollInterval)
	}
}

func TestPoll_NoChange(t *testing.T) {
	f := newFixture(t)

	changed, err := f.watcher.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if changed {
		t.Error("Poll() reported a change on an untouched directory")
	}
	if f.refresher.Calls() != 0 {
		t.Errorf("refresh called %d times", f.refresher.Calls())
	}
	if f.dirty(t) {
		t.Error("dirty flag raised without a change")
	}
}

func TestPoll_DetectsChanges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, f *fixture)
	}{
		{
			name: "Root modified",
			mutate: func(t *testing.T, f *fixture) {
				now := time.Now()
				if err := f.fs.Chtimes("/walls", now, now); err != nil {
					t.Fatal(err)
				}
			},
		},
		{
			name: "Top-level entry added",
			mutate: func(t *testing.T, f *fixture) {
				if err := afero.WriteFile(f.fs, "/walls/b.mp4", []byte("v"), 0o644); err != nil {
					t.Fatal(err)
				}
				if err := f.fs.Chtimes("/walls", f.past, f.past); err != nil {
					t.Fatal(err)
				}
			},
		},
		{
			name: "Subdirectory modified",
			mutate: func(t *testing.T, f *fixture) {
				now := time.Now()
				if err := f.fs.Chtimes("/walls/nature", now, now); err != nil {
					t.Fatal(err)
				}
			},
		},
		{
			name: "Wallpapers path changed",
			mutate: func(t *testing.T, f *fixture) {
				if err := f.fs.MkdirAll("/other", 0o755); err != nil {
					t.Fatal(err)
				}
				err := f.store.Update(context.Background(), config.Partial{WallpapersPath: config.String("/other")})
				if err != nil {
					t.Fatal(err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.mutate(t, f)

			changed, err := f.watcher.Poll(context.Background())
			if err != nil {
				t.Fatalf("Poll() error = %v", err)
			}
			if !changed {
				t.Fatal("Poll() missed the change")
			}
			if !f.dirty(t) {
				t.Error("dirty flag not raised")
			}
			if f.refresher.Calls() != 1 || f.refresher.forced[0] {
				t.Errorf("refresh calls = %d, forced = %v; want one non-forced", f.refresher.Calls(), f.refresher.forced)
			}

			// The new state becomes the baseline.
			if changed, err := f.watcher.Poll(context.Background()); err != nil || changed {
				t.Errorf("second Poll() = %v, %v; want no change", changed, err)
			}
		})
	}
}

func TestPoll_HiddenEntries(t *testing.T) {
	tests := []struct {
		name        string
		skipHidden  bool
		wantChanged bool
	}{
		{"Counted by default", false, true},
		{"Ignored when skipping hidden", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.watcher.SetSkipHidden(tt.skipHidden)
			if err := afero.WriteFile(f.fs, "/walls/.DS_Store", []byte("x"), 0o644); err != nil {
				t.Fatal(err)
			}
			if err := f.fs.Chtimes("/walls", f.past, f.past); err != nil {
				t.Fatal(err)
			}

			changed, err := f.watcher.Poll(context.Background())
			if err != nil {
				t.Fatalf("Poll() error = %v", err)
			}
			if changed != tt.wantChanged {
				t.Errorf("Poll() changed = %v, want %v", changed, tt.wantChanged)
			}
		})
	}
}

func TestPoll_EmptyPath(t *testing.T) {
	f := newFixture(t)
	if err := f.store.Update(context.Background(), config.Partial{WallpapersPath: config.String("")}); err != nil {
		t.Fatal(err)
	}

	changed, err := f.watcher.Poll(context.Background())
	if err != nil || changed {
		t.Errorf("Poll() = %v, %v; want no-op", changed, err)
	}
}

func TestPoll_MissingDirectory(t *testing.T) {
	f := newFixture(t)
	if err := f.fs.RemoveAll("/walls"); err != nil {
		t.Fatal(err)
	}

	if _, err := f.watcher.Poll(context.Background()); err == nil {
		t.Error("Poll() expected error for a missing directory")
	}
	if f.refresher.Calls() != 0 {
		t.Error("refresh triggered for a missing directory")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	f := newFixture(t)
	w := New(f.fs, f.store, f.refresher, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop")
	}

	if f.refresher.Calls() != 0 {
		t.Errorf("refresh called %d times without changes", f.refresher.Calls())
	}
}
