package thumbcache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"wallthumb/internal/config"
	"wallthumb/internal/metrics"
	"wallthumb/internal/thumbmap"
	"wallthumb/internal/thumbnail"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"golang.org/x/text/language"
)

const (
	configDir = "/config"
	thumbDir  = "/thumbs"
	wallsDir  = "/walls"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type fakeLister struct {
	mu     sync.Mutex
	videos []string
	err    error
	calls  int
	dirs   []string
}

func (l *fakeLister) List(_ context.Context, dir string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	l.dirs = append(l.dirs, dir)
	if l.err != nil {
		return nil, l.err
	}
	return append([]string(nil), l.videos...), nil
}

func (l *fakeLister) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// fakeGenerator writes a small PNG named after the video.
type fakeGenerator struct {
	fs      afero.Fs
	data    []byte
	fail    map[string]bool
	panicOn string

	// entered receives once per call when set; release blocks each call until closed.
	entered chan string
	release chan struct{}

	calls atomic.Int32
}

func (g *fakeGenerator) Generate(_ context.Context, videoPath, outDir string) (string, error) {
	g.calls.Add(1)
	if g.entered != nil {
		g.entered <- videoPath
	}
	if g.release != nil {
		<-g.release
	}
	if videoPath == g.panicOn {
		panic("generator exploded")
	}
	if g.fail[videoPath] {
		return "", errors.New("ffmpeg failed")
	}
	name, err := thumbnail.Name(videoPath)
	if err != nil {
		return "", err
	}
	path := filepath.Join(outDir, name)
	if err := afero.WriteFile(g.fs, path, g.data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// failingStore wraps a real store and fails selected operations.
type failingStore struct {
	*config.Store
	getErr    error
	updateErr error
}

func (s *failingStore) Get(ctx context.Context) (config.Document, error) {
	if s.getErr != nil {
		return config.Document{}, s.getErr
	}
	return s.Store.Get(ctx)
}

func (s *failingStore) Update(ctx context.Context, p config.Partial) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	return s.Store.Update(ctx, p)
}

type harness struct {
	fs     afero.Fs
	store  *config.Store
	lister *fakeLister
	gen    *fakeGenerator
	cache  *Cache
	png    []byte
}

func newHarness(t *testing.T, videos ...string) *harness {
	t.Helper()
	fs := afero.NewMemMapFs()
	data := pngBytes(t)
	h := &harness{
		fs:     fs,
		store:  config.NewStore(fs, configDir),
		lister: &fakeLister{videos: videos},
		gen:    &fakeGenerator{fs: fs, data: data, fail: map[string]bool{}},
		png:    data,
	}
	h.cache = h.build(h.store, Options{})
	h.setDoc(t, true, nil)
	return h
}

func (h *harness) build(store ConfigStore, opts Options) *Cache {
	opts.OutputDir = thumbDir
	opts.Fs = h.fs
	return New(store, h.lister, h.gen, thumbnail.NewDiskLoader(h.fs, thumbDir), opts)
}

// setDoc stores the wallpapers path, dirty flag and, when non-nil, a thumbnail map.
func (h *harness) setDoc(t *testing.T, dirty bool, m map[string]string) {
	t.Helper()
	p := config.Partial{
		WallpapersPath: config.String(wallsDir),
		NewWallpapers:  config.Bool(dirty),
	}
	if m != nil {
		p.ThumbnailsHashMap = config.ThumbnailMap(thumbmap.Canonicalize(m, language.English))
	}
	if err := h.store.Update(context.Background(), p); err != nil {
		t.Fatal(err)
	}
}

func (h *harness) writeArtifact(t *testing.T, id string, data []byte) {
	t.Helper()
	if err := afero.WriteFile(h.fs, filepath.Join(thumbDir, id), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func (h *harness) persisted(t *testing.T) thumbmap.Map {
	t.Helper()
	doc, err := h.store.Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return doc.ThumbnailsHashMap
}

func (h *harness) refresh(t *testing.T, force bool) Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := h.cache.Refresh(ctx, force)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	return res
}

func handleVideos(hm *HandleMap) []string {
	var out []string
	for _, h := range hm.List() {
		out = append(out, h.VideoPath)
	}
	return out
}

func TestRefresh_GeneratesInCanonicalOrder(t *testing.T) {
	h := newHarness(t, "/walls/b.mp4", "/walls/a.mp4", "/walls/c.mp4")

	res := h.refresh(t, false)

	if res.Outcome != OutcomeGenerated || !res.Generated || res.Err != nil {
		t.Fatalf("result = %+v", res)
	}
	if got := h.persisted(t).Keys(); !reflect.DeepEqual(got, []string{"a.png", "b.png", "c.png"}) {
		t.Errorf("persisted keys = %v", got)
	}
	if got := h.cache.Current().Keys(); !reflect.DeepEqual(got, []string{"a.png", "b.png", "c.png"}) {
		t.Errorf("current keys = %v", got)
	}
	if got := handleVideos(h.cache.Handles()); !reflect.DeepEqual(got, []string{"/walls/a.mp4", "/walls/b.mp4", "/walls/c.mp4"}) {
		t.Errorf("handle videos = %v", got)
	}
	if res.Videos != 3 || res.Succeeded != 3 || res.Handles != 3 || res.Entries != 3 {
		t.Errorf("counters = %+v", res)
	}
	if p := h.cache.Progress(); p.Total != 0 || p.Completed != 3 || p.Running {
		t.Errorf("progress = %+v, want total 0 completed 3", p)
	}
	if h.lister.dirs[0] != wallsDir {
		t.Errorf("listed %q, want %q", h.lister.dirs[0], wallsDir)
	}
}

func TestRefresh_PersistedOrderIsCollated(t *testing.T) {
	h := newHarness(t, "/walls/Zebra.mp4", "/walls/apple.mp4", "/walls/Éclair.mp4", "/walls/banana.mp4")

	h.refresh(t, false)

	m := h.persisted(t)
	if !thumbmap.IsCanonical(m, language.English) {
		t.Fatalf("persisted map not canonical: %v", m.Keys())
	}
	want := []string{"apple.png", "banana.png", "Éclair.png", "Zebra.png"}
	if got := m.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("keys = %v, want %v", got, want)
	}
}

func TestRefresh_SkipsGenerationWhenClean(t *testing.T) {
	h := newHarness(t, "/walls/a.mp4", "/walls/b.mp4", "/walls/c.mp4")
	h.setDoc(t, false, map[string]string{
		"a.png": "/walls/a.mp4",
		"b.png": "/walls/b.mp4",
		"c.png": "/walls/c.mp4",
	})
	for _, id := range []string{"a.png", "b.png", "c.png"} {
		h.writeArtifact(t, id, h.png)
	}

	before, err := afero.ReadFile(h.fs, h.store.Path())
	if err != nil {
		t.Fatal(err)
	}

	res := h.refresh(t, false)

	if res.Outcome != OutcomeSkipped || res.Generated {
		t.Errorf("outcome = %s, generated = %v", res.Outcome, res.Generated)
	}
	if calls := h.gen.calls.Load(); calls != 0 {
		t.Errorf("generator called %d times, want 0", calls)
	}
	if h.lister.Calls() != 0 {
		t.Errorf("lister called %d times, want 0", h.lister.Calls())
	}
	if h.cache.Handles().Len() != 3 {
		t.Errorf("handles = %d, want 3", h.cache.Handles().Len())
	}

	after, err := afero.ReadFile(h.fs, h.store.Path())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Error("config document changed on a skipped refresh")
	}

	// A second clean refresh leaves the published map equivalent.
	first := h.cache.Handles().List()
	h.refresh(t, false)
	second := h.cache.Handles().List()
	if len(first) != len(second) {
		t.Fatalf("handle count changed: %d -> %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ThumbnailID != second[i].ThumbnailID || first[i].VideoPath != second[i].VideoPath {
			t.Errorf("handle %d changed: %+v -> %+v", i, first[i], second[i])
		}
	}
}

func TestRefresh_ForceRegeneratesWhenClean(t *testing.T) {
	h := newHarness(t, "/walls/a.mp4")
	h.setDoc(t, false, nil)

	res := h.refresh(t, true)

	if res.Outcome != OutcomeGenerated || !res.Forced {
		t.Errorf("result = %+v", res)
	}
	if calls := h.gen.calls.Load(); calls != 1 {
		t.Errorf("generator called %d times, want 1", calls)
	}
}

func TestRefresh_PartialFailure(t *testing.T) {
	h := newHarness(t, "/walls/a.mp4", "/walls/b.mp4", "/walls/c.mp4")
	h.gen.fail["/walls/b.mp4"] = true

	res := h.refresh(t, false)

	if got := h.persisted(t).ToMap(); !reflect.DeepEqual(got, map[string]string{
		"a.png": "/walls/a.mp4",
		"c.png": "/walls/c.mp4",
	}) {
		t.Errorf("persisted = %v", got)
	}
	if res.Succeeded != 2 || res.Failed != 1 {
		t.Errorf("succeeded = %d, failed = %d", res.Succeeded, res.Failed)
	}
	if p := h.cache.Progress(); p.Completed != 3 {
		t.Errorf("completed = %d, want 3", p.Completed)
	}
	if res.Err != nil {
		t.Errorf("per-item failure surfaced as run error: %v", res.Err)
	}
}

func TestRefresh_ReplacesPreviousMap(t *testing.T) {
	h := newHarness(t, "/walls/a.mp4", "/walls/b.mp4")
	h.gen.fail["/walls/b.mp4"] = true
	h.setDoc(t, true, map[string]string{
		"gone.png": "/walls/gone.mp4",
		"b.png":    "/walls/b.mp4",
	})

	h.refresh(t, false)

	if got := h.persisted(t).ToMap(); !reflect.DeepEqual(got, map[string]string{"a.png": "/walls/a.mp4"}) {
		t.Errorf("persisted = %v, want only a.png", got)
	}
}

func TestRefresh_EmptyDirectory(t *testing.T) {
	h := newHarness(t)
	h.setDoc(t, true, map[string]string{"old.png": "/walls/old.mp4"})

	res := h.refresh(t, false)

	if res.Outcome != OutcomeGenerated {
		t.Errorf("outcome = %s", res.Outcome)
	}
	if p := h.cache.Progress(); p.Total != 0 || p.Completed != 0 {
		t.Errorf("progress = %+v, want 0/0", p)
	}
	if h.persisted(t).Len() != 0 {
		t.Errorf("persisted map = %v, want empty", h.persisted(t).Keys())
	}

	raw, err := afero.ReadFile(h.fs, h.store.Path())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"thumbnailsHashMap": {}`) {
		t.Errorf("config does not contain an empty map:\n%s", raw)
	}
}

func TestRefresh_ListErrorKeepsPreviousMap(t *testing.T) {
	h := newHarness(t)
	h.lister.err = errors.New("permission denied")
	h.setDoc(t, true, map[string]string{"a.png": "/walls/a.mp4"})
	h.writeArtifact(t, "a.png", h.png)

	res := h.refresh(t, false)

	if res.Outcome != OutcomeListError || res.Err == nil {
		t.Fatalf("result = %+v", res)
	}
	doc, err := h.store.Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !doc.NewWallpapers {
		t.Error("dirty flag cleared after a listing failure")
	}
	if got := doc.ThumbnailsHashMap.Keys(); !reflect.DeepEqual(got, []string{"a.png"}) {
		t.Errorf("persisted = %v", got)
	}
	if h.cache.Handles().Len() != 1 {
		t.Errorf("handles = %d, want 1", h.cache.Handles().Len())
	}
	if calls := h.gen.calls.Load(); calls != 0 {
		t.Errorf("generator called %d times", calls)
	}
}

func TestRefresh_PersistErrorKeepsSnapshot(t *testing.T) {
	h := newHarness(t, "/walls/new.mp4")
	h.setDoc(t, true, map[string]string{"old.png": "/walls/old.mp4"})
	h.writeArtifact(t, "old.png", h.png)

	before := testutil.ToFloat64(metrics.CachePersistErrors)
	store := &failingStore{Store: h.store, updateErr: errors.New("disk full")}
	cache := h.build(store, Options{})

	res, err := cache.Refresh(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}

	if res.Outcome != OutcomePersistError || res.Err == nil {
		t.Fatalf("result = %+v", res)
	}
	if got := cache.Current().Keys(); !reflect.DeepEqual(got, []string{"old.png"}) {
		t.Errorf("current = %v, want previous map", got)
	}
	if got := handleVideos(cache.Handles()); !reflect.DeepEqual(got, []string{"/walls/old.mp4"}) {
		t.Errorf("handles = %v", got)
	}
	if got := testutil.ToFloat64(metrics.CachePersistErrors) - before; got != 1 {
		t.Errorf("persist errors delta = %v, want 1", got)
	}
}

func TestRefresh_ConfigErrorUsesCurrentMap(t *testing.T) {
	h := newHarness(t, "/walls/a.mp4")
	h.writeArtifact(t, "a.png", h.png)
	h.refresh(t, false)

	store := &failingStore{Store: h.store, getErr: errors.New("unreadable")}
	cache := h.build(store, Options{})
	cache.current.Store(ptr(h.cache.Current()))

	res, err := cache.Refresh(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeConfigError || res.Err == nil {
		t.Fatalf("result = %+v", res)
	}
	if cache.Handles().Len() != 1 {
		t.Errorf("handles = %d, want 1", cache.Handles().Len())
	}
}

func ptr[T any](v T) *T { return &v }

func TestRefresh_SingleFlight(t *testing.T) {
	h := newHarness(t, "/walls/a.mp4", "/walls/b.mp4")
	h.gen.entered = make(chan string, 8)
	h.gen.release = make(chan struct{})

	coalesced := metrics.RefreshRequestsTotal.WithLabelValues("coalesced")
	before := testutil.ToFloat64(coalesced)

	const waiters = 5
	results := make(chan Result, waiters+1)
	go func() {
		res, _ := h.cache.Refresh(context.Background(), false)
		results <- res
	}()

	select {
	case <-h.gen.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("generation never started")
	}
	if !h.cache.Running() {
		t.Fatal("Running() = false during generation")
	}

	for i := 0; i < waiters; i++ {
		i := i
		go func() {
			res, _ := h.cache.Refresh(context.Background(), i%2 == 0)
			results <- res
		}()
	}

	deadline := time.Now().Add(5 * time.Second)
	for testutil.ToFloat64(coalesced)-before < waiters {
		if time.Now().After(deadline) {
			t.Fatal("waiters never joined the running refresh")
		}
		time.Sleep(time.Millisecond)
	}

	select {
	case res := <-results:
		t.Fatalf("a caller returned before the run finished: %+v", res)
	default:
	}

	close(h.gen.release)

	var first Result
	for i := 0; i < waiters+1; i++ {
		select {
		case res := <-results:
			if i == 0 {
				first = res
			} else if !reflect.DeepEqual(res, first) {
				t.Errorf("caller %d saw %+v, want %+v", i, res, first)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("callers did not complete")
		}
	}

	if h.lister.Calls() != 1 {
		t.Errorf("lister called %d times, want 1", h.lister.Calls())
	}
	if calls := h.gen.calls.Load(); calls != 2 {
		t.Errorf("generator called %d times, want 2", calls)
	}
	if h.cache.Running() {
		t.Error("Running() = true after completion")
	}
}

func TestRefresh_WaiterContextEnds(t *testing.T) {
	h := newHarness(t, "/walls/a.mp4")
	h.gen.entered = make(chan string, 1)
	h.gen.release = make(chan struct{})

	if !h.cache.Trigger(false) {
		t.Fatal("Trigger() did not start a run")
	}
	<-h.gen.entered

	if h.cache.Trigger(false) {
		t.Error("Trigger() started a second run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := h.cache.Refresh(ctx, false); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want DeadlineExceeded", err)
	}

	// The run itself is not cancelled by the waiter leaving.
	close(h.gen.release)
	res := h.refresh(t, false)
	if h.persisted(t).Len() != 1 {
		t.Errorf("run did not complete after the waiter left: %+v", res)
	}
}

func TestRefresh_PanicReturnsToIdle(t *testing.T) {
	h := newHarness(t, "/walls/a.mp4", "/walls/boom.mp4")
	h.gen.panicOn = "/walls/boom.mp4"

	res := h.refresh(t, false)

	if !errors.Is(res.Err, ErrRunPanicked) || res.Outcome != OutcomePanic {
		t.Fatalf("result = %+v", res)
	}
	if h.cache.Running() {
		t.Fatal("coordinator stuck in running state")
	}
	if p := h.cache.Progress(); p.Total != 0 {
		t.Errorf("progress total = %d after panic, want 0", p.Total)
	}
	if got := h.cache.LastResult().Outcome; got != OutcomePanic {
		t.Errorf("LastResult().Outcome = %s", got)
	}

	h.gen.panicOn = ""
	if res := h.refresh(t, false); res.Outcome != OutcomeGenerated {
		t.Errorf("refresh after panic = %s, want generated", res.Outcome)
	}
}

func TestRefresh_MaterializeSkipsBadArtifacts(t *testing.T) {
	h := newHarness(t)
	h.setDoc(t, false, map[string]string{
		"good.png":    "/walls/good.mp4",
		"missing.png": "/walls/missing.mp4",
		"corrupt.png": "/walls/corrupt.mp4",
	})
	h.writeArtifact(t, "good.png", h.png)
	h.writeArtifact(t, "corrupt.png", []byte("not an image"))

	res := h.refresh(t, false)

	if res.Entries != 3 || res.Handles != 1 {
		t.Errorf("entries = %d, handles = %d", res.Entries, res.Handles)
	}
	handles := h.cache.Handles().List()
	if len(handles) != 1 || handles[0].ThumbnailID != "good.png" {
		t.Fatalf("handles = %+v", handles)
	}
	hd := handles[0]
	if hd.ContentType != "image/png" || hd.ETag == "" || !bytes.Equal(hd.Data, h.png) {
		t.Errorf("handle = %+v", hd)
	}
	if video, ok := h.cache.Handles().VideoFor(hd.ID); !ok || video != "/walls/good.mp4" {
		t.Errorf("VideoFor(%s) = %q, %v", hd.ID, video, ok)
	}
}

func TestRefresh_ConcurrentLoadsKeepMapOrder(t *testing.T) {
	h := newHarness(t)
	h.cache = h.build(h.store, Options{LoadWorkers: 4})

	m := make(map[string]string)
	for i := 0; i < 40; i++ {
		id := fmt.Sprintf("clip%02d.png", i)
		m[id] = fmt.Sprintf("/walls/clip%02d.mp4", i)
		if i%7 != 3 {
			h.writeArtifact(t, id, h.png)
		}
	}
	h.setDoc(t, false, m)

	h.refresh(t, false)

	var want []string
	for _, e := range h.persisted(t).Entries() {
		if ok, _ := afero.Exists(h.fs, filepath.Join(thumbDir, e.ThumbnailID)); ok {
			want = append(want, e.VideoPath)
		}
	}
	if got := handleVideos(h.cache.Handles()); !reflect.DeepEqual(got, want) {
		t.Errorf("handle order = %v\nwant %v", got, want)
	}
}

func TestRefresh_HandlesAreRebuiltEachPass(t *testing.T) {
	h := newHarness(t, "/walls/a.mp4")
	h.refresh(t, false)
	first := h.cache.Handles().List()[0].ID

	h.refresh(t, false)
	second := h.cache.Handles().List()[0].ID

	if first == second {
		t.Error("handle id reused across materialization passes")
	}
	if _, ok := h.cache.Handles().Lookup(first); ok {
		t.Error("stale handle still resolvable")
	}
}

func TestRefresh_DuplicateThumbnailNames(t *testing.T) {
	h := newHarness(t, "/walls/one/clip.mp4", "/walls/two/clip.mkv")

	res := h.refresh(t, false)

	if got := h.persisted(t).ToMap(); !reflect.DeepEqual(got, map[string]string{"clip.png": "/walls/one/clip.mp4"}) {
		t.Errorf("persisted = %v", got)
	}
	if res.Duplicates != 1 || res.Succeeded != 1 {
		t.Errorf("duplicates = %d, succeeded = %d", res.Duplicates, res.Succeeded)
	}
}

func TestRefresh_NamesWithConsecutiveDots(t *testing.T) {
	h := newHarness(t, "/walls/a..b.mp4", "/walls/end..mp4", "/walls/my..clip.mp4")

	res := h.refresh(t, false)

	if res.Succeeded != 3 || res.Failed != 0 || res.Err != nil {
		t.Fatalf("result = %+v", res)
	}
	want := map[string]string{
		"a..b.png":     "/walls/a..b.mp4",
		"end..png":     "/walls/end..mp4",
		"my..clip.png": "/walls/my..clip.mp4",
	}
	if got := h.persisted(t).ToMap(); !reflect.DeepEqual(got, want) {
		t.Errorf("persisted = %v, want %v", got, want)
	}
	if got := handleVideos(h.cache.Handles()); !reflect.DeepEqual(got, []string{"/walls/a..b.mp4", "/walls/end..mp4", "/walls/my..clip.mp4"}) {
		t.Errorf("handle videos = %v", got)
	}
}

func TestRefresh_DirtyFlag(t *testing.T) {
	tests := []struct {
		name      string
		clear     bool
		wantDirty bool
	}{
		{"Left set by default", false, true},
		{"Cleared when enabled", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "/walls/a.mp4")
			cache := h.build(h.store, Options{ClearDirtyOnSuccess: tt.clear})

			if _, err := cache.Refresh(context.Background(), false); err != nil {
				t.Fatal(err)
			}

			doc, err := h.store.Get(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if doc.NewWallpapers != tt.wantDirty {
				t.Errorf("newWallpapers = %v, want %v", doc.NewWallpapers, tt.wantDirty)
			}
		})
	}
}

func TestRefresh_ItemDelay(t *testing.T) {
	h := newHarness(t, "/walls/a.mp4", "/walls/b.mp4", "/walls/c.mp4")
	cache := h.build(h.store, Options{ItemDelay: 10 * time.Millisecond})

	start := time.Now()
	if _, err := cache.Refresh(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	// Two pauses between three items.
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("elapsed %v, want at least 20ms", elapsed)
	}
}

func TestClear(t *testing.T) {
	h := newHarness(t, "/walls/a.mp4", "/walls/b.mp4")
	h.refresh(t, false)

	if err := h.cache.Clear(context.Background()); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	if exists, _ := afero.DirExists(h.fs, thumbDir); exists {
		t.Error("thumbnails directory still exists")
	}
	if h.persisted(t).Len() != 0 {
		t.Errorf("persisted = %v, want empty", h.persisted(t).Keys())
	}
	if h.cache.Handles().Len() != 0 || h.cache.Current().Len() != 0 {
		t.Error("in-memory state not cleared")
	}
	if got := h.cache.LastResult().Outcome; got != OutcomeCleared {
		t.Errorf("LastResult().Outcome = %s", got)
	}

	// Clearing twice is fine.
	if err := h.cache.Clear(context.Background()); err != nil {
		t.Errorf("second Clear() error = %v", err)
	}
}

func TestClear_WaitsForRunningRefresh(t *testing.T) {
	h := newHarness(t, "/walls/a.mp4")
	h.gen.entered = make(chan string, 1)
	h.gen.release = make(chan struct{})

	h.cache.Trigger(false)
	<-h.gen.entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := h.cache.Clear(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Clear() during refresh = %v, want DeadlineExceeded", err)
	}

	close(h.gen.release)
	if err := h.cache.Clear(context.Background()); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if h.persisted(t).Len() != 0 {
		t.Error("refresh result survived Clear")
	}
}

func TestGetStats(t *testing.T) {
	h := newHarness(t, "/walls/a.mp4", "/walls/b.mp4")
	h.refresh(t, false)

	stats := h.cache.GetStats()
	if stats.CacheEntries != 2 || stats.DisplayHandles != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if want := int64(2 * len(h.png)); stats.HandleBytes != want || stats.ThumbnailDirSize != want {
		t.Errorf("bytes = %d / %d, want %d", stats.HandleBytes, stats.ThumbnailDirSize, want)
	}
}

func TestNew_Defaults(t *testing.T) {
	c := New(nil, nil, nil, nil, Options{ItemDelay: -time.Second})
	if c.opts.Locale != language.English {
		t.Errorf("Locale = %v", c.opts.Locale)
	}
	if c.opts.ItemDelay != 0 {
		t.Errorf("ItemDelay = %v", c.opts.ItemDelay)
	}
	if c.opts.LoadWorkers < 1 || c.opts.LoadWorkers > maxLoadWorkers {
		t.Errorf("LoadWorkers = %d", c.opts.LoadWorkers)
	}
	if c.opts.Fs == nil || c.Handles() == nil || c.Current().Len() != 0 {
		t.Error("zero state not initialized")
	}
	if c.Running() {
		t.Error("new cache is running")
	}
}
