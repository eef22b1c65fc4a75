package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

// collector records ingest calls for assertions.
type collector struct {
	mu    sync.Mutex
	items []IncomingMedia
}

func (c *collector) ingest(ctx context.Context, m IncomingMedia) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, m)
}

func (c *collector) snapshot() []IncomingMedia {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]IncomingMedia, len(c.items))
	copy(out, c.items)
	return out
}

func newTestWatcher(t *testing.T, dir string, c *collector) *Watcher {
	t.Helper()
	w, err := NewWatcher(dir, 50*time.Millisecond, c.ingest)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if !w.IsWatching() {
			w.watcher.Close()
		}
	})
	return w
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestWatcherIngestsSettledMediaFile(t *testing.T) {
	dir := t.TempDir()
	c := &collector{}
	w := newTestWatcher(t, dir, c)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "lecture.mp4")
	if err := os.WriteFile(path, []byte("video bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	if !waitFor(t, 3*time.Second, func() bool { return len(c.snapshot()) == 1 }) {
		t.Fatalf("file never ingested, stats=%+v", w.GetStats())
	}
	got := c.snapshot()[0]
	if got.Path != path || got.Audio {
		t.Errorf("unexpected ingest: %+v", got)
	}
}

func TestWatcherSkipsUnsupportedFiles(t *testing.T) {
	dir := t.TempDir()
	c := &collector{}
	w := newTestWatcher(t, dir, c)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("text"), 0644); err != nil {
		t.Fatal(err)
	}

	if !waitFor(t, 2*time.Second, func() bool { return w.GetStats().FilesSkipped > 0 }) {
		t.Fatal("unsupported file never observed")
	}
	if len(c.snapshot()) != 0 {
		t.Errorf("unsupported file was ingested: %v", c.snapshot())
	}
}

func TestWatcherDebouncesRepeatedWrites(t *testing.T) {
	dir := t.TempDir()
	c := &collector{}
	w := newTestWatcher(t, dir, c)

	// Drive handleEvent directly so timing stays deterministic.
	path := filepath.Join(dir, "song.mp3")
	if err := os.WriteFile(path, []byte("audio"), 0644); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Write})
	}

	if stats := w.GetStats(); stats.FilesSeen != 1 {
		t.Errorf("repeated writes should count as one pending file, got %d", stats.FilesSeen)
	}

	time.Sleep(60 * time.Millisecond)
	w.processSettled(context.Background())

	got := c.snapshot()
	if len(got) != 1 {
		t.Fatalf("expected one ingest after settling, got %d", len(got))
	}
	if !got[0].Audio {
		t.Error("mp3 should be flagged as audio")
	}
	if stats := w.GetStats(); stats.FilesIngested != 1 {
		t.Errorf("stats out of sync: %+v", stats)
	}
}

func TestWatcherHoldsFileUntilQuiet(t *testing.T) {
	dir := t.TempDir()
	c := &collector{}
	w := newTestWatcher(t, dir, c)

	path := filepath.Join(dir, "clip.mkv")
	if err := os.WriteFile(path, []byte("bytes"), 0644); err != nil {
		t.Fatal(err)
	}
	w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Create})

	// Still inside the debounce window.
	w.processSettled(context.Background())
	if len(c.snapshot()) != 0 {
		t.Fatal("file ingested before the debounce window elapsed")
	}

	time.Sleep(60 * time.Millisecond)
	w.processSettled(context.Background())
	if len(c.snapshot()) != 1 {
		t.Fatal("file not ingested after settling")
	}
}

func TestWatcherSkipsVanishedFile(t *testing.T) {
	dir := t.TempDir()
	c := &collector{}
	w := newTestWatcher(t, dir, c)

	path := filepath.Join(dir, "gone.mp4")
	w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Create})

	time.Sleep(60 * time.Millisecond)
	w.processSettled(context.Background())

	if len(c.snapshot()) != 0 {
		t.Error("deleted file should not be ingested")
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir, &collector{})

	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !w.IsWatching() {
		t.Fatal("expected running watcher")
	}

	w.Stop()
	w.Stop()
	if w.IsWatching() {
		t.Error("watcher still marked running after Stop")
	}
}
