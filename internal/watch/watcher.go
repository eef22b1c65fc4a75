// Package watch monitors a drop folder for new media files and feeds them
// into the pipeline. Writes are debounced so a file still being copied is
// ingested once, after it settles.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"vidmind/internal/logging"
	"vidmind/internal/media"
	"vidmind/internal/types"

	"github.com/fsnotify/fsnotify"
)

// IngestFunc receives a settled media file from the drop folder.
type IngestFunc func(ctx context.Context, asset IncomingMedia)

// IncomingMedia describes a file picked up from the drop folder.
type IncomingMedia struct {
	Path  string
	Audio bool
}

// Watcher watches one directory for media files.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	dir         string
	ingest      IngestFunc
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats Stats
}

// Stats tracks watcher activity.
type Stats struct {
	FilesSeen     int
	FilesIngested int
	FilesSkipped  int
	Errors        int
	LastEventTime time.Time
	LastEventPath string
}

// NewWatcher builds a watcher for the given drop folder.
func NewWatcher(dir string, debounce time.Duration, ingest IngestFunc) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		watcher:     fsw,
		dir:         dir,
		ingest:      ingest,
		debounceMap: make(map[string]time.Time),
		debounceDur: debounce,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; events are handled in a goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		logging.Watch("Failed to create drop folder %s: %v", w.dir, err)
	}
	if err := w.watcher.Add(w.dir); err != nil {
		return err
	}
	logging.Watch("Watching drop folder: %s", w.dir)

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.Watch("Error closing watcher: %v", err)
	}
	logging.Watch("Drop folder watcher stopped")
}

// IsWatching reports whether the event loop is running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// GetStats returns a snapshot of watcher activity.
func (w *Watcher) GetStats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	debounceTicker := time.NewTicker(100 * time.Millisecond)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Watch("Watcher context cancelled")
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Watch("Watcher error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-debounceTicker.C:
			w.processSettled(ctx)
		}
	}
}

// handleEvent records create/write events for media files; everything else
// is ignored.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = event.Name

	if !media.IsSupported(event.Name) {
		w.stats.FilesSkipped++
		logging.Watch("Ignoring unsupported file: %s", filepath.Base(event.Name))
		return
	}

	if _, pending := w.debounceMap[event.Name]; !pending {
		w.stats.FilesSeen++
	}
	w.debounceMap[event.Name] = time.Now()
}

// processSettled ingests files whose last event is older than the debounce
// window.
func (w *Watcher) processSettled(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for path, last := range w.debounceMap {
		if now.Sub(last) >= w.debounceDur {
			settled = append(settled, path)
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()

	for _, path := range settled {
		if _, err := os.Stat(path); err != nil {
			logging.Watch("Settled file vanished, skipping: %s", filepath.Base(path))
			continue
		}

		kind, err := media.DetectKind(path)
		if err != nil {
			continue
		}

		logging.Watch("Ingesting settled file: %s", filepath.Base(path))
		w.mu.Lock()
		w.stats.FilesIngested++
		w.mu.Unlock()

		w.ingest(ctx, IncomingMedia{Path: path, Audio: kind == types.MediaKindAudio})
	}
}
