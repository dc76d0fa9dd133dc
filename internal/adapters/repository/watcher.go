package repository

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/okian/opsboard/pkg/logger"
	"github.com/okian/opsboard/pkg/metrics"
)

const (
	defaultDebounce = 250 * time.Millisecond
	minTick         = 10 * time.Millisecond
)

// Invalidator is the part of Store the watcher needs.
type Invalidator interface {
	Invalidate(reason string)
}

// WatcherStats tracks watcher activity.
type WatcherStats struct {
	Events        int       `json:"events"`
	Invalidations int       `json:"invalidations"`
	Errors        int       `json:"errors"`
	LastEventPath string    `json:"last_event_path,omitempty"`
	LastEventType string    `json:"last_event_type,omitempty"`
	LastEventTime time.Time `json:"last_event_time"`
}

// Watcher drops the dataset cache when an input file changes. It watches the
// parent directories so files replaced by rename are still seen.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	target   Invalidator
	files    map[string]struct{}
	dirs     []string
	pending  map[string]time.Time
	debounce time.Duration
	log      logger.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
	stats    WatcherStats
}

// NewWatcher creates a watcher for paths that invalidates target.
func NewWatcher(target Invalidator, paths []string, opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		watcher:  fw,
		target:   target,
		files:    make(map[string]struct{}, len(paths)),
		pending:  make(map[string]time.Time),
		debounce: defaultDebounce,
		log:      logger.Nop(),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	seenDir := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = filepath.Clean(p)
		}
		w.files[abs] = struct{}{}
		dir := filepath.Dir(abs)
		if _, ok := seenDir[dir]; !ok {
			seenDir[dir] = struct{}{}
			w.dirs = append(w.dirs, dir)
		}
	}
	return w, nil
}

// Start begins watching. It returns once the directories are registered.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	for _, dir := range w.dirs {
		if err := w.watcher.Add(dir); err != nil {
			w.log.Warn(ctx, "watch directory failed", logger.String("dir", dir), logger.Error(err))
			continue
		}
		w.log.Info(ctx, "watching dataset directory", logger.String("dir", dir))
	}

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
		w.log.Error(context.Background(), "close watcher", logger.Error(err))
	}
}

// Stats returns a copy of the watcher counters.
func (w *Watcher) Stats() WatcherStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := w.debounce / 2
	if tick < minTick {
		tick = minTick
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error(ctx, "watcher error", logger.Error(err))
			metrics.RecordErrorByComponent("watcher", "fsnotify")
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	name := filepath.Clean(event.Name)
	if _, ok := w.files[name]; !ok {
		return
	}

	var op string
	switch {
	case event.Op&fsnotify.Create != 0:
		op = "create"
	case event.Op&fsnotify.Write != 0:
		op = "modify"
	case event.Op&fsnotify.Remove != 0:
		op = "delete"
	case event.Op&fsnotify.Rename != 0:
		op = "rename"
	default:
		return
	}
	w.log.Debug(ctx, "dataset file event", logger.String("path", name), logger.String("op", op))

	w.mu.Lock()
	w.stats.Events++
	w.stats.LastEventPath = name
	w.stats.LastEventType = op
	w.stats.LastEventTime = time.Now()
	w.pending[name] = time.Now()
	w.mu.Unlock()
}

// flush invalidates once for all files that have been quiet for the debounce window.
func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	settled := make([]string, 0)
	for path, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			settled = append(settled, path)
			delete(w.pending, path)
		}
	}
	if len(settled) > 0 {
		w.stats.Invalidations++
	}
	w.mu.Unlock()

	if len(settled) == 0 {
		return
	}
	w.log.Info(ctx, "dataset files changed", logger.Strings("paths", settled))
	w.target.Invalidate(ReasonWatch)
}
