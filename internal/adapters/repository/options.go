package repository

import (
	"time"

	"github.com/okian/opsboard/internal/domain/join"
	"github.com/okian/opsboard/pkg/logger"
)

// Option applies a configuration option to the DatasetStore.
type Option func(*DatasetStore)

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *DatasetStore) {
		if l != nil {
			s.log = l
		}
	}
}

// WithJoinPolicy sets how tickets of multi-category customers are enriched.
func WithJoinPolicy(p join.Policy) Option {
	return func(s *DatasetStore) {
		if p != "" {
			s.policy = p
		}
	}
}

// WithLoader replaces the CSV loader, mainly for tests.
func WithLoader(l Loader) Option {
	return func(s *DatasetStore) {
		if l != nil {
			s.loader = l
		}
	}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets how long a file must be quiet before the cache is dropped.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatcherLogger sets the watcher logger.
func WithWatcherLogger(l logger.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.log = l
		}
	}
}
