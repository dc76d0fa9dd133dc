// Package service wires the dataset cache and the render pipeline into the
// operations used by the HTTP API and the terminal report.
package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/opsboard/internal/adapters/repository"
	"github.com/okian/opsboard/internal/domain/aggregate"
	"github.com/okian/opsboard/internal/domain/filter"
	"github.com/okian/opsboard/internal/domain/join"
	"github.com/okian/opsboard/internal/domain/pipeline"
	"github.com/okian/opsboard/internal/domain/types"
	"github.com/okian/opsboard/pkg/logger"
	"github.com/okian/opsboard/pkg/metrics"
)

// ErrNotStarted is returned by operations called before Start.
var ErrNotStarted = errors.New("service not started")

// DefaultTitle is the dashboard heading.
const DefaultTitle = "NordTech Business Operations Panel"

// Service renders dashboard views over the configured datasets.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   *repository.DatasetStore
	watcher *repository.Watcher

	// Configuration
	txPath      string
	ticketPath  string
	title       string
	topProblems int
	policy      join.Policy
	watch       bool
	debounce    time.Duration
	warm        bool

	// State
	started   bool
	startedAt time.Time
	renders   atomic.Int64
	failures  atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithPaths sets the transaction and ticket CSV paths.
func WithPaths(transactions, tickets string) Option {
	return func(s *Service) {
		if transactions != "" {
			s.txPath = transactions
		}
		if tickets != "" {
			s.ticketPath = tickets
		}
	}
}

// WithTitle sets the dashboard title.
func WithTitle(title string) Option {
	return func(s *Service) {
		if title != "" {
			s.title = title
		}
	}
}

// WithTopProblemsLimit sets the length of the top refunds table.
func WithTopProblemsLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topProblems = n
		}
	}
}

// WithJoinPolicy sets the ticket enrichment policy.
func WithJoinPolicy(p join.Policy) Option {
	return func(s *Service) {
		if p != "" {
			s.policy = p
		}
	}
}

// WithWatch enables file watching with the given debounce window.
func WithWatch(enabled bool, debounce time.Duration) Option {
	return func(s *Service) {
		s.watch = enabled
		if debounce > 0 {
			s.debounce = debounce
		}
	}
}

// WithWarmCache loads the datasets during Start.
func WithWarmCache(enabled bool) Option {
	return func(s *Service) {
		s.warm = enabled
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		txPath:      "enriched_data.csv",
		ticketPath:  "tickets_cleaned.csv",
		title:       DefaultTitle,
		topProblems: aggregate.DefaultTopProblems,
		policy:      join.PolicyFirstSeen,
		debounce:    250 * time.Millisecond,
		logger:      nil, // replaced in Start
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates the dataset store and, if enabled, warms it and starts the
// file watcher. A failed warm-up is logged; the error resurfaces on render.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("app")
	}

	s.logger.Info(ctx, "starting dashboard service...",
		logger.String("transactions", s.txPath),
		logger.String("tickets", s.ticketPath))

	store, err := repository.NewDatasetStore(s.txPath, s.ticketPath,
		repository.WithLogger(s.logger.Named("repository")),
		repository.WithJoinPolicy(s.policy),
	)
	if err != nil {
		return err
	}
	s.store = store

	if s.warm {
		if _, err := store.Get(ctx); err != nil {
			s.logger.Warn(ctx, "dataset warm-up failed", logger.Error(err))
		}
	}

	if s.watch {
		w, err := repository.NewWatcher(store, []string{s.txPath, s.ticketPath},
			repository.WithDebounce(s.debounce),
			repository.WithWatcherLogger(s.logger.Named("watcher")),
		)
		if err != nil {
			s.logger.Warn(ctx, "file watcher unavailable", logger.Error(err))
		} else if err := w.Start(ctx); err != nil {
			s.logger.Warn(ctx, "file watcher failed to start", logger.Error(err))
		} else {
			s.watcher = w
		}
	}

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "dashboard service started",
		logger.String("join_policy", string(s.policy)),
		logger.Int("top_problems", s.topProblems),
		logger.Bool("watch", s.watcher != nil),
	)
	return nil
}

// Stop shuts down the watcher and the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping dashboard service...")

	if s.watcher != nil {
		s.watcher.Stop()
		s.watcher = nil
	}
	if s.store != nil {
		_ = s.store.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "dashboard service stopped")
}

func (s *Service) snapshot(ctx context.Context) (*repository.Snapshot, error) {
	s.mu.RLock()
	store, started := s.store, s.started
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}
	return store.Get(ctx)
}

// Render resolves q against the datasets and builds the view model.
func (s *Service) Render(ctx context.Context, q types.Query) (types.ViewModel, error) {
	start := time.Now()
	snap, err := s.snapshot(ctx)
	if err != nil {
		s.failures.Add(1)
		metrics.RecordRender(metrics.OutcomeError, 0)
		return types.ViewModel{}, err
	}

	sel := s.selection(snap.Prepared, q)
	vm := pipeline.Render(snap.Prepared, sel, pipeline.Options{TopProblems: s.topProblems})

	s.renders.Add(1)
	metrics.RecordRender(metrics.OutcomeSuccess, float64(time.Since(start).Microseconds())/1000)
	metrics.UpdateFilteredRows(metrics.DatasetTransactions, vm.Rows.Transactions)
	metrics.UpdateFilteredRows(metrics.DatasetTickets, vm.Rows.Tickets)

	s.logger.Debug(ctx, "rendered view",
		logger.Strings("categories", vm.Selection.Categories),
		logger.String("start", vm.Selection.Start.String()),
		logger.String("end", vm.Selection.End.String()),
		logger.Int("transactions", vm.Rows.Transactions),
		logger.Int("tickets", vm.Rows.Tickets),
	)
	return vm, nil
}

func (s *Service) selection(p pipeline.Prepared, q types.Query) filter.Selection {
	start, end := filter.ResolveRange(q.Dates, p.Bounds)
	categories := q.Categories
	if q.AllCategories {
		categories = p.Categories
	}
	return filter.NewSelection(categories, start, end)
}

// FilterOptions returns the dashboard controls for the current datasets.
func (s *Service) FilterOptions(ctx context.Context) (types.FilterOptions, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return types.FilterOptions{}, err
	}
	opts := pipeline.FilterOptions(snap.Prepared)
	opts.Title = s.title
	return opts, nil
}

// Reload drops the cached datasets, loads them again and returns the new controls.
func (s *Service) Reload(ctx context.Context) (types.FilterOptions, error) {
	s.mu.RLock()
	store, started := s.store, s.started
	s.mu.RUnlock()
	if !started {
		return types.FilterOptions{}, ErrNotStarted
	}
	if _, err := store.Reload(ctx); err != nil {
		return types.FilterOptions{}, err
	}
	s.logger.Info(ctx, "datasets reloaded")
	return s.FilterOptions(ctx)
}

// Title returns the dashboard title.
func (s *Service) Title() string { return s.title }

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"transactionsPath": s.txPath,
		"ticketsPath":      s.ticketPath,
		"joinPolicy":       string(s.policy),
		"topProblemsLimit": s.topProblems,
		"renders":          s.renders.Load(),
		"renderFailures":   s.failures.Load(),
	}

	if s.started {
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
		stats["cache"] = s.store.Stats()
		if s.watcher != nil {
			stats["watcher"] = s.watcher.Stats()
		}
		if snap := s.store.Current(); snap != nil {
			stats["datasets"] = snap.Prepared.Diagnostics
		}
	}
	return stats
}
