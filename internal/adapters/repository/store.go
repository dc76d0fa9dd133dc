// Package repository caches the prepared datasets and keeps them fresh.
package repository

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/opsboard/internal/adapters/csvsource"
	"github.com/okian/opsboard/internal/domain/join"
	"github.com/okian/opsboard/internal/domain/model"
	"github.com/okian/opsboard/internal/domain/pipeline"
	"github.com/okian/opsboard/pkg/logger"
	"github.com/okian/opsboard/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// Cache invalidation reasons.
const (
	ReasonStale  = "stale"
	ReasonManual = "manual"
	ReasonWatch  = "watch"
)

const fillKey = "datasets"

// Loader reads both datasets from disk.
type Loader interface {
	Load(ctx context.Context, txPath, ticketPath string) (model.Datasets, error)
}

// Store provides the current prepared datasets.
type Store interface {
	// Get returns the cached snapshot, loading it when missing or stale.
	Get(ctx context.Context) (*Snapshot, error)
	// Invalidate drops the cached snapshot.
	Invalidate(reason string)
	// Reload drops the cache and loads again.
	Reload(ctx context.Context) (*Snapshot, error)
}

// Snapshot is an immutable prepared dataset plus the file state it came from.
type Snapshot struct {
	Prepared    pipeline.Prepared
	Fingerprint Fingerprint
	LoadedAt    time.Time
}

// FileStamp identifies one version of a file.
type FileStamp struct {
	Path    string
	ModTime time.Time
	Size    int64
}

// Fingerprint identifies the version of both input files.
type Fingerprint struct {
	Transactions FileStamp
	Tickets      FileStamp
}

func (f Fingerprint) equal(o Fingerprint) bool {
	return f.Transactions.equal(o.Transactions) && f.Tickets.equal(o.Tickets)
}

func (s FileStamp) equal(o FileStamp) bool {
	return s.Path == o.Path && s.Size == o.Size && s.ModTime.Equal(o.ModTime)
}

func stamp(path string) (FileStamp, bool) {
	fi, err := os.Stat(path)
	if err != nil {
		return FileStamp{Path: path}, false
	}
	return FileStamp{Path: path, ModTime: fi.ModTime(), Size: fi.Size()}, true
}

// Stats describes cache activity.
type Stats struct {
	Loads         int64     `json:"loads"`
	Hits          int64     `json:"hits"`
	Misses        int64     `json:"misses"`
	Invalidations int64     `json:"invalidations"`
	LastLoadedAt  time.Time `json:"last_loaded_at"`
	LastError     string    `json:"last_error,omitempty"`
}

// DatasetStore is a Store backed by CSV files. Concurrent misses share a
// single load.
type DatasetStore struct {
	txPath     string
	ticketPath string
	policy     join.Policy
	loader     Loader
	log        logger.Logger

	snapshot atomic.Pointer[Snapshot]
	fills    singleflight.Group
	closed   atomic.Bool
	// generation advances on every invalidation; fills started under an
	// older generation do not publish their snapshot.
	generation atomic.Uint64

	loads         atomic.Int64
	hits          atomic.Int64
	misses        atomic.Int64
	invalidations atomic.Int64

	mu        sync.RWMutex
	lastError string
}

// NewDatasetStore creates a store for the two dataset files.
func NewDatasetStore(txPath, ticketPath string, opts ...Option) (*DatasetStore, error) {
	if txPath == "" || ticketPath == "" {
		return nil, ErrMissingPath
	}
	s := &DatasetStore{
		txPath:     txPath,
		ticketPath: ticketPath,
		policy:     join.PolicyFirstSeen,
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.loader == nil {
		s.loader = csvsource.NewLoader(csvsource.WithLogger(s.log))
	}
	return s, nil
}

// Paths returns the transaction and ticket file paths.
func (s *DatasetStore) Paths() (string, string) {
	return s.txPath, s.ticketPath
}

// Get implements Store. A snapshot is reused while both files keep their
// modification time and size. A shared load is not bound to any one caller:
// a caller whose ctx ends stops waiting, the load continues for the others.
func (s *DatasetStore) Get(ctx context.Context) (*Snapshot, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	fp, ok := s.fingerprint()
	if cur := s.snapshot.Load(); cur != nil {
		if ok && cur.Fingerprint.equal(fp) {
			s.hits.Add(1)
			metrics.RecordCacheHit()
			return cur, nil
		}
		if s.invalidate(ReasonStale) {
			s.forgetFill()
		}
	}

	s.misses.Add(1)
	metrics.RecordCacheMiss()

	fillCtx := context.WithoutCancel(ctx)
	ch := s.fills.DoChan(fillKey, func() (any, error) {
		return s.fill(fillCtx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.log.Debug(ctx, "shared dataset load")
		}
		return res.Val.(*Snapshot), nil
	}
}

func (s *DatasetStore) fill(ctx context.Context) (*Snapshot, error) {
	gen := s.generation.Load()
	fp, _ := s.fingerprint()
	start := time.Now()
	ds, err := s.loader.Load(ctx, s.txPath, s.ticketPath)
	s.loads.Add(1)
	if err != nil {
		s.setLastError(err.Error())
		metrics.RecordErrorByComponent("repository", "load")
		return nil, err
	}

	p := pipeline.Prepare(ds, s.policy)
	snap := &Snapshot{Prepared: p, Fingerprint: fp, LoadedAt: time.Now()}
	if s.generation.Load() != gen || s.closed.Load() {
		// invalidated while loading; the callers that joined still get it
		s.log.Debug(ctx, "discarding superseded dataset load")
		return snap, nil
	}
	s.snapshot.Store(snap)
	s.setLastError("")

	metrics.UpdateJoinDiagnostics(p.Diagnostics.UnmatchedTickets, len(p.Diagnostics.AmbiguousCustomers))
	if n := len(p.Diagnostics.AmbiguousCustomers); n > 0 {
		s.log.Warn(ctx, "customers mapped to several categories",
			logger.Int("customers", n),
			logger.String("join_policy", string(s.policy)))
	}
	s.log.Info(ctx, "datasets prepared",
		logger.Int("transactions", p.Diagnostics.TransactionRows),
		logger.Int("tickets", p.Diagnostics.TicketRows),
		logger.Int("unmatched_tickets", p.Diagnostics.UnmatchedTickets),
		logger.Duration("took", time.Since(start)))
	return snap, nil
}

func (s *DatasetStore) fingerprint() (Fingerprint, bool) {
	tx, okTx := stamp(s.txPath)
	tk, okTk := stamp(s.ticketPath)
	return Fingerprint{Transactions: tx, Tickets: tk}, okTx && okTk
}

// Current returns the cached snapshot without loading, or nil.
func (s *DatasetStore) Current() *Snapshot {
	return s.snapshot.Load()
}

// Invalidate implements Store. A load already in flight is detached so the
// next Get reads the files again.
func (s *DatasetStore) Invalidate(reason string) {
	s.forgetFill()
	s.invalidate(reason)
}

func (s *DatasetStore) forgetFill() {
	s.generation.Add(1)
	s.fills.Forget(fillKey)
}

// invalidate drops the snapshot and reports whether there was one.
func (s *DatasetStore) invalidate(reason string) bool {
	if s.snapshot.Swap(nil) == nil {
		return false
	}
	s.invalidations.Add(1)
	metrics.RecordCacheInvalidation(reason)
	s.log.Debug(context.Background(), "dataset cache invalidated", logger.String("reason", reason))
	return true
}

// Reload implements Store. It never returns a snapshot from a load that
// started before the call.
func (s *DatasetStore) Reload(ctx context.Context) (*Snapshot, error) {
	s.Invalidate(ReasonManual)
	return s.Get(ctx)
}

// Stats returns cache counters.
func (s *DatasetStore) Stats() Stats {
	st := Stats{
		Loads:         s.loads.Load(),
		Hits:          s.hits.Load(),
		Misses:        s.misses.Load(),
		Invalidations: s.invalidations.Load(),
	}
	if cur := s.snapshot.Load(); cur != nil {
		st.LastLoadedAt = cur.LoadedAt
	}
	s.mu.RLock()
	st.LastError = s.lastError
	s.mu.RUnlock()
	return st
}

func (s *DatasetStore) setLastError(msg string) {
	s.mu.Lock()
	s.lastError = msg
	s.mu.Unlock()
}

// Close stops serving snapshots.
func (s *DatasetStore) Close() error {
	s.closed.Store(true)
	s.snapshot.Store(nil)
	return nil
}
