package repository_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/opsboard/internal/adapters/csvsource"
	"github.com/okian/opsboard/internal/adapters/repository"
	"github.com/okian/opsboard/internal/domain/join"
	"github.com/okian/opsboard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const (
	txCSV = "Transaction_ID,Customer_ID,Product_Category,Product_Name,Date,Revenue,Refund_Amount\n" +
		"T1,C1,Books,Novel,2024-01-01,10,0\n"
	ticketCSV = "Customer_ID,Date_Logged,Complaint_Category\n" +
		"C1,2024-01-02,Billing\n"
)

func fixture(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	tx := filepath.Join(dir, "tx.csv")
	tk := filepath.Join(dir, "tk.csv")
	if err := os.WriteFile(tx, []byte(txCSV), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(tk, []byte(ticketCSV), 0o600); err != nil {
		t.Fatal(err)
	}
	return tx, tk
}

// countingLoader counts loads and can slow them down.
type countingLoader struct {
	calls atomic.Int32
	delay time.Duration
	inner repository.Loader
}

func (c *countingLoader) Load(ctx context.Context, tx, tk string) (model.Datasets, error) {
	c.calls.Add(1)
	time.Sleep(c.delay)
	return c.inner.Load(ctx, tx, tk)
}

// gatedLoader holds its first load until release is closed. The held load
// fails with the context error if its context ended meanwhile.
type gatedLoader struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	inner   repository.Loader
}

func newGatedLoader() *gatedLoader {
	return &gatedLoader{
		started: make(chan struct{}),
		release: make(chan struct{}),
		inner:   csvsource.NewLoader(),
	}
}

func (g *gatedLoader) Load(ctx context.Context, tx, tk string) (model.Datasets, error) {
	if g.calls.Add(1) == 1 {
		close(g.started)
		<-g.release
		if err := ctx.Err(); err != nil {
			return model.Datasets{}, err
		}
	}
	return g.inner.Load(ctx, tx, tk)
}

func TestNewDatasetStore(t *testing.T) {
	Convey("Given missing paths", t, func() {
		_, err := repository.NewDatasetStore("", "tk.csv")
		So(errors.Is(err, repository.ErrMissingPath), ShouldBeTrue)
	})
}

func TestDatasetStoreCaching(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store over two valid files", t, func() {
		tx, tk := fixture(t)
		loader := &countingLoader{inner: csvsource.NewLoader()}
		s, err := repository.NewDatasetStore(tx, tk, repository.WithLoader(loader), repository.WithJoinPolicy(join.PolicyFanOut))
		So(err, ShouldBeNil)

		first, err := s.Get(ctx)
		So(err, ShouldBeNil)

		Convey("Then the prepared data reflects the files", func() {
			So(first.Prepared.Categories, ShouldResemble, []string{"Books"})
			So(first.Prepared.Diagnostics.JoinPolicy, ShouldEqual, string(join.PolicyFanOut))
		})

		Convey("When the files are unchanged", func() {
			second, err := s.Get(ctx)

			Convey("Then the cached snapshot is reused", func() {
				So(err, ShouldBeNil)
				So(second, ShouldPointTo, first)
				So(loader.calls.Load(), ShouldEqual, 1)
				So(s.Stats().Hits, ShouldEqual, 1)
				So(s.Stats().Misses, ShouldEqual, 1)
			})
		})

		Convey("When a file grows", func() {
			more := txCSV + "T2,C2,Toys,Ball,2024-01-03,5,1\n"
			So(os.WriteFile(tx, []byte(more), 0o600), ShouldBeNil)
			next, err := s.Get(ctx)

			Convey("Then the datasets are loaded again", func() {
				So(err, ShouldBeNil)
				So(next, ShouldNotPointTo, first)
				So(next.Prepared.Categories, ShouldResemble, []string{"Books", "Toys"})
				So(loader.calls.Load(), ShouldEqual, 2)
			})
		})

		Convey("When invalidated", func() {
			s.Invalidate(repository.ReasonManual)
			_, err := s.Get(ctx)
			So(err, ShouldBeNil)
			So(loader.calls.Load(), ShouldEqual, 2)
			So(s.Stats().Invalidations, ShouldEqual, 1)
		})

		Convey("When reloaded", func() {
			snap, err := s.Reload(ctx)
			So(err, ShouldBeNil)
			So(snap, ShouldNotPointTo, first)
			So(loader.calls.Load(), ShouldEqual, 2)
		})

		Convey("When closed", func() {
			So(s.Close(), ShouldBeNil)
			_, err := s.Get(ctx)
			So(errors.Is(err, repository.ErrClosed), ShouldBeTrue)
		})
	})
}

func TestDatasetStoreConcurrentMisses(t *testing.T) {
	Convey("Given many concurrent first reads", t, func() {
		tx, tk := fixture(t)
		loader := &countingLoader{inner: csvsource.NewLoader(), delay: 50 * time.Millisecond}
		s, err := repository.NewDatasetStore(tx, tk, repository.WithLoader(loader))
		So(err, ShouldBeNil)

		var wg sync.WaitGroup
		errs := make(chan error, 16)
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Get(context.Background())
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		Convey("Then the files are loaded once", func() {
			for err := range errs {
				So(err, ShouldBeNil)
			}
			So(loader.calls.Load(), ShouldEqual, 1)
		})
	})
}

func TestDatasetStoreErrors(t *testing.T) {
	Convey("Given a ticket file that does not exist", t, func() {
		tx, _ := fixture(t)
		s, err := repository.NewDatasetStore(tx, filepath.Join(t.TempDir(), "missing.csv"))
		So(err, ShouldBeNil)

		_, err = s.Get(context.Background())

		Convey("Then the load error is returned and remembered", func() {
			So(errors.Is(err, csvsource.ErrLoad), ShouldBeTrue)
			So(s.Stats().LastError, ShouldNotBeEmpty)
		})
	})
}

func TestDatasetStoreCallerCancellation(t *testing.T) {
	Convey("Given a shared load joined by two callers", t, func() {
		tx, tk := fixture(t)
		loader := newGatedLoader()
		s, err := repository.NewDatasetStore(tx, tk, repository.WithLoader(loader))
		So(err, ShouldBeNil)

		cctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		first := make(chan error, 1)
		go func() {
			_, err := s.Get(cctx)
			first <- err
		}()
		<-loader.started

		second := make(chan error, 1)
		go func() {
			_, err := s.Get(context.Background())
			second <- err
		}()
		// let the second caller join the in-flight load
		time.Sleep(50 * time.Millisecond)

		Convey("When the first caller goes away", func() {
			cancel()
			So(errors.Is(<-first, context.Canceled), ShouldBeTrue)
			close(loader.release)

			Convey("Then the live caller still gets the datasets", func() {
				So(<-second, ShouldBeNil)
				So(loader.calls.Load(), ShouldEqual, 1)
				So(s.Stats().LastError, ShouldBeEmpty)
				So(s.Current(), ShouldNotBeNil)
			})
		})
	})
}

func TestDatasetStoreReloadDuringLoad(t *testing.T) {
	Convey("Given a load that started before the files changed", t, func() {
		tx, tk := fixture(t)
		loader := newGatedLoader()
		s, err := repository.NewDatasetStore(tx, tk, repository.WithLoader(loader))
		So(err, ShouldBeNil)

		old := make(chan *repository.Snapshot, 1)
		go func() {
			snap, _ := s.Get(context.Background())
			old <- snap
		}()
		<-loader.started

		more := txCSV + "T2,C2,Toys,Ball,2024-01-03,5,1\n"
		So(os.WriteFile(tx, []byte(more), 0o600), ShouldBeNil)

		Convey("When reloaded", func() {
			snap, err := s.Reload(context.Background())

			Convey("Then it reads the new files and the superseded load does not replace the cache", func() {
				So(err, ShouldBeNil)
				So(snap.Prepared.Categories, ShouldResemble, []string{"Books", "Toys"})
				So(loader.calls.Load(), ShouldEqual, 2)

				close(loader.release)
				So(<-old, ShouldNotBeNil)
				So(s.Current(), ShouldPointTo, snap)
			})
		})
	})
}
