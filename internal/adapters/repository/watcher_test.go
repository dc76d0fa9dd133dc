package repository_test

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/opsboard/internal/adapters/repository"
	. "github.com/smartystreets/goconvey/convey"
)

type invalidationCounter struct {
	n atomic.Int32
}

func (c *invalidationCounter) Invalidate(string) { c.n.Add(1) }

func waitFor(cond func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestWatcher(t *testing.T) {
	Convey("Given a running watcher over the dataset files", t, func() {
		tx, tk := fixture(t)
		target := &invalidationCounter{}
		w, err := repository.NewWatcher(target, []string{tx, tk}, repository.WithDebounce(20*time.Millisecond))
		So(err, ShouldBeNil)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		So(w.Start(ctx), ShouldBeNil)
		defer w.Stop()

		Convey("When a burst of writes hits one file", func() {
			for i := 0; i < 3; i++ {
				So(os.WriteFile(tk, []byte(ticketCSV+"C1,2024-01-03,Delivery\n"), 0o600), ShouldBeNil)
			}

			Convey("Then the cache is invalidated after the burst settles", func() {
				So(waitFor(func() bool { return target.n.Load() >= 1 }, 2*time.Second), ShouldBeTrue)
				So(w.Stats().Events, ShouldBeGreaterThanOrEqualTo, 1)
				So(w.Stats().LastEventPath, ShouldEqual, tk)
			})
		})

		Convey("When an unrelated file in the same directory changes", func() {
			So(os.WriteFile(tx+".bak", []byte("x"), 0o600), ShouldBeNil)
			time.Sleep(150 * time.Millisecond)

			Convey("Then nothing is invalidated", func() {
				So(target.n.Load(), ShouldEqual, 0)
			})
		})
	})
}
