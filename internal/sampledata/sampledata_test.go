package sampledata_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/opsboard/internal/adapters/csvsource"
	"github.com/okian/opsboard/internal/sampledata"
	"github.com/okian/opsboard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	Convey("Given the default config with a small volume", t, func() {
		cfg := sampledata.DefaultConfig()
		cfg.Transactions = 200
		cfg.Tickets = 50

		a, err := sampledata.Generate(ctx, cfg)
		So(err, ShouldBeNil)
		b, err := sampledata.Generate(ctx, cfg)
		So(err, ShouldBeNil)

		Convey("Then the requested number of rows is produced", func() {
			So(a.Transactions, ShouldHaveLength, 200)
			So(a.Tickets, ShouldHaveLength, 50)
		})

		Convey("Then the same seed gives the same data", func() {
			So(a.Transactions[0].TransactionID, ShouldEqual, b.Transactions[0].TransactionID)
			So(a.Tickets[49], ShouldResemble, b.Tickets[49])
		})

		Convey("Then amounts are non-negative and refunds never exceed revenue", func() {
			for _, tx := range a.Transactions {
				So(tx.Revenue.IsNegative(), ShouldBeFalse)
				So(tx.RefundAmount.IsNegative(), ShouldBeFalse)
				So(tx.RefundAmount.GreaterThan(tx.Revenue), ShouldBeFalse)
			}
		})
	})

	Convey("Given an invalid config", t, func() {
		cfg := sampledata.DefaultConfig()
		cfg.Customers = 0
		_, err := sampledata.Generate(ctx, cfg)
		So(errors.Is(err, sampledata.ErrInvalidConfig), ShouldBeTrue)
	})
}

func TestWriteFiles(t *testing.T) {
	Convey("Given generated data written to disk", t, func() {
		cfg := sampledata.DefaultConfig()
		cfg.Transactions = 100
		cfg.Tickets = 20
		ds, err := sampledata.Generate(context.Background(), cfg)
		So(err, ShouldBeNil)

		txPath, tkPath, err := sampledata.WriteFiles(t.TempDir(), ds)
		So(err, ShouldBeNil)

		Convey("Then the loader reads it back unchanged", func() {
			loaded, err := csvsource.Load(context.Background(), txPath, tkPath)
			So(err, ShouldBeNil)
			So(loaded.Transactions, ShouldHaveLength, 100)
			So(loaded.Tickets, ShouldHaveLength, 20)
			So(loaded.Transactions[0].TransactionID, ShouldEqual, ds.Transactions[0].TransactionID)
			So(loaded.Transactions[0].Revenue.Equal(ds.Transactions[0].Revenue), ShouldBeTrue)
			So(loaded.Tickets[0].DateLogged.Equal(ds.Tickets[0].DateLogged), ShouldBeTrue)
			So(loaded.DuplicateTransactionIDs, ShouldEqual, 0)
		})
	})
}
