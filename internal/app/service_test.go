package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/opsboard/internal/adapters/csvsource"
	service "github.com/okian/opsboard/internal/app"
	"github.com/okian/opsboard/internal/domain/model"
	"github.com/okian/opsboard/internal/domain/types"
	"github.com/okian/opsboard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

const (
	transactionsCSV = "Transaction_ID,Customer_ID,Product_Category,Product_Name,Date,Revenue,Refund_Amount\n" +
		"T1,C1,Electronics,Laptop,2024-01-01,1000,0\n" +
		"T2,C2,Books,Novel,2024-01-02,20,20\n" +
		"T3,C1,Electronics,Mouse,2024-01-05,25,5\n" +
		"T4,C3,Home,Lamp,2024-01-10,60,0\n"
	ticketsCSV = "Customer_ID,Date_Logged,Complaint_Category\n" +
		"C1,2024-01-02,Late Delivery\n" +
		"C2,2024-01-03,Damaged\n" +
		"C9,2024-01-04,Billing\n"
)

func writeDatasets(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	tx := filepath.Join(dir, "enriched_data.csv")
	tk := filepath.Join(dir, "tickets_cleaned.csv")
	if err := os.WriteFile(tx, []byte(transactionsCSV), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(tk, []byte(ticketsCSV), 0o600); err != nil {
		t.Fatal(err)
	}
	return tx, tk
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			So(svc.Title(), ShouldEqual, service.DefaultTitle)
			So(svc.GetStats()["topProblemsLimit"], ShouldEqual, 10)
		})
	})

	Convey("Given a service used before Start", t, func() {
		svc := service.New()
		_, err := svc.Render(context.Background(), types.Query{AllCategories: true})
		So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
	})
}

func TestService_Render(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service over sample datasets", t, func() {
		tx, tk := writeDatasets(t)
		svc := service.New(
			service.WithPaths(tx, tk),
			service.WithWarmCache(true),
			service.WithTopProblemsLimit(1),
			service.WithTitle("Ops"),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When the filter options are requested", func() {
			opts, err := svc.FilterOptions(ctx)

			Convey("Then categories are sorted and bounds come from transactions", func() {
				So(err, ShouldBeNil)
				So(opts.Title, ShouldEqual, "Ops")
				So(opts.Categories, ShouldResemble, []string{"Books", "Electronics", "Home"})
				So(opts.MinDate.String(), ShouldEqual, "2024-01-01")
				So(opts.MaxDate.String(), ShouldEqual, "2024-01-10")
			})
		})

		Convey("When all categories are rendered over the full range", func() {
			vm, err := svc.Render(ctx, types.Query{AllCategories: true})

			Convey("Then totals cover every row and the table honours the limit", func() {
				So(err, ShouldBeNil)
				So(vm.Metrics.TotalRevenueLabel, ShouldEqual, "$1,105.00")
				So(vm.Metrics.TotalRefundsLabel, ShouldEqual, "$25.00")
				So(vm.Metrics.TicketCount, ShouldEqual, 2)
				So(vm.TopProblems, ShouldHaveLength, 1)
				So(vm.TopProblems[0].TransactionID, ShouldEqual, "T2")
			})
		})

		Convey("When Electronics is rendered for the first three days", func() {
			vm, err := svc.Render(ctx, types.Query{
				Categories: []string{"Electronics"},
				Dates:      []model.Date{model.NewDate(2024, 1, 3), model.NewDate(2024, 1, 1)},
			})

			Convey("Then only matching rows count", func() {
				So(err, ShouldBeNil)
				So(vm.Selection.Start.String(), ShouldEqual, "2024-01-01")
				So(vm.Selection.End.String(), ShouldEqual, "2024-01-03")
				So(vm.Metrics.TotalRevenueLabel, ShouldEqual, "$1,000.00")
				So(vm.Metrics.TicketCount, ShouldEqual, 1)
				So(vm.Complaints[0].Category, ShouldEqual, "Late Delivery")
			})
		})

		Convey("When no categories are selected", func() {
			vm, err := svc.Render(ctx, types.Query{Categories: []string{}})

			Convey("Then the view is empty", func() {
				So(err, ShouldBeNil)
				So(vm.Metrics.TicketCount, ShouldEqual, 0)
				So(vm.NoComplaints, ShouldBeTrue)
			})
		})

		Convey("When a file becomes malformed and the service reloads", func() {
			So(os.WriteFile(tx, []byte(transactionsCSV+"T5,C1,Books,Pen,not-a-date,1,0\n"), 0o600), ShouldBeNil)
			_, err := svc.Reload(ctx)

			Convey("Then the parse error is surfaced", func() {
				So(errors.Is(err, csvsource.ErrParse), ShouldBeTrue)
				_, err = svc.Render(ctx, types.Query{AllCategories: true})
				So(errors.Is(err, csvsource.ErrParse), ShouldBeTrue)
				So(svc.GetStats()["renderFailures"], ShouldEqual, int64(1))
			})
		})

		Convey("When stats are requested", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldBeTrue)
			So(stats, ShouldContainKey, "cache")
			So(stats, ShouldContainKey, "datasets")
		})
	})
}

func TestService_Watch(t *testing.T) {
	Convey("Given a service that watches its datasets", t, func() {
		tx, tk := writeDatasets(t)
		svc := service.New(
			service.WithPaths(tx, tk),
			service.WithWatch(true, 20*time.Millisecond),
		)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		_, err := svc.Render(ctx, types.Query{AllCategories: true})
		So(err, ShouldBeNil)

		Convey("When a new category is appended", func() {
			So(os.WriteFile(tx, []byte(transactionsCSV+"T5,C4,Toys,Ball,2024-01-11,5,0\n"), 0o600), ShouldBeNil)

			Convey("Then the next options include it", func() {
				deadline := time.Now().Add(2 * time.Second)
				var cats []string
				for time.Now().Before(deadline) {
					opts, err := svc.FilterOptions(ctx)
					So(err, ShouldBeNil)
					cats = opts.Categories
					if len(cats) == 4 {
						break
					}
					time.Sleep(20 * time.Millisecond)
				}
				So(cats, ShouldContain, "Toys")
			})
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a started service", t, func() {
		tx, tk := writeDatasets(t)
		svc := service.New(service.WithPaths(tx, tk))
		So(svc.Start(context.Background()), ShouldBeNil)
		So(svc.Start(context.Background()), ShouldBeNil)

		Convey("When stopped twice", func() {
			svc.Stop()
			svc.Stop()

			Convey("Then it reports not started", func() {
				So(svc.GetStats()["started"], ShouldBeFalse)
			})
		})
	})
}
