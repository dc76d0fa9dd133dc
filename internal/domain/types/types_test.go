package types_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/opsboard/internal/domain/model"
	"github.com/okian/opsboard/internal/domain/types"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFormatCurrency(t *testing.T) {
	Convey("Given money amounts", t, func() {
		cases := map[string]string{
			"0":           "$0.00",
			"5":           "$5.00",
			"1234.5":      "$1,234.50",
			"1234567.891": "$1,234,567.89",
			"999.995":     "$1,000.00",
			"-42.1":       "-$42.10",
		}
		for in, want := range cases {
			So(types.FormatCurrency(decimal.RequireFromString(in)), ShouldEqual, want)
		}
	})
}

func TestNewMetrics(t *testing.T) {
	Convey("Given zero totals", t, func() {
		m := types.NewMetrics(decimal.Zero, decimal.Zero, 0)

		Convey("Then labels show zero values", func() {
			So(m.TotalRevenueLabel, ShouldEqual, "$0.00")
			So(m.TotalRefundsLabel, ShouldEqual, "$0.00")
			So(m.TicketCountLabel, ShouldEqual, "0")
		})
	})
}

func TestComplaintShare(t *testing.T) {
	Convey("Given a complaint count", t, func() {
		c := types.ComplaintCount{Category: "Delivery", Count: 1}
		So(c.Share(4), ShouldEqual, 25.0)
		So(c.Share(0), ShouldEqual, 0.0)
	})
}

func TestViewModelJSON(t *testing.T) {
	Convey("Given a view model", t, func() {
		vm := types.ViewModel{
			Selection:   types.SelectionView{Categories: []string{}, Start: model.NewDate(2024, 1, 1), End: model.NewDate(2024, 1, 2)},
			Metrics:     types.NewMetrics(decimal.NewFromInt(10), decimal.Zero, 0),
			Daily:       []types.SeriesPoint{},
			Complaints:  []types.ComplaintCount{},
			TopProblems: []types.ProblemRow{},
		}
		b, err := json.Marshal(vm)
		So(err, ShouldBeNil)

		Convey("Then empty slices encode as arrays and dates as days", func() {
			out := string(b)
			So(out, ShouldContainSubstring, `"daily":[]`)
			So(out, ShouldContainSubstring, `"top_problems":[]`)
			So(out, ShouldContainSubstring, `"start":"2024-01-01"`)
			So(out, ShouldContainSubstring, `"total_revenue_label":"$10.00"`)
		})
	})
}
