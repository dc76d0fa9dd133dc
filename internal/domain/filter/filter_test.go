package filter_test

import (
	"testing"

	"github.com/okian/opsboard/internal/domain/filter"
	"github.com/okian/opsboard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func day(d int) model.Date { return model.NewDate(2024, 1, d) }

func TestResolveRange(t *testing.T) {
	bounds := filter.Bounds{Min: day(1), Max: day(31)}

	Convey("Given a date-picker value", t, func() {
		Convey("When two dates are given", func() {
			s, e := filter.ResolveRange([]model.Date{day(5), day(10)}, bounds)
			So(s.Equal(day(5)), ShouldBeTrue)
			So(e.Equal(day(10)), ShouldBeTrue)
		})

		Convey("When the two dates are reversed", func() {
			s, e := filter.ResolveRange([]model.Date{day(10), day(5)}, bounds)
			So(s.Equal(day(5)), ShouldBeTrue)
			So(e.Equal(day(10)), ShouldBeTrue)
		})

		Convey("When only one date is picked", func() {
			s, e := filter.ResolveRange([]model.Date{day(7)}, bounds)
			So(s.Equal(day(1)), ShouldBeTrue)
			So(e.Equal(day(31)), ShouldBeTrue)
		})

		Convey("When nothing or too much is given", func() {
			s, e := filter.ResolveRange(nil, bounds)
			So(s.Equal(day(1)) && e.Equal(day(31)), ShouldBeTrue)
			s, e = filter.ResolveRange([]model.Date{day(2), day(3), day(4)}, bounds)
			So(s.Equal(day(1)) && e.Equal(day(31)), ShouldBeTrue)
		})
	})
}

func TestBoundsOf(t *testing.T) {
	Convey("Given unordered transactions", t, func() {
		b := filter.BoundsOf([]model.Transaction{{Date: day(9)}, {Date: day(2)}, {Date: day(20)}})
		So(b.Min.Equal(day(2)), ShouldBeTrue)
		So(b.Max.Equal(day(20)), ShouldBeTrue)
	})

	Convey("Given no transactions", t, func() {
		b := filter.BoundsOf(nil)
		So(b.Min.IsZero(), ShouldBeTrue)
		So(b.Max.IsZero(), ShouldBeTrue)
	})
}

func TestPredicates(t *testing.T) {
	txs := []model.Transaction{
		{TransactionID: "T1", ProductCategory: "Electronics", Date: day(1)},
		{TransactionID: "T2", ProductCategory: "Books", Date: day(5)},
		{TransactionID: "T3", ProductCategory: "Electronics", Date: day(10)},
		{TransactionID: "T4", ProductCategory: "Electronics", Date: day(11)},
	}
	tickets := []model.EnrichedTicket{
		{Ticket: model.Ticket{CustomerID: "C1", DateLogged: day(2)}, ProductCategory: "Electronics", Matched: true},
		{Ticket: model.Ticket{CustomerID: "C9", DateLogged: day(2)}},
		{Ticket: model.Ticket{CustomerID: "C2", DateLogged: day(3)}, ProductCategory: "Books", Matched: true},
		{Ticket: model.Ticket{CustomerID: "C1", DateLogged: day(15)}, ProductCategory: "Electronics", Matched: true},
	}

	Convey("Given a selection of Electronics over days 1 to 10", t, func() {
		sel := filter.NewSelection([]string{"Electronics", "Electronics"}, day(1), day(10))

		Convey("Then both interval ends are inclusive", func() {
			out := filter.Transactions(txs, sel)
			So(out, ShouldHaveLength, 2)
			So(out[0].TransactionID, ShouldEqual, "T1")
			So(out[1].TransactionID, ShouldEqual, "T3")
		})

		Convey("Then unmatched and out-of-range tickets are dropped", func() {
			out := filter.Tickets(tickets, sel)
			So(out, ShouldHaveLength, 1)
			So(out[0].CustomerID, ShouldEqual, "C1")
		})

		Convey("Then duplicate categories collapse", func() {
			So(sel.Categories(), ShouldResemble, []string{"Electronics"})
		})
	})

	Convey("Given an empty category selection", t, func() {
		sel := filter.NewSelection(nil, day(1), day(31))

		Convey("Then both views are empty", func() {
			So(sel.Empty(), ShouldBeTrue)
			So(filter.Transactions(txs, sel), ShouldBeEmpty)
			So(filter.Tickets(tickets, sel), ShouldBeEmpty)
			So(filter.Transactions(txs, sel), ShouldNotBeNil)
		})
	})
}
