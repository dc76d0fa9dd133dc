// Package types contains the view model handed to presenters.
package types

import (
	"github.com/okian/opsboard/internal/domain/model"
	"github.com/shopspring/decimal"
)

// ViewModel is everything a presenter needs to draw one dashboard state.
// Slices are never nil.
type ViewModel struct {
	Selection    SelectionView    `json:"selection"`
	Metrics      Metrics          `json:"metrics"`
	Daily        []SeriesPoint    `json:"daily"`
	Complaints   []ComplaintCount `json:"complaints"`
	NoComplaints bool             `json:"no_complaints"`
	TopProblems  []ProblemRow     `json:"top_problems"`
	Rows         RowCounts        `json:"rows"`
}

// RowCounts are the sizes of the filtered views behind a ViewModel.
type RowCounts struct {
	Transactions int `json:"transactions"`
	Tickets      int `json:"tickets"`
}

// SelectionView echoes the resolved selection back to the presenter.
type SelectionView struct {
	Categories []string   `json:"categories"`
	Start      model.Date `json:"start"`
	End        model.Date `json:"end"`
}

// Metrics are the three headline numbers.
type Metrics struct {
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalRefunds decimal.Decimal `json:"total_refunds"`
	TicketCount  int             `json:"ticket_count"`

	TotalRevenueLabel string `json:"total_revenue_label"`
	TotalRefundsLabel string `json:"total_refunds_label"`
	TicketCountLabel  string `json:"ticket_count_label"`
}

// SeriesPoint is one day of the revenue/refund line chart.
type SeriesPoint struct {
	Date    model.Date      `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
	Refunds decimal.Decimal `json:"refunds"`
}

// ComplaintCount is one slice of the complaint proportion chart.
type ComplaintCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Share returns the count as a percentage of total, 0 when total is 0.
func (c ComplaintCount) Share(total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(c.Count) * 100 / float64(total)
}

// ProblemRow is one line of the top refunds table.
type ProblemRow struct {
	TransactionID string          `json:"transaction_id"`
	ProductName   string          `json:"product_name"`
	RefundAmount  decimal.Decimal `json:"refund_amount"`
}

// FilterOptions describes the controls of the dashboard.
type FilterOptions struct {
	Title      string        `json:"title"`
	Categories []string      `json:"categories"`
	MinDate    model.Date    `json:"min_date"`
	MaxDate    model.Date    `json:"max_date"`
	Default    SelectionView `json:"default"`
}

// Query is a presenter's raw filter input before it is resolved against the
// datasets.
type Query struct {
	// AllCategories selects every available category and ignores Categories.
	AllCategories bool
	Categories    []string
	// Dates is the raw date-picker value; only exactly two dates narrow the range.
	Dates []model.Date
}
