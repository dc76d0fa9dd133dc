// Package aggregate computes the dashboard figures from filtered views.
package aggregate

import (
	"sort"

	"github.com/okian/opsboard/internal/domain/model"
	"github.com/okian/opsboard/internal/domain/types"
	"github.com/shopspring/decimal"
)

// DefaultTopProblems is the length of the top refunds table.
const DefaultTopProblems = 10

// TotalRevenue sums Revenue over the view.
func TotalRevenue(view []model.Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, tx := range view {
		sum = sum.Add(tx.Revenue)
	}
	return sum
}

// TotalRefunds sums RefundAmount over the view.
func TotalRefunds(view []model.Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, tx := range view {
		sum = sum.Add(tx.RefundAmount)
	}
	return sum
}

// TicketCount is the number of rows in the ticket view.
func TicketCount(view []model.EnrichedTicket) int {
	return len(view)
}

// DailySeries groups the view by date, ascending, one point per date.
func DailySeries(view []model.Transaction) []types.SeriesPoint {
	byDay := make(map[model.Date]int, len(view))
	out := make([]types.SeriesPoint, 0)
	for _, tx := range view {
		i, ok := byDay[tx.Date]
		if !ok {
			i = len(out)
			byDay[tx.Date] = i
			out = append(out, types.SeriesPoint{Date: tx.Date, Revenue: decimal.Zero, Refunds: decimal.Zero})
		}
		out[i].Revenue = out[i].Revenue.Add(tx.Revenue)
		out[i].Refunds = out[i].Refunds.Add(tx.RefundAmount)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Date.Before(out[b].Date) })
	return out
}

// ComplaintCounts counts tickets per complaint category, most frequent first.
// Equal counts keep the order in which the category was first encountered.
func ComplaintCounts(view []model.EnrichedTicket) []types.ComplaintCount {
	index := make(map[string]int)
	out := make([]types.ComplaintCount, 0)
	for _, t := range view {
		i, ok := index[t.ComplaintCategory]
		if !ok {
			i = len(out)
			index[t.ComplaintCategory] = i
			out = append(out, types.ComplaintCount{Category: t.ComplaintCategory})
		}
		out[i].Count++
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Count > out[b].Count })
	return out
}

// TopProblems returns the n transactions with the largest positive refunds.
// Equal refunds keep their input order. n <= 0 yields an empty table.
func TopProblems(view []model.Transaction, n int) []types.ProblemRow {
	out := make([]types.ProblemRow, 0)
	if n <= 0 {
		return out
	}
	refunded := make([]model.Transaction, 0)
	for _, tx := range view {
		if tx.RefundAmount.IsPositive() {
			refunded = append(refunded, tx)
		}
	}
	sort.SliceStable(refunded, func(a, b int) bool {
		return refunded[a].RefundAmount.GreaterThan(refunded[b].RefundAmount)
	})
	if len(refunded) > n {
		refunded = refunded[:n]
	}
	for _, tx := range refunded {
		out = append(out, types.ProblemRow{
			TransactionID: tx.TransactionID,
			ProductName:   tx.ProductName,
			RefundAmount:  tx.RefundAmount,
		})
	}
	return out
}
