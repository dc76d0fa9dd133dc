// Package pipeline turns loaded datasets and a selection into a view model.
//
// Prepare does the per-dataset work once (join, bounds, category list).
// Render does the per-selection work and has no side effects, so the same
// Prepared value may be rendered concurrently.
package pipeline

import (
	"sort"

	"github.com/okian/opsboard/internal/domain/aggregate"
	"github.com/okian/opsboard/internal/domain/filter"
	"github.com/okian/opsboard/internal/domain/join"
	"github.com/okian/opsboard/internal/domain/model"
	"github.com/okian/opsboard/internal/domain/types"
)

// Prepared is the immutable, render-ready form of the datasets.
type Prepared struct {
	Transactions []model.Transaction
	Tickets      []model.EnrichedTicket
	Bounds       filter.Bounds
	Categories   []string
	Diagnostics  Diagnostics
}

// Diagnostics describes data quality observed while preparing.
type Diagnostics struct {
	TransactionRows         int      `json:"transaction_rows"`
	TicketRows              int      `json:"ticket_rows"`
	EnrichedTicketRows      int      `json:"enriched_ticket_rows"`
	UnmatchedTickets        int      `json:"unmatched_tickets"`
	AmbiguousCustomers      []string `json:"ambiguous_customers"`
	DuplicateTransactionIDs int      `json:"duplicate_transaction_ids"`
	JoinPolicy              string   `json:"join_policy"`
}

// Options tune a render.
type Options struct {
	TopProblems int
}

// DefaultOptions returns the standard render options.
func DefaultOptions() Options {
	return Options{TopProblems: aggregate.DefaultTopProblems}
}

// Prepare joins tickets to categories and derives the filter controls.
func Prepare(ds model.Datasets, policy join.Policy) Prepared {
	m := join.BuildCustomerCategoryMap(ds.Transactions)
	enriched := join.Join(ds.Tickets, m, policy)
	txs := ds.Transactions
	if txs == nil {
		txs = make([]model.Transaction, 0)
	}
	return Prepared{
		Transactions: txs,
		Tickets:      enriched,
		Bounds:       filter.BoundsOf(txs),
		Categories:   categoriesOf(txs),
		Diagnostics: Diagnostics{
			TransactionRows:         len(txs),
			TicketRows:              len(ds.Tickets),
			EnrichedTicketRows:      len(enriched),
			UnmatchedTickets:        join.Unmatched(enriched),
			AmbiguousCustomers:      m.Ambiguous(),
			DuplicateTransactionIDs: ds.DuplicateTransactionIDs,
			JoinPolicy:              string(policy),
		},
	}
}

func categoriesOf(txs []model.Transaction) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, tx := range txs {
		if _, ok := seen[tx.ProductCategory]; ok {
			continue
		}
		seen[tx.ProductCategory] = struct{}{}
		out = append(out, tx.ProductCategory)
	}
	sort.Strings(out)
	return out
}

// FilterOptions describes the controls and the default selection: every
// category over the full date range.
func FilterOptions(p Prepared) types.FilterOptions {
	categories := make([]string, len(p.Categories))
	copy(categories, p.Categories)
	return types.FilterOptions{
		Categories: categories,
		MinDate:    p.Bounds.Min,
		MaxDate:    p.Bounds.Max,
		Default: types.SelectionView{
			Categories: append([]string(nil), categories...),
			Start:      p.Bounds.Min,
			End:        p.Bounds.Max,
		},
	}
}

// DefaultSelection selects every category over the full range.
func DefaultSelection(p Prepared) filter.Selection {
	return filter.NewSelection(p.Categories, p.Bounds.Min, p.Bounds.Max)
}

// Render filters the prepared datasets and aggregates the view model.
func Render(p Prepared, sel filter.Selection, opts Options) types.ViewModel {
	txView := filter.Transactions(p.Transactions, sel)
	ticketView := filter.Tickets(p.Tickets, sel)

	return types.ViewModel{
		Selection: types.SelectionView{
			Categories: sel.Categories(),
			Start:      sel.Start,
			End:        sel.End,
		},
		Metrics: types.NewMetrics(
			aggregate.TotalRevenue(txView),
			aggregate.TotalRefunds(txView),
			aggregate.TicketCount(ticketView),
		),
		Daily:        aggregate.DailySeries(txView),
		Complaints:   aggregate.ComplaintCounts(ticketView),
		NoComplaints: len(ticketView) == 0,
		TopProblems:  aggregate.TopProblems(txView, opts.TopProblems),
		Rows:         types.RowCounts{Transactions: len(txView), Tickets: len(ticketView)},
	}
}
