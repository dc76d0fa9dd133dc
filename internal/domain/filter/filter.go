// Package filter narrows the datasets to the user's category and date selection.
package filter

import (
	"sort"

	"github.com/okian/opsboard/internal/domain/model"
)

// Selection is the category set and inclusive date interval of one render.
type Selection struct {
	categories map[string]struct{}
	order      []string
	Start      model.Date
	End        model.Date
}

// NewSelection builds a Selection. Duplicate categories collapse; an empty
// list selects nothing.
func NewSelection(categories []string, start, end model.Date) Selection {
	s := Selection{
		categories: make(map[string]struct{}, len(categories)),
		order:      make([]string, 0, len(categories)),
		Start:      start,
		End:        end,
	}
	for _, c := range categories {
		if _, ok := s.categories[c]; ok {
			continue
		}
		s.categories[c] = struct{}{}
		s.order = append(s.order, c)
	}
	return s
}

// Contains reports whether category is selected.
func (s Selection) Contains(category string) bool {
	_, ok := s.categories[category]
	return ok
}

// Categories returns the selected categories sorted.
func (s Selection) Categories() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	sort.Strings(out)
	return out
}

// Empty reports whether no category is selected.
func (s Selection) Empty() bool { return len(s.categories) == 0 }

// InRange reports whether d falls inside [Start, End].
func (s Selection) InRange(d model.Date) bool { return d.Between(s.Start, s.End) }

// Bounds is the earliest and latest transaction date.
type Bounds struct {
	Min model.Date
	Max model.Date
}

// BoundsOf scans transactions for their date range. Zero for no rows.
func BoundsOf(txs []model.Transaction) Bounds {
	var b Bounds
	for i, tx := range txs {
		if i == 0 || tx.Date.Before(b.Min) {
			b.Min = tx.Date
		}
		if i == 0 || tx.Date.After(b.Max) {
			b.Max = tx.Date
		}
	}
	return b
}

// ResolveRange turns a raw date-picker value into an interval. Exactly two
// dates give that interval, reordered if reversed. Anything else, including a
// half-finished pick, falls back to the full dataset range.
func ResolveRange(input []model.Date, bounds Bounds) (model.Date, model.Date) {
	if len(input) != 2 {
		return bounds.Min, bounds.Max
	}
	start, end := input[0], input[1]
	if end.Before(start) {
		start, end = end, start
	}
	return start, end
}

// Transactions keeps rows whose category is selected and whose date is in range.
func Transactions(txs []model.Transaction, sel Selection) []model.Transaction {
	out := make([]model.Transaction, 0)
	if sel.Empty() {
		return out
	}
	for _, tx := range txs {
		if sel.Contains(tx.ProductCategory) && sel.InRange(tx.Date) {
			out = append(out, tx)
		}
	}
	return out
}

// Tickets keeps matched tickets whose category is selected and whose logged
// date is in range. Unmatched tickets never pass.
func Tickets(tickets []model.EnrichedTicket, sel Selection) []model.EnrichedTicket {
	out := make([]model.EnrichedTicket, 0)
	if sel.Empty() {
		return out
	}
	for _, t := range tickets {
		if t.Matched && sel.Contains(t.ProductCategory) && sel.InRange(t.DateLogged) {
			out = append(out, t)
		}
	}
	return out
}
