// Package join enriches support tickets with the product category of the
// customer that raised them.
package join

import (
	"fmt"
	"strings"

	"github.com/okian/opsboard/internal/domain/dedupe"
	"github.com/okian/opsboard/internal/domain/model"
)

// Pair is one distinct (customer, product category) combination.
type Pair struct {
	CustomerID      string
	ProductCategory string
}

// CustomerCategoryMap holds the distinct customer/category pairs in the order
// they first appear in the transactions.
type CustomerCategoryMap struct {
	pairs      []Pair
	byCustomer map[string][]string
	ambiguous  []string
}

// BuildCustomerCategoryMap derives the map from transactions. Duplicates are
// keyed on both columns, so a customer who bought from two categories keeps
// both pairs.
func BuildCustomerCategoryMap(txs []model.Transaction) *CustomerCategoryMap {
	seen := dedupe.New(dedupe.WithCapacity(len(txs)))
	m := &CustomerCategoryMap{
		pairs:      make([]Pair, 0),
		byCustomer: make(map[string][]string),
		ambiguous:  make([]string, 0),
	}
	for _, tx := range txs {
		category := strings.TrimSpace(tx.ProductCategory)
		if seen.SeenAndRecord(dedupe.Key(tx.CustomerID, category)) {
			continue
		}
		m.pairs = append(m.pairs, Pair{CustomerID: tx.CustomerID, ProductCategory: category})
		prev := m.byCustomer[tx.CustomerID]
		if len(prev) == 1 {
			m.ambiguous = append(m.ambiguous, tx.CustomerID)
		}
		m.byCustomer[tx.CustomerID] = append(prev, category)
	}
	return m
}

// Pairs returns a copy of the pairs in first-seen order.
func (m *CustomerCategoryMap) Pairs() []Pair {
	out := make([]Pair, len(m.pairs))
	copy(out, m.pairs)
	return out
}

// Lookup returns the categories of a customer in first-seen order.
func (m *CustomerCategoryMap) Lookup(customerID string) []string {
	return m.byCustomer[customerID]
}

// Ambiguous returns customers mapped to more than one category, in the order
// they became ambiguous.
func (m *CustomerCategoryMap) Ambiguous() []string {
	out := make([]string, len(m.ambiguous))
	copy(out, m.ambiguous)
	return out
}

// Len returns the number of pairs.
func (m *CustomerCategoryMap) Len() int { return len(m.pairs) }

// Policy decides how a ticket is enriched when its customer has several
// categories.
type Policy string

const (
	// PolicyFirstSeen assigns the customer's first-seen category.
	PolicyFirstSeen Policy = "first_seen"
	// PolicyFanOut emits one enriched row per matching pair.
	PolicyFanOut Policy = "fan_out"
)

// ParsePolicy converts a config value to a Policy. Empty means PolicyFirstSeen.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyFirstSeen:
		return PolicyFirstSeen, nil
	case PolicyFanOut:
		return PolicyFanOut, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Join left-joins tickets with m. Every ticket survives; tickets whose
// customer has no transaction come back with Matched false.
func Join(tickets []model.Ticket, m *CustomerCategoryMap, policy Policy) []model.EnrichedTicket {
	out := make([]model.EnrichedTicket, 0, len(tickets))
	for _, t := range tickets {
		categories := m.Lookup(t.CustomerID)
		switch {
		case len(categories) == 0:
			out = append(out, model.EnrichedTicket{Ticket: t})
		case policy == PolicyFanOut:
			for _, c := range categories {
				out = append(out, model.EnrichedTicket{Ticket: t, ProductCategory: c, Matched: true})
			}
		default:
			out = append(out, model.EnrichedTicket{Ticket: t, ProductCategory: categories[0], Matched: true})
		}
	}
	return out
}

// Unmatched counts enriched tickets without a category.
func Unmatched(rows []model.EnrichedTicket) int {
	n := 0
	for _, r := range rows {
		if !r.Matched {
			n++
		}
	}
	return n
}
