// Package model contains the dataset records passed between layers.
package model

import "github.com/shopspring/decimal"

// Transaction is one row of the transaction dataset.
type Transaction struct {
	TransactionID   string
	CustomerID      string
	ProductCategory string // whitespace-trimmed on load
	ProductName     string
	Date            Date
	Revenue         decimal.Decimal
	RefundAmount    decimal.Decimal
}

// Ticket is one row of the support ticket dataset.
type Ticket struct {
	CustomerID        string
	DateLogged        Date
	ComplaintCategory string
}

// Datasets holds both loaded tables.
type Datasets struct {
	Transactions []Transaction
	Tickets      []Ticket

	// DuplicateTransactionIDs counts rows whose Transaction_ID was already seen.
	DuplicateTransactionIDs int
}

// EnrichedTicket is a Ticket after the left join with the customer category map.
// Matched is false when the customer has no transaction; ProductCategory is
// then empty and the row never passes a category filter.
type EnrichedTicket struct {
	Ticket
	ProductCategory string
	Matched         bool
}
