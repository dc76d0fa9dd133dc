package types

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FormatCurrency renders d as dollars with thousands separators, e.g. $1,234.56.
func FormatCurrency(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return sign + "$" + fixed
	}
	return sign + "$" + humanize.Comma(n) + "." + frac
}

// FormatCount renders a ticket count as a plain integer.
func FormatCount(n int) string {
	return strconv.Itoa(n)
}

// NewMetrics builds Metrics with their display labels.
func NewMetrics(revenue, refunds decimal.Decimal, tickets int) Metrics {
	return Metrics{
		TotalRevenue:      revenue,
		TotalRefunds:      refunds,
		TicketCount:       tickets,
		TotalRevenueLabel: FormatCurrency(revenue),
		TotalRefundsLabel: FormatCurrency(refunds),
		TicketCountLabel:  FormatCount(tickets),
	}
}
