// Package report draws a dashboard view model as styled terminal text.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/okian/opsboard/internal/domain/types"
)

// NoComplaintsMessage replaces the complaint breakdown for selections without
// matched tickets.
const NoComplaintsMessage = "No complaints in this selection."

// Render writes title and vm to w. Colours are only emitted when w is a
// terminal that supports them.
func Render(w io.Writer, title string, vm types.ViewModel) error {
	st := newStyles(lipgloss.NewRenderer(w))

	var sb strings.Builder
	sb.WriteString(st.title.Render(title))
	sb.WriteString("\n")
	sb.WriteString(st.muted.Render(selectionLine(vm.Selection)))
	sb.WriteString("\n\n")

	sb.WriteString(metricCards(st, vm.Metrics))
	sb.WriteString("\n\n")

	sb.WriteString(st.section.Render("Daily revenue and refunds"))
	sb.WriteString("\n")
	if len(vm.Daily) == 0 {
		sb.WriteString(st.muted.Render("No transactions in this selection."))
		sb.WriteString("\n")
	} else {
		daily := newTable("Date", "Revenue", "Refunds").alignRight(1, 2)
		for _, p := range vm.Daily {
			daily.add(p.Date.String(),
				st.revenue.UnsetBold().Render(types.FormatCurrency(p.Revenue)),
				st.refund.UnsetBold().Render(types.FormatCurrency(p.Refunds)))
		}
		sb.WriteString(daily.render(st))
	}
	sb.WriteString("\n")

	sb.WriteString(st.section.Render("Complaints by category"))
	sb.WriteString("\n")
	if vm.NoComplaints {
		sb.WriteString(st.muted.Render(NoComplaintsMessage))
		sb.WriteString("\n")
	} else {
		total := 0
		for _, c := range vm.Complaints {
			total += c.Count
		}
		complaints := newTable("Category", "Tickets", "Share").alignRight(1, 2)
		for _, c := range vm.Complaints {
			complaints.add(c.Category, types.FormatCount(c.Count), fmt.Sprintf("%.1f%%", c.Share(total)))
		}
		sb.WriteString(complaints.render(st))
	}
	sb.WriteString("\n")

	sb.WriteString(st.section.Render("Top problem transactions"))
	sb.WriteString("\n")
	if len(vm.TopProblems) == 0 {
		sb.WriteString(st.muted.Render("No refunded transactions in this selection."))
		sb.WriteString("\n")
	} else {
		problems := newTable("Transaction_ID", "Product_Name", "Refund_Amount").alignRight(2)
		for _, p := range vm.TopProblems {
			problems.add(p.TransactionID, p.ProductName, types.FormatCurrency(p.RefundAmount))
		}
		sb.WriteString(problems.render(st))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func selectionLine(sel types.SelectionView) string {
	cats := "none"
	if len(sel.Categories) > 0 {
		cats = strings.Join(sel.Categories, ", ")
	}
	return fmt.Sprintf("%s to %s | categories: %s", sel.Start, sel.End, cats)
}

func metricCards(st styles, m types.Metrics) string {
	card := func(label string, value string, vs lipgloss.Style) string {
		return st.card.Render(st.label.Render(label) + "\n" + vs.Render(value))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Total Revenue", m.TotalRevenueLabel, st.revenue),
		" ",
		card("Total Refunds", m.TotalRefundsLabel, st.refund),
		" ",
		card("Support Tickets", m.TicketCountLabel, st.value),
	)
}
