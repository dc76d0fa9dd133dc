package report

import "github.com/charmbracelet/lipgloss"

var (
	revenueColor = lipgloss.Color("#2ca02c")
	refundColor  = lipgloss.Color("#d62728")
	mutedColor   = lipgloss.Color("#8a8f98")
	accentColor  = lipgloss.Color("#4db6ac")
)

// styles binds the palette to one renderer so colour detection follows the
// destination writer.
type styles struct {
	title   lipgloss.Style
	section lipgloss.Style
	label   lipgloss.Style
	revenue lipgloss.Style
	refund  lipgloss.Style
	value   lipgloss.Style
	muted   lipgloss.Style
	header  lipgloss.Style
	cell    lipgloss.Style
	card    lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(accentColor),
		section: r.NewStyle().Bold(true).Underline(true),
		label:   r.NewStyle().Foreground(mutedColor),
		revenue: r.NewStyle().Bold(true).Foreground(revenueColor),
		refund:  r.NewStyle().Bold(true).Foreground(refundColor),
		value:   r.NewStyle().Bold(true),
		muted:   r.NewStyle().Foreground(mutedColor),
		header:  r.NewStyle().Bold(true).Padding(0, 1),
		cell:    r.NewStyle().Padding(0, 1),
		card:    r.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(mutedColor).Padding(0, 2),
	}
}
