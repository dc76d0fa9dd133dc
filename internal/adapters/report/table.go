package report

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type table struct {
	headers []string
	// right lists columns rendered right aligned.
	right map[int]bool
	rows  [][]string
}

func newTable(headers ...string) *table {
	return &table{headers: headers, right: map[int]bool{}}
}

func (t *table) alignRight(cols ...int) *table {
	for _, c := range cols {
		t.right[c] = true
	}
	return t
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) render(st styles) string {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}
	// padding
	for i := range widths {
		widths[i] += 2
	}

	sep := st.muted.Render("|")
	var sb strings.Builder
	for i, h := range t.headers {
		if i > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(t.align(st.header, i).Width(widths[i]).Render(h))
	}
	sb.WriteString("\n")

	total := len(widths) - 1
	for _, w := range widths {
		total += w
	}
	sb.WriteString(st.muted.Render(strings.Repeat("-", total)))
	sb.WriteString("\n")

	for _, row := range t.rows {
		for i := range widths {
			if i > 0 {
				sb.WriteString(sep)
			}
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			sb.WriteString(t.align(st.cell, i).Width(widths[i]).Render(cell))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *table) align(s lipgloss.Style, col int) lipgloss.Style {
	if t.right[col] {
		return s.Align(lipgloss.Right)
	}
	return s.Align(lipgloss.Left)
}
