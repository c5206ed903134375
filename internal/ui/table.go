package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// columnGap separates table columns.
const columnGap = "  "

// Table is a plain aligned table for CLI output. Cells may contain ANSI
// styling; widths are measured on visible characters.
type Table struct {
	Headers []string
	Rows    [][]string
	// Empty is printed instead of the table when there are no rows.
	Empty string
}

// AddRow appends a row. Missing cells render blank.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

func (t *Table) widths() []int {
	n := len(t.Headers)
	for _, row := range t.Rows {
		n = max(n, len(row))
	}
	w := make([]int, n)
	for i, h := range t.Headers {
		w[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			w[i] = max(w[i], lipgloss.Width(cell))
		}
	}
	return w
}

// Render returns the table with a styled header and a rule under it.
func (t *Table) Render() string {
	if len(t.Rows) == 0 {
		return t.Empty
	}

	widths := t.widths()
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)

	var b strings.Builder
	if len(t.Headers) > 0 {
		b.WriteString(headerStyle.Render(joinCells(t.Headers, widths)))
		b.WriteString("\n")
		total := 0
		for i, w := range widths {
			total += w
			if i > 0 {
				total += len(columnGap)
			}
		}
		b.WriteString(MutedStyle().Render(strings.Repeat("─", total)))
		b.WriteString("\n")
	}
	for _, row := range t.Rows {
		b.WriteString(joinCells(row, widths))
		b.WriteString("\n")
	}
	return b.String()
}

func joinCells(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		if i == len(widths)-1 {
			parts[i] = cell
		} else {
			parts[i] = padRight(cell, widths[i])
		}
	}
	return strings.TrimRight(strings.Join(parts, columnGap), " ")
}

// StatusCell renders an online/offline/stale indicator for a table cell.
func StatusCell(status string) string {
	switch status {
	case "online":
		return SuccessStyle().Render(SymbolOnline + " online")
	case "stale":
		return WarningStyle().Render(SymbolStale + " stale")
	default:
		return ErrorStyle().Render(SymbolOffline + " offline")
	}
}

// padRight pads a string to the specified width.
func padRight(s string, width int) string {
	// Account for ANSI codes when calculating visible length
	visibleLen := lipgloss.Width(s)
	if visibleLen >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visibleLen)
}
