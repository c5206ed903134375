package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// renderDashboard renders the complete dashboard view.
func (m Model) renderDashboard() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch m.viewMode {
	case ViewDetail:
		b.WriteString(m.renderDetailView())
	case ViewFiles:
		b.WriteString(m.renderFilesView())
	case ViewShared:
		b.WriteString(m.renderSharedView())
	default:
		b.WriteString(m.renderAgentCards())
	}

	if m.ShowFooter() {
		b.WriteString("\n")
		b.WriteString(m.renderFooter())
	}

	return b.String()
}

// renderHeader renders the dashboard header with summary stats.
func (m Model) renderHeader() string {
	online, _ := m.fleet.Counts()

	title := lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true).
		Render("fleetdash")

	var stats string
	if !m.loaded {
		stats = " | connecting to fleet..."
	} else {
		stats = fmt.Sprintf(" | %d agents | %d online | updated %s",
			m.fleet.Len(), online, relativeTime(m.fleet.FetchedAt, m.now))
	}

	if agent, ok := m.SelectedAgent(); ok && m.viewMode != ViewFleet {
		stats += " | " + agent.DisplayName()
	}

	return HeaderStyle.Render(title + lipgloss.NewStyle().Foreground(ColorTextSecondary).Render(stats))
}

// renderAgentCards renders the grid of agent cards.
func (m Model) renderAgentCards() string {
	if !m.loaded {
		return LabelStyle.Render(m.spinner.View() + " Loading agents...")
	}
	if m.fleet.Len() == 0 {
		return LabelStyle.Render("No agents registered")
	}

	cardWidth := m.calculateCardWidth()
	selectedID, _ := m.selection.Selected()

	cards := make([]string, 0, m.fleet.Len())
	for _, agent := range m.fleet.Agents {
		cards = append(cards, m.renderCard(agent, cardWidth, agent.AgentID == selectedID))
	}

	return m.layoutCards(cards, cardWidth)
}

// calculateCardWidth determines the card width based on terminal width.
func (m Model) calculateCardWidth() int {
	switch m.LayoutMode() {
	case LayoutMinimal:
		if m.width == 0 {
			return 40
		}
		return max(m.width-4, 24)
	default:
		return 38
	}
}

// layoutCards arranges cards in rows based on terminal width.
func (m Model) layoutCards(cards []string, cardWidth int) string {
	if len(cards) == 0 {
		return ""
	}

	cardsPerRow := 1
	if m.width > 0 {
		// margin + border
		cardsPerRow = max(m.width/(cardWidth+3), 1)
	}

	var rows []string
	for i := 0; i < len(cards); i += cardsPerRow {
		end := min(i+cardsPerRow, len(cards))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderFooter renders the keyboard hints for the current view.
func (m Model) renderFooter() string {
	var hints []string
	switch m.viewMode {
	case ViewFleet:
		hints = []string{"q quit", "r refresh", "↑↓ select", "enter details", "f files", "s shared", "? help"}
	case ViewDetail:
		hints = []string{"esc back", "↑↓ scroll", "f files", "s shared", "? help"}
	case ViewFiles:
		hints = []string{"esc back", "enter open", "backspace up", "R retry", "s shared", "? help"}
	case ViewShared:
		hints = []string{"esc back", "u upload", "d download", "x delete", "r refresh", "? help"}
	}

	footer := FooterStyle.Render(strings.Join(hints, " | "))
	if m.notice != "" {
		footer = MutedStyle.Render("  "+m.notice) + "\n" + footer
	}
	return footer
}

// relativeTime renders t relative to now, or "never" for the zero time.
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	if now.Sub(t) < time.Second {
		return "just now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// formatBytes renders a byte count like "1.2 MB".
func formatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}
