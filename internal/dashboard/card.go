package dashboard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/fleetdash/internal/fleet"
)

const cardMinBarWidth = 8

var cardDividerStyle = lipgloss.NewStyle().
	Foreground(ColorBorder).
	Background(ColorSurfaceBg)

func renderCardDivider(width int) string {
	return cardDividerStyle.Render(strings.Repeat("─", max(width, 1)))
}

// renderCardLine pads content to width with the card background.
func renderCardLine(content string, width int) string {
	padding := ""
	if w := lipgloss.Width(content); width > w {
		padding = strings.Repeat(" ", width-w)
	}
	return lipgloss.NewStyle().Background(ColorSurfaceBg).Render(content + padding)
}

// agentState is what a card shows for connectivity.
type agentState int

const (
	stateOnline agentState = iota
	stateStale
	stateOffline
)

func (m Model) agentState(a fleet.AgentSnapshot) agentState {
	switch {
	case !a.Online():
		return stateOffline
	case a.Stale(m.now, m.staleAfter):
		return stateStale
	default:
		return stateOnline
	}
}

// statusIndicator returns the glyph and label for an agent's state.
func (m Model) statusIndicator(a fleet.AgentSnapshot) string {
	switch m.agentState(a) {
	case stateOffline:
		return StatusOfflineStyle.Render(GlyphOffline + " offline")
	case stateStale:
		return StatusStaleStyle.Render(GlyphStale + " stale")
	default:
		return StatusOnlineStyle.Render(GlyphOnline + " online")
	}
}

// renderCard renders a single agent card.
func (m Model) renderCard(a fleet.AgentSnapshot, width int, selected bool) string {
	style := CardStyle.Width(width)
	if selected {
		style = CardSelectedStyle.Width(width)
	}
	innerWidth := width - 4

	var lines []string
	lines = append(lines, renderCardLine(m.renderNameLine(a, innerWidth), innerWidth))
	lines = append(lines, renderCardDivider(innerWidth))

	if !a.Online() {
		lines = append(lines, renderCardLine(LabelStyle.Render("  IP        ")+ValueStyle.Render(orDash(a.IP)), innerWidth))
		lines = append(lines, renderCardLine(LabelStyle.Render("  Last seen ")+ValueStyle.Render(relativeTime(a.LastSeen, m.now)), innerWidth))
		lines = append(lines, renderCardLine("", innerWidth))
		lines = append(lines, renderCardLine(MutedStyle.Render("  No metrics while offline"), innerWidth))
		return style.Render(strings.Join(lines, "\n"))
	}

	s := a.Metrics()
	barWidth := max(innerWidth-16, cardMinBarWidth)

	lines = append(lines, renderCardLine(metricLine("CPU", s.CPU(), barWidth), innerWidth))
	lines = append(lines, renderCardLine(metricLine("RAM", s.Memory(), barWidth), innerWidth))
	lines = append(lines, renderCardLine(metricLine("Disk", s.Disk(), barWidth), innerWidth))
	lines = append(lines, renderCardDivider(innerWidth))

	info := fmt.Sprintf("  %s  up %s", orDash(a.IP), fleet.FormatUptime(s.Uptime()))
	lines = append(lines, renderCardLine(LabelStyle.Render(truncate(info, innerWidth)), innerWidth))

	if name, reading, ok := hottestSensor(s.Temperatures); ok {
		temp := lipgloss.NewStyle().Foreground(TempColor(reading.Classify())).
			Render(fmt.Sprintf("%.0f°C", reading.Current))
		lines = append(lines, renderCardLine(LabelStyle.Render("  "+truncate(fleet.SensorLabel(name), innerWidth-10)+" ")+temp, innerWidth))
	} else {
		lines = append(lines, renderCardLine(MutedStyle.Render("  no sensors"), innerWidth))
	}

	return style.Render(strings.Join(lines, "\n"))
}

// renderNameLine puts the name on the left and the status on the right.
func (m Model) renderNameLine(a fleet.AgentSnapshot, width int) string {
	status := m.statusIndicator(a)
	nameWidth := max(width-lipgloss.Width(status)-1, 4)
	name := AgentNameStyle.Render(truncate(a.DisplayName(), nameWidth))
	gap := max(width-lipgloss.Width(name)-lipgloss.Width(status), 1)
	return name + strings.Repeat(" ", gap) + status
}

func metricLine(label string, percent float64, barWidth int) string {
	return LabelStyle.Render(fmt.Sprintf("  %-5s", label)) +
		ThinProgressBar(barWidth, percent) +
		MetricStyle(percent).Render(fmt.Sprintf(" %5.1f%%", percent))
}

// hottestSensor picks the reading with the highest share of its scale.
// Ties go to the sensor name that sorts first.
func hottestSensor(temps map[string]fleet.TemperatureReading) (string, fleet.TemperatureReading, bool) {
	if len(temps) == 0 {
		return "", fleet.TemperatureReading{}, false
	}
	names := make([]string, 0, len(temps))
	for name := range temps {
		names = append(names, name)
	}
	sort.Strings(names)

	best := names[0]
	for _, name := range names[1:] {
		if temps[name].Percent() > temps[best].Percent() {
			best = name
		}
	}
	return best, temps[best], true
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
