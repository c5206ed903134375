package dashboard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/fleetdash/internal/fleet"
)

// Detail view styles
var (
	detailContainerStyle = lipgloss.NewStyle().
				Padding(0, 2)

	detailTitleStyle = lipgloss.NewStyle().
				Foreground(ColorAccent).
				Bold(true)
)

// updateDetailViewportContent re-renders the detail view into the viewport,
// keeping the scroll offset.
func (m *Model) updateDetailViewportContent() {
	if !m.viewportReady {
		return
	}
	m.detailViewport.SetContent(m.renderDetailContent())
}

// renderDetailView renders the scrollable detail view.
func (m Model) renderDetailView() string {
	if !m.viewportReady {
		return m.renderDetailContent()
	}
	return m.detailViewport.View()
}

// renderDetailContent renders every section for the selected agent.
func (m Model) renderDetailContent() string {
	agent, ok := m.SelectedAgent()
	if !ok {
		if id, selected := m.selection.Selected(); selected {
			return detailContainerStyle.Render(LabelStyle.Render(fmt.Sprintf("Agent %s is no longer in the fleet", id)))
		}
		return detailContainerStyle.Render(LabelStyle.Render("No agent selected"))
	}

	width := max(m.width-6, 40)

	var sections []string
	sections = append(sections,
		detailTitleStyle.Render(agent.DisplayName())+"  "+m.statusIndicator(agent),
		"",
		m.renderDetailInfo(agent, width),
	)

	if agent.Online() {
		s := agent.Metrics()
		sections = append(sections, m.renderDetailResources(s, width))
		if len(s.Drives) > 0 {
			sections = append(sections, m.renderDetailDrives(s.Drives, width))
		}
		if len(s.Temperatures) > 0 {
			sections = append(sections, m.renderDetailTemperatures(s.Temperatures, width))
		}
	} else {
		sections = append(sections, MutedStyle.Render("Metrics are only reported while the agent is online."))
	}

	return detailContainerStyle.Render(strings.Join(sections, "\n"))
}

func (m Model) renderDetailInfo(a fleet.AgentSnapshot, width int) string {
	rows := [][2]string{
		{"Agent ID", a.AgentID},
		{"Hostname", orDash(a.Hostname)},
		{"IP", orDash(a.IP)},
		{"Last seen", relativeTime(a.LastSeen, m.now)},
	}
	if a.Online() {
		rows = append(rows, [2]string{"Uptime", fleet.FormatUptime(a.Metrics().Uptime())})
	}

	lines := []string{SectionHeader("Agent", string(a.Status), width)}
	for _, r := range rows {
		lines = append(lines, SectionContentLine(LabelStyle.Render(fmt.Sprintf("%-10s", r[0]))+ValueStyle.Render(r[1]), width))
	}
	lines = append(lines, SectionFooter(width))
	return strings.Join(lines, "\n")
}

func (m Model) renderDetailResources(s *fleet.StatusData, width int) string {
	barWidth := max(width-44, 10)
	row := func(label string, percent float64, usage string) string {
		return SectionContentLine(
			LabelStyle.Render(fmt.Sprintf("%-6s", label))+
				ProgressBar(barWidth, percent)+
				MetricStyle(percent).Render(fmt.Sprintf(" %5.1f%%", percent))+
				MutedStyle.Render("  "+usage),
			width)
	}

	lines := []string{
		SectionHeader("Resources", fmt.Sprintf("CPU %.0f%%", s.CPU()), width),
		row("CPU", s.CPU(), ""),
		row("RAM", s.Memory(), fmt.Sprintf("%.0f / %.0f MB", s.MemoryUsed(), s.MemoryTotal())),
		row("Disk", s.Disk(), fmt.Sprintf("%.1f / %.1f GB", s.DiskUsed(), s.DiskTotal())),
		SectionFooter(width),
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderDetailDrives(drives []fleet.Drive, width int) string {
	barWidth := max(width-60, 8)
	lines := []string{SectionHeader("Drives", fmt.Sprintf("%d", len(drives)), width)}
	for _, d := range drives {
		health := lipgloss.NewStyle().Foreground(HealthColor(d.HealthClass())).Render(orDash(d.HealthStatus))
		name := truncate(d.Mountpoint, 14)
		if name == "" {
			name = truncate(d.Device, 14)
		}
		lines = append(lines, SectionContentLine(
			ValueStyle.Render(fmt.Sprintf("%-14s", name))+" "+
				ThinProgressBar(barWidth, d.PercentUsed)+
				MetricStyle(d.PercentUsed).Render(fmt.Sprintf(" %5.1f%%", d.PercentUsed))+
				MutedStyle.Render(fmt.Sprintf("  %.1f / %.1f GB  %s  ", d.UsedGB, d.TotalGB, orDash(d.FSType)))+
				health,
			width))
	}
	lines = append(lines, SectionFooter(width))
	return strings.Join(lines, "\n")
}

func (m Model) renderDetailTemperatures(temps map[string]fleet.TemperatureReading, width int) string {
	names := make([]string, 0, len(temps))
	for name := range temps {
		names = append(names, name)
	}
	sort.Strings(names)

	barWidth := max(width-48, 8)
	lines := []string{SectionHeader("Temperatures", fmt.Sprintf("%d sensors", len(names)), width)}
	for _, name := range names {
		r := temps[name]
		class := r.Classify()
		color := TempColor(class)
		lines = append(lines, SectionContentLine(
			LabelStyle.Render(fmt.Sprintf("%-18s", truncate(fleet.SensorLabel(name), 18)))+
				bar(barWidth, r.Percent(), "▰", "▱", color)+
				lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf(" %5.1f°C  %s", r.Current, class)),
			width))
	}
	lines = append(lines, SectionFooter(width))
	return strings.Join(lines, "\n")
}
