package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/fleetdash/internal/fleet"
)

// Dashboard color palette
const (
	ColorDarkBg    = lipgloss.Color("#0A0A0F")
	ColorSurfaceBg = lipgloss.Color("#12121A")
	ColorBorder    = lipgloss.Color("#2A2A4A")

	ColorHealthy  = lipgloss.Color("#39FF14")
	ColorWarning  = lipgloss.Color("#FFAA00")
	ColorCritical = lipgloss.Color("#FF0055")

	ColorTextPrimary   = lipgloss.Color("#FFFFFF")
	ColorTextSecondary = lipgloss.Color("#B4B4D0")
	ColorTextMuted     = lipgloss.Color("#6B6B8D")

	ColorAccent    = lipgloss.Color("#FF2E97")
	ColorAccentDim = lipgloss.Color("#BF40FF")
	ColorGraph     = lipgloss.Color("#00FFFF")
)

// Thresholds for metric severity levels
const (
	WarningThreshold  = 70.0
	CriticalThreshold = 90.0
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Background(ColorSurfaceBg).
			Bold(true).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1).
			MarginRight(1).
			MarginBottom(1)

	CardSelectedStyle = CardStyle.
				BorderForeground(ColorAccent)

	AgentNameStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary)

	StatusOnlineStyle = lipgloss.NewStyle().
				Foreground(ColorHealthy)

	StatusOfflineStyle = lipgloss.NewStyle().
				Foreground(ColorCritical)

	StatusStaleStyle = lipgloss.NewStyle().
				Foreground(ColorWarning)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorCritical)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorHealthy)

	DirStyle = lipgloss.NewStyle().
			Foreground(ColorGraph).
			Bold(true)
)

// Status glyphs
const (
	GlyphOnline  = "◉"
	GlyphOffline = "◌"
	GlyphStale   = "◔"
	GlyphDir     = "▸"
)

// MetricColor colors a percentage: green below 70, amber below 90, red above.
func MetricColor(percent float64) lipgloss.Color {
	switch {
	case percent >= CriticalThreshold:
		return ColorCritical
	case percent >= WarningThreshold:
		return ColorWarning
	default:
		return ColorHealthy
	}
}

// MetricStyle returns a style with the metric's severity color.
func MetricStyle(percent float64) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(MetricColor(percent))
}

// TempColor maps a temperature class to a color.
func TempColor(class fleet.TempClass) lipgloss.Color {
	switch class {
	case fleet.TempCritical, fleet.TempHot:
		return ColorCritical
	case fleet.TempWarning, fleet.TempWarm:
		return ColorWarning
	default:
		return ColorHealthy
	}
}

// HealthColor maps a drive health class to a color.
func HealthColor(h fleet.Health) lipgloss.Color {
	switch h {
	case fleet.HealthOK:
		return ColorHealthy
	case fleet.HealthWarning:
		return ColorWarning
	case fleet.HealthCritical:
		return ColorCritical
	default:
		return ColorTextMuted
	}
}

func clampPercent(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// ProgressBar renders a bar of width cells colored by severity.
func ProgressBar(width int, percent float64) string {
	return bar(width, percent, "▰", "▱", MetricColor(percent))
}

// ThinProgressBar renders a line-style bar using ━ and ─.
func ThinProgressBar(width int, percent float64) string {
	return bar(width, percent, "━", "─", MetricColor(percent))
}

func bar(width int, percent float64, full, empty string, color lipgloss.Color) string {
	if width < 1 {
		width = 1
	}
	filled := int(clampPercent(percent) / 100.0 * float64(width))
	if filled > width {
		filled = width
	}
	s := strings.Repeat(full, filled) + strings.Repeat(empty, width-filled)
	return lipgloss.NewStyle().Foreground(color).Render(s)
}

// SectionHeader renders ╭─ Title ───── Value ╮ across width.
func SectionHeader(title, value string, width int) string {
	if width < 10 {
		width = 10
	}
	leftWidth := 3 + lipgloss.Width(title) + 1
	rightWidth := 1 + lipgloss.Width(value) + 2
	fillWidth := width - leftWidth - rightWidth
	if fillWidth < 1 {
		fillWidth = 1
	}

	borderStyle := lipgloss.NewStyle().Foreground(ColorBorder)
	titleStyle := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(ColorGraph).Bold(true)

	return borderStyle.Render("╭─ ") +
		titleStyle.Render(title) +
		borderStyle.Render(" "+strings.Repeat("─", fillWidth)+" ") +
		valueStyle.Render(value) +
		borderStyle.Render(" ╮")
}

// SectionFooter renders the bottom border of a section.
func SectionFooter(width int) string {
	if width < 2 {
		width = 2
	}
	return lipgloss.NewStyle().Foreground(ColorBorder).Render("╰" + strings.Repeat("─", width-2) + "╯")
}

// SectionContentLine renders │ content │ padded to width.
func SectionContentLine(content string, width int) string {
	if width < 4 {
		width = 4
	}
	borderStyle := lipgloss.NewStyle().Foreground(ColorBorder)
	padding := width - 4 - lipgloss.Width(content)
	if padding < 0 {
		padding = 0
	}
	return borderStyle.Render("│") + " " + content + strings.Repeat(" ", padding) + " " + borderStyle.Render("│")
}

// truncate shortens s to maxLen display cells, adding an ellipsis.
func truncate(s string, maxLen int) string {
	if maxLen <= 3 || lipgloss.Width(s) <= maxLen {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+3 > maxLen {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
