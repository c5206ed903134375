package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HelpBinding represents a single keyboard shortcut entry.
type HelpBinding struct {
	Key  string
	Desc string
}

var globalBindings = []HelpBinding{
	{Key: "q / Ctrl+C", Desc: "Quit"},
	{Key: "?", Desc: "Toggle this help"},
	{Key: "Esc", Desc: "Back / close"},
}

// helpBindings lists the shortcuts for each view.
var helpBindings = map[ViewMode][]HelpBinding{
	ViewFleet: {
		{Key: "r", Desc: "Refresh now"},
		{Key: "up / k", Desc: "Select previous agent"},
		{Key: "down / j", Desc: "Select next agent"},
		{Key: "Home / End", Desc: "Select first / last agent"},
		{Key: "Enter", Desc: "Agent details"},
		{Key: "f", Desc: "Browse files"},
		{Key: "s", Desc: "Shared files"},
	},
	ViewDetail: {
		{Key: "r", Desc: "Refresh now"},
		{Key: "up / down", Desc: "Scroll"},
		{Key: "f", Desc: "Browse files"},
		{Key: "s", Desc: "Shared files"},
	},
	ViewFiles: {
		{Key: "up / down", Desc: "Move cursor"},
		{Key: "Enter", Desc: "Open directory"},
		{Key: "Backspace", Desc: "Parent directory"},
		{Key: "R", Desc: "Retry after an error"},
		{Key: "s", Desc: "Shared files"},
	},
	ViewShared: {
		{Key: "up / down", Desc: "Move cursor"},
		{Key: "u", Desc: "Upload a local file"},
		{Key: "d", Desc: "Download selected"},
		{Key: "x", Desc: "Delete selected"},
		{Key: "r", Desc: "Refresh list"},
		{Key: "f", Desc: "Browse files"},
	},
}

// Help overlay styles
var (
	helpBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent).
			Background(ColorSurfaceBg).
			Padding(1, 2)

	helpTitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true).
			MarginBottom(1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true).
			Width(14)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)
)

// renderHelpOverlay renders a centered box with the current view's shortcuts.
func (m Model) renderHelpOverlay() string {
	var lines []string
	lines = append(lines, helpTitleStyle.Render("Keyboard Shortcuts: "+m.viewMode.String()))
	lines = append(lines, "")

	for _, binding := range helpBindings[m.viewMode] {
		lines = append(lines, helpKeyStyle.Render(binding.Key)+helpDescStyle.Render(binding.Desc))
	}
	lines = append(lines, "")
	for _, binding := range globalBindings {
		lines = append(lines, helpKeyStyle.Render(binding.Key)+helpDescStyle.Render(binding.Desc))
	}

	lines = append(lines, "")
	lines = append(lines, LabelStyle.Render("Press ? to close"))

	helpBox := helpBoxStyle.Render(strings.Join(lines, "\n"))
	if m.width == 0 || m.height == 0 {
		return helpBox
	}

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		helpBox,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(ColorDarkBg),
	)
}
