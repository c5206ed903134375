package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Semantic colors for status indication
const (
	ColorSuccess lipgloss.Color = "#39FF14"
	ColorError   lipgloss.Color = "#FF0055"
	ColorWarning lipgloss.Color = "#FFAA00"
	ColorInfo    lipgloss.Color = "#00FFFF"
)

// Text colors for content hierarchy
const (
	ColorPrimary   lipgloss.Color = "#FFFFFF"
	ColorSecondary lipgloss.Color = "#B4B4D0"
	ColorMuted     lipgloss.Color = "#6B6B8D"
	ColorAccent    lipgloss.Color = "#FF2E97"
)

// GradientColors cycle through the spinner frames: pink, purple, cyan, green.
var GradientColors = []lipgloss.Color{
	"#FF2E97",
	"#BF40FF",
	"#00FFFF",
	"#39FF14",
}

// DisableColors switches lipgloss to plain ASCII output, for --no-color and
// for output that is piped or parsed.
func DisableColors() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// SuccessStyle renders text in the success color.
func SuccessStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorSuccess)
}

// ErrorStyle renders text in the error color.
func ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorError)
}

// WarningStyle renders text in the warning color.
func WarningStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorWarning)
}

// MutedStyle renders secondary text.
func MutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorMuted)
}

// BoldStyle renders emphasized text.
func BoldStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
}

// ThresholdColor colors a utilization percentage: green below 70, amber
// below 90, red above.
func ThresholdColor(percent float64) lipgloss.Color {
	switch {
	case percent >= 90:
		return ColorError
	case percent >= 70:
		return ColorWarning
	default:
		return ColorSuccess
	}
}
