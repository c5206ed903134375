package dashboard

import (
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/fleetdash/internal/fleet"
	"github.com/stretchr/testify/assert"
)

func TestMetricColor(t *testing.T) {
	tests := []struct {
		percent float64
		want    lipgloss.Color
	}{
		{0, ColorHealthy},
		{69.9, ColorHealthy},
		{70, ColorWarning},
		{89.9, ColorWarning},
		{90, ColorCritical},
		{150, ColorCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MetricColor(tt.percent), "percent %v", tt.percent)
	}
}

func TestTempColor(t *testing.T) {
	assert.Equal(t, ColorHealthy, TempColor(fleet.TempNormal))
	assert.Equal(t, ColorWarning, TempColor(fleet.TempWarm))
	assert.Equal(t, ColorWarning, TempColor(fleet.TempWarning))
	assert.Equal(t, ColorCritical, TempColor(fleet.TempHot))
	assert.Equal(t, ColorCritical, TempColor(fleet.TempCritical))
}

func TestHealthColor(t *testing.T) {
	assert.Equal(t, ColorHealthy, HealthColor(fleet.HealthOK))
	assert.Equal(t, ColorWarning, HealthColor(fleet.HealthWarning))
	assert.Equal(t, ColorCritical, HealthColor(fleet.HealthCritical))
	assert.Equal(t, ColorTextMuted, HealthColor(fleet.HealthUnknown))
}

func TestProgressBar_Width(t *testing.T) {
	for _, p := range []float64{-10, 0, 33, 100, 250} {
		assert.Equal(t, 20, lipgloss.Width(ProgressBar(20, p)), "percent %v", p)
		assert.Equal(t, 20, lipgloss.Width(ThinProgressBar(20, p)), "percent %v", p)
	}
	assert.Equal(t, 1, lipgloss.Width(ProgressBar(0, 50)))
}

func TestSectionContentLine_Width(t *testing.T) {
	assert.Equal(t, 40, lipgloss.Width(SectionContentLine("hello", 40)))
	assert.Equal(t, 40, lipgloss.Width(SectionHeader("Drives", "2", 40)))
	assert.Equal(t, 40, lipgloss.Width(SectionFooter(40)))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a-very...", truncate("a-very-long-hostname", 9))
	assert.Equal(t, "abc", truncate("abc", 2), "too narrow to truncate")
}

func TestHottestSensor(t *testing.T) {
	_, _, ok := hottestSensor(nil)
	assert.False(t, ok)

	name, r, ok := hottestSensor(map[string]fleet.TemperatureReading{
		"cpu": {Current: 70},
		"gpu": {Current: 84, High: pct(80)},
		"nvme": {Current: 40},
	})
	assert.True(t, ok)
	assert.Equal(t, "gpu", name)
	assert.InDelta(t, 84.0, r.Current, 0.001)

	name, _, _ = hottestSensor(map[string]fleet.TemperatureReading{
		"b": {Current: 50},
		"a": {Current: 50},
	})
	assert.Equal(t, "a", name, "ties go to the first name")
}

func TestRelativeTime(t *testing.T) {
	assert.Equal(t, "never", relativeTime(time.Time{}, testNow))
	assert.Equal(t, "just now", relativeTime(testNow, testNow))
	assert.Equal(t, "3 minutes ago", relativeTime(testNow.Add(-3*time.Minute), testNow))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "0 B", formatBytes(-1))
	assert.Equal(t, "2.0 kB", formatBytes(2000))
}

func TestRenderCard_Offline(t *testing.T) {
	_, m := newHarness(t)
	card := m.renderCard(dbAgent(), 38, false)
	assert.Contains(t, card, "db-1")
	assert.Contains(t, card, "10.0.0.2")
	assert.Contains(t, card, "No metrics while offline")
}

func TestRenderCard_Online(t *testing.T) {
	_, m := newHarness(t)
	card := m.renderCard(webAgent(), 38, true)
	assert.Contains(t, card, "CPU")
	assert.Contains(t, card, "42.0%")
	assert.Contains(t, card, "93.0%")
	assert.Contains(t, card, "Gpu")
	assert.Contains(t, card, "84°C")
}
