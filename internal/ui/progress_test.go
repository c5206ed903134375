package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestRenderProgressBar(t *testing.T) {
	bar := RenderProgressBar(50, 10)
	assert.Contains(t, bar, "50%")
	assert.Equal(t, 5, strings.Count(bar, string(BarFilled)))
	assert.Equal(t, 5, strings.Count(bar, string(BarEmpty)))

	assert.Equal(t, 10, strings.Count(RenderProgressBar(250, 10), string(BarFilled)), "clamped to 100")
	assert.Equal(t, 10, strings.Count(RenderProgressBar(-5, 10), string(BarEmpty)), "clamped to 0")
	assert.Empty(t, RenderProgressBar(50, 0))
}

// fakeClock returns a clock that advances by step on every call.
func fakeClock(step time.Duration) func() time.Time {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func TestTransferProgress_Percent(t *testing.T) {
	var buf bytes.Buffer
	p := NewTransferProgress("report.pdf", 200, &buf)

	assert.InDelta(t, 0.0, p.Percent(), 0.001)
	p.Update(50)
	assert.InDelta(t, 25.0, p.Percent(), 0.001)
	p.Update(20)
	assert.InDelta(t, 25.0, p.Percent(), 0.001, "progress never goes backwards")
	p.Update(500)
	assert.InDelta(t, 100.0, p.Percent(), 0.001)
}

func TestTransferProgress_UnknownTotal(t *testing.T) {
	var buf bytes.Buffer
	p := NewTransferProgress("stream", 0, &buf)
	p.Update(2000)
	assert.InDelta(t, 0.0, p.Percent(), 0.001)
	assert.Contains(t, buf.String(), "2.0 kB")
	assert.NotContains(t, buf.String(), "%")
}

func TestTransferProgress_Throttles(t *testing.T) {
	var buf bytes.Buffer
	p := NewTransferProgress("big.iso", 1000, &buf)
	p.now = fakeClock(time.Millisecond)

	p.Update(10)
	first := buf.Len()
	assert.Positive(t, first)

	p.Update(20)
	assert.Equal(t, first, buf.Len(), "redraw within the interval is skipped")

	p.Update(1000)
	assert.Greater(t, buf.Len(), first, "completion always redraws")
}

func TestTransferProgress_Done(t *testing.T) {
	var buf bytes.Buffer
	p := NewTransferProgress("report.pdf", 2000, &buf)
	p.Update(2000)
	p.Done(nil)

	out := buf.String()
	assert.True(t, strings.HasSuffix(out, "\n"))
	last := out[strings.LastIndex(out, "\r")+1:]
	assert.Contains(t, last, SymbolSuccess)
	assert.Contains(t, last, "report.pdf")
	assert.Contains(t, last, "(2.0 kB)")
}

func TestTransferProgress_DoneWithError(t *testing.T) {
	var buf bytes.Buffer
	p := NewTransferProgress("report.pdf", 2000, &buf)
	p.Done(errors.New("boom"))
	assert.Contains(t, buf.String(), SymbolFail)
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
	assert.Positive(t, lipgloss.Width(strings.TrimSpace(buf.String())))
}
