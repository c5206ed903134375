package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// Progress bar block characters.
const (
	BarFilled = '█'
	BarEmpty  = '░'
)

func clamp(percent float64) float64 {
	switch {
	case percent < 0:
		return 0
	case percent > 100:
		return 100
	default:
		return percent
	}
}

// barCounts splits width into filled and empty cells for percent.
func barCounts(percent float64, width int) (filled, empty int) {
	filled = int(clamp(percent) / 100 * float64(width))
	return filled, width - filled
}

// RenderProgressBar renders a utilization bar like "████░░░░  52%", colored
// green, amber or red by threshold.
func RenderProgressBar(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	percent = clamp(percent)
	filled, empty := barCounts(percent, width)
	bar := strings.Repeat(string(BarFilled), filled) + strings.Repeat(string(BarEmpty), empty)
	return lipgloss.NewStyle().Foreground(ThresholdColor(percent)).Render(bar) + fmt.Sprintf(" %3.0f%%", percent)
}

// TransferProgress draws a single-line progress bar for an upload or
// download outside the TUI. Updates are throttled; the final line is always
// drawn.
type TransferProgress struct {
	mu           sync.Mutex
	label        string
	total        int64
	sent         int64
	width        int
	out          io.Writer
	start        time.Time
	lastDraw     time.Time
	lastRendered string
	now          func() time.Time
}

const transferRedrawInterval = 100 * time.Millisecond

// NewTransferProgress creates a progress line for total bytes. A total of 0
// means unknown; only the byte count is shown.
func NewTransferProgress(label string, total int64, out io.Writer) *TransferProgress {
	p := &TransferProgress{
		label: label,
		total: total,
		width: 30,
		out:   out,
		now:   time.Now,
	}
	p.start = p.now()
	return p
}

// Update records sent bytes and redraws if enough time passed. It matches the
// progress callback of the File API client.
func (p *TransferProgress) Update(sent int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if sent > p.sent {
		p.sent = sent
	}
	now := p.now()
	if p.lastRendered != "" && now.Sub(p.lastDraw) < transferRedrawInterval && p.sent != p.total {
		return
	}
	p.lastDraw = now
	p.drawLocked(p.lineLocked())
}

// Percent returns progress as 0-100, or 0 when the total is unknown.
func (p *TransferProgress) Percent() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.percentLocked()
}

func (p *TransferProgress) percentLocked() float64 {
	if p.total <= 0 {
		return 0
	}
	return clamp(float64(p.sent) / float64(p.total) * 100)
}

func (p *TransferProgress) lineLocked() string {
	stats := humanize.Bytes(uint64(p.sent))
	if p.total > 0 {
		stats += " / " + humanize.Bytes(uint64(p.total))
	}
	if elapsed := p.now().Sub(p.start).Seconds(); elapsed > 0 && p.sent > 0 {
		stats += " | " + humanize.Bytes(uint64(float64(p.sent)/elapsed)) + "/s"
	}

	line := lipgloss.NewStyle().Foreground(ColorInfo).Render(SymbolProgress) + " " + p.label + " "
	if p.total > 0 {
		filled, empty := barCounts(p.percentLocked(), p.width)
		line += "[" + lipgloss.NewStyle().Foreground(ColorAccent).Render(strings.Repeat(string(BarFilled), filled)) +
			MutedStyle().Render(strings.Repeat(string(BarEmpty), empty)) + "]" +
			fmt.Sprintf(" %3.0f%% ", p.percentLocked())
	}
	return line + MutedStyle().Render(stats)
}

func (p *TransferProgress) drawLocked(line string) {
	if p.lastRendered != "" {
		fmt.Fprint(p.out, "\r"+strings.Repeat(" ", lipgloss.Width(p.lastRendered))+"\r")
	}
	fmt.Fprint(p.out, line)
	p.lastRendered = line
}

// Done replaces the progress line with a ✓ or ✗ summary.
func (p *TransferProgress) Done(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lastRendered != "" {
		fmt.Fprint(p.out, "\r"+strings.Repeat(" ", lipgloss.Width(p.lastRendered))+"\r")
		p.lastRendered = ""
	}

	timing := MutedStyle().Render(formatDuration(p.now().Sub(p.start)))
	if err != nil {
		fmt.Fprintf(p.out, "%s %s %s\n", ErrorStyle().Render(SymbolFail), p.label, timing)
		return
	}
	size := MutedStyle().Render("(" + humanize.Bytes(uint64(p.sent)) + ")")
	fmt.Fprintf(p.out, "%s %s %s %s\n", SuccessStyle().Render(SymbolSuccess), p.label, size, timing)
}

// RenderPercent renders a percentage like "42%" in its threshold color.
func RenderPercent(percent float64) string {
	return lipgloss.NewStyle().Foreground(ThresholdColor(percent)).Render(fmt.Sprintf("%.0f%%", clamp(percent)))
}
