package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSpinner_Success(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner("Fetching agents", &buf)
	assert.Equal(t, SpinnerPending, s.State())

	s.Start()
	assert.Equal(t, SpinnerInProgress, s.State())
	s.Success("3 agents")
	assert.Equal(t, SpinnerSuccess, s.State())

	out := buf.String()
	last := out[strings.LastIndex(out, "\r")+1:]
	assert.Contains(t, last, SymbolSuccess)
	assert.Contains(t, last, "Fetching agents 3 agents")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestSpinner_Fail(t *testing.T) {
	DisableColors()
	var buf bytes.Buffer
	s := NewSpinner("Probing", &buf)
	s.Start()
	s.SetLabel("Probing web-1")
	s.Fail("")
	assert.Equal(t, SpinnerFailed, s.State())
	assert.Contains(t, buf.String(), SymbolFail+" Probing web-1")
}

func TestSpinner_StopIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner("x", &buf)
	s.Stop()
	s.Start()
	s.Start()
	s.Stop()
	s.Stop()
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0.03s", formatDuration(30*time.Millisecond))
	assert.Equal(t, "1.2s", formatDuration(1200*time.Millisecond))
}
