package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThresholdColor(t *testing.T) {
	tests := []struct {
		percent float64
		want    string
	}{
		{0, string(ColorSuccess)},
		{69.9, string(ColorSuccess)},
		{70, string(ColorWarning)},
		{89.9, string(ColorWarning)},
		{90, string(ColorError)},
		{100, string(ColorError)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, string(ThresholdColor(tt.percent)), "percent %v", tt.percent)
	}
}

func TestStyles_RenderText(t *testing.T) {
	for _, s := range []string{
		SuccessStyle().Render("ok"),
		ErrorStyle().Render("ok"),
		WarningStyle().Render("ok"),
		MutedStyle().Render("ok"),
		BoldStyle().Render("ok"),
	} {
		assert.Contains(t, s, "ok")
	}
}
