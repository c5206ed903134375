package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_Empty(t *testing.T) {
	tbl := Table{Headers: []string{"ID", "NAME"}, Empty: "No agents registered"}
	assert.Equal(t, "No agents registered", tbl.Render())
}

func TestTable_AlignsColumns(t *testing.T) {
	DisableColors()
	tbl := Table{Headers: []string{"ID", "NAME", "IP"}}
	tbl.AddRow("a", "web-1", "10.0.0.1")
	tbl.AddRow("bbbb", "db", "10.0.0.2")

	lines := strings.Split(strings.TrimRight(tbl.Render(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "ID    NAME   IP", lines[0])
	assert.Equal(t, strings.Repeat("─", 4+2+5+2+8), lines[1])
	assert.Equal(t, "a     web-1  10.0.0.1", lines[2])
	assert.Equal(t, "bbbb  db     10.0.0.2", lines[3])
}

func TestTable_ShortRows(t *testing.T) {
	DisableColors()
	tbl := Table{Headers: []string{"A", "B"}}
	tbl.AddRow("x")
	lines := strings.Split(strings.TrimRight(tbl.Render(), "\n"), "\n")
	assert.Equal(t, "x", lines[2])
}

func TestStatusCell(t *testing.T) {
	assert.Contains(t, StatusCell("online"), "online")
	assert.Contains(t, StatusCell("stale"), SymbolStale)
	assert.Contains(t, StatusCell("offline"), "offline")
	assert.Contains(t, StatusCell(""), "offline")
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "ab   ", padRight("ab", 5))
	assert.Equal(t, "abcdef", padRight("abcdef", 3))
}
