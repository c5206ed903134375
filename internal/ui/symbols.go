package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess  = "✓" // Operation completed
	SymbolFail     = "✗" // Operation failed
	SymbolPending  = "○" // Not yet started
	SymbolProgress = "◐" // In progress
	SymbolOnline   = "●" // Agent online
	SymbolOffline  = "○" // Agent offline
	SymbolStale    = "◔" // Online but last_seen is old
	SymbolDir      = "▸" // Directory entry
)
