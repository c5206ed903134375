// Package ui provides terminal output components for fleetdash's one-shot
// CLI commands. The interactive dashboard has its own styles in the
// dashboard package.
//
// # Components Overview
//
//	Spinner          - Animated status line while a command waits on the network
//	TransferProgress - Byte progress line for uploads and downloads
//	Table            - Aligned columns for agent and file listings
//
// # Color Scheme
//
// Colors are hex values rendered through Lip Gloss, which degrades them to
// the terminal's profile:
//
//	ColorSuccess (green) - Online agents, completed operations
//	ColorError   (red)   - Offline agents, failures
//	ColorWarning (amber) - Stale agents, high utilization
//	ColorMuted   (gray)  - Secondary text, timing info
//
// Use DisableColors() to switch to monochrome output (for --no-color).
//
// # Spinner Usage
//
//	s := ui.NewSpinner("Fetching agents", os.Stderr)
//	s.Start()
//	// ... do work ...
//	s.Success("12 agents") // or s.Fail("timeout")
package ui
