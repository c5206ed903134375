// Package dashboard implements the interactive fleet dashboard.
//
// The dashboard is a Bubble Tea program over the fleet and files packages.
// The fleet view shows one card per agent with status, metrics and the
// hottest temperature sensor. Enter opens a scrollable detail view with
// drives and every sensor; f browses the selected agent's file system and
// s manages its shared files.
//
// Fleet refreshes arrive from the poller goroutine through a one-slot
// channel that always holds the newest snapshot. Each selected agent gets its
// own files.Session; changing the selection closes it so late responses for
// the previous agent are dropped.
package dashboard
