package dashboard

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/fleetdash/internal/config"
	"github.com/rileyhilliard/fleetdash/internal/files"
	"github.com/rileyhilliard/fleetdash/internal/fleet"
)

type navKind int

const (
	navStart navKind = iota
	navTo
	navBack
	navRetry
)

// waitForFleet blocks until the poller publishes a new fleet.
func (m Model) waitForFleet() tea.Cmd {
	ctx, updates := m.ctx, m.updates
	return func() tea.Msg {
		select {
		case f := <-updates:
			return fleetMsg{fleet: f}
		case <-ctx.Done():
			return nil
		}
	}
}

func (m Model) clockCmd() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}

// refreshCmd asks the poller for an immediate refresh. The result arrives
// through the refresh observer like any scheduled one.
func (m *Model) refreshCmd() tea.Cmd {
	ctx, poller := m.ctx, m.poller
	return func() tea.Msg {
		_, err := poller.Refresh(ctx)
		return refreshDoneMsg{err: err}
	}
}

func isInFlight(err error) bool {
	return errors.Is(err, fleet.ErrRefreshInFlight)
}

func (m *Model) navigateCmd(kind navKind, path string) tea.Cmd {
	s := m.session
	if s == nil {
		return nil
	}
	ctx, nav, gen := m.ctx, s.Navigator, s.Generation
	return func() tea.Msg {
		var err error
		switch kind {
		case navStart:
			err = nav.Start(ctx)
		case navTo:
			err = nav.Navigate(ctx, path)
		case navBack:
			err = nav.Back(ctx)
		case navRetry:
			err = nav.Retry(ctx)
		}
		return navDoneMsg{gen: gen, err: err}
	}
}

// openEntryCmd descends into the directory under the cursor. Files are not
// opened.
func (m *Model) openEntryCmd() tea.Cmd {
	entry, ok := m.selectedEntry()
	if !ok || !entry.IsDirectory {
		return nil
	}
	return m.navigateCmd(navTo, entry.Path)
}

// runSharedCmd polls the shared list for the life of the session.
func (m *Model) runSharedCmd() tea.Cmd {
	s := m.session
	if s == nil {
		return nil
	}
	m.sharedRunning = true
	ctx, gw, gen := m.ctx, s.Gateway, s.Generation
	return func() tea.Msg {
		gw.Run(ctx)
		return sharedRunDoneMsg{gen: gen}
	}
}

func (m *Model) listSharedCmd() tea.Cmd {
	s := m.session
	if s == nil {
		return nil
	}
	ctx, gw, gen := m.ctx, s.Gateway, s.Generation
	return func() tea.Msg {
		return sharedDoneMsg{gen: gen, op: "list", err: gw.ListShared(ctx)}
	}
}

// uploadCmd validates path and uploads it. The progress tick runs until the
// result comes back.
func (m *Model) uploadCmd(path string) tea.Cmd {
	s := m.session
	path = strings.TrimSpace(path)
	if s == nil || path == "" || m.uploading {
		return nil
	}
	path = config.ExpandTilde(path)
	m.uploading = true
	m.notice = ""
	ctx, gw, gen := m.ctx, s.Gateway, s.Generation
	name := filepath.Base(path)
	upload := func() tea.Msg {
		if err := gw.SelectLocalFile(path); err != nil {
			return sharedDoneMsg{gen: gen, op: "select", name: name, err: err}
		}
		return sharedDoneMsg{gen: gen, op: "upload", name: name, err: gw.Upload(ctx)}
	}
	return tea.Batch(upload, m.progressCmd(gen))
}

func (m Model) progressCmd(gen uint64) tea.Cmd {
	return tea.Tick(progressInterval, func(time.Time) tea.Msg {
		return progressTickMsg{gen: gen}
	})
}

func (m *Model) downloadCmd(id, name string) tea.Cmd {
	s := m.session
	if s == nil {
		return nil
	}
	m.notice = ""
	ctx, gw, gen := m.ctx, s.Gateway, s.Generation
	return func() tea.Msg {
		saved, err := gw.Download(ctx, id, name)
		return sharedDoneMsg{gen: gen, op: "download", name: name, saved: saved, err: err}
	}
}

func (m *Model) deleteCmd(id string) tea.Cmd {
	s := m.session
	if s == nil {
		return nil
	}
	m.notice = ""
	name := id
	if f, ok := sharedFileByID(s, id); ok {
		name = f.Filename
	}
	ctx, gw, gen := m.ctx, s.Gateway, s.Generation
	return func() tea.Msg {
		return sharedDoneMsg{gen: gen, op: "delete", name: name, err: gw.Delete(ctx, id)}
	}
}

// sharedFileByID finds a shared file in the session's current list.
func sharedFileByID(s *files.Session, id string) (files.SharedFile, bool) {
	if s == nil {
		return files.SharedFile{}, false
	}
	for _, f := range s.Gateway.State().Files {
		if f.FileID == id {
			return f, true
		}
	}
	return files.SharedFile{}, false
}
