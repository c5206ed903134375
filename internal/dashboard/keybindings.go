package dashboard

import (
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
)

// ViewMode is the screen the dashboard is showing.
type ViewMode int

const (
	ViewFleet ViewMode = iota
	ViewDetail
	ViewFiles
	ViewShared
)

// String returns the view's title.
func (v ViewMode) String() string {
	switch v {
	case ViewFleet:
		return "fleet"
	case ViewDetail:
		return "detail"
	case ViewFiles:
		return "files"
	case ViewShared:
		return "shared"
	default:
		return "unknown"
	}
}

// Key bindings as constants for consistency.
const (
	KeyQuit        = "q"
	KeyQuitAlt     = "ctrl+c"
	KeyRefresh     = "r"
	KeySelectPrev  = "up"
	KeySelectPrevK = "k"
	KeySelectNext  = "down"
	KeySelectNextJ = "j"
	KeySelectFirst = "home"
	KeySelectLast  = "end"
	KeyExpand      = "enter"
	KeyBack        = "esc"
	KeyFiles       = "f"
	KeyShared      = "s"
	KeyToggleHelp  = "?"

	KeyParentDir = "backspace"
	KeyRetry     = "R"

	KeyUpload   = "u"
	KeyDownload = "d"
	KeyDelete   = "x"
	KeyConfirm  = "y"
)

// HandleKeyMsg processes keyboard input. It returns true if the key was handled.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()

	if key == KeyQuitAlt {
		return true, m.quit()
	}

	// The path prompt owns the keyboard while it is open.
	if m.inputActive {
		return true, m.handleInputKey(msg)
	}

	// A pending delete is confirmed with y and cancelled by anything else.
	if m.confirmDelete != "" {
		id := m.confirmDelete
		m.confirmDelete = ""
		if key == KeyConfirm {
			return true, m.deleteCmd(id)
		}
		return true, nil
	}

	if key == KeyToggleHelp {
		m.showHelp = !m.showHelp
		return true, nil
	}
	if m.showHelp && key == KeyBack {
		m.showHelp = false
		return true, nil
	}
	if key == KeyQuit {
		return true, m.quit()
	}

	switch m.viewMode {
	case ViewFleet:
		return m.handleFleetKey(key)
	case ViewDetail:
		return m.handleDetailKey(msg)
	case ViewFiles:
		return m.handleFilesKey(msg)
	case ViewShared:
		return m.handleSharedKey(msg)
	}
	return false, nil
}

func (m *Model) handleFleetKey(key string) (bool, tea.Cmd) {
	switch key {
	case KeyRefresh:
		return true, m.refreshCmd()
	case KeySelectPrev, KeySelectPrevK:
		return true, m.moveSelection(-1)
	case KeySelectNext, KeySelectNextJ:
		return true, m.moveSelection(1)
	case KeySelectFirst:
		return true, m.selectIndex(0)
	case KeySelectLast:
		return true, m.selectIndex(m.fleet.Len() - 1)
	case KeyExpand:
		if _, ok := m.SelectedAgent(); ok {
			m.viewMode = ViewDetail
			m.updateDetailViewportContent()
		}
		return true, nil
	case KeyFiles:
		return true, m.openFiles()
	case KeyShared:
		return true, m.openShared()
	}
	return false, nil
}

func (m *Model) handleDetailKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case KeyBack:
		m.viewMode = ViewFleet
		return true, nil
	case KeyRefresh:
		return true, m.refreshCmd()
	case KeyFiles:
		return true, m.openFiles()
	case KeyShared:
		return true, m.openShared()
	}
	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return true, cmd
}

func (m *Model) handleFilesKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case KeyBack:
		m.viewMode = ViewFleet
		return true, nil
	case KeyExpand:
		return true, m.openEntryCmd()
	case KeyParentDir:
		return true, m.navigateCmd(navBack, "")
	case KeyRetry:
		return true, m.navigateCmd(navRetry, "")
	case KeyShared:
		return true, m.openShared()
	}
	var cmd tea.Cmd
	m.filesTable, cmd = m.filesTable.Update(msg)
	return true, cmd
}

func (m *Model) handleSharedKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case KeyBack:
		m.viewMode = ViewFleet
		return true, nil
	case KeyRefresh:
		return true, m.listSharedCmd()
	case KeyUpload:
		if m.session == nil || m.uploading {
			return true, nil
		}
		m.inputActive = true
		m.pathInput.SetValue("")
		if p := m.session.Gateway.State().Pending; p != nil {
			m.pathInput.SetValue(p.Path)
		}
		return true, m.pathInput.Focus()
	case KeyDownload:
		if f, ok := m.selectedShared(); ok {
			return true, m.downloadCmd(f.FileID, f.Filename)
		}
		return true, nil
	case KeyDelete:
		if f, ok := m.selectedShared(); ok {
			m.confirmDelete = f.FileID
		}
		return true, nil
	case KeyFiles:
		return true, m.openFiles()
	}
	var cmd tea.Cmd
	m.sharedTable, cmd = m.sharedTable.Update(msg)
	return true, cmd
}

// handleInputKey drives the local path prompt in the shared view.
func (m *Model) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case KeyBack:
		m.inputActive = false
		m.pathInput.Blur()
		return nil
	case KeyExpand:
		m.inputActive = false
		m.pathInput.Blur()
		return m.uploadCmd(m.pathInput.Value())
	}
	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return cmd
}

// tableKeyMap keeps the table's navigation keys and drops the ones the
// dashboard uses for its own actions.
func tableKeyMap() table.KeyMap {
	km := table.DefaultKeyMap()
	km.PageUp.SetKeys("pgup")
	km.PageDown.SetKeys("pgdown")
	km.HalfPageUp.SetKeys("ctrl+u")
	km.HalfPageDown.SetKeys("ctrl+d")
	return km
}
