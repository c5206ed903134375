package dashboard

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	fderrors "github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/rileyhilliard/fleetdash/internal/files"
	"github.com/rileyhilliard/fleetdash/internal/fleet"
	"github.com/rileyhilliard/fleetdash/internal/logger"
)

// LayoutMode represents the responsive layout mode based on terminal size.
type LayoutMode int

const (
	LayoutMinimal LayoutMode = iota
	LayoutCompact
	LayoutStandard
	LayoutWide
)

// Width breakpoints for layout modes
const (
	BreakpointCompact  = 80
	BreakpointStandard = 120
	BreakpointWide     = 160
)

// HeightMinimal is the smallest height that still shows the footer.
const HeightMinimal = 16

const (
	clockInterval    = time.Second
	progressInterval = 100 * time.Millisecond
)

// SessionFactory opens the file session for an agent. generation is the
// selection generation the session belongs to.
type SessionFactory func(agent fleet.AgentSnapshot, generation uint64) (*files.Session, error)

// Options wires the dashboard to the core.
type Options struct {
	Poller    *fleet.Poller
	Selection *fleet.Selection
	Sessions  SessionFactory

	// StaleAfter marks online agents whose last_seen is older as stale.
	StaleAfter time.Duration

	Logger logger.Logger
	Now    func() time.Time
}

// Model is the Bubble Tea model for the fleet dashboard. It reads core state
// through snapshots and changes it only through the core's operations.
type Model struct {
	ctx        context.Context
	poller     *fleet.Poller
	selection  *fleet.Selection
	sessions   SessionFactory
	staleAfter time.Duration
	log        logger.Logger
	nowFn      func() time.Time

	// updates carries fleet refreshes from the poller goroutine.
	updates chan fleet.Fleet

	fleet  fleet.Fleet
	loaded bool
	now    time.Time

	session       *files.Session
	sessionErr    error
	sharedRunning bool
	uploading     bool

	viewMode ViewMode
	showHelp bool
	quitting bool
	width    int
	height   int
	notice   string

	detailViewport viewport.Model
	viewportReady  bool
	filesTable     table.Model
	sharedTable    table.Model
	pathInput      textinput.Model
	inputActive    bool
	confirmDelete  string
	uploadBar      progress.Model
	spinner        spinner.Model
}

// fleetMsg carries a new fleet snapshot from the poller.
type fleetMsg struct {
	fleet fleet.Fleet
}

// refreshDoneMsg reports a user-requested refresh.
type refreshDoneMsg struct {
	err error
}

// clockMsg drives relative times like "last seen 12s ago".
type clockMsg time.Time

// navDoneMsg reports a navigator operation for the session at gen.
type navDoneMsg struct {
	gen uint64
	err error
}

// sharedDoneMsg reports a gateway operation for the session at gen.
type sharedDoneMsg struct {
	gen   uint64
	op    string
	saved string
	name  string
	err   error
}

// progressTickMsg redraws the upload bar while an upload runs.
type progressTickMsg struct {
	gen uint64
}

// sharedRunDoneMsg is sent when a gateway poll loop exits.
type sharedRunDoneMsg struct {
	gen uint64
}

// NewModel creates the dashboard. It makes the selection follow the poller
// and subscribes to refreshes; ctx bounds every request the dashboard starts.
func NewModel(ctx context.Context, opts Options) Model {
	nowFn := opts.Now
	if nowFn == nil {
		nowFn = time.Now
	}

	m := Model{
		ctx:        ctx,
		poller:     opts.Poller,
		selection:  opts.Selection,
		sessions:   opts.Sessions,
		staleAfter: opts.StaleAfter,
		log:        logger.OrDefault(opts.Logger),
		nowFn:      nowFn,
		updates:    make(chan fleet.Fleet, 1),
		now:        nowFn(),
	}

	m.selection.Follow(m.poller)
	updates := m.updates
	m.poller.OnRefresh(func(_, next fleet.Fleet) {
		publishLatest(updates, next)
	})

	m.fleet = m.poller.Fleet()
	if !m.fleet.FetchedAt.IsZero() {
		m.loaded = true
		m.selection.Observe(m.fleet)
	}

	m.filesTable = newTable(fileColumns(defaultTableWidth))
	m.sharedTable = newTable(sharedColumns(defaultTableWidth))

	m.pathInput = textinput.New()
	m.pathInput.Placeholder = "path to a local file"
	m.pathInput.Prompt = "upload ▸ "
	m.pathInput.CharLimit = 1024

	m.uploadBar = progress.New(progress.WithGradient(string(ColorAccentDim), string(ColorAccent)))
	m.uploadBar.Width = 40

	m.spinner = spinner.New(spinner.WithSpinner(spinner.Dot))
	m.spinner.Style = lipgloss.NewStyle().Foreground(ColorAccent)

	return m
}

// publishLatest replaces any undelivered fleet with f so the UI only ever
// sees the newest snapshot.
func publishLatest(ch chan fleet.Fleet, f fleet.Fleet) {
	for {
		select {
		case ch <- f:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Init starts the fleet listener, the clock, and the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.waitForFleet(),
		m.clockCmd(),
		m.spinner.Tick,
	)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		handled, cmd := m.HandleKeyMsg(msg)
		if handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case fleetMsg:
		m.fleet = msg.fleet
		m.loaded = true
		cmd := m.syncSession()
		if m.viewMode == ViewDetail {
			m.updateDetailViewportContent()
		}
		return m, tea.Batch(m.waitForFleet(), cmd)

	case refreshDoneMsg:
		if msg.err != nil && !isInFlight(msg.err) {
			m.log.Debug("manual refresh failed: %v", msg.err)
		}

	case clockMsg:
		m.now = time.Time(msg)
		m.syncFilesTable(false)
		m.syncSharedTable()
		if m.viewMode == ViewDetail {
			m.updateDetailViewportContent()
		}
		return m, m.clockCmd()

	case navDoneMsg:
		if !m.session.Current(msg.gen) || files.Discarded(msg.err) {
			return m, nil
		}
		m.syncFilesTable(msg.err == nil)

	case sharedDoneMsg:
		m.handleSharedDone(msg)

	case progressTickMsg:
		if m.uploading && m.session.Current(msg.gen) {
			return m, m.progressCmd(msg.gen)
		}

	case sharedRunDoneMsg:
		if m.session.Current(msg.gen) {
			m.sharedRunning = false
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	return m.renderDashboard()
}

// Close releases the current agent session. Call it after the program exits.
func (m *Model) Close() {
	m.closeSession()
}

func (m *Model) quit() tea.Cmd {
	m.quitting = true
	m.closeSession()
	return tea.Quit
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	headerHeight := 3
	footerHeight := 2
	viewportHeight := max(height-headerHeight-footerHeight, 1)

	if !m.viewportReady {
		m.detailViewport = viewport.New(width, viewportHeight)
		m.detailViewport.YPosition = headerHeight
		m.viewportReady = true
	} else {
		m.detailViewport.Width = width
		m.detailViewport.Height = viewportHeight
	}

	tableWidth := max(width-4, 40)
	tableHeight := max(height-10, 3)
	m.filesTable.SetColumns(fileColumns(tableWidth))
	m.filesTable.SetWidth(tableWidth)
	m.filesTable.SetHeight(tableHeight)
	m.sharedTable.SetColumns(sharedColumns(tableWidth))
	m.sharedTable.SetWidth(tableWidth)
	m.sharedTable.SetHeight(max(tableHeight-3, 3))
	m.uploadBar.Width = min(max(width-30, 10), 60)

	if m.viewMode == ViewDetail {
		m.updateDetailViewportContent()
	}
}

// SelectedAgent returns the selected agent as of the latest snapshot.
func (m Model) SelectedAgent() (fleet.AgentSnapshot, bool) {
	return m.selection.Resolve(m.fleet)
}

// ViewMode returns the screen being shown.
func (m Model) ViewMode() ViewMode {
	return m.viewMode
}

// Session returns the open agent session, or nil.
func (m Model) Session() *files.Session {
	return m.session
}

// LayoutMode returns the current layout mode based on terminal width.
func (m Model) LayoutMode() LayoutMode {
	switch {
	case m.width >= BreakpointWide:
		return LayoutWide
	case m.width >= BreakpointStandard:
		return LayoutStandard
	case m.width >= BreakpointCompact:
		return LayoutCompact
	default:
		return LayoutMinimal
	}
}

// ShowFooter returns true if the terminal is tall enough to show the footer.
func (m Model) ShowFooter() bool {
	return m.height == 0 || m.height >= HeightMinimal
}

func (m *Model) moveSelection(delta int) tea.Cmd {
	if m.fleet.Len() == 0 {
		return nil
	}
	idx := -1
	if id, ok := m.selection.Selected(); ok {
		idx = m.fleet.IndexOf(id)
	}
	if idx < 0 {
		return m.selectIndex(0)
	}
	return m.selectIndex(min(max(idx+delta, 0), m.fleet.Len()-1))
}

func (m *Model) selectIndex(i int) tea.Cmd {
	if i < 0 || i >= m.fleet.Len() {
		return nil
	}
	m.selection.Select(m.fleet.Agents[i].AgentID)
	return m.syncSession()
}

// syncSession makes the open session match the selection. A selection
// change closes the old session, which discards its in-flight results.
func (m *Model) syncSession() tea.Cmd {
	gen := m.selection.Generation()
	if m.session != nil && m.session.Current(gen) {
		return nil
	}
	m.closeSession()

	agent, ok := m.selection.Resolve(m.fleet)
	if !ok || m.sessions == nil {
		return nil
	}
	s, err := m.sessions(agent, gen)
	if err != nil {
		m.sessionErr = err
		m.log.Warn("can't open file session for %s: %v", agent.DisplayName(), err)
		return nil
	}
	m.session = s

	var cmds []tea.Cmd
	switch m.viewMode {
	case ViewFiles:
		cmds = append(cmds, m.navigateCmd(navStart, ""))
	case ViewShared:
		cmds = append(cmds, m.runSharedCmd())
	}
	return tea.Batch(cmds...)
}

func (m *Model) closeSession() {
	if m.session != nil {
		m.log.Debug("closing file session for %s", m.session.AgentID)
		m.session.Close()
	}
	m.session = nil
	m.sessionErr = nil
	m.sharedRunning = false
	m.uploading = false
	m.inputActive = false
	m.confirmDelete = ""
	m.notice = ""
	m.filesTable.SetRows(nil)
	m.filesTable.SetCursor(0)
	m.sharedTable.SetRows(nil)
	m.sharedTable.SetCursor(0)
}

func (m *Model) openFiles() tea.Cmd {
	if _, ok := m.selection.Selected(); !ok {
		return nil
	}
	m.viewMode = ViewFiles
	cmd := m.syncSession()
	if m.session == nil {
		return cmd
	}
	if m.session.Navigator.State().Phase == files.PhaseIdle && cmd == nil {
		cmd = m.navigateCmd(navStart, "")
	}
	m.syncFilesTable(false)
	return cmd
}

func (m *Model) openShared() tea.Cmd {
	if _, ok := m.selection.Selected(); !ok {
		return nil
	}
	m.viewMode = ViewShared
	cmd := m.syncSession()
	if m.session == nil {
		return cmd
	}
	if !m.sharedRunning {
		cmd = tea.Batch(cmd, m.runSharedCmd())
	}
	m.syncSharedTable()
	return cmd
}

func (m *Model) handleSharedDone(msg sharedDoneMsg) {
	if !m.session.Current(msg.gen) || files.Discarded(msg.err) {
		return
	}
	// A rejected second upload must not end the progress tick of the first.
	if (msg.op == "upload" || msg.op == "select") && !fderrors.Is(msg.err, files.ErrUploadInFlight) {
		m.uploading = false
	}
	m.syncSharedTable()

	if msg.err != nil {
		// Gateway keeps the error for upload, download and delete; anything
		// else (a busy uploader, no file picked) goes to the notice line.
		if msg.op != "list" && m.session.Gateway.State().Err == nil {
			m.notice = fderrors.UserMessage(msg.err)
		}
		return
	}
	switch msg.op {
	case "upload":
		m.notice = "Uploaded " + msg.name
	case "download":
		m.notice = "Saved to " + msg.saved
	case "delete":
		m.notice = "Deleted " + msg.name
	}
}

func (m Model) selectedShared() (files.SharedFile, bool) {
	if m.session == nil {
		return files.SharedFile{}, false
	}
	list := m.session.Gateway.State().Files
	i := m.sharedTable.Cursor()
	if i < 0 || i >= len(list) {
		return files.SharedFile{}, false
	}
	return list[i], true
}

func (m Model) selectedEntry() (files.FileEntry, bool) {
	if m.session == nil {
		return files.FileEntry{}, false
	}
	st := m.session.Navigator.State()
	if st.Phase != files.PhaseListed {
		return files.FileEntry{}, false
	}
	i := m.filesTable.Cursor()
	if i < 0 || i >= len(st.Entries) {
		return files.FileEntry{}, false
	}
	return st.Entries[i], true
}
