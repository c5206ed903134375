package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	fderrors "github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/rileyhilliard/fleetdash/internal/files"
)

const (
	defaultTableWidth = 96
	timeLayout        = "2006-01-02 15:04"
)

func newTable(columns []table.Column) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
		table.WithKeyMap(tableKeyMap()),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorBorder).
		BorderBottom(true).
		Foreground(ColorTextSecondary).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(ColorTextPrimary).
		Background(ColorAccentDim).
		Bold(false)
	t.SetStyles(styles)
	return t
}

// fileColumns gives the name column whatever the fixed columns leave over.
func fileColumns(width int) []table.Column {
	const size, modified, kind = 10, 16, 8
	name := max(width-size-modified-kind-8, 16)
	return []table.Column{
		{Title: "Name", Width: name},
		{Title: "Size", Width: size},
		{Title: "Modified", Width: modified},
		{Title: "Type", Width: kind},
	}
}

func fileRow(e files.FileEntry) table.Row {
	name, size, kind := "  "+e.Name, formatBytes(e.Size), e.Type
	if e.IsDirectory {
		name, size, kind = GlyphDir+" "+e.Name, "-", "folder"
	}
	modified := "-"
	if t := e.ModTime(); !t.IsZero() {
		modified = t.Local().Format(timeLayout)
	}
	return table.Row{name, size, modified, orDash(kind)}
}

// syncFilesTable copies the navigator's entries into the table. reset moves
// the cursor back to the top, which a fresh directory wants.
func (m *Model) syncFilesTable(reset bool) {
	if m.session == nil {
		m.filesTable.SetRows(nil)
		return
	}
	entries := m.session.Navigator.State().Entries
	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, fileRow(e))
	}
	m.filesTable.SetRows(rows)
	if reset || m.filesTable.Cursor() >= len(rows) {
		m.filesTable.SetCursor(0)
	}
}

// renderFilesView renders the directory browser for the selected agent.
func (m Model) renderFilesView() string {
	if m.session == nil {
		return m.renderNoSession()
	}

	st := m.session.Navigator.State()
	var b strings.Builder

	b.WriteString(LabelStyle.Render("Path ") + ValueStyle.Render(st.Path))
	switch {
	case st.Phase == files.PhaseListed:
		b.WriteString(MutedStyle.Render(fmt.Sprintf("  %d items", len(st.Entries))))
	case st.Phase == files.PhaseLoading:
		b.WriteString("  " + m.spinner.View() + MutedStyle.Render(" loading"))
	}
	b.WriteString("\n\n")

	switch st.Phase {
	case files.PhaseErrored:
		b.WriteString(ErrorStyle.Render(fderrors.UserMessage(st.Err)))
		b.WriteString("\n")
		b.WriteString(MutedStyle.Render("R retry | backspace parent directory | esc back"))
	case files.PhaseListed:
		if len(st.Entries) == 0 {
			b.WriteString(MutedStyle.Render("Empty directory"))
		} else {
			b.WriteString(m.filesTable.View())
		}
	default:
		if len(st.Entries) == 0 {
			b.WriteString(LabelStyle.Render(m.spinner.View() + " Loading " + st.Path + "..."))
		} else {
			b.WriteString(m.filesTable.View())
		}
	}

	return detailContainerStyle.Render(b.String())
}

// renderNoSession explains why the file views have nothing to show.
func (m Model) renderNoSession() string {
	if m.sessionErr != nil {
		return detailContainerStyle.Render(ErrorStyle.Render(fderrors.UserMessage(m.sessionErr)))
	}
	if id, ok := m.selection.Selected(); ok {
		return detailContainerStyle.Render(LabelStyle.Render(fmt.Sprintf("Agent %s is no longer in the fleet", id)))
	}
	return detailContainerStyle.Render(LabelStyle.Render("No agent selected"))
}
