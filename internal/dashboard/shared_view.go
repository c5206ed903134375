package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	fderrors "github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/rileyhilliard/fleetdash/internal/files"
)

func sharedColumns(width int) []table.Column {
	const size, created, by = 10, 16, 14
	name := max(width-size-created-by-8, 16)
	return []table.Column{
		{Title: "Filename", Width: name},
		{Title: "Size", Width: size},
		{Title: "Shared", Width: created},
		{Title: "By", Width: by},
	}
}

func sharedRow(f files.SharedFile) table.Row {
	created := "-"
	if t := f.Created(); !t.IsZero() {
		created = t.Local().Format(timeLayout)
	}
	return table.Row{f.Filename, formatBytes(f.Size), created, orDash(f.SharedBy)}
}

// syncSharedTable copies the gateway's list into the table.
func (m *Model) syncSharedTable() {
	if m.session == nil {
		m.sharedTable.SetRows(nil)
		return
	}
	list := m.session.Gateway.State().Files
	rows := make([]table.Row, 0, len(list))
	for _, f := range list {
		rows = append(rows, sharedRow(f))
	}
	m.sharedTable.SetRows(rows)
	if n := len(rows); m.sharedTable.Cursor() >= n {
		m.sharedTable.SetCursor(max(n-1, 0))
	}
}

// renderSharedView renders the shared-file registry of the selected agent.
func (m Model) renderSharedView() string {
	if m.session == nil {
		return m.renderNoSession()
	}

	st := m.session.Gateway.State()
	var b strings.Builder

	b.WriteString(LabelStyle.Render("Shared files on ") + ValueStyle.Render(m.session.AgentID))
	if st.Loaded {
		b.WriteString(MutedStyle.Render(fmt.Sprintf("  %d files", len(st.Files))))
	}
	b.WriteString("\n\n")

	switch {
	case !st.Loaded:
		b.WriteString(LabelStyle.Render(m.spinner.View() + " Loading shared files..."))
	case len(st.Files) == 0:
		b.WriteString(MutedStyle.Render("Nothing shared yet. Press u to upload a file."))
	default:
		b.WriteString(m.sharedTable.View())
	}
	b.WriteString("\n\n")

	if line := m.renderTransferLine(st); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}

	return detailContainerStyle.Render(b.String())
}

// renderTransferLine shows, in order of priority: the path prompt, a delete
// confirmation, upload progress, or the last operation error.
func (m Model) renderTransferLine(st files.GatewayState) string {
	switch {
	case m.inputActive:
		return m.pathInput.View() + "\n" + MutedStyle.Render("enter upload | esc cancel")

	case m.confirmDelete != "":
		name := m.confirmDelete
		if f, ok := sharedFileByID(m.session, m.confirmDelete); ok {
			name = f.Filename
		}
		return ErrorStyle.Render(fmt.Sprintf("Delete %s from the agent? ", name)) + MutedStyle.Render("y to confirm, any other key cancels")

	case st.Uploading:
		name := ""
		if st.Pending != nil {
			name = st.Pending.Name + " "
		}
		return LabelStyle.Render("Uploading "+name) + m.uploadBar.ViewAs(st.Progress/100)

	case st.Err != nil:
		hint := ""
		if st.ErrOp == "upload" && st.Pending != nil {
			hint = MutedStyle.Render("  press u then enter to retry")
		}
		return ErrorStyle.Render(fderrors.UserMessage(st.Err)) + hint
	}
	return ""
}
