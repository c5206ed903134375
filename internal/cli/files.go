package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/dustin/go-humanize"
	"github.com/rileyhilliard/fleetdash/internal/config"
	"github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/rileyhilliard/fleetdash/internal/files"
	"github.com/rileyhilliard/fleetdash/internal/ui"
	"github.com/spf13/cobra"
)

// Command-specific flags
var (
	filesLsFlags       OutputFlags
	filesSharedFlags   OutputFlags
	filesDownloadName  string
	filesDownloadDir   string
	filesRemoveConfirm bool
)

const fileTimeLayout = "2006-01-02 15:04"

// uploadRedraw is how often upload progress is sampled.
const uploadRedraw = 100 * time.Millisecond

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Browse an agent's files and manage its shared files",
	Long: `Work with one agent's File API without opening the dashboard.

<agent> is an agent ID, a hostname (any case), or an IP address.

Examples:
  fleetdash files ls web-1
  fleetdash files ls web-1 'C:\Users'
  fleetdash files shared web-1 --json
  fleetdash files upload web-1 ./report.pdf
  fleetdash files download web-1 3f2c9a --dir ~/Desktop
  fleetdash files rm web-1 3f2c9a --yes`,
}

var filesLsCmd = &cobra.Command{
	Use:   "ls <agent> [path]",
	Short: "List a directory on an agent",
	Long: `List a directory on the agent. Without a path the configured root
(files.root, C:\ by default) is listed.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		filesLsFlags.apply()
		a, err := loadApp()
		if err != nil {
			return err
		}
		path := ""
		if len(args) > 1 {
			path = args[1]
		}
		return filesListCommand(cmd.Context(), a, cmd.OutOrStdout(), args[0], path, filesLsFlags.JSON)
	},
}

var filesSharedCmd = &cobra.Command{
	Use:   "shared <agent>",
	Short: "List an agent's shared files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filesSharedFlags.apply()
		a, err := loadApp()
		if err != nil {
			return err
		}
		return filesSharedCommand(cmd.Context(), a, cmd.OutOrStdout(), args[0], filesSharedFlags.JSON)
	},
}

var filesUploadCmd = &cobra.Command{
	Use:   "upload <agent> <local-file>",
	Short: "Share a local file with an agent",
	Long: `Upload a local file into the agent's shared-file registry.

The file is checked against files.max_upload_bytes and
files.allowed_mime_types before anything is sent.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		return filesUploadCommand(cmd.Context(), a, cmd.OutOrStdout(), args[0], args[1])
	},
}

var filesDownloadCmd = &cobra.Command{
	Use:   "download <agent> <file-id>",
	Short: "Download a shared file from an agent",
	Long: `Download a shared file into files.download_dir (or --dir).

An existing file is never overwritten; a " (1)" style suffix is added.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		return filesDownloadCommand(cmd.Context(), a, cmd.OutOrStdout(), args[0], args[1], filesDownloadName, filesDownloadDir)
	},
}

var filesRemoveCmd = &cobra.Command{
	Use:     "rm <agent> <file-id>",
	Aliases: []string{"delete"},
	Short:   "Delete a shared file from an agent",
	Long: `Delete a shared file from the agent's registry.

You are asked to confirm when running in a terminal. Otherwise --yes is
required.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		return filesRemoveCommand(cmd.Context(), a, cmd.OutOrStdout(), args[0], args[1], filesRemoveConfirm)
	},
}

func init() {
	rootCmd.AddCommand(filesCmd)
	filesCmd.AddCommand(filesLsCmd, filesSharedCmd, filesUploadCmd, filesDownloadCmd, filesRemoveCmd)

	AddOutputFlags(filesLsCmd, &filesLsFlags)
	AddOutputFlags(filesSharedCmd, &filesSharedFlags)
	filesDownloadCmd.Flags().StringVar(&filesDownloadName, "name", "", "save under this file name (default: the shared file's name)")
	filesDownloadCmd.Flags().StringVar(&filesDownloadDir, "dir", "", "save into this directory (default: files.download_dir)")
	filesRemoveCmd.Flags().BoolVarP(&filesRemoveConfirm, "yes", "y", false, "delete without asking")
}

// agentSession resolves ref and opens a one-shot session on it.
func (a *app) agentSession(ctx context.Context, ref, downloadDir string) (*files.Session, error) {
	agent, err := a.resolveAgent(ctx, ref)
	if err != nil {
		return nil, err
	}
	return a.openSession(agent, 0, downloadDir)
}

type listingJSON struct {
	Agent string            `json:"agent_id"`
	Path  string            `json:"path"`
	Items []files.FileEntry `json:"items"`
}

func filesListCommand(ctx context.Context, a *app, out io.Writer, ref, path string, asJSON bool) error {
	s, err := a.agentSession(ctx, ref, "")
	if err != nil {
		return err
	}
	defer s.Close()

	if path == "" {
		err = s.Navigator.Start(ctx)
	} else {
		err = s.Navigator.Navigate(ctx, path)
	}
	if err != nil {
		return err
	}
	st := s.Navigator.State()

	if asJSON {
		items := st.Entries
		if items == nil {
			items = []files.FileEntry{}
		}
		return WriteJSONSuccess(out, listingJSON{Agent: s.AgentID, Path: st.Path, Items: items})
	}

	fmt.Fprintf(out, "%s %s\n\n", ui.BoldStyle().Render(st.Path), ui.MutedStyle().Render(fmt.Sprintf("(%d items)", len(st.Entries))))
	tbl := ui.Table{
		Headers: []string{"NAME", "SIZE", "MODIFIED", "TYPE"},
		Empty:   ui.MutedStyle().Render("Empty directory") + "\n",
	}
	for _, e := range st.Entries {
		name, size, kind := e.Name, humanize.Bytes(uint64(max(e.Size, 0))), orDash(e.Type)
		if e.IsDirectory {
			name = ui.SymbolDir + " " + e.Name
			size, kind = "-", "folder"
		}
		tbl.AddRow(name, size, formatEpoch(e.ModTime()), kind)
	}
	fmt.Fprint(out, tbl.Render())
	return nil
}

type sharedJSON struct {
	Agent string             `json:"agent_id"`
	Files []files.SharedFile `json:"files"`
}

func filesSharedCommand(ctx context.Context, a *app, out io.Writer, ref string, asJSON bool) error {
	s, err := a.agentSession(ctx, ref, "")
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Gateway.ListShared(ctx); err != nil {
		return err
	}
	list := s.Gateway.State().Files

	if asJSON {
		if list == nil {
			list = []files.SharedFile{}
		}
		return WriteJSONSuccess(out, sharedJSON{Agent: s.AgentID, Files: list})
	}

	tbl := ui.Table{
		Headers: []string{"ID", "FILENAME", "SIZE", "SHARED", "BY"},
		Empty:   ui.MutedStyle().Render("Nothing shared yet.") + "\n",
	}
	for _, f := range list {
		tbl.AddRow(f.FileID, f.Filename, humanize.Bytes(uint64(max(f.Size, 0))), formatEpoch(f.Created()), orDash(f.SharedBy))
	}
	fmt.Fprint(out, tbl.Render())
	return nil
}

func filesUploadCommand(ctx context.Context, a *app, out io.Writer, ref, localPath string) error {
	localPath = config.ExpandTilde(localPath)

	s, err := a.agentSession(ctx, ref, "")
	if err != nil {
		return err
	}
	defer s.Close()

	gw := s.Gateway
	if err := gw.SelectLocalFile(localPath); err != nil {
		return err
	}
	pending := gw.State().Pending

	progress := ui.NewTransferProgress("Uploading "+pending.Name, pending.Size, out)
	done := make(chan error, 1)
	go func() { done <- gw.Upload(ctx) }()

	ticker := time.NewTicker(uploadRedraw)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			st := gw.State()
			progress.Update(int64(st.Progress / 100 * float64(pending.Size)))
		case err := <-done:
			if err == nil {
				progress.Update(pending.Size)
			}
			progress.Done(err)
			if err != nil {
				return err
			}
			if res := gw.State().LastUpload; res != nil {
				fmt.Fprintf(out, "  %s %s\n", ui.MutedStyle().Render("file id"), res.FileID)
			}
			return nil
		}
	}
}

func filesDownloadCommand(ctx context.Context, a *app, out io.Writer, ref, fileID, name, dir string) error {
	s, err := a.agentSession(ctx, ref, dir)
	if err != nil {
		return err
	}
	defer s.Close()

	if name == "" {
		name = sharedName(ctx, s, fileID)
	}

	var spin *ui.Spinner
	if isInteractive() {
		spin = ui.NewSpinner("Downloading "+name, out)
		spin.Start()
	}
	saved, err := s.Gateway.Download(ctx, fileID, name)
	if err != nil {
		if spin != nil {
			spin.Fail("")
		}
		return err
	}
	if spin != nil {
		spin.Success("")
	}
	fmt.Fprintf(out, "Saved to %s\n", saved)
	return nil
}

// sharedName looks up a shared file's name, falling back to its ID.
func sharedName(ctx context.Context, s *files.Session, fileID string) string {
	if err := s.Gateway.ListShared(ctx); err == nil {
		for _, f := range s.Gateway.State().Files {
			if f.FileID == fileID {
				return f.Filename
			}
		}
	}
	return fileID
}

// confirmDelete asks before a delete. Tests replace it.
var confirmDelete = func(name, agent string) (bool, error) {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %s from %s?", name, agent)).
				Description("The file is removed from the agent's shared files.").
				Affirmative("Delete").
				Negative("Keep").
				Value(&ok),
		),
	)
	if err := form.Run(); err != nil {
		return false, err
	}
	return ok, nil
}

func filesRemoveCommand(ctx context.Context, a *app, out io.Writer, ref, fileID string, yes bool) error {
	if !yes && !isInteractive() {
		return errors.New(errors.ErrConfig,
			"Deleting needs --yes when not run from a terminal",
			"Re-run with --yes to confirm.")
	}

	s, err := a.agentSession(ctx, ref, "")
	if err != nil {
		return err
	}
	defer s.Close()

	name := sharedName(ctx, s, fileID)
	if !yes {
		ok, err := confirmDelete(name, s.AgentID)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --yes to skip the prompt")
		}
		if !ok {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	if err := s.Gateway.Delete(ctx, fileID); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s Deleted %s\n", ui.SuccessStyle().Render(ui.SymbolSuccess), name)
	return nil
}

func formatEpoch(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(fileTimeLayout)
}
