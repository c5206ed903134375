package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/fleetdash/internal/dashboard"
	"github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/rileyhilliard/fleetdash/internal/files"
	"github.com/rileyhilliard/fleetdash/internal/fleet"
	"github.com/rileyhilliard/fleetdash/internal/logger"
	"github.com/rileyhilliard/fleetdash/internal/notify"
	"github.com/rileyhilliard/fleetdash/internal/telemetry"
	"github.com/spf13/cobra"
)

// dashboardLogFile receives log output while the TUI owns the terminal.
const dashboardLogFile = "fleetdash.log"

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the live fleet dashboard",
	Long: `Open the full-screen fleet dashboard. This is also what runs when
fleetdash is started without a command.

Agent cards refresh every fleet.poll_interval. Select an agent to see its
details, browse its files, or manage its shared files. Press ? for keys.

Logs are written to fleetdash.log while the dashboard is open.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return dashboardCommand(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

// dashboardCommand wires the poller, notifier, and metrics listener to the
// TUI and runs it until the user quits.
func dashboardCommand(ctx context.Context) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	logFile, err := tea.LogToFile(dashboardLogFile, "fleetdash")
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Can't open "+dashboardLogFile,
			"Run fleetdash from a directory you can write to.")
	}
	defer logFile.Close()
	logger.SetDefault(a.log)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	client, err := a.fleetClient()
	if err != nil {
		return err
	}
	poller := fleet.NewPoller(client,
		fleet.WithInterval(a.cfg.Fleet.PollInterval),
		fleet.WithTimeout(a.cfg.HTTP.Timeout),
		fleet.WithLogger(a.log),
	)

	if n := notify.FromConfig(a.cfg.Notify, notify.WithLogger(a.log)); n.Enabled() {
		poller.OnRefresh(n.Observe)
		go n.Run(ctx)
	}

	if listen := a.cfg.Telemetry.Listen; listen != "" {
		addr, err := telemetry.Serve(ctx, listen, a.log)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Can't listen on "+listen,
				"Pick a free address for telemetry.listen, or leave it empty.")
		}
		a.log.Info("metrics on http://%s/metrics", addr)
	}

	model := dashboard.NewModel(ctx, dashboard.Options{
		Poller:     poller,
		Selection:  fleet.NewSelection(),
		Sessions:   a.sessionFactory(),
		StaleAfter: a.cfg.Fleet.StaleAfter,
		Logger:     a.log,
	})

	go poller.Run(ctx)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()

	// Close whatever session the final model still holds.
	if m, ok := final.(dashboard.Model); ok {
		m.Close()
	}
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// sessionFactory opens a file session against the selected agent's File API.
func (a *app) sessionFactory() dashboard.SessionFactory {
	return func(agent fleet.AgentSnapshot, generation uint64) (*files.Session, error) {
		if agent.IP == "" {
			return nil, errors.New(errors.ErrFiles,
				agent.DisplayName()+" has no IP address",
				"The agent must report an IP before its files can be reached.")
		}
		return a.openSession(agent, generation, "")
	}
}
