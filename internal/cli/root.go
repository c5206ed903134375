package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rileyhilliard/fleetdash/internal/logger"
	"github.com/rileyhilliard/fleetdash/internal/ui"
	"github.com/spf13/cobra"
)

// Global flags
var (
	configFlag  string
	debugFlag   bool
	noColorFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "fleetdash",
	Short: "Terminal dashboard for a fleet of remote agents",
	Long: `fleetdash polls a Fleet API for the agents it knows about and shows their
health, metrics, and temperatures in a live terminal dashboard. From the
dashboard you can browse an agent's file system and move files to and from
its shared-file registry.

Running fleetdash with no command opens the dashboard. The other commands
do the same work one shot at a time, for scripts and quick checks.

Examples:
  fleetdash
  fleetdash agents --probe
  fleetdash files ls web-1 'C:\Users'
  fleetdash files upload web-1 ./report.pdf`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debugFlag {
			logger.SetDebug(true)
		}
		if noColorFlag || os.Getenv("NO_COLOR") != "" {
			ui.DisableColors()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return dashboardCommand(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file (default ./fleetdash.yaml, then ~/.config/fleetdash/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "print debug logs (same as FLEETDASH_DEBUG=1)")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "disable colored output")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}

	switch {
	case machineMode:
		_ = WriteJSONFromError(os.Stdout, err)
	case isUnknownCommandError(err):
		fmt.Fprintln(os.Stderr, err)
		if name := extractUnknownCommand(err); name != "" {
			fmt.Fprintf(os.Stderr, "\n'%s' is not a fleetdash command.", name)
		}
		fmt.Fprintln(os.Stderr, "\nRun 'fleetdash --help' for usage.")
	default:
		fmt.Fprint(os.Stderr, err.Error())
		if !strings.HasSuffix(err.Error(), "\n") {
			fmt.Fprintln(os.Stderr)
		}
	}
	os.Exit(1)
}

// isUnknownCommandError reports whether cobra rejected the command line itself.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag")
}

// extractUnknownCommand pulls the command name out of cobra's
// `unknown command "foo" for "fleetdash"` message.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.IndexByte(msg, '"')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(msg[start+1:], '"')
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}
