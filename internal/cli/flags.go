package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// OutputFlags holds the output flags shared by the listing commands.
type OutputFlags struct {
	JSON bool
}

// AddOutputFlags registers --json on a command.
func AddOutputFlags(cmd *cobra.Command, flags *OutputFlags) {
	cmd.Flags().BoolVar(&flags.JSON, "json", false, "print a JSON envelope instead of a table")
}

// apply switches the process to machine mode when --json is set, so that a
// failure is also reported as JSON.
func (f OutputFlags) apply() {
	if f.JSON {
		machineMode = true
	}
}

// ParseProbeTimeout parses a probe timeout string into a duration.
// Returns zero duration if the flag is empty.
func ParseProbeTimeout(flag string) (time.Duration, error) {
	if flag == "" {
		return 0, nil
	}

	duration, err := time.ParseDuration(flag)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("'%s' doesn't look like a valid timeout", flag),
			"Try something like 5s, 2m, or 500ms.")
	}
	if duration <= 0 {
		return 0, errors.New(errors.ErrConfig,
			fmt.Sprintf("'%s' is not a positive timeout", flag),
			"Try something like 5s, 2m, or 500ms.")
	}
	return duration, nil
}

// isInteractive reports whether prompts can be shown. Tests replace it.
var isInteractive = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
