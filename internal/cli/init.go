package cli

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/fleetdash/internal/config"
	"github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/rileyhilliard/fleetdash/internal/ui"
	"github.com/spf13/cobra"
)

var (
	initForce    bool
	initFleetURL string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a fleetdash config file",
	Long: `Create a config file, asking for the Fleet API URL and a few file
settings. When not run from a terminal the defaults are written instead.

The file goes to --config when given, otherwise to
~/.config/fleetdash/config.yaml.

Examples:
  fleetdash init
  fleetdash init --fleet-url http://fleet.internal:8000
  fleetdash --config ./fleetdash.yaml init --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Init(cmd.OutOrStdout(), InitOptions{
			Path:           configFlag,
			FleetURL:       initFleetURL,
			Overwrite:      initForce,
			NonInteractive: !isInteractive(),
		})
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config file")
	initCmd.Flags().StringVar(&initFleetURL, "fleet-url", "", "Fleet API URL to write (skips the prompt)")
}

// InitOptions holds options for the init command.
type InitOptions struct {
	Path           string // Target file; defaults to the global config path
	FleetURL       string // Pre-specified Fleet API URL
	Overwrite      bool   // Overwrite existing config without asking
	NonInteractive bool   // Skip prompts, use defaults
}

// initForm collects the answers. Tests replace it.
var initForm = runInitForm

// Init writes a new config file.
func Init(out io.Writer, opts InitOptions) error {
	configPath := opts.Path
	if configPath == "" {
		configPath = config.GlobalPath()
	}
	if configPath == "" {
		return errors.New(errors.ErrConfig,
			"Can't work out where to put the config",
			"Pass a path with --config.")
	}
	configPath = config.ExpandTilde(configPath)

	if _, err := os.Stat(configPath); err == nil && !opts.Overwrite {
		if opts.NonInteractive {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", configPath),
				"Use --force to overwrite")
		}

		var overwrite bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", configPath)).
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	cfg := config.DefaultConfig()
	if opts.FleetURL != "" {
		cfg.Fleet.URL = strings.TrimSpace(opts.FleetURL)
	}
	if !opts.NonInteractive {
		if err := initForm(cfg, opts.FleetURL != ""); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Run with --fleet-url, or pipe stdin to write the defaults")
		}
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := config.Write(configPath, cfg); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s Created %s\n\n", ui.SuccessStyle().Render(ui.SymbolSuccess), configPath)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  fleetdash agents   - Check the Fleet API answers")
	fmt.Fprintln(out, "  fleetdash          - Open the dashboard")
	return nil
}

// runInitForm asks for the settings most people change.
func runInitForm(cfg *config.Config, haveURL bool) error {
	port := strconv.Itoa(cfg.Files.AgentPort)
	poll := cfg.Fleet.PollInterval.String()

	var fields []huh.Field
	if !haveURL {
		fields = append(fields, huh.NewInput().
			Title("Fleet API URL").
			Description("Where the agent list is served, e.g. http://fleet.internal:8000").
			Value(&cfg.Fleet.URL).
			Validate(validateURL))
	}
	fields = append(fields,
		huh.NewInput().
			Title("Poll interval").
			Description("How often the agent list refreshes").
			Value(&poll).
			Validate(func(s string) error {
				d, err := time.ParseDuration(strings.TrimSpace(s))
				if err != nil || d < time.Second {
					return fmt.Errorf("use a duration of at least 1s, like 30s")
				}
				return nil
			}),
		huh.NewInput().
			Title("Agent File API port").
			Value(&port).
			Validate(func(s string) error {
				n, err := strconv.Atoi(strings.TrimSpace(s))
				if err != nil || n < 1 || n > 65535 {
					return fmt.Errorf("port must be between 1 and 65535")
				}
				return nil
			}),
		huh.NewInput().
			Title("Download directory").
			Value(&cfg.Files.DownloadDir),
	)

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return err
	}

	cfg.Fleet.URL = strings.TrimSpace(cfg.Fleet.URL)
	if d, err := time.ParseDuration(strings.TrimSpace(poll)); err == nil {
		cfg.Fleet.PollInterval = d
	}
	if n, err := strconv.Atoi(strings.TrimSpace(port)); err == nil {
		cfg.Files.AgentPort = n
	}
	return nil
}

func validateURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("enter an http:// or https:// URL")
	}
	return nil
}
