package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/rileyhilliard/fleetdash/internal/agentapi"
	"github.com/rileyhilliard/fleetdash/internal/config"
	"github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/rileyhilliard/fleetdash/internal/files"
	"github.com/rileyhilliard/fleetdash/internal/fleet"
	"github.com/rileyhilliard/fleetdash/internal/logger"
	"github.com/spf13/afero"
)

// app carries what every command needs once the config is loaded.
type app struct {
	cfg     *config.Config
	cfgPath string
	opts    agentapi.Options
	log     logger.Logger
	fs      afero.Fs
}

// loadApp resolves the config from --config, the working directory, or the
// global path, falling back to defaults.
func loadApp() (*app, error) {
	cfg, path, err := config.LoadResolved(configFlag)
	if err != nil {
		return nil, err
	}
	a := newApp(cfg)
	a.cfgPath = path
	if path != "" {
		a.log.Debug("using config %s", path)
	}
	return a, nil
}

func newApp(cfg *config.Config) *app {
	log := logger.NewEnvLogger("[fleetdash]")
	opts := agentapi.OptionsFromConfig(cfg.HTTP, version)
	opts.Logger = log
	return &app{
		cfg:  cfg,
		opts: opts,
		log:  log,
		fs:   afero.NewOsFs(),
	}
}

func (a *app) fleetClient() (*agentapi.FleetClient, error) {
	c, err := agentapi.NewFleetClient(a.cfg.Fleet.URL, a.opts)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Fleet URL is not usable",
			"Set fleet.url to something like http://localhost:8000")
	}
	return c, nil
}

// fetchFleet does a single Fleet API fetch.
func (a *app) fetchFleet(ctx context.Context) (fleet.Fleet, error) {
	client, err := a.fleetClient()
	if err != nil {
		return fleet.Fleet{}, err
	}
	agents, err := client.FetchAgents(ctx)
	if err != nil {
		return fleet.Fleet{}, errors.WrapWithCode(err, errors.ErrFetch,
			"Couldn't fetch agents from "+client.BaseURL(),
			"Check that the Fleet API is running and fleet.url is correct.")
	}
	return fleet.Fleet{Agents: agents, FetchedAt: time.Now()}, nil
}

// resolveAgent finds an agent by ID, hostname, or IP.
func (a *app) resolveAgent(ctx context.Context, ref string) (fleet.AgentSnapshot, error) {
	f, err := a.fetchFleet(ctx)
	if err != nil {
		return fleet.AgentSnapshot{}, err
	}
	agent, ok := f.Match(ref)
	if !ok {
		return fleet.AgentSnapshot{}, errors.New(errors.ErrFetch,
			fmt.Sprintf("Agent '%s' not found", ref),
			"Run 'fleetdash agents' to list agent IDs, hostnames, and IPs.")
	}
	if agent.IP == "" {
		return fleet.AgentSnapshot{}, errors.New(errors.ErrFiles,
			fmt.Sprintf("Agent '%s' has no IP address", agent.DisplayName()),
			"The agent must report an IP before its files can be reached.")
	}
	return agent, nil
}

func (a *app) fileClient(agent fleet.AgentSnapshot) (*agentapi.FileClient, error) {
	base := agentapi.AgentBaseURL(a.cfg.Files.Scheme, agent.IP, a.cfg.Files.AgentPort)
	c, err := agentapi.NewFileClient(base, a.opts)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrFiles,
			"Can't reach the File API of "+agent.DisplayName(),
			"Check files.scheme and files.agent_port.")
	}
	return c, nil
}

// sessionOptions turns the files config section into session options.
// downloadDir overrides files.download_dir when set.
func (a *app) sessionOptions(downloadDir string) []files.Option {
	if downloadDir == "" {
		downloadDir = a.cfg.Files.DownloadDir
	}
	return []files.Option{
		files.WithLogger(a.log),
		files.WithFs(a.fs),
		files.WithDownloadDir(config.ExpandTilde(downloadDir)),
		files.WithMaxUploadBytes(a.cfg.Files.MaxUploadBytes),
		files.WithAllowedMIMETypes(a.cfg.Files.AllowedMIMETypes),
		files.WithPollInterval(a.cfg.Files.SharedPollInterval),
	}
}

// openSession opens a file session on agent. generation tags it for the
// dashboard; one-shot commands pass 0.
func (a *app) openSession(agent fleet.AgentSnapshot, generation uint64, downloadDir string) (*files.Session, error) {
	client, err := a.fileClient(agent)
	if err != nil {
		return nil, err
	}
	return files.NewSession(agent.AgentID, generation, client, client, a.cfg.Files.Root, a.sessionOptions(downloadDir)...), nil
}
