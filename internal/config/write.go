package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// fileDoc mirrors Config for writing. yaml.v3 encodes time.Duration as
// nanoseconds, so durations are written in their string form instead.
type fileDoc struct {
	Version int `yaml:"version"`
	Fleet   struct {
		URL          string `yaml:"url"`
		PollInterval string `yaml:"poll_interval"`
		StaleAfter   string `yaml:"stale_after"`
	} `yaml:"fleet"`
	Files struct {
		AgentPort          int      `yaml:"agent_port"`
		Scheme             string   `yaml:"scheme"`
		Root               string   `yaml:"root"`
		SharedPollInterval string   `yaml:"shared_poll_interval"`
		DownloadDir        string   `yaml:"download_dir"`
		MaxUploadBytes     int64    `yaml:"max_upload_bytes"`
		AllowedMIMETypes   []string `yaml:"allowed_mime_types"`
	} `yaml:"files"`
	HTTP struct {
		Timeout         string  `yaml:"timeout"`
		TransferTimeout string  `yaml:"transfer_timeout"`
		RateLimit       float64 `yaml:"rate_limit"`
		Burst           int     `yaml:"burst"`
	} `yaml:"http"`
	Notify struct {
		URLs     []string `yaml:"urls"`
		Cooldown string   `yaml:"cooldown"`
	} `yaml:"notify"`
	Telemetry struct {
		Listen string `yaml:"listen"`
	} `yaml:"telemetry"`
}

func toFileDoc(cfg *Config) fileDoc {
	var d fileDoc
	d.Version = cfg.Version
	d.Fleet.URL = cfg.Fleet.URL
	d.Fleet.PollInterval = cfg.Fleet.PollInterval.String()
	d.Fleet.StaleAfter = cfg.Fleet.StaleAfter.String()
	d.Files.AgentPort = cfg.Files.AgentPort
	d.Files.Scheme = cfg.Files.Scheme
	d.Files.Root = cfg.Files.Root
	d.Files.SharedPollInterval = cfg.Files.SharedPollInterval.String()
	d.Files.DownloadDir = cfg.Files.DownloadDir
	d.Files.MaxUploadBytes = cfg.Files.MaxUploadBytes
	d.Files.AllowedMIMETypes = nonNil(cfg.Files.AllowedMIMETypes)
	d.HTTP.Timeout = cfg.HTTP.Timeout.String()
	d.HTTP.TransferTimeout = cfg.HTTP.TransferTimeout.String()
	d.HTTP.RateLimit = cfg.HTTP.RateLimit
	d.HTTP.Burst = cfg.HTTP.Burst
	d.Notify.URLs = nonNil(cfg.Notify.URLs)
	d.Notify.Cooldown = cfg.Notify.Cooldown.String()
	d.Telemetry.Listen = cfg.Telemetry.Listen
	return d
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Marshal renders cfg as YAML in the same layout Load reads.
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(toFileDoc(cfg))
}

// Write saves cfg to path, creating parent directories as needed.
// The file is written to a temp file first and renamed into place.
func Write(path string, cfg *Config) error {
	data, err := Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".fleetdash-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp config file: %w", err)
	}
	tmpName := tmp.Name()

	header := []byte("# fleetdash configuration. See 'fleetdash init --help'.\n")
	if _, err := tmp.Write(append(header, data...)); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}
