package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = "fleetdash.yaml"
	// GlobalConfigDir is the directory for global config.
	GlobalConfigDir = ".config/fleetdash"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix is the prefix for environment overrides (FLEETDASH_FLEET_URL etc.).
	EnvPrefix = "FLEETDASH"
)

// Load reads config from the specified path.
// Environment overrides are applied on top of the file.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Run 'fleetdash init' to create a config file, or specify one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. fleetdash.yaml in current directory
// 3. ~/.config/fleetdash/config.yaml (global)
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	// 1. Explicit path takes precedence
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	// 2. Current directory
	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	localConfig := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	// 3. Global config
	if globalConfig := GlobalPath(); globalConfig != "" {
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig, nil
		}
	}

	return "", nil
}

// GlobalPath returns ~/.config/fleetdash/config.yaml, or "" if home is unknown.
func GlobalPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
}

// LoadResolved finds and loads the config, validating the result.
// With no config file present it returns defaults plus environment overrides,
// so the dashboard works out of the box against a local Fleet API.
// The returned path is empty when no file was used.
func LoadResolved(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}

	var cfg *Config
	if path == "" {
		cfg, err = parseConfig(newViper(), "environment")
	} else {
		cfg, err = Load(path)
	}
	if err != nil {
		return nil, path, err
	}

	if err := Validate(cfg); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, source string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+source)
	}

	cfg.Files.DownloadDir = ExpandLocalPath(cfg.Files.DownloadDir)
	cfg.Fleet.URL = strings.TrimRight(strings.TrimSpace(cfg.Fleet.URL), "/")
	cfg.Files.Scheme = strings.ToLower(strings.TrimSpace(cfg.Files.Scheme))

	return cfg, nil
}

// setDefaults registers every key with viper. AutomaticEnv only overrides
// keys viper already knows about, so each key needs a default here.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("version", d.Version)
	v.SetDefault("fleet.url", d.Fleet.URL)
	v.SetDefault("fleet.poll_interval", d.Fleet.PollInterval.String())
	v.SetDefault("fleet.stale_after", d.Fleet.StaleAfter.String())
	v.SetDefault("files.agent_port", d.Files.AgentPort)
	v.SetDefault("files.scheme", d.Files.Scheme)
	v.SetDefault("files.root", d.Files.Root)
	v.SetDefault("files.shared_poll_interval", d.Files.SharedPollInterval.String())
	v.SetDefault("files.download_dir", d.Files.DownloadDir)
	v.SetDefault("files.max_upload_bytes", d.Files.MaxUploadBytes)
	v.SetDefault("files.allowed_mime_types", d.Files.AllowedMIMETypes)
	v.SetDefault("http.timeout", d.HTTP.Timeout.String())
	v.SetDefault("http.transfer_timeout", d.HTTP.TransferTimeout.String())
	v.SetDefault("http.rate_limit", d.HTTP.RateLimit)
	v.SetDefault("http.burst", d.HTTP.Burst)
	v.SetDefault("notify.urls", d.Notify.URLs)
	v.SetDefault("notify.cooldown", d.Notify.Cooldown.String())
	v.SetDefault("telemetry.listen", d.Telemetry.Listen)
}
