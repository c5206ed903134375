package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete fleetdash.yaml configuration file.
type Config struct {
	Version   int             `yaml:"version" mapstructure:"version"`
	Fleet     FleetConfig     `yaml:"fleet" mapstructure:"fleet"`
	Files     FilesConfig     `yaml:"files" mapstructure:"files"`
	HTTP      HTTPConfig      `yaml:"http" mapstructure:"http"`
	Notify    NotifyConfig    `yaml:"notify" mapstructure:"notify"`
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// FleetConfig points at the central Fleet API.
type FleetConfig struct {
	// URL is the base URL of the Fleet API, e.g. http://localhost:8000.
	URL string `yaml:"url" mapstructure:"url"`

	// PollInterval is how often the agent list is refreshed.
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`

	// StaleAfter marks an agent as stale in the UI when last_seen is older than this.
	// Display only; the reported status is never changed.
	StaleAfter time.Duration `yaml:"stale_after" mapstructure:"stale_after"`
}

// FilesConfig controls the per-agent File API.
type FilesConfig struct {
	// AgentPort is the port each agent serves its File API on.
	AgentPort int `yaml:"agent_port" mapstructure:"agent_port"`

	// Scheme is "http" or "https".
	Scheme string `yaml:"scheme" mapstructure:"scheme"`

	// Root is where browsing starts. Agents in the field run Windows, hence C:\.
	Root string `yaml:"root" mapstructure:"root"`

	// SharedPollInterval is how often the shared-file list refreshes while open.
	SharedPollInterval time.Duration `yaml:"shared_poll_interval" mapstructure:"shared_poll_interval"`

	// DownloadDir is the local directory downloads are saved to. Supports ~.
	DownloadDir string `yaml:"download_dir" mapstructure:"download_dir"`

	// MaxUploadBytes rejects larger local files before upload. 0 means unlimited.
	MaxUploadBytes int64 `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`

	// AllowedMIMETypes restricts uploads. Empty allows anything.
	// Entries may be exact ("application/pdf") or wildcards ("image/*").
	AllowedMIMETypes []string `yaml:"allowed_mime_types" mapstructure:"allowed_mime_types"`
}

// HTTPConfig tunes the HTTP clients used for both APIs.
type HTTPConfig struct {
	// Timeout bounds a single unary request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// TransferTimeout bounds uploads and downloads.
	TransferTimeout time.Duration `yaml:"transfer_timeout" mapstructure:"transfer_timeout"`

	// RateLimit is the per-host request rate in requests per second. 0 disables limiting.
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`

	// Burst is the per-host token bucket size.
	Burst int `yaml:"burst" mapstructure:"burst"`
}

// NotifyConfig controls agent online/offline notifications.
type NotifyConfig struct {
	// URLs are shoutrrr service URLs. Empty disables notifications.
	URLs []string `yaml:"urls" mapstructure:"urls"`

	// Cooldown suppresses repeat notifications for the same agent.
	Cooldown time.Duration `yaml:"cooldown" mapstructure:"cooldown"`
}

// TelemetryConfig controls the optional Prometheus listener.
type TelemetryConfig struct {
	// Listen is a host:port to serve /metrics on. Empty disables it.
	Listen string `yaml:"listen" mapstructure:"listen"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Fleet: FleetConfig{
			URL:          "http://localhost:8000",
			PollInterval: 30 * time.Second,
			StaleAfter:   120 * time.Second,
		},
		Files: FilesConfig{
			AgentPort:          3000,
			Scheme:             "http",
			Root:               `C:\`,
			SharedPollInterval: 10 * time.Second,
			DownloadDir:        "~/Downloads",
			MaxUploadBytes:     0,
			AllowedMIMETypes:   []string{},
		},
		HTTP: HTTPConfig{
			Timeout:         15 * time.Second,
			TransferTimeout: 10 * time.Minute,
			RateLimit:       10,
			Burst:           5,
		},
		Notify: NotifyConfig{
			URLs:     []string{},
			Cooldown: 5 * time.Minute,
		},
	}
}
