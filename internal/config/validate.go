package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rileyhilliard/fleetdash/internal/errors"
)

// MinInterval is the shortest poll interval accepted.
const MinInterval = time.Second

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	// Check version
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but fleetdash only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade fleetdash, or lower 'version' in your config.")
	}

	if err := validateFleet(cfg.Fleet); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'fleet' section in your fleetdash.yaml.")
	}

	if err := validateFiles(cfg.Files); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'files' section in your fleetdash.yaml.")
	}

	if err := validateHTTP(cfg.HTTP); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'http' section in your fleetdash.yaml.")
	}

	if err := validateNotify(cfg.Notify); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'notify' section in your fleetdash.yaml.")
	}

	return nil
}

func validateFleet(f FleetConfig) error {
	if strings.TrimSpace(f.URL) == "" {
		return fmt.Errorf("fleet.url is empty")
	}
	if err := validateHTTPURL(f.URL); err != nil {
		return fmt.Errorf("fleet.url %q: %w", f.URL, err)
	}
	if f.PollInterval < MinInterval {
		return fmt.Errorf("fleet.poll_interval %s is below the %s minimum", f.PollInterval, MinInterval)
	}
	if f.StaleAfter < MinInterval {
		return fmt.Errorf("fleet.stale_after %s is below the %s minimum", f.StaleAfter, MinInterval)
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

func validateFiles(f FilesConfig) error {
	if f.AgentPort < 1 || f.AgentPort > 65535 {
		return fmt.Errorf("files.agent_port %d is outside 1-65535", f.AgentPort)
	}
	if f.Scheme != "http" && f.Scheme != "https" {
		return fmt.Errorf("files.scheme %q must be http or https", f.Scheme)
	}
	if strings.TrimSpace(f.Root) == "" {
		return fmt.Errorf("files.root is empty")
	}
	if f.SharedPollInterval < MinInterval {
		return fmt.Errorf("files.shared_poll_interval %s is below the %s minimum", f.SharedPollInterval, MinInterval)
	}
	if f.MaxUploadBytes < 0 {
		return fmt.Errorf("files.max_upload_bytes cannot be negative")
	}
	for _, m := range f.AllowedMIMETypes {
		if !strings.Contains(m, "/") {
			return fmt.Errorf("files.allowed_mime_types entry %q is not a MIME type (want type/subtype or type/*)", m)
		}
	}
	return nil
}

func validateHTTP(h HTTPConfig) error {
	if h.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive")
	}
	if h.TransferTimeout <= 0 {
		return fmt.Errorf("http.transfer_timeout must be positive")
	}
	if h.RateLimit < 0 {
		return fmt.Errorf("http.rate_limit cannot be negative")
	}
	if h.Burst < 0 {
		return fmt.Errorf("http.burst cannot be negative")
	}
	return nil
}

func validateNotify(n NotifyConfig) error {
	for _, u := range n.URLs {
		if !strings.Contains(u, "://") {
			return fmt.Errorf("notify.urls entry %q is not a service URL", u)
		}
	}
	if n.Cooldown < 0 {
		return fmt.Errorf("notify.cooldown cannot be negative")
	}
	return nil
}
