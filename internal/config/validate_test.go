package config

import (
	"testing"
	"time"

	"github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{name: "https fleet url", mutate: func(c *Config) { c.Fleet.URL = "https://fleet.example.com" }},
		{
			name:    "future version",
			mutate:  func(c *Config) { c.Version = CurrentConfigVersion + 1 },
			wantErr: "from the future",
		},
		{
			name:    "empty fleet url",
			mutate:  func(c *Config) { c.Fleet.URL = "" },
			wantErr: "fleet.url is empty",
		},
		{
			name:    "non-http fleet url",
			mutate:  func(c *Config) { c.Fleet.URL = "ftp://central:21" },
			wantErr: "scheme must be http or https",
		},
		{
			name:    "fleet url without host",
			mutate:  func(c *Config) { c.Fleet.URL = "http://" },
			wantErr: "missing host",
		},
		{
			name:    "poll interval too short",
			mutate:  func(c *Config) { c.Fleet.PollInterval = 500 * time.Millisecond },
			wantErr: "fleet.poll_interval",
		},
		{
			name:    "shared poll interval too short",
			mutate:  func(c *Config) { c.Files.SharedPollInterval = 0 },
			wantErr: "files.shared_poll_interval",
		},
		{
			name:    "agent port zero",
			mutate:  func(c *Config) { c.Files.AgentPort = 0 },
			wantErr: "outside 1-65535",
		},
		{
			name:    "agent port too large",
			mutate:  func(c *Config) { c.Files.AgentPort = 70000 },
			wantErr: "outside 1-65535",
		},
		{
			name:    "bad scheme",
			mutate:  func(c *Config) { c.Files.Scheme = "ftp" },
			wantErr: "files.scheme",
		},
		{
			name:    "negative max upload",
			mutate:  func(c *Config) { c.Files.MaxUploadBytes = -1 },
			wantErr: "max_upload_bytes",
		},
		{
			name:    "bad mime type",
			mutate:  func(c *Config) { c.Files.AllowedMIMETypes = []string{"pdf"} },
			wantErr: "not a MIME type",
		},
		{
			name:    "negative rate limit",
			mutate:  func(c *Config) { c.HTTP.RateLimit = -1 },
			wantErr: "http.rate_limit",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.HTTP.Timeout = 0 },
			wantErr: "http.timeout",
		},
		{
			name:    "notify url without scheme",
			mutate:  func(c *Config) { c.Notify.URLs = []string{"hooks.example.com"} },
			wantErr: "not a service URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.IsCode(err, errors.ErrConfig))
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	err := Validate(nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}
