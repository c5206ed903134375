package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"testing"
	"time"

	fakeapi "github.com/rileyhilliard/fleetdash/internal/agentapi/testing"
	"github.com/rileyhilliard/fleetdash/internal/config"
	"github.com/rileyhilliard/fleetdash/internal/files"
	"github.com/rileyhilliard/fleetdash/internal/fleet"
	"github.com/rileyhilliard/fleetdash/internal/logger"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// testEnv is a Fleet API with one agent whose File API is also faked.
type testEnv struct {
	fleetSrv *fakeapi.FleetServer
	agentSrv *fakeapi.AgentServer
	app      *app
	fs       afero.Fs
}

func pct(v float64) *float64 { return &v }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	agentSrv := fakeapi.NewAgentServer()
	t.Cleanup(agentSrv.Close)
	u, err := url.Parse(agentSrv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	agentSrv.AddDir(`C:\`,
		files.FileEntry{Name: "Users", Path: `C:\Users`, IsDirectory: true, Type: "folder"},
		files.FileEntry{Name: "boot.ini", Path: `C:\boot.ini`, Size: 2048, Modified: 1700000000, Type: ".ini"},
	)
	agentSrv.AddDir(`C:\Users`)

	fleetSrv := fakeapi.NewFleetServer(
		fleet.AgentSnapshot{
			AgentID:  "a1",
			Hostname: "web-1",
			IP:       u.Hostname(),
			Status:   fleet.StatusOnline,
			LastSeen: time.Now().UTC(),
			StatusData: &fleet.StatusData{
				CPUPercent:    pct(42),
				MemoryPercent: pct(71),
				DiskPercent:   pct(93),
			},
		},
		fleet.AgentSnapshot{
			AgentID:  "b2",
			Hostname: "db-1",
			Status:   fleet.StatusOffline,
			LastSeen: time.Now().UTC().Add(-time.Hour),
		},
	)
	t.Cleanup(fleetSrv.Close)

	cfg := config.DefaultConfig()
	cfg.Fleet.URL = fleetSrv.URL
	cfg.Files.AgentPort = port
	cfg.Files.DownloadDir = "/downloads"
	cfg.HTTP.Timeout = 5 * time.Second
	cfg.HTTP.RateLimit = 0

	a := newApp(cfg)
	a.log = logger.NewBufferLogger()
	a.opts.Logger = a.log
	a.fs = afero.NewMemMapFs()

	oldMode, oldInteractive := machineMode, isInteractive
	isInteractive = func() bool { return false }
	t.Cleanup(func() {
		machineMode = oldMode
		isInteractive = oldInteractive
	})

	return &testEnv{fleetSrv: fleetSrv, agentSrv: agentSrv, app: a, fs: a.fs}
}

func decodeEnvelope(t *testing.T, buf *bytes.Buffer, data any) JSONEnvelope {
	t.Helper()
	var raw struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *JSONError      `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return JSONEnvelope{Success: raw.Success, Error: raw.Error}
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}
