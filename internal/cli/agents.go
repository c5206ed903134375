package cli

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/rileyhilliard/fleetdash/internal/fleet"
	"github.com/rileyhilliard/fleetdash/internal/ui"
	"github.com/spf13/cobra"
)

var (
	agentsFlags        OutputFlags
	agentsProbe        bool
	agentsProbeTimeout string
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the agents the Fleet API knows about",
	Long: `Fetch the agent list once and print it as a table.

With --probe, every agent's File API is also checked, so you can tell an
agent that reports in but cannot serve files.

Examples:
  fleetdash agents
  fleetdash agents --probe --probe-timeout 2s
  fleetdash agents --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		agentsFlags.apply()
		timeout, err := ParseProbeTimeout(agentsProbeTimeout)
		if err != nil {
			return err
		}
		a, err := loadApp()
		if err != nil {
			return err
		}
		return agentsCommand(cmd.Context(), a, cmd.OutOrStdout(), agentsOptions{
			JSON:         agentsFlags.JSON,
			Probe:        agentsProbe,
			ProbeTimeout: timeout,
		})
	},
}

func init() {
	rootCmd.AddCommand(agentsCmd)
	AddOutputFlags(agentsCmd, &agentsFlags)
	agentsCmd.Flags().BoolVar(&agentsProbe, "probe", false, "check each agent's File API")
	agentsCmd.Flags().StringVar(&agentsProbeTimeout, "probe-timeout", "", "per-agent probe timeout (default http.timeout)")
}

type agentsOptions struct {
	JSON         bool
	Probe        bool
	ProbeTimeout time.Duration
}

// agentJSON is one agent in --json output.
type agentJSON struct {
	AgentID    string            `json:"agent_id"`
	Hostname   string            `json:"hostname"`
	IP         string            `json:"ip"`
	Status     fleet.Status      `json:"status"`
	Stale      bool              `json:"stale"`
	LastSeen   *time.Time        `json:"last_seen,omitempty"`
	StatusData *fleet.StatusData `json:"status_data,omitempty"`
	Probe      *probeResult      `json:"probe,omitempty"`
}

type probeResult struct {
	Reachable bool   `json:"reachable"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type agentsJSON struct {
	FleetURL string      `json:"fleet_url"`
	Online   int         `json:"online"`
	Offline  int         `json:"offline"`
	Agents   []agentJSON `json:"agents"`
}

func agentsCommand(ctx context.Context, a *app, out io.Writer, opts agentsOptions) error {
	var spin *ui.Spinner
	if !opts.JSON && isInteractive() {
		spin = ui.NewSpinner("Fetching agents", out)
		spin.Start()
	}

	f, err := a.fetchFleet(ctx)
	if err != nil {
		if spin != nil {
			spin.Fail("")
		}
		return err
	}

	var probes map[string]probeResult
	if opts.Probe {
		if spin != nil {
			spin.SetLabel(fmt.Sprintf("Probing %d agents", f.Len()))
		}
		timeout := opts.ProbeTimeout
		if timeout <= 0 {
			timeout = a.cfg.HTTP.Timeout
		}
		probes = a.probeAgents(ctx, f, timeout)
	}

	online, offline := f.Counts()
	if spin != nil {
		spin.Success(fmt.Sprintf("%d agents", f.Len()))
	}

	if opts.JSON {
		return WriteJSONSuccess(out, buildAgentsJSON(a, f, probes, online, offline))
	}

	fmt.Fprint(out, renderAgentsTable(f, probes, a.cfg.Fleet.StaleAfter, time.Now(), opts.Probe))
	if f.Len() > 0 {
		fmt.Fprintf(out, "\n%d agents, %d online, %d offline\n", f.Len(), online, offline)
	}
	return nil
}

func buildAgentsJSON(a *app, f fleet.Fleet, probes map[string]probeResult, online, offline int) agentsJSON {
	out := agentsJSON{
		FleetURL: a.cfg.Fleet.URL,
		Online:   online,
		Offline:  offline,
		Agents:   make([]agentJSON, 0, f.Len()),
	}
	for _, agent := range f.Agents {
		row := agentJSON{
			AgentID:    agent.AgentID,
			Hostname:   agent.Hostname,
			IP:         agent.IP,
			Status:     agent.Status,
			Stale:      agent.Online() && agent.Stale(f.FetchedAt, a.cfg.Fleet.StaleAfter),
			StatusData: agent.StatusData,
		}
		if !agent.LastSeen.IsZero() {
			seen := agent.LastSeen
			row.LastSeen = &seen
		}
		if p, ok := probes[agent.AgentID]; ok {
			row.Probe = &p
		}
		out.Agents = append(out.Agents, row)
	}
	return out
}

// probeAgents checks every agent's File API in parallel. Agents without an
// IP are reported unreachable without a request.
func (a *app) probeAgents(ctx context.Context, f fleet.Fleet, timeout time.Duration) map[string]probeResult {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]probeResult, f.Len())
	)
	record := func(id string, r probeResult) {
		mu.Lock()
		results[id] = r
		mu.Unlock()
	}

	for _, agent := range f.Agents {
		if agent.IP == "" {
			record(agent.AgentID, probeResult{Error: "no IP address"})
			continue
		}
		wg.Add(1)
		go func(agent fleet.AgentSnapshot) {
			defer wg.Done()
			record(agent.AgentID, a.probeAgent(ctx, agent, timeout))
		}(agent)
	}
	wg.Wait()
	return results
}

func (a *app) probeAgent(ctx context.Context, agent fleet.AgentSnapshot, timeout time.Duration) probeResult {
	client, err := a.fileClient(agent)
	if err != nil {
		return probeResult{Error: errors.UserMessage(err)}
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err = client.Health(ctx)
	latency := time.Since(start)
	if err != nil {
		a.log.Debug("probe %s: %v", agent.AgentID, err)
		return probeResult{LatencyMS: latency.Milliseconds(), Error: errors.UserMessage(err)}
	}
	return probeResult{Reachable: true, LatencyMS: latency.Milliseconds()}
}

func renderAgentsTable(f fleet.Fleet, probes map[string]probeResult, staleAfter time.Duration, now time.Time, probed bool) string {
	tbl := ui.Table{
		Headers: []string{"ID", "HOSTNAME", "IP", "STATUS", "CPU", "RAM", "DISK", "LAST SEEN"},
		Empty:   "No agents registered\n",
	}
	if probed {
		tbl.Headers = append(tbl.Headers, "FILE API")
	}

	for _, agent := range f.Agents {
		status := string(agent.Status)
		if agent.Online() && agent.Stale(now, staleAfter) {
			status = "stale"
		}

		cpu, ram, disk := "-", "-", "-"
		if agent.Online() {
			m := agent.Metrics()
			cpu, ram, disk = percentCell(m.CPUPercent), percentCell(m.MemoryPercent), percentCell(m.DiskPercent)
		}

		seen := "never"
		if !agent.LastSeen.IsZero() {
			seen = humanize.RelTime(agent.LastSeen, now, "ago", "from now")
		}

		cells := []string{agent.AgentID, orDash(agent.Hostname), orDash(agent.IP), ui.StatusCell(status), cpu, ram, disk, seen}
		if probed {
			cells = append(cells, probeCell(probes[agent.AgentID]))
		}
		tbl.AddRow(cells...)
	}
	return tbl.Render()
}

func percentCell(p *float64) string {
	if p == nil {
		return "-"
	}
	return ui.RenderPercent(*p)
}

func probeCell(p probeResult) string {
	if p.Reachable {
		return ui.SuccessStyle().Render(fmt.Sprintf("%s %dms", ui.SymbolSuccess, p.LatencyMS))
	}
	return ui.ErrorStyle().Render(ui.SymbolFail + " " + p.Error)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
