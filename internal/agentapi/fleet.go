package agentapi

import (
	"context"
	"net/http"

	"github.com/rileyhilliard/fleetdash/internal/fleet"
)

// FleetClient reads the agent list from the central Fleet API.
type FleetClient struct {
	c *client
}

// NewFleetClient creates a client for the Fleet API at baseURL.
func NewFleetClient(baseURL string, opts Options) (*FleetClient, error) {
	c, err := newClient(baseURL, opts)
	if err != nil {
		return nil, err
	}
	return &FleetClient{c: c}, nil
}

// BaseURL returns the Fleet API URL.
func (f *FleetClient) BaseURL() string {
	return f.c.BaseURL()
}

// FetchAgents returns every agent the Fleet API knows about, in server order.
func (f *FleetClient) FetchAgents(ctx context.Context) ([]fleet.AgentSnapshot, error) {
	var agents []fleet.AgentSnapshot
	err := f.c.doJSON(ctx, request{
		op:       "fetch agents",
		endpoint: "agents",
		method:   http.MethodGet,
		path:     "/api/agents",
	}, &agents)
	if err != nil {
		return nil, err
	}
	if agents == nil {
		agents = []fleet.AgentSnapshot{}
	}
	return agents, nil
}

var _ fleet.Source = (*FleetClient)(nil)
