package cli

import (
	"bytes"
	"net/http"
	"testing"
	"time"

	fakeapi "github.com/rileyhilliard/fleetdash/internal/agentapi/testing"
	"github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/rileyhilliard/fleetdash/internal/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentsCommand_Table(t *testing.T) {
	ui.DisableColors()
	env := newTestEnv(t)

	var out bytes.Buffer
	require.NoError(t, agentsCommand(testContext(t), env.app, &out, agentsOptions{}))

	s := out.String()
	assert.Contains(t, s, "HOSTNAME")
	assert.Contains(t, s, "web-1")
	assert.Contains(t, s, "db-1")
	assert.Contains(t, s, "42%")
	assert.Contains(t, s, "1 hour ago")
	assert.Contains(t, s, "2 agents, 1 online, 1 offline")
	assert.NotContains(t, s, "FILE API")
}

func TestAgentsCommand_Empty(t *testing.T) {
	env := newTestEnv(t)
	env.fleetSrv.SetAgents()

	var out bytes.Buffer
	require.NoError(t, agentsCommand(testContext(t), env.app, &out, agentsOptions{}))
	assert.Equal(t, "No agents registered\n", out.String())
}

func TestAgentsCommand_JSON(t *testing.T) {
	env := newTestEnv(t)

	var out bytes.Buffer
	require.NoError(t, agentsCommand(testContext(t), env.app, &out, agentsOptions{JSON: true}))

	var data agentsJSON
	envl := decodeEnvelope(t, &out, &data)
	assert.True(t, envl.Success)
	assert.Equal(t, 1, data.Online)
	assert.Equal(t, 1, data.Offline)
	require.Len(t, data.Agents, 2)
	assert.Equal(t, "a1", data.Agents[0].AgentID)
	assert.False(t, data.Agents[0].Stale)
	require.NotNil(t, data.Agents[0].StatusData)
	assert.InDelta(t, 42.0, data.Agents[0].StatusData.CPU(), 0.001)
	assert.Nil(t, data.Agents[1].StatusData)
	assert.Nil(t, data.Agents[0].Probe)
}

func TestAgentsCommand_Probe(t *testing.T) {
	env := newTestEnv(t)

	var out bytes.Buffer
	require.NoError(t, agentsCommand(testContext(t), env.app, &out, agentsOptions{
		JSON:         true,
		Probe:        true,
		ProbeTimeout: 2 * time.Second,
	}))

	var data agentsJSON
	decodeEnvelope(t, &out, &data)
	require.Len(t, data.Agents, 2)

	require.NotNil(t, data.Agents[0].Probe)
	assert.True(t, data.Agents[0].Probe.Reachable)
	require.NotNil(t, data.Agents[1].Probe)
	assert.False(t, data.Agents[1].Probe.Reachable)
	assert.Equal(t, "no IP address", data.Agents[1].Probe.Error)
	assert.Equal(t, 1, env.agentSrv.Calls(fakeapi.EndpointHealth))
}

func TestAgentsCommand_ProbeFailure(t *testing.T) {
	ui.DisableColors()
	env := newTestEnv(t)
	env.agentSrv.Fail(fakeapi.EndpointHealth, fakeapi.Failure{Status: http.StatusServiceUnavailable, Detail: "draining"})

	var out bytes.Buffer
	require.NoError(t, agentsCommand(testContext(t), env.app, &out, agentsOptions{Probe: true, ProbeTimeout: time.Second}))
	assert.Contains(t, out.String(), "FILE API")
	assert.Contains(t, out.String(), "draining")
}

func TestAgentsCommand_FleetDown(t *testing.T) {
	env := newTestEnv(t)
	env.fleetSrv.Fail(fakeapi.Failure{Status: http.StatusBadGateway, Detail: "upstream"})

	var out bytes.Buffer
	err := agentsCommand(testContext(t), env.app, &out, agentsOptions{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrFetch))
	assert.Empty(t, out.String())

	j := ErrorToJSON(err)
	assert.Equal(t, ErrCodeHTTPStatus, j.Code)
	assert.Contains(t, j.Message, "Couldn't fetch agents")
}
