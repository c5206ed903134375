// Package testing provides in-process fakes of the Fleet API and the agent
// File API for tests. Both are plain httptest servers backed by memory.
package testing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"

	"github.com/rileyhilliard/fleetdash/internal/fleet"
)

// Failure makes an endpoint answer with a fixed status and detail.
type Failure struct {
	Status int
	Detail string
}

// hooks holds per-endpoint failures and gates shared by both fakes.
type hooks struct {
	mu       sync.Mutex
	failures map[string]Failure
	gates    map[string]chan struct{}
	calls    map[string]int
}

func newHooks() hooks {
	return hooks{
		failures: make(map[string]Failure),
		gates:    make(map[string]chan struct{}),
		calls:    make(map[string]int),
	}
}

// enter records a call and applies any hook. It returns false when the
// request was already answered with a failure.
func (h *hooks) enter(w http.ResponseWriter, r *http.Request, endpoint string) bool {
	h.mu.Lock()
	h.calls[endpoint]++
	gate := h.gates[endpoint]
	failure, failing := h.failures[endpoint]
	h.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return false
		}
	}
	if failing {
		writeJSON(w, failure.Status, map[string]string{"detail": failure.Detail})
		return false
	}
	return true
}

func (h *hooks) fail(endpoint string, f Failure) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures[endpoint] = f
}

func (h *hooks) clearFailure(endpoint string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.failures, endpoint)
}

// block holds requests to endpoint until the returned release is called.
func (h *hooks) block(endpoint string) (release func()) {
	gate := make(chan struct{})
	h.mu.Lock()
	h.gates[endpoint] = gate
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			if h.gates[endpoint] == gate {
				delete(h.gates, endpoint)
			}
			h.mu.Unlock()
			close(gate)
		})
	}
}

func (h *hooks) count(endpoint string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls[endpoint]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// FleetServer is a fake Fleet API serving GET /api/agents.
type FleetServer struct {
	*httptest.Server

	hooks
	mu     sync.Mutex
	agents []fleet.AgentSnapshot
}

// EndpointAgents names the agent list endpoint for Fail, Block, and Calls.
const EndpointAgents = "agents"

// NewFleetServer starts a fake Fleet API that lists agents. Close it when done.
func NewFleetServer(agents ...fleet.AgentSnapshot) *FleetServer {
	s := &FleetServer{hooks: newHooks(), agents: agents}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/agents", s.handleAgents)
	s.Server = httptest.NewServer(mux)
	return s
}

func (s *FleetServer) handleAgents(w http.ResponseWriter, r *http.Request) {
	if !s.enter(w, r, EndpointAgents) {
		return
	}
	s.mu.Lock()
	agents := slices.Clone(s.agents)
	s.mu.Unlock()
	if agents == nil {
		agents = []fleet.AgentSnapshot{}
	}
	writeJSON(w, http.StatusOK, agents)
}

// SetAgents replaces the agent list served from now on.
func (s *FleetServer) SetAgents(agents ...fleet.AgentSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents = agents
}

// Fail makes the agent list answer with f until Recover is called.
func (s *FleetServer) Fail(f Failure) { s.fail(EndpointAgents, f) }

// Recover undoes Fail.
func (s *FleetServer) Recover() { s.clearFailure(EndpointAgents) }

// Block holds agent list requests until release is called.
func (s *FleetServer) Block() (release func()) { return s.block(EndpointAgents) }

// Calls returns how many agent list requests were received.
func (s *FleetServer) Calls() int { return s.count(EndpointAgents) }
