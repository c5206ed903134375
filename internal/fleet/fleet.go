package fleet

import (
	"slices"
	"strings"
	"time"
)

// Fleet is the full agent list from one successful Fleet API fetch.
// A Fleet is never modified; the poller replaces it wholesale.
type Fleet struct {
	Agents    []AgentSnapshot
	FetchedAt time.Time
}

// Len returns the number of agents.
func (f Fleet) Len() int {
	return len(f.Agents)
}

// Find returns the agent with the given ID.
func (f Fleet) Find(id string) (AgentSnapshot, bool) {
	for _, a := range f.Agents {
		if a.AgentID == id {
			return a, true
		}
	}
	return AgentSnapshot{}, false
}

// IndexOf returns the position of id in the fleet, or -1.
func (f Fleet) IndexOf(id string) int {
	return slices.IndexFunc(f.Agents, func(a AgentSnapshot) bool { return a.AgentID == id })
}

// Match resolves a user-supplied reference: exact agent ID first, then
// hostname (case-insensitive), then IP.
func (f Fleet) Match(ref string) (AgentSnapshot, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return AgentSnapshot{}, false
	}
	if a, ok := f.Find(ref); ok {
		return a, true
	}
	for _, a := range f.Agents {
		if strings.EqualFold(a.Hostname, ref) {
			return a, true
		}
	}
	for _, a := range f.Agents {
		if a.IP == ref {
			return a, true
		}
	}
	return AgentSnapshot{}, false
}

// Counts returns how many agents are online and offline.
func (f Fleet) Counts() (online, offline int) {
	for _, a := range f.Agents {
		if a.Online() {
			online++
		} else {
			offline++
		}
	}
	return online, offline
}

func (f Fleet) clone() Fleet {
	return Fleet{Agents: slices.Clone(f.Agents), FetchedAt: f.FetchedAt}
}
