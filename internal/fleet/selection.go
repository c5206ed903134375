package fleet

import "sync"

// Selection tracks which agent the user is looking at.
//
// It auto-selects the first agent only when nothing is selected. After that
// the choice is sticky: it survives the agent going offline or disappearing
// from the fleet, and only Select or Clear change it.
type Selection struct {
	mu         sync.RWMutex
	id         string
	selected   bool
	generation uint64
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{}
}

// Observe applies first-selection for a freshly fetched fleet.
// Returns true if the selection changed.
func (s *Selection) Observe(f Fleet) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selected || len(f.Agents) == 0 {
		return false
	}
	s.set(f.Agents[0].AgentID)
	return true
}

// Follow runs Observe after every successful refresh of p.
func (s *Selection) Follow(p *Poller) {
	p.OnRefresh(func(_, next Fleet) {
		s.Observe(next)
	})
}

// Select makes id the selected agent. Any ID is accepted, including one not
// in the current fleet. Returns true if the selection changed.
func (s *Selection) Select(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selected && s.id == id {
		return false
	}
	s.set(id)
	return true
}

// Clear removes the selection. The next Observe selects the first agent again.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.selected {
		return
	}
	s.id = ""
	s.selected = false
	s.generation++
}

func (s *Selection) set(id string) {
	s.id = id
	s.selected = true
	s.generation++
}

// Selected returns the selected ID and whether anything is selected.
func (s *Selection) Selected() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id, s.selected
}

// Resolve looks up the selected agent in f. found is false when nothing is
// selected or the selected ID is not in f.
func (s *Selection) Resolve(f Fleet) (AgentSnapshot, bool) {
	id, ok := s.Selected()
	if !ok {
		return AgentSnapshot{}, false
	}
	return f.Find(id)
}

// Generation increments on every selection change. Per-agent sessions
// record it at creation and drop results once it moves on.
func (s *Selection) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}
