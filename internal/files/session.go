package files

// Session bundles the navigator and gateway for one selected agent. It is
// tagged with the selection generation it was created under; when the
// selection changes the owner closes it and opens a new one.
type Session struct {
	AgentID    string
	Generation uint64
	Navigator  *Navigator
	Gateway    *Gateway
}

// NewSession creates a session for agentID. lister and store are usually the
// same File API client.
func NewSession(agentID string, generation uint64, lister Lister, store SharedStore, root string, opts ...Option) *Session {
	return &Session{
		AgentID:    agentID,
		Generation: generation,
		Navigator:  NewNavigator(lister, root, opts...),
		Gateway:    NewGateway(store, opts...),
	}
}

// Current reports whether the session still belongs to the selection at generation.
func (s *Session) Current(generation uint64) bool {
	return s != nil && s.Generation == generation
}

// Close shuts down both halves. Safe to call more than once.
func (s *Session) Close() {
	if s == nil {
		return
	}
	s.Navigator.Close()
	s.Gateway.Close()
}
