package relay

import (
	"sync"
)

// Registry owns the set of identified agent SIDs and the client-to-agent
// assignment map. All access goes through one RWMutex: handlers run on
// goroutine-per-connection transports, so registry mutation and iteration
// must be serialized to keep fan-out consistent under concurrent disconnect.
type Registry struct {
	mu          sync.RWMutex
	agents      map[string]struct{}
	assignments map[string]string // client SID -> agent SID
}

// UnregisterResult describes the registry state removed for a SID
type UnregisterResult struct {
	// WasAgent is true if the SID was in the agent set
	WasAgent bool
	// AssignedAgent is the agent the SID was assigned to, if it was a client
	// with an assignment
	AssignedAgent string
	// AssignedClients lists the clients that were assigned to the SID, if it
	// was an agent
	AssignedClients []string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		agents:      make(map[string]struct{}),
		assignments: make(map[string]string),
	}
}

// RegisterAgent adds the SID to the agent set. Idempotent.
func (r *Registry) RegisterAgent(sid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[sid] = struct{}{}
}

// Unregister removes all registry state for a disconnecting SID in one
// critical section and reports what was removed.
func (r *Registry) Unregister(sid string) UnregisterResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result UnregisterResult

	if _, ok := r.agents[sid]; ok {
		result.WasAgent = true
		delete(r.agents, sid)

		for clientSID, agentSID := range r.assignments {
			if agentSID == sid {
				result.AssignedClients = append(result.AssignedClients, clientSID)
				delete(r.assignments, clientSID)
			}
		}
		return result
	}

	if agentSID, ok := r.assignments[sid]; ok {
		result.AssignedAgent = agentSID
		delete(r.assignments, sid)
	}
	return result
}

// IsAgent reports whether the SID is in the agent set
func (r *Registry) IsAgent(sid string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.agents[sid]
	return ok
}

// Agents returns a point-in-time snapshot of the agent set. Callers iterate
// the copy: emitting can trigger disconnect handling that mutates the live set.
func (r *Registry) Agents() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agents := make([]string, 0, len(r.agents))
	for sid := range r.agents {
		agents = append(agents, sid)
	}
	return agents
}

// AgentCount returns the number of identified agents
func (r *Registry) AgentCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}

// Assign records that a client is served by an agent. Current routing is
// broadcast-only and never calls this; it exists for the assignment-based
// delivery the disconnect handlers already support.
func (r *Registry) Assign(clientSID, agentSID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assignments[clientSID] = agentSID
}

// AssignedAgent returns the agent a client is assigned to, if any
func (r *Registry) AssignedAgent(clientSID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agentSID, ok := r.assignments[clientSID]
	return agentSID, ok
}

// ClientsAssignedTo returns the clients currently assigned to an agent
func (r *Registry) ClientsAssignedTo(agentSID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var clients []string
	for clientSID, assigned := range r.assignments {
		if assigned == agentSID {
			clients = append(clients, clientSID)
		}
	}
	return clients
}
