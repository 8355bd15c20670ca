package hub

import (
	"sync"

	"github.com/jeff0926/webinsight-sub001/internal/transport"
)

// registry tracks the connected peers: at most one panel, plus agents keyed
// by tab id. Reconnects replace the previous link for the same slot.
type registry struct {
	mu     sync.Mutex
	seq    int64
	agents map[string]agentEntry
	panel  *transport.Peer
}

type agentEntry struct {
	peer *transport.Peer
	seq  int64
}

func newRegistry() *registry {
	return &registry{agents: make(map[string]agentEntry)}
}

// addAgent registers the agent serving tabID. Any previous connection for
// the same tab is returned so the caller can close it.
func (r *registry) addAgent(tabID string, p *transport.Peer) *transport.Peer {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.agents[tabID].peer
	r.seq++
	r.agents[tabID] = agentEntry{peer: p, seq: r.seq}
	return prev
}

// removeAgent drops the registration only while p is still the registered
// connection, so a reconnect is never torn down by its predecessor's
// cleanup.
func (r *registry) removeAgent(tabID string, p *transport.Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.agents[tabID].peer == p {
		delete(r.agents, tabID)
	}
}

// agent resolves the target of an agent-bound frame: the named tab when
// tabID is set, otherwise the most recently registered agent.
func (r *registry) agent(tabID string) (*transport.Peer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tabID != "" {
		e, ok := r.agents[tabID]
		return e.peer, ok
	}
	var best agentEntry
	for _, e := range r.agents {
		if e.seq > best.seq {
			best = e
		}
	}
	return best.peer, best.peer != nil
}

func (r *registry) agentCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.agents)
}

// setPanel installs p as the panel, returning the link it replaced.
func (r *registry) setPanel(p *transport.Peer) *transport.Peer {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.panel
	r.panel = p
	return prev
}

func (r *registry) clearPanel(p *transport.Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.panel == p {
		r.panel = nil
	}
}

func (r *registry) currentPanel() *transport.Peer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.panel
}
