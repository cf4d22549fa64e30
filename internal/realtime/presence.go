package realtime

import "sync"

// presenceBus tracks every connection for global broadcasts. A user is
// online while at least one of their connections is registered.
type presenceBus struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	conns   map[string]int
}

func newPresenceBus() *presenceBus {
	return &presenceBus{
		clients: make(map[*Client]struct{}),
		conns:   make(map[string]int),
	}
}

// register reports whether c is the user's first connection.
func (p *presenceBus) register(c *Client) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.clients[c]; ok {
		return false
	}
	p.clients[c] = struct{}{}
	p.conns[c.userID]++
	return p.conns[c.userID] == 1
}

// unregister reports whether c was the user's last connection.
func (p *presenceBus) unregister(c *Client) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.clients[c]; !ok {
		return false
	}
	delete(p.clients, c)
	p.conns[c.userID]--
	if p.conns[c.userID] <= 0 {
		delete(p.conns, c.userID)
		return true
	}
	return false
}

func (p *presenceBus) others(except *Client) []*Client {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Client, 0, len(p.clients))
	for c := range p.clients {
		if c != except {
			out = append(out, c)
		}
	}
	return out
}

func (p *presenceBus) online(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.conns[userID] > 0
}

func (p *presenceBus) counts() (connections, users int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.clients), len(p.conns)
}
