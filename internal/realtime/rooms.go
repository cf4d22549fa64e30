package realtime

import "sync"

// room guards its own membership. Once the last member leaves it is marked
// closed and never reused; a later join gets a fresh room.
type room struct {
	id      string
	mu      sync.RWMutex
	members map[*Client]struct{}
	closed  bool
}

func (r *room) add(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.members[c] = struct{}{}
	return true
}

// remove reports whether the room became empty.
func (r *room) remove(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, c)
	if len(r.members) == 0 {
		r.closed = true
		return true
	}
	return false
}

func (r *room) isClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

func (r *room) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

func (r *room) others(except *Client) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.members))
	for m := range r.members {
		if m != except {
			out = append(out, m)
		}
	}
	return out
}

// roomTable maps room ids to live rooms. Lock order is table then room.
type roomTable struct {
	mu    sync.Mutex
	rooms map[string]*room
}

func newRoomTable() *roomTable {
	return &roomTable{rooms: make(map[string]*room)}
}

func (t *roomTable) acquire(id string) *room {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.rooms[id]
	if !ok || r.isClosed() {
		r = &room{id: id, members: make(map[*Client]struct{})}
		t.rooms[id] = r
	}
	return r
}

func (t *roomTable) get(id string) *room {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rooms[id]
}

func (t *roomTable) join(id string, c *Client) {
	for {
		if t.acquire(id).add(c) {
			return
		}
	}
}

func (t *roomTable) leave(id string, c *Client) {
	r := t.get(id)
	if r == nil {
		return
	}
	if r.remove(c) {
		t.mu.Lock()
		if t.rooms[id] == r {
			delete(t.rooms, id)
		}
		t.mu.Unlock()
	}
}

func (t *roomTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rooms)
}
