package realtime

import (
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/GoSim-25-26J-441/marketplace-backend/config"
)

// Hub relays room-scoped events between connections and broadcasts presence
// to everyone. Delivery is at-most-once: nothing is persisted or replayed.
type Hub struct {
	rooms    *roomTable
	presence *presenceBus

	cfg     config.HubConfig
	now     func() time.Time
	log     *logrus.Entry
	dropped atomic.Int64
}

type Stats struct {
	Rooms       int   `json:"rooms"`
	Connections int   `json:"connections"`
	Users       int   `json:"users"`
	Dropped     int64 `json:"dropped"`
}

func NewHub(cfg config.HubConfig, log *logrus.Logger) *Hub {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 64
	}
	return &Hub{
		rooms:    newRoomTable(),
		presence: newPresenceBus(),
		cfg:      cfg,
		now:      time.Now,
		log:      log.WithField("component", "realtime"),
	}
}

// NewClient builds a connection handle for userID. It is not visible to
// other connections until Register.
func (h *Hub) NewClient(userID string) *Client {
	var limiter *rate.Limiter
	if h.cfg.RateLimit > 0 {
		burst := h.cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(h.cfg.RateLimit), burst)
	}
	return newClient(userID, h.cfg.SendBuffer, limiter)
}

// Register adds c to the presence bus and announces the user as online on
// their first connection.
func (h *Hub) Register(c *Client) {
	if h.presence.register(c) {
		h.broadcastPresence(c, PresenceOnline)
	}
}

// Join is idempotent.
func (h *Hub) Join(c *Client, roomID string) error {
	if roomID == "" {
		return ErrRoomRequired
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	if _, ok := c.rooms[roomID]; ok {
		return nil
	}
	h.rooms.join(roomID, c)
	c.rooms[roomID] = struct{}{}
	return nil
}

// Leave is idempotent.
func (h *Hub) Leave(c *Client, roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.rooms[roomID]; !ok {
		return
	}
	delete(c.rooms, roomID)
	h.rooms.leave(roomID, c)
}

// RelayMessage sends payload to every other member of roomID and returns how
// many queues accepted it.
func (h *Hub) RelayMessage(c *Client, roomID string, payload json.RawMessage) (int, error) {
	if len(payload) == 0 {
		return 0, ErrMessageRequired
	}
	return h.fanout(c, Envelope{Type: EventReceiveMessage, Room: roomID, UserID: c.userID, Message: payload})
}

func (h *Hub) TypingStart(c *Client, roomID string) (int, error) {
	return h.fanout(c, Envelope{Type: EventTypingStart, Room: roomID, UserID: c.userID})
}

func (h *Hub) TypingStop(c *Client, roomID string) (int, error) {
	return h.fanout(c, Envelope{Type: EventTypingStop, Room: roomID, UserID: c.userID})
}

// MarkRead relays a read receipt stamped with the hub clock.
func (h *Hub) MarkRead(c *Client, roomID string, meta json.RawMessage) (int, error) {
	at := h.now().UTC()
	return h.fanout(c, Envelope{Type: EventMarkRead, Room: roomID, UserID: c.userID, Meta: meta, At: &at})
}

// PresenceChange broadcasts state to every connection except c.
func (h *Hub) PresenceChange(c *Client, state PresenceState) (int, error) {
	if !state.Valid() {
		return 0, ErrInvalidPresence
	}
	return h.broadcastPresence(c, state), nil
}

// Disconnect releases every membership of c. It is safe to call more than
// once and from any goroutine.
func (h *Hub) Disconnect(c *Client) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	rooms := c.rooms
	c.rooms = make(map[string]struct{})
	c.mu.Unlock()

	for id := range rooms {
		h.rooms.leave(id, c)
	}
	c.shutdown()

	if h.presence.unregister(c) {
		h.broadcastPresence(c, PresenceOffline)
	}
}

// Close disconnects every registered connection.
func (h *Hub) Close() {
	for _, c := range h.presence.others(nil) {
		h.Disconnect(c)
	}
}

func (h *Hub) Online(userID string) bool {
	return h.presence.online(userID)
}

// RoomSize returns the member count of roomID, zero when it does not exist.
func (h *Hub) RoomSize(roomID string) int {
	r := h.rooms.get(roomID)
	if r == nil {
		return 0
	}
	return r.size()
}

func (h *Hub) Stats() Stats {
	conns, users := h.presence.counts()
	return Stats{
		Rooms:       h.rooms.len(),
		Connections: conns,
		Users:       users,
		Dropped:     h.dropped.Load(),
	}
}

// HandleFrame decodes one inbound frame from c and applies it. Any failure
// is reported to c alone.
func (h *Hub) HandleFrame(c *Client, raw []byte) {
	if c.limiter != nil && !c.limiter.Allow() {
		h.reject(c, "", errors.New("rate limit exceeded"))
		return
	}
	if h.cfg.MaxMessageBytes > 0 && int64(len(raw)) > h.cfg.MaxMessageBytes {
		h.reject(c, "", errors.New("event too large"))
		return
	}

	ev, err := decodeEnvelope(raw)
	if err != nil {
		h.reject(c, ev.Room, err)
		return
	}

	switch ev.Type {
	case EventJoinRoom:
		err = h.Join(c, ev.Room)
	case EventLeaveRoom:
		h.Leave(c, ev.Room)
	case EventSendMessage:
		_, err = h.RelayMessage(c, ev.Room, ev.Message)
	case EventTypingStart:
		_, err = h.TypingStart(c, ev.Room)
	case EventTypingStop:
		_, err = h.TypingStop(c, ev.Room)
	case EventMarkRead:
		_, err = h.MarkRead(c, ev.Room, ev.Meta)
	case EventPresenceChange:
		_, err = h.PresenceChange(c, ev.State)
	}
	if err != nil {
		h.reject(c, ev.Room, err)
	}
}

func (h *Hub) fanout(c *Client, ev Envelope) (int, error) {
	if ev.Room == "" {
		return 0, ErrRoomRequired
	}
	if !c.inRoom(ev.Room) {
		return 0, ErrNotMember
	}
	r := h.rooms.get(ev.Room)
	if r == nil {
		return 0, nil
	}
	return h.deliverAll(r.others(c), ev), nil
}

func (h *Hub) broadcastPresence(c *Client, state PresenceState) int {
	at := h.now().UTC()
	ev := Envelope{Type: EventPresenceChange, UserID: c.userID, State: state, At: &at}
	return h.deliverAll(h.presence.others(c), ev)
}

func (h *Hub) deliverAll(recipients []*Client, ev Envelope) int {
	if len(recipients) == 0 {
		return 0
	}
	frame, err := json.Marshal(ev)
	if err != nil {
		h.log.WithError(err).WithField("type", ev.Type).Error("encode event")
		return 0
	}
	delivered := 0
	for _, m := range recipients {
		if m.deliver(frame) {
			delivered++
		} else {
			h.dropped.Add(1)
		}
	}
	return delivered
}

func (h *Hub) reject(c *Client, roomID string, cause error) {
	frame, _ := json.Marshal(Envelope{Type: EventError, Room: roomID, Error: cause.Error()})
	if !c.deliver(frame) {
		h.dropped.Add(1)
	}
	h.log.WithFields(logrus.Fields{
		"conn_id": c.id,
		"user_id": c.userID,
		"room":    roomID,
	}).WithError(cause).Debug("rejected inbound event")
}

// readPump owns inbound traffic for c and always ends in Disconnect.
func (h *Hub) readPump(c *Client, conn *websocket.Conn) {
	defer func() {
		h.Disconnect(c)
		conn.Close()
	}()

	limit := h.cfg.MaxMessageBytes
	if limit > 0 {
		// Frames between the soft and hard limits get an error event; beyond
		// the hard limit the connection is dropped.
		conn.SetReadLimit(limit * 4)
	}
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WithError(err).WithField("conn_id", c.id).Warn("websocket closed unexpectedly")
			}
			return
		}
		h.HandleFrame(c, raw)
	}
}

// Serve runs the pumps for an upgraded connection and returns immediately.
func (h *Hub) Serve(c *Client, conn *websocket.Conn) {
	h.Register(c)
	go c.writePump(conn)
	go h.readPump(c, conn)
}
