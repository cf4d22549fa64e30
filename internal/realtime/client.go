package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client is one connection. The send queue is never closed; done signals
// that the connection is gone and further deliveries are dropped.
type Client struct {
	id     string
	userID string

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	limiter *rate.Limiter

	mu     sync.Mutex
	rooms  map[string]struct{}
	closed bool
}

func newClient(userID string, buffer int, limiter *rate.Limiter) *Client {
	return &Client{
		id:      uuid.New().String(),
		userID:  userID,
		send:    make(chan []byte, buffer),
		done:    make(chan struct{}),
		limiter: limiter,
		rooms:   make(map[string]struct{}),
	}
}

func (c *Client) ID() string     { return c.id }
func (c *Client) UserID() string { return c.userID }

// Done is closed once the hub has released the connection.
func (c *Client) Done() <-chan struct{} { return c.done }

// deliver queues frame without blocking. It reports false when the queue is
// full or the client is gone.
func (c *Client) deliver(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) inRoom(room string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.rooms[room]
	return ok
}

func (c *Client) shutdown() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) writePump(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
