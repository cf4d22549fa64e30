package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

type EventType string

const (
	EventJoinRoom       EventType = "join_room"
	EventLeaveRoom      EventType = "leave_room"
	EventSendMessage    EventType = "send_message"
	EventReceiveMessage EventType = "receive_message"
	EventTypingStart    EventType = "typing_start"
	EventTypingStop     EventType = "typing_stop"
	EventMarkRead       EventType = "mark_read"
	EventPresenceChange EventType = "presence_change"
	EventError          EventType = "error"
)

type PresenceState string

const (
	PresenceOnline  PresenceState = "online"
	PresenceAway    PresenceState = "away"
	PresenceOffline PresenceState = "offline"
)

func (s PresenceState) Valid() bool {
	switch s {
	case PresenceOnline, PresenceAway, PresenceOffline:
		return true
	}
	return false
}

// Envelope is the single wire frame for both directions. Message and Meta
// are opaque to the hub and relayed as-is.
type Envelope struct {
	Type    EventType       `json:"type"`
	Room    string          `json:"room,omitempty"`
	UserID  string          `json:"user_id,omitempty"`
	Message json.RawMessage `json:"message,omitempty"`
	Meta    json.RawMessage `json:"meta,omitempty"`
	State   PresenceState   `json:"state,omitempty"`
	At      *time.Time      `json:"at,omitempty"`
	Error   string          `json:"error,omitempty"`
}

var (
	ErrRoomRequired    = errors.New("room is required")
	ErrNotMember       = errors.New("not a member of this room")
	ErrClientClosed    = errors.New("connection closed")
	ErrInvalidPresence = errors.New("invalid presence state")
	ErrMessageRequired = errors.New("message is required")
)

// decodeEnvelope parses an inbound frame. Only client-originated types are
// accepted.
func decodeEnvelope(raw []byte) (Envelope, error) {
	var ev Envelope
	if err := json.Unmarshal(raw, &ev); err != nil {
		return ev, fmt.Errorf("malformed event: %w", err)
	}
	ev.Room = strings.TrimSpace(ev.Room)

	switch ev.Type {
	case EventJoinRoom, EventLeaveRoom, EventTypingStart, EventTypingStop, EventMarkRead:
		if ev.Room == "" {
			return ev, ErrRoomRequired
		}
	case EventSendMessage:
		if ev.Room == "" {
			return ev, ErrRoomRequired
		}
		if len(ev.Message) == 0 || string(ev.Message) == "null" {
			return ev, ErrMessageRequired
		}
	case EventPresenceChange:
		if !ev.State.Valid() {
			return ev, ErrInvalidPresence
		}
	case "":
		return ev, errors.New("event type is required")
	default:
		return ev, fmt.Errorf("unknown event type %q", ev.Type)
	}
	return ev, nil
}

// ConversationRoom names the room shared by two participants of a project.
// Participant order does not matter.
func ConversationRoom(projectID, a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return fmt.Sprintf("project:%s:%s:%s", projectID, ids[0], ids[1])
}
