package ws

import (
	"encoding/json"
	"sync"

	"survai/internal/logger"
)

// MessageType defines the type of WebSocket message. Progress messages use
// the event status (queued, progress, item, completed, error, refresh).
type MessageType string

const (
	MsgSubscribed MessageType = "subscribed"
	MsgError      MessageType = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans messages out to the connections subscribed to a channel
type Hub struct {
	// channel -> connections
	subs map[string]map[*Connection]struct{}

	mu  sync.RWMutex
	log *logger.Logger

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
}

// Connection represents a WebSocket connection subscribed to one channel
type Connection struct {
	Channel string
	HostID  string
	Send    chan []byte
	Hub     *Hub
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	Channel string
	Message *Message
}

// NewHub creates a new WebSocket hub
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	h := &Hub{
		subs:       make(map[string]map[*Connection]struct{}),
		log:        log.With("service", "WSHub"),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.subs[conn.Channel] == nil {
				h.subs[conn.Channel] = make(map[*Connection]struct{})
			}
			h.subs[conn.Channel][conn] = struct{}{}
			h.mu.Unlock()
			h.log.Debug("subscriber added", "channel", conn.Channel, "hostId", conn.HostID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.subs[conn.Channel]; ok {
				if _, ok := conns[conn]; ok {
					delete(conns, conn)
					close(conn.Send)
					if len(conns) == 0 {
						delete(h.subs, conn.Channel)
					}
				}
			}
			h.mu.Unlock()
			h.log.Debug("subscriber removed", "channel", conn.Channel)

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Message)
			if err != nil {
				h.log.Warn("encode message failed", "channel", msg.Channel, "error", err)
				continue
			}
			h.mu.RLock()
			for conn := range h.subs[msg.Channel] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// Subscribers returns how many connections listen on channel
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[channel])
}

// Broadcast sends payload to every subscriber of channel (implements service.Broadcaster)
func (h *Hub) Broadcast(channel string, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Warn("encode payload failed", "channel", channel, "type", msgType, "error", err)
		return
	}
	h.BroadcastRaw(channel, msgType, data)
}

// BroadcastRaw sends an already encoded payload, as relayed from other instances.
// It never blocks; when the hub is backed up the message is dropped.
func (h *Hub) BroadcastRaw(channel string, msgType string, payload json.RawMessage) {
	select {
	case h.broadcast <- &BroadcastMessage{
		Channel: channel,
		Message: &Message{Type: MessageType(msgType), Payload: payload},
	}:
	default:
		h.log.Warn("hub backlog full, dropping message", "channel", channel, "type", msgType)
	}
}
