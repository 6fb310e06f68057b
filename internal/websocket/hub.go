// Package websocket pushes live event notifications to connected frontend
// clients, keyed by user.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// MessageType discriminates frames on the wire.
type MessageType string

const (
	MessageTypeSubscribe   MessageType = "subscribe"
	MessageTypeUnsubscribe MessageType = "unsubscribe"
	MessageTypeNewEvent    MessageType = "new_event"
	MessageTypeError       MessageType = "error"
)

// WSMessage is the frame exchanged with frontend clients.
type WSMessage struct {
	Type   MessageType `json:"type"`
	UserID string      `json:"user_id,omitempty"`
	Event  interface{} `json:"event,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// NewEventPayload is pushed to a user's subscribers whenever an extracted
// event is persisted for them.
type NewEventPayload struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Location        string     `json:"location,omitempty"`
	Category        string     `json:"category"`
	StartAt         *time.Time `json:"start_at,omitempty"`
	EndAt           *time.Time `json:"end_at,omitempty"`
	IsTimeSpecified bool       `json:"is_time_specified"`
	Source          string     `json:"source"`
}

// Hub tracks connected clients and which user stream each one follows.
// All state lives behind one mutex; broadcasts never block on a slow
// client because each client has a buffered outbox.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]string // client -> subscribed userID ("" = none)
	byUser  map[string]map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]string),
		byUser:  make(map[string]map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a freshly upgraded connection with no subscription yet.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = ""
	h.mu.Unlock()
}

// Unregister drops the client and its subscription, and closes its outbox
// so the write pump terminates.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	userID, known := h.clients[c]
	if known {
		delete(h.clients, c)
		h.detach(c, userID)
		close(c.outbox)
	}
	h.mu.Unlock()
}

// Subscribe points the client at userID's event stream, replacing any
// previous subscription.
func (h *Hub) Subscribe(c *Client, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	prev, known := h.clients[c]
	if !known {
		return
	}
	h.detach(c, prev)

	h.clients[c] = userID
	if h.byUser[userID] == nil {
		h.byUser[userID] = make(map[*Client]struct{})
	}
	h.byUser[userID][c] = struct{}{}

	if h.logger != nil {
		h.logger.Debug("client subscribed", slog.String("user_id", userID))
	}
}

// Unsubscribe detaches the client from userID's stream if it follows it.
func (h *Hub) Unsubscribe(c *Client, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c] != userID {
		return
	}
	h.detach(c, userID)
	h.clients[c] = ""
}

// detach removes c from userID's subscriber set. Caller holds the lock.
func (h *Hub) detach(c *Client, userID string) {
	if userID == "" {
		return
	}
	if set, ok := h.byUser[userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.byUser, userID)
		}
	}
}

// BroadcastNewEvent delivers the payload to every client subscribed to
// userID. Clients with a full outbox are skipped rather than blocked on.
func (h *Hub) BroadcastNewEvent(userID string, payload *NewEventPayload) {
	frame, err := json.Marshal(WSMessage{
		Type:   MessageTypeNewEvent,
		UserID: userID,
		Event:  payload,
	})
	if err != nil {
		if h.logger != nil {
			h.logger.Error("marshal broadcast frame", slog.Any("error", err))
		}
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.byUser[userID] {
		select {
		case c.outbox <- frame:
		default:
			if h.logger != nil {
				h.logger.Warn("dropping frame for slow client", slog.String("user_id", userID))
			}
		}
	}
}

// SubscriberCount reports how many clients follow userID's stream.
func (h *Hub) SubscriberCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID])
}
