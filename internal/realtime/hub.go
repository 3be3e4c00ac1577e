package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Hub is the in-process registry of websocket clients and the rooms they
// joined. It implements Notifier.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	clients map[*Client]struct{}
	log     zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		rooms:   make(map[string]map[*Client]struct{}),
		clients: make(map[*Client]struct{}),
		log:     log,
	}
}

type outboundFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

func encodeFrame(event string, payload any) ([]byte, error) {
	frame, err := json.Marshal(outboundFrame{Event: event, Data: payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return frame, nil
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

// Unregister drops c from every room and closes its send queue.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unregisterLocked(c)
}

func (h *Hub) unregisterLocked(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	for room := range c.rooms {
		members := h.rooms[room]
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	c.rooms = nil
	c.closeSend()
}

func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(c.rooms, room)
}

// Publish queues the event for every client in room.
func (h *Hub) Publish(_ context.Context, room, event string, payload any) error {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		return err
	}

	h.mu.RLock()
	slow := deliver(h.rooms[room], nil, frame)
	h.mu.RUnlock()

	h.drop(slow)
	return nil
}

// BroadcastExcept queues the event for every connected client but except.
func (h *Hub) BroadcastExcept(_ context.Context, except *Client, event string, payload any) error {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		return err
	}

	h.mu.RLock()
	slow := deliver(h.clients, except, frame)
	h.mu.RUnlock()

	h.drop(slow)
	return nil
}

// RoomSize reports how many clients are in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// UserConnections counts the live clients that belong to userID.
func (h *Hub) UserConnections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.clients {
		if c.UserID == userID {
			n++
		}
	}
	return n
}

func deliver(targets map[*Client]struct{}, except *Client, frame []byte) []*Client {
	var slow []*Client
	for c := range targets {
		if c == except {
			continue
		}
		select {
		case c.send <- frame:
		default:
			slow = append(slow, c)
		}
	}
	return slow
}

// drop disconnects clients whose queue is full. Realtime delivery has no
// replay, so they simply miss the event.
func (h *Hub) drop(slow []*Client) {
	if len(slow) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range slow {
		h.log.Warn().Str("user_id", c.UserID).Msg("dropping slow realtime client")
		h.unregisterLocked(c)
	}
}
