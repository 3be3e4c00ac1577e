package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Zorochan404/inf-chat/internal/config"
	"github.com/Zorochan404/inf-chat/internal/security"
)

var ErrUnknownEvent = errors.New("unknown realtime event")

// StatusStore mirrors presence onto the user record.
type StatusStore interface {
	SetOnline(ctx context.Context, id string, online bool) error
}

type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type typingRequest struct {
	ReceiverID string `json:"receiverId"`
}

type StatusChange struct {
	UserID   string `json:"userId"`
	IsOnline bool   `json:"isOnline"`
}

type TypingNotice struct {
	SenderID string `json:"senderId"`
	IsTyping bool   `json:"isTyping"`
}

// Gateway runs the websocket protocol for authenticated connections.
type Gateway struct {
	hub      *Hub
	presence Presence
	users    StatusStore
	cfg      config.RealtimeConfig
	log      zerolog.Logger

	mu sync.Mutex
	// announced holds users whose user_online was broadcast and who have
	// not yet been announced offline.
	announced map[string]struct{}
}

func NewGateway(hub *Hub, presence Presence, users StatusStore, cfg config.RealtimeConfig, log zerolog.Logger) *Gateway {
	return &Gateway{
		hub:      hub,
		presence: presence,
		users:    users,
		cfg:      cfg,
		log:      log,

		announced: make(map[string]struct{}),
	}
}

func (g *Gateway) room(userID string) string {
	return UserRoom(g.cfg.RoomPrefix, userID)
}

// Serve drives conn until it closes. It blocks for the connection lifetime.
func (g *Gateway) Serve(ctx context.Context, conn *websocket.Conn, id security.Identity) {
	ctx = context.WithoutCancel(ctx)
	client := g.Connect(ctx, id.UserID, conn)

	pumps := pumpConfig{
		writeTimeout: g.cfg.WriteTimeout,
		pongWait:     g.cfg.PongWait,
		maxMessage:   g.cfg.MaxMessageBytes,
	}
	go client.writePump(pumps)

	err := client.readPump(pumps,
		func(raw []byte) {
			if err := g.HandleFrame(ctx, client, raw); err != nil {
				g.log.Debug().Err(err).Str("user_id", client.UserID).Msg("realtime frame rejected")
			}
		},
		func() {
			if err := g.presence.Refresh(ctx, client.UserID); err != nil {
				g.log.Warn().Err(err).Str("user_id", client.UserID).Msg("presence refresh failed")
			}
		},
	)
	if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
		g.log.Debug().Err(err).Str("user_id", client.UserID).Msg("realtime connection closed")
	}

	disconnectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	g.Disconnect(disconnectCtx, client)
}

// Connect registers a client for userID and records the connection.
func (g *Gateway) Connect(ctx context.Context, userID string, conn *websocket.Conn) *Client {
	client := NewClient(userID, conn, g.cfg.SendBuffer)
	g.hub.Register(client)
	if err := g.presence.Connect(ctx, userID); err != nil {
		g.log.Warn().Err(err).Str("user_id", userID).Msg("presence connect failed")
	}
	return client
}

// HandleFrame dispatches one inbound frame from c.
func (g *Gateway) HandleFrame(ctx context.Context, c *Client, raw []byte) error {
	var frame inboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}

	switch frame.Event {
	case EventJoinUserRoom:
		return g.joinUserRoom(c, frame.Data)
	case EventUserOnline:
		return g.userOnline(ctx, c)
	case EventTypingStart:
		return g.typing(ctx, c, frame.Data, true)
	case EventTypingStop:
		return g.typing(ctx, c, frame.Data, false)
	}
	return fmt.Errorf("%w: %q", ErrUnknownEvent, frame.Event)
}

// joinUserRoom only ever joins the caller's own room; a foreign id is refused.
func (g *Gateway) joinUserRoom(c *Client, data json.RawMessage) error {
	if requested := userIDFromData(data); requested != "" && requested != c.UserID {
		return fmt.Errorf("join_user_room: cannot join room of %s", requested)
	}
	g.hub.Join(c, g.room(c.UserID))
	return nil
}

func (g *Gateway) userOnline(ctx context.Context, c *Client) error {
	g.hub.Join(c, g.room(c.UserID))
	if err := g.presence.Refresh(ctx, c.UserID); err != nil {
		g.log.Warn().Err(err).Str("user_id", c.UserID).Msg("presence refresh failed")
	}
	if err := g.users.SetOnline(ctx, c.UserID, true); err != nil {
		g.log.Warn().Err(err).Str("user_id", c.UserID).Msg("mark online failed")
	}
	g.mu.Lock()
	g.announced[c.UserID] = struct{}{}
	g.mu.Unlock()
	return g.hub.BroadcastExcept(ctx, c, EventUserStatusChange, StatusChange{UserID: c.UserID, IsOnline: true})
}

func (g *Gateway) typing(ctx context.Context, c *Client, data json.RawMessage, isTyping bool) error {
	var req typingRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("decode typing: %w", err)
	}
	if strings.TrimSpace(req.ReceiverID) == "" {
		return errors.New("typing: receiverId required")
	}
	return g.hub.Publish(ctx, g.room(req.ReceiverID), EventUserTyping, TypingNotice{SenderID: c.UserID, IsTyping: isTyping})
}

// Disconnect removes c and, when it was the user's last connection and the
// user had announced itself online, marks the user offline for everyone else.
func (g *Gateway) Disconnect(ctx context.Context, c *Client) {
	g.hub.Unregister(c)

	offline, err := g.presence.Disconnect(ctx, c.UserID)
	if err != nil {
		g.log.Warn().Err(err).Str("user_id", c.UserID).Msg("presence disconnect failed")
	}
	if !offline {
		return
	}

	g.mu.Lock()
	_, wasAnnounced := g.announced[c.UserID]
	delete(g.announced, c.UserID)
	g.mu.Unlock()
	if !wasAnnounced {
		return
	}

	if err := g.users.SetOnline(ctx, c.UserID, false); err != nil {
		g.log.Warn().Err(err).Str("user_id", c.UserID).Msg("mark offline failed")
	}
	if err := g.hub.BroadcastExcept(ctx, nil, EventUserStatusChange, StatusChange{UserID: c.UserID, IsOnline: false}); err != nil {
		g.log.Warn().Err(err).Msg("offline broadcast failed")
	}
}

// userIDFromData accepts either a bare JSON string or {"userId": "..."}.
func userIDFromData(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		return id
	}
	var obj struct {
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		return obj.UserID
	}
	return ""
}
