package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client is one websocket connection of an authenticated user.
type Client struct {
	UserID string

	conn *websocket.Conn
	send chan []byte
	// rooms is guarded by the owning Hub's mutex.
	rooms     map[string]struct{}
	closeOnce sync.Once
}

// NewClient wraps conn. conn may be nil when the client is driven without a
// socket.
func NewClient(userID string, conn *websocket.Conn, buffer int) *Client {
	if buffer <= 0 {
		buffer = 1
	}
	return &Client{
		UserID: userID,
		conn:   conn,
		send:   make(chan []byte, buffer),
		rooms:  make(map[string]struct{}),
	}
}

// Outbound is the queue of encoded frames waiting to be written.
func (c *Client) Outbound() <-chan []byte {
	return c.send
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

type pumpConfig struct {
	writeTimeout time.Duration
	pongWait     time.Duration
	maxMessage   int64
}

func (p pumpConfig) pingPeriod() time.Duration {
	return p.pongWait * 9 / 10
}

// writePump drains the send queue onto the socket and keeps the connection
// alive with pings. It owns all writes to conn.
func (c *Client) writePump(cfg pumpConfig) {
	ticker := time.NewTicker(cfg.pingPeriod())
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump hands every inbound frame to handle until the socket fails.
// onPong runs each time the peer answers a ping.
func (c *Client) readPump(cfg pumpConfig, handle func([]byte), onPong func()) error {
	c.conn.SetReadLimit(cfg.maxMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(cfg.pongWait))
	c.conn.SetPongHandler(func(string) error {
		onPong()
		return c.conn.SetReadDeadline(time.Now().Add(cfg.pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return err
		}
		handle(message)
	}
}
