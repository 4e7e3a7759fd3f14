package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kwaczek/hry-portal/internal/logger"
	"github.com/kwaczek/hry-portal/internal/matchmaking"
	"github.com/kwaczek/hry-portal/internal/room"
	"github.com/kwaczek/hry-portal/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 50 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 256
)

// Client is one player's connection. It implements room.Sender; a full send
// buffer drops the event rather than blocking a room coordinator.
type Client struct {
	identity service.Identity
	conn     *websocket.Conn
	hub      *Hub
	send     chan room.Event
	done     chan struct{}
	once     sync.Once

	mu       sync.Mutex
	roomCode string
	queued   *matchmaking.Config
}

func NewClient(identity service.Identity, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		identity: identity,
		conn:     conn,
		hub:      hub,
		send:     make(chan room.Event, sendBufferSize),
		done:     make(chan struct{}),
	}
}

// Send queues an event for the write pump.
func (c *Client) Send(evt room.Event) {
	select {
	case c.send <- evt:
	case <-c.done:
	default:
		logger.Warn("send buffer full, dropping event", "player", c.identity.UserID, "type", evt.Type)
	}
}

func (c *Client) playerInfo() room.PlayerInfo {
	return room.PlayerInfo{
		ID:       c.identity.UserID,
		Username: c.identity.Username,
		IsGuest:  c.identity.IsGuest,
	}
}

func (c *Client) currentRoom() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomCode
}

func (c *Client) setRoom(code string) {
	c.mu.Lock()
	c.roomCode = code
	c.mu.Unlock()
}

func (c *Client) queuedConfig() *matchmaking.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queued
}

func (c *Client) setQueued(cfg *matchmaking.Config) {
	c.mu.Lock()
	c.queued = cfg
	c.mu.Unlock()
}

// Run pumps the connection until it dies, then tells the hub.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

func (c *Client) close() {
	c.once.Do(func() { close(c.done) })
	_ = c.conn.Close()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.OnDisconnect(c)
		c.close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("websocket read error", "player", c.identity.UserID, "error", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.Send(room.Event{Type: room.EvtRoomError, Payload: room.ErrorPayload{
				Code: "bad_message", Message: "malformed message",
			}})
			continue
		}
		c.hub.HandleMessage(c, msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case evt := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
