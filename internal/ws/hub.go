package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/kwaczek/hry-portal/internal/discovery"
	"github.com/kwaczek/hry-portal/internal/game/prsi"
	"github.com/kwaczek/hry-portal/internal/logger"
	"github.com/kwaczek/hry-portal/internal/matchmaking"
	"github.com/kwaczek/hry-portal/internal/metrics"
	"github.com/kwaczek/hry-portal/internal/room"
)

const (
	matchmakingSweep = time.Second
	directorySweep   = 3 * time.Second
	roomCleanupSweep = time.Minute
)

// Hub connects sockets to rooms and queues. It holds no game state of its
// own: rooms live in the registry, waiting players in the queue.
type Hub struct {
	registry  *room.Registry
	queue     *matchmaking.Queue
	directory discovery.Directory
	log       *slog.Logger

	mu        sync.Mutex
	clients   map[string]*Client
	published map[string]bool
}

func NewHub(registry *room.Registry, queue *matchmaking.Queue, directory discovery.Directory) *Hub {
	return &Hub{
		registry:  registry,
		queue:     queue,
		directory: directory,
		log:       logger.With("component", "hub"),
		clients:   map[string]*Client{},
		published: map[string]bool{},
	}
}

// Register tracks a freshly upgraded connection.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.identity.UserID] = c
	h.mu.Unlock()
	metrics.ConnectionsActive.Inc()
	h.log.Info("client connected", "player", c.identity.UserID, "username", c.identity.Username)
}

func (h *Hub) client(playerID string) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.clients[playerID]
}

// OnDisconnect cleans up after a dead connection: out of the queue, and into
// the room's reconnect grace if a match is running.
func (h *Hub) OnDisconnect(c *Client) {
	h.mu.Lock()
	if h.clients[c.identity.UserID] == c {
		delete(h.clients, c.identity.UserID)
	}
	h.mu.Unlock()
	metrics.ConnectionsActive.Dec()

	if cfg := c.queuedConfig(); cfg != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := h.queue.LeaveQueue(ctx, *cfg, c.identity.UserID); err != nil {
			h.log.Error("failed to dequeue on disconnect", "player", c.identity.UserID, "error", err)
		}
		cancel()
		c.setQueued(nil)
	}

	if code := c.currentRoom(); code != "" {
		if coord := h.registry.Get(code); coord != nil {
			coord.Disconnect(c.identity.UserID)
		}
	}
	h.log.Info("client disconnected", "player", c.identity.UserID)
}

// HandleMessage is the single inbound entry point, called from the client's
// read pump.
func (h *Hub) HandleMessage(c *Client, msg ClientMessage) {
	switch msg.Type {
	case MsgRoomCreate:
		h.handleRoomCreate(c, msg.Payload)
	case MsgRoomJoin:
		h.handleRoomJoin(c, msg.Payload)
	case MsgRoomLeave:
		h.handleRoomLeave(c)
	case MsgRoomReady:
		if coord := h.roomOf(c); coord != nil {
			coord.Ready(c.identity.UserID)
		}
	case MsgRoomStart:
		if coord := h.roomOf(c); coord != nil {
			coord.Start(c.identity.UserID)
		}
	case MsgGameAction:
		h.handleGameAction(c, msg.Payload)
	case MsgChatMessage:
		h.handleChat(c, msg.Payload)
	case MsgChatReaction:
		h.handleReaction(c, msg.Payload)
	case MsgMatchmakingJoin:
		h.handleMatchmakingJoin(c, msg.Payload)
	case MsgMatchmakingLeave:
		h.handleMatchmakingLeave(c)
	default:
		h.sendError(c, "unknown_type", "unknown message type "+msg.Type)
	}
}

func (h *Hub) sendError(c *Client, code, message string) {
	c.Send(room.Event{Type: room.EvtRoomError, Payload: room.ErrorPayload{Code: code, Message: message}})
}

// roomOf resolves the client's current coordinator, complaining if there is
// none.
func (h *Hub) roomOf(c *Client) *room.Coordinator {
	code := c.currentRoom()
	if code == "" {
		h.sendError(c, "not_in_room", "join a room first")
		return nil
	}
	coord := h.registry.Get(code)
	if coord == nil {
		c.setRoom("")
		h.sendError(c, "room_not_found", "room no longer exists")
		return nil
	}
	return coord
}

func (h *Hub) handleRoomCreate(c *Client, raw json.RawMessage) {
	if c.currentRoom() != "" {
		h.sendError(c, "already_in_room", "leave the current room first")
		return
	}

	payload := CreateRoomPayload{MaxPlayers: 2, RuleVariant: prsi.VariantClassic}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			h.sendError(c, "bad_payload", "malformed room:create payload")
			return
		}
	}

	coord, err := h.registry.CreateRoom(room.Config{
		MaxPlayers:  payload.MaxPlayers,
		RuleVariant: payload.RuleVariant,
		Public:      payload.Public,
	})
	if err != nil {
		h.sendError(c, "create_failed", err.Error())
		return
	}

	if err := coord.Join(c.playerInfo(), c); err != nil {
		h.sendError(c, "join_failed", err.Error())
		return
	}
	c.setRoom(coord.Code())
	c.Send(room.Event{Type: EvtRoomCreated, Payload: RoomCreatedPayload{Code: coord.Code()}})
}

func (h *Hub) handleRoomJoin(c *Client, raw json.RawMessage) {
	var payload JoinRoomPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Code == "" {
		h.sendError(c, "bad_payload", "malformed room:join payload")
		return
	}

	code := strings.ToUpper(strings.TrimSpace(payload.Code))
	coord := h.registry.Get(code)
	if coord == nil {
		h.sendError(c, "room_not_found", "no room with code "+code)
		return
	}

	switch err := coord.Join(c.playerInfo(), c); err {
	case nil:
		c.setRoom(code)
	case room.ErrRoomFull:
		h.sendError(c, "room_full", "room is full")
	case room.ErrMatchInProgress:
		h.sendError(c, "match_in_progress", "match already started")
	default:
		h.sendError(c, "join_failed", err.Error())
	}
}

func (h *Hub) handleRoomLeave(c *Client) {
	code := c.currentRoom()
	if code == "" {
		return
	}
	if coord := h.registry.Get(code); coord != nil {
		coord.Leave(c.identity.UserID)
	}
	c.setRoom("")
}

func (h *Hub) handleGameAction(c *Client, raw json.RawMessage) {
	coord := h.roomOf(c)
	if coord == nil {
		return
	}

	var action prsi.Action
	if err := json.Unmarshal(raw, &action); err != nil {
		h.sendError(c, "bad_payload", "malformed game:action payload")
		return
	}
	if action.Type == prsi.ActionPlay {
		if !prsi.ValidSuit(action.Card.Suit) || !prsi.ValidRank(action.Card.Rank) {
			h.sendError(c, "bad_payload", "unknown card")
			return
		}
		if action.SuitOverride != prsi.SuitNone && !prsi.ValidSuit(action.SuitOverride) {
			h.sendError(c, "bad_payload", "unknown suit override")
			return
		}
	}
	coord.Action(c.identity.UserID, action)
}

func (h *Hub) handleChat(c *Client, raw json.RawMessage) {
	coord := h.roomOf(c)
	if coord == nil {
		return
	}

	var payload ChatTextPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		h.sendError(c, "bad_payload", "malformed chat:message payload")
		return
	}
	coord.Chat(c.identity.UserID, payload.Text)
}

func (h *Hub) handleReaction(c *Client, raw json.RawMessage) {
	coord := h.roomOf(c)
	if coord == nil {
		return
	}

	var payload ReactionPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Reaction == "" {
		h.sendError(c, "bad_payload", "malformed chat:reaction payload")
		return
	}
	coord.Reaction(c.identity.UserID, payload.Reaction)
}

func (h *Hub) handleMatchmakingJoin(c *Client, raw json.RawMessage) {
	if c.currentRoom() != "" {
		h.sendError(c, "already_in_room", "leave the current room first")
		return
	}
	if c.queuedConfig() != nil {
		h.sendError(c, "already_queued", "already waiting in a queue")
		return
	}

	payload := MatchmakingPayload{MaxPlayers: 2, RuleVariant: prsi.VariantClassic}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			h.sendError(c, "bad_payload", "malformed matchmaking:join payload")
			return
		}
	}
	if payload.MaxPlayers < 2 || payload.MaxPlayers > 4 || !prsi.ValidVariant(payload.RuleVariant) {
		h.sendError(c, "bad_payload", "unsupported queue")
		return
	}

	cfg := matchmaking.Config{MaxPlayers: payload.MaxPlayers, RuleVariant: payload.RuleVariant}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	matched, err := h.queue.JoinQueue(ctx, cfg, matchmaking.Entry{
		PlayerID: c.identity.UserID,
		Username: c.identity.Username,
		IsGuest:  c.identity.IsGuest,
	})
	if err == matchmaking.ErrAlreadyQueued {
		h.sendError(c, "already_queued", "already waiting in a queue")
		return
	}
	if err != nil {
		h.sendError(c, "matchmaking_failed", "matchmaking is unavailable")
		h.log.Error("matchmaking join failed", "player", c.identity.UserID, "error", err)
		return
	}

	if matched == nil {
		c.setQueued(&cfg)
		size, _ := h.queue.Size(ctx, cfg)
		c.Send(room.Event{Type: EvtMatchmakingWaiting, Payload: WaitingPayload{Queue: cfg.Key(), Size: size}})
		return
	}
	h.startMatchedRoom(cfg, matched)
}

func (h *Hub) handleMatchmakingLeave(c *Client) {
	cfg := c.queuedConfig()
	if cfg == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.queue.LeaveQueue(ctx, *cfg, c.identity.UserID); err != nil {
		h.log.Error("matchmaking leave failed", "player", c.identity.UserID, "error", err)
	}
	c.setQueued(nil)
}

// startMatchedRoom turns a drained queue into a running match. Entries whose
// connection died in the meantime are skipped; if the table is short the
// coordinator fills the gaps with bots at start.
func (h *Hub) startMatchedRoom(cfg matchmaking.Config, entries []matchmaking.Entry) {
	coord, err := h.registry.CreateRoom(room.Config{
		MaxPlayers:  cfg.MaxPlayers,
		RuleVariant: cfg.RuleVariant,
	})
	if err != nil {
		h.log.Error("failed to create matched room", "queue", cfg.Key(), "error", err)
		return
	}

	hostID := ""
	for _, e := range entries {
		client := h.client(e.PlayerID)
		if client == nil {
			continue
		}
		if err := coord.Join(client.playerInfo(), client); err != nil {
			h.log.Warn("matched player could not join", "player", e.PlayerID, "error", err)
			continue
		}
		client.setQueued(nil)
		client.setRoom(coord.Code())
		client.Send(room.Event{Type: EvtMatchmakingFound, Payload: MatchFoundPayload{Code: coord.Code()}})
		if hostID == "" {
			hostID = e.PlayerID
		}
	}

	if hostID == "" {
		// everyone vanished while waiting
		coord.Stop()
		return
	}

	h.log.Info("matched room starting", "room", coord.Code(), "queue", cfg.Key())
	coord.Start(hostID)
}

// StartSweepers runs the hub's background loops until ctx is cancelled:
// matchmaking timeouts, stale room cleanup and the discovery listing.
func (h *Hub) StartSweepers(ctx context.Context) {
	go h.sweep(ctx, matchmakingSweep, h.sweepMatchmaking)
	go h.sweep(ctx, roomCleanupSweep, func() { h.registry.CleanupStaleRooms() })
	go h.sweep(ctx, directorySweep, h.syncDirectory)
}

func (h *Hub) sweep(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// sweepMatchmaking backfills with bots for players who waited too long.
func (h *Hub) sweepMatchmaking() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, cfg := range matchmaking.Configs() {
		entries, err := h.queue.TakeTimedOut(ctx, cfg)
		if err != nil {
			h.log.Error("matchmaking sweep failed", "queue", cfg.Key(), "error", err)
			continue
		}
		if len(entries) > 0 {
			h.startMatchedRoom(cfg, entries)
		}
	}
}

// syncDirectory mirrors public rooms into the discovery directory.
func (h *Hub) syncDirectory() {
	if h.directory == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	now := time.Now()
	current := map[string]bool{}
	for _, s := range h.registry.Snapshots() {
		if !s.Public {
			continue
		}
		current[s.Code] = true
		err := h.directory.Publish(ctx, discovery.RoomSummary{
			Code:        s.Code,
			Phase:       string(s.Phase),
			Players:     s.Players,
			MaxPlayers:  s.MaxPlayers,
			RuleVariant: string(s.RuleVariant),
			Public:      s.Public,
			UpdatedAt:   now,
		})
		if err != nil {
			h.log.Error("failed to publish room", "room", s.Code, "error", err)
		}
	}

	h.mu.Lock()
	previous := h.published
	h.published = current
	h.mu.Unlock()

	for code := range previous {
		if !current[code] {
			if err := h.directory.Remove(ctx, code); err != nil {
				h.log.Error("failed to delist room", "room", code, "error", err)
			}
		}
	}
}
