package room

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kwaczek/hry-portal/internal/domain"
	"github.com/kwaczek/hry-portal/internal/game/prsi"
	"github.com/kwaczek/hry-portal/internal/logger"
	"github.com/kwaczek/hry-portal/internal/metrics"
)

var (
	ErrRoomClosed      = errors.New("room is closed")
	ErrRoomFull        = errors.New("room is full")
	ErrMatchInProgress = errors.New("match already in progress")
)

const (
	chatMaxLen   = 200
	chatRateWait = 2 * time.Second
)

var botNames = []string{"Karel", "Pepa", "Jarda", "Zdena"}

// Config is the immutable setup of one room.
type Config struct {
	MaxPlayers  int
	RuleVariant prsi.RuleVariant
	Public      bool
}

// Validate checks the player count and rule variant.
func (c Config) Validate() error {
	if c.MaxPlayers < 2 || c.MaxPlayers > 4 {
		return errors.New("maxPlayers must be between 2 and 4")
	}
	if !prsi.ValidVariant(c.RuleVariant) {
		return errors.New("unknown rule variant")
	}
	return nil
}

// Options tune the coordinator's timers. Tests shrink them.
type Options struct {
	TurnTimeout    time.Duration
	ReconnectGrace time.Duration
	BotDelayMin    time.Duration
	BotDelayMax    time.Duration
	TickInterval   time.Duration
}

func DefaultOptions() Options {
	return Options{
		TurnTimeout:    30 * time.Second,
		ReconnectGrace: 60 * time.Second,
		BotDelayMin:    800 * time.Millisecond,
		BotDelayMax:    1500 * time.Millisecond,
		TickInterval:   time.Second,
	}
}

func (o Options) normalized() Options {
	def := DefaultOptions()
	if o.TurnTimeout <= 0 {
		o.TurnTimeout = def.TurnTimeout
	}
	if o.ReconnectGrace <= 0 {
		o.ReconnectGrace = def.ReconnectGrace
	}
	if o.BotDelayMin <= 0 {
		o.BotDelayMin = def.BotDelayMin
	}
	if o.BotDelayMax < o.BotDelayMin {
		o.BotDelayMax = o.BotDelayMin
	}
	if o.TickInterval <= 0 {
		o.TickInterval = def.TickInterval
	}
	return o
}

// MatchSaver persists a finished match and returns the rating deltas.
// Satisfied by rating.Service.
type MatchSaver interface {
	SaveMatchResult(ctx context.Context, result *domain.MatchResult) ([]domain.EloChange, error)
}

type member struct {
	info      PlayerInfo
	sender    Sender
	connected bool
	ready     bool
	lastChat  time.Time
}

// Coordinator owns one room. All state below the inbox is touched only by the
// Run goroutine; public methods post commands and never share memory.
type Coordinator struct {
	code    string
	cfg     Config
	opts    Options
	ratings MatchSaver
	log     *slog.Logger

	// Sanitize, when set, rewrites chat text before broadcast. Set before Run.
	Sanitize func(string) string

	inbox    chan command
	done     chan struct{}
	stopOnce sync.Once
	onEmpty  func(code string)

	members      []*member
	hostID       string
	engine       *prsi.Engine
	startedAt    time.Time
	finishedAt   time.Time
	turnSeq      int
	turnDeadline time.Time
	graceTimers  map[string]*time.Timer
	botTimer     *time.Timer
}

// NewCoordinator builds a room. onEmpty fires once when the last human is gone
// and the room has shut itself down.
func NewCoordinator(code string, cfg Config, ratings MatchSaver, opts Options, onEmpty func(code string)) *Coordinator {
	return &Coordinator{
		code:        code,
		cfg:         cfg,
		opts:        opts.normalized(),
		ratings:     ratings,
		log:         logger.With("component", "room", "room", code),
		inbox:       make(chan command, 64),
		done:        make(chan struct{}),
		onEmpty:     onEmpty,
		graceTimers: map[string]*time.Timer{},
	}
}

func (c *Coordinator) Code() string { return c.code }

// Run is the room's actor loop. Call exactly once, in its own goroutine.
func (c *Coordinator) Run() {
	ticker := time.NewTicker(c.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case cmd := <-c.inbox:
			c.handle(cmd)
		case <-ticker.C:
			c.tick()
		case <-c.done:
			c.stopTimers()
			return
		}
	}
}

// Stop shuts the room down. Idempotent.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

func (c *Coordinator) post(cmd command) bool {
	select {
	case c.inbox <- cmd:
		return true
	case <-c.done:
		return false
	}
}

// Join adds or reconnects a player and waits for the coordinator's answer.
func (c *Coordinator) Join(p PlayerInfo, s Sender) error {
	reply := make(chan error, 1)
	if !c.post(cmdJoin{player: p, sender: s, reply: reply}) {
		return ErrRoomClosed
	}
	select {
	case err := <-reply:
		return err
	case <-c.done:
		return ErrRoomClosed
	}
}

func (c *Coordinator) Leave(playerID string)      { c.post(cmdLeave{playerID: playerID}) }
func (c *Coordinator) Disconnect(playerID string) { c.post(cmdDisconnect{playerID: playerID}) }
func (c *Coordinator) Ready(playerID string)      { c.post(cmdReady{playerID: playerID}) }
func (c *Coordinator) Start(playerID string)      { c.post(cmdStart{playerID: playerID}) }

func (c *Coordinator) Action(playerID string, action prsi.Action) {
	c.post(cmdAction{playerID: playerID, action: action})
}

func (c *Coordinator) Chat(playerID, text string) {
	c.post(cmdChat{playerID: playerID, text: text})
}

func (c *Coordinator) Reaction(playerID, reaction string) {
	c.post(cmdChat{playerID: playerID, reaction: reaction})
}

// Snapshot asks the coordinator for its current shape. Safe from any
// goroutine; a stopped room answers with Stopped set.
func (c *Coordinator) Snapshot() Snapshot {
	reply := make(chan Snapshot, 1)
	if !c.post(cmdSnapshot{reply: reply}) {
		return Snapshot{Code: c.code, Stopped: true}
	}
	select {
	case s := <-reply:
		return s
	case <-c.done:
		return Snapshot{Code: c.code, Stopped: true}
	}
}

func (c *Coordinator) handle(cmd command) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("recovered panic in room command", "panic", r)
			// synchronous callers still get an answer instead of blocking
			switch m := cmd.(type) {
			case cmdJoin:
				select {
				case m.reply <- errors.New("internal room error"):
				default:
				}
			case cmdSnapshot:
				select {
				case m.reply <- Snapshot{Code: c.code}:
				default:
				}
			}
		}
	}()

	switch m := cmd.(type) {
	case cmdJoin:
		m.reply <- c.handleJoin(m.player, m.sender)
	case cmdLeave:
		c.handleLeave(m.playerID)
	case cmdDisconnect:
		c.handleDisconnect(m.playerID)
	case cmdReady:
		c.handleReady(m.playerID)
	case cmdStart:
		c.handleStart(m.playerID)
	case cmdAction:
		c.handleAction(m.playerID, m.action, true)
	case cmdChat:
		c.handleChat(m)
	case cmdGraceExpired:
		c.handleGraceExpired(m.playerID)
	case cmdBotTurn:
		c.handleBotTurn(m.seq)
	case cmdRatings:
		c.broadcast(Event{Type: EvtGameEnded, Payload: m.payload})
	case cmdSnapshot:
		m.reply <- c.snapshotLocked()
	}
}

func (c *Coordinator) findMember(id string) *member {
	for _, m := range c.members {
		if m.info.ID == id {
			return m
		}
	}
	return nil
}

func (c *Coordinator) handleJoin(p PlayerInfo, s Sender) error {
	if existing := c.findMember(p.ID); existing != nil {
		// reconnect
		existing.sender = s
		existing.connected = true
		if t, ok := c.graceTimers[p.ID]; ok {
			t.Stop()
			delete(c.graceTimers, p.ID)
		}
		c.log.Info("player reconnected", "player", p.ID)
		c.broadcastState()
		return nil
	}

	if c.phase() != prsi.PhaseWaiting {
		return ErrMatchInProgress
	}
	if len(c.members) >= c.cfg.MaxPlayers {
		return ErrRoomFull
	}

	c.members = append(c.members, &member{info: p, sender: s, connected: true})
	if c.hostID == "" {
		c.hostID = p.ID
	}
	c.log.Info("player joined", "player", p.ID, "username", p.Username)
	c.broadcastState()
	return nil
}

func (c *Coordinator) handleLeave(playerID string) {
	m := c.findMember(playerID)
	if m == nil {
		return
	}

	if c.phase() == prsi.PhasePlaying {
		c.engine.ConvertToBot(playerID)
	}
	c.removeMember(playerID)
	c.log.Info("player left", "player", playerID)
	c.afterMembershipChange()
}

func (c *Coordinator) handleDisconnect(playerID string) {
	m := c.findMember(playerID)
	if m == nil {
		return
	}

	if c.phase() != prsi.PhasePlaying {
		// lobby disconnects are plain leaves
		c.removeMember(playerID)
		c.afterMembershipChange()
		return
	}

	m.connected = false
	m.sender = nil
	c.graceTimers[playerID] = time.AfterFunc(c.opts.ReconnectGrace, func() {
		c.post(cmdGraceExpired{playerID: playerID})
	})
	c.log.Info("player disconnected, grace started", "player", playerID)
	c.broadcastState()
	// if it was their turn, the seat starts playing for itself
	c.scheduleBotTurn()
}

func (c *Coordinator) handleGraceExpired(playerID string) {
	m := c.findMember(playerID)
	if m == nil || m.connected {
		return
	}
	delete(c.graceTimers, playerID)
	if c.phase() == prsi.PhasePlaying {
		c.engine.ConvertToBot(playerID)
	}
	c.removeMember(playerID)
	c.log.Info("reconnect grace expired, seat handed to bot", "player", playerID)
	c.afterMembershipChange()
}

// removeMember drops the member record and hands the host role on if needed.
func (c *Coordinator) removeMember(playerID string) {
	for i, m := range c.members {
		if m.info.ID == playerID {
			c.members = append(c.members[:i], c.members[i+1:]...)
			break
		}
	}
	if t, ok := c.graceTimers[playerID]; ok {
		t.Stop()
		delete(c.graceTimers, playerID)
	}
	if c.hostID == playerID {
		c.hostID = ""
		if len(c.members) > 0 {
			c.hostID = c.members[0].info.ID
		}
	}
}

func (c *Coordinator) afterMembershipChange() {
	if len(c.members) == 0 {
		c.log.Info("room empty, shutting down")
		c.Stop()
		if c.onEmpty != nil {
			c.onEmpty(c.code)
		}
		return
	}
	c.broadcastState()
	if c.phase() == prsi.PhasePlaying {
		c.scheduleBotTurn()
	}
}

func (c *Coordinator) handleReady(playerID string) {
	m := c.findMember(playerID)
	if m == nil || c.phase() != prsi.PhaseWaiting {
		return
	}
	m.ready = !m.ready
	c.broadcastState()
}

func (c *Coordinator) handleStart(playerID string) {
	if playerID != c.hostID {
		c.sendError(playerID, "not_host", "only the host can start the match")
		return
	}
	if c.phase() != prsi.PhaseWaiting {
		c.sendError(playerID, "already_started", "match already started")
		return
	}

	engine := prsi.NewEngine(c.cfg.RuleVariant)
	for _, m := range c.members {
		if err := engine.AddPlayer(m.info.ID, m.info.Username, false, m.info.IsGuest); err != nil {
			c.sendError(playerID, "start_failed", err.Error())
			return
		}
	}
	for i := len(c.members); i < c.cfg.MaxPlayers; i++ {
		id := "bot-" + uuid.NewString()[:8]
		name := botNames[(i-len(c.members))%len(botNames)]
		if err := engine.AddPlayer(id, name, true, true); err != nil {
			c.sendError(playerID, "start_failed", err.Error())
			return
		}
	}
	if err := engine.Start(); err != nil {
		c.sendError(playerID, "start_failed", err.Error())
		return
	}

	c.engine = engine
	c.startedAt = time.Now()
	c.turnSeq++
	c.turnDeadline = time.Now().Add(c.opts.TurnTimeout)
	c.log.Info("match started", "players", c.cfg.MaxPlayers, "variant", c.cfg.RuleVariant)

	c.broadcast(Event{Type: EvtGameStarted, Payload: struct{}{}})
	c.broadcastState()
	c.scheduleBotTurn()
}

// handleAction applies a play or draw. report controls whether failures go
// back to the player; bot and timeout moves pass false.
func (c *Coordinator) handleAction(playerID string, action prsi.Action, report bool) {
	if c.phase() != prsi.PhasePlaying {
		if report {
			c.sendError(playerID, "not_playing", "no match is running")
		}
		return
	}

	var err error
	switch action.Type {
	case prsi.ActionPlay:
		err = c.engine.PlayCard(playerID, action.Card, action.SuitOverride)
	case prsi.ActionDraw:
		err = c.engine.Draw(playerID)
	default:
		err = errors.New("unknown action type")
	}
	if err != nil {
		if report {
			c.sendError(playerID, "invalid_action", err.Error())
		} else {
			c.log.Warn("automated action rejected", "player", playerID, "error", err)
		}
		return
	}

	c.afterAction()
}

func (c *Coordinator) afterAction() {
	if c.engine.Phase() == prsi.PhaseFinished {
		c.endMatch()
		return
	}
	c.turnSeq++
	c.turnDeadline = time.Now().Add(c.opts.TurnTimeout)
	c.broadcastState()
	c.scheduleBotTurn()
}

func (c *Coordinator) scheduleBotTurn() {
	if c.botTimer != nil {
		c.botTimer.Stop()
		c.botTimer = nil
	}
	if c.phase() != prsi.PhasePlaying {
		return
	}

	current := c.engine.CurrentPlayerID()
	onTurn := false
	for _, p := range c.engine.State().Players {
		if p.ID == current && p.IsBot {
			onTurn = true
			break
		}
	}
	// a disconnected human's seat also plays itself during the grace window
	if !onTurn {
		if m := c.findMember(current); m != nil && !m.connected {
			onTurn = true
		}
	}
	if !onTurn {
		return
	}

	seq := c.turnSeq
	delay := c.opts.BotDelayMin
	if spread := c.opts.BotDelayMax - c.opts.BotDelayMin; spread > 0 {
		delay += time.Duration(rand.Int63n(int64(spread)))
	}
	c.botTimer = time.AfterFunc(delay, func() {
		c.post(cmdBotTurn{seq: seq})
	})
}

func (c *Coordinator) handleBotTurn(seq int) {
	if c.phase() != prsi.PhasePlaying || seq != c.turnSeq {
		return
	}
	playerID := c.engine.CurrentPlayerID()
	view := c.engine.PlayerView(playerID)
	action := prsi.ChooseAction(view.State, view.Hand)
	c.handleAction(playerID, action, false)
}

// tick drives the turn clock: a per-second countdown broadcast and a forced
// draw when the budget runs out.
func (c *Coordinator) tick() {
	if c.phase() != prsi.PhasePlaying {
		return
	}

	remaining := int(time.Until(c.turnDeadline).Round(time.Second).Seconds())
	if remaining > 0 {
		c.broadcast(Event{Type: EvtTurnTimer, Payload: TurnTimerPayload{
			PlayerID:  c.engine.CurrentPlayerID(),
			Remaining: remaining,
		}})
		return
	}

	playerID := c.engine.CurrentPlayerID()
	c.log.Info("turn timed out, forcing draw", "player", playerID)
	c.handleAction(playerID, prsi.Action{Type: prsi.ActionDraw}, false)
}

func (c *Coordinator) endMatch() {
	c.finishedAt = time.Now()
	c.stopTimers()
	metrics.MatchesCompleted.Inc()

	st := c.engine.State()
	payload := EndedPayload{
		WinnerID:    st.WinnerID,
		Placements:  st.Placements,
		EloChanges:  []domain.EloChange{},
		DurationSec: int(c.finishedAt.Sub(c.startedAt).Seconds()),
	}
	c.log.Info("match finished", "winner", st.WinnerID, "duration", payload.DurationSec)

	// players see the result immediately; rating deltas follow when ready
	c.broadcastState()
	c.broadcast(Event{Type: EvtGameEnded, Payload: payload})

	if c.ratings == nil {
		return
	}

	result := c.matchResult(st, payload.DurationSec)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		changes, err := c.ratings.SaveMatchResult(ctx, result)
		if err != nil {
			c.log.Error("failed to save match result", "error", err)
			metrics.RatingSaveFailures.Inc()
		}
		if changes == nil {
			changes = []domain.EloChange{}
		}
		payload.EloChanges = changes
		c.post(cmdRatings{payload: payload})
	}()
}

func (c *Coordinator) matchResult(st prsi.State, durationSec int) *domain.MatchResult {
	placement := make(map[string]int, len(st.Placements))
	for i, id := range st.Placements {
		placement[id] = i + 1
	}

	players := make([]domain.MatchPlayer, 0, len(st.Players))
	for _, p := range st.Players {
		players = append(players, domain.MatchPlayer{
			ID:        p.ID,
			Username:  p.Username,
			Placement: placement[p.ID],
			IsGuest:   p.IsGuest || p.IsBot,
		})
	}

	return &domain.MatchResult{
		GameType:    "prsi",
		RoomCode:    c.code,
		Players:     players,
		RuleVariant: string(st.RuleVariant),
		DurationSec: durationSec,
	}
}

func (c *Coordinator) handleChat(m cmdChat) {
	sender := c.findMember(m.playerID)
	if sender == nil || !sender.connected {
		return
	}

	now := time.Now()
	if now.Sub(sender.lastChat) < chatRateWait {
		c.sendError(m.playerID, "chat_rate_limited", "sending too fast")
		return
	}

	payload := ChatPayload{
		ID:       uuid.NewString(),
		PlayerID: sender.info.ID,
		Username: sender.info.Username,
		SentAt:   now,
	}

	switch {
	case m.reaction != "":
		payload.Reaction = m.reaction
	default:
		text := strings.TrimSpace(m.text)
		if text == "" {
			return
		}
		if len([]rune(text)) > chatMaxLen {
			c.sendError(m.playerID, "chat_too_long", "message too long")
			return
		}
		if c.Sanitize != nil {
			text = c.Sanitize(text)
		}
		payload.Text = text
	}

	sender.lastChat = now
	c.broadcast(Event{Type: EvtChatMessage, Payload: payload})
}

func (c *Coordinator) phase() prsi.Phase {
	if c.engine == nil {
		return prsi.PhaseWaiting
	}
	return c.engine.Phase()
}

func (c *Coordinator) snapshotLocked() Snapshot {
	players := len(c.members)
	if c.engine != nil {
		players = len(c.engine.State().Players)
	}
	return Snapshot{
		Code:        c.code,
		Phase:       c.phase(),
		HostID:      c.hostID,
		Players:     players,
		MaxPlayers:  c.cfg.MaxPlayers,
		Public:      c.cfg.Public,
		RuleVariant: c.cfg.RuleVariant,
		FinishedAt:  c.finishedAt,
	}
}

func (c *Coordinator) statePayloadFor(playerID string) StatePayload {
	ready := make(map[string]bool, len(c.members))
	for _, m := range c.members {
		ready[m.info.ID] = m.ready
	}

	payload := StatePayload{
		Code:        c.code,
		HostID:      c.hostID,
		MaxPlayers:  c.cfg.MaxPlayers,
		Public:      c.cfg.Public,
		RuleVariant: c.cfg.RuleVariant,
		Phase:       c.phase(),
		Ready:       ready,
	}

	if c.engine != nil {
		view := c.engine.PlayerView(playerID)
		payload.Players = view.Players
		payload.Game = &view
		return payload
	}

	payload.Players = make([]prsi.PlayerPublic, 0, len(c.members))
	for _, m := range c.members {
		payload.Players = append(payload.Players, prsi.PlayerPublic{
			ID:       m.info.ID,
			Username: m.info.Username,
			IsGuest:  m.info.IsGuest,
		})
	}
	return payload
}

// broadcastState sends every connected member their own filtered view.
func (c *Coordinator) broadcastState() {
	for _, m := range c.members {
		if m.sender == nil || !m.connected {
			continue
		}
		m.sender.Send(Event{Type: EvtRoomState, Payload: c.statePayloadFor(m.info.ID)})
	}
}

func (c *Coordinator) broadcast(evt Event) {
	for _, m := range c.members {
		if m.sender == nil || !m.connected {
			continue
		}
		m.sender.Send(evt)
	}
}

func (c *Coordinator) sendError(playerID, code, message string) {
	m := c.findMember(playerID)
	if m == nil || m.sender == nil {
		return
	}
	m.sender.Send(Event{Type: EvtRoomError, Payload: ErrorPayload{Code: code, Message: message}})
}

func (c *Coordinator) stopTimers() {
	for id, t := range c.graceTimers {
		t.Stop()
		delete(c.graceTimers, id)
	}
	if c.botTimer != nil {
		c.botTimer.Stop()
		c.botTimer = nil
	}
}
