// Package room hosts one coordinator goroutine per live room. Every mutation
// of room state travels through the coordinator's inbox as a command, so the
// engine never needs a lock.
package room

import (
	"time"

	"github.com/kwaczek/hry-portal/internal/domain"
	"github.com/kwaczek/hry-portal/internal/game/prsi"
)

// Server-to-client event types.
const (
	EvtRoomState   = "room:state"
	EvtRoomError   = "room:error"
	EvtGameStarted = "game:started"
	EvtGameEnded   = "game:ended"
	EvtTurnTimer   = "game:turnTimer"
	EvtChatMessage = "chat:message"
)

// Event is one outbound message. The ws client marshals it as
// {"type": ..., "payload": ...}.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Sender delivers events to one connected player. Implemented by ws.Client;
// tests plug in a recording fake.
type Sender interface {
	Send(evt Event)
}

// PlayerInfo identifies a joining player.
type PlayerInfo struct {
	ID       string
	Username string
	IsGuest  bool
}

// StatePayload is the per-player room:state broadcast. Game is nil while the
// room sits in the lobby.
type StatePayload struct {
	Code        string              `json:"code"`
	HostID      string              `json:"hostId"`
	MaxPlayers  int                 `json:"maxPlayers"`
	Public      bool                `json:"public"`
	RuleVariant prsi.RuleVariant    `json:"ruleVariant"`
	Phase       prsi.Phase          `json:"phase"`
	Players     []prsi.PlayerPublic `json:"players"`
	Ready       map[string]bool     `json:"ready"`
	Game        *prsi.PlayerView    `json:"game,omitempty"`
}

// ErrorPayload is a targeted room:error.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TurnTimerPayload ticks once a second while a match runs.
type TurnTimerPayload struct {
	PlayerID  string `json:"playerId"`
	Remaining int    `json:"remaining"`
}

// EndedPayload is broadcast twice per match: immediately with empty EloChanges
// and again once the rating service has answered.
type EndedPayload struct {
	WinnerID    string             `json:"winnerId"`
	Placements  []string           `json:"placements"`
	EloChanges  []domain.EloChange `json:"eloChanges"`
	DurationSec int                `json:"durationSec"`
}

// ChatPayload carries both chat text and emoji reactions.
type ChatPayload struct {
	ID       string    `json:"id"`
	PlayerID string    `json:"playerId"`
	Username string    `json:"username"`
	Text     string    `json:"text,omitempty"`
	Reaction string    `json:"reaction,omitempty"`
	SentAt   time.Time `json:"sentAt"`
}

// Snapshot is the coordinator's answer to registry queries. Stopped is set
// when the room has already shut down.
type Snapshot struct {
	Code        string
	Phase       prsi.Phase
	HostID      string
	Players     int
	MaxPlayers  int
	Public      bool
	RuleVariant prsi.RuleVariant
	FinishedAt  time.Time
	Stopped     bool
}

// Commands. Each carries exactly what its handler needs; join replies
// synchronously so the hub can report failures to the caller.
type command any

type cmdJoin struct {
	player PlayerInfo
	sender Sender
	reply  chan error
}

type cmdLeave struct {
	playerID string
}

type cmdDisconnect struct {
	playerID string
}

type cmdReady struct {
	playerID string
}

type cmdStart struct {
	playerID string
}

type cmdAction struct {
	playerID string
	action   prsi.Action
}

type cmdChat struct {
	playerID string
	text     string
	reaction string
}

type cmdGraceExpired struct {
	playerID string
}

type cmdBotTurn struct {
	seq int
}

type cmdRatings struct {
	payload EndedPayload
}

type cmdSnapshot struct {
	reply chan Snapshot
}
