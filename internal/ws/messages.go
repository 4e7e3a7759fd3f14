// Package ws is the websocket transport: one connection per player, routed to
// the player's current room by the hub.
package ws

import (
	"encoding/json"

	"github.com/kwaczek/hry-portal/internal/game/prsi"
)

// Client-to-server message types.
const (
	MsgRoomCreate       = "room:create"
	MsgRoomJoin         = "room:join"
	MsgRoomLeave        = "room:leave"
	MsgRoomReady        = "room:ready"
	MsgRoomStart        = "room:start"
	MsgGameAction       = "game:action"
	MsgChatMessage      = "chat:message"
	MsgChatReaction     = "chat:reaction"
	MsgMatchmakingJoin  = "matchmaking:join"
	MsgMatchmakingLeave = "matchmaking:leave"
)

// Server-to-client types owned by the hub; the rest come from the room
// package.
const (
	EvtRoomCreated        = "room:created"
	EvtMatchmakingFound   = "matchmaking:found"
	EvtMatchmakingWaiting = "matchmaking:waiting"
)

// ClientMessage is the inbound envelope. Payloads are decoded per type at the
// boundary; anything malformed earns a room:error and goes no further.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type CreateRoomPayload struct {
	MaxPlayers  int              `json:"maxPlayers"`
	RuleVariant prsi.RuleVariant `json:"ruleVariant"`
	Public      bool             `json:"public"`
}

type JoinRoomPayload struct {
	Code string `json:"code"`
}

type ChatTextPayload struct {
	Text string `json:"text"`
}

type ReactionPayload struct {
	Reaction string `json:"reaction"`
}

type MatchmakingPayload struct {
	MaxPlayers  int              `json:"maxPlayers"`
	RuleVariant prsi.RuleVariant `json:"ruleVariant"`
}

type RoomCreatedPayload struct {
	Code string `json:"code"`
}

type MatchFoundPayload struct {
	Code string `json:"code"`
}

type WaitingPayload struct {
	Queue string `json:"queue"`
	Size  int    `json:"size"`
}
