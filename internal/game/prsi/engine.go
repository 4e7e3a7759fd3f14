package prsi

import (
	"errors"
	"math/rand"
)

// Phase of a match (and of the room that hosts it).
type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

// RuleVariant selects the house-rule set. Both variants currently share the
// same resolution rules; the variant travels with the room config and match
// history so rated pools stay separate.
type RuleVariant string

const (
	VariantClassic  RuleVariant = "classic"
	VariantStacking RuleVariant = "stacking"
)

// ValidVariant reports whether v is a known rule variant.
func ValidVariant(v RuleVariant) bool {
	return v == VariantClassic || v == VariantStacking
}

const cardsPerPlayer = 4

var (
	ErrNotPlaying      = errors.New("match is not running")
	ErrAlreadyStarted  = errors.New("match already started")
	ErrTooFewPlayers   = errors.New("not enough players")
	ErrDuplicatePlayer = errors.New("player already in match")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrCardNotInHand   = errors.New("card not in hand")
	ErrSuitRequired    = errors.New("svrsek requires a suit")
	ErrIllegalPlay     = errors.New("illegal play")
	ErrUnknownPlayer   = errors.New("unknown player")
)

type seat struct {
	id       string
	username string
	isBot    bool
	isGuest  bool
	hand     []Card
}

// Engine owns the authoritative state of a single match. It is not
// goroutine-safe: the room coordinator serializes all access.
type Engine struct {
	variant      RuleVariant
	phase        Phase
	players      []*seat
	currentIndex int
	drawPile     []Card
	discardPile  []Card
	suitOverride Suit
	pendingDraw  int
	pendingSkip  int
	winnerID     string
	placements   []string
}

// PlayerPublic is the hidden-information-free view of one seat.
type PlayerPublic struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	IsBot     bool   `json:"isBot"`
	IsGuest   bool   `json:"isGuest"`
	CardCount int    `json:"cardCount"`
}

// State is the public view of a match: everything except hands.
type State struct {
	Phase            Phase          `json:"phase"`
	Players          []PlayerPublic `json:"players"`
	CurrentPlayerID  string         `json:"currentPlayerId"`
	TopCard          *Card          `json:"topCard"`
	DrawPileCount    int            `json:"drawPileCount"`
	SuitOverride     Suit           `json:"suitOverride"`
	PendingDrawCount int            `json:"pendingDrawCount"`
	PendingSkipCount int            `json:"pendingSkipCount"`
	RuleVariant      RuleVariant    `json:"ruleVariant"`
	WinnerID         string         `json:"winnerId"`
	Placements       []string       `json:"placements"`
}

// PlayerView is State plus the viewing player's own hand.
type PlayerView struct {
	State
	Hand []Card `json:"hand"`
}

func NewEngine(variant RuleVariant) *Engine {
	return &Engine{
		variant: variant,
		phase:   PhaseWaiting,
	}
}

// AddPlayer registers a seat. Only valid before Start.
func (e *Engine) AddPlayer(id, username string, isBot, isGuest bool) error {
	if e.phase != PhaseWaiting {
		return ErrAlreadyStarted
	}
	for _, p := range e.players {
		if p.id == id {
			return ErrDuplicatePlayer
		}
	}
	e.players = append(e.players, &seat{
		id:       id,
		username: username,
		isBot:    isBot,
		isGuest:  isGuest,
	})
	return nil
}

// Start shuffles, deals 4 cards each, places the opening card and hands the
// turn to the first-added player.
func (e *Engine) Start() error {
	if e.phase != PhaseWaiting {
		return ErrAlreadyStarted
	}
	if len(e.players) < 2 {
		return ErrTooFewPlayers
	}

	e.drawPile = NewDeck()
	rand.Shuffle(len(e.drawPile), func(i, j int) {
		e.drawPile[i], e.drawPile[j] = e.drawPile[j], e.drawPile[i]
	})

	for i := 0; i < cardsPerPlayer; i++ {
		for _, p := range e.players {
			p.hand = append(p.hand, e.popDraw())
		}
	}

	e.placeOpeningCard()
	e.currentIndex = 0
	e.phase = PhasePlaying
	return nil
}

// placeOpeningCard moves the first non-special card from the draw pile onto
// the discard pile. If every remaining card is special (practically
// impossible) the top card is used regardless.
func (e *Engine) placeOpeningCard() {
	idx := -1
	for i := len(e.drawPile) - 1; i >= 0; i-- {
		if !e.drawPile[i].IsSpecial() {
			idx = i
			break
		}
	}
	if idx == -1 {
		idx = len(e.drawPile) - 1
	}
	card := e.drawPile[idx]
	e.drawPile = append(e.drawPile[:idx], e.drawPile[idx+1:]...)
	e.discardPile = append(e.discardPile, card)
}

func (e *Engine) popDraw() Card {
	c := e.drawPile[len(e.drawPile)-1]
	e.drawPile = e.drawPile[:len(e.drawPile)-1]
	return c
}

func (e *Engine) topCard() *Card {
	if len(e.discardPile) == 0 {
		return nil
	}
	c := e.discardPile[len(e.discardPile)-1]
	return &c
}

// CurrentPlayerID returns the id of the player on turn, or "" outside of play.
func (e *Engine) CurrentPlayerID() string {
	if e.phase != PhasePlaying {
		return ""
	}
	return e.players[e.currentIndex].id
}

// Phase returns the current match phase.
func (e *Engine) Phase() Phase {
	return e.phase
}

func (e *Engine) findSeat(id string) *seat {
	for _, p := range e.players {
		if p.id == id {
			return p
		}
	}
	return nil
}

// ConvertToBot flips a seat to bot control, used when a disconnected player's
// grace period runs out or a player leaves mid-match.
func (e *Engine) ConvertToBot(playerID string) {
	if p := e.findSeat(playerID); p != nil && !p.isBot {
		p.isBot = true
		p.username += " (Bot)"
	}
}

// PlayCard applies a play action for playerID. override must be a valid suit
// when the card is a svršek and SuitNone otherwise.
func (e *Engine) PlayCard(playerID string, card Card, override Suit) error {
	if e.phase != PhasePlaying {
		return ErrNotPlaying
	}
	if e.findSeat(playerID) == nil {
		return ErrUnknownPlayer
	}
	if playerID != e.CurrentPlayerID() {
		return ErrNotYourTurn
	}

	player := e.players[e.currentIndex]
	cardIdx := -1
	for i, c := range player.hand {
		if c == card {
			cardIdx = i
			break
		}
	}
	if cardIdx == -1 {
		return ErrCardNotInHand
	}

	if card.Rank == RankSvrsek && !ValidSuit(override) {
		return ErrSuitRequired
	}

	if !e.isValidPlay(card) {
		return ErrIllegalPlay
	}

	player.hand = append(player.hand[:cardIdx], player.hand[cardIdx+1:]...)
	e.discardPile = append(e.discardPile, card)
	e.applyEffect(card, override)

	if len(player.hand) == 0 {
		e.placements = append(e.placements, player.id)
		e.winnerID = e.placements[0]

		if len(e.players) == 2 {
			for _, p := range e.players {
				if p.id != player.id {
					e.placements = append(e.placements, p.id)
				}
			}
			e.phase = PhaseFinished
			return nil
		}

		// 3-4 players: keep going until one remains
		remaining := e.activePlayers()
		if len(remaining) <= 1 {
			if len(remaining) == 1 {
				e.placements = append(e.placements, remaining[0].id)
			}
			e.phase = PhaseFinished
			return nil
		}
	}

	if e.phase == PhasePlaying {
		e.advanceTurn()
	}
	return nil
}

// isValidPlay evaluates the legality rules in strict priority order.
func (e *Engine) isValidPlay(card Card) bool {
	// A pending 7 can only be answered with another 7.
	if e.pendingDraw > 0 {
		return card.Rank == Rank7
	}

	// A pending eso can only be countered with another eso.
	if e.pendingSkip > 0 {
		return card.Rank == RankEso
	}

	// Svršek goes on anything.
	if card.Rank == RankSvrsek {
		return true
	}

	top := e.topCard()
	activeSuit := top.Suit
	if e.suitOverride != SuitNone {
		activeSuit = e.suitOverride
	}

	return card.Suit == activeSuit || card.Rank == top.Rank
}

func (e *Engine) applyEffect(card Card, override Suit) {
	// Any non-svršek play ends a declared suit.
	if card.Rank != RankSvrsek {
		e.suitOverride = SuitNone
	}

	switch card.Rank {
	case Rank7:
		e.pendingDraw += 2
	case RankEso:
		// A counter-eso forwards the skip, it does not accumulate.
		e.pendingSkip = 1
	case RankSvrsek:
		e.suitOverride = override
	}
}

func (e *Engine) activePlayers() []*seat {
	active := make([]*seat, 0, len(e.players))
	for _, p := range e.players {
		if !e.isPlaced(p.id) {
			active = append(active, p)
		}
	}
	return active
}

func (e *Engine) isPlaced(id string) bool {
	for _, placed := range e.placements {
		if placed == id {
			return true
		}
	}
	return false
}

// advanceTurn moves to the next seat that has not finished yet.
func (e *Engine) advanceTurn() {
	active := e.activePlayers()
	cur := -1
	currentID := e.players[e.currentIndex].id
	for i, p := range active {
		if p.id == currentID {
			cur = i
			break
		}
	}
	next := active[(cur+1)%len(active)]
	for i, p := range e.players {
		if p.id == next.id {
			e.currentIndex = i
			return
		}
	}
}

// Draw takes max(pendingDrawCount, 1) cards for playerID, clears both pending
// effects and passes the turn. Drawing under a pending eso consumes the skip
// against the drawer.
func (e *Engine) Draw(playerID string) error {
	if e.phase != PhasePlaying {
		return ErrNotPlaying
	}
	if e.findSeat(playerID) == nil {
		return ErrUnknownPlayer
	}
	if playerID != e.CurrentPlayerID() {
		return ErrNotYourTurn
	}

	player := e.players[e.currentIndex]
	count := 1
	if e.pendingDraw > 0 {
		count = e.pendingDraw
	}

	for i := 0; i < count; i++ {
		e.ensureDrawPile()
		if len(e.drawPile) > 0 {
			player.hand = append(player.hand, e.popDraw())
		}
	}

	e.pendingDraw = 0
	e.pendingSkip = 0
	e.advanceTurn()
	return nil
}

// ensureDrawPile reshuffles the discard pile (minus its top card) into a new
// draw pile when the draw pile runs dry. If the discard pile holds only the
// top card there is nothing to reshuffle and the draw delivers fewer cards.
func (e *Engine) ensureDrawPile() {
	if len(e.drawPile) > 0 {
		return
	}
	if len(e.discardPile) <= 1 {
		return
	}

	top := e.discardPile[len(e.discardPile)-1]
	e.drawPile = e.discardPile[:len(e.discardPile)-1]
	rand.Shuffle(len(e.drawPile), func(i, j int) {
		e.drawPile[i], e.drawPile[j] = e.drawPile[j], e.drawPile[i]
	})
	e.discardPile = []Card{top}
}

// State returns the public view with no hand contents.
func (e *Engine) State() State {
	players := make([]PlayerPublic, len(e.players))
	for i, p := range e.players {
		players[i] = PlayerPublic{
			ID:        p.id,
			Username:  p.username,
			IsBot:     p.isBot,
			IsGuest:   p.isGuest,
			CardCount: len(p.hand),
		}
	}

	return State{
		Phase:            e.phase,
		Players:          players,
		CurrentPlayerID:  e.CurrentPlayerID(),
		TopCard:          e.topCard(),
		DrawPileCount:    len(e.drawPile),
		SuitOverride:     e.suitOverride,
		PendingDrawCount: e.pendingDraw,
		PendingSkipCount: e.pendingSkip,
		RuleVariant:      e.variant,
		WinnerID:         e.winnerID,
		Placements:       append([]string(nil), e.placements...),
	}
}

// PlayerView returns the public state plus a copy of the player's own hand.
func (e *Engine) PlayerView(playerID string) PlayerView {
	view := PlayerView{State: e.State()}
	if p := e.findSeat(playerID); p != nil {
		view.Hand = append([]Card(nil), p.hand...)
	}
	return view
}
