package prsi

// ActionType tags a player action.
type ActionType string

const (
	ActionPlay ActionType = "play"
	ActionDraw ActionType = "draw"
)

// Action is a single move: play a card (with a declared suit for svršek) or
// draw from the pile.
type Action struct {
	Type         ActionType `json:"type"`
	Card         Card       `json:"card,omitempty"`
	SuitOverride Suit       `json:"suitOverride,omitempty"`
}

// ChooseAction picks a move for a bot-controlled seat. It is a pure function
// of the public state and the hand, which keeps it trivial to test.
//
// Priorities: counter a pending 7 if possible, otherwise draw; play 7/eso
// offensively while holding more than one card; svršek declares the suit the
// hand holds most of; otherwise prefer a non-special card from the most-held
// suit, first match wins ties.
func ChooseAction(state State, hand []Card) Action {
	top := state.TopCard
	if top == nil {
		return Action{Type: ActionDraw}
	}

	activeSuit := top.Suit
	if state.SuitOverride != SuitNone {
		activeSuit = state.SuitOverride
	}

	if state.PendingDrawCount > 0 {
		for _, c := range hand {
			if c.Rank == Rank7 {
				return Action{Type: ActionPlay, Card: c}
			}
		}
		return Action{Type: ActionDraw}
	}

	if state.PendingSkipCount > 0 {
		for _, c := range hand {
			if c.Rank == RankEso {
				return Action{Type: ActionPlay, Card: c}
			}
		}
		return Action{Type: ActionDraw}
	}

	playable := make([]Card, 0, len(hand))
	for _, c := range hand {
		if canPlay(c, *top, activeSuit) {
			playable = append(playable, c)
		}
	}
	if len(playable) == 0 {
		return Action{Type: ActionDraw}
	}

	if act, ok := pickSpecial(playable, hand); ok {
		return act
	}

	best := pickBest(playable, hand)
	act := Action{Type: ActionPlay, Card: best}
	if best.Rank == RankSvrsek {
		// last-card svršek still has to declare a suit
		act.SuitOverride = mostCommonSuit(hand)
	}
	return act
}

func canPlay(c, top Card, activeSuit Suit) bool {
	if c.Rank == RankSvrsek {
		return true
	}
	return c.Suit == activeSuit || c.Rank == top.Rank
}

// pickSpecial plays 7 or eso while the hand is big enough that the bot is not
// about to win anyway, and svršek with the hand's dominant suit.
func pickSpecial(playable, hand []Card) (Action, bool) {
	if len(hand) > 1 {
		for _, c := range playable {
			if c.Rank == Rank7 {
				return Action{Type: ActionPlay, Card: c}, true
			}
		}
		for _, c := range playable {
			if c.Rank == RankEso {
				return Action{Type: ActionPlay, Card: c}, true
			}
		}
		for _, c := range playable {
			if c.Rank == RankSvrsek {
				return Action{
					Type:         ActionPlay,
					Card:         c,
					SuitOverride: mostCommonSuit(hand),
				}, true
			}
		}
	}
	return Action{}, false
}

// pickBest saves special cards for later and keeps the hand flexible by
// shedding from the suit it holds the most of.
func pickBest(playable, hand []Card) Card {
	candidates := make([]Card, 0, len(playable))
	for _, c := range playable {
		if !c.IsSpecial() {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		candidates = playable
	}

	counts := suitCounts(hand)
	best := candidates[0]
	for _, c := range candidates[1:] {
		if counts[c.Suit] > counts[best.Suit] {
			best = c
		}
	}
	return best
}

// mostCommonSuit counts non-svršek cards; svršeks follow any suit so they
// should not vote.
func mostCommonSuit(hand []Card) Suit {
	counts := map[Suit]int{}
	for _, c := range hand {
		if c.Rank != RankSvrsek {
			counts[c.Suit]++
		}
	}

	best := Suits[0]
	bestCount := 0
	for _, s := range Suits {
		if counts[s] > bestCount {
			best = s
			bestCount = counts[s]
		}
	}
	return best
}

func suitCounts(hand []Card) map[Suit]int {
	counts := map[Suit]int{}
	for _, c := range hand {
		counts[c.Suit]++
	}
	return counts
}
