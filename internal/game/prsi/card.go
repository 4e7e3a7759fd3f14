// Package prsi implements the rules of the Czech card game Prší:
// the 32-card deck, the match engine and a simple bot.
package prsi

// Suit is one of the four Czech card suits.
type Suit string

const (
	SuitCerveny Suit = "cerveny"
	SuitZeleny  Suit = "zeleny"
	SuitKule    Suit = "kule"
	SuitZaludy  Suit = "zaludy"

	// SuitNone marks "no suit override".
	SuitNone Suit = ""
)

// Rank is one of the eight card ranks.
type Rank string

const (
	Rank7      Rank = "7"      // forces the next player to draw 2 (stacks)
	Rank8      Rank = "8"
	Rank9      Rank = "9"
	Rank10     Rank = "10"
	RankSpodek Rank = "spodek"
	RankSvrsek Rank = "svrsek" // wildcard, declares a new active suit
	RankKral   Rank = "kral"
	RankEso    Rank = "eso"    // skips the next player (can be countered)
)

// Suits lists all suits in canonical order.
var Suits = []Suit{SuitCerveny, SuitZeleny, SuitKule, SuitZaludy}

// Ranks lists all ranks in canonical order.
var Ranks = []Rank{Rank7, Rank8, Rank9, Rank10, RankSpodek, RankSvrsek, RankKral, RankEso}

// Card is an immutable suit and rank pair.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

func (c Card) String() string {
	return string(c.Suit) + " " + string(c.Rank)
}

// IsSpecial reports whether the card has an effect when played.
func (c Card) IsSpecial() bool {
	return c.Rank == Rank7 || c.Rank == RankEso || c.Rank == RankSvrsek
}

// DeckSize is the fixed number of cards in a Prší deck.
const DeckSize = 32

// NewDeck returns the full 32-card deck in canonical order.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for _, r := range Ranks {
			deck = append(deck, Card{Suit: s, Rank: r})
		}
	}
	return deck
}

// ValidSuit reports whether s is a playable suit value.
func ValidSuit(s Suit) bool {
	for _, known := range Suits {
		if s == known {
			return true
		}
	}
	return false
}

// ValidRank reports whether r is a known rank value.
func ValidRank(r Rank) bool {
	for _, known := range Ranks {
		if r == known {
			return true
		}
	}
	return false
}
