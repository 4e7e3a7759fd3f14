package prsi

import "testing"

func botState(top Card) State {
	return State{
		Phase:   PhasePlaying,
		TopCard: &top,
	}
}

func TestBotCountersPendingSevenOrDraws(t *testing.T) {
	st := botState(Card{SuitCerveny, Rank7})
	st.PendingDrawCount = 2

	act := ChooseAction(st, []Card{{SuitZeleny, Rank9}, {SuitKule, Rank7}})
	if act.Type != ActionPlay || act.Card.Rank != Rank7 {
		t.Fatalf("with a 7 in hand got %+v, want to stack the 7", act)
	}

	act = ChooseAction(st, []Card{{SuitZeleny, Rank9}, {SuitCerveny, RankKral}})
	if act.Type != ActionDraw {
		t.Fatalf("without a 7 got %+v, want draw", act)
	}
}

func TestBotCountersPendingEsoOrDraws(t *testing.T) {
	st := botState(Card{SuitCerveny, RankEso})
	st.PendingSkipCount = 1

	act := ChooseAction(st, []Card{{SuitKule, RankEso}, {SuitCerveny, Rank9}})
	if act.Type != ActionPlay || act.Card.Rank != RankEso {
		t.Fatalf("with an eso in hand got %+v, want to forward the skip", act)
	}

	act = ChooseAction(st, []Card{{SuitCerveny, Rank9}})
	if act.Type != ActionDraw {
		t.Fatalf("without an eso got %+v, want draw", act)
	}
}

func TestBotPlaysSevenOffensively(t *testing.T) {
	st := botState(Card{SuitCerveny, Rank10})

	act := ChooseAction(st, []Card{
		{SuitCerveny, Rank7},
		{SuitCerveny, Rank9},
		{SuitZaludy, RankKral},
	})
	if act.Type != ActionPlay || act.Card.Rank != Rank7 {
		t.Fatalf("got %+v, want the 7 first", act)
	}
}

func TestBotSvrsekPicksMostCommonSuit(t *testing.T) {
	st := botState(Card{SuitCerveny, Rank10})

	act := ChooseAction(st, []Card{
		{SuitZaludy, RankSvrsek},
		{SuitKule, Rank8},
		{SuitKule, Rank9},
		{SuitZeleny, RankKral},
	})
	if act.Type != ActionPlay || act.Card.Rank != RankSvrsek {
		t.Fatalf("got %+v, want svršek", act)
	}
	if act.SuitOverride != SuitKule {
		t.Fatalf("suitOverride = %q, want kule (two in hand)", act.SuitOverride)
	}
}

func TestBotPrefersNonSpecialFromDominantSuit(t *testing.T) {
	st := botState(Card{SuitKule, Rank10})

	// Only one card in hand would win the game, so specials stay pocketed and
	// the bot sheds from the suit it holds most of.
	act := ChooseAction(st, []Card{
		{SuitKule, Rank9},
		{SuitZeleny, Rank10},
		{SuitZeleny, Rank8},
		{SuitZeleny, RankKral},
	})
	if act.Type != ActionPlay {
		t.Fatalf("got %+v, want a play", act)
	}
	if act.Card != (Card{SuitZeleny, Rank10}) {
		t.Fatalf("played %v, want zeleny 10 (dominant suit, matches rank)", act.Card)
	}
}

func TestBotDrawsWithNoLegalCard(t *testing.T) {
	st := botState(Card{SuitKule, Rank10})

	act := ChooseAction(st, []Card{{SuitZeleny, Rank8}, {SuitCerveny, Rank9}})
	if act.Type != ActionDraw {
		t.Fatalf("got %+v, want draw", act)
	}
}

func TestBotLastCardSvrsekDeclaresSuit(t *testing.T) {
	st := botState(Card{SuitKule, Rank10})

	act := ChooseAction(st, []Card{{SuitZaludy, RankSvrsek}})
	if act.Type != ActionPlay || act.Card.Rank != RankSvrsek {
		t.Fatalf("got %+v, want svršek", act)
	}
	if !ValidSuit(act.SuitOverride) {
		t.Fatalf("suitOverride = %q, want a valid suit", act.SuitOverride)
	}
}
