package engine

import "fmt"

// pop removes up to n cards from the front of the deck. A short deck is an
// invariant violation; the caller gets what is left.
func pop(deck []Card, n int) (dealt, rest []Card, short bool) {
	if n > len(deck) {
		return append([]Card(nil), deck...), deck[:0], true
	}
	return append([]Card(nil), deck[:n]...), deck[n:], false
}

// DealPlayerCards deals perPlayer cards one at a time around the table,
// starting left of the button and skipping seats that sit this hand out.
func DealPlayerCards(deck []Card, players []Player, button, perPlayer int) ([]Card, bool) {
	n := len(players)
	if n == 0 {
		return deck, false
	}
	short := false
	for round := 0; round < perPlayer; round++ {
		for k := 1; k <= n; k++ {
			p := &players[(button+k)%n]
			if p.Folded || p.Left {
				continue
			}
			var c []Card
			var s bool
			c, deck, s = pop(deck, 1)
			if s {
				short = true
				continue
			}
			p.Hand = append(p.Hand, c...)
		}
	}
	return deck, short
}

// DealCommunalCards reveals the cards for the stage after stage. ok is false
// when stage is River or later and nothing more is dealt.
func DealCommunalCards(deck, communal []Card, stage Stage) (newDeck, newCommunal []Card, next Stage, ok, short bool) {
	var n int
	switch stage {
	case Preflop:
		n = 3
	case Flop, Turn:
		n = 1
	default:
		return deck, communal, stage, false, false
	}
	dealt, rest, short := pop(deck, n)
	return rest, append(communal, dealt...), stage + 1, true, short
}

// CollectAllCards gathers deck, board and hands back into one pile and clears
// the board and hands.
func CollectAllCards(g *Game) []Card {
	all := make([]Card, 0, 52)
	all = append(all, g.Deck...)
	all = append(all, g.CommunalCards...)
	for i := range g.Players {
		all = append(all, g.Players[i].Hand...)
		g.Players[i].Hand = nil
	}
	g.CommunalCards = nil
	g.Deck = nil
	return all
}

// ReshuffleAllCards collects every card and shuffles a full deck back in.
// A pile that is not exactly 52 cards is replaced by a fresh deck.
func ReshuffleAllCards(g *Game, r Rand) error {
	all := CollectAllCards(g)
	var err error
	if len(all) != 52 {
		err = fmt.Errorf("collected %d cards, rebuilt deck", len(all))
		all = NewDeck()
	}
	g.Deck = Shuffle(all, r)
	return err
}
