package engine

import (
	"fmt"

	poker "github.com/paulhankin/poker"
)

// Convert engine.Card -> library card. Both use Ace=1 and clubs..spades.
func toPH(c Card) (poker.Card, error) {
	var s poker.Suit
	switch c.Suit {
	case Clubs:
		s = poker.Club
	case Diamonds:
		s = poker.Diamond
	case Hearts:
		s = poker.Heart
	default:
		s = poker.Spade
	}
	return poker.MakeCard(s, poker.Rank(c.Rank))
}

func fromPH(pc poker.Card) Card {
	return Card{Rank: int(pc.Rank()), Suit: Suit(pc.Suit())}
}

// LibCards converts cards for the poker library.
func LibCards(cards []Card) ([]poker.Card, error) {
	out := make([]poker.Card, len(cards))
	for i, c := range cards {
		pc, err := toPH(c)
		if err != nil {
			return nil, err
		}
		out[i] = pc
	}
	return out, nil
}

// best5 scores five to seven cards and returns the library's example of the
// best five-card hand. Suits in the example only matter for flushes.
func best5(cards []Card) (int16, []Card, error) {
	pcs, err := LibCards(cards)
	if err != nil {
		return 0, nil, err
	}
	var score int16
	switch len(pcs) {
	case 7:
		var a7 [7]poker.Card
		copy(a7[:], pcs)
		score = poker.Eval7(&a7)
	case 5:
		var a5 [5]poker.Card
		copy(a5[:], pcs)
		score = poker.Eval5(&a5)
	case 6:
		score = bestOfFiveSubsets(pcs)
	default:
		return 0, nil, fmt.Errorf("cannot score %d cards", len(pcs))
	}
	hand, ok := poker.EvalToHand5(score)
	if !ok {
		return 0, nil, fmt.Errorf("no hand for score %d", score)
	}
	five := make([]Card, len(hand))
	for i, pc := range hand {
		five[i] = fromPH(pc)
	}
	return score, five, nil
}

func bestOfFiveSubsets(pcs []poker.Card) int16 {
	n := len(pcs)
	var best int16 = -1
	choose := [5]int{}
	var five [5]poker.Card
	var rec func(start, k int)
	rec = func(start, k int) {
		if k == 5 {
			for i := 0; i < 5; i++ {
				five[i] = pcs[choose[i]]
			}
			if score := poker.Eval5(&five); score > best {
				best = score
			}
			return
		}
		for i := start; i <= n-(5-k); i++ {
			choose[k] = i
			rec(i+1, k+1)
		}
	}
	rec(0, 0)
	return best
}

// Describe returns the library's human description of the best hand in
// cards, e.g. "KKK-22". Falls back to the rank name.
func Describe(cards []Card) string {
	_, five, err := best5(cards)
	if err != nil {
		return Evaluate(cards).Name
	}
	pcs, err := LibCards(five)
	if err != nil {
		return Evaluate(cards).Name
	}
	d, err := poker.Describe(pcs)
	if err != nil || d == "" {
		return Evaluate(cards).Name
	}
	return d
}
