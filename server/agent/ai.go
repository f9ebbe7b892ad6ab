package agent

import (
	"fmt"

	"poker-room/server/engine"
)

// Tier buckets hand strength for the policy.
type Tier int

const (
	Trash Tier = iota
	Weak
	Marginal
	Decent
	Strong
	Monster
)

func (t Tier) String() string {
	switch t {
	case Trash:
		return "trash"
	case Weak:
		return "weak"
	case Marginal:
		return "marginal"
	case Decent:
		return "decent"
	case Strong:
		return "strong"
	case Monster:
		return "monster"
	}
	return "unknown"
}

// Rand is the randomness the policy draws on; *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Decision is what the AI wants to do. Amount is the chips to add from the
// stack this action, in the same units PlaceBet takes.
type Decision struct {
	Kind   engine.ActionKind
	Amount int
	Tier   Tier
	Reason string
}

// base fold/call/raise weights and a rough equity per tier
var tierWeights = [...]struct{ fold, call, raise, equity float64 }{
	Trash:    {0.85, 0.15, 0.00, 0.10},
	Weak:     {0.60, 0.35, 0.05, 0.22},
	Marginal: {0.35, 0.50, 0.15, 0.35},
	Decent:   {0.15, 0.60, 0.25, 0.50},
	Strong:   {0.05, 0.40, 0.55, 0.68},
	Monster:  {0.00, 0.20, 0.80, 0.88},
}

// Decide picks an action for seat. aggression runs 0 (passive) to 1
// (maniac); 0.5 is neutral. All randomness comes from rng.
func Decide(seat engine.Player, communal []engine.Card, currentBet, potSize, seatBet int, stage engine.Stage, aggression float64, rng Rand) Decision {
	if seat.ChipCount <= 0 {
		return Decision{Kind: engine.Check, Reason: "no chips behind"}
	}
	aggression = clamp(aggression, 0, 1)
	tier := Strength(seat.Hand, communal, stage)
	toCall := currentBet - seatBet
	if toCall < 0 {
		toCall = 0
	}

	if toCall >= seat.ChipCount {
		shove := tier >= Strong || (tier == Decent && rng.Float64() < 0.2+0.4*aggression)
		if shove {
			return Decision{Kind: engine.AllIn, Amount: seat.ChipCount, Tier: tier, Reason: "calling off the stack"}
		}
		return Decision{Kind: engine.Fold, Tier: tier, Reason: "cannot cover the bet"}
	}

	w := tierWeights[tier]
	fold, call, raise := w.fold, w.call, w.raise
	raise *= 0.5 + aggression
	fold *= 1.5 - aggression

	odds := 0.0
	if toCall > 0 {
		odds = float64(toCall) / float64(potSize+toCall)
		if gap := w.equity - odds; gap > 0 {
			call += gap
			fold -= gap * 0.8
		} else {
			fold -= gap
		}
	}
	if fold < 0 {
		fold = 0
	}
	if total := fold + call + raise; total > 0 {
		fold, call, raise = fold/total, call/total, raise/total
	}

	r := rng.Float64()
	if toCall == 0 {
		// the big blind's option reopens with a raise, not a bet
		open := engine.Bet
		if currentBet > 0 {
			open = engine.Raise
		}
		switch {
		case tier == Monster && r < 0.25:
			return Decision{Kind: engine.Check, Tier: tier, Reason: "slow-playing"}
		case tier == Trash && r < 0.15*aggression:
			return sized(seat, open, 0, potSize, 0.5, tier, "bluff")
		case r < raise+call*0.25*aggression:
			return sized(seat, open, 0, potSize, betFraction(tier, rng), tier, "value bet")
		}
		return Decision{Kind: engine.Check, Tier: tier, Reason: "check"}
	}

	switch {
	case r < fold:
		return Decision{Kind: engine.Fold, Tier: tier, Reason: fmt.Sprintf("pot odds %.2f too thin", odds)}
	case r < fold+call:
		return Decision{Kind: engine.Call, Amount: toCall, Tier: tier, Reason: fmt.Sprintf("pot odds %.2f", odds)}
	}
	return sized(seat, engine.Raise, toCall, potSize+toCall, betFraction(tier, rng), tier, "raise for value")
}

func betFraction(t Tier, rng Rand) float64 {
	if t >= Strong {
		return 0.6 + rng.Float64()*0.4
	}
	return 0.4 + rng.Float64()*0.3
}

// sized builds a bet or raise of roughly frac of the pot on top of toCall.
// Anything that reaches the stack becomes all-in.
func sized(seat engine.Player, kind engine.ActionKind, toCall, pot int, frac float64, tier Tier, reason string) Decision {
	extra := int(float64(pot) * frac)
	if extra < toCall {
		extra = toCall
	}
	if extra < 1 {
		extra = 1
	}
	amount := toCall + extra
	if amount >= seat.ChipCount {
		return Decision{Kind: engine.AllIn, Amount: seat.ChipCount, Tier: tier, Reason: reason + ", all in"}
	}
	return Decision{Kind: kind, Amount: amount, Tier: tier, Reason: reason}
}

// Strength classifies hole cards plus board into a tier.
func Strength(hand, communal []engine.Card, stage engine.Stage) Tier {
	if len(hand) != 2 {
		return Trash
	}
	if len(communal) < 3 || stage == engine.Preflop {
		return preflopTier(hand[0], hand[1])
	}

	all := append(append([]engine.Card(nil), hand...), communal...)
	hv := engine.Evaluate(all)
	var t Tier
	switch hv.Rank {
	case engine.HighCard:
		t = Trash
	case engine.OnePair:
		t = Weak
		if hv.Values[0] >= 10 {
			t = Marginal
		}
	case engine.TwoPair:
		t = Decent
	case engine.ThreeOfAKind, engine.Straight, engine.Flush:
		t = Strong
	default:
		t = Monster
	}

	// weak made hands lose value as the board fills
	if hv.Rank <= engine.OnePair {
		switch stage {
		case engine.Turn:
			t--
		case engine.River:
			t -= 2
		}
	}
	// no credit for what the board holds on its own
	if board := engine.Evaluate(communal); board.Rank == hv.Rank && t > Weak {
		t -= 2
	}
	if t < Trash {
		t = Trash
	}
	return t
}

func preflopTier(a, b engine.Card) Tier {
	hi, lo := a.HighRank(), b.HighRank()
	if lo > hi {
		hi, lo = lo, hi
	}
	suited := a.Suit == b.Suit
	gap := hi - lo
	switch {
	case hi == lo && hi >= 11:
		return Monster
	case hi == lo && hi >= 8:
		return Strong
	case hi == lo:
		return Decent
	case lo >= 10 && suited:
		return Strong
	case lo >= 10:
		return Decent
	case suited && (gap <= 1 || hi == 14):
		return Marginal
	case hi >= 12 || gap == 1:
		return Weak
	}
	return Trash
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
