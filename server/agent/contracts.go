package agent

import (
	"fmt"

	"poker-room/server/engine"
)

// Observation is everything a seat is allowed to see when it is asked to act.
type Observation struct {
	GameCode   string         `json:"game_code"`
	HandNumber int            `json:"hand_number"`
	PlayerID   string         `json:"player_id"`
	Seat       int            `json:"seat"`
	Street     string         `json:"street"`     // preflop|flop|turn|river
	HoleCards  []string       `json:"hole_cards"` // e.g. ["AS","KD"]
	Board      []string       `json:"board"`      // 0..5 cards
	Stacks     map[string]int `json:"stacks"`     // chips behind by player id
	Blinds     map[string]int `json:"blinds"`     // {sb, bb}
	Pot        int            `json:"pot"`
	CurrentBet int            `json:"current_bet"`
	ToCall     int            `json:"to_call"`
	MaxBet     int            `json:"max_bet"` // chips behind
	Legal      []string       `json:"legal_actions"`
	HistoryLen int            `json:"history_len"`
}

type ActionOut struct {
	Action  string `json:"action"`           // fold|check|call|bet|raise|all-in
	Amount  *int   `json:"amount,omitempty"` // chips to add; required for bet and raise
	Comment string `json:"comment,omitempty"`
}

// BuildObservation converts game state into the view of playerID.
func BuildObservation(g *engine.Game, playerID string) (Observation, error) {
	seat := g.SeatOf(playerID)
	if seat < 0 {
		return Observation{}, engine.ErrPlayerNotFound
	}
	p := g.Players[seat]

	legal := []string{}
	for _, k := range g.LegalActions(playerID) {
		legal = append(legal, string(k))
	}
	stacks := make(map[string]int, len(g.Players))
	for _, o := range g.Players {
		stacks[o.ID] = o.ChipCount
	}

	return Observation{
		GameCode:   g.Code,
		HandNumber: g.HandNumber,
		PlayerID:   p.ID,
		Seat:       seat,
		Street:     g.Stage.String(),
		HoleCards:  cardsToStr(p.Hand),
		Board:      cardsToStr(g.CommunalCards),
		Stacks:     stacks,
		Blinds:     map[string]int{"sb": g.SmallBlind, "bb": g.BigBlind},
		Pot:        g.PotTotal(),
		CurrentBet: g.CurrentBet,
		ToCall:     g.ToCall(seat),
		MaxBet:     p.ChipCount,
		Legal:      legal,
		HistoryLen: len(g.ActionHistory),
	}, nil
}

func cardsToStr(cs []engine.Card) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.String()
	}
	return out
}

// Out renders a decision in the wire form Validate checks.
func (d Decision) Out() ActionOut {
	a := ActionOut{Action: string(d.Kind), Comment: d.Reason}
	if d.Amount > 0 {
		amt := d.Amount
		a.Amount = &amt
	}
	return a
}

// Validate checks an action against the observation it answers.
func Validate(o Observation, a ActionOut) error {
	ok := false
	for _, la := range o.Legal {
		if la == a.Action {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("illegal action %q (legals: %v)", a.Action, o.Legal)
	}

	switch engine.ActionKind(a.Action) {
	case engine.Bet, engine.Raise:
		if a.Amount == nil {
			return fmt.Errorf("%s requires amount", a.Action)
		}
		if *a.Amount <= o.ToCall || *a.Amount > o.MaxBet {
			return fmt.Errorf("%s amount %d out of bounds (%d, %d]", a.Action, *a.Amount, o.ToCall, o.MaxBet)
		}
	case engine.Call:
		if a.Amount != nil && *a.Amount != o.ToCall {
			return fmt.Errorf("call amount %d, owe %d", *a.Amount, o.ToCall)
		}
	}
	return nil
}

// Chips is the PlaceBet amount for a validated action.
func Chips(o Observation, a ActionOut) int {
	switch engine.ActionKind(a.Action) {
	case engine.Call:
		return o.ToCall
	case engine.AllIn:
		return o.MaxBet
	case engine.Bet, engine.Raise:
		return *a.Amount
	}
	return 0
}
