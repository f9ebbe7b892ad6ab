package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Outcome tells the caller what an operation did beyond mutating the game.
type Outcome struct {
	StageChanged bool
	HandOver     bool
	Locked       bool
	Violations   []string
	// Refunds holds stakes a cancelled hand returns to human seats that
	// have already left the table, by player ID.
	Refunds map[string]int
}

func (o *Outcome) violate(g *Game, now time.Time, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	o.Violations = append(o.Violations, msg)
	g.record(now, HistoryEntry{Type: HistInvariant, Message: msg})
}

func (g *Game) record(now time.Time, e HistoryEntry) {
	e.ID = uuid.NewString()
	e.Timestamp = now
	e.Stage = g.Stage
	g.ActionHistory = append(g.ActionHistory, e)
}

// NewGame builds an empty, unlocked lobby with a freshly shuffled deck.
func NewGame(code string, cfg Config, now time.Time, r Rand) *Game {
	return &Game{
		ID:            uuid.NewString(),
		Code:          code,
		Deck:          Shuffle(NewDeck(), r),
		Stage:         Preflop,
		SmallBlind:    cfg.SmallBlind,
		BigBlind:      cfg.BigBlind,
		MaxSeats:      cfg.MaxSeats,
		ActionHistory: []HistoryEntry{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Classify maps a chip amount from seat into the action it represents.
// A partial call is rejected unless it is the whole stack.
func (g *Game) Classify(seat, chips int) (ActionKind, error) {
	p := &g.Players[seat]
	toCall := g.ToCall(seat)
	switch {
	case chips < 0:
		return "", ErrInvalidAction
	case chips > p.ChipCount:
		return "", ErrInsufficientChips
	case chips > 0 && chips == p.ChipCount:
		return AllIn, nil
	case chips == 0 && toCall == 0:
		return Check, nil
	case chips < toCall:
		return "", ErrBetTooSmall
	case chips == toCall:
		return Call, nil
	case g.CurrentBet == 0:
		return Bet, nil
	}
	return Raise, nil
}

func (g *Game) actingSeat(playerID string) (int, error) {
	if !g.Locked {
		return -1, ErrGameNotLocked
	}
	if !g.handLive() {
		return -1, ErrHandOver
	}
	seat := g.SeatOf(playerID)
	if seat < 0 {
		return -1, ErrPlayerNotFound
	}
	if seat != g.CurrentPlayerIndex || !g.Players[seat].canAct() {
		return -1, ErrNotYourTurn
	}
	return seat, nil
}

// PlaceBet moves chips from the player's stack into the pot. Zero chips with
// nothing to call is a check.
func (g *Game) PlaceBet(playerID string, chips int, now time.Time) (Outcome, error) {
	var out Outcome
	seat, err := g.actingSeat(playerID)
	if err != nil {
		return out, err
	}
	kind, err := g.Classify(seat, chips)
	if err != nil {
		return out, err
	}
	g.apply(seat, kind, chips, now, &out)
	return out, nil
}

// AllIn commits the player's entire stack.
func (g *Game) AllIn(playerID string, now time.Time) (Outcome, error) {
	seat, err := g.actingSeat(playerID)
	if err != nil {
		return Outcome{}, err
	}
	return g.PlaceBet(playerID, g.Players[seat].ChipCount, now)
}

func (g *Game) Fold(playerID string, now time.Time) (Outcome, error) {
	var out Outcome
	seat, err := g.actingSeat(playerID)
	if err != nil {
		return out, err
	}
	g.apply(seat, Fold, 0, now, &out)
	return out, nil
}

func (g *Game) apply(seat int, kind ActionKind, chips int, now time.Time, out *Outcome) {
	p := &g.Players[seat]
	if kind == Fold {
		p.Folded = true
		p.HasActed = true
		g.record(now, HistoryEntry{Type: HistFold, PlayerID: p.ID})
		g.afterAction(seat, now, out)
		return
	}
	if chips > 0 {
		g.commit(seat, chips, now, out)
	}
	if g.PlayerBets[seat] > g.CurrentBet {
		g.CurrentBet = g.PlayerBets[seat]
		for i := range g.Players {
			if i != seat {
				g.Players[i].HasActed = false
			}
		}
	}
	p.HasActed = true
	g.record(now, HistoryEntry{Type: historyKindFor(kind), PlayerID: p.ID, BetAmount: chips})
	g.afterAction(seat, now, out)
}

// commit moves chips from a seat into the pot for the current stage.
func (g *Game) commit(seat, chips int, now time.Time, out *Outcome) {
	p := &g.Players[seat]
	if chips > p.ChipCount {
		out.violate(g, now, "seat %d committed %d with stack %d", seat, chips, p.ChipCount)
		chips = p.ChipCount
	}
	p.ChipCount -= chips
	p.TotalBet += chips
	g.PlayerBets[seat] += chips
	g.Pot = append(g.Pot, Contribution{PlayerID: p.ID, Stage: g.Stage, Chips: chips})
	if p.ChipCount == 0 {
		p.IsAllIn = true
		p.AllInAmount = p.TotalBet
	}
}

func (g *Game) afterAction(seat int, now time.Time, out *Outcome) {
	if g.activeCount() <= 1 {
		g.awardByFold(now, out)
		return
	}
	if g.roundComplete() {
		g.resolveRound(now, out)
		return
	}
	next := g.nextActor(seat)
	if next < 0 {
		g.resolveRound(now, out)
		return
	}
	g.CurrentPlayerIndex = next
}

func (g *Game) needsAction(i int) bool {
	p := &g.Players[i]
	return p.canAct() && (!p.HasActed || g.PlayerBets[i] < g.CurrentBet)
}

// nextActor finds the next seat after from that still owes a decision,
// skipping folded and all-in seats.
func (g *Game) nextActor(from int) int {
	n := len(g.Players)
	for k := 1; k <= n; k++ {
		if i := (from + k) % n; g.needsAction(i) {
			return i
		}
	}
	return -1
}

func (g *Game) canActCount() int {
	n := 0
	for i := range g.Players {
		if g.Players[i].canAct() {
			n++
		}
	}
	return n
}

func (g *Game) roundComplete() bool {
	open := 0
	lone := -1
	for i := range g.Players {
		if g.Players[i].canAct() {
			open++
			lone = i
		}
	}
	if open == 0 {
		return true
	}
	if open == 1 && g.PlayerBets[lone] >= g.CurrentBet {
		// nobody left to respond to a raise
		return true
	}
	for i := range g.Players {
		if g.needsAction(i) {
			return false
		}
	}
	return true
}

// resolveRound closes the betting round and moves to the next stage. When at
// most one seat can still bet, the board is run out to showdown.
func (g *Game) resolveRound(now time.Time, out *Outcome) {
	for {
		for i := range g.PlayerBets {
			g.PlayerBets[i] = 0
			g.Players[i].HasActed = false
		}
		g.CurrentBet = 0
		if g.Stage >= River {
			g.showdown(now, out)
			return
		}
		var (
			ok, short bool
			before    = len(g.CommunalCards)
		)
		g.Deck, g.CommunalCards, g.Stage, ok, short = DealCommunalCards(g.Deck, g.CommunalCards, g.Stage)
		if !ok {
			g.showdown(now, out)
			return
		}
		if short {
			out.violate(g, now, "deck exhausted revealing %s", g.Stage)
		}
		out.StageChanged = true
		revealed := append([]Card(nil), g.CommunalCards[before:]...)
		g.record(now, HistoryEntry{Type: HistReveal, Cards: revealed, Message: cardsString(revealed)})
		if g.canActCount() >= 2 {
			g.CurrentPlayerIndex = g.nextActor(g.DealerButtonPosition)
			return
		}
	}
}

func (g *Game) awardByFold(now time.Time, out *Outcome) {
	for i := range g.Players {
		p := &g.Players[i]
		if p.Folded || p.Left {
			continue
		}
		won := g.PotTotal()
		p.ChipCount += won
		g.Winner = &Winner{WinnerID: p.ID, ByFold: true, Awards: []PotAward{{Amount: won, Winners: []string{p.ID}}}}
		g.record(now, HistoryEntry{Type: HistWin, PlayerID: p.ID, BetAmount: won, Message: "uncontested"})
		break
	}
	g.finishHand(now, out)
}

type shown struct {
	seat int
	hand HandValue
}

func (g *Game) showdown(now time.Time, out *Outcome) {
	g.Stage = Showdown
	out.StageChanged = true

	live := map[string]shown{}
	var best *shown
	var tied []string
	for i := range g.Players {
		p := &g.Players[i]
		if p.Folded || p.Left {
			continue
		}
		all := append(append([]Card(nil), p.Hand...), g.CommunalCards...)
		s := shown{seat: i, hand: Evaluate(all)}
		live[p.ID] = s
		g.record(now, HistoryEntry{Type: HistShowdown, PlayerID: p.ID, Cards: p.Hand, Message: s.hand.Name})
		switch {
		case best == nil || Compare(s.hand, best.hand) > 0:
			cp := s
			best = &cp
			tied = []string{p.ID}
		case Compare(s.hand, best.hand) == 0:
			tied = append(tied, p.ID)
		}
	}

	bets := make([]int, len(g.Players))
	for i := range g.Players {
		bets[i] = g.Players[i].TotalBet
	}
	w := &Winner{}
	for _, pot := range CalculatePots(g.Players, bets) {
		eligible := pot.EligiblePlayerIDs
		if len(eligible) == 0 {
			out.violate(g, now, "pot of %d had no eligible player", pot.Amount)
			for id := range live {
				eligible = append(eligible, id)
			}
		}
		winners := g.bestOf(eligible, live)
		g.splitPot(pot.Amount, winners, now)
		w.Awards = append(w.Awards, PotAward{Amount: pot.Amount, Winners: winners})
	}

	if best != nil {
		w.HandRank = best.hand.Rank
		w.HandName = best.hand.Name
		p := &g.Players[best.seat]
		w.Description = Describe(append(append([]Card(nil), p.Hand...), g.CommunalCards...))
		if len(tied) > 1 {
			w.IsTie = true
			w.TiedPlayers = tied
		} else {
			w.WinnerID = p.ID
		}
	}
	g.Winner = w
	g.finishHand(now, out)
}

// bestOf returns the ids among eligible holding the best hand, in seat order.
func (g *Game) bestOf(eligible []string, live map[string]shown) []string {
	var winners []string
	var top HandValue
	for _, id := range eligible {
		s, ok := live[id]
		if !ok {
			continue
		}
		switch c := Compare(s.hand, top); {
		case len(winners) == 0 || c > 0:
			top = s.hand
			winners = []string{id}
		case c == 0:
			winners = append(winners, id)
		}
	}
	return winners
}

// splitPot divides amount evenly; odd chips go to the winners closest to the
// left of the button.
func (g *Game) splitPot(amount int, winners []string, now time.Time) {
	if len(winners) == 0 {
		return
	}
	share := amount / len(winners)
	odd := amount % len(winners)
	n := len(g.Players)
	for k := 1; k <= n; k++ {
		i := (g.DealerButtonPosition + k) % n
		p := &g.Players[i]
		for _, id := range winners {
			if id != p.ID {
				continue
			}
			won := share
			if odd > 0 {
				won++
				odd--
			}
			p.ChipCount += won
			g.record(now, HistoryEntry{Type: HistWin, PlayerID: p.ID, BetAmount: won})
		}
	}
}

func (g *Game) finishHand(now time.Time, out *Outcome) {
	g.Pot = nil
	for i := range g.PlayerBets {
		g.PlayerBets[i] = 0
	}
	g.CurrentBet = 0
	g.Stage = End
	g.ActionTimer = nil
	out.HandOver = true
	out.StageChanged = true
}

// LegalActions lists what playerID may do right now; nil when it is not
// their turn.
func (g *Game) LegalActions(playerID string) []ActionKind {
	seat, err := g.actingSeat(playerID)
	if err != nil {
		return nil
	}
	p := &g.Players[seat]
	toCall := g.ToCall(seat)
	out := []ActionKind{Fold}
	if toCall == 0 {
		out = append(out, Check)
	} else if p.ChipCount > toCall {
		out = append(out, Call)
	}
	if p.ChipCount > toCall {
		if g.CurrentBet == 0 {
			out = append(out, Bet)
		} else {
			out = append(out, Raise)
		}
	}
	return append(out, AllIn)
}

// CheckInvariants audits chip and card bookkeeping and records violations.
func (g *Game) CheckInvariants(now time.Time, out *Outcome) {
	if err := DeckIntact(g); err != nil {
		out.violate(g, now, "deck integrity: %v", err)
	}
	if len(g.PlayerBets) != len(g.Players) {
		out.violate(g, now, "playerBets has %d entries for %d seats", len(g.PlayerBets), len(g.Players))
		bets := make([]int, len(g.Players))
		copy(bets, g.PlayerBets)
		g.PlayerBets = bets
	}
	roundBets, roundPot := 0, 0
	for _, b := range g.PlayerBets {
		roundBets += b
	}
	perPlayer := map[string]int{}
	for _, c := range g.Pot {
		perPlayer[c.PlayerID] += c.Chips
		if c.Stage == g.Stage {
			roundPot += c.Chips
		}
	}
	if g.handLive() && roundBets != roundPot {
		out.violate(g, now, "round bets %d != round pot %d", roundBets, roundPot)
	}
	for i := range g.Players {
		p := &g.Players[i]
		if p.ChipCount < 0 {
			out.violate(g, now, "seat %d has negative stack %d", i, p.ChipCount)
			p.ChipCount = 0
		}
		if g.handLive() && perPlayer[p.ID] != p.TotalBet {
			out.violate(g, now, "seat %d total bet %d != pot share %d", i, p.TotalBet, perPlayer[p.ID])
		}
	}
	if g.handLive() && g.canActCount() > 0 {
		if cp := g.CurrentPlayer(); cp == nil || !cp.canAct() {
			out.violate(g, now, "current seat %d cannot act", g.CurrentPlayerIndex)
		}
	}
}
