package engine

import (
	"fmt"
	"time"
)

// AddPlayer seats p at the end of the lobby.
func (g *Game) AddPlayer(p Player, now time.Time) error {
	if g.Locked {
		return ErrGameLocked
	}
	if g.SeatOf(p.ID) >= 0 {
		return ErrAlreadySeated
	}
	if len(g.Players) >= g.MaxSeats {
		return ErrTableFull
	}
	p.Hand = nil
	p.Folded, p.IsAllIn, p.HasActed, p.Left = false, false, false, false
	p.AllInAmount, p.TotalBet = 0, 0
	g.Players = append(g.Players, p)
	g.PlayerBets = append(g.PlayerBets, 0)
	g.record(now, HistoryEntry{Type: HistJoin, PlayerID: p.ID, BetAmount: p.ChipCount, Message: p.Username})
	return nil
}

// RemovePlayer takes a seat out of the lobby. During a locked game the seat
// is folded and marked Left instead; it is dropped at the next restart.
func (g *Game) RemovePlayer(playerID string, now time.Time, r Rand) (Outcome, error) {
	var out Outcome
	seat := g.SeatOf(playerID)
	if seat < 0 {
		return out, ErrPlayerNotFound
	}
	if !g.Locked {
		g.Players = append(g.Players[:seat], g.Players[seat+1:]...)
		if seat < len(g.PlayerBets) {
			g.PlayerBets = append(g.PlayerBets[:seat], g.PlayerBets[seat+1:]...)
		}
		g.record(now, HistoryEntry{Type: HistLeave, PlayerID: playerID})
		if len(g.Players) == 0 {
			g.ResetToLobby(now, r)
		}
		return out, nil
	}

	p := &g.Players[seat]
	if p.Left {
		return out, nil
	}
	live := g.handLive() && !p.Folded
	p.Left = true
	p.Folded = true
	g.record(now, HistoryEntry{Type: HistLeave, PlayerID: playerID})
	if !live {
		return out, nil
	}
	if g.activeCount() <= 1 {
		g.awardByFold(now, &out)
		return out, nil
	}
	if seat == g.CurrentPlayerIndex || g.roundComplete() {
		g.afterAction(seat, now, &out)
	}
	return out, nil
}

// ResetToLobby empties the table back to a fresh unlocked game with the same
// identity and code.
func (g *Game) ResetToLobby(now time.Time, r Rand) {
	g.Players = nil
	g.PlayerBets = nil
	g.Deck = Shuffle(NewDeck(), r)
	g.CommunalCards = nil
	g.Pot = nil
	g.Stage = Preflop
	g.Locked = false
	g.CurrentPlayerIndex = 0
	g.CurrentBet = 0
	g.ActionTimer = nil
	g.ActionHistory = []HistoryEntry{}
	g.Winner = nil
	g.DealerButtonPosition = 0
	g.HandNumber = 0
}

func (g *Game) funded(i int) bool {
	p := &g.Players[i]
	return p.ChipCount > 0 && !p.Left
}

func (g *Game) fundedCount() int {
	n := 0
	for i := range g.Players {
		if g.funded(i) {
			n++
		}
	}
	return n
}

// nextFunded returns the first seat after from holding chips.
func (g *Game) nextFunded(from int) int {
	n := len(g.Players)
	for k := 1; k <= n; k++ {
		if i := ((from+k)%n + n) % n; g.funded(i) {
			return i
		}
	}
	return -1
}

// Lock closes the lobby and starts the first hand.
func (g *Game) Lock(now time.Time) (Outcome, error) {
	var out Outcome
	if g.Locked {
		return out, ErrGameLocked
	}
	if g.fundedCount() < 2 {
		return out, ErrNotEnoughPlayers
	}
	g.Locked = true
	out.Locked = true
	g.record(now, HistoryEntry{Type: HistLock, Message: fmt.Sprintf("%d seats", len(g.Players))})
	g.startHand(now, &out)
	return out, nil
}

// startHand deals hole cards and posts blinds: the button seat posts the
// small blind and the next funded seat the big blind.
func (g *Game) startHand(now time.Time, out *Outcome) {
	g.HandNumber++
	g.Winner = nil
	g.Pot = nil
	g.CurrentBet = 0
	g.Stage = Preflop
	g.PlayerBets = make([]int, len(g.Players))
	for i := range g.Players {
		p := &g.Players[i]
		p.Folded = !g.funded(i)
		p.IsAllIn, p.HasActed = false, false
		p.AllInAmount, p.TotalBet = 0, 0
	}

	sb := g.nextFunded(g.DealerButtonPosition - 1)
	g.DealerButtonPosition = sb
	var short bool
	// deal from the seat before the button so the small blind gets the first card
	g.Deck, short = DealPlayerCards(g.Deck, g.Players, sb-1+len(g.Players), 2)
	if short {
		out.violate(g, now, "deck exhausted dealing hand %d", g.HandNumber)
	}
	g.record(now, HistoryEntry{Type: HistDeal, Message: fmt.Sprintf("hand %d", g.HandNumber)})

	bb := g.nextFunded(sb)
	g.postBlind(sb, g.SmallBlind, HistSmallBlind, now, out)
	g.postBlind(bb, g.BigBlind, HistBigBlind, now, out)
	for _, b := range g.PlayerBets {
		if b > g.CurrentBet {
			g.CurrentBet = b
		}
	}
	g.CurrentPlayerIndex = bb
	if g.roundComplete() {
		g.resolveRound(now, out)
		return
	}
	g.CurrentPlayerIndex = g.nextActor(bb)
}

func (g *Game) postBlind(seat, amount int, kind HistoryKind, now time.Time, out *Outcome) {
	p := &g.Players[seat]
	if amount > p.ChipCount {
		amount = p.ChipCount
	}
	g.commit(seat, amount, now, out)
	g.record(now, HistoryEntry{Type: kind, PlayerID: p.ID, BetAmount: amount, IsBlind: true})
}

// Restart ends the current hand and starts the next one. An unfinished pot is
// returned to its contributors; stakes of departed seats are reported in
// Outcome.Refunds since those seats are dropped here.
func (g *Game) Restart(now time.Time, r Rand) (Outcome, error) {
	var out Outcome
	if !g.Locked {
		return out, ErrGameNotLocked
	}
	if g.Winner == nil {
		for i := range g.Players {
			p := &g.Players[i]
			if !p.Left {
				p.ChipCount += p.TotalBet
				continue
			}
			if p.TotalBet > 0 && !p.IsAI {
				if out.Refunds == nil {
					out.Refunds = map[string]int{}
				}
				out.Refunds[p.ID] += p.TotalBet
			}
		}
	}
	if err := ReshuffleAllCards(g, r); err != nil {
		out.violate(g, now, "reshuffle: %v", err)
	}

	buttonID := ""
	if b := g.DealerButtonPosition; b >= 0 && b < len(g.Players) {
		buttonID = g.Players[b].ID
	}
	kept := g.Players[:0]
	for _, p := range g.Players {
		if !p.Left {
			kept = append(kept, p)
		}
	}
	g.Players = kept

	g.Pot = nil
	g.PlayerBets = make([]int, len(g.Players))
	g.CurrentBet = 0
	g.ActionTimer = nil
	g.ActionHistory = []HistoryEntry{}
	g.Winner = nil
	g.Stage = Preflop
	for i := range g.Players {
		p := &g.Players[i]
		p.Folded, p.IsAllIn, p.HasActed = false, false, false
		p.AllInAmount, p.TotalBet = 0, 0
	}
	out.StageChanged = true

	if len(g.Players) == 0 {
		g.ResetToLobby(now, r)
		return out, nil
	}
	if g.fundedCount() < 2 {
		g.Locked = false
		g.CurrentPlayerIndex = 0
		g.DealerButtonPosition = 0
		return out, nil
	}

	// the button moves to the first funded seat after the old one
	prev := g.SeatOf(buttonID)
	if prev < 0 {
		prev = g.DealerButtonPosition - 1
	}
	g.DealerButtonPosition = g.nextFunded(prev)
	g.startHand(now, &out)
	return out, nil
}

// Deal hands out missing hole cards to live seats. It is a recovery path for
// hands that were dealt short.
func (g *Game) Deal(now time.Time) (Outcome, error) {
	var out Outcome
	if !g.Locked {
		return out, ErrGameNotLocked
	}
	if !g.handLive() {
		return out, ErrHandOver
	}
	dealt := 0
	n := len(g.Players)
	for pass := 0; pass < 2; pass++ {
		for k := 1; k <= n; k++ {
			p := &g.Players[(g.DealerButtonPosition-1+k+n)%n]
			if p.Folded || p.Left || len(p.Hand) >= 2 {
				continue
			}
			var c []Card
			var short bool
			c, g.Deck, short = pop(g.Deck, 1)
			if short {
				out.violate(g, now, "deck exhausted on manual deal")
				continue
			}
			p.Hand = append(p.Hand, c...)
			dealt++
		}
	}
	if dealt == 0 {
		return out, ErrNothingToDeal
	}
	g.record(now, HistoryEntry{Type: HistRedeal, Message: fmt.Sprintf("%d cards", dealt)})
	return out, nil
}
