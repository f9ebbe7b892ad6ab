package engine

import (
	"time"

	"github.com/google/uuid"
)

// ArmTimer replaces any timer on the game with a fresh one. The new ID makes
// callbacks scheduled for the old timer no-ops.
func (g *Game) ArmTimer(kind TimerKind, target string, d time.Duration, now time.Time) *ActionTimer {
	g.ActionTimer = &ActionTimer{
		ID:             uuid.NewString(),
		StartTime:      now,
		Duration:       d,
		TargetPlayerID: target,
		ActionType:     kind,
	}
	return g.ActionTimer
}

// ArmTurnTimer arms a turn timer for the seat to act, or clears the timer when
// nobody can act.
func (g *Game) ArmTurnTimer(d time.Duration, now time.Time) *ActionTimer {
	cp := g.CurrentPlayer()
	if cp == nil || !cp.canAct() {
		g.ActionTimer = nil
		return nil
	}
	return g.ArmTimer(TimerTurn, cp.ID, d, now)
}

func (g *Game) PauseTimer(now time.Time) error {
	t := g.ActionTimer
	if t == nil {
		return ErrNoTimer
	}
	if t.IsPaused {
		return ErrTimerAlreadyPaused
	}
	t.Elapsed += now.Sub(t.StartTime)
	t.IsPaused = true
	return nil
}

// ResumeTimer restarts the clock with the remaining duration under a new ID.
func (g *Game) ResumeTimer(now time.Time) (*ActionTimer, error) {
	t := g.ActionTimer
	if t == nil {
		return nil, ErrNoTimer
	}
	if !t.IsPaused {
		return nil, ErrTimerNotPaused
	}
	t.ID = uuid.NewString()
	t.IsPaused = false
	t.StartTime = now
	return t, nil
}

// SetTimerAction records what the target player wants done if their turn
// timer runs out. Only passive choices are accepted.
func (g *Game) SetTimerAction(playerID string, kind ActionKind) error {
	t := g.ActionTimer
	if t == nil || t.ActionType != TimerTurn {
		return ErrNoTimer
	}
	if t.TargetPlayerID != playerID {
		return ErrTimerNotYours
	}
	switch kind {
	case Check, Call, Fold:
	default:
		return ErrInvalidAction
	}
	k := kind
	t.SelectedAction = &k
	return nil
}

// ResolveTimeout applies the timed-out player's selected action, defaulting
// to check when legal and fold otherwise.
func (g *Game) ResolveTimeout(now time.Time) (Outcome, error) {
	t := g.ActionTimer
	if t == nil || t.ActionType != TimerTurn {
		return Outcome{}, ErrNoTimer
	}
	id := t.TargetPlayerID
	seat, err := g.actingSeat(id)
	if err != nil {
		return Outcome{}, err
	}
	toCall := g.ToCall(seat)
	want := Check
	if t.SelectedAction != nil {
		want = *t.SelectedAction
	}
	g.record(now, HistoryEntry{Type: HistTimeout, PlayerID: id, Message: string(want)})
	g.ActionTimer = nil

	switch {
	case want == Call && toCall > 0:
		chips := toCall
		if chips > g.Players[seat].ChipCount {
			chips = g.Players[seat].ChipCount
		}
		return g.PlaceBet(id, chips, now)
	case want != Fold && toCall == 0:
		return g.PlaceBet(id, 0, now)
	}
	return g.Fold(id, now)
}
