package table

import (
	"context"
	"errors"
	"time"

	"poker-room/server/engine"
)

// ErrStaleTimer is returned when an expiry fires for a timer that has since
// been replaced, cleared or paused. Nothing is changed.
var ErrStaleTimer = errors.New("timer no longer armed")

// Scheduler runs f once after d. Callbacks are never cancelled; each one
// re-checks the persisted timer before acting.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) { time.AfterFunc(d, f) }

const expiryTimeout = 10 * time.Second

func (s *Service) schedule(code string, t engine.ActionTimer) {
	id := t.ID
	d := t.Remaining(s.now())
	s.log.Debug().Str("game", code).Str("timer", id).Str("kind", string(t.ActionType)).Dur("in", d).Msg("timer scheduled")
	s.sched.AfterFunc(d, func() {
		ctx, cancel := context.WithTimeout(context.Background(), expiryTimeout)
		defer cancel()
		err := s.ExpireTimer(ctx, code, id)
		switch {
		case err == nil:
		case errors.Is(err, ErrStaleTimer), engine.IsValidation(err):
			s.log.Debug().Str("game", code).Str("timer", id).Err(err).Msg("timer expiry ignored")
		default:
			s.log.Error().Str("game", code).Str("timer", id).Err(err).Msg("timer expiry failed")
		}
	})
}

// rearm re-arms the right timer after an operation: a turn timer for the
// seat to act, a next-hand countdown after a finished hand, or a lock
// countdown in a lobby with enough players.
func (s *Service) rearm(g *engine.Game, now time.Time) {
	switch {
	case g.Locked && g.Winner != nil:
		if s.cfg.NextHandDelay > 0 {
			if t := g.ActionTimer; t == nil || t.ActionType != engine.TimerNextHand {
				g.ArmTimer(engine.TimerNextHand, "", s.cfg.NextHandDelay, now)
			}
		} else {
			g.ActionTimer = nil
		}
	case g.Locked:
		g.ArmTurnTimer(s.cfg.Game.TurnDuration, now)
	case len(g.Players) >= 2:
		if t := g.ActionTimer; t == nil || t.ActionType != engine.TimerLock {
			g.ArmTimer(engine.TimerLock, "", s.cfg.LockDelay, now)
		}
	default:
		g.ActionTimer = nil
	}
}

// ExpireTimer acts on an expired timer if it is still the armed one.
func (s *Service) ExpireTimer(ctx context.Context, code, timerID string) error {
	_, err := s.mutate(ctx, code, func(g *engine.Game, now time.Time) (engine.Outcome, error) {
		t := g.ActionTimer
		if t == nil || t.ID != timerID || t.IsPaused {
			return engine.Outcome{}, ErrStaleTimer
		}
		var (
			out engine.Outcome
			err error
		)
		switch t.ActionType {
		case engine.TimerTurn:
			out, err = g.ResolveTimeout(now)
		case engine.TimerLock:
			g.ActionTimer = nil
			out, err = g.Lock(now)
			if errors.Is(err, engine.ErrNotEnoughPlayers) {
				return out, nil
			}
		case engine.TimerNextHand:
			g.ActionTimer = nil
			out, err = g.Restart(now, s.rng)
		}
		if err != nil {
			return out, err
		}
		s.rearm(g, now)
		return out, nil
	})
	return err
}

// StartTimer arms a timer by hand, replacing the current one.
func (s *Service) StartTimer(ctx context.Context, code string, kind engine.TimerKind, target string, d time.Duration) (*engine.ActionTimer, error) {
	c, err := s.mutate(ctx, code, func(g *engine.Game, now time.Time) (engine.Outcome, error) {
		switch kind {
		case engine.TimerTurn:
			cp := g.CurrentPlayer()
			if cp == nil {
				return engine.Outcome{}, engine.ErrHandOver
			}
			if target != "" && target != cp.ID {
				return engine.Outcome{}, engine.ErrNotYourTurn
			}
			target = cp.ID
		case engine.TimerLock:
			if g.Locked {
				return engine.Outcome{}, engine.ErrGameLocked
			}
		case engine.TimerNextHand:
			if !g.Locked {
				return engine.Outcome{}, engine.ErrGameNotLocked
			}
		default:
			return engine.Outcome{}, engine.ErrInvalidAction
		}
		if d <= 0 {
			d = s.cfg.Game.TurnDuration
		}
		g.ArmTimer(kind, target, d, now)
		return engine.Outcome{}, nil
	})
	if err != nil {
		return nil, err
	}
	return c.next.ActionTimer, nil
}

func (s *Service) PauseTimer(ctx context.Context, code string) (*engine.ActionTimer, error) {
	c, err := s.mutate(ctx, code, func(g *engine.Game, now time.Time) (engine.Outcome, error) {
		return engine.Outcome{}, g.PauseTimer(now)
	})
	if err != nil {
		return nil, err
	}
	return c.next.ActionTimer, nil
}

// ResumeTimer restarts a paused timer under a new ID so the callback for
// the paused one becomes a no-op.
func (s *Service) ResumeTimer(ctx context.Context, code string) (*engine.ActionTimer, error) {
	c, err := s.mutate(ctx, code, func(g *engine.Game, now time.Time) (engine.Outcome, error) {
		_, err := g.ResumeTimer(now)
		return engine.Outcome{}, err
	})
	if err != nil {
		return nil, err
	}
	return c.next.ActionTimer, nil
}

// SetTimerAction records the action to take for playerID if their turn
// timer runs out.
func (s *Service) SetTimerAction(ctx context.Context, code, playerID string, kind engine.ActionKind) (*engine.ActionTimer, error) {
	c, err := s.mutate(ctx, code, func(g *engine.Game, now time.Time) (engine.Outcome, error) {
		return engine.Outcome{}, g.SetTimerAction(playerID, kind)
	})
	if err != nil {
		return nil, err
	}
	return c.next.ActionTimer, nil
}
