package table

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"poker-room/server/engine"
	"poker-room/server/store"
)

// ErrBusy means every attempt lost a race with another writer. The request
// is safe to retry.
var ErrBusy = errors.New("game is busy, try again")

type opFunc func(g *engine.Game, now time.Time) (engine.Outcome, error)

type committed struct {
	prev, next *engine.Game
	out        engine.Outcome
}

// mutate is the only write path: load, apply fn to a copy, save against the
// loaded version. A version conflict repeats the whole cycle; any other
// error stops it with nothing written.
func (s *Service) mutate(ctx context.Context, code string, fn opFunc) (committed, error) {
	op := func() (committed, error) {
		prev, err := s.games.Load(ctx, code)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return committed{}, backoff.Permanent(engine.ErrGameNotFound)
			}
			return committed{}, backoff.Permanent(err)
		}
		next := prev.Clone()
		now := s.now()
		out, err := fn(next, now)
		if err != nil {
			return committed{}, backoff.Permanent(err)
		}
		next.CheckInvariants(now, &out)
		next.UpdatedAt = now
		if err := s.games.Save(ctx, next, prev.Version); err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				s.log.Debug().Str("game", code).Int64("version", prev.Version).Msg("version conflict, retrying")
				return committed{}, err
			}
			return committed{}, backoff.Permanent(err)
		}
		return committed{prev: prev, next: next, out: out}, nil
	}

	var b backoff.BackOff = backoff.NewConstantBackOff(s.cfg.RetryDelay)
	b = backoff.WithMaxRetries(b, uint64(s.cfg.Attempts-1))
	c, err := backoff.RetryWithData(op, backoff.WithContext(b, ctx))
	if err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			s.log.Warn().Str("game", code).Int("attempts", s.cfg.Attempts).Msg("gave up after version conflicts")
			return committed{}, ErrBusy
		}
		return committed{}, err
	}

	if len(c.out.Violations) > 0 {
		s.log.Error().Str("game", code).Strs("violations", c.out.Violations).Msg("invariant violation")
	}
	s.afterCommit(ctx, c)
	return c, nil
}

// afterCommit runs the side effects of a saved write: events, timer
// callbacks and the AI seat's turn.
func (s *Service) afterCommit(ctx context.Context, c committed) {
	s.returnStakes(ctx, c.next.Code, c.out.Refunds)
	s.announce(c.prev, c.next, c.out)
	if t := c.next.ActionTimer; t != nil && !t.IsPaused {
		if pt := c.prev.ActionTimer; pt == nil || pt.ID != t.ID {
			s.schedule(c.next.Code, *t)
		}
	}
	s.driveAI(ctx, c.next)
}
