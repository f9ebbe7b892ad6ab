package table

import (
	"context"
	"errors"
	"time"

	"poker-room/server/agent"
	"poker-room/server/engine"
)

// driveAI plays the AI seat whose turn it is in g. The decision is taken
// inside the write so it always sees the state it acts on; a write that
// finds someone else to act is dropped.
func (s *Service) driveAI(ctx context.Context, g *engine.Game) {
	cp := g.CurrentPlayer()
	if cp == nil || !cp.IsAI {
		return
	}
	id, hand := cp.ID, g.HandNumber
	_, err := s.mutate(ctx, g.Code, func(g *engine.Game, now time.Time) (engine.Outcome, error) {
		cp := g.CurrentPlayer()
		if cp == nil || cp.ID != id || g.HandNumber != hand {
			return engine.Outcome{}, engine.ErrNotYourTurn
		}
		seat := g.CurrentPlayerIndex
		d := agent.Decide(*cp, g.CommunalCards, g.CurrentBet, g.PotTotal(), g.PlayerBets[seat], g.Stage, s.cfg.AIAggression, s.rng)

		obs, err := agent.BuildObservation(g, id)
		if err != nil {
			return engine.Outcome{}, err
		}
		act := d.Out()
		if err := agent.Validate(obs, act); err != nil {
			s.log.Warn().Err(err).Str("game", g.Code).Str("player", id).Msg("ai produced an illegal action, folding")
			d = agent.Decision{Kind: engine.Fold}
			if g.ToCall(seat) == 0 {
				d.Kind = engine.Check
			}
			act = d.Out()
		}
		s.log.Debug().Str("game", g.Code).Str("player", id).Str("tier", d.Tier.String()).
			Str("action", act.Action).Int("chips", agent.Chips(obs, act)).Str("reason", d.Reason).Msg("ai decision")

		var out engine.Outcome
		if d.Kind == engine.Fold {
			out, err = g.Fold(id, now)
		} else {
			out, err = g.PlaceBet(id, agent.Chips(obs, act), now)
		}
		if err != nil {
			return out, err
		}
		s.rearm(g, now)
		return out, nil
	})
	if err != nil && !errors.Is(err, engine.ErrNotYourTurn) {
		s.log.Error().Err(err).Str("game", g.Code).Str("player", id).Msg("ai turn failed")
	}
}
