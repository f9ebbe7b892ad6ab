package table

import (
	"poker-room/server/engine"
)

// Events published on a game's channel.
const (
	EventStateChanged = "state-changed"
	EventTurnStarted  = "turn-started"
	EventTimerStarted = "timer-started"
	EventTimerPaused  = "timer-paused"
	EventTimerResumed = "timer-resumed"
	EventTimerCleared = "timer-cleared"
	EventNotification = "notification"
	EventGameLocked   = "game-locked"
)

// Publisher fans events out to connected clients. Delivery is best effort.
type Publisher interface {
	Publish(gameCode, event string, payload any) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, string, any) error { return nil }

type TurnPayload struct {
	PlayerID string              `json:"playerId"`
	Seat     int                 `json:"seat"`
	Stage    string              `json:"stage"`
	ToCall   int                 `json:"toCall"`
	Legal    []engine.ActionKind `json:"legal"`
}

type Notification struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// View is the game as viewerID may see it: the deck and other seats' hole
// cards stay hidden until a showdown reveals them.
func View(g *engine.Game, viewerID string) *engine.Game {
	v := g.Clone()
	v.Deck = nil
	shown := handsShown(g)
	for i := range v.Players {
		p := &v.Players[i]
		if p.ID == viewerID || (shown && !p.Folded) {
			continue
		}
		p.Hand = nil
	}
	return v
}

// handsShown reports whether a showdown has turned the live hands face up.
func handsShown(g *engine.Game) bool {
	return g.Winner != nil && !g.Winner.ByFold
}

func (s *Service) publish(code, event string, payload any) {
	if err := s.pub.Publish(code, event, payload); err != nil {
		s.log.Warn().Err(err).Str("game", code).Str("event", event).Msg("publish failed")
	}
}

// announce publishes what changed between prev and next.
func (s *Service) announce(prev, next *engine.Game, out engine.Outcome) {
	code := next.Code
	if out.Locked {
		s.publish(code, EventGameLocked, View(next, ""))
	}
	s.publish(code, EventStateChanged, View(next, ""))

	pt, nt := prev.ActionTimer, next.ActionTimer
	switch {
	case nt == nil && pt != nil:
		s.publish(code, EventTimerCleared, pt)
	case nt == nil:
	case pt != nil && pt.ID == nt.ID:
		if nt.IsPaused && !pt.IsPaused {
			s.publish(code, EventTimerPaused, nt)
		}
	case pt != nil && pt.IsPaused && pt.ActionType == nt.ActionType && pt.TargetPlayerID == nt.TargetPlayerID:
		s.publish(code, EventTimerResumed, nt)
	default:
		s.publish(code, EventTimerStarted, nt)
	}

	if cp := next.CurrentPlayer(); cp != nil {
		pp := prev.CurrentPlayer()
		if pp == nil || pp.ID != cp.ID || prev.Stage != next.Stage || prev.HandNumber != next.HandNumber {
			seat := next.CurrentPlayerIndex
			s.publish(code, EventTurnStarted, TurnPayload{
				PlayerID: cp.ID,
				Seat:     seat,
				Stage:    next.Stage.String(),
				ToCall:   next.ToCall(seat),
				Legal:    next.LegalActions(cp.ID),
			})
		}
	}
	if out.HandOver && next.Winner != nil {
		s.publish(code, EventNotification, Notification{Level: "info", Message: winnerMessage(next)})
	}
}

func winnerMessage(g *engine.Game) string {
	w := g.Winner
	name := func(id string) string {
		if i := g.SeatOf(id); i >= 0 && g.Players[i].Username != "" {
			return g.Players[i].Username
		}
		return id
	}
	switch {
	case w.ByFold:
		return name(w.WinnerID) + " wins, everyone else folded"
	case w.IsTie:
		msg := "split pot:"
		for _, id := range w.TiedPlayers {
			msg += " " + name(id)
		}
		return msg + " with " + w.HandName
	}
	if w.Description != "" {
		return name(w.WinnerID) + " wins with " + w.Description
	}
	return name(w.WinnerID) + " wins with " + w.HandName
}
