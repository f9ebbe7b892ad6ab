package main

import (
	"poker-room/server/engine"
)

// SeatStats summarises one player's actions in the recorded history.
type SeatStats struct {
	PlayerID string `json:"playerId"`
	Hands    int    `json:"hands"`
	VPIP     int    `json:"vpip"` // hands with chips put in voluntarily pre-flop
	PFR      int    `json:"pfr"`  // hands with a pre-flop bet or raise
	Checks   int    `json:"checks"`
	Calls    int    `json:"calls"`
	Aggr     int    `json:"aggr"`
	Folds    int    `json:"folds"`
	Timeouts int    `json:"timeouts"`
	AllIns   int    `json:"allIns"`
}

func (s *SeatStats) AF() float64 {
	if s.Calls == 0 {
		if s.Aggr == 0 {
			return 0
		}
		return float64(s.Aggr)
	}
	return float64(s.Aggr) / float64(s.Calls)
}

type statsRow struct {
	SeatStats
	AF float64 `json:"af"`
}

// seatStats walks the action history in order. A deal entry opens a new hand
// for every seat holding cards.
func seatStats(g *engine.Game) []statsRow {
	by := map[string]*SeatStats{}
	order := []string{}
	get := func(id string) *SeatStats {
		s, ok := by[id]
		if !ok {
			s = &SeatStats{PlayerID: id}
			by[id] = s
			order = append(order, id)
		}
		return s
	}
	for _, p := range g.Players {
		get(p.ID)
	}

	vpip := map[string]bool{}
	pfr := map[string]bool{}
	for _, h := range g.ActionHistory {
		if h.Type == engine.HistDeal {
			vpip, pfr = map[string]bool{}, map[string]bool{}
			for _, p := range g.Players {
				if len(p.Hand) > 0 {
					get(p.ID).Hands++
				}
			}
			continue
		}
		if h.PlayerID == "" || h.IsBlind {
			continue
		}
		s := get(h.PlayerID)
		voluntary, aggressive := false, false
		switch h.Type {
		case engine.HistCheck:
			s.Checks++
		case engine.HistCall:
			s.Calls++
			voluntary = true
		case engine.HistBet, engine.HistRaise:
			s.Aggr++
			voluntary, aggressive = true, true
		case engine.HistAllIn:
			s.AllIns++
			s.Aggr++
			voluntary, aggressive = true, true
		case engine.HistFold:
			s.Folds++
		case engine.HistTimeout:
			s.Timeouts++
		}
		if h.Stage != engine.Preflop {
			continue
		}
		if voluntary && !vpip[h.PlayerID] {
			vpip[h.PlayerID] = true
			s.VPIP++
		}
		if aggressive && !pfr[h.PlayerID] {
			pfr[h.PlayerID] = true
			s.PFR++
		}
	}

	rows := make([]statsRow, 0, len(order))
	for _, id := range order {
		s := by[id]
		rows = append(rows, statsRow{SeatStats: *s, AF: s.AF()})
	}
	return rows
}
