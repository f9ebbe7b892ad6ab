package main

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poker-room/server/engine"
)

func TestSeatStatsFromHistory(t *testing.T) {
	now := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	g := engine.NewGame("s", engine.DefaultConfig(), now, rand.New(rand.NewSource(3)))
	for i := 0; i < 3; i++ {
		require.NoError(t, g.AddPlayer(engine.Player{ID: fmt.Sprintf("p%d", i), ChipCount: 100}, now))
	}
	_, err := g.Lock(now)
	require.NoError(t, err)

	_, err = g.PlaceBet("p2", 6, now) // raise over the big blind
	require.NoError(t, err)
	_, err = g.PlaceBet("p0", 5, now) // small blind calls
	require.NoError(t, err)
	_, err = g.Fold("p1", now)
	require.NoError(t, err)

	rows := seatStats(g)
	require.Len(t, rows, 3)
	by := map[string]statsRow{}
	for _, r := range rows {
		by[r.PlayerID] = r
		assert.Equal(t, 1, r.Hands, r.PlayerID)
	}

	assert.Equal(t, 1, by["p2"].VPIP)
	assert.Equal(t, 1, by["p2"].PFR)
	assert.Equal(t, 1.0, by["p2"].AF)

	assert.Equal(t, 1, by["p0"].VPIP)
	assert.Equal(t, 0, by["p0"].PFR)
	assert.Equal(t, 1, by["p0"].Calls)
	assert.Zero(t, by["p0"].AF)

	assert.Zero(t, by["p1"].VPIP, "posting a blind is not voluntary")
	assert.Equal(t, 1, by["p1"].Folds)
}

func TestAFCountsAggressionPerCall(t *testing.T) {
	s := SeatStats{Aggr: 3, Calls: 2}
	assert.InDelta(t, 1.5, s.AF(), 1e-9)
	s = SeatStats{Aggr: 2}
	assert.Equal(t, 2.0, s.AF())
	assert.Zero(t, (&SeatStats{}).AF())
}

func TestManualDealIsNotANewHand(t *testing.T) {
	now := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	g := engine.NewGame("s", engine.DefaultConfig(), now, rand.New(rand.NewSource(3)))
	for i := 0; i < 2; i++ {
		require.NoError(t, g.AddPlayer(engine.Player{ID: fmt.Sprintf("p%d", i), ChipCount: 100}, now))
	}
	_, err := g.Lock(now)
	require.NoError(t, err)
	_, err = g.PlaceBet("p0", 5, now) // small blind raises
	require.NoError(t, err)

	g.Deck = append(g.Deck, g.Players[1].Hand...)
	g.Players[1].Hand = nil
	_, err = g.Deal(now)
	require.NoError(t, err)

	rows := seatStats(g)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, 1, r.Hands, r.PlayerID)
	}
	assert.Equal(t, 1, rows[0].PFR)
	assert.Equal(t, 1, rows[0].VPIP)
}
