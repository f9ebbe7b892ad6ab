package judge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poker-room/server/engine"
)

func TestEquityRiverIsExact(t *testing.T) {
	hands := [][]engine.Card{engine.MustCards("AS", "AD"), engine.MustCards("KS", "KD")}
	board := engine.MustCards("2C", "7H", "9D", "JC", "3S")

	res, err := Equity(context.Background(), hands, board, 1000, 1)
	require.NoError(t, err)
	assert.True(t, res.Exact)
	assert.Equal(t, 1, res.Samples)
	assert.Equal(t, []float64{1, 0}, res.Equity)
}

func TestEquityTurnEnumeratesRiver(t *testing.T) {
	hands := [][]engine.Card{engine.MustCards("AS", "AD"), engine.MustCards("KS", "KD")}
	board := engine.MustCards("2C", "7H", "9D", "JC")

	res, err := Equity(context.Background(), hands, board, 0, 1)
	require.NoError(t, err)
	assert.True(t, res.Exact)
	assert.Equal(t, 44, res.Samples)
	// only the two remaining kings save the underdog
	assert.InDelta(t, 42.0/44.0, res.Equity[0], 1e-9)
	assert.InDelta(t, 1.0, res.Equity[0]+res.Equity[1], 1e-9)
}

func TestEquityPreflopSampled(t *testing.T) {
	hands := [][]engine.Card{engine.MustCards("AS", "AD"), engine.MustCards("KS", "KD")}

	res, err := Equity(context.Background(), hands, nil, 4000, 7)
	require.NoError(t, err)
	assert.False(t, res.Exact)
	assert.Equal(t, 4000, res.Samples)
	assert.InDelta(t, 0.82, res.Equity[0], 0.05)

	again, err := Equity(context.Background(), hands, nil, 4000, 7)
	require.NoError(t, err)
	assert.Equal(t, res, again, "same seed, same estimate")
}

func TestEquitySplitBoard(t *testing.T) {
	hands := [][]engine.Card{engine.MustCards("2S", "3D"), engine.MustCards("2H", "3C")}
	board := engine.MustCards("9C", "TD", "JH", "QS", "KC")
	res, err := Equity(context.Background(), hands, board, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.5}, res.Equity)
}

func TestEquityRejectsSingleHand(t *testing.T) {
	_, err := Equity(context.Background(), [][]engine.Card{engine.MustCards("AS", "AD")}, nil, 10, 1)
	assert.ErrorIs(t, err, ErrNoHands)
}

func TestEquityHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hands := [][]engine.Card{engine.MustCards("AS", "AD"), engine.MustCards("KS", "KD")}
	_, err := Equity(ctx, hands, nil, 100000, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCallEV(t *testing.T) {
	assert.InDelta(t, 0.0, CallEV(0.2, 30, 10), 1e-9)
	assert.Greater(t, CallEV(0.5, 30, 10), 0.0)
	assert.Less(t, CallEV(0.1, 30, 10), 0.0)
}

func TestEquityMultiwayTurnIsExact(t *testing.T) {
	hands := [][]engine.Card{
		engine.MustCards("AS", "AD"),
		engine.MustCards("KS", "KD"),
		engine.MustCards("QS", "QD"),
	}
	board := engine.MustCards("2C", "7H", "9D", "JC")
	res, err := Equity(context.Background(), hands, board, 0, 1)
	require.NoError(t, err)
	assert.True(t, res.Exact)
	assert.Equal(t, 42, res.Samples)
	assert.InDelta(t, 1.0, res.Equity[0]+res.Equity[1]+res.Equity[2], 1e-9)
	assert.InDelta(t, 38.0/42.0, res.Equity[0], 1e-9)
}

func TestVsRandomUsesOnlyHeroCards(t *testing.T) {
	aces := engine.MustCards("AS", "AD")
	res, err := VsRandom(context.Background(), aces, nil, 1, 4000, 3)
	require.NoError(t, err)
	assert.False(t, res.Exact)
	assert.Equal(t, 4000, res.Samples)
	require.Len(t, res.Equity, 1)
	assert.InDelta(t, 0.85, res.Equity[0], 0.04)

	crowded, err := VsRandom(context.Background(), aces, nil, 4, 4000, 3)
	require.NoError(t, err)
	assert.Less(t, crowded.Equity[0], res.Equity[0], "more opponents, less equity")

	_, err = VsRandom(context.Background(), aces, nil, 0, 10, 1)
	assert.ErrorIs(t, err, ErrNoHands)
}
