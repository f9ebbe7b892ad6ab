package table

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poker-room/server/engine"
)

func started(t *testing.T) (*fixture, *engine.Game) {
	t.Helper()
	f := seated(t, "u0", "u1")
	g, err := f.svc.StartNow(context.Background(), SingletonCode)
	require.NoError(t, err)
	require.NotNil(t, g.ActionTimer)
	return f, g
}

func TestTurnExpiryIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f, g := started(t)
	first := g.ActionTimer.ID

	_, err := f.svc.SetTimerAction(ctx, SingletonCode, "u1", engine.Call)
	assert.ErrorIs(t, err, engine.ErrTimerNotYours)
	tm, err := f.svc.SetTimerAction(ctx, SingletonCode, "u0", engine.Call)
	require.NoError(t, err)
	require.NotNil(t, tm.SelectedAction)
	assert.Equal(t, first, tm.ID)

	require.NoError(t, f.svc.ExpireTimer(ctx, SingletonCode, first))
	g = f.game(t)
	assert.Equal(t, []int{2, 2}, g.PlayerBets, "selected call was made")
	require.NotNil(t, g.ActionTimer)
	assert.Equal(t, "u1", g.ActionTimer.TargetPlayerID)
	assert.NotEqual(t, first, g.ActionTimer.ID)

	// the same expiry delivered again changes nothing
	err = f.svc.ExpireTimer(ctx, SingletonCode, first)
	assert.ErrorIs(t, err, ErrStaleTimer)
	again := f.game(t)
	assert.Equal(t, g.Version, again.Version)

	// so do the callbacks the scheduler still holds
	f.sched.fire()
	g = f.game(t)
	assert.Equal(t, engine.Flop, g.Stage, "u1's timer checked")
}

func TestTurnExpiryDefaultsToFoldFacingABet(t *testing.T) {
	ctx := context.Background()
	f, g := started(t)

	require.NoError(t, f.svc.ExpireTimer(ctx, SingletonCode, g.ActionTimer.ID))
	g = f.game(t)
	require.NotNil(t, g.Winner)
	assert.True(t, g.Winner.ByFold)
	assert.Equal(t, "u1", g.Winner.WinnerID)
	assert.Equal(t, 101, g.Players[1].ChipCount)
	assert.Nil(t, g.ActionTimer)
}

func TestPauseAndResume(t *testing.T) {
	ctx := context.Background()
	f, g := started(t)
	f.sched.take()
	first := g.ActionTimer.ID

	f.clock.Advance(5 * time.Second)
	tm, err := f.svc.PauseTimer(ctx, SingletonCode)
	require.NoError(t, err)
	assert.True(t, tm.IsPaused)
	assert.Equal(t, 5*time.Second, tm.Elapsed)
	_, err = f.svc.PauseTimer(ctx, SingletonCode)
	assert.ErrorIs(t, err, engine.ErrTimerAlreadyPaused)
	assert.Equal(t, 1, f.pub.count(EventTimerPaused))

	assert.ErrorIs(t, f.svc.ExpireTimer(ctx, SingletonCode, first), ErrStaleTimer, "paused timers do not fire")

	f.clock.Advance(time.Minute)
	tm, err = f.svc.ResumeTimer(ctx, SingletonCode)
	require.NoError(t, err)
	assert.NotEqual(t, first, tm.ID)
	assert.Equal(t, 25*time.Second, tm.Remaining(f.clock.Now()))
	assert.Equal(t, 1, f.pub.count(EventTimerResumed))

	pending := f.sched.take()
	require.Len(t, pending, 1)
	assert.Equal(t, 25*time.Second, pending[0].d)

	assert.ErrorIs(t, f.svc.ExpireTimer(ctx, SingletonCode, first), ErrStaleTimer)
	pending[0].f()
	g = f.game(t)
	assert.NotNil(t, g.Winner, "resumed timer folded u0")
}

func TestStartTimerByHand(t *testing.T) {
	ctx := context.Background()
	f, g := started(t)

	_, err := f.svc.StartTimer(ctx, SingletonCode, engine.TimerTurn, "u1", time.Second)
	assert.ErrorIs(t, err, engine.ErrNotYourTurn)
	_, err = f.svc.StartTimer(ctx, SingletonCode, engine.TimerLock, "", time.Second)
	assert.ErrorIs(t, err, engine.ErrGameLocked)

	tm, err := f.svc.StartTimer(ctx, SingletonCode, engine.TimerTurn, "", 3*time.Second)
	require.NoError(t, err)
	assert.NotEqual(t, g.ActionTimer.ID, tm.ID)
	assert.Equal(t, "u0", tm.TargetPlayerID)
	assert.Equal(t, 3*time.Second, tm.Duration)
	assert.ErrorIs(t, f.svc.ExpireTimer(ctx, SingletonCode, g.ActionTimer.ID), ErrStaleTimer)
}

func TestNextHandCountdown(t *testing.T) {
	ctx := context.Background()
	f := seated(t, "u0", "u1")
	f.svc.cfg.NextHandDelay = 5 * time.Second
	_, err := f.svc.StartNow(ctx, SingletonCode)
	require.NoError(t, err)

	g, err := f.svc.Fold(ctx, SingletonCode, "u0")
	require.NoError(t, err)
	require.NotNil(t, g.ActionTimer)
	assert.Equal(t, engine.TimerNextHand, g.ActionTimer.ActionType)

	f.sched.take()
	require.NoError(t, f.svc.ExpireTimer(ctx, SingletonCode, g.ActionTimer.ID))
	g = f.game(t)
	assert.Equal(t, 2, g.HandNumber)
	assert.Nil(t, g.Winner)
	assert.Equal(t, engine.TimerTurn, g.ActionTimer.ActionType)
}

func TestFoldRacesTimerExpiry(t *testing.T) {
	ctx := context.Background()
	f, g := started(t)
	id := g.ActionTimer.ID

	var (
		wg   sync.WaitGroup
		errs [2]error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = f.svc.Fold(ctx, SingletonCode, "u0")
	}()
	go func() {
		defer wg.Done()
		errs[1] = f.svc.ExpireTimer(ctx, SingletonCode, id)
	}()
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		}
	}
	assert.Equal(t, 1, ok, "exactly one of fold and expiry applies: %v", errs)
	g = f.game(t)
	require.NotNil(t, g.Winner)
	assert.Equal(t, 200, stacks(g))
}
