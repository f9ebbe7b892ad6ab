// Package table runs poker games on top of a versioned game store: every
// change is an optimistic read-modify-write, side effects (events, timers,
// AI turns) run after the write lands.
package table

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"poker-room/server/engine"
	"poker-room/server/judge"
	"poker-room/server/store"
)

// SingletonCode is the game every client lands in by default.
const SingletonCode = "main"

type GameStore interface {
	Load(ctx context.Context, code string) (*engine.Game, error)
	Save(ctx context.Context, g *engine.Game, expected int64) error
	Create(ctx context.Context, g *engine.Game) error
	Codes(ctx context.Context) ([]string, error)
}

type BalanceStore interface {
	GetOrCreateBalance(ctx context.Context, userID string, initial int) (int, error)
	SetBalance(ctx context.Context, userID string, chips int) error
}

type Config struct {
	Game          engine.Config
	LockDelay     time.Duration
	NextHandDelay time.Duration // 0 waits for an explicit restart
	StartBalance  int
	AIAggression  float64
	RetryDelay    time.Duration
	Attempts      int
	EquitySamples int
}

func DefaultConfig() Config {
	return Config{
		Game:          engine.DefaultConfig(),
		LockDelay:     10 * time.Second,
		StartBalance:  100,
		AIAggression:  0.5,
		RetryDelay:    20 * time.Millisecond,
		Attempts:      3,
		EquitySamples: 4000,
	}
}

// lockedRand shares one seeded source between request goroutines and timer
// callbacks.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRand) Int63() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Int63()
}

type Service struct {
	games    GameStore
	balances BalanceStore
	pub      Publisher
	sched    Scheduler
	now      func() time.Time
	cfg      Config
	log      zerolog.Logger
	rng      *lockedRand
}

type Option func(*Service)

func WithScheduler(sc Scheduler) Option { return func(s *Service) { s.sched = sc } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithLogger(l zerolog.Logger) Option { return func(s *Service) { s.log = l } }

func New(games GameStore, balances BalanceStore, pub Publisher, cfg Config, seed int64, opts ...Option) *Service {
	if pub == nil {
		pub = nopPublisher{}
	}
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	s := &Service{
		games:    games,
		balances: balances,
		pub:      pub,
		sched:    realScheduler{},
		now:      func() time.Time { return time.Now().UTC() },
		cfg:      cfg,
		log:      zerolog.Nop(),
		rng:      &lockedRand{r: rand.New(rand.NewSource(seed))},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) CreateGame(ctx context.Context, code string) (*engine.Game, error) {
	if code == "" {
		code = strings.SplitN(uuid.NewString(), "-", 2)[0]
	}
	g := engine.NewGame(code, s.cfg.Game, s.now(), s.rng)
	if err := s.games.Create(ctx, g); err != nil {
		return nil, err
	}
	s.log.Info().Str("game", code).Msg("game created")
	return g, nil
}

// EnsureSingleton returns the shared game, creating it if absent. Concurrent
// callers all end up with the same row.
func (s *Service) EnsureSingleton(ctx context.Context) (*engine.Game, error) {
	g, err := s.games.Load(ctx, SingletonCode)
	if err == nil {
		return g, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	g, err = s.CreateGame(ctx, SingletonCode)
	if errors.Is(err, store.ErrDuplicateKey) {
		return s.games.Load(ctx, SingletonCode)
	}
	return g, err
}

func (s *Service) Get(ctx context.Context, code string) (*engine.Game, error) {
	g, err := s.games.Load(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, engine.ErrGameNotFound
	}
	return g, err
}

func (s *Service) Codes(ctx context.Context) ([]string, error) {
	return s.games.Codes(ctx)
}

// AddPlayer seats userID with their stored balance. A balance that has run
// dry is topped back up to the starting stack.
func (s *Service) AddPlayer(ctx context.Context, code, userID, username string, isAI bool) (*engine.Game, error) {
	chips := s.cfg.StartBalance
	if !isAI && s.balances != nil {
		b, err := s.balances.GetOrCreateBalance(ctx, userID, s.cfg.StartBalance)
		if err != nil {
			return nil, err
		}
		if b > 0 {
			chips = b
		}
	}
	c, err := s.mutate(ctx, code, func(g *engine.Game, now time.Time) (engine.Outcome, error) {
		p := engine.Player{ID: userID, Username: username, ChipCount: chips, IsAI: isAI}
		if err := g.AddPlayer(p, now); err != nil {
			return engine.Outcome{}, err
		}
		s.rearm(g, now)
		return engine.Outcome{}, nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("game", code).Str("player", userID).Int("chips", chips).Bool("ai", isAI).Msg("player joined")
	return c.next, nil
}

// RemovePlayer unseats (lobby) or folds out (locked) playerID and writes the
// stack they leave with back to the balance store.
func (s *Service) RemovePlayer(ctx context.Context, code, playerID string) (*engine.Game, error) {
	var (
		stack int
		isAI  bool
	)
	c, err := s.mutate(ctx, code, func(g *engine.Game, now time.Time) (engine.Outcome, error) {
		if i := g.SeatOf(playerID); i >= 0 {
			stack, isAI = g.Players[i].ChipCount, g.Players[i].IsAI
		}
		out, err := g.RemovePlayer(playerID, now, s.rng)
		if err != nil {
			return out, err
		}
		s.rearm(g, now)
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	if !isAI && s.balances != nil {
		if err := s.balances.SetBalance(ctx, playerID, stack); err != nil {
			s.log.Error().Err(err).Str("player", playerID).Int("chips", stack).Msg("balance not saved")
		}
	}
	s.log.Info().Str("game", code).Str("player", playerID).Int("chips", stack).Msg("player left")
	return c.next, nil
}

// returnStakes credits departed seats with the chips a cancelled hand gave
// back. Their balance was written when they left.
func (s *Service) returnStakes(ctx context.Context, code string, refunds map[string]int) {
	if s.balances == nil {
		return
	}
	for id, chips := range refunds {
		bal, err := s.balances.GetOrCreateBalance(ctx, id, 0)
		if err == nil {
			err = s.balances.SetBalance(ctx, id, bal+chips)
		}
		if err != nil {
			s.log.Error().Err(err).Str("player", id).Int("chips", chips).Msg("stake not returned")
			continue
		}
		s.log.Info().Str("game", code).Str("player", id).Int("chips", chips).Msg("stake returned")
	}
}

// StartNow locks the lobby without waiting for the countdown.
func (s *Service) StartNow(ctx context.Context, code string) (*engine.Game, error) {
	return s.act(ctx, code, func(g *engine.Game, now time.Time) (engine.Outcome, error) {
		return g.Lock(now)
	})
}

func (s *Service) PlaceBet(ctx context.Context, code, playerID string, chips int) (*engine.Game, error) {
	return s.act(ctx, code, func(g *engine.Game, now time.Time) (engine.Outcome, error) {
		return g.PlaceBet(playerID, chips, now)
	})
}

func (s *Service) Fold(ctx context.Context, code, playerID string) (*engine.Game, error) {
	return s.act(ctx, code, func(g *engine.Game, now time.Time) (engine.Outcome, error) {
		return g.Fold(playerID, now)
	})
}

func (s *Service) AllIn(ctx context.Context, code, playerID string) (*engine.Game, error) {
	return s.act(ctx, code, func(g *engine.Game, now time.Time) (engine.Outcome, error) {
		return g.AllIn(playerID, now)
	})
}

func (s *Service) Restart(ctx context.Context, code string) (*engine.Game, error) {
	return s.act(ctx, code, func(g *engine.Game, now time.Time) (engine.Outcome, error) {
		return g.Restart(now, s.rng)
	})
}

func (s *Service) Deal(ctx context.Context, code string) (*engine.Game, error) {
	return s.act(ctx, code, func(g *engine.Game, now time.Time) (engine.Outcome, error) {
		return g.Deal(now)
	})
}

// Act applies a named action for playerID. Check and call resolve their
// chips against the state being written; bet and raise add amount chips.
func (s *Service) Act(ctx context.Context, code, playerID string, kind engine.ActionKind, amount int) (*engine.Game, error) {
	return s.act(ctx, code, func(g *engine.Game, now time.Time) (engine.Outcome, error) {
		switch kind {
		case engine.Fold:
			return g.Fold(playerID, now)
		case engine.AllIn:
			return g.AllIn(playerID, now)
		case engine.Check:
			return g.PlaceBet(playerID, 0, now)
		case engine.Call:
			seat := g.SeatOf(playerID)
			if seat < 0 {
				return engine.Outcome{}, engine.ErrPlayerNotFound
			}
			chips := g.ToCall(seat)
			if stack := g.Players[seat].ChipCount; chips > stack {
				chips = stack
			}
			return g.PlaceBet(playerID, chips, now)
		case engine.Bet, engine.Raise:
			return g.PlaceBet(playerID, amount, now)
		}
		return engine.Outcome{}, engine.ErrInvalidAction
	})
}

// Resume schedules callbacks for the timers persisted by a previous process.
// Overdue timers fire straight away.
func (s *Service) Resume(ctx context.Context) (int, error) {
	codes, err := s.games.Codes(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, code := range codes {
		g, err := s.games.Load(ctx, code)
		if err != nil {
			return n, err
		}
		if t := g.ActionTimer; t != nil && !t.IsPaused {
			s.schedule(code, *t)
			n++
		}
	}
	return n, nil
}

// act runs an engine operation and re-arms the timer in the same write.
func (s *Service) act(ctx context.Context, code string, fn opFunc) (*engine.Game, error) {
	c, err := s.mutate(ctx, code, func(g *engine.Game, now time.Time) (engine.Outcome, error) {
		out, err := fn(g, now)
		if err != nil {
			return out, err
		}
		s.rearm(g, now)
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return c.next, nil
}

func (s *Service) Legal(ctx context.Context, code, playerID string) ([]engine.ActionKind, error) {
	g, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if g.SeatOf(playerID) < 0 {
		return nil, engine.ErrPlayerNotFound
	}
	return g.LegalActions(playerID), nil
}

type SeatEquity struct {
	PlayerID string  `json:"playerId"`
	Equity   float64 `json:"equity"`
}

type EquityReport struct {
	Stage   string       `json:"stage"`
	Board   []string     `json:"board"`
	Seats   []SeatEquity `json:"seats"`
	Samples int          `json:"samples"`
	Exact   bool         `json:"exact"`
	// CallEV is the chip value of calling for the seat to act, when facing a bet.
	CallEV *float64 `json:"callEv,omitempty"`
}

// ErrHiddenCards is returned when equity is asked for across hands that have
// not been shown.
var ErrHiddenCards = errors.New("hole cards are hidden until showdown")

// Equity reports pot shares. Once hands are shown every live hand is scored
// against the others. Before that only playerID is answered, against random
// hands for each live opponent.
func (s *Service) Equity(ctx context.Context, code, playerID string) (*EquityReport, error) {
	g, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	var (
		ids   []string
		hands [][]engine.Card
	)
	for _, p := range g.Players {
		if p.Folded || p.Left || len(p.Hand) != 2 {
			continue
		}
		ids = append(ids, p.ID)
		hands = append(hands, p.Hand)
	}
	rep := &EquityReport{Stage: g.Stage.String()}
	for _, c := range g.CommunalCards {
		rep.Board = append(rep.Board, c.String())
	}

	var res judge.Result
	if handsShown(g) {
		res, err = judge.Equity(ctx, hands, g.CommunalCards, s.cfg.EquitySamples, s.rng.Int63())
		if err != nil {
			return nil, err
		}
		for i, id := range ids {
			rep.Seats = append(rep.Seats, SeatEquity{PlayerID: id, Equity: res.Equity[i]})
		}
	} else {
		if playerID == "" {
			return nil, ErrHiddenCards
		}
		seat := g.SeatOf(playerID)
		if seat < 0 {
			return nil, engine.ErrPlayerNotFound
		}
		hero := g.Players[seat]
		if hero.Folded || hero.Left || len(hero.Hand) != 2 {
			return nil, judge.ErrNoHands
		}
		res, err = judge.VsRandom(ctx, hero.Hand, g.CommunalCards, len(ids)-1, s.cfg.EquitySamples, s.rng.Int63())
		if err != nil {
			return nil, err
		}
		ids = []string{playerID}
		rep.Seats = []SeatEquity{{PlayerID: playerID, Equity: res.Equity[0]}}
	}
	rep.Samples, rep.Exact = res.Samples, res.Exact

	if cp := g.CurrentPlayer(); cp != nil && g.Winner == nil {
		if toCall := g.ToCall(g.CurrentPlayerIndex); toCall > 0 {
			for i, id := range ids {
				if id == cp.ID {
					ev := judge.CallEV(rep.Seats[i].Equity, g.PotTotal(), toCall)
					rep.CallEV = &ev
				}
			}
		}
	}
	return rep, nil
}
