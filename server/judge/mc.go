package judge

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	poker "github.com/paulhankin/poker"
	"golang.org/x/sync/errgroup"

	"poker-room/server/engine"
)

// Hands beyond this many unknown board cards are sampled instead of
// enumerated.
const exactLimit = 2

const workers = 4

var ErrNoHands = errors.New("need at least two live hands")

// Result is the share of the pot each hand is expected to win.
type Result struct {
	Equity     []float64 `json:"equity"`
	Samples    int       `json:"samples"`
	Exact      bool      `json:"exact"`
	BoardCards int       `json:"boardCards"`
}

type tally struct {
	share []float64
	n     int
}

// Equity estimates each hand's pot share given the known board. With two or
// fewer board cards to come every runout is enumerated; otherwise iterations
// runouts are sampled across workers, each seeded from seed.
func Equity(ctx context.Context, hands [][]engine.Card, board []engine.Card, iterations int, seed int64) (Result, error) {
	if len(hands) < 2 {
		return Result{}, ErrNoHands
	}
	holes := make([][2]poker.Card, len(hands))
	for i, h := range hands {
		if len(h) != 2 {
			return Result{}, fmt.Errorf("hand %d has %d cards", i, len(h))
		}
		pcs, err := engine.LibCards(h)
		if err != nil {
			return Result{}, err
		}
		holes[i] = [2]poker.Card{pcs[0], pcs[1]}
	}
	known, err := engine.LibCards(board)
	if err != nil {
		return Result{}, err
	}
	missing := 5 - len(known)
	if missing < 0 {
		return Result{}, fmt.Errorf("board has %d cards", len(known))
	}
	res := Result{BoardCards: len(board)}

	if missing <= exactLimit {
		eqs, err := poker.HoldemEquities(holes, known)
		if err != nil {
			return Result{}, err
		}
		res.Exact = true
		res.Equity = make([]float64, len(eqs))
		for i, e := range eqs {
			res.Equity[i] = e.Equity
			res.Samples = e.Boards
		}
		return res, nil
	}

	var used []poker.Card
	for _, h := range holes {
		used = append(used, h[0], h[1])
	}
	avail := remaining(append(used, known...))
	total, err := sample(ctx, iterations, seed, len(hands), func(r *rand.Rand, pool []poker.Card, t *tally) {
		var runout [5]poker.Card
		copy(runout[:], known)
		draw(r, pool, runout[len(known):])
		scores := make([]int16, len(holes))
		for i, h := range holes {
			scores[i] = score7(h, runout)
		}
		t.add(scores)
	}, avail)
	if err != nil {
		return Result{}, err
	}
	res.Samples = total.n
	res.Equity = total.normalise()
	return res, nil
}

// VsRandom estimates hero's pot share against opponents holding unknown
// cards, dealing both their hands and the rest of the board at random.
func VsRandom(ctx context.Context, hero []engine.Card, board []engine.Card, opponents, iterations int, seed int64) (Result, error) {
	if opponents < 1 || len(hero) != 2 {
		return Result{}, ErrNoHands
	}
	own, err := engine.LibCards(hero)
	if err != nil {
		return Result{}, err
	}
	known, err := engine.LibCards(board)
	if err != nil {
		return Result{}, err
	}
	if len(known) > 5 {
		return Result{}, fmt.Errorf("board has %d cards", len(known))
	}
	mine := [2]poker.Card{own[0], own[1]}
	avail := remaining(append(own, known...))
	need := 5 - len(known) + 2*opponents
	if need > len(avail) {
		return Result{}, fmt.Errorf("%d opponents do not fit the deck", opponents)
	}
	total, err := sample(ctx, iterations, seed, 2, func(r *rand.Rand, pool []poker.Card, t *tally) {
		dealt := make([]poker.Card, need)
		draw(r, pool, dealt)
		var runout [5]poker.Card
		copy(runout[:], known)
		copy(runout[len(known):], dealt)
		rest := dealt[5-len(known):]
		hs := score7(mine, runout)
		var best int16 = -1
		for o := 0; o < opponents; o++ {
			if s := score7([2]poker.Card{rest[2*o], rest[2*o+1]}, runout); s > best {
				best = s
			}
		}
		// slot 0 is hero, slot 1 the strongest opponent
		t.add([]int16{hs, best})
	}, avail)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Equity:     total.normalise()[:1],
		Samples:    total.n,
		BoardCards: len(board),
	}, nil
}

// sample runs iterations of trial split across workers and merges the tallies.
func sample(ctx context.Context, iterations int, seed int64, slots int, trial func(*rand.Rand, []poker.Card, *tally), avail []poker.Card) (*tally, error) {
	if iterations < workers {
		iterations = workers
	}
	per := iterations / workers
	tallies := make([]*tally, workers)
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		tallies[w] = newTally(slots)
		g.Go(func() error {
			r := rand.New(rand.NewSource(seed + int64(w)*7919))
			pool := append([]poker.Card(nil), avail...)
			for i := 0; i < per; i++ {
				if i%256 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				trial(r, pool, tallies[w])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	total := newTally(slots)
	for _, t := range tallies {
		total.n += t.n
		for i, s := range t.share {
			total.share[i] += s
		}
	}
	return total, nil
}

// draw fills out with distinct cards from pool by a partial Fisher-Yates.
func draw(r *rand.Rand, pool, out []poker.Card) {
	for k := range out {
		j := k + r.Intn(len(pool)-k)
		pool[k], pool[j] = pool[j], pool[k]
		out[k] = pool[k]
	}
}

func remaining(used []poker.Card) []poker.Card {
	seen := map[poker.Card]bool{}
	for _, c := range used {
		seen[c] = true
	}
	out := make([]poker.Card, 0, 52)
	for _, c := range poker.Cards {
		if !seen[c] {
			out = append(out, c)
		}
	}
	return out
}

func score7(hole [2]poker.Card, board [5]poker.Card) int16 {
	a7 := [7]poker.Card{hole[0], hole[1], board[0], board[1], board[2], board[3], board[4]}
	return poker.Eval7(&a7)
}

func newTally(n int) *tally { return &tally{share: make([]float64, n)} }

// add records one complete board from library scores; ties split the win.
func (t *tally) add(scores []int16) {
	t.n++
	var best int16 = -1
	var winners []int
	for i, s := range scores {
		switch {
		case s > best:
			best = s
			winners = append(winners[:0], i)
		case s == best:
			winners = append(winners, i)
		}
	}
	for _, i := range winners {
		t.share[i] += 1 / float64(len(winners))
	}
}

func (t *tally) normalise() []float64 {
	out := make([]float64, len(t.share))
	if t.n == 0 {
		return out
	}
	for i, s := range t.share {
		out[i] = s / float64(t.n)
	}
	return out
}

// CallEV is the chip expectation of calling toCall into pot with the given
// equity, against folding for zero.
func CallEV(equity float64, pot, toCall int) float64 {
	p, b := float64(pot), float64(toCall)
	return equity*(p+b) - (1.0-equity)*b
}
