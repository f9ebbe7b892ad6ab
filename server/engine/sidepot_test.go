package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func seats(ids ...string) []Player {
	ps := make([]Player, len(ids))
	for i, id := range ids {
		ps[i] = Player{ID: id}
	}
	return ps
}

func TestCalculatePotsTiers(t *testing.T) {
	ps := seats("a", "b", "c")
	ps[0].IsAllIn = true

	pots := CalculatePots(ps, []int{10, 30, 30})
	assert.Equal(t, []SidePot{
		{Amount: 30, EligiblePlayerIDs: []string{"a", "b", "c"}},
		{Amount: 40, EligiblePlayerIDs: []string{"b", "c"}},
	}, pots)
}

func TestCalculatePotsFoldedContributionStays(t *testing.T) {
	ps := seats("a", "b", "c")
	ps[0].Folded = true

	pots := CalculatePots(ps, []int{10, 30, 30})
	assert.Equal(t, []SidePot{{Amount: 70, EligiblePlayerIDs: []string{"b", "c"}}}, pots)
}

func TestCalculatePotsUnmatchedTopTier(t *testing.T) {
	ps := seats("a", "b")
	pots := CalculatePots(ps, []int{100, 50})
	assert.Equal(t, []SidePot{
		{Amount: 100, EligiblePlayerIDs: []string{"a", "b"}},
		{Amount: 50, EligiblePlayerIDs: []string{"a"}},
	}, pots)
}

func TestCalculatePotsConservesChips(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		n := 2 + r.Intn(4)
		ps := seats("a", "b", "c", "d", "e")[:n]
		bets := make([]int, n)
		total := 0
		for j := range bets {
			bets[j] = r.Intn(6) * 10
			total += bets[j]
			ps[j].Folded = r.Intn(4) == 0
		}
		sum := 0
		for _, p := range CalculatePots(ps, bets) {
			sum += p.Amount
		}
		assert.Equal(t, total, sum, "bets %v", bets)
	}
}
