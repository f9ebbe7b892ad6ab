package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeckIsComplete(t *testing.T) {
	deck := NewDeck()
	require.Len(t, deck, 52)
	seen := map[Card]bool{}
	for _, c := range deck {
		assert.False(t, seen[c], "duplicate %s", c)
		seen[c] = true
	}
}

func TestShuffleIsDeterministicPermutation(t *testing.T) {
	a := Shuffle(NewDeck(), rand.New(rand.NewSource(1)))
	b := Shuffle(NewDeck(), rand.New(rand.NewSource(1)))
	assert.Equal(t, a, b)
	assert.NotEqual(t, NewDeck(), a)
	assert.ElementsMatch(t, NewDeck(), a)
}

func TestParseCard(t *testing.T) {
	for _, s := range []string{"AS", "TD", "9H", "2C", "KH"} {
		c, err := ParseCard(s)
		require.NoError(t, err)
		assert.Equal(t, s, c.String())
	}
	c, err := ParseCard("10h")
	require.NoError(t, err)
	assert.Equal(t, Card{Rank: 10, Suit: Hearts}, c)
	assert.Equal(t, 14, MustCards("AC")[0].HighRank())

	for _, bad := range []string{"", "A", "1S", "AX", "11D"} {
		_, err := ParseCard(bad)
		assert.Error(t, err, bad)
	}
}

func TestDeckIntact(t *testing.T) {
	g := &Game{Deck: NewDeck()}
	require.NoError(t, DeckIntact(g))

	g.Players = []Player{{ID: "a", Hand: []Card{g.Deck[0]}}}
	assert.Error(t, DeckIntact(g), "duplicated card")

	g.Deck = g.Deck[1:]
	assert.NoError(t, DeckIntact(g))

	g.Deck = g.Deck[1:]
	assert.Error(t, DeckIntact(g), "missing card")
}

func TestDealerKeepsDeckIntact(t *testing.T) {
	g := &Game{Deck: Shuffle(NewDeck(), rand.New(rand.NewSource(9))), Players: seats("a", "b", "c")}
	g.Players[1].Folded = true

	var short bool
	g.Deck, short = DealPlayerCards(g.Deck, g.Players, 0, 2)
	require.False(t, short)
	assert.Len(t, g.Players[0].Hand, 2)
	assert.Empty(t, g.Players[1].Hand)
	assert.Len(t, g.Players[2].Hand, 2)

	stage := Preflop
	for _, want := range []int{3, 4, 5} {
		var ok bool
		g.Deck, g.CommunalCards, stage, ok, short = DealCommunalCards(g.Deck, g.CommunalCards, stage)
		require.True(t, ok)
		require.False(t, short)
		assert.Len(t, g.CommunalCards, want)
		require.NoError(t, DeckIntact(g))
	}
	assert.Equal(t, River, stage)
	_, _, _, ok, _ := DealCommunalCards(g.Deck, g.CommunalCards, stage)
	assert.False(t, ok)

	require.NoError(t, ReshuffleAllCards(g, rand.New(rand.NewSource(2))))
	assert.Len(t, g.Deck, 52)
	assert.Empty(t, g.CommunalCards)
	assert.NoError(t, DeckIntact(g))
}

func TestShortDeckDealsWhatIsLeft(t *testing.T) {
	ps := seats("a", "b")
	deck, short := DealPlayerCards(NewDeck()[:3], ps, 0, 2)
	assert.True(t, short)
	assert.Empty(t, deck)
	assert.Equal(t, 3, len(ps[0].Hand)+len(ps[1].Hand))
}
