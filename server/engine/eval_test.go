package engine

import (
	"math/rand"
	"strings"
	"testing"

	poker "github.com/paulhankin/poker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateRanks(t *testing.T) {
	cases := []struct {
		cards string
		want  HandRank
	}{
		{"AS KS QS JS TS", RoyalFlush},
		{"9H 8H 7H 6H 5H", StraightFlush},
		{"7C 7D 7H 7S 2D", FourOfAKind},
		{"KC KD KH 2S 2D", FullHouse},
		{"2H 9H JH 4H KH", Flush},
		{"AS 2D 3C 4H 5S", Straight},
		{"QC QD QH 9S 2D", ThreeOfAKind},
		{"JC JD 4H 4S AD", TwoPair},
		{"TC TD 4H 8S AD", OnePair},
		{"2C 5D 9H JS KD", HighCard},
	}
	for _, tc := range cases {
		t.Run(tc.cards, func(t *testing.T) {
			cs := fields(t, tc.cards)
			assert.Equal(t, tc.want, Evaluate(cs).Rank)
		})
	}
}

func TestWheelLosesToSixHighStraightLosesToFlush(t *testing.T) {
	wheel := Evaluate(fields(t, "AS 2D 3C 4H 5S"))
	six := Evaluate(fields(t, "2D 3C 4H 5S 6C"))
	flush := Evaluate(fields(t, "2H 9H JH 4H KH"))

	assert.Equal(t, []int{5}, wheel.Values)
	assert.Equal(t, -1, Compare(wheel, six))
	assert.Equal(t, -1, Compare(six, flush))
	assert.Equal(t, 1, Compare(flush, wheel))
}

func TestEvaluateBestOfSeven(t *testing.T) {
	hv := Evaluate(fields(t, "KC KD 2H 2S KH 9C 3D"))
	assert.Equal(t, FullHouse, hv.Rank)
	assert.Equal(t, []int{13, 2}, hv.Values)

	// the board plays for both: exact tie
	a := Evaluate(fields(t, "2C 3D AS KS QS JS TS"))
	b := Evaluate(fields(t, "4C 5D AS KS QS JS TS"))
	assert.Equal(t, 0, Compare(a, b))

	kicker := Evaluate(fields(t, "AC 9D JH JS 4C 4D 2S"))
	weaker := Evaluate(fields(t, "KC 9D JH JS 4C 4D 2S"))
	assert.Equal(t, 1, Compare(kicker, weaker))
}

func TestEvaluateUsesLibraryScore(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 400; i++ {
		deck := Shuffle(NewDeck(), r)
		a, b := deck[:7], deck[7:14]
		ha, hb := Evaluate(a), Evaluate(b)
		assert.Equal(t, int(phScore7(t, a)), ha.Score)
		assert.Equal(t, cmp16(phScore7(t, a), phScore7(t, b)), Compare(ha, hb), "%s vs %s", cardsString(a), cardsString(b))
	}
}

func TestEvaluateReadsBestFive(t *testing.T) {
	hv := Evaluate(fields(t, "AS KS 2D 2C 9H 9D 4C"))
	assert.Equal(t, TwoPair, hv.Rank)
	assert.Equal(t, []int{9, 2, 14}, hv.Values)
	assert.Equal(t, "Two Pair", hv.Name)

	six := Evaluate(fields(t, "3H 7H 9H QH 2H 2C"))
	assert.Equal(t, Flush, six.Rank)
	assert.Equal(t, []int{12, 9, 7, 3, 2}, six.Values)
	assert.Equal(t, 1, Compare(six, Evaluate(fields(t, "3H 7H 9H QH 2C 2S"))))

	royal := Evaluate(fields(t, "TD JD QD KD AD 2C 2S"))
	assert.Equal(t, RoyalFlush, royal.Rank)
}

func TestDescribe(t *testing.T) {
	d := Describe(fields(t, "KC KD 2H 2S KH 9C 3D"))
	assert.Equal(t, "KKK-22", d)
	assert.Equal(t, "One Pair", Describe(fields(t, "KC KD")))
}

func fields(t *testing.T, s string) []Card {
	t.Helper()
	cs, err := ParseCards(strings.Fields(s)...)
	require.NoError(t, err)
	return cs
}

func phScore7(t *testing.T, cs []Card) int16 {
	t.Helper()
	var a [7]poker.Card
	for i, c := range cs {
		pc, err := toPH(c)
		require.NoError(t, err)
		a[i] = pc
	}
	return poker.Eval7(&a)
}

func cmp16(a, b int16) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	}
	return 0
}
