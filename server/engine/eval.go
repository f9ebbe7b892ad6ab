package engine

import "sort"

type HandRank int

const (
	HighCard HandRank = iota
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

var handRankNames = [...]string{
	"High Card",
	"One Pair",
	"Two Pair",
	"Three of a Kind",
	"Straight",
	"Flush",
	"Full House",
	"Four of a Kind",
	"Straight Flush",
	"Royal Flush",
}

func (r HandRank) String() string {
	if r >= 0 && int(r) < len(handRankNames) {
		return handRankNames[r]
	}
	return "Unknown"
}

// HandValue describes the best hand in a set of cards. Score is the library
// score of the best five (higher is stronger) and is zero for partial hands,
// which are ordered by Rank then Values.
type HandValue struct {
	Rank   HandRank `json:"rank"`
	Values []int    `json:"values"`
	Name   string   `json:"rankName"`
	Score  int      `json:"score,omitempty"`
}

// Compare returns 1 if a beats b, -1 if b beats a and 0 on an exact tie.
func Compare(a, b HandValue) int {
	if a.Score > 0 && b.Score > 0 {
		return cmpInt(a.Score, b.Score)
	}
	if a.Rank != b.Rank {
		return cmpInt(int(a.Rank), int(b.Rank))
	}
	for i := 0; i < len(a.Values) && i < len(b.Values); i++ {
		if a.Values[i] != b.Values[i] {
			return cmpInt(a.Values[i], b.Values[i])
		}
	}
	return 0
}

func cmpInt(a, b int) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	}
	return 0
}

// Evaluate ranks the best five-card hand in cards. Five to seven cards are
// scored by the library; with fewer only pairings are detected.
func Evaluate(cards []Card) HandValue {
	if len(cards) < 5 || len(cards) > 7 {
		return evalGroups(cards)
	}
	score, five, err := best5(cards)
	if err != nil {
		return evalGroups(cards)
	}
	hv := classify(five)
	hv.Score = int(score)
	return hv
}

func named(r HandRank, vals []int) HandValue {
	return HandValue{Rank: r, Values: vals, Name: r.String()}
}

// classify reads the category and tie-break ranks off a made five-card hand.
func classify(five []Card) HandValue {
	g := evalGroups(five)
	if g.Rank != HighCard {
		return g
	}
	hr := g.Values
	flush := true
	for _, c := range five[1:] {
		if c.Suit != five[0].Suit {
			flush = false
			break
		}
	}
	straightHigh := 0
	switch {
	case hr[0]-hr[4] == 4:
		straightHigh = hr[0]
	case hr[0] == 14 && hr[1] == 5:
		straightHigh = 5 // wheel
	}
	switch {
	case flush && straightHigh == 14:
		return named(RoyalFlush, []int{14})
	case flush && straightHigh > 0:
		return named(StraightFlush, []int{straightHigh})
	case flush:
		return named(Flush, hr)
	case straightHigh > 0:
		return named(Straight, []int{straightHigh})
	}
	return g
}

type group struct{ rank, count int }

// evalGroups ranks by n-of-a-kind only; Values lists group ranks ordered by
// size then rank.
func evalGroups(cards []Card) HandValue {
	counts := map[int]int{}
	for _, c := range cards {
		counts[c.HighRank()]++
	}
	groups := make([]group, 0, len(counts))
	for r, n := range counts {
		groups = append(groups, group{r, n})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].rank > groups[j].rank
	})
	vals := make([]int, len(groups))
	for i, g := range groups {
		vals[i] = g.rank
	}
	if len(groups) == 0 {
		return named(HighCard, nil)
	}
	switch {
	case groups[0].count >= 4:
		return named(FourOfAKind, vals)
	case groups[0].count == 3 && len(groups) > 1 && groups[1].count >= 2:
		return named(FullHouse, vals[:2])
	case groups[0].count == 3:
		return named(ThreeOfAKind, vals)
	case groups[0].count == 2 && len(groups) > 1 && groups[1].count == 2:
		return named(TwoPair, vals)
	case groups[0].count == 2:
		return named(OnePair, vals)
	}
	return named(HighCard, vals)
}
