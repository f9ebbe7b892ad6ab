package engine

import (
	"fmt"
	"strings"
)

type Suit uint8

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

// Card ranks run 1..13 with 1 = Ace.
type Card struct {
	Rank int  `json:"type"`
	Suit Suit `json:"suit"`
}

const Ace = 1

// Rand is the slice of math/rand the dealer needs; *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// NewDeck returns the 52 cards in suit-major order.
func NewDeck() []Card {
	deck := make([]Card, 0, 52)
	for s := Clubs; s <= Spades; s++ {
		for r := 1; r <= 13; r++ {
			deck = append(deck, Card{Rank: r, Suit: s})
		}
	}
	return deck
}

// Shuffle permutes cards in place with Fisher-Yates and returns them.
func Shuffle(cards []Card, r Rand) []Card {
	for i := len(cards) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
	return cards
}

// HighRank maps Ace to 14 for comparisons.
func (c Card) HighRank() int {
	if c.Rank == Ace {
		return 14
	}
	return c.Rank
}

func (c Card) String() string {
	ranks := " A23456789TJQK"
	if c.Rank < 1 || c.Rank > 13 || c.Suit > Spades {
		return "??"
	}
	return fmt.Sprintf("%c%c", ranks[c.Rank], "CDHS"[c.Suit])
}

// ParseCard reads the mnemonic form, e.g. "AS", "TD", "10h".
func ParseCard(s string) (Card, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}
	rankStr, suitCh := s[:len(s)-1], s[len(s)-1]
	var c Card
	switch rankStr {
	case "A":
		c.Rank = Ace
	case "K":
		c.Rank = 13
	case "Q":
		c.Rank = 12
	case "J":
		c.Rank = 11
	case "T", "10":
		c.Rank = 10
	default:
		if len(rankStr) != 1 || rankStr[0] < '2' || rankStr[0] > '9' {
			return Card{}, fmt.Errorf("invalid rank in %q", s)
		}
		c.Rank = int(rankStr[0] - '0')
	}
	switch suitCh {
	case 'C':
		c.Suit = Clubs
	case 'D':
		c.Suit = Diamonds
	case 'H':
		c.Suit = Hearts
	case 'S':
		c.Suit = Spades
	default:
		return Card{}, fmt.Errorf("invalid suit in %q", s)
	}
	return c, nil
}

func ParseCards(ss ...string) ([]Card, error) {
	out := make([]Card, len(ss))
	for i, s := range ss {
		c, err := ParseCard(s)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// MustCards is ParseCards for fixtures.
func MustCards(ss ...string) []Card {
	cs, err := ParseCards(ss...)
	if err != nil {
		panic(err)
	}
	return cs
}

func cardsString(cs []Card) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// DeckIntact reports whether deck, communal cards and every hand together form
// the 52-card set exactly once.
func DeckIntact(g *Game) error {
	seen := make(map[Card]int, 52)
	add := func(cs []Card) {
		for _, c := range cs {
			seen[c]++
		}
	}
	add(g.Deck)
	add(g.CommunalCards)
	for i := range g.Players {
		add(g.Players[i].Hand)
	}
	for _, c := range NewDeck() {
		switch n := seen[c]; {
		case n == 0:
			return fmt.Errorf("card %s missing", c)
		case n > 1:
			return fmt.Errorf("card %s seen %d times", c, n)
		}
		delete(seen, c)
	}
	if len(seen) > 0 {
		return fmt.Errorf("%d foreign cards", len(seen))
	}
	return nil
}
