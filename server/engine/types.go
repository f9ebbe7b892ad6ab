package engine

import "time"

type Stage int

const (
	Preflop Stage = iota
	Flop
	Turn
	River
	Showdown
	End
)

func (s Stage) String() string {
	switch s {
	case Preflop:
		return "preflop"
	case Flop:
		return "flop"
	case Turn:
		return "turn"
	case River:
		return "river"
	case Showdown:
		return "showdown"
	case End:
		return "end"
	}
	return "unknown"
}

// ActionKind is the closed set of player actions. Blind and system kinds only
// ever appear in the action history.
type ActionKind string

const (
	Check ActionKind = "check"
	Call  ActionKind = "call"
	Bet   ActionKind = "bet"
	Raise ActionKind = "raise"
	Fold  ActionKind = "fold"
	AllIn ActionKind = "all-in"
)

// Valid reports whether k is a player action (not a history-only kind).
func (k ActionKind) Valid() bool {
	switch k {
	case Check, Call, Bet, Raise, Fold, AllIn:
		return true
	}
	return false
}

type HistoryKind string

const (
	HistSmallBlind HistoryKind = "small-blind"
	HistBigBlind   HistoryKind = "big-blind"
	HistCheck      HistoryKind = "check"
	HistCall       HistoryKind = "call"
	HistBet        HistoryKind = "bet"
	HistRaise      HistoryKind = "raise"
	HistFold       HistoryKind = "fold"
	HistAllIn      HistoryKind = "all-in"
	HistDeal       HistoryKind = "deal"
	HistRedeal     HistoryKind = "redeal"
	HistReveal     HistoryKind = "reveal"
	HistShowdown   HistoryKind = "showdown"
	HistWin        HistoryKind = "win"
	HistJoin       HistoryKind = "join"
	HistLeave      HistoryKind = "leave"
	HistLock       HistoryKind = "lock"
	HistTimeout    HistoryKind = "timeout"
	HistInvariant  HistoryKind = "invariant"
)

func historyKindFor(k ActionKind) HistoryKind {
	switch k {
	case Check:
		return HistCheck
	case Call:
		return HistCall
	case Bet:
		return HistBet
	case Raise:
		return HistRaise
	case AllIn:
		return HistAllIn
	}
	return HistFold
}

type TimerKind string

const (
	TimerTurn     TimerKind = "turn"
	TimerLock     TimerKind = "lock"
	TimerNextHand TimerKind = "next-hand"
)

type Player struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Hand        []Card `json:"hand"`
	ChipCount   int    `json:"chipCount"`
	IsAI        bool   `json:"isAI"`
	Folded      bool   `json:"folded"`
	IsAllIn     bool   `json:"isAllIn"`
	AllInAmount int    `json:"allInAmount,omitempty"`
	HasActed    bool   `json:"hasActed"`
	TotalBet    int    `json:"totalBet"`
	Left        bool   `json:"left,omitempty"`
}

// canAct reports whether the seat still takes part in betting decisions.
func (p *Player) canAct() bool {
	return !p.Folded && !p.IsAllIn && !p.Left
}

type Contribution struct {
	PlayerID string `json:"playerId"`
	Stage    Stage  `json:"stage"`
	Chips    int    `json:"chips"`
}

type ActionTimer struct {
	ID             string        `json:"id"`
	StartTime      time.Time     `json:"startTime"`
	Duration       time.Duration `json:"duration"`
	TargetPlayerID string        `json:"targetPlayerId,omitempty"`
	ActionType     TimerKind     `json:"actionType"`
	SelectedAction *ActionKind   `json:"selectedAction,omitempty"`
	IsPaused       bool          `json:"isPaused"`
	Elapsed        time.Duration `json:"elapsed"`
}

// Remaining is the time left before expiry as seen at now.
func (t *ActionTimer) Remaining(now time.Time) time.Duration {
	used := t.Elapsed
	if !t.IsPaused {
		used += now.Sub(t.StartTime)
	}
	if left := t.Duration - used; left > 0 {
		return left
	}
	return 0
}

type HistoryEntry struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Stage     Stage       `json:"stage"`
	Type      HistoryKind `json:"actionType"`
	PlayerID  string      `json:"playerId,omitempty"`
	BetAmount int         `json:"betAmount,omitempty"`
	IsBlind   bool        `json:"isBlind,omitempty"`
	Cards     []Card      `json:"cards,omitempty"`
	Message   string      `json:"message,omitempty"`
}

type PotAward struct {
	Amount  int      `json:"amount"`
	Winners []string `json:"winners"`
}

type Winner struct {
	WinnerID    string     `json:"winnerId,omitempty"`
	IsTie       bool       `json:"isTie,omitempty"`
	TiedPlayers []string   `json:"tiedPlayers,omitempty"`
	HandRank    HandRank   `json:"handRank"`
	HandName    string     `json:"handName,omitempty"`
	Description string     `json:"description,omitempty"`
	ByFold      bool       `json:"byFold,omitempty"`
	Awards      []PotAward `json:"awards,omitempty"`
}

type Config struct {
	SmallBlind   int
	BigBlind     int
	MaxSeats     int
	TurnDuration time.Duration
}

func DefaultConfig() Config {
	return Config{SmallBlind: 1, BigBlind: 2, MaxSeats: 5, TurnDuration: 30 * time.Second}
}

// Game is the single aggregate persisted as one document.
type Game struct {
	ID                   string         `json:"id"`
	Code                 string         `json:"code"`
	Version              int64          `json:"version"`
	Players              []Player       `json:"players"`
	Deck                 []Card         `json:"deck"`
	CommunalCards        []Card         `json:"communalCards"`
	Pot                  []Contribution `json:"pot"`
	Stage                Stage          `json:"stage"`
	Locked               bool           `json:"locked"`
	CurrentPlayerIndex   int            `json:"currentPlayerIndex"`
	CurrentBet           int            `json:"currentBet"`
	PlayerBets           []int          `json:"playerBets"`
	ActionTimer          *ActionTimer   `json:"actionTimer,omitempty"`
	ActionHistory        []HistoryEntry `json:"actionHistory"`
	Winner               *Winner        `json:"winner,omitempty"`
	DealerButtonPosition int            `json:"dealerButtonPosition"`
	HandNumber           int            `json:"handNumber"`
	SmallBlind           int            `json:"smallBlind"`
	BigBlind             int            `json:"bigBlind"`
	MaxSeats             int            `json:"maxSeats"`
	CreatedAt            time.Time      `json:"createdAt"`
	UpdatedAt            time.Time      `json:"updatedAt"`
}

// Clone returns a deep copy so an operation can build the next state without
// touching the snapshot it read.
func (g *Game) Clone() *Game {
	c := *g
	c.Players = make([]Player, len(g.Players))
	for i, p := range g.Players {
		p.Hand = append([]Card(nil), p.Hand...)
		c.Players[i] = p
	}
	c.Deck = append([]Card(nil), g.Deck...)
	c.CommunalCards = append([]Card(nil), g.CommunalCards...)
	c.Pot = append([]Contribution(nil), g.Pot...)
	c.PlayerBets = append([]int(nil), g.PlayerBets...)
	c.ActionHistory = append([]HistoryEntry(nil), g.ActionHistory...)
	if g.ActionTimer != nil {
		t := *g.ActionTimer
		if t.SelectedAction != nil {
			a := *t.SelectedAction
			t.SelectedAction = &a
		}
		c.ActionTimer = &t
	}
	if g.Winner != nil {
		w := *g.Winner
		w.TiedPlayers = append([]string(nil), g.Winner.TiedPlayers...)
		w.Awards = make([]PotAward, len(g.Winner.Awards))
		for i, a := range g.Winner.Awards {
			a.Winners = append([]string(nil), a.Winners...)
			w.Awards[i] = a
		}
		c.Winner = &w
	}
	return &c
}

func (g *Game) SeatOf(playerID string) int {
	for i := range g.Players {
		if g.Players[i].ID == playerID {
			return i
		}
	}
	return -1
}

// CurrentPlayer returns the seat whose turn it is, or nil outside a live hand.
func (g *Game) CurrentPlayer() *Player {
	if !g.handLive() || g.CurrentPlayerIndex < 0 || g.CurrentPlayerIndex >= len(g.Players) {
		return nil
	}
	return &g.Players[g.CurrentPlayerIndex]
}

func (g *Game) handLive() bool {
	return g.Locked && g.Winner == nil && g.Stage < Showdown
}

// PotTotal is the sum of every contribution made this hand.
func (g *Game) PotTotal() int {
	total := 0
	for _, c := range g.Pot {
		total += c.Chips
	}
	return total
}

func (g *Game) ToCall(seat int) int {
	if seat < 0 || seat >= len(g.PlayerBets) {
		return 0
	}
	if d := g.CurrentBet - g.PlayerBets[seat]; d > 0 {
		return d
	}
	return 0
}

func (g *Game) activeCount() int {
	n := 0
	for i := range g.Players {
		if !g.Players[i].Folded && !g.Players[i].Left {
			n++
		}
	}
	return n
}
