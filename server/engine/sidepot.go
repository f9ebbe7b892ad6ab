package engine

type SidePot struct {
	Amount            int      `json:"amount"`
	EligiblePlayerIDs []string `json:"eligiblePlayerIds"`
}

// CalculatePots splits the chips in bets (indexed like players) into a main
// pot and side pots. Each tier is capped by the smallest remaining
// contribution; folded seats pay into tiers but are never eligible. Adjacent
// tiers with the same eligible set are merged, and a tier nobody can win is
// folded into the pot below it.
func CalculatePots(players []Player, bets []int) []SidePot {
	type rem struct {
		seat   int
		amount int
	}
	remaining := make([]rem, 0, len(bets))
	for i, b := range bets {
		if b > 0 && i < len(players) {
			remaining = append(remaining, rem{seat: i, amount: b})
		}
	}

	var pots []SidePot
	for len(remaining) > 0 {
		min := remaining[0].amount
		for _, r := range remaining[1:] {
			if r.amount < min {
				min = r.amount
			}
		}
		pot := SidePot{Amount: min * len(remaining)}
		for _, r := range remaining {
			p := &players[r.seat]
			if !p.Folded && !p.Left {
				pot.EligiblePlayerIDs = append(pot.EligiblePlayerIDs, p.ID)
			}
		}
		pots = appendPot(pots, pot)

		next := remaining[:0]
		for _, r := range remaining {
			r.amount -= min
			if r.amount > 0 {
				next = append(next, r)
			}
		}
		remaining = next
	}
	return pots
}

func appendPot(pots []SidePot, p SidePot) []SidePot {
	if len(pots) > 0 {
		last := &pots[len(pots)-1]
		if len(p.EligiblePlayerIDs) == 0 || sameIDs(last.EligiblePlayerIDs, p.EligiblePlayerIDs) {
			last.Amount += p.Amount
			return pots
		}
	}
	return append(pots, p)
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
