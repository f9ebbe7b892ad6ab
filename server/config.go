package main

import (
	"crypto/rand"
	"encoding/binary"
	"os"
	"strconv"
	"strings"
	"time"

	"poker-room/server/engine"
	"poker-room/server/table"
)

type config struct {
	Port        string
	DatabaseURL string
	AutoMigrate bool
	Debug       bool
	Color       bool
	DeckSeed    uint64
	Table       table.Config
}

func loadConfig() config {
	tc := table.DefaultConfig()
	tc.Game = engine.Config{
		SmallBlind:   atoiDef(os.Getenv("SMALL_BLIND"), 1),
		BigBlind:     atoiDef(os.Getenv("BIG_BLIND"), 2),
		MaxSeats:     atoiDef(os.Getenv("MAX_SEATS"), 5),
		TurnDuration: seconds("TURN_SECONDS", 30),
	}
	tc.LockDelay = seconds("LOCK_SECONDS", 10)
	tc.NextHandDelay = seconds("NEXT_HAND_SECONDS", 0)
	tc.StartBalance = atoiDef(os.Getenv("START_BALANCE"), 100)
	tc.AIAggression = atofDef(os.Getenv("AI_AGGRESSION"), 0.5)
	tc.EquitySamples = atoiDef(os.Getenv("EQUITY_SAMPLES"), tc.EquitySamples)

	return config{
		Port:        getenv("PORT", "8080"),
		DatabaseURL: getenv("DATABASE_URL", ""),
		AutoMigrate: asBool(os.Getenv("AUTO_MIGRATE")),
		Debug:       asBool(os.Getenv("DEBUG")),
		Color:       os.Getenv("NO_COLOR") == "",
		DeckSeed:    deckSeedFromEnvOrCrypto(),
		Table:       tc,
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoiDef(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func atofDef(s string, def float64) float64 {
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}

func asBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func seconds(key string, def int) time.Duration {
	return time.Duration(atoiDef(os.Getenv(key), def)) * time.Second
}

//
// ===== randomness =====
//

type seedStream struct{ state uint64 }

func newSeedStream(base uint64) seedStream { return seedStream{state: base} }

// next is splitmix64: consecutive outputs are decorrelated even for small
// consecutive bases.
func (s *seedStream) next() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z ^= z >> 30
	z *= 0xBF58476D1CE4E5B9
	z ^= z >> 27
	z *= 0x94D049BB133111EB
	z ^= z >> 31
	return z
}

func secureBaseSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err == nil {
		return binary.LittleEndian.Uint64(b[:]) ^ uint64(time.Now().UnixNano()) ^ uint64(os.Getpid())
	}
	return uint64(time.Now().UnixNano()) ^ 0xA5A5A5A5A5A5A5A5
}

func deckSeedFromEnvOrCrypto() uint64 {
	if s := os.Getenv("DECK_SEED"); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			return uint64(v)
		}
	}
	return secureBaseSeed()
}
