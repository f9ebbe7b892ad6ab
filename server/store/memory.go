package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"poker-room/server/engine"
)

type memGame struct {
	doc     []byte
	version int64
	seq     int
}

// Memory keeps games as encoded documents so callers never share state with
// the store, matching the database semantics.
type Memory struct {
	mu       sync.Mutex
	games    map[string]*memGame
	balances map[string]int
	seq      int
}

func NewMemory() *Memory {
	return &Memory{games: map[string]*memGame{}, balances: map[string]int{}}
}

func (m *Memory) Load(ctx context.Context, code string) (*engine.Game, error) {
	m.mu.Lock()
	rec, ok := m.games[code]
	if !ok {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	// doc and version change together in Save
	doc, version := rec.doc, rec.version
	m.mu.Unlock()

	var g engine.Game
	if err := json.Unmarshal(doc, &g); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", code, err)
	}
	g.Version = version
	return &g, nil
}

func (m *Memory) Save(ctx context.Context, g *engine.Game, expected int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.games[g.Code]
	if !ok {
		return ErrNotFound
	}
	if rec.version != expected {
		return ErrVersionConflict
	}
	g.Version = expected + 1
	doc, err := json.Marshal(g)
	if err != nil {
		g.Version = expected
		return err
	}
	rec.doc, rec.version = doc, g.Version
	return nil
}

func (m *Memory) Create(ctx context.Context, g *engine.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[g.Code]; ok {
		return ErrDuplicateKey
	}
	g.Version = 1
	doc, err := json.Marshal(g)
	if err != nil {
		return err
	}
	m.seq++
	m.games[g.Code] = &memGame{doc: doc, version: 1, seq: m.seq}
	return nil
}

func (m *Memory) Codes(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.games))
	for c := range m.games {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return m.games[out[i]].seq > m.games[out[j]].seq })
	return out, nil
}

func (m *Memory) GetOrCreateBalance(ctx context.Context, userID string, initial int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if chips, ok := m.balances[userID]; ok {
		return chips, nil
	}
	m.balances[userID] = initial
	return initial, nil
}

func (m *Memory) SetBalance(ctx context.Context, userID string, chips int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[userID] = chips
	return nil
}
