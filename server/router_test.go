package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poker-room/server/engine"
	"poker-room/server/hub"
	"poker-room/server/store"
	"poker-room/server/table"
)

type idleScheduler struct{}

func (idleScheduler) AfterFunc(time.Duration, func()) {}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mem := store.NewMemory()
	cfg := table.DefaultConfig()
	cfg.EquitySamples = 200
	svc := table.New(mem, mem, nil, cfg, 9, table.WithScheduler(idleScheduler{}))
	srv := httptest.NewServer(Router(svc, hub.New(nil, zerolog.Nop()), zerolog.Nop()))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	var raw json.RawMessage
	require.NoError(t, json.NewDecoder(res.Body).Decode(&raw))
	return res.StatusCode, raw
}

func TestRouterPlaysAHand(t *testing.T) {
	srv := newTestServer(t)

	status, _ := do(t, srv, http.MethodPost, "/games", `{"code":"t1"}`)
	require.Equal(t, http.StatusCreated, status)
	status, _ = do(t, srv, http.MethodPost, "/games", `{"code":"t1"}`)
	assert.Equal(t, http.StatusConflict, status)

	for _, id := range []string{"a", "b"} {
		status, _ = do(t, srv, http.MethodPost, "/games/t1/players", `{"playerId":"`+id+`","username":"`+id+`"}`)
		require.Equal(t, http.StatusOK, status)
	}
	status, _ = do(t, srv, http.MethodPost, "/games/t1/start", "")
	require.Equal(t, http.StatusOK, status)

	status, raw := do(t, srv, http.MethodGet, "/games/t1?player=a", "")
	require.Equal(t, http.StatusOK, status)
	var g engine.Game
	require.NoError(t, json.Unmarshal(raw, &g))
	assert.True(t, g.Locked)
	assert.Empty(t, g.Deck)
	assert.Len(t, g.Players[0].Hand, 2)
	assert.Empty(t, g.Players[1].Hand, "opponent cards stay hidden")

	status, _ = do(t, srv, http.MethodPost, "/games/t1/actions", `{"playerId":"b","action":"call"}`)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = do(t, srv, http.MethodPost, "/games/t1/actions", `{"playerId":"a","action":"shove"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = do(t, srv, http.MethodPost, "/games/t1/actions", `{"playerId":"a","action":"call"}`)
	require.Equal(t, http.StatusOK, status)

	status, raw = do(t, srv, http.MethodGet, "/games/t1/legal/b", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), `"check"`)

	status, _ = do(t, srv, http.MethodGet, "/games/t1/equity", "")
	assert.Equal(t, http.StatusForbidden, status, "no equity across hidden hands")
	status, raw = do(t, srv, http.MethodGet, "/games/t1/equity?player=b", "")
	require.Equal(t, http.StatusOK, status)
	var rep table.EquityReport
	require.NoError(t, json.Unmarshal(raw, &rep))
	require.Len(t, rep.Seats, 1)
	assert.Equal(t, "b", rep.Seats[0].PlayerID)

	status, raw = do(t, srv, http.MethodGet, "/games/t1/stats", "")
	require.Equal(t, http.StatusOK, status)
	var st struct {
		Seats []statsRow `json:"seats"`
	}
	require.NoError(t, json.Unmarshal(raw, &st))
	require.Len(t, st.Seats, 2)
	assert.Equal(t, 1, st.Seats[0].Calls)

	status, raw = do(t, srv, http.MethodPost, "/games/t1/timer/pause", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), `"isPaused": true`)
	status, _ = do(t, srv, http.MethodPost, "/games/t1/timer/pause", "")
	assert.Equal(t, http.StatusConflict, status)
	status, _ = do(t, srv, http.MethodPost, "/games/t1/timer/resume", "")
	assert.Equal(t, http.StatusOK, status)
	status, _ = do(t, srv, http.MethodPost, "/games/t1/timer/action", `{"playerId":"a","action":"check"}`)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = do(t, srv, http.MethodDelete, "/games/t1/players/b", "")
	require.Equal(t, http.StatusOK, status)
	status, raw = do(t, srv, http.MethodGet, "/games", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"games":["t1"]}`, string(raw))
}

func TestRouterErrors(t *testing.T) {
	srv := newTestServer(t)

	status, _ := do(t, srv, http.MethodGet, "/games/nope", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, srv, http.MethodPost, "/games", `{"code":"x"}`)
	require.Equal(t, http.StatusCreated, status)
	status, _ = do(t, srv, http.MethodPost, "/games/x/start", "")
	assert.Equal(t, http.StatusConflict, status, "not enough players")
	status, _ = do(t, srv, http.MethodPost, "/games/x/players", `{`)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = do(t, srv, http.MethodGet, "/games/x/equity", "")
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = do(t, srv, http.MethodGet, "/games/x/equity?player=ghost", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestStatusForBusy(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(table.ErrBusy))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
