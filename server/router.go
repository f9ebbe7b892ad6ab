package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"poker-room/server/engine"
	"poker-room/server/hub"
	"poker-room/server/judge"
	"poker-room/server/store"
	"poker-room/server/table"
)

type api struct {
	svc *table.Service
	log zerolog.Logger
}

func Router(svc *table.Service, h *hub.Hub, log zerolog.Logger) http.Handler {
	a := &api{svc: svc, log: log}
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLog(log), middleware.Recoverer)

	r.Get("/health", h.Health)
	r.Get("/ws", h.ServeWS)

	r.Route("/games", func(r chi.Router) {
		r.Get("/", a.listGames)
		r.Post("/", a.createGame)
		r.Route("/{code}", func(r chi.Router) {
			r.Get("/", a.getGame)
			r.Post("/players", a.join)
			r.Delete("/players/{playerID}", a.leave)
			r.Post("/start", a.start)
			r.Post("/restart", a.restart)
			r.Post("/deal", a.deal)
			r.Post("/actions", a.action)
			r.Get("/legal/{playerID}", a.legal)
			r.Get("/equity", a.equity)
			r.Get("/stats", a.stats)

			r.Post("/timer", a.startTimer)
			r.Post("/timer/pause", a.pauseTimer)
			r.Post("/timer/resume", a.resumeTimer)
			r.Post("/timer/action", a.timerAction)
		})
	})
	return r
}

func requestLog(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug().
				Str("req", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("took", time.Since(start)).
				Msg("http")
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, table.ErrBusy):
		return http.StatusServiceUnavailable
	case errors.Is(err, engine.ErrGameNotFound), errors.Is(err, engine.ErrPlayerNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrNotYourTurn), errors.Is(err, engine.ErrTimerNotYours), errors.Is(err, table.ErrHiddenCards):
		return http.StatusForbidden
	case errors.Is(err, engine.ErrInsufficientChips), errors.Is(err, engine.ErrBetTooSmall),
		errors.Is(err, engine.ErrInvalidAction), errors.Is(err, judge.ErrNoHands):
		return http.StatusBadRequest
	case engine.IsValidation(err), errors.Is(err, store.ErrDuplicateKey), errors.Is(err, table.ErrStaleTimer):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (a *api) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		a.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// decode reads an optional JSON body into v.
func decode(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return engine.ErrInvalidAction
	}
	return nil
}

func code(r *http.Request) string { return chi.URLParam(r, "code") }

// reply writes g as seen by the player named in ?player=.
func reply(w http.ResponseWriter, r *http.Request, status int, g *engine.Game) {
	writeJSON(w, status, table.View(g, r.URL.Query().Get("player")))
}

func (a *api) listGames(w http.ResponseWriter, r *http.Request) {
	codes, err := a.svc.Codes(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"games": codes})
}

func (a *api) createGame(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
	}
	if err := decode(r, &body); err != nil {
		a.fail(w, r, err)
		return
	}
	g, err := a.svc.CreateGame(r.Context(), body.Code)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	reply(w, r, http.StatusCreated, g)
}

func (a *api) getGame(w http.ResponseWriter, r *http.Request) {
	g, err := a.svc.Get(r.Context(), code(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	reply(w, r, http.StatusOK, g)
}

func (a *api) join(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PlayerID string `json:"playerId"`
		Username string `json:"username"`
		IsAI     bool   `json:"isAI"`
	}
	if err := decode(r, &body); err != nil {
		a.fail(w, r, err)
		return
	}
	if body.PlayerID == "" {
		a.fail(w, r, engine.ErrInvalidAction)
		return
	}
	g, err := a.svc.AddPlayer(r.Context(), code(r), body.PlayerID, body.Username, body.IsAI)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, table.View(g, body.PlayerID))
}

func (a *api) leave(w http.ResponseWriter, r *http.Request) {
	g, err := a.svc.RemovePlayer(r.Context(), code(r), chi.URLParam(r, "playerID"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	reply(w, r, http.StatusOK, g)
}

func (a *api) start(w http.ResponseWriter, r *http.Request) {
	a.run(w, r, a.svc.StartNow)
}

func (a *api) restart(w http.ResponseWriter, r *http.Request) {
	a.run(w, r, a.svc.Restart)
}

func (a *api) deal(w http.ResponseWriter, r *http.Request) {
	a.run(w, r, a.svc.Deal)
}

func (a *api) run(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, code string) (*engine.Game, error)) {
	g, err := op(r.Context(), code(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	reply(w, r, http.StatusOK, g)
}

type actionBody struct {
	PlayerID string            `json:"playerId"`
	Action   engine.ActionKind `json:"action"`
	Amount   int               `json:"amount"`
}

func (a *api) action(w http.ResponseWriter, r *http.Request) {
	var body actionBody
	if err := decode(r, &body); err != nil {
		a.fail(w, r, err)
		return
	}
	if !body.Action.Valid() {
		a.fail(w, r, engine.ErrInvalidAction)
		return
	}
	g, err := a.svc.Act(r.Context(), code(r), body.PlayerID, body.Action, body.Amount)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, table.View(g, body.PlayerID))
}

func (a *api) legal(w http.ResponseWriter, r *http.Request) {
	legal, err := a.svc.Legal(r.Context(), code(r), chi.URLParam(r, "playerID"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if legal == nil {
		legal = []engine.ActionKind{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"legal": legal})
}

func (a *api) equity(w http.ResponseWriter, r *http.Request) {
	rep, err := a.svc.Equity(r.Context(), code(r), r.URL.Query().Get("player"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (a *api) stats(w http.ResponseWriter, r *http.Request) {
	g, err := a.svc.Get(r.Context(), code(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"handNumber": g.HandNumber, "seats": seatStats(g)})
}

func (a *api) startTimer(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Kind           engine.TimerKind `json:"actionType"`
		TargetPlayerID string           `json:"targetPlayerId"`
		Seconds        int              `json:"seconds"`
	}
	if err := decode(r, &body); err != nil {
		a.fail(w, r, err)
		return
	}
	if body.Kind == "" {
		body.Kind = engine.TimerTurn
	}
	t, err := a.svc.StartTimer(r.Context(), code(r), body.Kind, body.TargetPlayerID, time.Duration(body.Seconds)*time.Second)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *api) pauseTimer(w http.ResponseWriter, r *http.Request) {
	t, err := a.svc.PauseTimer(r.Context(), code(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *api) resumeTimer(w http.ResponseWriter, r *http.Request) {
	t, err := a.svc.ResumeTimer(r.Context(), code(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *api) timerAction(w http.ResponseWriter, r *http.Request) {
	var body actionBody
	if err := decode(r, &body); err != nil {
		a.fail(w, r, err)
		return
	}
	t, err := a.svc.SetTimerAction(r.Context(), code(r), body.PlayerID, body.Action)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
