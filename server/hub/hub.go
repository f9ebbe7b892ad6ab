// Package hub fans game events out to websocket subscribers.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
)

// ErrBacklog is returned by Publish when the broadcast queue is full.
var ErrBacklog = errors.New("hub broadcast queue full")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StateFunc loads what a new subscriber to code should see first.
type StateFunc func(ctx context.Context, code string) (any, error)

// Update is the frame every client receives.
type Update struct {
	GameCode  string          `json:"gameCode"`
	Timestamp time.Time       `json:"timestamp"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
}

type client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	codes map[string]bool // owned by Hub.Run
}

type subscription struct {
	client *client
	code   string
}

type direct struct {
	client *client
	msg    []byte
}

// Hub tracks clients and their game subscriptions. All maps are owned by the
// Run goroutine; other goroutines talk to it through channels.
type Hub struct {
	clients     map[*client]bool
	games       map[string]map[*client]bool
	broadcast   chan Update
	register    chan *client
	unregister  chan *client
	subscribe   chan subscription
	unsubscribe chan subscription
	direct      chan direct
	done        chan struct{}

	state StateFunc
	log   zerolog.Logger

	mu    sync.RWMutex
	count int
}

func New(state StateFunc, log zerolog.Logger) *Hub {
	return &Hub{
		clients:     map[*client]bool{},
		games:       map[string]map[*client]bool{},
		broadcast:   make(chan Update, 256),
		register:    make(chan *client),
		unregister:  make(chan *client),
		subscribe:   make(chan subscription),
		unsubscribe: make(chan subscription),
		direct:      make(chan direct, 64),
		done:        make(chan struct{}),
		state:       state,
		log:         log,
	}
}

// Run serves the hub until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return nil

		case c := <-h.register:
			h.clients[c] = true
			h.setCount()
			h.log.Debug().Int("clients", len(h.clients)).Msg("client registered")

		case c := <-h.unregister:
			if h.clients[c] {
				h.drop(c)
				h.log.Debug().Int("clients", len(h.clients)).Msg("client unregistered")
			}

		case s := <-h.subscribe:
			if !h.clients[s.client] {
				continue
			}
			if h.games[s.code] == nil {
				h.games[s.code] = map[*client]bool{}
			}
			h.games[s.code][s.client] = true
			s.client.codes[s.code] = true
			h.log.Debug().Str("game", s.code).Int("subscribers", len(h.games[s.code])).Msg("subscribed")
			if h.state != nil {
				go h.sendState(ctx, s.client, s.code)
			}

		case s := <-h.unsubscribe:
			h.leave(s.client, s.code)

		case d := <-h.direct:
			if h.clients[d.client] {
				h.deliver(d.client, d.msg)
			}

		case u := <-h.broadcast:
			subs := h.games[u.GameCode]
			if len(subs) == 0 {
				continue
			}
			msg, err := json.Marshal(u)
			if err != nil {
				h.log.Error().Err(err).Str("event", u.Event).Msg("encode update")
				continue
			}
			for c := range subs {
				h.deliver(c, msg)
			}
		}
	}
}

// deliver queues msg for c, dropping clients that cannot keep up.
func (h *Hub) deliver(c *client, msg []byte) {
	select {
	case c.send <- msg:
	default:
		h.log.Warn().Msg("client too slow, disconnecting")
		h.drop(c)
	}
}

func (h *Hub) drop(c *client) {
	for code := range c.codes {
		h.leave(c, code)
	}
	delete(h.clients, c)
	close(c.send)
	h.setCount()
}

func (h *Hub) leave(c *client, code string) {
	delete(c.codes, code)
	if subs, ok := h.games[code]; ok {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.games, code)
		}
	}
}

func (h *Hub) setCount() {
	h.mu.Lock()
	h.count = len(h.clients)
	h.mu.Unlock()
}

// Clients is the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

func (h *Hub) sendState(ctx context.Context, c *client, code string) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	v, err := h.state(ctx, code)
	if err != nil {
		h.log.Debug().Err(err).Str("game", code).Msg("no initial state")
		h.sendDirect(c, code, EventError, map[string]string{"error": err.Error()})
		return
	}
	h.sendDirect(c, code, EventState, v)
}

func (h *Hub) sendDirect(c *client, code, event string, payload any) {
	msg, err := encode(code, event, payload)
	if err != nil {
		h.log.Error().Err(err).Str("event", event).Msg("encode update")
		return
	}
	select {
	case h.direct <- direct{client: c, msg: msg}:
	case <-h.done:
	}
}

func encode(code, event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Update{GameCode: code, Timestamp: time.Now().UTC(), Event: event, Data: data})
}

// Publish queues an event for the subscribers of code. It never blocks.
func (h *Hub) Publish(code, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- Update{GameCode: code, Timestamp: time.Now().UTC(), Event: event, Data: data}:
		return nil
	default:
		return ErrBacklog
	}
}

// ServeWS upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), codes: map[string]bool{}}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
	if code := r.URL.Query().Get("game"); code != "" {
		c.enqueue(h.subscribe, subscription{client: c, code: code})
	}
}

// Health reports liveness and the connected client count.
func (h *Hub) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "clients": h.Clients()})
}

func (c *client) enqueue(ch chan subscription, s subscription) {
	select {
	case ch <- s:
	case <-c.hub.done:
	}
}

func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug().Err(err).Msg("websocket read")
			}
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.hub.log.Debug().Err(err).Msg("bad client message")
			continue
		}
		switch msg.Type {
		case MsgSubscribe:
			if msg.GameCode != "" {
				c.enqueue(c.hub.subscribe, subscription{client: c, code: msg.GameCode})
			}
		case MsgUnsubscribe:
			if msg.GameCode != "" {
				c.enqueue(c.hub.unsubscribe, subscription{client: c, code: msg.GameCode})
			}
		case MsgPing:
			c.hub.sendDirect(c, msg.GameCode, EventPong, struct{}{})
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
