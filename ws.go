package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const maxClientMessageSize = 4096

// newUpgrader accepts every origin unless allowedOrigins is set.
// Requests without an Origin header come from non-browser clients and are always accepted.
func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(allowedOrigins, origin)
		},
	}
}

// wsSink writes to a websocket connection. Writes are serialized and bounded by writeWait.
type wsSink struct {
	conn      *websocket.Conn
	writeWait time.Duration
	mu        sync.Mutex
}

func (s *wsSink) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeWait > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeWait)); err != nil {
			return err
		}
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *wsSink) Close() error {
	return s.conn.Close()
}

func (a *app) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	entity := r.URL.Query().Get("entity")
	if !a.hub.Known(entity) {
		http.Error(w, "unknown entity", http.StatusNotFound)
		return
	}
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket connection rejected", "error", &ConnectionSetupError{RemoteAddr: r.RemoteAddr, Err: err})
		return
	}
	conn.SetReadLimit(maxClientMessageSize)
	sub := a.hub.Connect(&wsSink{conn: conn, writeWait: a.cfg.Stream.writeTimeout()}, entity)
	slog.Info("client connected", "subscription", sub.ID, "remote", r.RemoteAddr, "entity", entity)
	go a.readPump(conn, sub.ID)
}

// readPump consumes client messages until the connection fails, then disconnects the subscription.
func (a *app) readPump(c *websocket.Conn, id uint64) {
	defer func() {
		a.hub.Disconnect(id)
		slog.Info("client disconnected", "subscription", id)
	}()
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			return
		}
		a.handleClientMessage(id, data)
	}
}

func (a *app) handleClientMessage(id uint64, data []byte) {
	var msg envelope[subscribeRequest]
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Debug("ignoring malformed client message", "subscription", id, "error", err)
		return
	}
	if msg.Event != subscribeEvent {
		slog.Debug("ignoring client message", "subscription", id, "event", msg.Event)
		return
	}
	err := a.hub.Subscribe(id, msg.Data.EntityID)
	switch {
	case errors.Is(err, ErrUnknownEntity):
		slog.Warn("subscribe to unknown entity", "subscription", id, "entity", msg.Data.EntityID)
	case err != nil:
		slog.Debug("subscribe failed", "subscription", id, "error", err)
	default:
		slog.Info("client subscribed", "subscription", id, "entity", msg.Data.EntityID)
	}
}
