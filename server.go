package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// app wires the ticker, the hub and the HTTP surface of one process.
type app struct {
	cfg      AppConfig
	ticker   *ticker
	hub      *hub
	upgrader websocket.Upgrader
}

func newApp(cfg AppConfig) (*app, error) {
	generators, err := newGenerators(cfg)
	if err != nil {
		return nil, err
	}
	h := newHub(cfg.Stream.EventName, cfg.Stream.MaxConcurrentWrites, cfg.entityIDs())
	t := newTicker(generators, h, cfg.Stream.tickInterval())
	if err := t.validate(); err != nil {
		return nil, err
	}
	return &app{
		cfg:      cfg,
		ticker:   t,
		hub:      h,
		upgrader: newUpgrader(cfg.Server.AllowedOrigins),
	}, nil
}

func (a *app) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/health", a.handleHealth)
	mux.HandleFunc("/api/positions", a.handlePositions)
	mux.HandleFunc("/api/gtfsrt/vehicle-positions.pb", a.handleVehiclePositionsFeed)
	mux.HandleFunc("/api/siri/vehicle-monitoring.json", a.handleVehicleMonitoringJSON)
	mux.HandleFunc("/api/siri/vehicle-monitoring.xml", a.handleVehicleMonitoringXML)

	mux.HandleFunc("/ws", a.handleWebSocket)

	fs := http.FileServer(http.Dir(a.cfg.Server.StaticDir))
	mux.Handle("/", withLogging(fs))
}

func (a *app) newServer() *http.Server {
	mux := http.NewServeMux()
	a.registerRoutes(mux)
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

type healthResponse struct {
	Status        string `json:"status"`
	Subscriptions int    `json:"subscriptions"`
	Entities      int    `json:"entities"`
	LastTickEpoch int64  `json:"last_tick_epoch"`
}

func (a *app) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:        "ok",
		Subscriptions: a.hub.Len(),
		Entities:      len(a.cfg.Entities),
		LastTickEpoch: a.ticker.lastTick(),
	}
	writeJSON(w, resp)
}

// handlePositions returns the latest position of every entity.
// It is a point-in-time read and does not touch the stream.
func (a *app) handlePositions(w http.ResponseWriter, r *http.Request) {
	positions := a.ticker.positions()
	out := make([]positionPayload, 0, len(positions))
	for _, p := range positions {
		out = append(out, p.payload())
	}
	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write json response", "error", err)
	}
}

func withLogging(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Info("http request", "method", r.Method, "path", r.URL.Path)
		h.ServeHTTP(w, r)
	})
}
