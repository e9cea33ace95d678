package main

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Sink is the delivery handle of one connected client.
type Sink interface {
	Send(data []byte) error
	Close() error
}

// Subscription is a client's registration to receive position updates.
// An empty entity means all entities.
type Subscription struct {
	ID     uint64
	sink   Sink
	entity string // guarded by hub.mu
	active atomic.Bool
}

func (s *Subscription) Active() bool {
	return s.active.Load()
}

// hub holds the active subscriptions and fans positions out to them.
type hub struct {
	eventName string
	maxWrites int
	entities  map[string]struct{}

	mu   sync.Mutex
	subs map[uint64]*Subscription

	nextID atomic.Uint64
}

func newHub(eventName string, maxWrites int, entities []string) *hub {
	h := &hub{
		eventName: eventName,
		maxWrites: maxWrites,
		entities:  make(map[string]struct{}, len(entities)),
		subs:      make(map[uint64]*Subscription),
	}
	for _, id := range entities {
		h.entities[id] = struct{}{}
	}
	return h
}

// Known reports whether entity is tracked. The empty entity means all and is always known.
func (h *hub) Known(entity string) bool {
	if entity == "" {
		return true
	}
	_, ok := h.entities[entity]
	return ok
}

// Connect registers sink and starts delivering subsequent ticks to it.
func (h *hub) Connect(sink Sink, entity string) *Subscription {
	s := &Subscription{
		ID:     h.nextID.Add(1),
		sink:   sink,
		entity: entity,
	}
	s.active.Store(true)
	h.mu.Lock()
	h.subs[s.ID] = s
	h.mu.Unlock()
	return s
}

// Disconnect removes the subscription and closes its sink. Unknown or already removed ids are ignored.
func (h *hub) Disconnect(id uint64) {
	h.mu.Lock()
	s, ok := h.subs[id]
	if ok {
		s.active.Store(false)
		delete(h.subs, id)
	}
	h.mu.Unlock()
	if !ok {
		return
	}
	if err := s.sink.Close(); err != nil {
		slog.Debug("close sink", "subscription", id, "error", err)
	}
}

// Subscribe changes the entity an active subscription receives.
func (h *hub) Subscribe(id uint64, entity string) error {
	if !h.Known(entity) {
		return ErrUnknownEntity
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.subs[id]
	if !ok {
		return ErrNotSubscribed
	}
	s.entity = entity
	return nil
}

// Len returns the number of active subscriptions.
func (h *hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Deliver pushes pos to every active subscription for its entity and returns
// after all writes have finished. It reports the number of successful deliveries.
// A failed write drops that subscription only.
func (h *hub) Deliver(pos Position) int {
	data, err := json.Marshal(envelope[positionPayload]{Event: h.eventName, Data: pos.payload()})
	if err != nil {
		slog.Error("encode position", "entity", pos.EntityID, "error", err)
		return 0
	}
	targets := h.snapshot(pos.EntityID)
	var delivered atomic.Int64
	g := new(errgroup.Group)
	if h.maxWrites > 0 {
		g.SetLimit(h.maxWrites)
	}
	for _, s := range targets {
		s := s
		g.Go(func() error {
			if !s.active.Load() {
				return nil
			}
			if err := s.sink.Send(data); err != nil {
				slog.Debug("dropping subscription", "error", &DeliveryError{SubscriptionID: s.ID, Err: err})
				h.Disconnect(s.ID)
				return nil
			}
			delivered.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return int(delivered.Load())
}

// CloseAll disconnects every subscription.
func (h *hub) CloseAll() {
	h.mu.Lock()
	ids := make([]uint64, 0, len(h.subs))
	for id := range h.subs {
		ids = append(ids, id)
	}
	h.mu.Unlock()
	for _, id := range ids {
		h.Disconnect(id)
	}
}

func (h *hub) snapshot(entity string) []*Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Subscription, 0, len(h.subs))
	for _, s := range h.subs {
		if s.entity == "" || s.entity == entity {
			out = append(out, s)
		}
	}
	return out
}
