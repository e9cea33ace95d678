package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// deliverer receives each new position produced by the ticker.
type deliverer interface {
	Deliver(pos Position) int
}

// ticker is the single timer driving all generators.
// Each tick advances every generator once, in order, and hands the result to the hub.
type ticker struct {
	generators []*Generator
	out        deliverer
	interval   time.Duration
	lastTickMs atomic.Int64
}

func newTicker(generators []*Generator, out deliverer, interval time.Duration) *ticker {
	return &ticker{
		generators: generators,
		out:        out,
		interval:   interval,
	}
}

// validate fails when any generator has not been seeded.
func (t *ticker) validate() error {
	for _, g := range t.generators {
		if !g.Initialized() {
			return fmt.Errorf("entity %s: %w", g.EntityID(), ErrUninitializedState)
		}
	}
	return nil
}

// run ticks until ctx is canceled. A generator error stops the loop and is returned.
func (t *ticker) run(ctx context.Context) error {
	tk := time.NewTicker(t.interval)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tk.C:
			if err := t.tick(); err != nil {
				return err
			}
		}
	}
}

func (t *ticker) tick() error {
	for _, g := range t.generators {
		pos, err := g.Tick()
		if err != nil {
			return fmt.Errorf("tick entity %s: %w", g.EntityID(), err)
		}
		n := t.out.Deliver(pos)
		slog.Debug("position delivered", "entity", pos.EntityID, "lat", pos.Latitude, "lng", pos.Longitude, "subscriptions", n)
	}
	t.lastTickMs.Store(time.Now().UnixMilli())
	return nil
}

// positions returns the latest position of every initialized generator.
func (t *ticker) positions() []Position {
	out := make([]Position, 0, len(t.generators))
	for _, g := range t.generators {
		if p, ok := g.Current(); ok {
			out = append(out, p)
		}
	}
	return out
}

func (t *ticker) lastTick() int64 {
	return t.lastTickMs.Load()
}
