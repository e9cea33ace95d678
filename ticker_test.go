package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDeliverer struct {
	mu        sync.Mutex
	positions []Position
}

func (d *recordingDeliverer) Deliver(pos Position) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.positions = append(d.positions, pos)
	return 1
}

func (d *recordingDeliverer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.positions)
}

func TestTicker(t *testing.T) {
	t.Run("should advance every generator once per tick in order", func(t *testing.T) {
		out := &recordingDeliverer{}
		tk := newTicker([]*Generator{newTestGenerator(t, "v1"), newTestGenerator(t, "v2")}, out, time.Second)
		require.NoError(t, tk.tick())
		require.NoError(t, tk.tick())
		require.Len(t, out.positions, 4)
		assert.Equal(t, "v1", out.positions[0].EntityID)
		assert.Equal(t, "v2", out.positions[1].EntityID)
		assert.InDelta(t, 28.6317, out.positions[2].Latitude, coordTolerance)
		assert.NotZero(t, tk.lastTick())
	})
	t.Run("should report uninitialized generators", func(t *testing.T) {
		tk := newTicker([]*Generator{NewGenerator("v1", Delta{})}, &recordingDeliverer{}, time.Second)
		assert.ErrorIs(t, tk.validate(), ErrUninitializedState)
		assert.ErrorIs(t, tk.tick(), ErrUninitializedState)
	})
	t.Run("should stop the loop on generator error", func(t *testing.T) {
		tk := newTicker([]*Generator{NewGenerator("v1", Delta{})}, &recordingDeliverer{}, time.Millisecond)
		err := tk.run(context.Background())
		assert.ErrorIs(t, err, ErrUninitializedState)
	})
	t.Run("should tick on the timer until canceled", func(t *testing.T) {
		out := &recordingDeliverer{}
		tk := newTicker([]*Generator{newTestGenerator(t, "v1")}, out, 5*time.Millisecond)
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- tk.run(ctx) }()
		assert.Eventually(t, func() bool { return out.count() >= 3 }, 2*time.Second, 5*time.Millisecond)
		cancel()
		assert.NoError(t, <-done)
	})
	t.Run("should list current positions", func(t *testing.T) {
		tk := newTicker([]*Generator{newTestGenerator(t, "v1"), NewGenerator("v2", Delta{})}, &recordingDeliverer{}, time.Second)
		ps := tk.positions()
		require.Len(t, ps, 1)
		assert.Equal(t, "v1", ps[0].EntityID)
	})
}
