package main

import (
	"math"
	"sync"
	"time"
)

// Delta is the per-tick change applied to a generator's coordinates.
type Delta struct {
	Latitude  float64
	Longitude float64
}

// Generator owns the simulated position of one entity and advances it when ticked.
// The caller drives the cadence.
type Generator struct {
	entityID string
	delta    Delta
	wrap     bool
	now      func() time.Time

	mu          sync.RWMutex
	initialized bool
	seedLat     float64
	seedLng     float64
	ticks       int64
	current     Position
}

type GeneratorOption func(*Generator)

// WithClock replaces the wall clock used to stamp positions.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) { g.now = now }
}

// WithWrap keeps coordinates within [-90, 90] and [-180, 180).
func WithWrap() GeneratorOption {
	return func(g *Generator) { g.wrap = true }
}

func NewGenerator(entityID string, delta Delta, opts ...GeneratorOption) *Generator {
	g := &Generator{
		entityID: entityID,
		delta:    delta,
		now:      time.Now,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *Generator) EntityID() string {
	return g.entityID
}

// Initialize sets the seed position. It must be called exactly once before the first tick.
func (g *Generator) Initialize(lat, lng float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.initialized {
		return ErrAlreadyInitialized
	}
	g.seedLat, g.seedLng = lat, lng
	g.current = g.position(lat, lng, g.now().Truncate(time.Millisecond))
	g.initialized = true
	return nil
}

// Tick advances the position by one delta and returns the new sample.
func (g *Generator) Tick() (Position, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.initialized {
		return Position{}, ErrUninitializedState
	}
	g.ticks++
	// seed + n*delta, not a running sum
	lat := g.seedLat + float64(g.ticks)*g.delta.Latitude
	lng := g.seedLng + float64(g.ticks)*g.delta.Longitude
	// millisecond resolution, strictly increasing
	ts := g.now().Truncate(time.Millisecond)
	if !ts.After(g.current.Timestamp) {
		ts = g.current.Timestamp.Add(time.Millisecond)
	}
	g.current = g.position(lat, lng, ts)
	return g.current, nil
}

// Current returns the latest position and whether the generator has been initialized.
func (g *Generator) Current() (Position, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current, g.initialized
}

func (g *Generator) Initialized() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.initialized
}

func (g *Generator) position(lat, lng float64, ts time.Time) Position {
	if g.wrap {
		var folded bool
		lat, folded = wrapLatitude(lat)
		if folded {
			// crossing a pole puts the entity on the opposite meridian
			lng += 180
		}
		lng = wrapLongitude(lng)
	}
	return Position{
		EntityID:  g.entityID,
		Latitude:  lat,
		Longitude: lng,
		Timestamp: ts,
	}
}

// wrapLongitude maps v into [-180, 180).
func wrapLongitude(v float64) float64 {
	v = math.Mod(v+180, 360)
	if v < 0 {
		v += 360
	}
	return v - 180
}

// wrapLatitude folds v back over the poles into [-90, 90].
// It reports whether the result lies on the far side of a pole.
func wrapLatitude(v float64) (float64, bool) {
	v = math.Mod(v+90, 360)
	if v < 0 {
		v += 360
	}
	if v > 180 {
		return 360 - v - 90, true
	}
	return v - 90, false
}
