package main

import "time"

// Position is one immutable sample of an entity's location.
type Position struct {
	EntityID  string
	Latitude  float64
	Longitude float64
	Timestamp time.Time
}

// positionPayload is the normalized model expected by the frontend.
type positionPayload struct {
	EntityID  string  `json:"entityId"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
}

func (p Position) payload() positionPayload {
	return positionPayload{
		EntityID:  p.EntityID,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Timestamp: p.Timestamp.UnixMilli(),
	}
}

// envelope is the named event frame exchanged over the websocket in both directions.
type envelope[T any] struct {
	Event string `json:"event"`
	Data  T      `json:"data"`
}

type subscribeRequest struct {
	EntityID string `json:"entityId"`
}

const subscribeEvent = "subscribe"
