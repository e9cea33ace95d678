package main

import (
	"errors"
	"fmt"
)

var (
	// ErrUninitializedState is returned when a generator is ticked before it was seeded.
	ErrUninitializedState = errors.New("generator ticked before initialize")
	ErrAlreadyInitialized = errors.New("generator already initialized")
	ErrUnknownEntity      = errors.New("unknown entity")
	ErrNotSubscribed      = errors.New("no active subscription")
)

// DeliveryError reports a failed write to one subscription.
// It never leaves the hub: the subscription is dropped and the fan-out continues.
type DeliveryError struct {
	SubscriptionID uint64
	Err            error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to subscription %d: %v", e.SubscriptionID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// ConnectionSetupError reports a client that could not be accepted.
type ConnectionSetupError struct {
	RemoteAddr string
	Err        error
}

func (e *ConnectionSetupError) Error() string {
	return fmt.Sprintf("accept connection from %s: %v", e.RemoteAddr, e.Err)
}

func (e *ConnectionSetupError) Unwrap() error { return e.Err }
