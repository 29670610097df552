package domain

import "time"

// Observer receives the outcome of every recording operation.
// The metrics package provides the Prometheus implementation.
type Observer interface {
	ObserveOperation(operation string, err error, elapsed time.Duration)
}

// NopObserver discards observations.
type NopObserver struct{}

// ObserveOperation implements Observer.
func (NopObserver) ObserveOperation(string, error, time.Duration) {}
