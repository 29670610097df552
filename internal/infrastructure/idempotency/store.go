// Package idempotency stores the outcome of mutating HTTP requests keyed by
// the client's idempotency key, so a retried request replays the first
// response instead of recording a second sale.
package idempotency

import (
	"context"
	"net/http"
	"time"
)

// Status is the state of a key.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// StaleAfter is how long a pending key may sit before another request may
// reclaim it.
const StaleAfter = time.Minute

// Replay is a cached response.
type Replay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Store is implemented by the Redis and Postgres backends.
//
// AcquireKey returns (nil, nil) when the caller now owns the key, a Replay
// when the operation already finished, and an apperror when the key is in
// flight or was used for a different request.
type Store interface {
	AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*Replay, error)
	CompleteKey(ctx context.Context, key string, statusCode int, contentType string, response any) error
	FailKey(ctx context.Context, key string, statusCode int, contentType string, response any) error
}

// NormalizeStatus defaults a missing status to 200.
func NormalizeStatus(status int) int {
	if status == 0 {
		return http.StatusOK
	}
	return status
}

// NormalizeContentType defaults a missing content type to JSON.
func NormalizeContentType(ct string) string {
	if ct == "" {
		return "application/json"
	}
	return ct
}
