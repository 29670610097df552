// Package tx defines the unit-of-work contract used by domain services.
// The Postgres implementation lives in infrastructure/storage/postgres,
// the in-memory one in infrastructure/storage/memory.
package tx

import (
	"context"
)

// Manager runs a unit of work.
//
// Every repository call made with the ctx passed to fn joins the same
// transaction. If fn returns an error nothing fn wrote is kept; otherwise
// all of it is committed together. Nested calls reuse the outer transaction.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transactions for queries.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
