// Package domain holds types shared by the domain packages.
package domain

import (
	"time"
)

const (
	// DefaultLimit is used when a list request does not set one.
	DefaultLimit = 50
	// MaxLimit caps any list request.
	MaxLimit = 500
)

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// From and To bound the record's business time, both inclusive.
	From *time.Time
	To   *time.Time

	// Pagination
	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{Limit: DefaultLimit}
}

// Normalize clamps pagination into the accepted range.
func (f ListFilter) Normalize() ListFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// Page cuts one page out of an already ordered slice.
func Page[T any](all []T, f ListFilter) ListResult[T] {
	f = f.Normalize()
	res := ListResult[T]{Items: []T{}, TotalCount: int64(len(all)), Limit: f.Limit, Offset: f.Offset}
	if f.Offset >= len(all) {
		return res
	}
	end := min(f.Offset+f.Limit, len(all))
	res.Items = append(res.Items, all[f.Offset:end]...)
	return res
}
