// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
	"retailops/internal/domain"
)

// --- Pagination ---

// ListQuery contains the paging and time window parameters shared by list endpoints.
type ListQuery struct {
	From   *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To     *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Limit  int        `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset int        `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts the query into a domain list filter.
func (q ListQuery) ToFilter() (domain.ListFilter, error) {
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return domain.ListFilter{}, apperror.NewValidation("from must not be after to").
			WithDetail("field", "from")
	}
	f := domain.DefaultListFilter()
	f.From = q.From
	f.To = q.To
	if q.Limit > 0 {
		f.Limit = q.Limit
	}
	f.Offset = q.Offset
	return f.Normalize(), nil
}

// ListResponse wraps list results with pagination.
type ListResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// MapList converts a domain page into a response page.
func MapList[S, T any](res domain.ListResult[S], fn func(S) T) ListResponse[T] {
	items := make([]T, 0, len(res.Items))
	for _, it := range res.Items {
		items = append(items, fn(it))
	}
	return ListResponse[T]{
		Items:      items,
		TotalCount: res.TotalCount,
		Limit:      res.Limit,
		Offset:     res.Offset,
	}
}

// --- ID parsing ---

// ParseID parses a UUID field, reporting the field name on failure.
func ParseID(field, raw string) (id.ID, error) {
	v, err := id.Parse(raw)
	if err != nil {
		return id.Nil(), apperror.NewValidation("invalid identifier").
			WithDetail("field", field).
			WithDetail("value", raw)
	}
	return v, nil
}

// ParseOptionalID parses an optional UUID field. Empty means nil.
func ParseOptionalID(field string, raw *string) (*id.ID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	v, err := ParseID(field, *raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
