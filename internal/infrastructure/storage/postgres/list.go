package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"retailops/internal/domain"
)

// WithTimeRange restricts q to rows whose timeCol lies within the filter's
// inclusive From/To bounds.
func WithTimeRange(q squirrel.SelectBuilder, timeCol string, f domain.ListFilter) squirrel.SelectBuilder {
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{timeCol: *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.LtOrEq{timeCol: *f.To})
	}
	return q
}

// ListPage runs the count and page queries built from base and scans the
// page into dest. orderBy is applied to the page query only.
func ListPage[T any](ctx context.Context, q Querier, base squirrel.SelectBuilder, columns []string, orderBy []string, f domain.ListFilter) (domain.ListResult[T], error) {
	f = f.Normalize()
	res := domain.ListResult[T]{Items: []T{}, Limit: f.Limit, Offset: f.Offset}

	countSQL, countArgs, err := base.Columns("COUNT(*)").ToSql()
	if err != nil {
		return res, fmt.Errorf("build count: %w", err)
	}
	if err := q.QueryRow(ctx, countSQL, countArgs...).Scan(&res.TotalCount); err != nil {
		return res, fmt.Errorf("count: %w", err)
	}
	if res.TotalCount == 0 || int64(f.Offset) >= res.TotalCount {
		return res, nil
	}

	pageSQL, pageArgs, err := base.Columns(columns...).
		OrderBy(orderBy...).
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset)).
		ToSql()
	if err != nil {
		return res, fmt.Errorf("build page: %w", err)
	}
	if err := pgxscan.Select(ctx, q, &res.Items, pageSQL, pageArgs...); err != nil {
		return res, fmt.Errorf("select page: %w", err)
	}
	return res, nil
}
