// Package document_repo provides PostgreSQL implementations for the sale,
// purchase order and return repositories. Each document is a header row plus
// numbered line rows written in one transaction.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
	"retailops/internal/core/types"
	"retailops/internal/domain"
	"retailops/internal/infrastructure/storage/postgres"
)

// docTables describes one header/lines table pair.
type docTables struct {
	header     string
	lines      string
	parentCol  string
	entityName string
}

// BaseDocumentRepo holds the header/lines plumbing shared by document repos.
// H is the header row type, L the line row type.
type BaseDocumentRepo[H, L any] struct {
	txManager  *postgres.TxManager
	tables     docTables
	headerCols []string
	lineCols   []string
}

func newBaseDocumentRepo[H, L any](txManager *postgres.TxManager, tables docTables) *BaseDocumentRepo[H, L] {
	return &BaseDocumentRepo[H, L]{
		txManager:  txManager,
		tables:     tables,
		headerCols: postgres.ExtractDBColumns[H](),
		lineCols:   postgres.ExtractDBColumns[L](),
	}
}

// insert writes the header and its lines. It must run inside a transaction.
func (r *BaseDocumentRepo[H, L]) insert(ctx context.Context, header H, lines []L) error {
	if r.txManager.GetTx(ctx) == nil {
		return fmt.Errorf("insert %s requires transaction context", r.tables.header)
	}
	q := r.txManager.GetQuerier(ctx)

	sql, args, err := r.insertHeader(header).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return apperror.NewConflict(r.tables.entityName + " references a missing record").WithCause(err)
		}
		return fmt.Errorf("insert %s: %w", r.tables.header, err)
	}

	if len(lines) == 0 {
		return nil
	}
	sql, args, err = r.insertLines(lines).ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.tables.lines, err)
	}
	return nil
}

func (r *BaseDocumentRepo[H, L]) insertHeader(header H) squirrel.InsertBuilder {
	return postgres.Builder().Insert(r.tables.header).SetMap(postgres.StructToMap(header))
}

func (r *BaseDocumentRepo[H, L]) insertLines(lines []L) squirrel.InsertBuilder {
	q := postgres.Builder().Insert(r.tables.lines).Columns(r.lineCols...)
	for _, l := range lines {
		m := postgres.StructToMap(l)
		values := make([]any, len(r.lineCols))
		for i, c := range r.lineCols {
			values[i] = m[c]
		}
		q = q.Values(values...)
	}
	return q
}

func (r *BaseDocumentRepo[H, L]) selectHeader(docID id.ID, lock bool) squirrel.SelectBuilder {
	q := postgres.Builder().
		Select(r.headerCols...).
		From(r.tables.header).
		Where(squirrel.Eq{"id": docID})
	if lock {
		q = q.Suffix("FOR UPDATE")
	}
	return q
}

func (r *BaseDocumentRepo[H, L]) selectLines(docIDs []id.ID) squirrel.SelectBuilder {
	return postgres.Builder().
		Select(r.lineCols...).
		From(r.tables.lines).
		Where(squirrel.Eq{r.tables.parentCol: docIDs}).
		OrderBy(r.tables.parentCol, "line_no")
}

// get loads one header and its lines.
func (r *BaseDocumentRepo[H, L]) get(ctx context.Context, docID id.ID, lock bool) (*H, []L, error) {
	q := r.txManager.GetQuerier(ctx)

	sql, args, err := r.selectHeader(docID, lock).ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("build query: %w", err)
	}
	var header H
	if err := pgxscan.Get(ctx, q, &header, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil, apperror.NewNotFound(r.tables.entityName, docID.String())
		}
		return nil, nil, fmt.Errorf("get %s: %w", r.tables.header, err)
	}

	lines, err := r.lines(ctx, []id.ID{docID})
	if err != nil {
		return nil, nil, err
	}
	return &header, lines, nil
}

// lines loads the lines of several documents ordered by document then line_no.
func (r *BaseDocumentRepo[H, L]) lines(ctx context.Context, docIDs []id.ID) ([]L, error) {
	if len(docIDs) == 0 {
		return nil, nil
	}
	sql, args, err := r.selectLines(docIDs).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lines query: %w", err)
	}
	var lines []L
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get %s: %w", r.tables.lines, err)
	}
	return lines, nil
}

// list pages headers newest first.
func (r *BaseDocumentRepo[H, L]) list(ctx context.Context, base squirrel.SelectBuilder, f domain.ListFilter) (domain.ListResult[H], error) {
	return postgres.ListPage[H](ctx, r.txManager.GetQuerier(ctx),
		postgres.WithTimeRange(base, "created_at", f),
		r.headerCols,
		[]string{"created_at DESC", "id DESC"},
		f,
	)
}

func (r *BaseDocumentRepo[H, L]) listBase() squirrel.SelectBuilder {
	return postgres.Builder().Select().From(r.tables.header)
}

// money rebuilds a stored amount in the document currency.
func money(amount decimal.Decimal, currency string) (types.Money, error) {
	m, err := types.NewMoney(amount, currency)
	if err != nil {
		return types.Money{}, fmt.Errorf("stored amount %s %s: %w", amount, currency, err)
	}
	return m, nil
}

// listDocuments pages headers, loads their lines in one query and builds
// the domain documents.
func listDocuments[H, L, D any](
	ctx context.Context,
	r *BaseDocumentRepo[H, L],
	base squirrel.SelectBuilder,
	f domain.ListFilter,
	headerID func(H) id.ID,
	lineParent func(L) id.ID,
	build func(H, []L) (D, error),
) (domain.ListResult[D], error) {
	page, err := r.list(ctx, base, f)
	if err != nil {
		return domain.ListResult[D]{}, err
	}

	ids := make([]id.ID, len(page.Items))
	for i, h := range page.Items {
		ids[i] = headerID(h)
	}
	lines, err := r.lines(ctx, ids)
	if err != nil {
		return domain.ListResult[D]{}, err
	}
	byParent := make(map[id.ID][]L, len(ids))
	for _, l := range lines {
		p := lineParent(l)
		byParent[p] = append(byParent[p], l)
	}

	out := domain.ListResult[D]{
		Items:      make([]D, 0, len(page.Items)),
		TotalCount: page.TotalCount,
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	for _, h := range page.Items {
		d, err := build(h, byParent[headerID(h)])
		if err != nil {
			return domain.ListResult[D]{}, err
		}
		out.Items = append(out.Items, d)
	}
	return out, nil
}
