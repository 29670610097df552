// Package catalog_repo provides PostgreSQL implementations for the catalog
// repositories.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"retailops/internal/core/apperror"
	"retailops/internal/core/entity"
	"retailops/internal/core/id"
	"retailops/internal/infrastructure/storage/postgres"
)

// BaseCatalogRepo provides the CRUD shared by catalog tables.
type BaseCatalogRepo[T any] struct {
	txManager  *postgres.TxManager
	tableName  string
	entityName string
	selectCols []string
	newFn      func() T
}

// NewBaseCatalogRepo creates a new base catalog repository.
func NewBaseCatalogRepo[T any](
	txManager *postgres.TxManager,
	tableName, entityName string,
	selectCols []string,
	newFn func() T,
) *BaseCatalogRepo[T] {
	return &BaseCatalogRepo[T]{
		txManager:  txManager,
		tableName:  tableName,
		entityName: entityName,
		selectCols: selectCols,
		newFn:      newFn,
	}
}

// insertQuery builds an INSERT from the entity's "db" tags.
func (r *BaseCatalogRepo[T]) insertQuery(item T) (squirrel.InsertBuilder, error) {
	data := postgres.StructToMap(item)
	if len(data) == 0 {
		return squirrel.InsertBuilder{}, fmt.Errorf("no db tags found in %s", r.entityName)
	}

	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}
	return postgres.Builder().Insert(r.tableName).SetMap(filtered), nil
}

// Create inserts a new entity. A unique violation becomes a Conflict.
func (r *BaseCatalogRepo[T]) Create(ctx context.Context, item T) error {
	if v, ok := any(item).(entity.Validatable); ok {
		if err := v.Validate(ctx); err != nil {
			return err
		}
	}
	q, err := r.insertQuery(item)
	if err != nil {
		return err
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewConflict(r.entityName + " already exists").WithCause(err)
		}
		return fmt.Errorf("insert %s: %w", r.tableName, err)
	}
	return nil
}

// updateQuery builds a compare-and-set UPDATE: the row is written only while
// its stored version equals expectedVersion.
func (r *BaseCatalogRepo[T]) updateQuery(item T, expectedVersion int) (squirrel.UpdateBuilder, error) {
	data := postgres.StructToMap(item)
	entityID, ok := data["id"]
	if !ok {
		return squirrel.UpdateBuilder{}, fmt.Errorf("%s has no 'id' field with db tag", r.entityName)
	}

	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range postgres.WithoutColumns(r.selectCols, "id", "created_at") {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	return postgres.Builder().
		Update(r.tableName).
		SetMap(filtered).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"version": expectedVersion}), nil
}

// Update writes item if the stored version is still expectedVersion and
// reports whether it did.
func (r *BaseCatalogRepo[T]) Update(ctx context.Context, item T, expectedVersion int) (bool, error) {
	q, err := r.updateQuery(item, expectedVersion)
	if err != nil {
		return false, err
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("update %s: %w", r.tableName, err)
	}
	return result.RowsAffected() == 1, nil
}

// selectByID builds the lookup, with FOR UPDATE when lock is set.
func (r *BaseCatalogRepo[T]) selectByID(entityID id.ID, lock bool) squirrel.SelectBuilder {
	q := postgres.Builder().
		Select(r.selectCols...).
		From(r.tableName).
		Where(squirrel.Eq{"id": entityID})
	if lock {
		q = q.Suffix("FOR UPDATE")
	}
	return q
}

// getByID retrieves an entity, locking its row when lock is set.
func (r *BaseCatalogRepo[T]) getByID(ctx context.Context, entityID id.ID, lock bool) (T, error) {
	item := r.newFn()

	sql, args, err := r.selectByID(entityID, lock).ToSql()
	if err != nil {
		return item, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), item, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return item, apperror.NewNotFound(r.entityName, entityID.String())
		}
		return item, fmt.Errorf("get %s by id: %w", r.tableName, err)
	}
	return item, nil
}
