package tableaccess

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxQuerier is the slice of pgx shared by *pgxpool.Pool and pgx.Tx.
type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PgxBackend implements Backend over a pgx connection pool.
type PgxBackend struct {
	q    pgxQuerier
	pool *pgxpool.Pool // nil inside a transaction
}

// NewPgxBackend creates a Backend over pool.
func NewPgxBackend(pool *pgxpool.Pool) *PgxBackend {
	return &PgxBackend{q: pool, pool: pool}
}

var _ Backend = (*PgxBackend)(nil)

// Select runs a row-returning statement.
func (b *PgxBackend) Select(ctx context.Context, sql string, args []any) ([]map[string]any, error) {
	return b.collect(ctx, sql, args)
}

// Mutate runs a mutating statement with RETURNING. pgx exposes returned
// rows through Query, so the implementations coincide; the distinction
// exists for mocks and future engines without RETURNING support.
func (b *PgxBackend) Mutate(ctx context.Context, sql string, args []any) ([]map[string]any, error) {
	return b.collect(ctx, sql, args)
}

// WithinTx runs fn inside one transaction. Calling it on a Backend that
// is already transactional is an error.
func (b *PgxBackend) WithinTx(ctx context.Context, fn func(tx Backend) error) error {
	if b.pool == nil {
		return fmt.Errorf("nested transactions are not supported")
	}

	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if err := fn(&PgxBackend{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// collect executes sql and materializes all rows as column-name keyed
// maps.
func (b *PgxBackend) collect(ctx context.Context, sql string, args []any) ([]map[string]any, error) {
	rows, err := b.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = string(fd.Name)
	}

	result := make([]map[string]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row values: %w", err)
		}
		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			rowMap[col] = values[i]
		}
		result = append(result, rowMap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
