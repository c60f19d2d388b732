// Package tableaccess implements the filter-driven table-access core:
// validated, retried, audited query and single-row mutation operations
// over a fixed set of relational tables.
package tableaccess

import "context"

// Backend executes parameterized statements against the relational
// store. Any engine reachable through a parameterized-query client can
// implement it; the engine ships a pgx implementation.
type Backend interface {
	// Select runs a row-returning statement.
	Select(ctx context.Context, sql string, args []any) ([]map[string]any, error)

	// Mutate runs a mutating statement with a RETURNING clause and
	// returns the affected rows.
	Mutate(ctx context.Context, sql string, args []any) ([]map[string]any, error)

	// WithinTx runs fn inside a single transaction. The Backend passed
	// to fn executes on that transaction; any error rolls it back.
	WithinTx(ctx context.Context, fn func(tx Backend) error) error
}

// Result is the uniform envelope every operation returns. Failures
// surface as a non-nil Error message alongside nil Data; nothing in the
// core panics or raises errors past this boundary.
type Result struct {
	Data  any     `json:"data"`
	Error *string `json:"error"`
}

func okResult(data any) Result {
	return Result{Data: data}
}

func errResult(msg string) Result {
	return Result{Error: &msg}
}
