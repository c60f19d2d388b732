// Package apperrors defines the sentinel errors of the table-access core.
package apperrors

import "errors"

var (
	// Validation failures. Detected locally, never retried, never sent to the backend.
	ErrInvalidTableName = errors.New("invalid table name")
	ErrInvalidKey       = errors.New("invalid key")
	ErrValueTooLong     = errors.New("value too long")
	ErrInvalidNumber    = errors.New("invalid number")
	ErrArrayTooLong     = errors.New("array too long")
	ErrTooManyKeys      = errors.New("too many keys")
	ErrInvalidLimit     = errors.New("invalid limit")
	ErrInvalidJoin      = errors.New("invalid join expression")
	ErrInjectionPattern = errors.New("value contains SQL injection pattern")

	// Cardinality gate failures for single-row mutations.
	ErrAmbiguousFilter = errors.New("filters do not identify a single row")
	ErrAmbiguousMatch  = errors.New("filters match more than one row")
	ErrNoRowsFound     = errors.New("no rows found")

	// Statistics failures.
	ErrInvalidAggregation   = errors.New("invalid aggregation")
	ErrNoValidNumericValues = errors.New("no valid numeric values")

	// Filter decoding failures.
	ErrInvalidFilterOperator = errors.New("invalid filter operator")
)
