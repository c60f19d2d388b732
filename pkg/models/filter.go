// Package models contains the domain types of the chatbot data engine.
package models

import (
	"encoding/json"
	"fmt"

	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/apperrors"
)

// FilterOp is a comparison operator for a column condition.
type FilterOp string

const (
	OpEq      FilterOp = "eq"
	OpNeq     FilterOp = "neq"
	OpGt      FilterOp = "gt"
	OpGte     FilterOp = "gte"
	OpLt      FilterOp = "lt"
	OpLte     FilterOp = "lte"
	OpBetween FilterOp = "between"
	OpLike    FilterOp = "like"
	OpILike   FilterOp = "ilike"
	OpIn      FilterOp = "in"
)

// validOps is the closed set of operators accepted on the wire.
var validOps = map[FilterOp]bool{
	OpEq: true, OpNeq: true, OpGt: true, OpGte: true, OpLt: true, OpLte: true,
	OpBetween: true, OpLike: true, OpILike: true, OpIn: true,
}

// ValidOp reports whether op is in the closed operator set. Zero-value
// Filters constructed in code fail this check the same way unknown wire
// operators do.
func ValidOp(op FilterOp) bool {
	return validOps[op]
}

// Filter is a single column condition. It is a tagged union over the
// operator: Value carries the operand for the scalar comparisons,
// Lo/Hi carry the bounds for between, and List carries the candidates
// for in. An unknown operator is a decoding error, never a silent
// fallback to equality.
type Filter struct {
	Op    FilterOp
	Value any
	Lo    any
	Hi    any
	List  []any
}

// Filters maps a column name to its condition.
type Filters map[string]Filter

// Eq builds an equality condition.
func Eq(v any) Filter { return Filter{Op: OpEq, Value: v} }

// Neq builds an inequality condition.
func Neq(v any) Filter { return Filter{Op: OpNeq, Value: v} }

// Gt builds a greater-than condition.
func Gt(v any) Filter { return Filter{Op: OpGt, Value: v} }

// Gte builds a greater-or-equal condition.
func Gte(v any) Filter { return Filter{Op: OpGte, Value: v} }

// Lt builds a less-than condition.
func Lt(v any) Filter { return Filter{Op: OpLt, Value: v} }

// Lte builds a less-or-equal condition.
func Lte(v any) Filter { return Filter{Op: OpLte, Value: v} }

// Between builds a range condition, bounds inclusive.
func Between(lo, hi any) Filter { return Filter{Op: OpBetween, Lo: lo, Hi: hi} }

// Like builds a case-sensitive pattern condition.
func Like(pattern string) Filter { return Filter{Op: OpLike, Value: pattern} }

// ILike builds a case-insensitive pattern condition.
func ILike(pattern string) Filter { return Filter{Op: OpILike, Value: pattern} }

// In builds a membership condition.
func In(values ...any) Filter { return Filter{Op: OpIn, List: values} }

// wireFilter is the {type, value} object shape the LLM emits.
type wireFilter struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// UnmarshalJSON accepts both wire shapes: a bare literal (implying
// equality) and a {type, value} object. between requires a two-element
// array value; in requires an array value.
func (f *Filter) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err == nil {
		if _, ok := probe["type"]; ok {
			var w wireFilter
			if err := json.Unmarshal(data, &w); err != nil {
				return err
			}
			return f.fromWire(w)
		}
	}

	// Bare literal: scalar or array, both mean equality.
	var literal any
	if err := json.Unmarshal(data, &literal); err != nil {
		return err
	}
	*f = Eq(literal)
	return nil
}

func (f *Filter) fromWire(w wireFilter) error {
	op := FilterOp(w.Type)
	if !validOps[op] {
		return fmt.Errorf("%w: %q", apperrors.ErrInvalidFilterOperator, w.Type)
	}

	switch op {
	case OpBetween:
		var bounds []any
		if err := json.Unmarshal(w.Value, &bounds); err != nil {
			return fmt.Errorf("between value must be an array: %w", err)
		}
		if len(bounds) != 2 {
			return fmt.Errorf("%w: between requires exactly two bounds, got %d",
				apperrors.ErrInvalidFilterOperator, len(bounds))
		}
		*f = Between(bounds[0], bounds[1])
	case OpIn:
		var list []any
		if err := json.Unmarshal(w.Value, &list); err != nil {
			return fmt.Errorf("in value must be an array: %w", err)
		}
		*f = In(list...)
	default:
		var v any
		if err := json.Unmarshal(w.Value, &v); err != nil {
			return err
		}
		*f = Filter{Op: op, Value: v}
	}
	return nil
}

// MarshalJSON emits the {type, value} wire shape.
func (f Filter) MarshalJSON() ([]byte, error) {
	var value any
	switch f.Op {
	case OpBetween:
		value = []any{f.Lo, f.Hi}
	case OpIn:
		value = f.List
	default:
		value = f.Value
	}
	return json.Marshal(map[string]any{"type": string(f.Op), "value": value})
}

// Operands returns the values this filter binds into a parameterized query.
func (f Filter) Operands() []any {
	switch f.Op {
	case OpBetween:
		return []any{f.Lo, f.Hi}
	case OpIn:
		return f.List
	default:
		return []any{f.Value}
	}
}
