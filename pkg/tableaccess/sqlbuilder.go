package tableaccess

import (
	"fmt"
	"sort"
	"strings"

	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/apperrors"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/models"
)

// buildWhere compiles a sanitized filter set into a WHERE clause with
// positional parameters, starting at $startIdx. Keys are processed in
// sorted order so generated SQL is deterministic. Returns the clause
// (without the WHERE keyword, empty when no filters), the bind
// arguments, and the next free parameter index. An operator outside the
// closed set is an error: a condition must never vanish from the clause.
//
// Every identifier reaching this function has already passed the
// identifier regex; values only ever travel as bind parameters.
func buildWhere(filters models.Filters, startIdx int) (string, []any, int, error) {
	if len(filters) == 0 {
		return "", nil, startIdx, nil
	}

	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conditions := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	argIdx := startIdx

	for _, key := range keys {
		f := filters[key]
		switch f.Op {
		case models.OpEq:
			conditions = append(conditions, fmt.Sprintf("%s = $%d", key, argIdx))
			args = append(args, f.Value)
			argIdx++
		case models.OpNeq:
			conditions = append(conditions, fmt.Sprintf("%s <> $%d", key, argIdx))
			args = append(args, f.Value)
			argIdx++
		case models.OpGt:
			conditions = append(conditions, fmt.Sprintf("%s > $%d", key, argIdx))
			args = append(args, f.Value)
			argIdx++
		case models.OpGte:
			conditions = append(conditions, fmt.Sprintf("%s >= $%d", key, argIdx))
			args = append(args, f.Value)
			argIdx++
		case models.OpLt:
			conditions = append(conditions, fmt.Sprintf("%s < $%d", key, argIdx))
			args = append(args, f.Value)
			argIdx++
		case models.OpLte:
			conditions = append(conditions, fmt.Sprintf("%s <= $%d", key, argIdx))
			args = append(args, f.Value)
			argIdx++
		case models.OpBetween:
			conditions = append(conditions, fmt.Sprintf("%s BETWEEN $%d AND $%d", key, argIdx, argIdx+1))
			args = append(args, f.Lo, f.Hi)
			argIdx += 2
		case models.OpLike:
			conditions = append(conditions, fmt.Sprintf("%s LIKE $%d", key, argIdx))
			args = append(args, f.Value)
			argIdx++
		case models.OpILike:
			conditions = append(conditions, fmt.Sprintf("%s ILIKE $%d", key, argIdx))
			args = append(args, f.Value)
			argIdx++
		case models.OpIn:
			conditions = append(conditions, fmt.Sprintf("%s = ANY($%d)", key, argIdx))
			args = append(args, f.List)
			argIdx++
		default:
			return "", nil, startIdx, fmt.Errorf("%w: %q on %q",
				apperrors.ErrInvalidFilterOperator, f.Op, key)
		}
	}

	return strings.Join(conditions, " AND "), args, argIdx, nil
}

// buildSelect builds the query for QueryTable. joins have already passed
// the join-fragment gate; they extend the select list Supabase-style as
// embedded relationship columns.
func buildSelect(table string, filters models.Filters, limit int, joins []string) (string, []any, error) {
	selectList := "*"
	if len(joins) > 0 {
		selectList = "*, " + strings.Join(joins, ", ")
	}

	sql := fmt.Sprintf("SELECT %s FROM %s", selectList, table)
	where, args, _, err := buildWhere(filters, 1)
	if err != nil {
		return "", nil, err
	}
	if where != "" {
		sql += " WHERE " + where
	}
	sql += fmt.Sprintf(" LIMIT %d", limit)
	return sql, args, nil
}

// buildInsert builds a single-row INSERT ... RETURNING *. Columns are
// sorted for deterministic SQL.
func buildInsert(table string, values map[string]any) (string, []any) {
	columns := make([]string, 0, len(values))
	for col := range values {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	placeholders := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = values[col]
	}

	sql := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)
	return sql, args
}

// buildUpdate builds UPDATE ... SET ... WHERE ... RETURNING *.
func buildUpdate(table string, filters models.Filters, values map[string]any) (string, []any, error) {
	columns := make([]string, 0, len(values))
	for col := range values {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	assignments := make([]string, len(columns))
	args := make([]any, 0, len(columns))
	argIdx := 1
	for i, col := range columns {
		assignments[i] = fmt.Sprintf("%s = $%d", col, argIdx)
		args = append(args, values[col])
		argIdx++
	}

	sql := fmt.Sprintf("UPDATE %s SET %s", table, strings.Join(assignments, ", "))
	where, whereArgs, _, err := buildWhere(filters, argIdx)
	if err != nil {
		return "", nil, err
	}
	if where != "" {
		sql += " WHERE " + where
		args = append(args, whereArgs...)
	}
	return sql + " RETURNING *", args, nil
}

// buildDelete builds DELETE ... WHERE ... RETURNING *.
func buildDelete(table string, filters models.Filters) (string, []any, error) {
	sql := fmt.Sprintf("DELETE FROM %s", table)
	where, args, _, err := buildWhere(filters, 1)
	if err != nil {
		return "", nil, err
	}
	if where != "" {
		sql += " WHERE " + where
	}
	return sql + " RETURNING *", args, nil
}

// buildLockingCount builds the cardinality probe for the mutation gate:
// it locks the matching rows so the count stays valid until the mutation
// in the same transaction commits.
func buildLockingCount(table string, filters models.Filters) (string, []any, error) {
	sql := fmt.Sprintf("SELECT ctid FROM %s", table)
	where, args, _, err := buildWhere(filters, 1)
	if err != nil {
		return "", nil, err
	}
	if where != "" {
		sql += " WHERE " + where
	}
	return sql + " FOR UPDATE", args, nil
}
