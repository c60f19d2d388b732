package tableaccess

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/apperrors"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/models"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/retry"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/validate"
)

const defaultStatisticsLimit = 1000

// GetStatistics computes one aggregation over table. The aggregation is
// pushed to the backend; only when the backend cannot aggregate the
// column (non-numeric content) does the computation fall back to
// fetching up to req.Limit rows and aggregating in memory, dropping
// unparseable values and flagging the result as truncated when the
// fetch hit the limit.
func (s *Store) GetStatistics(ctx context.Context, table string, req models.StatisticsRequest, opts models.CallOptions) Result {
	fail := func(err error) Result {
		return errResult(s.message(err, models.AuditActionQuery, table))
	}

	if !models.ValidAggregations[req.Aggregation] {
		return fail(fmt.Errorf("%w: %q", apperrors.ErrInvalidAggregation, req.Aggregation))
	}
	if req.Aggregation != models.AggCount && req.Column == "" {
		return fail(fmt.Errorf("%w: %s requires a column", apperrors.ErrInvalidAggregation, req.Aggregation))
	}

	if err := validate.TableName(table, s.readList); err != nil {
		return fail(err)
	}
	if req.Column != "" {
		if err := validate.Identifier(req.Column); err != nil {
			return fail(err)
		}
	}
	if req.GroupBy != "" {
		if err := validate.Identifier(req.GroupBy); err != nil {
			return fail(err)
		}
	}

	filters, err := validate.Filters(req.Filters)
	if err != nil {
		s.reportIfInjection(err, table, opts)
		return fail(err)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultStatisticsLimit
	}
	if limit > maxQueryLimit {
		limit = defaultStatisticsLimit
	}

	result, err := s.aggregateInBackend(ctx, table, req, filters)
	if err != nil && isAggregationTypeError(err) {
		s.logger.Debug("backend aggregation rejected column type, falling back to in-memory",
			zap.String("table", table), zap.String("column", req.Column))
		result, err = s.aggregateInMemory(ctx, table, req, filters, limit)
	}
	if err != nil {
		return fail(err)
	}

	return okResult(result.Data())
}

// aggregateInBackend pushes the aggregation into SQL.
func (s *Store) aggregateInBackend(ctx context.Context, table string, req models.StatisticsRequest, filters models.Filters) (*models.StatisticsResult, error) {
	aggExpr := "COUNT(*)::float8"
	if req.Aggregation != models.AggCount {
		aggExpr = fmt.Sprintf("%s(%s::float8)", strings.ToUpper(string(req.Aggregation)), req.Column)
	}

	where, args, _, err := buildWhere(filters, 1)
	if err != nil {
		return nil, err
	}
	whereClause := ""
	if where != "" {
		whereClause = " WHERE " + where
	}

	result := &models.StatisticsResult{
		Aggregation: req.Aggregation,
		Column:      req.Column,
		GroupBy:     req.GroupBy,
	}

	if req.GroupBy == "" {
		sql := fmt.Sprintf("SELECT %s AS value FROM %s%s", aggExpr, table, whereClause)
		rows, err := retry.DoWithResult(ctx, s.retryCfg, func() ([]map[string]any, error) {
			return s.backend.Select(ctx, sql, args)
		})
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, apperrors.ErrNoValidNumericValues
		}
		value, ok := toFloat(rows[0]["value"])
		if !ok {
			if req.Aggregation == models.AggCount {
				value = 0
			} else {
				// NULL aggregate: no non-null values to aggregate.
				return nil, apperrors.ErrNoValidNumericValues
			}
		}
		result.Value = value
		return result, nil
	}

	sql := fmt.Sprintf(
		"SELECT %s AS group_key, %s AS value FROM %s%s GROUP BY %s ORDER BY %s",
		req.GroupBy, aggExpr, table, whereClause, req.GroupBy, req.GroupBy)
	rows, err := retry.DoWithResult(ctx, s.retryCfg, func() ([]map[string]any, error) {
		return s.backend.Select(ctx, sql, args)
	})
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		value, ok := toFloat(row["value"])
		if !ok {
			continue
		}
		result.Groups = append(result.Groups, models.GroupAggregate{
			Key:   row["group_key"],
			Value: value,
		})
	}
	if len(rows) > 0 && len(result.Groups) == 0 {
		return nil, apperrors.ErrNoValidNumericValues
	}
	return result, nil
}

// aggregateInMemory fetches up to limit rows and computes the statistic
// in process memory. Unparseable values for the aggregated column are
// dropped, not errors, unless nothing parseable remains.
func (s *Store) aggregateInMemory(ctx context.Context, table string, req models.StatisticsRequest, filters models.Filters, limit int) (*models.StatisticsResult, error) {
	columns := "*"
	if req.Column != "" && req.GroupBy != "" {
		columns = req.Column + ", " + req.GroupBy
	} else if req.Column != "" {
		columns = req.Column
	} else if req.GroupBy != "" {
		columns = req.GroupBy
	}

	where, args, _, err := buildWhere(filters, 1)
	if err != nil {
		return nil, err
	}
	sql := fmt.Sprintf("SELECT %s FROM %s", columns, table)
	if where != "" {
		sql += " WHERE " + where
	}
	sql += fmt.Sprintf(" LIMIT %d", limit)

	rows, err := retry.DoWithResult(ctx, s.retryCfg, func() ([]map[string]any, error) {
		return s.backend.Select(ctx, sql, args)
	})
	if err != nil {
		return nil, err
	}

	result := &models.StatisticsResult{
		Aggregation: req.Aggregation,
		Column:      req.Column,
		GroupBy:     req.GroupBy,
		Truncated:   len(rows) == limit,
	}

	if req.GroupBy == "" {
		value, err := computeAggregate(req.Aggregation, req.Column, rows)
		if err != nil {
			return nil, err
		}
		result.Value = value
		return result, nil
	}

	grouped := make(map[string][]map[string]any)
	var order []string
	for _, row := range rows {
		key := fmt.Sprintf("%v", row[req.GroupBy])
		if _, seen := grouped[key]; !seen {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], row)
	}

	for _, key := range order {
		group := grouped[key]
		value, err := computeAggregate(req.Aggregation, req.Column, group)
		if err != nil {
			if errors.Is(err, apperrors.ErrNoValidNumericValues) {
				continue
			}
			return nil, err
		}
		result.Groups = append(result.Groups, models.GroupAggregate{
			Key:   group[0][req.GroupBy],
			Value: value,
		})
	}
	if len(rows) > 0 && len(result.Groups) == 0 {
		return nil, apperrors.ErrNoValidNumericValues
	}
	return result, nil
}

// computeAggregate reduces one group of rows to a single value.
func computeAggregate(agg models.Aggregation, column string, rows []map[string]any) (float64, error) {
	if agg == models.AggCount {
		return float64(len(rows)), nil
	}

	var values []float64
	for _, row := range rows {
		if v, ok := toFloat(row[column]); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return 0, apperrors.ErrNoValidNumericValues
	}

	switch agg {
	case models.AggSum, models.AggAvg:
		var sum float64
		for _, v := range values {
			sum += v
		}
		if agg == models.AggAvg {
			return sum / float64(len(values)), nil
		}
		return sum, nil
	case models.AggMin:
		min := values[0]
		for _, v := range values[1:] {
			if v < min {
				min = v
			}
		}
		return min, nil
	case models.AggMax:
		max := values[0]
		for _, v := range values[1:] {
			if v > max {
				max = v
			}
		}
		return max, nil
	}
	return 0, fmt.Errorf("%w: %q", apperrors.ErrInvalidAggregation, agg)
}

// isAggregationTypeError reports whether the backend refused the
// aggregation because of the column's type, which is the cue to fall
// back to in-memory computation.
func isAggregationTypeError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "22P02", // invalid_text_representation
			"42804", // datatype_mismatch
			"42883": // undefined_function
			return true
		}
	}
	text := strings.ToLower(err.Error())
	return strings.Contains(text, "invalid input syntax") ||
		strings.Contains(text, "cannot cast") ||
		strings.Contains(text, "datatype mismatch")
}

// toFloat coerces backend values to float64 for aggregation.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case pgtype.Numeric:
		f, err := n.Float64Value()
		if err != nil || !f.Valid {
			return 0, false
		}
		return f.Float64, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
