package tableaccess

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/models"
)

func TestGetStatisticsCountPushedToBackend(t *testing.T) {
	backend := &mockBackend{
		selectFn: func(_ int, sql string, _ []any) ([]map[string]any, error) {
			require.Equal(t, "SELECT COUNT(*)::float8 AS value FROM t_projects", sql)
			return []map[string]any{{"value": float64(12)}}, nil
		},
	}
	store := newTestStore(t, backend, nil)

	result := store.GetStatistics(context.Background(), "t_projects",
		models.StatisticsRequest{Aggregation: models.AggCount}, models.CallOptions{})

	require.Nil(t, result.Error)
	payload, ok := result.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(12), payload["count"])
	assert.Equal(t, "count", payload["aggregation"])
}

func TestGetStatisticsAvgWithFilter(t *testing.T) {
	backend := &mockBackend{
		selectFn: func(_ int, sql string, args []any) ([]map[string]any, error) {
			require.Equal(t, "SELECT AVG(hours::float8) AS value FROM t_morningplan WHERE status = $1", sql)
			require.Equal(t, []any{"active"}, args)
			return []map[string]any{{"value": float64(7.5)}}, nil
		},
	}
	store := newTestStore(t, backend, nil)

	result := store.GetStatistics(context.Background(), "t_morningplan", models.StatisticsRequest{
		Aggregation: models.AggAvg,
		Column:      "hours",
		Filters:     models.Filters{"status": models.Eq("active")},
	}, models.CallOptions{})

	require.Nil(t, result.Error)
	payload := result.Data.(map[string]any)
	assert.Equal(t, 7.5, payload["avg"])
	assert.Equal(t, "hours", payload["column"])
}

func TestGetStatisticsGrouped(t *testing.T) {
	backend := &mockBackend{
		selectFn: func(_ int, sql string, _ []any) ([]map[string]any, error) {
			require.Contains(t, sql, "GROUP BY status")
			return []map[string]any{
				{"group_key": "active", "value": float64(2)},
				{"group_key": "done", "value": float64(5)},
			}, nil
		},
	}
	store := newTestStore(t, backend, nil)

	result := store.GetStatistics(context.Background(), "t_projects", models.StatisticsRequest{
		Aggregation: models.AggCount,
		GroupBy:     "status",
	}, models.CallOptions{})

	require.Nil(t, result.Error)
	rows, ok := result.Data.([]map[string]any)
	require.True(t, ok)
	require.Len(t, rows, 2)
	assert.Equal(t, "active", rows[0]["status"])
	assert.Equal(t, float64(2), rows[0]["count"])
}

func TestGetStatisticsRejectsUnknownAggregation(t *testing.T) {
	backend := &mockBackend{}
	store := newTestStore(t, backend, nil)

	result := store.GetStatistics(context.Background(), "t_projects",
		models.StatisticsRequest{Aggregation: "median"}, models.CallOptions{})

	require.NotNil(t, result.Error)
	assert.Contains(t, *result.Error, "count, sum, avg, min, max")
	assert.Empty(t, backend.selectCalls)
}

func TestGetStatisticsSumRequiresColumn(t *testing.T) {
	backend := &mockBackend{}
	store := newTestStore(t, backend, nil)

	result := store.GetStatistics(context.Background(), "t_projects",
		models.StatisticsRequest{Aggregation: models.AggSum}, models.CallOptions{})

	require.NotNil(t, result.Error)
	assert.Empty(t, backend.selectCalls)
}

func TestGetStatisticsFallsBackOnTypeError(t *testing.T) {
	backend := &mockBackend{
		selectFn: func(call int, sql string, _ []any) ([]map[string]any, error) {
			if call == 0 {
				require.Contains(t, sql, "SUM(amount::float8)")
				return nil, &pgconn.PgError{Code: "22P02", Message: "invalid input syntax for type double precision"}
			}
			// Fallback fetch: raw column values, some unparseable.
			require.Contains(t, sql, "SELECT amount FROM t_materials")
			return []map[string]any{
				{"amount": "10.5"},
				{"amount": "n/a"},
				{"amount": "4.5"},
			}, nil
		},
	}
	store := newTestStore(t, backend, nil)

	result := store.GetStatistics(context.Background(), "t_materials", models.StatisticsRequest{
		Aggregation: models.AggSum,
		Column:      "amount",
	}, models.CallOptions{})

	require.Nil(t, result.Error)
	payload := result.Data.(map[string]any)
	assert.Equal(t, float64(15), payload["sum"])
	assert.Len(t, backend.selectCalls, 2)
}

func TestGetStatisticsFallbackMarksTruncation(t *testing.T) {
	backend := &mockBackend{
		selectFn: func(call int, _ string, _ []any) ([]map[string]any, error) {
			if call == 0 {
				return nil, &pgconn.PgError{Code: "42804", Message: "datatype mismatch"}
			}
			rows := make([]map[string]any, 3)
			for i := range rows {
				rows[i] = map[string]any{"amount": "1"}
			}
			return rows, nil
		},
	}
	store := newTestStore(t, backend, nil)

	result := store.GetStatistics(context.Background(), "t_materials", models.StatisticsRequest{
		Aggregation: models.AggSum,
		Column:      "amount",
		Limit:       3,
	}, models.CallOptions{})

	require.Nil(t, result.Error)
	payload := result.Data.(map[string]any)
	assert.Equal(t, true, payload["truncated"])
	assert.Equal(t, float64(3), payload["sum"])
}

func TestGetStatisticsNoNumericValues(t *testing.T) {
	backend := &mockBackend{
		selectFn: func(call int, _ string, _ []any) ([]map[string]any, error) {
			if call == 0 {
				return nil, &pgconn.PgError{Code: "22P02", Message: "invalid input syntax"}
			}
			return []map[string]any{{"amount": "abc"}, {"amount": "def"}}, nil
		},
	}
	store := newTestStore(t, backend, nil)

	result := store.GetStatistics(context.Background(), "t_materials", models.StatisticsRequest{
		Aggregation: models.AggAvg,
		Column:      "amount",
	}, models.CallOptions{})

	require.NotNil(t, result.Error)
	assert.Contains(t, *result.Error, "keine auswertbaren Zahlenwerte")
}

func TestGetStatisticsNullAggregateOnEmptyTable(t *testing.T) {
	backend := &mockBackend{
		selectFn: func(_ int, _ string, _ []any) ([]map[string]any, error) {
			return []map[string]any{{"value": nil}}, nil
		},
	}
	store := newTestStore(t, backend, nil)

	result := store.GetStatistics(context.Background(), "t_projects", models.StatisticsRequest{
		Aggregation: models.AggMax,
		Column:      "budget",
	}, models.CallOptions{})

	require.NotNil(t, result.Error)
	assert.Contains(t, *result.Error, "keine auswertbaren Zahlenwerte")
}

func TestComputeAggregate(t *testing.T) {
	rows := []map[string]any{
		{"v": float64(4)},
		{"v": "2"},
		{"v": "kaputt"},
		{"v": int64(6)},
	}

	tests := []struct {
		agg  models.Aggregation
		want float64
	}{
		{models.AggCount, 4},
		{models.AggSum, 12},
		{models.AggAvg, 4},
		{models.AggMin, 2},
		{models.AggMax, 6},
	}
	for _, tt := range tests {
		t.Run(string(tt.agg), func(t *testing.T) {
			got, err := computeAggregate(tt.agg, "v", rows)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsAggregationTypeError(t *testing.T) {
	assert.True(t, isAggregationTypeError(&pgconn.PgError{Code: "22P02"}))
	assert.True(t, isAggregationTypeError(&pgconn.PgError{Code: "42883"}))
	assert.False(t, isAggregationTypeError(&pgconn.PgError{Code: "23505"}))
	assert.True(t, isAggregationTypeError(assertableError("invalid input syntax for type numeric")))
	assert.False(t, isAggregationTypeError(assertableError("connection refused")))
}

type assertableError string

func (e assertableError) Error() string { return string(e) }
