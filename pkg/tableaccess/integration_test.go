package tableaccess_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/errtrans"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/models"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/retry"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/tableaccess"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/testhelpers"
)

func newIntegrationStore(t *testing.T) *tableaccess.Store {
	t.Helper()
	db := testhelpers.GetTestDB(t)
	testhelpers.SetupOfficeSchema(t, db)

	return tableaccess.NewStore(&tableaccess.Config{
		Backend:        tableaccess.NewPgxBackend(db.Pool),
		WriteAllowList: []string{"t_projects", "t_employees", "t_vehicles", "t_morningplan", "t_morningplan_staff"},
		Retry: &retry.Config{
			MaxRetries:   2,
			InitialDelay: 10 * time.Millisecond,
			MaxDelay:     100 * time.Millisecond,
			Multiplier:   2.0,
		},
		Translator: errtrans.New(false),
		Logger:     zap.NewNop(),
	})
}

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func TestIntegrationInsertQueryUpdateDelete(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()
	opts := models.CallOptions{UserID: "integration"}
	name := uniqueName("Projekt")

	inserted := store.InsertRow(ctx, "t_projects", map[string]any{
		"name":   name,
		"status": "active",
		"budget": 25000.50,
	}, opts)
	require.Nil(t, inserted.Error, "insert: %v", inserted.Error)

	row, ok := inserted.Data.(map[string]any)
	require.True(t, ok)
	require.NotNil(t, row["id"])

	queried := store.QueryTable(ctx, "t_projects",
		models.Filters{"name": models.Eq(name)}, 0, nil, opts)
	require.Nil(t, queried.Error)
	rows := queried.Data.([]map[string]any)
	require.Len(t, rows, 1)

	updated := store.UpdateRow(ctx, "t_projects",
		models.Filters{"id": models.Eq(row["id"])},
		map[string]any{"status": "done"}, opts)
	require.Nil(t, updated.Error, "update: %v", updated.Error)
	updatedRow := updated.Data.(map[string]any)
	assert.Equal(t, "done", updatedRow["status"])

	deleted := store.DeleteRow(ctx, "t_projects",
		models.Filters{"id": models.Eq(row["id"])}, opts)
	require.Nil(t, deleted.Error, "delete: %v", deleted.Error)
	payload := deleted.Data.(map[string]any)
	assert.Equal(t, 1, payload["deleted_count"])

	// A second delete with the same filters finds nothing.
	again := store.DeleteRow(ctx, "t_projects",
		models.Filters{"id": models.Eq(row["id"])}, opts)
	require.NotNil(t, again.Error)
	assert.Contains(t, *again.Error, "keine passende Zeile")
}

func TestIntegrationCardinalityGateAgainstRealRows(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()
	opts := models.CallOptions{UserID: "integration"}
	status := uniqueName("shared")

	for i := 0; i < 2; i++ {
		inserted := store.InsertRow(ctx, "t_projects", map[string]any{
			"name":   uniqueName("Projekt"),
			"status": status,
		}, opts)
		require.Nil(t, inserted.Error)
	}

	off := false
	// Status matches two rows: the gate must refuse the update.
	result := store.UpdateRow(ctx, "t_projects",
		models.Filters{"id": models.Gt(0), "status": models.Eq(status)},
		map[string]any{"status": "blocked"}, opts)
	require.NotNil(t, result.Error)
	assert.Contains(t, *result.Error, "mehrere Zeilen")

	// With the gate disabled the same filters update both rows.
	bulk := store.UpdateRow(ctx, "t_projects",
		models.Filters{"status": models.Eq(status)},
		map[string]any{"status": status + "-done"},
		models.CallOptions{UserID: "integration", RequireSingleRow: &off})
	require.Nil(t, bulk.Error, "bulk update: %v", bulk.Error)
	rows := bulk.Data.([]map[string]any)
	assert.Len(t, rows, 2)
}

func TestIntegrationForeignKeyViolationTranslated(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()

	result := store.InsertRow(ctx, "t_morningplan", map[string]any{
		"plan_date":  "2026-09-01",
		"project_id": 999999999,
	}, models.CallOptions{UserID: "integration"})

	require.NotNil(t, result.Error)
	assert.Contains(t, *result.Error, "Fremdschlüssel")
}

func TestIntegrationStatisticsOverRealData(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()
	opts := models.CallOptions{UserID: "integration"}
	status := uniqueName("stats")

	budgets := []float64{1000, 2000, 3000}
	for _, b := range budgets {
		inserted := store.InsertRow(ctx, "t_projects", map[string]any{
			"name":   uniqueName("Projekt"),
			"status": status,
			"budget": b,
		}, opts)
		require.Nil(t, inserted.Error)
	}

	result := store.GetStatistics(ctx, "t_projects", models.StatisticsRequest{
		Aggregation: models.AggSum,
		Column:      "budget",
		Filters:     models.Filters{"status": models.Eq(status)},
	}, opts)

	require.Nil(t, result.Error, "statistics: %v", result.Error)
	data := result.Data.(map[string]any)
	assert.Equal(t, float64(6000), data["sum"])
}

func TestIntegrationTableStructure(t *testing.T) {
	store := newIntegrationStore(t)

	result := store.GetTableStructure(context.Background(), "t_projects", models.CallOptions{})

	require.Nil(t, result.Error)
	payload := result.Data.(map[string]any)
	assert.Equal(t, "t_projects", payload["table_name"])
	assert.Equal(t, true, payload["writable"])

	columns := payload["columns"].([]map[string]any)
	names := make([]string, 0, len(columns))
	for _, col := range columns {
		name, _ := col["column_name"].(string)
		names = append(names, name)
	}
	assert.Contains(t, names, "id")
	assert.Contains(t, names, "budget")
}
