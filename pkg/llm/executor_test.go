package llm

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/errtrans"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/models"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/retry"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/tableaccess"
)

// recordingBackend captures executed statements and serves canned rows.
type recordingBackend struct {
	rows       []map[string]any
	selectSQLs []string
	mutateSQLs []string
}

func (b *recordingBackend) Select(_ context.Context, sql string, _ []any) ([]map[string]any, error) {
	b.selectSQLs = append(b.selectSQLs, sql)
	return b.rows, nil
}

func (b *recordingBackend) Mutate(_ context.Context, sql string, _ []any) ([]map[string]any, error) {
	b.mutateSQLs = append(b.mutateSQLs, sql)
	return b.rows, nil
}

func (b *recordingBackend) WithinTx(_ context.Context, fn func(tx tableaccess.Backend) error) error {
	return fn(b)
}

func newExecutorTestStore(backend tableaccess.Backend) *tableaccess.Store {
	return tableaccess.NewStore(&tableaccess.Config{
		Backend:        backend,
		WriteAllowList: []string{"t_projects"},
		Retry:          &retry.Config{MaxRetries: 0},
		Translator:     errtrans.New(false),
		Logger:         zap.NewNop(),
	})
}

func decodeEnvelope(t *testing.T, payload string) tableaccess.Result {
	t.Helper()
	var result tableaccess.Result
	require.NoError(t, json.Unmarshal([]byte(payload), &result))
	return result
}

func TestExecuteToolQueryTable(t *testing.T) {
	backend := &recordingBackend{rows: []map[string]any{{"id": float64(1), "status": "active"}}}
	executor := NewTableToolExecutor(newExecutorTestStore(backend), models.CallOptions{UserID: "u1"}, zap.NewNop())

	payload, err := executor.ExecuteTool(context.Background(), "query_table",
		`{"table_name": "t_projects", "filters": {"status": "active"}, "limit": 5}`)

	require.NoError(t, err)
	result := decodeEnvelope(t, payload)
	assert.Nil(t, result.Error)
	require.Len(t, backend.selectSQLs, 1)
	assert.Equal(t, "SELECT * FROM t_projects WHERE status = $1 LIMIT 5", backend.selectSQLs[0])
}

func TestExecuteToolToleratesQuotedNumbers(t *testing.T) {
	backend := &recordingBackend{}
	executor := NewTableToolExecutor(newExecutorTestStore(backend), models.CallOptions{}, zap.NewNop())

	// Models regularly quote the limit despite the schema.
	payload, err := executor.ExecuteTool(context.Background(), "query_table",
		`{"table_name": "t_projects", "limit": "25"}`)

	require.NoError(t, err)
	result := decodeEnvelope(t, payload)
	assert.Nil(t, result.Error)
	require.Len(t, backend.selectSQLs, 1)
	assert.Contains(t, backend.selectSQLs[0], "LIMIT 25")
}

func TestExecuteToolValidationErrorStaysInEnvelope(t *testing.T) {
	backend := &recordingBackend{}
	executor := NewTableToolExecutor(newExecutorTestStore(backend), models.CallOptions{}, zap.NewNop())

	payload, err := executor.ExecuteTool(context.Background(), "insert_row",
		`{"table_name": "t_forbidden", "values": {"name": "x"}}`)

	require.NoError(t, err, "domain failures are envelope content, not Go errors")
	result := decodeEnvelope(t, payload)
	require.NotNil(t, result.Error)
	assert.Contains(t, *result.Error, "nicht freigegeben")
	assert.Empty(t, backend.mutateSQLs)
}

func TestExecuteToolUpdateRow(t *testing.T) {
	backend := &recordingBackend{rows: []map[string]any{{"id": float64(1)}}}
	executor := NewTableToolExecutor(newExecutorTestStore(backend), models.CallOptions{}, zap.NewNop())

	payload, err := executor.ExecuteTool(context.Background(), "update_row",
		`{"table_name": "t_projects", "filters": {"id": 1}, "values": {"status": "done"}}`)

	require.NoError(t, err)
	result := decodeEnvelope(t, payload)
	assert.Nil(t, result.Error)
	require.Len(t, backend.mutateSQLs, 1)
	assert.Contains(t, backend.mutateSQLs[0], "UPDATE t_projects SET status = $1")
}

func TestExecuteToolGetStatistics(t *testing.T) {
	backend := &recordingBackend{rows: []map[string]any{{"value": float64(3)}}}
	executor := NewTableToolExecutor(newExecutorTestStore(backend), models.CallOptions{}, zap.NewNop())

	payload, err := executor.ExecuteTool(context.Background(), "get_statistics",
		`{"table_name": "t_projects", "aggregation": "count"}`)

	require.NoError(t, err)
	result := decodeEnvelope(t, payload)
	assert.Nil(t, result.Error)
	data, ok := result.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(3), data["count"])
}

func TestExecuteToolUnknownName(t *testing.T) {
	executor := NewTableToolExecutor(newExecutorTestStore(&recordingBackend{}), models.CallOptions{}, zap.NewNop())

	_, err := executor.ExecuteTool(context.Background(), "drop_table", `{}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tool")
}

func TestExecuteToolMalformedArguments(t *testing.T) {
	executor := NewTableToolExecutor(newExecutorTestStore(&recordingBackend{}), models.CallOptions{}, zap.NewNop())

	_, err := executor.ExecuteTool(context.Background(), "query_table", `{"table_name":`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid arguments")
}
