package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/jsonutil"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/models"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/tableaccess"
)

// TableToolExecutor dispatches tool calls from the model onto the
// table-access store. Every call returns the serialized result
// envelope, including validation and translation errors, so the model
// can react to failures in-conversation.
type TableToolExecutor struct {
	store  *tableaccess.Store
	opts   models.CallOptions
	logger *zap.Logger
}

func NewTableToolExecutor(store *tableaccess.Store, opts models.CallOptions, logger *zap.Logger) *TableToolExecutor {
	return &TableToolExecutor{
		store:  store,
		opts:   opts,
		logger: logger.Named("tool_executor"),
	}
}

// Argument structs use the tolerant jsonutil types; models often send
// quoted numbers or bare digits where the schema says otherwise.
type queryTableArgs struct {
	TableName jsonutil.FlexibleString `json:"table_name"`
	Filters   models.Filters          `json:"filters"`
	Joins     []string                `json:"joins"`
	Limit     jsonutil.FlexibleInt    `json:"limit"`
}

type insertRowArgs struct {
	TableName jsonutil.FlexibleString `json:"table_name"`
	Values    map[string]any          `json:"values"`
}

type updateRowArgs struct {
	TableName jsonutil.FlexibleString `json:"table_name"`
	Filters   models.Filters          `json:"filters"`
	Values    map[string]any          `json:"values"`
}

type deleteRowArgs struct {
	TableName jsonutil.FlexibleString `json:"table_name"`
	Filters   models.Filters          `json:"filters"`
}

type statisticsArgs struct {
	TableName   jsonutil.FlexibleString `json:"table_name"`
	Aggregation jsonutil.FlexibleString `json:"aggregation"`
	Column      jsonutil.FlexibleString `json:"column"`
	GroupBy     jsonutil.FlexibleString `json:"group_by"`
	Filters     models.Filters          `json:"filters"`
	Limit       jsonutil.FlexibleInt    `json:"limit"`
}

type tableStructureArgs struct {
	TableName jsonutil.FlexibleString `json:"table_name"`
}

// ExecuteTool runs one tool call. Unknown tool names and malformed
// argument payloads are reported as errors to the caller; results,
// including domain errors, are serialized envelopes.
func (e *TableToolExecutor) ExecuteTool(ctx context.Context, name string, arguments string) (string, error) {
	e.logger.Debug("executing tool", zap.String("tool", name))

	var result tableaccess.Result
	switch name {
	case "query_table":
		var args queryTableArgs
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return "", fmt.Errorf("invalid arguments for %s: %w", name, err)
		}
		result = e.store.QueryTable(ctx, string(args.TableName), args.Filters, int(args.Limit), args.Joins, e.opts)

	case "insert_row":
		var args insertRowArgs
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return "", fmt.Errorf("invalid arguments for %s: %w", name, err)
		}
		result = e.store.InsertRow(ctx, string(args.TableName), args.Values, e.opts)

	case "update_row":
		var args updateRowArgs
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return "", fmt.Errorf("invalid arguments for %s: %w", name, err)
		}
		result = e.store.UpdateRow(ctx, string(args.TableName), args.Filters, args.Values, e.opts)

	case "delete_row":
		var args deleteRowArgs
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return "", fmt.Errorf("invalid arguments for %s: %w", name, err)
		}
		result = e.store.DeleteRow(ctx, string(args.TableName), args.Filters, e.opts)

	case "get_statistics":
		var args statisticsArgs
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return "", fmt.Errorf("invalid arguments for %s: %w", name, err)
		}
		req := models.StatisticsRequest{
			Aggregation: models.Aggregation(args.Aggregation),
			Column:      string(args.Column),
			GroupBy:     string(args.GroupBy),
			Filters:     args.Filters,
			Limit:       int(args.Limit),
		}
		result = e.store.GetStatistics(ctx, string(args.TableName), req, e.opts)

	case "get_table_names":
		result = e.store.GetTableNames(ctx, e.opts)

	case "get_table_structure":
		var args tableStructureArgs
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return "", fmt.Errorf("invalid arguments for %s: %w", name, err)
		}
		result = e.store.GetTableStructure(ctx, string(args.TableName), e.opts)

	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("serializing result for %s: %w", name, err)
	}
	return string(payload), nil
}
