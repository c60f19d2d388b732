// Package tools registers the table-access tools on an MCP server.
package tools

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/llm"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/models"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/tableaccess"
)

// TableToolDeps contains dependencies for the table tools.
type TableToolDeps struct {
	Store  *tableaccess.Store
	Logger *zap.Logger
}

const filterDescription = "Spaltenfilter: Literal für Gleichheit oder {\"type\": <op>, \"value\": ...} " +
	"mit op aus eq, neq, gt, gte, lt, lte, between, like, ilike, in"

// RegisterTableTools registers the seven table tools. Calls are
// dispatched through the same executor the chat loop uses, so MCP
// clients see identical envelopes, validation, and audit behavior.
func RegisterTableTools(s *server.MCPServer, deps *TableToolDeps) {
	executor := llm.NewTableToolExecutor(deps.Store, models.CallOptions{UserID: "mcp"}, deps.Logger)

	registerQueryTableTool(s, executor)
	registerInsertRowTool(s, executor)
	registerUpdateRowTool(s, executor)
	registerDeleteRowTool(s, executor)
	registerStatisticsTool(s, executor)
	registerTableNamesTool(s, executor)
	registerTableStructureTool(s, executor)
}

func registerQueryTableTool(s *server.MCPServer, executor *llm.TableToolExecutor) {
	tool := mcp.NewTool(
		"query_table",
		mcp.WithDescription(
			"Liest Zeilen aus einer Tabelle. Unterstützt Filter, Joins auf verknüpfte Tabellen "+
				"und ein Limit (Standard 100, Maximum 1000).",
		),
		mcp.WithString(
			"table_name",
			mcp.Required(),
			mcp.Description("Name der Tabelle, z. B. t_projects"),
		),
		mcp.WithObject(
			"filters",
			mcp.Description(filterDescription),
		),
		mcp.WithArray(
			"joins",
			mcp.Description("Eingebettete Relationen, z. B. t_employees(name, role) oder t_vehicles(*)"),
		),
		mcp.WithNumber(
			"limit",
			mcp.Description("Maximale Zeilenzahl (1 bis 1000)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, dispatchHandler(executor, "query_table"))
}

func registerInsertRowTool(s *server.MCPServer, executor *llm.TableToolExecutor) {
	tool := mcp.NewTool(
		"insert_row",
		mcp.WithDescription(
			"Fügt eine neue Zeile in eine schreibbare Tabelle ein und gibt die eingefügte Zeile zurück.",
		),
		mcp.WithString(
			"table_name",
			mcp.Required(),
			mcp.Description("Name der Zieltabelle"),
		),
		mcp.WithObject(
			"values",
			mcp.Required(),
			mcp.Description("Spaltenwerte der neuen Zeile"),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, dispatchHandler(executor, "insert_row"))
}

func registerUpdateRowTool(s *server.MCPServer, executor *llm.TableToolExecutor) {
	tool := mcp.NewTool(
		"update_row",
		mcp.WithDescription(
			"Aktualisiert genau eine Zeile. Die Filter müssen die Zeile eindeutig bestimmen, "+
				"sonst schlägt der Aufruf fehl.",
		),
		mcp.WithString(
			"table_name",
			mcp.Required(),
			mcp.Description("Name der Zieltabelle"),
		),
		mcp.WithObject(
			"filters",
			mcp.Required(),
			mcp.Description(filterDescription),
		),
		mcp.WithObject(
			"values",
			mcp.Required(),
			mcp.Description("Zu ändernde Spaltenwerte"),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, dispatchHandler(executor, "update_row"))
}

func registerDeleteRowTool(s *server.MCPServer, executor *llm.TableToolExecutor) {
	tool := mcp.NewTool(
		"delete_row",
		mcp.WithDescription(
			"Löscht genau eine Zeile. Die Filter müssen die Zeile eindeutig bestimmen, "+
				"sonst schlägt der Aufruf fehl.",
		),
		mcp.WithString(
			"table_name",
			mcp.Required(),
			mcp.Description("Name der Zieltabelle"),
		),
		mcp.WithObject(
			"filters",
			mcp.Required(),
			mcp.Description(filterDescription),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, dispatchHandler(executor, "delete_row"))
}

func registerStatisticsTool(s *server.MCPServer, executor *llm.TableToolExecutor) {
	tool := mcp.NewTool(
		"get_statistics",
		mcp.WithDescription(
			"Berechnet eine Aggregation (count, sum, avg, min, max) über eine Spalte, "+
				"optional gruppiert und gefiltert.",
		),
		mcp.WithString(
			"table_name",
			mcp.Required(),
			mcp.Description("Name der Tabelle"),
		),
		mcp.WithString(
			"aggregation",
			mcp.Required(),
			mcp.Description("Eine von: count, sum, avg, min, max"),
		),
		mcp.WithString(
			"column",
			mcp.Description("Zu aggregierende Spalte. Bei count optional"),
		),
		mcp.WithString(
			"group_by",
			mcp.Description("Spalte, nach der gruppiert wird"),
		),
		mcp.WithObject(
			"filters",
			mcp.Description(filterDescription),
		),
		mcp.WithNumber(
			"limit",
			mcp.Description("Maximale Zeilenzahl für die Berechnung"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, dispatchHandler(executor, "get_statistics"))
}

func registerTableNamesTool(s *server.MCPServer, executor *llm.TableToolExecutor) {
	tool := mcp.NewTool(
		"get_table_names",
		mcp.WithDescription("Listet alle verfügbaren Tabellen und ob sie schreibbar sind."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, dispatchHandler(executor, "get_table_names"))
}

func registerTableStructureTool(s *server.MCPServer, executor *llm.TableToolExecutor) {
	tool := mcp.NewTool(
		"get_table_structure",
		mcp.WithDescription("Liefert die Spalten einer Tabelle mit Typ, Nullbarkeit und Standardwert."),
		mcp.WithString(
			"table_name",
			mcp.Required(),
			mcp.Description("Name der Tabelle"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, dispatchHandler(executor, "get_table_structure"))
}

// dispatchHandler forwards the raw argument map to the shared tool
// executor and returns its envelope as the tool result.
func dispatchHandler(executor *llm.TableToolExecutor, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := map[string]any{}
		if m, ok := req.Params.Arguments.(map[string]any); ok {
			args = m
		}

		raw, err := json.Marshal(args)
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}

		payload, err := executor.ExecuteTool(ctx, name, string(raw))
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		return mcp.NewToolResultText(payload), nil
	}
}
