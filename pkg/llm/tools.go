package llm

// ToolDefinition describes a callable tool in a provider-neutral form.
// Parameters follows the JSON Schema subset both providers accept.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

func filterSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"description": "Spaltenfilter. Werte sind entweder Literale (Gleichheit) oder Objekte " +
			"{\"type\": <op>, \"value\": ...} mit op aus eq, neq, gt, gte, lt, lte, between, like, ilike, in. " +
			"between erwartet [lo, hi], in erwartet ein Array.",
		"additionalProperties": true,
	}
}

// TableToolDefinitions returns the tool surface exposed to the model.
// writeTables is rendered into the descriptions so the model knows
// which tables accept mutations.
func TableToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "query_table",
			Description: "Liest Zeilen aus einer Tabelle. Unterstützt Filter, Joins auf verknüpfte Tabellen und ein Limit (Standard 100, Maximum 1000).",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"table_name": map[string]any{
						"type":        "string",
						"description": "Name der Tabelle, z. B. t_projects.",
					},
					"filters": filterSchema(),
					"joins": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "Eingebettete Relationen, z. B. t_employees(name, role) oder t_vehicles(*).",
					},
					"limit": map[string]any{
						"type":        "integer",
						"description": "Maximale Zeilenzahl (1 bis 1000).",
					},
				},
				"required": []string{"table_name"},
			},
		},
		{
			Name:        "insert_row",
			Description: "Fügt eine neue Zeile in eine schreibbare Tabelle ein und gibt die eingefügte Zeile zurück.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"table_name": map[string]any{"type": "string"},
					"values": map[string]any{
						"type":                 "object",
						"description":          "Spaltenwerte der neuen Zeile.",
						"additionalProperties": true,
					},
				},
				"required": []string{"table_name", "values"},
			},
		},
		{
			Name:        "update_row",
			Description: "Aktualisiert genau eine Zeile. Die Filter müssen die Zeile eindeutig bestimmen, sonst schlägt der Aufruf fehl.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"table_name": map[string]any{"type": "string"},
					"filters":    filterSchema(),
					"values": map[string]any{
						"type":                 "object",
						"description":          "Zu ändernde Spaltenwerte.",
						"additionalProperties": true,
					},
				},
				"required": []string{"table_name", "filters", "values"},
			},
		},
		{
			Name:        "delete_row",
			Description: "Löscht genau eine Zeile. Die Filter müssen die Zeile eindeutig bestimmen, sonst schlägt der Aufruf fehl.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"table_name": map[string]any{"type": "string"},
					"filters":    filterSchema(),
				},
				"required": []string{"table_name", "filters"},
			},
		},
		{
			Name:        "get_statistics",
			Description: "Berechnet eine Aggregation (count, sum, avg, min, max) über eine Spalte, optional gruppiert und gefiltert.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"table_name": map[string]any{"type": "string"},
					"aggregation": map[string]any{
						"type": "string",
						"enum": []string{"count", "sum", "avg", "min", "max"},
					},
					"column": map[string]any{
						"type":        "string",
						"description": "Zu aggregierende Spalte. Bei count optional.",
					},
					"group_by": map[string]any{
						"type":        "string",
						"description": "Spalte, nach der gruppiert wird.",
					},
					"filters": filterSchema(),
					"limit": map[string]any{
						"type":        "integer",
						"description": "Maximale Zeilenzahl für die Berechnung.",
					},
				},
				"required": []string{"table_name", "aggregation"},
			},
		},
		{
			Name:        "get_table_names",
			Description: "Listet alle verfügbaren Tabellen und ob sie schreibbar sind.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		{
			Name:        "get_table_structure",
			Description: "Liefert die Spalten einer Tabelle mit Typ, Nullbarkeit und Standardwert.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"table_name": map[string]any{"type": "string"},
				},
				"required": []string{"table_name"},
			},
		},
	}
}
