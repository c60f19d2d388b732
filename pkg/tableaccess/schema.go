package tableaccess

import (
	"context"
	"fmt"

	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/models"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/retry"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/validate"
)

// GetTableNames lists the tables visible to the chatbot: the public
// schema catalog, with the write allow-list marked. When reads are
// restricted, only allow-listed tables are returned.
func (s *Store) GetTableNames(ctx context.Context, opts models.CallOptions) Result {
	sql := `SELECT table_name FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := retry.DoWithResult(ctx, s.retryCfg, func() ([]map[string]any, error) {
		return s.backend.Select(ctx, sql, nil)
	})
	if err != nil {
		return errResult(s.message(err, models.AuditActionQuery, "information_schema.tables"))
	}

	tables := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		name, _ := row["table_name"].(string)
		if name == "" {
			continue
		}
		if s.readList != nil && !s.readList[name] {
			continue
		}
		tables = append(tables, map[string]any{
			"table_name": name,
			"writable":   s.writeList[name],
		})
	}
	return okResult(tables)
}

// GetTableStructure returns column name, type, nullability and default
// for one table from information_schema.
func (s *Store) GetTableStructure(ctx context.Context, table string, opts models.CallOptions) Result {
	if err := validate.TableName(table, s.readList); err != nil {
		return errResult(s.message(err, models.AuditActionQuery, table))
	}

	sql := `SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position`

	rows, err := retry.DoWithResult(ctx, s.retryCfg, func() ([]map[string]any, error) {
		return s.backend.Select(ctx, sql, []any{table})
	})
	if err != nil {
		return errResult(s.message(err, models.AuditActionQuery, table))
	}
	if len(rows) == 0 {
		return errResult(s.translator.Translate(errTableMissing(table), models.AuditActionQuery, table))
	}

	return okResult(map[string]any{
		"table_name": table,
		"columns":    rows,
		"writable":   s.writeList[table],
	})
}

// errTableMissing phrases an empty information_schema lookup the way the
// translator's table-not-found category expects.
func errTableMissing(table string) error {
	return fmt.Errorf("relation %q does not exist", table)
}
