// Package repositories provides pgx-backed data access for engine-owned
// tables.
package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/models"
)

// AuditQuerier is the slice of pgx the audit repository needs.
// *pgxpool.Pool satisfies it.
type AuditQuerier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// AuditEntryFilters narrows List results.
type AuditEntryFilters struct {
	TableName string
	Action    models.AuditAction
	Since     *time.Time
	Limit     int
}

// AuditRepository persists audit entries into t_audit_log.
type AuditRepository struct {
	db AuditQuerier
}

// NewAuditRepository creates an AuditRepository over db.
func NewAuditRepository(db AuditQuerier) *AuditRepository {
	return &AuditRepository{db: db}
}

// Write inserts one audit entry. Implements audit.Sink.
func (r *AuditRepository) Write(ctx context.Context, entry *models.AuditLogEntry) error {
	filtersJSON, err := marshalJSONB(entry.Filters)
	if err != nil {
		return fmt.Errorf("failed to marshal filters: %w", err)
	}
	valuesJSON, err := marshalJSONB(entry.Values)
	if err != nil {
		return fmt.Errorf("failed to marshal values: %w", err)
	}
	metadataJSON, err := marshalJSONB(entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO t_audit_log (
			id, created_at, action, table_name, user_id, ip_address,
			filters, row_values, result, error_message, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = r.db.Exec(ctx, query,
		entry.ID,
		entry.Timestamp,
		string(entry.Action),
		entry.TableName,
		nullIfEmpty(entry.UserID),
		nullIfEmpty(entry.IPAddress),
		filtersJSON,
		valuesJSON,
		string(entry.Result),
		nullIfEmpty(entry.Error),
		metadataJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// List returns audit entries, newest first.
func (r *AuditRepository) List(ctx context.Context, filters AuditEntryFilters) ([]*models.AuditLogEntry, error) {
	conditions := []string{"1=1"}
	args := []any{}
	argIdx := 1

	if filters.TableName != "" {
		conditions = append(conditions, fmt.Sprintf("table_name = $%d", argIdx))
		args = append(args, filters.TableName)
		argIdx++
	}
	if filters.Action != "" {
		conditions = append(conditions, fmt.Sprintf("action = $%d", argIdx))
		args = append(args, string(filters.Action))
		argIdx++
	}
	if filters.Since != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, *filters.Since)
		argIdx++
	}

	limit := filters.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	query := fmt.Sprintf(`
		SELECT id, created_at, action, table_name,
		       COALESCE(user_id, ''), COALESCE(ip_address, ''),
		       filters, row_values, result, COALESCE(error_message, ''), metadata
		FROM t_audit_log
		WHERE %s
		ORDER BY created_at DESC
		LIMIT %d`, strings.Join(conditions, " AND "), limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditLogEntry
	for rows.Next() {
		var entry models.AuditLogEntry
		var action, result string
		var filtersJSON, valuesJSON, metadataJSON []byte
		if err := rows.Scan(
			&entry.ID, &entry.Timestamp, &action, &entry.TableName,
			&entry.UserID, &entry.IPAddress,
			&filtersJSON, &valuesJSON, &result, &entry.Error, &metadataJSON,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entry.Action = models.AuditAction(action)
		entry.Result = models.AuditResult(result)
		entry.Filters = unmarshalJSONB(filtersJSON)
		entry.Values = unmarshalJSONB(valuesJSON)
		if meta := unmarshalJSONB(metadataJSON); meta != nil {
			if m, ok := meta.(map[string]any); ok {
				entry.Metadata = m
			}
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}
	return entries, nil
}

// marshalJSONB encodes v for a JSONB column, mapping nil to SQL NULL.
func marshalJSONB(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func unmarshalJSONB(data []byte) any {
	if len(data) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	return v
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
