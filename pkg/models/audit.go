package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction identifies the kind of table-access operation being recorded.
type AuditAction string

const (
	AuditActionQuery  AuditAction = "QUERY"
	AuditActionInsert AuditAction = "INSERT"
	AuditActionUpdate AuditAction = "UPDATE"
	AuditActionDelete AuditAction = "DELETE"
)

// AuditResult records whether the operation succeeded.
type AuditResult string

const (
	AuditResultSuccess AuditResult = "SUCCESS"
	AuditResultFailure AuditResult = "FAILURE"
)

// RedactedMarker replaces filters and values in audit entries outside
// debug contexts so row content never leaks into logs.
const RedactedMarker = "[REDACTED]"

// AuditLogEntry is an immutable record of one mutating (or audited read)
// operation attempt and its outcome. Entries are created once and never
// modified afterwards; retention is the log sink's concern.
type AuditLogEntry struct {
	ID        uuid.UUID      `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Action    AuditAction    `json:"action"`
	TableName string         `json:"table_name"`
	UserID    string         `json:"user_id,omitempty"`
	IPAddress string         `json:"ip_address,omitempty"`
	Filters   any            `json:"filters,omitempty"`
	Values    any            `json:"values,omitempty"`
	Result    AuditResult    `json:"result"`
	Error     string         `json:"error,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}
