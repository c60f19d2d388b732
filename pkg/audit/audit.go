// Package audit records a structured entry for every mutating
// table-access call. Writes are best-effort: a failing sink is logged
// and never propagates to the operation that triggered the entry.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/models"
)

// Sink persists audit entries beyond the structured log, typically into
// the t_audit_log table.
type Sink interface {
	Write(ctx context.Context, entry *models.AuditLogEntry) error
}

// Auditor builds and emits audit entries. Every entry goes to the
// structured log; when a sink is configured it is persisted there too.
type Auditor struct {
	logger *zap.Logger
	sink   Sink
	debug  bool
}

// NewAuditor creates an Auditor. sink may be nil (log-only). In
// non-debug mode filters and values are redacted before any write so
// row content never leaks into logs.
func NewAuditor(logger *zap.Logger, sink Sink, debug bool) *Auditor {
	return &Auditor{
		logger: logger.Named("audit"),
		sink:   sink,
		debug:  debug,
	}
}

// RecordOptions carries the variable parts of one audit entry.
type RecordOptions struct {
	UserID    string
	IPAddress string
	Filters   any
	Values    any
	Error     string
	Metadata  map[string]any
}

// Record creates, logs, and best-effort persists one audit entry.
// It never fails the calling operation.
func (a *Auditor) Record(ctx context.Context, action models.AuditAction, table string, result models.AuditResult, opts RecordOptions) *models.AuditLogEntry {
	entry := &models.AuditLogEntry{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		Action:    action,
		TableName: table,
		UserID:    opts.UserID,
		IPAddress: opts.IPAddress,
		Filters:   opts.Filters,
		Values:    opts.Values,
		Result:    result,
		Error:     opts.Error,
		Metadata:  opts.Metadata,
	}

	if !a.debug {
		if entry.Filters != nil {
			entry.Filters = models.RedactedMarker
		}
		if entry.Values != nil {
			entry.Values = models.RedactedMarker
		}
	}

	fields := []zap.Field{
		zap.String("audit_id", entry.ID.String()),
		zap.String("action", string(entry.Action)),
		zap.String("table", entry.TableName),
		zap.String("result", string(entry.Result)),
		zap.String("user_id", entry.UserID),
		zap.String("ip_address", entry.IPAddress),
	}
	if entry.Error != "" {
		fields = append(fields, zap.String("error", entry.Error))
	}

	if entry.Result == models.AuditResultSuccess {
		a.logger.Info("table access", fields...)
	} else {
		a.logger.Warn("table access failed", fields...)
	}

	a.persist(ctx, entry)
	return entry
}

// RecordSecurityEvent logs a critical security-relevant event, such as a
// detected injection pattern in tool input.
func (a *Auditor) RecordSecurityEvent(table, userID, ip, detail string) {
	a.logger.Error("security event",
		zap.String("table", table),
		zap.String("user_id", userID),
		zap.String("ip_address", ip),
		zap.String("detail", detail),
		zap.String("severity", "critical"),
	)
}

// persist writes the entry to the sink with its own error boundary.
func (a *Auditor) persist(ctx context.Context, entry *models.AuditLogEntry) {
	if a.sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("audit sink panicked", zap.Any("panic", r))
		}
	}()
	if err := a.sink.Write(ctx, entry); err != nil {
		a.logger.Error("failed to persist audit entry",
			zap.String("audit_id", entry.ID.String()),
			zap.Error(err))
	}
}
