package tableaccess

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/apperrors"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/audit"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/errtrans"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/logging"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/models"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/retry"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/validate"
)

const (
	defaultQueryLimit = 100
	maxQueryLimit     = 1000
)

// Store is the table-access core. Every operation follows the same
// shape: validate, (for mutations) gate cardinality, execute with
// retry, translate errors, audit. Failures surface only through the
// Result envelope.
//
// The Store is stateless between calls; concurrent use is safe as long
// as the Backend is.
type Store struct {
	backend    Backend
	writeList  validate.AllowList
	readList   validate.AllowList // nil: reads unrestricted beyond key-shape checks
	retryCfg   *retry.Config
	translator *errtrans.Translator
	auditor    *audit.Auditor
	logger     *zap.Logger
}

// Config assembles a Store. WriteAllowList is required; reads are only
// restricted to the same set when EnforceReadAllowList is set.
type Config struct {
	Backend              Backend
	WriteAllowList       []string
	EnforceReadAllowList bool
	Retry                *retry.Config
	Translator           *errtrans.Translator
	Auditor              *audit.Auditor
	Logger               *zap.Logger
}

// NewStore creates a Store from cfg.
func NewStore(cfg *Config) *Store {
	writeList := validate.NewAllowList(cfg.WriteAllowList)
	var readList validate.AllowList
	if cfg.EnforceReadAllowList {
		readList = writeList
	}

	retryCfg := cfg.Retry
	if retryCfg == nil {
		retryCfg = retry.DefaultConfig()
	}

	return &Store{
		backend:    cfg.Backend,
		writeList:  writeList,
		readList:   readList,
		retryCfg:   retryCfg,
		translator: cfg.Translator,
		auditor:    cfg.Auditor,
		logger:     cfg.Logger.Named("tableaccess"),
	}
}

// WriteAllowList exposes the configured writable tables.
func (s *Store) WriteAllowList() validate.AllowList {
	return s.writeList
}

// cardinalityError carries the row count that tripped the mutation gate.
type cardinalityError struct {
	table string
	count int
}

func (e *cardinalityError) Error() string {
	return fmt.Sprintf("filters match %d rows in %s", e.count, e.table)
}

// IsRetryable marks the gate refusal as deterministic so the retry
// layer never replays it, whatever the count in the message text.
func (e *cardinalityError) IsRetryable() bool { return false }

func (e *cardinalityError) Unwrap() error {
	if e.count == 0 {
		return apperrors.ErrNoRowsFound
	}
	return apperrors.ErrAmbiguousMatch
}

// message translates err into the user-facing German message for op.
func (s *Store) message(err error, op models.AuditAction, table string) string {
	var card *cardinalityError
	if errors.As(err, &card) {
		if card.count == 0 {
			return errtrans.NoRowsFound(card.table)
		}
		return errtrans.AmbiguousMatch(card.table, card.count)
	}
	return s.translator.Translate(err, op, table)
}

// QueryTable reads up to limit rows from table, applying the declared
// comparison of each filter. limit 0 means the default of 100; anything
// outside 1..1000 fails. An empty result set is success, not an error.
func (s *Store) QueryTable(ctx context.Context, table string, filters models.Filters, limit int, joins []string, opts models.CallOptions) Result {
	if limit == 0 {
		limit = defaultQueryLimit
	}
	if limit < 1 || limit > maxQueryLimit {
		return errResult(s.message(
			fmt.Errorf("%w: %d", apperrors.ErrInvalidLimit, limit),
			models.AuditActionQuery, table))
	}

	if err := validate.TableName(table, s.readList); err != nil {
		return errResult(s.message(err, models.AuditActionQuery, table))
	}

	sanitized, err := validate.Filters(filters)
	if err != nil {
		s.reportIfInjection(err, table, opts)
		return errResult(s.message(err, models.AuditActionQuery, table))
	}

	for _, join := range joins {
		if err := validate.JoinExpression(join); err != nil {
			return errResult(s.message(err, models.AuditActionQuery, table))
		}
	}

	sql, args, err := buildSelect(table, sanitized, limit, joins)
	if err != nil {
		return errResult(s.message(err, models.AuditActionQuery, table))
	}
	s.logger.Debug("query", zap.String("table", table), zap.String("sql", logging.SanitizeSQL(sql)))

	rows, err := retry.DoWithResult(ctx, s.retryCfg, func() ([]map[string]any, error) {
		return s.backend.Select(ctx, sql, args)
	})
	if err != nil {
		s.logger.Warn("query failed", zap.String("table", table), zap.String("error", logging.SanitizeError(err)))
		return errResult(s.message(err, models.AuditActionQuery, table))
	}

	return okResult(rows)
}

// InsertRow inserts a single row into an allow-listed table and returns
// it. Every attempt produces exactly one audit entry.
func (s *Store) InsertRow(ctx context.Context, table string, values map[string]any, opts models.CallOptions) Result {
	fail := func(err error) Result {
		msg := s.message(err, models.AuditActionInsert, table)
		s.audit(ctx, models.AuditActionInsert, table, models.AuditResultFailure, opts, nil, values, msg)
		return errResult(msg)
	}

	if err := validate.TableName(table, s.writeList); err != nil {
		return fail(err)
	}
	sanitized, err := validate.Values(values)
	if err != nil {
		s.reportIfInjection(err, table, opts)
		return fail(err)
	}

	sql, args := buildInsert(table, sanitized)
	row, err := retry.DoWithResult(ctx, s.retryCfg, func() ([]map[string]any, error) {
		return s.backend.Mutate(ctx, sql, args)
	})
	if err != nil {
		return fail(err)
	}

	s.audit(ctx, models.AuditActionInsert, table, models.AuditResultSuccess, opts, nil, sanitized, "")
	if len(row) == 1 {
		return okResult(row[0])
	}
	return okResult(row)
}

// UpdateRow updates rows matching filters. Unless opts disables it, the
// cardinality gate requires the filters to provably match exactly one
// row: the locking count and the update run in one transaction, so the
// proof cannot go stale between check and mutation.
func (s *Store) UpdateRow(ctx context.Context, table string, filters models.Filters, values map[string]any, opts models.CallOptions) Result {
	fail := func(err error) Result {
		msg := s.message(err, models.AuditActionUpdate, table)
		s.audit(ctx, models.AuditActionUpdate, table, models.AuditResultFailure, opts, filters, values, msg)
		return errResult(msg)
	}

	sanitizedFilters, sanitizedValues, err := s.validateMutation(table, filters, values, opts)
	if err != nil {
		s.reportIfInjection(err, table, opts)
		return fail(err)
	}

	sql, args, err := buildUpdate(table, sanitizedFilters, sanitizedValues)
	if err != nil {
		return fail(err)
	}
	rows, err := s.gatedMutation(ctx, table, sanitizedFilters, sql, args, opts)
	if err != nil {
		return fail(err)
	}

	s.audit(ctx, models.AuditActionUpdate, table, models.AuditResultSuccess, opts, sanitizedFilters, sanitizedValues, "")
	if len(rows) == 1 {
		return okResult(rows[0])
	}
	return okResult(rows)
}

// DeleteRow deletes rows matching filters under the same cardinality
// gate as UpdateRow and returns the deleted rows.
func (s *Store) DeleteRow(ctx context.Context, table string, filters models.Filters, opts models.CallOptions) Result {
	fail := func(err error) Result {
		msg := s.message(err, models.AuditActionDelete, table)
		s.audit(ctx, models.AuditActionDelete, table, models.AuditResultFailure, opts, filters, nil, msg)
		return errResult(msg)
	}

	sanitizedFilters, _, err := s.validateMutation(table, filters, nil, opts)
	if err != nil {
		s.reportIfInjection(err, table, opts)
		return fail(err)
	}

	sql, args, err := buildDelete(table, sanitizedFilters)
	if err != nil {
		return fail(err)
	}
	rows, err := s.gatedMutation(ctx, table, sanitizedFilters, sql, args, opts)
	if err != nil {
		return fail(err)
	}

	s.audit(ctx, models.AuditActionDelete, table, models.AuditResultSuccess, opts, sanitizedFilters, nil, "")
	return okResult(map[string]any{
		"deleted_count": len(rows),
		"deleted_rows":  rows,
	})
}

// validateMutation shares the validation path of update and delete.
// values may be nil for deletes.
func (s *Store) validateMutation(table string, filters models.Filters, values map[string]any, opts models.CallOptions) (models.Filters, map[string]any, error) {
	if err := validate.TableName(table, s.writeList); err != nil {
		return nil, nil, err
	}

	sanitizedFilters, err := validate.Filters(filters)
	if err != nil {
		return nil, nil, err
	}

	var sanitizedValues map[string]any
	if values != nil {
		sanitizedValues, err = validate.Values(values)
		if err != nil {
			return nil, nil, err
		}
	}

	if opts.SingleRowRequired() {
		if err := validate.SingleRowFilters(sanitizedFilters); err != nil {
			return nil, nil, err
		}
	}

	return sanitizedFilters, sanitizedValues, nil
}

// gatedMutation runs the locking count and the mutation in a single
// transaction, retried as a unit so serialization failures replay the
// whole gate. With the gate disabled there is nothing to prove: the
// mutation runs directly and matching zero rows is empty success.
func (s *Store) gatedMutation(ctx context.Context, table string, filters models.Filters, mutationSQL string, args []any, opts models.CallOptions) ([]map[string]any, error) {
	if !opts.SingleRowRequired() {
		return retry.DoWithResult(ctx, s.retryCfg, func() ([]map[string]any, error) {
			return s.backend.Mutate(ctx, mutationSQL, args)
		})
	}

	countSQL, countArgs, err := buildLockingCount(table, filters)
	if err != nil {
		return nil, err
	}

	return retry.DoWithResult(ctx, s.retryCfg, func() ([]map[string]any, error) {
		var rows []map[string]any
		err := s.backend.WithinTx(ctx, func(tx Backend) error {
			matched, err := tx.Select(ctx, countSQL, countArgs)
			if err != nil {
				return err
			}
			if len(matched) == 0 {
				return &cardinalityError{table: table, count: 0}
			}
			if len(matched) > 1 {
				return &cardinalityError{table: table, count: len(matched)}
			}

			rows, err = tx.Mutate(ctx, mutationSQL, args)
			return err
		})
		return rows, err
	})
}

// audit emits exactly one entry for a mutation attempt.
func (s *Store) audit(ctx context.Context, action models.AuditAction, table string, result models.AuditResult, opts models.CallOptions, filters, values any, errMsg string) {
	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, action, table, result, audit.RecordOptions{
		UserID:    opts.UserID,
		IPAddress: opts.IPAddress,
		Filters:   filters,
		Values:    values,
		Error:     errMsg,
	})
}

// reportIfInjection raises a critical security event when validation
// tripped on an injection pattern.
func (s *Store) reportIfInjection(err error, table string, opts models.CallOptions) {
	if s.auditor != nil && errors.Is(err, apperrors.ErrInjectionPattern) {
		s.auditor.RecordSecurityEvent(table, opts.UserID, opts.IPAddress, err.Error())
	}
}
