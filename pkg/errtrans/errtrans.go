// Package errtrans maps raw backend and validation errors onto the fixed
// set of German user-facing messages the chat layer renders verbatim.
// Translation is pure: no side effects, no logging.
package errtrans

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/apperrors"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/logging"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/models"
)

// maxRawDetailLength bounds the raw error snippet appended in debug mode.
const maxRawDetailLength = 200

// Translator turns errors into user-facing German messages. In debug
// mode a truncated, credential-sanitized raw message is appended so
// developers see the cause; in production only the fixed category
// message is returned.
type Translator struct {
	debug bool
}

// New creates a Translator. debug controls raw-detail passthrough.
func New(debug bool) *Translator {
	return &Translator{debug: debug}
}

// Category messages. The order of checks in Translate defines priority;
// the categories are mutually exclusive by that order.
const (
	msgConnection  = "Die Verbindung zur Datenbank ist fehlgeschlagen. Bitte versuchen Sie es in einem Moment erneut."
	msgTimeout     = "Die Datenbank hat nicht rechtzeitig geantwortet (Zeitüberschreitung). Bitte versuchen Sie es erneut."
	msgPermission  = "Für diese Aktion fehlt die nötige Berechtigung."
	msgUnique      = "Der Eintrag existiert bereits: ein Wert verletzt eine eindeutige Spalte."
	msgForeignKey  = "Der Eintrag verweist auf einen Datensatz, der nicht existiert (Fremdschlüssel-Verletzung)."
	msgNotNull     = "Ein Pflichtfeld fehlt: eine Spalte darf nicht leer sein."
	msgRateLimit   = "Zu viele Anfragen in kurzer Zeit. Bitte warten Sie einen Moment."
	msgUnavailable = "Der Datenbankdienst ist vorübergehend nicht verfügbar."
)

// Operation-specific generic fallbacks.
var opFallbacks = map[models.AuditAction]string{
	models.AuditActionInsert: "Der Datensatz konnte nicht angelegt werden.",
	models.AuditActionUpdate: "Der Datensatz konnte nicht aktualisiert werden.",
	models.AuditActionDelete: "Der Datensatz konnte nicht gelöscht werden.",
	models.AuditActionQuery:  "Die Abfrage konnte nicht ausgeführt werden.",
}

// Translate maps err to one German message, parameterized by the
// operation kind and table name. Local validation sentinels take
// precedence, then structured PostgreSQL errors, then text patterns in
// priority order, then the operation fallback.
func (t *Translator) Translate(err error, op models.AuditAction, table string) string {
	if err == nil {
		return ""
	}

	if msg, ok := t.translateSentinel(err); ok {
		return msg
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if msg, ok := translateSQLState(pgErr, table); ok {
			return t.withDetail(msg, err)
		}
	}

	if msg, ok := translateText(err, table); ok {
		return t.withDetail(msg, err)
	}

	return t.withDetail(opFallbacks[op], err)
}

// AmbiguousMatch is the cardinality-gate refusal, reporting how many
// rows the filters hit. Kept here so the wording lives with the other
// user-facing messages.
func AmbiguousMatch(table string, count int) string {
	return fmt.Sprintf(
		"Die Filter treffen auf %d Zeilen in %s zu (mehrere Zeilen). Die Änderung wurde nicht ausgeführt. Bitte grenzen Sie die Auswahl weiter ein, z. B. über eine ID.",
		count, table)
}

// NoRowsFound is the zero-match refusal for mutations.
func NoRowsFound(table string) string {
	return fmt.Sprintf("In %s wurde keine passende Zeile gefunden. Es wurde nichts geändert.", table)
}

func (t *Translator) translateSentinel(err error) (string, bool) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidTableName):
		return "Diese Tabelle ist ungültig oder für diese Aktion nicht freigegeben.", true
	case errors.Is(err, apperrors.ErrInvalidKey):
		return "Ein Spalten- oder Feldname in der Anfrage ist ungültig.", true
	case errors.Is(err, apperrors.ErrValueTooLong):
		return "Ein Textwert ist zu lang (maximal 10000 Zeichen).", true
	case errors.Is(err, apperrors.ErrInvalidNumber):
		return "Ein Zahlenwert in der Anfrage ist ungültig.", true
	case errors.Is(err, apperrors.ErrArrayTooLong):
		return "Eine Liste in der Anfrage enthält zu viele Einträge (maximal 1000).", true
	case errors.Is(err, apperrors.ErrTooManyKeys):
		return "Die Anfrage enthält zu viele Felder.", true
	case errors.Is(err, apperrors.ErrInvalidLimit):
		return "Das Limit muss zwischen 1 und 1000 liegen.", true
	case errors.Is(err, apperrors.ErrInvalidJoin):
		return "Der angegebene Verknüpfungs-Ausdruck ist ungültig.", true
	case errors.Is(err, apperrors.ErrInjectionPattern):
		return "Die Eingabe enthält unzulässige Zeichenfolgen und wurde abgelehnt.", true
	case errors.Is(err, apperrors.ErrAmbiguousFilter):
		return "Die Filter identifizieren keine eindeutige Zeile. Bitte geben Sie eine ID oder einen eindeutigen Namen an.", true
	case errors.Is(err, apperrors.ErrAmbiguousMatch):
		return "Die Filter treffen auf mehrere Zeilen zu. Die Änderung wurde nicht ausgeführt.", true
	case errors.Is(err, apperrors.ErrNoRowsFound):
		return "Es wurde keine passende Zeile gefunden.", true
	case errors.Is(err, apperrors.ErrInvalidAggregation):
		return "Diese Auswertung wird nicht unterstützt (erlaubt: count, sum, avg, min, max).", true
	case errors.Is(err, apperrors.ErrNoValidNumericValues):
		return "Die Spalte enthält keine auswertbaren Zahlenwerte.", true
	case errors.Is(err, apperrors.ErrInvalidFilterOperator):
		return "Ein Filter verwendet einen unbekannten Vergleichsoperator.", true
	}
	return "", false
}

// translateSQLState maps structured PostgreSQL errors. Structured codes
// are checked before text matching because they are unambiguous.
func translateSQLState(pgErr *pgconn.PgError, table string) (string, bool) {
	switch pgErr.Code {
	case "23505":
		return msgUnique, true
	case "23503":
		return msgForeignKey, true
	case "23502":
		return msgNotNull, true
	case "42P01":
		return fmt.Sprintf("Die Tabelle %s wurde nicht gefunden.", table), true
	case "42501":
		return msgPermission, true
	case "57014":
		return msgTimeout, true
	}

	if len(pgErr.Code) >= 2 {
		switch pgErr.Code[:2] {
		case "08":
			return msgConnection, true
		case "53":
			return msgUnavailable, true
		}
	}
	return "", false
}

// translateText pattern-matches the lower-cased error text. The order is
// significant: a permission error riding on a dropped connection is
// reported as a connection error because that check runs first.
func translateText(err error, table string) (string, bool) {
	text := strings.ToLower(err.Error())

	contains := func(patterns ...string) bool {
		for _, p := range patterns {
			if strings.Contains(text, p) {
				return true
			}
		}
		return false
	}

	switch {
	case contains("connection refused", "connection reset", "broken pipe", "no such host", "network is unreachable", "connect: "):
		return msgConnection, true
	case contains("timeout", "timed out"):
		return msgTimeout, true
	case contains("permission denied", "insufficient privilege", "not authorized"):
		return msgPermission, true
	case contains("does not exist", "undefined table", "no such table"):
		return fmt.Sprintf("Die Tabelle %s wurde nicht gefunden.", table), true
	case contains("unique", "duplicate"):
		return msgUnique, true
	case contains("foreign key"):
		return msgForeignKey, true
	case contains("not null", "not-null"):
		return msgNotNull, true
	case contains("rate limit", "too many requests", "429"):
		return msgRateLimit, true
	case contains("service unavailable", "unavailable", "503"):
		return msgUnavailable, true
	}
	return "", false
}

// withDetail appends a truncated, sanitized raw message in debug mode.
func (t *Translator) withDetail(msg string, err error) string {
	if !t.debug {
		return msg
	}
	raw := logging.SanitizeError(err)
	if len(raw) > maxRawDetailLength {
		raw = raw[:maxRawDetailLength] + "…"
	}
	return msg + " (Details: " + raw + ")"
}
