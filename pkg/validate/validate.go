// Package validate checks and sanitizes untrusted tool-call input before
// it reaches the database layer. All checks fail closed: a single bad key
// or value invalidates the whole call, nothing is silently dropped.
package validate

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	libinjection "github.com/corazawaf/libinjection-go"

	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/apperrors"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/models"
)

const (
	// MaxStringLength caps string values; longer values fail, they are not truncated.
	MaxStringLength = 10000
	// MaxArrayLength caps array values.
	MaxArrayLength = 1000
	// MaxFilterKeys caps the number of filter conditions per call.
	MaxFilterKeys = 50
	// MaxValueKeys caps the number of columns per insert/update.
	MaxValueKeys = 100
	// maxNestingDepth bounds recursion into nested objects.
	maxNestingDepth = 10
)

var (
	// identifierPattern is the shape every table name, column name and
	// filter key must match.
	identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

	// joinPattern gates relationship-join fragments before they are
	// concatenated into a select clause. Allowed: "table(col,col)" or
	// "table(*)", optionally with whitespace after commas. This is the
	// only place user input touches a query outside bind parameters.
	joinPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*\((\*|[a-zA-Z_][a-zA-Z0-9_]*(,\s*[a-zA-Z_][a-zA-Z0-9_]*)*)\)$`)

	// uniqueKeySuffixes and uniqueKeyNames feed the single-row filter
	// heuristic: a mutation filter set must contain at least one key
	// that plausibly identifies a single row.
	uniqueKeySuffixes = []string{"_id", "_code"}
	uniqueKeyNames    = map[string]bool{"id": true, "name": true}
)

// AllowList is an immutable set of table names permitted for an
// operation class. Construct it once at startup and inject it.
type AllowList map[string]bool

// NewAllowList builds an AllowList from table names.
func NewAllowList(tables []string) AllowList {
	list := make(AllowList, len(tables))
	for _, t := range tables {
		list[t] = true
	}
	return list
}

// Tables returns the allow-listed names in sorted order.
func (l AllowList) Tables() []string {
	names := make([]string, 0, len(l))
	for t := range l {
		names = append(names, t)
	}
	sort.Strings(names)
	return names
}

// TableName validates a table name against the identifier shape and,
// when allowList is non-nil, against the allow-list.
func TableName(name string, allowList AllowList) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", apperrors.ErrInvalidTableName)
	}
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", apperrors.ErrInvalidTableName, name)
	}
	if allowList != nil && !allowList[name] {
		return fmt.Errorf("%w: %q is not permitted", apperrors.ErrInvalidTableName, name)
	}
	return nil
}

// Identifier validates a single column name or identifier.
func Identifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", apperrors.ErrInvalidKey, name)
	}
	return nil
}

// JoinExpression validates one relationship-join fragment.
func JoinExpression(join string) error {
	if !joinPattern.MatchString(strings.TrimSpace(join)) {
		return fmt.Errorf("%w: %q", apperrors.ErrInvalidJoin, join)
	}
	return nil
}

// Filters validates every filter key and sanitizes every operand.
// Returns a sanitized copy; the input is never mutated.
func Filters(filters models.Filters) (models.Filters, error) {
	if len(filters) > MaxFilterKeys {
		return nil, fmt.Errorf("%w: %d filters exceed the limit of %d",
			apperrors.ErrTooManyKeys, len(filters), MaxFilterKeys)
	}

	out := make(models.Filters, len(filters))
	for key, f := range filters {
		if err := Identifier(key); err != nil {
			return nil, err
		}
		sanitized, err := sanitizeFilter(key, f)
		if err != nil {
			return nil, err
		}
		out[key] = sanitized
	}
	return out, nil
}

// Values validates every column key and sanitizes every value of an
// insert/update payload. Returns a sanitized copy.
func Values(values map[string]any) (map[string]any, error) {
	if len(values) > MaxValueKeys {
		return nil, fmt.Errorf("%w: %d values exceed the limit of %d",
			apperrors.ErrTooManyKeys, len(values), MaxValueKeys)
	}

	out := make(map[string]any, len(values))
	for key, v := range values {
		if err := Identifier(key); err != nil {
			return nil, err
		}
		sanitized, err := sanitizeValue(key, v, 0)
		if err != nil {
			return nil, err
		}
		out[key] = sanitized
	}
	return out, nil
}

// SingleRowFilters checks the heuristic safety net for mutations: at
// least one filter key must plausibly identify a single row. This is
// not a uniqueness guarantee; the transactional cardinality gate in the
// table-access core provides the real one.
func SingleRowFilters(filters models.Filters) error {
	if len(filters) == 0 {
		return fmt.Errorf("%w: no filters given", apperrors.ErrAmbiguousFilter)
	}
	for key := range filters {
		if uniqueKeyNames[key] {
			return nil
		}
		for _, suffix := range uniqueKeySuffixes {
			if strings.HasSuffix(key, suffix) {
				return nil
			}
		}
	}
	return fmt.Errorf("%w: add an identifying column such as an *_id, *_code or name",
		apperrors.ErrAmbiguousFilter)
}

func sanitizeFilter(key string, f models.Filter) (models.Filter, error) {
	if !models.ValidOp(f.Op) {
		return models.Filter{}, fmt.Errorf("%w: %q on %q",
			apperrors.ErrInvalidFilterOperator, f.Op, key)
	}

	switch f.Op {
	case models.OpBetween:
		lo, err := sanitizeValue(key, f.Lo, 0)
		if err != nil {
			return models.Filter{}, err
		}
		hi, err := sanitizeValue(key, f.Hi, 0)
		if err != nil {
			return models.Filter{}, err
		}
		return models.Between(lo, hi), nil
	case models.OpIn:
		if len(f.List) > MaxArrayLength {
			return models.Filter{}, fmt.Errorf("%w: %q has %d elements (max %d)",
				apperrors.ErrArrayTooLong, key, len(f.List), MaxArrayLength)
		}
		list := make([]any, len(f.List))
		for i, v := range f.List {
			sanitized, err := sanitizeValue(key, v, 0)
			if err != nil {
				return models.Filter{}, err
			}
			list[i] = sanitized
		}
		return models.In(list...), nil
	default:
		v, err := sanitizeValue(key, f.Value, 0)
		if err != nil {
			return models.Filter{}, err
		}
		return models.Filter{Op: f.Op, Value: v}, nil
	}
}

// sanitizeValue normalizes a single value: strings are trimmed,
// NUL-stripped, bounded and screened for injection patterns; numbers
// must be finite; arrays are bounded and nested objects validated
// recursively. Returns the sanitized value.
func sanitizeValue(key string, value any, depth int) (any, error) {
	if depth > maxNestingDepth {
		return nil, fmt.Errorf("%w: %q is nested too deeply", apperrors.ErrInvalidKey, key)
	}

	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(v, "\x00", ""))
		if n := utf8.RuneCountInString(s); n > MaxStringLength {
			return nil, fmt.Errorf("%w: %q has %d characters (max %d)",
				apperrors.ErrValueTooLong, key, n, MaxStringLength)
		}
		if isSQLi, fingerprint := libinjection.IsSQLi(s); isSQLi {
			return nil, fmt.Errorf("%w: %q (fingerprint %s)",
				apperrors.ErrInjectionPattern, key, fingerprint)
		}
		return s, nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidNumber, key)
		}
		return v, nil
	case float32:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidNumber, key)
		}
		return v, nil
	case bool, int, int32, int64:
		return v, nil
	case []any:
		if len(v) > MaxArrayLength {
			return nil, fmt.Errorf("%w: %q has %d elements (max %d)",
				apperrors.ErrArrayTooLong, key, len(v), MaxArrayLength)
		}
		out := make([]any, len(v))
		for i, elem := range v {
			sanitized, err := sanitizeValue(key, elem, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = sanitized
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, elem := range v {
			if err := Identifier(k); err != nil {
				return nil, err
			}
			sanitized, err := sanitizeValue(k, elem, depth+1)
			if err != nil {
				return nil, err
			}
			out[k] = sanitized
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q has unsupported type %T", apperrors.ErrInvalidKey, key, value)
	}
}
