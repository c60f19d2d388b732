// Package jsonutil provides tolerant JSON decoding for values coming
// from language models, which sometimes send numbers for strings or
// quoted digits for integers.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexibleString decodes from a JSON string, number, or boolean.
type FlexibleString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexibleString) UnmarshalJSON(raw []byte) error {
	*s = FlexibleString(FlexibleStringValue(raw))
	return nil
}

// FlexibleInt decodes from a JSON number or a numeric string.
type FlexibleInt int

// UnmarshalJSON implements json.Unmarshaler.
func (i *FlexibleInt) UnmarshalJSON(raw []byte) error {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		*i = 0
		return nil
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		*i = FlexibleInt(int(numVal))
		return nil
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		strVal = strings.TrimSpace(strVal)
		if strVal == "" {
			*i = 0
			return nil
		}
		parsed, err := strconv.ParseFloat(strVal, 64)
		if err != nil {
			return fmt.Errorf("cannot parse %q as integer", strVal)
		}
		*i = FlexibleInt(int(parsed))
		return nil
	}

	return fmt.Errorf("cannot parse %s as integer", trimmed)
}

// FlexibleStringValue converts a raw JSON value to a string, handling
// cases where models return numbers or booleans instead of strings.
// Returns empty string for null/empty.
func FlexibleStringValue(raw []byte) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return fmt.Sprintf("%g", numVal)
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	return string(raw)
}
