package engine

import (
	"strconv"
	"strings"
)

// AnswerMap is the transient per-respondent state: field id to the value
// currently entered. Values arrive from JSON, so strings, float64 numbers
// and []any arrays are the common shapes.
type AnswerMap map[string]any

// IsEmptyValue reports whether an answer counts as "not answered":
// absent, nil, the empty string, or an empty selection.
func IsEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []string:
		return len(val) == 0
	case []any:
		return len(val) == 0
	}
	return false
}

// asStrings returns the answer as a string slice when it is array-valued.
func asStrings(v any) ([]string, bool) {
	switch val := v.(type) {
	case []string:
		return val, true
	case []any:
		out := make([]string, len(val))
		for i, item := range val {
			out[i] = coerceString(item)
		}
		return out, true
	}
	return nil, false
}

// coerceString renders any answer value as a string for comparison.
// Array answers compare through their comma-joined form.
func coerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	}
	if arr, ok := asStrings(v); ok {
		return strings.Join(arr, ",")
	}
	return ""
}

// coerceFloat converts numeric and numeric-string values to float64.
func coerceFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
