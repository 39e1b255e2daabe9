package nbtparse

import "strconv"

// Tolerant accessors. Upstream payloads drift between byte/short/int tags
// and occasionally serialize numbers as strings, so lookups coerce rather
// than assert.

// AsInt coerces any primitive leaf to an integer.
func AsInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case string:
		if parsed, err := strconv.ParseInt(n, 10, 64); err == nil {
			return parsed, true
		}
	}
	return 0, false
}

// AsFloat coerces any primitive leaf to a float.
func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case string:
		if parsed, err := strconv.ParseFloat(n, 64); err == nil {
			return parsed, true
		}
	}
	return 0, false
}

// AsString returns v when it is a string leaf.
func AsString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// Int reads the first present key coercible to an integer, else 0.
func Int(m Tree, keys ...string) int64 {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if n, ok := AsInt(v); ok {
				return n
			}
		}
	}
	return 0
}

// Str reads the first present key holding a non-empty string, else "".
func Str(m Tree, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := AsString(v); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// Map reads a nested compound, else nil.
func Map(m Tree, key string) Tree {
	if v, ok := m[key].(Tree); ok {
		return v
	}
	return nil
}

// List reads a nested list, else nil.
func List(m Tree, key string) []any {
	if v, ok := m[key].([]any); ok {
		return v
	}
	return nil
}
