// Package schemautil provides helpers for working with schema fragments held
// as generic JSON values (map[string]any, []any and scalars).
package schemautil

import (
	"fmt"
	"math"
	"time"
)

// DeepCopy returns a deep copy of a JSON value. Maps and slices are copied
// recursively; scalars are returned as-is.
func DeepCopy(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		cp := make([]any, len(t))
		for i, item := range t {
			cp[i] = DeepCopy(item)
		}
		return cp
	case map[string]any:
		return CopyMap(t)
	default:
		return v
	}
}

// CopyMap returns a deep copy of m. A nil map yields a nil map.
func CopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, item := range m {
		cp[k] = DeepCopy(item)
	}
	return cp
}

// Normalize converts a value decoded from YAML into plain JSON values:
// mappings with non-string keys become map[string]any, every integer kind
// becomes float64 and timestamps become RFC 3339 strings.
func Normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			t[k] = Normalize(item)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, item := range t {
			m[fmt.Sprint(k)] = Normalize(item)
		}
		return m
	case []any:
		for i, item := range t {
			t[i] = Normalize(item)
		}
		return t
	case int:
		return float64(t)
	case int8:
		return float64(t)
	case int16:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint:
		return float64(t)
	case uint8:
		return float64(t)
	case uint16:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return v
	}
}

// IsIntegral reports whether f holds a whole number.
func IsIntegral(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f)
}
