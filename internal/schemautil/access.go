package schemautil

// Map returns m[key] when it is a JSON object, or nil.
func Map(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	sub, _ := m[key].(map[string]any)
	return sub
}

// Slice returns m[key] when it is a JSON array, or nil.
func Slice(m map[string]any, key string) []any {
	if m == nil {
		return nil
	}
	s, _ := m[key].([]any)
	return s
}

// String returns m[key] when it is a string, or "".
func String(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// Bool returns m[key] when it is a boolean, or false.
func Bool(m map[string]any, key string) bool {
	if m == nil {
		return false
	}
	b, _ := m[key].(bool)
	return b
}

// Strings returns the string elements of m[key] in order, skipping non-strings.
func Strings(m map[string]any, key string) []string {
	items := Slice(m, key)
	if len(items) == 0 {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// ToAnySlice converts a string slice into a JSON array.
func ToAnySlice(items []string) []any {
	out := make([]any, len(items))
	for i, s := range items {
		out[i] = s
	}
	return out
}

// Types returns the declared JSON types of a schema, accepting both the
// single-string and the array form of "type".
func Types(schema map[string]any) []string {
	switch t := schema["type"].(type) {
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// HasType reports whether schema declares the given JSON type.
func HasType(schema map[string]any, typ string) bool {
	for _, t := range Types(schema) {
		if t == typ {
			return true
		}
	}
	return false
}
