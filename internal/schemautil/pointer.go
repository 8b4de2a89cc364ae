package schemautil

import (
	"fmt"
	"strconv"
	"strings"
)

// UnescapeToken decodes a JSON Pointer reference token (RFC 6901).
// Order matters: ~1 must be replaced before ~0.
func UnescapeToken(token string) string {
	token = strings.ReplaceAll(token, "~1", "/")
	return strings.ReplaceAll(token, "~0", "~")
}

// EscapeToken encodes a string for use as a JSON Pointer reference token.
func EscapeToken(token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}

// RefName returns the last segment of a $ref, e.g. "Dog" for
// "#/components/schemas/Dog".
func RefName(ref string) string {
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		return UnescapeToken(ref[i+1:])
	}
	return ref
}

// Lookup resolves a local JSON Pointer ("#/a/b") against doc. When an
// intermediate node is itself a local $ref, Lookup follows it, which lets
// pointers walk through the referenced form of a document.
func Lookup(doc map[string]any, ref string) (any, error) {
	return lookup(doc, ref, 0)
}

const maxLookupHops = 64

func lookup(doc map[string]any, ref string, hops int) (any, error) {
	if hops > maxLookupHops {
		return nil, fmt.Errorf("too many $ref hops resolving %s", ref)
	}
	if !strings.HasPrefix(ref, "#") {
		return nil, fmt.Errorf("only local references are supported: %s", ref)
	}
	path := strings.TrimPrefix(ref[1:], "/")
	if path == "" {
		return doc, nil
	}

	var current any = doc
	for _, part := range strings.Split(path, "/") {
		if m, ok := current.(map[string]any); ok {
			if next, isRef := m["$ref"].(string); isRef && strings.HasPrefix(next, "#") {
				resolved, err := lookup(doc, next, hops+1)
				if err != nil {
					return nil, err
				}
				current = resolved
			}
		}
		part = UnescapeToken(part)
		switch v := current.(type) {
		case map[string]any:
			next, ok := v[part]
			if !ok {
				return nil, fmt.Errorf("reference not found: %s", ref)
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, fmt.Errorf("invalid array index %q in reference %s", part, ref)
			}
			current = v[idx]
		default:
			return nil, fmt.Errorf("cannot navigate through %T in reference %s", current, ref)
		}
	}
	return current, nil
}

// LookupMap is Lookup for references that must point at a JSON object.
func LookupMap(doc map[string]any, ref string) (map[string]any, error) {
	v, err := Lookup(doc, ref)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("reference %s does not point to an object", ref)
	}
	return m, nil
}

// Deref follows local $ref chains starting at schema and returns the first
// node that is not a $ref. Schemas without a $ref are returned unchanged.
func Deref(doc map[string]any, schema map[string]any) (map[string]any, error) {
	for hops := 0; hops <= maxLookupHops; hops++ {
		ref, ok := schema["$ref"].(string)
		if !ok {
			return schema, nil
		}
		next, err := LookupMap(doc, ref)
		if err != nil {
			return nil, err
		}
		schema = next
	}
	return nil, fmt.Errorf("too many $ref hops dereferencing schema")
}
