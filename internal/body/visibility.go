package body

import "github.com/erraggy/schemabuilder/internal/schemautil"

// Direction is the way a body travels.
type Direction int

const (
	// Request bodies must not carry readOnly properties.
	Request Direction = iota
	// Response bodies must not carry writeOnly properties.
	Response
)

func (d Direction) String() string {
	if d == Response {
		return "response"
	}
	return "request"
}

func (d Direction) hiddenFlag() string {
	if d == Response {
		return "writeOnly"
	}
	return "readOnly"
}

// Filter returns a copy of schema without the properties that are not sent
// in direction d: readOnly ones for requests and writeOnly ones for
// responses. Removed properties are also dropped from the enclosing
// required list. Nested objects, array items and allOf/anyOf/oneOf
// branches are filtered too.
func Filter(schema map[string]any, d Direction) map[string]any {
	out := schemautil.CopyMap(schema)
	filter(out, d.hiddenFlag())
	return out
}

func filter(schema map[string]any, flag string) {
	if schema == nil {
		return
	}

	if props := schemautil.Map(schema, "properties"); props != nil {
		hidden := make(map[string]bool)
		for name, prop := range props {
			p, ok := prop.(map[string]any)
			if !ok {
				continue
			}
			if schemautil.Bool(p, flag) {
				hidden[name] = true
				delete(props, name)
				continue
			}
			filter(p, flag)
		}
		if len(hidden) > 0 {
			dropRequired(schema, hidden)
		}
	}

	if items, ok := schema["items"].(map[string]any); ok {
		filter(items, flag)
	}
	if additional, ok := schema["additionalProperties"].(map[string]any); ok {
		filter(additional, flag)
	}
	for _, key := range []string{"allOf", "anyOf", "oneOf"} {
		for _, branch := range schemautil.Slice(schema, key) {
			if b, ok := branch.(map[string]any); ok {
				filter(b, flag)
			}
		}
	}
}

func dropRequired(schema map[string]any, hidden map[string]bool) {
	required := schemautil.Strings(schema, "required")
	if required == nil {
		return
	}
	kept := make([]string, 0, len(required))
	for _, name := range required {
		if !hidden[name] {
			kept = append(kept, name)
		}
	}
	if len(kept) == 0 {
		delete(schema, "required")
		return
	}
	schema["required"] = schemautil.ToAnySlice(kept)
}
