package schemautil

// NullableOptions controls how ApplyNullable rewrites a schema tree.
type NullableOptions struct {
	// OptionalAsNullable marks every property that is not listed in its
	// parent's required array as nullable.
	OptionalAsNullable bool
}

// ApplyNullable rewrites the nullable extensions of OpenAPI ("nullable" in
// 3.0 and "x-nullable" in 2.0) into plain JSON Schema: the "null" type is
// added to the type list and null to any enum. Swagger's "type: file" is
// dropped since it has no JSON Schema equivalent, as are empty required
// arrays, which draft 4 rejects. The tree is modified in place; callers pass
// a copy.
func ApplyNullable(v any, opts NullableOptions) {
	schema, ok := v.(map[string]any)
	if !ok {
		if items, isList := v.([]any); isList {
			for _, item := range items {
				ApplyNullable(item, opts)
			}
		}
		return
	}

	if String(schema, "type") == "file" {
		delete(schema, "type")
	}
	if req, isList := schema["required"].([]any); isList && len(req) == 0 {
		delete(schema, "required")
	}

	props := Map(schema, "properties")
	if opts.OptionalAsNullable && props != nil {
		required := make(map[string]bool)
		for _, name := range Strings(schema, "required") {
			required[name] = true
		}
		for name, prop := range props {
			if p, isMap := prop.(map[string]any); isMap && !required[name] {
				if _, isRef := p["$ref"]; !isRef {
					p["nullable"] = true
				}
			}
		}
	}

	if Bool(schema, "nullable") || Bool(schema, "x-nullable") {
		makeNullable(schema)
	}

	for _, prop := range props {
		ApplyNullable(prop, opts)
	}
	for _, key := range []string{"items", "additionalProperties", "not"} {
		if sub, exists := schema[key]; exists {
			ApplyNullable(sub, opts)
		}
	}
	for _, key := range []string{"allOf", "anyOf", "oneOf"} {
		ApplyNullable(schema[key], opts)
	}
	for _, sub := range Map(schema, "patternProperties") {
		ApplyNullable(sub, opts)
	}
}

func makeNullable(schema map[string]any) {
	delete(schema, "nullable")
	delete(schema, "x-nullable")

	types := Types(schema)
	if len(types) > 0 && !HasType(schema, "null") {
		schema["type"] = ToAnySlice(append(types, "null"))
	}

	if enum, ok := schema["enum"].([]any); ok {
		for _, item := range enum {
			if item == nil {
				return
			}
		}
		schema["enum"] = append(enum, nil)
	}
}
