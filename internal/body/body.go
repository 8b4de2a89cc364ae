// Package body resolves the body schemas of requests and responses.
//
// OpenAPI 2 declares a request body either as one "in: body" parameter or
// as a set of "in: formData" fields; OpenAPI 3 declares one schema per
// media type. Every resolved Body keeps the schema as declared (with $ref
// intact) next to the dereferenced one, since discriminator resolution
// needs the reference names that dereferencing loses.
package body

import (
	"github.com/erraggy/schemabuilder/internal/params"
	"github.com/erraggy/schemabuilder/internal/schemautil"
)

// Body is one resolved request or response body schema.
type Body struct {
	// Schema is the dereferenced schema
	Schema map[string]any
	// Referenced is the schema as declared, nil when not known
	Referenced map[string]any
}

// Polymorphic reports whether the body schema carries a discriminator.
func (b Body) Polymorphic() bool {
	_, ok := b.Schema["discriminator"]
	return ok
}

// Ref returns the $ref the schema was declared with, or "".
func (b Body) Ref() string {
	return schemautil.String(b.Referenced, "$ref")
}

// FromParameters resolves the body of an OpenAPI 2 operation from its
// parameters. referenced holds the same parameters as declared and refDoc
// the document they live in. A body parameter wins over form fields; form
// fields are only synthesized into a body when formFields is set. The
// second result is false when the operation has no body.
func FromParameters(declared, referenced []any, refDoc map[string]any, formFields bool) (Body, bool) {
	if len(referenced) != len(declared) {
		referenced = nil
	}

	var (
		properties = map[string]any{}
		required   []string
	)
	for i, item := range declared {
		param, ok := item.(map[string]any)
		if !ok {
			continue
		}
		switch schemautil.String(param, "in") {
		case "body":
			out := Body{Schema: schemautil.Map(param, "schema")}
			if referenced != nil {
				if refParam, isMap := referenced[i].(map[string]any); isMap {
					if resolved, err := schemautil.Deref(refDoc, refParam); err == nil {
						out.Referenced = schemautil.Map(resolved, "schema")
					}
				}
			}
			if out.Schema == nil {
				out.Schema = map[string]any{}
			}
			return out, true
		case "formData":
			if schemautil.String(param, "type") == "file" {
				continue
			}
			name := schemautil.String(param, "name")
			properties[name] = params.ParameterSchema(param, false)
			if schemautil.Bool(param, "required") {
				required = append(required, name)
			}
		}
	}

	if !formFields || len(properties) == 0 {
		return Body{}, false
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = schemautil.ToAnySlice(required)
	}
	return Body{Schema: schema}, true
}

// FromSchema resolves a body declared by a "schema" field, as OpenAPI 2
// responses do. The second result is false when there is no schema.
func FromSchema(declared, referenced map[string]any) (Body, bool) {
	schema := schemautil.Map(declared, "schema")
	if schema == nil {
		return Body{}, false
	}
	return Body{Schema: schema, Referenced: schemautil.Map(referenced, "schema")}, true
}

// FromContent resolves an OpenAPI 3 content map (media type to media type
// object) into one Body per media type with a schema. Keys are kept as
// declared.
func FromContent(content, referenced map[string]any) map[string]Body {
	out := make(map[string]Body, len(content))
	for mediaType, item := range content {
		media, ok := item.(map[string]any)
		if !ok {
			continue
		}
		schema := schemautil.Map(media, "schema")
		if schema == nil {
			continue
		}
		out[mediaType] = Body{
			Schema:     schema,
			Referenced: schemautil.Map(schemautil.Map(referenced, mediaType), "schema"),
		}
	}
	return out
}
