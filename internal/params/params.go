// Package params assembles the parameter schema of an operation and the
// runtime checks that JSON Schema cannot express on its own: uploaded file
// presence, the Content-Type allow-list and coercion of the string values
// HTTP carries into the declared parameter types.
//
// An assembled request parameter schema has the shape
//
//	{
//	  "type": "object",
//	  "properties": {
//	    "headers": {"type": "object", "properties": {...}, "additionalProperties": true, "content": [...]},
//	    "path":    {"type": "object", "properties": {...}, "additionalProperties": false},
//	    "query":   {"type": "object", "properties": {...}, "additionalProperties": true}
//	  }
//	}
//
// and is validated against data of the same shape plus a "files" entry
// listing the names of uploaded file fields.
package params

import (
	"fmt"
	"sort"
	"strings"

	"github.com/erraggy/schemabuilder/internal/contenttype"
	"github.com/erraggy/schemabuilder/internal/schemautil"
	"github.com/erraggy/schemabuilder/loader"
	"github.com/erraggy/schemabuilder/oaserrors"
)

// Sections of the request parameter data.
const (
	Headers = "headers"
	Path    = "path"
	Query   = "query"
	Files   = "files"
)

// swagger2Keys are the parameter fields of OpenAPI 2 that are also JSON
// Schema keywords.
var swagger2Keys = []string{
	"type", "format", "items", "enum", "default",
	"minimum", "maximum", "exclusiveMinimum", "exclusiveMaximum", "multipleOf",
	"minLength", "maxLength", "pattern",
	"minItems", "maxItems", "uniqueItems",
	"x-nullable",
}

// FileFields lists the file upload fields an operation declares.
type FileFields struct {
	Required []string
	Optional []string
}

// Declared reports whether any file field is declared.
func (f FileFields) Declared() bool {
	return len(f.Required)+len(f.Optional) > 0
}

// Options configures assembly.
type Options struct {
	// OAS3 selects OpenAPI 3 parameter objects (schema/content, style/explode)
	OAS3 bool
	// ContentTypes is the enforced Content-Type allow-list, nil for none
	ContentTypes []string
	// Logger receives skipped parameters; nil discards
	Logger loader.Logger
}

func (o Options) logger() loader.Logger {
	if o.Logger == nil {
		return loader.NopLogger{}
	}
	return o.Logger
}

// Set is an assembled parameter schema together with what its runtime
// wrapper needs. A Set for response headers is flat: its data is the
// header map itself.
type Set struct {
	// Schema is the JSON Schema handed to the compiler
	Schema map[string]any
	// Files are the declared file upload fields
	Files FileFields
	// ContentTypes is the Content-Type allow-list, nil when not enforced
	ContentTypes []string

	flat   bool
	fields map[string]map[string]field
}

type section struct {
	properties map[string]any
	required   []string
}

func (s *section) add(name string, schema map[string]any, required bool) {
	s.properties[name] = schema
	if required {
		s.required = append(s.required, name)
	}
}

func (s *section) schema(additional bool) map[string]any {
	out := map[string]any{
		"type":                 "object",
		"properties":           s.properties,
		"additionalProperties": additional,
	}
	if len(s.required) > 0 {
		out["required"] = schemautil.ToAnySlice(s.required)
	}
	return out
}

// Assemble builds the parameter Set of one operation. declared holds the
// operation's parameters followed by those of its path item. location
// names the operation in errors and logs.
func Assemble(location string, declared []any, opts Options) (*Set, error) {
	log := opts.logger()
	sections := map[string]*section{
		Headers: {properties: map[string]any{}},
		Path:    {properties: map[string]any{}},
		Query:   {properties: map[string]any{}},
	}
	set := &Set{
		ContentTypes: opts.ContentTypes,
		fields:       map[string]map[string]field{Headers: {}, Path: {}, Query: {}},
	}

	for i, item := range declared {
		param, ok := item.(map[string]any)
		if !ok {
			return nil, &oaserrors.SchemaError{
				Path:    fmt.Sprintf("%s.parameters[%d]", location, i),
				Message: fmt.Sprintf("parameter must be an object, got %T", item),
			}
		}
		name := schemautil.String(param, "name")
		in := schemautil.String(param, "in")
		if name == "" || in == "" {
			return nil, &oaserrors.SchemaError{
				Path:    fmt.Sprintf("%s.parameters[%d]", location, i),
				Message: "parameter must declare both name and in",
			}
		}
		required := schemautil.Bool(param, "required")

		switch in {
		case "body":
			continue
		case "formData":
			if schemautil.String(param, "type") == "file" {
				if required {
					set.Files.Required = append(set.Files.Required, name)
				} else {
					set.Files.Optional = append(set.Files.Optional, name)
				}
			}
			continue
		case "cookie":
			log.Debug("skipping cookie parameter", "operation", location, "name", name)
			continue
		case "header":
			name = strings.ToLower(name)
			in = Headers
		case "path", "query":
		default:
			log.Warn("skipping parameter with unknown location", "operation", location, "name", name, "in", in)
			continue
		}

		f := newField(name, in, param, opts.OAS3)
		sections[in].add(name, f.schema, required)
		set.fields[in][name] = f
	}

	headers := sections[Headers].schema(true)
	if len(opts.ContentTypes) > 0 {
		headers["content"] = schemautil.ToAnySlice(opts.ContentTypes)
	}
	root := map[string]any{
		"type": "object",
		"properties": map[string]any{
			Headers: headers,
			Path:    sections[Path].schema(false),
			Query:   sections[Query].schema(true),
		},
	}
	var rootRequired []string
	for _, name := range []string{Headers, Path, Query} {
		if len(sections[name].required) > 0 {
			rootRequired = append(rootRequired, name)
		}
	}
	if len(rootRequired) > 0 {
		root["required"] = schemautil.ToAnySlice(rootRequired)
	}
	set.Schema = root
	return set, nil
}

// AssembleHeaders builds the flat header Set of one response from its
// declared headers (name to header object). Header names are lower-cased.
func AssembleHeaders(location string, declared map[string]any, opts Options) (*Set, error) {
	sec := &section{properties: map[string]any{}}
	set := &Set{
		ContentTypes: opts.ContentTypes,
		flat:         true,
		fields:       map[string]map[string]field{"": {}},
	}

	names := make([]string, 0, len(declared))
	for name := range declared {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		header, ok := declared[name].(map[string]any)
		if !ok {
			return nil, &oaserrors.SchemaError{
				Path:    location + ".headers." + name,
				Message: fmt.Sprintf("header must be an object, got %T", declared[name]),
			}
		}
		lower := strings.ToLower(name)
		f := newField(lower, Headers, header, opts.OAS3)
		sec.add(lower, f.schema, opts.OAS3 && schemautil.Bool(header, "required"))
		set.fields[""][lower] = f
	}

	schema := sec.schema(true)
	if len(opts.ContentTypes) > 0 {
		schema["content"] = schemautil.ToAnySlice(opts.ContentTypes)
	}
	set.Schema = schema
	return set, nil
}

// ParameterSchema extracts the JSON Schema of a parameter or header object.
// OpenAPI 2 objects contribute their schema keywords; OpenAPI 3 objects
// their schema, or the schema of their first media type in sorted order.
func ParameterSchema(param map[string]any, oas3 bool) map[string]any {
	if !oas3 {
		out := make(map[string]any)
		for _, key := range swagger2Keys {
			if v, ok := param[key]; ok {
				out[key] = schemautil.DeepCopy(v)
			}
		}
		return out
	}
	if schema := schemautil.Map(param, "schema"); schema != nil {
		return schemautil.CopyMap(schema)
	}
	content := schemautil.Map(param, "content")
	if keys := contenttype.Keys(content); len(keys) > 0 {
		if schema := schemautil.Map(schemautil.Map(content, keys[0]), "schema"); schema != nil {
			return schemautil.CopyMap(schema)
		}
	}
	return map[string]any{}
}
