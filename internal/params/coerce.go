package params

import (
	"math"
	"strconv"
	"strings"

	"github.com/erraggy/schemabuilder/internal/schemautil"
)

// field is one declared parameter and the way its values are serialized.
type field struct {
	name   string
	schema map[string]any
	// delim separates array elements inside one value; "" means elements
	// arrive as repeated values and a single value is one element
	delim   string
	style   string
	explode bool
}

func newField(name, in string, param map[string]any, oas3 bool) field {
	f := field{name: name, schema: ParameterSchema(param, oas3)}
	if !oas3 {
		switch schemautil.String(param, "collectionFormat") {
		case "ssv":
			f.delim = " "
		case "tsv":
			f.delim = "\t"
		case "pipes":
			f.delim = "|"
		case "multi":
			f.delim = ""
		default:
			f.delim = ","
		}
		return f
	}

	f.style = schemautil.String(param, "style")
	if f.style == "" {
		if in == Query {
			f.style = "form"
		} else {
			f.style = "simple"
		}
	}
	if explode, ok := param["explode"].(bool); ok {
		f.explode = explode
	} else {
		f.explode = f.style == "form"
	}

	switch f.style {
	case "form":
		if !f.explode {
			f.delim = ","
		}
	case "spaceDelimited":
		f.delim = " "
	case "pipeDelimited":
		f.delim = "|"
	case "label":
		f.delim = ","
		if f.explode {
			f.delim = "."
		}
	case "deepObject":
	default:
		f.delim = ","
	}
	return f
}

// trim removes the prefix label and matrix styles put in front of a value.
func (f field) trim(value string) string {
	switch f.style {
	case "label":
		return strings.TrimPrefix(value, ".")
	case "matrix":
		value = strings.TrimPrefix(value, ";")
		return strings.TrimPrefix(value, f.name+"=")
	}
	return value
}

// split breaks one serialized array value into its elements.
func (f field) split(value string) []string {
	if f.style == "matrix" && f.explode {
		parts := strings.Split(strings.TrimPrefix(value, ";"), ";")
		for i, part := range parts {
			parts[i] = strings.TrimPrefix(part, f.name+"=")
		}
		return parts
	}
	value = f.trim(value)
	if f.delim == "" {
		return []string{value}
	}
	return strings.Split(value, f.delim)
}

// coerce converts the string form of a parameter value into the declared
// type. Values that do not parse are returned unchanged so the schema check
// reports them.
func (f field) coerce(v any) any {
	values, isList := stringValues(v)
	if values == nil {
		return v
	}

	if primaryType(f.schema) == "array" {
		parts := values
		if !isList || (len(values) == 1 && f.delim != "") {
			parts = f.split(values[0])
		}
		items := schemautil.Map(f.schema, "items")
		out := make([]any, len(parts))
		for i, part := range parts {
			out[i] = coerceScalar(part, items)
		}
		return out
	}

	if len(values) != 1 {
		return v
	}
	return coerceScalar(f.trim(values[0]), f.schema)
}

// stringValues returns the strings held by v and whether v was a list.
// Non-string values yield nil.
func stringValues(v any) ([]string, bool) {
	switch t := v.(type) {
	case string:
		return []string{t}, false
	case []string:
		if t == nil {
			return []string{}, true
		}
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

func coerceScalar(value string, schema map[string]any) any {
	switch primaryType(schema) {
	case "integer":
		if n, err := strconv.ParseFloat(value, 64); err == nil && schemautil.IsIntegral(n) {
			return n
		}
	case "number":
		if n, err := strconv.ParseFloat(value, 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
			return n
		}
	case "boolean":
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return value
}

// primaryType returns the first declared type other than "null".
func primaryType(schema map[string]any) string {
	for _, t := range schemautil.Types(schema) {
		if t != "null" {
			return t
		}
	}
	return ""
}
