package compiler

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/erraggy/schemabuilder/validators"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
)

// convert flattens a validation error tree into leaf errors in evaluation
// order. A failed oneOf or anyOf is reported after the failures of its
// branches.
func (c *Compiler) convert(data any, root *jsonschema.ValidationError) []validators.ValidationError {
	var out []validators.ValidationError
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		for _, cause := range e.Causes {
			walk(cause)
		}
		switch e.ErrorKind.(type) {
		case *kind.OneOf, *kind.AnyOf:
			out = append(out, c.leaf(data, e)...)
		default:
			if len(e.Causes) == 0 {
				out = append(out, c.leaf(data, e)...)
			}
		}
	}
	walk(root)
	return out
}

// leaf converts one error. A required failure naming several properties
// becomes one error per property.
func (c *Compiler) leaf(data any, e *jsonschema.ValidationError) []validators.ValidationError {
	keywordPath := e.ErrorKind.KeywordPath()
	base := validators.ValidationError{
		DataPath:   dataPath(data, e.InstanceLocation),
		Keyword:    keyword(keywordPath),
		SchemaPath: schemaPath(e.SchemaURL, keywordPath),
		Params:     map[string]any{},
	}

	switch k := e.ErrorKind.(type) {
	case *kind.Required:
		out := make([]validators.ValidationError, 0, len(k.Missing))
		for _, name := range k.Missing {
			ve := base
			ve.Message = "should have required property '" + name + "'"
			ve.Params = map[string]any{"missingProperty": name}
			out = append(out, ve)
		}
		return out
	case *kind.AdditionalProperties:
		out := make([]validators.ValidationError, 0, len(k.Properties))
		for _, name := range k.Properties {
			ve := base
			ve.Message = "should NOT have additional properties"
			ve.Params = map[string]any{"additionalProperty": name}
			out = append(out, ve)
		}
		return out
	case *kind.Enum:
		base.Message = "should be equal to one of the allowed values"
		base.Params["allowedValues"] = k.Want
	case *kind.Const:
		base.Message = "should be equal to constant"
		base.Params["allowedValue"] = k.Want
	case *kind.Type:
		base.Message = "should be " + strings.Join(k.Want, ",")
		base.Params["type"] = strings.Join(k.Want, ",")
	case *kind.Format:
		base.Message = fmt.Sprintf("should match format %q", k.Want)
		base.Params["format"] = k.Want
	case *kind.Pattern:
		base.Message = fmt.Sprintf("should match pattern %q", k.Want)
		base.Params["pattern"] = k.Want
	case *kind.MinLength:
		base.Message = fmt.Sprintf("should NOT be shorter than %d characters", k.Want)
		base.Params["limit"] = k.Want
	case *kind.MaxLength:
		base.Message = fmt.Sprintf("should NOT be longer than %d characters", k.Want)
		base.Params["limit"] = k.Want
	case *kind.MinItems:
		base.Message = fmt.Sprintf("should NOT have fewer than %d items", k.Want)
		base.Params["limit"] = k.Want
	case *kind.MaxItems:
		base.Message = fmt.Sprintf("should NOT have more than %d items", k.Want)
		base.Params["limit"] = k.Want
	case *kind.MinProperties:
		base.Message = fmt.Sprintf("should NOT have fewer than %d properties", k.Want)
		base.Params["limit"] = k.Want
	case *kind.MaxProperties:
		base.Message = fmt.Sprintf("should NOT have more than %d properties", k.Want)
		base.Params["limit"] = k.Want
	case *kind.Minimum:
		base.Message = "should be >= " + ratString(k.Want)
		base.Params["comparison"] = ">="
		base.Params["limit"] = ratFloat(k.Want)
	case *kind.Maximum:
		base.Message = "should be <= " + ratString(k.Want)
		base.Params["comparison"] = "<="
		base.Params["limit"] = ratFloat(k.Want)
	case *kind.ExclusiveMinimum:
		base.Message = "should be > " + ratString(k.Want)
		base.Params["comparison"] = ">"
		base.Params["limit"] = ratFloat(k.Want)
	case *kind.ExclusiveMaximum:
		base.Message = "should be < " + ratString(k.Want)
		base.Params["comparison"] = "<"
		base.Params["limit"] = ratFloat(k.Want)
	case *kind.MultipleOf:
		base.Message = "should be multiple of " + ratString(k.Want)
		base.Params["multipleOf"] = ratFloat(k.Want)
	case *kind.UniqueItems:
		base.Message = fmt.Sprintf("should NOT have duplicate items (items ## %d and %d are identical)", k.Duplicates[1], k.Duplicates[0])
		base.Params["i"] = k.Duplicates[1]
		base.Params["j"] = k.Duplicates[0]
	case *kind.OneOf:
		base.Message = "should match exactly one schema in oneOf"
		if len(k.Subschemas) > 0 {
			base.Params["passingSchemas"] = k.Subschemas
		}
	case *kind.AnyOf:
		base.Message = "should match some schema in anyOf"
	case *kind.Not:
		base.Message = "should NOT be valid"
	case *kind.FalseSchema:
		base.Message = "boolean schema is false"
	default:
		base.Message = e.ErrorKind.LocalizedString(c.printer)
	}
	return []validators.ValidationError{base}
}

func keyword(keywordPath []string) string {
	if len(keywordPath) == 0 {
		return "schema"
	}
	return keywordPath[0]
}

func ratString(r *big.Rat) string {
	if r == nil {
		return ""
	}
	if r.IsInt() {
		return r.Num().String()
	}
	f, _ := r.Float64()
	return fmt.Sprint(f)
}

func ratFloat(r *big.Rat) float64 {
	if r == nil {
		return 0
	}
	f, _ := r.Float64()
	return f
}
