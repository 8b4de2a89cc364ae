package schemautil

import "github.com/samber/lo"

// Constraints are the object constraints a discriminator chain accumulates
// while descending from the root schema to a concrete subtype.
type Constraints struct {
	Required   []string
	Properties map[string]any
}

// Extend returns the constraints of c overlaid with those declared directly
// by schema. Required names keep first-seen order without duplicates;
// properties declared by schema replace inherited ones of the same name.
// c is not modified.
func (c Constraints) Extend(schema map[string]any) Constraints {
	out := Constraints{
		Required:   lo.Uniq(append(append([]string{}, c.Required...), Strings(schema, "required")...)),
		Properties: make(map[string]any, len(c.Properties)),
	}
	for name, prop := range c.Properties {
		out.Properties[name] = prop
	}
	for name, prop := range Map(schema, "properties") {
		out.Properties[name] = prop
	}
	return out
}

// ApplyTo returns a copy of schema carrying the accumulated constraints.
func (c Constraints) ApplyTo(schema map[string]any) map[string]any {
	out := CopyMap(schema)
	if out == nil {
		out = map[string]any{}
	}
	merged := c.Extend(schema)
	if len(merged.Required) > 0 {
		out["required"] = ToAnySlice(merged.Required)
	}
	if len(merged.Properties) > 0 {
		props := make(map[string]any, len(merged.Properties))
		for name, prop := range merged.Properties {
			props[name] = DeepCopy(prop)
		}
		out["properties"] = props
	}
	return out
}
