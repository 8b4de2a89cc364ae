// Package discriminator resolves polymorphic schemas into discriminator
// decision trees.
//
// A schema with a discriminator is abstract: the value of one property
// names the concrete subtype the data must match. In OpenAPI 3 the
// subtypes are the $refs listed in oneOf and may themselves carry a
// discriminator, which gives a tree of any depth. In OpenAPI 2 the
// subtypes are the definitions whose allOf references the discriminated
// definition, one level only.
//
// Each leaf of the tree is the compiled check of one concrete subtype,
// with the required properties and property schemas of every ancestor
// level merged into it.
package discriminator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/erraggy/schemabuilder/internal/pathutil"
	"github.com/erraggy/schemabuilder/internal/schemautil"
	"github.com/erraggy/schemabuilder/loader"
	"github.com/erraggy/schemabuilder/oaserrors"
	"github.com/erraggy/schemabuilder/validators"
	"github.com/samber/lo"
)

// MaxDepth is the deepest discriminator chain that compiles. Deeper chains
// are almost always cyclic.
const MaxDepth = 20

// CompileFunc compiles one prepared subtype schema. location names the
// schema in errors.
type CompileFunc func(location string, schema map[string]any) (validators.CompiledCheck, error)

// Resolver builds discriminator trees for one document.
type Resolver struct {
	// Document is the dereferenced document
	Document map[string]any
	// Referenced is the document as written, with $ref intact
	Referenced map[string]any
	// Compile compiles the schema of each concrete subtype
	Compile CompileFunc
	// Logger receives skipped subtypes; nil discards
	Logger loader.Logger
}

func (r *Resolver) logger() loader.Logger {
	if r.Logger == nil {
		return loader.NopLogger{}
	}
	return r.Logger
}

// level is one schema of the chain in both of its forms.
type level struct {
	ref        string
	schema     map[string]any
	referenced map[string]any
}

// Resolve builds the OpenAPI 3 tree for a schema carrying a discriminator.
// schema is the dereferenced schema and referenced the schema as declared
// (a $ref or an inline schema whose oneOf lists $refs).
func (r *Resolver) Resolve(location string, schema, referenced map[string]any) (*validators.DiscriminatorNode, error) {
	root, err := r.levelFor(location, schema, referenced)
	if err != nil {
		return nil, err
	}
	node, err := r.resolveNode(location, root, schemautil.Constraints{}, 1)
	if err != nil {
		return nil, err
	}
	r.logger().Debug("resolved discriminator", "location", location, "field", node.Field, "depth", node.Depth())
	return node, nil
}

func (r *Resolver) levelFor(location string, schema, referenced map[string]any) (level, error) {
	lv := level{schema: schema, referenced: referenced}
	if referenced == nil {
		lv.referenced = schema
		return lv, nil
	}
	ref := schemautil.String(referenced, "$ref")
	if ref == "" {
		return lv, nil
	}
	resolved, err := schemautil.Deref(r.Referenced, referenced)
	if err != nil {
		return level{}, &oaserrors.SchemaError{Path: location, Ref: ref, Message: "cannot resolve discriminator schema", Cause: err}
	}
	lv.ref = ref
	lv.referenced = resolved
	return lv, nil
}

// subtype returns the level a oneOf $ref points to.
func (r *Resolver) subtype(location, ref string) (level, error) {
	referenced, err := schemautil.LookupMap(r.Referenced, ref)
	if err == nil {
		referenced, err = schemautil.Deref(r.Referenced, referenced)
	}
	if err != nil {
		return level{}, &oaserrors.SchemaError{Path: location, Ref: ref, Message: "cannot resolve subtype", Cause: err}
	}
	schema, err := schemautil.LookupMap(r.Document, ref)
	if err != nil {
		return level{}, &oaserrors.SchemaError{Path: location, Ref: ref, Message: "cannot resolve subtype", Cause: err}
	}
	return level{ref: ref, schema: schema, referenced: referenced}, nil
}

func (r *Resolver) resolveNode(location string, lv level, inherited schemautil.Constraints, depth int) (*validators.DiscriminatorNode, error) {
	if depth > MaxDepth {
		return nil, &oaserrors.ResourceLimitError{
			ResourceType: oaserrors.ResourceDiscriminatorDepth,
			Limit:        MaxDepth,
			Actual:       int64(depth),
			Message:      fmt.Sprintf("discriminator chain at %s is too deep (cyclic schema?)", location),
		}
	}

	field := propertyName(lv.referenced)
	if field == "" {
		return nil, &oaserrors.SchemaError{Path: location, Ref: lv.ref, Message: "discriminator must name a property"}
	}
	variants := schemautil.Slice(lv.referenced, "oneOf")
	if len(variants) == 0 {
		return nil, &oaserrors.SchemaError{Path: location, Ref: lv.ref, Message: "oneOf must be part of discriminator"}
	}

	mapping := schemautil.Map(schemautil.Map(lv.referenced, "discriminator"), "mapping")
	constraints := inherited.Extend(lv.schema)
	node := &validators.DiscriminatorNode{
		Field:    field,
		Branches: make(map[string]validators.Branch),
	}

	for i, variant := range variants {
		entry, _ := variant.(map[string]any)
		ref := schemautil.String(entry, "$ref")
		if ref == "" {
			r.logger().Warn("skipping oneOf entry without $ref", "location", location, "index", i)
			continue
		}
		child, err := r.subtype(location, ref)
		if err != nil {
			return nil, err
		}
		childLocation := location + "/" + schemautil.RefName(ref)

		var target validators.Branch
		if hasDiscriminator(child.referenced) {
			sub, err := r.resolveNode(childLocation, child, constraints, depth+1)
			if err != nil {
				return nil, err
			}
			target = sub
		} else {
			check, err := r.Compile(childLocation, constraints.ApplyTo(stripAncestors(r.Document, child.schema)))
			if err != nil {
				return nil, err
			}
			target = validators.Terminal{Check: check}
		}

		for _, label := range labels(mapping, ref) {
			if _, exists := node.Branches[label]; exists {
				continue
			}
			node.AllowedValues = append(node.AllowedValues, label)
			node.Branches[label] = target
		}
	}

	if len(node.Branches) == 0 {
		return nil, &oaserrors.SchemaError{Path: location, Ref: lv.ref, Message: "discriminator has no resolvable oneOf subtypes"}
	}
	return node, nil
}

// labels returns the discriminator values selecting ref: the mapping keys
// whose value is ref or its bare schema name, sorted, or else the name
// itself.
func labels(mapping map[string]any, ref string) []string {
	name := schemautil.RefName(ref)
	var out []string
	for key, value := range mapping {
		if target, ok := value.(string); ok && (target == ref || target == name) {
			out = append(out, key)
		}
	}
	if len(out) == 0 {
		return []string{name}
	}
	sort.Strings(out)
	return out
}

// propertyName reads the discriminator property of an OpenAPI 3
// discriminator object or an OpenAPI 2 discriminator string.
func propertyName(schema map[string]any) string {
	switch d := schema["discriminator"].(type) {
	case map[string]any:
		return schemautil.String(d, "propertyName")
	case string:
		return d
	}
	return ""
}

func hasDiscriminator(schema map[string]any) bool {
	_, ok := schema["discriminator"]
	return ok
}

// stripAncestors returns a copy of a concrete subtype schema whose allOf
// members no longer carry discriminator or oneOf. Subtypes usually inherit
// from the abstract schema through allOf, and compiling its oneOf again
// would validate the data against every sibling subtype. Members that are
// still $refs (cycles the dereferencer kept) are replaced by their stripped
// targets in the dereferenced document.
func stripAncestors(doc, schema map[string]any) map[string]any {
	out := schemautil.CopyMap(schema)
	stripAllOf(doc, out, 0)
	return out
}

func stripAllOf(doc, schema map[string]any, depth int) {
	if depth > MaxDepth {
		return
	}
	members := schemautil.Slice(schema, "allOf")
	for i, item := range members {
		member, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if ref := schemautil.String(member, "$ref"); ref != "" && strings.HasPrefix(ref, "#") {
			target, err := schemautil.LookupMap(doc, ref)
			if err != nil || !hasDiscriminator(target) {
				continue
			}
			member = schemautil.CopyMap(target)
			members[i] = member
		}
		if hasDiscriminator(member) {
			delete(member, "discriminator")
			delete(member, "oneOf")
		}
		stripAllOf(doc, member, depth+1)
	}
}

// ResolveSwagger2 builds the one-level OpenAPI 2 tree for the definition
// named by ref. The subtypes are the definitions whose allOf references
// it, labelled with their definition names in sorted order.
func (r *Resolver) ResolveSwagger2(location, ref string) (*validators.DiscriminatorNode, error) {
	base, err := schemautil.LookupMap(r.Referenced, ref)
	if err != nil {
		return nil, &oaserrors.SchemaError{Path: location, Ref: ref, Message: "cannot resolve discriminator schema", Cause: err}
	}
	field := propertyName(base)
	if field == "" {
		return nil, &oaserrors.SchemaError{Path: location, Ref: ref, Message: "discriminator must name a property"}
	}

	definitions := schemautil.Map(r.Referenced, "definitions")
	var names []string
	for name, def := range definitions {
		d, ok := def.(map[string]any)
		if !ok {
			continue
		}
		if lo.ContainsBy(schemautil.Slice(d, "allOf"), func(member any) bool {
			m, _ := member.(map[string]any)
			return schemautil.String(m, "$ref") == ref
		}) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, &oaserrors.SchemaError{Path: location, Ref: ref, Message: "no definition extends the discriminated schema"}
	}
	sort.Strings(names)

	node := &validators.DiscriminatorNode{
		Field:         field,
		AllowedValues: names,
		Branches:      make(map[string]validators.Branch, len(names)),
	}
	for _, name := range names {
		defRef := pathutil.DefinitionRef(name)
		schema, err := schemautil.LookupMap(r.Document, defRef)
		if err != nil {
			return nil, &oaserrors.SchemaError{Path: location, Ref: defRef, Message: "cannot resolve subtype", Cause: err}
		}
		check, err := r.Compile(location+"/"+name, schemautil.CopyMap(schema))
		if err != nil {
			return nil, err
		}
		node.Branches[name] = validators.Terminal{Check: check}
	}
	r.logger().Debug("resolved discriminator", "location", location, "field", field, "subtypes", len(names))
	return node, nil
}
