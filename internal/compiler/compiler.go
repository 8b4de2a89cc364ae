// Package compiler turns schema fragments into validators.CompiledCheck
// functions using github.com/santhosh-tekuri/jsonschema/v6 and reports
// failures as validators.ValidationError values.
package compiler

import (
	"sort"
	"strconv"
	"strings"

	"github.com/erraggy/schemabuilder/internal/schemautil"
	"github.com/erraggy/schemabuilder/oaserrors"
	"github.com/erraggy/schemabuilder/validators"
	"github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DocumentResource is the resource name that schemas with residual
// (circular) references point into.
const DocumentResource = "openapi.json"

const schemaResource = "schema.json"

// Config configures one schema compiler.
type Config struct {
	// Draft is the JSON Schema dialect schemas are written in
	Draft *jsonschema.Draft
	// AssertFormat enables format assertions for every draft
	AssertFormat bool
	// AssertContent enables contentEncoding and contentMediaType assertions
	AssertContent bool
	// Formats are registered in addition to the compiler's built-ins
	Formats []*jsonschema.Format
	// Vocabularies are custom keyword sets; registering any enables them
	Vocabularies []*jsonschema.Vocabulary
	// Language selects the message catalog for fallback messages
	Language language.Tag
}

// Compiler compiles schema fragments. A Compiler is used by one build and
// is not safe for concurrent use; the checks it returns are.
type Compiler struct {
	cfg       Config
	printer   *message.Printer
	resources map[string]any
}

// New returns a compiler for cfg.
func New(cfg Config) *Compiler {
	if cfg.Draft == nil {
		cfg.Draft = jsonschema.Draft4
	}
	if cfg.Language == language.Und {
		cfg.Language = language.English
	}
	return &Compiler{
		cfg:       cfg,
		printer:   message.NewPrinter(cfg.Language),
		resources: make(map[string]any),
	}
}

// AddResource registers a document that compiled schemas may reference by
// name, e.g. "openapi.json#/components/schemas/Node".
func (c *Compiler) AddResource(name string, doc any) {
	c.resources[name] = doc
}

// Compile compiles schema. location names the schema in errors.
func (c *Compiler) Compile(location string, schema map[string]any) (validators.CompiledCheck, error) {
	jc := jsonschema.NewCompiler()
	jc.DefaultDraft(c.cfg.Draft)
	if c.cfg.AssertFormat {
		jc.AssertFormat()
	}
	if c.cfg.AssertContent {
		jc.AssertContent()
	}
	for _, f := range c.cfg.Formats {
		jc.RegisterFormat(f)
	}
	for _, v := range c.cfg.Vocabularies {
		jc.RegisterVocabulary(v)
	}
	if len(c.cfg.Vocabularies) > 0 {
		jc.AssertVocabs()
	}

	names := make([]string, 0, len(c.resources))
	for name := range c.resources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := jc.AddResource(name, c.resources[name]); err != nil {
			return nil, &oaserrors.SchemaError{Path: location, Message: "failed to register " + name, Cause: err}
		}
	}
	if err := jc.AddResource(schemaResource, schema); err != nil {
		return nil, &oaserrors.SchemaError{Path: location, Message: "failed to register schema", Cause: err}
	}
	compiled, err := jc.Compile(schemaResource)
	if err != nil {
		return nil, &oaserrors.SchemaError{Path: location, Message: "failed to compile schema", Cause: err}
	}

	return func(data any) []validators.ValidationError {
		value := toJSONValue(data)
		err := compiled.Validate(value)
		if err == nil {
			return nil
		}
		verr, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return []validators.ValidationError{{
				Keyword:    "schema",
				Message:    err.Error(),
				Params:     map[string]any{},
				SchemaPath: "#",
			}}
		}
		return c.convert(value, verr)
	}, nil
}

// toJSONValue returns data in the shapes the schema validator accepts.
// Go structs and other non-JSON values are round-tripped through JSON.
func toJSONValue(data any) any {
	switch v := data.(type) {
	case nil, bool, string, float64, json.Number:
		return v
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = toJSONValue(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = toJSONValue(item)
		}
		return out
	case []string:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = item
		}
		return out
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, map[any]any:
		return schemautil.Normalize(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return v
		}
		var out any
		if err := json.Unmarshal(raw, &out); err != nil {
			return v
		}
		return out
	}
}

// schemaPath builds "#/<fragment>/<keyword path>" for an error reported by
// the schema at schemaURL.
func schemaPath(schemaURL string, keywordPath []string) string {
	_, fragment, _ := strings.Cut(schemaURL, "#")
	fragment = strings.TrimSuffix(fragment, "/")
	path := "#" + fragment
	for _, tok := range keywordPath {
		path += "/" + schemautil.EscapeToken(tok)
	}
	return path
}

// dataPath renders an instance location in dot/bracket notation,
// consulting data to tell array indexes from property names.
func dataPath(data any, location []string) string {
	var sb strings.Builder
	current := data
	for _, tok := range location {
		switch v := current.(type) {
		case []any:
			if idx, err := strconv.Atoi(tok); err == nil && idx >= 0 && idx < len(v) {
				sb.WriteString(validators.IndexPath(idx))
				current = v[idx]
				continue
			}
			sb.WriteString(validators.PropertyPath(tok))
			current = nil
		case map[string]any:
			sb.WriteString(validators.PropertyPath(tok))
			current = v[tok]
		default:
			sb.WriteString(validators.PropertyPath(tok))
			current = nil
		}
	}
	return sb.String()
}
