package apischema

import (
	"context"
	"fmt"
	"sort"

	"github.com/erraggy/schemabuilder/internal/compiler"
	"github.com/erraggy/schemabuilder/internal/discriminator"
	"github.com/erraggy/schemabuilder/internal/formats"
	"github.com/erraggy/schemabuilder/internal/httputil"
	"github.com/erraggy/schemabuilder/internal/pathutil"
	"github.com/erraggy/schemabuilder/internal/schemautil"
	"github.com/erraggy/schemabuilder/loader"
	"github.com/erraggy/schemabuilder/oaserrors"
	"github.com/erraggy/schemabuilder/validators"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// BuildSchema loads the document at source (a file path or an http(s)
// URL), dereferences it and compiles its validators.
//
// Example:
//
//	compiled, err := apischema.BuildSchema(ctx, "openapi.yaml",
//	    apischema.WithContentTypeValidation(true),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	op, _ := compiled.Lookup("/v1/pets/:petId", "get")
func BuildSchema(ctx context.Context, source string, opts ...Option) (*CompiledSchema, error) {
	if source == "" {
		return nil, fmt.Errorf("apischema: %w", &oaserrors.ConfigError{Option: "source", Message: "source is empty"})
	}
	cfg := defaultConfig()
	if err := cfg.apply(opts); err != nil {
		return nil, fmt.Errorf("apischema: %w", err)
	}
	doc, err := cfg.newLoader().Load(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("apischema: %w", err)
	}
	return compile(ctx, cfg, doc, cfg.validateDocument)
}

// BuildSchemaSync compiles a document given as a file path, a decoded
// map[string]any, or JSON/YAML bytes. OpenAPI 3.0 documents are always
// checked against the meta-schema first.
func BuildSchemaSync(source any, opts ...Option) (*CompiledSchema, error) {
	cfg := defaultConfig()
	if err := cfg.apply(opts); err != nil {
		return nil, fmt.Errorf("apischema: %w", err)
	}

	ctx := context.Background()
	l := cfg.newLoader()
	var (
		doc *loader.Document
		err error
	)
	switch s := source.(type) {
	case string:
		if s == "" {
			return nil, fmt.Errorf("apischema: %w", &oaserrors.ConfigError{Option: "source", Message: "source is empty"})
		}
		doc, err = l.Load(ctx, s)
	case map[string]any:
		doc, err = l.LoadMap(ctx, s)
	case []byte:
		doc, err = l.LoadBytes(ctx, s)
	default:
		return nil, fmt.Errorf("apischema: %w", &oaserrors.ConfigError{
			Option:  "source",
			Value:   fmt.Sprintf("%T", source),
			Message: "source must be a path, a map[string]any or []byte",
		})
	}
	if err != nil {
		return nil, fmt.Errorf("apischema: %w", err)
	}
	return compile(ctx, cfg, doc, true)
}

// BuildWithOptions compiles the document named by exactly one of
// WithFilePath, WithURL, WithDocument or WithBytes.
func BuildWithOptions(ctx context.Context, opts ...Option) (*CompiledSchema, error) {
	cfg := defaultConfig()
	if err := cfg.apply(opts); err != nil {
		return nil, fmt.Errorf("apischema: %w", err)
	}
	if cfg.sources == 0 {
		return nil, fmt.Errorf("apischema: %w", &oaserrors.ConfigError{
			Option:  "source",
			Message: "must specify a source (use WithFilePath, WithURL, WithDocument, or WithBytes)",
		})
	}
	if cfg.sources > 1 {
		return nil, fmt.Errorf("apischema: %w", &oaserrors.ConfigError{
			Option:  "source",
			Value:   cfg.sources,
			Message: "only one source may be specified",
		})
	}

	l := cfg.newLoader()
	var (
		doc *loader.Document
		err error
	)
	switch {
	case cfg.filePath != "":
		doc, err = l.Load(ctx, cfg.filePath)
	case cfg.url != "":
		doc, err = l.Load(ctx, cfg.url)
	case cfg.document != nil:
		doc, err = l.LoadMap(ctx, cfg.document)
	default:
		doc, err = l.LoadBytes(ctx, cfg.bytes)
	}
	if err != nil {
		return nil, fmt.Errorf("apischema: %w", err)
	}
	return compile(ctx, cfg, doc, cfg.validateDocument)
}

func (c *config) newLoader() *loader.Loader {
	l := loader.New()
	l.BaseDir = c.basePath
	l.Logger = c.logger
	if c.httpClient != nil {
		l.HTTPClient = c.httpClient
	}
	return l
}

// compile turns a loaded document into a CompiledSchema.
func compile(ctx context.Context, cfg *config, doc *loader.Document, validate bool) (*CompiledSchema, error) {
	log := cfg.logger.With("version", doc.VersionString)
	log.Debug("compiling document", "source", doc.SourcePath, "circular", doc.HasCircularRefs)

	if validate {
		if err := metaValidate(ctx, cfg, doc, log); err != nil {
			return nil, fmt.Errorf("apischema: %w", err)
		}
	}

	b, err := newBuilder(cfg, doc, log)
	if err != nil {
		return nil, fmt.Errorf("apischema: %w", err)
	}
	compiled, err := b.build(ctx)
	if err != nil {
		return nil, fmt.Errorf("apischema: %w", err)
	}
	log.Debug("compiled document", "operations", compiled.OperationCount())
	return compiled, nil
}

func metaValidate(ctx context.Context, cfg *config, doc *loader.Document, log Logger) error {
	if !doc.Version.IsOAS3() {
		return nil
	}
	if !cfg.metaValidator.Supports(doc.VersionString) {
		log.Debug("skipping document validation for unsupported version")
		return nil
	}
	return cfg.metaValidator.Validate(ctx, doc.Dereferenced, doc.VersionString)
}

// builder carries the state of one compilation.
type builder struct {
	cfg      *config
	doc      *loader.Document
	log      Logger
	oas3     bool
	body     *compiler.Compiler
	params   *compiler.Compiler
	resolver *discriminator.Resolver
}

func newBuilder(cfg *config, doc *loader.Document, log Logger) (*builder, error) {
	userFormats, err := formats.Compile(cfg.formats)
	if err != nil {
		return nil, err
	}
	all := append(formats.Builtin(), userFormats...)

	b := &builder{
		cfg:    cfg,
		doc:    doc,
		log:    log,
		oas3:   doc.Version.IsOAS3(),
		body:   compiler.New(cfg.compilerConfig(cfg.bodyCompiler, doc.Version, all)),
		params: compiler.New(cfg.compilerConfig(cfg.paramsCompiler, doc.Version, all)),
	}

	if resource := b.documentResource(); resource != nil {
		b.body.AddResource(compiler.DocumentResource, resource)
		b.params.AddResource(compiler.DocumentResource, resource)
	}

	b.resolver = &discriminator.Resolver{
		Document:   doc.Dereferenced,
		Referenced: doc.Referenced,
		Compile:    b.compileBody,
		Logger:     log,
	}
	return b, nil
}

func (c *config) compilerConfig(cc CompilerConfig, version loader.Version, all []*jsonschema.Format) compiler.Config {
	draft := cc.Draft
	if draft == nil {
		draft = jsonschema.Draft4
		if version == loader.Version31 {
			draft = jsonschema.Draft2020
		}
	}
	return compiler.Config{
		Draft:         draft,
		AssertFormat:  cc.AssertFormat,
		AssertContent: cc.AssertContent,
		Formats:       all,
		Vocabularies:  c.keywords,
		Language:      cc.Language,
	}
}

// documentResource returns the shared schemas of the document, prepared
// like every compiled fragment, for fragments whose circular $refs the
// dereferencer kept. Nil when there are none.
func (b *builder) documentResource() map[string]any {
	if !b.doc.HasCircularRefs {
		return nil
	}
	var resource map[string]any
	if b.oas3 {
		components := schemautil.Map(b.doc.Dereferenced, "components")
		if components == nil {
			return nil
		}
		resource = map[string]any{"components": schemautil.CopyMap(components)}
	} else {
		definitions := schemautil.Map(b.doc.Dereferenced, "definitions")
		if definitions == nil {
			return nil
		}
		resource = map[string]any{"definitions": schemautil.CopyMap(definitions)}
	}
	schemautil.ApplyNullable(resource, schemautil.NullableOptions{OptionalAsNullable: b.cfg.optionalAsNullable})
	schemautil.RewriteLocalRefs(resource, compiler.DocumentResource)
	return resource
}

// compileBody compiles a request or response body schema.
func (b *builder) compileBody(location string, schema map[string]any) (validators.CompiledCheck, error) {
	prepared := schemautil.CopyMap(schema)
	if prepared == nil {
		prepared = map[string]any{}
	}
	schemautil.ApplyNullable(prepared, schemautil.NullableOptions{OptionalAsNullable: b.cfg.optionalAsNullable})
	schemautil.RewriteLocalRefs(prepared, compiler.DocumentResource)
	return b.body.Compile(location, prepared)
}

// compileParams compiles an assembled parameter or header schema.
func (b *builder) compileParams(location string, schema map[string]any) (validators.CompiledCheck, error) {
	prepared := schemautil.CopyMap(schema)
	schemautil.ApplyNullable(prepared, schemautil.NullableOptions{})
	schemautil.RewriteLocalRefs(prepared, compiler.DocumentResource)
	return b.params.Compile(location, prepared)
}

// build walks every path and method of the document.
func (b *builder) build(ctx context.Context) (*CompiledSchema, error) {
	bases := pathutil.BasePaths(b.doc.Dereferenced, b.oas3)
	compiled := newCompiledSchema(b.doc.Version, bases)

	paths := schemautil.Map(b.doc.Dereferenced, "paths")
	refPaths := schemautil.Map(b.doc.Referenced, "paths")
	names := make([]string, 0, len(paths))
	for name := range paths {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item, ok := paths[name].(map[string]any)
		if !ok {
			continue
		}
		refItem, err := schemautil.Deref(b.doc.Referenced, schemautil.Map(refPaths, name))
		if err != nil {
			refItem = nil
		}
		ops, err := b.buildPathItem(name, item, refItem)
		if err != nil {
			return nil, err
		}
		template := pathutil.Template(name)
		for _, base := range bases {
			full := pathutil.Join(base, template)
			for _, method := range httputil.Methods {
				if op, exists := ops[method]; exists {
					compiled.add(full, method, op)
				}
			}
		}
	}
	return compiled, nil
}

func (b *builder) buildPathItem(path string, item, refItem map[string]any) (map[string]*Operation, error) {
	ops := make(map[string]*Operation)
	for _, method := range httputil.Methods {
		op := schemautil.Map(item, method)
		if op == nil {
			continue
		}
		e := endpoint{
			location:   fmt.Sprintf("%s %s", method, path),
			op:         op,
			refOp:      schemautil.Map(refItem, method),
			pathParams: schemautil.Slice(item, "parameters"),
			refParams:  schemautil.Slice(refItem, "parameters"),
		}

		operation := &Operation{}
		if b.cfg.buildRequests {
			if err := b.buildRequest(e, operation); err != nil {
				return nil, err
			}
		}
		if b.cfg.buildResponses {
			responses, err := b.buildResponses(e)
			if err != nil {
				return nil, err
			}
			operation.Responses = responses
		}
		b.log.Debug("compiled operation", "operation", e.location)
		ops[method] = operation
	}
	return ops, nil
}

// endpoint is one operation in both document forms.
type endpoint struct {
	location   string
	op         map[string]any
	refOp      map[string]any
	pathParams []any
	refParams  []any
}

// parameters returns the operation's parameters followed by the path
// item's, in dereferenced and referenced form.
func (e endpoint) parameters() (declared, referenced []any) {
	declared = append(append(declared, schemautil.Slice(e.op, "parameters")...), e.pathParams...)
	referenced = append(append(referenced, schemautil.Slice(e.refOp, "parameters")...), e.refParams...)
	return declared, referenced
}
