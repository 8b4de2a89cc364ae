package apischema

import (
	"net/http"

	"github.com/erraggy/schemabuilder/internal/formats"
	"github.com/erraggy/schemabuilder/internal/metaschema"
	"github.com/erraggy/schemabuilder/loader"
	"github.com/erraggy/schemabuilder/oaserrors"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
)

// Logger is the structured logger compilation reports to. See
// loader.NewSlogAdapter for a log/slog backed implementation.
type Logger = loader.Logger

// Format is a user defined string format: values of a schema declaring
// "format: <Name>" must match Pattern.
type Format = formats.Format

// MetaValidator checks whole documents before compilation.
type MetaValidator = metaschema.Validator

// CompilerConfig is passed through to the JSON Schema compiler that turns
// schema fragments into checks. Body schemas and parameter schemas are
// compiled with separate configurations.
type CompilerConfig struct {
	// Draft overrides the dialect chosen from the document version
	// (draft 4 for OpenAPI 2.0 and 3.0, 2020-12 for 3.1)
	Draft *jsonschema.Draft
	// AssertFormat makes the format keyword an assertion. Default true.
	AssertFormat bool
	// AssertContent makes contentEncoding and contentMediaType assertions
	AssertContent bool
	// Language selects the catalog for compiler messages. Default English.
	Language language.Tag
}

// Option is a functional option for configuring a build.
type Option func(*config) error

// config holds the configuration of one build.
type config struct {
	// Document source (exactly one must be set for BuildWithOptions)
	filePath string
	url      string
	document map[string]any
	bytes    []byte
	sources  int

	buildRequests          bool
	buildResponses         bool
	formats                []Format
	contentTypeValidation  bool
	expectFormFieldsInBody bool
	optionalAsNullable     bool
	bodyCompiler           CompilerConfig
	paramsCompiler         CompilerConfig
	keywords               []*jsonschema.Vocabulary
	basePath               string
	validateDocument       bool

	logger        Logger
	httpClient    *http.Client
	metaValidator MetaValidator
}

// defaultConfig returns the default configuration.
func defaultConfig() *config {
	return &config{
		buildRequests:  true,
		buildResponses: true,
		bodyCompiler:   CompilerConfig{AssertFormat: true},
		paramsCompiler: CompilerConfig{AssertFormat: true},
		logger:         loader.NopLogger{},
		metaValidator:  metaschema.New(),
	}
}

func (c *config) apply(opts []Option) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// WithFilePath reads the document from a JSON or YAML file.
func WithFilePath(path string) Option {
	return func(c *config) error {
		if path == "" {
			return &oaserrors.ConfigError{Option: "WithFilePath", Message: "path is empty"}
		}
		c.filePath = path
		c.sources++
		return nil
	}
}

// WithURL fetches the document from an http(s) URL. Relative references
// in it are fetched relative to the URL.
func WithURL(url string) Option {
	return func(c *config) error {
		if url == "" {
			return &oaserrors.ConfigError{Option: "WithURL", Message: "url is empty"}
		}
		c.url = url
		c.sources++
		return nil
	}
}

// WithDocument uses an already decoded document. The map is not modified.
func WithDocument(doc map[string]any) Option {
	return func(c *config) error {
		if doc == nil {
			return &oaserrors.ConfigError{Option: "WithDocument", Message: "document is nil"}
		}
		c.document = doc
		c.sources++
		return nil
	}
}

// WithBytes parses the document from JSON or YAML bytes.
func WithBytes(data []byte) Option {
	return func(c *config) error {
		if len(data) == 0 {
			return &oaserrors.ConfigError{Option: "WithBytes", Message: "data is empty"}
		}
		c.bytes = data
		c.sources++
		return nil
	}
}

// WithBuildRequests sets whether parameter and request body validators
// are built. Default is true.
func WithBuildRequests(build bool) Option {
	return func(c *config) error {
		c.buildRequests = build
		return nil
	}
}

// WithBuildResponses sets whether response validators are built.
// Default is true.
func WithBuildResponses(build bool) Option {
	return func(c *config) error {
		c.buildResponses = build
		return nil
	}
}

// WithFormats adds user defined string formats to the built-in OpenAPI
// formats. May be given several times.
func WithFormats(formats ...Format) Option {
	return func(c *config) error {
		c.formats = append(c.formats, formats...)
		return nil
	}
}

// WithContentTypeValidation enforces the declared media types against the
// Content-Type header of requests and responses. Default is false.
func WithContentTypeValidation(enabled bool) Option {
	return func(c *config) error {
		c.contentTypeValidation = enabled
		return nil
	}
}

// WithExpectFormFieldsInBody validates the non-file formData parameters of
// OpenAPI 2 operations as an object body. Default is false.
func WithExpectFormFieldsInBody(expect bool) Option {
	return func(c *config) error {
		c.expectFormFieldsInBody = expect
		return nil
	}
}

// WithMakeOptionalAttributesNullable accepts null for every body property
// that is not required. Default is false.
func WithMakeOptionalAttributesNullable(nullable bool) Option {
	return func(c *config) error {
		c.optionalAsNullable = nullable
		return nil
	}
}

// WithBodyCompilerConfig sets the compiler configuration for request and
// response body schemas.
func WithBodyCompilerConfig(cfg CompilerConfig) Option {
	return func(c *config) error {
		c.bodyCompiler = cfg
		return nil
	}
}

// WithParamsCompilerConfig sets the compiler configuration for parameter
// and response header schemas.
func WithParamsCompilerConfig(cfg CompilerConfig) Option {
	return func(c *config) error {
		c.paramsCompiler = cfg
		return nil
	}
}

// WithKeywords registers custom keyword vocabularies with both compilers.
func WithKeywords(vocabularies ...*jsonschema.Vocabulary) Option {
	return func(c *config) error {
		for _, v := range vocabularies {
			if v == nil {
				return &oaserrors.ConfigError{Option: "WithKeywords", Message: "vocabulary is nil"}
			}
		}
		c.keywords = append(c.keywords, vocabularies...)
		return nil
	}
}

// WithBasePath sets the directory relative file references resolve
// against. Defaults to the directory of the document file.
func WithBasePath(dir string) Option {
	return func(c *config) error {
		c.basePath = dir
		return nil
	}
}

// WithValidateDocument checks OpenAPI 3.0 documents against the meta-schema
// before compiling. BuildSchemaSync always does.
func WithValidateDocument(validate bool) Option {
	return func(c *config) error {
		c.validateDocument = validate
		return nil
	}
}

// WithMetaValidator replaces the document meta-validator.
func WithMetaValidator(v MetaValidator) Option {
	return func(c *config) error {
		if v == nil {
			return &oaserrors.ConfigError{Option: "WithMetaValidator", Message: "validator is nil"}
		}
		c.metaValidator = v
		return nil
	}
}

// WithLogger sets the logger for compilation diagnostics. Default discards.
func WithLogger(logger Logger) Option {
	return func(c *config) error {
		if logger == nil {
			logger = loader.NopLogger{}
		}
		c.logger = logger
		return nil
	}
}

// WithHTTPClient sets the client used to fetch remote documents.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) error {
		c.httpClient = client
		return nil
	}
}
