package httpvalidator

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/erraggy/schemabuilder/apischema"
)

// defaultMaxBodySize is the body size limit used when none is configured.
const defaultMaxBodySize int64 = 10 << 20

// Validator validates HTTP requests and responses against a compiled
// OpenAPI document.
//
// Create a Validator using the New function:
//
//	compiled, _ := apischema.BuildSchemaSync("openapi.yaml")
//	v, err := httpvalidator.New(compiled)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := v.ValidateRequest(req)
//	if !result.Valid {
//	    // Handle validation errors
//	}
//
// A Validator is safe for concurrent use.
type Validator struct {
	// compiled holds the compiled validators
	compiled *apischema.CompiledSchema

	// pathMatcherSet handles path template matching
	pathMatcherSet *PathMatcherSet

	// maxBodySize limits the bytes read from a body
	maxBodySize int64

	// skipBodyValidation disables body checks
	skipBodyValidation bool
}

// New creates a Validator from a compiled schema. Path matchers for every
// compiled path are built up front. Source options (WithFilePath,
// WithCompiled, WithSchemaOptions) are ignored by New.
//
// Returns an error if compiled is nil, an option is invalid or a compiled
// path cannot be matched.
func New(compiled *apischema.CompiledSchema, opts ...Option) (*Validator, error) {
	if compiled == nil {
		return nil, fmt.Errorf("httpvalidator: compiled schema cannot be nil")
	}
	cfg := defaultConfig()
	if err := cfg.apply(opts); err != nil {
		return nil, err
	}

	matcherSet, err := NewPathMatcherSet(compiled.Paths())
	if err != nil {
		return nil, fmt.Errorf("httpvalidator: %w", err)
	}

	v := &Validator{
		compiled:           compiled,
		pathMatcherSet:     matcherSet,
		maxBodySize:        cfg.maxBodySize,
		skipBodyValidation: cfg.skipBodyValidation,
	}
	if v.maxBodySize == 0 {
		v.maxBodySize = defaultMaxBodySize
	}
	return v, nil
}

// Compiled returns the compiled schema the Validator checks against.
func (v *Validator) Compiled() *apischema.CompiledSchema {
	return v.compiled
}

// matchPath finds the matching compiled path for the given request path.
func (v *Validator) matchPath(requestPath string) (template string, params map[string]string, found bool) {
	if v.pathMatcherSet == nil {
		return "", nil, false
	}
	return v.pathMatcherSet.Match(requestPath)
}

// resolve finds the operation of req, or returns the error explaining why
// there is none.
func (v *Validator) resolve(req *http.Request) (string, map[string]string, *apischema.Operation, *ValidationError) {
	matchedPath, pathParams, found := v.matchPath(req.URL.Path)
	if !found {
		return "", nil, nil, &ValidationError{
			Keyword:    KeywordPath,
			Message:    fmt.Sprintf("no matching path found for %q", truncateForError(req.URL.Path, maxErrorValueLen)),
			Params:     map[string]any{"path": truncateForError(req.URL.Path, maxErrorValueLen)},
			SchemaPath: "#",
		}
	}
	op, ok := v.compiled.Lookup(matchedPath, req.Method)
	if !ok {
		return matchedPath, pathParams, nil, &ValidationError{
			Keyword:    KeywordMethod,
			Message:    fmt.Sprintf("method %s not allowed for path %s", req.Method, matchedPath),
			Params:     map[string]any{"method": strings.ToLower(req.Method), "allowed": v.compiled.Methods(matchedPath)},
			SchemaPath: "#",
		}
	}
	return matchedPath, pathParams, op, nil
}
