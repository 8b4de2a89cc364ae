package apischema

import (
	"sort"
	"strings"

	"github.com/erraggy/schemabuilder/internal/httputil"
	"github.com/erraggy/schemabuilder/loader"
	"github.com/erraggy/schemabuilder/validators"
)

// Operation holds the validators of one path and method.
type Operation struct {
	// Parameters validates {headers, path, query, files}. Nil when requests
	// are not built.
	Parameters validators.Validator
	// Body validates the request body. For OpenAPI 3 it is the validator of
	// application/json when declared, otherwise of the first media type in
	// sorted order. Nil when the operation has no body.
	Body validators.Validator
	// BodyByContentType holds the OpenAPI 3 request body validators keyed
	// by media type as declared.
	BodyByContentType map[string]validators.Validator
	// Responses maps status keys ("200", "4XX", "default") to response
	// validators. Nil when responses are not built.
	Responses map[string]validators.Validator
}

// CompiledSchema maps normalized paths and lower-case methods to the
// validators of each operation. Paths carry the base path and use ":name"
// for template parameters, e.g. "/v1/pets/:petId".
type CompiledSchema struct {
	// Version is the OpenAPI family of the compiled document
	Version loader.Version
	// BasePaths are the base paths every document path was mounted under
	BasePaths []string

	paths map[string]map[string]*Operation
}

func newCompiledSchema(version loader.Version, bases []string) *CompiledSchema {
	return &CompiledSchema{
		Version:   version,
		BasePaths: bases,
		paths:     make(map[string]map[string]*Operation),
	}
}

func (s *CompiledSchema) add(path, method string, op *Operation) {
	methods, ok := s.paths[path]
	if !ok {
		methods = make(map[string]*Operation)
		s.paths[path] = methods
	}
	methods[method] = op
}

// Lookup returns the operation compiled for a normalized path and method.
// The method is matched case-insensitively.
func (s *CompiledSchema) Lookup(path, method string) (*Operation, bool) {
	if s == nil {
		return nil, false
	}
	op, ok := s.paths[path][strings.ToLower(method)]
	return op, ok
}

// Paths returns the normalized paths in sorted order.
func (s *CompiledSchema) Paths() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.paths))
	for p := range s.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Methods returns the methods compiled for path, in the order of
// httputil.Methods.
func (s *CompiledSchema) Methods(path string) []string {
	if s == nil {
		return nil
	}
	ops := s.paths[path]
	var out []string
	for _, m := range httputil.Methods {
		if _, ok := ops[m]; ok {
			out = append(out, m)
		}
	}
	return out
}

// OperationCount returns the number of compiled path and method entries.
func (s *CompiledSchema) OperationCount() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, ops := range s.paths {
		n += len(ops)
	}
	return n
}
