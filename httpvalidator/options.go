package httpvalidator

import (
	"context"
	"fmt"
	"net/http"

	"github.com/erraggy/schemabuilder/apischema"
)

// Option is a functional option for configuring validation.
type Option func(*config) error

// config holds the configuration for validation operations.
type config struct {
	// Spec source for the *WithOptions functions (one of these must be set)
	filePath   string
	compiled   *apischema.CompiledSchema
	schemaOpts []apischema.Option

	// Skip options
	skipBodyValidation bool

	// Resource limits
	maxBodySize int64 // max request/response body size (0 = default 10 MiB)
}

// defaultConfig returns the default configuration.
func defaultConfig() *config {
	return &config{}
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

// WithFilePath sets the path to the OpenAPI document. The document is
// compiled with apischema.BuildSchema and the options of WithSchemaOptions.
func WithFilePath(path string) Option {
	return func(c *config) error {
		c.filePath = path
		return nil
	}
}

// WithCompiled uses an already compiled schema.
// This is more efficient when validating multiple requests.
func WithCompiled(compiled *apischema.CompiledSchema) Option {
	return func(c *config) error {
		if compiled == nil {
			return fmt.Errorf("httpvalidator: compiled schema cannot be nil")
		}
		c.compiled = compiled
		return nil
	}
}

// WithSchemaOptions sets the compilation options used with WithFilePath.
func WithSchemaOptions(opts ...apischema.Option) Option {
	return func(c *config) error {
		c.schemaOpts = append(c.schemaOpts, opts...)
		return nil
	}
}

// WithSkipBodyValidation skips request/response body validation.
// Useful when body validation is too expensive or handled elsewhere.
func WithSkipBodyValidation(skip bool) Option {
	return func(c *config) error {
		c.skipBodyValidation = skip
		return nil
	}
}

// WithMaxBodySize sets the maximum request/response body size in bytes.
// Bodies exceeding this limit will produce a validation error.
// Default: 10 MiB.
func WithMaxBodySize(n int64) Option {
	return func(c *config) error {
		if n < 0 {
			return fmt.Errorf("httpvalidator: maxBodySize cannot be negative")
		}
		c.maxBodySize = n
		return nil
	}
}

// ValidateRequestWithOptions validates an HTTP request against an OpenAPI document
// using functional options.
//
// This is a convenience function for one-off validations. For validating multiple
// requests, use New() to create a reusable Validator instance.
//
// Example:
//
//	result, err := httpvalidator.ValidateRequestWithOptions(
//	    req,
//	    httpvalidator.WithFilePath("openapi.yaml"),
//	    httpvalidator.WithSchemaOptions(apischema.WithContentTypeValidation(true)),
//	)
func ValidateRequestWithOptions(req *http.Request, opts ...Option) (*RequestValidationResult, error) {
	v, err := newFromOptions(req.Context(), opts)
	if err != nil {
		return nil, err
	}
	return v.ValidateRequest(req)
}

// ValidateResponseWithOptions validates an HTTP response against an OpenAPI document
// using functional options.
//
// This is a convenience function for one-off validations. For validating multiple
// responses, use New() to create a reusable Validator instance.
//
// Example:
//
//	result, err := httpvalidator.ValidateResponseWithOptions(
//	    req, resp,
//	    httpvalidator.WithFilePath("openapi.yaml"),
//	)
func ValidateResponseWithOptions(req *http.Request, resp *http.Response, opts ...Option) (*ResponseValidationResult, error) {
	v, err := newFromOptions(req.Context(), opts)
	if err != nil {
		return nil, err
	}
	return v.ValidateResponse(req, resp)
}

// ValidateResponseDataWithOptions validates response data (for middleware use)
// using functional options.
//
// This is useful in middleware where you've captured response parts in a
// ResponseRecorder but don't have an *http.Response.
//
// Example:
//
//	result, err := httpvalidator.ValidateResponseDataWithOptions(
//	    req, recorder.Code, recorder.Header(), recorder.Body.Bytes(),
//	    httpvalidator.WithFilePath("openapi.yaml"),
//	)
func ValidateResponseDataWithOptions(req *http.Request, statusCode int, headers http.Header, body []byte, opts ...Option) (*ResponseValidationResult, error) {
	v, err := newFromOptions(req.Context(), opts)
	if err != nil {
		return nil, err
	}
	return v.ValidateResponseData(req, statusCode, headers, body)
}

// newFromOptions builds a Validator for one of the *WithOptions functions.
func newFromOptions(ctx context.Context, opts []Option) (*Validator, error) {
	cfg := defaultConfig()
	if err := cfg.apply(opts); err != nil {
		return nil, err
	}
	compiled, err := getCompiledSchema(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(compiled, opts...)
}

// getCompiledSchema returns the compiled schema from config.
func getCompiledSchema(ctx context.Context, cfg *config) (*apischema.CompiledSchema, error) {
	if cfg.compiled != nil {
		return cfg.compiled, nil
	}

	if cfg.filePath != "" {
		return apischema.BuildSchema(ctx, cfg.filePath, cfg.schemaOpts...)
	}

	return nil, fmt.Errorf("httpvalidator: no specification provided (use WithFilePath or WithCompiled)")
}
