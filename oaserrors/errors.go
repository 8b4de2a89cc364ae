// Package oaserrors provides structured error types for schemabuilder.
//
// These error types enable programmatic error handling via errors.Is() and
// errors.As(), allowing callers to distinguish between a document that could
// not be loaded, a document that is not a valid OpenAPI description, and a
// document whose schemas cannot be compiled into validators.
//
// # Error Categories
//
//   - ParseError: YAML/JSON parsing failures and undetectable versions
//   - ReferenceError: $ref resolution failures, circular references, path traversal
//   - ValidationError: OpenAPI 3 documents rejected by meta-validation
//   - ResourceLimitError: Resource exhaustion (discriminator depth, ref depth, size)
//   - SchemaError: schemas that cannot be turned into validators
//   - ConfigError: Invalid configuration or input options
//
// # Usage with errors.As
//
//	compiled, err := apischema.BuildSchemaSync("api.yaml")
//	if err != nil {
//	    var limitErr *oaserrors.ResourceLimitError
//	    if errors.As(err, &limitErr) && limitErr.ResourceType == oaserrors.ResourceDiscriminatorDepth {
//	        // cyclic or pathological discriminator chain
//	    }
//	}
package oaserrors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for use with errors.Is().
// These allow quick checks without type assertions.
var (
	// ErrParse indicates a parsing failure occurred.
	ErrParse = errors.New("parse error")

	// ErrReference indicates a reference resolution failure.
	ErrReference = errors.New("reference error")

	// ErrCircularReference indicates a circular $ref was detected.
	ErrCircularReference = errors.New("circular reference")

	// ErrPathTraversal indicates a path traversal attempt was blocked.
	ErrPathTraversal = errors.New("path traversal detected")

	// ErrValidation indicates the document failed meta-validation.
	ErrValidation = errors.New("validation error")

	// ErrResourceLimit indicates a resource limit was exceeded.
	ErrResourceLimit = errors.New("resource limit exceeded")

	// ErrSchema indicates a schema could not be compiled into a validator.
	ErrSchema = errors.New("schema error")

	// ErrConfig indicates an invalid configuration.
	ErrConfig = errors.New("configuration error")
)

// Resource types reported by ResourceLimitError.
const (
	ResourceDiscriminatorDepth = "discriminator_depth"
	ResourceRefDepth           = "ref_depth"
	ResourceCachedDocuments    = "cached_documents"
	ResourceFileSize           = "file_size"
)

// ParseError represents a failure to parse an OpenAPI document.
// This includes YAML/JSON deserialization errors and undetectable versions.
type ParseError struct {
	// Path is the file path or source identifier
	Path string
	// Line is the line number where the error occurred (0 if unknown)
	Line int
	// Column is the column number where the error occurred (0 if unknown)
	Column int
	// Message describes the parsing failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ParseError) Error() string {
	msg := "parse error"
	if e.Path != "" {
		msg += " in " + e.Path
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %d", e.Line)
		if e.Column > 0 {
			msg += fmt.Sprintf(", column %d", e.Column)
		}
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// ReferenceError represents a failure to resolve a $ref.
// This includes missing references, circular references, and path traversal attempts.
type ReferenceError struct {
	// Ref is the reference string that failed to resolve
	Ref string
	// RefType indicates the reference type: "local", "file", or "http"
	RefType string
	// IsCircular is true if this error is due to a circular reference
	IsCircular bool
	// IsPathTraversal is true if this error is due to a path traversal attempt
	IsPathTraversal bool
	// Message provides additional context about the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ReferenceError) Error() string {
	msg := "reference error"
	if e.IsCircular {
		msg = "circular reference"
	} else if e.IsPathTraversal {
		msg = "path traversal detected"
	}
	if e.Ref != "" {
		msg += ": " + e.Ref
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ReferenceError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
// Matches ErrReference, and also ErrCircularReference or ErrPathTraversal
// when appropriate flags are set.
func (e *ReferenceError) Is(target error) bool {
	if target == ErrReference {
		return true
	}
	if target == ErrCircularReference && e.IsCircular {
		return true
	}
	if target == ErrPathTraversal && e.IsPathTraversal {
		return true
	}
	return false
}

// ValidationError represents an OpenAPI document that was rejected by
// meta-validation. Causes holds the individual violations reported by the
// meta-validator, in the order they were reported.
type ValidationError struct {
	// Version is the OpenAPI version the document declares
	Version string
	// Message describes the validation failure
	Message string
	// Causes are the structured violations from the meta-validator
	Causes []error
}

// Error returns a human-readable error message.
func (e *ValidationError) Error() string {
	msg := "validation error"
	if e.Version != "" {
		msg += " (OpenAPI " + e.Version + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	switch len(e.Causes) {
	case 0:
	case 1:
		msg += ": " + e.Causes[0].Error()
	default:
		parts := make([]string, len(e.Causes))
		for i, c := range e.Causes {
			parts[i] = c.Error()
		}
		msg += fmt.Sprintf(": %d violations: %s", len(e.Causes), strings.Join(parts, "; "))
	}
	return msg
}

// Unwrap returns the meta-validator violations for error chaining.
func (e *ValidationError) Unwrap() []error {
	return e.Causes
}

// Is reports whether target matches this error type.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ResourceLimitError represents a resource exhaustion condition.
// This occurs when loading or compilation exceeds configured limits.
type ResourceLimitError struct {
	// ResourceType identifies what limit was exceeded (see the Resource* constants)
	ResourceType string
	// Limit is the configured maximum value
	Limit int64
	// Actual is the value that exceeded the limit (may be 0 if unknown)
	Actual int64
	// Message provides additional context
	Message string
}

// Error returns a human-readable error message.
func (e *ResourceLimitError) Error() string {
	msg := "resource limit exceeded"
	if e.ResourceType != "" {
		msg += ": " + e.ResourceType
	}
	if e.Limit > 0 {
		msg += fmt.Sprintf(" (limit: %d", e.Limit)
		if e.Actual > 0 {
			msg += fmt.Sprintf(", actual: %d", e.Actual)
		}
		msg += ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap returns nil as ResourceLimitError has no underlying cause.
func (e *ResourceLimitError) Unwrap() error {
	return nil
}

// Is reports whether target matches this error type.
func (e *ResourceLimitError) Is(target error) bool {
	return target == ErrResourceLimit
}

// SchemaError represents a schema that could not be compiled into a validator,
// either because it is structurally unusable (a discriminator without oneOf)
// or because the schema compiler rejected it.
type SchemaError struct {
	// Path locates the schema, e.g. "/pets.post.requestBody.application/json"
	Path string
	// Ref is the schema reference being resolved, if any
	Ref string
	// Message describes the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *SchemaError) Error() string {
	msg := "schema error"
	if e.Path != "" {
		msg += " at " + e.Path
	}
	if e.Ref != "" {
		msg += " (" + e.Ref + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// ConfigError represents an invalid configuration or input.
// This includes invalid options, missing required inputs, and conflicting settings.
type ConfigError struct {
	// Option is the name of the problematic configuration option
	Option string
	// Value is the invalid value that was provided (may be nil)
	Value any
	// Message describes the configuration error
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Option != "" {
		msg += " for " + e.Option
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}
