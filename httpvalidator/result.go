package httpvalidator

import (
	"github.com/erraggy/schemabuilder/validators"
)

// ValidationError is a single validation issue found in an HTTP message.
// DataPath is rooted at the request data: ".query.limit", ".path.petId",
// ".headers['x-request-id']", ".files" and ".body..." for requests;
// ".body..." and ".headers..." for responses.
type ValidationError = validators.ValidationError

// Keywords of the errors the HTTP layer reports itself.
const (
	KeywordPath        = "path"
	KeywordMethod      = "method"
	KeywordStatus      = "status"
	KeywordParse       = "parse"
	KeywordMaxBodySize = "maxBodySize"
)

// maxErrorValueLen bounds request values echoed into error messages.
const maxErrorValueLen = 200

// RequestValidationResult contains the results of validating an HTTP request
// against a compiled schema.
type RequestValidationResult struct {
	// Valid is true if the request passes all validation checks.
	Valid bool

	// Errors contains all validation errors found.
	Errors []ValidationError

	// Warnings contains issues that do not invalidate the request.
	Warnings []ValidationError

	// MatchedPath is the compiled path that matched the request
	// (e.g., "/v1/pets/:petId"). Empty if no path matched.
	MatchedPath string

	// MatchedMethod is the HTTP method of the request (e.g., "GET", "POST").
	MatchedMethod string

	// PathParams contains the raw values of the matched path parameters.
	PathParams map[string]string

	// QueryParams contains the query values as they were validated: a
	// string, or a []string for repeated keys.
	QueryParams map[string]any

	// Files lists the multipart file field names of the request, sorted.
	Files []string
}

// ResponseValidationResult contains the results of validating an HTTP response
// against a compiled schema.
type ResponseValidationResult struct {
	// Valid is true if the response passes all validation checks.
	Valid bool

	// Errors contains all validation errors found.
	Errors []ValidationError

	// Warnings contains issues that do not invalidate the response, such as
	// an undocumented status code.
	Warnings []ValidationError

	// StatusCode is the HTTP status code of the response.
	StatusCode int

	// ContentType is the Content-Type of the response.
	ContentType string

	// ResponseKey is the documented response that was validated against
	// ("200", "2XX" or "default"). Empty if none matched.
	ResponseKey string

	// MatchedPath is the compiled path that matched the original request.
	MatchedPath string

	// MatchedMethod is the HTTP method of the original request.
	MatchedMethod string
}

// newRequestResult creates a new RequestValidationResult with initialized maps.
func newRequestResult() *RequestValidationResult {
	return &RequestValidationResult{
		Valid:       true,
		PathParams:  make(map[string]string),
		QueryParams: make(map[string]any),
	}
}

// newResponseResult creates a new ResponseValidationResult.
func newResponseResult() *ResponseValidationResult {
	return &ResponseValidationResult{
		Valid: true,
	}
}

// addErrors adds errors to the request result and marks it invalid when
// there are any.
func (r *RequestValidationResult) addErrors(errs ...ValidationError) {
	if len(errs) == 0 {
		return
	}
	r.Valid = false
	r.Errors = append(r.Errors, errs...)
}

// addWarning adds a warning to the request result.
func (r *RequestValidationResult) addWarning(w ValidationError) {
	r.Warnings = append(r.Warnings, w)
}

// addErrors adds errors to the response result and marks it invalid when
// there are any.
func (r *ResponseValidationResult) addErrors(errs ...ValidationError) {
	if len(errs) == 0 {
		return
	}
	r.Valid = false
	r.Errors = append(r.Errors, errs...)
}

// addWarning adds a warning to the response result.
func (r *ResponseValidationResult) addWarning(w ValidationError) {
	r.Warnings = append(r.Warnings, w)
}

// truncateForError shortens s to at most n bytes for use in messages.
func truncateForError(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
