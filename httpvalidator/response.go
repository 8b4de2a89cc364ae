package httpvalidator

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/erraggy/schemabuilder/apischema"
	"github.com/erraggy/schemabuilder/internal/httputil"
	"github.com/erraggy/schemabuilder/validators"
)

// ValidateResponse validates an HTTP response against the compiled schema.
// It checks the response body, selected by Content-Type, and the response
// headers. The response body is read and then restored.
//
// The original request is needed to determine which operation's response to validate against.
//
// Returns a ResponseValidationResult containing validation errors.
// The error return is reserved for internal errors (e.g., body reading failures),
// not validation errors which are captured in the result.
func (v *Validator) ValidateResponse(req *http.Request, resp *http.Response) (*ResponseValidationResult, error) {
	var raw []byte
	if resp.Body != nil && resp.Body != http.NoBody {
		buf, over, replay, err := readBody(resp.Body, v.maxBodySize)
		if err != nil {
			return nil, err
		}
		resp.Body = replay
		if over {
			result := newResponseResult()
			result.StatusCode = resp.StatusCode
			result.ContentType = resp.Header.Get("Content-Type")
			result.MatchedMethod = req.Method
			result.addErrors(tooLarge(v.maxBodySize))
			return result, nil
		}
		raw = buf
	}
	return v.ValidateResponseData(req, resp.StatusCode, resp.Header, raw)
}

// ValidateResponseData validates response data without requiring an *http.Response.
// This is useful for middleware scenarios where you've captured response parts
// but don't have an *http.Response object.
//
// Parameters:
//   - req: The original HTTP request (to determine the operation)
//   - statusCode: The HTTP status code of the response
//   - headers: Response headers
//   - body: Response body bytes (can be nil for bodyless responses)
//
// The documented response is looked up by exact status, then by its class
// ("4XX"), then "default". An undocumented status is reported as a warning.
//
// Example middleware usage:
//
//	result, err := v.ValidateResponseData(req, rec.Code, rec.Header(), rec.Body.Bytes())
func (v *Validator) ValidateResponseData(req *http.Request, statusCode int, headers http.Header, body []byte) (*ResponseValidationResult, error) {
	result := newResponseResult()
	result.StatusCode = statusCode
	result.ContentType = headers.Get("Content-Type")
	result.MatchedMethod = req.Method

	matchedPath, _, op, notFound := v.resolve(req)
	result.MatchedPath = matchedPath
	if notFound != nil {
		result.addErrors(*notFound)
		return result, nil
	}

	key, rv := responseValidator(op, statusCode)
	if rv == nil {
		result.addWarning(ValidationError{
			DataPath:   ".status",
			Keyword:    KeywordStatus,
			Message:    fmt.Sprintf("response status code %d not documented for %s %s", statusCode, strings.ToUpper(req.Method), matchedPath),
			Params:     map[string]any{"status": statusCode},
			SchemaPath: "#/responses",
		})
		return result, nil
	}
	result.ResponseKey = key

	hdrs := headerMap(headers)
	if v.skipBodyValidation {
		if composite, ok := rv.(*validators.ResponseValidator); ok {
			if composite.Headers != nil {
				result.addErrors(validators.Prefix(validators.Check(composite.Headers, hdrs), ".headers")...)
			}
			return result, nil
		}
	}

	decoded := decodeBody(body, result.ContentType)
	if decoded.err != nil {
		result.addErrors(*decoded.err)
		return result, nil
	}
	data := validators.ResponseData{Body: decoded.value, Headers: hdrs}
	result.addErrors(validators.Check(rv, data)...)
	return result, nil
}

// responseValidator returns the documented response for a status code and
// its key.
func responseValidator(op *apischema.Operation, statusCode int) (string, validators.Validator) {
	for _, key := range httputil.StatusCandidates(statusCode) {
		if rv, ok := op.Responses[key]; ok && rv != nil {
			return key, rv
		}
	}
	return "", nil
}
