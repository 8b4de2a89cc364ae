package validators

import (
	"strings"

	"github.com/erraggy/schemabuilder/internal/contenttype"
)

// ResponseData is the value a ResponseValidator validates.
type ResponseData struct {
	Body    any
	Headers map[string]any
}

// ResponseValidator validates a response body, chosen by the response's
// Content-Type, together with the response headers. Body errors come first
// and are prefixed with ".body"; header errors follow, prefixed with
// ".headers".
type ResponseValidator struct {
	lastErrors
	// Bodies maps lower-cased media types to body validators. Nil when the
	// response declares no body.
	Bodies map[string]Validator
	// Headers validates the lower-cased header map. Nil when the response
	// declares no headers and content types are not enforced.
	Headers Validator
}

// NewResponse returns a composite response validator. Media type keys are
// lower-cased.
func NewResponse(bodies map[string]Validator, headers Validator) *ResponseValidator {
	var normalized map[string]Validator
	if len(bodies) > 0 {
		normalized = make(map[string]Validator, len(bodies))
		for ct, v := range bodies {
			normalized[contenttype.Normalize(ct)] = v
		}
	}
	return &ResponseValidator{Bodies: normalized, Headers: headers}
}

// Validate implements Validator. data is a ResponseData, a *ResponseData or
// a map with "body" and "headers" keys.
func (v *ResponseValidator) Validate(data any) bool {
	return v.record(v.check(data))
}

func (v *ResponseValidator) check(data any) []ValidationError {
	resp := asResponseData(data)
	headers := lowerKeys(resp.Headers)

	var errs []ValidationError
	if len(v.Bodies) > 0 {
		ct := contenttype.JSON
		if raw, ok := headers["content-type"]; ok {
			if s := headerString(raw); s != "" {
				ct = contenttype.Normalize(s)
			}
		}
		if body, ok := v.Bodies[ct]; ok {
			errs = append(errs, Prefix(Check(body, resp.Body), ".body")...)
		} else {
			errs = append(errs, ValidationError{
				DataPath:   ".headers['content-type']",
				Keyword:    "content",
				Message:    "no schema defined for response content-type '" + ct + "'",
				Params:     map[string]any{"contentType": ct},
				SchemaPath: "#/body",
			})
		}
	}
	if v.Headers != nil {
		errs = append(errs, Prefix(Check(v.Headers, headers), ".headers")...)
	}
	return errs
}

func asResponseData(data any) ResponseData {
	switch d := data.(type) {
	case ResponseData:
		return d
	case *ResponseData:
		if d != nil {
			return *d
		}
	case map[string]any:
		resp := ResponseData{Body: d["body"]}
		resp.Headers, _ = d["headers"].(map[string]any)
		return resp
	}
	return ResponseData{}
}

func lowerKeys(headers map[string]any) map[string]any {
	out := make(map[string]any, len(headers))
	for k, val := range headers {
		out[strings.ToLower(k)] = val
	}
	return out
}

// headerString returns the first value of a header given as a string or a
// list of strings.
func headerString(v any) string {
	switch h := v.(type) {
	case string:
		return h
	case []string:
		if len(h) > 0 {
			return h[0]
		}
	case []any:
		if len(h) > 0 {
			s, _ := h[0].(string)
			return s
		}
	}
	return ""
}
