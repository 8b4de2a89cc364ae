package httpvalidator

import (
	"net/http"

	"github.com/erraggy/schemabuilder/apischema"
	"github.com/erraggy/schemabuilder/internal/contenttype"
	"github.com/erraggy/schemabuilder/internal/params"
	"github.com/erraggy/schemabuilder/validators"
)

// ValidateRequest validates an HTTP request against the compiled schema.
// It checks path, query and header parameters, uploaded file fields and the
// request body.
//
// The request body is read and then restored, so handlers further down the
// chain can still consume it.
//
// Returns a RequestValidationResult containing validation errors and extracted parameters.
// The error return is reserved for internal errors (e.g., body reading failures),
// not validation errors which are captured in the result.
func (v *Validator) ValidateRequest(req *http.Request) (*RequestValidationResult, error) {
	result := newRequestResult()
	result.MatchedMethod = req.Method

	matchedPath, pathParams, op, notFound := v.resolve(req)
	result.MatchedPath = matchedPath
	if notFound != nil {
		result.addErrors(*notFound)
		return result, nil
	}
	for name, value := range pathParams {
		result.PathParams[name] = value
	}
	for name, values := range req.URL.Query() {
		if len(values) == 1 {
			result.QueryParams[name] = values[0]
		} else {
			result.QueryParams[name] = values
		}
	}

	// Read the body first: multipart file names belong to the parameters.
	var decoded decodedBody
	if req.Body != nil && req.Body != http.NoBody {
		raw, over, replay, err := readBody(req.Body, v.maxBodySize)
		if err != nil {
			return nil, err
		}
		req.Body = replay
		if over {
			result.addErrors(tooLarge(v.maxBodySize))
		} else {
			decoded = decodeBody(raw, req.Header.Get("Content-Type"))
		}
	}
	result.Files = decoded.files

	if op.Parameters != nil {
		data := map[string]any{
			params.Headers: headerMap(req.Header),
			params.Path:    stringMap(pathParams),
			params.Query:   result.QueryParams,
		}
		if decoded.files != nil {
			data[params.Files] = decoded.files
		}
		result.addErrors(validators.Check(op.Parameters, data)...)
	}

	if v.skipBodyValidation {
		return result, nil
	}
	if decoded.err != nil {
		result.addErrors(*decoded.err)
		return result, nil
	}
	if decoded.value == nil {
		return result, nil
	}
	if body := requestBodyValidator(op, req.Header.Get("Content-Type")); body != nil {
		result.addErrors(validators.Prefix(validators.Check(body, decoded.value), ".body")...)
	}
	return result, nil
}

// requestBodyValidator picks the body validator for a request Content-Type:
// the validator declared for that media type, else the operation default.
func requestBodyValidator(op *apischema.Operation, contentType string) validators.Validator {
	if ct := contenttype.Normalize(contentType); ct != "" {
		for declared, body := range op.BodyByContentType {
			if contenttype.Normalize(declared) == ct {
				return body
			}
		}
	}
	return op.Body
}

func stringMap(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, val := range m {
		out[k] = val
	}
	return out
}
