package mcpserver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/erraggy/schemabuilder/httpvalidator"
	"github.com/goccy/go-json"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type validateRequestInput struct {
	Spec        specInput         `json:"spec"                   jsonschema:"The OAS document to compile"`
	Compile     compileInput      `json:"compile,omitempty"      jsonschema:"Compilation switches"`
	Path        string            `json:"path"                   jsonschema:"Concrete request path including the base path (e.g. /v1/pets/42)"`
	Method      string            `json:"method"                 jsonschema:"HTTP method (get\\, post\\, put\\, delete\\, patch\\, etc.)"`
	ContentType string            `json:"content_type,omitempty" jsonschema:"Request Content-Type (default application/json when a body is given)"`
	Headers     map[string]string `json:"headers,omitempty"      jsonschema:"Request headers"`
	Query       map[string]any    `json:"query,omitempty"        jsonschema:"Query parameters; a value may be a string or a list of strings"`
	Body        any               `json:"body,omitempty"         jsonschema:"Request body: a JSON value, or a raw string for non-JSON content types"`
	Offset      int               `json:"offset,omitempty"       jsonschema:"Skip the first N errors (for pagination)"`
	Limit       int               `json:"limit,omitempty"        jsonschema:"Maximum number of errors to return (default 100)"`
}

// validationIssue is the wire shape of one validation error or warning.
type validationIssue struct {
	DataPath   string         `json:"data_path"`
	Keyword    string         `json:"keyword"`
	Message    string         `json:"message"`
	SchemaPath string         `json:"schema_path,omitempty"`
	Params     map[string]any `json:"params,omitempty"`
}

type validateRequestOutput struct {
	Valid         bool              `json:"valid"`
	MatchedPath   string            `json:"matched_path,omitempty"`
	MatchedMethod string            `json:"matched_method,omitempty"`
	PathParams    map[string]string `json:"path_params,omitempty"`
	ErrorCount    int               `json:"error_count"`
	Returned      int               `json:"returned"`
	Errors        []validationIssue `json:"errors,omitempty"`
	Warnings      []validationIssue `json:"warnings,omitempty"`
}

func handleValidateRequest(ctx context.Context, _ *mcp.CallToolRequest, input validateRequestInput) (*mcp.CallToolResult, validateRequestOutput, error) {
	v, err := newToolValidator(ctx, input.Spec, input.Compile)
	if err != nil {
		return errResult(err), validateRequestOutput{}, nil
	}

	req, err := buildRequest(ctx, input)
	if err != nil {
		return errResult(err), validateRequestOutput{}, nil
	}

	result, err := v.ValidateRequest(req)
	if err != nil {
		return errResult(err), validateRequestOutput{}, nil
	}

	page := paginate(result.Errors, input.Offset, input.Limit)
	return nil, validateRequestOutput{
		Valid:         result.Valid,
		MatchedPath:   result.MatchedPath,
		MatchedMethod: result.MatchedMethod,
		PathParams:    result.PathParams,
		ErrorCount:    len(result.Errors),
		Returned:      len(page),
		Errors:        toIssues(page),
		Warnings:      toIssues(result.Warnings),
	}, nil
}

// newToolValidator compiles the document and wraps it in a validator
// bounded by the configured body size.
func newToolValidator(ctx context.Context, spec specInput, compile compileInput) (*httpvalidator.Validator, error) {
	compiled, err := spec.resolve(ctx, compile.settings())
	if err != nil {
		return nil, err
	}
	return httpvalidator.New(compiled, httpvalidator.WithMaxBodySize(cfg.MaxBodySize))
}

// buildRequest turns tool input into the *http.Request the validator reads.
func buildRequest(ctx context.Context, input validateRequestInput) (*http.Request, error) {
	if input.Path == "" || input.Method == "" {
		return nil, fmt.Errorf("path and method are required")
	}

	query, err := queryValues(input.Query)
	if err != nil {
		return nil, err
	}
	target := url.URL{Path: input.Path, RawQuery: query.Encode()}

	raw, err := encodeBody(input.Body)
	if err != nil {
		return nil, err
	}
	var body io.Reader
	if raw != nil {
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(input.Method), target.String(), body)
	if err != nil {
		return nil, err
	}
	for name, value := range input.Headers {
		req.Header.Set(name, value)
	}
	switch {
	case input.ContentType != "":
		req.Header.Set("Content-Type", input.ContentType)
	case raw != nil && req.Header.Get("Content-Type") == "":
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// encodeBody returns raw strings unchanged and JSON-encodes any other value.
// A nil body yields nil.
func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(b), nil
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("failed to encode body: %w", err)
		}
		return raw, nil
	}
}

func queryValues(query map[string]any) (url.Values, error) {
	values := url.Values{}
	for name, value := range query {
		switch v := value.(type) {
		case string:
			values.Add(name, v)
		case []any:
			for _, item := range v {
				values.Add(name, fmt.Sprint(item))
			}
		case nil:
			values.Add(name, "")
		default:
			return nil, fmt.Errorf("query parameter %q must be a string or a list of strings", name)
		}
	}
	return values, nil
}

func toIssues(errs []httpvalidator.ValidationError) []validationIssue {
	out := makeSlice[validationIssue](len(errs))
	for _, e := range errs {
		out = append(out, validationIssue{
			DataPath:   e.DataPath,
			Keyword:    e.Keyword,
			Message:    e.Message,
			SchemaPath: e.SchemaPath,
			Params:     e.Params,
		})
	}
	return out
}
