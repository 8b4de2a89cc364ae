package mcpserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type validateResponseInput struct {
	Spec        specInput         `json:"spec"                   jsonschema:"The OAS document to compile"`
	Compile     compileInput      `json:"compile,omitempty"      jsonschema:"Compilation switches"`
	Path        string            `json:"path"                   jsonschema:"Concrete request path including the base path (e.g. /v1/pets/42)"`
	Method      string            `json:"method"                 jsonschema:"HTTP method of the request the response answers"`
	Status      int               `json:"status"                 jsonschema:"Response status code"`
	ContentType string            `json:"content_type,omitempty" jsonschema:"Response Content-Type (default application/json when a body is given)"`
	Headers     map[string]string `json:"headers,omitempty"      jsonschema:"Response headers"`
	Body        any               `json:"body,omitempty"         jsonschema:"Response body: a JSON value, or a raw string for non-JSON content types"`
	Offset      int               `json:"offset,omitempty"       jsonschema:"Skip the first N errors (for pagination)"`
	Limit       int               `json:"limit,omitempty"        jsonschema:"Maximum number of errors to return (default 100)"`
}

type validateResponseOutput struct {
	Valid         bool              `json:"valid"`
	MatchedPath   string            `json:"matched_path,omitempty"`
	MatchedMethod string            `json:"matched_method,omitempty"`
	ResponseKey   string            `json:"response_key,omitempty"`
	ErrorCount    int               `json:"error_count"`
	Returned      int               `json:"returned"`
	Errors        []validationIssue `json:"errors,omitempty"`
	Warnings      []validationIssue `json:"warnings,omitempty"`
}

func handleValidateResponse(ctx context.Context, _ *mcp.CallToolRequest, input validateResponseInput) (*mcp.CallToolResult, validateResponseOutput, error) {
	if input.Path == "" || input.Method == "" {
		return errResult(fmt.Errorf("path and method are required")), validateResponseOutput{}, nil
	}
	if input.Status < 100 || input.Status > 599 {
		return errResult(fmt.Errorf("status must be between 100 and 599 (got %d)", input.Status)), validateResponseOutput{}, nil
	}

	v, err := newToolValidator(ctx, input.Spec, input.Compile)
	if err != nil {
		return errResult(err), validateResponseOutput{}, nil
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(input.Method), input.Path, nil)
	if err != nil {
		return errResult(err), validateResponseOutput{}, nil
	}

	raw, err := encodeBody(input.Body)
	if err != nil {
		return errResult(err), validateResponseOutput{}, nil
	}
	headers := http.Header{}
	for name, value := range input.Headers {
		headers.Set(name, value)
	}
	switch {
	case input.ContentType != "":
		headers.Set("Content-Type", input.ContentType)
	case raw != nil && headers.Get("Content-Type") == "":
		headers.Set("Content-Type", "application/json")
	}

	result, err := v.ValidateResponseData(req, input.Status, headers, raw)
	if err != nil {
		return errResult(err), validateResponseOutput{}, nil
	}

	page := paginate(result.Errors, input.Offset, input.Limit)
	return nil, validateResponseOutput{
		Valid:         result.Valid,
		MatchedPath:   result.MatchedPath,
		MatchedMethod: result.MatchedMethod,
		ResponseKey:   result.ResponseKey,
		ErrorCount:    len(result.Errors),
		Returned:      len(page),
		Errors:        toIssues(page),
		Warnings:      toIssues(result.Warnings),
	}, nil
}
