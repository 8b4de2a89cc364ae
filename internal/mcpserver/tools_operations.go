package mcpserver

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/erraggy/schemabuilder/apischema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/samber/lo"
)

type listOperationsInput struct {
	Spec    specInput    `json:"spec"             jsonschema:"The OAS document to compile"`
	Compile compileInput `json:"compile,omitempty" jsonschema:"Compilation switches"`
	Method  string       `json:"method,omitempty" jsonschema:"Filter by HTTP method (get\\, post\\, put\\, delete\\, patch\\, etc.)"`
	Path    string       `json:"path,omitempty"   jsonschema:"Filter by compiled path (supports * glob matching one segment)"`
	Limit   int          `json:"limit,omitempty"  jsonschema:"Maximum number of results to return (default 100)"`
	Offset  int          `json:"offset,omitempty" jsonschema:"Skip the first N results (for pagination)"`
}

type operationSummary struct {
	Path             string   `json:"path"`
	Method           string   `json:"method"`
	HasParameters    bool     `json:"has_parameters"`
	BodyKind         string   `json:"body_kind"`
	BodyContentTypes []string `json:"body_content_types,omitempty"`
	Responses        []string `json:"responses,omitempty"`
}

type listOperationsOutput struct {
	Version    string             `json:"version"`
	BasePaths  []string           `json:"base_paths,omitempty"`
	Total      int                `json:"total"`
	Matched    int                `json:"matched"`
	Returned   int                `json:"returned"`
	Operations []operationSummary `json:"operations,omitempty"`
}

func handleListOperations(ctx context.Context, _ *mcp.CallToolRequest, input listOperationsInput) (*mcp.CallToolResult, listOperationsOutput, error) {
	if err := validateGlobPattern(input.Path); err != nil {
		return errResult(err), listOperationsOutput{}, nil
	}

	compiled, err := input.Spec.resolve(ctx, input.Compile.settings())
	if err != nil {
		return errResult(err), listOperationsOutput{}, nil
	}

	all := summarizeOperations(compiled)
	matched := lo.Filter(all, func(op operationSummary, _ int) bool {
		if input.Method != "" && !strings.EqualFold(op.Method, input.Method) {
			return false
		}
		return matchOperationPath(op.Path, input.Path)
	})
	returned := paginate(matched, input.Offset, input.Limit)

	output := listOperationsOutput{
		Version:    compiled.Version.String(),
		BasePaths:  compiled.BasePaths,
		Total:      len(all),
		Matched:    len(matched),
		Returned:   len(returned),
		Operations: makeSlice[operationSummary](len(returned)),
	}
	output.Operations = append(output.Operations, returned...)
	return nil, output, nil
}

// summarizeOperations lists every compiled operation in path order, then
// method order.
func summarizeOperations(compiled *apischema.CompiledSchema) []operationSummary {
	ops := compiled.Operations()
	out := makeSlice[operationSummary](len(ops))
	for _, op := range ops {
		out = append(out, operationSummary(op))
	}
	return out
}

// matchOperationPath reports whether a compiled path matches pattern. An
// empty pattern matches everything and * matches a single path segment.
func matchOperationPath(p, pattern string) bool {
	if pattern == "" {
		return true
	}
	if !strings.ContainsAny(pattern, "*?[") {
		return p == pattern
	}
	ok, _ := path.Match(pattern, p)
	return ok
}

// validateGlobPattern checks whether a glob pattern is syntactically valid.
// Call this once before a filter loop so matchOperationPath never
// encounters an invalid pattern at match time.
func validateGlobPattern(pattern string) error {
	if pattern == "" || !strings.ContainsAny(pattern, "*?[") {
		return nil
	}
	if _, err := path.Match(pattern, ""); err != nil {
		return fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}
	return nil
}
