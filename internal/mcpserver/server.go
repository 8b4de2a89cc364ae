// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes schemabuilder compilation and validation as MCP tools over stdio.
package mcpserver

import (
	"context"
	"regexp"

	"github.com/erraggy/schemabuilder"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `schemabuilder MCP server: compiles OpenAPI 2.0/3.0/3.1 documents into request and response validators and checks payloads against them.

Configuration: All defaults are configurable via SCHEMABUILDER_* environment variables set in your MCP client config.

Key settings:
- SCHEMABUILDER_CACHE_FILE_TTL (default: 15m): cache TTL for compiled local files
- SCHEMABUILDER_CACHE_URL_TTL (default: 5m): cache TTL for compiled URL documents
- SCHEMABUILDER_CACHE_ENABLED (default: true): disable caching entirely
- SCHEMABUILDER_LIST_LIMIT (default: 100): default result limit for list_operations
- SCHEMABUILDER_CONTENT_TYPE_VALIDATION (default: false): enforce declared Content-Types by default
- SCHEMABUILDER_VALIDATE_DOCUMENT (default: false): meta-validate OpenAPI 3.0 documents before compiling
- SCHEMABUILDER_ALLOW_PRIVATE_IPS (default: false): allow fetching documents from private addresses

Paths: compiled paths carry the document's base path and write template parameters as :name, e.g. /v1/pets/:petId. Validation tools take a concrete request path such as /v1/pets/42.

Caching: Compiled documents are cached per session. File entries use path+mtime as key (auto-invalidated on change). URL entries are cached with a shorter TTL. A background sweeper removes expired entries.`

// Run starts the MCP server over stdio and blocks until the client disconnects
// or the context is cancelled.
func Run(ctx context.Context) error {
	if cfg.CacheEnabled {
		specCache.startSweeper(ctx, cfg.CacheSweepInterval)
	}

	server := mcp.NewServer(
		&mcp.Implementation{Name: "schemabuilder", Version: schemabuilder.Version()},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	registerAllTools(server)
	return server.Run(ctx, &mcp.StdioTransport{})
}

func registerAllTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_operations",
		Description: "Compile an OpenAPI document and list its operations by compiled path (base path included, parameters as :name) and method. Each entry tells whether the operation validates parameters and a body, the body media types, whether the body is polymorphic (discriminator), and the documented response keys. Filter by method or path glob; use offset/limit to paginate.",
	}, handleListOperations)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_request_body",
		Description: "Validate a request against a compiled OpenAPI document: the body (JSON value or raw string), plus optional query and header values, for a concrete request path and method. Returns errors with dataPath (e.g. .body.name, .query.limit), keyword, message and schemaPath. Polymorphic bodies are checked against the subtype selected by their discriminator.",
	}, handleValidateRequest)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_response",
		Description: "Validate a response against a compiled OpenAPI document: status code, headers and body for the operation of a request path and method. The documented response is chosen by exact status, then status class (e.g. 4XX), then default; an undocumented status is reported as a warning.",
	}, handleValidateResponse)
}

// paginate applies offset/limit pagination to a slice, returning the
// requested page. A non-positive limit defaults to cfg.ListLimit.
func paginate[T any](items []T, offset, limit int) []T {
	if limit <= 0 {
		limit = cfg.ListLimit
	}
	if limit > cfg.MaxLimit {
		limit = cfg.MaxLimit
	}
	if offset < 0 || offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end < offset || end > len(items) { // overflow or beyond slice
		end = len(items)
	}
	return items[offset:end]
}

// makeSlice returns nil when n is 0 (preserving omitempty JSON semantics),
// otherwise returns make([]T, 0, n) for pre-allocated appending.
func makeSlice[T any](n int) []T {
	if n == 0 {
		return nil
	}
	return make([]T, 0, n)
}

// sanitizeError strips absolute filesystem paths from error messages
// to prevent leaking internal directory structure to MCP clients.
var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run|snap|nix)[a-zA-Z0-9._/-]*)`)

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return pathPattern.ReplaceAllString(err.Error(), "<path>")
}

// errResult creates an MCP error result from an error.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: sanitizeError(err)}},
	}
}
