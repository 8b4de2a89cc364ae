package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/erraggy/schemabuilder"
	"github.com/erraggy/schemabuilder/cmd/schemabuilder/commands"
	"github.com/erraggy/schemabuilder/internal/mcpserver"
)

// commandNames lists the commands suggestCommand chooses from.
var commandNames = []string{
	"compile", "validate-request", "validate-response", "mcp", "version", "help",
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	var err error
	switch command {
	case "version", "-v", "--version":
		fmt.Printf("schemabuilder %s\n", schemabuilder.Version())
		fmt.Printf("commit: %s\n", schemabuilder.Commit())
		fmt.Printf("built: %s\n", schemabuilder.BuildTime())
		fmt.Printf("go: %s\n", schemabuilder.GoVersion())
		return
	case "help", "-h", "--help":
		printUsage()
		return
	case "compile":
		err = commands.HandleCompile(os.Args[2:])
	case "validate-request":
		err = commands.HandleValidateRequest(os.Args[2:])
	case "validate-response":
		err = commands.HandleValidateResponse(os.Args[2:])
	case "mcp":
		err = runMCP()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		if s := suggestCommand(command); s != "" {
			fmt.Fprintf(os.Stderr, "Did you mean '%s'?\n", s)
		}
		fmt.Fprintln(os.Stderr)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		if !errors.Is(err, commands.ErrValidationFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// runMCP serves MCP over stdio until the client disconnects or the process
// is interrupted. Logs go to stderr since stdout carries the protocol.
func runMCP() error {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return mcpserver.Run(ctx)
}

// suggestCommand returns the known command closest to input within an edit
// distance of 2, or "" when none is that close.
func suggestCommand(input string) string {
	best, bestDist := "", 3
	for _, name := range commandNames {
		if d := editDistance(input, name); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best
}

// editDistance is the Levenshtein distance between a and b.
func editDistance(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func printUsage() {
	fmt.Println(`schemabuilder - OpenAPI request and response validation

Usage:
  schemabuilder <command> [options]

Commands:
  compile            Compile an OpenAPI document and list its validators
  validate-request   Validate an HTTP request against an OpenAPI document
  validate-response  Validate an HTTP response against an OpenAPI document
  mcp                Serve the validators as MCP tools over stdio
  version            Show version information
  help               Show this help message

Examples:
  schemabuilder compile openapi.yaml
  schemabuilder validate-request -X POST --path /v1/pets -d '{"name":"Rex"}' openapi.yaml
  schemabuilder validate-response --path /v1/pets/1 --status 404 -d '{}' openapi.yaml

Run 'schemabuilder <command> --help' for more information on a command.`)
}
