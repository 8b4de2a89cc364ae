package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/erraggy/schemabuilder/apischema"
)

// stdout and stderr are replaced in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// CompileCommandFlags contains flags for the compile command
type CompileCommandFlags struct {
	CompileFlags
	Quiet  bool
	Format string
	Output string
}

// CompileReport is the structured output of the compile command.
type CompileReport struct {
	Version    string                    `json:"version" yaml:"version"`
	BasePaths  []string                  `json:"basePaths,omitempty" yaml:"basePaths,omitempty"`
	PathCount  int                       `json:"pathCount" yaml:"pathCount"`
	Operations []apischema.OperationInfo `json:"operations" yaml:"operations"`
}

// SetupCompileFlags creates and configures a FlagSet for the compile command.
// Returns the FlagSet and a CompileCommandFlags struct with bound flag variables.
func SetupCompileFlags() (*flag.FlagSet, *CompileCommandFlags) {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	flags := &CompileCommandFlags{}

	flags.bind(fs)
	fs.BoolVar(&flags.Quiet, "q", false, "quiet mode: only output the compiled summary, no diagnostic messages")
	fs.BoolVar(&flags.Quiet, "quiet", false, "quiet mode: only output the compiled summary, no diagnostic messages")
	fs.StringVar(&flags.Format, "format", FormatText, "output format: text, json, or yaml")
	fs.StringVar(&flags.Output, "o", "", "write the summary to a file instead of stdout")
	fs.StringVar(&flags.Output, "output", "", "write the summary to a file instead of stdout")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: schemabuilder compile [flags] <file|url|->\n\n")
		Writef(fs.Output(), "Compile an OpenAPI 2.0/3.0/3.1 document into request and response validators\n")
		Writef(fs.Output(), "and list the compiled operations.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  schemabuilder compile openapi.yaml\n")
		Writef(fs.Output(), "  schemabuilder compile --validate-document https://example.com/api/openapi.yaml\n")
		Writef(fs.Output(), "  cat swagger.json | schemabuilder compile --format json - | jq '.operations'\n")
		Writef(fs.Output(), "\nExit Codes:\n")
		Writef(fs.Output(), "  0    Compilation successful\n")
		Writef(fs.Output(), "  1    The document could not be loaded or compiled\n")
	}

	return fs, flags
}

// HandleCompile executes the compile command
func HandleCompile(args []string) error {
	fs, flags := SetupCompileFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("compile command requires exactly one file path, URL, or '-' for stdin")
	}
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}

	specPath := fs.Arg(0)
	startTime := time.Now()
	compiled, err := CompileSpec(context.Background(), specPath, &flags.CompileFlags)
	if err != nil {
		return err
	}
	totalTime := time.Since(startTime)

	report := CompileReport{
		Version:    compiled.Version.String(),
		BasePaths:  compiled.BasePaths,
		PathCount:  len(compiled.Paths()),
		Operations: compiled.Operations(),
	}

	var out []byte
	if flags.Format == FormatText {
		out = []byte(renderOperations(report.Operations))
	} else {
		out, err = MarshalStructured(report, flags.Format)
		if err != nil {
			return err
		}
	}

	if !flags.Quiet {
		Writef(stderr, "OpenAPI Schema Compiler\n")
		Writef(stderr, "=======================\n\n")
		OutputSpecHeader(stderr, specPath, compiled)
		Writef(stderr, "Total Time: %v\n\n", totalTime)
	}

	if flags.Output != "" {
		return WriteOutputFile(flags.Output, out)
	}
	Writef(stdout, "%s\n", strings.TrimRight(string(out), "\n"))
	return nil
}

// renderOperations formats operations as an aligned text table.
func renderOperations(ops []apischema.OperationInfo) string {
	if len(ops) == 0 {
		return "No operations compiled."
	}

	width := 0
	for _, op := range ops {
		width = max(width, len(op.Method)+1+len(op.Path))
	}

	var sb strings.Builder
	for _, op := range ops {
		route := op.Method + " " + op.Path
		sb.WriteString(route)
		sb.WriteString(strings.Repeat(" ", width-len(route)+2))

		params := "-"
		if op.HasParameters {
			params = "params"
		}
		sb.WriteString(params)
		sb.WriteString("  body=")
		sb.WriteString(op.BodyKind)
		if len(op.BodyContentTypes) > 0 {
			sb.WriteString(" (" + strings.Join(op.BodyContentTypes, ", ") + ")")
		}
		if len(op.Responses) > 0 {
			sb.WriteString("  responses=" + strings.Join(op.Responses, ","))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
