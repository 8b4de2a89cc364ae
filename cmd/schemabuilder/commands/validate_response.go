package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"strings"
)

// ValidateResponseFlags contains flags for the validate-response command
type ValidateResponseFlags struct {
	CompileFlags
	Method      string
	Path        string
	Status      int
	ContentType string
	Data        string
	DataFile    string
	Quiet       bool
	Format      string
	MaxBodySize int64

	headers headerFlag
}

// SetupValidateResponseFlags creates and configures a FlagSet for the
// validate-response command.
func SetupValidateResponseFlags() (*flag.FlagSet, *ValidateResponseFlags) {
	fs := flag.NewFlagSet("validate-response", flag.ContinueOnError)
	flags := &ValidateResponseFlags{}

	flags.bind(fs)
	fs.StringVar(&flags.Method, "method", http.MethodGet, "HTTP method of the request the response answers")
	fs.StringVar(&flags.Method, "X", http.MethodGet, "HTTP method of the request the response answers")
	fs.StringVar(&flags.Path, "path", "", "request path including the base path, e.g. /v1/pets/42")
	fs.IntVar(&flags.Status, "status", http.StatusOK, "response status code")
	fs.StringVar(&flags.ContentType, "content-type", "", "response Content-Type (default application/json when a body is given)")
	fs.StringVar(&flags.Data, "data", "", "response body")
	fs.StringVar(&flags.Data, "d", "", "response body")
	fs.StringVar(&flags.DataFile, "data-file", "", "read the response body from a file, or '-' for stdin")
	fs.Var(&flags.headers, "H", "response header \"Name: value\" (repeatable)")
	fs.Int64Var(&flags.MaxBodySize, "max-body-size", 0, "maximum body size in bytes (default 10 MiB)")
	fs.BoolVar(&flags.Quiet, "q", false, "quiet mode: only output validation result, no diagnostic messages")
	fs.BoolVar(&flags.Quiet, "quiet", false, "quiet mode: only output validation result, no diagnostic messages")
	fs.StringVar(&flags.Format, "format", FormatText, "output format: text, json, or yaml")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: schemabuilder validate-response [flags] <file|url>\n\n")
		Writef(fs.Output(), "Validate an HTTP response (status, headers and body) against an OpenAPI document.\n")
		Writef(fs.Output(), "The documented response is chosen by exact status, then status class (4XX), then default.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  schemabuilder validate-response --path /v1/pets/1 -d '{\"id\":1,\"name\":\"Rex\"}' openapi.yaml\n")
		Writef(fs.Output(), "  curl -s https://api.example.com/v1/pets | schemabuilder validate-response --path /v1/pets --data-file - openapi.yaml\n")
		Writef(fs.Output(), "\nExit Codes:\n")
		Writef(fs.Output(), "  0    The response is valid\n")
		Writef(fs.Output(), "  1    The response is invalid or the document could not be compiled\n")
	}

	return fs, flags
}

// HandleValidateResponse executes the validate-response command
func HandleValidateResponse(args []string) error {
	fs, flags := SetupValidateResponseFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("validate-response command requires exactly one file path or URL")
	}
	if flags.Path == "" {
		return fmt.Errorf("validate-response command requires --path")
	}
	if flags.Status < 100 || flags.Status > 599 {
		return fmt.Errorf("invalid status %d: must be between 100 and 599", flags.Status)
	}
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}
	if err := ValidateContentType(flags.ContentType); err != nil {
		return err
	}

	body, err := readData(flags.Data, flags.DataFile)
	if err != nil {
		return err
	}

	ctx := context.Background()
	specPath := fs.Arg(0)
	v, err := newValidator(ctx, specPath, &flags.CompileFlags, flags.MaxBodySize)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(flags.Method), flags.Path, nil)
	if err != nil {
		return err
	}
	headers := flags.headers.header.Clone()
	if headers == nil {
		headers = http.Header{}
	}
	applyContentType(headers, flags.ContentType, body != nil)

	result, err := v.ValidateResponseData(req, flags.Status, headers, body)
	if err != nil {
		return err
	}

	report := ValidationReport{
		Valid:         result.Valid,
		MatchedPath:   result.MatchedPath,
		MatchedMethod: result.MatchedMethod,
		ResponseKey:   result.ResponseKey,
		Errors:        result.Errors,
		Warnings:      result.Warnings,
	}
	if !flags.Quiet && flags.Format == FormatText {
		Writef(stderr, "HTTP Response Validator\n")
		Writef(stderr, "=======================\n\n")
		OutputSpecHeader(stderr, specPath, v.Compiled())
		Writef(stderr, "Response: %d to %s %s\n\n", flags.Status, strings.ToUpper(flags.Method), flags.Path)
	}
	return outputReport(report, flags.Format)
}
