package commands

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/erraggy/schemabuilder/httpvalidator"
)

// ValidateRequestFlags contains flags for the validate-request command
type ValidateRequestFlags struct {
	CompileFlags
	Method      string
	Path        string
	ContentType string
	Data        string
	DataFile    string
	Quiet       bool
	Format      string
	MaxBodySize int64

	headers headerFlag
	query   queryFlag
}

// ValidationReport is the structured output of the validate-request and
// validate-response commands.
type ValidationReport struct {
	Valid         bool                           `json:"valid" yaml:"valid"`
	MatchedPath   string                         `json:"matchedPath,omitempty" yaml:"matchedPath,omitempty"`
	MatchedMethod string                         `json:"matchedMethod,omitempty" yaml:"matchedMethod,omitempty"`
	ResponseKey   string                         `json:"responseKey,omitempty" yaml:"responseKey,omitempty"`
	Errors        []httpvalidator.ValidationError `json:"errors,omitempty" yaml:"errors,omitempty"`
	Warnings      []httpvalidator.ValidationError `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// SetupValidateRequestFlags creates and configures a FlagSet for the
// validate-request command.
func SetupValidateRequestFlags() (*flag.FlagSet, *ValidateRequestFlags) {
	fs := flag.NewFlagSet("validate-request", flag.ContinueOnError)
	flags := &ValidateRequestFlags{}

	flags.bind(fs)
	fs.StringVar(&flags.Method, "method", http.MethodGet, "HTTP method of the request")
	fs.StringVar(&flags.Method, "X", http.MethodGet, "HTTP method of the request")
	fs.StringVar(&flags.Path, "path", "", "request path including the base path and query string, e.g. /v1/pets?limit=10")
	fs.StringVar(&flags.ContentType, "content-type", "", "request Content-Type (default application/json when a body is given)")
	fs.StringVar(&flags.Data, "data", "", "request body")
	fs.StringVar(&flags.Data, "d", "", "request body")
	fs.StringVar(&flags.DataFile, "data-file", "", "read the request body from a file, or '-' for stdin")
	fs.Var(&flags.headers, "H", "request header \"Name: value\" (repeatable)")
	fs.Var(&flags.query, "query", "query parameter name=value (repeatable)")
	fs.Int64Var(&flags.MaxBodySize, "max-body-size", 0, "maximum body size in bytes (default 10 MiB)")
	fs.BoolVar(&flags.Quiet, "q", false, "quiet mode: only output validation result, no diagnostic messages")
	fs.BoolVar(&flags.Quiet, "quiet", false, "quiet mode: only output validation result, no diagnostic messages")
	fs.StringVar(&flags.Format, "format", FormatText, "output format: text, json, or yaml")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: schemabuilder validate-request [flags] <file|url>\n\n")
		Writef(fs.Output(), "Validate an HTTP request (parameters, headers and body) against an OpenAPI document.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  schemabuilder validate-request --path /v1/pets?limit=500 openapi.yaml\n")
		Writef(fs.Output(), "  schemabuilder validate-request -X POST --path /v1/pets -d '{\"name\":\"Rex\"}' openapi.yaml\n")
		Writef(fs.Output(), "  schemabuilder validate-request -X GET --path /v1/pets/1 -H 'X-Request-ID: abc' openapi.yaml\n")
		Writef(fs.Output(), "  cat body.json | schemabuilder validate-request -X POST --path /v1/pets --data-file - openapi.yaml\n")
		Writef(fs.Output(), "\nExit Codes:\n")
		Writef(fs.Output(), "  0    The request is valid\n")
		Writef(fs.Output(), "  1    The request is invalid or the document could not be compiled\n")
	}

	return fs, flags
}

// HandleValidateRequest executes the validate-request command
func HandleValidateRequest(args []string) error {
	fs, flags := SetupValidateRequestFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("validate-request command requires exactly one file path or URL")
	}
	if flags.Path == "" {
		return fmt.Errorf("validate-request command requires --path")
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

	req, err := flags.request(ctx, body)
	if err != nil {
		return err
	}
	result, err := v.ValidateRequest(req)
	if err != nil {
		return err
	}

	report := ValidationReport{
		Valid:         result.Valid,
		MatchedPath:   result.MatchedPath,
		MatchedMethod: result.MatchedMethod,
		Errors:        result.Errors,
		Warnings:      result.Warnings,
	}
	if !flags.Quiet && flags.Format == FormatText {
		Writef(stderr, "HTTP Request Validator\n")
		Writef(stderr, "======================\n\n")
		OutputSpecHeader(stderr, specPath, v.Compiled())
		Writef(stderr, "Request: %s %s\n\n", strings.ToUpper(flags.Method), flags.Path)
	}
	return outputReport(report, flags.Format)
}

// request builds the *http.Request described by the flags.
func (f *ValidateRequestFlags) request(ctx context.Context, body []byte) (*http.Request, error) {
	target, err := url.Parse(f.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	if len(f.query.values) > 0 {
		q := target.Query()
		for name, values := range f.query.values {
			for _, v := range values {
				q.Add(name, v)
			}
		}
		target.RawQuery = q.Encode()
	}

	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(f.Method), target.String(), r)
	if err != nil {
		return nil, err
	}
	for name, values := range f.headers.header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	applyContentType(req.Header, f.ContentType, body != nil)
	return req, nil
}

// applyContentType sets an explicit Content-Type, or application/json
// when a body is present without one.
func applyContentType(h http.Header, contentType string, hasBody bool) {
	switch {
	case contentType != "":
		h.Set("Content-Type", contentType)
	case hasBody && h.Get("Content-Type") == "":
		h.Set("Content-Type", "application/json")
	}
}

// newValidator compiles the document and wraps it in an httpvalidator.
func newValidator(ctx context.Context, specPath string, compile *CompileFlags, maxBodySize int64) (*httpvalidator.Validator, error) {
	compiled, err := CompileSpec(ctx, specPath, compile)
	if err != nil {
		return nil, err
	}
	return httpvalidator.New(compiled, httpvalidator.WithMaxBodySize(maxBodySize))
}

// outputReport writes the report to stdout and returns ErrValidationFailed
// when it is not valid.
func outputReport(report ValidationReport, format string) error {
	if format == FormatJSON || format == FormatYAML {
		if err := OutputStructured(stdout, report, format); err != nil {
			return err
		}
	} else {
		renderReport(stdout, report)
	}
	if !report.Valid {
		return ErrValidationFailed
	}
	return nil
}

func renderReport(w io.Writer, report ValidationReport) {
	if report.MatchedPath != "" {
		Writef(w, "Matched: %s %s\n", report.MatchedMethod, report.MatchedPath)
	}
	if report.ResponseKey != "" {
		Writef(w, "Response: %s\n", report.ResponseKey)
	}
	if len(report.Errors) > 0 {
		Writef(w, "Errors (%d):\n", len(report.Errors))
		for _, e := range report.Errors {
			Writef(w, "  %s [%s] %s\n", displayPath(e.DataPath), e.Keyword, e.Message)
		}
	}
	if len(report.Warnings) > 0 {
		Writef(w, "Warnings (%d):\n", len(report.Warnings))
		for _, e := range report.Warnings {
			Writef(w, "  %s [%s] %s\n", displayPath(e.DataPath), e.Keyword, e.Message)
		}
	}
	if report.Valid {
		Writef(w, "✓ Validation passed")
		if len(report.Warnings) > 0 {
			Writef(w, " with %d warning(s)", len(report.Warnings))
		}
	} else {
		Writef(w, "✗ Validation failed: %d error(s)", len(report.Errors))
		if len(report.Warnings) > 0 {
			Writef(w, ", %d warning(s)", len(report.Warnings))
		}
	}
	Writef(w, "\n")
}

func displayPath(dataPath string) string {
	if dataPath == "" {
		return "(root)"
	}
	return dataPath
}
