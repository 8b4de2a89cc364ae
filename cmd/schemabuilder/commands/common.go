// Package commands provides CLI command handlers for schemabuilder.
package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/erraggy/schemabuilder"
	"github.com/erraggy/schemabuilder/apischema"
	"github.com/erraggy/schemabuilder/internal/cliutil"
	"github.com/erraggy/schemabuilder/internal/fileutil"
	"github.com/erraggy/schemabuilder/internal/httputil"
	"github.com/erraggy/schemabuilder/internal/pathutil"
	"github.com/goccy/go-json"
	"go.yaml.in/yaml/v4"
)

// Output format constants
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// StdinFilePath is the special file path used to indicate reading from stdin.
const StdinFilePath = "-"

// ErrValidationFailed is returned by validation commands when the checked
// request or response does not conform. main maps it to exit code 1.
var ErrValidationFailed = errors.New("validation failed")

// stdin is replaced in tests.
var stdin io.Reader = os.Stdin

// ValidateOutputFormat validates an output format and returns an error if invalid.
func ValidateOutputFormat(format string) error {
	if format != FormatText && format != FormatJSON && format != FormatYAML {
		return fmt.Errorf("invalid format '%s'. Valid formats: %s, %s, %s", format, FormatText, FormatJSON, FormatYAML)
	}
	return nil
}

// ValidateContentType checks an optional --content-type value.
func ValidateContentType(contentType string) error {
	if contentType != "" && !httputil.IsValidMediaType(contentType) {
		return fmt.Errorf("invalid content type '%s'", contentType)
	}
	return nil
}

// MarshalStructured marshals data in the specified format (json or yaml).
func MarshalStructured(data any, format string) ([]byte, error) {
	var out []byte
	var err error

	switch format {
	case FormatJSON:
		out, err = json.MarshalIndent(data, "", "  ")
	case FormatYAML:
		out, err = yaml.Marshal(data)
	default:
		return nil, fmt.Errorf("invalid format for structured output: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("marshaling to %s: %w", format, err)
	}
	return out, nil
}

// OutputStructured writes data in the specified format (json or yaml) to w.
func OutputStructured(w io.Writer, data any, format string) error {
	out, err := MarshalStructured(data, format)
	if err != nil {
		return err
	}
	cliutil.Writef(w, "%s\n", strings.TrimRight(string(out), "\n"))
	return nil
}

// WriteOutputFile writes data to path after rejecting symlinks and
// resolving the path.
func WriteOutputFile(path string, data []byte) error {
	cleaned, err := pathutil.SanitizeOutputPath(path)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cleaned, data, fileutil.OwnerReadWrite); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	return nil
}

// FormatSpecPath returns a display-friendly path for the specification.
// Returns "<stdin>" if the path is StdinFilePath, otherwise returns the path as-is.
func FormatSpecPath(specPath string) string {
	if specPath == StdinFilePath {
		return "<stdin>"
	}
	return specPath
}

// Writef writes formatted output to the writer.
func Writef(w io.Writer, format string, args ...any) {
	cliutil.Writef(w, format, args...)
}

// OutputSpecHeader outputs the common specification header to w.
func OutputSpecHeader(w io.Writer, specPath string, compiled *apischema.CompiledSchema) {
	Writef(w, "schemabuilder version: %s\n", schemabuilder.Version())
	Writef(w, "Specification: %s\n", FormatSpecPath(specPath))
	Writef(w, "OAS Version: %s\n", compiled.Version)
	if len(compiled.BasePaths) > 0 {
		Writef(w, "Base Paths: %s\n", strings.Join(compiled.BasePaths, ", "))
	}
	Writef(w, "Paths: %d\n", len(compiled.Paths()))
	Writef(w, "Operations: %d\n", compiled.OperationCount())
}

// CompileFlags holds the compilation switches shared by every command
// that builds validators from a document.
type CompileFlags struct {
	ContentTypeValidation bool
	FormFieldsInBody      bool
	OptionalNullable      bool
	ValidateDocument      bool
	NoRequests            bool
	NoResponses           bool
}

// bind registers the compile flags on fs.
func (c *CompileFlags) bind(fs *flag.FlagSet) {
	fs.BoolVar(&c.ContentTypeValidation, "content-type-validation", false, "reject Content-Types the operation does not declare")
	fs.BoolVar(&c.FormFieldsInBody, "form-fields-in-body", false, "validate OpenAPI 2 formData fields as the request body")
	fs.BoolVar(&c.OptionalNullable, "optional-nullable", false, "accept null for every optional object property")
	fs.BoolVar(&c.ValidateDocument, "validate-document", false, "meta-validate the document before compiling")
	fs.BoolVar(&c.NoRequests, "no-requests", false, "skip building request validators")
	fs.BoolVar(&c.NoResponses, "no-responses", false, "skip building response validators")
}

// options converts the flags into apischema options.
func (c *CompileFlags) options() []apischema.Option {
	return []apischema.Option{
		apischema.WithContentTypeValidation(c.ContentTypeValidation),
		apischema.WithExpectFormFieldsInBody(c.FormFieldsInBody),
		apischema.WithMakeOptionalAttributesNullable(c.OptionalNullable),
		apischema.WithValidateDocument(c.ValidateDocument),
		apischema.WithBuildRequests(!c.NoRequests),
		apischema.WithBuildResponses(!c.NoResponses),
	}
}

// CompileSpec compiles the document at specPath, a file path, a URL, or
// StdinFilePath.
func CompileSpec(ctx context.Context, specPath string, flags *CompileFlags) (*apischema.CompiledSchema, error) {
	opts := flags.options()
	switch {
	case specPath == StdinFilePath:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		opts = append(opts, apischema.WithBytes(data))
	case strings.HasPrefix(specPath, "http://") || strings.HasPrefix(specPath, "https://"):
		opts = append(opts, apischema.WithURL(specPath))
	default:
		opts = append(opts, apischema.WithFilePath(specPath))
	}

	compiled, err := apischema.BuildWithOptions(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", FormatSpecPath(specPath), err)
	}
	return compiled, nil
}

// readData returns the payload named by a --data or --data-file flag.
// A data file of "-" reads stdin. Both empty means no payload.
func readData(data, dataFile string) ([]byte, error) {
	switch {
	case data != "" && dataFile != "":
		return nil, fmt.Errorf("use only one of --data and --data-file")
	case data != "":
		return []byte(data), nil
	case dataFile == StdinFilePath:
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return raw, nil
	case dataFile != "":
		raw, err := os.ReadFile(dataFile) //nolint:gosec // G304: user-specified input file
		if err != nil {
			return nil, fmt.Errorf("reading data file: %w", err)
		}
		return raw, nil
	default:
		return nil, nil
	}
}
