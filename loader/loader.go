// Package loader reads OpenAPI documents from files, URLs, bytes or decoded
// maps and prepares the two views the schema builder works from: the
// document as written, with its $ref pointers intact, and a dereferenced
// copy in which every non-circular $ref has been inlined.
//
// JSON and YAML input are both accepted. YAML values are normalized into
// the shapes encoding/json produces so that downstream code only ever sees
// map[string]any, []any, string, float64, bool and nil.
package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/erraggy/schemabuilder"
	"github.com/erraggy/schemabuilder/internal/schemautil"
	"github.com/erraggy/schemabuilder/oaserrors"
	"go.yaml.in/yaml/v4"
)

// SourceFormat represents the format of the source document
type SourceFormat string

const (
	// SourceFormatYAML indicates the source was in YAML format
	SourceFormatYAML SourceFormat = "yaml"
	// SourceFormatJSON indicates the source was in JSON format
	SourceFormatJSON SourceFormat = "json"
	// SourceFormatUnknown indicates the source format could not be determined
	SourceFormatUnknown SourceFormat = "unknown"
)

// Document is a loaded OpenAPI description.
type Document struct {
	// Version is the OpenAPI family of the document
	Version Version
	// VersionString is the version exactly as declared
	VersionString string
	// Referenced is the document as written, with $ref pointers intact
	Referenced map[string]any
	// Dereferenced is a copy of Referenced with every non-circular $ref inlined
	Dereferenced map[string]any
	// SourcePath is the file path or URL the document was read from, if any
	SourcePath string
	// SourceFormat is the detected input format
	SourceFormat SourceFormat
	// HasCircularRefs reports that Dereferenced still contains $ref pointers
	HasCircularRefs bool
}

// Loader reads and dereferences OpenAPI documents.
type Loader struct {
	// BaseDir is the directory relative file references resolve against.
	// When empty, the directory of the source file is used, falling back to
	// the working directory.
	BaseDir string
	// ResolveHTTPRefs enables fetching of http(s) references.
	ResolveHTTPRefs bool
	// HTTPClient is used for remote documents. Defaults to a client with a
	// 30 second timeout.
	HTTPClient *http.Client
	// UserAgent is sent when fetching remote documents.
	UserAgent string
	// Logger receives diagnostic output. Defaults to NopLogger.
	Logger Logger
}

// New creates a Loader with default settings.
func New() *Loader {
	return &Loader{
		UserAgent: schemabuilder.UserAgent(),
		Logger:    NopLogger{},
	}
}

// Load reads a document from a file path or an http(s) URL.
func (l *Loader) Load(ctx context.Context, source string) (*Document, error) {
	if isURL(source) {
		data, contentType, err := l.fetch(ctx, source)
		if err != nil {
			return nil, &oaserrors.ParseError{Path: source, Message: "failed to fetch document", Cause: err}
		}
		format := detectFormatFromURL(source, contentType)
		if format == SourceFormatUnknown {
			format = detectFormatFromContent(data)
		}
		l.logger().Debug("fetched document", "url", source, "bytes", len(data))
		return l.parse(ctx, data, source, format, l.BaseDir, source)
	}

	info, err := os.Stat(source)
	if err != nil {
		return nil, &oaserrors.ParseError{Path: source, Message: "failed to read file", Cause: err}
	}
	if info.Size() > MaxFileSize {
		return nil, &oaserrors.ResourceLimitError{
			ResourceType: oaserrors.ResourceFileSize,
			Limit:        MaxFileSize,
			Actual:       info.Size(),
			Message:      source,
		}
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, &oaserrors.ParseError{Path: source, Message: "failed to read file", Cause: err}
	}
	baseDir := l.BaseDir
	if baseDir == "" {
		baseDir = filepath.Dir(source)
	}
	format := detectFormatFromPath(source)
	if format == SourceFormatUnknown {
		format = detectFormatFromContent(data)
	}
	return l.parse(ctx, data, source, format, baseDir, "")
}

// LoadBytes parses a JSON or YAML document held in memory.
func (l *Loader) LoadBytes(ctx context.Context, data []byte) (*Document, error) {
	if int64(len(data)) > MaxFileSize {
		return nil, &oaserrors.ResourceLimitError{
			ResourceType: oaserrors.ResourceFileSize,
			Limit:        MaxFileSize,
			Actual:       int64(len(data)),
		}
	}
	return l.parse(ctx, data, "", detectFormatFromContent(data), l.baseDir(), "")
}

// LoadMap prepares an already decoded document. The input map is copied
// and never modified.
func (l *Loader) LoadMap(ctx context.Context, doc map[string]any) (*Document, error) {
	if doc == nil {
		return nil, &oaserrors.ConfigError{Option: "document", Message: "document is nil"}
	}
	raw, _ := schemautil.Normalize(schemautil.CopyMap(doc)).(map[string]any)
	return l.build(ctx, raw, "", SourceFormatUnknown, l.baseDir(), "")
}

func (l *Loader) parse(ctx context.Context, data []byte, source string, format SourceFormat, baseDir, baseURL string) (*Document, error) {
	var decoded any
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		return nil, &oaserrors.ParseError{Path: source, Message: "failed to parse document", Cause: err}
	}
	raw, ok := schemautil.Normalize(decoded).(map[string]any)
	if !ok {
		return nil, &oaserrors.ParseError{Path: source, Message: "document root must be an object"}
	}
	return l.build(ctx, raw, source, format, baseDir, baseURL)
}

func (l *Loader) build(ctx context.Context, raw map[string]any, source string, format SourceFormat, baseDir, baseURL string) (*Document, error) {
	declared, version, err := DetectVersion(raw)
	if err != nil {
		if parseErr, ok := err.(*oaserrors.ParseError); ok {
			parseErr.Path = source
		}
		return nil, err
	}

	var fetch fetchFunc
	if l.ResolveHTTPRefs || baseURL != "" {
		fetch = func(u string) ([]byte, string, error) { return l.fetch(ctx, u) }
	}
	resolver := newRefResolver(baseDir, baseURL, fetch)
	deref := schemautil.CopyMap(raw)
	if err := resolver.resolveAll(deref); err != nil {
		return nil, err
	}
	if resolver.hasCircularRefs {
		l.logger().Debug("document contains circular references", "source", source)
	}

	return &Document{
		Version:         version,
		VersionString:   declared,
		Referenced:      raw,
		Dereferenced:    deref,
		SourcePath:      source,
		SourceFormat:    format,
		HasCircularRefs: resolver.hasCircularRefs,
	}, nil
}

func (l *Loader) baseDir() string {
	if l.BaseDir != "" {
		return l.BaseDir
	}
	return "."
}

func (l *Loader) logger() Logger {
	if l.Logger == nil {
		return NopLogger{}
	}
	return l.Logger
}

// fetch performs a GET request honoring ctx, returning the body and the
// Content-Type header.
func (l *Loader) fetch(ctx context.Context, urlStr string) ([]byte, string, error) {
	client := l.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, "", fmt.Errorf("loader: failed to create request: %w", err)
	}
	userAgent := l.UserAgent
	if userAgent == "" {
		userAgent = schemabuilder.UserAgent()
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("loader: failed to fetch URL: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("loader: HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxFileSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("loader: failed to read response body: %w", err)
	}
	if int64(len(data)) > MaxFileSize {
		return nil, "", &oaserrors.ResourceLimitError{
			ResourceType: oaserrors.ResourceFileSize,
			Limit:        MaxFileSize,
			Message:      urlStr,
		}
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// isURL reports whether s is an http or https URL.
func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// detectFormatFromPath detects the format from a file path extension.
func detectFormatFromPath(path string) SourceFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return SourceFormatJSON
	case ".yaml", ".yml":
		return SourceFormatYAML
	default:
		return SourceFormatUnknown
	}
}

// detectFormatFromContent guesses the format from the first non-blank byte.
func detectFormatFromContent(data []byte) SourceFormat {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return SourceFormatUnknown
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return SourceFormatJSON
	}
	return SourceFormatYAML
}

// detectFormatFromURL detects the format from the URL path, then from the
// Content-Type header.
func detectFormatFromURL(urlStr string, contentType string) SourceFormat {
	if parsed, err := url.Parse(urlStr); err == nil && parsed.Path != "" {
		if format := detectFormatFromPath(parsed.Path); format != SourceFormatUnknown {
			return format
		}
	}
	mediaType, _, _ := strings.Cut(strings.ToLower(contentType), ";")
	switch strings.TrimSpace(mediaType) {
	case "application/json":
		return SourceFormatJSON
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return SourceFormatYAML
	default:
		return SourceFormatUnknown
	}
}
