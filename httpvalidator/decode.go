package httpvalidator

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/erraggy/schemabuilder/internal/contenttype"
	"github.com/goccy/go-json"
)

// multipartMemory is the in-memory budget of a parsed multipart form.
const multipartMemory = 32 << 20

// decodedBody is a body read from an HTTP message.
type decodedBody struct {
	// value is the decoded body, nil when the body is empty
	value any
	// files are the multipart file field names, sorted
	files []string
	// err describes a body that could not be decoded
	err *ValidationError
}

// readBody reads at most limit bytes of body. It returns the bytes read,
// whether the body was larger than limit, and a reader that replays the
// whole body.
func readBody(body io.ReadCloser, limit int64) ([]byte, bool, io.ReadCloser, error) {
	if body == nil || body == http.NoBody {
		return nil, false, body, nil
	}
	buf, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, false, body, fmt.Errorf("httpvalidator: failed to read body: %w", err)
	}
	replay := struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(buf), body), body}
	if int64(len(buf)) > limit {
		return buf[:limit], true, replay, nil
	}
	return buf, false, replay, nil
}

// tooLarge is the error reported for a body over the size limit.
func tooLarge(limit int64) ValidationError {
	return ValidationError{
		DataPath:   ".body",
		Keyword:    KeywordMaxBodySize,
		Message:    fmt.Sprintf("body exceeds maximum size of %d bytes", limit),
		Params:     map[string]any{"limit": limit},
		SchemaPath: "#/body",
	}
}

// decodeBody decodes raw by its Content-Type: JSON (including "+json"
// suffixes), urlencoded and multipart forms into objects; anything else is
// kept as a string.
func decodeBody(raw []byte, contentType string) decodedBody {
	if len(raw) == 0 {
		return decodedBody{}
	}
	mediaType := contenttype.Normalize(contentType)
	switch {
	case mediaType == "" || mediaType == contenttype.JSON || strings.HasSuffix(mediaType, "+json"):
		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			return decodedBody{err: parseError("invalid JSON body: " + err.Error())}
		}
		return decodedBody{value: value}

	case mediaType == "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(raw))
		if err != nil {
			return decodedBody{err: parseError("invalid form body: " + err.Error())}
		}
		return decodedBody{value: flatten(values)}

	case mediaType == "multipart/form-data":
		return decodeMultipart(raw, contentType)

	default:
		return decodedBody{value: string(raw)}
	}
}

func decodeMultipart(raw []byte, contentType string) decodedBody {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil || params["boundary"] == "" {
		return decodedBody{err: parseError("multipart body without boundary")}
	}
	form, err := multipart.NewReader(bytes.NewReader(raw), params["boundary"]).ReadForm(multipartMemory)
	if err != nil {
		return decodedBody{err: parseError("invalid multipart body: " + err.Error())}
	}
	defer func() { _ = form.RemoveAll() }()

	value := flatten(form.Value)
	files := make([]string, 0, len(form.File))
	for name, headers := range form.File {
		files = append(files, name)
		// File parts stand in the body as their file names.
		if _, ok := value[name]; !ok && len(headers) > 0 {
			value[name] = headers[0].Filename
		}
	}
	sort.Strings(files)
	return decodedBody{value: value, files: files}
}

func parseError(message string) *ValidationError {
	return &ValidationError{
		DataPath:   ".body",
		Keyword:    KeywordParse,
		Message:    message,
		SchemaPath: "#/body",
	}
}

// flatten turns multi-valued fields into a string for one value or a
// []string for several.
func flatten(values map[string][]string) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		if len(v) == 1 {
			out[k] = v[0]
		} else {
			out[k] = v
		}
	}
	return out
}

// headerMap lower-cases header names and joins repeated values with ",".
func headerMap(h http.Header) map[string]any {
	out := make(map[string]any, len(h))
	for name, values := range h {
		out[strings.ToLower(name)] = strings.Join(values, ",")
	}
	return out
}
