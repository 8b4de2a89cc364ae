// Package httputil provides the HTTP vocabulary of OpenAPI documents:
// operation methods, response status keys and media types.
package httputil

import (
	"mime"
	"strconv"
	"strings"
)

// HTTP Status Code Constants
const (
	StatusCodeLength = 3   // Standard length of HTTP status codes (e.g., "200", "404")
	MinStatusCode    = 100 // Minimum valid HTTP status code
	MaxStatusCode    = 599 // Maximum valid HTTP status code
	WildcardChar     = 'X' // Wildcard character used in status code patterns (e.g., "2XX")
	DefaultResponse  = "default"
)

// HTTP Method Constants
const (
	MethodGet     = "get"
	MethodPut     = "put"
	MethodPost    = "post"
	MethodDelete  = "delete"
	MethodOptions = "options"
	MethodHead    = "head"
	MethodPatch   = "patch"
	MethodTrace   = "trace" // OAS 3.0+ only
)

// Methods lists the operation keys of a path item in compilation order.
var Methods = []string{
	MethodGet, MethodPut, MethodPost, MethodDelete,
	MethodOptions, MethodHead, MethodPatch, MethodTrace,
}

// IsResponseKey reports whether a key of a responses object names a
// response: "default", a wildcard such as "2XX" or a status code in
// 100-599. Extension keys ("x-...") are not responses.
func IsResponseKey(code string) bool {
	if code == DefaultResponse {
		return true
	}
	if len(code) != StatusCodeLength {
		return false
	}
	if (code[1] == WildcardChar || code[1] == 'x') && code[2] == code[1] {
		return code[0] >= '1' && code[0] <= '5'
	}
	for i := range code {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	status, err := strconv.Atoi(code)
	return err == nil && status >= MinStatusCode && status <= MaxStatusCode
}

// StatusCandidates returns the response keys that may describe a response
// with the given status, most specific first: "404", "4XX", "4xx",
// "default".
func StatusCandidates(status int) []string {
	code := strconv.Itoa(status)
	if len(code) != StatusCodeLength {
		return []string{code, DefaultResponse}
	}
	return []string{code, code[:1] + "XX", code[:1] + "xx", DefaultResponse}
}

// IsValidMediaType validates a media type string according to RFC 2045/2046.
// Handles wildcards (*/* and type/*) and prevents invalid combinations (*/subtype).
func IsValidMediaType(mediaType string) bool {
	if mediaType == "*/*" {
		return true
	}

	if strings.HasSuffix(mediaType, "/*") {
		parts := strings.Split(mediaType, "/")
		return len(parts) == 2 && parts[0] != "" && parts[0] != "*"
	}

	// mime accepts a bare type such as "json"; a media type needs both parts.
	essence, _, _ := strings.Cut(mediaType, ";")
	typ, subtype, found := strings.Cut(strings.TrimSpace(essence), "/")
	if !found || typ == "" || subtype == "" {
		return false
	}

	_, _, err := mime.ParseMediaType(mediaType)
	return err == nil
}
