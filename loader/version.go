package loader

import (
	"strconv"
	"strings"

	"github.com/erraggy/schemabuilder/oaserrors"
)

// Version identifies the OpenAPI family a document belongs to. The family
// decides how parameters, bodies and responses are laid out and which JSON
// Schema dialect its schemas are written in.
type Version int

const (
	// VersionUnknown is the zero value.
	VersionUnknown Version = iota
	// Version20 is Swagger 2.0.
	Version20
	// Version30 is OpenAPI 3.0.x, whose schemas are a JSON Schema draft 4 dialect.
	Version30
	// Version31 is OpenAPI 3.1 and later, whose schemas are JSON Schema 2020-12.
	Version31
)

// String returns the family name.
func (v Version) String() string {
	switch v {
	case Version20:
		return "2.0"
	case Version30:
		return "3.0"
	case Version31:
		return "3.1"
	default:
		return "unknown"
	}
}

// IsOAS3 reports whether v is any OpenAPI 3 family.
func (v Version) IsOAS3() bool {
	return v == Version30 || v == Version31
}

// ParseVersion maps a declared "swagger" or "openapi" value onto its family.
func ParseVersion(s string) Version {
	switch {
	case s == "2.0" || s == "2":
		return Version20
	case strings.HasPrefix(s, "3.0"):
		return Version30
	case strings.HasPrefix(s, "3."):
		return Version31
	default:
		return VersionUnknown
	}
}

// DetectVersion reads the declared version of a document. An unquoted
// "swagger: 2.0" in YAML decodes as a number and is accepted.
func DetectVersion(doc map[string]any) (string, Version, error) {
	for _, key := range []string{"openapi", "swagger"} {
		raw, ok := doc[key]
		if !ok {
			continue
		}
		var declared string
		switch v := raw.(type) {
		case string:
			declared = v
		case float64:
			declared = strconv.FormatFloat(v, 'f', 1, 64)
		default:
			return "", VersionUnknown, &oaserrors.ParseError{
				Message: "invalid " + key + " field type",
			}
		}
		version := ParseVersion(declared)
		if version == VersionUnknown || (key == "swagger") != (version == Version20) {
			return declared, VersionUnknown, &oaserrors.ParseError{
				Message: "unsupported " + key + " version: " + declared,
			}
		}
		return declared, version, nil
	}
	return "", VersionUnknown, &oaserrors.ParseError{
		Message: "unable to detect OpenAPI version: document must contain 'swagger' or 'openapi' field",
	}
}
