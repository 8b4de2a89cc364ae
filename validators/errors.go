package validators

import (
	"regexp"
	"strconv"
	"strings"
)

// ValidationError is one structured validation failure. Consumers switch on
// Keyword and read the keyword specific details from Params.
type ValidationError struct {
	// DataPath locates the failing value, e.g. ".pets[0].name" or ".headers['x-id']"
	DataPath string `json:"dataPath" yaml:"dataPath"`
	// Keyword is the failing schema keyword, e.g. "required", "enum", "type"
	Keyword string `json:"keyword" yaml:"keyword"`
	// Message is a human readable description
	Message string `json:"message" yaml:"message"`
	// Params holds keyword specific details, e.g. {"missingProperty": "name"}
	Params map[string]any `json:"params" yaml:"params"`
	// SchemaPath locates the keyword in the compiled schema, e.g. "#/properties/name/type"
	SchemaPath string `json:"schemaPath" yaml:"schemaPath"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.DataPath == "" {
		return e.Message
	}
	return e.DataPath + " " + e.Message
}

var identifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// PropertyPath returns the data path segment for an object property:
// ".name" for identifiers and "['odd-name']" otherwise.
func PropertyPath(name string) string {
	if identifier.MatchString(name) {
		return "." + name
	}
	return "['" + strings.ReplaceAll(name, "'", "\\'") + "']"
}

// IndexPath returns the data path segment for an array index.
func IndexPath(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}

// Prefix returns a copy of errs with prefix prepended to every DataPath and
// inserted after the leading "#" of every SchemaPath. A prefix of ".body"
// turns "#/required" into "#/body/required".
func Prefix(errs []ValidationError, prefix string) []ValidationError {
	if len(errs) == 0 {
		return nil
	}
	schemaPrefix := "/" + strings.TrimLeft(prefix, ".")
	out := make([]ValidationError, len(errs))
	for i, e := range errs {
		e.DataPath = prefix + e.DataPath
		e.SchemaPath = "#" + schemaPrefix + strings.TrimPrefix(e.SchemaPath, "#")
		out[i] = e
	}
	return out
}
