package pathutil

import (
	"regexp"
	"strings"
)

// PathParamRegex matches path template parameters like {paramName}.
// It captures the parameter name inside the braces.
var PathParamRegex = regexp.MustCompile(`\{([^}]+)\}`)

// Template rewrites "{param}" template segments into ":param".
func Template(path string) string {
	return PathParamRegex.ReplaceAllString(path, ":$1")
}

// Join prefixes path with a base path. Base paths carry no trailing slash.
func Join(base, path string) string {
	base = strings.TrimRight(base, "/")
	if path == "" || path == "/" {
		if base == "" {
			return "/"
		}
		return base
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}
