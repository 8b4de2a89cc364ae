package pathutil

import (
	"net/url"
	"strings"

	"github.com/erraggy/schemabuilder/internal/schemautil"
	"github.com/samber/lo"
)

// BasePaths returns the base paths operations are served under: the path
// part of every OpenAPI 3 server URL, with server variables replaced by
// their defaults, or the OpenAPI 2 basePath. Trailing slashes are removed.
// A document that declares none yields one empty base path.
func BasePaths(doc map[string]any, oas3 bool) []string {
	var bases []string
	if oas3 {
		for _, item := range schemautil.Slice(doc, "servers") {
			server, ok := item.(map[string]any)
			if !ok {
				continue
			}
			raw := expandVariables(schemautil.String(server, "url"), schemautil.Map(server, "variables"))
			bases = append(bases, serverPath(raw))
		}
	} else {
		bases = append(bases, strings.TrimRight(schemautil.String(doc, "basePath"), "/"))
	}
	bases = lo.Uniq(bases)
	if len(bases) == 0 {
		return []string{""}
	}
	return bases
}

// expandVariables substitutes "{name}" with the default of each server
// variable. Unknown variables are left as written.
func expandVariables(raw string, variables map[string]any) string {
	return PathParamRegex.ReplaceAllStringFunc(raw, func(match string) string {
		name := match[1 : len(match)-1]
		if def, ok := schemautil.Map(variables, name)["default"].(string); ok {
			return def
		}
		return match
	})
}

// serverPath extracts the path of an absolute or relative server URL.
func serverPath(raw string) string {
	if raw == "" {
		return ""
	}
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		raw = u.Path
	} else if i := strings.Index(raw, "://"); i >= 0 {
		rest := raw[i+3:]
		if j := strings.Index(rest, "/"); j >= 0 {
			raw = rest[j:]
		} else {
			raw = ""
		}
	}
	raw = strings.TrimRight(raw, "/")
	if raw != "" && !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return raw
}
