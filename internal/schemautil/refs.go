package schemautil

import "strings"

// RewriteLocalRefs prefixes every local $ref ("#/...") in v with resource so
// the reference resolves against a resource registered under that name
// instead of the schema it is embedded in. v is modified in place.
func RewriteLocalRefs(v any, resource string) {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			if k == "$ref" {
				if ref, ok := item.(string); ok && strings.HasPrefix(ref, "#") {
					t[k] = resource + ref
				}
				continue
			}
			RewriteLocalRefs(item, resource)
		}
	case []any:
		for _, item := range t {
			RewriteLocalRefs(item, resource)
		}
	}
}
