// Package contenttype decides which media types a body or response may be
// sent with and normalizes Content-Type header values for comparison.
package contenttype

import (
	"sort"
	"strings"

	"github.com/samber/lo"
)

// JSON is the media type assumed for bodies declared without one and for
// responses sent without a Content-Type header.
const JSON = "application/json"

// Resolve returns the allow-list enforced for a request or response, or nil
// when enforcement is disabled or nothing is declared. Duplicates are
// dropped and declaration order is kept.
func Resolve(declared []string, enabled bool) []string {
	if !enabled || len(declared) == 0 {
		return nil
	}
	return lo.Uniq(declared)
}

// Pool merges the media types declared by several responses into one list.
// A response that declares a body without a media type contributes JSON.
func Pool(perResponse ...[]string) []string {
	var all []string
	for _, types := range perResponse {
		all = append(all, types...)
	}
	return lo.Uniq(all)
}

// Normalize strips parameters such as charset from a Content-Type value and
// lower-cases the media type.
func Normalize(value string) string {
	mediaType, _, _ := strings.Cut(value, ";")
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// Allowed reports whether the received Content-Type matches one of allowed,
// ignoring parameters and case.
func Allowed(received string, allowed []string) bool {
	got := Normalize(received)
	return lo.ContainsBy(allowed, func(a string) bool {
		return Normalize(a) == got
	})
}

// Keys returns the media types of a content map, sorted.
func Keys(content map[string]any) []string {
	keys := lo.Keys(content)
	sort.Strings(keys)
	return keys
}

// Canonical picks the media type used as the single default body of an
// operation: JSON when declared, otherwise the first in sorted order.
func Canonical(types []string) string {
	if len(types) == 0 {
		return ""
	}
	if found, ok := lo.Find(types, func(t string) bool { return Normalize(t) == JSON }); ok {
		return found
	}
	sorted := append([]string(nil), types...)
	sort.Strings(sorted)
	return sorted[0]
}
