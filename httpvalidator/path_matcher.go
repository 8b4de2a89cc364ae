package httpvalidator

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// PathMatcher matches request paths against one compiled path such as
// "/v1/pets/:petId" and extracts the values of its ":name" segments.
type PathMatcher struct {
	// template is the compiled path (e.g., "/v1/pets/:petId")
	template string

	// regex is the compiled pattern for matching
	regex *regexp.Regexp

	// paramNames are the parameter names in order of appearance
	paramNames []string

	// specificity is used for sorting matchers (higher = more specific)
	specificity int
}

// isParamChar reports whether c may appear in a ":name" parameter.
func isParamChar(c byte) bool {
	return c == '_' || c == '-' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// NewPathMatcher creates a PathMatcher from a compiled path. A parameter
// starts with ':' and runs over letters, digits, '_' and '-'.
//
// Returns an error for empty templates, empty or duplicate parameter names.
func NewPathMatcher(template string) (*PathMatcher, error) {
	if template == "" {
		return nil, fmt.Errorf("path template cannot be empty")
	}

	var regexBuf strings.Builder
	regexBuf.WriteString("^")

	paramNames := []string{}
	specificity := 0

	i := 0
	for i < len(template) {
		if template[i] == ':' {
			end := i + 1
			for end < len(template) && isParamChar(template[end]) {
				end++
			}
			paramName := template[i+1 : end]
			if paramName == "" {
				return nil, fmt.Errorf("empty path parameter at position %d in template %q", i, template)
			}
			for _, existing := range paramNames {
				if existing == paramName {
					return nil, fmt.Errorf("duplicate path parameter %q in template %q", paramName, template)
				}
			}
			paramNames = append(paramNames, paramName)

			// Path segments are separated by / (RFC 3986)
			regexBuf.WriteString("([^/]+)")
			i = end
			specificity--
			continue
		}

		c := template[i]
		regexBuf.WriteString(regexp.QuoteMeta(string(c)))
		i++
		if c != '/' {
			specificity++
		}
	}

	regexBuf.WriteString("$")

	regex, err := regexp.Compile(regexBuf.String())
	if err != nil {
		return nil, fmt.Errorf("failed to compile path pattern for template %q: %w", template, err)
	}

	return &PathMatcher{
		template:    template,
		regex:       regex,
		paramNames:  paramNames,
		specificity: specificity,
	}, nil
}

// Match checks if the given path matches this template and extracts parameters.
// Returns true and a map of parameter names to values if the path matches.
// Returns false and nil if the path does not match.
func (pm *PathMatcher) Match(path string) (bool, map[string]string) {
	matches := pm.regex.FindStringSubmatch(path)
	if matches == nil {
		return false, nil
	}
	if len(matches) != len(pm.paramNames)+1 {
		return false, nil
	}

	params := make(map[string]string, len(pm.paramNames))
	for i, name := range pm.paramNames {
		params[name] = matches[i+1]
	}
	return true, params
}

// Template returns the compiled path.
func (pm *PathMatcher) Template() string {
	return pm.template
}

// ParamNames returns the list of parameter names in order of appearance.
func (pm *PathMatcher) ParamNames() []string {
	return pm.paramNames
}

// PathMatcherSet manages a collection of path matchers and finds the best match
// for a given request path.
type PathMatcherSet struct {
	// matchers is the list of matchers sorted by specificity
	matchers []*PathMatcher
}

// NewPathMatcherSet creates a new PathMatcherSet from a list of compiled paths.
// The matchers are sorted by specificity so that more specific paths match first.
func NewPathMatcherSet(templates []string) (*PathMatcherSet, error) {
	matchers := make([]*PathMatcher, 0, len(templates))
	for _, template := range templates {
		matcher, err := NewPathMatcher(template)
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, matcher)
	}

	// Sort by specificity (highest first), then by template length (longest first),
	// then alphabetically for stability
	sort.Slice(matchers, func(i, j int) bool {
		if matchers[i].specificity != matchers[j].specificity {
			return matchers[i].specificity > matchers[j].specificity
		}
		if len(matchers[i].template) != len(matchers[j].template) {
			return len(matchers[i].template) > len(matchers[j].template)
		}
		return matchers[i].template < matchers[j].template
	})

	return &PathMatcherSet{matchers: matchers}, nil
}

// Match finds the best matching template for the given request path.
// Exact segments win over parameters, then longer templates over shorter.
func (pms *PathMatcherSet) Match(path string) (template string, params map[string]string, found bool) {
	for _, matcher := range pms.matchers {
		if matched, params := matcher.Match(path); matched {
			return matcher.template, params, true
		}
	}
	return "", nil, false
}

// Templates returns all templates in match order.
func (pms *PathMatcherSet) Templates() []string {
	templates := make([]string, len(pms.matchers))
	for i, m := range pms.matchers {
		templates[i] = m.template
	}
	return templates
}
