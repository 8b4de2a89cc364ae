package loader

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/erraggy/schemabuilder/internal/schemautil"
	"github.com/erraggy/schemabuilder/oaserrors"
	"go.yaml.in/yaml/v4"
)

const (
	// MaxRefDepth is the maximum nesting depth walked while resolving $ref.
	MaxRefDepth = 100

	// MaxCachedDocuments is the maximum number of external documents loaded
	// while resolving a single document.
	MaxCachedDocuments = 100

	// MaxFileSize is the maximum size in bytes of any loaded document.
	MaxFileSize = 10 * 1024 * 1024
)

// fetchFunc retrieves a remote document, returning its body and Content-Type.
type fetchFunc func(url string) ([]byte, string, error)

// refResolver inlines $ref targets into a document. References that would
// recurse into themselves are left in place and recorded as circular.
type refResolver struct {
	// source is an untouched copy of the document; local refs resolve
	// against it so results do not depend on walk order
	source map[string]any
	// resolving holds the JSON pointers on the current walk stack: refs being
	// expanded and the document locations being walked
	resolving map[string]bool
	// documents caches external documents by absolute path or URL
	documents map[string]map[string]any
	baseDir   string
	baseURL   string
	// fetch is nil when remote references are disabled
	fetch           fetchFunc
	hasCircularRefs bool
}

func newRefResolver(baseDir, baseURL string, fetch fetchFunc) *refResolver {
	return &refResolver{
		resolving: make(map[string]bool),
		documents: make(map[string]map[string]any),
		baseDir:   baseDir,
		baseURL:   baseURL,
		fetch:     fetch,
	}
}

// resolveAll replaces every resolvable $ref in doc with a copy of its target.
func (r *refResolver) resolveAll(doc map[string]any) error {
	r.hasCircularRefs = false
	r.source = schemautil.CopyMap(doc)
	return r.resolveRecursive(doc, "#", 0)
}

// resolveRecursive expands the refs below current. pointer is the location
// of current in the source document, or "" when it came from an external
// document.
func (r *refResolver) resolveRecursive(current any, pointer string, depth int) error {
	if depth > MaxRefDepth {
		return &oaserrors.ResourceLimitError{
			ResourceType: oaserrors.ResourceRefDepth,
			Limit:        MaxRefDepth,
			Actual:       int64(depth),
			Message:      "structure too deeply nested",
		}
	}

	switch v := current.(type) {
	case map[string]any:
		ref, ok := v["$ref"].(string)
		if !ok {
			if pointer != "" && !r.resolving[pointer] {
				r.resolving[pointer] = true
				defer delete(r.resolving, pointer)
			}
			for k, val := range v {
				if err := r.resolveRecursive(val, childPointer(pointer, k), depth+1); err != nil {
					return err
				}
			}
			return nil
		}

		// A reference to the document root, or to a location already being
		// expanded or walked further up the stack, stays in place.
		if ref == "#" || ref == "#/" || r.resolving[ref] {
			r.hasCircularRefs = true
			return nil
		}

		// The ref stays marked until its expanded content has been walked so
		// that self-references (Node.next -> Node) are detected.
		r.resolving[ref] = true
		defer delete(r.resolving, ref)

		resolved, err := r.resolve(ref)
		if err != nil {
			var refErr *oaserrors.ReferenceError
			var limitErr *oaserrors.ResourceLimitError
			if errors.As(err, &refErr) || errors.As(err, &limitErr) {
				return err
			}
			return &oaserrors.ReferenceError{Ref: ref, RefType: refType(ref), Cause: err}
		}
		resolvedMap, ok := resolved.(map[string]any)
		if !ok {
			return &oaserrors.ReferenceError{
				Ref:     ref,
				RefType: refType(ref),
				Message: fmt.Sprintf("target is not an object (got %T)", resolved),
			}
		}

		for k := range v {
			delete(v, k)
		}
		// Copy so that expanding A -> B -> A never creates shared Go values.
		for k, val := range resolvedMap {
			v[k] = schemautil.DeepCopy(val)
		}
		target := ""
		if strings.HasPrefix(ref, "#") {
			target = ref
		}
		return r.resolveRecursive(v, target, depth+1)

	case []any:
		for i, item := range v {
			if err := r.resolveRecursive(item, childPointer(pointer, strconv.Itoa(i)), depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// childPointer appends one escaped token to a JSON pointer.
func childPointer(pointer, token string) string {
	if pointer == "" {
		return ""
	}
	return pointer + "/" + schemautil.EscapeToken(token)
}

// resolve returns the target of ref, which may be local, a file or a URL.
func (r *refResolver) resolve(ref string) (any, error) {
	if strings.HasPrefix(ref, "#") {
		return schemautil.Lookup(r.source, ref)
	}

	location, fragment, _ := strings.Cut(ref, "#")
	var (
		doc map[string]any
		err error
	)
	switch {
	case isURL(location):
		doc, err = r.loadRemote(location)
	case r.baseURL != "":
		location, err = resolveRelativeURL(r.baseURL, location)
		if err == nil {
			doc, err = r.loadRemote(location)
		}
	default:
		location, err = r.checkedPath(ref, location)
		if err == nil {
			doc, err = r.loadFile(location)
		}
	}
	if err != nil {
		return nil, err
	}
	if fragment == "" || fragment == "/" {
		return doc, nil
	}
	return schemautil.Lookup(doc, "#"+fragment)
}

// checkedPath resolves a file reference against baseDir and rejects
// references that escape it.
func (r *refResolver) checkedPath(ref, filePath string) (string, error) {
	if !filepath.IsAbs(filePath) {
		filePath = filepath.Join(r.baseDir, filePath)
	}
	absBase, err := filepath.Abs(r.baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", &oaserrors.ReferenceError{Ref: ref, RefType: "file", IsPathTraversal: true}
	}
	return absPath, nil
}

func (r *refResolver) loadFile(absPath string) (map[string]any, error) {
	if doc, ok := r.documents[absPath]; ok {
		return doc, nil
	}
	if err := r.checkCacheLimit(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read external file %s: %w", absPath, err)
	}
	doc, err := r.parseExternal(absPath, data)
	if err != nil {
		return nil, err
	}
	rebaseRefs(doc, absPath, func(rel string) string {
		if filepath.IsAbs(rel) {
			return rel
		}
		return filepath.Join(filepath.Dir(absPath), rel)
	})
	r.documents[absPath] = doc
	return doc, nil
}

func (r *refResolver) loadRemote(location string) (map[string]any, error) {
	if doc, ok := r.documents[location]; ok {
		return doc, nil
	}
	if r.fetch == nil {
		return nil, &oaserrors.ReferenceError{
			Ref:     location,
			RefType: "http",
			Message: "remote references are disabled",
		}
	}
	if err := r.checkCacheLimit(); err != nil {
		return nil, err
	}
	data, _, err := r.fetch(location)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch HTTP reference %s: %w", location, err)
	}
	doc, err := r.parseExternal(location, data)
	if err != nil {
		return nil, err
	}
	rebaseRefs(doc, location, func(rel string) string {
		if isURL(rel) {
			return rel
		}
		resolved, err := resolveRelativeURL(location, rel)
		if err != nil {
			return rel
		}
		return resolved
	})
	r.documents[location] = doc
	return doc, nil
}

func (r *refResolver) checkCacheLimit() error {
	if len(r.documents) >= MaxCachedDocuments {
		return &oaserrors.ResourceLimitError{
			ResourceType: oaserrors.ResourceCachedDocuments,
			Limit:        MaxCachedDocuments,
			Actual:       int64(len(r.documents)),
			Message:      "too many external references",
		}
	}
	return nil
}

func (r *refResolver) parseExternal(location string, data []byte) (map[string]any, error) {
	if int64(len(data)) > MaxFileSize {
		return nil, &oaserrors.ResourceLimitError{
			ResourceType: oaserrors.ResourceFileSize,
			Limit:        MaxFileSize,
			Actual:       int64(len(data)),
			Message:      location,
		}
	}
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &oaserrors.ParseError{Path: location, Message: "failed to parse external document", Cause: err}
	}
	doc, ok := schemautil.Normalize(raw).(map[string]any)
	if !ok {
		return nil, &oaserrors.ParseError{Path: location, Message: "external document is not an object"}
	}
	return doc, nil
}

// rebaseRefs rewrites the references inside an external document so they
// stay valid once its content is inlined into the root document: local refs
// point back into the external document and relative locations are made
// absolute with abs.
func rebaseRefs(v any, location string, abs func(string) string) {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			if ref, ok := item.(string); ok && k == "$ref" {
				if strings.HasPrefix(ref, "#") {
					t[k] = location + ref
				} else {
					loc, fragment, hasFragment := strings.Cut(ref, "#")
					rebased := abs(loc)
					if hasFragment {
						rebased += "#" + fragment
					}
					t[k] = rebased
				}
				continue
			}
			rebaseRefs(item, location, abs)
		}
	case []any:
		for _, item := range t {
			rebaseRefs(item, location, abs)
		}
	}
}

// resolveRelativeURL resolves a relative reference against the directory of base.
func resolveRelativeURL(base, rel string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	u.Path = path.Join(path.Dir(u.Path), rel)
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

func refType(ref string) string {
	switch {
	case strings.HasPrefix(ref, "#"):
		return "local"
	case isURL(ref):
		return "http"
	default:
		return "file"
	}
}
