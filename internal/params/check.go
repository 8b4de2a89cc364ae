package params

import (
	"fmt"
	"sort"
	"strings"

	"github.com/erraggy/schemabuilder/internal/contenttype"
	"github.com/erraggy/schemabuilder/internal/schemautil"
	"github.com/erraggy/schemabuilder/validators"
	"github.com/samber/lo"
)

const contentTypeHeader = "content-type"

// Wrap returns a check that prepares parameter data for the compiled
// schema check and adds the file and Content-Type checks of the Set.
// Header names are lower-cased and string values are coerced to their
// declared types on a copy; the caller's data is never modified.
func (s *Set) Wrap(check validators.CompiledCheck) validators.CompiledCheck {
	return func(data any) []validators.ValidationError {
		obj, ok := asObject(data)
		if !ok {
			return check(data)
		}
		prepared := s.prepare(obj)
		errs := check(prepared)
		if !s.flat {
			errs = append(errs, s.checkFiles(prepared[Files])...)
			headers, _ := asObject(prepared[Headers])
			errs = append(errs, s.checkContentType(headers)...)
		} else {
			errs = append(errs, s.checkContentType(prepared)...)
		}
		return errs
	}
}

func (s *Set) prepare(data map[string]any) map[string]any {
	if s.flat {
		return coerceAll(lowerKeys(data), s.fields[""])
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	for _, name := range []string{Headers, Path, Query} {
		values, ok := asObject(data[name])
		if !ok {
			continue
		}
		if name == Headers {
			values = lowerKeys(values)
		}
		out[name] = coerceAll(values, s.fields[name])
	}
	return out
}

func coerceAll(values map[string]any, fields map[string]field) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		if f, ok := fields[k]; ok {
			out[k] = f.coerce(v)
		} else {
			out[k] = v
		}
	}
	return out
}

func (s *Set) checkFiles(data any) []validators.ValidationError {
	if !s.Files.Declared() {
		return nil
	}
	received := fileNames(data)
	if missing := lo.Without(s.Files.Required, received...); len(missing) > 0 {
		return []validators.ValidationError{{
			DataPath:   "." + Files,
			Keyword:    "files",
			Message:    "Missing required files: " + strings.Join(missing, ","),
			Params:     map[string]any{"requiredFiles": schemautil.ToAnySlice(s.Files.Required), "missingFiles": schemautil.ToAnySlice(missing)},
			SchemaPath: "#/" + Files,
		}}
	}
	allowed := append(append([]string{}, s.Files.Required...), s.Files.Optional...)
	if extra := lo.Without(received, allowed...); len(extra) > 0 {
		return []validators.ValidationError{{
			DataPath:   "." + Files,
			Keyword:    "files",
			Message:    "Extra files are not allowed. Not allowed files: " + strings.Join(extra, ","),
			Params:     map[string]any{"allowedFiles": schemautil.ToAnySlice(allowed), "extraFiles": schemautil.ToAnySlice(extra)},
			SchemaPath: "#/" + Files,
		}}
	}
	return nil
}

// fileNames reads uploaded file field names from a list of names, a list
// of objects carrying "fieldname" or "name", or an object keyed by name.
func fileNames(data any) []string {
	var names []string
	switch t := data.(type) {
	case []string:
		names = append(names, t...)
	case []any:
		for _, item := range t {
			switch v := item.(type) {
			case string:
				names = append(names, v)
			case map[string]any:
				if n, ok := v["fieldname"].(string); ok {
					names = append(names, n)
				} else if n, ok := v["name"].(string); ok {
					names = append(names, n)
				}
			}
		}
	case map[string]any:
		for name := range t {
			names = append(names, name)
		}
		sort.Strings(names)
	}
	return lo.Uniq(names)
}

func (s *Set) checkContentType(headers map[string]any) []validators.ValidationError {
	if len(s.ContentTypes) == 0 || headers == nil {
		return nil
	}
	received, ok := headerString(headers[contentTypeHeader])
	if !ok || contenttype.Allowed(received, s.ContentTypes) {
		return nil
	}

	dataPath := validators.PropertyPath(contentTypeHeader)
	schemaPath := "#/content"
	if !s.flat {
		dataPath = "." + Headers + dataPath
		schemaPath = "#/properties/" + Headers + "/content"
	}
	return []validators.ValidationError{{
		DataPath: dataPath,
		Keyword:  "content",
		Message: fmt.Sprintf("content-type '%s' is not allowed, should be one of: %s",
			received, strings.Join(s.ContentTypes, ", ")),
		Params:     map[string]any{"contentType": received, "types": schemautil.ToAnySlice(s.ContentTypes)},
		SchemaPath: schemaPath,
	}}
}

func headerString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case []string:
		if len(t) > 0 {
			return t[0], true
		}
	case []any:
		if len(t) > 0 {
			s, ok := t[0].(string)
			return s, ok
		}
	}
	return "", false
}

// asObject accepts the map shapes HTTP values usually arrive in.
func asObject(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = item
		}
		return out, true
	case map[string][]string:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = item
		}
		return out, true
	default:
		return nil, false
	}
}

func lowerKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}
