// Package metaschema checks OpenAPI 3.0 documents against the rules of the
// specification before their schemas are compiled. The checks are those of
// github.com/getkin/kin-openapi, run on the dereferenced document.
package metaschema

import (
	"context"
	"errors"
	"strings"

	"github.com/erraggy/schemabuilder/oaserrors"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/goccy/go-json"
)

// Validator checks a whole document against the OpenAPI meta-schema.
type Validator interface {
	// Supports reports whether documents declaring version are checked.
	Supports(version string) bool
	// Validate returns an *oaserrors.ValidationError when doc is invalid.
	Validate(ctx context.Context, doc map[string]any, version string) error
}

// KinValidator validates OpenAPI 3.0 documents with kin-openapi.
type KinValidator struct {
	// Options are passed to openapi3.T.Validate
	Options []openapi3.ValidationOption
}

// New returns a KinValidator that skips example validation, since examples
// do not affect compiled validators.
func New() *KinValidator {
	return &KinValidator{
		Options: []openapi3.ValidationOption{openapi3.DisableExamplesValidation()},
	}
}

// Supports implements Validator. Only the 3.0 line is checked.
func (v *KinValidator) Supports(version string) bool {
	return strings.HasPrefix(version, "3.0")
}

// Validate implements Validator.
func (v *KinValidator) Validate(ctx context.Context, doc map[string]any, version string) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return &oaserrors.ValidationError{Version: version, Message: "document cannot be encoded", Causes: []error{err}}
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	loader.IsExternalRefsAllowed = false
	parsed, err := loader.LoadFromData(data)
	if err != nil {
		return &oaserrors.ValidationError{Version: version, Message: "document is not a valid OpenAPI 3 description", Causes: []error{err}}
	}

	if err := parsed.Validate(ctx, v.Options...); err != nil {
		return &oaserrors.ValidationError{
			Version: version,
			Message: "document is not a valid OpenAPI 3 description",
			Causes:  flatten(err),
		}
	}
	return nil
}

// flatten expands kin-openapi multi errors into their violations.
func flatten(err error) []error {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		var out []error
		for _, e := range multi {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}

var _ Validator = (*KinValidator)(nil)
