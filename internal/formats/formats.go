// Package formats provides the OpenAPI string and number formats that the
// schema compiler asserts in addition to the JSON Schema built-ins, and
// turns user supplied pattern formats into compiler formats.
package formats

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"regexp"

	"github.com/erraggy/schemabuilder/oaserrors"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Format is a user defined string format backed by a regular expression.
type Format struct {
	Name    string
	Pattern string
}

var (
	errNotIntegral = errors.New("not an integer")
	errOutOfRange  = errors.New("out of range")
	errNotFinite   = errors.New("not a finite number")
)

// Builtin returns the OpenAPI data type formats: int32, int64, float,
// double and byte. Values of other JSON types pass, as the JSON Schema
// format keyword requires.
func Builtin() []*jsonschema.Format {
	return []*jsonschema.Format{
		{Name: "int32", Validate: integerRange(math.MinInt32, math.MaxInt32)},
		{Name: "int64", Validate: integerRange(math.MinInt64, math.MaxInt64)},
		{Name: "float", Validate: finite},
		{Name: "double", Validate: finite},
		{Name: "byte", Validate: base64String},
	}
}

// Compile turns user formats into compiler formats. Names must be unique
// and patterns must be valid regular expressions.
func Compile(user []Format) ([]*jsonschema.Format, error) {
	out := make([]*jsonschema.Format, 0, len(user))
	seen := make(map[string]bool, len(user))
	for _, f := range user {
		if f.Name == "" {
			return nil, &oaserrors.ConfigError{Option: "formats", Message: "format name is empty"}
		}
		if seen[f.Name] {
			return nil, &oaserrors.ConfigError{Option: "formats", Value: f.Name, Message: "duplicate format"}
		}
		seen[f.Name] = true
		re, err := regexp.Compile(f.Pattern)
		if err != nil {
			return nil, &oaserrors.ConfigError{Option: "formats", Value: f.Name, Message: "invalid pattern", Cause: err}
		}
		out = append(out, &jsonschema.Format{Name: f.Name, Validate: matches(re)})
	}
	return out, nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func integerRange(min, max float64) func(any) error {
	return func(v any) error {
		n, ok := number(v)
		if !ok {
			return nil
		}
		if n != math.Trunc(n) {
			return errNotIntegral
		}
		if n < min || n > max {
			return fmt.Errorf("%w: %v", errOutOfRange, n)
		}
		return nil
	}
}

func finite(v any) error {
	n, ok := number(v)
	if !ok {
		return nil
	}
	if math.IsInf(n, 0) || math.IsNaN(n) {
		return errNotFinite
	}
	return nil
}

func base64String(v any) error {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	_, err := base64.StdEncoding.DecodeString(s)
	return err
}

func matches(re *regexp.Regexp) func(any) error {
	return func(v any) error {
		s, ok := v.(string)
		if !ok {
			return nil
		}
		if !re.MatchString(s) {
			return fmt.Errorf("does not match %s", re)
		}
		return nil
	}
}
