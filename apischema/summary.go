package apischema

import (
	"slices"
	"strings"

	"github.com/erraggy/schemabuilder/validators"
	"github.com/samber/lo"
)

// Body kinds reported by OperationInfo.
const (
	BodyKindNone          = "none"
	BodyKindSimple        = "simple"
	BodyKindDiscriminator = "discriminator"
)

// OperationInfo describes what was compiled for one path and method.
type OperationInfo struct {
	Path             string   `json:"path" yaml:"path"`
	Method           string   `json:"method" yaml:"method"`
	HasParameters    bool     `json:"hasParameters" yaml:"hasParameters"`
	BodyKind         string   `json:"bodyKind" yaml:"bodyKind"`
	BodyContentTypes []string `json:"bodyContentTypes,omitempty" yaml:"bodyContentTypes,omitempty"`
	Responses        []string `json:"responses,omitempty" yaml:"responses,omitempty"`
}

// Operations lists every compiled operation in path order, then method
// order. Methods are upper-case.
func (s *CompiledSchema) Operations() []OperationInfo {
	if s == nil {
		return nil
	}
	out := make([]OperationInfo, 0, s.OperationCount())
	for _, p := range s.Paths() {
		for _, m := range s.Methods(p) {
			op := s.paths[p][m]
			out = append(out, OperationInfo{
				Path:             p,
				Method:           strings.ToUpper(m),
				HasParameters:    op.Parameters != nil,
				BodyKind:         bodyKind(op.Body),
				BodyContentTypes: sortedKeys(op.BodyByContentType),
				Responses:        sortedKeys(op.Responses),
			})
		}
	}
	return out
}

func bodyKind(v validators.Validator) string {
	switch v.(type) {
	case nil:
		return BodyKindNone
	case *validators.DiscriminatorValidator:
		return BodyKindDiscriminator
	default:
		return BodyKindSimple
	}
}

func sortedKeys(m map[string]validators.Validator) []string {
	if len(m) == 0 {
		return nil
	}
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}
