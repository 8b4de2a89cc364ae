package apischema

import (
	"sort"

	"github.com/erraggy/schemabuilder/internal/body"
	"github.com/erraggy/schemabuilder/internal/contenttype"
	"github.com/erraggy/schemabuilder/internal/httputil"
	"github.com/erraggy/schemabuilder/internal/params"
	"github.com/erraggy/schemabuilder/internal/schemautil"
	"github.com/erraggy/schemabuilder/validators"
)

// response is one declared response before compilation.
type response struct {
	code     string
	declared map[string]any
	bodies   map[string]body.Body
	types    []string
}

// buildResponses compiles one ResponseValidator per status key of e.
func (b *builder) buildResponses(e endpoint) (map[string]validators.Validator, error) {
	declared := schemautil.Map(e.op, "responses")
	referenced := schemautil.Map(e.refOp, "responses")

	codes := make([]string, 0, len(declared))
	for code := range declared {
		if !httputil.IsResponseKey(code) {
			continue
		}
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var (
		resolved []response
		perCode  [][]string
	)
	for _, code := range codes {
		resp, ok := declared[code].(map[string]any)
		if !ok {
			continue
		}
		refResp, err := schemautil.Deref(b.doc.Referenced, schemautil.Map(referenced, code))
		if err != nil {
			refResp = nil
		}
		r := response{code: code, declared: resp}
		if b.oas3 {
			content := schemautil.Map(resp, "content")
			r.bodies = body.FromContent(content, schemautil.Map(refResp, "content"))
			for _, ct := range contenttype.Keys(content) {
				if _, ok := r.bodies[ct]; ok {
					r.types = append(r.types, ct)
				}
			}
		} else if bd, ok := body.FromSchema(resp, refResp); ok {
			r.types = b.produces(e)
			r.bodies = make(map[string]body.Body, len(r.types))
			for _, ct := range r.types {
				r.bodies[ct] = bd
			}
		}
		resolved = append(resolved, r)
		perCode = append(perCode, r.types)
	}

	allowed := contenttype.Resolve(contenttype.Pool(perCode...), b.cfg.contentTypeValidation)

	out := make(map[string]validators.Validator, len(resolved))
	for _, r := range resolved {
		location := e.location + " response " + r.code
		v, err := b.responseValidator(location, r, allowed)
		if err != nil {
			return nil, err
		}
		out[r.code] = v
	}
	return out, nil
}

// produces returns the OpenAPI 2 response media types of e, defaulting to
// JSON.
func (b *builder) produces(e endpoint) []string {
	if types := schemautil.Strings(e.op, "produces"); len(types) > 0 {
		return types
	}
	if types := schemautil.Strings(b.doc.Dereferenced, "produces"); len(types) > 0 {
		return types
	}
	return []string{contenttype.JSON}
}

func (b *builder) responseValidator(location string, r response, allowed []string) (*validators.ResponseValidator, error) {
	var bodies map[string]validators.Validator
	if len(r.types) > 0 {
		bodies = make(map[string]validators.Validator, len(r.types))
		var shared validators.Validator
		for _, ct := range r.types {
			// OpenAPI 2 responses share one schema across media types.
			if shared != nil {
				bodies[ct] = shared
				continue
			}
			v, err := b.bodyValidator(location+" "+ct, r.bodies[ct], body.Response)
			if err != nil {
				return nil, err
			}
			bodies[ct] = v
			if !b.oas3 {
				shared = v
			}
		}
	}

	var headers validators.Validator
	declared := schemautil.Map(r.declared, "headers")
	if len(declared) > 0 || len(allowed) > 0 {
		set, err := params.AssembleHeaders(location, declared, params.Options{
			OAS3:         b.oas3,
			ContentTypes: allowed,
			Logger:       b.log,
		})
		if err != nil {
			return nil, err
		}
		check, err := b.compileParams(location+" headers", set.Schema)
		if err != nil {
			return nil, err
		}
		headers = validators.NewSimple(set.Wrap(check))
	}

	return validators.NewResponse(bodies, headers), nil
}
