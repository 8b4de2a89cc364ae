package apischema

import (
	"github.com/erraggy/schemabuilder/internal/body"
	"github.com/erraggy/schemabuilder/internal/contenttype"
	"github.com/erraggy/schemabuilder/internal/params"
	"github.com/erraggy/schemabuilder/internal/schemautil"
	"github.com/erraggy/schemabuilder/validators"
)

// buildRequest compiles the parameter and request body validators of e.
func (b *builder) buildRequest(e endpoint, operation *Operation) error {
	declared, referenced := e.parameters()

	set, err := params.Assemble(e.location, declared, params.Options{
		OAS3:         b.oas3,
		ContentTypes: contenttype.Resolve(b.requestContentTypes(e), b.cfg.contentTypeValidation),
		Logger:       b.log,
	})
	if err != nil {
		return err
	}
	check, err := b.compileParams(e.location+" parameters", set.Schema)
	if err != nil {
		return err
	}
	operation.Parameters = validators.NewSimple(set.Wrap(check))

	if !b.oas3 {
		bd, ok := body.FromParameters(declared, referenced, b.doc.Referenced, b.cfg.expectFormFieldsInBody)
		if !ok {
			return nil
		}
		operation.Body, err = b.bodyValidator(e.location+" body", bd, body.Request)
		return err
	}

	requestBody := schemautil.Map(e.op, "requestBody")
	if requestBody == nil {
		return nil
	}
	refBody, err := schemautil.Deref(b.doc.Referenced, schemautil.Map(e.refOp, "requestBody"))
	if err != nil {
		refBody = nil
	}
	bodies := body.FromContent(schemautil.Map(requestBody, "content"), schemautil.Map(refBody, "content"))
	if len(bodies) == 0 {
		return nil
	}

	operation.BodyByContentType = make(map[string]validators.Validator, len(bodies))
	types := make([]string, 0, len(bodies))
	for _, ct := range contenttype.Keys(schemautil.Map(requestBody, "content")) {
		bd, ok := bodies[ct]
		if !ok {
			continue
		}
		v, err := b.bodyValidator(e.location+" body "+ct, bd, body.Request)
		if err != nil {
			return err
		}
		operation.BodyByContentType[ct] = v
		types = append(types, ct)
	}
	operation.Body = operation.BodyByContentType[contenttype.Canonical(types)]
	return nil
}

// requestContentTypes returns the media types a request body may be sent
// with: the OpenAPI 3 request body content keys, or the OpenAPI 2
// consumes list of the operation or document.
func (b *builder) requestContentTypes(e endpoint) []string {
	if b.oas3 {
		return contenttype.Keys(schemautil.Map(schemautil.Map(e.op, "requestBody"), "content"))
	}
	if consumes := schemautil.Strings(e.op, "consumes"); len(consumes) > 0 {
		return consumes
	}
	return schemautil.Strings(b.doc.Dereferenced, "consumes")
}

// bodyValidator compiles one body. Polymorphic bodies become discriminator
// trees and skip visibility filtering; other OpenAPI 3 bodies drop the
// properties not sent in direction d.
func (b *builder) bodyValidator(location string, bd body.Body, d body.Direction) (validators.Validator, error) {
	if bd.Polymorphic() {
		if b.oas3 {
			node, err := b.resolver.Resolve(location, bd.Schema, bd.Referenced)
			if err != nil {
				return nil, err
			}
			return validators.NewDiscriminator(node), nil
		}
		if ref := bd.Ref(); ref != "" {
			node, err := b.resolver.ResolveSwagger2(location, ref)
			if err != nil {
				return nil, err
			}
			return validators.NewDiscriminator(node), nil
		}
		b.log.Debug("compiling inline discriminator schema as plain schema", "location", location)
	}

	schema := bd.Schema
	if b.oas3 {
		schema = body.Filter(schema, d)
	}
	check, err := b.compileBody(location, schema)
	if err != nil {
		return nil, err
	}
	return validators.NewSimple(check), nil
}
