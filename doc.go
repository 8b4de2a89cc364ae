// Package schemabuilder compiles OpenAPI documents into request and response
// validators and checks HTTP traffic against them.
//
// The module supports OpenAPI 2.0 (Swagger), 3.0 and 3.1 documents in YAML
// or JSON, loaded from a file, a URL, raw bytes or an already parsed
// document.
//
// # Packages
//
//   - [github.com/erraggy/schemabuilder/apischema] compiles a document into a
//     CompiledSchema holding one validator set per path and method
//   - [github.com/erraggy/schemabuilder/httpvalidator] matches *http.Request
//     values to compiled operations and reports validation errors
//   - [github.com/erraggy/schemabuilder/validators] defines the Validator
//     contract, ValidationError and the discriminator decision tree
//   - [github.com/erraggy/schemabuilder/loader] loads, dereferences and
//     version-detects documents
//   - [github.com/erraggy/schemabuilder/oaserrors] holds the error kinds
//     returned by compilation
//
// # Quick Start
//
// Compile a document and validate a request body directly:
//
//	import "github.com/erraggy/schemabuilder/apischema"
//
//	compiled, err := apischema.BuildSchemaSync("openapi.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	op, ok := compiled.Lookup("/v1/pets", "post")
//	if ok && !op.Body.Validate(payload) {
//		for _, e := range op.Body.Errors() {
//			fmt.Println(e.DataPath, e.Message)
//		}
//	}
//
// Validate HTTP traffic:
//
//	import "github.com/erraggy/schemabuilder/httpvalidator"
//
//	v, err := httpvalidator.New(compiled)
//	if err != nil {
//		log.Fatal(err)
//	}
//	result, err := v.ValidateRequest(req)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if !result.Valid {
//		fmt.Printf("Found %d errors\n", len(result.Errors))
//	}
//
// # Discriminators
//
// Request and response bodies whose schema declares a discriminator are
// compiled into a tree of validators keyed by the discriminator value. The
// tree picks the concrete subtype of the payload and validates against it,
// so errors point at the subtype property that failed instead of every
// oneOf branch.
//
// # Command-Line Tool
//
// The schemabuilder command exposes the same engine:
//
//	schemabuilder compile openapi.yaml
//	schemabuilder validate-request -X POST --path /v1/pets -d '{"name":"Rex"}' openapi.yaml
//	schemabuilder validate-response --path /v1/pets/1 --status 404 -d '{}' openapi.yaml
//	schemabuilder mcp
//
// The mcp command serves list_operations, validate_request_body and
// validate_response as Model Context Protocol tools over stdio.
package schemabuilder
