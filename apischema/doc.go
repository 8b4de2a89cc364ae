// Package apischema compiles an OpenAPI 2.0, 3.0 or 3.1 document into
// validators for the requests and responses of every operation.
//
// # Overview
//
// Compilation walks every path and method of the dereferenced document and
// builds, per operation:
//
//   - Parameters: one validator for the header, path and query values of a
//     request plus the names of its uploaded files
//   - Body: the request body validator; OpenAPI 3 operations also get one
//     validator per declared media type in BodyByContentType
//   - Responses: one validator per status key, checking the body selected
//     by the response Content-Type together with the response headers
//
// Bodies whose schema carries a discriminator are compiled into decision
// trees that pick the concrete subtype from the discriminator property, to
// any depth of nested discriminators (at most 20 levels).
//
// # Paths
//
// Every document path is mounted under each base path of the document
// (OpenAPI 3 servers or the OpenAPI 2 basePath) and template parameters
// are written ":name":
//
//	servers: [{url: "https://api.example.com/v1/"}]
//	paths: {"/pets/{petId}": ...}
//
// compiles to the key "/v1/pets/:petId".
//
// # Usage
//
//	compiled, err := apischema.BuildSchemaSync("openapi.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	op, ok := compiled.Lookup("/v1/pets", "post")
//	if ok && !op.Body.Validate(payload) {
//	    for _, e := range op.Body.Errors() {
//	        fmt.Println(e.DataPath, e.Message)
//	    }
//	}
//
// Parameter data has the shape
//
//	map[string]any{
//	    "headers": map[string]any{"x-request-id": "abc"},
//	    "path":    map[string]any{"petId": "42"},
//	    "query":   map[string]any{"limit": "10"},
//	    "files":   []string{"photo"},
//	}
//
// and string values are coerced to the declared parameter types before
// they are checked. Response data is a validators.ResponseData.
//
// # Errors
//
// Compilation fails with the error kinds of package oaserrors: documents
// that cannot be loaded, OpenAPI 3.0 documents rejected by meta-validation,
// discriminators without oneOf, discriminator chains deeper than 20 levels
// and schemas the compiler rejects. Validation failures are never errors;
// they are reported by Validate and Errors.
package apischema
