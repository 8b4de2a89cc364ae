// Package httpvalidator validates HTTP requests and responses against a
// compiled OpenAPI document.
//
// This package enables runtime validation of HTTP traffic in API gateways, middleware,
// and testing scenarios. It works on an apischema.CompiledSchema, so OAS 2.0,
// 3.0 and 3.1 documents are all supported.
//
// # Features
//
//   - Request validation: path, query and header parameters, uploaded file fields and request body
//   - Response validation: status codes, headers, and response body
//   - Body decoding: JSON (and "+json" media types), urlencoded and multipart forms
//   - Discriminator bodies: polymorphic payloads are checked against the selected subtype only
//   - Middleware-friendly: works with standard net/http patterns
//
// # Basic Usage
//
// Create a validator from a compiled schema:
//
//	compiled, _ := apischema.BuildSchemaSync("openapi.yaml")
//	v, err := httpvalidator.New(compiled)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Validate incoming request
//	result, err := v.ValidateRequest(req)
//	if !result.Valid {
//	    for _, e := range result.Errors {
//	        log.Printf("Validation error: %s: %s", e.DataPath, e.Message)
//	    }
//	}
//
//	// Access matched parameters
//	petID := result.PathParams["petId"]
//	limit := result.QueryParams["limit"]
//
// Request paths are matched against the compiled paths, which already carry
// the document's base path ("/v1/pets/:petId").
//
// # Middleware Pattern
//
// The validator integrates naturally with HTTP middleware:
//
//	func ValidateMiddleware(v *httpvalidator.Validator) func(http.Handler) http.Handler {
//	    return func(next http.Handler) http.Handler {
//	        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	            result, err := v.ValidateRequest(r)
//	            if err != nil || !result.Valid {
//	                http.Error(w, "Invalid request", http.StatusBadRequest)
//	                return
//	            }
//	            next.ServeHTTP(w, r)
//	        })
//	    }
//	}
//
// The request body is restored after validation, so the handler can read it.
// For response validation in middleware, use ValidateResponseData which accepts
// captured response parts instead of *http.Response:
//
//	result, _ := v.ValidateResponseData(req, recorder.Code, recorder.Header(), recorder.Body.Bytes())
//
// # Functional Options
//
// For one-off validations, use the functional options API:
//
//	result, err := httpvalidator.ValidateRequestWithOptions(
//	    req,
//	    httpvalidator.WithFilePath("openapi.yaml"),
//	    httpvalidator.WithSchemaOptions(apischema.WithContentTypeValidation(true)),
//	)
//
// # Errors
//
// Schema errors keep the shape produced by package validators, rooted at the
// request data (".query.limit", ".body.name"). The HTTP layer adds its own
// keywords: "path" when no compiled path matches, "method" when the path has
// no such operation, "parse" for undecodable bodies and "maxBodySize" for
// bodies over the limit. An undocumented response status is a "status"
// warning.
package httpvalidator
