package httpvalidator_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/erraggy/schemabuilder/apischema"
	"github.com/erraggy/schemabuilder/httpvalidator"
)

const exampleSpec = `
openapi: "3.0.3"
info:
  title: Pet Store
  version: "1.0"
paths:
  /pets/{petId}:
    get:
      parameters:
        - name: petId
          in: path
          required: true
          schema:
            type: integer
        - name: include
          in: query
          schema:
            type: string
            enum: [owner, vaccinations, all]
      responses:
        "200":
          description: Success
          content:
            application/json:
              schema:
                type: object
                required: [id]
                properties:
                  id:
                    type: integer
`

func ExampleNew() {
	compiled, err := apischema.BuildSchemaSync([]byte(exampleSpec))
	if err != nil {
		fmt.Println("Compile error:", err)
		return
	}

	v, err := httpvalidator.New(compiled)
	if err != nil {
		fmt.Println("Validator error:", err)
		return
	}

	fmt.Println("Validator created for", v.Compiled().Paths())
	// Output: Validator created for [/pets/:petId]
}

func ExampleValidator_ValidateRequest() {
	compiled, _ := apischema.BuildSchemaSync([]byte(exampleSpec))
	v, _ := httpvalidator.New(compiled)

	req := httptest.NewRequest("GET", "/pets/123?include=everything", nil)

	result, err := v.ValidateRequest(req)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Println("Valid:", result.Valid)
	fmt.Println("Matched:", result.MatchedPath)
	for _, e := range result.Errors {
		fmt.Println(e.DataPath, e.Keyword)
	}
	// Output:
	// Valid: false
	// Matched: /pets/:petId
	// .query.include enum
}

func ExampleValidator_ValidateResponseData() {
	compiled, _ := apischema.BuildSchemaSync([]byte(exampleSpec))
	v, _ := httpvalidator.New(compiled)

	req := httptest.NewRequest("GET", "/pets/123", nil)
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")

	result, _ := v.ValidateResponseData(req, http.StatusOK, headers, []byte(`{"id":123}`))
	fmt.Println("Valid:", result.Valid, "Response:", result.ResponseKey)

	result, _ = v.ValidateResponseData(req, http.StatusTeapot, headers, nil)
	fmt.Println("Valid:", result.Valid, "Warnings:", len(result.Warnings))
	// Output:
	// Valid: true Response: 200
	// Valid: true Warnings: 1
}

func ExampleValidateRequestWithOptions() {
	compiled, _ := apischema.BuildSchemaSync([]byte(exampleSpec))

	req := httptest.NewRequest("POST", "/pets/123", strings.NewReader(`{}`))
	result, _ := httpvalidator.ValidateRequestWithOptions(req, httpvalidator.WithCompiled(compiled))

	fmt.Println(result.Errors[0].Message)
	// Output: method POST not allowed for path /pets/:petId
}
