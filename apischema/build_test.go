package apischema

import (
	"context"
	"errors"
	"testing"

	"github.com/erraggy/schemabuilder/loader"
	"github.com/erraggy/schemabuilder/oaserrors"
	"github.com/erraggy/schemabuilder/validators"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustBuild compiles an inline document without meta-validation.
func mustBuild(t *testing.T, doc string, opts ...Option) *CompiledSchema {
	t.Helper()
	compiled, err := BuildWithOptions(context.Background(), append([]Option{WithBytes([]byte(doc))}, opts...)...)
	require.NoError(t, err)
	return compiled
}

func mustLookup(t *testing.T, compiled *CompiledSchema, path, method string) *Operation {
	t.Helper()
	op, ok := compiled.Lookup(path, method)
	require.True(t, ok, "no operation for %s %s in %v", method, path, compiled.Paths())
	return op
}

// =============================================================================
// Paths
// =============================================================================

const serversDoc = `
openapi: "3.0.3"
info:
  title: Pets
  version: "1.0"
servers:
  - url: https://{host}/v1/
    variables:
      host:
        default: api.example.com
  - url: /v2
paths:
  /pets/{petId}:
    parameters:
      - name: petId
        in: path
        required: true
        schema:
          type: integer
    get:
      responses:
        "200":
          description: OK
    delete:
      responses:
        "204":
          description: Deleted
  /pets:
    get:
      responses:
        "200":
          description: OK
`

func TestPaths(t *testing.T) {
	t.Run("server base paths and templates", func(t *testing.T) {
		compiled := mustBuild(t, serversDoc)
		assert.Equal(t, []string{"/v1/pets", "/v1/pets/:petId", "/v2/pets", "/v2/pets/:petId"}, compiled.Paths())
		assert.Equal(t, []string{"/v1", "/v2"}, compiled.BasePaths)
		assert.Equal(t, []string{"get", "delete"}, compiled.Methods("/v1/pets/:petId"))
		assert.Equal(t, 6, compiled.OperationCount())
		assert.Equal(t, loader.Version30, compiled.Version)
	})

	t.Run("lookup ignores method case", func(t *testing.T) {
		compiled := mustBuild(t, serversDoc)
		_, ok := compiled.Lookup("/v2/pets/:petId", "GET")
		assert.True(t, ok)
		_, ok = compiled.Lookup("/v2/pets/:petId", "post")
		assert.False(t, ok)
		_, ok = compiled.Lookup("/pets/:petId", "get")
		assert.False(t, ok)
	})

	t.Run("swagger basePath", func(t *testing.T) {
		compiled := mustBuild(t, `
swagger: "2.0"
info:
  title: Pets
  version: "1.0"
basePath: /api/
paths:
  /pets/{id}:
    get:
      parameters:
        - name: id
          in: path
          required: true
          type: string
      responses:
        "200":
          description: OK
`)
		assert.Equal(t, []string{"/api/pets/:id"}, compiled.Paths())
	})

	t.Run("no servers", func(t *testing.T) {
		compiled := mustBuild(t, `
openapi: "3.0.3"
info:
  title: Pets
  version: "1.0"
paths:
  /:
    get:
      responses:
        "200":
          description: OK
`)
		assert.Equal(t, []string{"/"}, compiled.Paths())
	})

	t.Run("nil schema", func(t *testing.T) {
		var compiled *CompiledSchema
		assert.Empty(t, compiled.Paths())
		assert.Empty(t, compiled.Methods("/"))
		assert.Zero(t, compiled.OperationCount())
		_, ok := compiled.Lookup("/", "get")
		assert.False(t, ok)
	})
}

// =============================================================================
// Parameters
// =============================================================================

func TestParameters(t *testing.T) {
	compiled := mustBuild(t, `
openapi: "3.0.3"
info:
  title: Pets
  version: "1.0"
paths:
  /pets/{petId}:
    parameters:
      - name: petId
        in: path
        required: true
        schema:
          type: integer
    get:
      parameters:
        - name: X-Request-ID
          in: header
          required: true
          schema:
            type: string
        - name: tags
          in: query
          schema:
            type: array
            items:
              type: string
        - name: session
          in: cookie
          schema:
            type: string
      responses:
        "200":
          description: OK
`)
	op := mustLookup(t, compiled, "/pets/:petId", "get")
	require.NotNil(t, op.Parameters)

	t.Run("valid values are coerced", func(t *testing.T) {
		ok := op.Parameters.Validate(map[string]any{
			"headers": map[string]any{"X-Request-ID": "abc"},
			"path":    map[string]any{"petId": "42"},
			"query":   map[string]any{"tags": "a,b"},
		})
		assert.True(t, ok, "%v", op.Parameters.Errors())
		assert.Nil(t, op.Parameters.Errors())
	})

	t.Run("path parameter of wrong type", func(t *testing.T) {
		ok := op.Parameters.Validate(map[string]any{
			"headers": map[string]any{"x-request-id": "abc"},
			"path":    map[string]any{"petId": "abc"},
		})
		assert.False(t, ok)
		errs := op.Parameters.Errors()
		require.Len(t, errs, 1)
		assert.Equal(t, "type", errs[0].Keyword)
		assert.Equal(t, ".path.petId", errs[0].DataPath)
	})

	t.Run("missing header", func(t *testing.T) {
		errs := validators.Check(op.Parameters, map[string]any{
			"headers": map[string]any{},
			"path":    map[string]any{"petId": "1"},
		})
		require.Len(t, errs, 1)
		assert.Equal(t, "required", errs[0].Keyword)
		assert.Equal(t, "x-request-id", errs[0].Params["missingProperty"])
	})

	t.Run("no body and no body map", func(t *testing.T) {
		assert.Nil(t, op.Body)
		assert.Nil(t, op.BodyByContentType)
	})
}

// =============================================================================
// Content types
// =============================================================================

const consumesDoc = `
swagger: "2.0"
info:
  title: Pets
  version: "1.0"
paths:
  /pets:
    post:
      consumes:
        - application/json
        - form-data
      parameters:
        - name: pet
          in: body
          schema:
            type: object
      responses:
        "201":
          description: Created
`

func TestContentTypeValidation(t *testing.T) {
	t.Run("disallowed request content type", func(t *testing.T) {
		compiled := mustBuild(t, consumesDoc, WithContentTypeValidation(true))
		op := mustLookup(t, compiled, "/pets", "post")

		ok := op.Parameters.Validate(map[string]any{
			"headers": map[string]any{"content-type": "application/x-www-form-urlencoded"},
			"path":    map[string]any{},
			"query":   map[string]any{},
		})
		assert.False(t, ok)
		errs := op.Parameters.Errors()
		require.Len(t, errs, 1)
		assert.Equal(t, "content", errs[0].Keyword)
		assert.Equal(t, "application/x-www-form-urlencoded", errs[0].Params["contentType"])
		assert.Equal(t, []any{"application/json", "form-data"}, errs[0].Params["types"])
		assert.Contains(t, errs[0].Message, "application/x-www-form-urlencoded")
		assert.Contains(t, errs[0].Message, "application/json, form-data")
	})

	t.Run("allowed type with charset", func(t *testing.T) {
		compiled := mustBuild(t, consumesDoc, WithContentTypeValidation(true))
		op := mustLookup(t, compiled, "/pets", "post")
		assert.True(t, op.Parameters.Validate(map[string]any{
			"headers": map[string]any{"Content-Type": "application/json; charset=utf-8"},
		}))
	})

	t.Run("disabled by default", func(t *testing.T) {
		compiled := mustBuild(t, consumesDoc)
		op := mustLookup(t, compiled, "/pets", "post")
		assert.True(t, op.Parameters.Validate(map[string]any{
			"headers": map[string]any{"content-type": "text/plain"},
		}))
	})
}

// =============================================================================
// Request bodies
// =============================================================================

const formDoc = `
swagger: "2.0"
info:
  title: Uploads
  version: "1.0"
paths:
  /upload:
    post:
      consumes:
        - multipart/form-data
      parameters:
        - name: title
          in: formData
          type: string
          required: true
        - name: photo
          in: formData
          type: file
          required: true
      responses:
        "200":
          description: OK
`

func TestSwaggerFormData(t *testing.T) {
	t.Run("form fields become a body", func(t *testing.T) {
		compiled := mustBuild(t, formDoc, WithExpectFormFieldsInBody(true))
		op := mustLookup(t, compiled, "/upload", "post")
		require.NotNil(t, op.Body)
		assert.True(t, op.Body.Validate(map[string]any{"title": "holiday"}))
		assert.False(t, op.Body.Validate(map[string]any{}))
		assert.Equal(t, "title", op.Body.Errors()[0].Params["missingProperty"])
	})

	t.Run("form fields ignored by default", func(t *testing.T) {
		compiled := mustBuild(t, formDoc)
		op := mustLookup(t, compiled, "/upload", "post")
		assert.Nil(t, op.Body)
	})

	t.Run("required files", func(t *testing.T) {
		compiled := mustBuild(t, formDoc)
		op := mustLookup(t, compiled, "/upload", "post")

		assert.True(t, op.Parameters.Validate(map[string]any{"files": []string{"photo"}}))

		assert.False(t, op.Parameters.Validate(map[string]any{"files": []string{}}))
		errs := op.Parameters.Errors()
		require.Len(t, errs, 1)
		assert.Equal(t, "files", errs[0].Keyword)
		assert.Equal(t, "Missing required files: photo", errs[0].Message)
	})
}

const visibilityDoc = `
openapi: "3.0.3"
info:
  title: Users
  version: "1.0"
paths:
  /users:
    post:
      requestBody:
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/User'
          application/xml:
            schema:
              type: string
      responses:
        "201":
          description: Created
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/User'
components:
  schemas:
    User:
      type: object
      required: [id, name, password]
      properties:
        id:
          type: string
          readOnly: true
        name:
          type: string
          format: username
        nickname:
          type: string
        password:
          type: string
          writeOnly: true
`

func TestRequestBodies(t *testing.T) {
	t.Run("bodies per content type", func(t *testing.T) {
		compiled := mustBuild(t, visibilityDoc)
		op := mustLookup(t, compiled, "/users", "post")
		require.Len(t, op.BodyByContentType, 2)
		assert.Same(t, op.BodyByContentType["application/json"], op.Body)
		assert.True(t, op.BodyByContentType["application/xml"].Validate("<user/>"))
	})

	t.Run("readOnly properties are not required in requests", func(t *testing.T) {
		compiled := mustBuild(t, visibilityDoc)
		op := mustLookup(t, compiled, "/users", "post")
		assert.True(t, op.Body.Validate(map[string]any{"name": "ann", "password": "secret"}), "%v", op.Body.Errors())
		assert.False(t, op.Body.Validate(map[string]any{"name": "ann"}))
		assert.Equal(t, "password", op.Body.Errors()[0].Params["missingProperty"])
	})

	t.Run("writeOnly properties are not required in responses", func(t *testing.T) {
		compiled := mustBuild(t, visibilityDoc)
		op := mustLookup(t, compiled, "/users", "post")
		resp := op.Responses["201"]
		require.NotNil(t, resp)
		assert.True(t, resp.Validate(validators.ResponseData{Body: map[string]any{"id": "1", "name": "ann"}}), "%v", resp.Errors())
		assert.False(t, resp.Validate(validators.ResponseData{Body: map[string]any{"name": "ann"}}))
		errs := resp.Errors()
		require.Len(t, errs, 1)
		assert.Equal(t, ".body", errs[0].DataPath)
		assert.Equal(t, "id", errs[0].Params["missingProperty"])
	})

	t.Run("optional attributes nullable", func(t *testing.T) {
		payload := map[string]any{"name": "ann", "password": "x", "nickname": nil}

		compiled := mustBuild(t, visibilityDoc)
		op := mustLookup(t, compiled, "/users", "post")
		assert.False(t, op.Body.Validate(payload))

		compiled = mustBuild(t, visibilityDoc, WithMakeOptionalAttributesNullable(true))
		op = mustLookup(t, compiled, "/users", "post")
		assert.True(t, op.Body.Validate(payload), "%v", op.Body.Errors())
	})

	t.Run("user formats", func(t *testing.T) {
		compiled := mustBuild(t, visibilityDoc, WithFormats(Format{Name: "username", Pattern: "^[a-z]+$"}))
		op := mustLookup(t, compiled, "/users", "post")
		assert.True(t, op.Body.Validate(map[string]any{"name": "ann", "password": "x"}))
		assert.False(t, op.Body.Validate(map[string]any{"name": "Ann", "password": "x"}))
		assert.Equal(t, "format", op.Body.Errors()[0].Keyword)
	})
}

// =============================================================================
// Discriminators
// =============================================================================

const petsDoc = `
openapi: "3.0.3"
info:
  title: Pets
  version: "1.0"
paths:
  /pets:
    post:
      requestBody:
        required: true
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/Pet'
      responses:
        "201":
          description: Created
components:
  schemas:
    Pet:
      type: object
      required: [petType, name]
      properties:
        petType:
          type: string
        name:
          type: string
      discriminator:
        propertyName: petType
      oneOf:
        - $ref: '#/components/schemas/Dog'
        - $ref: '#/components/schemas/Cat'
    Dog:
      allOf:
        - $ref: '#/components/schemas/Pet'
        - type: object
          required: [packSize]
          properties:
            packSize:
              type: integer
    Cat:
      allOf:
        - $ref: '#/components/schemas/Pet'
        - type: object
          required: [huntingSkill]
          properties:
            huntingSkill:
              type: string
`

func TestDiscriminatorBody(t *testing.T) {
	compiled := mustBuild(t, petsDoc)
	op := mustLookup(t, compiled, "/pets", "post")
	_, isTree := op.Body.(*validators.DiscriminatorValidator)
	require.True(t, isTree)

	t.Run("missing subtype property", func(t *testing.T) {
		assert.False(t, op.Body.Validate(map[string]any{"petType": "Dog", "name": "n"}))
		errs := op.Body.Errors()
		require.Len(t, errs, 1)
		assert.Equal(t, "required", errs[0].Keyword)
		assert.Equal(t, "packSize", errs[0].Params["missingProperty"])
	})

	t.Run("valid subtype", func(t *testing.T) {
		assert.True(t, op.Body.Validate(map[string]any{"petType": "Cat", "name": "n", "huntingSkill": "lazy"}), "%v", op.Body.Errors())
	})

	t.Run("unknown discriminator value", func(t *testing.T) {
		assert.False(t, op.Body.Validate(map[string]any{"petType": "Bird", "name": "n"}))
		errs := op.Body.Errors()
		require.Len(t, errs, 1)
		assert.Equal(t, "enum", errs[0].Keyword)
		assert.Equal(t, ".petType", errs[0].DataPath)
		assert.Equal(t, []any{"Dog", "Cat"}, errs[0].Params["allowedValues"])
	})
}

const ownedPetsDoc = `
openapi: "3.0.3"
info:
  title: Owned pets
  version: "1.0"
paths:
  /pets:
    post:
      requestBody:
        required: true
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/Pet'
      responses:
        "201":
          description: Created
components:
  schemas:
    Owner:
      type: object
      required: [name]
      properties:
        name:
          type: string
    Pet:
      type: object
      required: [petType]
      properties:
        petType:
          type: string
        owner:
          $ref: '#/components/schemas/Owner'
      discriminator:
        propertyName: petType
      oneOf:
        - $ref: '#/components/schemas/Dog'
        - $ref: '#/components/schemas/Cat'
    Dog:
      allOf:
        - $ref: '#/components/schemas/Pet'
        - type: object
          required: [packSize]
          properties:
            packSize:
              type: integer
    Cat:
      allOf:
        - $ref: '#/components/schemas/Pet'
        - type: object
          properties:
            huntingSkill:
              type: string
`

func TestDiscriminatorReferencedParentProperty(t *testing.T) {
	compiled := mustBuild(t, ownedPetsDoc)
	op := mustLookup(t, compiled, "/pets", "post")
	_, isTree := op.Body.(*validators.DiscriminatorValidator)
	require.True(t, isTree)

	tests := []struct {
		name        string
		payload     map[string]any
		valid       bool
		dataPath    string
		missingProp string
	}{
		{"owner satisfied", map[string]any{"petType": "Dog", "packSize": 2, "owner": map[string]any{"name": "Ann"}}, true, "", ""},
		{"owner omitted", map[string]any{"petType": "Cat"}, true, "", ""},
		{"owner missing name", map[string]any{"petType": "Dog", "packSize": 2, "owner": map[string]any{}}, false, ".owner", "name"},
		{"owner missing name on cat", map[string]any{"petType": "Cat", "owner": map[string]any{}}, false, ".owner", "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validators.Check(op.Body, tt.payload)
			if tt.valid {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Equal(t, "required", errs[0].Keyword)
			assert.Equal(t, tt.dataPath, errs[0].DataPath)
			assert.Equal(t, tt.missingProp, errs[0].Params["missingProperty"])
		})
	}
}

func TestSwaggerDiscriminatorBody(t *testing.T) {
	compiled := mustBuild(t, `
swagger: "2.0"
info:
  title: Pets
  version: "1.0"
paths:
  /pets:
    post:
      parameters:
        - name: pet
          in: body
          schema:
            $ref: '#/definitions/Pet'
      responses:
        "200":
          description: OK
          schema:
            $ref: '#/definitions/Pet'
definitions:
  Pet:
    type: object
    discriminator: petType
    required: [petType]
    properties:
      petType:
        type: string
  Dog:
    allOf:
      - $ref: '#/definitions/Pet'
      - type: object
        required: [packSize]
        properties:
          packSize:
            type: integer
  Cat:
    allOf:
      - $ref: '#/definitions/Pet'
      - type: object
        properties:
          huntingSkill:
            type: string
`)
	op := mustLookup(t, compiled, "/pets", "post")

	assert.False(t, op.Body.Validate(map[string]any{"petType": "Dog"}))
	assert.Equal(t, "packSize", op.Body.Errors()[0].Params["missingProperty"])
	assert.True(t, op.Body.Validate(map[string]any{"petType": "Cat"}))

	assert.False(t, op.Body.Validate(map[string]any{"petType": "Fish"}))
	assert.Equal(t, []any{"Cat", "Dog"}, op.Body.Errors()[0].Params["allowedValues"])

	resp := op.Responses["200"]
	assert.False(t, resp.Validate(validators.ResponseData{Body: map[string]any{"petType": "Dog"}}))
	assert.Equal(t, ".body", resp.Errors()[0].DataPath)
}

// =============================================================================
// Responses
// =============================================================================

const responseDoc = `
openapi: "3.0.3"
info:
  title: Pets
  version: "1.0"
paths:
  /pets:
    get:
      responses:
        "200":
          description: OK
          headers:
            x-next:
              required: true
              schema:
                type: string
          content:
            application/json:
              schema:
                type: object
                required: [name]
                properties:
                  name:
                    type: string
        "404":
          description: Not found
        x-internal:
          description: ignored
`

func TestResponses(t *testing.T) {
	t.Run("body and header errors in order", func(t *testing.T) {
		compiled, err := BuildSchemaSync([]byte(responseDoc))
		require.NoError(t, err)
		op := mustLookup(t, compiled, "/pets", "get")
		require.Len(t, op.Responses, 2)

		resp := op.Responses["200"]
		assert.False(t, resp.Validate(map[string]any{"body": map[string]any{}, "headers": map[string]any{}}))
		errs := resp.Errors()
		require.Len(t, errs, 2)
		assert.Equal(t, ".body", errs[0].DataPath)
		assert.Equal(t, "name", errs[0].Params["missingProperty"])
		assert.Equal(t, ".headers", errs[1].DataPath)
		assert.Equal(t, "x-next", errs[1].Params["missingProperty"])
	})

	t.Run("valid response", func(t *testing.T) {
		compiled := mustBuild(t, responseDoc)
		resp := mustLookup(t, compiled, "/pets", "get").Responses["200"]
		assert.True(t, resp.Validate(validators.ResponseData{
			Body:    map[string]any{"name": "rex"},
			Headers: map[string]any{"X-Next": "2", "Content-Type": "application/json"},
		}), "%v", resp.Errors())
	})

	t.Run("response without body", func(t *testing.T) {
		compiled := mustBuild(t, responseDoc)
		resp := mustLookup(t, compiled, "/pets", "get").Responses["404"]
		assert.True(t, resp.Validate(validators.ResponseData{Body: "anything"}))
	})

	t.Run("swagger produces and header coercion", func(t *testing.T) {
		doc := `
swagger: "2.0"
info:
  title: Pets
  version: "1.0"
produces:
  - application/json
paths:
  /pets:
    get:
      responses:
        "200":
          description: OK
          schema:
            type: array
            items:
              type: string
          headers:
            X-Rate-Limit:
              type: integer
`
		compiled := mustBuild(t, doc)
		resp := mustLookup(t, compiled, "/pets", "get").Responses["200"]
		assert.True(t, resp.Validate(validators.ResponseData{
			Body:    []any{"rex"},
			Headers: map[string]any{"X-Rate-Limit": "10"},
		}), "%v", resp.Errors())

		assert.False(t, resp.Validate(validators.ResponseData{
			Body:    []any{"rex"},
			Headers: map[string]any{"X-Rate-Limit": "ten"},
		}))
		errs := resp.Errors()
		require.Len(t, errs, 1)
		assert.Equal(t, ".headers['x-rate-limit']", errs[0].DataPath)

		compiled = mustBuild(t, doc, WithContentTypeValidation(true))
		resp = mustLookup(t, compiled, "/pets", "get").Responses["200"]
		assert.False(t, resp.Validate(validators.ResponseData{
			Body:    []any{"rex"},
			Headers: map[string]any{"Content-Type": "text/plain"},
		}))
		errs = resp.Errors()
		require.Len(t, errs, 2)
		for _, e := range errs {
			assert.Equal(t, "content", e.Keyword)
			assert.Equal(t, ".headers['content-type']", e.DataPath)
		}
	})
}

// =============================================================================
// Options and versions
// =============================================================================

func TestBuildToggles(t *testing.T) {
	t.Run("requests only", func(t *testing.T) {
		compiled := mustBuild(t, responseDoc, WithBuildResponses(false))
		op := mustLookup(t, compiled, "/pets", "get")
		assert.NotNil(t, op.Parameters)
		assert.Nil(t, op.Responses)
	})

	t.Run("responses only", func(t *testing.T) {
		compiled := mustBuild(t, visibilityDoc, WithBuildRequests(false))
		op := mustLookup(t, compiled, "/users", "post")
		assert.Nil(t, op.Parameters)
		assert.Nil(t, op.Body)
		assert.Len(t, op.Responses, 1)
	})
}

func TestOpenAPI31(t *testing.T) {
	compiled, err := BuildSchemaSync(map[string]any{
		"openapi": "3.1.0",
		"info":    map[string]any{"title": "Pets", "version": "1.0"},
		"paths": map[string]any{
			"/pets": map[string]any{
				"post": map[string]any{
					"requestBody": map[string]any{
						"content": map[string]any{
							"application/json": map[string]any{
								"schema": map[string]any{
									"type":       "object",
									"properties": map[string]any{"name": map[string]any{"type": []any{"string", "null"}}},
								},
							},
						},
					},
				},
			},
		},
	})
	require.NoError(t, err)
	op := mustLookup(t, compiled, "/pets", "post")
	assert.True(t, op.Body.Validate(map[string]any{"name": nil}))
	assert.False(t, op.Body.Validate(map[string]any{"name": 1}))
	assert.Empty(t, op.Responses)
}

func TestIdempotence(t *testing.T) {
	first := mustBuild(t, petsDoc)
	second := mustBuild(t, petsDoc)
	assert.Equal(t, first.Paths(), second.Paths())

	payloads := []any{
		map[string]any{"petType": "Dog", "name": "n"},
		map[string]any{"petType": "Dog", "name": "n", "packSize": 3},
		map[string]any{"petType": "Cat"},
		map[string]any{"petType": "Bird"},
		"not an object",
	}
	a := mustLookup(t, first, "/pets", "post").Body
	b := mustLookup(t, second, "/pets", "post").Body
	for _, p := range payloads {
		assert.Equal(t, validators.Check(a, p), validators.Check(b, p))
	}
}

func TestRepeatedBuildsAgree(t *testing.T) {
	payloads := []struct {
		payload any
		valid   bool
	}{
		{map[string]any{"petType": "Dog", "name": "n"}, false},
		{map[string]any{"petType": "Dog", "name": "n", "packSize": 3}, true},
		{map[string]any{"petType": "Cat", "name": "n", "huntingSkill": "lazy"}, true},
		{map[string]any{"petType": "Cat", "name": "n"}, false},
		{map[string]any{"petType": "Bird", "name": "n"}, false},
	}
	for i := range 25 {
		compiled := mustBuild(t, petsDoc)
		body := mustLookup(t, compiled, "/pets", "post").Body
		for _, p := range payloads {
			assert.Equal(t, p.valid, body.Validate(p.payload), "build %d: %v %v", i, p.payload, body.Errors())
		}
	}
}

const treeDoc = `
openapi: "3.0.3"
info:
  title: Tree
  version: "1.0"
paths:
  /nodes:
    post:
      requestBody:
        required: true
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/Node'
      responses:
        "201":
          description: Created
components:
  schemas:
    Node:
      type: object
      properties:
        value:
          type: integer
        children:
          type: array
          items:
            $ref: '#/components/schemas/Node'
`

func TestRecursiveBody(t *testing.T) {
	deep := map[string]any{
		"value": 1,
		"children": []any{
			map[string]any{"children": []any{map[string]any{"value": "x"}}},
		},
	}
	for i := range 25 {
		compiled := mustBuild(t, treeDoc)
		body := mustLookup(t, compiled, "/nodes", "post").Body

		assert.True(t, body.Validate(map[string]any{"value": 1, "children": []any{map[string]any{"value": 2}}}), "build %d: %v", i, body.Errors())

		errs := validators.Check(body, deep)
		require.Len(t, errs, 1, "build %d", i)
		assert.Equal(t, "type", errs[0].Keyword)
		assert.Equal(t, ".children[0].children[0].value", errs[0].DataPath)
	}
}

// =============================================================================
// Errors
// =============================================================================

func TestBuildErrors(t *testing.T) {
	t.Run("no source", func(t *testing.T) {
		_, err := BuildWithOptions(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, oaserrors.ErrConfig))
	})

	t.Run("several sources", func(t *testing.T) {
		_, err := BuildWithOptions(context.Background(),
			WithBytes([]byte(serversDoc)),
			WithDocument(map[string]any{"openapi": "3.0.3"}),
		)
		require.Error(t, err)
		assert.True(t, errors.Is(err, oaserrors.ErrConfig))
	})

	t.Run("unsupported source type", func(t *testing.T) {
		_, err := BuildSchemaSync(42)
		require.Error(t, err)
		assert.True(t, errors.Is(err, oaserrors.ErrConfig))
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := BuildSchema(context.Background(), "")
		assert.True(t, errors.Is(err, oaserrors.ErrConfig))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := BuildSchema(context.Background(), "testdata/does-not-exist.yaml")
		assert.True(t, errors.Is(err, oaserrors.ErrParse))
	})

	t.Run("invalid format pattern", func(t *testing.T) {
		_, err := BuildWithOptions(context.Background(),
			WithBytes([]byte(serversDoc)),
			WithFormats(Format{Name: "bad", Pattern: "("}),
		)
		assert.True(t, errors.Is(err, oaserrors.ErrConfig))
	})

	t.Run("meta-validation of openapi 3.0", func(t *testing.T) {
		doc := map[string]any{"openapi": "3.0.3", "paths": map[string]any{}}
		_, err := BuildSchemaSync(doc)
		require.Error(t, err)
		assert.True(t, errors.Is(err, oaserrors.ErrValidation))

		_, err = BuildWithOptions(context.Background(), WithDocument(doc))
		assert.NoError(t, err)

		_, err = BuildWithOptions(context.Background(), WithDocument(doc), WithValidateDocument(true))
		assert.True(t, errors.Is(err, oaserrors.ErrValidation))
	})

	t.Run("discriminator without oneOf", func(t *testing.T) {
		_, err := BuildWithOptions(context.Background(), WithBytes([]byte(`
openapi: "3.0.3"
info:
  title: Pets
  version: "1.0"
paths:
  /pets:
    post:
      requestBody:
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/Pet'
      responses:
        "200":
          description: OK
components:
  schemas:
    Pet:
      type: object
      discriminator:
        propertyName: petType
`)))
		require.Error(t, err)
		assert.True(t, errors.Is(err, oaserrors.ErrSchema))
		assert.Contains(t, err.Error(), "oneOf must be part of discriminator")
	})

	t.Run("malformed parameter", func(t *testing.T) {
		_, err := BuildWithOptions(context.Background(), WithBytes([]byte(`
swagger: "2.0"
info:
  title: Pets
  version: "1.0"
paths:
  /pets:
    get:
      parameters:
        - in: query
      responses:
        "200":
          description: OK
`)))
		assert.True(t, errors.Is(err, oaserrors.ErrSchema))
	})
}

// =============================================================================
// Loading
// =============================================================================

func TestBuildSchemaFromFile(t *testing.T) {
	compiled, err := BuildSchema(context.Background(), "testdata/petstore.yaml", WithValidateDocument(true))
	require.NoError(t, err)
	assert.Equal(t, []string{"/v1/pets", "/v1/pets/:petId"}, compiled.Paths())

	op := mustLookup(t, compiled, "/v1/pets", "get")
	assert.True(t, op.Parameters.Validate(map[string]any{"query": map[string]any{"limit": "20"}}))
	assert.False(t, op.Parameters.Validate(map[string]any{"query": map[string]any{"limit": "500"}}))
	assert.Equal(t, "maximum", op.Parameters.Errors()[0].Keyword)

	sync, err := BuildSchemaSync("testdata/petstore.yaml")
	require.NoError(t, err)
	assert.Equal(t, compiled.Paths(), sync.Paths())
}
