package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/erraggy/schemabuilder/internal/schemautil"
	"github.com/erraggy/schemabuilder/oaserrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Version detection
// =============================================================================

func TestDetectVersion(t *testing.T) {
	tests := []struct {
		name     string
		doc      map[string]any
		declared string
		want     Version
		wantErr  bool
	}{
		{"swagger string", map[string]any{"swagger": "2.0"}, "2.0", Version20, false},
		{"swagger number", map[string]any{"swagger": 2.0}, "2.0", Version20, false},
		{"openapi 3.0", map[string]any{"openapi": "3.0.3"}, "3.0.3", Version30, false},
		{"openapi 3.1", map[string]any{"openapi": "3.1.0"}, "3.1.0", Version31, false},
		{"openapi 3.2", map[string]any{"openapi": "3.2.0"}, "3.2.0", Version31, false},
		{"swagger 3", map[string]any{"swagger": "3.0"}, "3.0", VersionUnknown, true},
		{"openapi 2", map[string]any{"openapi": "2.0"}, "2.0", VersionUnknown, true},
		{"missing", map[string]any{"info": map[string]any{}}, "", VersionUnknown, true},
		{"wrong type", map[string]any{"openapi": true}, "", VersionUnknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			declared, got, err := DetectVersion(tt.doc)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, oaserrors.ErrParse))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.declared, declared)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVersionString(t *testing.T) {
	assert.Equal(t, "2.0", Version20.String())
	assert.Equal(t, "3.1", Version31.String())
	assert.Equal(t, "unknown", VersionUnknown.String())
	assert.True(t, Version30.IsOAS3())
	assert.False(t, Version20.IsOAS3())
}

// =============================================================================
// Loading
// =============================================================================

func TestLoadFile(t *testing.T) {
	ctx := context.Background()

	t.Run("swagger yaml", func(t *testing.T) {
		doc, err := New().Load(ctx, "testdata/swagger.yaml")
		require.NoError(t, err)

		assert.Equal(t, Version20, doc.Version)
		assert.Equal(t, "2.0", doc.VersionString)
		assert.Equal(t, SourceFormatYAML, doc.SourceFormat)
		assert.False(t, doc.HasCircularRefs)

		// response codes declared as YAML integers become string keys
		responses := schemautil.Map(schemautil.Map(schemautil.Map(schemautil.Map(doc.Referenced, "paths"), "/pets/{petId}"), "get"), "responses")
		require.Contains(t, responses, "200")

		ref := schemautil.Map(schemautil.Map(responses, "200"), "schema")
		assert.Equal(t, "#/definitions/Pet", ref["$ref"], "referenced view keeps $ref")

		derefResponses := schemautil.Map(schemautil.Map(schemautil.Map(schemautil.Map(doc.Dereferenced, "paths"), "/pets/{petId}"), "get"), "responses")
		schema := schemautil.Map(schemautil.Map(derefResponses, "200"), "schema")
		assert.Equal(t, "object", schema["type"])
		assert.Equal(t, float64(0), schemautil.Map(schemautil.Map(schema, "properties"), "age")["minimum"])
	})

	t.Run("openapi json", func(t *testing.T) {
		doc, err := New().Load(ctx, "testdata/openapi.json")
		require.NoError(t, err)
		assert.Equal(t, Version30, doc.Version)
		assert.Equal(t, SourceFormatJSON, doc.SourceFormat)
		assert.Equal(t, "testdata/openapi.json", doc.SourcePath)
	})

	t.Run("circular references stay in place", func(t *testing.T) {
		doc, err := New().Load(ctx, "testdata/circular.yaml")
		require.NoError(t, err)
		assert.True(t, doc.HasCircularRefs)
		assert.True(t, hasRefs(doc.Dereferenced))

		items, err := schemautil.LookupMap(doc.Dereferenced, "#/components/schemas/Node/properties/children/items")
		require.NoError(t, err)
		assert.Equal(t, "#/components/schemas/Node", items["$ref"])
	})

	t.Run("external file references", func(t *testing.T) {
		doc, err := New().Load(ctx, "testdata/external.yaml")
		require.NoError(t, err)

		order, err := schemautil.LookupMap(doc.Dereferenced, "#/components/schemas/Order")
		require.NoError(t, err)
		props := schemautil.Map(order, "properties")
		assert.Equal(t, []any{"placed", "shipped"}, schemautil.Map(props, "status")["enum"])
		assert.Equal(t, "object", schemautil.Map(props, "owner")["type"])
		assert.False(t, hasRefs(order))
	})

	t.Run("path traversal is rejected", func(t *testing.T) {
		_, err := New().Load(ctx, "testdata/traversal.yaml")
		require.Error(t, err)
		assert.True(t, errors.Is(err, oaserrors.ErrPathTraversal))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := New().Load(ctx, "testdata/does-not-exist.yaml")
		require.Error(t, err)
		assert.True(t, errors.Is(err, oaserrors.ErrParse))
	})
}

func TestLoadBytes(t *testing.T) {
	ctx := context.Background()

	t.Run("yaml", func(t *testing.T) {
		doc, err := New().LoadBytes(ctx, []byte("openapi: 3.1.0\ninfo: {title: t, version: '1'}\npaths: {}\n"))
		require.NoError(t, err)
		assert.Equal(t, Version31, doc.Version)
		assert.Equal(t, SourceFormatYAML, doc.SourceFormat)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := New().LoadBytes(ctx, []byte("openapi: [unclosed"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, oaserrors.ErrParse))
	})

	t.Run("non-object root", func(t *testing.T) {
		_, err := New().LoadBytes(ctx, []byte("- a\n- b\n"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, oaserrors.ErrParse))
	})

	t.Run("unresolvable ref", func(t *testing.T) {
		data := []byte(`{"openapi":"3.0.0","paths":{},"components":{"schemas":{"A":{"$ref":"#/components/schemas/Missing"}}}}`)
		_, err := New().LoadBytes(ctx, data)
		require.Error(t, err)
		assert.True(t, errors.Is(err, oaserrors.ErrReference))
	})
}

const mutualRefsDoc = `{
  "openapi": "3.0.3",
  "paths": {},
  "components": {"schemas": {
    "Pet": {
      "type": "object",
      "properties": {"petType": {"type": "string"}},
      "discriminator": {"propertyName": "petType"},
      "oneOf": [{"$ref": "#/components/schemas/Dog"}, {"$ref": "#/components/schemas/Cat"}]
    },
    "Dog": {"allOf": [{"$ref": "#/components/schemas/Pet"}, {"required": ["packSize"]}]},
    "Cat": {"allOf": [{"$ref": "#/components/schemas/Pet"}, {"required": ["huntingSkill"]}]}
  }}
}`

func TestLoadBytes_MutualRefsAreStable(t *testing.T) {
	ctx := context.Background()
	for i := range 25 {
		doc, err := New().LoadBytes(ctx, []byte(mutualRefsDoc))
		require.NoError(t, err)
		assert.True(t, doc.HasCircularRefs, "load %d", i)

		// Each component is expanded once and only the ref back to
		// itself is left in place.
		dogParent, err := schemautil.LookupMap(doc.Dereferenced, "#/components/schemas/Dog/allOf/0")
		require.NoError(t, err)
		assert.NotContains(t, dogParent, "$ref", "load %d", i)
		assert.Contains(t, dogParent, "discriminator", "load %d", i)

		petDog, err := schemautil.LookupMap(doc.Dereferenced, "#/components/schemas/Pet/oneOf/0/allOf/0")
		require.NoError(t, err)
		assert.Equal(t, "#/components/schemas/Pet", petDog["$ref"], "load %d", i)

		catSelf, err := schemautil.LookupMap(doc.Dereferenced, "#/components/schemas/Cat/allOf/0/oneOf/1")
		require.NoError(t, err)
		assert.Equal(t, "#/components/schemas/Cat", catSelf["$ref"], "load %d", i)

		catDogPet, err := schemautil.LookupMap(doc.Dereferenced, "#/components/schemas/Cat/allOf/0/oneOf/0/allOf/0")
		require.NoError(t, err)
		assert.Equal(t, "#/components/schemas/Pet", catDogPet["$ref"], "load %d", i)
	}
}

func TestLoadMap(t *testing.T) {
	input := map[string]any{
		"swagger": "2.0",
		"paths":   map[string]any{},
		"definitions": map[string]any{
			"A": map[string]any{"type": "object", "properties": map[string]any{"b": map[string]any{"$ref": "#/definitions/B"}}},
			"B": map[string]any{"type": "integer", "maximum": 10},
		},
	}

	doc, err := New().LoadMap(context.Background(), input)
	require.NoError(t, err)

	b := schemautil.Map(schemautil.Map(schemautil.Map(schemautil.Map(doc.Dereferenced, "definitions"), "A"), "properties"), "b")
	assert.Equal(t, "integer", b["type"])
	assert.Equal(t, float64(10), b["maximum"])

	// the caller's map is untouched
	orig := input["definitions"].(map[string]any)["A"].(map[string]any)["properties"].(map[string]any)["b"].(map[string]any)
	assert.Equal(t, "#/definitions/B", orig["$ref"])

	_, err = New().LoadMap(context.Background(), nil)
	assert.True(t, errors.Is(err, oaserrors.ErrConfig))
}

func TestLoadURL(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "openapi.json"))
	require.NoError(t, err)

	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/spec":
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			_, _ = w.Write(data)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := New()
	l.UserAgent = "schemabuilder-test"
	doc, err := l.Load(context.Background(), srv.URL+"/spec")
	require.NoError(t, err)
	assert.Equal(t, Version30, doc.Version)
	assert.Equal(t, SourceFormatJSON, doc.SourceFormat)
	assert.Equal(t, "schemabuilder-test", gotAgent)

	_, err = l.Load(context.Background(), srv.URL+"/missing.yaml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, oaserrors.ErrParse))
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, SourceFormatYAML, detectFormatFromPath("api.YML"))
	assert.Equal(t, SourceFormatUnknown, detectFormatFromPath("api.txt"))
	assert.Equal(t, SourceFormatJSON, detectFormatFromContent([]byte("  {\"a\":1}")))
	assert.Equal(t, SourceFormatYAML, detectFormatFromURL("https://x/spec", "text/yaml"))
	assert.Equal(t, SourceFormatJSON, detectFormatFromURL("https://x/spec.json", "text/plain"))
}

func TestNopLogger(t *testing.T) {
	var l Logger = NopLogger{}
	l.Info("ignored", "k", "v")
	assert.Equal(t, NopLogger{}, l.With("a", 1))
	assert.NotNil(t, NewSlogAdapter(nil).With("k", "v"))
}

// hasRefs reports whether v contains any $ref.
func hasRefs(v any) bool {
	switch t := v.(type) {
	case map[string]any:
		if _, ok := t["$ref"].(string); ok {
			return true
		}
		for _, item := range t {
			if hasRefs(item) {
				return true
			}
		}
	case []any:
		for _, item := range t {
			if hasRefs(item) {
				return true
			}
		}
	}
	return false
}
