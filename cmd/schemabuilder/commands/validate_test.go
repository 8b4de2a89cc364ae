package commands

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// validate-request
// =============================================================================

func TestSetupValidateRequestFlags(t *testing.T) {
	fs, flags := SetupValidateRequestFlags()

	t.Run("default values", func(t *testing.T) {
		assert.Equal(t, "GET", flags.Method)
		assert.Equal(t, FormatText, flags.Format)
		assert.Empty(t, flags.Path)
		assert.Zero(t, flags.MaxBodySize)
	})

	t.Run("parse flags", func(t *testing.T) {
		args := []string{"-X", "post", "--path", "/v1/pets", "-d", "{}", "-H", "X-Trace: 1", "--query", "a=b", "api.yaml"}
		require.NoError(t, fs.Parse(args))

		assert.Equal(t, "post", flags.Method)
		assert.Equal(t, "/v1/pets", flags.Path)
		assert.Equal(t, "{}", flags.Data)
		assert.Equal(t, "1", flags.headers.header.Get("X-Trace"))
		assert.Equal(t, "b", flags.query.values.Get("a"))
		assert.Equal(t, "api.yaml", fs.Arg(0))
	})
}

func TestHandleValidateRequest_Errors(t *testing.T) {
	spec := writeTestSpec(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no args", []string{}},
		{"missing path", []string{spec}},
		{"invalid format", []string{"--path", "/v1/pets", "--format", "xml", spec}},
		{"both data flags", []string{"--path", "/v1/pets", "-d", "{}", "--data-file", "x.json", spec}},
		{"invalid content type", []string{"--path", "/v1/pets", "--content-type", "application/", spec}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captureOutput(t, "")
			err := HandleValidateRequest(tt.args)
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrValidationFailed)
		})
	}
}

func TestHandleValidateRequest(t *testing.T) {
	spec := writeTestSpec(t)

	t.Run("valid body", func(t *testing.T) {
		out, errOut := captureOutput(t, "")
		err := HandleValidateRequest([]string{"-X", "POST", "--path", "/v1/pets", "-d", `{"name":"Rex"}`, spec})
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Matched: POST /v1/pets")
		assert.Contains(t, out.String(), "✓ Validation passed")
		assert.Contains(t, errOut.String(), "Request: POST /v1/pets")
	})

	t.Run("invalid body", func(t *testing.T) {
		out, _ := captureOutput(t, "")
		err := HandleValidateRequest([]string{"-X", "POST", "--path", "/v1/pets", "-d", `{}`, spec})
		require.ErrorIs(t, err, ErrValidationFailed)
		assert.Contains(t, out.String(), ".body [required]")
		assert.Contains(t, out.String(), "✗ Validation failed: 1 error(s)")
	})

	t.Run("query in path", func(t *testing.T) {
		out, _ := captureOutput(t, "")
		err := HandleValidateRequest([]string{"-q", "--path", "/v1/pets?limit=500", spec})
		require.ErrorIs(t, err, ErrValidationFailed)
		assert.Contains(t, out.String(), ".query.limit [maximum]")
	})

	t.Run("query flag", func(t *testing.T) {
		captureOutput(t, "")
		err := HandleValidateRequest([]string{"-q", "--path", "/v1/pets", "--query", "limit=5", spec})
		assert.NoError(t, err)
	})

	t.Run("body from stdin", func(t *testing.T) {
		captureOutput(t, `{"name":"Rex","id":7}`)
		err := HandleValidateRequest([]string{"-q", "-X", "POST", "--path", "/v1/pets", "--data-file", "-", spec})
		assert.NoError(t, err)
	})

	t.Run("json output", func(t *testing.T) {
		out, errOut := captureOutput(t, "")
		err := HandleValidateRequest([]string{"--format", "json", "--path", "/v1/owners", spec})
		require.ErrorIs(t, err, ErrValidationFailed)
		assert.Empty(t, errOut.String())

		var report ValidationReport
		require.NoError(t, json.Unmarshal(out.Bytes(), &report))
		assert.False(t, report.Valid)
		require.Len(t, report.Errors, 1)
		assert.Equal(t, "path", report.Errors[0].Keyword)
	})
}

// =============================================================================
// validate-response
// =============================================================================

func TestHandleValidateResponse_Errors(t *testing.T) {
	spec := writeTestSpec(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no args", []string{}},
		{"missing path", []string{spec}},
		{"status out of range", []string{"--path", "/v1/pets", "--status", "42", spec}},
		{"invalid format", []string{"--path", "/v1/pets", "--format", "xml", spec}},
		{"invalid content type", []string{"--path", "/v1/pets", "--content-type", "json", spec}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captureOutput(t, "")
			err := HandleValidateResponse(tt.args)
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrValidationFailed)
		})
	}
}

func TestHandleValidateResponse(t *testing.T) {
	spec := writeTestSpec(t)

	t.Run("valid response", func(t *testing.T) {
		out, _ := captureOutput(t, "")
		err := HandleValidateResponse([]string{"--path", "/v1/pets", "-d", `[{"id":1,"name":"Rex"}]`, spec})
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Response: 200")
	})

	t.Run("bodyless response", func(t *testing.T) {
		captureOutput(t, "")
		err := HandleValidateResponse([]string{"-q", "-X", "POST", "--path", "/v1/pets", "--status", "201", spec})
		assert.NoError(t, err)
	})

	t.Run("default response", func(t *testing.T) {
		out, _ := captureOutput(t, "")
		err := HandleValidateResponse([]string{"-q", "--format", "yaml", "-X", "POST", "--path", "/v1/pets", "--status", "500", "-d", `{}`, spec})
		require.ErrorIs(t, err, ErrValidationFailed)
		assert.Contains(t, out.String(), "responseKey: default")
		assert.Contains(t, out.String(), "keyword: required")
	})

	t.Run("undocumented status warns", func(t *testing.T) {
		out, _ := captureOutput(t, "")
		err := HandleValidateResponse([]string{"-q", "--path", "/v1/pets", "--status", "404", spec})
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Warnings (1):")
		assert.Contains(t, out.String(), "with 1 warning(s)")
	})
}
