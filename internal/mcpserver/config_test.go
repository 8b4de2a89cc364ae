package mcpserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// clearSchemabuilderEnv clears all SCHEMABUILDER_* env vars to isolate tests from the ambient environment.
func clearSchemabuilderEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SCHEMABUILDER_CACHE_ENABLED", "SCHEMABUILDER_CACHE_MAX_SIZE",
		"SCHEMABUILDER_CACHE_FILE_TTL", "SCHEMABUILDER_CACHE_URL_TTL",
		"SCHEMABUILDER_CACHE_CONTENT_TTL", "SCHEMABUILDER_CACHE_SWEEP_INTERVAL",
		"SCHEMABUILDER_LIST_LIMIT", "SCHEMABUILDER_MAX_LIMIT",
		"SCHEMABUILDER_MAX_INLINE_SIZE", "SCHEMABUILDER_MAX_BODY_SIZE",
		"SCHEMABUILDER_ALLOW_PRIVATE_IPS", "SCHEMABUILDER_CONTENT_TYPE_VALIDATION",
		"SCHEMABUILDER_VALIDATE_DOCUMENT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearSchemabuilderEnv(t)

	c := loadConfig()

	assert.True(t, c.CacheEnabled)
	assert.Equal(t, 10, c.CacheMaxSize)
	assert.Equal(t, 15*time.Minute, c.CacheFileTTL)
	assert.Equal(t, 5*time.Minute, c.CacheURLTTL)
	assert.Equal(t, 15*time.Minute, c.CacheContentTTL)
	assert.Equal(t, 60*time.Second, c.CacheSweepInterval)
	assert.Equal(t, 100, c.ListLimit)
	assert.Equal(t, 1000, c.MaxLimit)
	assert.Equal(t, int64(10*1024*1024), c.MaxInlineSize)
	assert.Equal(t, int64(10*1024*1024), c.MaxBodySize)
	assert.False(t, c.AllowPrivateIPs)
	assert.False(t, c.ContentTypeValidation)
	assert.False(t, c.ValidateDocument)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearSchemabuilderEnv(t)
	t.Setenv("SCHEMABUILDER_CACHE_ENABLED", "false")
	t.Setenv("SCHEMABUILDER_CACHE_MAX_SIZE", "50")
	t.Setenv("SCHEMABUILDER_CACHE_FILE_TTL", "30m")
	t.Setenv("SCHEMABUILDER_CACHE_URL_TTL", "2m")
	t.Setenv("SCHEMABUILDER_CACHE_CONTENT_TTL", "10m")
	t.Setenv("SCHEMABUILDER_CACHE_SWEEP_INTERVAL", "30s")
	t.Setenv("SCHEMABUILDER_LIST_LIMIT", "200")
	t.Setenv("SCHEMABUILDER_MAX_LIMIT", "500")
	t.Setenv("SCHEMABUILDER_MAX_INLINE_SIZE", "1024")
	t.Setenv("SCHEMABUILDER_MAX_BODY_SIZE", "2048")
	t.Setenv("SCHEMABUILDER_ALLOW_PRIVATE_IPS", "true")
	t.Setenv("SCHEMABUILDER_CONTENT_TYPE_VALIDATION", "1")
	t.Setenv("SCHEMABUILDER_VALIDATE_DOCUMENT", "true")

	c := loadConfig()

	assert.False(t, c.CacheEnabled)
	assert.Equal(t, 50, c.CacheMaxSize)
	assert.Equal(t, 30*time.Minute, c.CacheFileTTL)
	assert.Equal(t, 2*time.Minute, c.CacheURLTTL)
	assert.Equal(t, 10*time.Minute, c.CacheContentTTL)
	assert.Equal(t, 30*time.Second, c.CacheSweepInterval)
	assert.Equal(t, 200, c.ListLimit)
	assert.Equal(t, 500, c.MaxLimit)
	assert.Equal(t, int64(1024), c.MaxInlineSize)
	assert.Equal(t, int64(2048), c.MaxBodySize)
	assert.True(t, c.AllowPrivateIPs)
	assert.True(t, c.ContentTypeValidation)
	assert.True(t, c.ValidateDocument)
}

func TestLoadConfig_InvalidValues_UseDefaults(t *testing.T) {
	clearSchemabuilderEnv(t)
	t.Setenv("SCHEMABUILDER_CACHE_MAX_SIZE", "banana")
	t.Setenv("SCHEMABUILDER_CACHE_FILE_TTL", "not-a-duration")
	t.Setenv("SCHEMABUILDER_CACHE_URL_TTL", "-1m")
	t.Setenv("SCHEMABUILDER_CACHE_ENABLED", "maybe")
	t.Setenv("SCHEMABUILDER_LIST_LIMIT", "-5")
	t.Setenv("SCHEMABUILDER_MAX_INLINE_SIZE", "abc")
	t.Setenv("SCHEMABUILDER_MAX_BODY_SIZE", "0")
	t.Setenv("SCHEMABUILDER_MAX_LIMIT", "0")

	c := loadConfig()

	assert.True(t, c.CacheEnabled)
	assert.Equal(t, 10, c.CacheMaxSize)
	assert.Equal(t, 15*time.Minute, c.CacheFileTTL)
	assert.Equal(t, 5*time.Minute, c.CacheURLTTL)
	assert.Equal(t, 100, c.ListLimit)
	assert.Equal(t, int64(10*1024*1024), c.MaxInlineSize)
	assert.Equal(t, int64(10*1024*1024), c.MaxBodySize)
	assert.Equal(t, 1000, c.MaxLimit)
}

func TestLoadConfig_PartialOverrides(t *testing.T) {
	clearSchemabuilderEnv(t)
	t.Setenv("SCHEMABUILDER_LIST_LIMIT", "42")
	t.Setenv("SCHEMABUILDER_CACHE_URL_TTL", "10m")

	c := loadConfig()

	assert.Equal(t, 42, c.ListLimit)
	assert.Equal(t, 10*time.Minute, c.CacheURLTTL)
	// Unchanged defaults:
	assert.Equal(t, 15*time.Minute, c.CacheFileTTL)
	assert.True(t, c.CacheEnabled)
	assert.False(t, c.ContentTypeValidation)
}
