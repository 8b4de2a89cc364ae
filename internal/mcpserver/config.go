package mcpserver

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// serverConfig holds all configurable MCP server defaults.
// Loaded once at startup from environment variables via loadConfig().
type serverConfig struct {
	// Cache settings.
	CacheEnabled       bool
	CacheMaxSize       int
	CacheFileTTL       time.Duration
	CacheURLTTL        time.Duration
	CacheContentTTL    time.Duration
	CacheSweepInterval time.Duration

	// Result limits.
	ListLimit int
	MaxLimit  int

	// Input limits.
	MaxInlineSize   int64
	MaxBodySize     int64
	AllowPrivateIPs bool

	// Compilation defaults.
	ContentTypeValidation bool
	ValidateDocument      bool
}

// cfg is the active server configuration, initialized at package load time.
var cfg = loadConfig()

// loadConfig reads configuration from SCHEMABUILDER_* environment variables.
// Invalid values log a warning and fall back to the hardcoded default.
func loadConfig() *serverConfig {
	return &serverConfig{
		CacheEnabled:          envBool("SCHEMABUILDER_CACHE_ENABLED", true),
		CacheMaxSize:          envInt("SCHEMABUILDER_CACHE_MAX_SIZE", 10),
		CacheFileTTL:          envDuration("SCHEMABUILDER_CACHE_FILE_TTL", 15*time.Minute),
		CacheURLTTL:           envDuration("SCHEMABUILDER_CACHE_URL_TTL", 5*time.Minute),
		CacheContentTTL:       envDuration("SCHEMABUILDER_CACHE_CONTENT_TTL", 15*time.Minute),
		CacheSweepInterval:    envDuration("SCHEMABUILDER_CACHE_SWEEP_INTERVAL", 60*time.Second),
		ListLimit:             envInt("SCHEMABUILDER_LIST_LIMIT", 100),
		MaxLimit:              envInt("SCHEMABUILDER_MAX_LIMIT", 1000),
		MaxInlineSize:         envInt64("SCHEMABUILDER_MAX_INLINE_SIZE", 10*1024*1024),
		MaxBodySize:           envInt64("SCHEMABUILDER_MAX_BODY_SIZE", 10*1024*1024),
		AllowPrivateIPs:       envBool("SCHEMABUILDER_ALLOW_PRIVATE_IPS", false),
		ContentTypeValidation: envBool("SCHEMABUILDER_CONTENT_TYPE_VALIDATION", false),
		ValidateDocument:      envBool("SCHEMABUILDER_VALIDATE_DOCUMENT", false),
	}
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid bool env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("invalid int env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return n
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		slog.Warn("invalid size env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return d
}
