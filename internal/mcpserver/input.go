package mcpserver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erraggy/schemabuilder/apischema"
)

// specInput represents the three ways an OAS document can be provided to a tool.
// Exactly one of File, URL, or Content must be set.
type specInput struct {
	File    string `json:"file,omitempty"    jsonschema:"Path to an OAS file on disk"`
	URL     string `json:"url,omitempty"     jsonschema:"URL to fetch an OAS document from"`
	Content string `json:"content,omitempty" jsonschema:"Inline OAS document content (JSON or YAML)"`
}

// compileInput holds the compilation switches a tool call may override.
// Nil fields take the server defaults.
type compileInput struct {
	ContentTypeValidation  *bool `json:"content_type_validation,omitempty" jsonschema:"Reject request/response Content-Types the operation does not declare"`
	ExpectFormFieldsInBody bool  `json:"expect_form_fields_in_body,omitempty" jsonschema:"Validate OpenAPI 2 formData fields as the request body"`
	OptionalNullable       bool  `json:"optional_nullable,omitempty" jsonschema:"Accept null for every optional object property"`
}

// compileSettings is a compileInput with defaults applied.
type compileSettings struct {
	contentTypeValidation  bool
	expectFormFieldsInBody bool
	optionalNullable       bool
}

func (c compileInput) settings() compileSettings {
	s := compileSettings{
		contentTypeValidation:  cfg.ContentTypeValidation,
		expectFormFieldsInBody: c.ExpectFormFieldsInBody,
		optionalNullable:       c.OptionalNullable,
	}
	if c.ContentTypeValidation != nil {
		s.contentTypeValidation = *c.ContentTypeValidation
	}
	return s
}

func (s compileSettings) String() string {
	return fmt.Sprintf("ct=%t,form=%t,null=%t", s.contentTypeValidation, s.expectFormFieldsInBody, s.optionalNullable)
}

func (s compileSettings) options() []apischema.Option {
	return []apischema.Option{
		apischema.WithContentTypeValidation(s.contentTypeValidation),
		apischema.WithExpectFormFieldsInBody(s.expectFormFieldsInBody),
		apischema.WithMakeOptionalAttributesNullable(s.optionalNullable),
		apischema.WithValidateDocument(cfg.ValidateDocument),
	}
}

// cacheEntry holds a cached compilation with LRU ordering and TTL expiry.
type cacheEntry struct {
	compiled  *apischema.CompiledSchema
	insertAt  time.Time
	expiresAt time.Time
}

// specCacheStore provides a session-scoped cache for compiled documents.
// File inputs are keyed by (absolutePath, modTime). Content inputs are keyed
// by a SHA-256 hash. URL inputs are keyed by URL string. Every key also
// carries the compilation settings.
// Entries have per-type TTLs and a background sweeper removes expired entries.
type specCacheStore struct {
	mu             sync.Mutex
	entries        map[string]*cacheEntry
	maxSize        int
	sweeperStarted atomic.Bool
}

var specCache = &specCacheStore{
	entries: make(map[string]*cacheEntry),
	maxSize: cfg.CacheMaxSize,
}

// get returns a cached result or nil. Expired entries are lazily removed.
func (c *specCacheStore) get(key string) *apischema.CompiledSchema {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
			delete(c.entries, key)
			return nil
		}
		// Touch entry for LRU.
		e.insertAt = time.Now()
		return e.compiled
	}
	return nil
}

// putWithTTL stores a result with a specific TTL, evicting the oldest entry if at capacity.
func (c *specCacheStore) putWithTTL(key string, compiled *apischema.CompiledSchema, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	entry := &cacheEntry{compiled: compiled, insertAt: now, expiresAt: now.Add(ttl)}

	if _, ok := c.entries[key]; ok {
		c.entries[key] = entry
		return
	}

	if len(c.entries) >= c.maxSize {
		var oldestKey string
		var oldestTime time.Time
		for k, e := range c.entries {
			if oldestKey == "" || e.insertAt.Before(oldestTime) {
				oldestKey = k
				oldestTime = e.insertAt
			}
		}
		if oldestKey != "" {
			delete(c.entries, oldestKey)
		}
	}

	c.entries[key] = entry
}

// sweep removes all expired entries from the cache.
func (c *specCacheStore) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for k, e := range c.entries {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

// startSweeper launches a background goroutine that periodically removes expired entries.
// It is safe to call multiple times; only the first call spawns a sweeper.
// It stops when ctx is cancelled.
func (c *specCacheStore) startSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	if !c.sweeperStarted.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer c.sweeperStarted.Store(false)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.sweep()
			}
		}
	}()
}

// reset clears all cached entries. Used in tests.
func (c *specCacheStore) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

// size returns the number of cached entries.
func (c *specCacheStore) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// makeCacheKey creates a cache key for the given spec input and settings.
// Returns an empty string when the input cannot be keyed.
func makeCacheKey(s specInput, settings compileSettings) string {
	switch {
	case s.File != "":
		absPath, err := filepath.Abs(s.File)
		if err != nil {
			return ""
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return "" // Can't stat, don't cache.
		}
		return fmt.Sprintf("file:%s:%d:%s", absPath, info.ModTime().UnixNano(), settings)
	case s.Content != "":
		h := sha256.Sum256([]byte(s.Content))
		return fmt.Sprintf("content:%s:%s", hex.EncodeToString(h[:]), settings)
	case s.URL != "":
		return fmt.Sprintf("url:%s:%s", s.URL, settings)
	default:
		return ""
	}
}

// resolve compiles the document from whichever input was provided, using
// the cache for file, URL, and content inputs.
func (s specInput) resolve(ctx context.Context, settings compileSettings) (*apischema.CompiledSchema, error) {
	count := 0
	if s.File != "" {
		count++
	}
	if s.URL != "" {
		count++
	}
	if s.Content != "" {
		count++
	}
	if count != 1 {
		return nil, fmt.Errorf("exactly one of file, url, or content must be provided (got %d)", count)
	}

	// Enforce inline content size limit.
	if s.Content != "" && int64(len(s.Content)) > cfg.MaxInlineSize {
		return nil, fmt.Errorf("inline content size %d bytes exceeds maximum %d bytes; use file input instead, or set SCHEMABUILDER_MAX_INLINE_SIZE to increase",
			len(s.Content), cfg.MaxInlineSize)
	}

	var key string
	var ttl time.Duration
	if cfg.CacheEnabled {
		key = makeCacheKey(s, settings)
		switch {
		case s.File != "":
			ttl = cfg.CacheFileTTL
		case s.URL != "":
			ttl = cfg.CacheURLTTL
		default:
			ttl = cfg.CacheContentTTL
		}
	}

	if key != "" {
		if cached := specCache.get(key); cached != nil {
			return cached, nil
		}
	}

	opts := settings.options()
	switch {
	case s.File != "":
		opts = append(opts, apischema.WithFilePath(s.File))
	case s.URL != "":
		opts = append(opts, apischema.WithURL(s.URL))
		if !cfg.AllowPrivateIPs {
			opts = append(opts, apischema.WithHTTPClient(newSafeHTTPClient()))
		}
	case s.Content != "":
		opts = append(opts, apischema.WithBytes([]byte(s.Content)))
	}

	compiled, err := apischema.BuildWithOptions(ctx, opts...)
	if err != nil {
		return nil, err
	}

	if key != "" {
		specCache.putWithTTL(key, compiled, ttl)
	}
	return compiled, nil
}
