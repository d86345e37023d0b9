package mcpserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// clearFlowvalidateEnv clears all FLOWVALIDATE_* env vars to isolate tests
// from the ambient environment.
func clearFlowvalidateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"FLOWVALIDATE_CACHE_ENABLED", "FLOWVALIDATE_CACHE_MAX_SIZE",
		"FLOWVALIDATE_CACHE_FILE_TTL", "FLOWVALIDATE_CACHE_CONTENT_TTL",
		"FLOWVALIDATE_CACHE_SWEEP_INTERVAL", "FLOWVALIDATE_NO_WARNINGS",
		"FLOWVALIDATE_MAX_INLINE_SIZE", "FLOWVALIDATE_MAX_LIMIT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearFlowvalidateEnv(t)

	c := loadConfig()

	assert.True(t, c.CacheEnabled)
	assert.Equal(t, 10, c.CacheMaxSize)
	assert.Equal(t, 15*time.Minute, c.CacheFileTTL)
	assert.Equal(t, 15*time.Minute, c.CacheContentTTL)
	assert.Equal(t, 60*time.Second, c.CacheSweepInterval)
	assert.False(t, c.ValidateNoWarnings)
	assert.Equal(t, int64(10*1024*1024), c.MaxInlineSize)
	assert.Equal(t, 1000, c.MaxLimit)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearFlowvalidateEnv(t)
	t.Setenv("FLOWVALIDATE_CACHE_ENABLED", "false")
	t.Setenv("FLOWVALIDATE_CACHE_MAX_SIZE", "50")
	t.Setenv("FLOWVALIDATE_CACHE_FILE_TTL", "30m")
	t.Setenv("FLOWVALIDATE_CACHE_CONTENT_TTL", "10m")
	t.Setenv("FLOWVALIDATE_CACHE_SWEEP_INTERVAL", "30s")
	t.Setenv("FLOWVALIDATE_NO_WARNINGS", "true")
	t.Setenv("FLOWVALIDATE_MAX_INLINE_SIZE", "5242880")
	t.Setenv("FLOWVALIDATE_MAX_LIMIT", "500")

	c := loadConfig()

	assert.False(t, c.CacheEnabled)
	assert.Equal(t, 50, c.CacheMaxSize)
	assert.Equal(t, 30*time.Minute, c.CacheFileTTL)
	assert.Equal(t, 10*time.Minute, c.CacheContentTTL)
	assert.Equal(t, 30*time.Second, c.CacheSweepInterval)
	assert.True(t, c.ValidateNoWarnings)
	assert.Equal(t, int64(5242880), c.MaxInlineSize)
	assert.Equal(t, 500, c.MaxLimit)
}

func TestLoadConfig_InvalidValues_UseDefaults(t *testing.T) {
	clearFlowvalidateEnv(t)
	t.Setenv("FLOWVALIDATE_CACHE_MAX_SIZE", "banana")
	t.Setenv("FLOWVALIDATE_CACHE_FILE_TTL", "not-a-duration")
	t.Setenv("FLOWVALIDATE_CACHE_ENABLED", "maybe")
	t.Setenv("FLOWVALIDATE_MAX_INLINE_SIZE", "abc")
	t.Setenv("FLOWVALIDATE_MAX_LIMIT", "0")

	c := loadConfig()

	assert.True(t, c.CacheEnabled)
	assert.Equal(t, 10, c.CacheMaxSize)
	assert.Equal(t, 15*time.Minute, c.CacheFileTTL)
	assert.Equal(t, int64(10*1024*1024), c.MaxInlineSize)
	assert.Equal(t, 1000, c.MaxLimit)
}

func TestLoadConfig_PartialOverrides(t *testing.T) {
	clearFlowvalidateEnv(t)
	// Only override some values; others stay at defaults.
	t.Setenv("FLOWVALIDATE_MAX_LIMIT", "42")
	t.Setenv("FLOWVALIDATE_CACHE_CONTENT_TTL", "10m")

	c := loadConfig()

	assert.Equal(t, 42, c.MaxLimit)
	assert.Equal(t, 10*time.Minute, c.CacheContentTTL)
	// Unchanged defaults:
	assert.Equal(t, 15*time.Minute, c.CacheFileTTL)
	assert.True(t, c.CacheEnabled)
}
