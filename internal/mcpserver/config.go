package mcpserver

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// serverConfig holds configurable MCP server defaults, loaded once at
// startup from FLOWVALIDATE_* environment variables via loadConfig().
type serverConfig struct {
	// Cache settings for the document input cache.
	CacheEnabled       bool
	CacheMaxSize       int
	CacheFileTTL       time.Duration
	CacheContentTTL    time.Duration
	CacheSweepInterval time.Duration

	// ValidateNoWarnings suppresses the warnings array by default when
	// the caller doesn't pass no_warnings explicitly.
	ValidateNoWarnings bool

	// MaxInlineSize bounds inline document content accepted by the
	// validate_document tool, in bytes.
	MaxInlineSize int64

	// MaxLimit bounds the limit a caller may request for paginated
	// errors/warnings.
	MaxLimit int
}

// cfg is the active server configuration, initialized at package load time.
var cfg = loadConfig()

// loadConfig reads configuration from FLOWVALIDATE_* environment
// variables. Invalid values log a warning and fall back to the hardcoded
// default.
func loadConfig() *serverConfig {
	return &serverConfig{
		CacheEnabled:       envBool("FLOWVALIDATE_CACHE_ENABLED", true),
		CacheMaxSize:       envInt("FLOWVALIDATE_CACHE_MAX_SIZE", 10),
		CacheFileTTL:       envDuration("FLOWVALIDATE_CACHE_FILE_TTL", 15*time.Minute),
		CacheContentTTL:    envDuration("FLOWVALIDATE_CACHE_CONTENT_TTL", 15*time.Minute),
		CacheSweepInterval: envDuration("FLOWVALIDATE_CACHE_SWEEP_INTERVAL", 60*time.Second),
		ValidateNoWarnings: envBool("FLOWVALIDATE_NO_WARNINGS", false),
		MaxInlineSize:      envInt64("FLOWVALIDATE_MAX_INLINE_SIZE", 10*1024*1024),
		MaxLimit:           envInt("FLOWVALIDATE_MAX_LIMIT", 1000),
	}
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid bool env var, using default", "key", key, "value", v, "default", fallback)
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
		slog.Warn("invalid int env var, using default", "key", key, "value", v, "default", fallback)
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
		slog.Warn("invalid int env var, using default", "key", key, "value", v, "default", fallback)
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
		slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}
