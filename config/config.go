package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
	Fetch     FetchConfig
	Extractor ExtractorConfig
	Store     StoreConfig
	Scheduler SchedulerConfig
	Webhook   WebhookConfig
	CORS      CORSConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"

	// BatchConcurrency bounds parallel checks inside one batch request.
	BatchConcurrency int // default: 4

	// RequestTimeout bounds one price check made through the API.
	RequestTimeout time.Duration // default: 3m
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting of the API.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per API key.
	Burst int // default: 5
}

// CacheConfig controls the extraction result cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached results.
	MaxEntries int // default: 1000

	// TTL is how long an entry may live regardless of max_age.
	TTL time.Duration // default: 1h
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// FetchConfig controls the fetch engine's retry policy.
type FetchConfig struct {
	MaxRetries     int           // default: 5
	AttemptTimeout time.Duration // default: 25s
	PrewarmTimeout time.Duration // default: 15s

	// PaceMin and PaceMax bound the random wait before every retry.
	PaceMin time.Duration // default: 3s
	PaceMax time.Duration // default: 8s

	// Backoff steps are multiplied by the attempt number.
	RateLimitStep   time.Duration // 429; default: 15s
	UnavailableStep time.Duration // 503; default: 10s
	TimeoutStep     time.Duration // default: 5s

	TransportErrorDelay time.Duration // default: 2s

	// HostRPS caps outbound requests per retailer host; 0 disables.
	HostRPS   float64 // default: 1
	HostBurst int     // default: 2

	// Proxy is an optional http(s) proxy URL for all fetches.
	Proxy string

	// FallbackProxy, when set, adds a second engine routed through this
	// proxy that runs after the direct engine gives up on a URL.
	FallbackProxy string

	// BlockTTL is how long a 403 makes the engine pre-warm a host.
	BlockTTL time.Duration // default: 6h
}

// ExtractorConfig controls per-site extraction strategies.
type ExtractorConfig struct {
	// SitesFile is an optional YAML file of per-site overrides.
	SitesFile string
}

// StoreConfig controls alert persistence. An empty DSN disables alerts.
type StoreConfig struct {
	Driver string // "sqlite" or "postgres"; default: "sqlite"
	DSN    string
}

// SchedulerConfig controls periodic alert rechecks.
type SchedulerConfig struct {
	Enabled     bool          // default: true (needs a store)
	Spec        string        // default: "@every 6h"
	Concurrency int           // default: 4
	RunTimeout  time.Duration // default: 1h
}

// WebhookConfig controls alert notifications. An empty URL disables them.
type WebhookConfig struct {
	URL     string
	Secret  string
	Retries []time.Duration // default: [1s, 5s, 30s]
}

// CORSConfig controls cross-origin access to the API.
type CORSConfig struct {
	AllowedOrigins []string // default: ["*"]
}

// Load reads a .env file when present, then configuration from environment
// variables with sane defaults. Variables already set win over .env.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not read .env file", "error", err)
	}

	return &Config{
		Server: ServerConfig{
			Host:             envOr("PRICEWATCH_HOST", "0.0.0.0"),
			Port:             envIntOr("PRICEWATCH_PORT", 8080),
			Mode:             envOr("PRICEWATCH_MODE", "release"),
			BatchConcurrency: envIntOr("PRICEWATCH_BATCH_CONCURRENCY", 4),
			RequestTimeout:   envDurationOr("PRICEWATCH_REQUEST_TIMEOUT", 3*time.Minute),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("PRICEWATCH_AUTH_ENABLED", true),
			APIKeys: envSliceOr("PRICEWATCH_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("PRICEWATCH_RATE_RPS", 2.0),
			Burst:             envIntOr("PRICEWATCH_RATE_BURST", 5),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("PRICEWATCH_CACHE_MAX_ENTRIES", 1000),
			TTL:        envDurationOr("PRICEWATCH_CACHE_TTL", time.Hour),
		},
		Log: LogConfig{
			Level:  envOr("PRICEWATCH_LOG_LEVEL", "info"),
			Format: envOr("PRICEWATCH_LOG_FORMAT", "json"),
		},
		Fetch: FetchConfig{
			MaxRetries:          envIntOr("PRICEWATCH_FETCH_RETRIES", 5),
			AttemptTimeout:      envDurationOr("PRICEWATCH_FETCH_TIMEOUT", 25*time.Second),
			PrewarmTimeout:      envDurationOr("PRICEWATCH_PREWARM_TIMEOUT", 15*time.Second),
			PaceMin:             envDurationOr("PRICEWATCH_PACE_MIN", 3*time.Second),
			PaceMax:             envDurationOr("PRICEWATCH_PACE_MAX", 8*time.Second),
			RateLimitStep:       envDurationOr("PRICEWATCH_BACKOFF_429", 15*time.Second),
			UnavailableStep:     envDurationOr("PRICEWATCH_BACKOFF_503", 10*time.Second),
			TimeoutStep:         envDurationOr("PRICEWATCH_BACKOFF_TIMEOUT", 5*time.Second),
			TransportErrorDelay: envDurationOr("PRICEWATCH_BACKOFF_ERROR", 2*time.Second),
			HostRPS:             envFloatOr("PRICEWATCH_HOST_RPS", 1.0),
			HostBurst:           envIntOr("PRICEWATCH_HOST_BURST", 2),
			Proxy:               os.Getenv("PRICEWATCH_PROXY"),
			FallbackProxy:       os.Getenv("PRICEWATCH_FALLBACK_PROXY"),
			BlockTTL:            envDurationOr("PRICEWATCH_BLOCK_TTL", 6*time.Hour),
		},
		Extractor: ExtractorConfig{
			SitesFile: os.Getenv("PRICEWATCH_SITES_FILE"),
		},
		Store: StoreConfig{
			Driver: envOr("PRICEWATCH_DB_DRIVER", "sqlite"),
			DSN:    os.Getenv("PRICEWATCH_DB_DSN"),
		},
		Scheduler: SchedulerConfig{
			Enabled:     envBoolOr("PRICEWATCH_SCHEDULER_ENABLED", true),
			Spec:        envOr("PRICEWATCH_SCHEDULER_SPEC", "@every 6h"),
			Concurrency: envIntOr("PRICEWATCH_SCHEDULER_CONCURRENCY", 4),
			RunTimeout:  envDurationOr("PRICEWATCH_SCHEDULER_TIMEOUT", time.Hour),
		},
		Webhook: WebhookConfig{
			URL:     os.Getenv("PRICEWATCH_WEBHOOK_URL"),
			Secret:  os.Getenv("PRICEWATCH_WEBHOOK_SECRET"),
			Retries: envDurationSliceOr("PRICEWATCH_WEBHOOK_RETRIES", []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}),
		},
		CORS: CORSConfig{
			AllowedOrigins: envSliceOr("PRICEWATCH_CORS_ORIGINS", []string{"*"}),
		},
	}
}

func envDurationSliceOr(key string, fallback []time.Duration) []time.Duration {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]time.Duration, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				if d, err := time.ParseDuration(trimmed); err == nil {
					result = append(result, d)
				}
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
