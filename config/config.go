package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/use-agent/pricenote/locator"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Engine    EngineConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Notes     NotesConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// EngineConfig controls page loading strategy.
type EngineConfig struct {
	// FetchMode is the default mode when a request does not name one:
	// "browser", "http" or "auto".
	FetchMode string // default: "browser"

	// EscalationDelays is the pause before each engine tier in auto mode.
	EscalationDelays []time.Duration // default: [0s, 0s, 1s]

	// MemoryTTL is how long the engine that found a price is remembered
	// for its host.
	MemoryTTL time.Duration // default: 24h
}

// CacheConfig controls the price response cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached responses.
	MaxEntries int // default: 1000
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "127.0.0.1"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the headless browser.
type BrowserConfig struct {
	// Backend selects the automation library: "rod" or "chromedp".
	Backend string // default: "rod"

	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the rod page pool capacity (max concurrent tabs).
	MaxPages int // default: 4

	// DefaultProxy is the default proxy URL for all requests.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string
}

// ScraperConfig controls price extraction.
type ScraperConfig struct {
	// DefaultTimeout is the navigation timeout when none is given.
	DefaultTimeout time.Duration // default: 30s

	// MaxTimeout is the maximum allowed timeout from the client.
	MaxTimeout time.Duration // default: 120s

	// SelectorTimeout bounds each count / visibility / text call.
	SelectorTimeout time.Duration // default: 5s

	// PriceSelectors is the ordered candidate list, best first.
	PriceSelectors []string

	// BlockedResourceTypes lists resource types the browser never loads.
	// Stylesheets stay enabled: visibility checks depend on them.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string

	// BlockAds drops requests to known ad and tracking hosts.
	BlockAds bool // default: true
}

// RateLimitConfig controls per-client rate limiting of price lookups.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per client.
	RequestsPerSecond float64 // default: 1

	// Burst is the maximum burst size per client.
	Burst int // default: 3
}

// NotesConfig controls the note store.
type NotesConfig struct {
	// DBPath is the SQLite file. ":memory:" keeps notes in memory.
	DBPath string // default: "knowledge.db"
}

// WebhookConfig controls price webhook delivery.
type WebhookConfig struct {
	// Secret signs webhook bodies (HMAC-SHA256). Empty disables signing.
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: envOr("PRICENOTE_HOST", "127.0.0.1"),
			Port: envIntOr("PRICENOTE_PORT", 8080),
			Mode: envOr("PRICENOTE_MODE", "release"),
		},
		Browser: BrowserConfig{
			Backend:      envOr("PRICENOTE_BROWSER_BACKEND", "rod"),
			Headless:     envBoolOr("PRICENOTE_HEADLESS", true),
			MaxPages:     envIntOr("PRICENOTE_MAX_PAGES", 4),
			DefaultProxy: os.Getenv("PRICENOTE_PROXY"),
			NoSandbox:    envBoolOr("PRICENOTE_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("PRICENOTE_BROWSER_BIN"),
		},
		Scraper: ScraperConfig{
			DefaultTimeout:  envDurationOr("PRICENOTE_DEFAULT_TIMEOUT", 30*time.Second),
			MaxTimeout:      envDurationOr("PRICENOTE_MAX_TIMEOUT", 120*time.Second),
			SelectorTimeout: envDurationOr("PRICENOTE_SELECTOR_TIMEOUT", locator.DefaultOpTimeout),
			PriceSelectors:  envSelectorsOr("PRICENOTE_PRICE_SELECTORS", locator.DefaultSelectors),
			BlockedResourceTypes: envSliceOr("PRICENOTE_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
			BlockAds: envBoolOr("PRICENOTE_BLOCK_ADS", true),
		},
		Engine: EngineConfig{
			FetchMode:        envOr("PRICENOTE_FETCH_MODE", "browser"),
			EscalationDelays: envDurationSliceOr("PRICENOTE_ESCALATION_DELAYS", []time.Duration{0, 0, time.Second}),
			MemoryTTL:        envDurationOr("PRICENOTE_ENGINE_MEMORY_TTL", 24*time.Hour),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("PRICENOTE_RATE_RPS", 1.0),
			Burst:             envIntOr("PRICENOTE_RATE_BURST", 3),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("PRICENOTE_CACHE_MAX_ENTRIES", 1000),
		},
		Notes: NotesConfig{
			DBPath: envOr("PRICENOTE_DB_PATH", "knowledge.db"),
		},
		Webhook: WebhookConfig{
			Secret: os.Getenv("PRICENOTE_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("PRICENOTE_LOG_LEVEL", "info"),
			Format: envOr("PRICENOTE_LOG_FORMAT", "text"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that would only fail later, at request time.
func (c *Config) Validate() error {
	switch c.Browser.Backend {
	case "rod", "chromedp":
	default:
		return fmt.Errorf("config: unknown browser backend %q (want rod or chromedp)", c.Browser.Backend)
	}
	switch c.Engine.FetchMode {
	case "browser", "http", "auto":
	default:
		return fmt.Errorf("config: unknown fetch mode %q (want browser, http or auto)", c.Engine.FetchMode)
	}
	if c.Browser.MaxPages < 1 {
		return fmt.Errorf("config: PRICENOTE_MAX_PAGES must be >= 1, got %d", c.Browser.MaxPages)
	}
	if c.Scraper.MaxTimeout < c.Scraper.DefaultTimeout {
		return fmt.Errorf("config: max timeout %s is below default timeout %s",
			c.Scraper.MaxTimeout, c.Scraper.DefaultTimeout)
	}
	if err := locator.ValidateSelectors(c.Scraper.PriceSelectors); err != nil {
		return fmt.Errorf("config: PRICENOTE_PRICE_SELECTORS: %w", err)
	}
	return nil
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
	return envSplitOr(key, fallback, ",")
}

// envSelectorsOr reads a CSS selector list. Entries are separated by ';'
// or newlines because commas already mean "or" inside a selector group.
func envSelectorsOr(key string, fallback []string) []string {
	return envSplitOr(key, fallback, ";\n")
}

func envSplitOr(key string, fallback []string, seps string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.FieldsFunc(v, func(r rune) bool { return strings.ContainsRune(seps, r) })
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
