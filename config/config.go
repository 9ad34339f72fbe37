package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultUserAgent is the fixed desktop user agent sent by every session.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/118.0.5993.90 Safari/537.36"

// Fetch modes for Scraper.FetchMode.
const (
	FetchModeBrowser = "browser"
	FetchModeHTTP    = "http"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Browser   BrowserConfig   `yaml:"browser"`
	Scraper   ScraperConfig   `yaml:"scraper"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string `yaml:"host"` // default: "0.0.0.0"
	Port int    `yaml:"port"` // default: 8000
	Mode string `yaml:"mode"` // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance launched per invocation.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool `yaml:"headless"` // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool `yaml:"no_sandbox"` // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string `yaml:"browser_bin"`

	// Proxy is a fixed upstream proxy URL. No rotation is performed.
	Proxy string `yaml:"proxy"`

	// UserAgent is sent by every page of every session.
	UserAgent string `yaml:"user_agent"`

	// MaxSessions caps concurrently open browser sessions.
	MaxSessions int `yaml:"max_sessions"` // default: 4

	// BlockedResourceTypes lists resource types to block.
	// default: ["Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string `yaml:"blocked_resource_types"`

	// ExtraHeaders are sent with every request of every page, in both
	// fetch modes. The env form is a flow mapping: {"Accept-Language": "de-DE"}.
	ExtraHeaders map[string]string `yaml:"extra_headers"`
}

// ScraperConfig controls the extraction pipeline.
type ScraperConfig struct {
	// NavigationTimeout bounds page load.
	NavigationTimeout time.Duration `yaml:"navigation_timeout"` // default: 15s

	// ReadinessTimeout bounds the wait for the readiness selector.
	ReadinessTimeout time.Duration `yaml:"readiness_timeout"` // default: 10s

	// SnapshotDir receives a diagnostic screenshot per invocation. Empty disables it.
	SnapshotDir string `yaml:"snapshot_dir"`

	// FetchMode selects "browser" (default) or "http" (no JavaScript).
	FetchMode string `yaml:"fetch_mode"`

	// DefaultLimit is used when the caller gives no limit.
	DefaultLimit int `yaml:"default_limit"` // default: 20
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool `yaml:"enabled"` // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string `yaml:"api_keys"`
}

// RateLimitConfig controls per-client rate limiting of incoming requests.
type RateLimitConfig struct {
	// Enabled toggles the limiter.
	Enabled bool `yaml:"enabled"` // default: true

	// RequestsPerSecond is the sustained rate per client.
	RequestsPerSecond float64 `yaml:"requests_per_second"` // default: 2

	// Burst is the maximum burst size per client.
	Burst int `yaml:"burst"` // default: 5
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // default: "info"
	Format string `yaml:"format"` // "json", "text" or "pretty"; default: "json"
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
			Mode: "release",
		},
		Browser: BrowserConfig{
			Headless:             true,
			UserAgent:            DefaultUserAgent,
			MaxSessions:          4,
			BlockedResourceTypes: []string{"Stylesheet", "Font", "Media"},
		},
		Scraper: ScraperConfig{
			NavigationTimeout: 15 * time.Second,
			ReadinessTimeout:  10 * time.Second,
			FetchMode:         FetchModeBrowser,
			DefaultLimit:      20,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 2,
			Burst:             5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, then the optional YAML file
// named by SNEAKERSCOPE_CONFIG, then environment variables.
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv("SNEAKERSCOPE_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Host = envOr("SNEAKERSCOPE_HOST", c.Server.Host)
	c.Server.Port = envIntOr("SNEAKERSCOPE_PORT", c.Server.Port)
	c.Server.Mode = envOr("SNEAKERSCOPE_MODE", c.Server.Mode)

	c.Browser.Headless = envBoolOr("SNEAKERSCOPE_HEADLESS", c.Browser.Headless)
	c.Browser.NoSandbox = envBoolOr("SNEAKERSCOPE_NO_SANDBOX", c.Browser.NoSandbox)
	c.Browser.BrowserBin = envOr("SNEAKERSCOPE_BROWSER_BIN", c.Browser.BrowserBin)
	c.Browser.Proxy = envOr("SNEAKERSCOPE_PROXY", c.Browser.Proxy)
	c.Browser.UserAgent = envOr("SNEAKERSCOPE_USER_AGENT", c.Browser.UserAgent)
	c.Browser.MaxSessions = envIntOr("SNEAKERSCOPE_MAX_SESSIONS", c.Browser.MaxSessions)
	c.Browser.BlockedResourceTypes = envSliceOr("SNEAKERSCOPE_BLOCKED_RESOURCES", c.Browser.BlockedResourceTypes)
	c.Browser.ExtraHeaders = envMapOr("SNEAKERSCOPE_EXTRA_HEADERS", c.Browser.ExtraHeaders)

	c.Scraper.NavigationTimeout = envDurationOr("SNEAKERSCOPE_NAV_TIMEOUT", c.Scraper.NavigationTimeout)
	c.Scraper.ReadinessTimeout = envDurationOr("SNEAKERSCOPE_READY_TIMEOUT", c.Scraper.ReadinessTimeout)
	c.Scraper.SnapshotDir = envOr("SNEAKERSCOPE_SNAPSHOT_DIR", c.Scraper.SnapshotDir)
	c.Scraper.FetchMode = envOr("SNEAKERSCOPE_FETCH_MODE", c.Scraper.FetchMode)
	c.Scraper.DefaultLimit = envIntOr("SNEAKERSCOPE_DEFAULT_LIMIT", c.Scraper.DefaultLimit)

	c.Auth.Enabled = envBoolOr("SNEAKERSCOPE_AUTH_ENABLED", c.Auth.Enabled)
	c.Auth.APIKeys = envSliceOr("SNEAKERSCOPE_API_KEYS", c.Auth.APIKeys)

	c.RateLimit.Enabled = envBoolOr("SNEAKERSCOPE_RATE_ENABLED", c.RateLimit.Enabled)
	c.RateLimit.RequestsPerSecond = envFloatOr("SNEAKERSCOPE_RATE_RPS", c.RateLimit.RequestsPerSecond)
	c.RateLimit.Burst = envIntOr("SNEAKERSCOPE_RATE_BURST", c.RateLimit.Burst)

	c.Log.Level = envOr("SNEAKERSCOPE_LOG_LEVEL", c.Log.Level)
	c.Log.Format = envOr("SNEAKERSCOPE_LOG_FORMAT", c.Log.Format)
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Scraper.NavigationTimeout <= 0:
		return fmt.Errorf("config: navigation timeout must be positive")
	case c.Scraper.ReadinessTimeout <= 0:
		return fmt.Errorf("config: readiness timeout must be positive")
	case c.Scraper.DefaultLimit <= 0:
		return fmt.Errorf("config: default limit must be positive")
	case c.Browser.MaxSessions <= 0:
		return fmt.Errorf("config: max sessions must be positive")
	case c.Browser.UserAgent == "":
		return fmt.Errorf("config: user agent must not be empty")
	}
	switch c.Scraper.FetchMode {
	case FetchModeBrowser, FetchModeHTTP:
	default:
		return fmt.Errorf("config: unknown fetch mode %q", c.Scraper.FetchMode)
	}
	return nil
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

func envMapOr(key string, fallback map[string]string) map[string]string {
	if v := os.Getenv(key); v != "" {
		var m map[string]string
		if err := yaml.Unmarshal([]byte(v), &m); err == nil && len(m) > 0 {
			return m
		}
	}
	return fallback
}
