package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/caarlos0/env/v11"
	"github.com/iwvelando/household-budget/internal/config"
	"github.com/iwvelando/household-budget/pkg/constants"
	"gopkg.in/yaml.v3"
)

// Config defines runtime parameters for the HTTP server.
type Config struct {
	Address       string               `yaml:"address" env:"HOUSEHOLD_BUDGET_ADDRESS"`
	MaxUploadSize string               `yaml:"maxUploadSize" env:"HOUSEHOLD_BUDGET_MAX_UPLOAD_SIZE"`
	ProfileFile   string               `yaml:"profileFile" env:"HOUSEHOLD_BUDGET_PROFILE_FILE"`
	RateLimit     RateLimitConfig      `yaml:"rateLimit"`
	Cache         CacheConfig          `yaml:"cache"`
	Logging       config.LoggingConfig `yaml:"logging"`

	uploadSizeBytes int64
	rateLimitWindow time.Duration
	cacheTTL        time.Duration
}

// RateLimitConfig bounds the requests a single client may issue per window.
// Zero requests disables limiting.
type RateLimitConfig struct {
	Requests int    `yaml:"requests" env:"HOUSEHOLD_BUDGET_RATE_LIMIT_REQUESTS"`
	Window   string `yaml:"window" env:"HOUSEHOLD_BUDGET_RATE_LIMIT_WINDOW"`
}

// CacheConfig selects where computed results are memoized. Without a redis
// address an in-process cache is used.
type CacheConfig struct {
	RedisAddr  string `yaml:"redisAddr" env:"HOUSEHOLD_BUDGET_REDIS_ADDR"`
	TTL        string `yaml:"ttl" env:"HOUSEHOLD_BUDGET_CACHE_TTL"`
	MaxEntries int    `yaml:"maxEntries" env:"HOUSEHOLD_BUDGET_CACHE_MAX_ENTRIES"`
}

// LoadConfig loads the server configuration from YAML and applies environment
// overrides. If the file does not exist, defaults are used without error.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Address:       constants.DefaultServerAddress,
		MaxUploadSize: fmt.Sprintf("%d", constants.DefaultMaxUploadSizeBytes),
		RateLimit: RateLimitConfig{
			Requests: constants.DefaultRateLimitRequests,
			Window:   constants.DefaultRateLimitWindow,
		},
		Cache: CacheConfig{
			TTL:        constants.DefaultCacheTTL,
			MaxEntries: constants.DefaultMemoryCacheEntries,
		},
		Logging:         config.LoggingConfig{},
		uploadSizeBytes: constants.DefaultMaxUploadSizeBytes,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read server config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse server config: %w", err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RateLimitWindow returns the parsed refill window.
func (c *Config) RateLimitWindow() time.Duration {
	return c.rateLimitWindow
}

// CacheTTL returns the parsed lifetime of memoized results.
func (c *Config) CacheTTL() time.Duration {
	return c.cacheTTL
}

// UploadSizeBytes returns the configured upload size in bytes.
func (c *Config) UploadSizeBytes() int64 {
	return c.uploadSizeBytes
}

// SetUploadSizeBytes overrides the configured upload size.
func (c *Config) SetUploadSizeBytes(size int64) {
	if size > 0 {
		c.uploadSizeBytes = size
		c.MaxUploadSize = fmt.Sprintf("%d", size)
	}
}

func (c *Config) normalize() error {
	if c.Address == "" {
		c.Address = constants.DefaultServerAddress
	}

	window, err := parseDuration(c.RateLimit.Window, constants.DefaultRateLimitWindow)
	if err != nil {
		return fmt.Errorf("invalid rate limit window: %w", err)
	}
	c.rateLimitWindow = window
	if c.RateLimit.Requests < 0 {
		c.RateLimit.Requests = 0
	}

	ttl, err := parseDuration(c.Cache.TTL, constants.DefaultCacheTTL)
	if err != nil {
		return fmt.Errorf("invalid cache ttl: %w", err)
	}
	c.cacheTTL = ttl
	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = constants.DefaultMemoryCacheEntries
	}

	sizeStr := strings.TrimSpace(c.MaxUploadSize)
	if sizeStr == "" {
		c.uploadSizeBytes = constants.DefaultMaxUploadSizeBytes
		c.MaxUploadSize = fmt.Sprintf("%d", constants.DefaultMaxUploadSizeBytes)
		return nil
	}

	bytes, err := ParseSize(sizeStr)
	if err != nil {
		return err
	}
	if bytes <= 0 {
		bytes = constants.DefaultMaxUploadSizeBytes
	}
	c.uploadSizeBytes = bytes
	return nil
}

func parseDuration(value, fallback string) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		trimmed = fallback
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", trimmed)
	}
	return d, nil
}

// ParseSize converts a human-friendly byte string (e.g., "256K", "10M") into bytes.
func ParseSize(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return constants.DefaultMaxUploadSizeBytes, nil
	}

	upper := strings.ToUpper(trimmed)
	idx := len(upper)
	for idx > 0 && !unicode.IsDigit(rune(upper[idx-1])) {
		idx--
	}
	if idx == 0 {
		return 0, fmt.Errorf("invalid size: %s", value)
	}
	numPart := strings.TrimSpace(upper[:idx])
	unitPart := strings.TrimSpace(upper[idx:])

	if numPart == "" {
		return 0, fmt.Errorf("invalid size: %s", value)
	}

	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}

	var multiplier int64
	switch unitPart {
	case "", "B":
		multiplier = 1
	case "K", "KB":
		multiplier = 1024
	case "M", "MB":
		multiplier = 1024 * 1024
	case "G", "GB":
		multiplier = 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("unsupported size unit %q", unitPart)
	}

	result := n * multiplier
	if result < 0 {
		return 0, fmt.Errorf("size overflow for value %s", value)
	}
	return result, nil
}
