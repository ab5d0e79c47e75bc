package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v8"
)

type Config struct {
	// REST backend
	APIURL        string        `env:"API_URL" envDefault:"http://localhost:8000/api"`
	DjangoBackend bool          `env:"DJANGO_BACKEND" envDefault:"false"`
	HTTPTimeout   time.Duration `env:"HTTP_TIMEOUT" envDefault:"15s"`

	// Durable client state (session, preferences)
	StateDBPath string `env:"STATE_DB_PATH" envDefault:"./data/finstudent.db"`

	// GET response cache; a zero TTL disables it
	CacheTTL  time.Duration `env:"RESPONSE_CACHE_TTL" envDefault:"30s"`
	CacheSize int           `env:"RESPONSE_CACHE_SIZE" envDefault:"64"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Development backend
	DevServerPort        string `env:"DEVSERVER_PORT" envDefault:"8000"`
	DevServerRequireCSRF bool   `env:"DEVSERVER_REQUIRE_CSRF" envDefault:"false"`
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// LoadFrom reads the configuration from the given variables instead of the
// process environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate API URL
	if c.APIURL == "" {
		errors = append(errors, "API URL cannot be empty")
	} else if parsedURL, err := url.Parse(c.APIURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid API URL '%s': %v", c.APIURL, err))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	} else if parsedURL.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid API URL '%s': missing host", c.APIURL))
	}

	if c.HTTPTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must be at least 1 second", c.HTTPTimeout))
	} else if c.HTTPTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must be at most 5 minutes", c.HTTPTimeout))
	}

	if strings.TrimSpace(c.StateDBPath) == "" {
		errors = append(errors, "state database path cannot be empty")
	}

	// Validate response cache
	if c.CacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid response cache TTL %v: must not be negative", c.CacheTTL))
	} else if c.CacheTTL > time.Hour {
		errors = append(errors, fmt.Sprintf("invalid response cache TTL %v: must be at most 1 hour", c.CacheTTL))
	}
	if c.CacheTTL > 0 {
		if c.CacheSize < 1 {
			errors = append(errors, fmt.Sprintf("invalid response cache size %d: must be at least 1", c.CacheSize))
		} else if c.CacheSize > 10000 {
			errors = append(errors, fmt.Sprintf("invalid response cache size %d: must be at most 10000", c.CacheSize))
		}
	}

	validLevels := []string{"debug", "info", "warn", "warning", "error"}
	isValidLevel := false
	for _, level := range validLevels {
		if strings.EqualFold(c.LogLevel, level) {
			isValidLevel = true
			break
		}
	}
	if !isValidLevel {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels))
	}

	// Validate port
	if port, err := strconv.Atoi(c.DevServerPort); err != nil {
		errors = append(errors, fmt.Sprintf("invalid dev server port '%s': must be a number", c.DevServerPort))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid dev server port %d: must be between 1 and 65535", port))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// CacheEnabled reports whether GET responses should be cached.
func (c *Config) CacheEnabled() bool {
	return c.CacheTTL > 0
}
