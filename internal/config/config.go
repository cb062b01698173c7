// ABOUTME: Configuration loading and parsing for wpgate
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete wpgate configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	WordPress WordPressConfig `yaml:"wordpress"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds the listen address.
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// WordPressConfig holds everything shared with the cookie issuer. The key
// and salt must match the LOGGED_IN_KEY / LOGGED_IN_SALT of the host
// install; the URL determines the cookie name and the login redirect.
type WordPressConfig struct {
	URL          string `yaml:"url"`
	ServiceURL   string `yaml:"service_url"`
	LoggedInKey  string `yaml:"logged_in_key"`
	LoggedInSalt string `yaml:"logged_in_salt"`
	TablePrefix  string `yaml:"table_prefix"`
}

// DatabaseConfig holds the mirror database coordinates.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "mysql" or "sqlite"
	DSN    string `yaml:"dsn"`

	QueryTimeout    time.Duration `yaml:"-"`
	QueryTimeoutRaw string        `yaml:"query_timeout"`
}

// AuthConfig holds gate behavior configuration.
type AuthConfig struct {
	// UnauthenticatedBehavior is one of "next", "reject", "redirect".
	UnauthenticatedBehavior string `yaml:"unauthenticated_behavior"`
}

// CacheConfig holds cache sizing.
type CacheConfig struct {
	ContentLRUSize int `yaml:"content_lru_size"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded, so
// secrets like the logged_in key can stay out of the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.parseDurations(); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables expand to the empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = ":3000"
	}
	if c.WordPress.TablePrefix == "" {
		c.WordPress.TablePrefix = "wp_"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Auth.UnauthenticatedBehavior == "" {
		c.Auth.UnauthenticatedBehavior = "redirect"
	}
	if c.Cache.ContentLRUSize == 0 {
		c.Cache.ContentLRUSize = 256
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks that all required configuration fields are present and
// valid. Returns an error describing the first failure encountered.
func (c *Config) Validate() error {
	if c.WordPress.URL == "" {
		return fmt.Errorf("wordpress.url is required")
	}
	if c.WordPress.ServiceURL == "" {
		return fmt.Errorf("wordpress.service_url is required")
	}
	if c.WordPress.LoggedInKey == "" {
		return fmt.Errorf("wordpress.logged_in_key is required")
	}
	if c.WordPress.LoggedInSalt == "" {
		return fmt.Errorf("wordpress.logged_in_salt is required")
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}

	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("database.driver must be mysql or sqlite, got %q", c.Database.Driver)
	}

	switch c.Auth.UnauthenticatedBehavior {
	case "next", "reject", "redirect":
	default:
		return fmt.Errorf("auth.unauthenticated_behavior must be next, reject or redirect, got %q",
			c.Auth.UnauthenticatedBehavior)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values.
func (c *Config) parseDurations() error {
	if c.Database.QueryTimeoutRaw != "" {
		d, err := time.ParseDuration(c.Database.QueryTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing query_timeout %q: %w", c.Database.QueryTimeoutRaw, err)
		}
		c.Database.QueryTimeout = d
	}
	return nil
}
