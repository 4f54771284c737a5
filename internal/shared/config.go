package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Session  SessionConfig  `toml:"session"`
	Auth     AuthConfig     `toml:"auth"`
	Practice PracticeConfig `toml:"practice"`
	Import   ImportConfig   `toml:"import"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host          string  `toml:"host"`
	Port          int     `toml:"port"`
	FrontendURL   string  `toml:"frontend_url"`
	AuthRateLimit float64 `toml:"auth_rate_limit"`
	AuthRateBurst int     `toml:"auth_rate_burst"`
	ShutdownGrace string  `toml:"shutdown_grace"`
}

// Addr returns the host:port the server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Grace returns the shutdown grace period, defaulting to ten seconds.
func (s ServerConfig) Grace() time.Duration {
	return parseDuration(s.ShutdownGrace, 10*time.Second)
}

// SessionConfig contains session store and cookie settings.
type SessionConfig struct {
	Backend      string      `toml:"backend"`
	CookieName   string      `toml:"cookie_name"`
	TTL          string      `toml:"ttl"`
	SecureCookie bool        `toml:"secure_cookie"`
	Redis        RedisConfig `toml:"redis"`
}

// Lifetime returns the session TTL, defaulting to one week.
func (s SessionConfig) Lifetime() time.Duration {
	return parseDuration(s.TTL, 168*time.Hour)
}

// RedisConfig contains the connection settings for the redis session backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// AuthConfig contains password hashing settings.
type AuthConfig struct {
	BcryptCost int `toml:"bcrypt_cost"`
}

// PracticeConfig contains settings for practice session operations.
type PracticeConfig struct {
	LinkPolicy string `toml:"link_policy"`
}

// ImportConfig contains catalog import settings.
type ImportConfig struct {
	SourceURL string `toml:"source_url"`
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	switch c.Session.Backend {
	case "", "memory", "redis":
	default:
		return fmt.Errorf("%w: unknown session backend %q", ErrInvalidConfig, c.Session.Backend)
	}

	switch c.Practice.LinkPolicy {
	case "", "partial", "atomic":
	default:
		return fmt.Errorf("%w: unknown link policy %q", ErrInvalidConfig, c.Practice.LinkPolicy)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func parseDuration(value string, defaultValue time.Duration) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
