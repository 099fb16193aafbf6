package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "agriweather/backend/libs/config"
	libdb "agriweather/backend/libs/db"
)

// Config defines insights service configuration.
type Config struct {
	HTTP struct {
		Port           string   `yaml:"port" env:"INSIGHTS_HTTP_PORT"`
		AllowedOrigins []string `yaml:"allowedOrigins" env:"INSIGHTS_ALLOWED_ORIGINS"`
	} `yaml:"http"`
	Database struct {
		DSN                 string `yaml:"dsn" env:"INSIGHTS_POSTGRES_DSN"`
		Host                string `yaml:"host" env:"DB_HOST"`
		Port                string `yaml:"port" env:"DB_PORT"`
		User                string `yaml:"user" env:"DB_USER"`
		Password            string `yaml:"password" env:"DB_PASSWORD"`
		Name                string `yaml:"name" env:"DB_NAME"`
		MaxOpenConns        int    `yaml:"maxOpenConns" env:"INSIGHTS_DB_MAX_OPEN_CONNS"`
		QueryTimeoutSeconds int    `yaml:"queryTimeoutSeconds" env:"INSIGHTS_QUERY_TIMEOUT_SECONDS"`
	} `yaml:"database"`
	Redis struct {
		Enabled  bool   `yaml:"enabled" env:"INSIGHTS_REDIS_ENABLED"`
		Addr     string `yaml:"addr" env:"INSIGHTS_REDIS_ADDR"`
		Password string `yaml:"password" env:"INSIGHTS_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"INSIGHTS_REDIS_DB"`
		TTL      int    `yaml:"ttlSeconds" env:"INSIGHTS_REDIS_TTL"`
	} `yaml:"redis"`
	Auth struct {
		Secret string `yaml:"secret" env:"INSIGHTS_AUTH_SECRET"`
		// Operators maps dashboard usernames to bcrypt password hashes.
		Operators map[string]string `yaml:"operators" env:"-"`
	} `yaml:"auth"`
	Stream struct {
		IntervalSeconds int `yaml:"intervalSeconds" env:"INSIGHTS_STREAM_INTERVAL_SECONDS"`
	} `yaml:"stream"`
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg := defaults()
	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.HTTP.Port = "8085"
	cfg.HTTP.AllowedOrigins = []string{"*"}
	cfg.Database.QueryTimeoutSeconds = 5
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.TTL = 300
	cfg.Stream.IntervalSeconds = 30
	return cfg
}

func (c *Config) validate() error {
	if _, err := c.DSN(); err != nil {
		return errors.New("config: database dsn or DB_HOST/DB_NAME required")
	}
	if c.Redis.Enabled && strings.TrimSpace(c.Redis.Addr) == "" {
		return errors.New("config: redis addr required when redis is enabled")
	}
	if len(c.Auth.Operators) > 0 && c.Auth.Secret == "" {
		return errors.New("config: auth secret required when operators are configured")
	}
	if c.Database.QueryTimeoutSeconds < 0 || c.Redis.TTL < 0 || c.Stream.IntervalSeconds < 0 {
		return errors.New("config: durations must not be negative")
	}
	return nil
}

// DSN returns the configured DSN or one assembled from the DB_* fields.
func (c *Config) DSN() (string, error) {
	if dsn := strings.TrimSpace(c.Database.DSN); dsn != "" {
		return dsn, nil
	}
	return libdb.Params{
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		User:     c.Database.User,
		Password: c.Database.Password,
		Name:     c.Database.Name,
	}.DSN()
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8085"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// QueryTimeout returns the per-query timeout.
func (c *Config) QueryTimeout() time.Duration {
	if c.Database.QueryTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Database.QueryTimeoutSeconds) * time.Second
}

// CacheTTL returns the view freshness window.
func (c *Config) CacheTTL() time.Duration {
	if c.Redis.TTL <= 0 {
		return 300 * time.Second
	}
	return time.Duration(c.Redis.TTL) * time.Second
}

// StreamInterval returns the websocket push period.
func (c *Config) StreamInterval() time.Duration {
	if c.Stream.IntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Stream.IntervalSeconds) * time.Second
}
