package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "agriweather/backend/libs/config"
	"agriweather/backend/services/trigger-service/internal/jobs"
)

// Config defines trigger service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"TRIGGER_HTTP_PORT"`
	} `yaml:"http"`
	Client struct {
		Timeout time.Duration `yaml:"timeout" env:"TRIGGER_CLIENT_TIMEOUT"`
	} `yaml:"client"`
	Breaker struct {
		FailureThreshold uint32        `yaml:"failureThreshold" env:"TRIGGER_BREAKER_FAILURES"`
		OpenTimeout      time.Duration `yaml:"openTimeout" env:"TRIGGER_BREAKER_OPEN_TIMEOUT"`
	} `yaml:"breaker"`
	Auth struct {
		Secret  string `yaml:"secret" env:"TRIGGER_AUTH_SECRET"`
		Subject string `yaml:"subject" env:"TRIGGER_AUTH_SUBJECT"`
	} `yaml:"auth"`
	Jobs []jobs.Job `yaml:"jobs" env:"-"`
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg := defaults()
	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom reads configuration from path and the environment.
func LoadFrom(path string) (*Config, error) {
	cfg := defaults()
	if err := libconfig.LoadConfigFrom(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.HTTP.Port = "8086"
	cfg.Client.Timeout = 30 * time.Second
	cfg.Breaker.FailureThreshold = 5
	cfg.Breaker.OpenTimeout = time.Minute
	cfg.Auth.Subject = "trigger-service"
	return cfg
}

func (c *Config) finalize() error {
	if len(c.Jobs) == 0 {
		c.Jobs = jobs.DefaultJobs()
	}
	list, err := jobs.ValidateAll(c.Jobs)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.Jobs = list
	if c.Client.Timeout < 0 || c.Breaker.OpenTimeout < 0 {
		return errors.New("config: durations must not be negative")
	}
	return nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8086"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}
