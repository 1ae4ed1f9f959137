package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Port            string        `toml:"port"`
	DatabasePath    string        `toml:"database_path"`
	LogLevel        string        `toml:"log_level"`
	LogFormat       string        `toml:"log_format"` // "text" or "json"
	PrometheusPort  string        `toml:"prometheus_port"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Port:            "3001",
		DatabasePath:    "todos.db",
		LogLevel:        "info",
		LogFormat:       "text",
		PrometheusPort:  "9090",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load builds the configuration from defaults, an optional TOML file and
// the environment, in increasing order of precedence. A .env file in the
// working directory is loaded into the environment first if present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv("TODO_CONFIG")
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	overrideString(&c.Port, "PORT")
	overrideString(&c.DatabasePath, "DATABASE_PATH")
	overrideString(&c.LogLevel, "LOG_LEVEL")
	overrideString(&c.LogFormat, "LOG_FORMAT")

	// An empty PROMETHEUS_PORT disables the metrics listener.
	if v, ok := os.LookupEnv("PROMETHEUS_PORT"); ok {
		c.PrometheusPort = v
	}

	for key, dst := range map[string]*time.Duration{
		"READ_TIMEOUT":     &c.ReadTimeout,
		"WRITE_TIMEOUT":    &c.WriteTimeout,
		"SHUTDOWN_TIMEOUT": &c.ShutdownTimeout,
	} {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s must be a duration: %w", key, err)
			}
			*dst = d
		}
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("database path is required")
	}
	if err := validatePort("port", c.Port); err != nil {
		return err
	}
	if c.PrometheusPort != "" {
		if err := validatePort("prometheus port", c.PrometheusPort); err != nil {
			return err
		}
		if c.PrometheusPort == c.Port {
			return fmt.Errorf("prometheus port must differ from port %s", c.Port)
		}
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log format must be \"text\" or \"json\", got %q", c.LogFormat)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	return nil
}

func validatePort(name, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("%s must be a number between 1 and 65535, got %q", name, value)
	}
	return nil
}

// overrideString sets *dst to the value of the environment variable key
// when it is set and non-empty.
func overrideString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}
