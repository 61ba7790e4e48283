// Package config loads server configuration from an optional YAML file, an
// optional .env file and environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mmynk/tripsplit/internal/money"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Redis    RedisConfig    `yaml:"redis"`
	Currency CurrencyConfig `yaml:"currency"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port int `yaml:"port" validate:"min=1,max=65535"`
}

// DatabaseConfig contains SQLite settings
type DatabaseConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// JWTConfig contains identity token settings
type JWTConfig struct {
	Secret        string        `yaml:"secret" validate:"required,min=16"`
	TokenDuration time.Duration `yaml:"token_duration" validate:"gt=0"`
}

// RedisConfig contains the optional Redis connection. An empty Addr disables
// the distributed lock and the settlement cache.
type RedisConfig struct {
	Addr     string        `yaml:"addr" validate:"omitempty,hostname_port"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db" validate:"min=0"`
	LockTTL  time.Duration `yaml:"lock_ttl" validate:"gt=0"`
	CacheTTL time.Duration `yaml:"cache_ttl" validate:"gt=0"`
}

// Enabled reports whether a Redis address is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// CurrencyConfig is the single currency every amount is expressed in.
type CurrencyConfig struct {
	Code       string `yaml:"code" validate:"required,iso4217"`
	MinorUnits int32  `yaml:"minor_units" validate:"min=0,max=4"`
}

// Policy returns the money policy for the configured currency.
func (c CurrencyConfig) Policy() money.Policy {
	return money.Policy{Code: c.Code, MinorUnits: c.MinorUnits}
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Path: "./data/trips.db"},
		JWT: JWTConfig{
			Secret:        "dev-secret-change-me-please",
			TokenDuration: 24 * time.Hour,
		},
		Redis: RedisConfig{
			LockTTL:  10 * time.Second,
			CacheTTL: 10 * time.Minute,
		},
		Currency: CurrencyConfig{
			Code:       money.DefaultPolicy.Code,
			MinorUnits: money.DefaultPolicy.MinorUnits,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads configuration starting from Default. configPath may be empty; a
// missing .env file is ignored.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Load .env without overriding variables already set in the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := cfg.overrideWithEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() error {
	if val := os.Getenv("PORT"); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", val, err)
		}
		c.Server.Port = port
	}
	if val := os.Getenv("DB_PATH"); val != "" {
		c.Database.Path = val
	}
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}
	if val := os.Getenv("CURRENCY_CODE"); val != "" {
		c.Currency.Code = val
	}
	if val := os.Getenv("CURRENCY_MINOR_UNITS"); val != "" {
		units, err := strconv.ParseInt(val, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid CURRENCY_MINOR_UNITS %q: %w", val, err)
		}
		c.Currency.MinorUnits = int32(units)
	}
	return nil
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}
