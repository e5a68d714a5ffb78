// Package config loads the service configuration from the environment, an
// optional .env file and an optional config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// DevJWTSecret is the fallback signing secret. It must be overridden outside development.
const DevJWTSecret = "dev_jwt_secret_change_me"

// Config is the validated service configuration.
type Config struct {
	AppPort string
	AppEnv  string

	StoreDriver   string
	DatabaseDSN   string
	MongoURI      string
	MongoDatabase string

	JWTSecret  string
	JWTExpire  time.Duration
	BcryptCost int

	RabbitMQURL   string
	RabbitMQQueue string

	LoginRateLimit float64
	LoginRateBurst int

	LogLevel  string
	LogFormat string

	CORSOrigins []string
}

var storeDrivers = []string{"memory", "sqlite", "postgres", "mongo"}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":5000")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("STORE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "file:eshop.db?cache=shared")
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DATABASE", "eshop")
	v.SetDefault("JWT_SECRET", DevJWTSecret)
	v.SetDefault("JWT_EXPIRE", "720h")
	v.SetDefault("BCRYPT_COST", bcrypt.DefaultCost)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_QUEUE", "catalog_events")
	v.SetDefault("LOGIN_RATE_LIMIT", 0)
	v.SetDefault("LOGIN_RATE_BURST", 5)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")
}

// Load reads configuration. Variables from a .env file in the working
// directory are added to the environment when present; path, when non-empty,
// names a config file (yaml, json, toml) whose keys are overridden by the
// environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	expire, err := time.ParseDuration(v.GetString("JWT_EXPIRE"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRE: %w", err)
	}

	cfg := &Config{
		AppPort:        v.GetString("APP_PORT"),
		AppEnv:         v.GetString("APP_ENV"),
		StoreDriver:    strings.ToLower(v.GetString("STORE_DRIVER")),
		DatabaseDSN:    v.GetString("DATABASE_DSN"),
		MongoURI:       v.GetString("MONGODB_URI"),
		MongoDatabase:  v.GetString("MONGODB_DATABASE"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		JWTExpire:      expire,
		BcryptCost:     v.GetInt("BCRYPT_COST"),
		RabbitMQURL:    v.GetString("RABBITMQ_URL"),
		RabbitMQQueue:  v.GetString("RABBITMQ_QUEUE"),
		LoginRateLimit: v.GetFloat64("LOGIN_RATE_LIMIT"),
		LoginRateBurst: v.GetInt("LOGIN_RATE_BURST"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogFormat:      v.GetString("LOG_FORMAT"),
		CORSOrigins:    splitList(v.GetString("CORS_ORIGINS")),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	var problems []string

	known := false
	for _, d := range storeDrivers {
		if c.StoreDriver == d {
			known = true
			break
		}
	}
	if !known {
		problems = append(problems, fmt.Sprintf("STORE_DRIVER must be one of %s", strings.Join(storeDrivers, ", ")))
	}
	if (c.StoreDriver == "sqlite" || c.StoreDriver == "postgres") && c.DatabaseDSN == "" {
		problems = append(problems, "DATABASE_DSN is required for relational drivers")
	}
	if c.StoreDriver == "mongo" && (c.MongoURI == "" || c.MongoDatabase == "") {
		problems = append(problems, "MONGODB_URI and MONGODB_DATABASE are required for the mongo driver")
	}
	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET must not be empty")
	}
	if c.JWTExpire <= 0 {
		problems = append(problems, "JWT_EXPIRE must be positive")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		problems = append(problems, fmt.Sprintf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.LoginRateLimit < 0 {
		problems = append(problems, "LOGIN_RATE_LIMIT must not be negative")
	}
	if c.LoginRateLimit > 0 && c.LoginRateBurst < 1 {
		problems = append(problems, "LOGIN_RATE_BURST must be at least 1")
	}
	if c.AppPort == "" {
		problems = append(problems, "APP_PORT must not be empty")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// UsesDevSecret reports whether the built-in development secret is in use.
func (c *Config) UsesDevSecret() bool {
	return c.JWTSecret == DevJWTSecret
}

// EventsEnabled reports whether catalog events should be published.
func (c *Config) EventsEnabled() bool {
	return c.RabbitMQURL != ""
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
