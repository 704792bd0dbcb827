// Package config resolves runtime configuration in priority order:
// defaults, then an optional YAML file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration.
type Config struct {
	Port        string
	DatabaseURL string
	CORSOrigin  string

	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	LogLevel  slog.Level
	LogFormat string

	RateLimitRPS   float64
	RateLimitBurst int

	// Bootstrap admin account, created once when AdminEmail is set.
	AdminEmail    string
	AdminUsername string
	AdminPassword string
	SeedDemo      bool

	ShutdownTimeout time.Duration
}

// configFile mirrors the YAML schema accepted via CONFIG_FILE.
type configFile struct {
	Server struct {
		Port            string `yaml:"port"`
		CORSOrigin      string `yaml:"cors_origin"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Auth struct {
		JWTSecret  string `yaml:"jwt_secret"`
		JWTTTL     string `yaml:"jwt_ttl"`
		BcryptCost int    `yaml:"bcrypt_cost"`
	} `yaml:"auth"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
	Bootstrap struct {
		AdminEmail    string `yaml:"admin_email"`
		AdminUsername string `yaml:"admin_username"`
		AdminPassword string `yaml:"admin_password"`
		SeedDemo      bool   `yaml:"seed_demo"`
	} `yaml:"bootstrap"`
}

// Load resolves configuration. path may be empty, in which case only
// defaults and environment variables apply.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Port:            "8080",
		DatabaseURL:     "sqlite://scamwatch.db",
		CORSOrigin:      "*",
		JWTTTL:          24 * time.Hour,
		BcryptCost:      12,
		LogLevel:        slog.LevelInfo,
		LogFormat:       "json",
		RateLimitRPS:    1.0 / 3.0, // 1 request every 3 seconds
		RateLimitBurst:  3,
		AdminUsername:   "admin",
		ShutdownTimeout: 5 * time.Second,
	}

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	setString(&c.Port, f.Server.Port)
	setString(&c.CORSOrigin, f.Server.CORSOrigin)
	setString(&c.DatabaseURL, f.Database.URL)
	setString(&c.JWTSecret, f.Auth.JWTSecret)
	setString(&c.LogFormat, f.Log.Format)
	setString(&c.AdminEmail, f.Bootstrap.AdminEmail)
	setString(&c.AdminUsername, f.Bootstrap.AdminUsername)
	setString(&c.AdminPassword, f.Bootstrap.AdminPassword)
	if f.Bootstrap.SeedDemo {
		c.SeedDemo = true
	}
	if f.Auth.BcryptCost > 0 {
		c.BcryptCost = f.Auth.BcryptCost
	}
	if f.RateLimit.RPS > 0 {
		c.RateLimitRPS = f.RateLimit.RPS
	}
	if f.RateLimit.Burst > 0 {
		c.RateLimitBurst = f.RateLimit.Burst
	}
	if f.Auth.JWTTTL != "" {
		if c.JWTTTL, err = time.ParseDuration(f.Auth.JWTTTL); err != nil {
			return fmt.Errorf("auth.jwt_ttl: %w", err)
		}
	}
	if f.Server.ShutdownTimeout != "" {
		if c.ShutdownTimeout, err = time.ParseDuration(f.Server.ShutdownTimeout); err != nil {
			return fmt.Errorf("server.shutdown_timeout: %w", err)
		}
	}
	if f.Log.Level != "" {
		if c.LogLevel, err = parseLogLevel(f.Log.Level); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	var err error

	setString(&c.Port, os.Getenv("PORT"))
	setString(&c.DatabaseURL, os.Getenv("DATABASE_URL"))
	setString(&c.CORSOrigin, os.Getenv("CORS_ORIGIN"))
	setString(&c.JWTSecret, os.Getenv("JWT_SECRET"))
	setString(&c.LogFormat, os.Getenv("LOG_FORMAT"))
	setString(&c.AdminEmail, os.Getenv("ADMIN_EMAIL"))
	setString(&c.AdminUsername, os.Getenv("ADMIN_USERNAME"))
	setString(&c.AdminPassword, os.Getenv("ADMIN_PASSWORD"))

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if c.LogLevel, err = parseLogLevel(v); err != nil {
			return fmt.Errorf("LOG_LEVEL: %w", err)
		}
	}
	if v := os.Getenv("JWT_TTL"); v != "" {
		if c.JWTTTL, err = time.ParseDuration(v); err != nil {
			return fmt.Errorf("JWT_TTL: %w", err)
		}
	}
	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		if c.ShutdownTimeout, err = time.ParseDuration(v); err != nil {
			return fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
		}
	}
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		if c.BcryptCost, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("BCRYPT_COST: %w", err)
		}
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if c.RateLimitRPS, err = strconv.ParseFloat(v, 64); err != nil {
			return fmt.Errorf("RATE_LIMIT_RPS: %w", err)
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if c.RateLimitBurst, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("RATE_LIMIT_BURST: %w", err)
		}
	}
	if v := os.Getenv("SEED_DEMO"); v != "" {
		if c.SeedDemo, err = strconv.ParseBool(v); err != nil {
			return fmt.Errorf("SEED_DEMO: %w", err)
		}
	}
	return nil
}

func (c *Config) validate() error {
	// Fail closed: without a signing secret no identity can be trusted.
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if !strings.HasPrefix(c.DatabaseURL, "postgres://") && !strings.HasPrefix(c.DatabaseURL, "sqlite://") {
		return fmt.Errorf("DATABASE_URL: must start with 'postgres://' or 'sqlite://'")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("LOG_FORMAT: invalid value %q, allowed: json, text", c.LogFormat)
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL: must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit: rps and burst must be positive")
	}
	if c.AdminEmail != "" && c.AdminPassword == "" {
		return errors.New("ADMIN_PASSWORD is required when ADMIN_EMAIL is set")
	}
	return nil
}

// SetupLogger builds the process logger and installs it as the slog default.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var handler slog.Handler
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q, allowed: debug, info, warn, error", s)
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
