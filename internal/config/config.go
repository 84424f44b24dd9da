// Package config loads server and CLI settings from the environment. A .env
// file in the working directory is read first when present; variables
// already set in the environment win.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"

	"github.com/mmynk/shelfkeeper/internal/calculator"
	"github.com/mmynk/shelfkeeper/internal/circulation"
)

// DefaultJWTSecret is only accepted outside production.
const DefaultJWTSecret = "dev-secret-change-me"

// Config is the full runtime configuration.
type Config struct {
	Env       string // APP_ENV: development or production
	DBPath    string
	Port      int
	LogLevel  string
	LogFormat string // "json" or "text"

	JWTSecret string
	JWTTTL    time.Duration

	LoanPeriod         time.Duration
	FinePerDay         decimal.Decimal
	LostItemFee        decimal.Decimal
	FineBlockThreshold decimal.Decimal

	// SweepSchedule is a cron expression; empty disables the scheduled sweep.
	SweepSchedule string
}

// Production reports whether APP_ENV is production.
func (c *Config) Production() bool {
	return c.Env == "production"
}

// Circulation returns the circulation policy.
func (c *Config) Circulation() circulation.Config {
	return circulation.Config{
		LoanPeriod: c.LoanPeriod,
		Fines: calculator.FinePolicy{
			PerDay:         c.FinePerDay,
			LostItemFee:    c.LostItemFee,
			BlockThreshold: c.FineBlockThreshold,
		},
	}
}

// Load reads .env (if any) and the environment, then validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	var errs []error
	p := parser{errs: &errs}

	defaults := circulation.DefaultConfig()
	cfg := &Config{
		Env:                getEnv("APP_ENV", "development"),
		DBPath:             getEnv("DB_PATH", "./data/library.db"),
		Port:               p.int("PORT", 8080),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
		JWTSecret:          getEnv("JWT_SECRET", DefaultJWTSecret),
		JWTTTL:             p.duration("JWT_TTL", 24*time.Hour),
		LoanPeriod:         time.Duration(p.int("LOAN_PERIOD_DAYS", int(defaults.LoanPeriod/(24*time.Hour)))) * 24 * time.Hour,
		FinePerDay:         p.decimal("FINE_PER_DAY", defaults.Fines.PerDay),
		LostItemFee:        p.decimal("LOST_ITEM_FEE", defaults.Fines.LostItemFee),
		FineBlockThreshold: p.decimal("FINE_BLOCK_THRESHOLD", defaults.Fines.BlockThreshold),
		SweepSchedule:      getEnv("SWEEP_SCHEDULE", "@every 1h"),
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and cross-field rules.
func (c *Config) Validate() error {
	var errs []error
	if c.Env != "development" && c.Env != "production" && c.Env != "test" {
		errs = append(errs, fmt.Errorf("APP_ENV must be development, test or production, got %q", c.Env))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("DB_PATH is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL))
	}
	if c.Production() && (c.JWTSecret == DefaultJWTSecret || len(c.JWTSecret) < 32) {
		errs = append(errs, errors.New("JWT_SECRET must be set to at least 32 characters in production"))
	}
	if c.LoanPeriod <= 0 {
		errs = append(errs, fmt.Errorf("LOAN_PERIOD_DAYS must be positive"))
	}
	if err := c.Circulation().Fines.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.SweepSchedule != "" {
		if _, err := cron.ParseStandard(c.SweepSchedule); err != nil {
			errs = append(errs, fmt.Errorf("SWEEP_SCHEDULE %q: %w", c.SweepSchedule, err))
		}
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// parser collects conversion errors so every bad variable is reported at once.
type parser struct {
	errs *[]error
}

func (p parser) int(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func (p parser) duration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func (p parser) decimal(key string, fallback decimal.Decimal) decimal.Decimal {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}
