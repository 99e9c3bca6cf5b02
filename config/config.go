// Package config loads the settings of the sl command from the environment
// and an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/etnz/stockledger"
	"github.com/etnz/stockledger/logger"
)

// Config holds all configuration for the application
type Config struct {
	Environment string
	Database    DatabaseConfig
	Accounting  AccountingConfig
	Quotes      QuotesConfig
	Log         logger.Config
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// AccountingConfig holds the defaults of the engine.
type AccountingConfig struct {
	ReportingCurrency string
	CostBasis         stockledger.CostBasisMethod
	RiskFreeRate      decimal.Decimal
	FractionalShares  bool
}

// QuotesConfig points to an exported quotes document.
type QuotesConfig struct {
	File string
	Path string // jsonpath selecting the quote objects
}

// IsProduction reports whether the environment is production.
func (c *Config) IsProduction() bool { return c.Environment == "production" }

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()
	return FromEnv()
}

// LoadFile reads configuration from the environment after loading the given
// .env files, which must exist. Variables already set in the environment win.
func LoadFile(filenames ...string) (*Config, error) {
	if err := godotenv.Load(filenames...); err != nil {
		return nil, fmt.Errorf("could not load %v: %w", filenames, err)
	}
	return FromEnv()
}

// FromEnv reads configuration from environment variables only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Environment: strings.ToLower(getEnv("STOCKLEDGER_ENV", "development")),
		Database: DatabaseConfig{
			Path: getEnv("STOCKLEDGER_DB_PATH", "./data/stockledger.db"),
		},
		Accounting: AccountingConfig{
			ReportingCurrency: getEnv("STOCKLEDGER_REPORTING_CURRENCY", "USD"),
		},
		Quotes: QuotesConfig{
			File: getEnv("STOCKLEDGER_QUOTES_FILE", ""),
			Path: getEnv("STOCKLEDGER_QUOTES_PATH", "$.quotes[*]"),
		},
		Log: logger.Config{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	var err error
	if err = stockledger.ValidateCurrency(cfg.Accounting.ReportingCurrency); err != nil {
		return nil, fmt.Errorf("STOCKLEDGER_REPORTING_CURRENCY: %w", err)
	}
	if cfg.Accounting.CostBasis, err = stockledger.ParseCostBasisMethod(getEnv("STOCKLEDGER_COST_BASIS", "average")); err != nil {
		return nil, fmt.Errorf("STOCKLEDGER_COST_BASIS: %w", err)
	}
	if cfg.Accounting.RiskFreeRate, err = decimal.NewFromString(getEnv("STOCKLEDGER_RISK_FREE_RATE", "0.04")); err != nil {
		return nil, fmt.Errorf("STOCKLEDGER_RISK_FREE_RATE: %w", err)
	}
	if cfg.Accounting.FractionalShares, err = getBool("STOCKLEDGER_FRACTIONAL_SHARES", false); err != nil {
		return nil, err
	}
	if cfg.Log.Pretty, err = getBool("LOG_PRETTY", !cfg.IsProduction()); err != nil {
		return nil, err
	}
	if _, err := logger.ParseLevel(cfg.Log.Level); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if cfg.Database.Path == "" {
		return nil, fmt.Errorf("STOCKLEDGER_DB_PATH is empty")
	}
	return cfg, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, value)
	}
	return b, nil
}
