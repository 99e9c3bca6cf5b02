package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etnz/stockledger"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"STOCKLEDGER_ENV", "STOCKLEDGER_DB_PATH", "STOCKLEDGER_REPORTING_CURRENCY",
		"STOCKLEDGER_COST_BASIS", "STOCKLEDGER_RISK_FREE_RATE", "STOCKLEDGER_FRACTIONAL_SHARES",
		"STOCKLEDGER_QUOTES_FILE", "STOCKLEDGER_QUOTES_PATH", "LOG_LEVEL", "LOG_PRETTY",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "./data/stockledger.db", cfg.Database.Path)
	assert.Equal(t, "USD", cfg.Accounting.ReportingCurrency)
	assert.Equal(t, stockledger.AverageCost, cfg.Accounting.CostBasis)
	assert.Equal(t, "0.04", cfg.Accounting.RiskFreeRate.String())
	assert.False(t, cfg.Accounting.FractionalShares)
	assert.Equal(t, "$.quotes[*]", cfg.Quotes.Path)
	assert.False(t, cfg.IsProduction())
	assert.True(t, cfg.Log.Pretty)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STOCKLEDGER_ENV", "Production")
	t.Setenv("STOCKLEDGER_REPORTING_CURRENCY", "EUR")
	t.Setenv("STOCKLEDGER_COST_BASIS", "fifo")
	t.Setenv("STOCKLEDGER_RISK_FREE_RATE", "0.025")
	t.Setenv("STOCKLEDGER_FRACTIONAL_SHARES", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.Log.Pretty)
	assert.Equal(t, "EUR", cfg.Accounting.ReportingCurrency)
	assert.Equal(t, stockledger.FIFO, cfg.Accounting.CostBasis)
	assert.Equal(t, "0.025", cfg.Accounting.RiskFreeRate.String())
	assert.True(t, cfg.Accounting.FractionalShares)
}

func TestFromEnv_Invalid(t *testing.T) {
	testCases := map[string]string{
		"STOCKLEDGER_REPORTING_CURRENCY": "dollars",
		"STOCKLEDGER_COST_BASIS":         "lifo",
		"STOCKLEDGER_RISK_FREE_RATE":     "four percent",
		"STOCKLEDGER_FRACTIONAL_SHARES":  "maybe",
		"LOG_LEVEL":                      "verbose",
	}
	for key, value := range testCases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := FromEnv()
			assert.ErrorContains(t, err, key)
		})
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables already set, even empty ones.
	os.Unsetenv("STOCKLEDGER_DB_PATH")
	os.Unsetenv("STOCKLEDGER_COST_BASIS")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("STOCKLEDGER_DB_PATH=/tmp/ledger.db\nSTOCKLEDGER_COST_BASIS=fifo\n"), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ledger.db", cfg.Database.Path)
	assert.Equal(t, stockledger.FIFO, cfg.Accounting.CostBasis)
	os.Unsetenv("STOCKLEDGER_DB_PATH")
	os.Unsetenv("STOCKLEDGER_COST_BASIS")

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
