package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SPREADSHEET_ID", "waybills-id")
	t.Setenv("LIST_SPREADSHEET_ID", "registry-id")
	t.Setenv("GOOGLE_CLIENT_ID", "client-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "client-secret")
}

func TestLoad(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PERIOD_SPREADSHEET_ID", "invoices-id")
	t.Setenv("COST_SPREADSHEET_ID", "costs-id")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "waybills-id", cfg.WaybillSpreadsheetID)
	assert.Equal(t, "invoices-id", cfg.InvoiceSpreadsheetID)
	assert.Equal(t, "registry-id", cfg.RegistrySpreadsheetID)
	assert.Equal(t, "costs-id", cfg.CostSpreadsheetID)
	assert.Equal(t, "token.json", cfg.TokenFile)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, "stdout", cfg.LogOutput)
	assert.Empty(t, cfg.CostSpreadsheetID, "the cost ledger is optional")
}

func TestValidateMissingRequired(t *testing.T) {
	tests := []struct {
		name string
		omit string
	}{
		{"waybill spreadsheet", "SPREADSHEET_ID"},
		{"registry spreadsheet", "LIST_SPREADSHEET_ID"},
		{"client id", "GOOGLE_CLIENT_ID"},
		{"client secret", "GOOGLE_CLIENT_SECRET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.omit, "")

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.omit)
		})
	}
}

func TestGetLoggerConfig(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	lc := cfg.GetLoggerConfig()
	assert.Equal(t, "json", lc.Format)
	assert.Equal(t, cfg.LogLevel, lc.Level)
}
