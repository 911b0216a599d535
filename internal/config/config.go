package config

import (
	"fmt"
	"os"

	"vedomost/internal/logger"
)

type Config struct {
	// Spreadsheet IDs
	WaybillSpreadsheetID        string // накладные (one sheet per delivery note)
	InvoiceSpreadsheetID        string // счета на оплату (period-billed invoices)
	RegistrySpreadsheetID       string // Реестр + Бухгалтерия for delivery notes
	PeriodRegistrySpreadsheetID string // Реестр for period invoices
	CostSpreadsheetID           string // себестоимости (one tab per document number)

	// Google OAuth Configuration
	GoogleClientID     string
	GoogleClientSecret string
	TokenFile          string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		WaybillSpreadsheetID:        getEnv("SPREADSHEET_ID", ""),
		InvoiceSpreadsheetID:        getEnv("PERIOD_SPREADSHEET_ID", ""),
		RegistrySpreadsheetID:       getEnv("LIST_SPREADSHEET_ID", ""),
		PeriodRegistrySpreadsheetID: getEnv("LIST_PERIOD_SPREADSHEET_ID", ""),
		CostSpreadsheetID:           getEnv("COST_SPREADSHEET_ID", ""),
		GoogleClientID:              getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:          getEnv("GOOGLE_CLIENT_SECRET", ""),
		TokenFile:                   getEnv("TOKEN_FILE", "token.json"),
		LogLevel:                    getEnv("LOG_LEVEL", "info"),
		LogFormat:                   getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:               getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:                   getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.WaybillSpreadsheetID == "" {
		return fmt.Errorf("SPREADSHEET_ID is required")
	}
	if c.RegistrySpreadsheetID == "" {
		return fmt.Errorf("LIST_SPREADSHEET_ID is required")
	}
	if c.GoogleClientID == "" {
		return fmt.Errorf("GOOGLE_CLIENT_ID is required")
	}
	if c.GoogleClientSecret == "" {
		return fmt.Errorf("GOOGLE_CLIENT_SECRET is required")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
