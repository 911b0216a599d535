package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"vedomost/internal/auth"
	"vedomost/internal/config"
	"vedomost/internal/document"
	"vedomost/internal/sheetstore"
)

// orderFile is the JSON form a document travels in between commands:
// `save` consumes it, `load` produces it.
type orderFile struct {
	Kind          string          `json:"kind"`
	Number        string          `json:"number"`
	Date          string          `json:"date,omitempty"`
	PeriodStart   string          `json:"period_start,omitempty"`
	PeriodEnd     string          `json:"period_end,omitempty"`
	Buyer         string          `json:"buyer"`
	TaxID         string          `json:"tax_id"`
	BankAccount   string          `json:"bank_account"`
	BankName      string          `json:"bank_name"`
	Site          string          `json:"site,omitempty"`
	PreviousTotal float64         `json:"previous_total,omitempty"`
	Items         []orderFileItem `json:"items,omitempty"`
}

type orderFileItem struct {
	Name     string  `json:"name"`
	Measure  string  `json:"measure"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	UnitCost float64 `json:"unit_cost,omitempty"`
}

// toDocument converts the JSON form into a header and items. Dates stay
// in document form ("31.12.2025") end to end.
func (f orderFile) toDocument() (document.OrderHeader, []document.LineItem, error) {
	h := document.OrderHeader{
		Kind:          document.DocumentKind(f.Kind),
		Number:        f.Number,
		Buyer:         f.Buyer,
		TaxID:         f.TaxID,
		BankAccount:   f.BankAccount,
		BankName:      f.BankName,
		Site:          f.Site,
		PreviousTotal: f.PreviousTotal,
	}

	var err error
	if f.Date != "" {
		if h.Date, err = document.ParseDate(f.Date); err != nil {
			return h, nil, fmt.Errorf("field date: %w", err)
		}
	}
	if f.PeriodStart != "" {
		if h.PeriodStart, err = document.ParseDate(f.PeriodStart); err != nil {
			return h, nil, fmt.Errorf("field period_start: %w", err)
		}
	}
	if f.PeriodEnd != "" {
		if h.PeriodEnd, err = document.ParseDate(f.PeriodEnd); err != nil {
			return h, nil, fmt.Errorf("field period_end: %w", err)
		}
	}

	items := make([]document.LineItem, 0, len(f.Items))
	for _, item := range f.Items {
		items = append(items, document.LineItem{
			Name:     item.Name,
			Measure:  item.Measure,
			Quantity: item.Quantity,
			Price:    item.Price,
			UnitCost: item.UnitCost,
		})
	}
	return h, items, nil
}

// newOrderFile converts a loaded document back into the JSON form.
func newOrderFile(h document.OrderHeader, items []document.LineItem) orderFile {
	f := orderFile{
		Kind:          string(h.Kind),
		Number:        h.Number,
		Buyer:         h.Buyer,
		TaxID:         h.TaxID,
		BankAccount:   h.BankAccount,
		BankName:      h.BankName,
		Site:          h.Site,
		PreviousTotal: h.PreviousTotal,
	}
	if !h.Date.IsZero() {
		f.Date = document.FormatDate(h.Date)
	}
	if !h.PeriodStart.IsZero() {
		f.PeriodStart = document.FormatDate(h.PeriodStart)
	}
	if !h.PeriodEnd.IsZero() {
		f.PeriodEnd = document.FormatDate(h.PeriodEnd)
	}
	for _, item := range items {
		f.Items = append(f.Items, orderFileItem{
			Name:     item.Name,
			Measure:  item.Measure,
			Quantity: item.Quantity,
			Price:    item.Price,
			UnitCost: item.UnitCost,
		})
	}
	return f
}

// readOrderFile loads and decodes an order JSON file.
func readOrderFile(path string, log zerolog.Logger) (orderFile, error) {
	var f orderFile

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().Str("file", path).Msg("Order file not found")
			return f, fmt.Errorf("order file not found: %s", path)
		}
		return f, fmt.Errorf("error reading order file: %w", err)
	}
	if err := json.Unmarshal(data, &f); err != nil {
		log.Error().Err(err).Str("file", path).Msg("Order file is not valid JSON")
		return f, fmt.Errorf("invalid order file %s: %w", path, err)
	}
	return f, nil
}

// ledgersFromConfig maps the configured spreadsheet IDs onto the engine.
func ledgersFromConfig(cfg *config.Config) document.Ledgers {
	return document.Ledgers{
		WaybillSpreadsheetID:        cfg.WaybillSpreadsheetID,
		InvoiceSpreadsheetID:        cfg.InvoiceSpreadsheetID,
		RegistrySpreadsheetID:       cfg.RegistrySpreadsheetID,
		PeriodRegistrySpreadsheetID: cfg.PeriodRegistrySpreadsheetID,
		CostSpreadsheetID:           cfg.CostSpreadsheetID,
	}
}

// newStore opens the Google-backed store, or an empty in-memory one in
// dry-run mode so commands can be exercised without touching real
// spreadsheets.
func newStore(ctx context.Context, cfg *config.Config, dryRun bool, log zerolog.Logger) (sheetstore.Store, error) {
	if dryRun {
		log.Warn().Msg("Dry run: using in-memory store, nothing will be written to Google Sheets")
		return sheetstore.NewMemory(), nil
	}

	session, err := auth.Load(cfg.TokenFile, cfg.GoogleClientID, cfg.GoogleClientSecret)
	if err != nil {
		log.Error().Err(err).Str("token_file", cfg.TokenFile).Msg("Failed to load OAuth session")
		return nil, fmt.Errorf("failed to load OAuth session: %w", err)
	}
	if err := session.EnsureValid(ctx); err != nil {
		return nil, err
	}

	client, err := sheetstore.NewClient(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets client: %w", err)
	}
	return client, nil
}

// commandContext creates a context with timeout and signal handling.
func commandContext(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// writeJSON pretty-prints v to the output file, or stdout when the
// path is empty.
func writeJSON(v interface{}, outputPath string, log zerolog.Logger) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to create JSON output: %w", err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			log.Error().Err(err).Str("output_file", outputPath).Msg("Failed to write output file")
			return fmt.Errorf("failed to write output file: %w", err)
		}
		log.Info().
			Str("output_file", outputPath).
			Int("bytes", len(data)).
			Msg("Output written to file")
		return nil
	}

	if _, err := os.Stdout.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Println()
	return nil
}
