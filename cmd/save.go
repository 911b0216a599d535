package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vedomost/internal/config"
	"vedomost/internal/document"
	"vedomost/internal/logger"
)

var saveCmd = &cobra.Command{
	Use:   "save [order-file]",
	Short: "Render an order into its Google Sheets document and update the ledgers",
	Long: `Save reads an order from a JSON file, renders it as a delivery note
("Накладная") or payment invoice ("Счет на оплату") onto its own sheet
tab, and then updates the dependent ledgers: the registry row, the
buyer's monthly accounting accumulator and the cost breakdown tab.

The document write is atomic. Ledger updates run after it and are
best-effort: a ledger failure is logged but never undoes the saved
document.

For a "Счет на оплату" the items field is ignored: the invoice lines
are aggregated from the delivery notes of the order's period for the
order's buyer and site.

Required environment variables:
  SPREADSHEET_ID        - delivery-note spreadsheet
  LIST_SPREADSHEET_ID   - registry + accounting spreadsheet
  GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET - OAuth client`,
	Example: `  # Create delivery note №103 from order.json
  vedomost save order.json

  # Overwrite an existing document in place
  vedomost save order.json --edit

  # Force the delivery-note caption for a pre-proforma buyer
  vedomost save order.json --convert-to-invoice

  # Exercise the full save against an in-memory store
  vedomost save order.json --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runSave,
}

// saveOutput is the JSON result of a completed save.
type saveOutput struct {
	Kind        string    `json:"kind"`
	Number      string    `json:"number"`
	SheetTitle  string    `json:"sheet_title"`
	SheetID     int64     `json:"sheet_id"`
	Total       int64     `json:"total"`
	CostTotal   float64   `json:"cost_total"`
	Created     bool      `json:"created"`
	DownloadURL string    `json:"download_url"`
	EditURL     string    `json:"edit_url"`
	SavedAt     time.Time `json:"saved_at"`
}

func init() {
	rootCmd.AddCommand(saveCmd)

	saveCmd.Flags().Bool("edit", false, "Overwrite the existing document instead of creating one")
	saveCmd.Flags().Bool("convert-to-invoice", false, "Use the delivery-note caption for a pre-proforma buyer")
	saveCmd.Flags().Bool("dry-run", false, "Run against an in-memory store instead of Google Sheets")
	saveCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	saveCmd.Flags().Int("timeout", 120, "Operation timeout in seconds")
}

func runSave(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("save")

	edit, _ := cmd.Flags().GetBool("edit")
	convert, _ := cmd.Flags().GetBool("convert-to-invoice")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	outputPath, _ := cmd.Flags().GetString("output")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	orderPath := args[0]
	log.Info().
		Str("file", orderPath).
		Bool("edit", edit).
		Bool("dry_run", dryRun).
		Msg("Starting document save")

	order, err := readOrderFile(orderPath, log)
	if err != nil {
		return err
	}
	header, items, err := order.toDocument()
	if err != nil {
		return fmt.Errorf("order file %s: %w", orderPath, err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(timeoutSecs, log)
	defer cancel()

	store, err := newStore(ctx, cfg, dryRun, log)
	if err != nil {
		return err
	}

	reconciler := document.NewReconciler(store, ledgersFromConfig(cfg), logger.GetLogger())
	result, err := reconciler.Save(ctx, header, items, document.SaveOptions{
		Edit:             edit,
		ConvertToInvoice: convert,
	})
	if err != nil {
		return handleSaveError(header, err)
	}

	log.Info().
		Str("number", header.Number).
		Str("sheet", result.SheetTitle).
		Int64("total", result.Total).
		Msg("Document save completed")

	return writeJSON(saveOutput{
		Kind:        string(header.Kind),
		Number:      header.Number,
		SheetTitle:  result.SheetTitle,
		SheetID:     result.SheetID,
		Total:       result.Total,
		CostTotal:   result.CostTotal,
		Created:     result.Created,
		DownloadURL: result.DownloadURL,
		EditURL:     result.EditURL,
		SavedAt:     time.Now(),
	}, outputPath, log)
}

// handleSaveError turns engine errors into actionable messages.
func handleSaveError(h document.OrderHeader, err error) error {
	var validationErr *document.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return fmt.Errorf("order is not valid: %s", validationErr.Message)
	case errors.Is(err, document.ErrDuplicateDocument):
		return fmt.Errorf("%s №%s уже существует, используйте --edit для изменения", h.Kind, h.Number)
	case errors.Is(err, document.ErrDocumentNotFound):
		return fmt.Errorf("лист №%s не найден, сохраните документ без --edit", h.Number)
	default:
		return err
	}
}
