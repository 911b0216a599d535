package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"vedomost/internal/config"
	"vedomost/internal/document"
	"vedomost/internal/logger"
)

var loadCmd = &cobra.Command{
	Use:   "load [number]",
	Short: "Read a saved delivery note back into its order JSON form",
	Long: `Load finds the delivery-note sheet holding the given document number,
decodes its header lines and item table, and prints the order as JSON.
Unit costs are restored from the matching cost-ledger tab when one
exists; a missing cost tab leaves them at zero.

The output is directly editable and feeds back into "save --edit". The
totals row of the sheet is captured as previous_total so the accounting
accumulator can be compensated on re-save.`,
	Example: `  # Print delivery note №103 as order JSON
  vedomost load 103

  # Save it for editing, then write it back
  vedomost load 103 -o order.json
  vedomost save order.json --edit`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)

	loadCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	loadCmd.Flags().Int("timeout", 60, "Operation timeout in seconds")
}

func runLoad(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("load")

	outputPath, _ := cmd.Flags().GetString("output")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	number := args[0]

	log.Info().Str("number", number).Msg("Loading document")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(timeoutSecs, log)
	defer cancel()

	store, err := newStore(ctx, cfg, false, log)
	if err != nil {
		return err
	}

	parser := document.NewParser(store, ledgersFromConfig(cfg), logger.GetLogger())
	header, items, err := parser.LoadForEdit(ctx, number)
	if err != nil {
		if errors.Is(err, document.ErrDocumentNotFound) {
			return fmt.Errorf("накладная №%s не найдена", number)
		}
		return err
	}

	log.Info().
		Str("number", number).
		Str("buyer", header.Buyer).
		Int("items", len(items)).
		Msg("Document loaded")

	return writeJSON(newOrderFile(header, items), outputPath, log)
}
